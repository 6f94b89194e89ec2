package nfa

import (
	"bufio"
	"fmt"
	"io"
	"strconv"
)

// WriteDOT writes the automaton in Graphviz DOT format. Accepting states are
// drawn as double circles and the initial state gets an arrow from an
// invisible point. Epsilon transitions are labelled with ε.
func (a *NFA) WriteDOT(w io.Writer, name string) error {
	if name == "" {
		name = "nfa"
	}
	bw := bufio.NewWriter(w)

	fmt.Fprintf(bw, "digraph %s {\n", strconv.Quote(name))
	fmt.Fprintln(bw, "  rankdir=LR;")
	fmt.Fprintln(bw, "  node [shape=circle];")
	fmt.Fprintln(bw, "  edge [arrowsize=0.5];")

	if a.hasInitial {
		fmt.Fprintln(bw, `  "__start" [shape=point];`)
		fmt.Fprintf(bw, "  \"__start\" -> %s;\n", strconv.Quote(a.Name(a.initial)))
	}
	for _, id := range a.States() {
		shape := "circle"
		if a.IsFinalState(id) {
			shape = "doublecircle"
		}
		fmt.Fprintf(bw, "  %s [shape=%s];\n", strconv.Quote(a.Name(id)), shape)
	}
	for _, t := range a.Transitions() {
		label := t.Label
		if label == Epsilon {
			label = "&#949;"
		}
		fmt.Fprintf(bw, "  %s -> %s [label=%s];\n",
			strconv.Quote(a.Name(t.Source)), strconv.Quote(a.Name(t.Target)), strconv.Quote(label))
	}
	fmt.Fprintln(bw, "}")

	return bw.Flush()
}
