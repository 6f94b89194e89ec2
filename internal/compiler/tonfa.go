package compiler

import (
	"fmt"
	"slices"
	"strconv"
	"strings"

	"github.com/roach88/choreo/internal/nfa"
	"github.com/roach88/choreo/internal/rei"
)

// ToNFA compiles an expression into an automaton accepting the same event
// sequences.
//
// Every term compiles to a fragment of the target automaton with one entry
// state and a set of exit states; fragments are glued with epsilon
// transitions. Par is the exception: each operand is compiled into an
// automaton of its own and the product of the operands is materialised in
// the target, one composite state per reachable tuple of operand states.
// A composite state is accepting when every component is. Two composite
// states are linked when they differ in exactly one component and that
// component's automaton links them.
//
// The product has O(|Q1| * ... * |Qn|) states in the worst case, so wide or
// deeply nested parallel gateways grow quickly.
func ToNFA(t rei.Term) (*nfa.NFA, error) {
	b := &builder{a: nfa.New()}
	f, err := b.compile(t)
	if err != nil {
		return nil, err
	}
	if err := b.a.SetInitial(f.entry); err != nil {
		return nil, err
	}
	for _, s := range f.accepting() {
		if err := b.a.AddFinal(s); err != nil {
			return nil, err
		}
	}
	return b.a, nil
}

// fragment exits continue into whatever follows; finals were reached through
// $ and accept without continuing.
type fragment struct {
	entry  nfa.StateID
	exits  []nfa.StateID
	finals []nfa.StateID
}

func (f fragment) accepting() []nfa.StateID {
	return append(slices.Clone(f.exits), f.finals...)
}

type builder struct {
	a *nfa.NFA
}

func (b *builder) compile(t rei.Term) (fragment, error) {
	switch t := t.(type) {
	case rei.Start:
		s := b.a.NewState("")
		return fragment{entry: s, exits: []nfa.StateID{s}}, nil

	case rei.End:
		s := b.a.NewState("")
		return fragment{entry: s, finals: []nfa.StateID{s}}, nil

	case rei.Symbol:
		return b.edge(t.Text)

	case rei.Epsilon:
		return b.edge(nfa.Epsilon)

	case rei.Star:
		return b.star(t)

	case rei.Conc:
		return b.conc(t.Items())

	case rei.Union:
		return b.union(t.Items())

	case rei.Par:
		return b.par(t.Items())

	default:
		return fragment{}, fmt.Errorf("compile: unsupported term %T", t)
	}
}

func (b *builder) edge(label string) (fragment, error) {
	src, dst := b.a.NewState(""), b.a.NewState("")
	if err := b.a.AddTransition(src, dst, label); err != nil {
		return fragment{}, err
	}
	return fragment{entry: src, exits: []nfa.StateID{dst}}, nil
}

// star wraps the operand with a fresh accepting entry state that loops
// through it. A fresh state keeps cycles internal to the operand from
// becoming accepting.
func (b *builder) star(t rei.Star) (fragment, error) {
	inner, err := b.compile(t.Inner)
	if err != nil {
		return fragment{}, err
	}
	s := b.a.NewState("")
	if err := b.a.AddTransition(s, inner.entry, nfa.Epsilon); err != nil {
		return fragment{}, err
	}
	if err := b.link(inner.exits, s); err != nil {
		return fragment{}, err
	}
	return fragment{entry: s, exits: []nfa.StateID{s}, finals: inner.finals}, nil
}

func (b *builder) conc(items []rei.Term) (fragment, error) {
	if len(items) == 0 {
		return fragment{}, rei.ErrEmptyConc
	}
	first, err := b.compile(items[0])
	if err != nil {
		return fragment{}, err
	}
	prev := first
	finals := slices.Clone(first.finals)
	for _, item := range items[1:] {
		f, err := b.compile(item)
		if err != nil {
			return fragment{}, err
		}
		if err := b.link(prev.exits, f.entry); err != nil {
			return fragment{}, err
		}
		finals = append(finals, f.finals...)
		prev = f
	}
	return fragment{entry: first.entry, exits: prev.exits, finals: finals}, nil
}

// union of no operands is a single rejecting state.
func (b *builder) union(items []rei.Term) (fragment, error) {
	s := b.a.NewState("")
	out := fragment{entry: s}
	for _, item := range items {
		f, err := b.compile(item)
		if err != nil {
			return fragment{}, err
		}
		if err := b.a.AddTransition(s, f.entry, nfa.Epsilon); err != nil {
			return fragment{}, err
		}
		out.exits = append(out.exits, f.exits...)
		out.finals = append(out.finals, f.finals...)
	}
	return out, nil
}

func (b *builder) link(from []nfa.StateID, to nfa.StateID) error {
	for _, s := range from {
		if err := b.a.AddTransition(s, to, nfa.Epsilon); err != nil {
			return err
		}
	}
	return nil
}

// component is one operand of a product, compiled on its own.
type component struct {
	a      *nfa.NFA
	entry  nfa.StateID
	exits  nfa.StateSet
	finals nfa.StateSet
}

// par of no operands accepts only the empty sequence. A product state whose
// components are all done is an exit, or a final when every component
// reached $.
func (b *builder) par(items []rei.Term) (fragment, error) {
	switch len(items) {
	case 0:
		s := b.a.NewState("")
		return fragment{entry: s, exits: []nfa.StateID{s}}, nil
	case 1:
		return b.compile(items[0])
	}

	comps := make([]component, len(items))
	for i, item := range items {
		sub := &builder{a: nfa.New()}
		f, err := sub.compile(item)
		if err != nil {
			return fragment{}, err
		}
		comps[i] = component{
			a:      sub.a,
			entry:  f.entry,
			exits:  nfa.NewStateSet(f.exits...),
			finals: nfa.NewStateSet(f.finals...),
		}
	}

	var (
		out   fragment
		index = make(map[string]nfa.StateID)
		queue [][]nfa.StateID
	)
	state := func(tuple []nfa.StateID) nfa.StateID {
		key := tupleKey(tuple)
		if id, ok := index[key]; ok {
			return id
		}
		id := b.a.NewState(tupleName(comps, tuple))
		index[key] = id
		queue = append(queue, tuple)

		done, ended := true, true
		for i, c := range comps {
			switch {
			case c.finals.Has(tuple[i]):
			case c.exits.Has(tuple[i]):
				ended = false
			default:
				done = false
			}
		}
		switch {
		case done && ended:
			out.finals = append(out.finals, id)
		case done:
			out.exits = append(out.exits, id)
		}
		return id
	}

	initial := make([]nfa.StateID, len(comps))
	for i, c := range comps {
		initial[i] = c.entry
	}
	out.entry = state(initial)

	for len(queue) > 0 {
		tuple := queue[0]
		queue = queue[1:]
		src := index[tupleKey(tuple)]

		for i, c := range comps {
			for _, tr := range c.a.TransitionsFrom(tuple[i]) {
				next := make([]nfa.StateID, len(tuple))
				copy(next, tuple)
				next[i] = tr.Target
				if err := b.a.AddTransition(src, state(next), tr.Label); err != nil {
					return fragment{}, err
				}
			}
		}
	}
	return out, nil
}

func tupleKey(tuple []nfa.StateID) string {
	var sb strings.Builder
	for i, id := range tuple {
		if i > 0 {
			sb.WriteByte(',')
		}
		sb.WriteString(strconv.FormatUint(uint64(id), 10))
	}
	return sb.String()
}

func tupleName(comps []component, tuple []nfa.StateID) string {
	names := make([]string, len(tuple))
	for i, id := range tuple {
		names[i] = comps[i].a.Name(id)
	}
	return "<" + strings.Join(names, "|") + ">"
}
