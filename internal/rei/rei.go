// Package rei implements regular expressions with interleaving: ordinary
// regular expressions over event symbols extended with a parallel operator
// whose operands may occur in any relative interleaving.
//
// Terms are immutable values. Constructors copy their operand slices and
// composition always builds new nodes.
package rei

import (
	"errors"
	"slices"
	"strings"
)

// ErrEmptyConc is returned when a concatenation is built from no items.
var ErrEmptyConc = errors.New("concatenation requires at least one item")

// Term is a node of the expression algebra. The set of implementations is
// closed: Start, End, Symbol, Epsilon, Star, Conc, Union and Par.
type Term interface {
	// String returns the canonical textual form.
	String() string
	term()
}

// Start anchors the beginning of a compiled expression. Printed as ^.
type Start struct{}

// End anchors the end of a compiled expression. Printed as $.
type End struct{}

// Epsilon is the empty symbol.
type Epsilon struct{}

// Symbol is an atomic event label.
type Symbol struct {
	Text string
}

// Star is zero or more repetitions of Inner.
type Star struct {
	Inner Term
}

// Conc is an ordered sequence. It never directly contains another Conc.
type Conc struct {
	items []Term
}

// Union is a choice of exactly one of its items.
type Union struct {
	items []Term
}

// Par requires every item to occur, in any interleaving of their own orders.
type Par struct {
	items []Term
}

func (Start) term()   {}
func (End) term()     {}
func (Epsilon) term() {}
func (Symbol) term()  {}
func (Star) term()    {}
func (Conc) term()    {}
func (Union) term()   {}
func (Par) term()     {}

// NewConc builds a sequence, splicing the items of nested sequences in place.
func NewConc(items ...Term) (Conc, error) {
	if len(items) == 0 {
		return Conc{}, ErrEmptyConc
	}
	flat := make([]Term, 0, len(items))
	for _, it := range items {
		if c, ok := it.(Conc); ok {
			flat = append(flat, c.items...)
			continue
		}
		flat = append(flat, it)
	}
	return Conc{items: flat}, nil
}

// MustConc is like NewConc but panics on an empty item list.
func MustConc(items ...Term) Conc {
	c, err := NewConc(items...)
	if err != nil {
		panic(err)
	}
	return c
}

// NewUnion builds a choice between items.
func NewUnion(items ...Term) Union {
	return Union{items: slices.Clone(items)}
}

// NewPar builds an interleaving of items.
func NewPar(items ...Term) Par {
	return Par{items: slices.Clone(items)}
}

// NewStar builds a repetition of inner.
func NewStar(inner Term) Star {
	return Star{Inner: inner}
}

// Items returns a copy of the sequence items.
func (c Conc) Items() []Term { return slices.Clone(c.items) }

// Items returns a copy of the alternatives.
func (u Union) Items() []Term { return slices.Clone(u.items) }

// Items returns a copy of the interleaved items.
func (p Par) Items() []Term { return slices.Clone(p.items) }

func (Start) String() string   { return "^" }
func (End) String() string     { return "$" }
func (Epsilon) String() string { return "''" }

func (s Symbol) String() string {
	if s.Text == "" || strings.ContainsAny(s.Text, " \t\n\r") {
		return "'" + s.Text + "'"
	}
	return s.Text
}

func (s Star) String() string {
	if isAtom(s.Inner) {
		return s.Inner.String() + "*"
	}
	return "(" + s.Inner.String() + ")*"
}

func (c Conc) String() string {
	var b strings.Builder
	for i, it := range c.items {
		if i > 0 && !isAnchor(c.items[i-1]) {
			if _, isEnd := it.(End); !isEnd {
				b.WriteByte(' ')
			}
		}
		b.WriteString(it.String())
	}
	return b.String()
}

func (u Union) String() string { return joinItems(u.items, " | ") }
func (p Par) String() string   { return joinItems(p.items, " & ") }

func joinItems(items []Term, sep string) string {
	parts := make([]string, len(items))
	for i, it := range items {
		parts[i] = it.String()
	}
	return "(" + strings.Join(parts, sep) + ")"
}

// isAnchor reports whether no space is printed after t inside a sequence.
func isAnchor(t Term) bool {
	switch t.(type) {
	case Start, End:
		return true
	}
	return false
}

func isAtom(t Term) bool {
	switch t.(type) {
	case Start, End, Epsilon, Symbol:
		return true
	}
	return false
}

// Symbols returns the sorted set of symbol texts occurring in t.
func Symbols(t Term) []string {
	seen := make(map[string]bool)
	Walk(t, func(t Term) {
		if s, ok := t.(Symbol); ok {
			seen[s.Text] = true
		}
	})
	out := make([]string, 0, len(seen))
	for s := range seen {
		out = append(out, s)
	}
	slices.Sort(out)
	return out
}

// Walk calls fn for t and every sub-term in depth-first pre-order.
func Walk(t Term, fn func(Term)) {
	fn(t)
	switch v := t.(type) {
	case Star:
		Walk(v.Inner, fn)
	case Conc:
		for _, it := range v.items {
			Walk(it, fn)
		}
	case Union:
		for _, it := range v.items {
			Walk(it, fn)
		}
	case Par:
		for _, it := range v.items {
			Walk(it, fn)
		}
	}
}
