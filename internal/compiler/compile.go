package compiler

import (
	"fmt"

	"github.com/roach88/choreo/internal/graph"
	"github.com/roach88/choreo/internal/ir"
	"github.com/roach88/choreo/internal/nfa"
	"github.com/roach88/choreo/internal/rei"
)

// Compiled holds every artifact derived from one definition. The automaton
// is read-only once returned and may be shared by concurrent engines.
type Compiled struct {
	Definition *ir.Choreography
	Hash       string
	Graph      *graph.Graph
	REI        rei.Term
	NFA        *nfa.NFA
}

// Compile runs the full pipeline: graph indexing, choreography to
// expression, expression to automaton.
func Compile(def *ir.Choreography, opts REIOptions) (*Compiled, error) {
	hash, err := ir.ChoreographyHash(def)
	if err != nil {
		return nil, fmt.Errorf("hash definition: %w", err)
	}

	g, err := graph.New(def)
	if err != nil {
		return nil, fmt.Errorf("index graph: %w", err)
	}

	term, err := ToREIWith(g, opts)
	if err != nil {
		return nil, err
	}

	a, err := ToNFA(term)
	if err != nil {
		return nil, fmt.Errorf("build automaton: %w", err)
	}

	return &Compiled{Definition: def, Hash: hash, Graph: g, REI: term, NFA: a}, nil
}
