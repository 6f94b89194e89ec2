// Package nfa implements non-deterministic finite automata over string
// labels, with epsilon transitions, a backtracking string matcher and
// Graphviz export.
//
// States live in an arena and are addressed by dense StateID handles; a side
// table maps human-readable names to handles. All set and map operations
// key off the handle, never the name.
//
// An NFA is built once and then only read. Concurrent readers are safe once
// construction has completed; mutation after sharing is not.
package nfa

import (
	"errors"
	"fmt"
	"slices"
)

// Epsilon is the label of a transition that consumes no input.
const Epsilon = ""

var (
	// ErrUnknownState is returned when a handle does not belong to the automaton.
	ErrUnknownState = errors.New("unknown state")

	// ErrNoInitialState is returned by matching operations before SetInitial.
	ErrNoInitialState = errors.New("automaton has no initial state")
)

// StateID is a dense handle into the state arena.
type StateID uint32

// Transition is a labeled edge. Label Epsilon denotes an epsilon transition.
type Transition struct {
	Source StateID
	Target StateID
	Label  string
}

// NFA is a non-deterministic finite automaton.
type NFA struct {
	names  []string
	byName map[string]StateID

	// edges[src][label] holds the targets; labels[src] keeps label insertion
	// order so that iteration is deterministic.
	edges  []map[string]*StateSet
	labels [][]string

	initial    StateID
	hasInitial bool
	final      StateSet
}

// New returns an empty automaton.
func New() *NFA {
	return &NFA{byName: make(map[string]StateID)}
}

// AddState returns the state called name, creating it if needed.
func (a *NFA) AddState(name string) StateID {
	if id, ok := a.byName[name]; ok {
		return id
	}
	return a.push(name)
}

// NewState always creates a fresh state. The hint becomes its name when
// unused; otherwise, or when hint is empty, a unique name is derived.
func (a *NFA) NewState(hint string) StateID {
	id := StateID(len(a.names))
	name := hint
	if name == "" {
		name = fmt.Sprintf("q%d", id)
	}
	for n := 1; ; n++ {
		if _, taken := a.byName[name]; !taken {
			break
		}
		name = fmt.Sprintf("%s#%d", hint, int(id)+n)
	}
	return a.push(name)
}

func (a *NFA) push(name string) StateID {
	id := StateID(len(a.names))
	a.names = append(a.names, name)
	a.byName[name] = id
	a.edges = append(a.edges, nil)
	a.labels = append(a.labels, nil)
	return id
}

// State looks a state up by name.
func (a *NFA) State(name string) (StateID, bool) {
	id, ok := a.byName[name]
	return id, ok
}

// Name returns the name of id.
func (a *NFA) Name(id StateID) string {
	if !a.valid(id) {
		return fmt.Sprintf("<invalid %d>", id)
	}
	return a.names[id]
}

// Names maps a set of handles to their names in ascending handle order.
func (a *NFA) Names(set StateSet) []string {
	ids := set.IDs()
	out := make([]string, len(ids))
	for i, id := range ids {
		out[i] = a.Name(id)
	}
	return out
}

// Len returns the number of states.
func (a *NFA) Len() int {
	return len(a.names)
}

// States returns every handle in ascending order.
func (a *NFA) States() []StateID {
	out := make([]StateID, len(a.names))
	for i := range out {
		out[i] = StateID(i)
	}
	return out
}

func (a *NFA) valid(id StateID) bool {
	return int(id) < len(a.names)
}

// SetInitial designates the initial state.
func (a *NFA) SetInitial(id StateID) error {
	if !a.valid(id) {
		return fmt.Errorf("set initial: %w: %d", ErrUnknownState, id)
	}
	a.initial, a.hasInitial = id, true
	return nil
}

// Initial returns the initial state, if one is set.
func (a *NFA) Initial() (StateID, bool) {
	return a.initial, a.hasInitial
}

// IsInitial reports whether id is the initial state.
func (a *NFA) IsInitial(id StateID) bool {
	return a.hasInitial && a.initial == id
}

// AddFinal marks id as accepting.
func (a *NFA) AddFinal(id StateID) error {
	if !a.valid(id) {
		return fmt.Errorf("add final: %w: %d", ErrUnknownState, id)
	}
	a.final.Add(id)
	return nil
}

// Finals returns a copy of the accepting set.
func (a *NFA) Finals() StateSet {
	return a.final.Clone()
}

// IsFinal reports whether set contains an accepting state.
func (a *NFA) IsFinal(set StateSet) bool {
	return a.final.Intersects(set)
}

// IsFinalState reports whether id is accepting.
func (a *NFA) IsFinalState(id StateID) bool {
	return a.final.Has(id)
}

// AddTransition adds src -label-> dst. Both states must exist. Adding an
// identical triple twice is a no-op.
func (a *NFA) AddTransition(src, dst StateID, label string) error {
	if !a.valid(src) {
		return fmt.Errorf("add transition: %w: source %d", ErrUnknownState, src)
	}
	if !a.valid(dst) {
		return fmt.Errorf("add transition: %w: target %d", ErrUnknownState, dst)
	}
	if a.edges[src] == nil {
		a.edges[src] = make(map[string]*StateSet)
	}
	targets, ok := a.edges[src][label]
	if !ok {
		targets = &StateSet{}
		a.edges[src][label] = targets
		a.labels[src] = append(a.labels[src], label)
	}
	targets.Add(dst)
	return nil
}

// TransitionFilter narrows TransitionsFrom and TransitionsTo.
type TransitionFilter func(*transitionQuery)

type transitionQuery struct {
	label    *string
	endpoint *StateID
}

// WithLabel keeps transitions carrying label.
func WithLabel(label string) TransitionFilter {
	return func(q *transitionQuery) { q.label = &label }
}

// WithEndpoint keeps transitions whose other end is id: the target for
// TransitionsFrom, the source for TransitionsTo.
func WithEndpoint(id StateID) TransitionFilter {
	return func(q *transitionQuery) { q.endpoint = &id }
}

func buildQuery(filters []TransitionFilter) transitionQuery {
	var q transitionQuery
	for _, f := range filters {
		f(&q)
	}
	return q
}

// TransitionsFrom returns the transitions leaving src, ordered by label
// insertion and then by target handle.
func (a *NFA) TransitionsFrom(src StateID, filters ...TransitionFilter) []Transition {
	if !a.valid(src) {
		return nil
	}
	q := buildQuery(filters)
	var out []Transition
	for _, label := range a.labels[src] {
		if q.label != nil && *q.label != label {
			continue
		}
		for _, dst := range a.edges[src][label].IDs() {
			if q.endpoint != nil && *q.endpoint != dst {
				continue
			}
			out = append(out, Transition{Source: src, Target: dst, Label: label})
		}
	}
	return out
}

// TransitionsTo returns the transitions entering dst, ordered by source.
func (a *NFA) TransitionsTo(dst StateID, filters ...TransitionFilter) []Transition {
	if !a.valid(dst) {
		return nil
	}
	q := buildQuery(filters)
	var out []Transition
	for src := range a.names {
		if q.endpoint != nil && *q.endpoint != StateID(src) {
			continue
		}
		for _, label := range a.labels[src] {
			if q.label != nil && *q.label != label {
				continue
			}
			if a.edges[src][label].Has(dst) {
				out = append(out, Transition{Source: StateID(src), Target: dst, Label: label})
			}
		}
	}
	return out
}

// Transitions returns every transition, grouped by source.
func (a *NFA) Transitions() []Transition {
	var out []Transition
	for src := range a.names {
		out = append(out, a.TransitionsFrom(StateID(src))...)
	}
	return out
}

// Labels returns the sorted set of non-epsilon labels.
func (a *NFA) Labels() []string {
	seen := make(map[string]bool)
	for _, ls := range a.labels {
		for _, l := range ls {
			if l != Epsilon {
				seen[l] = true
			}
		}
	}
	out := make([]string, 0, len(seen))
	for l := range seen {
		out = append(out, l)
	}
	slices.Sort(out)
	return out
}

func (a *NFA) targets(src StateID, label string) StateSet {
	if t, ok := a.edges[src][label]; ok {
		return *t
	}
	return StateSet{}
}

// Closure returns the epsilon-closure of set: every state reachable through
// epsilon transitions only, set itself included.
func (a *NFA) Closure(set StateSet) StateSet {
	out := set.Clone()
	work := set.IDs()
	for len(work) > 0 {
		s := work[len(work)-1]
		work = work[:len(work)-1]
		for _, t := range a.targets(s, Epsilon).IDs() {
			if !out.Has(t) {
				out.Add(t)
				work = append(work, t)
			}
		}
	}
	return out
}

// ClosureOf returns the epsilon-closure of a single state.
func (a *NFA) ClosureOf(id StateID) StateSet {
	return a.Closure(NewStateSet(id))
}

// ReadSymbol returns the states reached by consuming symbol from set: the
// union of the closures of every target of a symbol transition leaving a
// state in the closure of set. An empty result means the symbol is rejected.
func (a *NFA) ReadSymbol(symbol string, set StateSet) StateSet {
	var reached StateSet
	for _, s := range a.Closure(set).IDs() {
		reached.AddAll(a.targets(s, symbol))
	}
	return a.Closure(reached)
}

// Enabled reports whether symbol can be consumed from some state of set.
func (a *NFA) Enabled(symbol string, set StateSet) bool {
	for _, s := range a.Closure(set).IDs() {
		if !a.targets(s, symbol).IsEmpty() {
			return true
		}
	}
	return false
}

// Stats summarises the automaton size.
type Stats struct {
	States             int `json:"states"`
	Transitions        int `json:"transitions"`
	EpsilonTransitions int `json:"epsilon_transitions"`
	Finals             int `json:"finals"`
	// MaxFanOut is the largest number of targets sharing one source and label.
	MaxFanOut int `json:"max_fan_out"`
}

// Stats computes size figures for diagnostics.
func (a *NFA) Stats() Stats {
	st := Stats{States: a.Len(), Finals: a.final.Len()}
	for src := range a.names {
		for _, label := range a.labels[src] {
			n := a.edges[src][label].Len()
			st.Transitions += n
			if label == Epsilon {
				st.EpsilonTransitions += n
			}
			st.MaxFanOut = max(st.MaxFanOut, n)
		}
	}
	return st
}

// String returns a one-line summary.
func (a *NFA) String() string {
	initial := "none"
	if a.hasInitial {
		initial = a.Name(a.initial)
	}
	st := a.Stats()
	return fmt.Sprintf("%d states, %d transitions, initial: %s, %d final states",
		st.States, st.Transitions, initial, st.Finals)
}
