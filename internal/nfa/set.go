package nfa

import (
	"github.com/bits-and-blooms/bitset"
)

// StateSet is a set of state handles backed by a bitset.
//
// The zero value is an empty set. Operations that combine sets return new
// sets and never alias their inputs.
type StateSet struct {
	bits *bitset.BitSet
}

// NewStateSet returns a set containing ids.
func NewStateSet(ids ...StateID) StateSet {
	s := StateSet{bits: bitset.New(0)}
	for _, id := range ids {
		s.bits.Set(uint(id))
	}
	return s
}

// Add inserts id into the set.
func (s *StateSet) Add(id StateID) {
	if s.bits == nil {
		s.bits = bitset.New(uint(id) + 1)
	}
	s.bits.Set(uint(id))
}

// AddAll inserts every member of o into the set.
func (s *StateSet) AddAll(o StateSet) {
	if o.bits == nil {
		return
	}
	if s.bits == nil {
		s.bits = o.bits.Clone()
		return
	}
	s.bits.InPlaceUnion(o.bits)
}

// Has reports whether id is a member.
func (s StateSet) Has(id StateID) bool {
	return s.bits != nil && s.bits.Test(uint(id))
}

// Len returns the number of members.
func (s StateSet) Len() int {
	if s.bits == nil {
		return 0
	}
	return int(s.bits.Count())
}

// IsEmpty reports whether the set has no members.
func (s StateSet) IsEmpty() bool {
	return s.bits == nil || s.bits.None()
}

// Clone returns an independent copy.
func (s StateSet) Clone() StateSet {
	if s.bits == nil {
		return StateSet{}
	}
	return StateSet{bits: s.bits.Clone()}
}

// Union returns a new set with the members of both sets.
func (s StateSet) Union(o StateSet) StateSet {
	out := s.Clone()
	out.AddAll(o)
	return out
}

// Intersects reports whether the sets share a member.
func (s StateSet) Intersects(o StateSet) bool {
	if s.bits == nil || o.bits == nil {
		return false
	}
	return s.bits.IntersectionCardinality(o.bits) > 0
}

// Equal reports whether both sets have the same members. Unlike
// bitset.Equal it ignores the capacity of the underlying bitsets.
func (s StateSet) Equal(o StateSet) bool {
	n := s.Len()
	if n != o.Len() {
		return false
	}
	if n == 0 {
		return true
	}
	return int(s.bits.IntersectionCardinality(o.bits)) == n
}

// IDs returns the members in ascending order.
func (s StateSet) IDs() []StateID {
	if s.bits == nil {
		return nil
	}
	out := make([]StateID, 0, s.bits.Count())
	for i, ok := s.bits.NextSet(0); ok; i, ok = s.bits.NextSet(i + 1) {
		out = append(out, StateID(i))
	}
	return out
}

// First returns the smallest member.
func (s StateSet) First() (StateID, bool) {
	if s.bits == nil {
		return 0, false
	}
	i, ok := s.bits.NextSet(0)
	return StateID(i), ok
}
