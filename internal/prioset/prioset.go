// Package prioset implements fixed-size sets of active object priorities.
//
// A Set packs one bit per priority into bytes: priority p lives in byte
// (p-1)/8 at bit (p-1)%8. The zero value is an empty set and a Set is a plain
// value, so assigning it takes a private copy.
package prioset

import (
	"math/bits"

	"github.com/rmacdonaldsmith/aomesh/internal/contract"
	"github.com/rmacdonaldsmith/aomesh/pkg/active"
)

// Words is the number of bytes needed for active.MaxActive priorities.
const Words = (active.MaxActive + 7) / 8

var check = contract.Module{Name: "prioset"}

// Set is a set of priorities in [1, active.MaxActive].
type Set [Words]uint8

func index(p active.Priority) (word int, mask uint8) {
	check.Require(100, p.Valid())
	n := uint(p) - 1
	return int(n >> 3), uint8(1) << (n & 7)
}

// Insert adds p to the set.
func (s *Set) Insert(p active.Priority) {
	i, m := index(p)
	s[i] |= m
}

// Remove deletes p from the set.
func (s *Set) Remove(p active.Priority) {
	i, m := index(p)
	s[i] &^= m
}

// Has reports whether p is in the set.
func (s *Set) Has(p active.Priority) bool {
	i, m := index(p)
	return s[i]&m != 0
}

// IsEmpty reports whether the set has no priorities.
func (s *Set) IsEmpty() bool {
	for _, w := range s {
		if w != 0 {
			return false
		}
	}
	return true
}

// Len returns the number of priorities in the set.
func (s *Set) Len() int {
	n := 0
	for _, w := range s {
		n += bits.OnesCount8(w)
	}
	return n
}

// Highest returns the highest priority in the set without removing it.
func (s *Set) Highest() (active.Priority, bool) {
	for i := Words - 1; i >= 0; i-- {
		if w := s[i]; w != 0 {
			return active.Priority(i<<3 + bits.Len8(w)), true
		}
	}
	return 0, false
}

// PopHighest removes and returns the highest priority in the set.
func (s *Set) PopHighest() (active.Priority, bool) {
	for i := Words - 1; i >= 0; i-- {
		if w := s[i]; w != 0 {
			n := bits.Len8(w) // 1..8
			s[i] = w &^ (uint8(1) << (n - 1))
			return active.Priority(i<<3 + n), true
		}
	}
	return 0, false
}

// Priorities returns the members of the set, highest first.
func (s Set) Priorities() []active.Priority {
	out := make([]active.Priority, 0, s.Len())
	for {
		p, ok := s.PopHighest()
		if !ok {
			return out
		}
		out = append(out, p)
	}
}
