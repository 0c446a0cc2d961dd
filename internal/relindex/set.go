package relindex

import (
	"slices"
)

// Set is a set of content ids.
type Set map[int64]struct{}

// NewSet builds a set from ids.
func NewSet(ids ...int64) Set {
	s := make(Set, len(ids))
	for _, id := range ids {
		s[id] = struct{}{}
	}
	return s
}

func (s Set) Has(id int64) bool {
	_, ok := s[id]
	return ok
}

func (s Set) Add(id int64) {
	s[id] = struct{}{}
}

// Intersect removes every id not in ids, in place.
func (s Set) Intersect(ids []int64) {
	keep := NewSet(ids...)
	for id := range s {
		if !keep.Has(id) {
			delete(s, id)
		}
	}
}

// Subtract removes ids, in place.
func (s Set) Subtract(ids []int64) {
	for _, id := range ids {
		delete(s, id)
	}
}

// IDs returns the members in ascending order.
func (s Set) IDs() []int64 {
	out := make([]int64, 0, len(s))
	for id := range s {
		out = append(out, id)
	}
	slices.Sort(out)
	return out
}

// SortedDesc returns the members in descending order.
func (s Set) SortedDesc() []int64 {
	out := s.IDs()
	slices.Reverse(out)
	return out
}
