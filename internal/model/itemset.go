package model

import (
	"slices"
)

// ItemSet is a sorted, duplicate-free set of identifiers. It serialises as a
// plain JSON array so it can live inside stored documents.
type ItemSet []string

func NewItemSet(ids ...string) ItemSet {
	var s ItemSet
	for _, id := range ids {
		s.Add(id)
	}
	return s
}

func (s ItemSet) Has(id string) bool {
	_, found := slices.BinarySearch(s, id)
	return found
}

// Add inserts id and reports whether the set changed.
func (s *ItemSet) Add(id string) bool {
	i, found := slices.BinarySearch(*s, id)
	if found {
		return false
	}
	*s = slices.Insert(*s, i, id)
	return true
}

// Remove deletes id and reports whether it was present.
func (s *ItemSet) Remove(id string) bool {
	i, found := slices.BinarySearch(*s, id)
	if !found {
		return false
	}
	*s = slices.Delete(*s, i, i+1)
	return true
}

func (s ItemSet) Len() int { return len(s) }
