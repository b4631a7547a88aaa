// SPDX-License-Identifier: MPL-2.0

package groups

import (
	"slices"
	"strings"
)

// MainGroup is the implicit group holding a project's regular dependencies.
const MainGroup = "main"

// Set is an unordered collection of dependency group names.
// The zero value (nil) is an empty set that is safe to read from.
type Set map[string]struct{}

// NewSet returns a set holding the given names.
func NewSet(names ...string) Set {
	s := make(Set, len(names))
	for _, name := range names {
		s[name] = struct{}{}
	}
	return s
}

// ParseList builds a set from raw CLI values. Each value may hold several
// comma-separated names; surrounding whitespace and empty fragments are dropped,
// so "--with 'dev, docs'" and "--with dev --with docs" are equivalent.
func ParseList(values []string) Set {
	s := make(Set)
	for _, value := range values {
		for name := range strings.SplitSeq(value, ",") {
			if name = strings.TrimSpace(name); name != "" {
				s[name] = struct{}{}
			}
		}
	}
	return s
}

// Has reports whether name is in the set.
func (s Set) Has(name string) bool {
	_, ok := s[name]
	return ok
}

// Len returns the number of names in the set.
func (s Set) Len() int { return len(s) }

// IsEmpty reports whether the set holds no names.
func (s Set) IsEmpty() bool { return len(s) == 0 }

// Clone returns an independent copy of the set.
func (s Set) Clone() Set {
	out := make(Set, len(s))
	for name := range s {
		out[name] = struct{}{}
	}
	return out
}

// Union returns a new set with the names of s and other.
func (s Set) Union(other Set) Set {
	out := s.Clone()
	for name := range other {
		out[name] = struct{}{}
	}
	return out
}

// Difference returns a new set with the names of s that are not in other.
func (s Set) Difference(other Set) Set {
	out := make(Set, len(s))
	for name := range s {
		if !other.Has(name) {
			out[name] = struct{}{}
		}
	}
	return out
}

// Equal reports whether both sets hold exactly the same names.
func (s Set) Equal(other Set) bool {
	if len(s) != len(other) {
		return false
	}
	for name := range s {
		if !other.Has(name) {
			return false
		}
	}
	return true
}

// Sorted returns the names in lexical order.
func (s Set) Sorted() []string {
	names := make([]string, 0, len(s))
	for name := range s {
		names = append(names, name)
	}
	slices.Sort(names)
	return names
}

// String renders the set as a sorted, comma-separated list.
func (s Set) String() string {
	return strings.Join(s.Sorted(), ",")
}
