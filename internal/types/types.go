package types

import (
	"sort"
)

// Common system-wide constants
const (
	// DefaultMaxFileSize is the byte ceiling above which a file is never read.
	// A file whose size equals the ceiling is also rejected.
	DefaultMaxFileSize int64 = 5_000_000

	// MaxAllowedFileSize bounds the configurable ceiling.
	MaxAllowedFileSize int64 = 1 << 30

	// BinaryPreCheckBytes is how much of a file is inspected for binary content
	BinaryPreCheckBytes = 512
)

// DependencySet is an unordered collection of dependency names.
// The zero value is not usable; use NewDependencySet.
type DependencySet map[string]struct{}

// NewDependencySet returns a set holding names
func NewDependencySet(names ...string) DependencySet {
	s := make(DependencySet, len(names))
	for _, n := range names {
		s.Add(n)
	}
	return s
}

// Add inserts name. Empty names are ignored.
func (s DependencySet) Add(name string) {
	if name == "" {
		return
	}
	s[name] = struct{}{}
}

// Has reports whether name is in the set
func (s DependencySet) Has(name string) bool {
	_, ok := s[name]
	return ok
}

// Len returns the number of distinct names
func (s DependencySet) Len() int {
	return len(s)
}

// Merge adds every name of other to s
func (s DependencySet) Merge(other DependencySet) {
	for name := range other {
		s[name] = struct{}{}
	}
}

// Sorted returns the names in lexical order
func (s DependencySet) Sorted() []string {
	out := make([]string, 0, len(s))
	for name := range s {
		out = append(out, name)
	}
	sort.Strings(out)
	return out
}

// Equal reports whether both sets hold the same names
func (s DependencySet) Equal(other DependencySet) bool {
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
