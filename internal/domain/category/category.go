// Package category holds the closed set of rating categories a deployment
// recognizes. Lookups are case-insensitive and return the configured spelling.
package category

import "strings"

// Default category names.
const (
	Punctuality = "Punctuality"
	Skill       = "Skill"
	Teamwork    = "Teamwork"
)

// Set is an ordered, immutable list of recognized categories.
// The zero value recognizes nothing.
type Set struct {
	names []string
	index map[string]string // lowercased -> canonical
}

// NewSet builds a Set from names. Blank entries are skipped and duplicates
// (compared case-insensitively) keep their first spelling.
func NewSet(names ...string) Set {
	s := Set{index: make(map[string]string, len(names))}
	for _, n := range names {
		n = strings.TrimSpace(n)
		if n == "" {
			continue
		}
		key := strings.ToLower(n)
		if _, ok := s.index[key]; ok {
			continue
		}
		s.index[key] = n
		s.names = append(s.names, n)
	}
	return s
}

// Default returns the built-in category set.
func Default() Set {
	return NewSet(Punctuality, Skill, Teamwork)
}

// Canonical returns the configured spelling of name and whether it is recognized.
func (s Set) Canonical(name string) (string, bool) {
	c, ok := s.index[strings.ToLower(strings.TrimSpace(name))]
	return c, ok
}

// Contains reports whether name is recognized.
func (s Set) Contains(name string) bool {
	_, ok := s.Canonical(name)
	return ok
}

// Names returns a copy of the category names in configured order.
func (s Set) Names() []string {
	out := make([]string, len(s.names))
	copy(out, s.names)
	return out
}

// Len returns the number of recognized categories.
func (s Set) Len() int { return len(s.names) }
