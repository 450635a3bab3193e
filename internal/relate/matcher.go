package relate

import (
	"strings"

	"golang.org/x/text/cases"
)

// NameMatcher decides whether a candidate name refers to a registry entry.
// Prepare is applied once to every registry name and every candidate before
// Match sees them.
type NameMatcher interface {
	Prepare(name string) string
	Match(candidate, fullName string) bool
}

// LiteralMatcher matches when the case-folded candidate equals or is a
// substring of the case-folded full name. It is deliberately literal:
// "Jane Doe" does not match "Doe, Jane".
type LiteralMatcher struct{}

// Prepare case-folds name.
func (LiteralMatcher) Prepare(name string) string {
	return cases.Fold().String(name)
}

// Match reports containment or equality.
func (LiteralMatcher) Match(candidate, fullName string) bool {
	if candidate == "" {
		return false
	}
	return candidate == fullName || strings.Contains(fullName, candidate)
}
