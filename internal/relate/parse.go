// Package relate turns the free-form author lists on works into a
// many-to-many association set against the author registry.
package relate

import (
	"encoding/json"
	"fmt"
	"strings"
)

// Separators are tried in order; the first one present in an author list is
// the only one used to split it.
var Separators = []string{";", ",", " and ", "|"}

// ParseAuthorList extracts candidate names from a raw author-list value.
//
// A JSON array is read element by element: objects contribute
// "given family" (or their literal/name field), strings are used as is,
// nulls are ignored. Anything else is split on the first separator that
// occurs in it, or taken whole. Candidates are trimmed and empty ones are
// dropped.
func ParseAuthorList(raw string) []string {
	s := strings.TrimSpace(raw)
	if s == "" {
		return nil
	}

	if names, ok := parseJSONList(s); ok {
		return names
	}

	for _, sep := range Separators {
		if !strings.Contains(s, sep) {
			continue
		}
		var out []string
		for _, part := range strings.Split(s, sep) {
			if part = strings.TrimSpace(part); part != "" {
				out = append(out, part)
			}
		}
		return out
	}
	return []string{s}
}

func parseJSONList(s string) ([]string, bool) {
	if s[0] != '[' {
		return nil, false
	}
	var elems []json.RawMessage
	if err := json.Unmarshal([]byte(s), &elems); err != nil {
		return nil, false
	}

	var out []string
	for _, e := range elems {
		name := elementName(e)
		if name = strings.TrimSpace(name); name != "" {
			out = append(out, name)
		}
	}
	return out, true
}

func elementName(e json.RawMessage) string {
	var v any
	if err := json.Unmarshal(e, &v); err != nil {
		return ""
	}
	switch x := v.(type) {
	case nil:
		return ""
	case string:
		return x
	case map[string]any:
		given, family := field(x, "given"), field(x, "family")
		if given != "" || family != "" {
			return strings.TrimSpace(given + " " + family)
		}
		if lit := field(x, "literal"); lit != "" {
			return lit
		}
		return field(x, "name")
	default:
		return string(e)
	}
}

func field(m map[string]any, key string) string {
	v, ok := m[key]
	if !ok || v == nil {
		return ""
	}
	if s, ok := v.(string); ok {
		return strings.TrimSpace(s)
	}
	return fmt.Sprint(v)
}
