package records

import "strings"

// MaxTextLength is the longest text value, in characters, kept intact.
// Longer values are cut to this length and suffixed with TruncationMarker.
const MaxTextLength = 65000

// TruncationMarker ends every truncated value.
const TruncationMarker = "..."

// CleanText removes NUL characters, collapses whitespace runs to a single
// space, trims, and truncates oversized values. It returns false when
// nothing is left, which callers store as a missing value.
func CleanText(s string) (string, bool) {
	s, ok, _ := cleanText(s)
	return s, ok
}

func cleanText(s string) (cleaned string, ok, truncated bool) {
	if strings.IndexByte(s, 0) >= 0 {
		s = strings.ReplaceAll(s, "\x00", "")
	}
	s = strings.Join(strings.Fields(s), " ")
	if s == "" {
		return "", false, false
	}

	// Byte length bounds rune length from above.
	if len(s) > MaxTextLength {
		if r := []rune(s); len(r) > MaxTextLength {
			return string(r[:MaxTextLength]) + TruncationMarker, true, true
		}
	}
	return s, true, false
}

// NormalizeStats counts what Normalize changed.
type NormalizeStats struct {
	Nulled    int
	Truncated int
}

// Normalize returns a cleaned copy of t. Every string cell of a text column
// goes through CleanText; numeric columns are copied untouched. Column order
// and row order are preserved.
func Normalize(t *Table) (*Table, NormalizeStats) {
	out := t.Clone()
	var stats NormalizeStats
	for c, col := range out.Columns {
		if col.Kind != KindText {
			continue
		}
		for _, r := range out.Rows {
			s, ok := r[c].(string)
			if !ok {
				continue
			}
			cleaned, ok, truncated := cleanText(s)
			if !ok {
				r[c] = nil
				stats.Nulled++
				continue
			}
			if truncated {
				stats.Truncated++
			}
			r[c] = cleaned
		}
	}
	return out, stats
}
