package schema

import (
	"unicode/utf8"

	"github.com/JonMunkholm/authorworks/internal/records"
)

// ColumnStats summarizes the values observed in one column.
type ColumnStats struct {
	Kind    records.Kind
	Present int
	MinInt  int64
	MaxInt  int64
	MaxLen  int
}

// Observe collects statistics for a column of the given kind. Lengths are
// measured in characters of each value's string form. A column without any
// value is reported as text.
func Observe(kind records.Kind, values []any) ColumnStats {
	s := ColumnStats{Kind: kind}
	for _, v := range values {
		if v == nil {
			continue
		}
		s.Present++
		if n, ok := v.(int64); ok {
			if s.Present == 1 || n < s.MinInt {
				s.MinInt = n
			}
			if s.Present == 1 || n > s.MaxInt {
				s.MaxInt = n
			}
		}
		if l := utf8.RuneCountInString(records.CellString(v)); l > s.MaxLen {
			s.MaxLen = l
		}
	}
	if s.Present == 0 {
		s.Kind = records.KindText
	}
	return s
}

// ColumnDef is an inferred column definition.
type ColumnDef struct {
	Name       string `json:"name"`
	Type       string `json:"type"`
	PrimaryKey bool   `json:"primary_key,omitempty"`
	NotNull    bool   `json:"not_null,omitempty"`
}

// Infer returns one definition per column of t, in column order. The column
// named key, if any, is the primary key and is marked NOT NULL. A column
// without values is text of the shortest class.
func Infer(t *records.Table, key string, v Vocabulary) []ColumnDef {
	defs := make([]ColumnDef, len(t.Columns))
	for i, col := range t.Columns {
		pk := key != "" && col.Name == key
		stats := Observe(col.Kind, t.Values(i))
		defs[i] = ColumnDef{
			Name:       col.Name,
			Type:       v.ColumnType(stats, pk),
			PrimaryKey: pk,
			NotNull:    pk,
		}
	}
	return defs
}

// Lookup returns the definition named name.
func Lookup(defs []ColumnDef, name string) (ColumnDef, bool) {
	for _, d := range defs {
		if d.Name == name {
			return d, true
		}
	}
	return ColumnDef{}, false
}
