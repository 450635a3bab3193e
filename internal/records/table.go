// Package records holds the in-memory tabular model shared by every stage of
// the pipeline: CSV loading, text normalization and the column layout that
// names the author and work fields.
package records

import (
	"fmt"
	"strconv"
)

// Kind is the storage class detected for a column.
type Kind int

const (
	KindText Kind = iota
	KindInt
	KindFloat
)

func (k Kind) String() string {
	switch k {
	case KindInt:
		return "int"
	case KindFloat:
		return "float"
	default:
		return "text"
	}
}

// Column describes one column of a Table.
type Column struct {
	Name string
	Kind Kind
}

// Table is a named, column-ordered set of rows. Cells hold nil, string,
// int64 or float64 matching the column's Kind; nil is a missing value.
type Table struct {
	Name    string
	Columns []Column
	Rows    [][]any
}

// NewTable creates an empty table with text columns.
func NewTable(name string, columns ...string) *Table {
	t := &Table{Name: name}
	for _, c := range columns {
		t.Columns = append(t.Columns, Column{Name: c, Kind: KindText})
	}
	return t
}

// Index returns the position of the named column, or -1.
func (t *Table) Index(name string) int {
	for i, c := range t.Columns {
		if c.Name == name {
			return i
		}
	}
	return -1
}

// Has reports whether the table carries the named column.
func (t *Table) Has(name string) bool {
	return t.Index(name) >= 0
}

// Len returns the number of rows.
func (t *Table) Len() int {
	return len(t.Rows)
}

// ColumnNames returns the column names in table order.
func (t *Table) ColumnNames() []string {
	names := make([]string, len(t.Columns))
	for i, c := range t.Columns {
		names[i] = c.Name
	}
	return names
}

// Append adds a row. The row is padded or truncated to the column count.
func (t *Table) Append(row ...any) {
	r := make([]any, len(t.Columns))
	copy(r, row)
	t.Rows = append(t.Rows, r)
}

// AddColumn appends a column filled with nil and returns its index.
func (t *Table) AddColumn(c Column) int {
	t.Columns = append(t.Columns, c)
	for i := range t.Rows {
		t.Rows[i] = append(t.Rows[i], nil)
	}
	return len(t.Columns) - 1
}

// Clone returns a copy that shares no row or column storage with t.
func (t *Table) Clone() *Table {
	out := &Table{
		Name:    t.Name,
		Columns: append([]Column(nil), t.Columns...),
		Rows:    make([][]any, len(t.Rows)),
	}
	for i, r := range t.Rows {
		out.Rows[i] = append([]any(nil), r...)
	}
	return out
}

// Text returns the string form of a cell and whether it was present.
func (t *Table) Text(row, col int) (string, bool) {
	if col < 0 || col >= len(t.Columns) {
		return "", false
	}
	v := t.Rows[row][col]
	if v == nil {
		return "", false
	}
	return CellString(v), true
}

// Values returns the cells of one column in row order.
func (t *Table) Values(col int) []any {
	out := make([]any, len(t.Rows))
	for i, r := range t.Rows {
		out[i] = r[col]
	}
	return out
}

// CellString renders a cell the way it would appear in a CSV file.
// nil renders as the empty string.
func CellString(v any) string {
	switch x := v.(type) {
	case nil:
		return ""
	case string:
		return x
	case int64:
		return strconv.FormatInt(x, 10)
	case int:
		return strconv.Itoa(x)
	case float64:
		return strconv.FormatFloat(x, 'f', -1, 64)
	default:
		return fmt.Sprint(x)
	}
}
