package records

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"math"
	"os"
	"path/filepath"
	"strconv"
	"strings"
)

// ErrNoHeader is returned for an input without a header row.
var ErrNoHeader = errors.New("csv input has no header row")

// LoadStats describes one CSV load.
type LoadStats struct {
	Bytes     int64
	Rows      int
	EmptyRows int
}

// LoadCSVFile reads a CSV file into a Table named after the file.
func LoadCSVFile(path string) (*Table, LoadStats, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, LoadStats{}, fmt.Errorf("open %s: %w", path, err)
	}
	defer f.Close()

	name := strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
	t, stats, err := LoadCSV(f, name)
	if err != nil {
		return nil, stats, fmt.Errorf("load %s: %w", path, err)
	}
	return t, stats, nil
}

// LoadCSV reads a header row plus data rows. Header names are trimmed; empty
// cells become nil; blank lines are skipped. Each column is then typed:
// int when every present value is a base-10 integer, float when every value
// parses as a finite number, text otherwise. A column with no values at all
// is text.
func LoadCSV(r io.Reader, name string) (*Table, LoadStats, error) {
	in := WrapInput(r)
	cr := csv.NewReader(in)
	cr.FieldsPerRecord = -1
	cr.LazyQuotes = true

	header, err := cr.Read()
	if err == io.EOF {
		return nil, LoadStats{}, ErrNoHeader
	}
	if err != nil {
		return nil, LoadStats{}, fmt.Errorf("read header: %w", err)
	}

	t := NewTable(name, cleanHeader(header)...)
	var stats LoadStats
	for {
		rec, err := cr.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			stats.Bytes = in.BytesRead
			return nil, stats, fmt.Errorf("read row %d: %w", stats.Rows+stats.EmptyRows+2, err)
		}
		if isEmptyRow(rec) {
			stats.EmptyRows++
			continue
		}

		row := make([]any, len(t.Columns))
		for i := 0; i < len(row) && i < len(rec); i++ {
			if rec[i] != "" {
				row[i] = rec[i]
			}
		}
		t.Rows = append(t.Rows, row)
		stats.Rows++
	}
	stats.Bytes = in.BytesRead

	for i := range t.Columns {
		detectKind(t, i)
	}
	return t, stats, nil
}

func cleanHeader(header []string) []string {
	out := make([]string, len(header))
	for i, h := range header {
		out[i] = strings.TrimSpace(h)
	}
	return out
}

func isEmptyRow(row []string) bool {
	for _, v := range row {
		if strings.TrimSpace(v) != "" {
			return false
		}
	}
	return true
}

// detectKind types column col and converts its cells in place.
func detectKind(t *Table, col int) {
	seen := false
	isInt, isFloat := true, true
	for _, r := range t.Rows {
		s, ok := r[col].(string)
		if !ok {
			continue
		}
		seen = true
		if isInt && !looksInt(s) {
			isInt = false
		}
		if !isInt && !looksFloat(s) {
			isFloat = false
			break
		}
	}

	switch {
	case !seen:
		t.Columns[col].Kind = KindText
	case isInt:
		t.Columns[col].Kind = KindInt
		for _, r := range t.Rows {
			if s, ok := r[col].(string); ok {
				n, _ := strconv.ParseInt(strings.TrimSpace(s), 10, 64)
				r[col] = n
			}
		}
	case isFloat:
		t.Columns[col].Kind = KindFloat
		for _, r := range t.Rows {
			if s, ok := r[col].(string); ok {
				f, _ := strconv.ParseFloat(strings.TrimSpace(s), 64)
				r[col] = f
			}
		}
	default:
		t.Columns[col].Kind = KindText
	}
}

// hasLeadingZero is true for codes such as "007" whose zeros are part of
// the identifier and would be lost by a numeric conversion.
func hasLeadingZero(s string) bool {
	s = strings.TrimLeft(s, "+-")
	return len(s) > 1 && s[0] == '0' && s[1] != '.'
}

func looksInt(s string) bool {
	s = strings.TrimSpace(s)
	if s == "" || hasLeadingZero(s) || strings.HasPrefix(s, "+") {
		return false
	}
	_, err := strconv.ParseInt(s, 10, 64)
	return err == nil
}

func looksFloat(s string) bool {
	s = strings.TrimSpace(s)
	if s == "" || hasLeadingZero(s) {
		return false
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return false
	}
	return !math.IsInf(f, 0) && !math.IsNaN(f)
}
