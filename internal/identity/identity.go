// Package identity derives stable work identifiers and removes works that
// collapse to the same identifier.
package identity

import (
	"crypto/md5"
	"encoding/hex"

	"github.com/JonMunkholm/authorworks/internal/records"
)

const (
	// DOIPrefix prefixes identifiers taken from a DOI.
	DOIPrefix = "doi_"
	// HashPrefix prefixes identifiers hashed from title and author list.
	HashPrefix = "work_"

	hashChars = 16
)

// WorkID returns the identifier for a work. A non-empty DOI always wins;
// otherwise the first 16 hex characters of MD5(title + "_" + authors) are
// used. Missing title or authors contribute the empty string.
func WorkID(doi, title, authors string) string {
	if doi != "" {
		return DOIPrefix + doi
	}
	sum := md5.Sum([]byte(title + "_" + authors))
	return HashPrefix + hex.EncodeToString(sum[:])[:hashChars]
}

// Result summarizes one Resolve call.
type Result struct {
	Rows     int // input rows
	Derived  int // identifiers computed by WorkID
	Existing int // identifiers already present in the input
	Dropped  int // duplicate rows removed
}

// Resolve returns a copy of works where every row has an identifier in the
// layout's WorkID column and no two rows share one. Rows that already carry
// an identifier keep it. Duplicates are removed keeping the first row in
// input order. The column is appended when the input lacks it.
func Resolve(works *records.Table, layout records.Layout) (*records.Table, Result) {
	out := works.Clone()
	res := Result{Rows: out.Len()}

	idCol := out.Index(layout.WorkID)
	if idCol < 0 {
		idCol = out.AddColumn(records.Column{Name: layout.WorkID, Kind: records.KindText})
	}
	doiCol := out.Index(layout.WorkDOI)
	titleCol := out.Index(layout.WorkTitle)
	authorsCol := out.Index(layout.WorkAuthors)

	for i, row := range out.Rows {
		if row[idCol] != nil {
			res.Existing++
			continue
		}
		doi, _ := out.Text(i, doiCol)
		title, _ := out.Text(i, titleCol)
		authors, _ := out.Text(i, authorsCol)
		row[idCol] = WorkID(doi, title, authors)
		res.Derived++
	}

	// A numeric identifier column that received derived values becomes text.
	if res.Derived > 0 && out.Columns[idCol].Kind != records.KindText {
		out.Columns[idCol].Kind = records.KindText
		for _, row := range out.Rows {
			row[idCol] = records.CellString(row[idCol])
		}
	}

	seen := make(map[string]struct{}, out.Len())
	kept := out.Rows[:0]
	for _, row := range out.Rows {
		key := records.CellString(row[idCol])
		if _, dup := seen[key]; dup {
			res.Dropped++
			continue
		}
		seen[key] = struct{}{}
		kept = append(kept, row)
	}
	out.Rows = kept
	return out, res
}
