package export

import (
	"github.com/JonMunkholm/authorworks/internal/records"
	"github.com/JonMunkholm/authorworks/internal/relate"
)

// FilterRelations drops associations whose work identifier is not in the
// work table or whose author identifier is not in the author table. It
// returns the surviving associations in order and the number dropped.
func FilterRelations(src Source) ([]relate.Association, int) {
	works := keySet(src.Works, src.Layout.WorkID)
	authors := keySet(src.Authors, src.Layout.AuthorID)

	kept := make([]relate.Association, 0, len(src.Associations))
	for _, a := range src.Associations {
		if _, ok := works[records.CellString(a.WorkID)]; !ok {
			continue
		}
		if _, ok := authors[records.CellString(a.AuthorID)]; !ok {
			continue
		}
		kept = append(kept, a)
	}
	return kept, len(src.Associations) - len(kept)
}

func keySet(t *records.Table, column string) map[string]struct{} {
	col := t.Index(column)
	set := make(map[string]struct{}, t.Len())
	if col < 0 {
		return set
	}
	for _, row := range t.Rows {
		if row[col] != nil {
			set[records.CellString(row[col])] = struct{}{}
		}
	}
	return set
}

// relationRows turns associations into rows of (author, work).
func relationRows(assocs []relate.Association) [][]any {
	rows := make([][]any, len(assocs))
	for i, a := range assocs {
		rows[i] = []any{a.AuthorID, a.WorkID}
	}
	return rows
}
