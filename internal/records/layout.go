package records

// Layout names the tables and columns the pipeline reads and writes.
type Layout struct {
	AuthorsTable  string
	WorksTable    string
	RelationTable string

	AuthorID   string
	AuthorName string

	WorkID          string
	WorkDOI         string
	WorkTitle       string
	WorkAuthors     string
	WorkAuthorQuery string
}

// DefaultLayout returns the column names produced by the scrapers.
func DefaultLayout() Layout {
	return Layout{
		AuthorsTable:    "authors",
		WorksTable:      "works",
		RelationTable:   "author_works",
		AuthorID:        "id_author",
		AuthorName:      "fullname",
		WorkID:          "id_work",
		WorkDOI:         "doi",
		WorkTitle:       "title",
		WorkAuthors:     "authors",
		WorkAuthorQuery: "author_query",
	}
}

// RelationIndexes returns the names of the two secondary indexes on the
// relation table, one per foreign key column.
func (l Layout) RelationIndexes() (author, work string) {
	return "idx_" + l.RelationTable + "_author", "idx_" + l.RelationTable + "_work"
}
