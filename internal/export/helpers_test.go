package export

import (
	"github.com/JonMunkholm/authorworks/internal/records"
	"github.com/JonMunkholm/authorworks/internal/relate"
)

// fixture returns a small dataset with one association that points at a
// work missing from the work table.
func fixture() Source {
	authors := &records.Table{
		Name: "authors",
		Columns: []records.Column{
			{Name: "id_author", Kind: records.KindInt},
			{Name: "fullname", Kind: records.KindText},
			{Name: "affiliation", Kind: records.KindText},
		},
	}
	authors.Append(int64(1), "Jane Doe", "Uni A")
	authors.Append(int64(2), "John Roe", nil)
	authors.Append(int64(3), "Ana O'Neil", "Uni\r\nB")

	works := &records.Table{
		Name: "works",
		Columns: []records.Column{
			{Name: "id_work", Kind: records.KindText},
			{Name: "title", Kind: records.KindText},
			{Name: "year", Kind: records.KindInt},
			{Name: "score", Kind: records.KindFloat},
		},
	}
	works.Append("doi_10.1/abc", "Graph Theory", int64(2020), 1.5)
	works.Append("work_0123456789abcdef", "It's complicated", nil, nil)

	return Source{
		Layout:  records.DefaultLayout(),
		Authors: authors,
		Works:   works,
		Associations: []relate.Association{
			{AuthorID: int64(1), WorkID: "doi_10.1/abc"},
			{AuthorID: int64(2), WorkID: "doi_10.1/abc"},
			{AuthorID: int64(3), WorkID: "work_0123456789abcdef"},
			{AuthorID: int64(1), WorkID: "work_missing"},
		},
	}
}
