package relate

import "github.com/JonMunkholm/authorworks/internal/records"

// Summary reports table sizes and link density for a prepared dataset.
type Summary struct {
	Authors      int `json:"authors"`
	Works        int `json:"works"`
	Associations int `json:"associations"`

	LinkedAuthors int `json:"linked_authors"`
	LinkedWorks   int `json:"linked_works"`

	// Averages are taken over linked rows only.
	AvgAuthorsPerWork float64 `json:"avg_authors_per_work"`
	AvgWorksPerAuthor float64 `json:"avg_works_per_author"`
}

// Summarize computes a Summary from row counts and an association set.
func Summarize(authors, works int, assocs []Association) Summary {
	perWork := make(map[string]int)
	perAuthor := make(map[string]int)
	for _, a := range assocs {
		perWork[records.CellString(a.WorkID)]++
		perAuthor[records.CellString(a.AuthorID)]++
	}

	s := Summary{
		Authors:       authors,
		Works:         works,
		Associations:  len(assocs),
		LinkedAuthors: len(perAuthor),
		LinkedWorks:   len(perWork),
	}
	if s.LinkedWorks > 0 {
		s.AvgAuthorsPerWork = float64(len(assocs)) / float64(s.LinkedWorks)
	}
	if s.LinkedAuthors > 0 {
		s.AvgWorksPerAuthor = float64(len(assocs)) / float64(s.LinkedAuthors)
	}
	return s
}
