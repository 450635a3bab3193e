package relate

import (
	"errors"
	"testing"

	"github.com/JonMunkholm/authorworks/internal/records"
)

func registry() *records.Table {
	t := &records.Table{
		Name: "authors",
		Columns: []records.Column{
			{Name: "id_author", Kind: records.KindInt},
			{Name: "fullname", Kind: records.KindText},
		},
	}
	t.Append(int64(1), "Jane Doe")
	t.Append(int64(2), "John Roe")
	t.Append(int64(3), "Doe, Jane")
	t.Append(int64(4), nil)
	return t
}

func works(rows ...[]any) *records.Table {
	t := records.NewTable("works", "id_work", "authors", "author_query")
	for _, r := range rows {
		t.Append(r...)
	}
	return t
}

func TestBuild(t *testing.T) {
	w := works(
		[]any{"w1", "Jane Doe; John Roe", nil},
		[]any{"w2", `[{"given":"John","family":"Roe"}]`, nil},
		[]any{"w3", "Nobody Known", "roe"},
		[]any{"w4", nil, "roe"},
		[]any{"w5", "doe", nil},
		[]any{"w6", "Nobody Known", nil},
	)

	got, stats, err := NewBuilder(records.DefaultLayout(), nil).Build(registry(), w)
	if err != nil {
		t.Fatalf("Build() error = %v", err)
	}

	want := []Association{
		{int64(1), "w1"},
		{int64(2), "w1"},
		{int64(2), "w2"},
		{int64(2), "w3"}, // via author_query
		{int64(1), "w5"}, // substring hits both spellings
		{int64(3), "w5"},
	}
	if len(got) != len(want) {
		t.Fatalf("got %d associations %v, want %d", len(got), got, len(want))
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("association %d = %v, want %v", i, got[i], want[i])
		}
	}

	if stats.Works != 6 || stats.WorksWithCandidates != 5 {
		t.Errorf("work counts = %+v", stats)
	}
	if stats.HintMatches != 1 {
		t.Errorf("HintMatches = %d, want 1", stats.HintMatches)
	}
	// w4 has no candidates, so its hint is never consulted.
	if stats.UnmatchedWorks != 2 {
		t.Errorf("UnmatchedWorks = %d, want 2 (w4, w6)", stats.UnmatchedWorks)
	}
	if stats.Associations != len(want) {
		t.Errorf("Associations = %d", stats.Associations)
	}
}

func TestBuild_StructuredNameIsLiteral(t *testing.T) {
	authors := &records.Table{
		Name:    "authors",
		Columns: []records.Column{{Name: "id_author", Kind: records.KindInt}, {Name: "fullname"}},
	}
	authors.Append(int64(9), "Doe, Jane")

	w := works([]any{"w1", `[{"given":"Jane","family":"Doe"}]`, nil})

	got, stats, err := NewBuilder(records.DefaultLayout(), LiteralMatcher{}).Build(authors, w)
	if err != nil {
		t.Fatalf("Build() error = %v", err)
	}
	if len(got) != 0 {
		t.Errorf("got %v, want no associations", got)
	}
	if stats.UnmatchedWorks != 1 {
		t.Errorf("UnmatchedWorks = %d, want 1", stats.UnmatchedWorks)
	}
}

func TestBuild_Deduplicates(t *testing.T) {
	w := works([]any{"w1", "Jane Doe; jane doe; Jane", nil})

	got, stats, err := NewBuilder(records.DefaultLayout(), nil).Build(registry(), w)
	if err != nil {
		t.Fatalf("Build() error = %v", err)
	}
	// "Jane" also hits "Doe, Jane".
	if len(got) != 2 {
		t.Errorf("got %v, want 2 associations", got)
	}
	if stats.Duplicates != 2 {
		t.Errorf("Duplicates = %d, want 2", stats.Duplicates)
	}
}

type exactMatcher struct{}

func (exactMatcher) Prepare(name string) string { return name }
func (exactMatcher) Match(c, full string) bool { return c == full }

func TestBuild_CustomMatcher(t *testing.T) {
	w := works([]any{"w1", "Jane", nil}, []any{"w2", "Jane Doe", nil})

	got, _, err := NewBuilder(records.DefaultLayout(), exactMatcher{}).Build(registry(), w)
	if err != nil {
		t.Fatalf("Build() error = %v", err)
	}
	if len(got) != 1 || got[0] != (Association{int64(1), "w2"}) {
		t.Errorf("got %v, want only (1, w2)", got)
	}
}

func TestBuild_MissingColumns(t *testing.T) {
	b := NewBuilder(records.DefaultLayout(), nil)

	if _, _, err := b.Build(records.NewTable("authors", "id_author"), works()); !errors.Is(err, ErrMissingColumn) {
		t.Errorf("missing fullname: err = %v", err)
	}
	if _, _, err := b.Build(registry(), records.NewTable("works", "authors")); !errors.Is(err, ErrMissingColumn) {
		t.Errorf("missing id_work: err = %v", err)
	}

	// No author list column is not an error, just no links.
	got, _, err := b.Build(registry(), records.NewTable("works", "id_work"))
	if err != nil || len(got) != 0 {
		t.Errorf("got %v, %v", got, err)
	}
}

func TestSummarize(t *testing.T) {
	assocs := []Association{
		{int64(1), "w1"}, {int64(2), "w1"}, {int64(2), "w2"},
	}
	s := Summarize(4, 3, assocs)
	if s.LinkedWorks != 2 || s.LinkedAuthors != 2 {
		t.Errorf("linked = %d works, %d authors", s.LinkedWorks, s.LinkedAuthors)
	}
	if s.AvgAuthorsPerWork != 1.5 || s.AvgWorksPerAuthor != 1.5 {
		t.Errorf("averages = %v, %v", s.AvgAuthorsPerWork, s.AvgWorksPerAuthor)
	}

	empty := Summarize(0, 0, nil)
	if empty.AvgAuthorsPerWork != 0 || empty.AvgWorksPerAuthor != 0 {
		t.Errorf("empty summary = %+v", empty)
	}
}
