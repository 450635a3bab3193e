package identity

import (
	"crypto/md5"
	"encoding/hex"
	"testing"

	"github.com/JonMunkholm/authorworks/internal/records"
)

func worksTable() *records.Table {
	return records.NewTable("works", "doi", "title", "authors")
}

func TestWorkID(t *testing.T) {
	sum := md5.Sum([]byte("Graph Theory_J. Doe"))
	graphTheory := "work_" + hex.EncodeToString(sum[:])[:16]

	emptySum := md5.Sum([]byte("_"))
	empty := "work_" + hex.EncodeToString(emptySum[:])[:16]

	tests := []struct {
		name                string
		doi, title, authors string
		want                string
	}{
		{"doi wins", "10.1/abc", "Graph Theory", "J. Doe", "doi_10.1/abc"},
		{"hash from title and authors", "", "Graph Theory", "J. Doe", graphTheory},
		{"missing title and authors", "", "", "", empty},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := WorkID(tt.doi, tt.title, tt.authors)
			if got != tt.want {
				t.Errorf("WorkID() = %q, want %q", got, tt.want)
			}
		})
	}

	if len(graphTheory) != len("work_")+16 {
		t.Errorf("hash identifier length = %d", len(graphTheory))
	}
}

func TestWorkID_Deterministic(t *testing.T) {
	first := WorkID("", "Graph Theory", "J. Doe")
	for i := 0; i < 10; i++ {
		if got := WorkID("", "Graph Theory", "J. Doe"); got != first {
			t.Fatalf("run %d produced %q, want %q", i, got, first)
		}
	}
}

func TestResolve(t *testing.T) {
	works := worksTable()
	works.Append("10.1/abc", "Graph Theory", "J. Doe")
	works.Append(nil, "Graph Theory", "J. Doe")
	works.Append(nil, "Graph Theory", "J. Doe")  // duplicate of row 1
	works.Append("10.1/abc", "Other title", nil) // duplicate DOI of row 0
	works.Append(nil, nil, nil)

	out, res := Resolve(works, records.DefaultLayout())

	if res.Dropped != 2 {
		t.Errorf("Dropped = %d, want 2", res.Dropped)
	}
	if res.Derived != 5 || res.Existing != 0 || res.Rows != 5 {
		t.Errorf("Result = %+v", res)
	}
	if out.Len() != 3 {
		t.Fatalf("Len = %d, want 3", out.Len())
	}

	idCol := out.Index("id_work")
	if idCol != 3 {
		t.Fatalf("id_work column at %d, want appended at 3", idCol)
	}
	if got := out.Rows[0][idCol]; got != "doi_10.1/abc" {
		t.Errorf("row 0 id = %v", got)
	}
	// First occurrence survives.
	if got := out.Rows[0][1]; got != "Graph Theory" {
		t.Errorf("row 0 title = %v, want first occurrence", got)
	}
	if got := out.Rows[1][idCol]; got != WorkID("", "Graph Theory", "J. Doe") {
		t.Errorf("row 1 id = %v", got)
	}
	if got := out.Rows[2][idCol]; got != WorkID("", "", "") {
		t.Errorf("row 2 id = %v", got)
	}

	// The input is left alone.
	if works.Has("id_work") || works.Len() != 5 {
		t.Error("Resolve modified its input")
	}
}

func TestResolve_Idempotent(t *testing.T) {
	works := worksTable()
	works.Append(nil, "A", "x")
	works.Append(nil, "A", "x")
	works.Append(nil, "B", "y")

	once, first := Resolve(works, records.DefaultLayout())
	twice, second := Resolve(once, records.DefaultLayout())

	if first.Dropped != 1 {
		t.Errorf("first Dropped = %d, want 1", first.Dropped)
	}
	if second.Dropped != 0 {
		t.Errorf("second Dropped = %d, want 0", second.Dropped)
	}
	if second.Existing != once.Len() || second.Derived != 0 {
		t.Errorf("second Result = %+v", second)
	}
	if twice.Len() != once.Len() {
		t.Errorf("second pass changed length: %d -> %d", once.Len(), twice.Len())
	}
}

func TestResolve_KeepsExistingIdentifiers(t *testing.T) {
	works := &records.Table{
		Name: "works",
		Columns: []records.Column{
			{Name: "id_work", Kind: records.KindInt},
			{Name: "title", Kind: records.KindText},
			{Name: "authors", Kind: records.KindText},
		},
	}
	works.Append(int64(7), "A", "x")
	works.Append(nil, "B", "y")

	out, res := Resolve(works, records.DefaultLayout())
	if res.Existing != 1 || res.Derived != 1 {
		t.Errorf("Result = %+v", res)
	}
	if out.Columns[0].Kind != records.KindText {
		t.Errorf("mixed identifier column kind = %v, want text", out.Columns[0].Kind)
	}
	if out.Rows[0][0] != "7" {
		t.Errorf("existing id = %#v, want \"7\"", out.Rows[0][0])
	}
}
