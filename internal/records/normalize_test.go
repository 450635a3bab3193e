package records

import (
	"strings"
	"testing"
)

func TestCleanText(t *testing.T) {
	tests := []struct {
		name   string
		input  string
		want   string
		wantOK bool
	}{
		{"plain", "Graph Theory", "Graph Theory", true},
		{"surrounding whitespace", "  Graph Theory \t", "Graph Theory", true},
		{"internal runs", "Graph \n\n  Theory", "Graph Theory", true},
		{"embedded NUL", "Gra\x00ph", "Graph", true},
		{"only whitespace", " \t\r\n ", "", false},
		{"only NUL", "\x00\x00", "", false},
		{"empty", "", "", false},
		{"non-breaking spaces collapse", "a\u00a0\u00a0b", "a b", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := CleanText(tt.input)
			if ok != tt.wantOK {
				t.Fatalf("CleanText(%q) ok = %v, want %v", tt.input, ok, tt.wantOK)
			}
			if got != tt.want {
				t.Errorf("CleanText(%q) = %q, want %q", tt.input, got, tt.want)
			}
		})
	}
}

func TestCleanText_Truncation(t *testing.T) {
	exact := strings.Repeat("a", MaxTextLength)
	if got, _ := CleanText(exact); got != exact {
		t.Errorf("value of exactly MaxTextLength was changed (len %d)", len(got))
	}

	long := strings.Repeat("b", MaxTextLength+10)
	got, _ := CleanText(long)
	if want := strings.Repeat("b", MaxTextLength) + TruncationMarker; got != want {
		t.Errorf("truncated length = %d, want %d", len(got), len(want))
	}

	// Multi-byte characters count once each.
	wide := strings.Repeat("é", MaxTextLength)
	if got, _ := CleanText(wide); got != wide {
		t.Error("multi-byte value within the character limit was truncated")
	}
	wide += "é"
	got, _ = CleanText(wide)
	if n := len([]rune(got)); n != MaxTextLength+len(TruncationMarker) {
		t.Errorf("truncated rune count = %d, want %d", n, MaxTextLength+len(TruncationMarker))
	}
}

func TestNormalize(t *testing.T) {
	in := &Table{
		Name:    "works",
		Columns: []Column{{"title", KindText}, {"year", KindInt}, {"note", KindText}},
	}
	in.Append("  Graph   Theory ", int64(2020), "   ")
	in.Append(nil, nil, "ok\x00")
	in.Append(strings.Repeat("x", MaxTextLength+1), int64(1999), "fine")

	out, stats := Normalize(in)

	if got := out.ColumnNames(); strings.Join(got, ",") != "title,year,note" {
		t.Errorf("column order = %v", got)
	}
	if out.Rows[0][0] != "Graph Theory" {
		t.Errorf("row 0 title = %q", out.Rows[0][0])
	}
	if out.Rows[0][1] != int64(2020) {
		t.Errorf("numeric column changed: %v", out.Rows[0][1])
	}
	if out.Rows[0][2] != nil {
		t.Errorf("whitespace-only value = %q, want nil", out.Rows[0][2])
	}
	if out.Rows[1][2] != "ok" {
		t.Errorf("row 1 note = %q, want ok", out.Rows[1][2])
	}
	if stats.Nulled != 1 || stats.Truncated != 1 {
		t.Errorf("stats = %+v, want Nulled=1 Truncated=1", stats)
	}

	// Input is untouched.
	if in.Rows[0][0] != "  Graph   Theory " {
		t.Errorf("Normalize modified its input: %q", in.Rows[0][0])
	}
}
