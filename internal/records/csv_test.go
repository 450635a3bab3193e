package records

import (
	"bytes"
	"errors"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestLoadCSV(t *testing.T) {
	input := "\xEF\xBB\xBF id_author , fullname ,score,code,empty\n" +
		"1,Jane Doe,1.5,007,\n" +
		"2,\"Smith, John\",2,010,\n" +
		",,,,\n" +
		"3,Bad \xff Byte,,011,\n"

	tbl, stats, err := LoadCSV(strings.NewReader(input), "authors")
	if err != nil {
		t.Fatalf("LoadCSV() error = %v", err)
	}

	if got := strings.Join(tbl.ColumnNames(), "|"); got != "id_author|fullname|score|code|empty" {
		t.Errorf("header = %q", got)
	}
	if stats.Rows != 3 || stats.EmptyRows != 1 {
		t.Errorf("stats = %+v, want 3 rows and 1 empty row", stats)
	}
	if stats.Bytes == 0 {
		t.Error("Bytes not counted")
	}

	kinds := map[string]Kind{
		"id_author": KindInt,
		"fullname":  KindText,
		"score":     KindFloat,
		"code":      KindText,
		"empty":     KindText,
	}
	for name, want := range kinds {
		if got := tbl.Columns[tbl.Index(name)].Kind; got != want {
			t.Errorf("kind(%s) = %v, want %v", name, got, want)
		}
	}

	if tbl.Rows[0][0] != int64(1) {
		t.Errorf("id_author[0] = %#v, want int64(1)", tbl.Rows[0][0])
	}
	if tbl.Rows[1][1] != "Smith, John" {
		t.Errorf("quoted field = %#v", tbl.Rows[1][1])
	}
	if tbl.Rows[1][2] != float64(2) {
		t.Errorf("score[1] = %#v, want float64(2)", tbl.Rows[1][2])
	}
	if tbl.Rows[2][2] != nil {
		t.Errorf("missing score = %#v, want nil", tbl.Rows[2][2])
	}
	if tbl.Rows[0][3] != "007" {
		t.Errorf("code with leading zero = %#v, want \"007\"", tbl.Rows[0][3])
	}
	if tbl.Rows[2][1] != "Bad ? Byte" {
		t.Errorf("invalid UTF-8 = %#v, want sanitized", tbl.Rows[2][1])
	}
}

func TestLoadCSV_ShortAndLongRows(t *testing.T) {
	input := "a,b,c\n1,2\n4,5,6,7\n"
	tbl, _, err := LoadCSV(strings.NewReader(input), "t")
	if err != nil {
		t.Fatalf("LoadCSV() error = %v", err)
	}
	if tbl.Rows[0][2] != nil {
		t.Errorf("padded cell = %#v, want nil", tbl.Rows[0][2])
	}
	if len(tbl.Rows[1]) != 3 {
		t.Errorf("long row kept %d cells, want 3", len(tbl.Rows[1]))
	}
}

func TestLoadCSV_Empty(t *testing.T) {
	_, _, err := LoadCSV(strings.NewReader(""), "t")
	if !errors.Is(err, ErrNoHeader) {
		t.Errorf("error = %v, want ErrNoHeader", err)
	}
}

func TestLoadCSVFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "works.csv")
	if err := os.WriteFile(path, []byte("title,authors\nGraph Theory,J. Doe\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	tbl, _, err := LoadCSVFile(path)
	if err != nil {
		t.Fatalf("LoadCSVFile() error = %v", err)
	}
	if tbl.Name != "works" {
		t.Errorf("Name = %q, want works", tbl.Name)
	}
	if tbl.Len() != 1 {
		t.Errorf("Len = %d, want 1", tbl.Len())
	}

	if _, _, err := LoadCSVFile(filepath.Join(t.TempDir(), "missing.csv")); err == nil {
		t.Error("expected error for missing file")
	}
}

func TestBOMReader(t *testing.T) {
	tests := []struct {
		name  string
		input []byte
		want  string
	}{
		{"with BOM", append([]byte{0xEF, 0xBB, 0xBF}, "a,b"...), "a,b"},
		{"without BOM", []byte("a,b"), "a,b"},
		{"empty", nil, ""},
		{"only BOM", []byte{0xEF, 0xBB, 0xBF}, ""},
		{"shorter than BOM", []byte("ab"), "ab"},
		{"partial BOM", []byte{0xEF, 0xBB, 'a', 'b'}, string([]byte{0xEF, 0xBB, 'a', 'b'})},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := io.ReadAll(newBOMReader(bytes.NewReader(tt.input)))
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if string(got) != tt.want {
				t.Errorf("got %q, want %q", got, tt.want)
			}
		})
	}
}

// oneByteReader forces every multi-byte rune to be split across reads.
type oneByteReader struct{ data []byte }

func (r *oneByteReader) Read(p []byte) (int, error) {
	if len(r.data) == 0 {
		return 0, io.EOF
	}
	p[0] = r.data[0]
	r.data = r.data[1:]
	return 1, nil
}

func TestUTF8Sanitizer(t *testing.T) {
	tests := []struct {
		name  string
		input []byte
		want  string
	}{
		{"ascii", []byte("hello"), "hello"},
		{"multibyte", []byte("Müller, Ærø"), "Müller, Ærø"},
		{"invalid byte", []byte{'a', 0x80, 'b'}, "a?b"},
		{"truncated rune at end", []byte{'a', 0xC3}, "a?"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := io.ReadAll(newUTF8Sanitizer(bytes.NewReader(tt.input)))
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if string(got) != tt.want {
				t.Errorf("got %q, want %q", got, tt.want)
			}
		})
	}

	t.Run("split reads", func(t *testing.T) {
		got, err := io.ReadAll(newUTF8Sanitizer(&oneByteReader{data: []byte("Jürgen Å")}))
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if string(got) != "Jürgen Å" {
			t.Errorf("got %q", got)
		}
	})
}
