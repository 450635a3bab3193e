package schema

import (
	"fmt"
	"strings"
	"testing"

	"github.com/JonMunkholm/authorworks/internal/records"
)

func TestColumnType(t *testing.T) {
	long := strings.Repeat("x", 300)
	huge := strings.Repeat("y", TextMax+1)

	tests := []struct {
		name   string
		kind   records.Kind
		values []any
		pk     bool
		mysql  string
		pg     string
		simple string
	}{
		{"small ints", records.KindInt, []any{int64(1), int64(2147483647)}, false, "INT", "INTEGER", "INTEGER"},
		{"big ints", records.KindInt, []any{int64(2147483648)}, false, "BIGINT", "BIGINT", "INTEGER"},
		{"negative big ints", records.KindInt, []any{int64(-2147483649)}, false, "BIGINT", "BIGINT", "INTEGER"},
		{"ints with nulls", records.KindInt, []any{nil, int64(5)}, false, "INT", "INTEGER", "INTEGER"},
		{"floats", records.KindFloat, []any{1.5}, false, "DOUBLE", "DOUBLE PRECISION", "REAL"},
		{"short text", records.KindText, []any{"abc", strings.Repeat("z", 255)}, false, "VARCHAR(255)", "VARCHAR(255)", "TEXT"},
		{"medium text", records.KindText, []any{long}, false, "TEXT", "TEXT", "TEXT"},
		{"huge text", records.KindText, []any{huge}, false, "MEDIUMTEXT", "TEXT", "TEXT"},
		{"long key", records.KindText, []any{long}, true, "VARCHAR(384)", "TEXT", "TEXT"},
		{"empty column", records.KindText, []any{nil, nil}, false, "VARCHAR(255)", "VARCHAR(255)", "TEXT"},
		{"empty int column", records.KindInt, nil, false, "VARCHAR(255)", "VARCHAR(255)", "TEXT"},
		{"multibyte counted as characters", records.KindText, []any{strings.Repeat("é", 255)}, false, "VARCHAR(255)", "VARCHAR(255)", "TEXT"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := Observe(tt.kind, tt.values)
			if got := MySQL.ColumnType(s, tt.pk); got != tt.mysql {
				t.Errorf("MySQL = %q, want %q", got, tt.mysql)
			}
			if got := Postgres.ColumnType(s, tt.pk); got != tt.pg {
				t.Errorf("Postgres = %q, want %q", got, tt.pg)
			}
			if got := Simple.ColumnType(s, tt.pk); got != tt.simple {
				t.Errorf("Simple = %q, want %q", got, tt.simple)
			}
		})
	}
}

func TestMySQLKeysFitCompositeIndex(t *testing.T) {
	const innoDBKeyBytes, utf8mb4Bytes = 3072, 4

	long := Observe(records.KindText, []any{strings.Repeat("k", TextMax+1)})
	key := MySQL.ColumnType(long, true)

	var width int
	if _, err := fmt.Sscanf(key, "VARCHAR(%d)", &width); err != nil {
		t.Fatalf("key type %q is not a VARCHAR: %v", key, err)
	}
	if got := 2 * width * utf8mb4Bytes; got > innoDBKeyBytes {
		t.Errorf("two %s keys need %d bytes, InnoDB allows %d", key, got, innoDBKeyBytes)
	}
}

func TestInfer(t *testing.T) {
	tbl := &records.Table{
		Name: "authors",
		Columns: []records.Column{
			{Name: "id_author", Kind: records.KindInt},
			{Name: "fullname", Kind: records.KindText},
			{Name: "h_index", Kind: records.KindFloat},
		},
	}
	tbl.Append(int64(1), "Jane Doe", 3.5)
	tbl.Append(int64(2), nil, nil)

	defs := Infer(tbl, "id_author", MySQL)
	want := []ColumnDef{
		{Name: "id_author", Type: "INT", PrimaryKey: true, NotNull: true},
		{Name: "fullname", Type: "VARCHAR(255)"},
		{Name: "h_index", Type: "DOUBLE"},
	}
	if len(defs) != len(want) {
		t.Fatalf("got %d defs, want %d", len(defs), len(want))
	}
	for i := range want {
		if defs[i] != want[i] {
			t.Errorf("def %d = %+v, want %+v", i, defs[i], want[i])
		}
	}

	if d, ok := Lookup(defs, "fullname"); !ok || d.Type != "VARCHAR(255)" {
		t.Errorf("Lookup(fullname) = %+v, %v", d, ok)
	}
	if _, ok := Lookup(defs, "missing"); ok {
		t.Error("Lookup(missing) found a column")
	}
}

func TestForTarget(t *testing.T) {
	tests := map[string]Vocabulary{
		"sqlite":   Simple,
		"script":   Simple,
		"mysql":    MySQL,
		"postgres": Postgres,
		"Postgres": Postgres,
	}
	for target, want := range tests {
		got, err := ForTarget(target)
		if err != nil {
			t.Errorf("ForTarget(%q) error = %v", target, err)
			continue
		}
		if got.Name() != want.Name() {
			t.Errorf("ForTarget(%q) = %s, want %s", target, got.Name(), want.Name())
		}
	}
	if _, err := ForTarget("oracle"); err == nil {
		t.Error("ForTarget(oracle) returned no error")
	}
}
