package export

import (
	"strings"
	"testing"

	"github.com/JonMunkholm/authorworks/internal/records"
	"github.com/JonMunkholm/authorworks/internal/schema"
)

func TestDialectInsert(t *testing.T) {
	tests := []struct {
		d    dialect
		want string
	}{
		{sqliteDialect, `INSERT INTO "works" ("id_work", "title") VALUES (?, ?), (?, ?)`},
		{mysqlDialect, "INSERT INTO `works` (`id_work`, `title`) VALUES (?, ?), (?, ?)"},
		{postgresDialect, `INSERT INTO "works" ("id_work", "title") VALUES ($1, $2), ($3, $4)`},
	}
	for _, tt := range tests {
		t.Run(tt.d.name, func(t *testing.T) {
			if got := tt.d.insert("works", []string{"id_work", "title"}, 2); got != tt.want {
				t.Errorf("insert =\n%s\nwant\n%s", got, tt.want)
			}
		})
	}
}

func TestQuoting(t *testing.T) {
	tests := []struct {
		fn   func(string) string
		in   string
		want string
	}{
		{quoteDouble, `a"b`, `"a""b"`},
		{quoteBacktick, "a`b", "`a``b`"},
		{quoteIfNeeded, "id_work", "id_work"},
		{quoteIfNeeded, "Publication Year", `"Publication Year"`},
		{quoteIfNeeded, "1st", `"1st"`},
		{postgresDialect.quote, "Works", `"Works"`},
	}
	for _, tt := range tests {
		if got := tt.fn(tt.in); got != tt.want {
			t.Errorf("quote(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestCreateTable(t *testing.T) {
	defs := []schema.ColumnDef{
		{Name: "id_author", Type: "INT", PrimaryKey: true, NotNull: true},
		{Name: "fullname", Type: "VARCHAR(255)"},
	}
	got := mysqlDialect.createTable("authors", defs)
	want := "CREATE TABLE IF NOT EXISTS `authors` (\n" +
		"    `id_author` INT NOT NULL,\n" +
		"    `fullname` VARCHAR(255),\n" +
		"    PRIMARY KEY (`id_author`)\n" +
		") ENGINE=InnoDB DEFAULT CHARSET=utf8mb4"
	if got != want {
		t.Errorf("createTable =\n%s\nwant\n%s", got, want)
	}
}

func TestCreateRelationTable(t *testing.T) {
	l := records.DefaultLayout()
	authorKey := schema.ColumnDef{Name: "id_author", Type: "BIGINT"}
	workKey := schema.ColumnDef{Name: "id_work", Type: "VARCHAR(255)"}

	mysqlDDL := mysqlDialect.createRelationTable(l, authorKey, workKey)
	for _, part := range []string{
		"`id_author` BIGINT NOT NULL",
		"`id_work` VARCHAR(255) NOT NULL",
		"PRIMARY KEY (`id_author`, `id_work`)",
		"FOREIGN KEY (`id_author`) REFERENCES `authors` (`id_author`) ON DELETE CASCADE ON UPDATE CASCADE",
		"FOREIGN KEY (`id_work`) REFERENCES `works` (`id_work`) ON DELETE CASCADE ON UPDATE CASCADE",
		"INDEX `idx_author_works_author` (`id_author`)",
		"INDEX `idx_author_works_work` (`id_work`)",
		"ENGINE=InnoDB",
	} {
		if !strings.Contains(mysqlDDL, part) {
			t.Errorf("mysql relation DDL lacks %q:\n%s", part, mysqlDDL)
		}
	}
	if idx := mysqlDialect.createIndexes(l); idx != nil {
		t.Errorf("mysql declares indexes inline, got standalone %v", idx)
	}

	pgDDL := postgresDialect.createRelationTable(l, authorKey, workKey)
	if strings.Contains(pgDDL, "INDEX") {
		t.Errorf("postgres relation DDL has inline index:\n%s", pgDDL)
	}
	idx := postgresDialect.createIndexes(l)
	if len(idx) != 2 || idx[0] != `CREATE INDEX IF NOT EXISTS "idx_author_works_author" ON "author_works" ("id_author")` {
		t.Errorf("postgres indexes = %v", idx)
	}

	scriptIdx := scriptDialect.createIndexes(l)
	if len(scriptIdx) != 2 || scriptIdx[1] != "CREATE INDEX idx_author_works_work ON author_works (id_work)" {
		t.Errorf("script indexes = %v", scriptIdx)
	}
}

func TestFlatten(t *testing.T) {
	got := flatten([][]any{{1, "a"}, {2, "b"}})
	if len(got) != 4 || got[2] != 2 || got[3] != "b" {
		t.Errorf("flatten = %v", got)
	}
	if flatten(nil) != nil {
		t.Error("flatten(nil) != nil")
	}
}
