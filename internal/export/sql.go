package export

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/jackc/pgx/v5"

	"github.com/JonMunkholm/authorworks/internal/records"
	"github.com/JonMunkholm/authorworks/internal/schema"
)

// dialect holds the SQL spelling differences between targets.
type dialect struct {
	name        string
	quote       func(string) string
	placeholder func(n int) string // n is 1-based

	// tableOptions is appended after the closing parenthesis of CREATE TABLE.
	tableOptions string
	// inlineIndexes declares the relation indexes inside CREATE TABLE.
	inlineIndexes bool
	// indexesAfterLoad defers CREATE INDEX until every row is written.
	indexesAfterLoad bool
	// suspendChecks wraps the destructive replace in FOREIGN_KEY_CHECKS=0.
	suspendChecks bool
	// plainIndexes omits IF NOT EXISTS from CREATE INDEX.
	plainIndexes bool
	// existsQuery counts tables named by its single parameter.
	existsQuery string
}

var (
	sqliteDialect = dialect{
		name:             "sqlite",
		quote:            quoteDouble,
		placeholder:      questionMark,
		indexesAfterLoad: true,
		existsQuery:      `SELECT COUNT(*) FROM sqlite_master WHERE type = 'table' AND name = ?`,
	}

	mysqlDialect = dialect{
		name:          "mysql",
		quote:         quoteBacktick,
		placeholder:   questionMark,
		tableOptions:  " ENGINE=InnoDB DEFAULT CHARSET=utf8mb4",
		inlineIndexes: true,
		suspendChecks: true,
		existsQuery:   `SELECT COUNT(*) FROM information_schema.tables WHERE table_schema = DATABASE() AND table_name = ?`,
	}

	postgresDialect = dialect{
		name:        "postgres",
		quote:       func(s string) string { return pgx.Identifier{s}.Sanitize() },
		placeholder: func(n int) string { return fmt.Sprintf("$%d", n) },
		existsQuery: `SELECT COUNT(*) FROM information_schema.tables WHERE table_schema = current_schema() AND table_name = $1`,
	}

	scriptDialect = dialect{
		name:             "script",
		quote:            quoteIfNeeded,
		indexesAfterLoad: true,
		plainIndexes:     true,
	}
)

func questionMark(int) string { return "?" }

func quoteDouble(s string) string {
	return `"` + strings.ReplaceAll(s, `"`, `""`) + `"`
}

func quoteBacktick(s string) string {
	return "`" + strings.ReplaceAll(s, "`", "``") + "`"
}

var plainIdentifier = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_]*$`)

// quoteIfNeeded leaves plain identifiers bare so scripts stay readable.
func quoteIfNeeded(s string) string {
	if plainIdentifier.MatchString(s) {
		return s
	}
	return quoteDouble(s)
}

func (d dialect) quoteAll(names []string) string {
	q := make([]string, len(names))
	for i, n := range names {
		q[i] = d.quote(n)
	}
	return strings.Join(q, ", ")
}

func (d dialect) dropTable(name string) string {
	return "DROP TABLE IF EXISTS " + d.quote(name)
}

// createTable renders CREATE TABLE IF NOT EXISTS with a primary key
// constraint for the key column, when there is one.
func (d dialect) createTable(name string, defs []schema.ColumnDef) string {
	var lines []string
	var keys []string
	for _, def := range defs {
		lines = append(lines, d.columnLine(def))
		if def.PrimaryKey {
			keys = append(keys, def.Name)
		}
	}
	if len(keys) > 0 {
		lines = append(lines, "PRIMARY KEY ("+d.quoteAll(keys)+")")
	}
	return d.wrapCreate(name, lines)
}

// createRelationTable renders the association table: both columns typed as
// their parent keys, a composite primary key and cascading foreign keys.
func (d dialect) createRelationTable(l records.Layout, authorKey, workKey schema.ColumnDef) string {
	a, w := d.quote(l.AuthorID), d.quote(l.WorkID)
	lines := []string{
		d.columnLine(schema.ColumnDef{Name: l.AuthorID, Type: authorKey.Type, NotNull: true}),
		d.columnLine(schema.ColumnDef{Name: l.WorkID, Type: workKey.Type, NotNull: true}),
		"PRIMARY KEY (" + a + ", " + w + ")",
		"FOREIGN KEY (" + a + ") REFERENCES " + d.quote(l.AuthorsTable) + " (" + a + ") ON DELETE CASCADE ON UPDATE CASCADE",
		"FOREIGN KEY (" + w + ") REFERENCES " + d.quote(l.WorksTable) + " (" + w + ") ON DELETE CASCADE ON UPDATE CASCADE",
	}
	if d.inlineIndexes {
		ai, wi := l.RelationIndexes()
		lines = append(lines,
			"INDEX "+d.quote(ai)+" ("+a+")",
			"INDEX "+d.quote(wi)+" ("+w+")",
		)
	}
	return d.wrapCreate(l.RelationTable, lines)
}

// createIndexes renders the two relation indexes as standalone statements.
func (d dialect) createIndexes(l records.Layout) []string {
	if d.inlineIndexes {
		return nil
	}
	create := "CREATE INDEX IF NOT EXISTS "
	if d.plainIndexes {
		create = "CREATE INDEX "
	}
	ai, wi := l.RelationIndexes()
	rel := d.quote(l.RelationTable)
	return []string{
		create + d.quote(ai) + " ON " + rel + " (" + d.quote(l.AuthorID) + ")",
		create + d.quote(wi) + " ON " + rel + " (" + d.quote(l.WorkID) + ")",
	}
}

func (d dialect) columnLine(def schema.ColumnDef) string {
	line := d.quote(def.Name) + " " + def.Type
	if def.NotNull {
		line += " NOT NULL"
	}
	return line
}

func (d dialect) wrapCreate(name string, lines []string) string {
	var b strings.Builder
	b.WriteString("CREATE TABLE IF NOT EXISTS ")
	b.WriteString(d.quote(name))
	b.WriteString(" (\n    ")
	b.WriteString(strings.Join(lines, ",\n    "))
	b.WriteString("\n)")
	b.WriteString(d.tableOptions)
	return b.String()
}

// insert renders a multi-row INSERT with placeholders.
func (d dialect) insert(table string, columns []string, rows int) string {
	var b strings.Builder
	b.WriteString("INSERT INTO ")
	b.WriteString(d.quote(table))
	b.WriteString(" (")
	b.WriteString(d.quoteAll(columns))
	b.WriteString(") VALUES ")
	n := 1
	for r := 0; r < rows; r++ {
		if r > 0 {
			b.WriteString(", ")
		}
		b.WriteByte('(')
		for c := range columns {
			if c > 0 {
				b.WriteString(", ")
			}
			b.WriteString(d.placeholder(n))
			n++
		}
		b.WriteByte(')')
	}
	return b.String()
}

// flatten lays rows out as one argument list matching insert.
func flatten(rows [][]any) []any {
	if len(rows) == 0 {
		return nil
	}
	args := make([]any, 0, len(rows)*len(rows[0]))
	for _, r := range rows {
		args = append(args, r...)
	}
	return args
}
