package export

import (
	"bufio"
	"compress/gzip"
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"strings"
	"time"

	"github.com/JonMunkholm/authorworks/internal/records"
	"github.com/JonMunkholm/authorworks/internal/schema"
)

// Publisher copies a finished artifact somewhere durable and returns its
// location.
type Publisher interface {
	Publish(ctx context.Context, path string) (string, error)
}

// Script writes a self-contained SQL file: CREATE TABLE statements in the
// simple vocabulary, one INSERT per row in dependency order, then the
// relation indexes. The file needs no live connection to produce and loads
// into SQLite, PostgreSQL or MySQL.
type Script struct {
	Path string
	// Gzip compresses the file; ".gz" is appended to Path if missing.
	Gzip bool
	// Publisher, when set, receives the finished file.
	Publisher Publisher
	Options   Options
}

// NewScript returns a script exporter writing to path.
func NewScript(path string, gz bool, pub Publisher, opts Options) *Script {
	return &Script{Path: path, Gzip: gz, Publisher: pub, Options: opts}
}

// Target implements Exporter.
func (e *Script) Target() string { return "script" }

// OutputPath is the file Export writes.
func (e *Script) OutputPath() string {
	if e.Gzip && !strings.HasSuffix(e.Path, ".gz") {
		return e.Path + ".gz"
	}
	return e.Path
}

// Export implements Exporter. In fail mode an existing file aborts the
// export; in append mode statements are added to the end of the file.
func (e *Script) Export(ctx context.Context, src Source) (*Report, error) {
	opts := e.Options.withDefaults()
	path := e.OutputPath()

	flags := os.O_CREATE | os.O_WRONLY
	switch opts.Mode {
	case ModeAppend:
		flags |= os.O_APPEND
	case ModeFail:
		flags |= os.O_EXCL
	default:
		flags |= os.O_TRUNC
	}
	f, err := os.OpenFile(path, flags, 0o644)
	if errors.Is(err, fs.ErrExist) {
		return nil, markFatal(fmt.Errorf("%w: %s", ErrTableExists, path))
	}
	if err != nil {
		return nil, markFatal(fmt.Errorf("open script: %w", err))
	}

	rep, err := e.write(ctx, f, src, opts)
	if closeErr := f.Close(); err == nil && closeErr != nil {
		err = markFatal(fmt.Errorf("close script: %w", closeErr))
	}
	if rep != nil {
		rep.Artifact = path
	}
	if err != nil {
		return rep, err
	}

	if e.Publisher != nil {
		loc, err := e.Publisher.Publish(ctx, path)
		if err != nil {
			return rep, fmt.Errorf("publish script: %w", err)
		}
		rep.Artifact = loc
	}
	return rep, nil
}

func (e *Script) write(ctx context.Context, f io.Writer, src Source, opts Options) (*Report, error) {
	var gz *gzip.Writer
	out := f
	if e.Gzip {
		gz = gzip.NewWriter(f)
		out = gz
	}
	bw := bufio.NewWriter(out)

	rep, err := WriteScript(ctx, bw, src, opts.Mode)
	if err != nil {
		return rep, err
	}
	if err := bw.Flush(); err != nil {
		return rep, markFatal(fmt.Errorf("flush script: %w", err))
	}
	if gz != nil {
		if err := gz.Close(); err != nil {
			return rep, markFatal(fmt.Errorf("finish gzip: %w", err))
		}
	}
	return rep, nil
}

// WriteScript renders src as SQL to w. Replace mode starts the script with
// DROP TABLE statements so replaying it twice gives the same result.
func WriteScript(ctx context.Context, w io.Writer, src Source, mode Mode) (*Report, error) {
	start := time.Now()
	if mode == "" {
		mode = ModeReplace
	}
	rep := &Report{Target: "script", Mode: mode}
	defer func() { rep.Duration = time.Since(start) }()

	if err := src.Validate(); err != nil {
		return rep, err
	}
	l := src.Layout
	d := scriptDialect
	sw := &stmtWriter{w: w}

	if mode == ModeReplace {
		sw.comment("Drop existing tables")
		for _, name := range []string{l.RelationTable, l.WorksTable, l.AuthorsTable} {
			sw.stmt(d.dropTable(name))
		}
		sw.blank()
	}

	authorDefs := schema.Infer(src.Authors, l.AuthorID, schema.Simple)
	workDefs := schema.Infer(src.Works, l.WorkID, schema.Simple)
	authorKey, _ := schema.Lookup(authorDefs, l.AuthorID)
	workKey, _ := schema.Lookup(workDefs, l.WorkID)

	sw.comment("Table " + l.AuthorsTable)
	sw.stmt(d.createTable(l.AuthorsTable, authorDefs))
	sw.blank()
	sw.comment("Table " + l.WorksTable)
	sw.stmt(d.createTable(l.WorksTable, workDefs))
	sw.blank()
	sw.comment("Table " + l.RelationTable)
	sw.stmt(d.createRelationTable(l, authorKey, workKey))
	sw.blank()

	kept, filtered := FilterRelations(src)
	rep.FilteredRelations = filtered

	tables := []struct {
		name    string
		columns []string
		rows    [][]any
	}{
		{l.AuthorsTable, src.Authors.ColumnNames(), src.Authors.Rows},
		{l.WorksTable, src.Works.ColumnNames(), src.Works.Rows},
		{l.RelationTable, []string{l.AuthorID, l.WorkID}, relationRows(kept)},
	}
	for _, t := range tables {
		if err := ctx.Err(); err != nil {
			return rep, err
		}
		sw.comment("Data " + t.name)
		prefix := "INSERT INTO " + d.quote(t.name) + " (" + d.quoteAll(t.columns) + ") VALUES ("
		for _, row := range t.rows {
			sw.stmt(prefix + sqlValues(row) + ")")
		}
		sw.blank()
		rep.Tables = append(rep.Tables, TableReport{
			Table:    t.name,
			Rows:     len(t.rows),
			Inserted: len(t.rows),
		})
	}

	sw.comment("Indexes")
	for _, stmt := range d.createIndexes(l) {
		sw.stmt(stmt)
	}

	if sw.err != nil {
		rep.Tables = nil
		return rep, markFatal(fmt.Errorf("write script: %w", sw.err))
	}
	return rep, nil
}

// stmtWriter keeps the first write error so rendering code stays linear.
type stmtWriter struct {
	w   io.Writer
	err error
}

func (s *stmtWriter) write(str string) {
	if s.err == nil {
		_, s.err = io.WriteString(s.w, str)
	}
}

func (s *stmtWriter) stmt(str string)    { s.write(str + ";\n") }
func (s *stmtWriter) comment(str string) { s.write("-- " + str + "\n") }
func (s *stmtWriter) blank()             { s.write("\n") }

// sqlValues renders one row as a comma-separated list of SQL literals.
func sqlValues(row []any) string {
	parts := make([]string, len(row))
	for i, v := range row {
		parts[i] = sqlLiteral(v)
	}
	return strings.Join(parts, ", ")
}

var literalEscaper = strings.NewReplacer("'", "''", "\r", "", "\n", " ")

// sqlLiteral renders a cell: NULL for nil, numbers bare, anything else as a
// single-quoted string with quotes doubled and line breaks stripped.
func sqlLiteral(v any) string {
	switch x := v.(type) {
	case nil:
		return "NULL"
	case int64, int, float64:
		return records.CellString(x)
	default:
		return "'" + literalEscaper.Replace(records.CellString(x)) + "'"
	}
}
