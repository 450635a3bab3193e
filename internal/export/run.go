package export

import (
	"context"
	"fmt"
	"time"

	"github.com/JonMunkholm/authorworks/internal/schema"
)

// session is one open connection to a live database target.
type session interface {
	// exec runs one statement under the statement timeout.
	exec(ctx context.Context, query string) error
	// tableExists reports whether a table of that name exists.
	tableExists(ctx context.Context, name string) (bool, error)
	// dropTables drops the named tables, children first.
	dropTables(ctx context.Context, names []string) error
	// writeTable writes rows with bw and returns the table report.
	writeTable(ctx context.Context, table string, columns []string, rows [][]any, keyCol int, bw BatchWriter) (TableReport, error)
	// fatal reports whether err must abort the export.
	fatal(err error) bool
}

// runExport is the export sequence shared by the SQLite, PostgreSQL and
// MySQL targets.
func runExport(ctx context.Context, sess session, d dialect, vocab schema.Vocabulary, opts Options, src Source) (*Report, error) {
	start := time.Now()
	l := src.Layout
	rep := &Report{Target: d.name, Mode: opts.Mode}
	defer func() { rep.Duration = time.Since(start) }()

	if err := src.Validate(); err != nil {
		return rep, err
	}

	tables := []string{l.RelationTable, l.WorksTable, l.AuthorsTable}
	switch opts.Mode {
	case ModeFail:
		for _, name := range tables {
			exists, err := sess.tableExists(ctx, name)
			if err != nil {
				return rep, fmt.Errorf("check table %s: %w", name, err)
			}
			if exists {
				return rep, fmt.Errorf("%w: %s", ErrTableExists, name)
			}
		}
	case ModeReplace:
		if err := sess.dropTables(ctx, tables); err != nil {
			return rep, fmt.Errorf("drop tables: %w", err)
		}
	}

	authorDefs := schema.Infer(src.Authors, l.AuthorID, vocab)
	workDefs := schema.Infer(src.Works, l.WorkID, vocab)
	authorKey, _ := schema.Lookup(authorDefs, l.AuthorID)
	workKey, _ := schema.Lookup(workDefs, l.WorkID)

	ddl := []string{
		d.createTable(l.AuthorsTable, authorDefs),
		d.createTable(l.WorksTable, workDefs),
		d.createRelationTable(l, authorKey, workKey),
	}
	if !d.indexesAfterLoad {
		ddl = append(ddl, d.createIndexes(l)...)
	}
	for _, stmt := range ddl {
		if err := sess.exec(ctx, stmt); err != nil {
			return rep, fmt.Errorf("create schema: %w", err)
		}
	}

	bw := func(size int) BatchWriter {
		return BatchWriter{Size: size, Fatal: sess.fatal, Classify: opts.Classify}
	}

	steps := []struct {
		table   string
		columns []string
		rows    func() [][]any
		keyCol  int
		batch   int
	}{
		{l.AuthorsTable, src.Authors.ColumnNames(), func() [][]any { return src.Authors.Rows }, src.Authors.Index(l.AuthorID), opts.AuthorBatch},
		{l.WorksTable, src.Works.ColumnNames(), func() [][]any { return src.Works.Rows }, src.Works.Index(l.WorkID), opts.WorkBatch},
		{l.RelationTable, []string{l.AuthorID, l.WorkID}, func() [][]any {
			kept, filtered := FilterRelations(src)
			rep.FilteredRelations = filtered
			return relationRows(kept)
		}, 1, opts.RelationBatch},
	}
	for _, st := range steps {
		tr, err := sess.writeTable(ctx, st.table, st.columns, st.rows(), st.keyCol, bw(st.batch))
		tr.Table = st.table
		rep.Tables = append(rep.Tables, tr)
		if err != nil {
			return rep, fmt.Errorf("write %s: %w", st.table, err)
		}
	}

	if d.indexesAfterLoad {
		for _, stmt := range d.createIndexes(l) {
			if err := sess.exec(ctx, stmt); err != nil {
				return rep, fmt.Errorf("create index: %w", err)
			}
		}
	}
	return rep, nil
}
