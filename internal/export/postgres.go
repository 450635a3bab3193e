package export

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/JonMunkholm/authorworks/internal/schema"
)

// Postgres exports to a PostgreSQL database over a single pgx connection.
//
// Each table is written in its own transaction. Every batch runs inside a
// savepoint so a failed batch, and each failed row of its fallback, is
// rolled back without aborting the transaction. Multi-row batches use the
// COPY protocol.
type Postgres struct {
	URL     string
	Options Options
}

// NewPostgres returns a PostgreSQL exporter for the connection URL.
func NewPostgres(url string, opts Options) *Postgres {
	return &Postgres{URL: url, Options: opts}
}

// Target implements Exporter.
func (e *Postgres) Target() string { return "postgres" }

// Export implements Exporter.
func (e *Postgres) Export(ctx context.Context, src Source) (*Report, error) {
	opts := e.Options.withDefaults()

	connCtx, cancel := opts.withTimeout(ctx)
	conn, err := pgx.Connect(connCtx, e.URL)
	cancel()
	if err != nil {
		return nil, markFatal(fmt.Errorf("connect postgres: %w", err))
	}
	defer conn.Close(context.WithoutCancel(ctx))

	sess := &pgSession{conn: conn, opts: opts}
	rep, err := runExport(ctx, sess, postgresDialect, schema.Postgres, opts, src)
	rep.Artifact = conn.Config().Database
	return rep, err
}

type pgSession struct {
	conn *pgx.Conn
	opts Options
}

func (s *pgSession) exec(ctx context.Context, query string) error {
	ctx, cancel := s.opts.withTimeout(ctx)
	defer cancel()
	_, err := s.conn.Exec(ctx, query)
	return err
}

func (s *pgSession) tableExists(ctx context.Context, name string) (bool, error) {
	ctx, cancel := s.opts.withTimeout(ctx)
	defer cancel()
	var n int
	if err := s.conn.QueryRow(ctx, postgresDialect.existsQuery, name).Scan(&n); err != nil {
		return false, err
	}
	return n > 0, nil
}

// dropTables needs no constraint suspension: children are dropped first.
func (s *pgSession) dropTables(ctx context.Context, names []string) error {
	for _, name := range names {
		if err := s.exec(ctx, postgresDialect.dropTable(name)); err != nil {
			return err
		}
	}
	return nil
}

func (s *pgSession) writeTable(ctx context.Context, table string, columns []string, rows [][]any, keyCol int, bw BatchWriter) (TableReport, error) {
	beginCtx, cancel := s.opts.withTimeout(ctx)
	tx, err := s.conn.Begin(beginCtx)
	cancel()
	if err != nil {
		return TableReport{Rows: len(rows)}, markFatal(fmt.Errorf("begin: %w", err))
	}

	w := &pgTableWriter{
		tx:      tx,
		table:   table,
		columns: columns,
		insert:  postgresDialect.insert(table, columns, 1),
		opts:    s.opts,
	}
	rep, err := bw.Write(ctx, rows, keyCol, w)
	if err != nil {
		_ = tx.Rollback(context.WithoutCancel(ctx))
		rep.Inserted = 0
		return rep, err
	}

	commitCtx, cancel := s.opts.withTimeout(ctx)
	defer cancel()
	if err := tx.Commit(commitCtx); err != nil {
		rep.Inserted = 0
		return rep, markFatal(fmt.Errorf("commit: %w", err))
	}
	return rep, nil
}

func (s *pgSession) fatal(err error) bool {
	return IsFatal(err) || s.conn.IsClosed()
}

// pgTableWriter writes batches of one table inside savepoints.
type pgTableWriter struct {
	tx      pgx.Tx
	table   string
	columns []string
	insert  string
	opts    Options
	seq     int
}

func (w *pgTableWriter) WriteRows(ctx context.Context, rows [][]any) error {
	w.seq++
	sp := fmt.Sprintf("sp_%d", w.seq)

	ctx, cancel := w.opts.withTimeout(ctx)
	defer cancel()

	if _, err := w.tx.Exec(ctx, "SAVEPOINT "+sp); err != nil {
		return markFatal(fmt.Errorf("create savepoint: %w", err))
	}

	var err error
	if len(rows) == 1 {
		_, err = w.tx.Exec(ctx, w.insert, rows[0]...)
	} else {
		_, err = w.tx.CopyFrom(ctx, pgx.Identifier{w.table}, w.columns, pgx.CopyFromRows(rows))
	}
	if err != nil {
		if _, rbErr := w.tx.Exec(context.WithoutCancel(ctx), "ROLLBACK TO SAVEPOINT "+sp); rbErr != nil {
			return markFatal(errors.Join(err, fmt.Errorf("rollback savepoint: %w", rbErr)))
		}
		return err
	}

	if _, err := w.tx.Exec(ctx, "RELEASE SAVEPOINT "+sp); err != nil {
		return markFatal(fmt.Errorf("release savepoint: %w", err))
	}
	return nil
}
