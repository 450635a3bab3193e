package export

import (
	"context"

	"github.com/jmoiron/sqlx"
)

// connSession drives a single database/sql connection through sqlx. It
// serves SQLite and MySQL, which both write in autocommit mode with
// multi-row INSERT statements.
type connSession struct {
	conn *sqlx.Conn
	d    dialect
	opts Options
}

func (s *connSession) exec(ctx context.Context, query string) error {
	ctx, cancel := s.opts.withTimeout(ctx)
	defer cancel()
	_, err := s.conn.ExecContext(ctx, query)
	return err
}

func (s *connSession) tableExists(ctx context.Context, name string) (bool, error) {
	ctx, cancel := s.opts.withTimeout(ctx)
	defer cancel()
	var n int
	if err := s.conn.GetContext(ctx, &n, s.d.existsQuery, name); err != nil {
		return false, err
	}
	return n > 0, nil
}

func (s *connSession) dropTables(ctx context.Context, names []string) (err error) {
	if s.d.suspendChecks {
		if err := s.exec(ctx, "SET FOREIGN_KEY_CHECKS = 0"); err != nil {
			return err
		}
		defer func() {
			// Restore even when ctx is already cancelled.
			restoreErr := s.exec(context.WithoutCancel(ctx), "SET FOREIGN_KEY_CHECKS = 1")
			if err == nil {
				err = restoreErr
			}
		}()
	}
	for _, name := range names {
		if err := s.exec(ctx, s.d.dropTable(name)); err != nil {
			return err
		}
	}
	return nil
}

func (s *connSession) writeTable(ctx context.Context, table string, columns []string, rows [][]any, keyCol int, bw BatchWriter) (TableReport, error) {
	w := RowWriterFunc(func(ctx context.Context, batch [][]any) error {
		ctx, cancel := s.opts.withTimeout(ctx)
		defer cancel()
		_, err := s.conn.ExecContext(ctx, s.d.insert(table, columns, len(batch)), flatten(batch)...)
		return err
	})
	return bw.Write(ctx, rows, keyCol, w)
}

func (s *connSession) fatal(err error) bool {
	return IsFatal(err)
}
