package export

import (
	"context"
	"fmt"
	"path/filepath"
	"time"

	"github.com/gofrs/flock"
	"github.com/jmoiron/sqlx"
	_ "modernc.org/sqlite"

	"github.com/JonMunkholm/authorworks/internal/schema"
)

// SQLite exports to an embedded database file. The engine does not enforce
// the declared foreign keys; the relation indexes are built after the load.
// A sibling ".lock" file keeps two exports from writing the same database.
type SQLite struct {
	Path        string
	BusyTimeout time.Duration
	Options     Options
}

// NewSQLite returns a SQLite exporter for path.
func NewSQLite(path string, busyTimeout time.Duration, opts Options) *SQLite {
	return &SQLite{Path: path, BusyTimeout: busyTimeout, Options: opts}
}

// Target implements Exporter.
func (e *SQLite) Target() string { return "sqlite" }

// Export implements Exporter.
func (e *SQLite) Export(ctx context.Context, src Source) (*Report, error) {
	opts := e.Options.withDefaults()

	abs, err := filepath.Abs(e.Path)
	if err != nil {
		return nil, markFatal(fmt.Errorf("resolve sqlite path: %w", err))
	}

	lock := flock.New(abs + ".lock")
	ok, err := lock.TryLock()
	if err != nil {
		return nil, markFatal(fmt.Errorf("acquire lock: %w", err))
	}
	if !ok {
		return nil, markFatal(fmt.Errorf("%w: %s", ErrTargetLocked, abs))
	}
	defer lock.Unlock()

	busy := int(e.BusyTimeout / time.Millisecond)
	if busy <= 0 {
		busy = 5000
	}
	dsn := fmt.Sprintf("file:%s?_pragma=busy_timeout(%d)", abs, busy)
	db, err := sqlx.Open("sqlite", dsn)
	if err != nil {
		return nil, markFatal(fmt.Errorf("open sqlite: %w", err))
	}
	defer db.Close()
	db.SetMaxOpenConns(1)

	conn, err := db.Connx(ctx)
	if err != nil {
		return nil, markFatal(fmt.Errorf("connect sqlite: %w", err))
	}
	defer conn.Close()

	sess := &connSession{conn: conn, d: sqliteDialect, opts: opts}
	rep, err := runExport(ctx, sess, sqliteDialect, schema.Simple, opts, src)
	rep.Artifact = abs
	return rep, err
}
