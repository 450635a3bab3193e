package export

import (
	"context"
	"database/sql"
	"database/sql/driver"
	"errors"
	"net"

	"github.com/go-sql-driver/mysql"
	"github.com/jackc/pgx/v5/pgconn"
)

// fatalError marks an error that must abort the export.
type fatalError struct{ err error }

func (e *fatalError) Error() string { return e.err.Error() }
func (e *fatalError) Unwrap() error { return e.err }

func markFatal(err error) error {
	if err == nil {
		return nil
	}
	return &fatalError{err: err}
}

// MySQL server errors that mean the session itself is unusable.
var mysqlFatalCodes = map[uint16]bool{
	1044: true, // access denied to database
	1045: true, // access denied for user
	1049: true, // unknown database
	1053: true, // server shutdown in progress
}

func pgFatalCode(code string) bool {
	switch code {
	case "3D000", "57P01", "57P02", "57P03": // unknown database, shutdown, cannot connect now
		return true
	}
	// Class 08 is connection exceptions, class 28 invalid authorization.
	return len(code) == 5 && (code[:2] == "08" || code[:2] == "28")
}

// IsFatal reports whether err means the target is unreachable or unusable:
// cancellation, dropped connections, network failures and authentication
// errors. Constraint violations and other per-row errors are not fatal.
func IsFatal(err error) bool {
	if err == nil {
		return false
	}

	var fe *fatalError
	if errors.As(err, &fe) {
		return true
	}
	if errors.Is(err, context.Canceled) ||
		errors.Is(err, driver.ErrBadConn) ||
		errors.Is(err, sql.ErrConnDone) ||
		errors.Is(err, mysql.ErrInvalidConn) {
		return true
	}

	// A single statement hitting its timeout is a row failure. If the driver
	// dropped the connection because of it, the next statement reports that.
	if errors.Is(err, context.DeadlineExceeded) {
		return false
	}

	var netErr net.Error
	if errors.As(err, &netErr) {
		return true
	}

	var connectErr *pgconn.ConnectError
	if errors.As(err, &connectErr) {
		return true
	}
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgFatalCode(pgErr.Code)
	}

	var myErr *mysql.MySQLError
	if errors.As(err, &myErr) {
		return mysqlFatalCodes[myErr.Number]
	}
	return false
}
