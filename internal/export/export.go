// Package export writes a prepared author/work dataset to a persistent
// target: an embedded SQLite file, a PostgreSQL or MySQL database, or a
// portable SQL script.
//
// Every target follows the same contract. Tables are created with explicit
// DDL before any row is written, authors and works are written first and
// associations last, and associations whose work is not in the work table
// are filtered out and counted. Rows are written in batches; a failing
// batch is retried one row at a time and rows that still fail are skipped
// and reported instead of aborting the export. Connection and
// authentication failures abort the export and are returned.
package export

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/JonMunkholm/authorworks/internal/records"
	"github.com/JonMunkholm/authorworks/internal/relate"
)

// Mode governs what happens to target tables that already exist.
type Mode string

const (
	// ModeReplace drops existing tables before creating them.
	ModeReplace Mode = "replace"
	// ModeAppend keeps existing tables and adds rows to them.
	ModeAppend Mode = "append"
	// ModeFail aborts when any target table already exists.
	ModeFail Mode = "fail"
)

// ParseMode parses a mode name; the empty string selects ModeReplace.
func ParseMode(s string) (Mode, error) {
	switch m := Mode(strings.ToLower(strings.TrimSpace(s))); m {
	case "":
		return ModeReplace, nil
	case ModeReplace, ModeAppend, ModeFail:
		return m, nil
	default:
		return "", fmt.Errorf("unknown export mode %q (want replace, append or fail)", s)
	}
}

var (
	// ErrTableExists is returned in ModeFail when a target table exists.
	ErrTableExists = errors.New("target table already exists")
	// ErrTargetLocked is returned when another export holds the target.
	ErrTargetLocked = errors.New("target is locked by another export")
	// ErrInvalidSource is returned when the dataset lacks a key column.
	ErrInvalidSource = errors.New("invalid export source")
)

// Source is the dataset one export writes.
type Source struct {
	Layout       records.Layout
	Authors      *records.Table
	Works        *records.Table
	Associations []relate.Association
}

// Validate checks that both tables exist and carry their key columns.
func (s Source) Validate() error {
	if s.Authors == nil || s.Works == nil {
		return fmt.Errorf("%w: authors and works are required", ErrInvalidSource)
	}
	if !s.Authors.Has(s.Layout.AuthorID) {
		return fmt.Errorf("%w: authors has no %q column", ErrInvalidSource, s.Layout.AuthorID)
	}
	if !s.Works.Has(s.Layout.WorkID) {
		return fmt.Errorf("%w: works has no %q column", ErrInvalidSource, s.Layout.WorkID)
	}
	return nil
}

// Exporter writes a Source to one target.
type Exporter interface {
	// Target names the target kind: sqlite, postgres, mysql or script.
	Target() string
	// Export writes src. The returned report is non-nil whenever any work
	// was attempted, including when an error is returned.
	Export(ctx context.Context, src Source) (*Report, error)
}

// Options tune a single exporter.
type Options struct {
	Mode Mode

	AuthorBatch   int
	WorkBatch     int
	RelationBatch int

	// StatementTimeout bounds every individual statement.
	StatementTimeout time.Duration

	// Classify maps a row error to a short code stored on SkippedRow.
	Classify func(error) string
}

// DefaultOptions returns the batch sizes and timeout used when nothing is
// configured.
func DefaultOptions() Options {
	return Options{
		Mode:             ModeReplace,
		AuthorBatch:      100,
		WorkBatch:        50,
		RelationBatch:    1000,
		StatementTimeout: 30 * time.Second,
	}
}

func (o Options) withDefaults() Options {
	d := DefaultOptions()
	if o.Mode == "" {
		o.Mode = d.Mode
	}
	if o.AuthorBatch <= 0 {
		o.AuthorBatch = d.AuthorBatch
	}
	if o.WorkBatch <= 0 {
		o.WorkBatch = d.WorkBatch
	}
	if o.RelationBatch <= 0 {
		o.RelationBatch = d.RelationBatch
	}
	if o.StatementTimeout <= 0 {
		o.StatementTimeout = d.StatementTimeout
	}
	return o
}

// withTimeout derives the context for one statement.
func (o Options) withTimeout(ctx context.Context) (context.Context, context.CancelFunc) {
	return context.WithTimeout(ctx, o.StatementTimeout)
}
