// Package schema infers a column type for every column of a table, in the
// type vocabulary of the target the table is exported to.
package schema

import (
	"fmt"
	"math"
	"strings"

	"github.com/JonMunkholm/authorworks/internal/records"
)

// Text length thresholds, in characters.
const (
	ShortTextMax = 255
	TextMax      = 65535

	// KeyTextMax bounds MySQL text keys so the relation's two-column
	// primary key stays within InnoDB's 3072-byte index limit in utf8mb4.
	// Longer key values are rejected by the server and skipped.
	KeyTextMax = 384
)

// Vocabulary maps observed column statistics to a column type.
type Vocabulary interface {
	Name() string
	ColumnType(s ColumnStats, primaryKey bool) string
}

var (
	// Simple is the integer/real/text vocabulary of SQLite and portable scripts.
	Simple Vocabulary = simpleVocabulary{}
	// MySQL sizes integers and text by observed range.
	MySQL Vocabulary = mysqlVocabulary{}
	// Postgres is MySQL's vocabulary in PostgreSQL spelling.
	Postgres Vocabulary = postgresVocabulary{}
)

// ForTarget returns the vocabulary used by an export target.
func ForTarget(target string) (Vocabulary, error) {
	switch strings.ToLower(target) {
	case "sqlite", "script":
		return Simple, nil
	case "mysql":
		return MySQL, nil
	case "postgres", "postgresql":
		return Postgres, nil
	default:
		return nil, fmt.Errorf("no type vocabulary for target %q", target)
	}
}

func fitsInt32(s ColumnStats) bool {
	return s.MinInt >= math.MinInt32 && s.MaxInt <= math.MaxInt32
}

type simpleVocabulary struct{}

func (simpleVocabulary) Name() string { return "simple" }

func (simpleVocabulary) ColumnType(s ColumnStats, _ bool) string {
	switch s.Kind {
	case records.KindInt:
		return "INTEGER"
	case records.KindFloat:
		return "REAL"
	default:
		return "TEXT"
	}
}

type mysqlVocabulary struct{}

func (mysqlVocabulary) Name() string { return "mysql" }

func (mysqlVocabulary) ColumnType(s ColumnStats, primaryKey bool) string {
	switch s.Kind {
	case records.KindInt:
		if fitsInt32(s) {
			return "INT"
		}
		return "BIGINT"
	case records.KindFloat:
		return "DOUBLE"
	}

	switch {
	case s.MaxLen <= ShortTextMax:
		return "VARCHAR(255)"
	case primaryKey:
		// TEXT columns cannot be keys.
		return fmt.Sprintf("VARCHAR(%d)", KeyTextMax)
	case s.MaxLen <= TextMax:
		return "TEXT"
	default:
		return "MEDIUMTEXT"
	}
}

type postgresVocabulary struct{}

func (postgresVocabulary) Name() string { return "postgres" }

func (postgresVocabulary) ColumnType(s ColumnStats, _ bool) string {
	switch s.Kind {
	case records.KindInt:
		if fitsInt32(s) {
			return "INTEGER"
		}
		return "BIGINT"
	case records.KindFloat:
		return "DOUBLE PRECISION"
	}
	if s.MaxLen <= ShortTextMax {
		return "VARCHAR(255)"
	}
	return "TEXT"
}
