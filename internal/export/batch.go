package export

import (
	"context"

	"github.com/JonMunkholm/authorworks/internal/records"
)

// RowWriter writes a group of rows in one statement. A failure must leave
// none of the rows written.
type RowWriter interface {
	WriteRows(ctx context.Context, rows [][]any) error
}

// RowWriterFunc adapts a function to RowWriter.
type RowWriterFunc func(ctx context.Context, rows [][]any) error

// WriteRows calls f.
func (f RowWriterFunc) WriteRows(ctx context.Context, rows [][]any) error {
	return f(ctx, rows)
}

// BatchWriter writes rows in fixed-size batches and degrades to single-row
// writes when a batch fails. It is shared by every database target.
type BatchWriter struct {
	Size int

	// Fatal reports errors that must abort the table instead of skipping a
	// row. Nil means IsFatal.
	Fatal func(error) bool

	// Classify fills SkippedRow.Code.
	Classify func(error) string
}

// Write sends rows to dst in input order. keyCol, when not negative, names
// the column whose value identifies skipped rows in the report. A fatal
// error stops the write and is returned with the report so far.
func (w BatchWriter) Write(ctx context.Context, rows [][]any, keyCol int, dst RowWriter) (TableReport, error) {
	size := w.Size
	if size <= 0 {
		size = 1
	}
	fatal := w.Fatal
	if fatal == nil {
		fatal = IsFatal
	}

	rep := TableReport{Rows: len(rows)}
	for start := 0; start < len(rows); start += size {
		if err := ctx.Err(); err != nil {
			return rep, err
		}
		end := min(start+size, len(rows))
		batch := rows[start:end]
		rep.Batches++

		err := dst.WriteRows(ctx, batch)
		if err == nil {
			rep.Inserted += len(batch)
			continue
		}
		if fatal(err) {
			return rep, err
		}
		if len(batch) > 1 {
			rep.FallbackBatches++
		}

		for i, row := range batch {
			if len(batch) == 1 {
				// The batch was this row; no need to retry it.
				rep.Skipped = append(rep.Skipped, w.skipped(start+i, row, keyCol, err))
				break
			}
			rowErr := dst.WriteRows(ctx, [][]any{row})
			if rowErr == nil {
				rep.Inserted++
				continue
			}
			if fatal(rowErr) {
				return rep, rowErr
			}
			rep.Skipped = append(rep.Skipped, w.skipped(start+i, row, keyCol, rowErr))
		}
	}
	return rep, nil
}

func (w BatchWriter) skipped(pos int, row []any, keyCol int, err error) SkippedRow {
	s := SkippedRow{Row: pos, Reason: err.Error()}
	if keyCol >= 0 && keyCol < len(row) {
		s.Key = records.CellString(row[keyCol])
	}
	if w.Classify != nil {
		s.Code = w.Classify(err)
	}
	return s
}
