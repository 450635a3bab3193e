package export

import (
	"context"
	"database/sql/driver"
	"errors"
	"fmt"
	"testing"
)

// fakeWriter rejects any statement containing a row whose first cell is in
// reject, the way a unique constraint rejects a whole multi-row INSERT.
type fakeWriter struct {
	reject  map[any]error
	written []any
	calls   int
}

func (f *fakeWriter) WriteRows(_ context.Context, rows [][]any) error {
	f.calls++
	for _, r := range rows {
		if err, bad := f.reject[r[0]]; bad {
			return err
		}
	}
	for _, r := range rows {
		f.written = append(f.written, r[0])
	}
	return nil
}

func numberedRows(n int) [][]any {
	rows := make([][]any, n)
	for i := range rows {
		rows[i] = []any{fmt.Sprintf("w%02d", i), "title"}
	}
	return rows
}

func TestBatchWriter_FallsBackToRows(t *testing.T) {
	rows := numberedRows(50)
	dup := errors.New(`duplicate key value violates unique constraint "works_pkey"`)
	w := &fakeWriter{reject: map[any]error{"w22": dup}}

	bw := BatchWriter{
		Size:     50,
		Classify: func(error) string { return "DB001" },
	}
	rep, err := bw.Write(context.Background(), rows, 0, w)
	if err != nil {
		t.Fatalf("Write() error = %v", err)
	}

	if rep.Inserted != 49 {
		t.Errorf("Inserted = %d, want 49", rep.Inserted)
	}
	if rep.Batches != 1 || rep.FallbackBatches != 1 {
		t.Errorf("Batches = %d, FallbackBatches = %d, want 1 and 1", rep.Batches, rep.FallbackBatches)
	}
	if len(rep.Skipped) != 1 {
		t.Fatalf("Skipped = %v, want one row", rep.Skipped)
	}
	s := rep.Skipped[0]
	if s.Row != 22 || s.Key != "w22" || s.Code != "DB001" || s.Reason != dup.Error() {
		t.Errorf("skipped row = %+v", s)
	}
	// One failed batch plus fifty single-row attempts.
	if w.calls != 51 {
		t.Errorf("calls = %d, want 51", w.calls)
	}
	if len(w.written) != 49 || w.written[22] != "w23" {
		t.Errorf("rows written out of order: %v", w.written)
	}
}

func TestBatchWriter_Batches(t *testing.T) {
	rows := numberedRows(100)
	w := &fakeWriter{}

	rep, err := BatchWriter{Size: 30}.Write(context.Background(), rows, 0, w)
	if err != nil {
		t.Fatalf("Write() error = %v", err)
	}
	if rep.Batches != 4 || rep.Inserted != 100 || rep.FallbackBatches != 0 {
		t.Errorf("report = %+v", rep)
	}
	if w.calls != 4 {
		t.Errorf("calls = %d, want 4", w.calls)
	}
	for i, v := range w.written {
		if v != fmt.Sprintf("w%02d", i) {
			t.Fatalf("row %d written as %v", i, v)
		}
	}
}

func TestBatchWriter_FailingSingleRowBatch(t *testing.T) {
	rows := numberedRows(3)
	w := &fakeWriter{reject: map[any]error{"w01": errors.New("constraint failed")}}

	rep, err := BatchWriter{Size: 1}.Write(context.Background(), rows, -1, w)
	if err != nil {
		t.Fatalf("Write() error = %v", err)
	}
	if rep.Inserted != 2 || len(rep.Skipped) != 1 || rep.Skipped[0].Key != "" {
		t.Errorf("report = %+v", rep)
	}
	if w.calls != 3 {
		t.Errorf("calls = %d, want 3 (no retry of a one-row batch)", w.calls)
	}
}

func TestBatchWriter_FatalAborts(t *testing.T) {
	rows := numberedRows(10)
	w := &fakeWriter{reject: map[any]error{"w05": driver.ErrBadConn}}

	rep, err := BatchWriter{Size: 4}.Write(context.Background(), rows, 0, w)
	if !errors.Is(err, driver.ErrBadConn) {
		t.Fatalf("error = %v, want ErrBadConn", err)
	}
	if rep.Inserted != 4 {
		t.Errorf("Inserted = %d, want 4 (first batch only)", rep.Inserted)
	}
	if len(rep.Skipped) != 0 {
		t.Errorf("fatal error recorded as skipped row: %v", rep.Skipped)
	}
}

func TestBatchWriter_FatalDuringFallback(t *testing.T) {
	rows := numberedRows(4)
	calls := 0
	w := RowWriterFunc(func(_ context.Context, batch [][]any) error {
		calls++
		if calls == 1 {
			return errors.New("constraint failed")
		}
		return driver.ErrBadConn
	})

	_, err := BatchWriter{Size: 4}.Write(context.Background(), rows, 0, w)
	if !errors.Is(err, driver.ErrBadConn) {
		t.Fatalf("error = %v, want ErrBadConn", err)
	}
	if calls != 2 {
		t.Errorf("calls = %d, want 2", calls)
	}
}

func TestBatchWriter_Cancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := BatchWriter{Size: 10}.Write(ctx, numberedRows(5), 0, &fakeWriter{})
	if !errors.Is(err, context.Canceled) {
		t.Errorf("error = %v, want context.Canceled", err)
	}
}
