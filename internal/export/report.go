package export

import "time"

// SkippedRow is a row that could not be written even on its own.
type SkippedRow struct {
	Row    int    `json:"row"` // zero-based position in the table's input
	Key    string `json:"key,omitempty"`
	Reason string `json:"reason"`
	Code   string `json:"code,omitempty"`
}

// TableReport describes the writes to one table.
type TableReport struct {
	Table           string       `json:"table"`
	Rows            int          `json:"rows"`
	Inserted        int          `json:"inserted"`
	Batches         int          `json:"batches"`
	FallbackBatches int          `json:"fallback_batches"`
	Skipped         []SkippedRow `json:"skipped,omitempty"`
}

// Report is the outcome of one Export call.
type Report struct {
	Target            string        `json:"target"`
	Mode              Mode          `json:"mode"`
	Tables            []TableReport `json:"tables"`
	FilteredRelations int           `json:"filtered_relations"`
	Artifact          string        `json:"artifact,omitempty"`
	Duration          time.Duration `json:"duration"`
}

// Table returns the report for the named table, or nil.
func (r *Report) Table(name string) *TableReport {
	for i := range r.Tables {
		if r.Tables[i].Table == name {
			return &r.Tables[i]
		}
	}
	return nil
}

// SkippedRows counts skipped rows across all tables.
func (r *Report) SkippedRows() int {
	n := 0
	for _, t := range r.Tables {
		n += len(t.Skipped)
	}
	return n
}

// Inserted counts written rows across all tables.
func (r *Report) Inserted() int {
	n := 0
	for _, t := range r.Tables {
		n += t.Inserted
	}
	return n
}

// Complete reports whether every input row landed and nothing was filtered.
func (r *Report) Complete() bool {
	return r.SkippedRows() == 0 && r.FilteredRelations == 0
}
