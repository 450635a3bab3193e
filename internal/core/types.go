package core

import (
	"time"

	"github.com/JonMunkholm/authorworks/internal/export"
	"github.com/JonMunkholm/authorworks/internal/identity"
	"github.com/JonMunkholm/authorworks/internal/records"
	"github.com/JonMunkholm/authorworks/internal/relate"
)

// Dataset is the prepared input of one export run: normalized authors,
// deduplicated works with identities and the association set, plus the
// counts each stage produced.
type Dataset struct {
	Layout       records.Layout
	Authors      *records.Table
	Works        *records.Table
	Associations []relate.Association

	AuthorsLoad records.LoadStats
	WorksLoad   records.LoadStats
	AuthorsNorm records.NormalizeStats
	WorksNorm   records.NormalizeStats
	Identity    identity.Result
	Relations   relate.Stats
}

// Source returns the dataset in the form exporters consume.
func (d *Dataset) Source() export.Source {
	return export.Source{
		Layout:       d.Layout,
		Authors:      d.Authors,
		Works:        d.Works,
		Associations: d.Associations,
	}
}

// Summary returns the relation statistics of the dataset.
func (d *Dataset) Summary() relate.Summary {
	return relate.Summarize(d.Authors.Len(), d.Works.Len(), d.Associations)
}

// DatasetSummary is the part of a Dataset kept in run history.
type DatasetSummary struct {
	Authors           int     `json:"authors"`
	Works             int     `json:"works"`
	Associations      int     `json:"associations"`
	DuplicateWorks    int     `json:"duplicate_works"`
	DerivedIDs        int     `json:"derived_ids"`
	UnmatchedWorks    int     `json:"unmatched_works"`
	NulledCells       int     `json:"nulled_cells"`
	TruncatedCells    int     `json:"truncated_cells"`
	AvgAuthorsPerWork float64 `json:"avg_authors_per_work"`
	AvgWorksPerAuthor float64 `json:"avg_works_per_author"`
}

// Describe condenses d for reports.
func (d *Dataset) Describe() DatasetSummary {
	s := d.Summary()
	return DatasetSummary{
		Authors:           s.Authors,
		Works:             s.Works,
		Associations:      s.Associations,
		DuplicateWorks:    d.Identity.Dropped,
		DerivedIDs:        d.Identity.Derived,
		UnmatchedWorks:    d.Relations.UnmatchedWorks,
		NulledCells:       d.AuthorsNorm.Nulled + d.WorksNorm.Nulled,
		TruncatedCells:    d.AuthorsNorm.Truncated + d.WorksNorm.Truncated,
		AvgAuthorsPerWork: s.AvgAuthorsPerWork,
		AvgWorksPerAuthor: s.AvgWorksPerAuthor,
	}
}

// RunStatus is the outcome of an export run.
type RunStatus string

const (
	StatusRunning  RunStatus = "running"
	StatusComplete RunStatus = "complete"
	// StatusPartial means every target finished but some rows were skipped
	// or filtered.
	StatusPartial RunStatus = "partial"
	StatusFailed  RunStatus = "failed"
)

// TargetResult is the outcome of one target within a run.
type TargetResult struct {
	Target string         `json:"target"`
	Report *export.Report `json:"report,omitempty"`
	Error  string         `json:"error,omitempty"`
	Code   string         `json:"code,omitempty"`
}

// Failed reports whether the target aborted.
func (r TargetResult) Failed() bool {
	return r.Error != ""
}

// ExportRun is one execution of the export pipeline against a set of
// targets.
type ExportRun struct {
	ID       string         `json:"id"`
	Trigger  string         `json:"trigger"`
	Status   RunStatus      `json:"status"`
	Started  time.Time      `json:"started"`
	Finished time.Time      `json:"finished,omitzero"`
	Dataset  DatasetSummary `json:"dataset"`
	Targets  []TargetResult `json:"targets"`
	Error    string         `json:"error,omitempty"`
	Code     string         `json:"code,omitempty"`
}

// Duration is the wall time of a finished run.
func (r *ExportRun) Duration() time.Duration {
	if r.Finished.IsZero() {
		return 0
	}
	return r.Finished.Sub(r.Started)
}

// settle derives the run status from its target results.
func (r *ExportRun) settle() {
	if r.Error != "" {
		r.Status = StatusFailed
		return
	}
	r.Status = StatusComplete
	for _, t := range r.Targets {
		switch {
		case t.Failed():
			r.Status = StatusFailed
			return
		case t.Report != nil && !t.Report.Complete():
			r.Status = StatusPartial
		}
	}
}
