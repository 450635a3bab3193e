// Package metrics exposes export counters for Prometheus.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/JonMunkholm/authorworks/internal/export"
)

// Recorder holds the export collectors.
type Recorder struct {
	rowsWritten       *prometheus.CounterVec
	rowsSkipped       *prometheus.CounterVec
	filteredRelations *prometheus.CounterVec
	droppedWorks      prometheus.Counter
	runs              *prometheus.CounterVec
	duration          *prometheus.HistogramVec
}

// New creates the collectors and registers them with reg.
func New(reg prometheus.Registerer) *Recorder {
	r := &Recorder{
		rowsWritten: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "authorworks_rows_written_total",
			Help: "Rows written to export targets.",
		}, []string{"target", "table"}),
		rowsSkipped: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "authorworks_rows_skipped_total",
			Help: "Rows rejected by export targets after single-row retry.",
		}, []string{"target", "table"}),
		filteredRelations: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "authorworks_relations_filtered_total",
			Help: "Associations dropped because a referenced row was missing.",
		}, []string{"target"}),
		droppedWorks: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "authorworks_works_deduplicated_total",
			Help: "Works dropped as duplicates of an earlier identity.",
		}),
		runs: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "authorworks_exports_total",
			Help: "Export runs per target by outcome.",
		}, []string{"target", "status"}),
		duration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "authorworks_export_duration_seconds",
			Help:    "Duration of one export to one target.",
			Buckets: prometheus.ExponentialBuckets(0.05, 2, 12),
		}, []string{"target"}),
	}
	reg.MustRegister(r.rowsWritten, r.rowsSkipped, r.filteredRelations, r.droppedWorks, r.runs, r.duration)
	return r
}

// Status values for ObserveExport.
const (
	StatusComplete = "complete"
	StatusPartial  = "partial"
	StatusFailed   = "failed"
)

// ObserveExport records one exporter call. rep may be nil when the export
// failed before writing anything.
func (r *Recorder) ObserveExport(target string, rep *export.Report, err error, elapsed time.Duration) {
	if r == nil {
		return
	}
	status := StatusComplete
	switch {
	case err != nil:
		status = StatusFailed
	case rep != nil && !rep.Complete():
		status = StatusPartial
	}
	r.runs.WithLabelValues(target, status).Inc()
	r.duration.WithLabelValues(target).Observe(elapsed.Seconds())

	if rep == nil {
		return
	}
	for _, t := range rep.Tables {
		r.rowsWritten.WithLabelValues(target, t.Table).Add(float64(t.Inserted))
		if n := len(t.Skipped); n > 0 {
			r.rowsSkipped.WithLabelValues(target, t.Table).Add(float64(n))
		}
	}
	if rep.FilteredRelations > 0 {
		r.filteredRelations.WithLabelValues(target).Add(float64(rep.FilteredRelations))
	}
}

// ObserveDeduplication records works dropped while resolving identities.
func (r *Recorder) ObserveDeduplication(dropped int) {
	if r == nil || dropped <= 0 {
		return
	}
	r.droppedWorks.Add(float64(dropped))
}
