package metrics

import (
	"errors"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	dto "github.com/prometheus/client_model/go"

	"github.com/JonMunkholm/authorworks/internal/export"
)

// gather returns every sample value keyed by metric name and label values.
// Gather sorts labels by name, so keys list table or status before target.
func gather(t *testing.T, reg *prometheus.Registry) map[string]float64 {
	t.Helper()
	families, err := reg.Gather()
	if err != nil {
		t.Fatalf("Gather() error = %v", err)
	}
	out := map[string]float64{}
	for _, f := range families {
		for _, m := range f.GetMetric() {
			key := f.GetName()
			for _, l := range m.GetLabel() {
				key += "|" + l.GetValue()
			}
			out[key] = value(m)
		}
	}
	return out
}

func value(m *dto.Metric) float64 {
	switch {
	case m.GetCounter() != nil:
		return m.GetCounter().GetValue()
	case m.GetHistogram() != nil:
		return float64(m.GetHistogram().GetSampleCount())
	}
	return 0
}

func TestObserveExport(t *testing.T) {
	reg := prometheus.NewRegistry()
	r := New(reg)

	rep := &export.Report{
		Tables: []export.TableReport{
			{Table: "authors", Inserted: 3},
			{Table: "works", Inserted: 49, Skipped: []export.SkippedRow{{Row: 22}}},
		},
		FilteredRelations: 2,
	}
	r.ObserveExport("sqlite", rep, nil, time.Second)
	r.ObserveExport("mysql", nil, errors.New("refused"), time.Millisecond)
	r.ObserveDeduplication(4)

	got := gather(t, reg)
	want := map[string]float64{
		"authorworks_rows_written_total|authors|sqlite": 3,
		"authorworks_rows_written_total|works|sqlite":   49,
		"authorworks_rows_skipped_total|works|sqlite":   1,
		"authorworks_relations_filtered_total|sqlite":   2,
		"authorworks_exports_total|partial|sqlite":      1,
		"authorworks_exports_total|failed|mysql":        1,
		"authorworks_export_duration_seconds|sqlite":    1,
		"authorworks_works_deduplicated_total":          4,
	}
	for k, v := range want {
		if got[k] != v {
			t.Errorf("%s = %v, want %v", k, got[k], v)
		}
	}
	if _, ok := got["authorworks_rows_skipped_total|authors|sqlite"]; ok {
		t.Error("skipped counter created for a table with no skips")
	}
}

func TestNilRecorder(t *testing.T) {
	var r *Recorder
	r.ObserveExport("sqlite", &export.Report{}, nil, time.Second)
	r.ObserveDeduplication(1)
}
