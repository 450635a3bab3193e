package templates

import (
	"bytes"
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/a-h/templ"

	"github.com/JonMunkholm/authorworks/internal/core"
	"github.com/JonMunkholm/authorworks/internal/export"
)

func render(t *testing.T, c templ.Component) string {
	t.Helper()
	var buf bytes.Buffer
	if err := c.Render(context.Background(), &buf); err != nil {
		t.Fatalf("Render() error = %v", err)
	}
	return buf.String()
}

func TestRunReport(t *testing.T) {
	run := &core.ExportRun{
		ID:       "0123456789abcdef",
		Trigger:  core.TriggerHTTP,
		Status:   core.StatusPartial,
		Started:  time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC),
		Finished: time.Date(2026, 1, 2, 3, 4, 7, 0, time.UTC),
		Dataset:  core.DatasetSummary{Authors: 2, Works: 3, Associations: 4, AvgAuthorsPerWork: 1.3333},
		Targets: []core.TargetResult{
			{
				Target: "sqlite",
				Report: &export.Report{
					Mode:   export.ModeReplace,
					Tables: []export.TableReport{{Table: "works", Rows: 3, Inserted: 2, Batches: 1, FallbackBatches: 1, Skipped: []export.SkippedRow{{Row: 1, Key: "<w1>", Code: "DB001", Reason: "duplicate"}}}},
				},
			},
			{Target: "mysql", Error: "connection refused", Code: "DB010"},
		},
	}

	body := render(t, RunReport(run))
	for _, want := range []string{
		"<!doctype html>",
		"<title>Export 01234567</title>",
		`<td data-status="partial">partial</td>`,
		"<tr><th>Associations</th><td>4</td></tr>",
		"<td>1.33</td>",
		"<h2>sqlite</h2>",
		"<p>Mode replace, 0 relations filtered, took -.</p>",
		"<h3>Skipped works rows</h3>",
		"<td>&lt;w1&gt;</td>",
		`<p class="error">connection refused (DB010)</p>`,
	} {
		if !strings.Contains(body, want) {
			t.Errorf("report lacks %q:\n%s", want, body)
		}
	}
	if strings.Contains(body, "<w1>") {
		t.Error("skipped row key was not escaped")
	}
}

func TestRunList(t *testing.T) {
	if body := render(t, RunList(nil)); !strings.Contains(body, "No exports have run yet.") {
		t.Errorf("empty list = %s", body)
	}

	runs := []*core.ExportRun{{ID: "run-1", Trigger: core.TriggerCLI, Status: core.StatusComplete}}
	body := render(t, RunList(runs))
	for _, want := range []string{`<a href="/exports/run-1">run-1</a>`, `<td data-status="complete">complete</td>`, "<td>-</td>"} {
		if !strings.Contains(body, want) {
			t.Errorf("list lacks %q:\n%s", want, body)
		}
	}
}

func TestErrorAlert(t *testing.T) {
	body := render(t, ErrorAlert("Bad <input>", "", "VAL003"))
	if !strings.Contains(body, `<h1 class="error">Bad &lt;input&gt;</h1>`) {
		t.Errorf("message not escaped: %s", body)
	}
	if strings.Contains(body, "<p></p>") {
		t.Error("empty action rendered")
	}
	if !strings.Contains(body, "<small>Error code VAL003</small>") {
		t.Errorf("code missing: %s", body)
	}
}

func TestRender_CanceledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	err := ErrorAlert("x", "", "ERR000").Render(ctx, &bytes.Buffer{})
	if !errors.Is(err, context.Canceled) {
		t.Errorf("Render() error = %v, want context.Canceled", err)
	}
}
