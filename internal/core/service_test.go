package core

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/JonMunkholm/authorworks/internal/config"
)

const authorsCSV = `id_author,fullname,affiliation
1,Jane Doe,Uni A
2,John Roe,
3,Ana Lima,Uni C
`

const worksCSV = `doi,title,authors,year
10.1/abc,Graph Theory,"Jane Doe; John Roe",2020
,Untitled Notes,Ana Lima,2021
10.1/abc,Graph Theory again,Jane Doe,2020
,Orphan Work,Nobody Known,2019
`

// testConfig writes both CSV files into a temp dir and returns a config
// exporting them to a SQLite file and a script next to them.
func testConfig(t *testing.T) *config.Config {
	t.Helper()
	dir := t.TempDir()
	write := func(name, body string) string {
		p := filepath.Join(dir, name)
		if err := os.WriteFile(p, []byte(body), 0o644); err != nil {
			t.Fatal(err)
		}
		return p
	}
	return &config.Config{
		Input: config.InputConfig{
			AuthorsCSV: write("authors.csv", authorsCSV),
			WorksCSV:   write("works.csv", worksCSV),
		},
		Schema: config.SchemaConfig{
			AuthorsTable: "authors", WorksTable: "works", RelationTable: "author_works",
			AuthorID: "id_author", AuthorName: "fullname",
			WorkID: "id_work", WorkTitle: "title", WorkAuthors: "authors",
			WorkDOI: "doi", WorkAuthorQuery: "author_query",
		},
		Export: config.ExportConfig{
			Targets: []string{"sqlite", "script"}, Mode: "replace",
			AuthorBatch: 100, WorkBatch: 50, RelationBatch: 1000,
			StatementTimeout: 5 * time.Second, Timeout: time.Minute,
			MaxConcurrent: 1, MaxWaitTime: time.Second, History: 10,
		},
		SQLite: config.SQLiteConfig{Path: filepath.Join(dir, "out.db"), BusyTimeout: time.Second},
		Script: config.ScriptConfig{Path: filepath.Join(dir, "out.sql")},
	}
}

func TestService_Prepare(t *testing.T) {
	svc := NewService(testConfig(t))

	d, err := svc.Prepare(context.Background())
	if err != nil {
		t.Fatalf("Prepare() error = %v", err)
	}

	if d.Authors.Len() != 3 || d.Works.Len() != 3 {
		t.Errorf("rows = %d authors, %d works; want 3, 3", d.Authors.Len(), d.Works.Len())
	}
	if d.Identity.Dropped != 1 {
		t.Errorf("Identity.Dropped = %d, want 1", d.Identity.Dropped)
	}
	if len(d.Associations) != 3 {
		t.Errorf("associations = %d, want 3", len(d.Associations))
	}
	if d.Relations.UnmatchedWorks != 1 {
		t.Errorf("UnmatchedWorks = %d, want 1", d.Relations.UnmatchedWorks)
	}

	sum := d.Describe()
	if sum.DuplicateWorks != 1 || sum.Associations != 3 || sum.DerivedIDs != 4 {
		t.Errorf("Describe() = %+v", sum)
	}
}

func TestService_PrepareFrom(t *testing.T) {
	svc := NewService(testConfig(t))

	d, err := svc.PrepareFrom(context.Background(), strings.NewReader(authorsCSV), strings.NewReader(worksCSV))
	if err != nil {
		t.Fatalf("PrepareFrom() error = %v", err)
	}
	if d.Works.Name != "works" || d.Authors.Name != "authors" {
		t.Errorf("table names = %q, %q", d.Authors.Name, d.Works.Name)
	}
	if !d.Works.Has("id_work") {
		t.Error("works lack the identity column")
	}
}

func TestService_PrepareFrom_MissingColumn(t *testing.T) {
	svc := NewService(testConfig(t))

	_, err := svc.PrepareFrom(context.Background(),
		strings.NewReader("id_author,name\n1,Jane\n"), strings.NewReader(worksCSV))
	if err == nil {
		t.Fatal("expected error for missing fullname column")
	}
	if ErrorCode(err) != "VAL001" {
		t.Errorf("ErrorCode = %s, want VAL001 (%v)", ErrorCode(err), err)
	}
}

func TestService_Export(t *testing.T) {
	cfg := testConfig(t)
	svc := NewService(cfg)

	run, err := svc.Export(context.Background(), ExportRequest{})
	if err != nil {
		t.Fatalf("Export() error = %v", err)
	}

	if run.Status != StatusComplete {
		t.Errorf("Status = %s, want complete (%+v)", run.Status, run.Targets)
	}
	if run.Trigger != TriggerCLI {
		t.Errorf("Trigger = %s", run.Trigger)
	}
	if len(run.Targets) != 2 || run.Targets[0].Target != "sqlite" || run.Targets[1].Target != "script" {
		t.Fatalf("Targets = %+v", run.Targets)
	}
	if run.Dataset.Works != 3 {
		t.Errorf("Dataset.Works = %d", run.Dataset.Works)
	}
	if run.Finished.Before(run.Started) {
		t.Error("Finished before Started")
	}

	db, err := sqlx.Open("sqlite", cfg.SQLite.Path)
	if err != nil {
		t.Fatal(err)
	}
	defer db.Close()
	var n int
	if err := db.Get(&n, "SELECT COUNT(*) FROM author_works"); err != nil {
		t.Fatal(err)
	}
	if n != 3 {
		t.Errorf("author_works = %d, want 3", n)
	}

	if _, err := os.Stat(cfg.Script.Path); err != nil {
		t.Errorf("script not written: %v", err)
	}

	stored, err := svc.History().Get(run.ID)
	if err != nil {
		t.Fatalf("History().Get() error = %v", err)
	}
	if stored.Status != StatusComplete {
		t.Errorf("stored Status = %s", stored.Status)
	}
}

func TestService_Export_UnknownTarget(t *testing.T) {
	svc := NewService(testConfig(t))

	run, err := svc.Export(context.Background(), ExportRequest{Targets: []string{"oracle", "script"}})
	if err != nil {
		t.Fatalf("Export() error = %v", err)
	}
	if run.Status != StatusFailed {
		t.Errorf("Status = %s, want failed", run.Status)
	}
	if !run.Targets[0].Failed() || run.Targets[0].Code != "EXP005" {
		t.Errorf("oracle result = %+v", run.Targets[0])
	}
	if run.Targets[1].Failed() {
		t.Errorf("script should still run: %+v", run.Targets[1])
	}
}

func TestService_Export_FailMode(t *testing.T) {
	svc := NewService(testConfig(t))
	ctx := context.Background()

	if _, err := svc.Export(ctx, ExportRequest{Targets: []string{"sqlite"}}); err != nil {
		t.Fatal(err)
	}
	run, err := svc.Export(ctx, ExportRequest{Targets: []string{"sqlite"}, Mode: "fail"})
	if err != nil {
		t.Fatal(err)
	}
	if run.Status != StatusFailed || run.Targets[0].Code != "EXP001" {
		t.Errorf("run = %s, target = %+v", run.Status, run.Targets[0])
	}
}

func TestService_Export_MissingInput(t *testing.T) {
	cfg := testConfig(t)
	cfg.Input.WorksCSV = filepath.Join(t.TempDir(), "absent.csv")
	svc := NewService(cfg)

	run, err := svc.Export(context.Background(), ExportRequest{})
	if err == nil {
		t.Fatal("Export() expected error for missing input")
	}
	if run == nil || run.Status != StatusFailed || run.Code != "FILE001" {
		t.Errorf("run = %+v", run)
	}
	if len(svc.History().List()) != 1 {
		t.Error("failed run not kept in history")
	}
}

func TestService_Export_BadMode(t *testing.T) {
	svc := NewService(testConfig(t))

	run, err := svc.Export(context.Background(), ExportRequest{Mode: "merge"})
	if err == nil || run.Code != "EXP007" {
		t.Errorf("err = %v, code = %s", err, run.Code)
	}
}

func TestService_StartAndWait(t *testing.T) {
	svc := NewService(testConfig(t))

	run, err := svc.Start(ExportRequest{Targets: []string{"script"}, Trigger: TriggerHTTP})
	if err != nil {
		t.Fatalf("Start() error = %v", err)
	}
	if run.Status != StatusRunning {
		t.Errorf("initial Status = %s, want running", run.Status)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := svc.Wait(ctx); err != nil {
		t.Fatalf("Wait() error = %v", err)
	}

	done, err := svc.History().Get(run.ID)
	if err != nil {
		t.Fatal(err)
	}
	if done.Status != StatusComplete || done.Trigger != TriggerHTTP {
		t.Errorf("finished run = %+v", done)
	}
}

func TestService_Start_Busy(t *testing.T) {
	svc := NewService(testConfig(t))
	release, ok := svc.Limiter().TryAcquire("held")
	if !ok {
		t.Fatal("TryAcquire failed")
	}
	defer release()

	if _, err := svc.Start(ExportRequest{}); !errors.Is(err, ErrTooManyExports) {
		t.Errorf("Start() error = %v, want ErrTooManyExports", err)
	}
}

func TestRegistry(t *testing.T) {
	names := TargetNames()
	want := []string{"mysql", "postgres", "script", "sqlite"}
	if strings.Join(names, ",") != strings.Join(want, ",") {
		t.Errorf("TargetNames() = %v, want %v", names, want)
	}
	if _, err := LookupTarget(" SQLite "); err != nil {
		t.Errorf("LookupTarget should ignore case and space: %v", err)
	}
	if _, err := LookupTarget("oracle"); !errors.Is(err, ErrUnknownTarget) {
		t.Errorf("LookupTarget(oracle) error = %v", err)
	}
}

func TestParseSchedule(t *testing.T) {
	for _, spec := range []string{"0 3 * * *", "@daily", "@every 1h"} {
		if _, err := ParseSchedule(spec); err != nil {
			t.Errorf("ParseSchedule(%q) error = %v", spec, err)
		}
	}
	if _, err := ParseSchedule("every day"); err == nil {
		t.Error("ParseSchedule should reject free text")
	}
}
