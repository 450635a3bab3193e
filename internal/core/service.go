package core

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/JonMunkholm/authorworks/internal/config"
	"github.com/JonMunkholm/authorworks/internal/export"
	"github.com/JonMunkholm/authorworks/internal/identity"
	"github.com/JonMunkholm/authorworks/internal/logging"
	"github.com/JonMunkholm/authorworks/internal/metrics"
	"github.com/JonMunkholm/authorworks/internal/records"
	"github.com/JonMunkholm/authorworks/internal/relate"
)

// Triggers recorded on export runs.
const (
	TriggerCLI      = "cli"
	TriggerHTTP     = "http"
	TriggerSchedule = "schedule"
)

// Service prepares the author/work dataset and runs it through the
// configured export targets.
type Service struct {
	cfg     *config.Config
	layout  records.Layout
	matcher relate.NameMatcher
	limiter *ExportLimiter
	history *History
	metrics *metrics.Recorder
	pub     export.Publisher
}

// Option configures a Service.
type Option func(*Service)

// WithMetrics records every export on m.
func WithMetrics(m *metrics.Recorder) Option {
	return func(s *Service) { s.metrics = m }
}

// WithPublisher hands finished script artifacts to p.
func WithPublisher(p export.Publisher) Option {
	return func(s *Service) { s.pub = p }
}

// WithMatcher replaces the literal author-name matcher.
func WithMatcher(m relate.NameMatcher) Option {
	return func(s *Service) { s.matcher = m }
}

// NewService creates a Service for cfg.
func NewService(cfg *config.Config, opts ...Option) *Service {
	s := &Service{
		cfg:     cfg,
		layout:  LayoutFromConfig(cfg.Schema),
		limiter: NewExportLimiter(cfg.Export.MaxConcurrent, cfg.Export.MaxWaitTime),
		history: NewHistory(cfg.Export.History),
	}
	for _, o := range opts {
		o(s)
	}
	return s
}

// LayoutFromConfig maps the schema section onto a records.Layout.
func LayoutFromConfig(c config.SchemaConfig) records.Layout {
	return records.Layout{
		AuthorsTable:    c.AuthorsTable,
		WorksTable:      c.WorksTable,
		RelationTable:   c.RelationTable,
		AuthorID:        c.AuthorID,
		AuthorName:      c.AuthorName,
		WorkID:          c.WorkID,
		WorkDOI:         c.WorkDOI,
		WorkTitle:       c.WorkTitle,
		WorkAuthors:     c.WorkAuthors,
		WorkAuthorQuery: c.WorkAuthorQuery,
	}
}

// Layout returns the table and column names in use.
func (s *Service) Layout() records.Layout { return s.layout }

// History returns the run history.
func (s *Service) History() *History { return s.history }

// Limiter returns the export slot limiter.
func (s *Service) Limiter() *ExportLimiter { return s.limiter }

// Options returns the exporter options from configuration. A non-empty
// mode overrides EXPORT_MODE.
func (s *Service) Options(mode string) (export.Options, error) {
	if mode == "" {
		mode = s.cfg.Export.Mode
	}
	m, err := export.ParseMode(mode)
	if err != nil {
		return export.Options{}, err
	}
	return export.Options{
		Mode:             m,
		AuthorBatch:      s.cfg.Export.AuthorBatch,
		WorkBatch:        s.cfg.Export.WorkBatch,
		RelationBatch:    s.cfg.Export.RelationBatch,
		StatementTimeout: s.cfg.Export.StatementTimeout,
		Classify:         ErrorCode,
	}, nil
}

// Prepare loads the configured CSV files and prepares the dataset.
func (s *Service) Prepare(ctx context.Context) (*Dataset, error) {
	authors, aLoad, err := records.LoadCSVFile(s.cfg.Input.AuthorsCSV)
	if err != nil {
		return nil, fmt.Errorf("authors: %w", err)
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	works, wLoad, err := records.LoadCSVFile(s.cfg.Input.WorksCSV)
	if err != nil {
		return nil, fmt.Errorf("works: %w", err)
	}
	return s.prepare(ctx, authors, works, aLoad, wLoad)
}

// PrepareFrom prepares the dataset from two CSV streams.
func (s *Service) PrepareFrom(ctx context.Context, authors, works io.Reader) (*Dataset, error) {
	a, aLoad, err := records.LoadCSV(authors, s.layout.AuthorsTable)
	if err != nil {
		return nil, fmt.Errorf("authors: %w", err)
	}
	w, wLoad, err := records.LoadCSV(works, s.layout.WorksTable)
	if err != nil {
		return nil, fmt.Errorf("works: %w", err)
	}
	return s.prepare(ctx, a, w, aLoad, wLoad)
}

// prepare normalizes both tables, resolves work identities and builds the
// association set.
func (s *Service) prepare(ctx context.Context, authors, works *records.Table, aLoad, wLoad records.LoadStats) (*Dataset, error) {
	d := &Dataset{Layout: s.layout, AuthorsLoad: aLoad, WorksLoad: wLoad}
	d.Authors, d.AuthorsNorm = records.Normalize(authors)
	d.Authors.Name = s.layout.AuthorsTable
	normWorks, wNorm := records.Normalize(works)
	d.WorksNorm = wNorm

	d.Works, d.Identity = identity.Resolve(normWorks, s.layout)
	d.Works.Name = s.layout.WorksTable
	s.metrics.ObserveDeduplication(d.Identity.Dropped)

	assocs, stats, err := relate.NewBuilder(s.layout, s.matcher).Build(d.Authors, d.Works)
	if err != nil {
		return nil, fmt.Errorf("build associations: %w", err)
	}
	d.Associations = assocs
	d.Relations = stats

	logging.FromContext(ctx).Info("dataset prepared",
		"authors", d.Authors.Len(),
		"works", d.Works.Len(),
		"associations", len(assocs),
		"duplicate_works", d.Identity.Dropped,
		"derived_ids", d.Identity.Derived,
		"unmatched_works", stats.UnmatchedWorks,
		"nulled_cells", d.AuthorsNorm.Nulled+d.WorksNorm.Nulled,
		"truncated_cells", d.AuthorsNorm.Truncated+d.WorksNorm.Truncated,
		"empty_rows", aLoad.EmptyRows+wLoad.EmptyRows,
	)
	return d, nil
}

// ExportRequest selects what one run writes.
type ExportRequest struct {
	// Targets overrides EXPORT_TARGETS when non-empty.
	Targets []string
	// Mode overrides EXPORT_MODE when non-empty.
	Mode    string
	Trigger string
	// Dataset skips loading the configured CSV files.
	Dataset *Dataset
}

// Export runs req to completion, waiting for a free slot first. The
// returned run is also stored in history. err is non-nil only when the run
// could not start or could not prepare its dataset; target failures are
// recorded on the run.
func (s *Service) Export(ctx context.Context, req ExportRequest) (*ExportRun, error) {
	id := uuid.New().String()
	release, err := s.limiter.Acquire(ctx, id)
	if err != nil {
		return nil, err
	}
	defer release()

	run := s.newRun(id, req)
	return run, s.execute(ctx, run, req)
}

// Start begins req in the background and returns the running run at once.
// It fails with ErrTooManyExports when no slot is free.
func (s *Service) Start(req ExportRequest) (*ExportRun, error) {
	id := uuid.New().String()
	release, ok := s.limiter.TryAcquire(id)
	if !ok {
		return nil, ErrTooManyExports
	}
	run := s.newRun(id, req)
	snapshot := run.clone()

	go func() {
		defer release()
		// Detached from the request; EXPORT_TIMEOUT bounds it.
		_ = s.execute(context.Background(), run, req)
	}()
	return snapshot, nil
}

// Wait blocks until running exports finish or ctx ends.
func (s *Service) Wait(ctx context.Context) error {
	return s.limiter.WaitForDrain(ctx)
}

func (s *Service) newRun(id string, req ExportRequest) *ExportRun {
	trigger := req.Trigger
	if trigger == "" {
		trigger = TriggerCLI
	}
	run := &ExportRun{
		ID:      id,
		Trigger: trigger,
		Status:  StatusRunning,
		Started: time.Now(),
	}
	s.history.Put(run)
	return run
}

func (s *Service) execute(ctx context.Context, run *ExportRun, req ExportRequest) error {
	ctx = logging.WithRunID(ctx, run.ID)
	ctx, cancel := context.WithTimeout(ctx, s.cfg.Export.Timeout)
	defer cancel()
	logger := logging.FromContext(ctx)

	finish := func(err error) error {
		if err != nil {
			run.Error = err.Error()
			run.Code = ErrorCode(err)
		}
		run.Finished = time.Now()
		run.settle()
		s.history.Put(run)
		logger.Info("export run finished",
			"status", run.Status,
			"targets", len(run.Targets),
			"duration_ms", run.Duration().Milliseconds(),
		)
		return err
	}

	opts, err := s.Options(req.Mode)
	if err != nil {
		return finish(err)
	}
	names := req.Targets
	if len(names) == 0 {
		names = s.cfg.Export.Targets
	}
	if len(names) == 0 {
		return finish(errors.New("no export targets configured"))
	}

	d := req.Dataset
	if d == nil {
		if d, err = s.Prepare(ctx); err != nil {
			logger.Error("prepare dataset failed", "error", err)
			return finish(err)
		}
	}
	run.Dataset = d.Describe()
	s.history.Put(run)

	for _, name := range names {
		run.Targets = append(run.Targets, s.exportTarget(ctx, name, opts, d))
		s.history.Put(run)
	}
	return finish(nil)
}

// exportTarget runs one exporter and turns its outcome into a result.
func (s *Service) exportTarget(ctx context.Context, name string, opts export.Options, d *Dataset) TargetResult {
	logger := logging.WithFields(ctx, "target", name)
	res := TargetResult{Target: name}

	fail := func(err error) TargetResult {
		res.Error = err.Error()
		res.Code = ErrorCode(err)
		logger.Error("export failed", "error", err, "code", res.Code)
		return res
	}

	factory, err := LookupTarget(name)
	if err != nil {
		return fail(err)
	}
	exp, err := factory(s.cfg, opts, s.pub)
	if err != nil {
		return fail(err)
	}

	logger.Info("export started", "mode", opts.Mode)
	start := time.Now()
	rep, err := exp.Export(ctx, d.Source())
	s.metrics.ObserveExport(exp.Target(), rep, err, time.Since(start))
	res.Report = rep
	if err != nil {
		return fail(err)
	}

	logger.Info("export finished",
		"inserted", rep.Inserted(),
		"skipped", rep.SkippedRows(),
		"filtered_relations", rep.FilteredRelations,
		"artifact", rep.Artifact,
		"duration_ms", rep.Duration.Milliseconds(),
	)
	for _, t := range rep.Tables {
		for _, sk := range t.Skipped {
			logger.Warn("row skipped",
				slog.String("table", t.Table),
				slog.Int("row", sk.Row),
				slog.String("key", sk.Key),
				slog.String("code", sk.Code),
				slog.String("reason", sk.Reason),
			)
		}
	}
	return res
}
