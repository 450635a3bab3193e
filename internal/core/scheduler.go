package core

// scheduler.go re-runs the configured export on a cron schedule.
//
// Each tick starts a full run (load, prepare, every configured target). A
// tick that finds the previous run still going is skipped rather than
// queued. Failures are logged and recorded in history; they never stop the
// scheduler.

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/robfig/cron/v3"
)

// ParseSchedule validates a standard five-field cron expression or a
// descriptor such as "@daily".
func ParseSchedule(spec string) (cron.Schedule, error) {
	sched, err := cron.ParseStandard(spec)
	if err != nil {
		return nil, fmt.Errorf("invalid EXPORT_SCHEDULE %q: %w", spec, err)
	}
	return sched, nil
}

// StartScheduler runs the export on spec until ctx is cancelled. It returns
// once the scheduler has stopped and any run in progress has finished.
func (s *Service) StartScheduler(ctx context.Context, spec string) error {
	sched, err := ParseSchedule(spec)
	if err != nil {
		return err
	}

	c := cron.New(cron.WithChain(cron.SkipIfStillRunning(cron.DiscardLogger)))
	c.Schedule(sched, cron.FuncJob(func() { s.runScheduled(ctx) }))

	slog.Info("export scheduler started", "schedule", spec, "targets", s.cfg.Export.Targets)
	c.Start()

	<-ctx.Done()
	<-c.Stop().Done()
	slog.Info("export scheduler stopped")
	return nil
}

// runScheduled performs one scheduled run.
func (s *Service) runScheduled(ctx context.Context) {
	if ctx.Err() != nil {
		return
	}
	run, err := s.Export(ctx, ExportRequest{Trigger: TriggerSchedule})
	if errors.Is(err, ErrTooManyExports) {
		slog.Warn("scheduled export skipped, another export is running")
		return
	}
	if err != nil {
		slog.Error("scheduled export failed", "error", err)
		return
	}
	slog.Info("scheduled export completed", "run_id", run.ID, "status", run.Status)
}
