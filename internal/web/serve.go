package web

import (
	"context"
	"log/slog"
	"sync"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/JonMunkholm/authorworks/internal/config"
	"github.com/JonMunkholm/authorworks/internal/core"
)

// Serve runs the HTTP surface until ctx is cancelled, together with the
// export scheduler when EXPORT_SCHEDULE is set. Metrics go to the default
// Prometheus registry.
func Serve(ctx context.Context, cfg *config.Config) error {
	svc, err := core.NewServiceFromConfig(ctx, cfg, prometheus.DefaultRegisterer)
	if err != nil {
		return err
	}
	if cfg.Export.Schedule != "" {
		if _, err := core.ParseSchedule(cfg.Export.Schedule); err != nil {
			return err
		}
	}

	slog.Info("configuration loaded",
		"addr", cfg.Server.Addr(),
		"targets", cfg.Export.Targets,
		"mode", cfg.Export.Mode,
		"schedule", cfg.Export.Schedule,
		"rate_limit_enabled", cfg.Rate.Enabled,
		"api_key_required", cfg.Security.RequireAPIKey,
	)

	srv := NewServer(svc, cfg, promhttp.Handler())

	jobCtx, cancelJobs := context.WithCancel(ctx)
	defer cancelJobs()

	var wg sync.WaitGroup
	if cfg.Export.Schedule != "" {
		wg.Go(func() {
			if err := svc.StartScheduler(jobCtx, cfg.Export.Schedule); err != nil {
				slog.Error("export scheduler failed", "error", err)
			}
		})
	}

	err = srv.Run(ctx)
	cancelJobs()
	wg.Wait()
	return err
}
