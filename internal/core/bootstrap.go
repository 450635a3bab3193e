package core

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/JonMunkholm/authorworks/internal/config"
	"github.com/JonMunkholm/authorworks/internal/metrics"
	"github.com/JonMunkholm/authorworks/internal/storage"
)

// NewServiceFromConfig builds the Service the binaries run: metrics on reg
// when non-nil, and an S3 publisher for script artifacts when S3_BUCKET is
// set.
func NewServiceFromConfig(ctx context.Context, cfg *config.Config, reg prometheus.Registerer) (*Service, error) {
	var opts []Option
	if reg != nil {
		opts = append(opts, WithMetrics(metrics.New(reg)))
	}
	if cfg.S3.Enabled() {
		client, err := storage.NewClient(ctx, cfg.S3)
		if err != nil {
			return nil, fmt.Errorf("s3 client: %w", err)
		}
		opts = append(opts, WithPublisher(storage.NewPublisher(client, cfg.S3)))
		slog.Info("artifact publishing enabled", "bucket", cfg.S3.Bucket, "prefix", cfg.S3.Prefix, "keep", cfg.S3.Keep)
	}
	return NewService(cfg, opts...), nil
}
