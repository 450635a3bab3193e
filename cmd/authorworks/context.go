package main

import (
	"context"
	"errors"
	"io/fs"
	"strings"
	"sync"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/JonMunkholm/authorworks/internal/config"
	"github.com/JonMunkholm/authorworks/internal/core"
	"github.com/JonMunkholm/authorworks/internal/logging"
)

type commandContext struct {
	envFlag      *string
	logLevelFlag *string

	configOnce sync.Once
	config     *config.Config
	configErr  error
}

func newCommandContext(envFlag, logLevelFlag *string) *commandContext {
	return &commandContext{
		envFlag:      envFlag,
		logLevelFlag: logLevelFlag,
	}
}

// ensureConfig loads the env file (if present), then the configuration,
// and sets up logging. It runs once per process.
func (c *commandContext) ensureConfig() (*config.Config, error) {
	c.configOnce.Do(func() {
		if path := strings.TrimSpace(*c.envFlag); path != "" {
			// Existing environment variables win over the file.
			if err := godotenv.Load(path); err != nil && !errors.Is(err, fs.ErrNotExist) {
				c.configErr = err
				return
			}
		}
		cfg, err := config.Load()
		if err != nil {
			c.configErr = err
			return
		}
		if lvl := strings.TrimSpace(*c.logLevelFlag); lvl != "" {
			cfg.Logging.Level = lvl
		}
		logging.Setup(cfg.Logging.Level, cfg.Logging.Format)
		c.config = cfg
	})
	return c.config, c.configErr
}

// service builds the export service. reg may be nil for one-shot commands.
func (c *commandContext) service(ctx context.Context, reg prometheus.Registerer) (*core.Service, error) {
	cfg, err := c.ensureConfig()
	if err != nil {
		return nil, err
	}
	return core.NewServiceFromConfig(ctx, cfg, reg)
}
