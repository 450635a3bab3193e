package core

import (
	"errors"
	"fmt"
	"sort"
	"strings"
	"sync"

	"github.com/JonMunkholm/authorworks/internal/config"
	"github.com/JonMunkholm/authorworks/internal/export"
)

// ErrUnknownTarget is returned for a target name with no registered factory.
var ErrUnknownTarget = errors.New("unknown export target")

// TargetFactory builds the exporter for one target from configuration.
// pub is nil unless artifact publishing is configured.
type TargetFactory func(cfg *config.Config, opts export.Options, pub export.Publisher) (export.Exporter, error)

var (
	targets   = make(map[string]TargetFactory)
	targetsMu sync.RWMutex
)

// RegisterTarget adds a target factory to the registry.
// Panics if a target with the same name is already registered.
func RegisterTarget(name string, f TargetFactory) {
	targetsMu.Lock()
	defer targetsMu.Unlock()

	name = strings.ToLower(name)
	if _, exists := targets[name]; exists {
		panic(fmt.Sprintf("target already registered: %s", name))
	}
	targets[name] = f
}

// LookupTarget returns the factory for name, ignoring case.
func LookupTarget(name string) (TargetFactory, error) {
	targetsMu.RLock()
	defer targetsMu.RUnlock()

	f, ok := targets[strings.ToLower(strings.TrimSpace(name))]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownTarget, name)
	}
	return f, nil
}

// TargetNames returns the registered target names, sorted.
func TargetNames() []string {
	targetsMu.RLock()
	defer targetsMu.RUnlock()

	names := make([]string, 0, len(targets))
	for name := range targets {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

func init() {
	RegisterTarget("sqlite", func(cfg *config.Config, opts export.Options, _ export.Publisher) (export.Exporter, error) {
		return export.NewSQLite(cfg.SQLite.Path, cfg.SQLite.BusyTimeout, opts), nil
	})
	RegisterTarget("postgres", func(cfg *config.Config, opts export.Options, _ export.Publisher) (export.Exporter, error) {
		if cfg.Postgres.URL == "" {
			return nil, errors.New("postgres target needs DATABASE_URL")
		}
		return export.NewPostgres(cfg.Postgres.URL, opts), nil
	})
	RegisterTarget("mysql", func(cfg *config.Config, opts export.Options, _ export.Publisher) (export.Exporter, error) {
		return export.NewMySQL(export.MySQLConfig{
			Host:     cfg.MySQL.Host,
			Port:     cfg.MySQL.Port,
			User:     cfg.MySQL.User,
			Password: cfg.MySQL.Password,
			Database: cfg.MySQL.Database,
		}, opts), nil
	})
	RegisterTarget("script", func(cfg *config.Config, opts export.Options, pub export.Publisher) (export.Exporter, error) {
		return export.NewScript(cfg.Script.Path, cfg.Script.Gzip, pub, opts), nil
	})
}
