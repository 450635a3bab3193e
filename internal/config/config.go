// Package config provides centralized configuration management for the application.
// It loads configuration from environment variables with sensible defaults and
// validates all settings on startup to fail fast on misconfiguration.
package config

import "time"

// Config holds all application configuration.
// All settings can be configured via environment variables.
type Config struct {
	Input    InputConfig
	Schema   SchemaConfig
	Export   ExportConfig
	SQLite   SQLiteConfig
	Postgres PostgresConfig
	MySQL    MySQLConfig
	Script   ScriptConfig
	S3       S3Config
	Server   ServerConfig
	Rate     RateLimitConfig
	Security SecurityConfig
	Logging  LoggingConfig
}

// InputConfig names the two CSV files a run reads.
type InputConfig struct {
	// AuthorsCSV is the author CSV path (default: authors.csv)
	AuthorsCSV string `env:"AUTHORS_CSV" default:"authors.csv"`

	// WorksCSV is the work CSV path (default: works.csv)
	WorksCSV string `env:"WORKS_CSV" default:"works.csv"`
}

// SchemaConfig holds the table and column names.
type SchemaConfig struct {
	AuthorsTable  string `env:"AUTHORS_TABLE" default:"authors"`
	WorksTable    string `env:"WORKS_TABLE" default:"works"`
	RelationTable string `env:"RELATION_TABLE" default:"author_works"`

	AuthorID   string `env:"AUTHOR_ID_COLUMN" default:"id_author"`
	AuthorName string `env:"AUTHOR_NAME_COLUMN" default:"fullname"`

	WorkID          string `env:"WORK_ID_COLUMN" default:"id_work"`
	WorkTitle       string `env:"WORK_TITLE_COLUMN" default:"title"`
	WorkAuthors     string `env:"WORK_AUTHORS_COLUMN" default:"authors"`
	WorkDOI         string `env:"WORK_DOI_COLUMN" default:"doi"`
	WorkAuthorQuery string `env:"WORK_AUTHOR_QUERY_COLUMN" default:"author_query"`
}

// ExportConfig holds settings shared by every export target.
type ExportConfig struct {
	// Targets lists the targets a run writes: sqlite, postgres, mysql, script (default: sqlite)
	Targets []string `env:"EXPORT_TARGETS" default:"sqlite"`

	// Mode is what happens to existing tables: replace, append, fail (default: replace)
	Mode string `env:"EXPORT_MODE" default:"replace"`

	AuthorBatch   int `env:"EXPORT_AUTHOR_BATCH" default:"100"`
	WorkBatch     int `env:"EXPORT_WORK_BATCH" default:"50"`
	RelationBatch int `env:"EXPORT_RELATION_BATCH" default:"1000"`

	// StatementTimeout bounds each statement, not the whole export (default: 30s)
	StatementTimeout time.Duration `env:"EXPORT_STATEMENT_TIMEOUT" default:"30s"`

	// Timeout bounds one full run across all targets (default: 30m)
	Timeout time.Duration `env:"EXPORT_TIMEOUT" default:"30m"`

	// MaxConcurrent is the number of runs allowed at once (default: 1)
	MaxConcurrent int `env:"EXPORT_MAX_CONCURRENT" default:"1"`

	// MaxWaitTime is how long a run waits for a free slot (default: 30s)
	MaxWaitTime time.Duration `env:"EXPORT_MAX_WAIT_TIME" default:"30s"`

	// History is how many finished runs are kept in memory (default: 50)
	History int `env:"EXPORT_HISTORY" default:"50"`

	// Schedule is an optional cron expression for re-running the export
	Schedule string `env:"EXPORT_SCHEDULE"`
}

// SQLiteConfig holds the embedded database target.
type SQLiteConfig struct {
	Path        string        `env:"SQLITE_PATH" default:"authorworks.db"`
	BusyTimeout time.Duration `env:"SQLITE_BUSY_TIMEOUT" default:"5s"`
}

// PostgresConfig holds the PostgreSQL target.
type PostgresConfig struct {
	// URL is the PostgreSQL connection string, required when the target is enabled.
	// Supports both DATABASE_URL and DB_URL env vars for compatibility
	URL string `env:"DATABASE_URL" envAlt:"DB_URL"`
}

// MySQLConfig holds the MySQL target.
type MySQLConfig struct {
	Host     string `env:"MYSQL_HOST" default:"localhost"`
	Port     int    `env:"MYSQL_PORT" default:"3306"`
	User     string `env:"MYSQL_USER" default:"root"`
	Password string `env:"MYSQL_PASSWORD"`
	Database string `env:"MYSQL_DATABASE" default:"authorworks"`
}

// ScriptConfig holds the portable SQL script target.
type ScriptConfig struct {
	Path string `env:"SCRIPT_PATH" default:"authorworks.sql"`
	Gzip bool   `env:"SCRIPT_GZIP" default:"false"`
}

// S3Config holds artifact publishing settings. Publishing is off when
// Bucket is empty.
type S3Config struct {
	// Endpoint overrides the AWS endpoint for S3-compatible stores
	Endpoint  string `env:"S3_ENDPOINT"`
	Region    string `env:"S3_REGION" default:"us-east-1"`
	AccessKey string `env:"S3_ACCESS_KEY"`
	SecretKey string `env:"S3_SECRET_KEY"`
	Bucket    string `env:"S3_BUCKET"`
	Prefix    string `env:"S3_PREFIX" default:"authorworks/"`

	// Keep is how many artifacts survive pruning; 0 keeps all (default: 7)
	Keep int `env:"S3_KEEP" default:"7"`
}

// Enabled reports whether artifacts should be published.
func (c *S3Config) Enabled() bool {
	return c.Bucket != ""
}

// ServerConfig holds HTTP server settings.
type ServerConfig struct {
	// Host is the interface to bind to (default: 0.0.0.0)
	Host string `env:"SERVER_HOST" default:"0.0.0.0"`

	// Port is the port to listen on (default: 8080)
	Port int `env:"SERVER_PORT" default:"8080"`

	// ReadTimeout is the maximum duration for reading request body (default: 15s)
	ReadTimeout time.Duration `env:"SERVER_READ_TIMEOUT" default:"15s"`

	// WriteTimeout is the maximum duration for writing response (default: 0, exports can run long)
	WriteTimeout time.Duration `env:"SERVER_WRITE_TIMEOUT" default:"0s"`

	// IdleTimeout is the keep-alive timeout (default: 60s)
	IdleTimeout time.Duration `env:"SERVER_IDLE_TIMEOUT" default:"60s"`

	// ShutdownTimeout is the maximum duration to wait for graceful shutdown (default: 30s)
	ShutdownTimeout time.Duration `env:"SERVER_SHUTDOWN_TIMEOUT" default:"30s"`
}

// RateLimitConfig holds per-IP rate limiting for the HTTP surface.
type RateLimitConfig struct {
	// Enabled controls whether rate limiting is active (default: true)
	Enabled bool `env:"RATE_LIMIT_ENABLED" default:"true"`

	// RequestsPerMinute is the limit per IP for read endpoints (default: 100)
	RequestsPerMinute int `env:"RATE_LIMIT_REQUESTS_PER_MINUTE" default:"100"`

	// ExportLimit is requests per minute per IP for starting exports (default: 10)
	ExportLimit int `env:"RATE_LIMIT_EXPORT" default:"10"`
}

// SecurityConfig holds security-related settings.
type SecurityConfig struct {
	// TrustedProxies is a comma-separated list of trusted proxy CIDRs
	TrustedProxies []string `env:"TRUSTED_PROXIES"`

	// APIKeys are accepted in the X-API-Key header
	APIKeys []string `env:"API_KEYS"`

	// RequireAPIKey guards export-starting endpoints (default: false)
	RequireAPIKey bool `env:"REQUIRE_API_KEY" default:"false"`
}

// LoggingConfig holds logging settings.
type LoggingConfig struct {
	// Level is the minimum log level: debug, info, warn, error (default: info)
	Level string `env:"LOG_LEVEL" default:"info"`

	// Format is the log format: text, json or auto (default: auto)
	Format string `env:"LOG_FORMAT" default:"auto"`
}

// Addr returns the server listen address in host:port format.
func (c *ServerConfig) Addr() string {
	if c.Host == "" {
		return ":" + itoa(c.Port)
	}
	return c.Host + ":" + itoa(c.Port)
}

// itoa converts an int to string without importing strconv in this file.
func itoa(i int) string {
	if i == 0 {
		return "0"
	}
	var b [20]byte
	n := len(b)
	neg := i < 0
	if neg {
		i = -i
	}
	for i > 0 {
		n--
		b[n] = byte('0' + i%10)
		i /= 10
	}
	if neg {
		n--
		b[n] = '-'
	}
	return string(b[n:])
}
