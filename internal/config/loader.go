package config

import (
	"fmt"
	"os"
	"reflect"
	"sort"
	"strconv"
	"strings"
	"time"
)

// Load reads configuration from environment variables.
// It applies defaults for unset values and validates the result.
// Returns an error if required values are missing or validation fails.
func Load() (*Config, error) {
	cfg := &Config{}

	if err := loadStruct(reflect.ValueOf(cfg).Elem()); err != nil {
		return nil, fmt.Errorf("config load: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config validation: %w", err)
	}

	return cfg, nil
}

// MustLoad loads configuration and panics on error.
// Use this only in main() where early termination is desired.
func MustLoad() *Config {
	cfg, err := Load()
	if err != nil {
		panic(fmt.Sprintf("failed to load configuration: %v", err))
	}
	return cfg
}

// loadStruct recursively populates struct fields from environment variables.
func loadStruct(v reflect.Value) error {
	t := v.Type()

	for i := 0; i < t.NumField(); i++ {
		field := t.Field(i)
		fieldVal := v.Field(i)

		// Skip unexported fields
		if !fieldVal.CanSet() {
			continue
		}

		// Recurse into nested structs
		if field.Type.Kind() == reflect.Struct && field.Type != reflect.TypeOf(time.Time{}) {
			if err := loadStruct(fieldVal); err != nil {
				return err
			}
			continue
		}

		// Get tags
		envName := field.Tag.Get("env")
		envAlt := field.Tag.Get("envAlt")
		defaultVal := field.Tag.Get("default")
		required := field.Tag.Get("required") == "true"

		if envName == "" {
			continue
		}

		// Try primary env var, then alternate
		value := os.Getenv(envName)
		if value == "" && envAlt != "" {
			value = os.Getenv(envAlt)
		}

		// Apply default if not set
		if value == "" {
			if required {
				return fmt.Errorf("required environment variable %s is not set", envName)
			}
			value = defaultVal
		}

		if value == "" {
			continue
		}

		// Set the field value
		if err := setField(fieldVal, value); err != nil {
			return fmt.Errorf("invalid value for %s=%q: %w", envName, value, err)
		}
	}

	return nil
}

// setField sets a reflect.Value from a string based on its type.
func setField(field reflect.Value, value string) error {
	switch field.Kind() {
	case reflect.String:
		field.SetString(value)

	case reflect.Int, reflect.Int64:
		// Handle time.Duration specially
		if field.Type() == reflect.TypeOf(time.Duration(0)) {
			d, err := time.ParseDuration(value)
			if err != nil {
				return fmt.Errorf("invalid duration: %w", err)
			}
			field.Set(reflect.ValueOf(d))
		} else {
			i, err := strconv.ParseInt(value, 10, 64)
			if err != nil {
				return fmt.Errorf("invalid integer: %w", err)
			}
			field.SetInt(i)
		}

	case reflect.Bool:
		b, err := strconv.ParseBool(value)
		if err != nil {
			return fmt.Errorf("invalid boolean: %w", err)
		}
		field.SetBool(b)

	case reflect.Slice:
		if field.Type().Elem().Kind() == reflect.String {
			// Split comma-separated values, trim whitespace
			parts := strings.Split(value, ",")
			result := make([]string, 0, len(parts))
			for _, p := range parts {
				p = strings.TrimSpace(p)
				if p != "" {
					result = append(result, p)
				}
			}
			field.Set(reflect.ValueOf(result))
		} else {
			return fmt.Errorf("unsupported slice type: %s", field.Type().Elem().Kind())
		}

	default:
		return fmt.Errorf("unsupported field type: %s", field.Kind())
	}

	return nil
}

// knownTargets are the export targets a run can name.
var knownTargets = map[string]bool{"sqlite": true, "postgres": true, "mysql": true, "script": true}

// HasTarget reports whether name is listed in EXPORT_TARGETS.
func (c *ExportConfig) HasTarget(name string) bool {
	for _, t := range c.Targets {
		if strings.EqualFold(t, name) {
			return true
		}
	}
	return false
}

// Validate checks that the configuration is valid.
// Returns an error describing all validation failures.
func (c *Config) Validate() error {
	var errs []string

	// Input validation
	if c.Input.AuthorsCSV == "" {
		errs = append(errs, "AUTHORS_CSV is required")
	}
	if c.Input.WorksCSV == "" {
		errs = append(errs, "WORKS_CSV is required")
	}

	// Schema validation
	names := map[string]string{
		"AUTHORS_TABLE":       c.Schema.AuthorsTable,
		"WORKS_TABLE":         c.Schema.WorksTable,
		"RELATION_TABLE":      c.Schema.RelationTable,
		"AUTHOR_ID_COLUMN":    c.Schema.AuthorID,
		"AUTHOR_NAME_COLUMN":  c.Schema.AuthorName,
		"WORK_ID_COLUMN":      c.Schema.WorkID,
		"WORK_TITLE_COLUMN":   c.Schema.WorkTitle,
		"WORK_AUTHORS_COLUMN": c.Schema.WorkAuthors,
	}
	for _, env := range sortedKeys(names) {
		if names[env] == "" {
			errs = append(errs, env+" must not be empty")
		}
	}
	if c.Schema.AuthorsTable != "" &&
		(c.Schema.AuthorsTable == c.Schema.WorksTable || c.Schema.AuthorsTable == c.Schema.RelationTable ||
			c.Schema.WorksTable == c.Schema.RelationTable) {
		errs = append(errs, "AUTHORS_TABLE, WORKS_TABLE and RELATION_TABLE must differ")
	}

	// Export validation
	if len(c.Export.Targets) == 0 {
		errs = append(errs, "EXPORT_TARGETS must name at least one target")
	}
	for _, t := range c.Export.Targets {
		if !knownTargets[strings.ToLower(t)] {
			errs = append(errs, fmt.Sprintf("EXPORT_TARGETS entry %q must be one of: sqlite, postgres, mysql, script", t))
		}
	}
	validModes := map[string]bool{"replace": true, "append": true, "fail": true}
	if !validModes[strings.ToLower(c.Export.Mode)] {
		errs = append(errs, fmt.Sprintf("EXPORT_MODE (%q) must be one of: replace, append, fail", c.Export.Mode))
	}
	if c.Export.AuthorBatch <= 0 {
		errs = append(errs, "EXPORT_AUTHOR_BATCH must be positive")
	}
	if c.Export.WorkBatch <= 0 {
		errs = append(errs, "EXPORT_WORK_BATCH must be positive")
	}
	if c.Export.RelationBatch <= 0 {
		errs = append(errs, "EXPORT_RELATION_BATCH must be positive")
	}
	if c.Export.StatementTimeout <= 0 {
		errs = append(errs, "EXPORT_STATEMENT_TIMEOUT must be positive")
	}
	if c.Export.Timeout <= 0 {
		errs = append(errs, "EXPORT_TIMEOUT must be positive")
	}
	if c.Export.MaxConcurrent <= 0 {
		errs = append(errs, "EXPORT_MAX_CONCURRENT must be positive")
	}
	if c.Export.MaxWaitTime <= 0 {
		errs = append(errs, "EXPORT_MAX_WAIT_TIME must be positive")
	}
	if c.Export.History <= 0 {
		errs = append(errs, "EXPORT_HISTORY must be positive")
	}

	// Target validation
	if c.Export.HasTarget("sqlite") && c.SQLite.Path == "" {
		errs = append(errs, "SQLITE_PATH is required for the sqlite target")
	}
	if c.Export.HasTarget("postgres") && c.Postgres.URL == "" {
		errs = append(errs, "DATABASE_URL is required for the postgres target")
	}
	if c.Export.HasTarget("mysql") {
		if c.MySQL.Host == "" || c.MySQL.Database == "" {
			errs = append(errs, "MYSQL_HOST and MYSQL_DATABASE are required for the mysql target")
		}
		if c.MySQL.Port <= 0 || c.MySQL.Port > 65535 {
			errs = append(errs, fmt.Sprintf("MYSQL_PORT (%d) must be 1-65535", c.MySQL.Port))
		}
	}
	if c.Export.HasTarget("script") && c.Script.Path == "" {
		errs = append(errs, "SCRIPT_PATH is required for the script target")
	}

	// S3 validation
	if c.S3.Enabled() {
		if (c.S3.AccessKey == "") != (c.S3.SecretKey == "") {
			errs = append(errs, "S3_ACCESS_KEY and S3_SECRET_KEY must be set together")
		}
		if c.S3.Keep < 0 {
			errs = append(errs, "S3_KEEP must be non-negative")
		}
	}

	// Server validation
	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		errs = append(errs, fmt.Sprintf("SERVER_PORT (%d) must be 1-65535", c.Server.Port))
	}
	if c.Server.ReadTimeout < 0 {
		errs = append(errs, "SERVER_READ_TIMEOUT must be non-negative")
	}
	if c.Server.ShutdownTimeout <= 0 {
		errs = append(errs, "SERVER_SHUTDOWN_TIMEOUT must be positive")
	}

	// Rate limit validation
	if c.Rate.Enabled && (c.Rate.RequestsPerMinute <= 0 || c.Rate.ExportLimit <= 0) {
		errs = append(errs, "RATE_LIMIT_REQUESTS_PER_MINUTE and RATE_LIMIT_EXPORT must be positive when rate limiting is enabled")
	}

	// Security validation
	if c.Security.RequireAPIKey && len(c.Security.APIKeys) == 0 {
		errs = append(errs, "REQUIRE_API_KEY is true but API_KEYS is empty; configure at least one API key or disable auth")
	}

	// Logging validation
	validLevels := map[string]bool{"debug": true, "info": true, "warn": true, "error": true}
	if !validLevels[strings.ToLower(c.Logging.Level)] {
		errs = append(errs, fmt.Sprintf("LOG_LEVEL (%q) must be one of: debug, info, warn, error", c.Logging.Level))
	}

	validFormats := map[string]bool{"text": true, "json": true, "auto": true}
	if !validFormats[strings.ToLower(c.Logging.Format)] {
		errs = append(errs, fmt.Sprintf("LOG_FORMAT (%q) must be one of: text, json, auto", c.Logging.Format))
	}

	if len(errs) > 0 {
		return fmt.Errorf("validation failed:\n  - %s", strings.Join(errs, "\n  - "))
	}

	return nil
}

func sortedKeys(m map[string]string) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// String returns a safe string representation of the config for logging.
// Credentials are masked.
func (c *Config) String() string {
	var b strings.Builder
	b.WriteString("Config{")
	b.WriteString(fmt.Sprintf("Input: {Authors: %q, Works: %q}, ", c.Input.AuthorsCSV, c.Input.WorksCSV))
	b.WriteString(fmt.Sprintf("Export: {Targets: %v, Mode: %q, Batches: %d/%d/%d, StatementTimeout: %s}, ",
		c.Export.Targets, c.Export.Mode, c.Export.AuthorBatch, c.Export.WorkBatch, c.Export.RelationBatch,
		c.Export.StatementTimeout))
	b.WriteString(fmt.Sprintf("SQLite: {Path: %q}, ", c.SQLite.Path))
	b.WriteString(fmt.Sprintf("Postgres: {URL: %s}, ", mask(c.Postgres.URL)))
	b.WriteString(fmt.Sprintf("MySQL: {Host: %q, Port: %d, User: %q, Password: %s, Database: %q}, ",
		c.MySQL.Host, c.MySQL.Port, c.MySQL.User, mask(c.MySQL.Password), c.MySQL.Database))
	b.WriteString(fmt.Sprintf("Script: {Path: %q, Gzip: %v}, ", c.Script.Path, c.Script.Gzip))
	b.WriteString(fmt.Sprintf("S3: {Bucket: %q, Prefix: %q, AccessKey: %s, SecretKey: %s}, ",
		c.S3.Bucket, c.S3.Prefix, mask(c.S3.AccessKey), mask(c.S3.SecretKey)))
	b.WriteString(fmt.Sprintf("Server: {Host: %q, Port: %d}, ", c.Server.Host, c.Server.Port))
	b.WriteString(fmt.Sprintf("Rate: {Enabled: %v, RequestsPerMinute: %d, ExportLimit: %d}, ",
		c.Rate.Enabled, c.Rate.RequestsPerMinute, c.Rate.ExportLimit))
	b.WriteString(fmt.Sprintf("Security: {RequireAPIKey: %v, APIKeys: %d}, ",
		c.Security.RequireAPIKey, len(c.Security.APIKeys)))
	b.WriteString(fmt.Sprintf("Logging: {Level: %q, Format: %q}",
		c.Logging.Level, c.Logging.Format))
	b.WriteString("}")
	return b.String()
}

func mask(s string) string {
	if s == "" {
		return "[UNSET]"
	}
	return "[MASKED]"
}
