// Package config provides configuration management for the application.
//
// Values are resolved in three layers, later layers winning:
//  1. built-in defaults
//  2. an optional YAML file (CONTRACTCHECK_CONFIG, default ./config.yaml) whose
//     values may reference the environment as ${VAR} or ${VAR:-default}
//  3. environment variables, including those loaded from an optional .env file
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"net/url"
	"os"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// ConfigPathEnv names the environment variable holding the YAML config path.
const ConfigPathEnv = "CONTRACTCHECK_CONFIG"

const defaultConfigPath = "config.yaml"

// Storage backends for run history.
const (
	StorageNone       = "none"
	StorageSQLite     = "sqlite"
	StoragePostgreSQL = "postgresql"
	StorageMongoDB    = "mongodb"
)

// Config holds the application configuration
type Config struct {
	Target   TargetConfig   `yaml:"target"`
	Runner   RunnerConfig   `yaml:"runner"`
	Logging  LoggingConfig  `yaml:"logging"`
	Storage  StorageConfig  `yaml:"storage"`
	Metrics  MetricsConfig  `yaml:"metrics"`
	MockBank MockBankConfig `yaml:"mockbank"`
}

// TargetConfig describes the API under test.
type TargetConfig struct {
	BaseURL       string   `yaml:"base_url"`
	AuthToken     string   `yaml:"auth_token"`
	Timeout       Duration `yaml:"timeout"`
	MaxRetries    int      `yaml:"max_retries"`
	LoginUsername string   `yaml:"login_username"`
	LoginPassword string   `yaml:"login_password"`
}

// RunnerConfig controls scenario execution.
type RunnerConfig struct {
	// Parallelism bounds how many independent scenarios run at once
	Parallelism int `yaml:"parallelism"`
	// ScenarioDir holds scenario files and an optional contracts/ subdirectory
	ScenarioDir string `yaml:"scenario_dir"`
}

// LoggingConfig selects the slog handler.
type LoggingConfig struct {
	Format string `yaml:"format"` // auto, pretty or json
	Level  string `yaml:"level"`
}

// StorageConfig selects where run history is persisted.
type StorageConfig struct {
	Type       string           `yaml:"type"`
	SQLite     SQLiteConfig     `yaml:"sqlite"`
	PostgreSQL PostgreSQLConfig `yaml:"postgresql"`
	MongoDB    MongoDBConfig    `yaml:"mongodb"`
}

// SQLiteConfig holds SQLite-specific settings
type SQLiteConfig struct {
	Path string `yaml:"path"`
}

// PostgreSQLConfig holds PostgreSQL-specific settings
type PostgreSQLConfig struct {
	URL      string `yaml:"url"`
	MaxConns int    `yaml:"max_conns"`
}

// MongoDBConfig holds MongoDB-specific settings
type MongoDBConfig struct {
	URL      string `yaml:"url"`
	Database string `yaml:"database"`
}

// MetricsConfig controls the Prometheus textfile export.
type MetricsConfig struct {
	// File receives the metrics in text exposition format after a run; empty disables it
	File string `yaml:"file"`
}

// MockBankConfig configures the bundled mock bank server.
type MockBankConfig struct {
	Port     string `yaml:"port"`
	Username string `yaml:"username"`
	Password string `yaml:"password"`
	Metrics  bool   `yaml:"metrics"`
}

// Duration is a time.Duration that unmarshals from "10s"-style strings or
// plain integers (seconds).
type Duration time.Duration

// Std returns the value as a time.Duration.
func (d Duration) Std() time.Duration { return time.Duration(d) }

// UnmarshalYAML implements yaml.Unmarshaler.
func (d *Duration) UnmarshalYAML(value *yaml.Node) error {
	parsed, err := parseDuration(value.Value)
	if err != nil {
		return fmt.Errorf("line %d: %w", value.Line, err)
	}
	*d = Duration(parsed)
	return nil
}

// parseDuration accepts either plain integers (seconds) or Go duration strings.
func parseDuration(s string) (time.Duration, error) {
	s = strings.TrimSpace(s)
	if secs, err := strconv.Atoi(s); err == nil {
		return time.Duration(secs) * time.Second, nil
	}
	d, err := time.ParseDuration(s)
	if err != nil {
		return 0, fmt.Errorf("invalid duration %q", s)
	}
	return d, nil
}

// Defaults returns the built-in configuration. It targets the bundled mock
// bank on localhost.
func Defaults() *Config {
	return &Config{
		Target: TargetConfig{
			BaseURL:       "http://localhost:8089",
			Timeout:       Duration(10 * time.Second),
			LoginUsername: "demo",
			LoginPassword: "demo123",
		},
		Runner: RunnerConfig{
			Parallelism: 4,
			ScenarioDir: "scenarios",
		},
		Logging: LoggingConfig{
			Format: "auto",
			Level:  "info",
		},
		Storage: StorageConfig{
			Type:       StorageNone,
			SQLite:     SQLiteConfig{Path: "data/contractcheck.db"},
			PostgreSQL: PostgreSQLConfig{MaxConns: 10},
			MongoDB:    MongoDBConfig{Database: "contractcheck"},
		},
		MockBank: MockBankConfig{
			Port:     "8089",
			Username: "demo",
			Password: "demo123",
		},
	}
}

// Load reads configuration from .env, the YAML file and the environment.
// It does not validate; call Validate on the result.
func Load() (*Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("failed to load .env: %w", err)
	}

	cfg := Defaults()

	path, explicit := os.LookupEnv(ConfigPathEnv)
	if !explicit || path == "" {
		path = defaultConfigPath
	}
	data, err := os.ReadFile(path)
	switch {
	case err == nil:
		if err := yaml.Unmarshal([]byte(expandString(string(data))), cfg); err != nil {
			return nil, fmt.Errorf("failed to parse config file %s: %w", path, err)
		}
	case errors.Is(err, fs.ErrNotExist) && !explicit:
		// no config file; defaults plus environment
	default:
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	if err := applyEnvOverrides(cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

var envPattern = regexp.MustCompile(`\$\{([A-Za-z_][A-Za-z0-9_]*)(:-([^}]*))?\}`)

// expandString replaces ${VAR} and ${VAR:-default} references. An unset or
// empty variable without a default is left as written.
func expandString(s string) string {
	return envPattern.ReplaceAllStringFunc(s, func(match string) string {
		groups := envPattern.FindStringSubmatch(match)
		name, hasDefault, def := groups[1], groups[2] != "", groups[3]
		if val := os.Getenv(name); val != "" {
			return val
		}
		if hasDefault {
			return def
		}
		return match
	})
}

// applyEnvOverrides applies environment variables on top of file values.
func applyEnvOverrides(cfg *Config) error {
	strVars := []struct {
		key string
		dst *string
	}{
		{"BASE_URL", &cfg.Target.BaseURL},
		{"AUTH_TOKEN", &cfg.Target.AuthToken},
		{"LOGIN_USERNAME", &cfg.Target.LoginUsername},
		{"LOGIN_PASSWORD", &cfg.Target.LoginPassword},
		{"SCENARIO_DIR", &cfg.Runner.ScenarioDir},
		{"LOG_FORMAT", &cfg.Logging.Format},
		{"LOG_LEVEL", &cfg.Logging.Level},
		{"RESULTS_STORAGE", &cfg.Storage.Type},
		{"SQLITE_PATH", &cfg.Storage.SQLite.Path},
		{"POSTGRES_URL", &cfg.Storage.PostgreSQL.URL},
		{"MONGODB_URL", &cfg.Storage.MongoDB.URL},
		{"MONGODB_DATABASE", &cfg.Storage.MongoDB.Database},
		{"METRICS_FILE", &cfg.Metrics.File},
		{"MOCKBANK_PORT", &cfg.MockBank.Port},
		{"MOCKBANK_USERNAME", &cfg.MockBank.Username},
		{"MOCKBANK_PASSWORD", &cfg.MockBank.Password},
	}
	for _, v := range strVars {
		if val := os.Getenv(v.key); val != "" {
			*v.dst = val
		}
	}

	intVars := []struct {
		key string
		dst *int
	}{
		{"MAX_RETRIES", &cfg.Target.MaxRetries},
		{"PARALLELISM", &cfg.Runner.Parallelism},
		{"POSTGRES_MAX_CONNS", &cfg.Storage.PostgreSQL.MaxConns},
	}
	for _, v := range intVars {
		val := os.Getenv(v.key)
		if val == "" {
			continue
		}
		n, err := strconv.Atoi(val)
		if err != nil {
			return fmt.Errorf("invalid %s %q: must be an integer", v.key, val)
		}
		*v.dst = n
	}

	if val := os.Getenv("TIMEOUT"); val != "" {
		d, err := parseDuration(val)
		if err != nil {
			return fmt.Errorf("invalid TIMEOUT: %w", err)
		}
		cfg.Target.Timeout = Duration(d)
	}

	if val := os.Getenv("MOCKBANK_METRICS"); val != "" {
		b, err := strconv.ParseBool(val)
		if err != nil {
			return fmt.Errorf("invalid MOCKBANK_METRICS %q: %w", val, err)
		}
		cfg.MockBank.Metrics = b
	}
	return nil
}

// Validate reports the first invalid setting.
func (c *Config) Validate() error {
	u, err := url.Parse(c.Target.BaseURL)
	if err != nil || c.Target.BaseURL == "" {
		return fmt.Errorf("invalid BASE_URL %q", c.Target.BaseURL)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return fmt.Errorf("invalid BASE_URL %q: scheme must be http or https", c.Target.BaseURL)
	}
	if u.Host == "" {
		return fmt.Errorf("invalid BASE_URL %q: missing host", c.Target.BaseURL)
	}
	if c.Target.Timeout <= 0 {
		return fmt.Errorf("invalid TIMEOUT %s: must be positive", c.Target.Timeout.Std())
	}
	if c.Target.MaxRetries < 0 {
		return fmt.Errorf("invalid MAX_RETRIES %d: must not be negative", c.Target.MaxRetries)
	}
	if c.Runner.Parallelism < 1 {
		return fmt.Errorf("invalid PARALLELISM %d: must be at least 1", c.Runner.Parallelism)
	}

	switch c.Logging.Format {
	case "auto", "pretty", "json":
	default:
		return fmt.Errorf("invalid LOG_FORMAT %q: must be auto, pretty or json", c.Logging.Format)
	}
	var level slog.Level
	if err := level.UnmarshalText([]byte(c.Logging.Level)); err != nil {
		return fmt.Errorf("invalid LOG_LEVEL %q", c.Logging.Level)
	}

	switch c.Storage.Type {
	case StorageNone, "":
	case StorageSQLite:
		if c.Storage.SQLite.Path == "" {
			return errors.New("SQLITE_PATH is required for sqlite storage")
		}
	case StoragePostgreSQL:
		if c.Storage.PostgreSQL.URL == "" {
			return errors.New("POSTGRES_URL is required for postgresql storage")
		}
	case StorageMongoDB:
		if c.Storage.MongoDB.URL == "" {
			return errors.New("MONGODB_URL is required for mongodb storage")
		}
	default:
		return fmt.Errorf("unknown RESULTS_STORAGE %q: must be none, sqlite, postgresql or mongodb", c.Storage.Type)
	}
	return nil
}

// Redacted returns a copy safe to log: secrets are masked and credentials
// are stripped from connection URLs.
func (c *Config) Redacted() Config {
	out := *c
	out.Target.AuthToken = mask(c.Target.AuthToken)
	out.Target.LoginPassword = mask(c.Target.LoginPassword)
	out.MockBank.Password = mask(c.MockBank.Password)
	out.Storage.PostgreSQL.URL = redactURL(c.Storage.PostgreSQL.URL)
	out.Storage.MongoDB.URL = redactURL(c.Storage.MongoDB.URL)
	return out
}

func mask(secret string) string {
	if secret == "" {
		return ""
	}
	return "***"
}

func redactURL(raw string) string {
	if raw == "" {
		return ""
	}
	u, err := url.Parse(raw)
	if err != nil {
		return "***"
	}
	return u.Redacted()
}
