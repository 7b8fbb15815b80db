package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"gopkg.in/yaml.v3"
)

// Config holds all personalmanager router configuration.
type Config struct {
	// Core settings
	Name    string `yaml:"name"`
	Version string `yaml:"version"`

	// Intent catalog
	Catalog CatalogConfig `yaml:"catalog"`

	// Routing thresholds and locale
	Routing RoutingConfig `yaml:"routing"`

	// Command execution
	Execution ExecutionConfig `yaml:"execution"`

	// Audit sinks
	Audit AuditConfig `yaml:"audit"`

	// Logging
	Logging LoggingConfig `yaml:"logging"`
}

// CatalogConfig configures the intent catalog source.
type CatalogConfig struct {
	// Path to the catalog YAML document
	Path string `yaml:"path"`
}

// RoutingConfig configures the matcher and confidence policy.
type RoutingConfig struct {
	// Preferred locale for candidate ordering (e.g. "zh-CN")
	Locale string `yaml:"locale"`

	// Confidence below this rejects the utterance
	LowThreshold float64 `yaml:"low_threshold"`

	// Confidence at or above this auto-executes
	HighThreshold float64 `yaml:"high_threshold"`

	// Candidates below this floor are never produced
	MinConfidence float64 `yaml:"min_confidence"`
}

// ExecutionConfig configures the command executor.
type ExecutionConfig struct {
	// Shell used to run rendered commands
	Shell string `yaml:"shell"`

	// Default timeout for commands
	DefaultTimeout string `yaml:"default_timeout"`

	// Hard ceiling on any per-call timeout
	MaxTimeout string `yaml:"max_timeout"`

	// Cap on captured stdout/stderr, each
	MaxOutputBytes int64 `yaml:"max_output_bytes"`

	// Working directory for child processes
	WorkingDirectory string `yaml:"working_directory"`

	// Environment variables to pass through
	AllowedEnvVars []string `yaml:"allowed_env_vars"`
}

// AuditConfig configures the audit sinks.
type AuditConfig struct {
	Enabled bool `yaml:"enabled"`

	// JSONL append log
	FilePath string `yaml:"file_path"`

	// SQLite event store queried by `pm audit`
	DatabasePath string `yaml:"database_path"`
}

// LoggingConfig configures logging.
type LoggingConfig struct {
	Level string `yaml:"level"` // debug, info, warn, error
}

// ConfigurationError reports an invalid configuration value. Fatal at
// startup, never produced at routing time.
type ConfigurationError struct {
	Field  string
	Reason string
}

func (e *ConfigurationError) Error() string {
	return fmt.Sprintf("configuration error: %s: %s", e.Field, e.Reason)
}

// DefaultConfig returns the default configuration.
func DefaultConfig() *Config {
	return &Config{
		Name:    "personalmanager",
		Version: "1.0.0",

		Catalog: CatalogConfig{
			Path: "configs/intents.yaml",
		},

		Routing: RoutingConfig{
			Locale:        "zh-CN",
			LowThreshold:  0.5,
			HighThreshold: 0.8,
			MinConfidence: 0.1,
		},

		Execution: ExecutionConfig{
			Shell:            "sh",
			DefaultTimeout:   "30s",
			MaxTimeout:       "5m",
			MaxOutputBytes:   10 * 1024 * 1024,
			WorkingDirectory: ".",
			AllowedEnvVars:   []string{"PATH", "HOME", "LANG", "LC_ALL", "TZ"},
		},

		Audit: AuditConfig{
			Enabled:      true,
			FilePath:     "data/audit.jsonl",
			DatabasePath: "data/personalmanager.db",
		},

		Logging: LoggingConfig{
			Level: "info",
		},
	}
}

// Load loads configuration from a YAML file. A missing file yields the
// defaults; a present file is merged over them.
func Load(path string) (*Config, error) {
	cfg := DefaultConfig()

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			cfg.applyEnvOverrides()
			return cfg, nil
		}
		return nil, fmt.Errorf("failed to read config: %w", err)
	}

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}

	cfg.applyEnvOverrides()

	return cfg, nil
}

// Save saves configuration to a YAML file.
func (c *Config) Save(path string) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write config: %w", err)
	}

	return nil
}

// applyEnvOverrides applies environment variable overrides.
func (c *Config) applyEnvOverrides() {
	if path := os.Getenv("PM_CATALOG"); path != "" {
		c.Catalog.Path = path
	}
	if locale := os.Getenv("PM_LOCALE"); locale != "" {
		c.Routing.Locale = locale
	}
	if raw := os.Getenv("PM_THRESHOLD_LOW"); raw != "" {
		if v, err := strconv.ParseFloat(raw, 64); err == nil {
			c.Routing.LowThreshold = v
		}
	}
	if raw := os.Getenv("PM_THRESHOLD_HIGH"); raw != "" {
		if v, err := strconv.ParseFloat(raw, 64); err == nil {
			c.Routing.HighThreshold = v
		}
	}
	if raw := os.Getenv("PM_EXEC_TIMEOUT"); raw != "" {
		if _, err := time.ParseDuration(raw); err == nil {
			c.Execution.DefaultTimeout = raw
		}
	}
	if path := os.Getenv("PM_AUDIT_LOG"); path != "" {
		c.Audit.FilePath = path
	}
	if path := os.Getenv("PM_AUDIT_DB"); path != "" {
		c.Audit.DatabasePath = path
	}
}

// GetExecTimeout returns the default execution timeout as a duration.
func (c *Config) GetExecTimeout() time.Duration {
	d, err := time.ParseDuration(c.Execution.DefaultTimeout)
	if err != nil {
		return 30 * time.Second
	}
	return d
}

// GetMaxTimeout returns the execution timeout ceiling as a duration.
func (c *Config) GetMaxTimeout() time.Duration {
	d, err := time.ParseDuration(c.Execution.MaxTimeout)
	if err != nil {
		return 5 * time.Minute
	}
	return d
}

// Validate validates the configuration. Threshold ordering is the hard
// invariant: 0 <= low <= high <= 1.
func (c *Config) Validate() error {
	r := c.Routing
	if r.LowThreshold < 0 || r.LowThreshold > 1 {
		return &ConfigurationError{
			Field:  "routing.low_threshold",
			Reason: fmt.Sprintf("must be within [0,1], got %v", r.LowThreshold),
		}
	}
	if r.HighThreshold < 0 || r.HighThreshold > 1 {
		return &ConfigurationError{
			Field:  "routing.high_threshold",
			Reason: fmt.Sprintf("must be within [0,1], got %v", r.HighThreshold),
		}
	}
	if r.LowThreshold > r.HighThreshold {
		return &ConfigurationError{
			Field:  "routing.low_threshold",
			Reason: fmt.Sprintf("must not exceed high_threshold (%v > %v)", r.LowThreshold, r.HighThreshold),
		}
	}
	if r.MinConfidence < 0 || r.MinConfidence > 1 {
		return &ConfigurationError{
			Field:  "routing.min_confidence",
			Reason: fmt.Sprintf("must be within [0,1], got %v", r.MinConfidence),
		}
	}

	if c.Execution.Shell == "" {
		return &ConfigurationError{Field: "execution.shell", Reason: "must not be empty"}
	}
	if c.Execution.MaxOutputBytes <= 0 {
		return &ConfigurationError{
			Field:  "execution.max_output_bytes",
			Reason: fmt.Sprintf("must be positive, got %d", c.Execution.MaxOutputBytes),
		}
	}
	if _, err := time.ParseDuration(c.Execution.DefaultTimeout); err != nil {
		return &ConfigurationError{
			Field:  "execution.default_timeout",
			Reason: fmt.Sprintf("invalid duration %q", c.Execution.DefaultTimeout),
		}
	}
	if _, err := time.ParseDuration(c.Execution.MaxTimeout); err != nil {
		return &ConfigurationError{
			Field:  "execution.max_timeout",
			Reason: fmt.Sprintf("invalid duration %q", c.Execution.MaxTimeout),
		}
	}

	return nil
}
