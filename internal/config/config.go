package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// DefaultMaxValidationFailures is the number of consecutive rejections of the
// requested slot after which a form asks the user whether to continue.
const DefaultMaxValidationFailures = 2

// Config holds all bankbot configuration.
type Config struct {
	// Core settings
	Name    string `yaml:"name"`
	Version string `yaml:"version"`

	// Form validation and escalation
	Forms FormsConfig `yaml:"forms"`

	// Profile database
	Database DatabaseConfig `yaml:"database"`

	// Logging
	Logging LoggingConfig `yaml:"logging"`

	// Batch runs of recorded conversations
	Batch BatchConfig `yaml:"batch"`

	// Bots the assistant can hand a conversation over to, keyed by bot id
	HandoffHosts map[string]HandoffHost `yaml:"handoff_hosts"`

	// Response templates. Empty uses the built-in set.
	ResponsesPath string `yaml:"responses_path"`
}

// FormsConfig configures form validation.
type FormsConfig struct {
	MaxValidationFailures int `yaml:"max_validation_failures"`
}

// DatabaseConfig configures the profile store.
type DatabaseConfig struct {
	Driver string `yaml:"driver"` // sqlite (pure Go), sqlite3 (cgo)
	Path   string `yaml:"path"`
	Seed   int64  `yaml:"seed"` // demo data generator seed
	// How far back generated transaction history reaches
	HistoryDays int `yaml:"history_days"`
}

// BatchConfig configures `bankbot batch`.
type BatchConfig struct {
	Concurrency int    `yaml:"concurrency"`
	Timeout     string `yaml:"timeout"`
}

// HandoffHost is one bot a conversation can be handed over to.
type HandoffHost struct {
	Title string `yaml:"title"`
	URL   string `yaml:"url"`
}

// DefaultConfig returns the default configuration.
func DefaultConfig() *Config {
	return &Config{
		Name:    "bankbot",
		Version: "0.3.0",

		Forms: FormsConfig{
			MaxValidationFailures: DefaultMaxValidationFailures,
		},

		Database: DatabaseConfig{
			Driver:      "sqlite",
			Path:        "data/bankbot.db",
			Seed:        42,
			HistoryDays: 365,
		},

		Logging: LoggingConfig{
			Level:  "info",
			Format: "console",
		},

		Batch: BatchConfig{
			Concurrency: 4,
			Timeout:     "60s",
		},

		HandoffHosts: map[string]HandoffHost{},
	}
}

// Load loads configuration from a YAML file. A missing file yields the
// defaults; environment overrides apply either way.
func Load(path string) (*Config, error) {
	cfg := DefaultConfig()

	data, err := os.ReadFile(path)
	if err != nil {
		if !os.IsNotExist(err) {
			return nil, fmt.Errorf("failed to read config: %w", err)
		}
	} else if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}

	// Override with environment variables
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
	if driver := os.Getenv("BANKBOT_DB_DRIVER"); driver != "" {
		c.Database.Driver = driver
	}
	if path := os.Getenv("BANKBOT_DB"); path != "" {
		c.Database.Path = path
	}
	if v := os.Getenv("BANKBOT_MAX_VALIDATION_FAILURES"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			c.Forms.MaxValidationFailures = n
		}
	}
	// Asking for a level implies wanting logs at all
	if level := os.Getenv("BANKBOT_LOG_LEVEL"); level != "" {
		c.Logging.Level = level
		c.Logging.DebugMode = true
	}
}

// GetBatchTimeout returns the per-conversation batch timeout as a duration.
func (c *Config) GetBatchTimeout() time.Duration {
	d, err := time.ParseDuration(c.Batch.Timeout)
	if err != nil {
		return 60 * time.Second
	}
	return d
}

// ValidDrivers lists the supported database drivers.
var ValidDrivers = []string{"sqlite", "sqlite3"}

// Validate validates the configuration.
func (c *Config) Validate() error {
	if c.Forms.MaxValidationFailures < 1 {
		return fmt.Errorf("forms.max_validation_failures must be at least 1, got %d", c.Forms.MaxValidationFailures)
	}

	validDriver := false
	for _, d := range ValidDrivers {
		if c.Database.Driver == d {
			validDriver = true
			break
		}
	}
	if !validDriver {
		return fmt.Errorf("invalid database driver: %s (valid: %v)", c.Database.Driver, ValidDrivers)
	}
	if strings.TrimSpace(c.Database.Path) == "" {
		return fmt.Errorf("database.path is empty")
	}

	switch strings.ToLower(c.Logging.Format) {
	case "", "json", "console", "text":
	default:
		return fmt.Errorf("invalid logging format: %s (valid: json, console)", c.Logging.Format)
	}

	if c.Batch.Concurrency < 1 {
		return fmt.Errorf("batch.concurrency must be at least 1, got %d", c.Batch.Concurrency)
	}

	for bot, host := range c.HandoffHosts {
		if host.Title == "" {
			return fmt.Errorf("handoff host %q has no title", bot)
		}
	}

	return nil
}

// HandoffEnabled reports whether any handoff host has a URL.
func (c *Config) HandoffEnabled() bool {
	for _, host := range c.HandoffHosts {
		if host.URL != "" {
			return true
		}
	}
	return false
}
