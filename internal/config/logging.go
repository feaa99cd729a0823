package config

import "bankbot/internal/logging"

// LoggingConfig configures logging. Category gating lives in the logging
// package; this section only carries the settings.
type LoggingConfig struct {
	Level      string          `yaml:"level" json:"level,omitempty"`           // debug, info, warn, error
	Format     string          `yaml:"format" json:"format,omitempty"`         // json or console
	File       string          `yaml:"file" json:"file,omitempty"`             // stderr when empty
	DebugMode  bool            `yaml:"debug_mode" json:"debug_mode,omitempty"` // off silences every category
	Categories map[string]bool `yaml:"categories" json:"categories,omitempty"` // unlisted categories stay on
}

// Options converts the config section into logging options.
func (c LoggingConfig) Options() logging.Options {
	return logging.Options{
		Level:      c.Level,
		Format:     c.Format,
		File:       c.File,
		DebugMode:  c.DebugMode,
		Categories: c.Categories,
	}
}
