// Package logging provides config-driven categorized logging for bankbot.
// Each category (forms, parsing, store, ...) is a named zap logger that can be
// toggled independently. Logging is controlled by debug_mode: when false no
// category logs anything.
package logging

import (
	"fmt"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Category represents a log category/system
type Category string

const (
	CategoryBoot    Category = "boot"    // Startup, config loading
	CategoryForms   Category = "forms"   // Form validation and escalation
	CategoryParsing Category = "parsing" // Time/money annotation parsing
	CategoryStore   Category = "store"   // Profile database
	CategoryActions Category = "actions" // Action registry and custom actions
	CategoryCLI     Category = "cli"     // Command line front end
)

// Options mirrors config.LoggingConfig to avoid an import cycle.
type Options struct {
	Level      string
	Format     string // json, console
	File       string // empty or "stderr" logs to stderr
	DebugMode  bool
	Categories map[string]bool
}

// Logger is a category-scoped sugared zap logger.
type Logger struct {
	category Category
	sugar    *zap.SugaredLogger
}

var (
	mu      sync.RWMutex
	base    = zap.NewNop()
	opts    Options
	loggers = make(map[Category]*Logger)
	nop     = zap.NewNop().Sugar()
)

// Initialize builds a zap logger from o and installs it. Should be called
// once at startup; calling it again replaces the previous logger.
func Initialize(o Options) error {
	if !o.DebugMode {
		Install(o, zap.NewNop())
		return nil
	}

	level, err := zapcore.ParseLevel(strings.ToLower(defaultString(o.Level, "info")))
	if err != nil {
		return fmt.Errorf("invalid log level %q: %w", o.Level, err)
	}

	encoding := "console"
	if strings.EqualFold(o.Format, "json") {
		encoding = "json"
	}

	encoderCfg := zap.NewProductionEncoderConfig()
	encoderCfg.EncodeTime = zapcore.ISO8601TimeEncoder
	if encoding == "console" {
		encoderCfg.EncodeLevel = zapcore.CapitalLevelEncoder
	}

	output := defaultString(o.File, "stderr")
	cfg := zap.Config{
		Level:            zap.NewAtomicLevelAt(level),
		Encoding:         encoding,
		EncoderConfig:    encoderCfg,
		OutputPaths:      []string{output},
		ErrorOutputPaths: []string{"stderr"},
	}
	l, err := cfg.Build()
	if err != nil {
		return fmt.Errorf("failed to build logger: %w", err)
	}

	Install(o, l)
	Get(CategoryBoot).Info("logging initialized: level=%s format=%s output=%s", level, encoding, output)
	return nil
}

// Install replaces the underlying zap logger and options. Tests use it with
// an observer core; the CLI uses it to share the logger it already built.
func Install(o Options, l *zap.Logger) {
	mu.Lock()
	defer mu.Unlock()
	if l == nil {
		l = zap.NewNop()
	}
	_ = base.Sync()
	base = l
	opts = o
	loggers = make(map[Category]*Logger)
}

// Sync flushes buffered log entries.
func Sync() {
	mu.RLock()
	defer mu.RUnlock()
	_ = base.Sync()
}

// IsDebugMode returns whether logging is enabled at all.
func IsDebugMode() bool {
	mu.RLock()
	defer mu.RUnlock()
	return opts.DebugMode
}

// IsCategoryEnabled returns whether a specific category is enabled
func IsCategoryEnabled(category Category) bool {
	mu.RLock()
	defer mu.RUnlock()
	return categoryEnabled(category)
}

func categoryEnabled(category Category) bool {
	if !opts.DebugMode {
		return false
	}
	if opts.Categories == nil {
		return true
	}
	enabled, exists := opts.Categories[string(category)]
	if !exists {
		return true
	}
	return enabled
}

// Get returns (or creates) a logger for the given category.
// Returns a no-op logger if debug mode or the category is disabled.
func Get(category Category) *Logger {
	mu.RLock()
	if l, ok := loggers[category]; ok {
		mu.RUnlock()
		return l
	}
	mu.RUnlock()

	mu.Lock()
	defer mu.Unlock()
	if l, ok := loggers[category]; ok {
		return l
	}

	l := &Logger{category: category, sugar: nop}
	if categoryEnabled(category) {
		l.sugar = base.Named(string(category)).Sugar()
	}
	loggers[category] = l
	return l
}

// Category returns the logger's category.
func (l *Logger) Category() Category {
	return l.category
}

// With returns a logger that attaches the given key/value pairs to every
// entry.
func (l *Logger) With(keysAndValues ...any) *Logger {
	return &Logger{category: l.category, sugar: l.sugar.With(keysAndValues...)}
}

func (l *Logger) Debug(format string, args ...any) { l.sugar.Debugf(format, args...) }
func (l *Logger) Info(format string, args ...any)  { l.sugar.Infof(format, args...) }
func (l *Logger) Warn(format string, args ...any)  { l.sugar.Warnf(format, args...) }
func (l *Logger) Error(format string, args ...any) { l.sugar.Errorf(format, args...) }

func defaultString(v, def string) string {
	if strings.TrimSpace(v) == "" {
		return def
	}
	return v
}

// =============================================================================
// CONVENIENCE FUNCTIONS - Quick logging without getting a logger first
// These are no-ops if the category is disabled
// =============================================================================

func Boot(format string, args ...any)      { Get(CategoryBoot).Info(format, args...) }
func BootDebug(format string, args ...any) { Get(CategoryBoot).Debug(format, args...) }
func BootWarn(format string, args ...any)  { Get(CategoryBoot).Warn(format, args...) }

func Forms(format string, args ...any)      { Get(CategoryForms).Info(format, args...) }
func FormsDebug(format string, args ...any) { Get(CategoryForms).Debug(format, args...) }
func FormsWarn(format string, args ...any)  { Get(CategoryForms).Warn(format, args...) }

func Parsing(format string, args ...any)      { Get(CategoryParsing).Info(format, args...) }
func ParsingDebug(format string, args ...any) { Get(CategoryParsing).Debug(format, args...) }

func Store(format string, args ...any)      { Get(CategoryStore).Info(format, args...) }
func StoreDebug(format string, args ...any) { Get(CategoryStore).Debug(format, args...) }
func StoreWarn(format string, args ...any)  { Get(CategoryStore).Warn(format, args...) }
func StoreError(format string, args ...any) { Get(CategoryStore).Error(format, args...) }

func Actions(format string, args ...any)      { Get(CategoryActions).Info(format, args...) }
func ActionsDebug(format string, args ...any) { Get(CategoryActions).Debug(format, args...) }
func ActionsWarn(format string, args ...any)  { Get(CategoryActions).Warn(format, args...) }
func ActionsError(format string, args ...any) { Get(CategoryActions).Error(format, args...) }

func CLI(format string, args ...any)      { Get(CategoryCLI).Info(format, args...) }
func CLIDebug(format string, args ...any) { Get(CategoryCLI).Debug(format, args...) }

// =============================================================================
// TIMING HELPERS - For performance logging
// =============================================================================

// Timer helps measure operation duration
type Timer struct {
	category Category
	op       string
	start    time.Time
}

// StartTimer begins timing an operation
func StartTimer(category Category, operation string) *Timer {
	return &Timer{category: category, op: operation, start: time.Now()}
}

// Stop ends the timer and logs the duration at debug level
func (t *Timer) Stop() time.Duration {
	elapsed := time.Since(t.start)
	Get(t.category).Debug("%s completed in %v", t.op, elapsed)
	return elapsed
}

// StopWithThreshold logs a warning if duration exceeds threshold
func (t *Timer) StopWithThreshold(threshold time.Duration) time.Duration {
	elapsed := time.Since(t.start)
	if elapsed > threshold {
		Get(t.category).Warn("%s took %v (threshold: %v)", t.op, elapsed, threshold)
	} else {
		Get(t.category).Debug("%s completed in %v", t.op, elapsed)
	}
	return elapsed
}
