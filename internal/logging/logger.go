// Package logging builds the zap loggers used by the demokit commands.
// Loggers write to stderr so stdout stays reserved for program output.
// Each subsystem logs under a named category that can be toggled in config.
package logging

import (
	"fmt"
	"sync"
	"sync/atomic"

	"demokit/internal/config"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Category represents a log category/system
type Category string

const (
	CategoryBoot     Category = "boot"     // Startup, flag and config resolution
	CategoryConfig   Category = "config"   // Config reloads
	CategoryScaffold Category = "scaffold" // Scaffold rendering and file writes
	CategoryLoop     Category = "loop"     // Worker and supervisor lifecycle
)

// Logger hands out per-category child loggers of a single zap root.
type Logger struct {
	root   *zap.Logger
	level  zap.AtomicLevel
	pinned atomic.Bool

	mu         sync.RWMutex
	categories map[string]bool
	named      map[Category]*zap.Logger
}

// ParseLevel converts a config level string to a zap level.
func ParseLevel(level string) (zapcore.Level, error) {
	switch level {
	case "debug":
		return zapcore.DebugLevel, nil
	case "info", "":
		return zapcore.InfoLevel, nil
	case "warn", "warning":
		return zapcore.WarnLevel, nil
	case "error":
		return zapcore.ErrorLevel, nil
	default:
		return zapcore.InfoLevel, fmt.Errorf("unknown log level %q", level)
	}
}

// New builds a Logger from the logging section of the config.
// verbose forces debug level regardless of the configured one and pins it,
// so later config reloads leave it alone.
func New(cfg config.LoggingConfig, verbose bool) (*Logger, error) {
	zcfg := zap.NewProductionConfig()
	if cfg.Format == "console" {
		zcfg.Encoding = "console"
		zcfg.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder
	}
	zcfg.OutputPaths = []string{"stderr"}
	zcfg.ErrorOutputPaths = []string{"stderr"}
	zcfg.Sampling = nil

	lvl, err := ParseLevel(cfg.Level)
	if err != nil {
		return nil, err
	}
	if verbose {
		lvl = zapcore.DebugLevel
	}
	zcfg.Level = zap.NewAtomicLevelAt(lvl)

	root, err := zcfg.Build()
	if err != nil {
		return nil, fmt.Errorf("failed to initialize logger: %w", err)
	}

	l := Wrap(root, zcfg.Level, cfg.Categories)
	if verbose {
		l.Pin()
	}
	return l, nil
}

// Wrap adopts an existing zap logger. Tests use it with zap.NewNop or an observer core.
func Wrap(root *zap.Logger, level zap.AtomicLevel, categories map[string]bool) *Logger {
	return &Logger{
		root:       root,
		level:      level,
		categories: categories,
		named:      make(map[Category]*zap.Logger),
	}
}

// Nop returns a Logger that discards everything.
func Nop() *Logger {
	return Wrap(zap.NewNop(), zap.NewAtomicLevel(), nil)
}

// Get returns (or creates) the logger for the given category.
// Disabled categories get a no-op logger.
func (l *Logger) Get(category Category) *zap.Logger {
	l.mu.RLock()
	if z, ok := l.named[category]; ok {
		l.mu.RUnlock()
		return z
	}
	l.mu.RUnlock()

	l.mu.Lock()
	defer l.mu.Unlock()

	// Double-check after acquiring write lock
	if z, ok := l.named[category]; ok {
		return z
	}

	var z *zap.Logger
	if l.isEnabled(category) {
		z = l.root.Named(string(category))
	} else {
		z = zap.NewNop()
	}
	l.named[category] = z
	return z
}

func (l *Logger) isEnabled(category Category) bool {
	if l.categories == nil {
		return true
	}
	enabled, exists := l.categories[string(category)]
	if !exists {
		return true
	}
	return enabled
}

// Level exposes the atomic level so it can be changed at runtime.
func (l *Logger) Level() zap.AtomicLevel {
	return l.level
}

// SetLevel changes the level of every category logger at once.
func (l *Logger) SetLevel(level string) error {
	lvl, err := ParseLevel(level)
	if err != nil {
		return err
	}
	l.level.SetLevel(lvl)
	return nil
}

// Pin marks the current level as set from the command line.
// LevelWatcher does not apply config changes to a pinned Logger.
func (l *Logger) Pin() {
	l.pinned.Store(true)
}

// Pinned reports whether Pin was called.
func (l *Logger) Pinned() bool {
	return l.pinned.Load()
}

// Sync flushes buffered entries.
func (l *Logger) Sync() error {
	return l.root.Sync()
}
