// Package logging provides categorized logging for taxreview.
// Every category is a named child of one zap logger configured by Init.
// Until Init is called (or when logging is disabled) every logger is a no-op,
// which is what the terminal UI relies on to keep the screen clean.
package logging

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Category represents a log category/system
type Category string

const (
	CategoryBoot   Category = "boot"   // Startup, config, CLI wiring
	CategoryIngest Category = "ingest" // File gate, parse, shape checks
	CategoryRender Category = "render" // Document tree construction
	CategoryExport Category = "export" // Export orchestration
	CategoryPDF    Category = "pdf"    // PDF engines
	CategoryWatch  Category = "watch"  // File watcher
	CategoryUI     Category = "ui"     // Interactive review session
)

// Categories lists every known category in display order.
var Categories = []Category{
	CategoryBoot, CategoryIngest, CategoryRender, CategoryExport,
	CategoryPDF, CategoryWatch, CategoryUI,
}

// Options mirrors config.LoggingConfig to avoid an import cycle.
type Options struct {
	Level  string // debug | info | warn | error
	Format string // console | json
	File   string // empty means stderr
	// Disabled forces the no-op logger regardless of the other fields.
	Disabled bool
}

// Logger is a category logger with printf-style methods.
type Logger struct {
	category Category
	sugar    *zap.SugaredLogger
}

var (
	mu      sync.RWMutex
	base    = zap.NewNop()
	loggers = make(map[Category]*Logger)
	closer  func()
)

// Init builds the root zap logger. Calling Init again replaces it.
func Init(opts Options) error {
	if opts.Disabled {
		useLogger(nil)
		return nil
	}

	level, err := ParseLevel(opts.Level)
	if err != nil {
		return err
	}

	var cfg zap.Config
	switch strings.ToLower(opts.Format) {
	case "", "console":
		cfg = zap.NewDevelopmentConfig()
		cfg.EncoderConfig.EncodeLevel = zapcore.CapitalLevelEncoder
	case "json":
		cfg = zap.NewProductionConfig()
	default:
		return fmt.Errorf("unknown log format %q", opts.Format)
	}
	cfg.Level = zap.NewAtomicLevelAt(level)
	cfg.DisableStacktrace = true

	if opts.File != "" {
		if err := os.MkdirAll(filepath.Dir(opts.File), 0755); err != nil {
			return fmt.Errorf("failed to create log directory: %w", err)
		}
		cfg.OutputPaths = []string{opts.File}
		cfg.ErrorOutputPaths = []string{opts.File}
	} else {
		cfg.OutputPaths = []string{"stderr"}
		cfg.ErrorOutputPaths = []string{"stderr"}
	}

	logger, err := cfg.Build()
	if err != nil {
		return fmt.Errorf("failed to build logger: %w", err)
	}
	useLogger(logger)

	Get(CategoryBoot).Debug("logging initialized: level=%s format=%s file=%q", level, opts.Format, opts.File)
	return nil
}

// useLogger installs l as the root logger. nil installs a no-op logger.
func useLogger(l *zap.Logger) {
	if l == nil {
		l = zap.NewNop()
	}
	reset(l, func() { _ = l.Sync() })
}

func reset(l *zap.Logger, c func()) {
	mu.Lock()
	defer mu.Unlock()
	base = l
	loggers = make(map[Category]*Logger)
	closer = c
}

// ParseLevel maps a level name to a zap level. Empty means info.
func ParseLevel(s string) (zapcore.Level, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "debug":
		return zapcore.DebugLevel, nil
	case "", "info":
		return zapcore.InfoLevel, nil
	case "warn", "warning":
		return zapcore.WarnLevel, nil
	case "error":
		return zapcore.ErrorLevel, nil
	default:
		return zapcore.InfoLevel, fmt.Errorf("unknown log level %q", s)
	}
}

// Get returns (or creates) a logger for the given category.
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
	l := &Logger{
		category: category,
		sugar:    base.Named(string(category)).Sugar(),
	}
	loggers[category] = l
	return l
}

// Zap exposes the underlying structured logger for the category.
func (l *Logger) Zap() *zap.Logger { return l.sugar.Desugar() }

// Debug logs a debug message.
func (l *Logger) Debug(format string, args ...interface{}) { l.sugar.Debugf(format, args...) }

// Info logs an informational message.
func (l *Logger) Info(format string, args ...interface{}) { l.sugar.Infof(format, args...) }

// Warn logs a warning message.
func (l *Logger) Warn(format string, args ...interface{}) { l.sugar.Warnf(format, args...) }

// Error logs an error message.
func (l *Logger) Error(format string, args ...interface{}) { l.sugar.Errorf(format, args...) }

// With returns a child logger carrying structured key/value context.
func (l *Logger) With(keysAndValues ...interface{}) *Logger {
	return &Logger{category: l.category, sugar: l.sugar.With(keysAndValues...)}
}

// Sync flushes buffered entries. Call at shutdown.
func Sync() {
	mu.RLock()
	c := closer
	mu.RUnlock()
	if c != nil {
		c()
	}
}

// =============================================================================
// CONVENIENCE FUNCTIONS
// =============================================================================

// Boot logs to the boot category
func Boot(format string, args ...interface{}) { Get(CategoryBoot).Info(format, args...) }

// BootDebug logs debug to the boot category
func BootDebug(format string, args ...interface{}) { Get(CategoryBoot).Debug(format, args...) }

// Ingest logs to the ingest category
func Ingest(format string, args ...interface{}) { Get(CategoryIngest).Info(format, args...) }

// IngestDebug logs debug to the ingest category
func IngestDebug(format string, args ...interface{}) { Get(CategoryIngest).Debug(format, args...) }

// Render logs to the render category
func Render(format string, args ...interface{}) { Get(CategoryRender).Info(format, args...) }

// RenderDebug logs debug to the render category
func RenderDebug(format string, args ...interface{}) { Get(CategoryRender).Debug(format, args...) }

// Export logs to the export category
func Export(format string, args ...interface{}) { Get(CategoryExport).Info(format, args...) }

// ExportDebug logs debug to the export category
func ExportDebug(format string, args ...interface{}) { Get(CategoryExport).Debug(format, args...) }

// PDF logs to the pdf category
func PDF(format string, args ...interface{}) { Get(CategoryPDF).Info(format, args...) }

// PDFDebug logs debug to the pdf category
func PDFDebug(format string, args ...interface{}) { Get(CategoryPDF).Debug(format, args...) }

// Watch logs to the watch category
func Watch(format string, args ...interface{}) { Get(CategoryWatch).Info(format, args...) }

// WatchDebug logs debug to the watch category
func WatchDebug(format string, args ...interface{}) { Get(CategoryWatch).Debug(format, args...) }

// UI logs to the ui category
func UI(format string, args ...interface{}) { Get(CategoryUI).Info(format, args...) }

// UIDebug logs debug to the ui category
func UIDebug(format string, args ...interface{}) { Get(CategoryUI).Debug(format, args...) }
