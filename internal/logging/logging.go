// Package logging provides structured logging functionality using Go's slog package.
// It supports both text and JSON output formats, configurable log levels,
// and context-aware logging for the veriscan application.
package logging

import (
	"context"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
)

const (
	// File permissions for directories and log files.
	logDirPerm  = 0750
	logFilePerm = 0600
)

// LogLevel represents the available log levels.
type LogLevel string

const (
	LevelDebug LogLevel = "debug"
	LevelInfo  LogLevel = "info"
	LevelWarn  LogLevel = "warn"
	LevelError LogLevel = "error"
)

// LogFormat represents the available log formats.
type LogFormat string

const (
	FormatText LogFormat = "text"
	FormatJSON LogFormat = "json"
)

// Config holds logging configuration.
type Config struct {
	Level     LogLevel  `yaml:"level" json:"level"`
	Format    LogFormat `yaml:"format" json:"format"`
	Output    string    `yaml:"output" json:"output"`
	AddSource bool      `yaml:"add_source" json:"add_source"`
}

// DefaultConfig returns a default logging configuration. Logs go to stderr
// so the scan report keeps stdout to itself.
func DefaultConfig() Config {
	return Config{
		Level:     LevelInfo,
		Format:    FormatText,
		Output:    "stderr",
		AddSource: false,
	}
}

// Logger wraps slog.Logger with additional functionality.
type Logger struct {
	*slog.Logger
	config Config
}

// New creates a new structured logger with the given configuration.
func New(cfg Config) (*Logger, error) {
	// Parse log level
	var level slog.Level
	switch strings.ToLower(string(cfg.Level)) {
	case "debug":
		level = slog.LevelDebug
	case "info":
		level = slog.LevelInfo
	case "warn":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	default:
		level = slog.LevelInfo
	}

	// Determine output writer
	var writer io.Writer
	switch cfg.Output {
	case "stdout":
		writer = os.Stdout
	case "stderr":
		writer = os.Stderr
	default:
		// Assume it's a file path
		if err := os.MkdirAll(filepath.Dir(cfg.Output), logDirPerm); err != nil {
			return nil, err
		}
		file, err := os.OpenFile(cfg.Output, os.O_CREATE|os.O_WRONLY|os.O_APPEND, logFilePerm)
		if err != nil {
			return nil, err
		}
		writer = file
	}

	// Create handler options
	opts := &slog.HandlerOptions{
		Level:     level,
		AddSource: cfg.AddSource,
	}

	// Create handler based on format
	var handler slog.Handler
	switch cfg.Format {
	case FormatJSON:
		handler = slog.NewJSONHandler(writer, opts)
	default:
		handler = slog.NewTextHandler(writer, opts)
	}

	return &Logger{
		Logger: slog.New(handler),
		config: cfg,
	}, nil
}

// NewDefault creates a logger with default configuration.
func NewDefault() *Logger {
	logger, _ := New(DefaultConfig())
	return logger
}

// WithContext adds context to the logger for structured logging.
func (l *Logger) WithContext(ctx context.Context) *Logger {
	return &Logger{
		Logger: l.With(),
		config: l.config,
	}
}

// WithFields adds structured fields to the logger.
func (l *Logger) WithFields(fields ...any) *Logger {
	return &Logger{
		Logger: l.With(fields...),
		config: l.config,
	}
}

// WithComponent adds a component field to the logger.
func (l *Logger) WithComponent(component string) *Logger {
	return l.WithFields("component", component)
}

// WithScanID adds a scan ID field to the logger.
func (l *Logger) WithScanID(scanID string) *Logger {
	return l.WithFields("scan_id", scanID)
}

// WithTarget adds a target field to the logger.
func (l *Logger) WithTarget(target string) *Logger {
	return l.WithFields("target", target)
}

// WithPort adds a port field to the logger.
func (l *Logger) WithPort(port uint16) *Logger {
	return l.WithFields("port", port)
}

// WithError adds an error field to the logger.
func (l *Logger) WithError(err error) *Logger {
	return l.WithFields("error", err)
}

// InfoScan logs scan-related information.
func (l *Logger) InfoScan(msg, target string, fields ...any) {
	allFields := append([]any{"target", target}, fields...)
	l.Info(msg, allFields...)
}

// ErrorScan logs scan-related errors.
func (l *Logger) ErrorScan(msg, target string, err error, fields ...any) {
	allFields := append([]any{"target", target, "error", err}, fields...)
	l.Error(msg, allFields...)
}

// InfoReference logs reference-scanner information.
func (l *Logger) InfoReference(msg, target string, fields ...any) {
	allFields := append([]any{"component", "reference", "target", target}, fields...)
	l.Info(msg, allFields...)
}

// WarnReference logs reference-scanner warnings. The reference being
// unavailable degrades the report rather than failing the run, so these
// are warnings, not errors.
func (l *Logger) WarnReference(msg, target string, err error, fields ...any) {
	allFields := append([]any{"component", "reference", "target", target, "error", err}, fields...)
	l.Warn(msg, allFields...)
}

// InfoWatch logs watch-mode information.
func (l *Logger) InfoWatch(msg string, fields ...any) {
	allFields := append([]any{"component", "watch"}, fields...)
	l.Info(msg, allFields...)
}

// ErrorWatch logs watch-mode errors.
func (l *Logger) ErrorWatch(msg string, err error, fields ...any) {
	allFields := append([]any{"component", "watch", "error", err}, fields...)
	l.Error(msg, allFields...)
}

// InfoStatus logs status-server information.
func (l *Logger) InfoStatus(msg string, fields ...any) {
	allFields := append([]any{"component", "status"}, fields...)
	l.Info(msg, allFields...)
}

// ErrorStatus logs status-server errors.
func (l *Logger) ErrorStatus(msg string, err error, fields ...any) {
	allFields := append([]any{"component", "status", "error", err}, fields...)
	l.Error(msg, allFields...)
}

// Global logger instance - can be replaced for testing.
var defaultLogger = NewDefault()

// SetDefault sets the default logger instance.
func SetDefault(logger *Logger) {
	defaultLogger = logger
}

// Default returns the default logger instance.
func Default() *Logger {
	return defaultLogger
}

// Debug logs at debug level using the default logger.
func Debug(msg string, fields ...any) {
	defaultLogger.Debug(msg, fields...)
}

// Info logs at info level using the default logger.
func Info(msg string, fields ...any) {
	defaultLogger.Info(msg, fields...)
}

// Warn logs at warn level using the default logger.
func Warn(msg string, fields ...any) {
	defaultLogger.Warn(msg, fields...)
}

// Error logs at error level using the default logger.
func Error(msg string, fields ...any) {
	defaultLogger.Error(msg, fields...)
}

// InfoScan logs scan-related information using the default logger.
func InfoScan(msg, target string, fields ...any) {
	defaultLogger.InfoScan(msg, target, fields...)
}

// ErrorScan logs scan-related errors using the default logger.
func ErrorScan(msg, target string, err error, fields ...any) {
	defaultLogger.ErrorScan(msg, target, err, fields...)
}

// InfoReference logs reference-scanner information using the default logger.
func InfoReference(msg, target string, fields ...any) {
	defaultLogger.InfoReference(msg, target, fields...)
}

// WarnReference logs reference-scanner warnings using the default logger.
func WarnReference(msg, target string, err error, fields ...any) {
	defaultLogger.WarnReference(msg, target, err, fields...)
}

// InfoWatch logs watch-mode information using the default logger.
func InfoWatch(msg string, fields ...any) {
	defaultLogger.InfoWatch(msg, fields...)
}

// ErrorWatch logs watch-mode errors using the default logger.
func ErrorWatch(msg string, err error, fields ...any) {
	defaultLogger.ErrorWatch(msg, err, fields...)
}

// InfoStatus logs status-server information using the default logger.
func InfoStatus(msg string, fields ...any) {
	defaultLogger.InfoStatus(msg, fields...)
}

// ErrorStatus logs status-server errors using the default logger.
func ErrorStatus(msg string, err error, fields ...any) {
	defaultLogger.ErrorStatus(msg, err, fields...)
}
