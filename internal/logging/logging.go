// Package logging provides structured logging for the saf CLI using Go's slog
// package.
package logging

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"
	"time"
)

// ContextKey is a type for context keys to avoid collisions.
type ContextKey string

const (
	// DocumentKey is the context key for the document being processed.
	DocumentKey ContextKey = "document"
)

var defaultLogger *slog.Logger

func init() {
	InitLogger(os.Stderr, LevelWarn, FormatText)
}

// Level represents a log level.
type Level int

const (
	LevelDebug Level = iota
	LevelInfo
	LevelWarn
	LevelError
)

// Format represents a log output format.
type Format int

const (
	FormatText Format = iota
	FormatJSON
)

// ParseLevel maps "debug", "info", "warn" and "error" to a Level.
func ParseLevel(s string) (Level, error) {
	switch strings.ToLower(s) {
	case "debug":
		return LevelDebug, nil
	case "info":
		return LevelInfo, nil
	case "", "warn", "warning":
		return LevelWarn, nil
	case "error":
		return LevelError, nil
	}
	return LevelWarn, fmt.Errorf("unknown log level %q", s)
}

// ParseFormat maps "text" and "json" to a Format.
func ParseFormat(s string) (Format, error) {
	switch strings.ToLower(s) {
	case "", "text":
		return FormatText, nil
	case "json":
		return FormatJSON, nil
	}
	return FormatText, fmt.Errorf("unknown log format %q", s)
}

func (l Level) slog() slog.Level {
	switch l {
	case LevelDebug:
		return slog.LevelDebug
	case LevelInfo:
		return slog.LevelInfo
	case LevelError:
		return slog.LevelError
	default:
		return slog.LevelWarn
	}
}

// InitLogger replaces the global logger and returns it.
func InitLogger(w io.Writer, level Level, format Format) *slog.Logger {
	opts := &slog.HandlerOptions{
		Level: level.slog(),
		ReplaceAttr: func(groups []string, a slog.Attr) slog.Attr {
			if a.Key == slog.TimeKey {
				return slog.String(slog.TimeKey, a.Value.Time().Format(time.RFC3339))
			}
			return a
		},
	}

	var handler slog.Handler
	if format == FormatJSON {
		handler = slog.NewJSONHandler(w, opts)
	} else {
		handler = slog.NewTextHandler(w, opts)
	}

	defaultLogger = slog.New(handler)
	slog.SetDefault(defaultLogger)
	return defaultLogger
}

// GetLogger returns the global logger instance.
func GetLogger() *slog.Logger {
	return defaultLogger
}

// WithDocument records the document name (file path or store id) in ctx.
func WithDocument(ctx context.Context, name string) context.Context {
	return context.WithValue(ctx, DocumentKey, name)
}

// LoggerFromContext returns the global logger with context values attached.
func LoggerFromContext(ctx context.Context) *slog.Logger {
	logger := defaultLogger
	if name, ok := ctx.Value(DocumentKey).(string); ok && name != "" {
		logger = logger.With("document", name)
	}
	return logger
}

func Debug(msg string, args ...any) { defaultLogger.Debug(msg, args...) }
func Info(msg string, args ...any)  { defaultLogger.Info(msg, args...) }
func Warn(msg string, args ...any)  { defaultLogger.Warn(msg, args...) }
func Error(msg string, args ...any) { defaultLogger.Error(msg, args...) }

// DocumentIssues logs the outcome of validating one document.
func DocumentIssues(ctx context.Context, errors, warnings int, args ...any) {
	allArgs := []any{
		"errors", errors,
		"warnings", warnings,
	}
	allArgs = append(allArgs, args...)
	logger := LoggerFromContext(ctx)
	if errors > 0 {
		logger.Warn("document_invalid", allArgs...)
		return
	}
	logger.Info("document_valid", allArgs...)
}

// StoreOperation logs a storage read or write.
func StoreOperation(ctx context.Context, op, backend, id string, duration time.Duration, args ...any) {
	allArgs := []any{
		"op", op,
		"backend", backend,
		"id", id,
		"duration_ms", duration.Milliseconds(),
	}
	allArgs = append(allArgs, args...)
	LoggerFromContext(ctx).Debug("store_operation", allArgs...)
}
