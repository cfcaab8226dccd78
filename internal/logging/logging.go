// Package logging provides the structured logger used by the font data store
// and its producers. It is a thin wrapper around log/slog that adds
// font-specific helpers and a no-op implementation.
package logging

import (
	"context"
	"log/slog"
	"time"
)

// Logger provides structured logging for font data loading.
// A nil *Logger and the logger returned by NewNopLogger discard everything.
type Logger struct {
	logger *slog.Logger
}

// FromSlog wraps an existing slog logger.
func FromSlog(l *slog.Logger) *Logger {
	if l == nil {
		return NewNopLogger()
	}
	return &Logger{logger: l}
}

// NewNopLogger creates a no-op logger that discards all log messages.
func NewNopLogger() *Logger {
	return &Logger{}
}

// Debug logs debug-level messages
func (l *Logger) Debug(ctx context.Context, msg string, args ...any) {
	if l == nil || l.logger == nil {
		return
	}
	l.logger.DebugContext(ctx, msg, args...)
}

// Info logs info-level messages
func (l *Logger) Info(ctx context.Context, msg string, args ...any) {
	if l == nil || l.logger == nil {
		return
	}
	l.logger.InfoContext(ctx, msg, args...)
}

// Warn logs warning-level messages
func (l *Logger) Warn(ctx context.Context, msg string, args ...any) {
	if l == nil || l.logger == nil {
		return
	}
	l.logger.WarnContext(ctx, msg, args...)
}

// With returns a logger with additional context fields.
func (l *Logger) With(args ...any) *Logger {
	if l == nil || l.logger == nil {
		return l
	}
	return &Logger{logger: l.logger.With(args...)}
}

// WithOperation returns a logger with operation context.
func (l *Logger) WithOperation(operation Operation) *Logger {
	return l.With("operation", string(operation))
}

// WithResource returns a logger with font resource context.
func (l *Logger) WithResource(resource string) *Logger {
	return l.With("resource", resource)
}

// Operation names a font data operation for logging.
type Operation string

// Operations emitted by the store and its producers.
const (
	OpGetOrLoad Operation = "get_or_load"
	OpInsert    Operation = "insert"
	OpPreload   Operation = "preload"
	OpFetchWeb  Operation = "fetch_web_font"
	OpDiscover  Operation = "discover"
	OpCatalog   Operation = "load_catalog"
)

// LogLoad logs the outcome of a disk read for a font resource.
func LogLoad(ctx context.Context, logger *Logger, resource string, duration time.Duration, size int64, err error) {
	if logger == nil {
		return
	}

	fields := []any{
		"operation", string(OpGetOrLoad),
		"resource", resource,
		"duration_ms", duration.Milliseconds(),
		"success", err == nil,
	}

	if err != nil {
		fields = append(fields, "error", err.Error())
		logger.Warn(ctx, "font data load failed", fields...)
		return
	}

	fields = append(fields, "size", size)
	logger.Info(ctx, "font data loaded", fields...)
}

// LogHit logs a resident-map hit.
func LogHit(ctx context.Context, logger *Logger, resource string, size int64) {
	if logger == nil {
		return
	}

	logger.Debug(ctx, "font data hit",
		"resource", resource,
		"size", size,
		"result", "hit")
}

// LogMiss logs a miss, with the reason the slow path was entered.
func LogMiss(ctx context.Context, logger *Logger, resource string, reason string) {
	if logger == nil {
		return
	}

	logger.Debug(ctx, "font data miss",
		"resource", resource,
		"reason", reason,
		"result", "miss")
}

// LogEviction logs a recency cache eviction.
func LogEviction(ctx context.Context, logger *Logger, resource string, size int64) {
	if logger == nil {
		return
	}

	logger.Debug(ctx, "font data evicted from recency cache",
		"resource", resource,
		"size", size)
}
