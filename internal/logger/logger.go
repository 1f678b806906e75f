// Package logger provides structured, context-aware logging over log/slog.
// Log records are enriched with the trace ID of the active span so log lines
// can be correlated with traces.
package logger

import (
	"context"
	"io"
	"log/slog"

	"go.opentelemetry.io/otel/trace"
)

// Level represents a logging level.
type Level slog.Level

// Logging levels.
const (
	LevelDebug = Level(slog.LevelDebug)
	LevelInfo  = Level(slog.LevelInfo)
	LevelWarn  = Level(slog.LevelWarn)
	LevelError = Level(slog.LevelError)
)

// EventFn is called on every Error record, e.g. to bump an error counter.
type EventFn func(ctx context.Context)

// LoggerInterface is the logging contract consumed by application services.
type LoggerInterface interface {
	Debug(ctx context.Context, msg string, args ...any)
	Info(ctx context.Context, msg string, args ...any)
	Warn(ctx context.Context, msg string, args ...any)
	Error(ctx context.Context, msg string, args ...any)
}

// Logger implements LoggerInterface on top of slog.
type Logger struct {
	handler *slog.Logger
	events  EventFn
}

var _ LoggerInterface = (*Logger)(nil)

// New creates a Logger writing JSON records to w at the given minimum level.
// service is attached to every record. events may be nil.
func New(w io.Writer, minLevel Level, service string, events EventFn) *Logger {
	h := slog.NewJSONHandler(w, &slog.HandlerOptions{
		Level: slog.Level(minLevel),
	})

	return &Logger{
		handler: slog.New(h).With("service", service),
		events:  events,
	}
}

// NewWithHandler wraps an existing slog handler, for tests.
func NewWithHandler(h slog.Handler) *Logger {
	return &Logger{handler: slog.New(h)}
}

func (l *Logger) Debug(ctx context.Context, msg string, args ...any) {
	l.log(ctx, slog.LevelDebug, msg, args...)
}

func (l *Logger) Info(ctx context.Context, msg string, args ...any) {
	l.log(ctx, slog.LevelInfo, msg, args...)
}

func (l *Logger) Warn(ctx context.Context, msg string, args ...any) {
	l.log(ctx, slog.LevelWarn, msg, args...)
}

func (l *Logger) Error(ctx context.Context, msg string, args ...any) {
	l.log(ctx, slog.LevelError, msg, args...)

	if l.events != nil {
		l.events(ctx)
	}
}

func (l *Logger) log(ctx context.Context, level slog.Level, msg string, args ...any) {
	if span := trace.SpanFromContext(ctx); span.SpanContext().HasTraceID() {
		args = append(args, "trace_id", span.SpanContext().TraceID().String())
	}
	l.handler.Log(ctx, level, msg, args...)
}
