// Package logger provides structured logging infrastructure for the application.
// This is part of the platform layer and contains no business logic.
package logger

import (
	"context"
	"io"
	"log/slog"
	"os"
	"strings"
)

type contextKey string

const (
	RequestIDKey contextKey = "request_id"
	UserIDKey    contextKey = "user_id"
)

// Logger wraps slog.Logger for structured logging
type Logger struct {
	*slog.Logger
}

// New creates a logger writing to stdout: text at debug level in development, JSON otherwise.
func New(env string) *Logger {
	return NewWithWriter(env, os.Stdout)
}

// NewWithWriter is New with an explicit sink, used by tests that inspect log output.
func NewWithWriter(env string, w io.Writer) *Logger {
	var handler slog.Handler

	opts := &slog.HandlerOptions{
		Level: slog.LevelInfo,
	}

	if strings.EqualFold(env, "development") {
		opts.Level = slog.LevelDebug
		handler = slog.NewTextHandler(w, opts)
	} else {
		handler = slog.NewJSONHandler(w, opts)
	}

	return &Logger{
		Logger: slog.New(handler),
	}
}

// WithContext returns a logger carrying the request_id and user_id found in ctx.
func (l *Logger) WithContext(ctx context.Context) *Logger {
	if ctx == nil {
		return l
	}

	newLogger := l

	if requestID, ok := ctx.Value(RequestIDKey).(string); ok && requestID != "" {
		newLogger = newLogger.WithRequestID(requestID)
	}

	if userID, ok := ctx.Value(UserIDKey).(string); ok && userID != "" {
		newLogger = newLogger.WithUserID(userID)
	}

	return newLogger
}

func (l *Logger) WithRequestID(requestID string) *Logger {
	return &Logger{
		Logger: l.With(slog.String("request_id", requestID)),
	}
}

func (l *Logger) WithUserID(userID string) *Logger {
	return &Logger{
		Logger: l.With(slog.String("user_id", userID)),
	}
}

// HTTPRequest logs an HTTP request
func (l *Logger) HTTPRequest(method, path string, status int, latencyMs float64, clientIP string) {
	l.Info("http_request",
		slog.String("method", method),
		slog.String("path", path),
		slog.Int("status", status),
		slog.Float64("latency_ms", latencyMs),
		slog.String("client_ip", clientIP),
	)
}

// HTTPError logs an HTTP error
func (l *Logger) HTTPError(method, path string, status int, err error, clientIP string) {
	l.Error("http_error",
		slog.String("method", method),
		slog.String("path", path),
		slog.Int("status", status),
		slog.String("error", err.Error()),
		slog.String("client_ip", clientIP),
	)
}

// DatabaseError logs database errors
func (l *Logger) DatabaseError(operation string, err error) {
	l.Error("database_error",
		slog.String("operation", operation),
		slog.String("error", err.Error()),
	)
}

// RateLimitExceeded logs rate limit events
func (l *Logger) RateLimitExceeded(clientIP, path string) {
	l.Warn("rate_limit_exceeded",
		slog.String("client_ip", clientIP),
		slog.String("path", path),
	)
}

// DispatchSucceeded logs a delivered visit notification.
func (l *Logger) DispatchSucceeded(appointmentID, correlationID, trigger string, status int) {
	l.Info("visit_dispatch_succeeded",
		slog.String("appointment_id", appointmentID),
		slog.String("correlation_id", correlationID),
		slog.String("trigger", trigger),
		slog.Int("status", status),
	)
}

// DispatchFailed logs a visit notification that the external system did not accept.
func (l *Logger) DispatchFailed(appointmentID, correlationID, trigger string, err error) {
	l.Error("visit_dispatch_failed",
		slog.String("appointment_id", appointmentID),
		slog.String("correlation_id", correlationID),
		slog.String("trigger", trigger),
		slog.String("error", err.Error()),
	)
}

// ImportFinished logs the outcome of a bulk lead import.
func (l *Logger) ImportFinished(batchID string, total, created, updated, duplicated, errored int) {
	l.Info("lead_import_finished",
		slog.String("batch_id", batchID),
		slog.Int("total_rows", total),
		slog.Int("created", created),
		slog.Int("updated", updated),
		slog.Int("duplicated", duplicated),
		slog.Int("errored", errored),
	)
}
