// Package observability provides logging, metrics, and tracing.
package observability

import (
	"context"
	"log/slog"
	"os"
)

// Logger wraps slog.Logger to provide specialized logging methods.
type Logger struct {
	*slog.Logger
}

// GlobalLogger is the default logger instance for background components
// (hubs, pub/sub wiring) that run outside a request.
var GlobalLogger *Logger

func init() {
	handler := slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: slog.LevelInfo,
	})
	GlobalLogger = &Logger{Logger: slog.New(handler)}
}

// WSLogger provides structured logging for WebSocket hubs.
type WSLogger struct {
	hubName string
	logger  *Logger
}

// NewWSLogger creates a new WSLogger for the given hub.
func NewWSLogger(hubName string) *WSLogger {
	return &WSLogger{
		hubName: hubName,
		logger:  GlobalLogger,
	}
}

// LogConnect logs a WebSocket connection event.
func (l *WSLogger) LogConnect(ctx context.Context, userID uint, room string) {
	l.logger.InfoContext(ctx, "websocket connected",
		slog.String("hub", l.hubName),
		slog.Uint64("user_id", uint64(userID)),
		slog.String("room", room),
	)
}

// LogDisconnect logs a WebSocket disconnection event.
func (l *WSLogger) LogDisconnect(ctx context.Context, userID uint, room string, reason string) {
	l.logger.InfoContext(ctx, "websocket disconnected",
		slog.String("hub", l.hubName),
		slog.Uint64("user_id", uint64(userID)),
		slog.String("room", room),
		slog.String("reason", reason),
	)
}

// LogError logs a WebSocket error event.
func (l *WSLogger) LogError(ctx context.Context, room string, err error, eventType string) {
	l.logger.ErrorContext(ctx, "websocket error",
		slog.String("hub", l.hubName),
		slog.String("room", room),
		slog.String("event_type", eventType),
		slog.String("error", err.Error()),
	)
}

// LogLifecycle logs a hub lifecycle event such as wiring start or shutdown.
func (l *WSLogger) LogLifecycle(ctx context.Context, event string, fields map[string]interface{}) {
	attrs := []any{
		slog.String("hub", l.hubName),
		slog.String("event", event),
	}
	for k, v := range fields {
		attrs = append(attrs, slog.Any(k, v))
	}
	l.logger.InfoContext(ctx, "websocket lifecycle", attrs...)
}

// LogAsyncOperationError logs a failure in a fire-and-forget side effect.
func LogAsyncOperationError(ctx context.Context, operation string, err error, fields map[string]interface{}) {
	attrs := []any{
		slog.String("operation", operation),
		slog.String("type", "async_error"),
		slog.String("error", err.Error()),
	}
	for k, v := range fields {
		attrs = append(attrs, slog.Any(k, v))
	}
	GlobalLogger.ErrorContext(ctx, "async operation failed", attrs...)
}
