// Package middleware provides the Fiber middleware shared by every route group:
// structured request logging, rate limiting, tracing and metrics.
package middleware

import (
	"context"
	"io"
	"log/slog"
	"os"
	"time"

	"github.com/gofiber/fiber/v2"
)

// Logger is the global structured logger instance used throughout the application.
var Logger *slog.Logger

type contextKey string

const (
	RequestIDKey contextKey = "request_id"
	UserIDKey    contextKey = "user_id"
	TraceIDKey   contextKey = "trace_id"
)

// ctxHandler adds request-scoped values from the context to every record.
type ctxHandler struct {
	slog.Handler
}

func (h *ctxHandler) Handle(ctx context.Context, r slog.Record) error {
	if rid, ok := ctx.Value(RequestIDKey).(string); ok {
		r.AddAttrs(slog.String("request_id", rid))
	}
	if uid, ok := ctx.Value(UserIDKey).(uint); ok {
		r.AddAttrs(slog.Any("user_id", uid))
	}
	if tid, ok := ctx.Value(TraceIDKey).(string); ok {
		r.AddAttrs(slog.String("trace_id", tid))
	}
	return h.Handler.Handle(ctx, r)
}

func (h *ctxHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	return &ctxHandler{h.Handler.WithAttrs(attrs)}
}

func (h *ctxHandler) WithGroup(name string) slog.Handler {
	return &ctxHandler{h.Handler.WithGroup(name)}
}

// NewLogger builds the context-aware logger. Production gets JSON, everything else text.
func NewLogger(env string, w io.Writer) *slog.Logger {
	opts := &slog.HandlerOptions{Level: slog.LevelInfo}

	var handler slog.Handler
	if env == "production" || env == "prod" {
		handler = slog.NewJSONHandler(w, opts)
	} else {
		handler = slog.NewTextHandler(w, opts)
	}
	return slog.New(&ctxHandler{handler})
}

func init() {
	Logger = NewLogger(os.Getenv("APP_ENV"), os.Stdout)
}

// ContextMiddleware injects request ID, user ID and trace ID from Fiber locals into the
// request context so services deeper in the stack log them too.
func ContextMiddleware() fiber.Handler {
	return func(c *fiber.Ctx) error {
		c.SetUserContext(withLocals(c, c.UserContext()))
		return c.Next()
	}
}

func withLocals(c *fiber.Ctx, ctx context.Context) context.Context {
	if rid, ok := c.Locals("requestid").(string); ok && rid != "" {
		ctx = context.WithValue(ctx, RequestIDKey, rid)
	}
	// userID is only present when auth already ran for this route.
	if uid, ok := c.Locals("userID").(uint); ok {
		ctx = context.WithValue(ctx, UserIDKey, uid)
	}
	if tid, ok := c.Locals("traceID").(string); ok && tid != "" {
		ctx = context.WithValue(ctx, TraceIDKey, tid)
	}
	return ctx
}

// StructuredLogger returns a Fiber middleware for logging requests using slog
func StructuredLogger() fiber.Handler {
	return func(c *fiber.Ctx) error {
		start := time.Now()

		err := c.Next()

		fields := []any{
			slog.Int("status", c.Response().StatusCode()),
			slog.String("method", c.Method()),
			slog.String("path", c.Path()),
			slog.String("ip", c.IP()),
			slog.Duration("latency", time.Since(start)),
			slog.String("user_agent", c.Get("User-Agent")),
		}

		// Auth runs after this middleware, so pick up the user from locals now.
		ctx := withLocals(c, c.UserContext())
		logErr := err
		if logErr == nil {
			// Handlers that answered a 500 themselves leave the cause here.
			logErr, _ = c.Locals("error").(error)
		}
		if logErr != nil {
			fields = append(fields, slog.String("error", logErr.Error()))
			Logger.ErrorContext(ctx, "request failed", fields...)
		} else {
			Logger.InfoContext(ctx, "request processed", fields...)
		}

		return err
	}
}
