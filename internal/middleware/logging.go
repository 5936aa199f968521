package middleware

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"os"
	"strings"
	"time"

	"feedhub/internal/observability"

	"github.com/gofiber/fiber/v2"
)

// Logger is the process-wide structured logger. cmd/server replaces it with
// SetLogger once the configuration is loaded.
var Logger *slog.Logger

type contextKey string

const (
	RequestIDKey contextKey = "request_id"
	UserIDKey    contextKey = "user_id"
	TraceIDKey   contextKey = "trace_id"
)

// ctxHandler copies request-scoped IDs from the context onto every record.
type ctxHandler struct {
	slog.Handler
}

func (h *ctxHandler) Handle(ctx context.Context, r slog.Record) error {
	if rid, ok := ctx.Value(RequestIDKey).(string); ok {
		r.AddAttrs(slog.String(string(RequestIDKey), rid))
	}
	if uid, ok := ctx.Value(UserIDKey).(uint); ok {
		r.AddAttrs(slog.Uint64(string(UserIDKey), uint64(uid)))
	}
	if tid, ok := ctx.Value(TraceIDKey).(string); ok {
		r.AddAttrs(slog.String(string(TraceIDKey), tid))
	}
	return h.Handler.Handle(ctx, r)
}

func (h *ctxHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	return &ctxHandler{h.Handler.WithAttrs(attrs)}
}

func (h *ctxHandler) WithGroup(name string) slog.Handler {
	return &ctxHandler{h.Handler.WithGroup(name)}
}

func init() {
	SetLogger(NewLogger(os.Getenv("APP_ENV"), os.Stdout))
}

// SetLogger replaces Logger and hands it to the observability loggers.
func SetLogger(l *slog.Logger) {
	Logger = l
	observability.SetLogger(l)
}

// NewLogger returns a JSON logger for production and a text logger at debug
// level for development.
func NewLogger(env string, w io.Writer) *slog.Logger {
	env = strings.ToLower(strings.TrimSpace(env))
	opts := &slog.HandlerOptions{Level: slog.LevelInfo}
	if env == "development" || env == "dev" {
		opts.Level = slog.LevelDebug
	}

	var handler slog.Handler = slog.NewTextHandler(w, opts)
	if env == "production" || env == "prod" {
		handler = slog.NewJSONHandler(w, opts)
	}
	return slog.New(&ctxHandler{handler})
}

// UserIDFromContext returns the authenticated user ID stored by ContextMiddleware.
func UserIDFromContext(ctx context.Context) (uint, bool) {
	uid, ok := ctx.Value(UserIDKey).(uint)
	return uid, ok
}

// ContextMiddleware moves the request, user and trace IDs from fiber locals
// into the user context so that logs written below the handler carry them.
// The user ID is only there when an auth middleware already ran.
func ContextMiddleware() fiber.Handler {
	return func(c *fiber.Ctx) error {
		ctx := c.UserContext()
		if rid, ok := c.Locals("requestid").(string); ok {
			ctx = context.WithValue(ctx, RequestIDKey, rid)
		}
		if uid, ok := c.Locals("userID").(uint); ok {
			ctx = context.WithValue(ctx, UserIDKey, uid)
		}
		if tid, ok := c.Locals("traceID").(string); ok {
			ctx = context.WithValue(ctx, TraceIDKey, tid)
		}
		c.SetUserContext(ctx)
		return c.Next()
	}
}

// StructuredLogger writes one record per request. Health checks are logged at
// debug level, 4xx responses are warnings and 5xx responses are errors. A
// returned error has not reached the error handler yet, so its status is
// taken from the *fiber.Error, or 500 for any other error.
func StructuredLogger() fiber.Handler {
	return func(c *fiber.Ctx) error {
		start := time.Now()
		err := c.Next()

		status := c.Response().StatusCode()
		if err != nil {
			status = fiber.StatusInternalServerError
			var fe *fiber.Error
			if errors.As(err, &fe) {
				status = fe.Code
			}
		}
		attrs := []slog.Attr{
			slog.Int("status", status),
			slog.String("method", c.Method()),
			slog.String("path", c.Path()),
			slog.String("ip", c.IP()),
			slog.Duration("latency", time.Since(start)),
		}
		if route := c.Route(); route != nil && route.Path != "" {
			attrs = append(attrs, slog.String("route", route.Path))
		}

		level := slog.LevelInfo
		msg := "request processed"
		if err != nil {
			attrs = append(attrs, slog.String("error", err.Error()))
		}
		switch {
		case status >= fiber.StatusInternalServerError:
			level = slog.LevelError
			if err != nil {
				msg = "request failed"
			}
		case status >= fiber.StatusBadRequest:
			level = slog.LevelWarn
		case strings.HasPrefix(c.Path(), "/health"):
			level = slog.LevelDebug
		}

		// c.UserContext may carry a user ID that auth added after ContextMiddleware.
		ctx := c.UserContext()
		if uid, ok := c.Locals("userID").(uint); ok {
			ctx = context.WithValue(ctx, UserIDKey, uid)
		}
		Logger.LogAttrs(ctx, level, msg, attrs...)
		return err
	}
}
