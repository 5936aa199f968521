package middleware

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewLogger_AddsContextAttributes(t *testing.T) {
	var buf bytes.Buffer
	logger := NewLogger("production", &buf)

	ctx := context.WithValue(context.Background(), RequestIDKey, "req-1")
	ctx = context.WithValue(ctx, UserIDKey, uint(42))
	ctx = context.WithValue(ctx, TraceIDKey, "trace-9")
	logger.InfoContext(ctx, "feed listed")

	var record map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &record))
	assert.Equal(t, "feed listed", record["msg"])
	assert.Equal(t, "req-1", record["request_id"])
	assert.Equal(t, float64(42), record["user_id"])
	assert.Equal(t, "trace-9", record["trace_id"])
}

func TestNewLogger_TextOutsideProduction(t *testing.T) {
	var buf bytes.Buffer
	NewLogger("development", &buf).Info("hello")
	assert.Contains(t, buf.String(), "msg=hello")
}

func TestContextMiddleware_PropagatesLocals(t *testing.T) {
	app := fiber.New()
	app.Use(func(c *fiber.Ctx) error {
		c.Locals("requestid", "abc")
		c.Locals("userID", uint(5))
		return c.Next()
	})
	app.Use(ContextMiddleware())
	app.Get("/", func(c *fiber.Ctx) error {
		uid, ok := UserIDFromContext(c.UserContext())
		rid, _ := c.UserContext().Value(RequestIDKey).(string)
		return c.JSON(fiber.Map{"uid": uid, "ok": ok, "rid": rid})
	})

	resp, err := app.Test(httptest.NewRequest(http.MethodGet, "/", nil))
	require.NoError(t, err)
	defer func() { _ = resp.Body.Close() }()

	var body map[string]any
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
	assert.Equal(t, float64(5), body["uid"])
	assert.Equal(t, true, body["ok"])
	assert.Equal(t, "abc", body["rid"])
}

func TestStructuredLogger_LevelFollowsStatus(t *testing.T) {
	var buf bytes.Buffer
	prev := Logger
	Logger = NewLogger("production", &buf)
	t.Cleanup(func() { Logger = prev })

	app := fiber.New()
	app.Use(StructuredLogger())
	app.Get("/feeds/:id", func(c *fiber.Ctx) error {
		c.Locals("userID", uint(7))
		return c.SendStatus(fiber.StatusNotFound)
	})

	resp, err := app.Test(httptest.NewRequest(http.MethodGet, "/feeds/12", nil))
	require.NoError(t, err)
	_ = resp.Body.Close()

	var record map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &record))
	assert.Equal(t, "WARN", record["level"])
	assert.Equal(t, float64(404), record["status"])
	assert.Equal(t, "/feeds/:id", record["route"])
	assert.Equal(t, float64(7), record["user_id"])
}

func TestStructuredLogger_ReturnedErrorStatus(t *testing.T) {
	tests := []struct {
		name   string
		path   string
		level  string
		status int
		msg    string
	}{
		{"unknown route", "/nope", "WARN", fiber.StatusNotFound, "request processed"},
		{"fiber error", "/gone", "WARN", fiber.StatusGone, "request processed"},
		{"plain error", "/broken", "ERROR", fiber.StatusInternalServerError, "request failed"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var buf bytes.Buffer
			prev := Logger
			Logger = NewLogger("production", &buf)
			t.Cleanup(func() { Logger = prev })

			app := fiber.New()
			app.Use(StructuredLogger())
			app.Get("/gone", func(c *fiber.Ctx) error { return fiber.ErrGone })
			app.Get("/broken", func(c *fiber.Ctx) error { return errors.New("boom") })

			resp, err := app.Test(httptest.NewRequest(http.MethodGet, tt.path, nil))
			require.NoError(t, err)
			_ = resp.Body.Close()
			assert.Equal(t, tt.status, resp.StatusCode)

			var record map[string]any
			require.NoError(t, json.Unmarshal(buf.Bytes(), &record))
			assert.Equal(t, tt.level, record["level"])
			assert.Equal(t, float64(tt.status), record["status"])
			assert.Equal(t, tt.msg, record["msg"])
			assert.NotEmpty(t, record["error"])
		})
	}
}
