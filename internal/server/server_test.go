package server

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"feedhub/internal/config"
	"feedhub/internal/middleware"
	"feedhub/internal/models"
	"feedhub/internal/testutil"

	"github.com/gofiber/fiber/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

const testJWTSecret = "test-secret-key-12345678901234567890123456789012"

type testServer struct {
	*Server
	app *fiber.App
	db  *gorm.DB
}

// newTestServer builds the full app over an in-memory database without Redis.
func newTestServer(t *testing.T, flags string) *testServer {
	t.Helper()
	return newTestServerWithRedis(t, flags, nil)
}

func newTestServerWithRedis(t *testing.T, flags string, rdb *redis.Client) *testServer {
	t.Helper()
	t.Setenv("APP_ENV", "test")

	cfg := &config.Config{JWTSecret: testJWTSecret, Env: "test", FeatureFlags: flags}
	middleware.InitMiddleware(cfg)

	db := testutil.NewSQLiteDB(t)
	srv, err := NewServerWithDeps(cfg, db, rdb)
	require.NoError(t, err)

	return &testServer{Server: srv, app: srv.NewApp(), db: db}
}

// login returns a bearer token for user.
func (ts *testServer) login(t *testing.T, user *models.User) string {
	t.Helper()
	token, err := ts.generateToken(user.ID)
	require.NoError(t, err)
	return token
}

// do sends a request with an optional JSON body and bearer token.
func (ts *testServer) do(t *testing.T, method, path string, body interface{}, token string) *http.Response {
	t.Helper()

	var reader io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(raw)
	}
	req := httptest.NewRequest(method, path, reader)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := ts.app.Test(req, -1)
	require.NoError(t, err)
	t.Cleanup(func() { _ = resp.Body.Close() })
	return resp
}

func decode(t *testing.T, resp *http.Response, out interface{}) {
	t.Helper()
	require.NoError(t, json.NewDecoder(resp.Body).Decode(out))
}

func requireErrorCode(t *testing.T, resp *http.Response, status int, code string) {
	t.Helper()
	require.Equal(t, status, resp.StatusCode)
	var body models.ErrorResponse
	decode(t, resp, &body)
	assert.Equal(t, code, body.Code)
}

func TestNewServerWithDeps_RequiresDatabase(t *testing.T) {
	_, err := NewServerWithDeps(&config.Config{}, nil, nil)
	assert.Error(t, err)
}

func TestRoutes_RequireAuthentication(t *testing.T) {
	ts := newTestServer(t, "")

	routes := []struct {
		method string
		path   string
	}{
		{http.MethodPost, "/api/feeds"},
		{http.MethodPut, "/api/feeds/1"},
		{http.MethodDelete, "/api/feeds/1"},
		{http.MethodPost, "/api/feeds/1/likes"},
		{http.MethodDelete, "/api/feeds/1/likes"},
		{http.MethodPost, "/api/feeds/1/comments"},
		{http.MethodPut, "/api/feeds/1/comments/1"},
		{http.MethodDelete, "/api/feeds/1/comments/1"},
		{http.MethodGet, "/api/profiles/me"},
		{http.MethodPut, "/api/profiles/me"},
		{http.MethodGet, "/api/users/me"},
		{http.MethodGet, "/api/connections"},
		{http.MethodPost, "/api/connections/2"},
		{http.MethodGet, "/api/feature-flags"},
		{http.MethodGet, "/api/ws/feed"},
	}
	for _, rt := range routes {
		t.Run(rt.method+" "+rt.path, func(t *testing.T) {
			resp := ts.do(t, rt.method, rt.path, nil, "")
			requireErrorCode(t, resp, http.StatusUnauthorized, models.CodeUnauthenticated)
		})
	}
}

func TestRoutes_UnknownPathIsNotFound(t *testing.T) {
	ts := newTestServer(t, "")

	resp := ts.do(t, http.MethodGet, "/api/nope", nil, "")
	requireErrorCode(t, resp, http.StatusNotFound, models.CodeNotFound)
}

func TestLivenessCheck(t *testing.T) {
	ts := newTestServer(t, "")

	resp := ts.do(t, http.MethodGet, "/health/live", nil, "")
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var body map[string]interface{}
	decode(t, resp, &body)
	assert.Equal(t, "up", body["status"])
}

func TestReadinessCheck_WithoutRedis(t *testing.T) {
	ts := newTestServer(t, "")

	resp := ts.do(t, http.MethodGet, "/health/ready", nil, "")
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var body struct {
		Status string            `json:"status"`
		Checks map[string]string `json:"checks"`
	}
	decode(t, resp, &body)
	assert.Equal(t, "healthy", body.Status)
	assert.Equal(t, "healthy", body.Checks["database"])
	assert.Equal(t, "unavailable", body.Checks["redis"])
}

func TestGetFeatureFlags(t *testing.T) {
	ts := newTestServer(t, "feed_aggregation=on")
	user := testutil.CreateUser(t, ts.db, "alice")

	resp := ts.do(t, http.MethodGet, "/api/feature-flags", nil, ts.login(t, user))
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var body struct {
		Raw       map[string]string `json:"raw"`
		Evaluated map[string]bool   `json:"evaluated"`
	}
	decode(t, resp, &body)
	assert.Equal(t, "on", body.Raw["feed_aggregation"])
	assert.True(t, body.Evaluated["feed_aggregation"])
}
