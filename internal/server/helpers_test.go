package server

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"feedhub/internal/models"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHumanizeParam(t *testing.T) {
	tests := []struct {
		param    string
		expected string
	}{
		{"id", "ID"},
		{"userId", "user ID"},
		{"commentId", "comment ID"},
		{"experienceId", "experience ID"},
		{"connectionId", "connection ID"},
		{"feedCommentId", "feed comment ID"},
		{"something", "something"},
	}
	for _, tt := range tests {
		t.Run(tt.param, func(t *testing.T) {
			assert.Equal(t, tt.expected, humanizeParam(tt.param))
		})
	}
}

func TestParsePagination(t *testing.T) {
	app := fiber.New()
	app.Get("/items", func(c *fiber.Ctx) error {
		p := parsePagination(c, 25)
		return c.JSON(fiber.Map{"limit": p.Limit, "offset": p.Offset})
	})

	tests := []struct {
		query          string
		expectedLimit  float64
		expectedOffset float64
	}{
		{"", 25, 0},
		{"?limit=10&offset=30", 10, 30},
		{"?limit=0", 25, 0},
		{"?limit=1000", maxPaginationLimit, 0},
		{"?limit=-4&offset=-2", 25, 0},
		{"?limit=abc", 25, 0},
	}
	for _, tt := range tests {
		t.Run(tt.query, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/items"+tt.query, nil)
			resp, err := app.Test(req)
			require.NoError(t, err)
			defer func() { _ = resp.Body.Close() }()

			var body map[string]float64
			require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
			assert.Equal(t, tt.expectedLimit, body["limit"])
			assert.Equal(t, tt.expectedOffset, body["offset"])
		})
	}
}

func TestParseID(t *testing.T) {
	tests := []struct {
		name        string
		param       string
		value       string
		expectedMsg string
	}{
		{"valid", "id", "42", ""},
		{"non numeric", "id", "abc", "Invalid ID"},
		{"zero", "id", "0", "Invalid ID"},
		{"negative", "commentId", "-1", "Invalid comment ID"},
		{"named param", "userId", "x", "Invalid user ID"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			app := fiber.New()
			app.Get("/items/:"+tt.param, func(c *fiber.Ctx) error {
				id, err := parseID(c, tt.param)
				if err != nil {
					return nil
				}
				return c.JSON(fiber.Map{"id": id})
			})

			req := httptest.NewRequest(http.MethodGet, "/items/"+tt.value, nil)
			resp, err := app.Test(req)
			require.NoError(t, err)
			defer func() { _ = resp.Body.Close() }()

			if tt.expectedMsg == "" {
				assert.Equal(t, http.StatusOK, resp.StatusCode)
				return
			}
			assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
			var body models.ErrorResponse
			require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
			assert.Equal(t, tt.expectedMsg, body.Error)
			assert.Equal(t, models.CodeKeyError, body.Code)
		})
	}
}

func TestCurrentUserID(t *testing.T) {
	app := fiber.New()
	app.Get("/anon", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{"id": currentUserID(c)})
	})
	app.Get("/authed", func(c *fiber.Ctx) error {
		c.Locals("userID", uint(9))
		return c.JSON(fiber.Map{"id": currentUserID(c)})
	})

	for path, expected := range map[string]float64{"/anon": 0, "/authed": 9} {
		resp, err := app.Test(httptest.NewRequest(http.MethodGet, path, nil))
		require.NoError(t, err)
		var body map[string]float64
		require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
		_ = resp.Body.Close()
		assert.Equal(t, expected, body["id"], path)
	}
}
