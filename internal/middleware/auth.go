// Package middleware provides authentication, logging, metrics and rate limiting middleware.
package middleware

import (
	"errors"
	"strconv"
	"strings"

	"feedhub/internal/config"
	"feedhub/internal/models"

	"github.com/gofiber/fiber/v2"
	"github.com/golang-jwt/jwt/v5"
)

// Registered claims stamped on every access token.
const (
	TokenIssuer   = "feedhub-api"
	TokenAudience = "feedhub-client"
)

var (
	errMissingToken   = errors.New("authorization header required")
	errHeaderFormat   = errors.New("invalid authorization header format")
	errInvalidToken   = errors.New("invalid or expired token")
	errInvalidSubject = errors.New("invalid token subject")
)

var cfg *config.Config

// InitMiddleware initializes authentication middleware with the given config.
func InitMiddleware(c *config.Config) {
	cfg = c
}

// ParseUserID validates an access token and returns the user ID in its "sub" claim.
func ParseUserID(tokenString string) (uint, error) {
	if cfg == nil {
		return 0, errInvalidToken
	}
	token, err := jwt.Parse(tokenString, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, errInvalidToken
		}
		return []byte(cfg.JWTSecret), nil
	},
		jwt.WithIssuer(TokenIssuer),
		jwt.WithAudience(TokenAudience),
		jwt.WithExpirationRequired(),
	)
	if err != nil || !token.Valid {
		return 0, errInvalidToken
	}

	sub, err := token.Claims.GetSubject()
	if err != nil || sub == "" {
		return 0, errInvalidSubject
	}
	userID, err := strconv.ParseUint(sub, 10, 32)
	if err != nil || userID == 0 {
		return 0, errInvalidSubject
	}
	return uint(userID), nil
}

func bearerToken(c *fiber.Ctx) (string, error) {
	authHeader := c.Get("Authorization")
	if authHeader == "" {
		return "", errMissingToken
	}
	parts := strings.Split(authHeader, " ")
	if len(parts) != 2 || parts[0] != "Bearer" {
		return "", errHeaderFormat
	}
	return parts[1], nil
}

func unauthenticated(c *fiber.Ctx, err error) error {
	return models.RespondWithError(c, fiber.StatusUnauthorized, &models.AppError{
		Code:    models.CodeUnauthenticated,
		Message: err.Error(),
	})
}

// AuthRequired is a middleware that enforces authentication for protected routes.
func AuthRequired(c *fiber.Ctx) error {
	token, err := bearerToken(c)
	if err != nil {
		return unauthenticated(c, err)
	}
	userID, err := ParseUserID(token)
	if err != nil {
		return unauthenticated(c, err)
	}
	c.Locals("userID", userID)
	return c.Next()
}

// OptionalAuth sets userID when a valid bearer token is present and
// otherwise lets the request through anonymously.
func OptionalAuth(c *fiber.Ctx) error {
	if token, err := bearerToken(c); err == nil {
		if userID, err := ParseUserID(token); err == nil {
			c.Locals("userID", userID)
		}
	}
	return c.Next()
}

// WebSocketAuthRequired validates a token passed as ?token= for WebSocket
// upgrades, falling back to the Authorization header.
func WebSocketAuthRequired(c *fiber.Ctx) error {
	token := c.Query("token")
	if token == "" {
		var err error
		if token, err = bearerToken(c); err != nil {
			return unauthenticated(c, err)
		}
	}
	userID, err := ParseUserID(token)
	if err != nil {
		return unauthenticated(c, err)
	}
	c.Locals("userID", userID)
	return c.Next()
}
