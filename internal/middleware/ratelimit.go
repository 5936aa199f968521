package middleware

import (
	"context"
	"errors"
	"log/slog"
	"os"
	"strconv"
	"time"

	"feedhub/internal/models"

	"github.com/gofiber/fiber/v2"
	"github.com/redis/go-redis/v9"
)

// FailPolicy decides what happens to a request when Redis cannot be reached.
type FailPolicy int

const (
	// FailOpen lets the request through.
	FailOpen FailPolicy = iota
	// FailClosed answers 503.
	FailClosed
)

var errNoLimiterStore = errors.New("rate limit store is not configured")

func rateLimitingEnabled() bool {
	switch os.Getenv("APP_ENV") {
	case "", "test", "development":
		return false
	}
	return true
}

// hit counts one request in the fixed window of key and returns the new count
// and the time left in the window. INCR and EXPIRE NX go out in one
// MULTI so a crash between them cannot leave a counter without a TTL.
func hit(ctx context.Context, rdb *redis.Client, key string, window time.Duration) (int64, time.Duration, error) {
	var incr *redis.IntCmd
	var ttl *redis.DurationCmd
	_, err := rdb.TxPipelined(ctx, func(p redis.Pipeliner) error {
		incr = p.Incr(ctx, key)
		p.ExpireNX(ctx, key, window)
		ttl = p.TTL(ctx, key)
		return nil
	})
	if err != nil {
		return 0, 0, err
	}
	return incr.Val(), ttl.Val(), nil
}

// CheckRateLimit reports whether id may make another request against
// resource. It always allows when APP_ENV is empty, test or development.
func CheckRateLimit(ctx context.Context, rdb *redis.Client, resource, id string, limit int, window time.Duration) (bool, error) {
	if !rateLimitingEnabled() {
		return true, nil
	}
	if rdb == nil {
		return false, errNoLimiterStore
	}
	count, _, err := hit(ctx, rdb, "rl:"+resource+":"+id, window)
	if err != nil {
		return false, err
	}
	return count <= int64(limit), nil
}

// RateLimit allows limit requests per window for each caller, keyed by user
// ID when authenticated and by IP otherwise. The optional name groups routes
// under one counter; it defaults to the request path. Redis errors fail open.
func RateLimit(rdb *redis.Client, limit int, window time.Duration, name ...string) fiber.Handler {
	return RateLimitWithPolicy(rdb, limit, window, FailOpen, name...)
}

// RateLimitWithPolicy is RateLimit with an explicit FailPolicy. Rejected
// requests get Retry-After in seconds.
func RateLimitWithPolicy(rdb *redis.Client, limit int, window time.Duration, policy FailPolicy, name ...string) fiber.Handler {
	return func(c *fiber.Ctx) error {
		if !rateLimitingEnabled() {
			return c.Next()
		}

		resource := c.Path()
		if len(name) > 0 {
			resource = name[0]
		}
		caller := "ip:" + c.IP()
		if uid, ok := c.Locals("userID").(uint); ok {
			caller = "user:" + strconv.FormatUint(uint64(uid), 10)
		}

		err := errNoLimiterStore
		var count int64
		var left time.Duration
		if rdb != nil {
			count, left, err = hit(c.UserContext(), rdb, "rl:"+resource+":"+caller, window)
		}
		if err != nil {
			if policy == FailOpen {
				return c.Next()
			}
			Logger.WarnContext(c.UserContext(), "rate limit store unavailable, rejecting request",
				slog.String("resource", resource),
				slog.String("error", err.Error()),
			)
			return models.RespondWithError(c, fiber.StatusServiceUnavailable,
				models.NewInternalError(errors.New("rate limit unavailable")))
		}

		c.Set("X-RateLimit-Limit", strconv.Itoa(limit))
		c.Set("X-RateLimit-Remaining", strconv.FormatInt(max(int64(limit)-count, 0), 10))
		if count > int64(limit) {
			if left > 0 {
				c.Set(fiber.HeaderRetryAfter, strconv.Itoa(int(left.Round(time.Second).Seconds())))
			}
			return models.RespondWithError(c, fiber.StatusTooManyRequests, &models.AppError{
				Code:    models.CodeRateLimitExceeded,
				Message: "rate limit exceeded",
			})
		}
		return c.Next()
	}
}
