// Package cache holds the shared Redis client and the cache-aside helpers
// the repositories read through.
package cache

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"feedhub/internal/middleware"

	"github.com/redis/go-redis/v9"
)

const pingTimeout = 5 * time.Second

var client *redis.Client

// errorCounter feeds middleware.RedisErrors. A miss (redis.Nil) is not an error.
type errorCounter struct{}

func (errorCounter) DialHook(next redis.DialHook) redis.DialHook { return next }

func (errorCounter) ProcessHook(next redis.ProcessHook) redis.ProcessHook {
	return func(ctx context.Context, cmd redis.Cmder) error {
		err := next(ctx, cmd)
		countFailure(cmd)
		return err
	}
}

func (errorCounter) ProcessPipelineHook(next redis.ProcessPipelineHook) redis.ProcessPipelineHook {
	return func(ctx context.Context, cmds []redis.Cmder) error {
		err := next(ctx, cmds)
		for _, cmd := range cmds {
			countFailure(cmd)
		}
		return err
	}
}

func countFailure(cmd redis.Cmder) {
	if err := cmd.Err(); err != nil && !errors.Is(err, redis.Nil) {
		middleware.RedisErrors.WithLabelValues(cmd.Name()).Inc()
	}
}

// NewClient parses addr (host:port or a redis:// URL), installs the error
// counter and checks the server answers PING.
func NewClient(ctx context.Context, addr string) (*redis.Client, error) {
	opts := &redis.Options{Addr: addr}
	if strings.Contains(addr, "://") {
		parsed, err := redis.ParseURL(addr)
		if err != nil {
			return nil, fmt.Errorf("parse redis url: %w", err)
		}
		opts = parsed
	}

	rdb := redis.NewClient(opts)
	rdb.AddHook(errorCounter{})

	ctx, cancel := context.WithTimeout(ctx, pingTimeout)
	defer cancel()
	if err := rdb.Ping(ctx).Err(); err != nil {
		_ = rdb.Close()
		return nil, fmt.Errorf("ping redis at %s: %w", opts.Addr, err)
	}
	return rdb, nil
}

// InitRedis connects the package client. When Redis cannot be reached the
// client stays nil and every cache helper becomes a pass-through.
func InitRedis(addr string) {
	rdb, err := NewClient(context.Background(), addr)
	if err != nil {
		middleware.Logger.Warn("redis unavailable, continuing without cache", slog.String("error", err.Error()))
		client = nil
		return
	}
	client = rdb
	middleware.Logger.Info("redis connected", slog.String("addr", rdb.Options().Addr))
}

// SetClient replaces the package client; tests point it at miniredis.
func SetClient(c *redis.Client) {
	if c != nil {
		c.AddHook(errorCounter{})
	}
	client = c
}

// GetClient returns the package client, which may be nil.
func GetClient() *redis.Client {
	return client
}
