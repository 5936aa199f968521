package bootstrap

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"feedhub/internal/cache"
	"feedhub/internal/config"
	"feedhub/internal/database"
	"feedhub/internal/middleware"
	"feedhub/internal/models"
	"feedhub/internal/seed"

	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"
)

// Options control runtime initialization behavior.
type Options struct {
	// SeedDemo fills an empty development database with seed.DefaultOptions.
	SeedDemo bool
}

// InitRuntime connects to the database and Redis and optionally seeds demo data.
// The returned Redis client is nil when Redis is unreachable.
func InitRuntime(ctx context.Context, cfg *config.Config, opts Options) (*gorm.DB, *redis.Client, error) {
	db, err := database.Connect(cfg)
	if err != nil {
		return nil, nil, fmt.Errorf("database connection failed: %w", err)
	}

	cache.InitRedis(cfg.RedisURL)
	rdb := cache.GetClient()

	if opts.SeedDemo {
		if err := seedDemo(ctx, cfg, db); err != nil {
			return nil, nil, fmt.Errorf("failed to seed demo data: %w", err)
		}
	}

	return db, rdb, nil
}

func seedDemo(ctx context.Context, cfg *config.Config, db *gorm.DB) error {
	if cfg == nil || db == nil || !strings.EqualFold(cfg.Env, "development") {
		return nil
	}

	var users int64
	if err := db.WithContext(ctx).Model(&models.User{}).Count(&users).Error; err != nil {
		return err
	}
	if users > 0 {
		return nil
	}

	opts := seed.DefaultOptions()
	opts.SkipBcrypt = false
	seeder, err := seed.NewSeeder(db, opts)
	if err != nil {
		return err
	}
	sum, err := seeder.Run(ctx)
	if err != nil {
		return err
	}
	middleware.Logger.InfoContext(ctx, "demo data seeded",
		slog.Int("users", sum.Users),
		slog.Int("feeds", sum.Feeds),
	)
	return nil
}
