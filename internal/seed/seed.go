// Package seed fills a development database with users, profiles, feeds and
// the social graph around them.
package seed

import (
	"context"
	"fmt"
	"log/slog"
	"os"

	"feedhub/internal/database"
	"feedhub/internal/middleware"
	"feedhub/internal/models"

	"gopkg.in/yaml.v3"
	"gorm.io/gorm"
)

// Options controls how much data a run creates. It doubles as the schema of
// YAML preset files.
type Options struct {
	Users              int   `yaml:"users"`
	FeedsPerUser       int   `yaml:"feeds_per_user"`
	MaxLikesPerFeed    int   `yaml:"max_likes_per_feed"`
	MaxCommentsPerFeed int   `yaml:"max_comments_per_feed"`
	ConnectionsPerUser int   `yaml:"connections_per_user"`
	MaxDays            int   `yaml:"max_days"`
	SkipBcrypt         bool  `yaml:"skip_bcrypt"`
	RandomSeed         int64 `yaml:"random_seed"`
}

// DefaultOptions returns the counts used when no preset is given.
func DefaultOptions() Options {
	return Options{
		Users:              25,
		FeedsPerUser:       4,
		MaxLikesPerFeed:    10,
		MaxCommentsPerFeed: 4,
		ConnectionsPerUser: 3,
		MaxDays:            90,
	}
}

// Validate rejects presets that cannot produce a usable dataset.
func (o Options) Validate() error {
	if o.Users < 1 {
		return fmt.Errorf("users must be at least 1, got %d", o.Users)
	}
	for name, v := range map[string]int{
		"feeds_per_user":        o.FeedsPerUser,
		"max_likes_per_feed":    o.MaxLikesPerFeed,
		"max_comments_per_feed": o.MaxCommentsPerFeed,
		"connections_per_user":  o.ConnectionsPerUser,
		"max_days":              o.MaxDays,
	} {
		if v < 0 {
			return fmt.Errorf("%s must not be negative, got %d", name, v)
		}
	}
	return nil
}

// LoadPreset reads a YAML preset. Keys missing from the file keep their
// DefaultOptions value.
func LoadPreset(path string) (Options, error) {
	opts := DefaultOptions()
	raw, err := os.ReadFile(path)
	if err != nil {
		return opts, fmt.Errorf("read preset %s: %w", path, err)
	}
	if err := yaml.Unmarshal(raw, &opts); err != nil {
		return opts, fmt.Errorf("parse preset %s: %w", path, err)
	}
	if err := opts.Validate(); err != nil {
		return opts, fmt.Errorf("preset %s: %w", path, err)
	}
	return opts, nil
}

// Summary counts the rows a run created.
type Summary struct {
	Users       int
	Profiles    int
	Feeds       int
	Likes       int
	Comments    int
	Connections int
}

// Seeder runs a full seeding pass.
type Seeder struct {
	db      *gorm.DB
	opts    Options
	factory *Factory
}

func NewSeeder(db *gorm.DB, opts Options) (*Seeder, error) {
	if err := opts.Validate(); err != nil {
		return nil, err
	}
	factory, err := NewFactory(db, opts)
	if err != nil {
		return nil, err
	}
	return &Seeder{db: db, opts: opts, factory: factory}, nil
}

// ClearAll deletes every row of the persistent models, dependents first.
func (s *Seeder) ClearAll(ctx context.Context) error {
	all := database.PersistentModels()
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		for i := len(all) - 1; i >= 0; i-- {
			if err := tx.Session(&gorm.Session{AllowGlobalUpdate: true}).Unscoped().Delete(all[i]).Error; err != nil {
				return fmt.Errorf("clear %T: %w", all[i], err)
			}
		}
		return nil
	})
}

// Run creates users with profiles, then feeds, then likes, comments and
// connections among them.
func (s *Seeder) Run(ctx context.Context) (Summary, error) {
	var sum Summary
	f := s.factory

	users := make([]*models.User, 0, s.opts.Users)
	for i := 0; i < s.opts.Users; i++ {
		user, err := f.CreateUser(ctx, i)
		if err != nil {
			return sum, fmt.Errorf("create user %d: %w", i, err)
		}
		users = append(users, user)
		if _, err := f.CreateProfile(ctx, user); err != nil {
			return sum, fmt.Errorf("create profile for user %d: %w", user.ID, err)
		}
		sum.Profiles++
	}
	sum.Users = len(users)
	middleware.Logger.InfoContext(ctx, "seeded users", slog.Int("count", sum.Users))

	feeds := make([]*models.Feed, 0, len(users)*s.opts.FeedsPerUser)
	for _, user := range users {
		for i := 0; i < s.opts.FeedsPerUser; i++ {
			feed, err := f.CreateFeed(ctx, user)
			if err != nil {
				return sum, fmt.Errorf("create feed for user %d: %w", user.ID, err)
			}
			feeds = append(feeds, feed)
		}
	}
	sum.Feeds = len(feeds)

	for _, feed := range feeds {
		likes := f.rnd.Intn(s.opts.MaxLikesPerFeed + 1)
		for i := 0; i < likes; i++ {
			created, err := f.CreateLike(ctx, users[f.rnd.Intn(len(users))], feed)
			if err != nil {
				return sum, fmt.Errorf("like feed %d: %w", feed.ID, err)
			}
			if created {
				sum.Likes++
			}
		}
		comments := f.rnd.Intn(s.opts.MaxCommentsPerFeed + 1)
		for i := 0; i < comments; i++ {
			if _, err := f.CreateComment(ctx, users[f.rnd.Intn(len(users))], feed); err != nil {
				return sum, fmt.Errorf("comment on feed %d: %w", feed.ID, err)
			}
			sum.Comments++
		}
	}
	middleware.Logger.InfoContext(ctx, "seeded feeds",
		slog.Int("feeds", sum.Feeds),
		slog.Int("likes", sum.Likes),
		slog.Int("comments", sum.Comments),
	)

	if len(users) > 1 {
		for _, user := range users {
			for i := 0; i < s.opts.ConnectionsPerUser; i++ {
				target := users[f.rnd.Intn(len(users))]
				if target.ID == user.ID {
					continue
				}
				conn, err := f.CreateConnection(ctx, user, target, f.rnd.Float32() < 0.7)
				if err != nil {
					return sum, fmt.Errorf("connect %d to %d: %w", user.ID, target.ID, err)
				}
				if conn != nil {
					sum.Connections++
				}
			}
		}
	}
	middleware.Logger.InfoContext(ctx, "seeded connections", slog.Int("count", sum.Connections))
	return sum, nil
}
