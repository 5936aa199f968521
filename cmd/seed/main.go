// Command seed fills the database with generated users, profiles, feeds and connections.
package main

import (
	"context"
	"flag"
	"log/slog"
	"os"

	"feedhub/internal/config"
	"feedhub/internal/database"
	"feedhub/internal/middleware"
	"feedhub/internal/seed"
)

func main() {
	preset := flag.String("preset", "", "YAML file overriding the default seed counts")
	users := flag.Int("users", 0, "Number of users to create (overrides the preset)")
	clean := flag.Bool("clean", true, "Delete existing rows before seeding")
	flag.Parse()

	if err := run(*preset, *users, *clean); err != nil {
		middleware.Logger.Error("seeding failed", slog.String("error", err.Error()))
		os.Exit(1)
	}
}

func run(preset string, users int, clean bool) error {
	opts := seed.DefaultOptions()
	if preset != "" {
		loaded, err := seed.LoadPreset(preset)
		if err != nil {
			return err
		}
		opts = loaded
	}
	if users > 0 {
		opts.Users = users
	}

	cfg, err := config.LoadConfig()
	if err != nil {
		return err
	}
	db, err := database.Connect(cfg)
	if err != nil {
		return err
	}
	defer database.Close()

	s, err := seed.NewSeeder(db, opts)
	if err != nil {
		return err
	}

	ctx := context.Background()
	if clean {
		if err := s.ClearAll(ctx); err != nil {
			return err
		}
	}

	summary, err := s.Run(ctx)
	if err != nil {
		return err
	}
	middleware.Logger.Info("seeding complete",
		slog.Int("users", summary.Users),
		slog.Int("feeds", summary.Feeds),
		slog.Int("likes", summary.Likes),
		slog.Int("comments", summary.Comments),
		slog.Int("connections", summary.Connections),
		slog.String("password", seed.DefaultPassword),
	)
	return nil
}
