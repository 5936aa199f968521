package database

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"feedhub/internal/config"
	"feedhub/internal/middleware"

	"gorm.io/gorm"
)

const (
	SchemaModeHybrid = config.SchemaModeHybrid
	SchemaModeSQL    = config.SchemaModeSQL
	SchemaModeAuto   = config.SchemaModeAuto
)

// SchemaPlan is what ApplySchema will do for a configuration.
type SchemaPlan struct {
	Mode    string
	Env     string
	RunSQL  bool
	RunAuto bool
}

// SchemaStatus is a SchemaPlan plus the migration state of a live database.
type SchemaStatus struct {
	SchemaPlan
	AppliedVersions   []int
	PendingMigrations []Migration
}

// planSchema picks the schema steps for cfg.
//
//	mode    dev/test          production/staging
//	hybrid  SQL + AutoMigrate SQL only
//	sql     SQL only          SQL only
//	auto    AutoMigrate       refused unless DB_AUTOMIGRATE_ALLOW_DESTRUCTIVE
//
// The embedded SQL is PostgreSQL, so SQLite always auto-migrates and is
// refused in production-like environments.
func planSchema(cfg *config.Config) (SchemaPlan, error) {
	plan := SchemaPlan{Mode: strings.ToLower(strings.TrimSpace(cfg.DBSchemaMode)), Env: cfg.Env}
	if plan.Mode == "" {
		plan.Mode = SchemaModeHybrid
	}

	env := strings.ToLower(strings.TrimSpace(cfg.Env))
	prodLike := env == "production" || env == "prod" || env == "staging" || env == "stage"

	if cfg.DBDriver == "sqlite" {
		if prodLike {
			return plan, fmt.Errorf("sqlite is not supported in %q", cfg.Env)
		}
		plan.RunAuto = true
		return plan, nil
	}

	switch plan.Mode {
	case SchemaModeSQL:
		plan.RunSQL = true
	case SchemaModeHybrid:
		plan.RunSQL, plan.RunAuto = true, !prodLike
	case SchemaModeAuto:
		if prodLike && !cfg.DBAutoMigrateAllowDestructive {
			return plan, fmt.Errorf("refusing DB_SCHEMA_MODE=auto in %q without DB_AUTOMIGRATE_ALLOW_DESTRUCTIVE=true", cfg.Env)
		}
		plan.RunAuto = true
	default:
		return plan, fmt.Errorf("unsupported DB_SCHEMA_MODE %q", plan.Mode)
	}
	return plan, nil
}

// ApplySchema brings the database schema up to date according to DB_SCHEMA_MODE.
func ApplySchema(ctx context.Context, db *gorm.DB, cfg *config.Config) error {
	plan, err := planSchema(cfg)
	if err != nil {
		return err
	}

	if plan.RunSQL {
		if err := RunMigrations(ctx, db); err != nil {
			return fmt.Errorf("run sql migrations: %w", err)
		}
	}
	if !plan.RunAuto {
		return nil
	}

	if plan.Mode == SchemaModeAuto && cfg.DBAutoMigrateAllowDestructive {
		middleware.Logger.WarnContext(ctx, "auto-migrating with DB_AUTOMIGRATE_ALLOW_DESTRUCTIVE=true")
	}
	middleware.Logger.InfoContext(ctx, "running gorm AutoMigrate", slog.String("mode", plan.Mode), slog.String("env", plan.Env))
	if err := db.WithContext(ctx).AutoMigrate(PersistentModels()...); err != nil {
		return fmt.Errorf("auto-migrate: %w", err)
	}
	return nil
}

// GetSchemaStatus reports the plan for cfg and, when SQL migrations are part
// of it, which embedded migrations are applied and pending.
func GetSchemaStatus(ctx context.Context, db *gorm.DB, cfg *config.Config) (*SchemaStatus, error) {
	plan, err := planSchema(cfg)
	if err != nil {
		return nil, err
	}
	status := &SchemaStatus{SchemaPlan: plan}
	if !plan.RunSQL {
		return status, nil
	}

	status.AppliedVersions, status.PendingMigrations, err = NewMigrator(db, GetMigrations()).Pending(ctx)
	if err != nil {
		return nil, err
	}
	return status, nil
}
