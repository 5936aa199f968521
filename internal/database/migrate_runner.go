package database

import (
	"context"
	"fmt"
	"log/slog"
	"slices"
	"strings"
	"time"

	"feedhub/internal/middleware"

	"gorm.io/gorm"
)

// MigrationLog is one applied migration, stored in migration_logs.
type MigrationLog struct {
	Version   int       `gorm:"primaryKey;autoIncrement:false"`
	Name      string    `gorm:"size:255;not null"`
	AppliedAt time.Time `gorm:"autoCreateTime;index"`
}

func (MigrationLog) TableName() string {
	return "migration_logs"
}

// MigrationStore records which migrations ran and executes their SQL.
type MigrationStore interface {
	GetAppliedMigrations(ctx context.Context) ([]int, error)
	ApplyMigration(ctx context.Context, version int, name, sql string) error
	RemoveMigration(ctx context.Context, version int) error
}

type migrationStore struct {
	db *gorm.DB
}

// NewMigrationStore returns a MigrationStore backed by the migration_logs table.
func NewMigrationStore(db *gorm.DB) MigrationStore {
	return &migrationStore{db: db}
}

func (s *migrationStore) GetAppliedMigrations(ctx context.Context) ([]int, error) {
	versions := []int{}
	err := s.db.WithContext(ctx).Model(&MigrationLog{}).Order("version ASC").Pluck("version", &versions).Error
	if err != nil && !isMissingTableError(err) {
		return nil, fmt.Errorf("failed to get applied migrations: %w", err)
	}
	return versions, nil
}

func isMissingTableError(err error) bool {
	msg := err.Error()
	return strings.Contains(msg, "no such table") ||
		(strings.Contains(msg, "relation") && strings.Contains(msg, "does not exist"))
}

// ApplyMigration runs sql and records version in one transaction.
func (s *migrationStore) ApplyMigration(ctx context.Context, version int, name, sql string) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Exec(sql).Error; err != nil {
			return fmt.Errorf("failed to apply migration %d (%s): %w", version, name, err)
		}
		if err := tx.Create(&MigrationLog{Version: version, Name: name}).Error; err != nil {
			return fmt.Errorf("failed to record migration %d: %w", version, err)
		}
		return nil
	})
}

func (s *migrationStore) RemoveMigration(ctx context.Context, version int) error {
	if err := s.db.WithContext(ctx).Where("version = ?", version).Delete(&MigrationLog{}).Error; err != nil {
		return fmt.Errorf("failed to remove migration record %d: %w", version, err)
	}
	return nil
}

// Migrator applies a fixed, version-ordered set of migrations.
type Migrator struct {
	db    *gorm.DB
	store MigrationStore
	set   []Migration
}

// NewMigrator returns a Migrator over set. Pass GetMigrations() for the
// migrations shipped with the binary.
func NewMigrator(db *gorm.DB, set []Migration) *Migrator {
	return &Migrator{db: db, store: NewMigrationStore(db), set: set}
}

// Pending returns the migrations not yet recorded, in version order. It fails
// when the database has versions this binary does not know about.
func (m *Migrator) Pending(ctx context.Context) (applied []int, pending []Migration, err error) {
	applied, err = m.store.GetAppliedMigrations(ctx)
	if err != nil {
		return nil, nil, err
	}
	if err := validateAppliedVersions(applied, m.set); err != nil {
		return nil, nil, err
	}
	for _, mig := range m.set {
		if !slices.Contains(applied, mig.Version) {
			pending = append(pending, mig)
		}
	}
	return applied, pending, nil
}

// Up creates migration_logs if needed and applies every pending migration.
// It stops at the first failure; earlier migrations stay applied.
func (m *Migrator) Up(ctx context.Context) (int, error) {
	if err := m.db.WithContext(ctx).AutoMigrate(&MigrationLog{}); err != nil {
		return 0, fmt.Errorf("failed to ensure migration logs table: %w", err)
	}
	_, pending, err := m.Pending(ctx)
	if err != nil {
		return 0, err
	}
	for i, mig := range pending {
		if err := m.store.ApplyMigration(ctx, mig.Version, mig.Name, mig.UpScript); err != nil {
			return i, err
		}
		middleware.Logger.InfoContext(ctx, "migration applied", slog.String("migration", mig.String()))
	}
	return len(pending), nil
}

// Down runs the down script of an applied migration and forgets it.
func (m *Migrator) Down(ctx context.Context, version int) error {
	i := slices.IndexFunc(m.set, func(mig Migration) bool { return mig.Version == version })
	if i < 0 {
		return fmt.Errorf("migration version %d not found", version)
	}
	mig := m.set[i]

	applied, err := m.store.GetAppliedMigrations(ctx)
	if err != nil {
		return err
	}
	if !slices.Contains(applied, version) {
		return fmt.Errorf("migration %d has not been applied", version)
	}

	if err := m.db.WithContext(ctx).Exec(mig.DownScript).Error; err != nil {
		return fmt.Errorf("failed to run rollback SQL for migration %s: %w", mig.String(), err)
	}
	if err := m.store.RemoveMigration(ctx, version); err != nil {
		return err
	}
	middleware.Logger.InfoContext(ctx, "migration rolled back", slog.String("migration", mig.String()))
	return nil
}

func validateAppliedVersions(applied []int, registered []Migration) error {
	var unknown []string
	for _, version := range applied {
		known := slices.ContainsFunc(registered, func(m Migration) bool { return m.Version == version })
		if !known {
			unknown = append(unknown, fmt.Sprintf("%06d", version))
		}
	}
	if len(unknown) == 0 {
		return nil
	}
	slices.Sort(unknown)
	return fmt.Errorf("migration_logs contains versions this build does not know: %s (roll back with cmd/migrate or recreate the database)",
		strings.Join(unknown, ", "))
}

// RunMigrations applies the embedded migrations that have not run yet.
func RunMigrations(ctx context.Context, db *gorm.DB) error {
	_, err := NewMigrator(db, GetMigrations()).Up(ctx)
	return err
}

// RollbackMigration reverts one embedded migration by version.
func RollbackMigration(ctx context.Context, db *gorm.DB, version int) error {
	return NewMigrator(db, GetMigrations()).Down(ctx, version)
}
