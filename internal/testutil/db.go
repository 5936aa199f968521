// Package testutil provides shared fixtures for backend tests.
package testutil

import (
	"strings"
	"testing"

	"feedhub/internal/database"
	"feedhub/internal/models"

	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// Password is the plain-text password of users made by CreateUser.
const Password = "Password123!"

// NewSQLiteDB opens an isolated in-memory database with every persistent
// model migrated. The database is closed when the test ends.
func NewSQLiteDB(t testing.TB) *gorm.DB {
	t.Helper()

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)

	sqlDB, err := db.DB()
	require.NoError(t, err)
	// Each pooled connection to :memory: would see its own empty database.
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = sqlDB.Close() })

	require.NoError(t, db.AutoMigrate(database.PersistentModels()...))
	return db
}

// CreateUser inserts a user named name whose password is Password.
func CreateUser(t testing.TB, db *gorm.DB, name string) *models.User {
	t.Helper()

	hash, err := bcrypt.GenerateFromPassword([]byte(Password), bcrypt.MinCost)
	require.NoError(t, err)

	user := &models.User{
		Name:     name,
		Email:    strings.ToLower(name) + "@example.com",
		Password: string(hash),
	}
	require.NoError(t, db.Create(user).Error)
	return user
}
