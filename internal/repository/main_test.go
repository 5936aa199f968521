package repository

import (
	"context"
	"testing"
	"time"

	"feedhub/internal/database"
	"feedhub/internal/models"

	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// setupTestDB opens an isolated in-memory database with the full schema.
func setupTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)

	sqlDB, err := db.DB()
	require.NoError(t, err)
	// Every pooled connection to :memory: is a separate database.
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = sqlDB.Close() })

	require.NoError(t, db.AutoMigrate(database.PersistentModels()...))
	return db
}

func createUser(t *testing.T, db *gorm.DB, name string) *models.User {
	t.Helper()
	user := &models.User{Name: name, Email: name + "@example.com", Password: "hash", ProfileImage: name + ".png"}
	require.NoError(t, db.Create(user).Error)
	return user
}

func createFeed(t *testing.T, db *gorm.DB, author *models.User, content string, at time.Time) *models.Feed {
	t.Helper()
	feed := &models.Feed{Content: content, AuthorID: author.ID, CreatedAt: at, UpdatedAt: at}
	require.NoError(t, NewFeedRepository(db).Create(context.Background(), feed))
	return feed
}
