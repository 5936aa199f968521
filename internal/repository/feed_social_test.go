package repository

import (
	"context"
	"testing"
	"time"

	"feedhub/internal/models"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

func TestFeedLikeRepository(t *testing.T) {
	db := setupTestDB(t)
	repo := NewFeedLikeRepository(db)
	ctx := context.Background()
	author := createUser(t, db, "ada")
	fan := createUser(t, db, "bob")
	feed := createFeed(t, db, author, "like me", time.Now())

	created, err := repo.Create(ctx, &models.FeedLike{FeedID: feed.ID, LikerID: fan.ID})
	require.NoError(t, err)
	assert.True(t, created)

	t.Run("duplicate like is a no-op", func(t *testing.T) {
		created, err := repo.Create(ctx, &models.FeedLike{FeedID: feed.ID, LikerID: fan.ID})
		require.NoError(t, err)
		assert.False(t, created)

		var count int64
		require.NoError(t, db.Model(&models.FeedLike{}).Count(&count).Error)
		assert.EqualValues(t, 1, count)
	})

	t.Run("find and delete", func(t *testing.T) {
		like, err := repo.Find(ctx, feed.ID, fan.ID)
		require.NoError(t, err)
		require.NotNil(t, like)

		require.NoError(t, repo.Delete(ctx, like))

		like, err = repo.Find(ctx, feed.ID, fan.ID)
		assert.NoError(t, err)
		assert.Nil(t, like)
	})
}

func TestFeedCommentRepository(t *testing.T) {
	db := setupTestDB(t)
	repo := NewFeedCommentRepository(db)
	ctx := context.Background()
	author := createUser(t, db, "ada")
	feed := createFeed(t, db, author, "talk to me", time.Now())

	base := time.Date(2024, 5, 1, 8, 0, 0, 0, time.UTC)
	older := &models.FeedComment{FeedID: feed.ID, CommenterID: author.ID, Content: "older", CreatedAt: base}
	newer := &models.FeedComment{FeedID: feed.ID, CommenterID: author.ID, Content: "newer", CreatedAt: base.Add(time.Minute)}
	require.NoError(t, repo.Create(ctx, older))
	require.NoError(t, repo.Create(ctx, newer))

	list, err := repo.ListByFeed(ctx, feed.ID)
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Equal(t, "newer", list[0].Content)
	assert.Equal(t, "ada", list[0].Commenter.Name)

	found, err := repo.FindByID(ctx, older.ID)
	require.NoError(t, err)
	require.NotNil(t, found)
	found.Content = "edited"
	require.NoError(t, repo.Update(ctx, found))

	found, err = repo.FindByID(ctx, older.ID)
	require.NoError(t, err)
	assert.Equal(t, "edited", found.Content)

	require.NoError(t, repo.Delete(ctx, found))
	found, err = repo.FindByID(ctx, older.ID)
	assert.NoError(t, err)
	assert.Nil(t, found)
}

func TestTagRepository_FindByNames(t *testing.T) {
	db := setupTestDB(t)
	repo := NewTagRepository(db)
	ctx := context.Background()

	require.NoError(t, db.Create(&[]models.Tag{{Name: "#go"}, {Name: "#sql"}}).Error)

	tags, err := repo.FindByNames(ctx, []string{"#go", "#rust"})
	require.NoError(t, err)
	require.Len(t, tags, 1)
	assert.Equal(t, "#go", tags[0].Name)

	tags, err = repo.FindByNames(ctx, nil)
	assert.NoError(t, err)
	assert.Empty(t, tags)
}

func TestResolveTag_ExistingTagKeepsTransactionUsable(t *testing.T) {
	db := setupTestDB(t)
	existing := models.Tag{Name: "#go"}
	require.NoError(t, db.Create(&existing).Error)

	err := db.Transaction(func(tx *gorm.DB) error {
		tag := models.Tag{Name: "#go"}
		if err := resolveTag(tx, &tag); err != nil {
			return err
		}
		assert.Equal(t, existing.ID, tag.ID)
		// The transaction must still accept statements after the conflict.
		fresh := models.Tag{Name: "#sql"}
		if err := resolveTag(tx, &fresh); err != nil {
			return err
		}
		assert.NotZero(t, fresh.ID)
		return nil
	})
	require.NoError(t, err)

	var count int64
	require.NoError(t, db.Model(&models.Tag{}).Count(&count).Error)
	assert.EqualValues(t, 2, count)
}

func TestResolveTag_PostgresSkipsConflictingInsert(t *testing.T) {
	db, mock := setupMockDB(t)

	mock.ExpectBegin()
	mock.ExpectQuery(`INSERT INTO "tags" \("tag"\) VALUES \(\$1\) ON CONFLICT \("tag"\) DO NOTHING`).
		WithArgs("#go").
		WillReturnRows(sqlmock.NewRows([]string{"id"}))
	mock.ExpectQuery(`SELECT \* FROM "tags" WHERE tag = \$1`).
		WillReturnRows(sqlmock.NewRows([]string{"id", "tag"}).AddRow(7, "#go"))
	mock.ExpectCommit()

	tag := models.Tag{Name: "#go"}
	require.NoError(t, db.Transaction(func(tx *gorm.DB) error {
		return resolveTag(tx, &tag)
	}))
	assert.EqualValues(t, 7, tag.ID)
	assert.NoError(t, mock.ExpectationsWereMet())
}
