package repository

import (
	"context"
	"regexp"
	"testing"
	"time"

	"feedhub/internal/models"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func feedTags(names ...string) []models.FeedTag {
	out := make([]models.FeedTag, 0, len(names))
	for _, n := range names {
		out = append(out, models.FeedTag{Tag: models.Tag{Name: n}})
	}
	return out
}

func TestFeedRepository_CreateWritesAggregate(t *testing.T) {
	db := setupTestDB(t)
	repo := NewFeedRepository(db)
	ctx := context.Background()
	author := createUser(t, db, "ada")

	feed := &models.Feed{
		Content:  "hello #go #gorm",
		AuthorID: author.ID,
		Images:   []models.FeedImage{{ImageURL: "a.png"}, {ImageURL: "b.png"}},
		Video:    &models.FeedVideo{VideoURL: "v.mp4"},
		FeedTags: feedTags("#go", "#gorm"),
	}
	require.NoError(t, repo.Create(ctx, feed))
	require.NotZero(t, feed.ID)
	require.NotNil(t, feed.VideoID)

	got, err := repo.FindWithRelations(ctx, feed.ID)
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, "ada", got.Author.Name)
	assert.Len(t, got.Images, 2)
	require.NotNil(t, got.Video)
	assert.Equal(t, "v.mp4", got.Video.VideoURL)
	assert.ElementsMatch(t, []string{"#go", "#gorm"}, got.TagNames())
}

func TestFeedRepository_CreateReusesExistingTags(t *testing.T) {
	db := setupTestDB(t)
	repo := NewFeedRepository(db)
	ctx := context.Background()
	author := createUser(t, db, "ada")

	require.NoError(t, repo.Create(ctx, &models.Feed{Content: "#go", AuthorID: author.ID, FeedTags: feedTags("#go")}))
	require.NoError(t, repo.Create(ctx, &models.Feed{Content: "#go again", AuthorID: author.ID, FeedTags: feedTags("#go")}))

	var count int64
	require.NoError(t, db.Model(&models.Tag{}).Count(&count).Error)
	assert.EqualValues(t, 1, count)
	require.NoError(t, db.Model(&models.FeedTag{}).Count(&count).Error)
	assert.EqualValues(t, 2, count)
}

func TestFeedRepository_FindMissing(t *testing.T) {
	db := setupTestDB(t)
	repo := NewFeedRepository(db)
	ctx := context.Background()

	feed, err := repo.FindByID(ctx, 42)
	assert.NoError(t, err)
	assert.Nil(t, feed)

	feed, err = repo.FindWithAuthorAndTags(ctx, 42)
	assert.NoError(t, err)
	assert.Nil(t, feed)

	feed, err = repo.FindWithRelations(ctx, 42)
	assert.NoError(t, err)
	assert.Nil(t, feed)
}

func TestFeedRepository_UpdateReplacesParts(t *testing.T) {
	db := setupTestDB(t)
	repo := NewFeedRepository(db)
	ctx := context.Background()
	author := createUser(t, db, "ada")

	feed := &models.Feed{
		Content:  "#a #b",
		AuthorID: author.ID,
		Images:   []models.FeedImage{{ImageURL: "old.png"}},
		Video:    &models.FeedVideo{VideoURL: "old.mp4"},
		FeedTags: feedTags("#a", "#b"),
	}
	require.NoError(t, repo.Create(ctx, feed))
	oldVideoID := *feed.VideoID

	current, err := repo.FindWithAuthorAndTags(ctx, feed.ID)
	require.NoError(t, err)
	var kept models.FeedTag
	for _, ft := range current.FeedTags {
		if ft.Tag.Name == "#b" {
			kept = ft
		}
	}
	require.NotZero(t, kept.ID)

	content := "#b #c"
	require.NoError(t, repo.Update(ctx, current, FeedChanges{
		Content: &content,
		Images:  []models.FeedImage{{ImageURL: "new1.png"}, {ImageURL: "new2.png"}},
		Video:   &models.FeedVideo{VideoURL: "new.mp4"},
		Tags:    append([]models.FeedTag{kept}, feedTags("#c")...),
	}))

	got, err := repo.FindWithRelations(ctx, feed.ID)
	require.NoError(t, err)
	assert.Equal(t, "#b #c", got.Content)
	assert.ElementsMatch(t, []string{"#b", "#c"}, got.TagNames())
	for _, ft := range got.FeedTags {
		if ft.Tag.Name == "#b" {
			assert.Equal(t, kept.ID, ft.ID, "kept tag row must be preserved")
		}
	}
	require.Len(t, got.Images, 2)
	require.NotNil(t, got.Video)
	assert.Equal(t, "new.mp4", got.Video.VideoURL)

	var count int64
	require.NoError(t, db.Model(&models.FeedVideo{}).Where("id = ?", oldVideoID).Count(&count).Error)
	assert.Zero(t, count)
}

func TestFeedRepository_UpdateWithoutChangesKeepsEverything(t *testing.T) {
	db := setupTestDB(t)
	repo := NewFeedRepository(db)
	ctx := context.Background()
	author := createUser(t, db, "ada")

	feed := &models.Feed{Content: "#a", AuthorID: author.ID, FeedTags: feedTags("#a"), Images: []models.FeedImage{{ImageURL: "x.png"}}}
	require.NoError(t, repo.Create(ctx, feed))

	require.NoError(t, repo.Update(ctx, feed, FeedChanges{}))

	got, err := repo.FindWithRelations(ctx, feed.ID)
	require.NoError(t, err)
	assert.Equal(t, "#a", got.Content)
	assert.Equal(t, []string{"#a"}, got.TagNames())
	assert.Len(t, got.Images, 1)
}

func TestFeedRepository_DeleteRemovesAggregate(t *testing.T) {
	db := setupTestDB(t)
	repo := NewFeedRepository(db)
	ctx := context.Background()
	author := createUser(t, db, "ada")
	fan := createUser(t, db, "bob")

	feed := &models.Feed{
		Content:  "#gone",
		AuthorID: author.ID,
		Images:   []models.FeedImage{{ImageURL: "a.png"}},
		Video:    &models.FeedVideo{VideoURL: "v.mp4"},
		FeedTags: feedTags("#gone"),
	}
	require.NoError(t, repo.Create(ctx, feed))
	_, err := NewFeedLikeRepository(db).Create(ctx, &models.FeedLike{FeedID: feed.ID, LikerID: fan.ID})
	require.NoError(t, err)
	require.NoError(t, NewFeedCommentRepository(db).Create(ctx, &models.FeedComment{FeedID: feed.ID, CommenterID: fan.ID, Content: "nice"}))

	require.NoError(t, repo.Delete(ctx, feed))

	for _, m := range []interface{}{&models.Feed{}, &models.FeedLike{}, &models.FeedComment{}, &models.FeedTag{}, &models.FeedImage{}, &models.FeedVideo{}} {
		var count int64
		require.NoError(t, db.Model(m).Count(&count).Error)
		assert.Zero(t, count, "%T rows left behind", m)
	}

	var tags int64
	require.NoError(t, db.Model(&models.Tag{}).Count(&tags).Error)
	assert.EqualValues(t, 1, tags, "tags are shared and outlive feeds")
}

func TestFeedRepository_FindAll(t *testing.T) {
	db := setupTestDB(t)
	repo := NewFeedRepository(db)
	ctx := context.Background()
	author := createUser(t, db, "ada")
	viewer := createUser(t, db, "bob")

	base := time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC)
	older := createFeed(t, db, author, "older post", base)
	newer := createFeed(t, db, author, "newer post", base.Add(time.Hour))
	_, err := NewFeedLikeRepository(db).Create(ctx, &models.FeedLike{FeedID: older.ID, LikerID: viewer.ID})
	require.NoError(t, err)

	spec, err := BuildFeedQuery(models.FeedQuery{Sort: models.FeedSortRecent})
	require.NoError(t, err)

	feeds, err := repo.FindAll(ctx, spec, viewer.ID)
	require.NoError(t, err)
	require.Len(t, feeds, 2)
	assert.Equal(t, newer.ID, feeds[0].ID)
	assert.False(t, feeds[0].IsLiked)
	assert.True(t, feeds[1].IsLiked)
	assert.Equal(t, 1, feeds[1].LikesCount)
	assert.Equal(t, "ada", feeds[1].Author.Name)
}

func TestFeedRepository_FindAll_QueryShape(t *testing.T) {
	db, mock := setupMockDB(t)
	repo := NewFeedRepository(db)

	spec := FeedQuerySpec{
		Predicates: []Predicate{{Kind: PredicateContentContains, Value: "go"}},
		Order:      []Ordering{{Column: "created_at", Desc: true}},
		Limit:      5,
	}

	mock.ExpectQuery(regexp.QuoteMeta(`SELECT * FROM "feeds" WHERE feeds.content LIKE $1 ORDER BY "feeds"."created_at" DESC LIMIT $2`)).
		WithArgs("%go%", 5).
		WillReturnRows(sqlmock.NewRows([]string{"id", "content"}))

	feeds, err := repo.FindAll(context.Background(), spec, 0)
	require.NoError(t, err)
	assert.Empty(t, feeds)
	assert.NoError(t, mock.ExpectationsWereMet())
}
