package repository

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"feedhub/internal/cache"
	"feedhub/internal/database"
	"feedhub/internal/models"
	"feedhub/internal/observability"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// FeedChanges describes a partial feed update. Nil fields are left untouched.
type FeedChanges struct {
	Content *string
	// Images replaces every image of the feed.
	Images []models.FeedImage
	// Video replaces the feed's video.
	Video *models.FeedVideo
	// Tags is the complete new tag set. Rows with an ID are kept as they
	// are; rows without one are inserted; any other row is dropped.
	Tags []models.FeedTag
}

// FeedRepository defines persistence operations for feeds.
type FeedRepository interface {
	BuildQuery(q models.FeedQuery) (FeedQuerySpec, error)
	FindAll(ctx context.Context, spec FeedQuerySpec, viewerID uint) ([]*models.Feed, error)
	FindAggregated(ctx context.Context, spec FeedQuerySpec, viewerID uint) ([]*models.Feed, error)
	FindByID(ctx context.Context, id uint) (*models.Feed, error)
	FindWithAuthorAndTags(ctx context.Context, id uint) (*models.Feed, error)
	FindWithRelations(ctx context.Context, id uint) (*models.Feed, error)
	Create(ctx context.Context, feed *models.Feed) error
	Update(ctx context.Context, feed *models.Feed, changes FeedChanges) error
	Delete(ctx context.Context, feed *models.Feed) error
}

type feedRepository struct {
	db     *gorm.DB
	logger *observability.RepoLogger
}

// NewFeedRepository creates a new feed repository
func NewFeedRepository(db *gorm.DB) FeedRepository {
	return &feedRepository{db: db, logger: observability.NewRepoLogger("feeds")}
}

func (r *feedRepository) BuildQuery(q models.FeedQuery) (FeedQuerySpec, error) {
	return BuildFeedQuery(q)
}

func (r *feedRepository) FindAll(ctx context.Context, spec FeedQuerySpec, viewerID uint) ([]*models.Feed, error) {
	db := readDB(r.db)
	ctx, done := observability.StartQuery(ctx, database.Dialect(db), "find_all", "feeds")

	var feeds []*models.Feed
	err := spec.apply(db.WithContext(ctx).Model(&models.Feed{})).Find(&feeds).Error
	done(err)
	if err != nil {
		return nil, models.NewInternalError(err)
	}
	for _, feed := range feeds {
		feed.LikesCount = len(feed.Likes)
		feed.CommentsCount = len(feed.Comments)
		feed.IsLiked = feed.IsLikedBy(viewerID)
	}
	return feeds, nil
}

// first loads one feed, returning nil, nil when it does not exist.
func (r *feedRepository) first(ctx context.Context, id uint, scope func(*gorm.DB) *gorm.DB) (*models.Feed, error) {
	var feed models.Feed
	err := scope(r.db.WithContext(ctx)).First(&feed, id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, models.NewInternalError(err)
	}
	return &feed, nil
}

func (r *feedRepository) FindByID(ctx context.Context, id uint) (*models.Feed, error) {
	return r.first(ctx, id, func(db *gorm.DB) *gorm.DB { return db })
}

func (r *feedRepository) FindWithAuthorAndTags(ctx context.Context, id uint) (*models.Feed, error) {
	return r.first(ctx, id, func(db *gorm.DB) *gorm.DB {
		return db.Preload(RelationAuthor).Preload(RelationTags)
	})
}

// FindWithRelations loads the full feed expansion through the feed cache.
func (r *feedRepository) FindWithRelations(ctx context.Context, id uint) (*models.Feed, error) {
	spec := FeedQuerySpec{
		CommentOrder: newestFirst,
		Relations:    append(ListRelations(), RelationTags),
	}

	var feed models.Feed
	err := cache.Feeds.Load(ctx, id, &feed, func() error {
		return spec.applyRelations(readDB(r.db).WithContext(ctx)).First(&feed, id).Error
	})
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, models.NewInternalError(err)
	}
	return &feed, nil
}

func (r *feedRepository) Create(ctx context.Context, feed *models.Feed) error {
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if feed.Video != nil {
			if err := tx.Create(feed.Video).Error; err != nil {
				return err
			}
			feed.VideoID = &feed.Video.ID
		}
		if err := tx.Omit(clause.Associations).Create(feed).Error; err != nil {
			return err
		}
		if err := createImages(tx, feed.ID, feed.Images); err != nil {
			return err
		}
		return attachTags(tx, feed.ID, feed.FeedTags)
	})
	if err != nil {
		r.logger.Write(ctx, "create", err, slog.Uint64("author_id", uint64(feed.AuthorID)))
		return models.NewInternalError(err)
	}
	r.logger.Write(ctx, "create", nil,
		slog.Uint64("feed_id", uint64(feed.ID)),
		slog.Uint64("author_id", uint64(feed.AuthorID)),
		slog.Int("tags", len(feed.FeedTags)),
	)
	return nil
}

func createImages(tx *gorm.DB, feedID uint, images []models.FeedImage) error {
	if len(images) == 0 {
		return nil
	}
	for i := range images {
		images[i].ID = 0
		images[i].FeedID = feedID
	}
	return tx.Create(&images).Error
}

// attachTags resolves unsaved tags and inserts the FeedTag rows that are new.
func attachTags(tx *gorm.DB, feedID uint, feedTags []models.FeedTag) error {
	for i := range feedTags {
		ft := &feedTags[i]
		if ft.ID != 0 {
			continue
		}
		if err := resolveTag(tx, &ft.Tag); err != nil {
			return err
		}
		ft.FeedID = feedID
		ft.TagID = ft.Tag.ID
		if err := tx.Omit("Tag").Create(ft).Error; err != nil {
			return err
		}
	}
	return nil
}

func (r *feedRepository) Update(ctx context.Context, feed *models.Feed, changes FeedChanges) error {
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		updates := map[string]interface{}{"updated_at": time.Now()}
		if changes.Content != nil {
			updates["content"] = *changes.Content
		}

		if changes.Images != nil {
			if err := tx.Where("feed_id = ?", feed.ID).Delete(&models.FeedImage{}).Error; err != nil {
				return err
			}
			if err := createImages(tx, feed.ID, changes.Images); err != nil {
				return err
			}
		}

		var staleVideoID *uint
		if changes.Video != nil {
			if err := tx.Create(changes.Video).Error; err != nil {
				return err
			}
			staleVideoID = feed.VideoID
			updates["video_id"] = changes.Video.ID
		}

		if changes.Tags != nil {
			keep := make([]uint, 0, len(changes.Tags))
			for _, ft := range changes.Tags {
				if ft.ID != 0 {
					keep = append(keep, ft.ID)
				}
			}
			drop := tx.Where("feed_id = ?", feed.ID)
			if len(keep) > 0 {
				drop = drop.Where("id NOT IN ?", keep)
			}
			if err := drop.Delete(&models.FeedTag{}).Error; err != nil {
				return err
			}
			if err := attachTags(tx, feed.ID, changes.Tags); err != nil {
				return err
			}
		}

		if err := tx.Model(&models.Feed{}).Where("id = ?", feed.ID).Updates(updates).Error; err != nil {
			return err
		}
		if staleVideoID != nil {
			return tx.Delete(&models.FeedVideo{}, *staleVideoID).Error
		}
		return nil
	})
	if err != nil {
		r.logger.Write(ctx, "update", err, slog.Uint64("feed_id", uint64(feed.ID)))
		return models.NewInternalError(err)
	}

	cache.Feeds.Invalidate(ctx, feed.ID)
	r.logger.Write(ctx, "update", nil, slog.Uint64("feed_id", uint64(feed.ID)))
	return nil
}

// Delete removes the feed with its likes, comments, tags and images, then its video.
func (r *feedRepository) Delete(ctx context.Context, feed *models.Feed) error {
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		for _, child := range []interface{}{&models.FeedLike{}, &models.FeedComment{}, &models.FeedTag{}, &models.FeedImage{}} {
			if err := tx.Where("feed_id = ?", feed.ID).Delete(child).Error; err != nil {
				return err
			}
		}
		if err := tx.Delete(&models.Feed{}, feed.ID).Error; err != nil {
			return err
		}
		if feed.VideoID != nil {
			return tx.Delete(&models.FeedVideo{}, *feed.VideoID).Error
		}
		return nil
	})
	if err != nil {
		r.logger.Write(ctx, "delete", err, slog.Uint64("feed_id", uint64(feed.ID)))
		return models.NewInternalError(err)
	}

	cache.Feeds.Invalidate(ctx, feed.ID)
	r.logger.Write(ctx, "delete", nil, slog.Uint64("feed_id", uint64(feed.ID)))
	return nil
}
