package repository

import (
	"context"
	"errors"

	"feedhub/internal/cache"
	"feedhub/internal/models"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// FeedLikeRepository defines persistence operations for feed likes.
type FeedLikeRepository interface {
	// Create inserts like and reports whether a new row was written. Liking a
	// feed twice is a no-op.
	Create(ctx context.Context, like *models.FeedLike) (bool, error)
	Find(ctx context.Context, feedID, likerID uint) (*models.FeedLike, error)
	Delete(ctx context.Context, like *models.FeedLike) error
}

type feedLikeRepository struct {
	db *gorm.DB
}

// NewFeedLikeRepository creates a new FeedLikeRepository
func NewFeedLikeRepository(db *gorm.DB) FeedLikeRepository {
	return &feedLikeRepository{db: db}
}

func (r *feedLikeRepository) Create(ctx context.Context, like *models.FeedLike) (bool, error) {
	res := r.db.WithContext(ctx).
		Clauses(clause.OnConflict{DoNothing: true}).
		Omit("Liker").
		Create(like)
	if res.Error != nil {
		return false, models.NewInternalError(res.Error)
	}
	if res.RowsAffected == 0 {
		return false, nil
	}
	cache.Feeds.Invalidate(ctx, like.FeedID)
	return true, nil
}

func (r *feedLikeRepository) Find(ctx context.Context, feedID, likerID uint) (*models.FeedLike, error) {
	var like models.FeedLike
	if err := r.db.WithContext(ctx).
		Where("feed_id = ? AND liker_id = ?", feedID, likerID).
		First(&like).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, models.NewInternalError(err)
	}
	return &like, nil
}

func (r *feedLikeRepository) Delete(ctx context.Context, like *models.FeedLike) error {
	if err := r.db.WithContext(ctx).Delete(&models.FeedLike{}, like.ID).Error; err != nil {
		return models.NewInternalError(err)
	}
	cache.Feeds.Invalidate(ctx, like.FeedID)
	return nil
}
