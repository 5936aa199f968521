package repository

import (
	"context"
	"errors"

	"feedhub/internal/cache"
	"feedhub/internal/models"

	"gorm.io/gorm"
)

// FeedCommentRepository defines interface for feed comment operations
type FeedCommentRepository interface {
	Create(ctx context.Context, comment *models.FeedComment) error
	FindByID(ctx context.Context, id uint) (*models.FeedComment, error)
	ListByFeed(ctx context.Context, feedID uint) ([]*models.FeedComment, error)
	Update(ctx context.Context, comment *models.FeedComment) error
	Delete(ctx context.Context, comment *models.FeedComment) error
}

type feedCommentRepository struct {
	db *gorm.DB
}

// NewFeedCommentRepository creates a new FeedCommentRepository
func NewFeedCommentRepository(db *gorm.DB) FeedCommentRepository {
	return &feedCommentRepository{db: db}
}

func (r *feedCommentRepository) Create(ctx context.Context, comment *models.FeedComment) error {
	if err := r.db.WithContext(ctx).Omit("Commenter").Create(comment).Error; err != nil {
		return models.NewInternalError(err)
	}
	cache.Feeds.Invalidate(ctx, comment.FeedID)
	return nil
}

func (r *feedCommentRepository) FindByID(ctx context.Context, id uint) (*models.FeedComment, error) {
	var comment models.FeedComment
	if err := r.db.WithContext(ctx).Preload("Commenter").First(&comment, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, models.NewInternalError(err)
	}
	return &comment, nil
}

func (r *feedCommentRepository) ListByFeed(ctx context.Context, feedID uint) ([]*models.FeedComment, error) {
	var comments []*models.FeedComment
	err := readDB(r.db).WithContext(ctx).
		Preload("Commenter").
		Where("feed_id = ?", feedID).
		Order("created_at DESC").
		Order("id DESC").
		Find(&comments).Error
	if err != nil {
		return nil, models.NewInternalError(err)
	}
	return comments, nil
}

func (r *feedCommentRepository) Update(ctx context.Context, comment *models.FeedComment) error {
	if err := r.db.WithContext(ctx).Omit("Commenter").Save(comment).Error; err != nil {
		return models.NewInternalError(err)
	}
	cache.Feeds.Invalidate(ctx, comment.FeedID)
	return nil
}

func (r *feedCommentRepository) Delete(ctx context.Context, comment *models.FeedComment) error {
	if err := r.db.WithContext(ctx).Delete(&models.FeedComment{}, comment.ID).Error; err != nil {
		return models.NewInternalError(err)
	}
	cache.Feeds.Invalidate(ctx, comment.FeedID)
	return nil
}
