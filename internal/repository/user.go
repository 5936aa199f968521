package repository

import (
	"context"
	"errors"
	"strings"
	"time"

	"feedhub/internal/cache"
	"feedhub/internal/models"

	"gorm.io/gorm"
)

// UserRepository defines persistence operations for users.
type UserRepository interface {
	FindByID(ctx context.Context, id uint) (*models.User, error)
	FindByEmail(ctx context.Context, email string) (*models.User, error)
	Create(ctx context.Context, user *models.User) error
	Update(ctx context.Context, user *models.User) error
}

type userRepository struct {
	db *gorm.DB
}

// NewUserRepository returns a new UserRepository implementation.
func NewUserRepository(db *gorm.DB) UserRepository {
	return &userRepository{db: db}
}

// FindByID returns nil, nil when no user has the id.
func (r *userRepository) FindByID(ctx context.Context, id uint) (*models.User, error) {
	var user models.User
	err := cache.Users.Load(ctx, id, &user, func() error {
		return readDB(r.db).WithContext(ctx).First(&user, id).Error
	})
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, models.NewInternalError(err)
	}
	return &user, nil
}

func (r *userRepository) FindByEmail(ctx context.Context, email string) (*models.User, error) {
	var user models.User
	if err := readDB(r.db).WithContext(ctx).
		Where("email = ?", strings.ToLower(strings.TrimSpace(email))).
		First(&user).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, models.NewInternalError(err)
	}
	return &user, nil
}

func (r *userRepository) Create(ctx context.Context, user *models.User) error {
	user.Email = strings.ToLower(strings.TrimSpace(user.Email))
	if err := r.db.WithContext(ctx).Create(user).Error; err != nil {
		if isUniqueConstraintError(err) {
			return models.NewValidationError("User already exists")
		}
		return models.NewInternalError(err)
	}
	return nil
}

// Update writes the editable profile columns of user. The password and
// email are never touched here: a user loaded from cache has no password hash.
// Cached feeds embed the names and images of their author, likers and
// commenters, so every feed the user appears in is invalidated too.
func (r *userRepository) Update(ctx context.Context, user *models.User) error {
	var feedIDs []uint
	err := r.db.WithContext(ctx).Raw(`SELECT id FROM feeds WHERE author_id = ?
		UNION SELECT feed_id FROM feed_likes WHERE liker_id = ?
		UNION SELECT feed_id FROM feed_comments WHERE commenter_id = ?`,
		user.ID, user.ID, user.ID).Scan(&feedIDs).Error
	if err != nil {
		return models.NewInternalError(err)
	}

	err = r.db.WithContext(ctx).Model(user).
		Select("name", "profile_image", "updated_at").
		Updates(map[string]any{
			"name":          user.Name,
			"profile_image": user.ProfileImage,
			"updated_at":    time.Now(),
		}).Error
	if err != nil {
		return models.NewInternalError(err)
	}
	cache.Users.Invalidate(ctx, user.ID)
	cache.Feeds.Invalidate(ctx, feedIDs...)
	return nil
}
