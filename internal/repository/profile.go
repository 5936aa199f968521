package repository

import (
	"context"
	"errors"
	"log/slog"

	"feedhub/internal/cache"
	"feedhub/internal/models"
	"feedhub/internal/observability"

	"gorm.io/gorm"
)

// ProfileRepository defines persistence operations for profiles and the
// experience and website rows they own.
type ProfileRepository interface {
	FindByID(ctx context.Context, id uint) (*models.Profile, error)
	FindByUserID(ctx context.Context, userID uint) (*models.Profile, error)
	Save(ctx context.Context, profile *models.Profile) error

	ListExperiences(ctx context.Context, profileID uint) ([]models.ProfileExperience, error)
	FindExperience(ctx context.Context, id uint) (*models.ProfileExperience, error)
	CreateExperience(ctx context.Context, exp *models.ProfileExperience) error
	UpdateExperience(ctx context.Context, exp *models.ProfileExperience) error
	DeleteExperience(ctx context.Context, exp *models.ProfileExperience) error

	ListWebsites(ctx context.Context, profileID uint) ([]models.ProfileWebsite, error)
	CreateWebsite(ctx context.Context, site *models.ProfileWebsite) error
}

type profileRepository struct {
	db     *gorm.DB
	logger *observability.RepoLogger
}

// NewProfileRepository returns a new ProfileRepository implementation.
func NewProfileRepository(db *gorm.DB) ProfileRepository {
	return &profileRepository{db: db, logger: observability.NewRepoLogger("profiles")}
}

func withProfileRelations(db *gorm.DB) *gorm.DB {
	return db.
		Preload("User").
		Preload("Experiences", func(tx *gorm.DB) *gorm.DB { return tx.Order("start_date DESC") }).
		Preload("Websites", func(tx *gorm.DB) *gorm.DB { return tx.Order("id") })
}

// FindByID returns nil, nil when the profile does not exist.
func (r *profileRepository) FindByID(ctx context.Context, id uint) (*models.Profile, error) {
	var profile models.Profile
	err := cache.Profiles.Load(ctx, id, &profile, func() error {
		return withProfileRelations(readDB(r.db).WithContext(ctx)).First(&profile, id).Error
	})
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, models.NewInternalError(err)
	}
	return &profile, nil
}

func (r *profileRepository) FindByUserID(ctx context.Context, userID uint) (*models.Profile, error) {
	var profile models.Profile
	if err := withProfileRelations(readDB(r.db).WithContext(ctx)).
		Where("user_id = ?", userID).
		First(&profile).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, models.NewInternalError(err)
	}
	return &profile, nil
}

// Save inserts or updates the profile's own columns. Owned rows are written
// through their dedicated methods.
func (r *profileRepository) Save(ctx context.Context, profile *models.Profile) error {
	if err := r.db.WithContext(ctx).Omit("User", "Experiences", "Websites").Save(profile).Error; err != nil {
		if isUniqueConstraintError(err) {
			return models.NewValidationError("Profile already exists")
		}
		r.logger.Write(ctx, "save", err, slog.Uint64("user_id", uint64(profile.UserID)))
		return models.NewInternalError(err)
	}
	cache.Profiles.Invalidate(ctx, profile.ID)
	r.logger.Write(ctx, "save", nil,
		slog.Uint64("profile_id", uint64(profile.ID)),
		slog.Uint64("user_id", uint64(profile.UserID)),
	)
	return nil
}

func (r *profileRepository) ListExperiences(ctx context.Context, profileID uint) ([]models.ProfileExperience, error) {
	var exps []models.ProfileExperience
	if err := readDB(r.db).WithContext(ctx).
		Where("profile_id = ?", profileID).
		Order("start_date DESC").
		Find(&exps).Error; err != nil {
		return nil, models.NewInternalError(err)
	}
	return exps, nil
}

func (r *profileRepository) FindExperience(ctx context.Context, id uint) (*models.ProfileExperience, error) {
	var exp models.ProfileExperience
	if err := r.db.WithContext(ctx).First(&exp, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, models.NewInternalError(err)
	}
	return &exp, nil
}

func (r *profileRepository) CreateExperience(ctx context.Context, exp *models.ProfileExperience) error {
	if err := r.db.WithContext(ctx).Create(exp).Error; err != nil {
		return models.NewInternalError(err)
	}
	cache.Profiles.Invalidate(ctx, exp.ProfileID)
	return nil
}

func (r *profileRepository) UpdateExperience(ctx context.Context, exp *models.ProfileExperience) error {
	if err := r.db.WithContext(ctx).Save(exp).Error; err != nil {
		return models.NewInternalError(err)
	}
	cache.Profiles.Invalidate(ctx, exp.ProfileID)
	return nil
}

func (r *profileRepository) DeleteExperience(ctx context.Context, exp *models.ProfileExperience) error {
	if err := r.db.WithContext(ctx).Delete(&models.ProfileExperience{}, exp.ID).Error; err != nil {
		return models.NewInternalError(err)
	}
	cache.Profiles.Invalidate(ctx, exp.ProfileID)
	return nil
}

func (r *profileRepository) ListWebsites(ctx context.Context, profileID uint) ([]models.ProfileWebsite, error) {
	var sites []models.ProfileWebsite
	if err := readDB(r.db).WithContext(ctx).
		Where("profile_id = ?", profileID).
		Order("id").
		Find(&sites).Error; err != nil {
		return nil, models.NewInternalError(err)
	}
	return sites, nil
}

func (r *profileRepository) CreateWebsite(ctx context.Context, site *models.ProfileWebsite) error {
	if err := r.db.WithContext(ctx).Create(site).Error; err != nil {
		return models.NewInternalError(err)
	}
	cache.Profiles.Invalidate(ctx, site.ProfileID)
	return nil
}
