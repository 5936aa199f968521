package repository

import (
	"context"

	"feedhub/internal/models"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// TagRepository reads the shared hashtag table.
type TagRepository interface {
	FindByNames(ctx context.Context, names []string) ([]models.Tag, error)
}

type tagRepository struct {
	db *gorm.DB
}

// NewTagRepository returns a new TagRepository implementation.
func NewTagRepository(db *gorm.DB) TagRepository {
	return &tagRepository{db: db}
}

func (r *tagRepository) FindByNames(ctx context.Context, names []string) ([]models.Tag, error) {
	if len(names) == 0 {
		return nil, nil
	}
	var tags []models.Tag
	if err := readDB(r.db).WithContext(ctx).Where("tag IN ?", names).Find(&tags).Error; err != nil {
		return nil, models.NewInternalError(err)
	}
	return tags, nil
}

// resolveTag makes sure tag exists and carries its ID. The insert skips a
// row that already exists, including one committed by a concurrent writer,
// so the surrounding transaction never sees a unique violation.
func resolveTag(tx *gorm.DB, tag *models.Tag) error {
	if tag.ID != 0 {
		return nil
	}
	err := tx.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "tag"}},
		DoNothing: true,
	}).Create(&models.Tag{Name: tag.Name}).Error
	if err != nil {
		return err
	}
	return tx.Where("tag = ?", tag.Name).First(tag).Error
}
