package repository

import (
	"context"
	"errors"

	"feedhub/internal/models"

	"gorm.io/gorm"
)

// ConnectionRepository defines the interface for user connection operations
type ConnectionRepository interface {
	Create(ctx context.Context, conn *models.UserConnection) error
	FindByID(ctx context.Context, id uint) (*models.UserConnection, error)
	FindBetween(ctx context.Context, userID1, userID2 uint) (*models.UserConnection, error)
	ListForUser(ctx context.Context, userID uint, accepted bool) ([]models.UserConnection, error)
	Accept(ctx context.Context, id uint) error
	Delete(ctx context.Context, id uint) error
}

// connectionRepository implements ConnectionRepository
type connectionRepository struct {
	db *gorm.DB
}

// NewConnectionRepository creates a new connection repository
func NewConnectionRepository(db *gorm.DB) ConnectionRepository {
	return &connectionRepository{db: db}
}

func (r *connectionRepository) Create(ctx context.Context, conn *models.UserConnection) error {
	if err := r.db.WithContext(ctx).Omit("User", "ConnectedUser").Create(conn).Error; err != nil {
		if isUniqueConstraintError(err) {
			return models.NewValidationError("Connection already exists")
		}
		return models.NewInternalError(err)
	}
	return nil
}

// FindByID returns nil, nil when the connection does not exist.
func (r *connectionRepository) FindByID(ctx context.Context, id uint) (*models.UserConnection, error) {
	var conn models.UserConnection
	if err := r.db.WithContext(ctx).Preload("User").Preload("ConnectedUser").First(&conn, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, models.NewInternalError(err)
	}
	return &conn, nil
}

func (r *connectionRepository) FindBetween(ctx context.Context, userID1, userID2 uint) (*models.UserConnection, error) {
	var conn models.UserConnection

	// Either user may have sent the request.
	if err := r.db.WithContext(ctx).
		Where("(user_id = ? AND connected_user_id = ?) OR (user_id = ? AND connected_user_id = ?)",
			userID1, userID2, userID2, userID1).
		First(&conn).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, models.NewInternalError(err)
	}
	return &conn, nil
}

// ListForUser returns the connections userID takes part in on either side.
func (r *connectionRepository) ListForUser(ctx context.Context, userID uint, accepted bool) ([]models.UserConnection, error) {
	var conns []models.UserConnection
	if err := readDB(r.db).WithContext(ctx).
		Where("(user_id = ? OR connected_user_id = ?) AND is_accepted = ?", userID, userID, accepted).
		Preload("User").
		Preload("ConnectedUser").
		Order("updated_at DESC").
		Find(&conns).Error; err != nil {
		return nil, models.NewInternalError(err)
	}
	return conns, nil
}

func (r *connectionRepository) Accept(ctx context.Context, id uint) error {
	if err := r.db.WithContext(ctx).
		Model(&models.UserConnection{}).
		Where("id = ?", id).
		Update("is_accepted", true).Error; err != nil {
		return models.NewInternalError(err)
	}
	return nil
}

func (r *connectionRepository) Delete(ctx context.Context, id uint) error {
	if err := r.db.WithContext(ctx).Delete(&models.UserConnection{}, id).Error; err != nil {
		return models.NewInternalError(err)
	}
	return nil
}
