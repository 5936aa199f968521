package service

import (
	"context"
	"strings"

	"feedhub/internal/models"
	"feedhub/internal/repository"
	"feedhub/internal/validation"
)

type UserService struct {
	userRepo repository.UserRepository
}

type UpdateUserInput struct {
	UserID       uint
	Name         string
	ProfileImage string
}

func NewUserService(userRepo repository.UserRepository) *UserService {
	return &UserService{userRepo: userRepo}
}

func (s *UserService) GetUser(ctx context.Context, id uint) (*models.User, error) {
	if err := requireIDs(id); err != nil {
		return nil, err
	}
	user, err := s.userRepo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if user == nil {
		return nil, models.NewUserNotFoundError(id)
	}
	return user, nil
}

// UpdateMe changes the caller's name and profile image. Empty fields are
// left as they are.
func (s *UserService) UpdateMe(ctx context.Context, in UpdateUserInput) (*models.User, error) {
	user, err := s.GetUser(ctx, in.UserID)
	if err != nil {
		return nil, err
	}

	if name := strings.TrimSpace(in.Name); name != "" {
		if err := validation.ValidateName(name); err != nil {
			return nil, models.NewValidationError(err.Error())
		}
		user.Name = name
	}
	if image := strings.TrimSpace(in.ProfileImage); image != "" {
		if err := validation.ValidateWebsiteURL(image); err != nil {
			return nil, models.NewValidationError("Profile image must be an absolute http or https URL")
		}
		user.ProfileImage = image
	}

	if err := s.userRepo.Update(ctx, user); err != nil {
		return nil, err
	}
	return user, nil
}
