package service

import (
	"context"
	"strings"
	"time"

	"feedhub/internal/models"
	"feedhub/internal/repository"
	"feedhub/internal/validation"

	"github.com/jinzhu/copier"
	"golang.org/x/sync/errgroup"
)

const (
	profileHeadlineMaxLength = 120
	profileAboutMaxLength    = 2000
	profileLocationMaxLength = 120
	experienceFieldMaxLength = 120
	websiteLabelMaxLength    = 60
)

// ProfileService manages public profiles and the experience and website
// rows they own.
type ProfileService struct {
	profileRepo repository.ProfileRepository
	userRepo    repository.UserRepository
}

func NewProfileService(profileRepo repository.ProfileRepository, userRepo repository.UserRepository) *ProfileService {
	return &ProfileService{profileRepo: profileRepo, userRepo: userRepo}
}

type UpsertProfileInput struct {
	UserID   uint
	Headline string
	About    string
	Location string
}

type ExperienceInput struct {
	UserID       uint
	ExperienceID uint
	Title        string
	Company      string
	StartDate    time.Time
	EndDate      *time.Time
	Description  string
}

type WebsiteInput struct {
	UserID uint
	URL    string
	Label  string
}

func toProfileView(p *models.Profile) (*models.ProfileView, error) {
	var view models.ProfileView
	if err := copier.Copy(&view, p); err != nil {
		return nil, models.NewInternalError(err)
	}
	view.User = p.User.Summary()
	if view.Experiences == nil {
		view.Experiences = []models.ProfileExperience{}
	}
	if view.Websites == nil {
		view.Websites = []models.ProfileWebsite{}
	}
	return &view, nil
}

func (s *ProfileService) GetProfile(ctx context.Context, profileID uint) (*models.ProfileView, error) {
	if err := requireIDs(profileID); err != nil {
		return nil, err
	}
	profile, err := s.profileRepo.FindByID(ctx, profileID)
	if err != nil {
		return nil, err
	}
	if profile == nil {
		return nil, models.NewContentNotFoundError("Profile", profileID)
	}
	return toProfileView(profile)
}

// GetProfileByUserID distinguishes a missing user from a user without a profile.
func (s *ProfileService) GetProfileByUserID(ctx context.Context, userID uint) (*models.ProfileView, error) {
	if err := requireIDs(userID); err != nil {
		return nil, err
	}

	var (
		user    *models.User
		profile *models.Profile
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		user, err = s.userRepo.FindByID(gctx, userID)
		return err
	})
	g.Go(func() error {
		var err error
		profile, err = s.profileRepo.FindByUserID(gctx, userID)
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}
	if user == nil {
		return nil, models.NewUserNotFoundError(userID)
	}
	if profile == nil {
		return nil, models.NewContentNotFoundError("Profile", userID)
	}
	return toProfileView(profile)
}

func (s *ProfileService) myProfile(ctx context.Context, userID uint) (*models.Profile, error) {
	if err := requireIDs(userID); err != nil {
		return nil, err
	}
	profile, err := s.profileRepo.FindByUserID(ctx, userID)
	if err != nil {
		return nil, err
	}
	if profile == nil {
		return nil, models.NewContentNotFoundError("Profile", userID)
	}
	return profile, nil
}

// UpsertMyProfile creates the caller's profile on first use and replaces
// its text fields afterwards.
func (s *ProfileService) UpsertMyProfile(ctx context.Context, in UpsertProfileInput) (*models.ProfileView, error) {
	if err := requireIDs(in.UserID); err != nil {
		return nil, err
	}
	for _, check := range []struct {
		field string
		value string
		limit int
	}{
		{"headline", in.Headline, profileHeadlineMaxLength},
		{"about", in.About, profileAboutMaxLength},
		{"location", in.Location, profileLocationMaxLength},
	} {
		if err := validation.ValidateMaxLength(check.field, check.value, check.limit); err != nil {
			return nil, models.NewValidationError(err.Error())
		}
	}

	user, err := s.userRepo.FindByID(ctx, in.UserID)
	if err != nil {
		return nil, err
	}
	if user == nil {
		return nil, models.NewUserNotFoundError(in.UserID)
	}

	profile, err := s.profileRepo.FindByUserID(ctx, in.UserID)
	if err != nil {
		return nil, err
	}
	if profile == nil {
		profile = &models.Profile{UserID: in.UserID}
	}
	profile.Headline = strings.TrimSpace(in.Headline)
	profile.About = strings.TrimSpace(in.About)
	profile.Location = strings.TrimSpace(in.Location)

	if err := s.profileRepo.Save(ctx, profile); err != nil {
		return nil, err
	}
	profile.User = *user
	return toProfileView(profile)
}

func (s *ProfileService) ListExperiences(ctx context.Context, userID uint) ([]models.ProfileExperience, error) {
	profile, err := s.myProfile(ctx, userID)
	if err != nil {
		return nil, err
	}
	return s.profileRepo.ListExperiences(ctx, profile.ID)
}

func validateExperience(in ExperienceInput) error {
	if strings.TrimSpace(in.Title) == "" || strings.TrimSpace(in.Company) == "" {
		return models.NewValidationError("Title and company are required")
	}
	if err := validation.ValidateMaxLength("title", in.Title, experienceFieldMaxLength); err != nil {
		return models.NewValidationError(err.Error())
	}
	if err := validation.ValidateMaxLength("company", in.Company, experienceFieldMaxLength); err != nil {
		return models.NewValidationError(err.Error())
	}
	if in.StartDate.IsZero() {
		return models.NewValidationError("Start date is required")
	}
	if in.EndDate != nil && in.EndDate.Before(in.StartDate) {
		return models.NewValidationError("End date must not precede start date")
	}
	return nil
}

func (s *ProfileService) AddExperience(ctx context.Context, in ExperienceInput) (*models.ProfileExperience, error) {
	if err := validateExperience(in); err != nil {
		return nil, err
	}
	profile, err := s.myProfile(ctx, in.UserID)
	if err != nil {
		return nil, err
	}

	exp := &models.ProfileExperience{
		ProfileID:   profile.ID,
		Title:       strings.TrimSpace(in.Title),
		Company:     strings.TrimSpace(in.Company),
		StartDate:   in.StartDate,
		EndDate:     in.EndDate,
		Description: in.Description,
	}
	if err := s.profileRepo.CreateExperience(ctx, exp); err != nil {
		return nil, err
	}
	return exp, nil
}

// ownedExperience loads an experience that must belong to the caller's profile.
func (s *ProfileService) ownedExperience(ctx context.Context, userID, experienceID uint) (*models.ProfileExperience, error) {
	if err := requireIDs(userID, experienceID); err != nil {
		return nil, err
	}
	profile, err := s.myProfile(ctx, userID)
	if err != nil {
		return nil, err
	}
	exp, err := s.profileRepo.FindExperience(ctx, experienceID)
	if err != nil {
		return nil, err
	}
	if exp == nil {
		return nil, models.NewContentNotFoundError("Experience", experienceID)
	}
	if exp.ProfileID != profile.ID {
		return nil, models.NewUnauthorizedError("You can only change your own experiences")
	}
	return exp, nil
}

func (s *ProfileService) UpdateExperience(ctx context.Context, in ExperienceInput) (*models.ProfileExperience, error) {
	if err := validateExperience(in); err != nil {
		return nil, err
	}
	exp, err := s.ownedExperience(ctx, in.UserID, in.ExperienceID)
	if err != nil {
		return nil, err
	}

	exp.Title = strings.TrimSpace(in.Title)
	exp.Company = strings.TrimSpace(in.Company)
	exp.StartDate = in.StartDate
	exp.EndDate = in.EndDate
	exp.Description = in.Description
	if err := s.profileRepo.UpdateExperience(ctx, exp); err != nil {
		return nil, err
	}
	return exp, nil
}

func (s *ProfileService) DeleteExperience(ctx context.Context, userID, experienceID uint) error {
	exp, err := s.ownedExperience(ctx, userID, experienceID)
	if err != nil {
		return err
	}
	return s.profileRepo.DeleteExperience(ctx, exp)
}

func (s *ProfileService) ListWebsites(ctx context.Context, userID uint) ([]models.ProfileWebsite, error) {
	profile, err := s.myProfile(ctx, userID)
	if err != nil {
		return nil, err
	}
	return s.profileRepo.ListWebsites(ctx, profile.ID)
}

func (s *ProfileService) AddWebsite(ctx context.Context, in WebsiteInput) (*models.ProfileWebsite, error) {
	if err := validation.ValidateWebsiteURL(in.URL); err != nil {
		return nil, models.NewValidationError(err.Error())
	}
	if err := validation.ValidateMaxLength("label", in.Label, websiteLabelMaxLength); err != nil {
		return nil, models.NewValidationError(err.Error())
	}
	profile, err := s.myProfile(ctx, in.UserID)
	if err != nil {
		return nil, err
	}

	site := &models.ProfileWebsite{
		ProfileID: profile.ID,
		URL:       strings.TrimSpace(in.URL),
		Label:     strings.TrimSpace(in.Label),
	}
	if err := s.profileRepo.CreateWebsite(ctx, site); err != nil {
		return nil, err
	}
	return site, nil
}
