package server

import (
	"time"

	"feedhub/internal/models"
	"feedhub/internal/service"

	"github.com/gofiber/fiber/v2"
)

type experienceRequest struct {
	Title       string     `json:"title"`
	Company     string     `json:"company"`
	StartDate   time.Time  `json:"start_date"`
	EndDate     *time.Time `json:"end_date"`
	Description string     `json:"description"`
}

func (r experienceRequest) input(userID, experienceID uint) service.ExperienceInput {
	return service.ExperienceInput{
		UserID:       userID,
		ExperienceID: experienceID,
		Title:        r.Title,
		Company:      r.Company,
		StartDate:    r.StartDate,
		EndDate:      r.EndDate,
		Description:  r.Description,
	}
}

// GetProfile handles GET /api/profiles/:id
// @Summary Get a profile
// @Tags profiles
// @Produce json
// @Param id path int true "Profile ID"
// @Success 200 {object} models.ProfileView
// @Failure 404 {object} models.ErrorResponse
// @Router /profiles/{id} [get]
func (s *Server) GetProfile(c *fiber.Ctx) error {
	profileID, err := parseID(c, "id")
	if err != nil {
		return nil
	}

	profile, err := s.profileService.GetProfile(c.UserContext(), profileID)
	if err != nil {
		return models.RespondWithAppError(c, err)
	}
	return c.JSON(profile)
}

// GetMyProfile handles GET /api/profiles/me
func (s *Server) GetMyProfile(c *fiber.Ctx) error {
	profile, err := s.profileService.GetProfileByUserID(c.UserContext(), currentUserID(c))
	if err != nil {
		return models.RespondWithAppError(c, err)
	}
	return c.JSON(profile)
}

// UpsertMyProfile handles PUT /api/profiles/me
// @Summary Create or update the caller's profile
// @Tags profiles
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param request body object{headline=string,about=string,location=string} true "Profile"
// @Success 200 {object} models.ProfileView
// @Failure 400 {object} models.ErrorResponse
// @Router /profiles/me [put]
func (s *Server) UpsertMyProfile(c *fiber.Ctx) error {
	var req struct {
		Headline string `json:"headline"`
		About    string `json:"about"`
		Location string `json:"location"`
	}
	if err := parseBody(c, &req); err != nil {
		return nil
	}

	profile, err := s.profileService.UpsertMyProfile(c.UserContext(), service.UpsertProfileInput{
		UserID:   currentUserID(c),
		Headline: req.Headline,
		About:    req.About,
		Location: req.Location,
	})
	if err != nil {
		return models.RespondWithAppError(c, err)
	}
	return c.JSON(profile)
}

// GetMyExperiences handles GET /api/profiles/me/experiences
func (s *Server) GetMyExperiences(c *fiber.Ctx) error {
	experiences, err := s.profileService.ListExperiences(c.UserContext(), currentUserID(c))
	if err != nil {
		return models.RespondWithAppError(c, err)
	}
	return c.JSON(experiences)
}

// CreateMyExperience handles POST /api/profiles/me/experiences
func (s *Server) CreateMyExperience(c *fiber.Ctx) error {
	var req experienceRequest
	if err := parseBody(c, &req); err != nil {
		return nil
	}

	exp, err := s.profileService.AddExperience(c.UserContext(), req.input(currentUserID(c), 0))
	if err != nil {
		return models.RespondWithAppError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(exp)
}

// UpdateMyExperience handles PUT /api/profiles/me/experiences/:experienceId
func (s *Server) UpdateMyExperience(c *fiber.Ctx) error {
	experienceID, err := parseID(c, "experienceId")
	if err != nil {
		return nil
	}
	var req experienceRequest
	if err := parseBody(c, &req); err != nil {
		return nil
	}

	exp, err := s.profileService.UpdateExperience(c.UserContext(), req.input(currentUserID(c), experienceID))
	if err != nil {
		return models.RespondWithAppError(c, err)
	}
	return c.JSON(exp)
}

// DeleteMyExperience handles DELETE /api/profiles/me/experiences/:experienceId
func (s *Server) DeleteMyExperience(c *fiber.Ctx) error {
	experienceID, err := parseID(c, "experienceId")
	if err != nil {
		return nil
	}

	if err := s.profileService.DeleteExperience(c.UserContext(), currentUserID(c), experienceID); err != nil {
		return models.RespondWithAppError(c, err)
	}
	return c.SendStatus(fiber.StatusNoContent)
}

// GetMyWebsites handles GET /api/profiles/me/websites
func (s *Server) GetMyWebsites(c *fiber.Ctx) error {
	websites, err := s.profileService.ListWebsites(c.UserContext(), currentUserID(c))
	if err != nil {
		return models.RespondWithAppError(c, err)
	}
	return c.JSON(websites)
}

// CreateMyWebsite handles POST /api/profiles/me/websites
func (s *Server) CreateMyWebsite(c *fiber.Ctx) error {
	var req struct {
		URL   string `json:"url"`
		Label string `json:"label"`
	}
	if err := parseBody(c, &req); err != nil {
		return nil
	}

	website, err := s.profileService.AddWebsite(c.UserContext(), service.WebsiteInput{
		UserID: currentUserID(c),
		URL:    req.URL,
		Label:  req.Label,
	})
	if err != nil {
		return models.RespondWithAppError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(website)
}
