package server

import (
	"feedhub/internal/models"
	"feedhub/internal/service"

	"github.com/gofiber/fiber/v2"
)

// GetMe handles GET /api/users/me
func (s *Server) GetMe(c *fiber.Ctx) error {
	user, err := s.userService.GetUser(c.UserContext(), currentUserID(c))
	if err != nil {
		return models.RespondWithAppError(c, err)
	}
	return c.JSON(user)
}

// UpdateMe handles PUT /api/users/me
func (s *Server) UpdateMe(c *fiber.Ctx) error {
	var req struct {
		Name         string `json:"name"`
		ProfileImage string `json:"profile_image"`
	}
	if err := parseBody(c, &req); err != nil {
		return nil
	}

	user, err := s.userService.UpdateMe(c.UserContext(), service.UpdateUserInput{
		UserID:       currentUserID(c),
		Name:         req.Name,
		ProfileImage: req.ProfileImage,
	})
	if err != nil {
		return models.RespondWithAppError(c, err)
	}
	return c.JSON(user)
}

// GetUserProfile handles GET /api/users/:id/profile
func (s *Server) GetUserProfile(c *fiber.Ctx) error {
	userID, err := parseID(c, "id")
	if err != nil {
		return nil
	}

	profile, err := s.profileService.GetProfileByUserID(c.UserContext(), userID)
	if err != nil {
		return models.RespondWithAppError(c, err)
	}
	return c.JSON(profile)
}
