package server

import (
	"feedhub/internal/models"
	"feedhub/internal/service"

	"github.com/gofiber/fiber/v2"
)

// CreateFeedLike handles POST /api/feeds/:id/likes
// Liking an already liked feed succeeds without adding a row.
// @Summary Like a feed
// @Tags likes
// @Produce json
// @Security BearerAuth
// @Param id path int true "Feed ID"
// @Success 201
// @Failure 404 {object} models.ErrorResponse
// @Router /feeds/{id}/likes [post]
func (s *Server) CreateFeedLike(c *fiber.Ctx) error {
	feedID, err := parseID(c, "id")
	if err != nil {
		return nil
	}

	if err := s.feedService.CreateLike(c.UserContext(), service.FeedLikeInput{
		LikerID: currentUserID(c),
		FeedID:  feedID,
	}); err != nil {
		return models.RespondWithAppError(c, err)
	}
	return c.SendStatus(fiber.StatusCreated)
}

// DeleteFeedLike handles DELETE /api/feeds/:id/likes
// @Summary Unlike a feed
// @Tags likes
// @Produce json
// @Security BearerAuth
// @Param id path int true "Feed ID"
// @Success 204
// @Failure 404 {object} models.ErrorResponse
// @Router /feeds/{id}/likes [delete]
func (s *Server) DeleteFeedLike(c *fiber.Ctx) error {
	feedID, err := parseID(c, "id")
	if err != nil {
		return nil
	}

	if err := s.feedService.DeleteLike(c.UserContext(), service.FeedLikeInput{
		LikerID: currentUserID(c),
		FeedID:  feedID,
	}); err != nil {
		return models.RespondWithAppError(c, err)
	}
	return c.SendStatus(fiber.StatusNoContent)
}
