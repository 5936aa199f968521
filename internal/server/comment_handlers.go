package server

import (
	"feedhub/internal/models"
	"feedhub/internal/service"

	"github.com/gofiber/fiber/v2"
)

type commentRequest struct {
	Content string `json:"content"`
}

// GetFeedComments handles GET /api/feeds/:id/comments
// @Summary List comments
// @Tags comments
// @Produce json
// @Param id path int true "Feed ID"
// @Success 200 {array} models.FeedComment
// @Failure 404 {object} models.ErrorResponse
// @Router /feeds/{id}/comments [get]
func (s *Server) GetFeedComments(c *fiber.Ctx) error {
	feedID, err := parseID(c, "id")
	if err != nil {
		return nil
	}

	comments, err := s.feedService.ListComments(c.UserContext(), feedID)
	if err != nil {
		return models.RespondWithAppError(c, err)
	}
	return c.JSON(comments)
}

// CreateFeedComment handles POST /api/feeds/:id/comments
// @Summary Comment on a feed
// @Tags comments
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path int true "Feed ID"
// @Param request body commentRequest true "Comment"
// @Success 201 {object} models.FeedComment
// @Failure 400 {object} models.ErrorResponse
// @Failure 404 {object} models.ErrorResponse
// @Router /feeds/{id}/comments [post]
func (s *Server) CreateFeedComment(c *fiber.Ctx) error {
	feedID, err := parseID(c, "id")
	if err != nil {
		return nil
	}
	var req commentRequest
	if err := parseBody(c, &req); err != nil {
		return nil
	}

	comment, err := s.feedService.CreateComment(c.UserContext(), service.FeedCommentInput{
		UserID:  currentUserID(c),
		FeedID:  feedID,
		Content: req.Content,
	})
	if err != nil {
		return models.RespondWithAppError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(comment)
}

// commentTarget parses the feed and comment IDs of a comment route.
func commentTarget(c *fiber.Ctx) (service.FeedCommentInput, error) {
	feedID, err := parseID(c, "id")
	if err != nil {
		return service.FeedCommentInput{}, err
	}
	commentID, err := parseID(c, "commentId")
	if err != nil {
		return service.FeedCommentInput{}, err
	}
	return service.FeedCommentInput{
		UserID:    currentUserID(c),
		FeedID:    feedID,
		CommentID: commentID,
	}, nil
}

// UpdateFeedComment handles PUT /api/feeds/:id/comments/:commentId
// @Summary Edit a comment
// @Description Only the commenter may edit a comment.
// @Tags comments
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path int true "Feed ID"
// @Param commentId path int true "Comment ID"
// @Param request body commentRequest true "Comment"
// @Success 200 {object} models.FeedComment
// @Failure 403 {object} models.ErrorResponse
// @Failure 404 {object} models.ErrorResponse
// @Router /feeds/{id}/comments/{commentId} [put]
func (s *Server) UpdateFeedComment(c *fiber.Ctx) error {
	in, err := commentTarget(c)
	if err != nil {
		return nil
	}
	var req commentRequest
	if err := parseBody(c, &req); err != nil {
		return nil
	}
	in.Content = req.Content

	comment, err := s.feedService.UpdateComment(c.UserContext(), in)
	if err != nil {
		return models.RespondWithAppError(c, err)
	}
	return c.JSON(comment)
}

// DeleteFeedComment handles DELETE /api/feeds/:id/comments/:commentId
// @Summary Delete a comment
// @Description Returns the removed comment.
// @Tags comments
// @Produce json
// @Security BearerAuth
// @Param id path int true "Feed ID"
// @Param commentId path int true "Comment ID"
// @Success 200 {object} models.FeedComment
// @Failure 403 {object} models.ErrorResponse
// @Failure 404 {object} models.ErrorResponse
// @Router /feeds/{id}/comments/{commentId} [delete]
func (s *Server) DeleteFeedComment(c *fiber.Ctx) error {
	in, err := commentTarget(c)
	if err != nil {
		return nil
	}

	comment, err := s.feedService.DeleteComment(c.UserContext(), in)
	if err != nil {
		return models.RespondWithAppError(c, err)
	}
	return c.JSON(comment)
}
