package server

import (
	"feedhub/internal/models"
	"feedhub/internal/service"

	"github.com/gofiber/fiber/v2"
)

const defaultFeedPageSize = 20

type feedRequest struct {
	Content string   `json:"content"`
	Images  []string `json:"images"`
	Video   string   `json:"video"`
}

// GetFeeds handles GET /api/feeds
// @Summary List feeds
// @Tags feeds
// @Produce json
// @Param sort query string false "recent (default) or trending"
// @Param search query string false "Substring of content"
// @Param tag query string false "Exact tag, e.g. #go"
// @Param limit query int false "Page size (max 100)"
// @Param offset query int false "Rows to skip"
// @Success 200 {array} models.Feed
// @Failure 400 {object} models.ErrorResponse
// @Router /feeds [get]
func (s *Server) GetFeeds(c *fiber.Ctx) error {
	page := parsePagination(c, defaultFeedPageSize)

	feeds, err := s.feedService.GetList(c.UserContext(), models.FeedQuery{
		Sort:   models.FeedSort(c.Query("sort", string(models.FeedSortRecent))),
		Search: c.Query("search"),
		Tag:    c.Query("tag"),
		Limit:  page.Limit,
		Offset: page.Offset,
		UserID: currentUserID(c),
	})
	if err != nil {
		return models.RespondWithAppError(c, err)
	}
	return c.JSON(feeds)
}

// GetFeed handles GET /api/feeds/:id
// @Summary Get a feed
// @Tags feeds
// @Produce json
// @Param id path int true "Feed ID"
// @Success 200 {object} models.Feed
// @Failure 400 {object} models.ErrorResponse
// @Failure 404 {object} models.ErrorResponse
// @Router /feeds/{id} [get]
func (s *Server) GetFeed(c *fiber.Ctx) error {
	feedID, err := parseID(c, "id")
	if err != nil {
		return nil
	}

	feed, err := s.feedService.GetOne(c.UserContext(), feedID, currentUserID(c))
	if err != nil {
		return models.RespondWithAppError(c, err)
	}
	return c.JSON(feed)
}

// CreateFeed handles POST /api/feeds
// @Summary Create a feed
// @Tags feeds
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param request body feedRequest true "Feed"
// @Success 201 {object} models.Feed
// @Failure 400 {object} models.ErrorResponse
// @Router /feeds [post]
func (s *Server) CreateFeed(c *fiber.Ctx) error {
	var req feedRequest
	if err := parseBody(c, &req); err != nil {
		return nil
	}

	feed, err := s.feedService.CreateFeed(c.UserContext(), service.CreateFeedInput{
		UserID:  currentUserID(c),
		Content: req.Content,
		Images:  req.Images,
		Video:   req.Video,
	})
	if err != nil {
		return models.RespondWithAppError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(feed)
}

// UpdateFeed handles PUT /api/feeds/:id
// @Summary Update a feed
// @Description Only the author may update a feed. Empty fields are left unchanged.
// @Tags feeds
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path int true "Feed ID"
// @Param request body feedRequest true "Changes"
// @Success 200 {object} models.Feed
// @Failure 403 {object} models.ErrorResponse
// @Failure 404 {object} models.ErrorResponse
// @Router /feeds/{id} [put]
func (s *Server) UpdateFeed(c *fiber.Ctx) error {
	feedID, err := parseID(c, "id")
	if err != nil {
		return nil
	}
	var req feedRequest
	if err := parseBody(c, &req); err != nil {
		return nil
	}

	feed, err := s.feedService.UpdateFeed(c.UserContext(), service.UpdateFeedInput{
		UserID:  currentUserID(c),
		FeedID:  feedID,
		Content: req.Content,
		Images:  req.Images,
		Video:   req.Video,
	})
	if err != nil {
		return models.RespondWithAppError(c, err)
	}
	return c.JSON(feed)
}

// DeleteFeed handles DELETE /api/feeds/:id
// @Summary Delete a feed
// @Tags feeds
// @Security BearerAuth
// @Param id path int true "Feed ID"
// @Success 204
// @Failure 403 {object} models.ErrorResponse
// @Failure 404 {object} models.ErrorResponse
// @Router /feeds/{id} [delete]
func (s *Server) DeleteFeed(c *fiber.Ctx) error {
	feedID, err := parseID(c, "id")
	if err != nil {
		return nil
	}

	if err := s.feedService.DeleteFeed(c.UserContext(), service.DeleteFeedInput{
		UserID: currentUserID(c),
		FeedID: feedID,
	}); err != nil {
		return models.RespondWithAppError(c, err)
	}
	return c.SendStatus(fiber.StatusNoContent)
}
