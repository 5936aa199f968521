package server

import (
	"feedhub/internal/models"
	"feedhub/internal/service"

	"github.com/gofiber/fiber/v2"
)

// GetConnections handles GET /api/connections?status=accepted|pending
// Accepted connections are returned unless status=pending.
func (s *Server) GetConnections(c *fiber.Ctx) error {
	var accepted bool
	switch c.Query("status", "accepted") {
	case "accepted":
		accepted = true
	case "pending":
		accepted = false
	default:
		return models.RespondWithAppError(c, models.NewInvalidInputError("status must be accepted or pending"))
	}

	conns, err := s.connectionService.List(c.UserContext(), currentUserID(c), accepted)
	if err != nil {
		return models.RespondWithAppError(c, err)
	}
	return c.JSON(conns)
}

// RequestConnection handles POST /api/connections/:userId
func (s *Server) RequestConnection(c *fiber.Ctx) error {
	targetID, err := parseID(c, "userId")
	if err != nil {
		return nil
	}
	var req struct {
		Message string `json:"message"`
	}
	// The message is optional, so an empty body is accepted.
	if len(c.Body()) > 0 {
		if err := parseBody(c, &req); err != nil {
			return nil
		}
	}

	conn, err := s.connectionService.Request(c.UserContext(), service.ConnectionRequestInput{
		UserID:   currentUserID(c),
		TargetID: targetID,
		Message:  req.Message,
	})
	if err != nil {
		return models.RespondWithAppError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(conn)
}

// AcceptConnection handles POST /api/connections/:connectionId/accept
func (s *Server) AcceptConnection(c *fiber.Ctx) error {
	connectionID, err := parseID(c, "connectionId")
	if err != nil {
		return nil
	}

	conn, err := s.connectionService.Accept(c.UserContext(), currentUserID(c), connectionID)
	if err != nil {
		return models.RespondWithAppError(c, err)
	}
	return c.JSON(conn)
}

// RemoveConnection handles DELETE /api/connections/:connectionId
func (s *Server) RemoveConnection(c *fiber.Ctx) error {
	connectionID, err := parseID(c, "connectionId")
	if err != nil {
		return nil
	}

	if err := s.connectionService.Remove(c.UserContext(), currentUserID(c), connectionID); err != nil {
		return models.RespondWithAppError(c, err)
	}
	return c.SendStatus(fiber.StatusNoContent)
}
