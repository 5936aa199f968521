package server

import (
	"log/slog"

	"feedhub/internal/middleware"
	"feedhub/internal/models"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/websocket/v2"
)

// FeedWebSocketUpgrade rejects plain HTTP requests to the feed socket.
func (s *Server) FeedWebSocketUpgrade(c *fiber.Ctx) error {
	if !websocket.IsWebSocketUpgrade(c) {
		return models.RespondWithError(c, fiber.StatusUpgradeRequired,
			models.NewInvalidInputError("WebSocket upgrade required"))
	}
	return c.Next()
}

// FeedWebSocketHandler handles GET /api/ws/feed. Subscribers receive every
// feed event published through Redis; inbound frames are ignored.
func (s *Server) FeedWebSocketHandler() fiber.Handler {
	return websocket.New(func(conn *websocket.Conn) {
		userID, _ := conn.Locals("userID").(uint)
		if userID == 0 {
			_ = conn.WriteMessage(websocket.TextMessage, []byte(`{"error":"unauthorized"}`))
			_ = conn.Close()
			return
		}

		client, err := s.feedHub.Register(userID, conn)
		if err != nil {
			middleware.Logger.Warn("feed websocket rejected",
				slog.Uint64("user_id", uint64(userID)),
				slog.String("error", err.Error()))
			_ = conn.WriteMessage(websocket.TextMessage, []byte(`{"error":"`+err.Error()+`"}`))
			_ = conn.Close()
			return
		}

		go client.WritePump()
		client.ReadPump()
	})
}
