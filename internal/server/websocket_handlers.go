package server

import (
	"log/slog"

	"homestash/internal/observability"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/websocket/v2"
)

// WebsocketHandler returns the handler for GET /api/v1/ws/events. Connected
// clients receive every inventory change event as a JSON text message.
// Authentication is handled by route middleware; the connection is held
// open until the client disconnects.
func (s *Server) WebsocketHandler() fiber.Handler {
	return websocket.New(func(conn *websocket.Conn) {
		userIDVal := conn.Locals("userID")
		uid, ok := userIDVal.(uint)
		if !ok {
			_ = conn.Close()
			return
		}

		s.hub.Register(conn)
		defer s.hub.Unregister(conn)

		observability.Logger.Info("Event feed client connected",
			slog.Uint64("user_id", uint64(uid)))

		// Reads keep the connection alive and surface disconnects; inbound
		// payloads are ignored.
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				break
			}
		}

		observability.Logger.Info("Event feed client disconnected",
			slog.Uint64("user_id", uint64(uid)))
	})
}
