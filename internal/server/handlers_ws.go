package server

import (
	"log/slog"
	"net/http"

	gorillaws "github.com/gorilla/websocket"
	"github.com/labstack/echo/v4"

	"github.com/Agash/StreamWeaver-sub002/internal/websocket"
)

var upgrader = gorillaws.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		return true // Allow all origins for OBS browser source
	},
}

func (s *Server) handleWebSocket(c echo.Context) error {
	initPayload, err := websocket.EncodeInit(s.settings.Get(), s.companions)
	if err != nil {
		slog.Error("Failed to encode init snapshot", "error", err)
		return c.String(http.StatusInternalServerError, "Internal error")
	}

	conn, err := upgrader.Upgrade(c.Response(), c.Request(), nil)
	if err != nil {
		return c.String(http.StatusBadRequest, "Failed to upgrade")
	}

	id, err := s.wsHub.Register(conn, initPayload)
	if err != nil {
		slog.Warn("Failed to register overlay client", "error", err)
		return nil
	}

	// Read pump — inbound frames are read and discarded; the close
	// handshake is acknowledged by the transport's default close handler.
	// Blocks until the client disconnects or the hub closes the
	// connection during shutdown.
	for {
		if _, _, err := conn.ReadMessage(); err != nil {
			break
		}
	}

	s.wsHub.Unregister(id)

	return nil //nolint:nilerr // ReadMessage err is block-scoped; outer err is nil
}
