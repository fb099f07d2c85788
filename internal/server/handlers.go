package server

import (
	"log/slog"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/Agash/StreamWeaver-sub002/internal/domain"
)

func (s *Server) handleLiveness(c echo.Context) error {
	return c.JSON(http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) handleReadiness(c echo.Context) error {
	payload := map[string]any{
		"status":     "ok",
		"extensions": s.registry.ActiveCount(),
		"clients":    s.wsHub.ClientCount(),
	}
	if s.goal != nil {
		payload["goal"] = s.goal.Snapshot()
	}
	return c.JSON(http.StatusOK, payload)
}

// handleIngestEvent is the narrow interface by which external producers
// (chat connectors, donation feeds) hand events into the hub.
func (s *Server) handleIngestEvent(c echo.Context) error {
	var ev domain.Event
	if err := c.Bind(&ev); err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "invalid event payload"})
	}
	if err := ev.Validate(); err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": err.Error()})
	}

	ev = domain.Normalize(ev)
	s.eventHub.Submit(c.Request().Context(), ev)

	return c.JSON(http.StatusAccepted, map[string]string{"id": ev.ID.String()})
}

func (s *Server) handleGetSettings(c echo.Context) error {
	return c.JSON(http.StatusOK, s.settings.Get())
}

// handlePutSettings updates the overlay settings and notifies all connected
// clients through the broadcast path.
func (s *Server) handlePutSettings(c echo.Context) error {
	var settings domain.Settings
	if err := c.Bind(&settings); err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "invalid settings payload"})
	}

	s.settings.Update(settings)
	s.wsHub.BroadcastSettings(settings)
	slog.Info("Overlay settings updated", "theme", settings.Theme)

	return c.JSON(http.StatusOK, settings)
}

func (s *Server) handleListExtensions(c echo.Context) error {
	return c.JSON(http.StatusOK, s.registry.Descriptors())
}
