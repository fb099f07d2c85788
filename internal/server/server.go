// Package server exposes the HTTP surface: the overlay websocket endpoint,
// the producer ingestion API, settings, and observability routes.
package server

import (
	"context"
	"fmt"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"

	"github.com/Agash/StreamWeaver-sub002/internal/companion"
	"github.com/Agash/StreamWeaver-sub002/internal/config"
	"github.com/Agash/StreamWeaver-sub002/internal/extension"
	"github.com/Agash/StreamWeaver-sub002/internal/goal"
	"github.com/Agash/StreamWeaver-sub002/internal/hub"
	"github.com/Agash/StreamWeaver-sub002/internal/websocket"
)

type Server struct {
	echo       *echo.Echo
	config     *config.Config
	eventHub   *hub.Hub
	wsHub      *websocket.Hub
	registry   *extension.Registry
	settings   *SettingsStore
	companions []companion.Descriptor
	goal       *goal.Tracker
}

func NewServer(cfg *config.Config, eventHub *hub.Hub, wsHub *websocket.Hub, registry *extension.Registry, settings *SettingsStore, companions []companion.Descriptor, tracker *goal.Tracker) *Server {
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true

	e.Use(middleware.Logger())
	e.Use(middleware.Recover())

	srv := &Server{
		echo:       e,
		config:     cfg,
		eventHub:   eventHub,
		wsHub:      wsHub,
		registry:   registry,
		settings:   settings,
		companions: companions,
		goal:       tracker,
	}

	srv.registerRoutes()
	return srv
}

func (s *Server) Start() error {
	return s.echo.Start(fmt.Sprintf(":%s", s.config.Port))
}

func (s *Server) Shutdown(ctx context.Context) error {
	return s.echo.Shutdown(ctx)
}

// Echo exposes the router for tests.
func (s *Server) Echo() *echo.Echo {
	return s.echo
}
