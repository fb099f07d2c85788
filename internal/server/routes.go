package server

import (
	"github.com/labstack/echo/v4"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

func (s *Server) registerRoutes() {
	// Observability endpoints
	s.echo.GET("/health/live", s.handleLiveness)
	s.echo.GET("/health/ready", s.handleReadiness)
	s.echo.GET("/metrics", echo.WrapHandler(promhttp.Handler()))

	// API routes (rate limited)
	api := s.echo.Group("/api", newRateLimiter(s.config.APIRatePerSecond, s.config.APIBurst))
	api.POST("/events", s.handleIngestEvent)
	api.GET("/settings", s.handleGetSettings)
	api.PUT("/settings", s.handlePutSettings)
	api.GET("/extensions", s.handleListExtensions)

	// Overlay websocket endpoint
	s.echo.GET("/ws/overlay", s.handleWebSocket)

	// Companion client assets, one static mount per discovered bundle
	for _, d := range s.companions {
		s.echo.Static(d.BasePath, d.Dir())
	}
}
