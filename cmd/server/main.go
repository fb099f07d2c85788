package main

import (
	"context"
	"errors"
	"log"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/jonboulle/clockwork"

	"github.com/Agash/StreamWeaver-sub002/internal/bus"
	"github.com/Agash/StreamWeaver-sub002/internal/chat"
	"github.com/Agash/StreamWeaver-sub002/internal/companion"
	"github.com/Agash/StreamWeaver-sub002/internal/config"
	"github.com/Agash/StreamWeaver-sub002/internal/domain"
	"github.com/Agash/StreamWeaver-sub002/internal/extension"
	"github.com/Agash/StreamWeaver-sub002/internal/goal"
	"github.com/Agash/StreamWeaver-sub002/internal/hub"
	"github.com/Agash/StreamWeaver-sub002/internal/logging"
	"github.com/Agash/StreamWeaver-sub002/internal/server"
	"github.com/Agash/StreamWeaver-sub002/internal/websocket"
)

func setupConfig() *config.Config {
	cfg, err := config.Load()
	if err != nil {
		// Use log before slog is initialized
		log.Fatalf("Failed to load config: %v", err)
	}
	return cfg
}

func setupRegistry(cfg *config.Config, b *bus.Bus, clock clockwork.Clock) *extension.Registry {
	loader := extension.NewLoader()
	if err := extension.RegisterBuiltins(loader); err != nil {
		slog.Error("Failed to register built-in extensions", "error", err)
		os.Exit(1)
	}

	sender := chat.NewBreakerSender(chat.NewLoopbackSender(b))
	host := extension.NewHost(b, sender)
	registry := extension.NewRegistry(loader, host, clock, cfg.CommandPrefix[0], cfg.ShutdownTimeout)

	loadCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	if err := registry.LoadFrom(loadCtx, cfg.ExtensionsDir); err != nil {
		slog.Error("Failed to load extensions", "dir", cfg.ExtensionsDir, "error", err)
		os.Exit(1)
	}

	return registry
}

func runGracefulShutdown(srv *server.Server, registry *extension.Registry, wsHub *websocket.Hub) <-chan struct{} {
	done := make(chan struct{})
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)

	go func() {
		<-sigChan
		slog.Info("Shutdown signal received, cleaning up...")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			slog.Error("Server shutdown error", "error", err)
		}

		registry.Shutdown(shutdownCtx)
		wsHub.Stop()

		close(done)
	}()

	return done
}

func main() {
	clock := clockwork.NewRealClock()

	cfg := setupConfig()

	// Initialize structured logging
	logging.InitLogger(cfg.LogLevel, cfg.LogFormat)
	slog.Info("Application starting", "env", cfg.AppEnv, "port", cfg.Port)

	b := bus.New()

	companions, err := companion.Discover(cfg.CompanionsDir)
	if err != nil {
		slog.Error("Failed to discover companions", "dir", cfg.CompanionsDir, "error", err)
		os.Exit(1)
	}
	slog.Info("Companions discovered", "count", len(companions))

	registry := setupRegistry(cfg, b, clock)
	slog.Info("Extensions loaded", "count", registry.ActiveCount())

	wsHub := websocket.NewHub(clock, cfg.MaxClients)

	var tracker *goal.Tracker
	if cfg.GoalTarget > 0 {
		tracker = goal.New(b, cfg.GoalName, cfg.GoalTarget)
	}

	// Processors observe every event before it reaches overlay clients.
	b.SubscribeAll(func(ev domain.Event) {
		registry.NotifyProcessors(context.Background(), ev)
	})
	b.SubscribeAll(wsHub.BroadcastEvent)

	eventHub := hub.New(b, registry)

	settings := server.NewSettingsStore(domain.Settings{
		Theme:    cfg.OverlayTheme,
		ShowChat: cfg.OverlayShowChat,
		FontSize: cfg.OverlayFontSize,
	})

	srv := server.NewServer(cfg, eventHub, wsHub, registry, settings, companions, tracker)

	done := runGracefulShutdown(srv, registry, wsHub)

	slog.Info("Server starting", "port", cfg.Port)
	if err := srv.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		slog.Error("Server error", "error", err)
		os.Exit(1)
	}

	<-done
}
