package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	AppEnv        string
	Port          string
	LogLevel      string
	LogFormat     string
	ExtensionsDir string
	CompanionsDir string

	// CommandPrefix is the single character that marks a chat message
	// as a command (default "!").
	CommandPrefix string

	// ShutdownTimeout bounds the aggregate wait for extension shutdown.
	ShutdownTimeout time.Duration

	// MaxClients limits simultaneous overlay connections.
	MaxClients int

	APIRatePerSecond float64
	APIBurst         int

	GoalName   string
	GoalTarget int

	OverlayTheme     string
	OverlayShowChat  bool
	OverlayFontSize  int
}

func Load() (*Config, error) {
	// Best-effort .env loading for local development; absence is fine.
	_ = godotenv.Load()

	cfg := &Config{
		AppEnv:           getEnv("APP_ENV", "development"),
		Port:             getEnv("PORT", "8080"),
		LogLevel:         getEnv("LOG_LEVEL", "info"),
		LogFormat:        getEnv("LOG_FORMAT", "text"),
		ExtensionsDir:    getEnv("EXTENSIONS_DIR", "extensions"),
		CompanionsDir:    getEnv("COMPANIONS_DIR", "companions"),
		CommandPrefix:    getEnv("COMMAND_PREFIX", "!"),
		GoalName:         getEnv("GOAL_NAME", "Subscriber Goal"),
		OverlayTheme:     getEnv("OVERLAY_THEME", "dark"),
	}

	if len(cfg.CommandPrefix) != 1 {
		return nil, fmt.Errorf("COMMAND_PREFIX must be a single character, got %q", cfg.CommandPrefix)
	}

	var err error
	if cfg.ShutdownTimeout, err = getDuration("SHUTDOWN_TIMEOUT", 10*time.Second); err != nil {
		return nil, err
	}
	if cfg.MaxClients, err = getInt("MAX_CLIENTS", 100); err != nil {
		return nil, err
	}
	if cfg.MaxClients <= 0 {
		return nil, fmt.Errorf("MAX_CLIENTS must be positive, got %d", cfg.MaxClients)
	}
	if cfg.APIBurst, err = getInt("API_RATE_BURST", 20); err != nil {
		return nil, err
	}
	if cfg.GoalTarget, err = getInt("GOAL_TARGET", 100); err != nil {
		return nil, err
	}
	if cfg.OverlayFontSize, err = getInt("OVERLAY_FONT_SIZE", 16); err != nil {
		return nil, err
	}

	ratePerSecond := getEnv("API_RATE_PER_SECOND", "10")
	cfg.APIRatePerSecond, err = strconv.ParseFloat(ratePerSecond, 64)
	if err != nil {
		return nil, fmt.Errorf("API_RATE_PER_SECOND must be a number: %w", err)
	}

	cfg.OverlayShowChat = getEnv("OVERLAY_SHOW_CHAT", "true") == "true"

	return cfg, nil
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getInt(key string, defaultValue int) (int, error) {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue, nil
	}
	n, err := strconv.Atoi(value)
	if err != nil {
		return 0, fmt.Errorf("%s must be an integer: %w", key, err)
	}
	return n, nil
}

func getDuration(key string, defaultValue time.Duration) (time.Duration, error) {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue, nil
	}
	d, err := time.ParseDuration(value)
	if err != nil {
		return 0, fmt.Errorf("%s must be a duration (e.g. 10s): %w", key, err)
	}
	return d, nil
}
