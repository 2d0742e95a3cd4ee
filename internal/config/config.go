package config

import (
	"fmt"
	"os"
	"strconv"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog"
)

type Config struct {
	DBPath     string
	ServerPort string
	LogLevel   string

	// WebhookURL receives reveal-ready and results notifications. Empty
	// disables the notifier.
	WebhookURL string

	// Nightly automated check-in time (local clock).
	CheckInHour   int
	CheckInMinute int
}

func Load(logger zerolog.Logger) (*Config, error) {
	if err := godotenv.Load(); err != nil {
		logger.Debug().Msg(".env file not found, using environment variables or defaults")
	}

	hour, err := getEnvInt("CHECKIN_HOUR", 20)
	if err != nil {
		return nil, err
	}
	minute, err := getEnvInt("CHECKIN_MINUTE", 30)
	if err != nil {
		return nil, err
	}
	if hour < 0 || hour > 23 || minute < 0 || minute > 59 {
		return nil, fmt.Errorf("invalid check-in time %02d:%02d", hour, minute)
	}

	cfg := &Config{
		DBPath:        getEnv("DB_PATH", "bowling.db"),
		ServerPort:    getEnv("SERVER_PORT", "8080"),
		LogLevel:      getEnv("LOG_LEVEL", "info"),
		WebhookURL:    getEnv("NOTIFY_WEBHOOK_URL", ""),
		CheckInHour:   hour,
		CheckInMinute: minute,
	}

	logger.Info().
		Str("db_path", cfg.DBPath).
		Str("server_port", cfg.ServerPort).
		Str("log_level", cfg.LogLevel).
		Bool("webhook_configured", cfg.WebhookURL != "").
		Int("checkin_hour", cfg.CheckInHour).
		Int("checkin_minute", cfg.CheckInMinute).
		Msg("configuration loaded")

	return cfg, nil
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func getEnvInt(key string, fallback int) (int, error) {
	v := os.Getenv(key)
	if v == "" {
		return fallback, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return 0, fmt.Errorf("%s must be an integer: %w", key, err)
	}
	return n, nil
}
