package config

import (
	"fmt"
	"os"
	"strconv"
)

type GlobalConfig struct {
	LogLevel string
	Host     string
	Port     string

	DatabaseURL string

	// RabbitURL is optional; when empty, eventing is disabled.
	RabbitURL        string
	BriefingExchange string

	PhotoStoragePath string
	PhotoMaxSizeMB   int

	SessionTimeoutMinutes int
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
		return 0, fmt.Errorf("%s must be a valid integer: %w", key, err)
	}
	return n, nil
}

func NewConfig() (GlobalConfig, error) {
	databaseURL := os.Getenv("DATABASE_URL")
	if databaseURL == "" {
		return GlobalConfig{}, fmt.Errorf("DATABASE_URL environment variable is required")
	}

	photoMaxSize, err := getEnvInt("PHOTO_MAX_SIZE_MB", 10)
	if err != nil {
		return GlobalConfig{}, err
	}
	if photoMaxSize <= 0 {
		return GlobalConfig{}, fmt.Errorf("PHOTO_MAX_SIZE_MB must be positive")
	}

	sessionTimeout, err := getEnvInt("SESSION_TIMEOUT_MINUTES", 60)
	if err != nil {
		return GlobalConfig{}, err
	}
	if sessionTimeout <= 0 {
		return GlobalConfig{}, fmt.Errorf("SESSION_TIMEOUT_MINUTES must be positive")
	}

	return GlobalConfig{
		LogLevel:              getEnv("LOG_LEVEL", "info"),
		Host:                  getEnv("HOST", "0.0.0.0"),
		Port:                  getEnv("PORT", "8080"),
		DatabaseURL:           databaseURL,
		RabbitURL:             os.Getenv("RABBITMQ_URL"),
		BriefingExchange:      getEnv("BRIEFING_EXCHANGE", "briefing.registered"),
		PhotoStoragePath:      getEnv("PHOTO_STORAGE_PATH", "./photos"),
		PhotoMaxSizeMB:        photoMaxSize,
		SessionTimeoutMinutes: sessionTimeout,
	}, nil
}
