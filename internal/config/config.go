package config

import (
	"os"
	"strconv"
	"time"
)

type AppConfig struct {
	HTTPPort    string
	StorageMode string // postgres or memory
	PostgresDSN string
	RedisURL    string
	JWTSecret   string

	// Materializer daemon settings.
	MaterializeInterval time.Duration
	MaterializeDays     int
}

func Load() AppConfig {
	port := os.Getenv("HTTP_PORT")
	if port == "" {
		port = "8080"
	}

	storage := os.Getenv("STORAGE_MODE")
	if storage == "" {
		storage = "postgres"
	}

	dsn := os.Getenv("DATABASE_URL")
	if dsn == "" {
		dsn = "host=localhost port=5432 user=scheduler dbname=activity_scheduler sslmode=disable"
	}

	redisURL := os.Getenv("REDIS_URL")
	if redisURL == "" {
		redisURL = "redis://localhost:6379"
	}

	secret := os.Getenv("JWT_SECRET")
	if secret == "" {
		secret = "dev-only-secret"
	}

	interval := time.Minute
	if v := os.Getenv("MATERIALIZE_INTERVAL"); v != "" {
		if parsed, err := time.ParseDuration(v); err == nil && parsed > 0 {
			interval = parsed
		}
	}

	days := 4
	if v := os.Getenv("MATERIALIZE_DAYS"); v != "" {
		if parsed, err := strconv.Atoi(v); err == nil && parsed > 0 {
			days = parsed
		}
	}

	return AppConfig{
		HTTPPort:            port,
		StorageMode:         storage,
		PostgresDSN:         dsn,
		RedisURL:            redisURL,
		JWTSecret:           secret,
		MaterializeInterval: interval,
		MaterializeDays:     days,
	}
}
