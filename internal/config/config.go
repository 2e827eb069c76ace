// Package config loads server settings from the environment, with an
// optional .env file for development.
package config

import (
	"errors"
	"os"
	"time"

	"github.com/joho/godotenv"
)

// Config holds everything the server needs at startup. Redis and
// Postgres are optional; empty values disable them.
type Config struct {
	ListenAddr  string
	JWTSecret   string
	TokenTTL    time.Duration
	LogLevel    string
	RedisAddr   string
	DatabaseURL string
}

// Load reads .env (if present) and the environment.
func Load() (*Config, error) {
	// Missing .env is fine; real deployments set the environment.
	_ = godotenv.Load()

	cfg := &Config{
		ListenAddr:  envOr("CRAPETTE_LISTEN_ADDR", ":8080"),
		JWTSecret:   os.Getenv("CRAPETTE_JWT_SECRET"),
		TokenTTL:    24 * time.Hour,
		LogLevel:    envOr("CRAPETTE_LOG_LEVEL", "info"),
		RedisAddr:   os.Getenv("CRAPETTE_REDIS_ADDR"),
		DatabaseURL: os.Getenv("CRAPETTE_DATABASE_URL"),
	}

	if ttl := os.Getenv("CRAPETTE_TOKEN_TTL"); ttl != "" {
		d, err := time.ParseDuration(ttl)
		if err != nil {
			return nil, errors.New("CRAPETTE_TOKEN_TTL is not a duration")
		}
		cfg.TokenTTL = d
	}
	if cfg.JWTSecret == "" {
		return nil, errors.New("CRAPETTE_JWT_SECRET is required")
	}
	return cfg, nil
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
