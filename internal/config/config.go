package config

import (
	"os"
	"path/filepath"
	"strconv"
	"time"
)

type Config struct {
	APIBaseURL      string
	StateDir        string
	RequestTimeout  time.Duration
	PollInterval    time.Duration
	HTTPAddr        string
	JWTSecret       string
	JWTIssuer       string
	AccessTokenTTL  time.Duration
	RefreshTokenTTL time.Duration
}

func Load() Config {
	return Config{
		APIBaseURL:      getenv("PORTAL_API_URL", "http://localhost:5001/api"),
		StateDir:        getenv("PORTAL_STATE_DIR", defaultStateDir()),
		RequestTimeout:  getenvDuration("PORTAL_REQUEST_TIMEOUT", 10*time.Second),
		PollInterval:    getenvDuration("PORTAL_POLL_INTERVAL", 30*time.Second),
		HTTPAddr:        getenv("HTTP_ADDR", ":5001"),
		JWTSecret:       getenv("JWT_SECRET", "dev-secret"),
		JWTIssuer:       getenv("JWT_ISSUER", "campushub-portal"),
		AccessTokenTTL:  getenvDuration("ACCESS_TOKEN_TTL", 15*time.Minute),
		RefreshTokenTTL: getenvDuration("REFRESH_TOKEN_TTL", 30*24*time.Hour),
	}
}

func defaultStateDir() string {
	if dir, err := os.UserConfigDir(); err == nil {
		return filepath.Join(dir, "campushub")
	}
	return ".campushub"
}

func getenv(key, fallback string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return fallback
}

func getenvDuration(key string, fallback time.Duration) time.Duration {
	if val := os.Getenv(key); val != "" {
		if parsed, err := time.ParseDuration(val); err == nil {
			return parsed
		}
	}
	if val := os.Getenv(key + "_SECONDS"); val != "" {
		if seconds, err := strconv.Atoi(val); err == nil {
			return time.Duration(seconds) * time.Second
		}
	}
	return fallback
}
