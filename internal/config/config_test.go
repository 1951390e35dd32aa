package config

import (
	"testing"
	"time"
)

func TestLoadConfigOverrides(t *testing.T) {
	t.Setenv("PORTAL_API_URL", "http://api.test:9000/api")
	t.Setenv("PORTAL_STATE_DIR", "/tmp/portal-test")
	t.Setenv("PORTAL_REQUEST_TIMEOUT", "3s")
	t.Setenv("PORTAL_POLL_INTERVAL", "45s")
	t.Setenv("HTTP_ADDR", ":15001")
	t.Setenv("JWT_SECRET", "test-secret")

	cfg := Load()
	if cfg.APIBaseURL != "http://api.test:9000/api" {
		t.Fatalf("expected PORTAL_API_URL override, got %s", cfg.APIBaseURL)
	}
	if cfg.StateDir != "/tmp/portal-test" {
		t.Fatalf("expected PORTAL_STATE_DIR override, got %s", cfg.StateDir)
	}
	if cfg.RequestTimeout != 3*time.Second {
		t.Fatalf("expected PORTAL_REQUEST_TIMEOUT 3s, got %s", cfg.RequestTimeout)
	}
	if cfg.PollInterval != 45*time.Second {
		t.Fatalf("expected PORTAL_POLL_INTERVAL 45s, got %s", cfg.PollInterval)
	}
	if cfg.HTTPAddr != ":15001" {
		t.Fatalf("expected HTTP_ADDR override, got %s", cfg.HTTPAddr)
	}
	if cfg.JWTSecret != "test-secret" {
		t.Fatalf("expected JWT_SECRET override, got %s", cfg.JWTSecret)
	}
}

func TestLoadConfigSecondsFallback(t *testing.T) {
	t.Setenv("PORTAL_POLL_INTERVAL_SECONDS", "10")

	cfg := Load()
	if cfg.PollInterval != 10*time.Second {
		t.Fatalf("expected 10s poll interval, got %s", cfg.PollInterval)
	}
}
