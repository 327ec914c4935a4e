package config

import (
	"testing"
	"time"
)

func TestLoadDefaults(t *testing.T) {
	cfg := Load()

	if cfg.Port != "8080" {
		t.Errorf("expected default port 8080, got %s", cfg.Port)
	}
	if cfg.SlotCapacity != 3 {
		t.Errorf("expected default slot capacity 3, got %d", cfg.SlotCapacity)
	}
	if cfg.SlotDuration != time.Hour {
		t.Errorf("expected default slot duration 1h, got %s", cfg.SlotDuration)
	}
	if cfg.CalendarID != "primary" {
		t.Errorf("expected default calendar primary, got %s", cfg.CalendarID)
	}
	if cfg.TimeZone != "Europe/Paris" {
		t.Errorf("expected default timezone Europe/Paris, got %s", cfg.TimeZone)
	}
	if cfg.GoogleRedirectURL != "http://localhost:8080/oauth/callback" {
		t.Errorf("unexpected redirect URL %s", cfg.GoogleRedirectURL)
	}
}

func TestLoadFromEnv(t *testing.T) {
	t.Setenv("PORT", "9090")
	t.Setenv("X_API_KEY", "sekrit")
	t.Setenv("SLOT_CAPACITY", "5")
	t.Setenv("SLOT_DURATION", "30m")
	t.Setenv("CORS_ALLOWED_ORIGINS", "https://a.example, https://b.example")

	cfg := Load()

	if cfg.Port != "9090" {
		t.Errorf("expected port 9090, got %s", cfg.Port)
	}
	if cfg.APIKey != "sekrit" {
		t.Errorf("expected API key from env, got %q", cfg.APIKey)
	}
	if cfg.SlotCapacity != 5 {
		t.Errorf("expected slot capacity 5, got %d", cfg.SlotCapacity)
	}
	if cfg.SlotDuration != 30*time.Minute {
		t.Errorf("expected slot duration 30m, got %s", cfg.SlotDuration)
	}
	if len(cfg.CORSAllowedOrigins) != 2 || cfg.CORSAllowedOrigins[1] != "https://b.example" {
		t.Errorf("unexpected CORS origins %v", cfg.CORSAllowedOrigins)
	}
	if cfg.GoogleRedirectURL != "http://localhost:9090/oauth/callback" {
		t.Errorf("redirect URL should follow port, got %s", cfg.GoogleRedirectURL)
	}
}

func TestInvalidNumbersFallBack(t *testing.T) {
	t.Setenv("SLOT_CAPACITY", "many")
	t.Setenv("SLOT_DURATION", "soon")

	cfg := Load()

	if cfg.SlotCapacity != 3 {
		t.Errorf("expected fallback capacity 3, got %d", cfg.SlotCapacity)
	}
	if cfg.SlotDuration != time.Hour {
		t.Errorf("expected fallback duration 1h, got %s", cfg.SlotDuration)
	}
}
