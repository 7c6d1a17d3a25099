package config

import (
	"os"
	"testing"
	"time"
)

func TestLoadDefaults(t *testing.T) {
	clearEnv(t)

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() error: %v", err)
	}

	if cfg.Port != "3000" {
		t.Errorf("Port = %q, want 3000", cfg.Port)
	}
	if cfg.MetricsPort != "9477" {
		t.Errorf("MetricsPort = %q, want 9477", cfg.MetricsPort)
	}
	if cfg.SessionInactivity != 2*time.Hour {
		t.Errorf("SessionInactivity = %v, want 2h", cfg.SessionInactivity)
	}
	if cfg.EvictionInterval != 5*time.Minute {
		t.Errorf("EvictionInterval = %v, want 5m", cfg.EvictionInterval)
	}
	if len(cfg.CORSAllowedOrigins) != 1 || cfg.CORSAllowedOrigins[0] != "*" {
		t.Errorf("CORSAllowedOrigins = %v, want [*]", cfg.CORSAllowedOrigins)
	}
}

func TestLoadOverridesFromEnv(t *testing.T) {
	clearEnv(t)

	os.Setenv("PORT", "8099")
	os.Setenv("SESSION_INACTIVITY", "30m")
	os.Setenv("CORS_ALLOWED_ORIGINS", "https://a.example, https://b.example")
	defer clearEnv(t)

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() error: %v", err)
	}

	if cfg.Port != "8099" {
		t.Errorf("Port = %q, want 8099", cfg.Port)
	}
	if cfg.SessionInactivity != 30*time.Minute {
		t.Errorf("SessionInactivity = %v, want 30m", cfg.SessionInactivity)
	}
	if len(cfg.CORSAllowedOrigins) != 2 {
		t.Fatalf("CORSAllowedOrigins = %v, want 2 entries", cfg.CORSAllowedOrigins)
	}
}

func TestLoadFlagOverridesEnv(t *testing.T) {
	clearEnv(t)
	os.Setenv("PORT", "8099")
	defer clearEnv(t)

	origArgs := os.Args
	os.Args = []string{origArgs[0], "--port=7100"}
	defer func() { os.Args = origArgs }()

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() error: %v", err)
	}
	if cfg.Port != "7100" {
		t.Errorf("Port = %q, want 7100 (flag should win over env)", cfg.Port)
	}
}

func clearEnv(t *testing.T) {
	t.Helper()
	for _, key := range []string{
		"PORT", "METRICS_PORT", "HLS_ROOT", "FFMPEG_PATH", "FFPROBE_PATH",
		"PROBE_TIMEOUT", "READY_TIMEOUT_FAST", "READY_TIMEOUT_FULL",
		"SESSION_INACTIVITY", "EVICTION_INTERVAL", "METRICS_ENABLED",
		"LOG_STATIC_FILES", "LOG_HEALTH_CHECKS", "CORS_ALLOWED_ORIGINS",
	} {
		os.Unsetenv(key)
	}
}
