package config

import (
	"testing"
	"time"
)

func TestLoadDefaults(t *testing.T) {
	for _, key := range []string{"PORT", "API_TOKEN", "DB_PATH", "DOWNLOAD_DIR", "RATE_MIN_INTERVAL_MS", "RATE_MAX_CONCURRENT", "BROWSER_FALLBACK"} {
		t.Setenv(key, "")
	}

	cfg := Load()
	if cfg.Port != "8080" {
		t.Errorf("Port = %q, want 8080", cfg.Port)
	}
	if cfg.APIToken != devFallbackToken {
		t.Errorf("APIToken = %q, want dev fallback", cfg.APIToken)
	}
	if cfg.MinInterval != 2000*time.Millisecond {
		t.Errorf("MinInterval = %v, want 2s", cfg.MinInterval)
	}
	if cfg.MaxConcurrent != 1 {
		t.Errorf("MaxConcurrent = %d, want 1", cfg.MaxConcurrent)
	}
	if cfg.BrowserFallback {
		t.Error("BrowserFallback enabled by default")
	}
}

func TestLoadFromEnv(t *testing.T) {
	t.Setenv("PORT", "9000")
	t.Setenv("API_TOKEN", "secret")
	t.Setenv("RATE_MIN_INTERVAL_MS", "500")
	t.Setenv("RATE_MAX_CONCURRENT", "3")
	t.Setenv("BROWSER_FALLBACK", "true")

	cfg := Load()
	if cfg.Port != "9000" || cfg.APIToken != "secret" {
		t.Errorf("Config = %+v", cfg)
	}
	if cfg.MinInterval != 500*time.Millisecond {
		t.Errorf("MinInterval = %v, want 500ms", cfg.MinInterval)
	}
	if cfg.MaxConcurrent != 3 {
		t.Errorf("MaxConcurrent = %d, want 3", cfg.MaxConcurrent)
	}
	if !cfg.BrowserFallback {
		t.Error("BrowserFallback not enabled")
	}
}

func TestLoadBadInt(t *testing.T) {
	t.Setenv("RATE_MIN_INTERVAL_MS", "not a number")
	cfg := Load()
	if cfg.MinInterval != 2000*time.Millisecond {
		t.Errorf("MinInterval = %v, want default on a bad value", cfg.MinInterval)
	}
}
