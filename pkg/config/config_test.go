package config

import (
	"os"
	"testing"
	"time"
)

func TestNewAppliesDefaults(t *testing.T) {
	t.Setenv("HTTP_SERVER_PORT", "8080")

	cfg, err := New()
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}

	if cfg.HTTP.Server.Port != "8080" {
		t.Errorf("expected port 8080, got %q", cfg.HTTP.Server.Port)
	}
	if cfg.HTTP.Timeout != 10*time.Second {
		t.Errorf("expected default flight timeout 10s, got %v", cfg.HTTP.Timeout)
	}
	if cfg.Upstream.FetchTimeout != 5*time.Second {
		t.Errorf("expected default fetch timeout 5s, got %v", cfg.Upstream.FetchTimeout)
	}
	if cfg.Registry.Source != "file" {
		t.Errorf("expected default registry source file, got %q", cfg.Registry.Source)
	}
	if cfg.Logger.Level != "info" {
		t.Errorf("expected default log level info, got %q", cfg.Logger.Level)
	}
}

func TestNewReadsEnvironment(t *testing.T) {
	t.Setenv("HTTP_SERVER_PORT", "9000")
	t.Setenv("HTTP_TIMEOUT", "42s")
	t.Setenv("UPSTREAM_MAX_RETRIES", "5")
	t.Setenv("LIMITS_CONCURRENCY", "osm:4,geonorge:1")
	t.Setenv("CACHE_ENABLED", "true")
	t.Setenv("CACHE_TTL", "3m")

	cfg, err := New()
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}

	if cfg.HTTP.Timeout != 42*time.Second {
		t.Errorf("HTTP_TIMEOUT not honored: got %v, want 42s", cfg.HTTP.Timeout)
	}
	if cfg.Upstream.MaxRetries != 5 {
		t.Errorf("expected 5 retries, got %d", cfg.Upstream.MaxRetries)
	}
	if cfg.Limits.Concurrency["osm"] != 4 || cfg.Limits.Concurrency["geonorge"] != 1 {
		t.Errorf("limiter capacities not parsed: %v", cfg.Limits.Concurrency)
	}
	if !cfg.Cache.Enabled || cfg.Cache.TTL != 3*time.Minute {
		t.Errorf("cache settings not parsed: enabled=%v ttl=%v", cfg.Cache.Enabled, cfg.Cache.TTL)
	}
}

func TestNewRequiresPort(t *testing.T) {
	// t.Setenv registers the restore; the variable must be absent, not empty.
	t.Setenv("HTTP_SERVER_PORT", "placeholder")
	os.Unsetenv("HTTP_SERVER_PORT")

	if _, err := New(); err == nil {
		t.Fatal("expected an error when the port is unset")
	}
}
