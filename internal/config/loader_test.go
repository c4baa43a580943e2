package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestLoadWritesDefaultConfig(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "config.yaml")

	cfg, resolved, err := Load(nil, path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if resolved != path {
		t.Fatalf("expected path %s, got %s", path, resolved)
	}
	if _, err := os.Stat(path); err != nil {
		t.Fatalf("default config not written: %v", err)
	}

	want := Default()
	if cfg.Addr != want.Addr || cfg.ShutdownTimeout != want.ShutdownTimeout || cfg.MaxMessageBytes != want.MaxMessageBytes {
		t.Fatalf("expected defaults, got %+v", cfg)
	}
	if cfg.AccessEnabled() {
		t.Fatal("access gate must be off by default")
	}
}

func TestLoadFileAndEnvPrecedence(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	data := []byte("addr: \":9000\"\nshutdown_timeout: 2s\nrate_limit: 5\nsend_queue_size: 8\nallowed_origins:\n  - example.com\n")
	if err := os.WriteFile(path, data, 0o600); err != nil {
		t.Fatalf("write config: %v", err)
	}

	t.Setenv("RELAY_ADDR", ":9100")
	t.Setenv("RELAY_ACCESS_SECRET", "s3cret")

	cfg, _, err := Load(nil, path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}

	if cfg.Addr != ":9100" {
		t.Fatalf("env must override file, got addr %q", cfg.Addr)
	}
	if cfg.ShutdownTimeout != 2*time.Second || cfg.RateLimit != 5 || cfg.SendQueueSize != 8 {
		t.Fatalf("file values not applied: %+v", cfg)
	}
	if len(cfg.AllowedOrigins) != 1 || cfg.AllowedOrigins[0] != "example.com" {
		t.Fatalf("unexpected origins: %v", cfg.AllowedOrigins)
	}
	if !cfg.AccessEnabled() || cfg.AccessSecret != "s3cret" {
		t.Fatalf("access secret from env not applied: %+v", cfg)
	}
	if cfg.ReadHeaderTimeout != Default().ReadHeaderTimeout {
		t.Fatalf("unset keys must keep defaults, got %s", cfg.ReadHeaderTimeout)
	}
}

func TestUpdateFrom(t *testing.T) {
	cfg := Default()
	cfg.UpdateFrom(Config{Addr: ":1", LogLevel: "debug"})

	if cfg.Addr != ":1" || cfg.LogLevel != "debug" {
		t.Fatalf("overrides not applied: %+v", cfg)
	}
	if cfg.SendQueueSize != Default().SendQueueSize {
		t.Fatalf("zero values must not override, got %d", cfg.SendQueueSize)
	}
}
