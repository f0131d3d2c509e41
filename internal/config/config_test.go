package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestLoadOverridesDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	data := []byte(`
server:
  port: "9090"
  allowedOrigins: ["http://localhost:3000"]
store:
  driver: redis
quiz:
  timerSeconds: 30
  correctDelay: 1s
backend:
  enabled: true
`)
	if err := os.WriteFile(path, data, 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.Server.Port != "9090" || len(cfg.Server.AllowedOrigins) != 1 {
		t.Fatalf("server section not applied: %+v", cfg.Server)
	}
	if cfg.Store.Driver != "redis" || cfg.Quiz.TimerSeconds != 30 || !cfg.Backend.Enabled {
		t.Fatalf("overrides not applied: %+v", cfg)
	}
	if cfg.Quiz.MaxHearts != 5 || cfg.Backend.TestID != "A070000043" || cfg.Quiz.IncorrectDelay != "2500ms" {
		t.Fatalf("defaults lost for unset keys: %+v", cfg.Quiz)
	}
}

func TestLoadMissingFile(t *testing.T) {
	if _, err := Load(filepath.Join(t.TempDir(), "missing.yaml")); err == nil {
		t.Fatalf("expected error for missing file")
	}
}

func TestDuration(t *testing.T) {
	if d := Duration("", time.Second); d != time.Second {
		t.Fatalf("expected fallback for empty, got %s", d)
	}
	if d := Duration("nonsense", time.Second); d != time.Second {
		t.Fatalf("expected fallback for invalid, got %s", d)
	}
	if d := Duration("2500ms", time.Second); d != 2500*time.Millisecond {
		t.Fatalf("expected 2.5s, got %s", d)
	}
}
