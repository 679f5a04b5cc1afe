package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	return path
}

func TestLoadDefaults(t *testing.T) {
	path := writeConfig(t, "server:\n  port: 0\n")

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load() error: %v", err)
	}

	if cfg.Server.Port != 8080 {
		t.Errorf("Server.Port = %d, want 8080", cfg.Server.Port)
	}
	if cfg.Workbooks.TimeoutSeconds != 30 {
		t.Errorf("Workbooks.TimeoutSeconds = %d, want 30", cfg.Workbooks.TimeoutSeconds)
	}
	if cfg.Workbooks.MaxRetries != 3 {
		t.Errorf("Workbooks.MaxRetries = %d, want 3", cfg.Workbooks.MaxRetries)
	}
	if cfg.Sync.OrgResyncIntervalHours != 24 {
		t.Errorf("Sync.OrgResyncIntervalHours = %d, want 24", cfg.Sync.OrgResyncIntervalHours)
	}
	if cfg.Sync.OrgPageSize != 500 {
		t.Errorf("Sync.OrgPageSize = %d, want 500", cfg.Sync.OrgPageSize)
	}
	if cfg.Snapshot.LocalPath != "data/organisations.json" {
		t.Errorf("Snapshot.LocalPath = %q", cfg.Snapshot.LocalPath)
	}
}

func TestLoadParsesValues(t *testing.T) {
	path := writeConfig(t, `
server:
  port: 9000
workbooks:
  base_url: https://api.example.com
  timeout_seconds: 10
redis:
  snapshot_ttl_mins: 15
api:
  action_token: sekrit
  allowed_origins:
    - https://www.example.org
`)

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load() error: %v", err)
	}

	if cfg.Server.Port != 9000 {
		t.Errorf("Server.Port = %d", cfg.Server.Port)
	}
	if cfg.Workbooks.BaseURL != "https://api.example.com" {
		t.Errorf("Workbooks.BaseURL = %q", cfg.Workbooks.BaseURL)
	}
	if got := cfg.Workbooks.Timeout(); got != 10*time.Second {
		t.Errorf("Workbooks.Timeout() = %v", got)
	}
	if got := cfg.Redis.SnapshotTTL(); got != 15*time.Minute {
		t.Errorf("Redis.SnapshotTTL() = %v", got)
	}
	if cfg.API.ActionToken != "sekrit" {
		t.Errorf("API.ActionToken = %q", cfg.API.ActionToken)
	}
	if len(cfg.API.AllowedOrigins) != 1 || cfg.API.AllowedOrigins[0] != "https://www.example.org" {
		t.Errorf("API.AllowedOrigins = %v", cfg.API.AllowedOrigins)
	}
}

func TestLoadFromEnvOverrides(t *testing.T) {
	path := writeConfig(t, "workbooks:\n  api_key: from-file\n")

	t.Setenv("WORKBOOKS_API_KEY", "from-env")
	t.Setenv("DATABASE_URL", "postgres://env/db")
	t.Setenv("ACTION_TOKEN", "env-token")
	t.Setenv("REDIS_ADDR", "redis.internal:6379")

	cfg, err := LoadFromEnv(path)
	if err != nil {
		t.Fatalf("LoadFromEnv() error: %v", err)
	}

	if cfg.Workbooks.APIKey != "from-env" {
		t.Errorf("APIKey = %q, want env override", cfg.Workbooks.APIKey)
	}
	if cfg.Database.URL != "postgres://env/db" {
		t.Errorf("Database.URL = %q", cfg.Database.URL)
	}
	if cfg.API.ActionToken != "env-token" {
		t.Errorf("ActionToken = %q", cfg.API.ActionToken)
	}
	if !cfg.Redis.Enabled {
		t.Error("REDIS_ADDR should enable redis")
	}
}

func TestLoadMissingFile(t *testing.T) {
	if _, err := Load(filepath.Join(t.TempDir(), "missing.yaml")); err == nil {
		t.Error("Load() on a missing file should error")
	}
}
