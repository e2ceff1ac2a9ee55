package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestLoadDefaults(t *testing.T) {
	t.Setenv(configPathEnv, "")
	t.Setenv(backendURLEnv, "")
	t.Setenv(dbPathEnv, "")

	cfg := Load()
	if cfg.BackendURL != defaultBackendURL {
		t.Errorf("BackendURL = %q, want %q", cfg.BackendURL, defaultBackendURL)
	}
	if cfg.DBPath == "" {
		t.Error("DBPath should have a default")
	}
	if cfg.Timeout() != defaultTimeout {
		t.Errorf("Timeout = %v, want %v", cfg.Timeout(), defaultTimeout)
	}
}

func TestLoadFileAndEnvOverrides(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	content := "backendUrl: https://file.example.com\ntimeoutSeconds: 30\n"
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatalf("write config: %v", err)
	}

	t.Setenv(configPathEnv, path)
	t.Setenv(backendURLEnv, "https://env.example.com")
	t.Setenv(dbPathEnv, "/tmp/other.sqlite")

	cfg := Load()

	// Env wins over file, file wins over default.
	if cfg.BackendURL != "https://env.example.com" {
		t.Errorf("BackendURL = %q, want env override", cfg.BackendURL)
	}
	if cfg.DBPath != "/tmp/other.sqlite" {
		t.Errorf("DBPath = %q, want env override", cfg.DBPath)
	}
	if cfg.Timeout() != 30*time.Second {
		t.Errorf("Timeout = %v, want 30s from file", cfg.Timeout())
	}
}

func TestLoadBrokenFileFallsBack(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte("backendUrl: [unclosed"), 0644); err != nil {
		t.Fatalf("write config: %v", err)
	}

	t.Setenv(configPathEnv, path)
	t.Setenv(backendURLEnv, "")
	t.Setenv(dbPathEnv, "")

	cfg := Load()
	if cfg.BackendURL != defaultBackendURL {
		t.Errorf("BackendURL = %q, want default after parse failure", cfg.BackendURL)
	}
}
