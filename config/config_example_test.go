package config

import (
	"path/filepath"
	"testing"
)

func TestLoad_ExampleFile(t *testing.T) {
	path, err := filepath.Abs("config.example.yaml")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	isolate(t)
	t.Setenv(ConfigPathEnv, path)

	cfg, err := Load()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if err := cfg.Validate(); err != nil {
		t.Fatalf("example config does not validate: %v", err)
	}

	if cfg.Target.BaseURL != "http://localhost:8089" {
		t.Errorf("expected base URL http://localhost:8089, got %s", cfg.Target.BaseURL)
	}
	if cfg.Target.LoginPassword != "demo123" {
		t.Errorf("expected default login password, got %q", cfg.Target.LoginPassword)
	}
	if cfg.Storage.Type != StorageSQLite {
		t.Errorf("expected sqlite storage, got %s", cfg.Storage.Type)
	}
	if cfg.MockBank.Port != "8089" {
		t.Errorf("expected mockbank port 8089, got %s", cfg.MockBank.Port)
	}
}
