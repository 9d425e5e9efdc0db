package config

import (
	"os"
	"path/filepath"
	"testing"
)

func TestLoadDefaults(t *testing.T) {
	cfg, err := LoadWithPath(t.TempDir())
	if err != nil {
		t.Fatalf("load failed: %v", err)
	}

	if cfg.Server.Port != 8090 {
		t.Errorf("expected default port 8090, got %d", cfg.Server.Port)
	}
	if cfg.Gateway.URL != "ws://localhost:3001/ws" {
		t.Errorf("unexpected default gateway url %q", cfg.Gateway.URL)
	}
	if cfg.History.Path != "" {
		t.Errorf("default history path should be empty (in-memory), got %q", cfg.History.Path)
	}
}

func TestLoadEnvOverrides(t *testing.T) {
	t.Setenv("STARKBOT_BACKEND_BASE_URL", "http://backend:9000")
	t.Setenv("STARKBOT_TOKEN", "sekrit")
	t.Setenv("STARKBOT_GATEWAY_URL", "wss://backend:9000/ws")

	cfg, err := LoadWithPath(t.TempDir())
	if err != nil {
		t.Fatalf("load failed: %v", err)
	}

	if cfg.Backend.BaseURL != "http://backend:9000" {
		t.Errorf("env override for backend url not applied, got %q", cfg.Backend.BaseURL)
	}
	if cfg.Backend.Token != "sekrit" {
		t.Errorf("env override for token not applied, got %q", cfg.Backend.Token)
	}
	if cfg.Gateway.URL != "wss://backend:9000/ws" {
		t.Errorf("env override for gateway url not applied, got %q", cfg.Gateway.URL)
	}
}

func TestLoadConfigFile(t *testing.T) {
	dir := t.TempDir()
	yaml := []byte("server:\n  port: 9999\nlogging:\n  level: debug\n")
	if err := os.WriteFile(filepath.Join(dir, "config.yaml"), yaml, 0o644); err != nil {
		t.Fatalf("failed to write config: %v", err)
	}

	cfg, err := LoadWithPath(dir)
	if err != nil {
		t.Fatalf("load failed: %v", err)
	}
	if cfg.Server.Port != 9999 {
		t.Errorf("config file port not applied, got %d", cfg.Server.Port)
	}
	if cfg.Logging.Level != "debug" {
		t.Errorf("config file log level not applied, got %q", cfg.Logging.Level)
	}
}

func TestValidateRejectsBadGatewayURL(t *testing.T) {
	dir := t.TempDir()
	yaml := []byte("gateway:\n  url: http://not-a-websocket\n")
	if err := os.WriteFile(filepath.Join(dir, "config.yaml"), yaml, 0o644); err != nil {
		t.Fatalf("failed to write config: %v", err)
	}

	if _, err := LoadWithPath(dir); err == nil {
		t.Error("expected validation error for non-ws gateway url")
	}
}
