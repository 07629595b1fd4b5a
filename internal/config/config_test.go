package config

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/sethvargo/go-envconfig"
)

func TestDefaultClientConfig(t *testing.T) {
	cfg := DefaultClientConfig()
	if cfg.Server != "http://localhost:8085" {
		t.Errorf("Server = %q", cfg.Server)
	}
	if filepath.Base(cfg.StatePath) != "state.db" {
		t.Errorf("StatePath = %q", cfg.StatePath)
	}
	if cfg.Timeout != 30*time.Second {
		t.Errorf("Timeout = %v", cfg.Timeout)
	}
}

func TestLoad_MissingFile(t *testing.T) {
	cfg, err := Load(context.Background(), filepath.Join(t.TempDir(), "absent.yaml"))
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.LogLevel != "info" {
		t.Errorf("LogLevel = %q, want default", cfg.LogLevel)
	}
}

func TestLoad_FileThenEnv(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	data := "server: http://clinic.internal:9000\nlog_level: debug\ntimeout: 5s\n"
	if err := os.WriteFile(path, []byte(data), 0o600); err != nil {
		t.Fatal(err)
	}
	t.Setenv("CLINIC_LOG_LEVEL", "warn")
	t.Setenv("CLINIC_STATE", ":memory:")

	cfg, err := Load(context.Background(), path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Server != "http://clinic.internal:9000" {
		t.Errorf("Server = %q, want file value", cfg.Server)
	}
	if cfg.LogLevel != "warn" {
		t.Errorf("LogLevel = %q, want env override", cfg.LogLevel)
	}
	if cfg.StatePath != ":memory:" {
		t.Errorf("StatePath = %q", cfg.StatePath)
	}
	if cfg.Timeout != 5*time.Second {
		t.Errorf("Timeout = %v", cfg.Timeout)
	}
	if cfg.LogFormat != "text" {
		t.Errorf("LogFormat = %q, want default", cfg.LogFormat)
	}
}

func TestLoad_BadFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	os.WriteFile(path, []byte("server: [unterminated"), 0o600)
	if _, err := Load(context.Background(), path); err == nil {
		t.Error("expected parse error")
	}
}

func TestApplyEnv(t *testing.T) {
	cfg := DefaultClientConfig()
	l := envconfig.MapLookuper(map[string]string{
		"CLINIC_SERVER":  "https://clinic.example.com",
		"CLINIC_TIMEOUT": "2m",
	})
	if err := cfg.applyEnv(context.Background(), l); err != nil {
		t.Fatalf("applyEnv: %v", err)
	}
	if cfg.Server != "https://clinic.example.com" || cfg.Timeout != 2*time.Minute {
		t.Errorf("cfg = %+v", cfg)
	}

	bad := envconfig.MapLookuper(map[string]string{"CLINIC_TIMEOUT": "soon"})
	if err := cfg.applyEnv(context.Background(), bad); err == nil {
		t.Error("expected error for bad duration")
	}
}
