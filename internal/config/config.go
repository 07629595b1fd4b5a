package config

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/sethvargo/go-envconfig"
	"gopkg.in/yaml.v3"
)

// ClientConfig holds configuration for the clinic CLI.
type ClientConfig struct {
	Server    string        `yaml:"server"`     // Backend base URL (default http://localhost:8085)
	StatePath string        `yaml:"state"`      // Session state database (default ~/.clinic/state.db, ":memory:" for testing)
	LogLevel  string        `yaml:"log_level"`  // Log level: debug, info, warn, error
	LogFormat string        `yaml:"log_format"` // Log format: text, json
	Timeout   time.Duration `yaml:"timeout"`    // Per-request timeout (default 30s)
}

// envOverrides are the environment variables consulted by Load. Unset
// variables leave the field zero and do not override.
type envOverrides struct {
	Server    string        `env:"CLINIC_SERVER"`
	StatePath string        `env:"CLINIC_STATE"`
	LogLevel  string        `env:"CLINIC_LOG_LEVEL"`
	LogFormat string        `env:"CLINIC_LOG_FORMAT"`
	Timeout   time.Duration `env:"CLINIC_TIMEOUT"`
}

// DefaultClientConfig returns sensible defaults.
func DefaultClientConfig() ClientConfig {
	return ClientConfig{
		Server:    "http://localhost:8085",
		StatePath: filepath.Join(Dir(), "state.db"),
		LogLevel:  "info",
		LogFormat: "text",
		Timeout:   30 * time.Second,
	}
}

// Dir returns the directory holding the CLI's config and state (~/.clinic).
func Dir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ".clinic"
	}
	return filepath.Join(home, ".clinic")
}

// DefaultPath returns the default config file location.
func DefaultPath() string {
	return filepath.Join(Dir(), "config.yaml")
}

// Load builds the configuration from defaults, then the YAML file at path,
// then CLINIC_* environment variables. A missing file is not an error.
func Load(ctx context.Context, path string) (ClientConfig, error) {
	cfg := DefaultClientConfig()
	if path != "" {
		if err := cfg.loadFile(path); err != nil {
			return cfg, err
		}
	}
	if err := cfg.applyEnv(ctx, envconfig.OsLookuper()); err != nil {
		return cfg, err
	}
	return cfg, nil
}

func (c *ClientConfig) loadFile(path string) error {
	data, err := os.ReadFile(path)
	if errors.Is(err, os.ErrNotExist) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("read config: %w", err)
	}
	if err := yaml.Unmarshal(data, c); err != nil {
		return fmt.Errorf("parse config %s: %w", path, err)
	}
	return nil
}

func (c *ClientConfig) applyEnv(ctx context.Context, l envconfig.Lookuper) error {
	var env envOverrides
	if err := envconfig.ProcessWith(ctx, &envconfig.Config{Target: &env, Lookuper: l}); err != nil {
		return fmt.Errorf("config from environment: %w", err)
	}
	if env.Server != "" {
		c.Server = env.Server
	}
	if env.StatePath != "" {
		c.StatePath = env.StatePath
	}
	if env.LogLevel != "" {
		c.LogLevel = env.LogLevel
	}
	if env.LogFormat != "" {
		c.LogFormat = env.LogFormat
	}
	if env.Timeout != 0 {
		c.Timeout = env.Timeout
	}
	return nil
}
