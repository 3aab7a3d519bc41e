package app

import (
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/specialistvlad/deploygrid/internal/executor"
)

// Config holds all the necessary configuration for an App instance to run.
type Config struct {
	GridPath      string // hcl files
	Network       string // network block to deploy to, optional with one block
	ArtifactsPath string // compiled contract artifacts
	EnvFile       string // dotenv file, missing is fine

	StateDB    string // sqlite path, empty disables persistence
	ReportPath string // json report file, optional
	JSON       bool   // json instead of text output

	LogFormat       string
	LogLevel        string
	HealthcheckPort int
	Workers         int
	Timeout         time.Duration // per unit
}

// NewConfig validates cfg and fills in defaults.
func NewConfig(cfg Config) (*Config, error) {
	cfg.LogFormat = strings.ToLower(cfg.LogFormat)
	if cfg.LogFormat == "" {
		cfg.LogFormat = "text"
	}
	if cfg.LogFormat != "text" && cfg.LogFormat != "json" {
		return nil, errors.New("invalid log-format: must be 'text' or 'json'")
	}

	cfg.LogLevel = strings.ToLower(cfg.LogLevel)
	if cfg.LogLevel == "" {
		cfg.LogLevel = "info"
	}
	if _, ok := parseLevel(cfg.LogLevel); !ok {
		return nil, errors.New("invalid log-level: must be 'debug', 'info', 'warn', or 'error'")
	}

	if cfg.Workers == 0 {
		cfg.Workers = 1
	}
	if cfg.Workers < 0 {
		return nil, fmt.Errorf("invalid workers: %d, must be at least 1", cfg.Workers)
	}
	if cfg.Timeout == 0 {
		cfg.Timeout = executor.DefaultTimeout
	}
	if cfg.Timeout < 0 {
		return nil, fmt.Errorf("invalid timeout: %s", cfg.Timeout)
	}
	if cfg.HealthcheckPort < 0 || cfg.HealthcheckPort > 65535 {
		return nil, fmt.Errorf("invalid healthcheck-port: %d", cfg.HealthcheckPort)
	}
	if cfg.ArtifactsPath == "" {
		cfg.ArtifactsPath = "artifacts"
	}

	return &cfg, nil
}

// LogValue lets a Config be logged as a group.
func (c *Config) LogValue() slog.Value {
	return slog.GroupValue(
		slog.String("grid", c.GridPath),
		slog.String("network", c.Network),
		slog.String("artifacts", c.ArtifactsPath),
		slog.String("state_db", c.StateDB),
		slog.Int("workers", c.Workers),
		slog.Duration("timeout", c.Timeout),
	)
}
