package app

import (
	"bytes"
	"log/slog"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/specialistvlad/deploygrid/internal/executor"
)

func TestNewConfig_Defaults(t *testing.T) {
	cfg, err := NewConfig(Config{GridPath: "grid.hcl"})
	require.NoError(t, err)
	assert.Equal(t, "text", cfg.LogFormat)
	assert.Equal(t, "info", cfg.LogLevel)
	assert.Equal(t, 1, cfg.Workers)
	assert.Equal(t, executor.DefaultTimeout, cfg.Timeout)
	assert.Equal(t, "artifacts", cfg.ArtifactsPath)
}

func TestNewConfig_Invalid(t *testing.T) {
	tests := []struct {
		name    string
		cfg     Config
		wantErr string
	}{
		{"log format", Config{LogFormat: "xml"}, "invalid log-format"},
		{"log level", Config{LogLevel: "trace"}, "invalid log-level"},
		{"workers", Config{Workers: -1}, "invalid workers"},
		{"timeout", Config{Timeout: -time.Second}, "invalid timeout"},
		{"port", Config{HealthcheckPort: 70000}, "invalid healthcheck-port"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := NewConfig(tt.cfg)
			assert.ErrorContains(t, err, tt.wantErr)
		})
	}
}

func TestNewLogger(t *testing.T) {
	var buf bytes.Buffer
	logger := newLogger("warn", "json", &buf)
	logger.Info("hidden")
	logger.Warn("shown", "unit", "usdc")

	assert.NotContains(t, buf.String(), "hidden")
	assert.Contains(t, buf.String(), `"msg":"shown"`)
	assert.Contains(t, buf.String(), `"unit":"usdc"`)

	level, ok := parseLevel("debug")
	assert.True(t, ok)
	assert.Equal(t, slog.LevelDebug, level)
}

func TestLoadEnv(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, ".env")
	require.NoError(t, os.WriteFile(path, []byte(
		"DG_ENV_TEST_RPC=\"https://rpc.example\"\nDG_ENV_TEST_KEY=0xfile\n"), 0o600))
	t.Setenv("DG_ENV_TEST_KEY", "0xprocess")

	env, err := loadEnv(path)
	require.NoError(t, err)
	assert.Equal(t, "https://rpc.example", env["DG_ENV_TEST_RPC"])
	assert.Equal(t, "0xprocess", env["DG_ENV_TEST_KEY"], "process environment wins")

	env, err = loadEnv(filepath.Join(dir, "missing.env"))
	require.NoError(t, err)
	assert.Equal(t, "0xprocess", env["DG_ENV_TEST_KEY"])
	assert.NotContains(t, env, "DG_ENV_TEST_RPC")
}

func TestLoadEnv_KeepsNameCase(t *testing.T) {
	path := filepath.Join(t.TempDir(), ".env")
	require.NoError(t, os.WriteFile(path, []byte("dgEnvTestRpcUrl=http://mixed\nDG_ENV_TEST_UPPER=up\n"), 0o600))

	env, err := loadEnv(path)
	require.NoError(t, err)
	assert.Equal(t, "http://mixed", env["dgEnvTestRpcUrl"])
	assert.Equal(t, "up", env["DG_ENV_TEST_UPPER"])
	assert.NotContains(t, env, "DGENVTESTRPCURL")
}
