package config

import (
	"context"
	"log/slog"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	t.Setenv("MODEL_PATH", "")
	t.Setenv("HTTP_ADDR", "")
	t.Setenv("NATS_ENABLED", "")

	cfg, err := Load("")
	require.NoError(t, err)

	assert.Equal(t, "attrition_model.json", cfg.ModelPath)
	assert.Equal(t, ":5000", cfg.HTTPAddr)
	assert.False(t, cfg.NatsEnabled)
	assert.Equal(t, 30*time.Second, cfg.AckWait)
	assert.Equal(t, uint64(0), cfg.ContributionSeed)
}

func TestDBPathFollowsDataDir(t *testing.T) {
	t.Setenv("DATA_DIR", "/var/lib/attrition")
	t.Setenv("DB_PATH", "")

	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, filepath.Join("/var/lib/attrition", "attrition.sqlite"), cfg.DBPath)

	t.Setenv("DB_PATH", "/tmp/other.sqlite")
	cfg, err = Load("")
	require.NoError(t, err)
	assert.Equal(t, "/tmp/other.sqlite", cfg.DBPath)
}

func TestLoadFromEnvFile(t *testing.T) {
	dir := t.TempDir()
	envFile := filepath.Join(dir, "test.env")
	content := "# comment\nMODEL_PATH=models/custom.json\nNATS_ENABLED=true\nACK_WAIT=5s\nCONTRIBUTION_SEED=\"42\"\n"
	require.NoError(t, os.WriteFile(envFile, []byte(content), 0o644))

	t.Setenv("MODEL_PATH", "")
	t.Setenv("NATS_ENABLED", "")
	t.Setenv("ACK_WAIT", "")
	t.Setenv("CONTRIBUTION_SEED", "")

	cfg, err := Load(envFile)
	require.NoError(t, err)

	assert.Equal(t, "models/custom.json", cfg.ModelPath)
	assert.True(t, cfg.NatsEnabled)
	assert.Equal(t, 5*time.Second, cfg.AckWait)
	assert.Equal(t, uint64(42), cfg.ContributionSeed)
}

func TestInvalidValuesFallBackToDefaults(t *testing.T) {
	t.Setenv("WORKER_CONCURRENCY", "many")
	t.Setenv("QUEUE_MAX_AGE", "soon")
	t.Setenv("NATS_ENABLED", "maybe")

	cfg, err := Load("")
	require.NoError(t, err)

	assert.Equal(t, 2, cfg.Concurrency)
	assert.Equal(t, 30*time.Second, cfg.MaxAge)
	assert.False(t, cfg.NatsEnabled)
}

func TestNonPositiveDurationsFallBackToDefaults(t *testing.T) {
	tests := []struct {
		key   string
		value string
		get   func(*Config) time.Duration
		want  time.Duration
	}{
		{"HEARTBEAT_INTERVAL", "0s", func(c *Config) time.Duration { return c.HeartbeatInterval }, 30 * time.Second},
		{"HEARTBEAT_INTERVAL", "-5s", func(c *Config) time.Duration { return c.HeartbeatInterval }, 30 * time.Second},
		{"ACK_WAIT", "0", func(c *Config) time.Duration { return c.AckWait }, 30 * time.Second},
		{"HEARTBEAT_INTERVAL", "10s", func(c *Config) time.Duration { return c.HeartbeatInterval }, 10 * time.Second},
	}

	for _, tt := range tests {
		t.Run(tt.key+"="+tt.value, func(t *testing.T) {
			t.Setenv(tt.key, tt.value)

			cfg, err := Load("")
			require.NoError(t, err)
			assert.Equal(t, tt.want, tt.get(cfg))
		})
	}
}

func TestParseLevel(t *testing.T) {
	tests := []struct {
		input    string
		expected slog.Level
	}{
		{"debug", slog.LevelDebug},
		{"INFO", slog.LevelInfo},
		{"warn", slog.LevelWarn},
		{"warning", slog.LevelWarn},
		{"error", slog.LevelError},
		{"", slog.LevelInfo},
		{"xyzzy", slog.LevelInfo},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			assert.Equal(t, tt.expected, ParseLevel(tt.input))
		})
	}
}

func TestNewLogger(t *testing.T) {
	for _, format := range []string{"json", "text"} {
		cfg := &Config{LogLevel: "debug", LogFormat: format}
		logger := cfg.NewLogger()
		require.NotNil(t, logger)
		assert.True(t, logger.Enabled(context.Background(), slog.LevelDebug))
	}
}
