package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFromEnv_Defaults(t *testing.T) {
	cfg, err := FromEnv()
	require.NoError(t, err)

	assert.Equal(t, "info", cfg.Logging.Level)
	assert.False(t, cfg.Logging.Development)
	assert.Equal(t, "flare", cfg.Subgraph.Network)
	assert.Equal(t, 60*time.Second, cfg.Subgraph.Timeout)
	assert.Equal(t, 100, cfg.Subgraph.PageSize)
	assert.Equal(t, 500*time.Millisecond, cfg.Subgraph.PageDelay)
	assert.Equal(t, 3, cfg.Subgraph.MaxRetries)
	assert.Equal(t, 10*time.Minute, cfg.Subgraph.CacheTTL)
	assert.Equal(t, 22, cfg.Model.OutputSkipRows)
	assert.Equal(t, 0, cfg.Model.InputSkipRows)
	assert.Equal(t, "out", cfg.OutputDir)
	assert.Empty(t, cfg.MetricsAddr)
}

func TestFromEnv_Overrides(t *testing.T) {
	t.Setenv("LOG_LEVEL", "debug")
	t.Setenv("LOG_DEV", "true")
	t.Setenv("NETWORK", "Base")
	t.Setenv("SUBGRAPH_URL_BASE", "https://example.test/base")
	t.Setenv("SUBGRAPH_PAGE_SIZE", "250")
	t.Setenv("SUBGRAPH_PAGE_DELAY", "0s")
	t.Setenv("POSTGRES_DSN", "postgres://u:p@localhost:5432/db")
	t.Setenv("POSTGRES_MAX_CONNS", "4")
	t.Setenv("METRICS_ADDR", ":9100")

	cfg, err := FromEnv()
	require.NoError(t, err)

	assert.Equal(t, "debug", cfg.Logging.Level)
	assert.True(t, cfg.Logging.Development)
	assert.Equal(t, "base", cfg.Subgraph.Network)
	assert.Equal(t, "https://example.test/base", cfg.Subgraph.Endpoints["base"])
	assert.Equal(t, 250, cfg.Subgraph.PageSize)
	assert.Equal(t, time.Duration(0), cfg.Subgraph.PageDelay)
	assert.Equal(t, "postgres://u:p@localhost:5432/db", cfg.Storage.PostgresDSN)
	assert.Equal(t, 4, cfg.Storage.PostgresMaxConns)
	assert.Equal(t, ":9100", cfg.MetricsAddr)
}

func TestFromEnv_InvalidValues(t *testing.T) {
	t.Setenv("SUBGRAPH_PAGE_SIZE", "many")
	t.Setenv("SUBGRAPH_TIMEOUT", "soon")
	t.Setenv("LOG_DEV", "maybe")

	_, err := FromEnv()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "SUBGRAPH_PAGE_SIZE")
	assert.Contains(t, err.Error(), "SUBGRAPH_TIMEOUT")
	assert.Contains(t, err.Error(), "LOG_DEV")
}

func TestFromEnv_OutOfRange(t *testing.T) {
	t.Setenv("SUBGRAPH_PAGE_SIZE", "0")
	t.Setenv("POSTGRES_MAX_CONNS", "-1")

	_, err := FromEnv()
	assert.ErrorContains(t, err, "must be positive")
	assert.ErrorContains(t, err, "POSTGRES_MAX_CONNS")
}

func TestLoad_DotEnv(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, ".env"), []byte("OUTPUT_DIR=reports\n"), 0o600))

	wd, err := os.Getwd()
	require.NoError(t, err)
	require.NoError(t, os.Chdir(dir))
	t.Cleanup(func() {
		_ = os.Chdir(wd)
		_ = os.Unsetenv("OUTPUT_DIR")
	})

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, "reports", cfg.OutputDir)
}
