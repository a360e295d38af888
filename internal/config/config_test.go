package config

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, 8080, cfg.Port)
	assert.Equal(t, "info", cfg.LogLevel)
	assert.Equal(t, 1000, cfg.MaxIterations)
	assert.Equal(t, 0.1, cfg.Tolerance)
	assert.Empty(t, cfg.RebalanceSchedule)
	assert.Contains(t, cfg.SnapshotDBPath(), "snapshots.db")
}

func TestLoad_Overrides(t *testing.T) {
	t.Setenv("REBALANCER_PORT", "9999")
	t.Setenv("REBALANCER_LOG_LEVEL", "debug")
	t.Setenv("REBALANCER_MAX_ITERATIONS", "25")
	t.Setenv("REBALANCER_TOLERANCE", "0.5")
	t.Setenv("REBALANCER_TAX_AWARE", "true")
	t.Setenv("REBALANCER_WATCH_DIR", "/tmp/watch")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, 9999, cfg.Port)
	assert.Equal(t, "debug", cfg.LogLevel)
	assert.Equal(t, 25, cfg.MaxIterations)
	assert.Equal(t, 0.5, cfg.Tolerance)
	assert.True(t, cfg.TaxAware)
	assert.Equal(t, "/tmp/watch", cfg.WatchDir)
}

func TestLoad_InvalidValues(t *testing.T) {
	t.Setenv("REBALANCER_PORT", "not-a-port")
	_, err := Load()
	assert.Error(t, err)
}

func TestLoad_NegativeMaxIterations(t *testing.T) {
	t.Setenv("REBALANCER_MAX_ITERATIONS", "-1")
	_, err := Load()
	assert.Error(t, err)
}
