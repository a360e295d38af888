package scheduler

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/aristath/rebalancer/internal/modules/rebalancing"
	"github.com/aristath/rebalancer/pkg/logger"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
}

func TestRebalanceJob_Run(t *testing.T) {
	log := logger.New(logger.Config{Level: "error"})
	watchDir := t.TempDir()
	outputDir := filepath.Join(t.TempDir(), "out")

	writeFile(t, filepath.Join(watchDir, "accounts.json"),
		`[{"label": "a", "account_id": "A", "cash": 1000, "positions": {"AAPL": 5},
		   "enforce_no_negative_positions": true},
		  {"label": "b", "account_id": "B", "cash": 2000, "positions": {"GOOG": 3},
		   "enforce_no_negative_positions": true}]`)
	writeFile(t, filepath.Join(watchDir, "prices.json"), `{"AAPL": 100, "GOOG": 200}`)
	writeFile(t, filepath.Join(watchDir, "model.json"),
		`{"name": "even", "targets": {"AAPL": 0.5, "GOOG": 0.5}, "enforce_long_only": true}`)

	svc := rebalancing.NewService(nil, log)
	job := NewRebalanceJob(svc, nil, watchDir, outputDir,
		rebalancing.Options{MaxIterations: 50}, log)

	assert.Equal(t, "rebalance", job.Name())
	require.NoError(t, job.Run())

	entries, err := os.ReadDir(outputDir)
	require.NoError(t, err)
	require.Len(t, entries, 1)

	data, err := os.ReadFile(filepath.Join(outputDir, entries[0].Name()))
	require.NoError(t, err)
	assert.Contains(t, string(data), "account_id,symbol,shares")
	assert.Contains(t, string(data), "GOOG")
}

func TestRebalanceJob_MissingInputs(t *testing.T) {
	log := logger.New(logger.Config{Level: "error"})
	svc := rebalancing.NewService(nil, log)
	job := NewRebalanceJob(svc, nil, t.TempDir(), t.TempDir(),
		rebalancing.Options{MaxIterations: 5}, log)

	err := job.Run()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "accounts")
}
