package scheduler

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/rs/zerolog"

	"github.com/aristath/rebalancer/internal/modules/export"
	"github.com/aristath/rebalancer/internal/modules/importers"
	"github.com/aristath/rebalancer/internal/modules/rebalancing"
	"github.com/aristath/rebalancer/internal/modules/state"
)

// RebalanceJob runs a full rebalance from input files in a watch directory
// and writes the executed trades to the output directory. Inputs are
// accounts.json (or .csv), prices.json and model.json; the run fails when
// any of them is missing.
type RebalanceJob struct {
	service   *rebalancing.Service
	snapshots *state.SnapshotRepository
	watchDir  string
	outputDir string
	opts      rebalancing.Options
	log       zerolog.Logger
}

// NewRebalanceJob creates the scheduled rebalance job. The snapshot
// repository may be nil to skip persistence.
func NewRebalanceJob(
	service *rebalancing.Service,
	snapshots *state.SnapshotRepository,
	watchDir, outputDir string,
	opts rebalancing.Options,
	log zerolog.Logger,
) *RebalanceJob {
	return &RebalanceJob{
		service:   service,
		snapshots: snapshots,
		watchDir:  watchDir,
		outputDir: outputDir,
		opts:      opts,
		log:       log.With().Str("job", "rebalance").Logger(),
	}
}

// Name implements Job.
func (j *RebalanceJob) Name() string {
	return "rebalance"
}

// Run implements Job.
func (j *RebalanceJob) Run() error {
	accountsPath, err := findInput(j.watchDir, "accounts")
	if err != nil {
		return err
	}
	pricesPath, err := findInput(j.watchDir, "prices")
	if err != nil {
		return err
	}
	modelPath, err := findInput(j.watchDir, "model")
	if err != nil {
		return err
	}

	accounts, err := importers.LoadAccountsFile(accountsPath)
	if err != nil {
		return err
	}
	prices, err := importers.LoadPricesFile(pricesPath)
	if err != nil {
		return err
	}
	m, err := importers.LoadModelFile(modelPath)
	if err != nil {
		return err
	}

	report, st, err := j.service.RunRebalance(accounts, prices, m, j.opts)
	if err != nil {
		return err
	}

	if err := os.MkdirAll(j.outputDir, 0755); err != nil {
		return fmt.Errorf("failed to create output directory: %w", err)
	}
	outPath := filepath.Join(j.outputDir, fmt.Sprintf("trades-%s.csv", report.RunID))
	if err := export.WriteTradesFile(outPath, report.Trades); err != nil {
		return err
	}

	if j.snapshots != nil {
		if err := j.snapshots.Save(report.RunID, st.Snapshot()); err != nil {
			j.log.Error().Err(err).Str("run_id", report.RunID).Msg("Failed to persist snapshot")
		}
	}

	j.log.Info().
		Str("run_id", report.RunID).
		Int("trades", len(report.Trades)).
		Bool("converged", report.Converged).
		Str("output", outPath).
		Msg("Scheduled rebalance complete")
	return nil
}

// findInput locates <stem>.json or <stem>.csv inside dir.
func findInput(dir, stem string) (string, error) {
	for _, ext := range []string{".json", ".csv"} {
		path := filepath.Join(dir, stem+ext)
		if _, err := os.Stat(path); err == nil {
			return path, nil
		}
	}
	return "", fmt.Errorf("no %s.json or %s.csv in %s", stem, stem, dir)
}
