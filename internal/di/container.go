// Package di wires application dependencies into a single container.
package di

import (
	"fmt"

	"github.com/rs/zerolog"

	"github.com/aristath/rebalancer/internal/config"
	"github.com/aristath/rebalancer/internal/database"
	"github.com/aristath/rebalancer/internal/domain"
	"github.com/aristath/rebalancer/internal/modules/rebalancing"
	"github.com/aristath/rebalancer/internal/modules/state"
	"github.com/aristath/rebalancer/internal/modules/validation"
	"github.com/aristath/rebalancer/internal/scheduler"
)

// Container holds all application dependencies.
type Container struct {
	SnapshotDB         *database.DB
	SnapshotRepo       *state.SnapshotRepository
	ValidationEngine   *validation.Engine
	ValidatorRegistry  *validation.Registry
	ValidatorNames     []string
	RebalancingService *rebalancing.Service
	RebalanceDefaults  rebalancing.Options
	Scheduler          *scheduler.Scheduler

	log zerolog.Logger
}

// New builds the container from configuration.
func New(cfg *config.Config, log zerolog.Logger) (*Container, error) {
	c := &Container{log: log}

	db, err := database.New(database.Config{Path: cfg.SnapshotDBPath(), Name: "snapshots"})
	if err != nil {
		return nil, fmt.Errorf("failed to open snapshot database: %w", err)
	}
	c.SnapshotDB = db

	c.SnapshotRepo, err = state.NewSnapshotRepository(db.Conn(), log)
	if err != nil {
		return nil, err
	}

	c.ValidatorRegistry = validation.NewRegistry()
	c.ValidatorNames = c.ValidatorRegistry.Names()

	// The minimum-value validator is always in the chain; with a zero
	// threshold it still rejects degenerate zero-quantity trades.
	minValue, err := c.ValidatorRegistry.Build("minimum_value",
		map[string]float64{"minimum_value": cfg.MinTradeValue})
	if err != nil {
		return nil, err
	}
	c.ValidationEngine = validation.NewEngine([]domain.TradeValidator{minValue}, log)

	c.RebalanceDefaults = rebalancing.Options{
		MaxIterations: cfg.MaxIterations,
		Tolerance:     cfg.Tolerance,
		TaxAware:      cfg.TaxAware,
	}
	c.RebalancingService = rebalancing.NewService(c.ValidationEngine, log)

	c.Scheduler = scheduler.New(log)
	if cfg.RebalanceSchedule != "" {
		job := scheduler.NewRebalanceJob(
			c.RebalancingService,
			c.SnapshotRepo,
			cfg.WatchDir,
			cfg.OutputDir,
			c.RebalanceDefaults,
			log,
		)
		if err := c.Scheduler.AddJob(cfg.RebalanceSchedule, job); err != nil {
			return nil, fmt.Errorf("failed to register rebalance job: %w", err)
		}
	}

	return c, nil
}

// Close releases held resources.
func (c *Container) Close() error {
	if c.SnapshotDB != nil {
		return c.SnapshotDB.Close()
	}
	return nil
}
