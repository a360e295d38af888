// Package config provides configuration management functionality.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"

	"github.com/joho/godotenv"
)

// Config holds application configuration. Values come from environment
// variables, optionally seeded from a .env file in the working directory.
type Config struct {
	DataDir  string // Base directory for the snapshot database
	Port     int
	LogLevel string
	DevMode  bool

	// Rebalance defaults, overridable per API request
	MaxIterations int
	Tolerance     float64
	MinTradeValue float64
	TaxAware      bool

	// Scheduled rebalancing; an empty schedule disables the job
	RebalanceSchedule string // cron expression, e.g. "0 18 * * MON-FRI"
	WatchDir          string // accounts.json / prices.json / model.json inputs
	OutputDir         string // executed trade lists
}

// Load reads configuration from the environment.
func Load() (*Config, error) {
	// .env is optional; real deployments use actual environment variables
	_ = godotenv.Load()

	cfg := &Config{
		DataDir:           getEnv("REBALANCER_DATA_DIR", "./data"),
		LogLevel:          getEnv("REBALANCER_LOG_LEVEL", "info"),
		DevMode:           getBoolEnv("REBALANCER_DEV_MODE", false),
		TaxAware:          getBoolEnv("REBALANCER_TAX_AWARE", false),
		RebalanceSchedule: getEnv("REBALANCER_SCHEDULE", ""),
	}

	var err error
	if cfg.Port, err = getIntEnv("REBALANCER_PORT", 8080); err != nil {
		return nil, err
	}
	if cfg.MaxIterations, err = getIntEnv("REBALANCER_MAX_ITERATIONS", 1000); err != nil {
		return nil, err
	}
	if cfg.Tolerance, err = getFloatEnv("REBALANCER_TOLERANCE", 0.1); err != nil {
		return nil, err
	}
	if cfg.MinTradeValue, err = getFloatEnv("REBALANCER_MIN_TRADE_VALUE", 0); err != nil {
		return nil, err
	}

	if cfg.MaxIterations < 0 {
		return nil, fmt.Errorf("REBALANCER_MAX_ITERATIONS must not be negative, got %d", cfg.MaxIterations)
	}

	absDataDir, err := filepath.Abs(cfg.DataDir)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve data dir: %w", err)
	}
	cfg.DataDir = absDataDir

	cfg.WatchDir = getEnv("REBALANCER_WATCH_DIR", filepath.Join(cfg.DataDir, "watch"))
	cfg.OutputDir = getEnv("REBALANCER_OUTPUT_DIR", filepath.Join(cfg.DataDir, "out"))

	return cfg, nil
}

// SnapshotDBPath returns the path of the snapshot database file.
func (c *Config) SnapshotDBPath() string {
	return filepath.Join(c.DataDir, "snapshots.db")
}

func getEnv(key, fallback string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return fallback
}

func getBoolEnv(key string, fallback bool) bool {
	value := os.Getenv(key)
	if value == "" {
		return fallback
	}
	parsed, err := strconv.ParseBool(value)
	if err != nil {
		return fallback
	}
	return parsed
}

func getIntEnv(key string, fallback int) (int, error) {
	value := os.Getenv(key)
	if value == "" {
		return fallback, nil
	}
	parsed, err := strconv.Atoi(value)
	if err != nil {
		return 0, fmt.Errorf("invalid %s %q: %w", key, value, err)
	}
	return parsed, nil
}

func getFloatEnv(key string, fallback float64) (float64, error) {
	value := os.Getenv(key)
	if value == "" {
		return fallback, nil
	}
	parsed, err := strconv.ParseFloat(value, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid %s %q: %w", key, value, err)
	}
	return parsed, nil
}
