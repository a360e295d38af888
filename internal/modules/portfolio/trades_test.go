package portfolio

import (
	"testing"

	"github.com/aristath/rebalancer/internal/modules/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestComputePortfolioTrades(t *testing.T) {
	tests := []struct {
		name     string
		current  map[string]float64
		target   map[string]float64
		expected map[string]int64
	}{
		{
			name:     "empty maps",
			current:  map[string]float64{},
			target:   map[string]float64{},
			expected: map[string]int64{},
		},
		{
			name:     "simple buy",
			current:  map[string]float64{"AAPL": 5},
			target:   map[string]float64{"AAPL": 10},
			expected: map[string]int64{"AAPL": 5},
		},
		{
			name:     "simple sell",
			current:  map[string]float64{"AAPL": 10},
			target:   map[string]float64{"AAPL": 5},
			expected: map[string]int64{"AAPL": -5},
		},
		{
			name:     "symbol only in current",
			current:  map[string]float64{"AAPL": 3},
			target:   map[string]float64{},
			expected: map[string]int64{"AAPL": -3},
		},
		{
			name:     "symbol only in target",
			current:  map[string]float64{},
			target:   map[string]float64{"GOOG": 7},
			expected: map[string]int64{"GOOG": 7},
		},
		{
			name:    "floor truncates toward negative infinity",
			current: map[string]float64{"AAPL": 5, "GOOG": 3},
			target:  map[string]float64{"AAPL": 20.5, "GOOG": 10.25},
			// 15.5 -> 15, 7.25 -> 7
			expected: map[string]int64{"AAPL": 15, "GOOG": 7},
		},
		{
			name:    "fractional sell floors to larger sell",
			current: map[string]float64{"AAPL": 10},
			target:  map[string]float64{"AAPL": 9.5},
			// -0.5 floors to -1: toward negative infinity, not toward zero
			expected: map[string]int64{"AAPL": -1},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, ComputePortfolioTrades(tt.current, tt.target))
		})
	}
}

func TestCalculateTargetShares(t *testing.T) {
	// Account A: cash 1000, AAPL:5. Account B: cash 2000, GOOG:3.
	// Total value = 1000 + 5*100 + 2000 + 3*200 = 4100.
	// AAPL target = 2050/100 = 20.5, GOOG target = 2050/200 = 10.25.
	m, err := model.New("even", map[string]float64{"AAPL": 0.5, "GOOG": 0.5}, true)
	require.NoError(t, err)

	positions := map[string]float64{"AAPL": 5, "GOOG": 3}
	prices := map[string]float64{"AAPL": 100, "GOOG": 200}

	targets, err := CalculateTargetShares(positions, 3000, prices, m)
	require.NoError(t, err)
	assert.InDelta(t, 20.5, targets["AAPL"], 1e-9)
	assert.InDelta(t, 10.25, targets["GOOG"], 1e-9)

	trades := ComputePortfolioTrades(positions, targets)
	assert.Equal(t, map[string]int64{"AAPL": 15, "GOOG": 7}, trades)
}

func TestCalculateTargetShares_MissingModelPrice(t *testing.T) {
	m, err := model.New("even", map[string]float64{"AAPL": 1}, true)
	require.NoError(t, err)

	_, err = CalculateTargetShares(nil, 1000, map[string]float64{}, m)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "AAPL")
}

func TestAggregatePositionsAndTotalCash(t *testing.T) {
	a, err := NewAccount("a", "1", 1000, map[string]float64{"AAPL": 5}, true)
	require.NoError(t, err)
	b, err := NewAccount("b", "2", 2000, map[string]float64{"AAPL": 2, "GOOG": 3}, true)
	require.NoError(t, err)

	accounts := []*Account{a, b}
	assert.Equal(t, map[string]float64{"AAPL": 7, "GOOG": 3}, AggregatePositions(accounts))
	assert.Equal(t, 3000.0, TotalCash(accounts))
}
