package rebalancing

import (
	"testing"

	"github.com/aristath/rebalancer/internal/domain"
	"github.com/aristath/rebalancer/internal/modules/model"
	"github.com/aristath/rebalancer/internal/modules/portfolio"
	"github.com/aristath/rebalancer/internal/modules/state"
	"github.com/aristath/rebalancer/internal/modules/validation"
	"github.com/aristath/rebalancer/pkg/logger"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testLog() zerolog.Logger {
	return logger.New(logger.Config{Level: "error"})
}

func mustAccount(t *testing.T, label, id string, cash float64, positions map[string]float64) *portfolio.Account {
	t.Helper()
	a, err := portfolio.NewAccount(label, id, cash, positions, true)
	require.NoError(t, err)
	return a
}

func TestRunRebalance_TwoAccountScenarioConverges(t *testing.T) {
	a := mustAccount(t, "a", "A", 1000, map[string]float64{"AAPL": 5})
	b := mustAccount(t, "b", "B", 2000, map[string]float64{"GOOG": 3})
	prices := map[string]float64{"AAPL": 100, "GOOG": 200}
	m, err := model.New("even", map[string]float64{"AAPL": 0.5, "GOOG": 0.5}, true)
	require.NoError(t, err)

	svc := NewService(nil, testLog())
	report, st, err := svc.RunRebalance([]*portfolio.Account{a, b}, prices, m, Options{MaxIterations: 50})
	require.NoError(t, err)

	assert.True(t, report.Converged)
	require.NotEmpty(t, report.RunID)

	// Smallest buy first (GOOG:7 to holder B), then AAPL partial in A capped
	// by cash, then the remainder in B.
	expected := []domain.Trade{
		{AccountID: "B", Symbol: "GOOG", Shares: 7},
		{AccountID: "A", Symbol: "AAPL", Shares: 10},
		{AccountID: "B", Symbol: "AAPL", Shares: 5},
	}
	assert.Equal(t, expected, report.Trades)

	// All cash spent down deterministically
	assert.Equal(t, 0.0, report.CashMatrix["A"])
	assert.Equal(t, 100.0, report.CashMatrix["B"])

	for symbol, shares := range st.PortfolioTrades() {
		assert.LessOrEqual(t, shares, int64(0), "no residual buys expected for %s", symbol)
		assert.GreaterOrEqual(t, shares, int64(0), "no residual sells expected for %s", symbol)
	}
}

func TestRunRebalance_SellsBeforeBuys(t *testing.T) {
	// All value sits in AAPL; reaching a GOOG-only target requires the sell
	// to free cash before the buy can execute.
	a := mustAccount(t, "a", "A", 0, map[string]float64{"AAPL": 10})
	prices := map[string]float64{"AAPL": 100, "GOOG": 200}
	m, err := model.New("goog-only", map[string]float64{"GOOG": 1}, true)
	require.NoError(t, err)

	svc := NewService(nil, testLog())
	report, _, err := svc.RunRebalance([]*portfolio.Account{a}, prices, m, Options{MaxIterations: 50})
	require.NoError(t, err)

	assert.True(t, report.Converged)
	expected := []domain.Trade{
		{AccountID: "A", Symbol: "AAPL", Shares: -10},
		{AccountID: "A", Symbol: "GOOG", Shares: 5},
	}
	assert.Equal(t, expected, report.Trades)
}

func TestExecuteRebalance_ZeroIterationBudget(t *testing.T) {
	a := mustAccount(t, "a", "A", 1000, nil)
	st, err := state.New([]*portfolio.Account{a}, map[string]float64{"AAPL": 100},
		map[string]int64{"AAPL": 5}, nil, testLog())
	require.NoError(t, err)

	svc := NewService(nil, testLog())
	trades, iterations, done := svc.ExecuteRebalance(st, map[string]float64{"AAPL": 5}, Options{MaxIterations: 0})

	assert.Empty(t, trades)
	assert.Equal(t, 0, iterations)
	assert.False(t, done)
	assert.Equal(t, map[string]int64{"AAPL": 5}, st.PortfolioTrades(), "state untouched")
}

func TestExecuteRebalance_AlreadyWithinTolerance(t *testing.T) {
	a := mustAccount(t, "a", "A", 1000, nil)
	st, err := state.New([]*portfolio.Account{a}, map[string]float64{"AAPL": 100},
		map[string]int64{"AAPL": 3}, nil, testLog())
	require.NoError(t, err)

	svc := NewService(nil, testLog())
	trades, _, done := svc.ExecuteRebalance(st, map[string]float64{}, Options{MaxIterations: 10, Tolerance: 5})

	assert.Empty(t, trades)
	assert.True(t, done, "imbalance below tolerance counts as settled")
}

func TestExecuteRebalance_NoFeasibleAccountReturnsPartial(t *testing.T) {
	// A sell is outstanding for a symbol no account holds: the selector finds
	// nothing, the pass makes no progress, and the run ends with the
	// imbalance intact rather than an error.
	a := mustAccount(t, "a", "A", 0, map[string]float64{"AAPL": 1})
	st, err := state.New([]*portfolio.Account{a}, map[string]float64{"AAPL": 100, "MSFT": 50},
		map[string]int64{"MSFT": -5}, nil, testLog())
	require.NoError(t, err)

	svc := NewService(nil, testLog())
	trades, _, done := svc.ExecuteRebalance(st, map[string]float64{}, Options{MaxIterations: 10})

	assert.Empty(t, trades)
	assert.False(t, done)
	assert.Equal(t, map[string]int64{"MSFT": -5}, st.PortfolioTrades())
}

func TestExecuteRebalance_ValidationChainBlocksTrades(t *testing.T) {
	a := mustAccount(t, "a", "A", 10000, nil)
	engine := validation.NewEngine([]domain.TradeValidator{
		validation.NewMinimumValueValidator(1e9),
	}, testLog())

	st, err := state.New([]*portfolio.Account{a}, map[string]float64{"AAPL": 100},
		map[string]int64{"AAPL": 5}, engine, testLog())
	require.NoError(t, err)

	svc := NewService(engine, testLog())
	trades, _, done := svc.ExecuteRebalance(st, map[string]float64{"AAPL": 5}, Options{MaxIterations: 10})

	assert.Empty(t, trades, "every candidate is rejected by the chain")
	assert.False(t, done)
}

func TestExecuteRebalance_TaxAwareRoutesBuysToDeferred(t *testing.T) {
	ira := mustAccount(t, "ira", "IRA", 2000, nil)
	ira.TaxDeferred = true
	brokerage := mustAccount(t, "brokerage", "BRK", 2000, nil)
	prices := map[string]float64{"AAPL": 100}

	st, err := state.New([]*portfolio.Account{brokerage, ira}, prices,
		map[string]int64{"AAPL": 10}, nil, testLog())
	require.NoError(t, err)

	svc := NewService(nil, testLog())
	trades, _, done := svc.ExecuteRebalance(st, map[string]float64{"AAPL": 10},
		Options{MaxIterations: 10, TaxAware: true})

	require.Len(t, trades, 1)
	assert.True(t, done)
	assert.Equal(t, domain.Trade{AccountID: "IRA", Symbol: "AAPL", Shares: 10}, trades[0],
		"the buy lands in the deferred account even though the taxable one is listed first")
}

func TestScanOrder(t *testing.T) {
	outstanding := map[string]int64{
		"BIGBUY":   20,
		"SMALLBUY": 3,
		"BIGSELL":  -15,
		"TINYSELL": -2,
	}

	entries := scanOrder(outstanding)
	symbols := make([]string, len(entries))
	for i, e := range entries {
		symbols[i] = e.symbol
	}

	assert.Equal(t, []string{"TINYSELL", "BIGSELL", "SMALLBUY", "BIGBUY"}, symbols,
		"sells before buys, smallest magnitude first within each group")
}

func TestRunRebalance_MissingModelPriceFails(t *testing.T) {
	a := mustAccount(t, "a", "A", 1000, nil)
	m, err := model.New("aapl", map[string]float64{"AAPL": 1}, true)
	require.NoError(t, err)

	svc := NewService(nil, testLog())
	_, _, err = svc.RunRebalance([]*portfolio.Account{a}, map[string]float64{}, m, Options{MaxIterations: 10})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "AAPL")
}
