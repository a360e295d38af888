package portfolio

import (
	"math"

	"github.com/aristath/rebalancer/internal/domain"
	"github.com/aristath/rebalancer/internal/modules/model"
)

// ComputePortfolioTrades maps aggregate current and target share counts to the
// net per-symbol trade needed at the portfolio level.
//
// The union of symbols on both sides is taken first, defaulting missing
// entries to 0; skipping the union would silently drop symbols that exist on
// only one side. Each net trade is floor(target - current), truncating toward
// negative infinity rather than toward zero: a required sell of 0.5 shares
// becomes 0, never a full-share oversell. The slight persistent underweight
// this causes is the intended trade-off.
func ComputePortfolioTrades(current, target map[string]float64) map[string]int64 {
	symbols := make(map[string]struct{}, len(current)+len(target))
	for symbol := range current {
		symbols[symbol] = struct{}{}
	}
	for symbol := range target {
		symbols[symbol] = struct{}{}
	}

	trades := make(map[string]int64, len(symbols))
	for symbol := range symbols {
		trades[symbol] = int64(math.Floor(target[symbol] - current[symbol]))
	}
	return trades
}

// CalculateTargetShares converts a normalized model into per-symbol target
// share counts. Total portfolio value is total cash plus the market value of
// every position; each model symbol's target is weight * total / price.
// A model symbol with no price in the table is an error.
func CalculateTargetShares(
	positions map[string]float64,
	totalCash float64,
	prices map[string]float64,
	m *model.PortfolioModel,
) (map[string]float64, error) {
	totalValue := totalCash
	for symbol, qty := range positions {
		totalValue += qty * prices[symbol]
	}

	weights := m.Normalize()
	targets := make(map[string]float64, len(weights))
	for symbol, weight := range weights {
		price, ok := prices[symbol]
		if !ok {
			return nil, domain.NewValidationError("price table",
				"no price for model symbol %s in model %q", symbol, m.Name)
		}
		targets[symbol] = weight * totalValue / price
	}
	return targets, nil
}

// AggregatePositions sums positions per symbol across a set of accounts.
func AggregatePositions(accounts []*Account) map[string]float64 {
	total := make(map[string]float64)
	for _, account := range accounts {
		for symbol, qty := range account.Positions() {
			total[symbol] += qty
		}
	}
	return total
}

// TotalCash sums the cash balances of a set of accounts.
func TotalCash(accounts []*Account) float64 {
	var total float64
	for _, account := range accounts {
		total += account.Cash
	}
	return total
}
