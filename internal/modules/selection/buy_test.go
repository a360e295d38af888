package selection

import (
	"testing"

	"github.com/aristath/rebalancer/internal/modules/portfolio"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func mustAccount(t *testing.T, label, id string, cash float64, positions map[string]float64) *portfolio.Account {
	t.Helper()
	a, err := portfolio.NewAccount(label, id, cash, positions, true)
	require.NoError(t, err)
	return a
}

func cashMatrix(accounts ...*portfolio.Account) map[string]float64 {
	cash := make(map[string]float64, len(accounts))
	for _, a := range accounts {
		cash[a.ID] = a.Cash
	}
	return cash
}

func TestForBuy_HolderWithFullAffordabilityWins(t *testing.T) {
	a := mustAccount(t, "a", "A", 1000, nil)
	b := mustAccount(t, "b", "B", 3000, map[string]float64{"GOOG": 10})
	accounts := []*portfolio.Account{a, b}
	prices := map[string]float64{"GOOG": 100}

	id, ok := ForBuy("GOOG", 10, accounts, prices, cashMatrix(a, b))
	require.True(t, ok)
	assert.Equal(t, "B", id, "existing holder that can fully fulfill beats richer non-holder")
}

func TestForBuy_FirstFullHolderInInputOrder(t *testing.T) {
	a := mustAccount(t, "a", "A", 5000, map[string]float64{"GOOG": 1})
	b := mustAccount(t, "b", "B", 9000, map[string]float64{"GOOG": 50})
	accounts := []*portfolio.Account{a, b}
	prices := map[string]float64{"GOOG": 100}

	id, ok := ForBuy("GOOG", 10, accounts, prices, cashMatrix(a, b))
	require.True(t, ok)
	assert.Equal(t, "A", id, "position size among full-fulfillers is irrelevant")
}

func TestForBuy_PartialHolderBeatsFullNonHolder(t *testing.T) {
	holder := mustAccount(t, "h", "H", 500, map[string]float64{"GOOG": 2})
	rich := mustAccount(t, "r", "R", 10000, nil)
	accounts := []*portfolio.Account{rich, holder}
	prices := map[string]float64{"GOOG": 100}

	id, ok := ForBuy("GOOG", 10, accounts, prices, cashMatrix(holder, rich))
	require.True(t, ok)
	assert.Equal(t, "H", id, "a holder with any affordability outranks all non-holders")
}

func TestForBuy_LargestPartialHolder(t *testing.T) {
	small := mustAccount(t, "s", "S", 200, map[string]float64{"GOOG": 1})
	big := mustAccount(t, "b", "B", 700, map[string]float64{"GOOG": 1})
	accounts := []*portfolio.Account{small, big}
	prices := map[string]float64{"GOOG": 100}

	id, ok := ForBuy("GOOG", 10, accounts, prices, cashMatrix(small, big))
	require.True(t, ok)
	assert.Equal(t, "B", id)
}

func TestForBuy_NonHolderTiers(t *testing.T) {
	poor := mustAccount(t, "p", "P", 300, nil)
	rich := mustAccount(t, "r", "R", 2000, nil)
	prices := map[string]float64{"GOOG": 100}

	// Tier 3: first non-holder that can fully afford
	id, ok := ForBuy("GOOG", 10, []*portfolio.Account{poor, rich}, prices, cashMatrix(poor, rich))
	require.True(t, ok)
	assert.Equal(t, "R", id)

	// Tier 4: largest partial affordability when nobody can fully afford
	id, ok = ForBuy("GOOG", 50, []*portfolio.Account{poor, rich}, prices, cashMatrix(poor, rich))
	require.True(t, ok)
	assert.Equal(t, "R", id)
}

func TestForBuy_NoFeasibleAccount(t *testing.T) {
	broke := mustAccount(t, "b", "B", 50, nil)
	prices := map[string]float64{"GOOG": 100}

	_, ok := ForBuy("GOOG", 10, []*portfolio.Account{broke}, prices, cashMatrix(broke))
	assert.False(t, ok)

	// Unknown price is never feasible
	_, ok = ForBuy("MSFT", 1, []*portfolio.Account{broke}, prices, cashMatrix(broke))
	assert.False(t, ok)
}

func TestForBuy_PartialTieKeepsFirstEncounteredMax(t *testing.T) {
	first := mustAccount(t, "f", "F", 500, map[string]float64{"GOOG": 1})
	second := mustAccount(t, "s", "S", 500, map[string]float64{"GOOG": 4})
	accounts := []*portfolio.Account{first, second}
	prices := map[string]float64{"GOOG": 100}

	id, ok := ForBuy("GOOG", 10, accounts, prices, cashMatrix(first, second))
	require.True(t, ok)
	assert.Equal(t, "F", id, "equal affordable quantities resolve to the first in input order")
}
