package selection

import (
	"sort"

	"github.com/aristath/rebalancer/internal/modules/portfolio"
)

// ForSell picks the account to carry a sell of qty shares of symbol.
// qty is the desired sell magnitude (positive).
//
// Candidates are accounts with a strictly positive holding, ordered by holding
// size descending (ties keep input order). The first candidate able to cover
// the full quantity wins; when none can, the largest holder takes a partial
// fill. Returns ok=false when no account holds the symbol.
func ForSell(symbol string, qty int64, accounts []*portfolio.Account) (string, bool) {
	holders := holdersBySizeDesc(symbol, accounts)
	if len(holders) == 0 {
		return "", false
	}

	for _, account := range holders {
		held, _ := account.Position(symbol)
		if held >= float64(qty) {
			return account.ID, true
		}
	}
	// Partial fulfillment fallback: the single largest holder.
	return holders[0].ID, true
}

// holdersBySizeDesc returns accounts with a positive holding of symbol,
// largest holding first. Stable so that equal holdings keep input order.
func holdersBySizeDesc(symbol string, accounts []*portfolio.Account) []*portfolio.Account {
	var holders []*portfolio.Account
	for _, account := range accounts {
		if account.Holds(symbol) {
			holders = append(holders, account)
		}
	}
	sort.SliceStable(holders, func(i, j int) bool {
		hi, _ := holders[i].Position(symbol)
		hj, _ := holders[j].Position(symbol)
		return hi > hj
	})
	return holders
}
