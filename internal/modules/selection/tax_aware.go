package selection

import (
	"github.com/aristath/rebalancer/internal/modules/portfolio"
)

// TaxAwareForSell is the sell-side selector that prefers realizing sales in
// taxable accounts before touching tax-deferred ones.
//
// Taxable holders are consulted first with the usual full-fulfillment rule,
// then deferred holders; when neither set can cover the full quantity, the
// single largest holder across both sets takes a partial fill.
func TaxAwareForSell(symbol string, qty int64, accounts []*portfolio.Account) (string, bool) {
	taxable, deferred := partition(accounts)

	for _, group := range [][]*portfolio.Account{taxable, deferred} {
		for _, account := range holdersBySizeDesc(symbol, group) {
			held, _ := account.Position(symbol)
			if held >= float64(qty) {
				return account.ID, true
			}
		}
	}

	holders := holdersBySizeDesc(symbol, accounts)
	if len(holders) == 0 {
		return "", false
	}
	return holders[0].ID, true
}

// TaxAwareForBuy is the buy-side selector that shelters purchases in
// tax-deferred accounts when one can afford the whole trade.
//
// Order: any deferred account with full affordability (first in input order),
// then any taxable account with full affordability, then the single largest
// partial affordability across all accounts.
func TaxAwareForBuy(
	symbol string,
	qty int64,
	accounts []*portfolio.Account,
	prices map[string]float64,
	cash map[string]float64,
) (string, bool) {
	price, ok := prices[symbol]
	if !ok || price <= 0 {
		return "", false
	}

	taxable, deferred := partition(accounts)

	for _, group := range [][]*portfolio.Account{deferred, taxable} {
		for _, account := range group {
			if affordableQty(cash[account.ID], price) >= qty {
				return account.ID, true
			}
		}
	}

	var bestID string
	var bestQty int64
	for _, account := range accounts {
		affordable := affordableQty(cash[account.ID], price)
		if affordable > bestQty {
			bestID = account.ID
			bestQty = affordable
		}
	}
	if bestID == "" {
		return "", false
	}
	return bestID, true
}

// partition splits accounts into taxable and tax-deferred sets, both in
// input order.
func partition(accounts []*portfolio.Account) (taxable, deferred []*portfolio.Account) {
	for _, account := range accounts {
		if account.TaxDeferred {
			deferred = append(deferred, account)
		} else {
			taxable = append(taxable, account)
		}
	}
	return taxable, deferred
}
