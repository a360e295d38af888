// Package selection provides the account selection heuristics that decide,
// for a given symbol and desired quantity, which account carries a trade.
//
// All tie-breaks are deterministic. Where several accounts qualify equally,
// the first in input order wins; that is a conscious simplification of the
// heuristics, not an oversight, and tests depend on it.
package selection

import (
	"math"

	"github.com/aristath/rebalancer/internal/modules/portfolio"
)

// affordableQty is the number of whole shares an account's cash can buy.
func affordableQty(cash, price float64) int64 {
	if price <= 0 {
		return 0
	}
	return int64(math.Floor(cash / price))
}

// ForBuy picks the account to carry a buy of qty shares of symbol.
//
// Priority tiers, each consulted only when the previous one is empty:
//  1. holders of symbol that can afford the full quantity (first in order)
//  2. holders with partial affordability (largest affordable quantity)
//  3. non-holders that can afford the full quantity (first in order)
//  4. non-holders with partial affordability (largest affordable quantity)
//
// Returns ok=false when no account can buy even a single share.
func ForBuy(
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

	var (
		bestPartialHolder    string
		bestPartialHolderQty int64
		firstFullNonHolder   string
		bestPartialOther     string
		bestPartialOtherQty  int64
	)

	for _, account := range accounts {
		affordable := affordableQty(cash[account.ID], price)
		if affordable <= 0 {
			continue
		}

		if account.Holds(symbol) {
			if affordable >= qty {
				// Tier 1: position size among full-fulfillers is irrelevant.
				return account.ID, true
			}
			if affordable > bestPartialHolderQty {
				bestPartialHolder = account.ID
				bestPartialHolderQty = affordable
			}
			continue
		}

		if affordable >= qty {
			if firstFullNonHolder == "" {
				firstFullNonHolder = account.ID
			}
			continue
		}
		if affordable > bestPartialOtherQty {
			bestPartialOther = account.ID
			bestPartialOtherQty = affordable
		}
	}

	if bestPartialHolder != "" {
		return bestPartialHolder, true
	}
	if firstFullNonHolder != "" {
		return firstFullNonHolder, true
	}
	if bestPartialOther != "" {
		return bestPartialOther, true
	}
	return "", false
}
