// Package portfolio provides the account entity and the pure trade
// computation primitives used to derive portfolio-level imbalance.
package portfolio

import (
	"github.com/aristath/rebalancer/internal/domain"
)

// Account is an owned mutable entity holding a cash balance and per-symbol
// positions. Once handed to a state manager, callers must not mutate it
// directly; all changes go through the state manager's trade application.
type Account struct {
	Label                      string
	ID                         string
	Cash                       float64
	EnforceNoNegativePositions bool
	TaxDeferred                bool

	positions map[string]float64
}

// NewAccount creates an account. A negative starting position with
// enforcement on is rejected immediately.
func NewAccount(label, id string, cash float64, positions map[string]float64, enforceNoNegative bool) (*Account, error) {
	a := &Account{
		Label:                      label,
		ID:                         id,
		Cash:                       cash,
		EnforceNoNegativePositions: enforceNoNegative,
		positions:                  make(map[string]float64, len(positions)),
	}
	for symbol, qty := range positions {
		if enforceNoNegative && qty < 0 {
			return nil, domain.NewValidationError("account",
				"account %q starts with negative position %.4f in %s", id, qty, symbol)
		}
		a.positions[symbol] = qty
	}
	return a, nil
}

// Position returns the held quantity of a symbol. A symbol never traded in
// this account reports 0 with ok=false.
func (a *Account) Position(symbol string) (float64, bool) {
	qty, ok := a.positions[symbol]
	return qty, ok
}

// Holds reports whether the account has a strictly positive holding of symbol.
func (a *Account) Holds(symbol string) bool {
	return a.positions[symbol] > 0
}

// Positions returns a copy of the position map.
func (a *Account) Positions() map[string]float64 {
	out := make(map[string]float64, len(a.positions))
	for symbol, qty := range a.positions {
		out[symbol] = qty
	}
	return out
}

// ApplyShares adjusts the position of symbol by shares. When the account
// enforces non-negative positions and the result would be negative, the
// position is left unchanged and a NegativePositionError is returned.
// Cash is not touched here; the state manager settles cash separately.
func (a *Account) ApplyShares(symbol string, shares int64) error {
	next := a.positions[symbol] + float64(shares)
	if a.EnforceNoNegativePositions && next < 0 {
		return &domain.NegativePositionError{AccountID: a.ID, Symbol: symbol, Resulting: next}
	}
	a.positions[symbol] = next
	return nil
}

// AdjustCash moves the cash balance by delta (negative for a buy settlement).
func (a *Account) AdjustCash(delta float64) {
	a.Cash += delta
}
