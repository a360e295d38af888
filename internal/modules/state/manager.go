// Package state provides the portfolio state manager: exclusive owner of the
// account collection, the price table, the per-account cash ledger and the
// outstanding portfolio-level trade list during a rebalance run.
package state

import (
	"math"

	"github.com/aristath/rebalancer/internal/domain"
	"github.com/aristath/rebalancer/internal/modules/portfolio"
	"github.com/aristath/rebalancer/internal/modules/validation"
	"github.com/rs/zerolog"
)

// Manager owns all mutable portfolio state for one rebalance run. Accounts
// handed to a manager must not be mutated by the caller afterwards; every
// change goes through Update so that the shadow cash matrix stays in
// lock-step with account balances.
type Manager struct {
	accounts map[string]*portfolio.Account
	order    []string // account ids in input order; selector tie-breaks depend on it

	prices          map[string]float64
	portfolioTrades map[string]int64
	cashMatrix      map[string]float64
	modelOnly       map[string]int64

	// MinTradeValue is carried into every TradeInfo projection for the
	// minimum-value validator.
	MinTradeValue float64

	engine *validation.Engine
	log    zerolog.Logger
}

// New constructs a manager over accounts, a price table and the initial
// portfolio-level trade list. Every price must be strictly positive and
// account ids must be unique. The model-only diagnostic (symbols with an
// outstanding trade that no account holds) is computed here, once; it is a
// snapshot, not a continuously maintained view.
func New(
	accounts []*portfolio.Account,
	prices map[string]float64,
	portfolioTrades map[string]int64,
	engine *validation.Engine,
	log zerolog.Logger,
) (*Manager, error) {
	for symbol, price := range prices {
		if price <= 0 {
			return nil, domain.NewValidationError("price table",
				"non-positive price %.4f for %s", price, symbol)
		}
	}

	m := &Manager{
		accounts:        make(map[string]*portfolio.Account, len(accounts)),
		order:           make([]string, 0, len(accounts)),
		prices:          copyFloats(prices),
		portfolioTrades: copyInts(portfolioTrades),
		cashMatrix:      make(map[string]float64, len(accounts)),
		engine:          engine,
		log:             log.With().Str("service", "state").Logger(),
	}

	for _, account := range accounts {
		if _, exists := m.accounts[account.ID]; exists {
			return nil, domain.NewValidationError("account",
				"duplicate account id %q", account.ID)
		}
		m.accounts[account.ID] = account
		m.order = append(m.order, account.ID)
		m.cashMatrix[account.ID] = account.Cash
	}

	m.modelOnly = m.computeModelOnly()
	return m, nil
}

// FromSnapshot rebuilds a manager from a serialized snapshot plus the account
// list, which is never embedded in snapshots. Derived state is taken from the
// snapshot as-is rather than recomputed; account cash is synced to the
// snapshot's cash matrix to restore the lock-step invariant.
func FromSnapshot(
	snap domain.StateSnapshot,
	accounts []*portfolio.Account,
	engine *validation.Engine,
	log zerolog.Logger,
) (*Manager, error) {
	m, err := New(accounts, snap.Prices, snap.PortfolioTrades, engine, log)
	if err != nil {
		return nil, err
	}

	for id, cash := range snap.CashMatrix {
		if account, ok := m.accounts[id]; ok {
			account.Cash = cash
			m.cashMatrix[id] = cash
		}
	}
	m.modelOnly = copyInts(snap.ModelOnly)
	return m, nil
}

// Snapshot returns the serializable projection of the manager. Accounts are
// deliberately excluded.
func (m *Manager) Snapshot() domain.StateSnapshot {
	return domain.StateSnapshot{
		PortfolioTrades: copyInts(m.portfolioTrades),
		Prices:          copyFloats(m.prices),
		CashMatrix:      copyFloats(m.cashMatrix),
		ModelOnly:       copyInts(m.modelOnly),
	}
}

// computeModelOnly finds outstanding symbols held by no account.
func (m *Manager) computeModelOnly() map[string]int64 {
	modelOnly := make(map[string]int64)
	for symbol, qty := range m.portfolioTrades {
		held := false
		for _, id := range m.order {
			if m.accounts[id].Holds(symbol) {
				held = true
				break
			}
		}
		if !held {
			modelOnly[symbol] = qty
		}
	}
	return modelOnly
}

// Accounts returns the owned accounts in input order.
func (m *Manager) Accounts() []*portfolio.Account {
	out := make([]*portfolio.Account, 0, len(m.order))
	for _, id := range m.order {
		out = append(out, m.accounts[id])
	}
	return out
}

// Account looks up one account by id.
func (m *Manager) Account(id string) (*portfolio.Account, bool) {
	account, ok := m.accounts[id]
	return account, ok
}

// Prices returns a copy of the price table.
func (m *Manager) Prices() map[string]float64 {
	return copyFloats(m.prices)
}

// CashMatrix returns a copy of the per-account cash ledger.
func (m *Manager) CashMatrix() map[string]float64 {
	return copyFloats(m.cashMatrix)
}

// PortfolioTrades returns a copy of the outstanding portfolio-level trades.
func (m *Manager) PortfolioTrades() map[string]int64 {
	return copyInts(m.portfolioTrades)
}

// ModelOnly returns the construction-time model-only diagnostic.
func (m *Manager) ModelOnly() map[string]int64 {
	return copyInts(m.modelOnly)
}

// Update applies a batch of trades to the owned accounts.
//
// Every referenced account id is checked before anything mutates; an unknown
// id fails the whole batch atomically. Within the batch, application is
// sequential: a negative-position rejection partway through leaves earlier
// applications in place. That partial-failure window is a documented
// limitation of batch application, exercised directly in tests.
//
// Cash settles at shares times price. A symbol missing from the price table
// settles at 0: the position moves and cash does not. Callers that need
// stricter behavior must validate prices up front.
func (m *Manager) Update(trades []domain.Trade) error {
	for _, trade := range trades {
		if _, ok := m.accounts[trade.AccountID]; !ok {
			return &domain.UnknownAccountError{AccountID: trade.AccountID}
		}
	}

	grouped, accountOrder := groupTrades(trades)
	for _, accountID := range accountOrder {
		account := m.accounts[accountID]
		for _, entry := range grouped[accountID] {
			if err := account.ApplyShares(entry.symbol, entry.shares); err != nil {
				return err
			}
			cost := float64(entry.shares) * m.prices[entry.symbol]
			account.AdjustCash(-cost)
			m.cashMatrix[accountID] = account.Cash
		}
	}
	return nil
}

type tradeEntry struct {
	symbol string
	shares int64
}

// groupTrades aggregates the batch per account and symbol, preserving
// first-seen order on both levels so that partial failures are deterministic.
func groupTrades(trades []domain.Trade) (map[string][]tradeEntry, []string) {
	grouped := make(map[string][]tradeEntry)
	index := make(map[string]map[string]int)
	var order []string

	for _, trade := range trades {
		if _, seen := index[trade.AccountID]; !seen {
			index[trade.AccountID] = make(map[string]int)
			order = append(order, trade.AccountID)
		}
		if i, seen := index[trade.AccountID][trade.Symbol]; seen {
			grouped[trade.AccountID][i].shares += trade.Shares
			continue
		}
		index[trade.AccountID][trade.Symbol] = len(grouped[trade.AccountID])
		grouped[trade.AccountID] = append(grouped[trade.AccountID],
			tradeEntry{symbol: trade.Symbol, shares: trade.Shares})
	}
	return grouped, order
}

// UpdatePortfolioTrades recomputes the outstanding portfolio-level trade list
// from the current aggregate positions against targetShares. The previous
// list is replaced entirely, never merged.
func (m *Manager) UpdatePortfolioTrades(targetShares map[string]float64) {
	current := portfolio.AggregatePositions(m.Accounts())
	m.portfolioTrades = portfolio.ComputePortfolioTrades(current, targetShares)
}

// TradeInfo builds the read-only validation projection for a candidate trade.
func (m *Manager) TradeInfo(accountID, symbol string, quantity int64) (domain.TradeInfo, bool) {
	account, ok := m.accounts[accountID]
	if !ok {
		return domain.TradeInfo{}, false
	}
	position, hasPosition := account.Position(symbol)
	return domain.TradeInfo{
		Symbol:          symbol,
		Quantity:        quantity,
		Price:           m.prices[symbol],
		MinimumValue:    m.MinTradeValue,
		CurrentPosition: position,
		HasPosition:     hasPosition,
		AccountBalance:  account.Cash,
	}, true
}

// ValidateTrade runs a candidate trade through the validation chain.
func (m *Manager) ValidateTrade(accountID, symbol string, quantity int64) (bool, string) {
	info, ok := m.TradeInfo(accountID, symbol, quantity)
	if !ok {
		return false, (&domain.UnknownAccountError{AccountID: accountID}).Error()
	}
	if m.engine == nil {
		return true, ""
	}
	return m.engine.ValidateTrade(info)
}

// IsTradeFeasible is a read-only capacity check, independent of the
// validation chain: buys need enough cash, sells need enough shares.
func (m *Manager) IsTradeFeasible(accountID, symbol string, quantity int64) bool {
	account, ok := m.accounts[accountID]
	if !ok {
		return false
	}
	if quantity >= 0 {
		return account.Cash >= float64(quantity)*m.prices[symbol]
	}
	position, _ := account.Position(symbol)
	return position >= math.Abs(float64(quantity))
}

func copyFloats(in map[string]float64) map[string]float64 {
	out := make(map[string]float64, len(in))
	for k, v := range in {
		out[k] = v
	}
	return out
}

func copyInts(in map[string]int64) map[string]int64 {
	out := make(map[string]int64, len(in))
	for k, v := range in {
		out[k] = v
	}
	return out
}
