// Package domain provides core domain models and types shared across modules.
package domain

// Trade is an immutable per-account trade instruction.
// Positive shares is a buy, negative shares is a sell.
type Trade struct {
	AccountID string `json:"account_id" msgpack:"account_id"`
	Symbol    string `json:"symbol" msgpack:"symbol"`
	Shares    int64  `json:"shares" msgpack:"shares"`
}

// IsBuy reports whether the trade adds shares to the account.
func (t Trade) IsBuy() bool {
	return t.Shares > 0
}

// IsSell reports whether the trade removes shares from the account.
func (t Trade) IsSell() bool {
	return t.Shares < 0
}

// TradeInfo is a read-only projection of a candidate trade, built per
// validation call and handed to the validator chain. It is never persisted.
type TradeInfo struct {
	Symbol          string
	Quantity        int64
	Price           float64
	MinimumValue    float64
	CurrentPosition float64
	HasPosition     bool
	AccountBalance  float64
}

// StateSnapshot is the serializable projection of a portfolio state manager.
// Accounts are deliberately not embedded; reconstruction requires the caller
// to re-supply the account list.
type StateSnapshot struct {
	PortfolioTrades map[string]int64   `json:"portfolio_trades" msgpack:"portfolio_trades"`
	Prices          map[string]float64 `json:"prices" msgpack:"prices"`
	CashMatrix      map[string]float64 `json:"cash_matrix" msgpack:"cash_matrix"`
	ModelOnly       map[string]int64   `json:"model_only" msgpack:"model_only"`
}

// RebalanceReport is the outcome of a full rebalance run.
type RebalanceReport struct {
	RunID       string             `json:"run_id"`
	Trades      []Trade            `json:"trades"`
	Converged   bool               `json:"converged"`
	Iterations  int                `json:"iterations"`
	Outstanding map[string]int64   `json:"outstanding"`
	CashMatrix  map[string]float64 `json:"cash_matrix"`
}
