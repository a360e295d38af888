// Package rebalancing orchestrates the iterative convergence loop that moves
// a multi-account portfolio toward its target allocation one trade at a time.
package rebalancing

import (
	"math"
	"sort"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/aristath/rebalancer/internal/domain"
	"github.com/aristath/rebalancer/internal/modules/model"
	"github.com/aristath/rebalancer/internal/modules/portfolio"
	"github.com/aristath/rebalancer/internal/modules/selection"
	"github.com/aristath/rebalancer/internal/modules/state"
	"github.com/aristath/rebalancer/internal/modules/validation"
)

// DefaultTolerance is the minimum trade magnitude below which an imbalance
// is considered settled.
const DefaultTolerance = 0.1

// Options controls a rebalance run.
type Options struct {
	// MaxIterations caps the number of passes; each pass applies at most one
	// trade. Zero means no trading at all.
	MaxIterations int
	// Tolerance overrides DefaultTolerance when positive.
	Tolerance float64
	// TaxAware switches account selection to the tax-aware variants.
	TaxAware bool
}

func (o Options) tolerance() float64 {
	if o.Tolerance > 0 {
		return o.Tolerance
	}
	return DefaultTolerance
}

// Service runs rebalance convergence loops.
type Service struct {
	engine *validation.Engine
	log    zerolog.Logger
}

// NewService creates a rebalancing service. The validation engine may be nil,
// in which case every candidate trade is admitted.
func NewService(engine *validation.Engine, log zerolog.Logger) *Service {
	return &Service{
		engine: engine,
		log:    log.With().Str("service", "rebalancing").Logger(),
	}
}

// Engine exposes the validation engine used for candidate trades.
func (s *Service) Engine() *validation.Engine {
	return s.engine
}

// outstandingEntry is one symbol's portfolio-level imbalance during a scan.
type outstandingEntry struct {
	symbol string
	shares int64
}

// scanOrder sorts outstanding trades for a pass: sells before buys, and
// smaller magnitudes before larger within each group. Resolving small
// imbalances first means partial fills on large trades get re-evaluated
// against a smaller remaining state. Symbol order breaks exact ties so runs
// are reproducible.
func scanOrder(outstanding map[string]int64) []outstandingEntry {
	entries := make([]outstandingEntry, 0, len(outstanding))
	for symbol, shares := range outstanding {
		entries = append(entries, outstandingEntry{symbol: symbol, shares: shares})
	}
	sort.Slice(entries, func(i, j int) bool {
		iBuy, jBuy := entries[i].shares > 0, entries[j].shares > 0
		if iBuy != jBuy {
			return !iBuy
		}
		iMag := absInt64(entries[i].shares)
		jMag := absInt64(entries[j].shares)
		if iMag != jMag {
			return iMag < jMag
		}
		return entries[i].symbol < entries[j].symbol
	})
	return entries
}

func absInt64(v int64) int64 {
	if v < 0 {
		return -v
	}
	return v
}

// converged reports whether every outstanding trade is within tolerance.
func converged(outstanding map[string]int64, tolerance float64) bool {
	for _, shares := range outstanding {
		if math.Abs(float64(shares)) >= tolerance {
			return false
		}
	}
	return true
}

// ExecuteRebalance drives the convergence loop over an already-constructed
// state manager against fixed target shares. It returns the ordered list of
// executed trades and whether the outstanding imbalance converged.
//
// Each pass scans the sorted outstanding list, applies at most one sized
// trade through the state manager, re-derives the outstanding imbalance, and
// restarts. Re-evaluating after every single trade is deliberate: one trade
// can change which account is optimal for the next. Budget exhaustion and a
// pass with no applicable trade both end the run with a warning and partial
// results, never an error.
func (s *Service) ExecuteRebalance(
	st *state.Manager,
	targetShares map[string]float64,
	opts Options,
) ([]domain.Trade, int, bool) {
	tolerance := opts.tolerance()
	executed := make([]domain.Trade, 0)

	iterations := 0
	for ; iterations < opts.MaxIterations; iterations++ {
		outstanding := st.PortfolioTrades()
		if converged(outstanding, tolerance) {
			s.log.Info().
				Int("iterations", iterations).
				Int("trades", len(executed)).
				Msg("Rebalance converged")
			return executed, iterations, true
		}

		if !s.executeOnePass(st, targetShares, outstanding, tolerance, opts.TaxAware, &executed) {
			s.log.Warn().
				Int("iterations", iterations+1).
				Interface("outstanding", outstanding).
				Msg("No further progress possible, returning partial results")
			return executed, iterations + 1, false
		}
	}

	done := converged(st.PortfolioTrades(), tolerance)
	if !done {
		s.log.Warn().
			Int("max_iterations", opts.MaxIterations).
			Interface("outstanding", st.PortfolioTrades()).
			Msg("Iteration budget exhausted before convergence")
	}
	return executed, iterations, done
}

// executeOnePass scans the outstanding list in order and applies at most one
// trade. It reports whether a trade was applied.
func (s *Service) executeOnePass(
	st *state.Manager,
	targetShares map[string]float64,
	outstanding map[string]int64,
	tolerance float64,
	taxAware bool,
	executed *[]domain.Trade,
) bool {
	accounts := st.Accounts()
	prices := st.Prices()
	cash := st.CashMatrix()

	for _, entry := range scanOrder(outstanding) {
		if math.Abs(float64(entry.shares)) < tolerance {
			continue
		}

		accountID, desired, ok := s.selectAccount(entry, accounts, prices, cash, taxAware)
		if !ok {
			s.log.Debug().
				Str("symbol", entry.symbol).
				Int64("shares", entry.shares).
				Msg("No feasible account for trade, skipping symbol this pass")
			continue
		}

		feasible := s.feasibleQuantity(st, accountID, entry.symbol, desired, entry.shares < 0, prices)
		if feasible == 0 {
			// The selected account cannot move even one share; nothing later
			// in this scan can do better with the same state.
			return false
		}

		shares := feasible
		if entry.shares < 0 {
			shares = -feasible
		}

		if accepted, reason := s.validateCandidate(st, accountID, entry.symbol, shares); !accepted {
			s.log.Debug().
				Str("symbol", entry.symbol).
				Str("account_id", accountID).
				Int64("shares", shares).
				Str("reason", reason).
				Msg("Candidate trade rejected by validation chain, skipping")
			continue
		}

		trade := domain.Trade{AccountID: accountID, Symbol: entry.symbol, Shares: shares}
		if err := st.Update([]domain.Trade{trade}); err != nil {
			s.log.Error().
				Err(err).
				Str("symbol", entry.symbol).
				Str("account_id", accountID).
				Msg("Trade application failed, skipping symbol this pass")
			continue
		}

		*executed = append(*executed, trade)
		st.UpdatePortfolioTrades(targetShares)

		s.log.Debug().
			Str("symbol", entry.symbol).
			Str("account_id", accountID).
			Int64("shares", shares).
			Msg("Trade applied")
		return true
	}
	return false
}

// selectAccount routes to buy- or sell-side selection and returns the chosen
// account with the desired trade magnitude.
func (s *Service) selectAccount(
	entry outstandingEntry,
	accounts []*portfolio.Account,
	prices map[string]float64,
	cash map[string]float64,
	taxAware bool,
) (string, int64, bool) {
	desired := absInt64(entry.shares)

	var accountID string
	var ok bool
	switch {
	case entry.shares > 0 && taxAware:
		accountID, ok = selection.TaxAwareForBuy(entry.symbol, desired, accounts, prices, cash)
	case entry.shares > 0:
		accountID, ok = selection.ForBuy(entry.symbol, desired, accounts, prices, cash)
	case taxAware:
		accountID, ok = selection.TaxAwareForSell(entry.symbol, desired, accounts)
	default:
		accountID, ok = selection.ForSell(entry.symbol, desired, accounts)
	}
	return accountID, desired, ok
}

// feasibleQuantity caps the desired magnitude to what the account can carry:
// held shares for sells, affordable shares for buys.
func (s *Service) feasibleQuantity(
	st *state.Manager,
	accountID, symbol string,
	desired int64,
	sell bool,
	prices map[string]float64,
) int64 {
	account, ok := st.Account(accountID)
	if !ok {
		return 0
	}

	var capacity int64
	if sell {
		held, _ := account.Position(symbol)
		capacity = int64(math.Floor(held))
	} else if price := prices[symbol]; price > 0 {
		capacity = int64(math.Floor(account.Cash / price))
	}

	if capacity <= 0 {
		return 0
	}
	if desired < capacity {
		return desired
	}
	return capacity
}

// validateCandidate runs the candidate through the validation chain.
func (s *Service) validateCandidate(st *state.Manager, accountID, symbol string, shares int64) (bool, string) {
	if s.engine == nil {
		return true, ""
	}
	info, ok := st.TradeInfo(accountID, symbol, shares)
	if !ok {
		return false, "unknown account"
	}
	return s.engine.ValidateTrade(info)
}

// RunRebalance is the single-call entry point: it derives target shares from
// the model, builds the state manager over the supplied accounts and prices,
// runs the convergence loop and reports the outcome.
func (s *Service) RunRebalance(
	accounts []*portfolio.Account,
	prices map[string]float64,
	m *model.PortfolioModel,
	opts Options,
) (*domain.RebalanceReport, *state.Manager, error) {
	current := portfolio.AggregatePositions(accounts)
	totalCash := portfolio.TotalCash(accounts)

	targetShares, err := portfolio.CalculateTargetShares(current, totalCash, prices, m)
	if err != nil {
		return nil, nil, err
	}

	initial := portfolio.ComputePortfolioTrades(current, targetShares)
	st, err := state.New(accounts, prices, initial, s.engine, s.log)
	if err != nil {
		return nil, nil, err
	}

	runID := uuid.New().String()
	s.log.Info().
		Str("run_id", runID).
		Str("model", m.Name).
		Int("accounts", len(accounts)).
		Int("symbols", len(initial)).
		Msg("Starting rebalance run")

	trades, iterations, done := s.ExecuteRebalance(st, targetShares, opts)

	report := &domain.RebalanceReport{
		RunID:       runID,
		Trades:      trades,
		Converged:   done,
		Iterations:  iterations,
		Outstanding: st.PortfolioTrades(),
		CashMatrix:  st.CashMatrix(),
	}
	return report, st, nil
}
