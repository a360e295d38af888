// Package handlers provides HTTP handlers for rebalancing operations.
package handlers

import (
	"encoding/json"
	"net/http"

	"github.com/rs/zerolog"

	"github.com/aristath/rebalancer/internal/modules/importers"
	"github.com/aristath/rebalancer/internal/modules/model"
	"github.com/aristath/rebalancer/internal/modules/portfolio"
	"github.com/aristath/rebalancer/internal/modules/rebalancing"
	"github.com/aristath/rebalancer/internal/modules/state"
)

// Handler handles rebalancing HTTP requests
type Handler struct {
	service   *rebalancing.Service
	snapshots *state.SnapshotRepository // may be nil, disables persistence
	defaults  rebalancing.Options
	log       zerolog.Logger
}

// NewHandler creates a new rebalancing handler
func NewHandler(
	service *rebalancing.Service,
	snapshots *state.SnapshotRepository,
	defaults rebalancing.Options,
	log zerolog.Logger,
) *Handler {
	return &Handler{
		service:   service,
		snapshots: snapshots,
		defaults:  defaults,
		log:       log.With().Str("handler", "rebalancing").Logger(),
	}
}

// PortfolioRequest carries the three core inputs of a rebalance.
type PortfolioRequest struct {
	Accounts []importers.AccountRecord `json:"accounts"`
	Prices   map[string]float64        `json:"prices"`
	Model    importers.ModelRecord     `json:"model"`
}

// RunRequest is the body of POST /api/rebalancing/run.
type RunRequest struct {
	PortfolioRequest
	Options *OptionsRequest `json:"options"`
}

// OptionsRequest overrides the configured rebalance defaults per request.
type OptionsRequest struct {
	MaxIterations *int     `json:"max_iterations"`
	Tolerance     *float64 `json:"tolerance"`
	TaxAware      *bool    `json:"tax_aware"`
}

// ValidateRequest is the body of POST /api/rebalancing/validate.
type ValidateRequest struct {
	PortfolioRequest
	AccountID string `json:"account_id"`
	Symbol    string `json:"symbol"`
	Quantity  int64  `json:"quantity"`
}

// PreviewResponse is the body of a successful preview call.
type PreviewResponse struct {
	TargetShares    map[string]float64 `json:"target_shares"`
	PortfolioTrades map[string]int64   `json:"portfolio_trades"`
	ModelOnly       map[string]int64   `json:"model_only"`
}

// ValidateResponse reports the validation chain's verdict on one trade.
type ValidateResponse struct {
	Accepted bool   `json:"accepted"`
	Reason   string `json:"reason"`
	Feasible bool   `json:"feasible"`
}

func (h *Handler) options(req *OptionsRequest) rebalancing.Options {
	opts := h.defaults
	if req == nil {
		return opts
	}
	if req.MaxIterations != nil {
		opts.MaxIterations = *req.MaxIterations
	}
	if req.Tolerance != nil {
		opts.Tolerance = *req.Tolerance
	}
	if req.TaxAware != nil {
		opts.TaxAware = *req.TaxAware
	}
	return opts
}

// buildInputs converts the wire-level portfolio request into domain entities.
func (h *Handler) buildInputs(req PortfolioRequest) ([]*portfolio.Account, *model.PortfolioModel, error) {
	accounts := make([]*portfolio.Account, 0, len(req.Accounts))
	for _, rec := range req.Accounts {
		account, err := portfolio.NewAccount(rec.Label, rec.AccountID, rec.Cash,
			rec.Positions, rec.EnforceNoNegativePositions)
		if err != nil {
			return nil, nil, err
		}
		account.TaxDeferred = rec.TaxDeferred
		accounts = append(accounts, account)
	}

	m, err := model.New(req.Model.Name, req.Model.Targets, req.Model.EnforceLongOnly)
	if err != nil {
		return nil, nil, err
	}
	return accounts, m, nil
}

// HandleRun handles POST /api/rebalancing/run
func (h *Handler) HandleRun(w http.ResponseWriter, r *http.Request) {
	var req RunRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.log.Error().Err(err).Msg("Failed to decode request body")
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	accounts, m, err := h.buildInputs(req.PortfolioRequest)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	report, st, err := h.service.RunRebalance(accounts, req.Prices, m, h.options(req.Options))
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	if h.snapshots != nil {
		if err := h.snapshots.Save(report.RunID, st.Snapshot()); err != nil {
			h.log.Error().Err(err).Str("run_id", report.RunID).Msg("Failed to persist snapshot")
		}
	}

	writeJSON(w, report)
}

// HandlePreview handles POST /api/rebalancing/preview: target shares and the
// initial portfolio-level imbalance, with no trades executed.
func (h *Handler) HandlePreview(w http.ResponseWriter, r *http.Request) {
	var req PortfolioRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.log.Error().Err(err).Msg("Failed to decode request body")
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	accounts, m, err := h.buildInputs(req)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	current := portfolio.AggregatePositions(accounts)
	targetShares, err := portfolio.CalculateTargetShares(current, portfolio.TotalCash(accounts), req.Prices, m)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	trades := portfolio.ComputePortfolioTrades(current, targetShares)
	st, err := state.New(accounts, req.Prices, trades, h.service.Engine(), h.log)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	writeJSON(w, PreviewResponse{
		TargetShares:    targetShares,
		PortfolioTrades: trades,
		ModelOnly:       st.ModelOnly(),
	})
}

// HandleValidate handles POST /api/rebalancing/validate
func (h *Handler) HandleValidate(w http.ResponseWriter, r *http.Request) {
	var req ValidateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.log.Error().Err(err).Msg("Failed to decode request body")
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	accounts, _, err := h.buildInputs(req.PortfolioRequest)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	st, err := state.New(accounts, req.Prices, nil, h.service.Engine(), h.log)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	accepted, reason := st.ValidateTrade(req.AccountID, req.Symbol, req.Quantity)
	writeJSON(w, ValidateResponse{
		Accepted: accepted,
		Reason:   reason,
		Feasible: st.IsTradeFeasible(req.AccountID, req.Symbol, req.Quantity),
	})
}

func writeJSON(w http.ResponseWriter, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(v)
}
