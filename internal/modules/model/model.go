// Package model provides the target allocation model for a portfolio.
package model

import (
	"github.com/aristath/rebalancer/internal/domain"
)

// PortfolioModel holds target weights per symbol. Weights are raw values;
// Normalize rescales them to fractions summing to 1 when needed.
type PortfolioModel struct {
	Name            string
	targets         map[string]float64
	enforceLongOnly bool
}

// New creates a portfolio model. Under long-only enforcement every starting
// weight must be non-negative.
func New(name string, targets map[string]float64, enforceLongOnly bool) (*PortfolioModel, error) {
	m := &PortfolioModel{
		Name:            name,
		targets:         make(map[string]float64, len(targets)),
		enforceLongOnly: enforceLongOnly,
	}
	for symbol, weight := range targets {
		if err := m.checkWeight(symbol, weight); err != nil {
			return nil, err
		}
		m.targets[symbol] = weight
	}
	return m, nil
}

func (m *PortfolioModel) checkWeight(symbol string, weight float64) error {
	if m.enforceLongOnly && weight < 0 {
		return domain.NewValidationError("model",
			"negative weight %.4f for %s not allowed in long-only model %q", weight, symbol, m.Name)
	}
	return nil
}

// AddTarget adds a new target weight for a symbol.
func (m *PortfolioModel) AddTarget(symbol string, weight float64) error {
	if _, exists := m.targets[symbol]; exists {
		return domain.NewValidationError("model", "target for %s already exists in model %q", symbol, m.Name)
	}
	if err := m.checkWeight(symbol, weight); err != nil {
		return err
	}
	m.targets[symbol] = weight
	return nil
}

// UpdateTarget changes the weight of an existing target.
func (m *PortfolioModel) UpdateTarget(symbol string, weight float64) error {
	if _, exists := m.targets[symbol]; !exists {
		return domain.NewValidationError("model", "no target for %s in model %q", symbol, m.Name)
	}
	if err := m.checkWeight(symbol, weight); err != nil {
		return err
	}
	m.targets[symbol] = weight
	return nil
}

// RemoveTarget deletes a target from the model.
func (m *PortfolioModel) RemoveTarget(symbol string) error {
	if _, exists := m.targets[symbol]; !exists {
		return domain.NewValidationError("model", "no target for %s in model %q", symbol, m.Name)
	}
	delete(m.targets, symbol)
	return nil
}

// GetTarget returns the raw weight for a symbol.
func (m *PortfolioModel) GetTarget(symbol string) (float64, bool) {
	weight, ok := m.targets[symbol]
	return weight, ok
}

// Targets returns a copy of the raw target weights.
func (m *PortfolioModel) Targets() map[string]float64 {
	out := make(map[string]float64, len(m.targets))
	for symbol, weight := range m.targets {
		out[symbol] = weight
	}
	return out
}

// Normalize returns the target weights rescaled to sum to 1. The model itself
// is not mutated. A weight sum of exactly 0 is a degenerate but accepted case:
// the raw targets are returned unscaled.
func (m *PortfolioModel) Normalize() map[string]float64 {
	var sum float64
	for _, weight := range m.targets {
		sum += weight
	}

	out := make(map[string]float64, len(m.targets))
	if sum == 0 {
		for symbol, weight := range m.targets {
			out[symbol] = weight
		}
		return out
	}
	for symbol, weight := range m.targets {
		out[symbol] = weight / sum
	}
	return out
}
