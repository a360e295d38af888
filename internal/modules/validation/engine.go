// Package validation provides the ordered trade-validation chain and its
// built-in validators.
package validation

import (
	"github.com/aristath/rebalancer/internal/domain"
	"github.com/rs/zerolog"
)

// Engine runs an ordered chain of trade validators. A trade is admissible
// only when every validator accepts it; the chain short-circuits on the
// first rejection. An empty chain accepts everything.
type Engine struct {
	validators []domain.TradeValidator
	log        zerolog.Logger
}

// NewEngine creates a validation engine with the given chain, in order.
func NewEngine(validators []domain.TradeValidator, log zerolog.Logger) *Engine {
	return &Engine{
		validators: validators,
		log:        log.With().Str("service", "validation").Logger(),
	}
}

// Register appends a validator to the end of the chain.
func (e *Engine) Register(v domain.TradeValidator) {
	e.validators = append(e.validators, v)
	e.log.Debug().Str("validator", v.Name()).Msg("Validator registered")
}

// ValidateTrade runs the chain in registration order. The returned reason is
// the first rejecting validator's reason, or empty on acceptance.
func (e *Engine) ValidateTrade(info domain.TradeInfo) (bool, string) {
	for _, v := range e.validators {
		accepted, reason := v.Validate(info)
		if !accepted {
			e.log.Debug().
				Str("validator", v.Name()).
				Str("symbol", info.Symbol).
				Int64("quantity", info.Quantity).
				Str("reason", reason).
				Msg("Trade rejected")
			return false, reason
		}
	}
	return true, ""
}

// Size returns the number of registered validators.
func (e *Engine) Size() int {
	return len(e.validators)
}
