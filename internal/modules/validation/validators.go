package validation

import (
	"fmt"
	"math"

	"github.com/aristath/rebalancer/internal/domain"
)

// MaxPositionValidator rejects trades that would push an account's absolute
// position in a symbol past a fixed cap. An account with no current position
// record for the symbol is not checked.
type MaxPositionValidator struct {
	MaxPosition float64
}

// NewMaxPositionValidator creates a max-position validator.
func NewMaxPositionValidator(maxPosition float64) *MaxPositionValidator {
	return &MaxPositionValidator{MaxPosition: maxPosition}
}

// Name implements domain.TradeValidator.
func (v *MaxPositionValidator) Name() string {
	return "max_position"
}

// Validate implements domain.TradeValidator.
func (v *MaxPositionValidator) Validate(info domain.TradeInfo) (bool, string) {
	if !info.HasPosition {
		return true, ""
	}
	resulting := info.CurrentPosition + float64(info.Quantity)
	if math.Abs(resulting) > v.MaxPosition {
		return false, fmt.Sprintf(
			"resulting position %.2f in %s exceeds maximum %.2f",
			resulting, info.Symbol, v.MaxPosition)
	}
	return true, ""
}

// MinimumValueValidator rejects trades whose notional value is below a
// threshold. Zero-quantity trades are rejected unconditionally; a zero
// threshold accepts any non-degenerate trade.
type MinimumValueValidator struct {
	MinimumValue float64
}

// NewMinimumValueValidator creates a minimum-value validator. When min is 0
// the validator uses the per-trade MinimumValue carried in the TradeInfo.
func NewMinimumValueValidator(min float64) *MinimumValueValidator {
	return &MinimumValueValidator{MinimumValue: min}
}

// Name implements domain.TradeValidator.
func (v *MinimumValueValidator) Name() string {
	return "minimum_value"
}

// Validate implements domain.TradeValidator.
func (v *MinimumValueValidator) Validate(info domain.TradeInfo) (bool, string) {
	if info.Quantity == 0 {
		return false, fmt.Sprintf("zero-quantity trade in %s", info.Symbol)
	}

	min := v.MinimumValue
	if min == 0 {
		min = info.MinimumValue
	}
	if min == 0 {
		return true, ""
	}

	value := math.Abs(float64(info.Quantity) * info.Price)
	if value < min {
		return false, fmt.Sprintf(
			"trade value %.2f in %s below minimum %.2f",
			value, info.Symbol, min)
	}
	return true, ""
}
