package domain

import "fmt"

// ValidationError reports a structural or invariant violation in caller input.
// It always names the entity involved so the message is actionable on its own.
type ValidationError struct {
	Entity string // e.g. "model", "account", "price table"
	Detail string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("%s validation failed: %s", e.Entity, e.Detail)
}

// NewValidationError creates a ValidationError with a formatted detail message.
func NewValidationError(entity, format string, args ...interface{}) *ValidationError {
	return &ValidationError{Entity: entity, Detail: fmt.Sprintf(format, args...)}
}

// UnknownAccountError reports a trade referencing an account id the state
// manager does not own. Raised before any mutation.
type UnknownAccountError struct {
	AccountID string
}

func (e *UnknownAccountError) Error() string {
	return fmt.Sprintf("unknown account id %q in trade list", e.AccountID)
}

// NegativePositionError reports a trade that would drive an enforcing
// account's position below zero.
type NegativePositionError struct {
	AccountID string
	Symbol    string
	Resulting float64
}

func (e *NegativePositionError) Error() string {
	return fmt.Sprintf(
		"trade would leave account %q with negative position %.4f in %s",
		e.AccountID, e.Resulting, e.Symbol,
	)
}
