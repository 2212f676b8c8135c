package scoring

import "errors"

// Sentinel kinds for scoring errors.
var (
	// ErrInvalidBudget marks a negative budget, rejected before any
	// computation.
	ErrInvalidBudget = errors.New("invalid budget")
)
