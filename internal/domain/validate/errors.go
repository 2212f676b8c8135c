package validate

import "errors"

// Sentinel kinds for validation errors.
var (
	// ErrEmptyBatch marks a batch where zero rows survived validation.
	// Partial rejection is not an error; total rejection is.
	ErrEmptyBatch = errors.New("empty batch after validation")
)
