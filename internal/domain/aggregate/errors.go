package aggregate

import "errors"

// Sentinel kinds for aggregation errors.
var (
	// ErrCorruptLayer marks Aggregated-layer bytes that no longer parse.
	ErrCorruptLayer = errors.New("corrupt aggregated layer")
)
