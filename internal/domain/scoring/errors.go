package scoring

import "errors"

// Sentinel kinds for scoring errors.
var (
	ErrInvalidThresholds = errors.New("invalid thresholds")
)
