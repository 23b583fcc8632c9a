package thresholds

import "errors"

// Sentinel kinds for threshold errors.
var (
	ErrInvalidThreshold = errors.New("invalid threshold")
	ErrEmptyName        = errors.New("threshold name must not be empty")
)
