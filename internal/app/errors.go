package service

import "errors"

// Sentinel kinds for pipeline errors.
var (
	ErrValidation  = errors.New("invalid reading")
	ErrPersistence = errors.New("persistence failed")
	ErrNotStarted  = errors.New("service not started")
)
