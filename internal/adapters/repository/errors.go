package repository

import "errors"

// Sentinel kinds for history store errors.
var (
	ErrEmpty  = errors.New("history is empty")
	ErrClosed = errors.New("store is closed")
)
