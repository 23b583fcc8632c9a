package risk

import "errors"

// Sentinel kinds for classification errors.
var (
	ErrInvalidReading  = errors.New("invalid reading")
	ErrUnknownStrategy = errors.New("unknown risk strategy")
)
