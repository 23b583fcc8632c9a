package sensorclient

import (
	"errors"
)

// Sentinel error kinds for this package.
var (
	ErrRejected = errors.New("reading rejected")
	ErrCollect  = errors.New("collect failed")
)
