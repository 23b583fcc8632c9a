package mqtt

import (
	"errors"
)

// Sentinel error kinds for this package.
var (
	ErrConnect = errors.New("mqtt connect failed")
)
