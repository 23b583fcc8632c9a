// Package ws maintains the registry of live websocket subscribers and fans
// classified records out to them.
package ws

import "github.com/grbuguj/Sinker-IOT/pkg/logger"

// Option applies a configuration option to the Hub.
type Option func(*Hub)

// WithQueueSize sets the per-subscriber outbound queue size.
func WithQueueSize(size int) Option {
	return func(h *Hub) {
		if size > 0 {
			h.queueSize = size
		}
	}
}

// WithLogger sets a custom logger for the hub.
func WithLogger(l logger.Logger) Option {
	return func(h *Hub) {
		if l != nil {
			h.logger = l
		}
	}
}
