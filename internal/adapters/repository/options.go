// Package repository defines the append-only history ledger and its
// implementations.
package repository

import "time"

// Option applies a configuration option to the MemStore.
type Option func(*MemStore)

// WithClock overrides the wall clock used to evaluate recency windows.
// Tests use this to query against a fixed instant.
func WithClock(now func() time.Time) Option {
	return func(s *MemStore) {
		if now != nil {
			s.now = now
		}
	}
}
