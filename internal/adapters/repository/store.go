// Package repository defines the append-only history ledger and its
// implementations.
package repository

import (
	"context"
	"time"

	"github.com/grbuguj/Sinker-IOT/internal/domain/model"
)

// Default query limits. Interactive queries default to a small page; bulk
// export uses the larger cap.
const (
	DefaultQueryLimit = 200
	ExportQueryLimit  = 10000
)

// Query selects a slice of history. When Minutes is set it takes
// precedence and any explicit Start/End range is ignored; this is
// deliberate, matching the query surface contract. A zero Limit means
// DefaultQueryLimit.
type Query struct {
	Minutes int
	Start   time.Time
	End     time.Time
	Limit   int
}

// Store is the append-only ordered ledger of classified readings. Append
// is the single authority for id sequencing: ids are unique and strictly
// increasing in assignment order, and a record becomes visible to Latest
// and Query only after Append returned successfully.
type Store interface {
	// Append persists one classified reading and assigns its id.
	Append(ctx context.Context, r model.Reading, level model.RiskLevel, createdAt time.Time) (model.Record, error)

	// Latest returns the most recent record by id, or ErrEmpty.
	Latest(ctx context.Context) (model.Record, error)

	// Query returns matching records ordered newest first, at most
	// q.Limit of them.
	Query(ctx context.Context, q Query) ([]model.Record, error)

	// Count returns the number of visible records.
	Count(ctx context.Context) int

	// Close releases any underlying resources.
	Close() error
}
