package repository

import (
	"context"
	"sync"
	"time"

	"github.com/grbuguj/Sinker-IOT/internal/domain/model"
	"github.com/grbuguj/Sinker-IOT/pkg/metrics"
)

// MemStore implements Store with a mutex-guarded append-only slice. The
// mutex is the id serialization point: concurrent Appends can never
// duplicate or skip an id.
type MemStore struct {
	mu      sync.RWMutex
	records []model.Record
	nextID  int64
	closed  bool
	now     func() time.Time
}

// NewMemStore creates an empty in-memory history store.
func NewMemStore(opts ...Option) *MemStore {
	s := &MemStore{
		nextID: 1,
		now:    time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Append persists one classified reading and assigns the next id.
func (s *MemStore) Append(_ context.Context, r model.Reading, level model.RiskLevel, createdAt time.Time) (model.Record, error) {
	start := time.Now()
	defer func() {
		metrics.RecordStoreLatency(float64(time.Since(start).Milliseconds()))
	}()

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return model.Record{}, ErrClosed
	}

	rec := model.Record{
		ID:           s.nextID,
		Moisture:     r.Moisture,
		AccelX:       r.Accel.X,
		AccelY:       r.Accel.Y,
		AccelZ:       r.Accel.Z,
		GyroX:        r.Gyro.X,
		GyroY:        r.Gyro.Y,
		GyroZ:        r.Gyro.Z,
		VibrationRaw: r.VibrationRaw,
		RiskLevel:    level,
		CreatedAt:    createdAt,
	}
	s.nextID++
	s.records = append(s.records, rec)

	metrics.UpdateHistoryRecords(len(s.records))
	return rec, nil
}

// Latest returns the most recent record by id.
func (s *MemStore) Latest(_ context.Context) (model.Record, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if len(s.records) == 0 {
		return model.Record{}, ErrEmpty
	}
	return s.records[len(s.records)-1], nil
}

// Query returns matching records newest first. The recency window takes
// precedence over an explicit range when both are present.
func (s *MemStore) Query(_ context.Context, q Query) ([]model.Record, error) {
	limit := q.Limit
	if limit <= 0 {
		limit = DefaultQueryLimit
	}

	var cutoff time.Time
	useWindow := q.Minutes > 0
	if useWindow {
		cutoff = s.now().Add(-time.Duration(q.Minutes) * time.Minute)
	}
	useRange := !useWindow && !q.Start.IsZero() && !q.End.IsZero()

	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]model.Record, 0, limit)
	for i := len(s.records) - 1; i >= 0 && len(out) < limit; i-- {
		rec := s.records[i]
		switch {
		case useWindow:
			if rec.CreatedAt.Before(cutoff) {
				continue
			}
		case useRange:
			if rec.CreatedAt.Before(q.Start) || rec.CreatedAt.After(q.End) {
				continue
			}
		}
		out = append(out, rec)
	}
	return out, nil
}

// Count returns the number of visible records.
func (s *MemStore) Count(_ context.Context) int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.records)
}

// Close marks the store closed; further Appends fail.
func (s *MemStore) Close() error {
	s.mu.Lock()
	s.closed = true
	s.mu.Unlock()
	return nil
}
