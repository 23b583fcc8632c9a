package thresholds

import (
	"context"
	"sort"
	"sync"
)

// Store provides atomic read and last-write-wins upsert access to the named
// threshold values. Reads happen on the hot classification path and must
// never observe a half-updated parameter set.
type Store interface {
	// Snapshot returns an atomic, typed copy of all current values.
	Snapshot(ctx context.Context) (Snapshot, error)

	// All lists every entry, ordered by name.
	All(ctx context.Context) ([]Entry, error)

	// Upsert creates or overwrites one value. The new value is visible to
	// the very next Snapshot call.
	Upsert(ctx context.Context, name string, value float64) (Entry, error)

	// Seed inserts defaults for names that do not exist yet. Existing
	// entries are never overwritten, so seeding is idempotent.
	Seed(ctx context.Context, defaults map[string]float64) error
}

// MemStore implements Store with a mutex-guarded map.
type MemStore struct {
	mu     sync.RWMutex
	values map[string]float64
}

// NewMemStore creates an empty in-memory threshold store.
func NewMemStore() *MemStore {
	return &MemStore{values: make(map[string]float64)}
}

// Snapshot returns an atomic typed copy of all current values.
func (s *MemStore) Snapshot(_ context.Context) (Snapshot, error) {
	s.mu.RLock()
	copied := make(map[string]float64, len(s.values))
	for name, value := range s.values {
		copied[name] = value
	}
	s.mu.RUnlock()
	return FromMap(copied), nil
}

// All lists every entry ordered by name.
func (s *MemStore) All(_ context.Context) ([]Entry, error) {
	s.mu.RLock()
	entries := make([]Entry, 0, len(s.values))
	for name, value := range s.values {
		entries = append(entries, Entry{Name: name, Value: value})
	}
	s.mu.RUnlock()

	sort.Slice(entries, func(i, j int) bool { return entries[i].Name < entries[j].Name })
	return entries, nil
}

// Upsert creates or overwrites one value, last write wins.
func (s *MemStore) Upsert(_ context.Context, name string, value float64) (Entry, error) {
	if name == "" {
		return Entry{}, ErrEmptyName
	}
	s.mu.Lock()
	s.values[name] = value
	s.mu.Unlock()
	return Entry{Name: name, Value: value}, nil
}

// Seed inserts defaults for names not present yet; existing entries keep
// their current value.
func (s *MemStore) Seed(_ context.Context, defaults map[string]float64) error {
	s.mu.Lock()
	for name, value := range defaults {
		if _, ok := s.values[name]; !ok {
			s.values[name] = value
		}
	}
	s.mu.Unlock()
	return nil
}
