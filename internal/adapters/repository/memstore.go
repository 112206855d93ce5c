package repository

import (
	"context"
	"sync"
)

// MemStore is a bounded in-memory history: a ring of record ids ordered by
// arrival plus an id index. Eviction drops the oldest record.
type MemStore struct {
	mu       sync.RWMutex
	capacity int
	order    []string // arrival order, oldest first
	byID     map[string]Record
}

// NewMemStore creates an in-memory history store.
func NewMemStore(opts ...Option) *MemStore {
	s := &MemStore{
		capacity: defaultCapacity,
		byID:     make(map[string]Record),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Append stores a record, evicting the oldest once capacity is hit.
func (s *MemStore) Append(ctx context.Context, rec Record) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.byID[rec.ID]; !exists {
		s.order = append(s.order, rec.ID)
	}
	s.byID[rec.ID] = rec

	for len(s.order) > s.capacity {
		oldest := s.order[0]
		s.order = s.order[1:]
		delete(s.byID, oldest)
	}
	return nil
}

// Get returns a record by id.
func (s *MemStore) Get(ctx context.Context, id string) (Record, error) {
	if err := ctx.Err(); err != nil {
		return Record{}, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()

	rec, ok := s.byID[id]
	if !ok {
		return Record{}, ErrNotFound
	}
	return rec, nil
}

// Recent returns up to n records, newest first.
func (s *MemStore) Recent(ctx context.Context, n int) ([]Record, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if n < 1 {
		return nil, ErrInvalidLimit
	}
	s.mu.RLock()
	defer s.mu.RUnlock()

	if n > len(s.order) {
		n = len(s.order)
	}
	out := make([]Record, 0, n)
	for i := len(s.order) - 1; i >= 0 && len(out) < n; i-- {
		out = append(out, s.byID[s.order[i]])
	}
	return out, nil
}

// Count returns the number of retained records.
func (s *MemStore) Count(ctx context.Context) int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.order)
}
