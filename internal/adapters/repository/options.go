// Package repository defines the prediction history store and errors.
package repository

// Default capacity for the in-memory history.
const defaultCapacity = 10_000

// Option applies a configuration option to the MemStore.
type Option func(*MemStore)

// WithCapacity bounds the number of retained records.
func WithCapacity(n int) Option {
	return func(s *MemStore) {
		if n > 0 {
			s.capacity = n
		}
	}
}
