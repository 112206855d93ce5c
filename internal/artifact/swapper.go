package artifact

import "sync/atomic"

// Swapper publishes the current bundle to concurrent readers. Bundles are
// immutable after load, so readers need no locking: an in-flight inference
// keeps using the pointer it took even while a retrained bundle is swapped
// in underneath.
type Swapper struct {
	current atomic.Pointer[Bundle]
}

// NewSwapper creates a swapper, optionally seeded with an initial bundle.
func NewSwapper(initial *Bundle) *Swapper {
	s := &Swapper{}
	if initial != nil {
		s.current.Store(initial)
	}
	return s
}

// Current returns the active bundle, or nil when no model is loaded.
func (s *Swapper) Current() *Bundle {
	return s.current.Load()
}

// Swap atomically replaces the active bundle and returns the previous one.
func (s *Swapper) Swap(b *Bundle) *Bundle {
	return s.current.Swap(b)
}
