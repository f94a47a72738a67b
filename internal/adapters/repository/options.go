package repository

import "time"

// Option applies a configuration option to the ProductStore.
type Option func(*ProductStore)

// WithCapacity bounds the number of retained events.
func WithCapacity(n int) Option {
	return func(s *ProductStore) {
		if n > 0 {
			s.capacity = n
		}
	}
}

// WithTTL expires products this long after they were written. Zero keeps
// them until evicted by size.
func WithTTL(ttl time.Duration) Option {
	return func(s *ProductStore) {
		if ttl >= 0 {
			s.ttl = ttl
		}
	}
}
