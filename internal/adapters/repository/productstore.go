package repository

import (
	"context"
	"time"

	"github.com/maypok86/otter/v2"

	"github.com/okian/hltjet/internal/domain/model"
	"github.com/okian/hltjet/pkg/metrics"
)

const (
	DefaultCapacity = 100_000
	DefaultTTL      = 10 * time.Minute
)

// ProductStore is an in-memory Store bounded by size and age.
type ProductStore struct {
	cache    *otter.Cache[model.EventKey, *model.Products]
	capacity int
	ttl      time.Duration
}

// NewProductStore creates a store.
func NewProductStore(opts ...Option) *ProductStore {
	s := &ProductStore{
		capacity: DefaultCapacity,
		ttl:      DefaultTTL,
	}
	for _, opt := range opts {
		opt(s)
	}

	o := &otter.Options[model.EventKey, *model.Products]{
		MaximumSize:     s.capacity,
		InitialCapacity: min(s.capacity, 1024),
	}
	if s.ttl > 0 {
		o.ExpiryCalculator = otter.ExpiryWriting[model.EventKey, *model.Products](s.ttl)
	}
	s.cache = otter.Must(o)

	metrics.UpdateProductsStored(0)
	return s
}

// Put implements Store.
func (s *ProductStore) Put(ctx context.Context, p *model.Products) error {
	if p == nil {
		return ErrNilProduct
	}
	if err := ctx.Err(); err != nil {
		return err
	}
	s.cache.Set(p.EventKey, p)
	metrics.UpdateProductsStored(s.cache.EstimatedSize())
	return nil
}

// Get implements Store.
func (s *ProductStore) Get(_ context.Context, key model.EventKey) (*model.Products, error) {
	p, ok := s.cache.GetIfPresent(key)
	if !ok {
		return nil, ErrNotFound
	}
	return p, nil
}

// Count implements Store.
func (s *ProductStore) Count(_ context.Context) int {
	return s.cache.EstimatedSize()
}

// Capacity returns the size bound.
func (s *ProductStore) Capacity() int { return s.capacity }

// TTL returns the write expiry, zero when disabled.
func (s *ProductStore) TTL() time.Duration { return s.ttl }
