// Package repository keeps the products of recently processed events so
// they can be read back by event key.
package repository

import (
	"context"

	"github.com/okian/hltjet/internal/domain/model"
)

// Store provides read/write access to event products.
type Store interface {
	// Put stores p under its event key, replacing any previous products.
	Put(ctx context.Context, p *model.Products) error

	// Get returns the products of key or ErrNotFound.
	Get(ctx context.Context, key model.EventKey) (*model.Products, error)

	// Count returns the approximate number of retained events.
	Count(ctx context.Context) int
}
