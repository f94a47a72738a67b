package repository

import "errors"

// Sentinel kinds for repository errors.
var (
	ErrNotFound   = errors.New("products not found")
	ErrNilProduct = errors.New("nil products")
)
