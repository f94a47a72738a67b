package model

import "errors"

// Sentinel kinds for event access errors.
var (
	ErrProductNotFound = errors.New("product not found")
	ErrInvalidKey      = errors.New("invalid event key")
)
