package service

import "errors"

// Sentinel kinds for service errors.
var (
	ErrNotStarted     = errors.New("service not started")
	ErrInvalidEvent   = errors.New("invalid event")
	ErrDuplicateLabel = errors.New("duplicate producer label")
)
