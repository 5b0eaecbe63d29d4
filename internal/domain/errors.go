package domain

import "errors"

var (
	// ErrNotFound marks a cart, line item, or product the platform can no
	// longer locate. Callers treat it as recoverable: the local handle is
	// stale, not the system broken.
	ErrNotFound = errors.New("not found")
)
