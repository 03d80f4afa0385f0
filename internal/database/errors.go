package database

import "errors"

var (
	// ErrNotAvailable is returned when a checked insert finds less capacity
	// than the batch needs.
	ErrNotAvailable = errors.New("slot is no longer available")

	// ErrNotFound is returned when a lookup or delete matches no reservation.
	ErrNotFound = errors.New("reservation not found")
)
