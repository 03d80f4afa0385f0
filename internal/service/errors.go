package service

import "errors"

var (
	// ErrEmptySelection means submit was called with no staged slots.
	ErrEmptySelection = errors.New("no slots chosen")

	// ErrIncompleteContact means a required contact field is missing.
	ErrIncompleteContact = errors.New("incomplete contact info")

	// ErrInvalidAge means age is outside the accepted range.
	ErrInvalidAge = errors.New("age must be between 0 and 120")

	// ErrUnknownLane rejects staging with a lane label that does not
	// normalize to half or full.
	ErrUnknownLane = errors.New("unknown lane type")

	// ErrUnknownSlot rejects staging outside the daily schedule.
	ErrUnknownSlot = errors.New("time is not in the daily schedule")

	// ErrOutOfSeason rejects staging outside the configured season or past
	// the booking horizon.
	ErrOutOfSeason = errors.New("date is outside the booking season")

	// ErrSessionNotFound means the booking session has expired or never
	// existed.
	ErrSessionNotFound = errors.New("booking session not found")

	// ErrNoMatch means lookup could not resolve a reservation from the
	// candidate identity.
	ErrNoMatch = errors.New("no matching reservation found")
)
