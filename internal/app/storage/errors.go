package storage

import "errors"

var (
	// ErrNotFound is returned when a record does not exist.
	ErrNotFound = errors.New("record not found")

	// ErrGlobalLimitReached is returned by ReserveGeneration when the daily
	// global generation budget is exhausted.
	ErrGlobalLimitReached = errors.New("daily generation limit reached")

	// ErrGuestLimitReached is returned by ReserveGeneration when the guest
	// already consumed its daily allowance.
	ErrGuestLimitReached = errors.New("guest daily limit reached")
)
