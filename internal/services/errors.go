package services

import "errors"

var (
	// ErrNotFound covers unknown models, items, version snapshots, and
	// availability rows. Handlers turn it into a 404.
	ErrNotFound = errors.New("not found")
	// ErrConflict is returned when a conditional write loses an optimistic
	// concurrency check. Handlers turn it into a 409.
	ErrConflict = errors.New("version conflict")
	// ErrInvalidAction is returned for an unknown or malformed bulk action.
	ErrInvalidAction = errors.New("invalid action")
)
