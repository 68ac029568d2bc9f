package store

import "errors"

var (
	// ErrNotFound is returned when a row does not exist. Callers map it
	// to a 404 at the API boundary.
	ErrNotFound = errors.New("not found")

	// ErrDuplicateName is returned when a unique name constraint would be
	// violated.
	ErrDuplicateName = errors.New("duplicate name")

	// ErrInvalidName is returned when a saved query name fails validation.
	ErrInvalidName = errors.New("invalid name")
)
