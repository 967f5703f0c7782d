package preference

import "errors"

var (
	// ErrEmptyKey is returned when a key is empty.
	ErrEmptyKey = errors.New("preference key must not be empty")

	// ErrStoreClosed is returned when operations are attempted on a closed store.
	ErrStoreClosed = errors.New("preference store is closed")

	// ErrInvalidDBPath is returned when no database path is configured.
	ErrInvalidDBPath = errors.New("preference database path must not be empty")
)
