package discovery

import "errors"

// Common errors returned by the discovery package.
var (
	// ErrInvalidPath is returned when a root exists but is not a directory.
	ErrInvalidPath = errors.New("invalid or inaccessible path")
)
