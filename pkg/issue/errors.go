package issue

import (
	"errors"
	"fmt"
)

// Common errors returned by the issue package.
var (
	// ErrMissingField is returned when a required issue field is absent.
	ErrMissingField = errors.New("invalid issue: missing required field")

	// ErrMissingID is returned when an issue has an empty id.
	ErrMissingID = errors.New("invalid issue: id must not be empty")

	// ErrInvalidTimestamp is returned when a timestamp cannot be interpreted.
	ErrInvalidTimestamp = errors.New("invalid timestamp: must be RFC 3339 or epoch milliseconds")

	// ErrInvalidNumber is returned when a numeric field holds a non-numeric value.
	ErrInvalidNumber = errors.New("invalid number: must be a number or numeric string")

	// ErrInvalidStatus is returned when the status is not queued, running, succeeded or failed.
	ErrInvalidStatus = errors.New("invalid status: must be queued, running, succeeded, or failed")

	// ErrNegativeValue is returned when a token count, cost or time is negative.
	ErrNegativeValue = errors.New("invalid value: must be non-negative")

	// ErrMalformedJSON is returned when the payload is not a JSON array of objects.
	ErrMalformedJSON = errors.New("malformed issue payload")
)

// ValidationError reports which element of a payload failed to decode or validate.
type ValidationError struct {
	Index int    // Zero-based position in the payload array
	ID    string // Issue id when it could be read
	Err   error  // Underlying error
}

func (e *ValidationError) Error() string {
	if e.ID != "" {
		return fmt.Sprintf("validation error at index %d (%s): %v", e.Index, e.ID, e.Err)
	}
	return fmt.Sprintf("validation error at index %d: %v", e.Index, e.Err)
}

func (e *ValidationError) Unwrap() error {
	return e.Err
}
