package source

import (
	"errors"
	"fmt"
)

var (
	// ErrInvalidBaseURL is returned when the remote base URL is empty or unparsable.
	ErrInvalidBaseURL = errors.New("invalid base URL")

	// ErrUnexpectedStatus is matched by every StatusError.
	ErrUnexpectedStatus = errors.New("unexpected HTTP status")
)

// StatusError reports a non-2xx response. GroupID is empty for the
// project list endpoint.
type StatusError struct {
	GroupID    string
	StatusCode int
	Status     string
}

func (e *StatusError) Error() string {
	if e.GroupID == "" {
		return fmt.Sprintf("fetch project list: %s", e.Status)
	}
	return fmt.Sprintf("fetch issues for %s: %s", e.GroupID, e.Status)
}

func (e *StatusError) Unwrap() error {
	return ErrUnexpectedStatus
}
