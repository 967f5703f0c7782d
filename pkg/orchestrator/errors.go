package orchestrator

import (
	"errors"
	"fmt"
)

var (
	// ErrOrchestratorClosed is returned when operations are attempted on a closed orchestrator.
	ErrOrchestratorClosed = errors.New("orchestrator is closed")

	// ErrNilFetcher is returned when aggregation is attempted without a fetcher.
	ErrNilFetcher = errors.New("fetcher must not be nil")
)

// FetchError reports which group failed to load.
type FetchError struct {
	GroupID string
	Err     error
}

func (e *FetchError) Error() string {
	return fmt.Sprintf("fetch records for %s: %v", e.GroupID, e.Err)
}

func (e *FetchError) Unwrap() error {
	return e.Err
}
