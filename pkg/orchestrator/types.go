// Package orchestrator fetches cost records for a set of groups, runs
// them through the bucketing engine and tracks the request lifecycle as a
// single tagged state.
//
// A new request supersedes any request still in flight: the older fetch
// is cancelled and its result, should it arrive late, is discarded.
//
// Example usage:
//
//	o := orchestrator.New(orchestrator.Config{Concurrency: 4}, store, logger.Default())
//	defer o.Close()
//
//	if _, err := o.Request([]string{"docs-site", "design-tokens"}); err != nil {
//	    log.Fatal(err)
//	}
//	state, err := o.Wait(ctx)
//	if err == nil && state.Kind == orchestrator.KindReady {
//	    fmt.Println(len(state.Result.Buckets))
//	}
package orchestrator

import (
	"context"
	"time"

	"github.com/0xmhha/cost-monitor/pkg/bucket"
)

// Fetcher loads the cost records belonging to one group.
type Fetcher interface {
	FetchRecords(ctx context.Context, groupID string) ([]bucket.Record, error)
}

// FetcherFunc adapts a function to the Fetcher interface.
type FetcherFunc func(ctx context.Context, groupID string) ([]bucket.Record, error)

// FetchRecords implements Fetcher.
func (f FetcherFunc) FetchRecords(ctx context.Context, groupID string) ([]bucket.Record, error) {
	return f(ctx, groupID)
}

// Kind discriminates the request state.
type Kind int

// Request states.
const (
	KindIdle Kind = iota
	KindLoading
	KindReady
	KindEmpty
	KindError
)

// String returns the state name.
func (k Kind) String() string {
	switch k {
	case KindIdle:
		return "idle"
	case KindLoading:
		return "loading"
	case KindReady:
		return "ready"
	case KindEmpty:
		return "empty"
	case KindError:
		return "error"
	default:
		return "unknown"
	}
}

// MarshalText implements encoding.TextMarshaler.
func (k Kind) MarshalText() ([]byte, error) {
	return []byte(k.String()), nil
}

// State is an immutable snapshot of the orchestrator.
//
// Result is meaningful for KindReady and KindEmpty; Err only for KindError.
type State struct {
	Kind      Kind          `json:"kind"`
	RequestID string        `json:"requestId,omitempty"`
	GroupIDs  []string      `json:"groupIds"`
	Result    bucket.Result `json:"result"`
	Err       string        `json:"error,omitempty"`
	UpdatedAt time.Time     `json:"updatedAt"`
}

// IsLoading reports whether a request is in flight.
func (s State) IsLoading() bool {
	return s.Kind == KindLoading
}

// Config holds the configuration for the orchestrator.
type Config struct {
	// Concurrency bounds simultaneous fetches per request.
	// Default: 4.
	Concurrency int

	// Timeout bounds a whole request. Zero means no timeout.
	Timeout time.Duration

	// Location is the time zone used for bucket alignment.
	// Default: time.Local.
	Location *time.Location

	// UpdateBuffer is the capacity of the updates channel.
	// Default: 10.
	UpdateBuffer int
}

// Orchestrator runs aggregation requests and publishes their state.
type Orchestrator interface {
	// Request starts aggregating groupIDs, superseding any request in
	// flight, and returns the new request id. An empty list moves the
	// state to idle without fetching.
	Request(groupIDs []string) (string, error)

	// Refresh repeats the most recent request.
	Refresh() (string, error)

	// State returns the current snapshot.
	State() State

	// Updates delivers every state transition. Sends never block; a slow
	// consumer misses intermediate states but can always read State.
	Updates() <-chan State

	// Wait blocks until the current request settles or ctx is done.
	Wait(ctx context.Context) (State, error)

	// Close cancels work in flight and waits for it to stop.
	Close() error
}
