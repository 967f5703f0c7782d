// Package issue provides the issue model served by the cost dashboard and
// lenient decoding of issue payloads.
//
// Payloads are JSON arrays of issue objects. Numeric fields may arrive as
// numbers or numeric strings and timestamps as RFC 3339 strings or epoch
// milliseconds. Unknown fields are rejected.
//
// Example usage:
//
//	issues, err := issue.Parse(body)
//	if err != nil {
//	    return err
//	}
//	for _, is := range issues {
//	    fmt.Printf("%s: $%.2f\n", is.Title, is.Cost)
//	}
package issue

import (
	"time"

	"github.com/0xmhha/cost-monitor/pkg/bucket"
)

// Status is the lifecycle state of an issue run.
type Status string

// Issue statuses.
const (
	StatusQueued    Status = "queued"
	StatusRunning   Status = "running"
	StatusSucceeded Status = "succeeded"
	StatusFailed    Status = "failed"
)

// Valid reports whether s is a known status.
func (s Status) Valid() bool {
	switch s {
	case StatusQueued, StatusRunning, StatusSucceeded, StatusFailed:
		return true
	default:
		return false
	}
}

// Issue is one unit of agent work and the tokens and cost it consumed.
//
// Invariant: Timestamp must not be zero value.
// Invariant: token counts, Cost and Time must be non-negative.
type Issue struct {
	ID           string    `json:"id"`
	Title        string    `json:"title"`
	URL          string    `json:"url"`
	Project      string    `json:"project"`
	Description  string    `json:"description"`
	Timestamp    time.Time `json:"timestamp"`
	InputTokens  float64   `json:"inputTokens"`
	OutputTokens float64   `json:"outputTokens"`
	CacheTokens  float64   `json:"cacheTokens"`
	Cost         float64   `json:"cost"`
	// Time is the wall-clock duration of the run in seconds.
	Time   float64 `json:"time"`
	Status Status  `json:"status"`
}

// Record converts the issue into a cost record grouped by project.
func (i Issue) Record() bucket.Record {
	return bucket.Record{
		GroupID:   i.Project,
		Timestamp: i.Timestamp,
		Cost:      i.Cost,
	}
}

// Records converts issues into cost records.
func Records(issues []Issue) []bucket.Record {
	records := make([]bucket.Record, 0, len(issues))
	for _, i := range issues {
		records = append(records, i.Record())
	}
	return records
}

// Validate checks if the issue satisfies all invariants.
//
// Thread-safety: This method is read-only and thread-safe.
func (i *Issue) Validate() error {
	if i.ID == "" {
		return ErrMissingID
	}

	if i.Timestamp.IsZero() {
		return ErrInvalidTimestamp
	}

	if !i.Status.Valid() {
		return ErrInvalidStatus
	}

	for _, v := range []float64{i.InputTokens, i.OutputTokens, i.CacheTokens, i.Cost, i.Time} {
		if v < 0 {
			return ErrNegativeValue
		}
	}

	return nil
}

// Totals sums the numeric columns of a set of issues.
type Totals struct {
	InputTokens  float64 `json:"inputTokens"`
	OutputTokens float64 `json:"outputTokens"`
	CacheTokens  float64 `json:"cacheTokens"`
	Cost         float64 `json:"cost"`
	Time         float64 `json:"time"`
}
