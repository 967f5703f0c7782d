// Package bucket groups timestamped cost records into a small number of
// contiguous time windows suitable for a cost-over-time chart.
//
// The bucket width adapts to the time range covered by the records: the
// engine picks the finest unit (hour, day, week, month) whose bucket count
// falls inside a readable band, aligns the first bucket to a calendar
// boundary and sums costs per group within each window.
//
// Example usage:
//
//	records := []bucket.Record{
//	    {GroupID: "docs-site", Timestamp: t1, Cost: 0.08},
//	    {GroupID: "design-tokens", Timestamp: t2, Cost: 0.12},
//	}
//
//	result := bucket.Aggregate(records, bucket.WithLocation(time.UTC))
//	for _, b := range result.Buckets {
//	    fmt.Printf("%s: %.2f\n", b.Start.Format(time.RFC3339), b.TotalCost)
//	}
package bucket

import (
	"time"
)

// Record is a single cost-bearing event owned by a group.
//
// Invariant: Timestamp must not be zero value.
// Invariant: Cost must be non-negative.
type Record struct {
	// GroupID identifies the owning project or category.
	GroupID string

	// Timestamp is when the cost was incurred.
	Timestamp time.Time

	// Cost is the monetary amount, may be fractional.
	Cost float64
}

// Unit is a bucket width.
type Unit int

// Bucket units ordered from finest to coarsest.
const (
	UnitHour Unit = iota
	UnitDay
	UnitWeek
	UnitMonth
)

// Units lists every unit in selection order.
var Units = []Unit{UnitHour, UnitDay, UnitWeek, UnitMonth}

// String returns the unit name.
func (u Unit) String() string {
	switch u {
	case UnitHour:
		return "hour"
	case UnitDay:
		return "day"
	case UnitWeek:
		return "week"
	case UnitMonth:
		return "month"
	default:
		return "unknown"
	}
}

// MarshalText implements encoding.TextMarshaler.
func (u Unit) MarshalText() ([]byte, error) {
	if u < UnitHour || u > UnitMonth {
		return nil, ErrUnknownUnit
	}
	return []byte(u.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (u *Unit) UnmarshalText(text []byte) error {
	parsed, err := ParseUnit(string(text))
	if err != nil {
		return err
	}
	*u = parsed
	return nil
}

// ParseUnit converts a unit name into a Unit.
func ParseUnit(s string) (Unit, error) {
	for _, u := range Units {
		if u.String() == s {
			return u, nil
		}
	}
	return 0, ErrUnknownUnit
}

// Config describes the buckets produced for one aggregation run.
//
// Invariant: Start <= earliest record timestamp.
// Invariant: Count >= 1.
type Config struct {
	// Unit is the width of every bucket.
	Unit Unit

	// Count is the number of buckets to produce.
	Count int

	// Start is bucket 0's start, aligned to a Unit boundary.
	Start time.Time
}

// Bucket is one half-open time window [Start, End).
type Bucket struct {
	Start     time.Time          `json:"start"`
	End       time.Time          `json:"end"`
	TotalCost float64            `json:"totalCost"`
	PerGroup  map[string]float64 `json:"perGroup"`
}

// Result is the output of one aggregation run.
//
// Buckets are ascending, contiguous and non-overlapping. The sum of
// Buckets[*].TotalCost equals the sum of GroupTotals, which equals the sum
// of all input costs minus the costs of Dropped records.
type Result struct {
	// Unit is the selected bucket width. Meaningless when Buckets is empty.
	Unit Unit `json:"unit"`

	// Buckets holds the time windows in ascending order.
	Buckets []Bucket `json:"buckets"`

	// GroupTotals holds per-group sums across all buckets.
	GroupTotals map[string]float64 `json:"groupTotals"`

	// Dropped counts records that mapped outside the bucket range.
	Dropped int `json:"dropped"`
}

// IsEmpty reports whether the result holds no buckets.
func (r Result) IsEmpty() bool {
	return len(r.Buckets) == 0
}

// TotalCost returns the sum of all bucket totals.
func (r Result) TotalCost() float64 {
	var total float64
	for _, b := range r.Buckets {
		total += b.TotalCost
	}
	return total
}

// emptyResult returns a well-formed result with no buckets.
func emptyResult() Result {
	return Result{
		Buckets:     []Bucket{},
		GroupTotals: map[string]float64{},
	}
}
