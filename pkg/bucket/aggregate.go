package bucket

import (
	"time"
)

// Option customizes an aggregation run.
type Option func(*options)

type options struct {
	loc      *time.Location
	minCount int
	maxCount int
}

// WithLocation sets the time zone used for calendar alignment.
// Default: time.Local.
func WithLocation(loc *time.Location) Option {
	return func(o *options) {
		if loc != nil {
			o.loc = loc
		}
	}
}

// WithBand overrides the readable bucket-count band.
// Invalid bands (min < 1 or max < min) are ignored.
func WithBand(minCount, maxCount int) Option {
	return func(o *options) {
		if minCount >= 1 && maxCount >= minCount {
			o.minCount = minCount
			o.maxCount = maxCount
		}
	}
}

func newOptions(opts []Option) options {
	o := options{
		loc:      time.Local,
		minCount: DefaultMinBuckets,
		maxCount: DefaultMaxBuckets,
	}
	for _, opt := range opts {
		opt(&o)
	}
	return o
}

// Plan computes the bucket configuration for records without aggregating.
//
// Returns ErrNoRecords when records is empty.
func Plan(records []Record, opts ...Option) (Config, error) {
	o := newOptions(opts)

	lo, hi, err := DetectRange(records)
	if err != nil {
		return Config{}, err
	}

	return selectConfig(lo, hi, o.loc, o.minCount, o.maxCount), nil
}

// Aggregate runs the full pipeline: range detection, unit selection,
// bucket construction and per-group accumulation.
//
// Empty input yields an empty, well-formed result. Records whose bucket
// index falls outside the built range are skipped and counted in
// Result.Dropped.
//
// The returned result shares no state with the input or with earlier runs.
func Aggregate(records []Record, opts ...Option) Result {
	cfg, err := Plan(records, opts...)
	if err != nil {
		return emptyResult()
	}

	buckets := Build(cfg)
	totals := make(map[string]float64)
	dropped := 0

	for _, r := range records {
		idx := IndexOf(cfg, r.Timestamp)
		if idx < 0 || idx >= len(buckets) {
			dropped++
			continue
		}

		b := &buckets[idx]
		b.PerGroup[r.GroupID] += r.Cost
		b.TotalCost += r.Cost
		totals[r.GroupID] += r.Cost
	}

	return Result{
		Unit:        cfg.Unit,
		Buckets:     buckets,
		GroupTotals: totals,
		Dropped:     dropped,
	}
}
