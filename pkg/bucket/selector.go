package bucket

import (
	"time"
)

// Default readable band for bucket counts.
const (
	DefaultMinBuckets = 4
	DefaultMaxBuckets = 12
)

// DetectRange returns the earliest and latest record timestamps.
//
// Both values are exact record timestamps. Returns ErrNoRecords when
// records is empty.
func DetectRange(records []Record) (time.Time, time.Time, error) {
	if len(records) == 0 {
		return time.Time{}, time.Time{}, ErrNoRecords
	}

	lo := records[0].Timestamp
	hi := records[0].Timestamp
	for _, r := range records[1:] {
		if r.Timestamp.Before(lo) {
			lo = r.Timestamp
		}
		if r.Timestamp.After(hi) {
			hi = r.Timestamp
		}
	}

	return lo, hi, nil
}

// candidate pairs a unit with the bucket count it would produce.
type candidate struct {
	unit  Unit
	count int
}

// SelectConfig chooses the bucket unit, count and aligned start for the
// range [lo, hi] using the default band.
func SelectConfig(lo, hi time.Time, loc *time.Location) Config {
	return selectConfig(lo, hi, loc, DefaultMinBuckets, DefaultMaxBuckets)
}

// selectConfig picks the first unit, finest first, whose count lies in
// [minCount, maxCount]. With no match it uses hours when the hour count is
// below the band and months otherwise.
func selectConfig(lo, hi time.Time, loc *time.Location, minCount, maxCount int) Config {
	span := hi.Sub(lo)
	if span < 0 {
		span = 0
	}

	monthCount := MonthDiffInclusive(lo, hi, loc)
	if monthCount < 1 {
		monthCount = 1
	}

	candidates := []candidate{
		{unit: UnitHour, count: ceilCount(span, hourDuration)},
		{unit: UnitDay, count: ceilCount(span, dayDuration)},
		{unit: UnitWeek, count: ceilCount(span, weekDuration)},
		{unit: UnitMonth, count: monthCount},
	}

	chosen := candidate{unit: UnitMonth, count: monthCount}
	matched := false
	for _, c := range candidates {
		if c.count >= minCount && c.count <= maxCount {
			chosen = c
			matched = true
			break
		}
	}

	if !matched && candidates[0].count < minCount {
		chosen = candidates[0]
	}

	return Config{
		Unit:  chosen.unit,
		Count: chosen.count,
		Start: Align(lo, chosen.unit, loc),
	}
}
