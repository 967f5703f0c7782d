package bucket

import (
	"time"
)

// Build materializes cfg.Count empty, contiguous buckets starting at
// cfg.Start. Each bucket's End is the next bucket's Start.
func Build(cfg Config) []Bucket {
	if cfg.Count < 1 {
		return []Bucket{}
	}

	buckets := make([]Bucket, 0, cfg.Count)
	cursor := cfg.Start
	for i := 0; i < cfg.Count; i++ {
		end := AddUnit(cursor, cfg.Unit, 1)
		buckets = append(buckets, Bucket{
			Start:    cursor,
			End:      end,
			PerGroup: make(map[string]float64),
		})
		cursor = end
	}

	return buckets
}

// IndexOf maps t to a bucket index under cfg.
//
// Returns -1 when t is before cfg.Start. The result may be >= cfg.Count;
// callers treat such indices as out of range. Bucket boundaries follow
// AddUnit, so the index always agrees with the buckets Build returns.
func IndexOf(cfg Config, t time.Time) int {
	if t.Before(cfg.Start) {
		return -1
	}

	if cfg.Unit == UnitMonth {
		return MonthDiffInclusive(cfg.Start, t, cfg.Start.Location()) - 1
	}

	width := cfg.Unit.Duration()
	if width <= 0 {
		return -1
	}

	// Calendar days are 23h or 25h across DST transitions. Settle the
	// estimate on the bucket whose [start, end) holds t.
	i := int(t.Sub(cfg.Start) / width)
	for i > 0 && t.Before(AddUnit(cfg.Start, cfg.Unit, i)) {
		i--
	}
	for !t.Before(AddUnit(cfg.Start, cfg.Unit, i+1)) {
		i++
	}
	return i
}
