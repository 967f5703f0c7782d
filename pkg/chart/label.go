package chart

import (
	"time"

	"github.com/0xmhha/cost-monitor/pkg/bucket"
)

// Label span limits. Day and week limits allow an extra hour for
// daylight-saving transitions.
const (
	hourSpan = time.Hour
	daySpan  = 25 * time.Hour
	weekSpan = 7*24*time.Hour + time.Hour
)

// BucketLabel formats a bucket for the chart axis, in the bucket's own
// time zone:
//
//   - up to an hour: "15:04"
//   - up to a day: "2006-01-02"
//   - up to a week: "2006-01-02 – 2006-01-08"
//   - longer: "Jan 2006"
func BucketLabel(b bucket.Bucket) string {
	span := b.End.Sub(b.Start)

	switch {
	case span <= hourSpan:
		return b.Start.Format("15:04")
	case span <= daySpan:
		return b.Start.Format(time.DateOnly)
	case span <= weekSpan:
		return b.Start.Format(time.DateOnly) + " – " + b.End.Format(time.DateOnly)
	default:
		return b.Start.Format("Jan 2006")
	}
}
