package bucket

import (
	"time"
)

// Fixed unit widths used for count estimation and index mapping.
const (
	hourDuration = time.Hour
	dayDuration  = 24 * time.Hour
	weekDuration = 7 * dayDuration
)

// Duration returns the fixed width of hour, day and week units.
//
// Months have no fixed width; Duration returns 0 for UnitMonth.
func (u Unit) Duration() time.Duration {
	switch u {
	case UnitHour:
		return hourDuration
	case UnitDay:
		return dayDuration
	case UnitWeek:
		return weekDuration
	default:
		return 0
	}
}

// Align truncates t down to the most recent boundary of unit in loc.
//
// Boundaries are the top of the hour, midnight, Monday midnight and
// midnight on the first of the month. Align never advances t.
func Align(t time.Time, unit Unit, loc *time.Location) time.Time {
	t = t.In(loc)
	y, m, d := t.Date()

	switch unit {
	case UnitHour:
		return time.Date(y, m, d, t.Hour(), 0, 0, 0, loc)
	case UnitDay:
		return time.Date(y, m, d, 0, 0, 0, 0, loc)
	case UnitWeek:
		sinceMonday := (int(t.Weekday()) + 6) % 7
		return time.Date(y, m, d-sinceMonday, 0, 0, 0, 0, loc)
	case UnitMonth:
		return time.Date(y, m, 1, 0, 0, 0, 0, loc)
	default:
		return t
	}
}

// AddUnit advances t by n units.
//
// Hours are absolute durations. Days, weeks and months use calendar fields
// in t's location, so month addition rolls over years and absorbs
// variable month lengths the way time.Date normalizes them.
func AddUnit(t time.Time, unit Unit, n int) time.Time {
	y, m, d := t.Date()
	hh, mm, ss := t.Clock()
	ns := t.Nanosecond()

	switch unit {
	case UnitHour:
		return t.Add(time.Duration(n) * hourDuration)
	case UnitDay:
		return time.Date(y, m, d+n, hh, mm, ss, ns, t.Location())
	case UnitWeek:
		return time.Date(y, m, d+7*n, hh, mm, ss, ns, t.Location())
	case UnitMonth:
		return time.Date(y, m+time.Month(n), d, hh, mm, ss, ns, t.Location())
	default:
		return t
	}
}

// MonthDiffInclusive returns the number of calendar months touched between
// start and end, counting both ends.
//
// The day of month is ignored: Jan 31 to Feb 1 is 2, Jan 1 to Jan 31 is 1.
// Both instants are interpreted in loc.
func MonthDiffInclusive(start, end time.Time, loc *time.Location) int {
	start = start.In(loc)
	end = end.In(loc)

	months := (end.Year() - start.Year()) * 12
	months += int(end.Month()) - int(start.Month())
	return months + 1
}

// ceilCount returns ceil(span/width), floored at 1.
func ceilCount(span, width time.Duration) int {
	n := int(span / width)
	if span%width != 0 {
		n++
	}
	if n < 1 {
		return 1
	}
	return n
}
