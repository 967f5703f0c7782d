package bucket

import (
	"math"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func utc(y int, m time.Month, d, h, min int) time.Time {
	return time.Date(y, m, d, h, min, 0, 0, time.UTC)
}

func TestAlign(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		in   time.Time
		unit Unit
		want time.Time
	}{
		{"hour truncates minutes", time.Date(2026, 3, 4, 10, 37, 12, 500, time.UTC), UnitHour, utc(2026, 3, 4, 10, 0)},
		{"day truncates to midnight", utc(2026, 3, 4, 10, 37), UnitDay, utc(2026, 3, 4, 0, 0)},
		{"week from wednesday", utc(2026, 3, 4, 10, 37), UnitWeek, utc(2026, 3, 2, 0, 0)},
		{"week on monday", utc(2026, 3, 2, 15, 0), UnitWeek, utc(2026, 3, 2, 0, 0)},
		{"week from sunday", utc(2026, 3, 8, 23, 59), UnitWeek, utc(2026, 3, 2, 0, 0)},
		{"week crosses month", utc(2026, 3, 1, 9, 0), UnitWeek, utc(2026, 2, 23, 0, 0)},
		{"month to first", utc(2026, 3, 31, 23, 0), UnitMonth, utc(2026, 3, 1, 0, 0)},
		{"already aligned", utc(2026, 3, 1, 0, 0), UnitMonth, utc(2026, 3, 1, 0, 0)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Align(tt.in, tt.unit, time.UTC)
			assert.True(t, got.Equal(tt.want), "Align() = %v, want %v", got, tt.want)
			assert.False(t, got.After(tt.in), "Align() must never advance")
		})
	}
}

func TestAlign_UsesLocation(t *testing.T) {
	t.Parallel()

	tokyo := time.FixedZone("UTC+9", 9*60*60)

	// 20:30 UTC on the 4th is 05:30 on the 5th in UTC+9.
	in := utc(2026, 3, 4, 20, 30)
	got := Align(in, UnitDay, tokyo)

	want := time.Date(2026, 3, 5, 0, 0, 0, 0, tokyo)
	assert.True(t, got.Equal(want), "Align() = %v, want %v", got, want)
	assert.Equal(t, tokyo, got.Location())
}

func TestAddUnit(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		in   time.Time
		unit Unit
		n    int
		want time.Time
	}{
		{"hours", utc(2026, 3, 4, 22, 0), UnitHour, 3, utc(2026, 3, 5, 1, 0)},
		{"days across month", utc(2026, 2, 27, 0, 0), UnitDay, 2, utc(2026, 3, 1, 0, 0)},
		{"weeks", utc(2026, 2, 23, 0, 0), UnitWeek, 1, utc(2026, 3, 2, 0, 0)},
		{"month rolls year", utc(2025, 12, 1, 0, 0), UnitMonth, 1, utc(2026, 1, 1, 0, 0)},
		{"month overflow normalizes", utc(2026, 1, 31, 0, 0), UnitMonth, 1, utc(2026, 3, 3, 0, 0)},
		{"zero is identity", utc(2026, 1, 31, 5, 0), UnitWeek, 0, utc(2026, 1, 31, 5, 0)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := AddUnit(tt.in, tt.unit, tt.n)
			assert.True(t, got.Equal(tt.want), "AddUnit() = %v, want %v", got, tt.want)
		})
	}
}

func TestMonthDiffInclusive(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name       string
		start, end time.Time
		want       int
	}{
		{"same month", utc(2026, 1, 1, 0, 0), utc(2026, 1, 31, 23, 0), 1},
		{"ignores day of month", utc(2026, 1, 31, 0, 0), utc(2026, 2, 1, 0, 0), 2},
		{"three months", utc(2026, 1, 15, 0, 0), utc(2026, 3, 3, 0, 0), 3},
		{"across year", utc(2025, 12, 20, 0, 0), utc(2026, 1, 2, 0, 0), 2},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, MonthDiffInclusive(tt.start, tt.end, time.UTC))
		})
	}
}

func TestUnitDuration(t *testing.T) {
	t.Parallel()

	assert.Equal(t, time.Hour, UnitHour.Duration())
	assert.Equal(t, 24*time.Hour, UnitDay.Duration())
	assert.Equal(t, 7*24*time.Hour, UnitWeek.Duration())
	assert.Zero(t, UnitMonth.Duration())
}

func TestParseUnit(t *testing.T) {
	t.Parallel()

	for _, u := range Units {
		got, err := ParseUnit(u.String())
		assert.NoError(t, err)
		assert.Equal(t, u, got)
	}

	_, err := ParseUnit("fortnight")
	assert.ErrorIs(t, err, ErrUnknownUnit)

	_, err = Unit(42).MarshalText()
	assert.ErrorIs(t, err, ErrUnknownUnit)
}

func TestCeilCount(t *testing.T) {
	t.Parallel()

	assert.Equal(t, 1, ceilCount(0, time.Hour))
	assert.Equal(t, 1, ceilCount(time.Hour, time.Hour))
	assert.Equal(t, 2, ceilCount(time.Hour+time.Nanosecond, time.Hour))
	assert.Equal(t, 4, ceilCount(84*time.Hour, 24*time.Hour))

	// Spans near the largest Duration must not wrap around.
	assert.Equal(t, int(math.MaxInt64/int64(time.Hour))+1, ceilCount(time.Duration(math.MaxInt64), time.Hour))
	assert.Equal(t, int(math.MaxInt64/int64(24*time.Hour))+1, ceilCount(time.Duration(math.MaxInt64), 24*time.Hour))
}
