package bucket

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const costTolerance = 1e-9

func sumCosts(records []Record) float64 {
	var total float64
	for _, r := range records {
		total += r.Cost
	}
	return total
}

func sumTotals(totals map[string]float64) float64 {
	var total float64
	for _, v := range totals {
		total += v
	}
	return total
}

func assertContiguous(t *testing.T, buckets []Bucket) {
	t.Helper()

	for i := 0; i+1 < len(buckets); i++ {
		assert.True(t, buckets[i].End.Equal(buckets[i+1].Start),
			"bucket %d ends at %v but bucket %d starts at %v", i, buckets[i].End, i+1, buckets[i+1].Start)
	}
	for i, b := range buckets {
		assert.True(t, b.Start.Before(b.End), "bucket %d is empty or inverted", i)
	}
}

func TestAggregate_Empty(t *testing.T) {
	t.Parallel()

	result := Aggregate(nil, WithLocation(time.UTC))

	assert.True(t, result.IsEmpty())
	assert.NotNil(t, result.Buckets)
	assert.NotNil(t, result.GroupTotals)
	assert.Empty(t, result.GroupTotals)
	assert.Zero(t, result.Dropped)
}

func TestAggregate_SinglePoint(t *testing.T) {
	t.Parallel()

	at := utc(2026, 3, 4, 10, 25)
	result := Aggregate([]Record{{GroupID: "docs-site", Timestamp: at, Cost: 0.42}}, WithLocation(time.UTC))

	require.Len(t, result.Buckets, 1)
	assert.Equal(t, UnitHour, result.Unit)

	b := result.Buckets[0]
	assert.True(t, b.Start.Equal(utc(2026, 3, 4, 10, 0)))
	assert.True(t, b.End.Equal(utc(2026, 3, 4, 11, 0)))
	assert.Equal(t, 0.42, b.PerGroup["docs-site"])
	assert.Equal(t, 0.42, b.TotalCost)
	assert.Equal(t, 0.42, result.GroupTotals["docs-site"])
}

func TestAggregate_SameTimestampTwoGroups(t *testing.T) {
	t.Parallel()

	at := utc(2026, 3, 4, 10, 25)
	result := Aggregate([]Record{
		{GroupID: "g1", Timestamp: at, Cost: 10},
		{GroupID: "g2", Timestamp: at, Cost: 20},
	}, WithLocation(time.UTC))

	require.Len(t, result.Buckets, 1)
	assert.Equal(t, map[string]float64{"g1": 10, "g2": 20}, result.Buckets[0].PerGroup)
	assert.Equal(t, 30.0, result.Buckets[0].TotalCost)
	assert.Equal(t, map[string]float64{"g1": 10, "g2": 20}, result.GroupTotals)
}

func TestAggregate_DailyConservation(t *testing.T) {
	t.Parallel()

	base := utc(2026, 1, 1, 9, 0)
	var records []Record
	groups := []string{"react-component-library", "design-tokens", "docs-site"}
	for day := 0; day < 10; day++ {
		for i, g := range groups {
			records = append(records, Record{
				GroupID:   g,
				Timestamp: base.Add(time.Duration(day)*24*time.Hour + time.Duration(i)*3*time.Hour),
				Cost:      0.01*float64(day+1) + 0.1*float64(i),
			})
		}
	}

	result := Aggregate(records, WithLocation(time.UTC))

	assert.Equal(t, UnitDay, result.Unit)
	require.Len(t, result.Buckets, 10)
	assert.True(t, result.Buckets[0].Start.Equal(utc(2026, 1, 1, 0, 0)))
	assert.Zero(t, result.Dropped)
	assertContiguous(t, result.Buckets)

	lo, hi, err := DetectRange(records)
	require.NoError(t, err)
	assert.False(t, result.Buckets[0].Start.After(lo))
	assert.True(t, result.Buckets[len(result.Buckets)-1].End.After(hi))

	want := sumCosts(records)
	assert.InDelta(t, want, result.TotalCost(), costTolerance)
	assert.InDelta(t, want, sumTotals(result.GroupTotals), costTolerance)

	for _, b := range result.Buckets {
		assert.InDelta(t, b.TotalCost, sumTotals(b.PerGroup), costTolerance)
	}
}

func TestAggregate_WeeklyBuckets(t *testing.T) {
	t.Parallel()

	records := []Record{
		{GroupID: "a", Timestamp: utc(2026, 1, 5, 8, 0), Cost: 1},
		{GroupID: "b", Timestamp: utc(2026, 2, 11, 8, 0), Cost: 2},
		{GroupID: "a", Timestamp: utc(2026, 3, 20, 0, 0), Cost: 4},
	}

	result := Aggregate(records, WithLocation(time.UTC))

	assert.Equal(t, UnitWeek, result.Unit)
	require.Len(t, result.Buckets, 11)
	assertContiguous(t, result.Buckets)
	assert.True(t, result.Buckets[0].Start.Equal(utc(2026, 1, 5, 0, 0)))
	assert.Equal(t, time.Monday, result.Buckets[3].Start.Weekday())
	assert.Equal(t, 1.0, result.Buckets[0].PerGroup["a"])
	assert.Equal(t, 4.0, result.Buckets[10].PerGroup["a"])
	assert.Equal(t, map[string]float64{"a": 5, "b": 2}, result.GroupTotals)
}

func TestAggregate_MonthlyBuckets(t *testing.T) {
	t.Parallel()

	records := []Record{
		{GroupID: "a", Timestamp: utc(2026, 1, 15, 0, 0), Cost: 1},
		{GroupID: "b", Timestamp: utc(2026, 2, 28, 23, 0), Cost: 2},
		{GroupID: "a", Timestamp: utc(2026, 6, 3, 0, 0), Cost: 3},
	}

	result := Aggregate(records, WithLocation(time.UTC))

	assert.Equal(t, UnitMonth, result.Unit)
	require.Len(t, result.Buckets, 6)
	assertContiguous(t, result.Buckets)

	assert.True(t, result.Buckets[1].Start.Equal(utc(2026, 2, 1, 0, 0)))
	assert.True(t, result.Buckets[1].End.Equal(utc(2026, 3, 1, 0, 0)))
	assert.True(t, result.Buckets[5].Start.Equal(utc(2026, 6, 1, 0, 0)))
	assert.True(t, result.Buckets[5].End.Equal(utc(2026, 7, 1, 0, 0)))

	assert.Equal(t, 1.0, result.Buckets[0].TotalCost)
	assert.Equal(t, 2.0, result.Buckets[1].PerGroup["b"])
	assert.Equal(t, 3.0, result.Buckets[5].PerGroup["a"])
	assert.Empty(t, result.Buckets[3].PerGroup)
}

// A record sitting exactly on the end of the selected range maps one past
// the last bucket. It is dropped rather than clamped into the last bucket.
func TestAggregate_DropsOutOfRangeRecords(t *testing.T) {
	t.Parallel()

	records := []Record{
		{GroupID: "g", Timestamp: utc(2026, 1, 1, 0, 0), Cost: 1},
		{GroupID: "g", Timestamp: utc(2026, 1, 11, 0, 0), Cost: 2},
	}

	result := Aggregate(records, WithLocation(time.UTC))

	assert.Equal(t, UnitDay, result.Unit)
	require.Len(t, result.Buckets, 10)
	assert.Equal(t, 1, result.Dropped)
	assert.Equal(t, 1.0, result.TotalCost())
	assert.Equal(t, map[string]float64{"g": 1}, result.GroupTotals)
	assert.InDelta(t, sumCosts(records)-2, sumTotals(result.GroupTotals), costTolerance)
}

func TestAggregate_Idempotent(t *testing.T) {
	t.Parallel()

	records := []Record{
		{GroupID: "a", Timestamp: utc(2026, 1, 2, 3, 4), Cost: 0.1},
		{GroupID: "b", Timestamp: utc(2026, 1, 4, 5, 6), Cost: 0.2},
		{GroupID: "a", Timestamp: utc(2026, 1, 8, 7, 8), Cost: 0.3},
	}

	first := Aggregate(records, WithLocation(time.UTC))
	second := Aggregate(records, WithLocation(time.UTC))

	assert.Equal(t, first, second)

	// Results must not share maps.
	first.Buckets[0].PerGroup["a"] = 99
	first.GroupTotals["a"] = 99
	assert.NotEqual(t, 99.0, second.Buckets[0].PerGroup["a"])
	assert.NotEqual(t, 99.0, second.GroupTotals["a"])
}

func TestAggregate_WithBand(t *testing.T) {
	t.Parallel()

	records := []Record{
		{GroupID: "a", Timestamp: utc(2026, 3, 4, 10, 10), Cost: 1},
		{GroupID: "a", Timestamp: utc(2026, 3, 4, 15, 40), Cost: 1},
	}

	assert.Equal(t, UnitHour, Aggregate(records, WithLocation(time.UTC)).Unit)
	assert.Equal(t, UnitMonth, Aggregate(records, WithLocation(time.UTC), WithBand(2, 3)).Unit)

	// Invalid bands are ignored.
	assert.Equal(t, UnitHour, Aggregate(records, WithLocation(time.UTC), WithBand(5, 1)).Unit)
}

func TestPlan(t *testing.T) {
	t.Parallel()

	_, err := Plan(nil)
	assert.ErrorIs(t, err, ErrNoRecords)

	cfg, err := Plan([]Record{{GroupID: "a", Timestamp: utc(2026, 3, 4, 10, 10)}}, WithLocation(time.UTC))
	require.NoError(t, err)
	assert.Equal(t, Config{Unit: UnitHour, Count: 1, Start: utc(2026, 3, 4, 10, 0)}, cfg)
}

func TestBuild(t *testing.T) {
	t.Parallel()

	assert.Empty(t, Build(Config{Unit: UnitDay, Count: 0, Start: utc(2026, 1, 1, 0, 0)}))

	buckets := Build(Config{Unit: UnitMonth, Count: 3, Start: utc(2025, 11, 1, 0, 0)})
	require.Len(t, buckets, 3)
	assertContiguous(t, buckets)
	assert.True(t, buckets[2].Start.Equal(utc(2026, 1, 1, 0, 0)))
	for _, b := range buckets {
		assert.NotNil(t, b.PerGroup)
		assert.Zero(t, b.TotalCost)
	}
}
