package project

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func names(projects []Project) []string {
	out := make([]string, 0, len(projects))
	for _, p := range projects {
		out = append(out, p.Name)
	}
	return out
}

func fixtures() []Project {
	return []Project{
		{Name: "Bravo", LastUpdated: time.Date(2025, 8, 10, 14, 30, 0, 0, time.UTC)},
		{Name: "alpha", LastUpdated: time.Date(2025, 1, 5, 9, 4, 0, 0, time.UTC)},
		{Name: "Echo", LastUpdated: time.Date(2024, 12, 20, 23, 59, 0, 0, time.UTC)},
	}
}

func TestSort(t *testing.T) {
	tests := []struct {
		name   string
		column Column
		order  Order
		want   []string
	}{
		{"name asc", ColumnName, OrderAsc, []string{"alpha", "Bravo", "Echo"}},
		{"name desc", ColumnName, OrderDesc, []string{"Echo", "Bravo", "alpha"}},
		{"updated asc", ColumnLastUpdated, OrderAsc, []string{"Echo", "alpha", "Bravo"}},
		{"updated desc", ColumnLastUpdated, OrderDesc, []string{"Bravo", "alpha", "Echo"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			input := fixtures()
			sorted, err := Sort(input, tt.column, tt.order)
			require.NoError(t, err)
			assert.Equal(t, tt.want, names(sorted))
			assert.Equal(t, "Bravo", input[0].Name, "input must not be reordered")
		})
	}
}

func TestSort_Invalid(t *testing.T) {
	_, err := Sort(fixtures(), Column("issueCount"), OrderAsc)
	assert.ErrorIs(t, err, ErrInvalidColumn)

	_, err = Sort(fixtures(), ColumnName, Order("up"))
	assert.ErrorIs(t, err, ErrInvalidOrder)
}

func TestParseColumnAndOrder(t *testing.T) {
	c, err := ParseColumn("lastUpdated")
	require.NoError(t, err)
	assert.Equal(t, ColumnLastUpdated, c)

	_, err = ParseColumn("cost")
	assert.ErrorIs(t, err, ErrInvalidColumn)

	o, err := ParseOrder("desc")
	require.NoError(t, err)
	assert.Equal(t, OrderDesc, o)

	_, err = ParseOrder("")
	assert.ErrorIs(t, err, ErrInvalidOrder)
}

func TestSortState_Toggle(t *testing.T) {
	s := DefaultSortState()
	assert.Equal(t, IndicatorAsc, s.Indicator(ColumnName))
	assert.Equal(t, "", s.Indicator(ColumnLastUpdated))

	s = s.Toggle(ColumnName)
	assert.Equal(t, SortState{Column: ColumnName, Order: OrderDesc}, s)
	assert.Equal(t, IndicatorDesc, s.Indicator(ColumnName))

	s = s.Toggle(ColumnLastUpdated)
	assert.Equal(t, SortState{Column: ColumnLastUpdated, Order: OrderAsc}, s)
	assert.Equal(t, "", s.Indicator(ColumnName))

	s = s.Toggle(ColumnLastUpdated).Toggle(ColumnLastUpdated)
	assert.Equal(t, OrderAsc, s.Order)

	sorted, err := SortState{Column: ColumnLastUpdated, Order: OrderDesc}.Apply(fixtures())
	require.NoError(t, err)
	assert.Equal(t, []string{"Bravo", "alpha", "Echo"}, names(sorted))
}
