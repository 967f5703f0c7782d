package project

import (
	"sort"
	"strings"
)

// Column is a sortable project table column.
type Column string

// Sortable columns.
const (
	ColumnName        Column = "name"
	ColumnLastUpdated Column = "lastUpdated"
)

// Order is a sort direction.
type Order string

// Sort directions.
const (
	OrderAsc  Order = "asc"
	OrderDesc Order = "desc"
)

// Sort indicators shown next to the active column header.
const (
	IndicatorAsc  = "↑"
	IndicatorDesc = "↓"
)

// ParseColumn converts a column name into a Column.
func ParseColumn(s string) (Column, error) {
	switch Column(s) {
	case ColumnName, ColumnLastUpdated:
		return Column(s), nil
	default:
		return "", ErrInvalidColumn
	}
}

// ParseOrder converts an order name into an Order.
func ParseOrder(s string) (Order, error) {
	switch Order(s) {
	case OrderAsc, OrderDesc:
		return Order(s), nil
	default:
		return "", ErrInvalidOrder
	}
}

// Sort returns a copy of projects ordered by column. Ties keep input order.
func Sort(projects []Project, column Column, order Order) ([]Project, error) {
	var compare func(a, b Project) int
	switch column {
	case ColumnName:
		compare = func(a, b Project) int {
			return compareNames(a.Name, b.Name)
		}
	case ColumnLastUpdated:
		compare = func(a, b Project) int {
			return a.LastUpdated.Compare(b.LastUpdated)
		}
	default:
		return nil, ErrInvalidColumn
	}

	factor := 1
	switch order {
	case OrderAsc:
	case OrderDesc:
		factor = -1
	default:
		return nil, ErrInvalidOrder
	}

	sorted := make([]Project, len(projects))
	copy(sorted, projects)
	sort.SliceStable(sorted, func(i, j int) bool {
		return compare(sorted[i], sorted[j])*factor < 0
	})

	return sorted, nil
}

// compareNames orders case-insensitively, then by exact bytes.
func compareNames(a, b string) int {
	if c := strings.Compare(strings.ToLower(a), strings.ToLower(b)); c != 0 {
		return c
	}
	return strings.Compare(a, b)
}

// SortState tracks the active column and direction of a project table.
type SortState struct {
	Column Column `json:"column"`
	Order  Order  `json:"order"`
}

// DefaultSortState sorts by name ascending.
func DefaultSortState() SortState {
	return SortState{Column: ColumnName, Order: OrderAsc}
}

// Toggle returns the state after clicking column's header: the active
// column flips direction, any other column becomes active ascending.
func (s SortState) Toggle(column Column) SortState {
	if s.Column == column {
		if s.Order == OrderAsc {
			return SortState{Column: column, Order: OrderDesc}
		}
		return SortState{Column: column, Order: OrderAsc}
	}
	return SortState{Column: column, Order: OrderAsc}
}

// Indicator returns the arrow for column, or "" when it is not active.
func (s SortState) Indicator(column Column) string {
	if s.Column != column {
		return ""
	}
	if s.Order == OrderDesc {
		return IndicatorDesc
	}
	return IndicatorAsc
}

// Apply sorts projects by the state's column and order.
func (s SortState) Apply(projects []Project) ([]Project, error) {
	return Sort(projects, s.Column, s.Order)
}
