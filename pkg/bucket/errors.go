package bucket

import "errors"

// Common errors returned by the bucket package.
var (
	// ErrNoRecords is returned when range detection receives no records.
	ErrNoRecords = errors.New("no records to aggregate")

	// ErrUnknownUnit is returned when a unit name or value is not recognized.
	ErrUnknownUnit = errors.New("unknown bucket unit: must be hour, day, week, or month")
)
