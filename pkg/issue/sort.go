package issue

import (
	"sort"
	"time"
)

// SortByTimestampDesc returns a copy of issues ordered newest first.
// Issues with equal timestamps keep their relative order.
func SortByTimestampDesc(issues []Issue) []Issue {
	sorted := make([]Issue, len(issues))
	copy(sorted, issues)

	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].Timestamp.After(sorted[j].Timestamp)
	})

	return sorted
}

// Sum returns the column totals for issues.
func Sum(issues []Issue) Totals {
	var t Totals
	for _, is := range issues {
		t.InputTokens += is.InputTokens
		t.OutputTokens += is.OutputTokens
		t.CacheTokens += is.CacheTokens
		t.Cost += is.Cost
		t.Time += is.Time
	}
	return t
}

// Latest returns the newest timestamp among issues, or the zero time.
func Latest(issues []Issue) time.Time {
	var latest time.Time
	for _, is := range issues {
		if is.Timestamp.After(latest) {
			latest = is.Timestamp
		}
	}
	return latest
}
