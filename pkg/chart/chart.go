// Package chart turns an aggregation result into the stacked cost-over-time
// chart model: labelled bucket data, a ranked legend with stable colors,
// and the persisted legend selection.
package chart

import (
	"sort"
	"time"

	"github.com/0xmhha/cost-monitor/pkg/bucket"
)

// DefaultVisible is how many top-ranked groups are shown when no usable
// selection is stored.
const DefaultVisible = 5

// Palette holds the series colors, assigned by rank and cycled.
var Palette = []string{
	"#8884d8",
	"#82ca9d",
	"#ffc658",
	"#ff8042",
	"#8dd1e1",
	"#a4de6c",
	"#d0ed57",
	"#d885d8",
}

// Datum is one chart column: a bucket with a value for every group.
type Datum struct {
	Key    string             `json:"bucketKey"`
	Start  time.Time          `json:"start"`
	End    time.Time          `json:"end"`
	Total  float64            `json:"total"`
	Values map[string]float64 `json:"values"`
}

// Group is one legend entry.
type Group struct {
	ID      string  `json:"id"`
	Color   string  `json:"color"`
	Total   float64 `json:"total"`
	Visible bool    `json:"visible"`
}

// Chart is the complete render model.
type Chart struct {
	Unit   string  `json:"unit"`
	Data   []Datum `json:"data"`
	Groups []Group `json:"groups"`
}

// IsEmpty reports whether there is nothing to plot.
func (c Chart) IsEmpty() bool {
	return len(c.Data) == 0
}

// RankGroups returns group ids ordered by descending total, ties by id.
func RankGroups(totals map[string]float64) []string {
	ids := make([]string, 0, len(totals))
	for id := range totals {
		ids = append(ids, id)
	}

	sort.Slice(ids, func(i, j int) bool {
		a, b := totals[ids[i]], totals[ids[j]]
		if a != b {
			return a > b
		}
		return ids[i] < ids[j]
	})
	return ids
}

// Colors maps each ranked id to its palette color.
func Colors(ranked []string) map[string]string {
	colors := make(map[string]string, len(ranked))
	for i, id := range ranked {
		colors[id] = Palette[i%len(Palette)]
	}
	return colors
}

// InitialSelection keeps the stored ids that still exist, in stored order.
// When none survive it falls back to the top DefaultVisible ranked ids.
func InitialSelection(ranked, stored []string) []string {
	known := make(map[string]struct{}, len(ranked))
	for _, id := range ranked {
		known[id] = struct{}{}
	}

	kept := make([]string, 0, len(stored))
	seen := make(map[string]struct{}, len(stored))
	for _, id := range stored {
		if _, ok := known[id]; !ok {
			continue
		}
		if _, dup := seen[id]; dup {
			continue
		}
		seen[id] = struct{}{}
		kept = append(kept, id)
	}

	if len(kept) > 0 {
		return kept
	}
	return topN(ranked, DefaultVisible)
}

func topN(ranked []string, n int) []string {
	if len(ranked) < n {
		n = len(ranked)
	}
	return append([]string{}, ranked[:n]...)
}

// Toggle removes id from selection when present and appends it otherwise.
func Toggle(selection []string, id string) []string {
	out := make([]string, 0, len(selection)+1)
	found := false
	for _, s := range selection {
		if s == id {
			found = true
			continue
		}
		out = append(out, s)
	}
	if !found {
		out = append(out, id)
	}
	return out
}

// Series builds one datum per bucket with a zero-filled value for every
// group present in the result's totals.
func Series(result bucket.Result) []Datum {
	data := make([]Datum, 0, len(result.Buckets))
	for _, b := range result.Buckets {
		values := make(map[string]float64, len(result.GroupTotals))
		for id := range result.GroupTotals {
			values[id] = b.PerGroup[id]
		}
		data = append(data, Datum{
			Key:    BucketLabel(b),
			Start:  b.Start,
			End:    b.End,
			Total:  b.TotalCost,
			Values: values,
		})
	}
	return data
}

// Build assembles the chart for result with the given ids visible.
func Build(result bucket.Result, selected []string) Chart {
	ranked := RankGroups(result.GroupTotals)
	colors := Colors(ranked)

	visible := make(map[string]struct{}, len(selected))
	for _, id := range selected {
		visible[id] = struct{}{}
	}

	groups := make([]Group, 0, len(ranked))
	for _, id := range ranked {
		_, on := visible[id]
		groups = append(groups, Group{
			ID:      id,
			Color:   colors[id],
			Total:   result.GroupTotals[id],
			Visible: on,
		})
	}

	unit := ""
	if !result.IsEmpty() {
		unit = result.Unit.String()
	}

	return Chart{
		Unit:   unit,
		Data:   Series(result),
		Groups: groups,
	}
}
