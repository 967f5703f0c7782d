// Package display renders aggregation results, issues and projects for
// the terminal.
//
// Four formats are supported: aligned tables, JSON, one-line simple text
// and horizontal stacked ASCII bar charts.
package display

import (
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/0xmhha/cost-monitor/pkg/chart"
	"github.com/0xmhha/cost-monitor/pkg/issue"
	"github.com/0xmhha/cost-monitor/pkg/orchestrator"
	"github.com/0xmhha/cost-monitor/pkg/project"
)

// ErrInvalidFormat is returned by ParseFormat for unknown names.
var ErrInvalidFormat = errors.New("invalid format: must be table, json, simple, or chart")

// Format represents an output format.
type Format string

const (
	// FormatTable displays data in aligned columns.
	FormatTable Format = "table"

	// FormatJSON displays data as JSON.
	FormatJSON Format = "json"

	// FormatSimple displays one line per item.
	FormatSimple Format = "simple"

	// FormatChart displays costs as stacked horizontal bars.
	FormatChart Format = "chart"
)

// ParseFormat converts a format name. Empty selects FormatTable.
func ParseFormat(s string) (Format, error) {
	switch f := Format(strings.ToLower(strings.TrimSpace(s))); f {
	case "":
		return FormatTable, nil
	case FormatTable, FormatJSON, FormatSimple, FormatChart:
		return f, nil
	default:
		return "", fmt.Errorf("%w: %q", ErrInvalidFormat, s)
	}
}

// Formatter renders cost data.
type Formatter interface {
	// FormatChart renders a chart model. Only visible groups get their own
	// series; bucket totals always cover every group.
	FormatChart(w io.Writer, c chart.Chart) error

	// FormatState renders an orchestrator state: a loading or error
	// message, the empty message, or the chart for selected groups.
	FormatState(w io.Writer, s orchestrator.State, selected []string) error

	// FormatIssues renders issues with a totals row.
	FormatIssues(w io.Writer, issues []issue.Issue) error

	// FormatProjects renders a project list.
	FormatProjects(w io.Writer, projects []project.Project) error
}

// Config contains formatter configuration.
type Config struct {
	// Format specifies the output format.
	// Default: FormatTable.
	Format Format

	// Width is the chart width in columns. Zero uses the terminal width.
	Width int

	// Compact drops headers and spacing.
	Compact bool
}

// User-visible state messages.
const (
	MessageLoading = "Loading cost data..."
	MessageEmpty   = "No cost data yet"
)
