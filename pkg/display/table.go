package display

import (
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/mattn/go-runewidth"

	"github.com/0xmhha/cost-monitor/pkg/chart"
	"github.com/0xmhha/cost-monitor/pkg/issue"
	"github.com/0xmhha/cost-monitor/pkg/orchestrator"
	"github.com/0xmhha/cost-monitor/pkg/project"
)

const maxCellWidth = 40

// tableFormatter formats output as tables.
type tableFormatter struct {
	config Config
}

// FormatChart implements Formatter.FormatChart.
func (f *tableFormatter) FormatChart(w io.Writer, c chart.Chart) error {
	if err := writeHeader(w, fmt.Sprintf("Cost per %s", c.Unit), f.config.Compact); err != nil {
		return err
	}

	groups := visibleGroups(c)
	header := make([]string, 0, len(groups)+2)
	header = append(header, "Bucket")
	for _, g := range groups {
		header = append(header, g.ID)
	}
	header = append(header, "Total")

	rows := make([][]string, 0, len(c.Data)+1)
	for _, d := range c.Data {
		row := make([]string, 0, len(header))
		row = append(row, d.Key)
		for _, g := range groups {
			row = append(row, FormatCost(d.Values[g.ID]))
		}
		row = append(row, FormatCost(d.Total))
		rows = append(rows, row)
	}

	var grand float64
	totals := make([]string, 0, len(header))
	totals = append(totals, "Total")
	for _, g := range groups {
		totals = append(totals, FormatCost(g.Total))
	}
	for _, g := range c.Groups {
		grand += g.Total
	}
	totals = append(totals, FormatCost(grand))
	rows = append(rows, totals)

	right := make([]bool, len(header))
	for i := 1; i < len(right); i++ {
		right[i] = true
	}
	return f.writeTable(w, header, rows, right, len(rows)-1)
}

// FormatState implements Formatter.FormatState.
func (f *tableFormatter) FormatState(w io.Writer, s orchestrator.State, selected []string) error {
	if msg := stateMessage(s); msg != "" {
		_, err := fmt.Fprintln(w, msg)
		return err
	}
	return f.FormatChart(w, chart.Build(s.Result, selected))
}

// FormatIssues implements Formatter.FormatIssues.
func (f *tableFormatter) FormatIssues(w io.Writer, issues []issue.Issue) error {
	if err := writeHeader(w, "Issues", f.config.Compact); err != nil {
		return err
	}

	header := []string{"Issue", "Description", "Timestamp", "Input Tokens", "Output Tokens", "Cache Tokens", "Cost", "Time", "Status"}
	right := []bool{false, false, false, true, true, true, true, true, false}

	t := issue.Sum(issues)
	rows := make([][]string, 0, len(issues)+1)
	rows = append(rows, []string{
		"Total", "", "",
		FormatTokens(t.InputTokens),
		FormatTokens(t.OutputTokens),
		FormatTokens(t.CacheTokens),
		FormatCost(t.Cost),
		FormatHMS(t.Time),
		"",
	})
	for _, is := range issues {
		rows = append(rows, []string{
			is.Title,
			truncate(is.Description, maxCellWidth),
			is.Timestamp.Local().Format(time.DateTime),
			FormatTokens(is.InputTokens),
			FormatTokens(is.OutputTokens),
			FormatTokens(is.CacheTokens),
			FormatCost(is.Cost),
			FormatHMS(is.Time),
			string(is.Status),
		})
	}

	// The totals row sits between the header and the data rows.
	return f.writeTable(w, header, rows, right, 1)
}

// FormatProjects implements Formatter.FormatProjects.
func (f *tableFormatter) FormatProjects(w io.Writer, projects []project.Project) error {
	if err := writeHeader(w, "Projects", f.config.Compact); err != nil {
		return err
	}

	header := []string{"Name", "Issues", "Last Updated", "IDEs"}
	right := []bool{false, true, false, false}

	rows := make([][]string, 0, len(projects))
	for _, p := range projects {
		updated := "-"
		if !p.LastUpdated.IsZero() {
			updated = p.LastUpdated.Local().Format(time.DateTime)
		}
		rows = append(rows, []string{
			truncate(p.Name, maxCellWidth),
			FormatTokens(float64(p.IssueCount)),
			updated,
			strings.Join(p.IDENames, ", "),
		})
	}

	return f.writeTable(w, header, rows, right, -1)
}

// writeTable writes header and rows with display-width aware alignment.
// A separator follows the header and, when splitAt > 0, precedes rows[splitAt].
func (f *tableFormatter) writeTable(w io.Writer, header []string, rows [][]string, right []bool, splitAt int) error {
	if len(rows) == 0 {
		_, err := fmt.Fprintln(w, "No data")
		return err
	}

	widths := make([]int, len(header))
	for i, h := range header {
		widths[i] = runewidth.StringWidth(h)
	}
	for _, row := range rows {
		for i, cell := range row {
			if i < len(widths) {
				widths[i] = max(widths[i], runewidth.StringWidth(cell))
			}
		}
	}

	separator := make([]string, len(header))
	for i, width := range widths {
		separator[i] = strings.Repeat("-", width)
	}

	if err := f.writeRow(w, header, widths, right); err != nil {
		return err
	}
	if !f.config.Compact {
		if err := f.writeRow(w, separator, widths, right); err != nil {
			return err
		}
	}

	for i, row := range rows {
		if !f.config.Compact && i > 0 && i == splitAt {
			if err := f.writeRow(w, separator, widths, right); err != nil {
				return err
			}
		}
		if err := f.writeRow(w, row, widths, right); err != nil {
			return err
		}
	}

	if !f.config.Compact {
		_, err := fmt.Fprintln(w)
		return err
	}
	return nil
}

// writeRow writes a single table row without trailing spaces.
func (f *tableFormatter) writeRow(w io.Writer, cells []string, widths []int, right []bool) error {
	gap := "  "
	if f.config.Compact {
		gap = " "
	}

	parts := make([]string, len(cells))
	for i, cell := range cells {
		parts[i] = pad(cell, widths[i], i < len(right) && right[i])
	}

	_, err := fmt.Fprintln(w, strings.TrimRight(strings.Join(parts, gap), " "))
	return err
}
