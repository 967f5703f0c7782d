package display

import (
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/0xmhha/cost-monitor/pkg/chart"
	"github.com/0xmhha/cost-monitor/pkg/issue"
	"github.com/0xmhha/cost-monitor/pkg/orchestrator"
	"github.com/0xmhha/cost-monitor/pkg/project"
)

// simpleFormatter formats output as simple text.
type simpleFormatter struct {
	config Config
}

// FormatChart implements Formatter.FormatChart.
func (f *simpleFormatter) FormatChart(w io.Writer, c chart.Chart) error {
	groups := visibleGroups(c)
	for _, d := range c.Data {
		parts := make([]string, 0, len(groups))
		for _, g := range groups {
			if v := d.Values[g.ID]; v != 0 {
				parts = append(parts, fmt.Sprintf("%s=%s", g.ID, FormatCost(v)))
			}
		}
		line := fmt.Sprintf("%s: %s", d.Key, FormatCost(d.Total))
		if len(parts) > 0 {
			line += " (" + strings.Join(parts, ", ") + ")"
		}
		if _, err := fmt.Fprintln(w, line); err != nil {
			return err
		}
	}
	return nil
}

// FormatState implements Formatter.FormatState.
func (f *simpleFormatter) FormatState(w io.Writer, s orchestrator.State, selected []string) error {
	if msg := stateMessage(s); msg != "" {
		_, err := fmt.Fprintln(w, msg)
		return err
	}
	return f.FormatChart(w, chart.Build(s.Result, selected))
}

// FormatIssues implements Formatter.FormatIssues.
func (f *simpleFormatter) FormatIssues(w io.Writer, issues []issue.Issue) error {
	t := issue.Sum(issues)
	if _, err := fmt.Fprintf(w, "Issues: %d | Input: %s | Output: %s | Cache: %s | Cost: %s | Time: %s\n",
		len(issues),
		FormatTokens(t.InputTokens),
		FormatTokens(t.OutputTokens),
		FormatTokens(t.CacheTokens),
		FormatCost(t.Cost),
		FormatHMS(t.Time)); err != nil {
		return err
	}

	for _, is := range issues {
		if _, err := fmt.Fprintf(w, "%s %s [%s] %s tokens, %s\n",
			is.Timestamp.Local().Format(time.DateTime),
			is.Title,
			is.Status,
			FormatTokens(is.InputTokens+is.OutputTokens+is.CacheTokens),
			FormatCost(is.Cost)); err != nil {
			return err
		}
	}
	return nil
}

// FormatProjects implements Formatter.FormatProjects.
func (f *simpleFormatter) FormatProjects(w io.Writer, projects []project.Project) error {
	for _, p := range projects {
		if _, err := fmt.Fprintf(w, "%s: %d issues\n", p.Name, p.IssueCount); err != nil {
			return err
		}
	}
	return nil
}
