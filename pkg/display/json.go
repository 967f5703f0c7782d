package display

import (
	"io"

	"github.com/bytedance/sonic"

	"github.com/0xmhha/cost-monitor/pkg/chart"
	"github.com/0xmhha/cost-monitor/pkg/issue"
	"github.com/0xmhha/cost-monitor/pkg/orchestrator"
	"github.com/0xmhha/cost-monitor/pkg/project"
)

// jsonFormatter formats output as JSON.
type jsonFormatter struct {
	config Config
}

// statePayload is the JSON shape of a rendered state.
type statePayload struct {
	State     string       `json:"state"`
	IsLoading bool         `json:"isLoading"`
	Error     string       `json:"error,omitempty"`
	Dropped   int          `json:"dropped"`
	Chart     *chart.Chart `json:"chart,omitempty"`
}

type issuesPayload struct {
	Totals issue.Totals  `json:"totals"`
	Issues []issue.Issue `json:"issues"`
}

func (f *jsonFormatter) encode(w io.Writer, v interface{}) error {
	enc := sonic.ConfigStd.NewEncoder(w)
	if !f.config.Compact {
		enc.SetIndent("", "  ")
	}
	return enc.Encode(v)
}

// FormatChart implements Formatter.FormatChart.
func (f *jsonFormatter) FormatChart(w io.Writer, c chart.Chart) error {
	return f.encode(w, c)
}

// FormatState implements Formatter.FormatState.
func (f *jsonFormatter) FormatState(w io.Writer, s orchestrator.State, selected []string) error {
	p := statePayload{
		State:     s.Kind.String(),
		IsLoading: s.IsLoading(),
		Error:     s.Err,
	}
	if s.Kind == orchestrator.KindReady || s.Kind == orchestrator.KindEmpty {
		c := chart.Build(s.Result, selected)
		p.Chart = &c
		p.Dropped = s.Result.Dropped
	}
	return f.encode(w, p)
}

// FormatIssues implements Formatter.FormatIssues.
func (f *jsonFormatter) FormatIssues(w io.Writer, issues []issue.Issue) error {
	if issues == nil {
		issues = []issue.Issue{}
	}
	return f.encode(w, issuesPayload{Totals: issue.Sum(issues), Issues: issues})
}

// FormatProjects implements Formatter.FormatProjects.
func (f *jsonFormatter) FormatProjects(w io.Writer, projects []project.Project) error {
	if projects == nil {
		projects = []project.Project{}
	}
	return f.encode(w, projects)
}
