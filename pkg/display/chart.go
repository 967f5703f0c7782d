package display

import (
	"fmt"
	"io"
	"math"
	"strings"

	"github.com/mattn/go-runewidth"

	"github.com/0xmhha/cost-monitor/pkg/chart"
	"github.com/0xmhha/cost-monitor/pkg/orchestrator"
)

// glyphs fill bar segments by legend rank, cycling.
var glyphs = []rune{'█', '▓', '▒', '░', '#', '*', '+', '='}

// chartFormatter draws costs as stacked horizontal bars. Issues and
// projects fall back to tables.
type chartFormatter struct {
	tableFormatter
}

func (f *chartFormatter) width() int {
	if f.config.Width > 0 {
		return f.config.Width
	}
	return terminalWidth()
}

// FormatChart implements Formatter.FormatChart.
func (f *chartFormatter) FormatChart(w io.Writer, c chart.Chart) error {
	if c.IsEmpty() {
		_, err := fmt.Fprintln(w, MessageEmpty)
		return err
	}

	groups := visibleGroups(c)
	glyphOf := make(map[string]rune, len(c.Groups))
	for i, g := range c.Groups {
		glyphOf[g.ID] = glyphs[i%len(glyphs)]
	}

	labelWidth := 0
	maxStack := 0.0
	stacks := make([]float64, len(c.Data))
	values := make([]string, len(c.Data))
	valueWidth := 0
	for i, d := range c.Data {
		labelWidth = max(labelWidth, runewidth.StringWidth(d.Key))
		for _, g := range groups {
			stacks[i] += d.Values[g.ID]
		}
		maxStack = math.Max(maxStack, stacks[i])
		values[i] = FormatCost(stacks[i])
		valueWidth = max(valueWidth, len(values[i]))
	}

	barWidth := f.width() - labelWidth - valueWidth - 4
	if barWidth < 10 {
		barWidth = 10
	}

	for i, d := range c.Data {
		bar := stackedBar(d, groups, glyphOf, maxStack, barWidth)
		line := fmt.Sprintf("%s │%s %s",
			pad(d.Key, labelWidth, false),
			pad(bar, barWidth, false),
			pad(values[i], valueWidth, true))
		if _, err := fmt.Fprintln(w, line); err != nil {
			return err
		}
	}

	if f.config.Compact {
		return nil
	}

	if _, err := fmt.Fprintln(w); err != nil {
		return err
	}
	for _, g := range c.Groups {
		mark := ' '
		if g.Visible {
			mark = glyphOf[g.ID]
		}
		if _, err := fmt.Fprintf(w, "  %c %s %s\n", mark, g.ID, FormatCost(g.Total)); err != nil {
			return err
		}
	}
	return nil
}

// stackedBar renders one bar. Segment ends are rounded from cumulative
// sums so the bar length tracks the stack total.
func stackedBar(d chart.Datum, groups []chart.Group, glyphOf map[string]rune, maxStack float64, width int) string {
	if maxStack <= 0 {
		return ""
	}

	var b strings.Builder
	cum := 0.0
	drawn := 0
	for _, g := range groups {
		cum += d.Values[g.ID]
		end := int(math.Round(cum / maxStack * float64(width)))
		if end > drawn {
			b.WriteString(strings.Repeat(string(glyphOf[g.ID]), end-drawn))
			drawn = end
		}
	}
	return b.String()
}

// FormatState implements Formatter.FormatState.
func (f *chartFormatter) FormatState(w io.Writer, s orchestrator.State, selected []string) error {
	if msg := stateMessage(s); msg != "" {
		_, err := fmt.Fprintln(w, msg)
		return err
	}
	return f.FormatChart(w, chart.Build(s.Result, selected))
}
