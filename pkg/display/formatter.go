package display

import (
	"fmt"
	"io"
	"math"
	"os"
	"strconv"
	"strings"

	"github.com/mattn/go-runewidth"
	"golang.org/x/term"

	"github.com/0xmhha/cost-monitor/pkg/chart"
	"github.com/0xmhha/cost-monitor/pkg/orchestrator"
)

const (
	defaultWidth = 80
	minWidth     = 40
)

// New creates a formatter for cfg.Format.
func New(cfg Config) Formatter {
	if cfg.Format == "" {
		cfg.Format = FormatTable
	}

	switch cfg.Format {
	case FormatJSON:
		return &jsonFormatter{config: cfg}
	case FormatSimple:
		return &simpleFormatter{config: cfg}
	case FormatChart:
		return &chartFormatter{tableFormatter{config: cfg}}
	default:
		return &tableFormatter{config: cfg}
	}
}

// FormatCost formats a cost with two decimals and thousand separators.
func FormatCost(v float64) string {
	s := strconv.FormatFloat(v, 'f', 2, 64)
	intPart, frac, _ := strings.Cut(s, ".")
	return groupThousands(intPart) + "." + frac
}

// FormatTokens formats a token count rounded to an integer with thousand
// separators.
func FormatTokens(n float64) string {
	return groupThousands(strconv.FormatInt(int64(math.Round(n)), 10))
}

// FormatHMS formats seconds as HH:MM:SS. Negative input is treated as zero
// and fractions are truncated; hours are not capped at 24.
func FormatHMS(seconds float64) string {
	total := int64(math.Max(0, math.Floor(seconds)))
	h := total / 3600
	m := (total % 3600) / 60
	s := total % 60
	return fmt.Sprintf("%02d:%02d:%02d", h, m, s)
}

// groupThousands inserts commas into a decimal integer string.
func groupThousands(s string) string {
	sign := ""
	if strings.HasPrefix(s, "-") {
		sign, s = "-", s[1:]
	}
	if len(s) <= 3 {
		return sign + s
	}

	var b strings.Builder
	b.WriteString(sign)
	lead := len(s) % 3
	if lead > 0 {
		b.WriteString(s[:lead])
	}
	for i := lead; i < len(s); i += 3 {
		if b.Len() > len(sign) {
			b.WriteByte(',')
		}
		b.WriteString(s[i : i+3])
	}
	return b.String()
}

// stateMessage returns the text for non-ready states, or "" when the
// chart should be drawn.
func stateMessage(s orchestrator.State) string {
	switch s.Kind {
	case orchestrator.KindLoading:
		return MessageLoading
	case orchestrator.KindError:
		return "Error: " + s.Err
	case orchestrator.KindIdle, orchestrator.KindEmpty:
		return MessageEmpty
	}
	if s.Result.IsEmpty() {
		return MessageEmpty
	}
	return ""
}

// visibleGroups returns the groups with Visible set, in rank order.
func visibleGroups(c chart.Chart) []chart.Group {
	out := make([]chart.Group, 0, len(c.Groups))
	for _, g := range c.Groups {
		if g.Visible {
			out = append(out, g)
		}
	}
	return out
}

// terminalWidth returns the stdout terminal width, or defaultWidth.
func terminalWidth() int {
	fd := int(os.Stdout.Fd())
	if !term.IsTerminal(fd) {
		return defaultWidth
	}
	w, _, err := term.GetSize(fd)
	if err != nil || w < minWidth {
		return defaultWidth
	}
	return w
}

// pad pads s with spaces to display width n.
func pad(s string, n int, right bool) string {
	w := runewidth.StringWidth(s)
	if w >= n {
		return s
	}
	fill := strings.Repeat(" ", n-w)
	if right {
		return fill + s
	}
	return s + fill
}

// truncate shortens s to display width n with an ellipsis.
func truncate(s string, n int) string {
	if n <= 0 || runewidth.StringWidth(s) <= n {
		return s
	}
	return runewidth.Truncate(s, n, "…")
}

// writeHeader writes a section header.
func writeHeader(w io.Writer, title string, compact bool) error {
	if compact {
		_, err := fmt.Fprintf(w, "%s\n", title)
		return err
	}

	underline := strings.Repeat("=", runewidth.StringWidth(title))
	_, err := fmt.Fprintf(w, "\n%s\n%s\n\n", title, underline)
	return err
}
