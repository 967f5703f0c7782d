package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/0xmhha/cost-monitor/pkg/display"
	"github.com/0xmhha/cost-monitor/pkg/monitor"
	"github.com/0xmhha/cost-monitor/pkg/preference"
	"github.com/0xmhha/cost-monitor/pkg/store"
	"github.com/0xmhha/cost-monitor/pkg/watcher"
)

type watchCommand struct {
	projects []string
	refresh  time.Duration
	history  bool
	out      outputFlags
}

func newWatchCmd(opts *globalOptions) *cobra.Command {
	c := &watchCommand{}

	cmd := &cobra.Command{
		Use:   "watch",
		Short: "Live cost buckets that follow the data directory",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			a, err := newApp(cmd, opts)
			if err != nil {
				return err
			}
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()
			return c.run(ctx, a)
		},
	}

	cmd.Flags().StringSliceVarP(&c.projects, "projects", "p", nil, "Project ids to include (default: all, following new files)")
	cmd.Flags().DurationVar(&c.refresh, "refresh", 0, "Periodic reload interval (default from config)")
	cmd.Flags().BoolVar(&c.history, "history", false, "Append updates instead of redrawing the screen")
	c.out.register(cmd, "chart")

	return cmd
}

func (c *watchCommand) run(ctx context.Context, a *app) error {
	formatter, err := newFormatter(c.out.format, c.out.compact, c.out.width)
	if err != nil {
		return err
	}
	if c.refresh <= 0 {
		c.refresh = a.cfg.Watch.RefreshInterval
	}

	s, err := a.openStore()
	if err != nil {
		return err
	}

	w, err := watcher.New(watcher.Config{
		DebounceInterval: a.cfg.Watch.Debounce,
		Extensions:       []string{store.FileExt},
	}, a.log.With("component", "watcher"))
	if err != nil {
		return fmt.Errorf("failed to initialize watcher: %w", err)
	}
	defer func() {
		if err := w.Close(); err != nil {
			a.log.Error("failed to close watcher", "error", err)
		}
	}()

	orch := a.orchestrator(s)
	defer orch.Close()

	mon, err := monitor.New(monitor.Config{
		ProjectIDs:      c.projects,
		RefreshInterval: c.refresh,
	}, w, s, orch, a.log.With("component", "monitor"))
	if err != nil {
		return fmt.Errorf("failed to create monitor: %w", err)
	}
	defer mon.Close()

	prefs := a.openPreferences()
	defer a.closePreferences(prefs)

	if err := mon.Start(ctx); err != nil {
		return err
	}

	redraw := !c.history && isTerminal(a.out)
	if redraw {
		fmt.Fprint(a.out, "\033[2J\033[H")
	}
	c.writeHeader(a.out, s.Dir())

	for {
		select {
		case <-ctx.Done():
			fmt.Fprint(a.out, "\n\n")
			fmt.Fprintln(a.out, "Stopping monitor...")
			return nil

		case update, ok := <-mon.Updates():
			if !ok {
				return nil
			}
			if err := c.render(a, formatter, prefs, update, redraw); err != nil {
				return err
			}
		}
	}
}

func (c *watchCommand) writeHeader(w io.Writer, dir string) {
	fmt.Fprintln(w, "Live Cost Monitor - Press Ctrl+C to stop")
	if len(c.projects) > 0 {
		fmt.Fprintf(w, "Projects: %s | ", strings.Join(c.projects, ", "))
	} else {
		fmt.Fprintf(w, "All projects in %s | ", dir)
	}
	fmt.Fprintf(w, "Refresh: %s\n", c.refresh)
	fmt.Fprintln(w, strings.Repeat("─", 80))
	fmt.Fprintln(w)
}

func (c *watchCommand) render(a *app, f display.Formatter, prefs preference.Store, u monitor.Update, redraw bool) error {
	if redraw {
		// Redraw below the header.
		fmt.Fprint(a.out, "\033[5;1H\033[J")
	}

	fmt.Fprintf(a.out, "%s (%s)", u.Timestamp.Format("15:04:05"), u.Trigger)
	if u.Delta != 0 {
		fmt.Fprintf(a.out, " %+.2f", u.Delta)
	}
	fmt.Fprintln(a.out)

	selected := legendSelection(prefs, a.log, u.State.Result.GroupTotals)
	return f.FormatState(a.out, u.State, selected)
}

// isTerminal reports whether w is an interactive terminal.
func isTerminal(w io.Writer) bool {
	f, ok := w.(*os.File)
	return ok && term.IsTerminal(int(f.Fd()))
}
