package main

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/0xmhha/cost-monitor/pkg/chart"
	"github.com/0xmhha/cost-monitor/pkg/orchestrator"
	"github.com/0xmhha/cost-monitor/pkg/project"
)

// outputFlags are the rendering flags shared by the read commands.
type outputFlags struct {
	format  string
	compact bool
	width   int
}

func (o *outputFlags) register(cmd *cobra.Command, def string) {
	cmd.Flags().StringVarP(&o.format, "format", "f", def, "Output format (table, json, simple, chart)")
	cmd.Flags().BoolVar(&o.compact, "compact", false, "Compact output")
	cmd.Flags().IntVar(&o.width, "width", 0, "Chart width in columns (default: terminal width)")
}

func newBucketsCmd(opts *globalOptions) *cobra.Command {
	var (
		projects []string
		remote   string
		out      outputFlags
	)

	cmd := &cobra.Command{
		Use:   "buckets",
		Short: "Aggregate issue costs into time buckets per project",
		Long: `Aggregate issue costs into hour, day, week or month buckets.

The unit is chosen so that the data spans between 4 and 12 buckets.
Without --projects every known project is included.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			a, err := newApp(cmd, opts)
			if err != nil {
				return err
			}
			formatter, err := newFormatter(out.format, out.compact, out.width)
			if err != nil {
				return err
			}
			ctx := cmd.Context()

			if remote == "" {
				remote = a.cfg.Fetch.BaseURL
			}

			var (
				fetcher orchestrator.Fetcher
				ids     []string
			)
			if remote != "" {
				httpFetcher, cached, err := a.remote(remote)
				if err != nil {
					return err
				}
				defer cached.Close()

				ids, err = remoteProjectIDs(ctx, httpFetcher, projects)
				if err != nil {
					return err
				}
				fetcher = cached
			} else {
				s, err := a.openStore()
				if err != nil {
					return err
				}
				ids = storeProjectIDs(s, projects)
				fetcher = s
			}

			orch := a.orchestrator(fetcher)
			defer orch.Close()

			if _, err := orch.Request(ids); err != nil {
				return err
			}
			state, err := orch.Wait(ctx)
			if err != nil {
				return err
			}
			if state.Kind == orchestrator.KindError {
				return errors.New(state.Err)
			}

			prefs := a.openPreferences()
			defer a.closePreferences(prefs)

			selected := legendSelection(prefs, a.log, state.Result.GroupTotals)
			if err := formatter.FormatState(a.out, state, selected); err != nil {
				return err
			}
			if state.Result.Dropped > 0 {
				a.log.Warn("records outside the bucket range were dropped", "count", state.Result.Dropped)
			}
			return nil
		},
	}

	cmd.Flags().StringSliceVarP(&projects, "projects", "p", nil, "Project ids to include (comma separated)")
	cmd.Flags().StringVar(&remote, "remote", "", "Base URL of a remote cost-monitor API")
	out.register(cmd, "table")

	return cmd
}

func newProjectsCmd(opts *globalOptions) *cobra.Command {
	var (
		sortBy string
		order  string
		out    outputFlags
	)

	cmd := &cobra.Command{
		Use:   "projects",
		Short: "List projects from the data directory and IDE caches",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			a, err := newApp(cmd, opts)
			if err != nil {
				return err
			}
			formatter, err := newFormatter(out.format, out.compact, out.width)
			if err != nil {
				return err
			}

			state := project.DefaultSortState()
			if sortBy != "" {
				if state.Column, err = project.ParseColumn(sortBy); err != nil {
					return err
				}
			}
			if order != "" {
				if state.Order, err = project.ParseOrder(order); err != nil {
					return err
				}
			}

			s, err := a.openStore()
			if err != nil {
				return err
			}

			sorted, err := state.Apply(a.mergedProjects(s))
			if err != nil {
				return err
			}
			return formatter.FormatProjects(a.out, sorted)
		},
	}

	cmd.Flags().StringVar(&sortBy, "sort", "", "Sort column (name, lastUpdated)")
	cmd.Flags().StringVar(&order, "order", "", "Sort order (asc, desc)")
	out.register(cmd, "table")

	return cmd
}

func newIssuesCmd(opts *globalOptions) *cobra.Command {
	var out outputFlags

	cmd := &cobra.Command{
		Use:   "issues <project-id>",
		Short: "List the issues of a project, newest first",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := newApp(cmd, opts)
			if err != nil {
				return err
			}
			formatter, err := newFormatter(out.format, out.compact, out.width)
			if err != nil {
				return err
			}

			s, err := a.openStore()
			if err != nil {
				return err
			}

			return formatter.FormatIssues(a.out, s.Issues(args[0]))
		},
	}

	out.register(cmd, "table")
	return cmd
}

func newLegendCmd(opts *globalOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "legend",
		Short: "Show or change the persisted chart legend selection",
	}

	show := &cobra.Command{
		Use:   "show",
		Short: "Show the visible projects",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return withLegend(cmd, opts, func(a *app, legend *chart.Legend, ranked []string) error {
				visible := make(map[string]bool)
				for _, id := range legend.Selection(ranked) {
					visible[id] = true
				}
				for _, id := range ranked {
					mark := " "
					if visible[id] {
						mark = "x"
					}
					fmt.Fprintf(a.out, "[%s] %s\n", mark, id)
				}
				return nil
			})
		},
	}

	toggle := &cobra.Command{
		Use:   "toggle <project-id>",
		Short: "Show or hide a project in the chart",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withLegend(cmd, opts, func(a *app, legend *chart.Legend, ranked []string) error {
				next, err := legend.Toggle(ranked, args[0])
				if err != nil {
					return fmt.Errorf("failed to save legend selection: %w", err)
				}
				fmt.Fprintf(a.out, "Visible: %v\n", next)
				return nil
			})
		},
	}

	reset := &cobra.Command{
		Use:   "reset",
		Short: "Forget the selection and show the top projects again",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			a, err := newApp(cmd, opts)
			if err != nil {
				return err
			}
			prefs := a.openPreferences()
			defer a.closePreferences(prefs)

			if err := prefs.Delete(chart.LegendKey); err != nil {
				return err
			}
			fmt.Fprintln(a.out, "Legend selection reset")
			return nil
		},
	}

	cmd.AddCommand(show, toggle, reset)
	return cmd
}

// withLegend runs fn with the legend and the projects ranked by total cost.
func withLegend(cmd *cobra.Command, opts *globalOptions, fn func(*app, *chart.Legend, []string) error) error {
	a, err := newApp(cmd, opts)
	if err != nil {
		return err
	}
	s, err := a.openStore()
	if err != nil {
		return err
	}

	prefs := a.openPreferences()
	defer a.closePreferences(prefs)

	return fn(a, chart.NewLegend(prefs, a.log), chart.RankGroups(storeTotals(s)))
}
