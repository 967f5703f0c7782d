// Package main provides the cost-monitor CLI application.
//
// cost-monitor aggregates the token cost of agent-run issues into
// calendar buckets per project, serves the data over HTTP and follows the
// data directory live.
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

// version is set during build time.
var version = "dev"

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

// globalOptions are the persistent flags shared by every command.
type globalOptions struct {
	configPath string
	dataDir    string
	logLevel   string
	timezone   string
}

func newRootCmd() *cobra.Command {
	opts := &globalOptions{}

	root := &cobra.Command{
		Use:   "cost-monitor",
		Short: "Per-project cost over time for agent-run issues",
		Long: `cost-monitor reads per-project issue files, buckets their cost over
time and shows the result as tables, JSON, or stacked bar charts.

Examples:
  cost-monitor buckets                          # All projects, auto-sized buckets
  cost-monitor buckets --projects rcl,dt -f chart
  cost-monitor buckets --remote http://localhost:8787
  cost-monitor projects --sort lastUpdated --order desc
  cost-monitor issues react-component-library
  cost-monitor serve --addr :8787
  cost-monitor watch`,
		Version:       version,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	root.PersistentFlags().StringVarP(&opts.configPath, "config", "c", "",
		"Path to configuration file (default: $COST_MONITOR_CONFIG, ./config.yaml, ~/.config/cost-monitor/config.yaml)")
	root.PersistentFlags().StringVar(&opts.dataDir, "data-dir", "",
		"Directory of <project>.json issue files")
	root.PersistentFlags().StringVar(&opts.logLevel, "log-level", "",
		"Log level (debug, info, warn, error)")
	root.PersistentFlags().StringVar(&opts.timezone, "tz", "",
		"Time zone for bucket boundaries (e.g. UTC, Europe/Berlin)")

	root.AddCommand(
		newBucketsCmd(opts),
		newProjectsCmd(opts),
		newIssuesCmd(opts),
		newLegendCmd(opts),
		newServeCmd(opts),
		newWatchCmd(opts),
		newConfigCmd(opts),
	)

	return root
}
