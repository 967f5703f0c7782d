package main

import (
	"context"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/0xmhha/cost-monitor/pkg/chart"
	"github.com/0xmhha/cost-monitor/pkg/config"
	"github.com/0xmhha/cost-monitor/pkg/discovery"
	"github.com/0xmhha/cost-monitor/pkg/display"
	"github.com/0xmhha/cost-monitor/pkg/issue"
	"github.com/0xmhha/cost-monitor/pkg/logger"
	"github.com/0xmhha/cost-monitor/pkg/orchestrator"
	"github.com/0xmhha/cost-monitor/pkg/preference"
	"github.com/0xmhha/cost-monitor/pkg/project"
	"github.com/0xmhha/cost-monitor/pkg/source"
	"github.com/0xmhha/cost-monitor/pkg/store"
)

// app bundles the resolved configuration and shared components of one
// command invocation.
type app struct {
	cfg *config.Config
	log logger.Logger
	loc *time.Location
	out io.Writer
}

// newApp loads configuration (file < env < flags) and builds the logger.
func newApp(cmd *cobra.Command, opts *globalOptions) (*app, error) {
	cfg, err := config.NewLoader(opts.configPath).Load()
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}

	if opts.dataDir != "" {
		cfg.Data.DataDir = opts.dataDir
	}
	if opts.logLevel != "" {
		cfg.Logging.Level = strings.ToLower(opts.logLevel)
	}
	if opts.timezone != "" {
		cfg.Buckets.Timezone = opts.timezone
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	loc, err := cfg.Buckets.Location()
	if err != nil {
		return nil, err
	}

	return &app{
		cfg: cfg,
		log: logger.New(cfg.Logging.Logger()),
		loc: loc,
		out: cmd.OutOrStdout(),
	}, nil
}

func (a *app) openStore() (*store.Store, error) {
	s, err := store.New(store.Config{DataDir: a.cfg.Data.DataDir}, a.log.With("component", "store"))
	if err != nil {
		return nil, fmt.Errorf("failed to open data dir: %w", err)
	}
	for id, err := range s.Skipped() {
		a.log.Warn("skipped invalid data file", "project", id, "error", err)
	}
	return s, nil
}

// openPreferences opens the BoltDB preference file, falling back to an
// in-memory store when it cannot be opened.
func (a *app) openPreferences() preference.Store {
	prefs, err := preference.NewBoltStore(preference.Config{DBPath: a.cfg.Storage.DBPath}, a.log)
	if err != nil {
		a.log.Warn("preferences unavailable, selection will not persist", "error", err)
		return preference.NewMemoryStore()
	}
	return prefs
}

func (a *app) closePreferences(prefs preference.Store) {
	if err := prefs.Close(); err != nil {
		a.log.Error("failed to close preferences", "error", err)
	}
}

func (a *app) discoverer() discovery.Discoverer {
	var roots []string
	if a.cfg.Data.IDELogRoot != "" {
		roots = []string{a.cfg.Data.IDELogRoot}
	}
	return discovery.New(roots, a.log.With("component", "discovery"))
}

// remote builds a cached HTTP fetcher for baseURL.
func (a *app) remote(baseURL string) (*source.HTTPFetcher, *source.CachedFetcher, error) {
	httpFetcher, err := source.NewHTTPFetcher(source.HTTPConfig{
		BaseURL: baseURL,
		Timeout: a.cfg.Fetch.Timeout,
	}, a.log.With("component", "source"))
	if err != nil {
		return nil, nil, err
	}

	cached, err := source.NewCachedFetcher(httpFetcher, source.CacheConfig{
		TTL:     a.cfg.Fetch.CacheTTL,
		MaxCost: a.cfg.Fetch.CacheMaxCost,
	}, a.log)
	if err != nil {
		return nil, nil, err
	}
	return httpFetcher, cached, nil
}

func (a *app) orchestrator(f orchestrator.Fetcher) orchestrator.Orchestrator {
	return orchestrator.New(orchestrator.Config{
		Concurrency: a.cfg.Fetch.Concurrency,
		Timeout:     a.cfg.Fetch.Timeout,
		Location:    a.loc,
	}, f, a.log.With("component", "orchestrator"))
}

func newFormatter(format string, compact bool, width int) (display.Formatter, error) {
	f, err := display.ParseFormat(format)
	if err != nil {
		return nil, err
	}
	return display.New(display.Config{Format: f, Compact: compact, Width: width}), nil
}

// storeProjectIDs returns the requested ids or every project in s.
func storeProjectIDs(s *store.Store, requested []string) []string {
	if len(requested) > 0 {
		return requested
	}
	return s.ProjectIDs()
}

// remoteProjectIDs returns the requested ids or every project the remote lists.
func remoteProjectIDs(ctx context.Context, f *source.HTTPFetcher, requested []string) ([]string, error) {
	if len(requested) > 0 {
		return requested, nil
	}
	projects, err := f.FetchProjects(ctx)
	if err != nil {
		return nil, err
	}
	ids := make([]string, 0, len(projects))
	for _, p := range projects {
		ids = append(ids, p.ID())
	}
	return ids, nil
}

// storeTotals sums issue cost per project.
func storeTotals(s *store.Store) map[string]float64 {
	totals := make(map[string]float64)
	for _, id := range s.ProjectIDs() {
		totals[id] = issue.Sum(s.Issues(id)).Cost
	}
	return totals
}

// mergedProjects lists store projects plus discovered IDE projects.
func (a *app) mergedProjects(s *store.Store) []project.Project {
	found, err := a.discoverer().Discover()
	if err != nil {
		a.log.Warn("project discovery failed", "error", err)
		return s.Projects()
	}
	return project.Merge(s.Projects(), found)
}

// legendSelection resolves visible groups for a result.
func legendSelection(prefs preference.Store, log logger.Logger, totals map[string]float64) []string {
	return chart.NewLegend(prefs, log).Selection(chart.RankGroups(totals))
}
