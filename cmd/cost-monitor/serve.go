package main

import (
	"github.com/spf13/cobra"

	"github.com/0xmhha/cost-monitor/pkg/orchestrator"
	"github.com/0xmhha/cost-monitor/pkg/server"
)

func newServeCmd(opts *globalOptions) *cobra.Command {
	var addr string

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve projects, issues and cost buckets over HTTP",
		Long: `Serve the JSON API:

  GET  /api/projects
  GET  /api/projects/{projectId}/issues
  GET  /api/costs?projects=a,b
  GET  /api/preferences/legend
  PUT  /api/preferences/legend`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			a, err := newApp(cmd, opts)
			if err != nil {
				return err
			}
			if addr != "" {
				a.cfg.Server.Addr = addr
			}

			s, err := a.openStore()
			if err != nil {
				return err
			}

			var fetcher orchestrator.Fetcher = s
			if a.cfg.Fetch.BaseURL != "" {
				_, cached, err := a.remote(a.cfg.Fetch.BaseURL)
				if err != nil {
					return err
				}
				defer cached.Close()
				fetcher = cached
			}

			prefs := a.openPreferences()
			defer a.closePreferences(prefs)

			srv, err := server.New(a.log.With("component", "server"), server.Config{
				Addr:            a.cfg.Server.Addr,
				ShutdownTimeout: a.cfg.Server.ShutdownTimeout,
				Concurrency:     a.cfg.Fetch.Concurrency,
				Location:        a.loc,
				Dependencies: server.Dependencies{
					Store:       s,
					Fetcher:     fetcher,
					Discoverer:  a.discoverer(),
					Preferences: prefs,
				},
			})
			if err != nil {
				return err
			}

			return srv.Start(cmd.Context())
		},
	}

	cmd.Flags().StringVar(&addr, "addr", "", "Listen address (default from config)")
	return cmd
}
