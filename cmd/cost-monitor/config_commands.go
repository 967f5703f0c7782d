package main

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/bytedance/sonic"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/0xmhha/cost-monitor/pkg/config"
)

func newConfigCmd(opts *globalOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: "Configuration management",
	}

	cmd.AddCommand(
		newConfigShowCmd(opts),
		newConfigPathCmd(opts),
		newConfigResetCmd(),
	)
	return cmd
}

// newConfigShowCmd displays the effective configuration.
func newConfigShowCmd(opts *globalOptions) *cobra.Command {
	var format string

	cmd := &cobra.Command{
		Use:   "show",
		Short: "Display the effective configuration",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			a, err := newApp(cmd, opts)
			if err != nil {
				return err
			}

			switch format {
			case "json":
				enc := sonic.ConfigStd.NewEncoder(a.out)
				enc.SetIndent("", "  ")
				if err := enc.Encode(a.cfg); err != nil {
					return fmt.Errorf("failed to marshal config: %w", err)
				}
				return nil
			case "yaml":
				data, err := yaml.Marshal(a.cfg)
				if err != nil {
					return fmt.Errorf("failed to marshal config: %w", err)
				}
				fmt.Fprintln(a.out, "# Current Configuration")
				fmt.Fprintln(a.out, "# Source:", configSource(opts))
				fmt.Fprintln(a.out)
				_, err = a.out.Write(data)
				return err
			default:
				return fmt.Errorf("unknown format %q (want yaml or json)", format)
			}
		},
	}

	cmd.Flags().StringVar(&format, "format", "yaml", "Output format (yaml, json)")
	return cmd
}

// newConfigPathCmd shows the configuration file search paths.
func newConfigPathCmd(opts *globalOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "path",
		Short: "Show configuration file search paths",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			out := cmd.OutOrStdout()

			paths := []string{"./config.yaml", config.DefaultConfigPath()}
			if env := os.Getenv(config.EnvConfig); env != "" {
				paths = append([]string{env}, paths...)
			}
			if opts.configPath != "" {
				paths = append([]string{opts.configPath}, paths...)
			}

			fmt.Fprintln(out, "Configuration file search paths (in order of precedence):")
			fmt.Fprintln(out)
			for i, p := range paths {
				exists := "not found"
				if _, err := os.Stat(p); err == nil {
					exists = "found"
				}
				fmt.Fprintf(out, "  %d. %s [%s]\n", i+1, p, exists)
			}

			fmt.Fprintln(out)
			fmt.Fprintln(out, "Active configuration:", configSource(opts))
			return nil
		},
	}
}

// newConfigResetCmd writes the default configuration.
func newConfigResetCmd() *cobra.Command {
	var (
		force  bool
		output string
	)

	cmd := &cobra.Command{
		Use:     "reset",
		Aliases: []string{"init"},
		Short:   "Write the default configuration",
		Args:    cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			out := cmd.OutOrStdout()

			outputPath := output
			if outputPath == "" {
				outputPath = config.DefaultConfigPath()
			}

			if _, err := os.Stat(outputPath); err == nil && !force {
				fmt.Fprintf(out, "Configuration file already exists at: %s\n", outputPath)
				fmt.Fprint(out, "Overwrite? [y/N]: ")
				if !confirmed(cmd.InOrStdin()) {
					fmt.Fprintln(out, "Reset cancelled.")
					return nil
				}
			}

			if err := config.Save(config.Default(), outputPath); err != nil {
				return err
			}

			fmt.Fprintf(out, "Configuration reset to defaults at: %s\n", outputPath)
			return nil
		},
	}

	cmd.Flags().BoolVar(&force, "force", false, "Skip confirmation prompt")
	cmd.Flags().StringVarP(&output, "output", "o", "", "Output path (default: ~/.config/cost-monitor/config.yaml)")
	return cmd
}

func confirmed(in io.Reader) bool {
	line, err := bufio.NewReader(in).ReadString('\n')
	if err != nil && line == "" {
		return false
	}
	response := strings.ToLower(strings.TrimSpace(line))
	return response == "y" || response == "yes"
}

// configSource returns the path of the active configuration file.
func configSource(opts *globalOptions) string {
	if p := config.NewLoader(opts.configPath).Path(); p != "" {
		return p
	}
	return "defaults (no config file found)"
}
