package cli

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/fboessen22/jobdash/internal/config"
)

// app carries the resolved configuration into subcommands.
type app struct {
	cfg    config.File
	logger *slog.Logger
	lookup func(string) (string, bool)
	stderr io.Writer
}

// Execute runs the CLI and returns the process exit code.
func Execute(ctx context.Context) int {
	root := newRootCmd(&app{lookup: os.LookupEnv, stderr: os.Stderr})
	if err := root.ExecuteContext(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "jobdash: %v\n", err)
		return 1
	}
	return 0
}

func newRootCmd(a *app) *cobra.Command {
	if a.lookup == nil {
		a.lookup = os.LookupEnv
	}
	if a.stderr == nil {
		a.stderr = os.Stderr
	}
	var (
		configPath string
		envFile    string
		flags      config.File
	)

	root := &cobra.Command{
		Use:           "jobdash",
		Short:         "Dashboard for scheduled job runs",
		Long:          "jobdash watches a job-scheduler backend and shows job outcomes, step drill-down and external package logs.",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			if cmd.Name() == "version" {
				return nil
			}
			if err := config.LoadDotEnv(envFile); err != nil {
				return err
			}
			if configPath == "" {
				if v, ok := a.lookup(config.EnvPrefix + "CONFIG"); ok {
					configPath = v
				}
			}
			cfg, err := config.Load(configPath)
			if err != nil {
				return err
			}
			if err := cfg.ApplyEnv(a.lookup); err != nil {
				return err
			}
			applyFlagOverrides(cmd, &cfg, flags)

			a.cfg = cfg
			a.logger = cfg.NewLogger(a.stderr)
			slog.SetDefault(a.logger)
			return nil
		},
	}

	pf := root.PersistentFlags()
	pf.StringVarP(&configPath, "config", "c", "", "Path to a YAML config file (env JOBDASH_CONFIG)")
	pf.StringVar(&envFile, "env-file", ".env", "Path to a .env file; a missing file is ignored")
	pf.StringVar(&flags.BackendURL, "backend-url", "", "Base URL of the job-scheduler backend")
	pf.BoolVar(&flags.DiscoverMDNS, "discover", false, "Find the backend via mDNS when no backend URL is set")
	pf.IntVar(&flags.Days, "days", 0, "Day window of job runs (0 = latest run only)")
	pf.IntVar(&flags.PageSize, "page-size", 0, "Jobs per page")
	pf.IntVar(&flags.RefreshIntervalSeconds, "refresh-interval", 0, "Auto-refresh interval in seconds")
	pf.StringVar(&flags.StateDB, "state-db", "", "Path of the SQLite state database")
	pf.StringVar(&flags.LogLevel, "log-level", "", "Log level: debug, info, warn, error")
	pf.StringVar(&flags.LogFormat, "log-format", "", "Log format: text or json")

	root.AddCommand(newServeCmd(a))
	root.AddCommand(newWatchCmd(a))
	root.AddCommand(newSnapshotCmd(a))
	root.AddCommand(newCheckCmd(a))
	root.AddCommand(newVersionCmd())
	return root
}

// applyFlagOverrides copies explicitly set flags over env and file values.
func applyFlagOverrides(cmd *cobra.Command, cfg *config.File, flags config.File) {
	changed := cmd.Flags().Changed
	if changed("backend-url") {
		cfg.BackendURL = flags.BackendURL
	}
	if changed("discover") {
		cfg.DiscoverMDNS = flags.DiscoverMDNS
	}
	if changed("days") {
		cfg.Days = flags.Days
	}
	if changed("page-size") {
		cfg.PageSize = flags.PageSize
	}
	if changed("refresh-interval") {
		cfg.RefreshIntervalSeconds = flags.RefreshIntervalSeconds
	}
	if changed("state-db") {
		cfg.StateDB = flags.StateDB
	}
	if changed("log-level") {
		cfg.LogLevel = flags.LogLevel
	}
	if changed("log-format") {
		cfg.LogFormat = flags.LogFormat
	}
}
