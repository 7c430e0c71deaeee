package cli

import (
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/fboessen22/jobdash/internal/server"
	"github.com/fboessen22/jobdash/internal/version"
)

func newServeCmd(a *app) *cobra.Command {
	var (
		listen      string
		autoRefresh bool
		advertise   bool
	)
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the dashboard web UI",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()
			if cmd.Flags().Changed("listen") {
				a.cfg.ListenAddr = listen
			}
			if cmd.Flags().Changed("auto-refresh") {
				a.cfg.AutoRefresh = autoRefresh
			}
			if cmd.Flags().Changed("advertise") {
				a.cfg.MDNSAdvertise = advertise
			}

			client, err := a.backendClient(ctx)
			if err != nil {
				return err
			}
			st, err := a.openStore()
			if err != nil {
				return err
			}
			defer st.Close()

			sess := a.newSession(sessionDeps{client: client, store: st, autoRefresh: a.cfg.AutoRefresh})
			defer sess.Close()
			if err := sess.Start(ctx); err != nil {
				slog.Warn("initial load finished with errors; panels show the failures", "error", err)
			}

			return server.Run(ctx, server.Options{
				Addr:      a.cfg.ListenAddr,
				Session:   sess,
				Refreshes: st,
				Advertise: a.cfg.MDNSAdvertise,
				Version:   version.Current(),
			})
		},
	}
	cmd.Flags().StringVar(&listen, "listen", "", "Listen address (default from config, :8113)")
	cmd.Flags().BoolVar(&autoRefresh, "auto-refresh", false, "Start with auto-refresh running")
	cmd.Flags().BoolVar(&advertise, "advertise", false, "Advertise the dashboard over mDNS")
	return cmd
}
