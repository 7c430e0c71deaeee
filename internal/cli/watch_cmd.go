package cli

import (
	"context"
	"fmt"
	"io"
	"os"
	"sync"
	"time"

	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/fboessen22/jobdash/internal/dashboard"
)

const bell = "\a"

// statusPrinter writes one line per refresh cycle and per alert.
type statusPrinter struct {
	mu   sync.Mutex
	out  io.Writer
	ring bool
}

func newStatusPrinter(out io.Writer) *statusPrinter {
	return &statusPrinter{out: out, ring: isTerminal(out)}
}

func isTerminal(w io.Writer) bool {
	f, ok := w.(*os.File)
	return ok && term.IsTerminal(int(f.Fd()))
}

func (p *statusPrinter) Refreshed(_ context.Context, trigger dashboard.Trigger, snap dashboard.Snapshot, err error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	fmt.Fprintln(p.out, statusLine(trigger, snap, err))
}

func (p *statusPrinter) Alert(_ context.Context, alert dashboard.Alert) {
	p.mu.Lock()
	defer p.mu.Unlock()
	line := fmt.Sprintf("%s ALERT failed jobs increased from %d to %d", alert.At.Local().Format(time.TimeOnly), alert.Previous, alert.Current)
	if p.ring {
		line += bell
	}
	fmt.Fprintln(p.out, line)
}

func statusLine(trigger dashboard.Trigger, snap dashboard.Snapshot, err error) string {
	line := fmt.Sprintf("%s [%s] jobs=%d failed=%d succeeded=%d success=%s%%",
		snap.GeneratedAt.Local().Format(time.TimeOnly), trigger,
		snap.TotalJobs, snap.Stats.Failed, snap.Stats.Succeeded, snap.Stats.RateText())
	if snap.Refresh.Enabled {
		line += fmt.Sprintf(" next=%ds", snap.Refresh.Interval)
	}
	if err != nil {
		line += " error=" + err.Error()
	}
	return line
}

func newWatchCmd(a *app) *cobra.Command {
	var noStore bool
	cmd := &cobra.Command{
		Use:   "watch",
		Short: "Refresh on an interval and print a status line per cycle",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()
			client, err := a.backendClient(ctx)
			if err != nil {
				return err
			}
			deps := sessionDeps{client: client, autoRefresh: true}
			if !noStore {
				st, err := a.openStore()
				if err != nil {
					return err
				}
				defer st.Close()
				deps.store = st
			}

			printer := newStatusPrinter(cmd.OutOrStdout())
			deps.alertSink = printer
			deps.onRefresh = printer.Refreshed
			sess := a.newSession(deps)
			defer sess.Close()

			if err := sess.Start(ctx); err != nil && ctx.Err() == nil {
				fmt.Fprintf(cmd.ErrOrStderr(), "initial load: %v\n", err)
			}
			<-ctx.Done()
			return nil
		},
	}
	cmd.Flags().BoolVar(&noStore, "no-store", false, "Do not open the state database")
	return cmd
}
