package cli

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/fboessen22/jobdash/internal/dashboard"
	"github.com/fboessen22/jobdash/internal/protocol"
)

type snapshotOutput struct {
	SessionID     string                `json:"session_id"`
	Filter        dashboard.FilterState `json:"filter"`
	Stats         dashboard.Stats       `json:"stats"`
	SuccessRate   string                `json:"success_rate_text"`
	StatsSource   string                `json:"stats_source"`
	TotalJobs     int                   `json:"total_jobs"`
	TotalFiltered int                   `json:"total_filtered"`
	TotalPages    int                   `json:"total_pages"`
	Jobs          []protocol.JobRecord  `json:"jobs"`
	Errors        []string              `json:"errors,omitempty"`
}

func newSnapshotCmd(a *app) *cobra.Command {
	var (
		category   string
		search     string
		failedOnly bool
		page       int
	)
	cmd := &cobra.Command{
		Use:   "snapshot",
		Short: "Fetch once and print stats and the current page as JSON",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()
			client, err := a.backendClient(ctx)
			if err != nil {
				return err
			}
			sess := a.newSession(sessionDeps{client: client})
			defer sess.Close()
			startErr := sess.Start(ctx)

			filter := sess.Filter()
			if cmd.Flags().Changed("category") {
				filter.Category = category
			}
			if err := sess.ApplyFilter(ctx, dashboard.FilterUpdate{
				Category:       filter.Category,
				SearchTerm:     search,
				Days:           filter.DaysWindow,
				ShowOnlyFailed: failedOnly,
			}); err != nil {
				return err
			}
			if page > 1 && !sess.GoToPage(page) {
				return fmt.Errorf("page %d is out of range", page)
			}

			snap := sess.Snapshot()
			out := snapshotOutput{
				SessionID:     snap.SessionID,
				Filter:        snap.Filter,
				Stats:         snap.Stats,
				SuccessRate:   snap.Stats.RateText(),
				StatsSource:   snap.StatsSource,
				TotalJobs:     snap.TotalJobs,
				TotalFiltered: snap.TotalFiltered,
				TotalPages:    snap.TotalPages,
				Jobs:          make([]protocol.JobRecord, 0, len(snap.Jobs)),
			}
			for _, card := range snap.Jobs {
				out.Jobs = append(out.Jobs, card.JobRecord)
			}
			for _, st := range []dashboard.PanelStatus{snap.ConfigStatus, snap.CategoriesStatus, snap.JobsStatus, snap.StatsStatus} {
				if st.State == dashboard.PanelFailed {
					out.Errors = append(out.Errors, st.Error)
				}
			}

			enc := json.NewEncoder(cmd.OutOrStdout())
			enc.SetIndent("", "  ")
			if err := enc.Encode(out); err != nil {
				return fmt.Errorf("encode snapshot: %w", err)
			}
			if snap.JobsStatus.State == dashboard.PanelFailed {
				return fmt.Errorf("load jobs: %w", startErr)
			}
			return nil
		},
	}
	cmd.Flags().StringVar(&category, "category", "", "Category filter (default: backend default category)")
	cmd.Flags().StringVar(&search, "search", "", "Case-insensitive job name search")
	cmd.Flags().BoolVar(&failedOnly, "failed-only", false, "List only failed jobs")
	cmd.Flags().IntVar(&page, "page", 1, "Page to print")
	return cmd
}
