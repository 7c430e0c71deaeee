package dashboard

import (
	"time"

	"github.com/fboessen22/jobdash/internal/protocol"
)

const (
	StatsSourceServer = "server"
	StatsSourceLocal  = "local"
)

// JobCard is one row of the job list with its open drill-down panels.
type JobCard struct {
	protocol.JobRecord
	RunCategory  protocol.RunCategory `json:"run_category"`
	Status       string               `json:"status"`
	CanDrillDown bool                 `json:"can_drill_down"`
	Steps        *StepPanel           `json:"steps_panel,omitempty"`
	History      *HistoryPanel        `json:"history_panel,omitempty"`
}

// Snapshot is a consistent read of the session for rendering.
type Snapshot struct {
	SessionID   string    `json:"session_id"`
	GeneratedAt time.Time `json:"generated_at"`

	Filter      FilterState      `json:"filter"`
	Categories  []CategoryOption `json:"categories"`
	Stats       Stats            `json:"stats"`
	StatsSource string           `json:"stats_source"`
	AvgDuration string           `json:"avg_duration,omitempty"`

	TotalJobs     int        `json:"total_jobs"`
	TotalFiltered int        `json:"total_filtered"`
	TotalPages    int        `json:"total_pages"`
	FirstShown    int        `json:"first_shown"`
	LastShown     int        `json:"last_shown"`
	Jobs          []JobCard  `json:"jobs"`
	Window        PageWindow `json:"window"`

	ConfigStatus     PanelStatus `json:"config_status"`
	CategoriesStatus PanelStatus `json:"categories_status"`
	JobsStatus       PanelStatus `json:"jobs_status"`
	StatsStatus      PanelStatus `json:"stats_status"`

	Refresh     RefreshState `json:"refresh"`
	LastRefresh time.Time    `json:"last_refresh,omitempty"`
	Preferences Preferences  `json:"preferences"`
	LastAlert   Alert        `json:"last_alert"`
	Modal       Modal        `json:"modal"`
}

// DisplayStats picks the stats shown for a filter: the server summary while
// no category or search narrows the view, otherwise local aggregation over
// the category and search scope. The failed-only toggle affects neither.
func DisplayStats(records []protocol.JobRecord, f FilterState, server *protocol.StatsResponse) (Stats, string) {
	if server != nil && !f.Scoped() {
		return StatsFromSummary(*server), StatsSourceServer
	}
	return Aggregate(StatsScope(records, f)), StatsSourceLocal
}

func (s *Session) Snapshot() Snapshot {
	s.mu.Lock()
	filter := s.filter
	records := s.records
	snap := Snapshot{
		SessionID:        s.id,
		GeneratedAt:      s.now().UTC(),
		Categories:       CategoryOptions(s.categories, records, filter.Category),
		TotalJobs:        len(records),
		ConfigStatus:     s.configStatus,
		CategoriesStatus: s.categoriesStatus,
		JobsStatus:       s.jobsStatus,
		StatsStatus:      s.statsStatus,
		LastRefresh:      s.lastRefresh,
		Preferences:      s.prefs,
		Modal:            s.modal,
	}
	snap.Stats, snap.StatsSource = DisplayStats(records, filter, s.serverStats)
	if snap.StatsSource == StatsSourceServer {
		snap.AvgDuration = s.serverStats.AvgDurationFormatted
	}
	s.mu.Unlock()

	page := FilterAndPaginate(records, filter)
	filter.CurrentPage = page.CurrentPage
	snap.Filter = filter
	snap.TotalFiltered = page.TotalFiltered
	snap.TotalPages = page.TotalPages
	snap.FirstShown, snap.LastShown = page.Range()
	snap.Window = NewPageWindow(page.CurrentPage, page.TotalPages)
	snap.Jobs = make([]JobCard, 0, len(page.Records))
	for _, rec := range page.Records {
		snap.Jobs = append(snap.Jobs, s.card(rec))
	}
	snap.Refresh = s.refresh.State()
	snap.LastAlert = s.alerter.Last()
	return snap
}

func (s *Session) card(rec protocol.JobRecord) JobCard {
	card := JobCard{
		JobRecord:    rec,
		RunCategory:  rec.Category(),
		Status:       rec.DisplayStatus(),
		CanDrillDown: !rec.InstanceID.IsZero(),
	}
	if card.CanDrillDown {
		if panel, ok := s.drill.StepPanel(rec.InstanceID); ok && panel.Expanded {
			card.Steps = &panel
		}
	}
	if panel, ok := s.drill.HistoryPanel(rec.JobName); ok && panel.Expanded {
		card.History = &panel
	}
	return card
}
