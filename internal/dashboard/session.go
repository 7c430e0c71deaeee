package dashboard

import (
	"context"
	"errors"
	"log/slog"
	"strconv"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/fboessen22/jobdash/internal/protocol"
	"github.com/fboessen22/jobdash/internal/store"
)

// RefreshRecorder keeps a log of completed refresh cycles.
type RefreshRecorder interface {
	RecordRefresh(ctx context.Context, rec store.RefreshRecord) error
}

type Options struct {
	Backend  Backend
	State    StateStore
	Recorder RefreshRecorder

	Days            int
	PageSize        int
	RefreshInterval int
	AutoRefresh     bool

	AlertSink AlertSink
	NewTicker func(time.Duration) Ticker
	Now       func() time.Time
	// OnRefresh runs after every refresh cycle with the resulting snapshot.
	OnRefresh func(ctx context.Context, trigger Trigger, snap Snapshot, err error)
}

// Session is one dashboard viewer's state: filters, the fetched job
// collection, stats, drill-down panels and the modal.
type Session struct {
	id          string
	backend     Backend
	state       StateStore
	recorder    RefreshRecorder
	drill       *DrillDown
	alerter     *Alerter
	refresh     *RefreshController
	autoRefresh bool
	now         func() time.Time
	onRefresh   func(context.Context, Trigger, Snapshot, error)

	mu               sync.Mutex
	filter           FilterState
	defaultCategory  string
	categories       []string
	records          []protocol.JobRecord
	serverStats      *protocol.StatsResponse
	configStatus     PanelStatus
	categoriesStatus PanelStatus
	jobsStatus       PanelStatus
	statsStatus      PanelStatus
	lastRefresh      time.Time
	prefs            Preferences
	modal            Modal
	modalSeq         uint64
}

func NewSession(opts Options) *Session {
	now := opts.Now
	if now == nil {
		now = time.Now
	}
	idle := PanelStatus{State: PanelIdle}
	s := &Session{
		id:               uuid.NewString(),
		backend:          opts.Backend,
		state:            opts.State,
		recorder:         opts.Recorder,
		drill:            NewDrillDown(opts.Backend),
		alerter:          NewAlerter(opts.AlertSink, now),
		autoRefresh:      opts.AutoRefresh,
		now:              now,
		onRefresh:        opts.OnRefresh,
		filter:           NewFilterState("", opts.Days, opts.PageSize),
		configStatus:     idle,
		categoriesStatus: idle,
		jobsStatus:       idle,
		statsStatus:      idle,
		prefs:            DefaultPreferences(),
	}
	s.refresh = NewRefreshController(RefreshOptions{
		Cycle:     s.cycle,
		Interval:  opts.RefreshInterval,
		Key:       s.cycleKey,
		NewTicker: opts.NewTicker,
	})
	return s
}

func (s *Session) ID() string {
	return s.id
}

// Start loads preferences and backend config, runs the initial fetches and
// arms auto-refresh. Fetch failures degrade their panel and are returned
// joined; the session stays usable.
func (s *Session) Start(ctx context.Context) error {
	if prefs, err := LoadPreferences(s.state); err != nil {
		slog.Warn("load preferences failed; using defaults", "error", err)
	} else {
		s.mu.Lock()
		s.prefs = prefs
		s.mu.Unlock()
	}

	s.loadConfig(ctx)

	var categoriesErr, cycleErr error
	var wg sync.WaitGroup
	wg.Add(2)
	go func() {
		defer wg.Done()
		categoriesErr = s.loadCategories(ctx)
	}()
	go func() {
		defer wg.Done()
		cycleErr = s.refresh.Refresh(ctx, TriggerInitial)
	}()
	wg.Wait()

	if s.autoRefresh {
		s.refresh.Start(ctx)
	}
	return errors.Join(categoriesErr, cycleErr)
}

// Close stops auto-refresh and waits for cycles it already fired.
func (s *Session) Close() {
	s.refresh.Stop()
	s.refresh.Wait()
}

func (s *Session) loadConfig(ctx context.Context) {
	cfg, err := s.backend.Config(ctx)
	s.mu.Lock()
	defer s.mu.Unlock()
	if err != nil {
		slog.Warn("load backend config failed; starting without default category", "error", err)
		s.configStatus = failedPanel(&FetchError{Panel: "config", Err: err})
		return
	}
	s.configStatus = PanelStatus{State: PanelReady}
	s.defaultCategory = cfg.DefaultCategory
	s.filter.Category = cfg.DefaultCategory
}

func (s *Session) loadCategories(ctx context.Context) error {
	categories, err := s.backend.Categories(ctx)
	s.mu.Lock()
	defer s.mu.Unlock()
	if err != nil {
		ferr := &FetchError{Panel: "categories", Err: err}
		s.categoriesStatus = failedPanel(ferr)
		return ferr
	}
	s.categories = categories
	s.categoriesStatus = readyOrEmpty(len(categories))
	return nil
}

func (s *Session) cycleKey() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return "cycle:" + strconv.Itoa(s.filter.DaysWindow)
}

// cycle fetches the job list and the stats summary concurrently. Each result
// is applied as soon as it arrives, independently of the other.
func (s *Session) cycle(ctx context.Context, trigger Trigger) error {
	started := s.now()
	s.mu.Lock()
	days := s.filter.DaysWindow
	if s.records == nil {
		s.jobsStatus = PanelStatus{State: PanelLoading}
	}
	s.mu.Unlock()

	var jobsErr, statsErr error
	var wg sync.WaitGroup
	wg.Add(2)
	go func() {
		defer wg.Done()
		jobsErr = s.loadJobs(ctx, days)
	}()
	go func() {
		defer wg.Done()
		statsErr = s.loadStats(ctx, days)
	}()
	wg.Wait()
	err := errors.Join(jobsErr, statsErr)

	snap := s.Snapshot()
	s.recordRefresh(ctx, trigger, days, started, snap, err)
	if err != nil {
		slog.Warn("refresh cycle finished with errors", "trigger", trigger, "days", days, "error", err)
	} else {
		slog.Debug("refresh cycle finished", "trigger", trigger, "days", days, "jobs", len(s.Records()))
	}
	if s.onRefresh != nil {
		s.onRefresh(ctx, trigger, snap, err)
	}
	return err
}

func (s *Session) loadJobs(ctx context.Context, days int) error {
	records, err := s.backend.Jobs(ctx, days)
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.filter.DaysWindow != days {
		slog.Debug("dropping job list for superseded day range", "days", days)
		return nil
	}
	if err != nil {
		ferr := &FetchError{Panel: "jobs", Err: err}
		s.jobsStatus = failedPanel(ferr)
		return ferr
	}
	if records == nil {
		records = []protocol.JobRecord{}
	}
	s.records = records
	s.jobsStatus = readyOrEmpty(len(records))
	s.lastRefresh = s.now()
	s.clampPageLocked()

	ids := make(map[protocol.Opaque]struct{}, len(records))
	names := make(map[string]struct{}, len(records))
	for _, rec := range records {
		if !rec.InstanceID.IsZero() {
			ids[rec.InstanceID] = struct{}{}
		}
		names[rec.JobName] = struct{}{}
	}
	s.drill.PruneSteps(ids)
	s.drill.PruneHistory(names)
	return nil
}

func (s *Session) loadStats(ctx context.Context, days int) error {
	resp, err := s.backend.Stats(ctx, days)
	s.mu.Lock()
	if s.filter.DaysWindow != days {
		s.mu.Unlock()
		return nil
	}
	if err != nil {
		ferr := &FetchError{Panel: "stats", Err: err}
		s.statsStatus = failedPanel(ferr)
		s.mu.Unlock()
		return ferr
	}
	s.serverStats = &resp
	s.statsStatus = PanelStatus{State: PanelReady}
	sound := s.prefs.SoundEnabled
	s.mu.Unlock()

	if s.alerter.Observe(ctx, resp.FailedCount, sound) {
		slog.Info("failed job count increased", "failed", resp.FailedCount)
	}
	return nil
}

func (s *Session) recordRefresh(ctx context.Context, trigger Trigger, days int, started time.Time, snap Snapshot, err error) {
	if s.recorder == nil {
		return
	}
	rec := store.RefreshRecord{
		Trigger:     string(trigger),
		Days:        days,
		Jobs:        snap.TotalJobs,
		Failed:      snap.Stats.Failed,
		Succeeded:   snap.Stats.Succeeded,
		Total:       snap.Stats.Total,
		StartedUTC:  started.UTC(),
		FinishedUTC: s.now().UTC(),
	}
	if err != nil {
		rec.Error = err.Error()
	}
	if rerr := s.recorder.RecordRefresh(ctx, rec); rerr != nil {
		slog.Warn("record refresh failed", "error", rerr)
	}
}

// Refresh runs a manual cycle. The auto-refresh countdown is unaffected.
func (s *Session) Refresh(ctx context.Context) error {
	return s.refresh.Refresh(ctx, TriggerManual)
}

func (s *Session) SetAutoRefresh(ctx context.Context, enabled bool) {
	s.refresh.SetEnabled(ctx, enabled)
}

// Tick advances the auto-refresh countdown by one second.
func (s *Session) Tick() bool {
	return s.refresh.Tick()
}

func (s *Session) RefreshState() RefreshState {
	return s.refresh.State()
}

// WaitRefresh blocks until auto-fired cycles have finished.
func (s *Session) WaitRefresh() {
	s.refresh.Wait()
}

func (s *Session) Records() []protocol.JobRecord {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]protocol.JobRecord(nil), s.records...)
}

func (s *Session) Filter() FilterState {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.filter
}

func (s *Session) clampPageLocked() {
	page := FilterAndPaginate(s.records, s.filter)
	s.filter.CurrentPage = page.CurrentPage
}

func (s *Session) SetCategory(category string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.filter.Category = category
	s.filter.CurrentPage = 1
}

func (s *Session) SetSearch(term string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.filter.SearchTerm = term
	s.filter.CurrentPage = 1
}

func (s *Session) SetShowOnlyFailed(enabled bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.filter.ShowOnlyFailed = enabled
	s.filter.CurrentPage = 1
}

// GoToPage moves to page if it exists in the current filtered list.
func (s *Session) GoToPage(page int) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	total := FilterAndPaginate(s.records, s.filter).TotalPages
	if page < 1 || page > total {
		return false
	}
	s.filter.CurrentPage = page
	return true
}

// SetDays changes the day window and refetches the job list and stats.
func (s *Session) SetDays(ctx context.Context, days int) error {
	if days < 0 {
		days = 0
	}
	s.mu.Lock()
	changed := s.filter.DaysWindow != days
	if changed {
		s.filter.DaysWindow = days
		s.filter.CurrentPage = 1
	}
	s.mu.Unlock()
	if !changed {
		return nil
	}
	return s.refresh.Refresh(ctx, TriggerFilter)
}

type FilterUpdate struct {
	Category       string
	SearchTerm     string
	Days           int
	ShowOnlyFailed bool
}

// ApplyFilter replaces all filter inputs at once, refetching only when the
// day window changed.
func (s *Session) ApplyFilter(ctx context.Context, u FilterUpdate) error {
	s.mu.Lock()
	f := s.filter
	if f.Category != u.Category || f.SearchTerm != u.SearchTerm || f.ShowOnlyFailed != u.ShowOnlyFailed {
		s.filter.Category = u.Category
		s.filter.SearchTerm = u.SearchTerm
		s.filter.ShowOnlyFailed = u.ShowOnlyFailed
		s.filter.CurrentPage = 1
	}
	s.mu.Unlock()
	return s.SetDays(ctx, u.Days)
}

func (s *Session) Preferences() Preferences {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.prefs
}

func (s *Session) SetDarkMode(enabled bool) error {
	return s.updatePreferences(func(p *Preferences) { p.DarkMode = enabled })
}

func (s *Session) SetSoundEnabled(enabled bool) error {
	return s.updatePreferences(func(p *Preferences) { p.SoundEnabled = enabled })
}

func (s *Session) updatePreferences(apply func(*Preferences)) error {
	s.mu.Lock()
	apply(&s.prefs)
	prefs := s.prefs
	s.mu.Unlock()
	return SavePreferences(s.state, prefs)
}

func (s *Session) LastAlert() Alert {
	return s.alerter.Last()
}

func (s *Session) ExpandSteps(ctx context.Context, id protocol.Opaque) (StepPanel, error) {
	return s.drill.ExpandSteps(ctx, id)
}

func (s *Session) CollapseSteps(id protocol.Opaque) StepPanel {
	return s.drill.CollapseSteps(id)
}

func (s *Session) ExpandHistory(ctx context.Context, jobName string) (HistoryPanel, error) {
	return s.drill.ExpandHistory(ctx, jobName)
}

func (s *Session) CollapseHistory(jobName string) HistoryPanel {
	return s.drill.CollapseHistory(jobName)
}

// OpenExternal opens the modal for a loaded step's external execution.
func (s *Session) OpenExternal(ctx context.Context, id protocol.Opaque, stepID int) (Modal, error) {
	step, _, err := s.drill.Step(id, stepID)
	if err != nil {
		return Modal{}, err
	}
	if !HasExternalReference(step) {
		return Modal{}, ErrNoExternalInfo
	}
	kind, title := ModalPackageExecutions, packageTitle(step.StepName)
	if !step.SSISExecutionID.IsZero() {
		kind, title = ModalExecution, executionTitle(step.StepName)
	}
	seq := s.beginModal(kind, title)

	lookup, err := s.drill.LookupExternal(ctx, step)
	m := Modal{Kind: kind, Title: title, Lookup: &lookup, Execution: lookup.Execution}
	if err != nil {
		m.Status = failedPanel(err)
	} else if lookup.Kind == LookupByPackage {
		m.Status = readyOrEmpty(len(lookup.Candidates))
	} else {
		m.Status = lookup.Execution.Status
	}
	if !s.commitModal(seq, m) {
		return Modal{}, ErrModalSuperseded
	}
	return s.Modal(), err
}

// OpenExecution opens, or refreshes in place, the execution detail modal.
func (s *Session) OpenExecution(ctx context.Context, id protocol.Opaque, stepName string, showAll bool) (Modal, error) {
	title := executionTitle(stepName)
	seq := s.beginModal(ModalExecution, title)
	panel, err := s.drill.Execution(ctx, id, stepName, showAll)
	m := Modal{Kind: ModalExecution, Title: title, Execution: &panel, Status: panel.Status}
	if !s.commitModal(seq, m) {
		return Modal{}, ErrModalSuperseded
	}
	return s.Modal(), err
}

func (s *Session) OpenScript(id protocol.Opaque, stepID int) (Modal, error) {
	script, err := s.drill.Script(id, stepID)
	if err != nil {
		return Modal{}, err
	}
	title := scriptTitle(script.StepName)
	seq := s.beginModal(ModalScript, title)
	m := Modal{Kind: ModalScript, Title: title, Script: &script, Status: PanelStatus{State: PanelReady}}
	s.commitModal(seq, m)
	return s.Modal(), nil
}
