package dashboard

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/fboessen22/jobdash/internal/protocol"
	"github.com/fboessen22/jobdash/internal/store"
)

type memoryState struct {
	mu     sync.Mutex
	values map[string]string
}

func (m *memoryState) GetAppState(key string) (string, bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	v, ok := m.values[key]
	return v, ok, nil
}

func (m *memoryState) SetAppState(key, value string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.values == nil {
		m.values = map[string]string{}
	}
	m.values[key] = value
	return nil
}

type recorderFunc func(ctx context.Context, rec store.RefreshRecord) error

func (f recorderFunc) RecordRefresh(ctx context.Context, rec store.RefreshRecord) error {
	return f(ctx, rec)
}

func newTestSession(t *testing.T, backend *stubBackend, opts Options) *Session {
	t.Helper()
	opts.Backend = backend
	if opts.NewTicker == nil {
		opts.NewTicker = func(time.Duration) Ticker { return newFakeTicker() }
	}
	s := NewSession(opts)
	t.Cleanup(s.Close)
	return s
}

func TestSessionStartDegradesWhenConfigFails(t *testing.T) {
	t.Parallel()
	backend := &stubBackend{
		configFn: func(context.Context) (protocol.ConfigResponse, error) {
			return protocol.ConfigResponse{}, errors.New("config down")
		},
		jobsFn: func(context.Context, int) ([]protocol.JobRecord, error) { return sampleJobs(), nil },
	}
	s := newTestSession(t, backend, Options{})
	if err := s.Start(context.Background()); err != nil {
		t.Fatalf("start: %v", err)
	}
	snap := s.Snapshot()
	if snap.Filter.Category != "" {
		t.Fatalf("category should be empty after config failure, got %q", snap.Filter.Category)
	}
	if snap.ConfigStatus.State != PanelFailed || snap.JobsStatus.State != PanelReady {
		t.Fatalf("panels: config=%+v jobs=%+v", snap.ConfigStatus, snap.JobsStatus)
	}
	if snap.TotalJobs != 5 {
		t.Fatalf("jobs loaded: %d", snap.TotalJobs)
	}
}

func TestSessionAppliesDefaultCategory(t *testing.T) {
	t.Parallel()
	backend := &stubBackend{
		configFn: func(context.Context) (protocol.ConfigResponse, error) {
			return protocol.ConfigResponse{DefaultCategory: "ETL"}, nil
		},
		categoriesFn: func(context.Context) ([]string, error) { return []string{"ETL", "Maintenance"}, nil },
		jobsFn:       func(context.Context, int) ([]protocol.JobRecord, error) { return sampleJobs(), nil },
		statsFn: func(context.Context, int) (protocol.StatsResponse, error) {
			return protocol.StatsResponse{TotalExecutions: 100, FailedCount: 10, SucceededCount: 90}, nil
		},
	}
	s := newTestSession(t, backend, Options{})
	if err := s.Start(context.Background()); err != nil {
		t.Fatalf("start: %v", err)
	}
	snap := s.Snapshot()
	if snap.Filter.Category != "ETL" || snap.TotalFiltered != 2 {
		t.Fatalf("default category not applied: %+v", snap.Filter)
	}
	if snap.StatsSource != StatsSourceLocal || snap.Stats.Total != 2 {
		t.Fatalf("scoped view should use local stats: %s %+v", snap.StatsSource, snap.Stats)
	}
	s.SetCategory("")
	snap = s.Snapshot()
	if snap.StatsSource != StatsSourceServer || snap.Stats.Total != 100 || snap.Stats.RateText() != "90.0" {
		t.Fatalf("unscoped view should use server stats: %s %+v", snap.StatsSource, snap.Stats)
	}
	if len(snap.Categories) != 3 || snap.Categories[0].Label != "All Categories (2 failed)" {
		t.Fatalf("category options: %+v", snap.Categories)
	}
}

func TestSessionFailedOnlyKeepsStats(t *testing.T) {
	t.Parallel()
	backend := &stubBackend{jobsFn: func(context.Context, int) ([]protocol.JobRecord, error) { return sampleJobs(), nil }}
	s := newTestSession(t, backend, Options{})
	_ = s.Start(context.Background())
	s.SetSearch("etl")
	before := s.Snapshot()
	s.SetShowOnlyFailed(true)
	after := s.Snapshot()
	if before.Stats != after.Stats {
		t.Fatalf("stats changed with failed-only: %+v -> %+v", before.Stats, after.Stats)
	}
	if before.TotalFiltered != 2 || after.TotalFiltered != 1 {
		t.Fatalf("list sizes: %d -> %d", before.TotalFiltered, after.TotalFiltered)
	}
}

func TestSessionSetDaysRefetches(t *testing.T) {
	t.Parallel()
	var mu sync.Mutex
	var seenDays []int
	backend := &stubBackend{jobsFn: func(_ context.Context, days int) ([]protocol.JobRecord, error) {
		mu.Lock()
		seenDays = append(seenDays, days)
		mu.Unlock()
		return manyJobs(60), nil
	}}
	s := newTestSession(t, backend, Options{})
	_ = s.Start(context.Background())
	if !s.GoToPage(3) {
		t.Fatal("page 3 should exist")
	}
	if s.GoToPage(4) {
		t.Fatal("page 4 should not exist")
	}
	if err := s.SetDays(context.Background(), 7); err != nil {
		t.Fatalf("set days: %v", err)
	}
	snap := s.Snapshot()
	if snap.Filter.DaysWindow != 7 || snap.Filter.CurrentPage != 1 {
		t.Fatalf("filter after set days: %+v", snap.Filter)
	}
	mu.Lock()
	defer mu.Unlock()
	if len(seenDays) != 2 || seenDays[1] != 7 {
		t.Fatalf("days requested: %v", seenDays)
	}
	if backend.callCount("stats") != 2 {
		t.Fatalf("stats should refetch with the job list, calls=%d", backend.callCount("stats"))
	}
}

func TestSessionUnchangedFilterKeepsPage(t *testing.T) {
	t.Parallel()
	backend := &stubBackend{jobsFn: func(context.Context, int) ([]protocol.JobRecord, error) {
		return manyJobs(60), nil
	}}
	s := newTestSession(t, backend, Options{})
	_ = s.Start(context.Background())
	if !s.GoToPage(3) {
		t.Fatal("page 3 should exist")
	}
	f := s.Filter()
	err := s.ApplyFilter(context.Background(), FilterUpdate{
		Category:       f.Category,
		SearchTerm:     f.SearchTerm,
		Days:           f.DaysWindow,
		ShowOnlyFailed: f.ShowOnlyFailed,
	})
	if err != nil {
		t.Fatalf("apply filter: %v", err)
	}
	if got := s.Filter().CurrentPage; got != 3 {
		t.Fatalf("page after unchanged filter: got %d want 3", got)
	}
	if backend.callCount("jobs") != 1 {
		t.Fatalf("unchanged filter should not refetch, jobs calls=%d", backend.callCount("jobs"))
	}
}

func TestSessionPanelsFailIndependently(t *testing.T) {
	t.Parallel()
	backend := &stubBackend{
		jobsFn: func(context.Context, int) ([]protocol.JobRecord, error) { return sampleJobs(), nil },
		statsFn: func(context.Context, int) (protocol.StatsResponse, error) {
			return protocol.StatsResponse{}, errors.New("stats down")
		},
	}
	s := newTestSession(t, backend, Options{})
	err := s.Start(context.Background())
	var ferr *FetchError
	if !errors.As(err, &ferr) || ferr.Panel != "stats" {
		t.Fatalf("expected stats fetch error, got %v", err)
	}
	snap := s.Snapshot()
	if snap.JobsStatus.State != PanelReady || snap.StatsStatus.State != PanelFailed {
		t.Fatalf("panels: jobs=%+v stats=%+v", snap.JobsStatus, snap.StatsStatus)
	}
	if snap.StatsSource != StatsSourceLocal || snap.Stats.Total != 5 {
		t.Fatalf("stats should fall back to local aggregation: %+v", snap.Stats)
	}
}

func TestSessionReportsEveryFailedPanel(t *testing.T) {
	t.Parallel()
	backend := &stubBackend{
		jobsFn: func(context.Context, int) ([]protocol.JobRecord, error) {
			return nil, errors.New("jobs down")
		},
		statsFn: func(context.Context, int) (protocol.StatsResponse, error) {
			return protocol.StatsResponse{}, errors.New("stats down")
		},
	}
	s := newTestSession(t, backend, Options{})
	err := s.Start(context.Background())
	if err == nil {
		t.Fatal("expected start to report fetch errors")
	}
	for _, want := range []string{"jobs down", "stats down"} {
		if !strings.Contains(err.Error(), want) {
			t.Fatalf("error %q should mention %q", err, want)
		}
	}
	snap := s.Snapshot()
	if snap.JobsStatus.State != PanelFailed || snap.StatsStatus.State != PanelFailed {
		t.Fatalf("panels: jobs=%+v stats=%+v", snap.JobsStatus, snap.StatsStatus)
	}
}

func TestSessionAlertsOnRisingFailures(t *testing.T) {
	t.Parallel()
	failed := 2
	backend := &stubBackend{statsFn: func(context.Context, int) (protocol.StatsResponse, error) {
		return protocol.StatsResponse{FailedCount: failed, TotalExecutions: 10}, nil
	}}
	var alerts []Alert
	s := newTestSession(t, backend, Options{AlertSink: AlertSinkFunc(func(_ context.Context, a Alert) {
		alerts = append(alerts, a)
	})})
	ctx := context.Background()
	_ = s.Start(ctx)
	failed = 4
	_ = s.Refresh(ctx)
	if len(alerts) != 1 || alerts[0].Current != 4 {
		t.Fatalf("alerts: %+v", alerts)
	}
	if err := s.SetSoundEnabled(false); err != nil {
		t.Fatalf("mute: %v", err)
	}
	failed = 6
	_ = s.Refresh(ctx)
	if len(alerts) != 1 {
		t.Fatal("muted session should not alert")
	}
	if s.LastAlert().Seq != 1 {
		t.Fatalf("last alert: %+v", s.LastAlert())
	}
}

func TestSessionPreferencesPersist(t *testing.T) {
	t.Parallel()
	state := &memoryState{}
	s := newTestSession(t, &stubBackend{}, Options{State: state})
	_ = s.Start(context.Background())
	if p := s.Preferences(); p.DarkMode || !p.SoundEnabled {
		t.Fatalf("default preferences: %+v", p)
	}
	if err := s.SetDarkMode(true); err != nil {
		t.Fatalf("dark mode: %v", err)
	}
	other := newTestSession(t, &stubBackend{}, Options{State: state})
	_ = other.Start(context.Background())
	if !other.Preferences().DarkMode {
		t.Fatal("dark mode should persist across sessions")
	}
}

func TestSessionModalDropsSupersededResult(t *testing.T) {
	t.Parallel()
	entered := make(chan struct{})
	release := make(chan struct{})
	backend := &stubBackend{
		jobsFn: func(context.Context, int) ([]protocol.JobRecord, error) { return sampleJobs(), nil },
		jobStepsFn: func(context.Context, protocol.Opaque) (protocol.StepsResponse, error) {
			return stepsFixture(), nil
		},
		executionFn: func(_ context.Context, id protocol.Opaque, _ bool) (protocol.ExecutionDetailResponse, error) {
			if id == "9001" {
				close(entered)
				<-release
			}
			return protocol.ExecutionDetailResponse{Overview: protocol.ExternalExecution{ExecutionID: id}}, nil
		},
	}
	s := newTestSession(t, backend, Options{})
	ctx := context.Background()
	_ = s.Start(ctx)
	if _, err := s.ExpandSteps(ctx, "101"); err != nil {
		t.Fatalf("expand: %v", err)
	}

	done := make(chan error, 1)
	go func() {
		_, err := s.OpenExternal(ctx, "101", 1)
		done <- err
	}()
	<-entered
	if s.Modal().Status.State != PanelLoading {
		t.Fatalf("modal should be loading: %+v", s.Modal())
	}
	if _, err := s.OpenScript("101", 3); err != nil {
		t.Fatalf("open script: %v", err)
	}
	close(release)
	if err := <-done; !errors.Is(err, ErrModalSuperseded) {
		t.Fatalf("late result should be dropped, got %v", err)
	}
	m := s.Modal()
	if m.Kind != ModalScript || m.Script == nil || m.Script.Command != "DELETE FROM staging;" {
		t.Fatalf("script modal should remain: %+v", m)
	}
	s.CloseModal()
	if s.Modal().Open() {
		t.Fatal("modal should be closed")
	}
}

func TestSessionOpenExternalByPackage(t *testing.T) {
	t.Parallel()
	backend := &stubBackend{
		jobStepsFn: func(context.Context, protocol.Opaque) (protocol.StepsResponse, error) { return stepsFixture(), nil },
		executionsByPackageFn: func(context.Context, string, bool) ([]protocol.ExternalExecution, error) {
			return []protocol.ExternalExecution{{ExecutionID: "77", Status: 4}}, nil
		},
	}
	s := newTestSession(t, backend, Options{})
	ctx := context.Background()
	_, _ = s.ExpandSteps(ctx, "101")
	m, err := s.OpenExternal(ctx, "101", 2)
	if err != nil {
		t.Fatalf("open external: %v", err)
	}
	if m.Kind != ModalPackageExecutions || m.Lookup == nil || !m.Lookup.Uncertain || m.Title != "Package Executions - Load" {
		t.Fatalf("package modal: %+v", m)
	}
	if _, err := s.OpenExternal(ctx, "101", 0); !errors.Is(err, ErrNoExternalInfo) {
		t.Fatalf("outcome step should have no external info: %v", err)
	}
	if _, err := s.OpenExternal(ctx, "101", 42); !errors.Is(err, ErrStepNotFound) {
		t.Fatalf("unknown step: %v", err)
	}
}

func TestSessionRecordsRefreshes(t *testing.T) {
	t.Parallel()
	var mu sync.Mutex
	var recs []store.RefreshRecord
	backend := &stubBackend{
		jobsFn: func(context.Context, int) ([]protocol.JobRecord, error) { return sampleJobs(), nil },
		statsFn: func(context.Context, int) (protocol.StatsResponse, error) {
			return protocol.StatsResponse{TotalExecutions: 9, FailedCount: 3, SucceededCount: 6}, nil
		},
	}
	s := newTestSession(t, backend, Options{Recorder: recorderFunc(func(_ context.Context, rec store.RefreshRecord) error {
		mu.Lock()
		defer mu.Unlock()
		recs = append(recs, rec)
		return nil
	})})
	ctx := context.Background()
	_ = s.Start(ctx)
	_ = s.Refresh(ctx)
	mu.Lock()
	defer mu.Unlock()
	if len(recs) != 2 || recs[0].Trigger != string(TriggerInitial) || recs[1].Trigger != string(TriggerManual) {
		t.Fatalf("refresh records: %+v", recs)
	}
	if recs[0].Jobs != 5 || recs[0].Failed != 3 || recs[0].Total != 9 {
		t.Fatalf("refresh record counts: %+v", recs[0])
	}
}

func TestSessionAutoRefreshTicks(t *testing.T) {
	t.Parallel()
	backend := &stubBackend{}
	s := newTestSession(t, backend, Options{AutoRefresh: true, RefreshInterval: 3})
	_ = s.Start(context.Background())
	for i := 0; i < 3; i++ {
		s.Tick()
	}
	s.WaitRefresh()
	if backend.callCount("jobs") != 2 {
		t.Fatalf("jobs fetched %d times, want 2", backend.callCount("jobs"))
	}
	if st := s.RefreshState(); !st.Enabled || st.Countdown != 3 {
		t.Fatalf("refresh state: %+v", st)
	}
	s.SetAutoRefresh(context.Background(), false)
	if s.Tick() {
		t.Fatal("stopped refresh should not fire")
	}
}
