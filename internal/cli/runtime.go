package cli

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/fboessen22/jobdash/internal/backend"
	"github.com/fboessen22/jobdash/internal/dashboard"
	"github.com/fboessen22/jobdash/internal/store"
	"github.com/fboessen22/jobdash/internal/version"
)

const discoverTimeout = 3 * time.Second

func (a *app) validate() error {
	if errs := a.cfg.Validate(); len(errs) > 0 {
		return fmt.Errorf("invalid config: %s", strings.Join(errs, "; "))
	}
	return nil
}

// backendClient builds the scheduler client, locating the backend over mDNS
// when no base URL is configured.
func (a *app) backendClient(ctx context.Context) (*backend.Client, error) {
	if err := a.validate(); err != nil {
		return nil, err
	}
	base := strings.TrimSpace(a.cfg.BackendURL)
	if base == "" {
		candidate, err := backend.Discover(ctx, backend.DiscoverOptions{
			Service: a.cfg.MDNSService,
			Timeout: discoverTimeout,
		})
		if err != nil {
			return nil, fmt.Errorf("discover backend: %w", err)
		}
		base = candidate.URL
	}
	client, err := backend.New(backend.Options{
		BaseURL:           base,
		Timeout:           a.cfg.RequestTimeout(),
		RequestsPerSecond: a.cfg.MaxRequestsPerSecond,
		UserAgent:         "jobdash/" + version.Current(),
	})
	if err != nil {
		return nil, fmt.Errorf("create backend client: %w", err)
	}
	return client, nil
}

func (a *app) openStore() (*store.Store, error) {
	st, err := store.Open(a.cfg.StateDB)
	if err != nil {
		return nil, fmt.Errorf("open state store: %w", err)
	}
	return st, nil
}

// refreshLog records completed cycles and trims the log to keep entries.
type refreshLog struct {
	store *store.Store
	keep  int
}

func (l refreshLog) RecordRefresh(ctx context.Context, rec store.RefreshRecord) error {
	if err := l.store.RecordRefresh(ctx, rec); err != nil {
		return err
	}
	if l.keep <= 0 {
		return nil
	}
	removed, err := l.store.PruneRefreshes(ctx, l.keep)
	if err != nil {
		return fmt.Errorf("prune refresh log: %w", err)
	}
	if removed > 0 {
		slog.Debug("pruned refresh log", "removed", removed, "keep", l.keep)
	}
	return nil
}

type sessionDeps struct {
	client      dashboard.Backend
	store       *store.Store
	autoRefresh bool
	alertSink   dashboard.AlertSink
	onRefresh   func(context.Context, dashboard.Trigger, dashboard.Snapshot, error)
}

func (a *app) newSession(deps sessionDeps) *dashboard.Session {
	opts := dashboard.Options{
		Backend:         deps.client,
		Days:            a.cfg.Days,
		PageSize:        a.cfg.PageSize,
		RefreshInterval: a.cfg.RefreshIntervalSeconds,
		AutoRefresh:     deps.autoRefresh,
		AlertSink:       deps.alertSink,
		OnRefresh:       deps.onRefresh,
	}
	if deps.store != nil {
		opts.State = deps.store
		opts.Recorder = refreshLog{store: deps.store, keep: a.cfg.RefreshLogKeep}
	}
	sess := dashboard.NewSession(opts)
	slog.Info("dashboard session created", "session_id", sess.ID(), "days", a.cfg.Days, "auto_refresh", deps.autoRefresh)
	return sess
}
