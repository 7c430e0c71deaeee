package server

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/fboessen22/jobdash/internal/dashboard"
	"github.com/fboessen22/jobdash/internal/store"
)

// RefreshLister reads the persisted refresh log.
type RefreshLister interface {
	ListRefreshes(ctx context.Context, limit int) ([]store.RefreshRecord, error)
}

type Options struct {
	Addr      string
	Session   *dashboard.Session
	Refreshes RefreshLister

	// Advertise publishes the dashboard on mDNS under AdvertiseService,
	// which defaults to _jobdash-ui._tcp.
	Advertise        bool
	AdvertiseService string
	MDNSInstance     string
	Version          string
}

// Server hosts the dashboard views of one operator session.
type Server struct {
	session   *dashboard.Session
	refreshes RefreshLister
	version   string

	// base outlives individual requests; auto-refresh loops started from a
	// request run under it.
	base context.Context
}

func New(ctx context.Context, opts Options) *Server {
	return &Server{
		session:   opts.Session,
		refreshes: opts.Refreshes,
		version:   opts.Version,
		base:      ctx,
	}
}

func (s *Server) Handler() http.Handler {
	return buildRouter(s)
}

// Run serves until ctx is cancelled, then shuts down gracefully.
func Run(ctx context.Context, opts Options) error {
	if opts.Session == nil {
		return errors.New("server requires a dashboard session")
	}
	addr := opts.Addr
	if addr == "" {
		addr = defaultListenAddr
	}

	s := New(ctx, opts)
	srv := &http.Server{
		Addr:              addr,
		Handler:           s.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	stopMDNS := func() {}
	if opts.Advertise {
		stopMDNS = startMDNSAdvertiser(addr, opts.AdvertiseService, opts.MDNSInstance, opts.Version)
	}
	defer stopMDNS()

	errCh := make(chan error, 1)
	go func() {
		slog.Info("jobdash server started", "addr", addr, "session_id", opts.Session.ID())
		err := srv.ListenAndServe()
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- fmt.Errorf("listen and serve: %w", err)
			return
		}
		errCh <- nil
	}()

	select {
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("shutdown server: %w", err)
		}
		slog.Info("jobdash server stopped")
		return nil
	case err := <-errCh:
		if err != nil {
			return err
		}
		slog.Info("jobdash server stopped")
		return nil
	}
}
