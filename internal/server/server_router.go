package server

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/fboessen22/jobdash/internal/view"
)

func buildRouter(s *Server) http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)

	// Page
	r.Get(view.PathIndex, s.indexHandler)

	// Health/state
	r.Get("/healthz", healthzHandler)
	r.Get(view.PathState, s.stateHandler)
	r.Get("/api/snapshot", s.snapshotHandler)
	r.Get("/api/refreshes", s.refreshesHandler)

	// Session actions
	r.Post(view.PathRefresh, s.refreshHandler)
	r.Post(view.PathAutoRefresh, s.autoRefreshHandler)
	r.Post(view.PathPrefs, s.prefsHandler)
	r.Post(view.PathFilter, s.filterHandler)
	r.Post(view.PathPage, s.pageHandler)

	// Drill-down
	r.Post(view.PathStepsExpand, s.stepsExpandHandler)
	r.Post(view.PathStepsCollapse, s.stepsCollapseHandler)
	r.Post(view.PathHistoryExpand, s.historyExpandHandler)
	r.Post(view.PathHistoryCollapse, s.historyCollapseHandler)

	// Modal
	r.Post(view.PathExternal, s.externalHandler)
	r.Post(view.PathExecution, s.executionHandler)
	r.Post(view.PathScript, s.scriptHandler)
	r.Post(view.PathModalClose, s.modalCloseHandler)

	return r
}
