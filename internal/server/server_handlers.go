package server

import (
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/fboessen22/jobdash/internal/dashboard"
	"github.com/fboessen22/jobdash/internal/protocol"
	"github.com/fboessen22/jobdash/internal/server/httpx"
	"github.com/fboessen22/jobdash/internal/view"
)

type stateResponse struct {
	SessionID    string                `json:"session_id"`
	AutoRefresh  bool                  `json:"auto_refresh"`
	Countdown    int                   `json:"countdown"`
	Interval     int                   `json:"interval"`
	LastRefresh  string                `json:"last_refresh"`
	AlertSeq     uint64                `json:"alert_seq"`
	SoundEnabled bool                  `json:"sound_enabled"`
	DarkMode     bool                  `json:"dark_mode"`
	Stats        dashboard.Stats       `json:"stats"`
	StatsSource  string                `json:"stats_source"`
	JobsStatus   dashboard.PanelStatus `json:"jobs_status"`
	TotalJobs    int                   `json:"total_jobs"`
	Version      string                `json:"version,omitempty"`
}

func healthzHandler(w http.ResponseWriter, r *http.Request) {
	httpx.WriteJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) indexHandler(w http.ResponseWriter, r *http.Request) {
	renderHTML(w, http.StatusOK, view.DashboardPage(s.session.Snapshot()))
}

func (s *Server) stateHandler(w http.ResponseWriter, r *http.Request) {
	snap := s.session.Snapshot()
	httpx.WriteJSON(w, http.StatusOK, stateResponse{
		SessionID:    snap.SessionID,
		AutoRefresh:  snap.Refresh.Enabled,
		Countdown:    snap.Refresh.Countdown,
		Interval:     snap.Refresh.Interval,
		LastRefresh:  view.RefreshToken(snap.LastRefresh),
		AlertSeq:     snap.LastAlert.Seq,
		SoundEnabled: snap.Preferences.SoundEnabled,
		DarkMode:     snap.Preferences.DarkMode,
		Stats:        snap.Stats,
		StatsSource:  snap.StatsSource,
		JobsStatus:   snap.JobsStatus,
		TotalJobs:    snap.TotalJobs,
		Version:      s.version,
	})
}

func (s *Server) snapshotHandler(w http.ResponseWriter, r *http.Request) {
	httpx.WriteJSON(w, http.StatusOK, s.session.Snapshot())
}

func (s *Server) refreshesHandler(w http.ResponseWriter, r *http.Request) {
	if s.refreshes == nil {
		httpx.WriteJSON(w, http.StatusOK, map[string]any{"refreshes": []any{}})
		return
	}
	limit := 50
	if raw := r.URL.Query().Get("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 1 {
			httpx.WriteError(w, http.StatusBadRequest, "invalid limit")
			return
		}
		limit = n
	}
	recs, err := s.refreshes.ListRefreshes(r.Context(), limit)
	if err != nil {
		httpx.WriteError(w, http.StatusInternalServerError, err.Error())
		return
	}
	type refreshView struct {
		Trigger    string    `json:"trigger"`
		Days       int       `json:"days"`
		Jobs       int       `json:"jobs"`
		Failed     int       `json:"failed"`
		Succeeded  int       `json:"succeeded"`
		Total      int       `json:"total"`
		Error      string    `json:"error,omitempty"`
		StartedUTC time.Time `json:"started_utc"`
		DurationMS int64     `json:"duration_ms"`
	}
	out := make([]refreshView, 0, len(recs))
	for _, rec := range recs {
		out = append(out, refreshView{
			Trigger:    rec.Trigger,
			Days:       rec.Days,
			Jobs:       rec.Jobs,
			Failed:     rec.Failed,
			Succeeded:  rec.Succeeded,
			Total:      rec.Total,
			Error:      rec.Error,
			StartedUTC: rec.StartedUTC,
			DurationMS: rec.Duration().Milliseconds(),
		})
	}
	httpx.WriteJSON(w, http.StatusOK, map[string]any{"refreshes": out})
}

func (s *Server) refreshHandler(w http.ResponseWriter, r *http.Request) {
	err := s.session.Refresh(r.Context())
	logAction(r, "refresh", err)
	backToIndex(w, r)
}

func (s *Server) autoRefreshHandler(w http.ResponseWriter, r *http.Request) {
	enabled := formBool(r, "enabled")
	s.session.SetAutoRefresh(s.base, enabled)
	logAction(r, "auto_refresh", nil, "enabled", enabled)
	backToIndex(w, r)
}

func (s *Server) prefsHandler(w http.ResponseWriter, r *http.Request) {
	prefs := s.session.Preferences()
	var err error
	if dark := formBool(r, "dark_mode"); dark != prefs.DarkMode {
		err = s.session.SetDarkMode(dark)
	}
	if sound := formBool(r, "sound_enabled"); sound != prefs.SoundEnabled {
		err = errors.Join(err, s.session.SetSoundEnabled(sound))
	}
	logAction(r, "preferences", err)
	backToIndex(w, r)
}

func (s *Server) filterHandler(w http.ResponseWriter, r *http.Request) {
	current := s.session.Filter()
	days := current.DaysWindow
	if formString(r, "days") != "" {
		n, err := formInt(r, "days")
		if err != nil || n < 0 {
			http.Error(w, "invalid days", http.StatusBadRequest)
			return
		}
		days = n
	}
	err := s.session.ApplyFilter(r.Context(), dashboard.FilterUpdate{
		Category:       formString(r, "category"),
		SearchTerm:     formString(r, "search"),
		Days:           days,
		ShowOnlyFailed: formBool(r, "failed_only"),
	})
	logAction(r, "filter", err, "days", days)
	backToIndex(w, r)
}

func (s *Server) pageHandler(w http.ResponseWriter, r *http.Request) {
	page, err := formInt(r, "page")
	if err != nil {
		http.Error(w, "invalid page", http.StatusBadRequest)
		return
	}
	s.session.GoToPage(page)
	backToIndex(w, r)
}

func (s *Server) stepsExpandHandler(w http.ResponseWriter, r *http.Request) {
	id, ok := instanceID(w, r)
	if !ok {
		return
	}
	_, err := s.session.ExpandSteps(r.Context(), id)
	logAction(r, "expand_steps", err, "instance_id", id)
	backToIndex(w, r)
}

func (s *Server) stepsCollapseHandler(w http.ResponseWriter, r *http.Request) {
	id, ok := instanceID(w, r)
	if !ok {
		return
	}
	s.session.CollapseSteps(id)
	backToIndex(w, r)
}

func (s *Server) historyExpandHandler(w http.ResponseWriter, r *http.Request) {
	job := formString(r, "job")
	if job == "" {
		http.Error(w, "job is required", http.StatusBadRequest)
		return
	}
	_, err := s.session.ExpandHistory(r.Context(), job)
	logAction(r, "expand_history", err, "job_name", job)
	backToIndex(w, r)
}

func (s *Server) historyCollapseHandler(w http.ResponseWriter, r *http.Request) {
	job := formString(r, "job")
	if job == "" {
		http.Error(w, "job is required", http.StatusBadRequest)
		return
	}
	s.session.CollapseHistory(job)
	backToIndex(w, r)
}

func (s *Server) externalHandler(w http.ResponseWriter, r *http.Request) {
	id, stepID, ok := stepRef(w, r)
	if !ok {
		return
	}
	_, err := s.session.OpenExternal(r.Context(), id, stepID)
	if errors.Is(err, dashboard.ErrStepNotFound) || errors.Is(err, dashboard.ErrNoExternalInfo) {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	logAction(r, "open_external", err, "instance_id", id, "step_id", stepID)
	backToIndex(w, r)
}

func (s *Server) executionHandler(w http.ResponseWriter, r *http.Request) {
	id := protocol.Opaque(formString(r, "execution_id"))
	if id.IsZero() {
		http.Error(w, "execution_id is required", http.StatusBadRequest)
		return
	}
	showAll := formBool(r, "show_all")
	_, err := s.session.OpenExecution(r.Context(), id, formString(r, "step_name"), showAll)
	logAction(r, "open_execution", err, "execution_id", id, "show_all", showAll)
	backToIndex(w, r)
}

func (s *Server) scriptHandler(w http.ResponseWriter, r *http.Request) {
	id, stepID, ok := stepRef(w, r)
	if !ok {
		return
	}
	if _, err := s.session.OpenScript(id, stepID); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	backToIndex(w, r)
}

func (s *Server) modalCloseHandler(w http.ResponseWriter, r *http.Request) {
	s.session.CloseModal()
	backToIndex(w, r)
}

func instanceID(w http.ResponseWriter, r *http.Request) (protocol.Opaque, bool) {
	id := protocol.Opaque(formString(r, "instance_id"))
	if id.IsZero() {
		http.Error(w, "instance_id is required", http.StatusBadRequest)
		return "", false
	}
	return id, true
}

func stepRef(w http.ResponseWriter, r *http.Request) (protocol.Opaque, int, bool) {
	id, ok := instanceID(w, r)
	if !ok {
		return "", 0, false
	}
	stepID, err := formInt(r, "step_id")
	if err != nil || stepID < 0 {
		http.Error(w, "invalid step_id", http.StatusBadRequest)
		return "", 0, false
	}
	return id, stepID, true
}
