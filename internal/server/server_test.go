package server

import (
	"encoding/json"
	"net"
	"net/http"
	"net/url"
	"strings"
	"testing"

	"github.com/fboessen22/jobdash/internal/dashboard"
)

func TestHealthzHandler(t *testing.T) {
	env := newTestEnv(t)
	rec := env.get(t, "/healthz")
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), `"status":"ok"`) {
		t.Fatalf("unexpected body: %s", rec.Body.String())
	}
}

func TestIndexRendersEscapedJobs(t *testing.T) {
	env := newTestEnv(t)
	rec := env.get(t, "/")
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	if ct := rec.Header().Get("Content-Type"); !strings.HasPrefix(ct, "text/html") {
		t.Fatalf("unexpected content type %q", ct)
	}
	body := rec.Body.String()
	if strings.Contains(body, "<script>alert(1)") {
		t.Fatalf("job name rendered as markup")
	}
	if !strings.Contains(body, "&lt;script&gt;alert(1)&lt;/script&gt;") {
		t.Fatalf("escaped job name missing")
	}
	if !strings.Contains(body, "All Categories (1 failed)") {
		t.Fatalf("category counts missing")
	}
}

func TestStateEndpoint(t *testing.T) {
	env := newTestEnv(t)
	rec := env.get(t, "/api/state")
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	var st stateResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &st); err != nil {
		t.Fatalf("decode state: %v", err)
	}
	if st.SessionID != env.session.ID() || st.TotalJobs != 2 || st.LastRefresh == "" {
		t.Fatalf("unexpected state: %+v", st)
	}
	if st.StatsSource != dashboard.StatsSourceServer || st.Stats.Failed != 1 {
		t.Fatalf("unexpected stats: %+v", st)
	}
	if !st.SoundEnabled || st.AutoRefresh {
		t.Fatalf("unexpected defaults: %+v", st)
	}
}

func TestFilterPostRedirectsAndScopesStats(t *testing.T) {
	env := newTestEnv(t)

	rec := env.post(t, "/filter", url.Values{"category": {"Reports"}, "search": {""}, "days": {"0"}})
	expectRedirect(t, rec)

	snap := env.session.Snapshot()
	if snap.Filter.Category != "Reports" {
		t.Fatalf("category not applied: %+v", snap.Filter)
	}
	if snap.StatsSource != dashboard.StatsSourceLocal || snap.Stats.Total != 1 || snap.Stats.Succeeded != 1 {
		t.Fatalf("expected local stats for category scope, got %s %+v", snap.StatsSource, snap.Stats)
	}
	if got := env.scheduler.jobsCalls.Load(); got != 1 {
		t.Fatalf("unchanged day window should not refetch, jobs calls=%d", got)
	}

	rec = env.post(t, "/filter", url.Values{"category": {"Reports"}, "days": {"7"}})
	expectRedirect(t, rec)
	if got := env.scheduler.jobsCalls.Load(); got != 2 {
		t.Fatalf("day window change should refetch, jobs calls=%d", got)
	}

	rec = env.post(t, "/filter", url.Values{"days": {"-3"}})
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("negative days should be rejected, got %d", rec.Code)
	}
}

func TestStepsExternalAndScriptFlow(t *testing.T) {
	env := newTestEnv(t)

	expectRedirect(t, env.post(t, "/steps/expand", url.Values{"instance_id": {"101"}}))
	body := env.get(t, "/").Body.String()
	if !strings.Contains(body, "Hide Steps") || !strings.Contains(body, "(Job Outcome)") {
		t.Fatalf("steps panel not rendered")
	}

	expectRedirect(t, env.post(t, "/external", url.Values{"instance_id": {"101"}, "step_id": {"1"}}))
	m := env.session.Modal()
	if m.Kind != dashboard.ModalPackageExecutions || m.Lookup == nil || len(m.Lookup.Candidates) != 1 {
		t.Fatalf("unexpected modal: %+v", m)
	}
	if !m.Lookup.FailedOnly || !m.Lookup.Uncertain {
		t.Fatalf("failed step lookup should be failed-only and uncertain: %+v", m.Lookup)
	}

	expectRedirect(t, env.post(t, "/execution", url.Values{"execution_id": {"9001"}, "step_name": {"load"}, "show_all": {"false"}}))
	m = env.session.Modal()
	if m.Kind != dashboard.ModalExecution || m.Execution == nil || len(m.Execution.Messages) != 1 {
		t.Fatalf("expected one visible message, got %+v", m.Execution)
	}
	expectRedirect(t, env.post(t, "/execution", url.Values{"execution_id": {"9001"}, "step_name": {"load"}, "show_all": {"true"}}))
	if m = env.session.Modal(); len(m.Execution.Messages) != 2 {
		t.Fatalf("show all should list every message, got %d", len(m.Execution.Messages))
	}

	expectRedirect(t, env.post(t, "/script", url.Values{"instance_id": {"101"}, "step_id": {"2"}}))
	body = env.get(t, "/").Body.String()
	if !strings.Contains(body, "T-SQL Script - cleanup") || !strings.Contains(body, "id &lt; 10") {
		t.Fatalf("script modal not rendered escaped")
	}

	expectRedirect(t, env.post(t, "/modal/close", nil))
	if env.session.Modal().Open() {
		t.Fatalf("modal should be closed")
	}

	expectRedirect(t, env.post(t, "/steps/collapse", url.Values{"instance_id": {"101"}}))
	if body = env.get(t, "/").Body.String(); strings.Contains(body, "Hide Steps") {
		t.Fatalf("steps panel should be collapsed")
	}
}

func TestDrillDownRejectsBadInput(t *testing.T) {
	env := newTestEnv(t)

	tests := []struct {
		path string
		form url.Values
	}{
		{"/steps/expand", url.Values{}},
		{"/external", url.Values{"instance_id": {"101"}, "step_id": {"x"}}},
		{"/external", url.Values{"instance_id": {"999"}, "step_id": {"1"}}},
		{"/script", url.Values{"instance_id": {"101"}, "step_id": {"1"}}},
		{"/execution", url.Values{}},
		{"/history/expand", url.Values{}},
		{"/page", url.Values{"page": {"two"}}},
	}
	for _, tc := range tests {
		rec := env.post(t, tc.path, tc.form)
		if rec.Code != http.StatusBadRequest {
			t.Fatalf("%s %v: expected 400, got %d", tc.path, tc.form, rec.Code)
		}
	}
}

func TestHistoryExpandAndCollapse(t *testing.T) {
	env := newTestEnv(t)

	expectRedirect(t, env.post(t, "/history/expand", url.Values{"job": {"nightly"}}))
	body := env.get(t, "/").Body.String()
	if !strings.Contains(body, "Hide History") || !strings.Contains(body, "render") {
		t.Fatalf("history panel not rendered")
	}
	expectRedirect(t, env.post(t, "/history/collapse", url.Values{"job": {"nightly"}}))
	if body = env.get(t, "/").Body.String(); strings.Contains(body, "Hide History") {
		t.Fatalf("history panel should be collapsed")
	}
}

func TestPrefsPersist(t *testing.T) {
	env := newTestEnv(t)

	expectRedirect(t, env.post(t, "/prefs", url.Values{"dark_mode": {"true"}, "sound_enabled": {"false"}}))
	prefs := env.session.Preferences()
	if !prefs.DarkMode || prefs.SoundEnabled {
		t.Fatalf("prefs not applied: %+v", prefs)
	}
	stored, err := dashboard.LoadPreferences(env.store)
	if err != nil {
		t.Fatalf("load prefs: %v", err)
	}
	if stored != prefs {
		t.Fatalf("stored prefs %+v, session prefs %+v", stored, prefs)
	}
	if body := env.get(t, "/").Body.String(); !strings.Contains(body, `class="theme-dark"`) {
		t.Fatalf("dark theme not rendered")
	}
}

func TestAutoRefreshToggleAndRefreshLog(t *testing.T) {
	env := newTestEnv(t)

	expectRedirect(t, env.post(t, "/auto-refresh", url.Values{"enabled": {"true"}}))
	if st := env.session.RefreshState(); !st.Enabled || st.Countdown != st.Interval {
		t.Fatalf("auto-refresh not armed: %+v", st)
	}
	expectRedirect(t, env.post(t, "/auto-refresh", url.Values{"enabled": {"false"}}))
	if st := env.session.RefreshState(); st.Enabled || st.Countdown != 0 {
		t.Fatalf("auto-refresh not stopped: %+v", st)
	}

	expectRedirect(t, env.post(t, "/refresh", nil))
	rec := env.get(t, "/api/refreshes?limit=10")
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	var out struct {
		Refreshes []struct {
			Trigger string `json:"trigger"`
			Jobs    int    `json:"jobs"`
		} `json:"refreshes"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &out); err != nil {
		t.Fatalf("decode refreshes: %v", err)
	}
	if len(out.Refreshes) != 2 || out.Refreshes[0].Trigger != "manual" || out.Refreshes[1].Trigger != "initial" {
		t.Fatalf("unexpected refresh log: %+v", out.Refreshes)
	}
	if rec := env.get(t, "/api/refreshes?limit=0"); rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 for bad limit, got %d", rec.Code)
	}
}

func TestMethodGuard(t *testing.T) {
	env := newTestEnv(t)
	if rec := env.get(t, "/refresh"); rec.Code != http.StatusMethodNotAllowed {
		t.Fatalf("expected 405 for GET /refresh, got %d", rec.Code)
	}
}

func TestListenPortFromAddr(t *testing.T) {
	t.Parallel()
	tests := map[string]string{
		"":               "8113",
		":9000":          "9000",
		"127.0.0.1:8080": "8080",
		"[::1]:7000":     "7000",
		"8081":           "8081",
		"bad:addr:x":     "",
	}
	for in, want := range tests {
		if got := listenPortFromAddr(in); got != want {
			t.Fatalf("listenPortFromAddr(%q) = %q, want %q", in, got, want)
		}
	}
}

func TestFilterAdvertiseIPs(t *testing.T) {
	t.Parallel()
	mk := func(s string) net.Addr {
		return &net.IPNet{IP: net.ParseIP(s), Mask: net.CIDRMask(24, 32)}
	}
	got := filterAdvertiseIPs([]net.Addr{
		mk("127.0.0.1"),
		mk("fd00::5"),
		mk("192.168.1.20"),
		mk("169.254.1.1"),
		mk("192.168.1.20"),
		mk("fe80::1"),
	})
	if len(got) != 2 {
		t.Fatalf("expected 2 addresses, got %v", got)
	}
	if got[0].String() != "192.168.1.20" || got[1].String() != "fd00::5" {
		t.Fatalf("unexpected order: %v", got)
	}
}
