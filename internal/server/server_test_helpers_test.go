package server

import (
	"context"
	"net/http"
	"net/http/httptest"
	"net/url"
	"path/filepath"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/fboessen22/jobdash/internal/backend"
	"github.com/fboessen22/jobdash/internal/dashboard"
	"github.com/fboessen22/jobdash/internal/store"
)

type idleTicker struct {
	ch chan time.Time
}

func (t idleTicker) C() <-chan time.Time { return t.ch }
func (t idleTicker) Stop()               {}

const testJobsJSON = `[
  {"job_name":"<script>alert(1)</script>","category_name":"ETL","run_status":0,"status_text":"Failed","last_run":"2026-10-14 08:00:00","message":"boom","instance_id":101},
  {"job_name":"nightly","category_name":"Reports","run_status":1,"status_text":"Succeeded","last_run":"2026-10-14 07:00:00","instance_id":"102"}
]`

const testStepsJSON = `{"job_name":"<script>alert(1)</script>","steps":[
  {"step_id":0,"step_name":"(Job outcome)","run_status":0},
  {"step_id":1,"step_name":"load","run_status":0,"ssis_package_path":"\\Folder\\Load.dtsx"},
  {"step_id":2,"step_name":"cleanup","run_status":1,"subsystem":"TSQL","command":"DELETE FROM staging WHERE id < 10"}
]}`

type fakeScheduler struct {
	jobsCalls atomic.Int32
}

func (f *fakeScheduler) handler(t *testing.T) http.Handler {
	t.Helper()
	mux := http.NewServeMux()
	write := func(w http.ResponseWriter, body string) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(body))
	}
	mux.HandleFunc("/api/config", func(w http.ResponseWriter, r *http.Request) {
		write(w, `{"default_category":""}`)
	})
	mux.HandleFunc("/api/categories", func(w http.ResponseWriter, r *http.Request) {
		write(w, `["ETL","Reports"]`)
	})
	mux.HandleFunc("/api/jobs", func(w http.ResponseWriter, r *http.Request) {
		f.jobsCalls.Add(1)
		write(w, testJobsJSON)
	})
	mux.HandleFunc("/api/jobs/stats", func(w http.ResponseWriter, r *http.Request) {
		write(w, `{"total_executions":2,"failed_count":1,"succeeded_count":1,"success_rate":50}`)
	})
	mux.HandleFunc("/api/job/steps/101", func(w http.ResponseWriter, r *http.Request) {
		write(w, testStepsJSON)
	})
	mux.HandleFunc("/api/job/history/nightly", func(w http.ResponseWriter, r *http.Request) {
		write(w, `[{"run_date":20261014,"run_time":70000,"run_timestamp":"2026-10-14 07:00:00","run_status":1,"step_id":0,"step_name":"(Job outcome)"},
		           {"run_date":20261014,"run_time":70000,"run_status":1,"step_id":1,"step_name":"render"}]`)
	})
	mux.HandleFunc("/api/ssis/executions-by-package", func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Query().Get("failed_only") != "true" {
			http.Error(w, `{"error":"expected failed_only"}`, http.StatusBadRequest)
			return
		}
		write(w, `[{"execution_id":9001,"package_name":"Load.dtsx","status":4,"start_time":"2026-10-14 08:00:00"}]`)
	})
	mux.HandleFunc("/api/ssis/execution/9001", func(w http.ResponseWriter, r *http.Request) {
		write(w, `{"overview":{"execution_id":9001,"package_name":"Load.dtsx","status":4},
		           "messages":[{"message_time":"2026-10-14 08:00:01","message_type":120,"message":"disk full"},
		                       {"message_time":"2026-10-14 08:00:00","message_type":70,"message":"starting"}]}`)
	})
	return mux
}

type testEnv struct {
	server    *Server
	session   *dashboard.Session
	store     *store.Store
	scheduler *fakeScheduler
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()

	sched := &fakeScheduler{}
	upstream := httptest.NewServer(sched.handler(t))
	t.Cleanup(upstream.Close)

	client, err := backend.New(backend.Options{BaseURL: upstream.URL, Timeout: 5 * time.Second})
	if err != nil {
		t.Fatalf("new backend client: %v", err)
	}
	db, err := store.Open(filepath.Join(t.TempDir(), "state.db"))
	if err != nil {
		t.Fatalf("open store: %v", err)
	}
	t.Cleanup(func() { _ = db.Close() })

	sess := dashboard.NewSession(dashboard.Options{
		Backend:   client,
		State:     db,
		Recorder:  db,
		NewTicker: func(time.Duration) dashboard.Ticker { return idleTicker{ch: make(chan time.Time)} },
	})
	t.Cleanup(sess.Close)
	if err := sess.Start(context.Background()); err != nil {
		t.Fatalf("start session: %v", err)
	}

	srv := New(context.Background(), Options{Session: sess, Refreshes: db, Version: "test"})
	return &testEnv{server: srv, session: sess, store: db, scheduler: sched}
}

func (e *testEnv) get(t *testing.T, path string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodGet, path, nil)
	rec := httptest.NewRecorder()
	e.server.Handler().ServeHTTP(rec, req)
	return rec
}

func (e *testEnv) post(t *testing.T, path string, form url.Values) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodPost, path, strings.NewReader(form.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	rec := httptest.NewRecorder()
	e.server.Handler().ServeHTTP(rec, req)
	return rec
}

func expectRedirect(t *testing.T, rec *httptest.ResponseRecorder) {
	t.Helper()
	if rec.Code != http.StatusSeeOther {
		t.Fatalf("expected 303, got %d body=%s", rec.Code, rec.Body.String())
	}
	if loc := rec.Header().Get("Location"); loc != "/" {
		t.Fatalf("expected redirect to /, got %q", loc)
	}
}
