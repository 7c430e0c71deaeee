package dashboard

import (
	"context"

	"github.com/fboessen22/jobdash/internal/protocol"
)

// HistoryRun is one past run of a job: its outcome row plus step rows.
type HistoryRun struct {
	Key          string                   `json:"key"`
	RunTimestamp string                   `json:"run_timestamp"`
	Outcome      *protocol.HistoryRecord  `json:"outcome,omitempty"`
	Steps        []protocol.HistoryRecord `json:"steps"`
}

func (r HistoryRun) Status() string {
	if r.Outcome == nil {
		return "Unknown"
	}
	if r.Outcome.StatusText != "" {
		return r.Outcome.StatusText
	}
	return protocol.RunStatusText(r.Outcome.RunStatus)
}

func (r HistoryRun) Category() protocol.RunCategory {
	if r.Outcome == nil {
		return protocol.RunCategoryUnknown
	}
	return protocol.ClassifyRunStatus(r.Outcome.RunStatus)
}

// GroupHistory groups step rows into runs keyed by run date and time,
// keeping the order in which runs first appear.
func GroupHistory(records []protocol.HistoryRecord) []HistoryRun {
	index := map[string]int{}
	var runs []HistoryRun
	for _, rec := range records {
		key := rec.RunKey()
		i, ok := index[key]
		if !ok {
			i = len(runs)
			index[key] = i
			runs = append(runs, HistoryRun{Key: key, RunTimestamp: rec.RunTimestamp, Steps: []protocol.HistoryRecord{}})
		}
		if rec.StepID == 0 {
			outcome := rec
			runs[i].Outcome = &outcome
			continue
		}
		runs[i].Steps = append(runs[i].Steps, rec)
	}
	return runs
}

type HistoryPanel struct {
	JobName  string       `json:"job_name"`
	Expanded bool         `json:"expanded"`
	Status   PanelStatus  `json:"status"`
	Runs     []HistoryRun `json:"runs,omitempty"`
}

type historyEntry struct {
	expanded bool
	loaded   bool
	status   PanelStatus
	runs     []HistoryRun
}

func (e *historyEntry) panel(jobName string) HistoryPanel {
	return HistoryPanel{JobName: jobName, Expanded: e.expanded, Status: e.status, Runs: e.runs}
}

func (d *DrillDown) historyEntryLocked(jobName string) *historyEntry {
	e, ok := d.history[jobName]
	if !ok {
		e = &historyEntry{status: PanelStatus{State: PanelIdle}}
		d.history[jobName] = e
	}
	return e
}

func (d *DrillDown) ExpandHistory(ctx context.Context, jobName string) (HistoryPanel, error) {
	d.mu.Lock()
	e := d.historyEntryLocked(jobName)
	e.expanded = true
	if e.loaded {
		p := e.panel(jobName)
		d.mu.Unlock()
		return p, nil
	}
	e.status = PanelStatus{State: PanelLoading}
	d.mu.Unlock()

	_, err, _ := d.flight.Do("history:"+jobName, func() (any, error) {
		records, err := d.backend.JobHistory(context.WithoutCancel(ctx), jobName)
		d.mu.Lock()
		defer d.mu.Unlock()
		e := d.historyEntryLocked(jobName)
		if err != nil {
			ferr := &FetchError{Panel: "history", Err: err}
			e.status = failedPanel(ferr)
			return nil, ferr
		}
		e.runs = GroupHistory(records)
		e.loaded = true
		e.status = readyOrEmpty(len(e.runs))
		return nil, nil
	})

	d.mu.Lock()
	defer d.mu.Unlock()
	return d.historyEntryLocked(jobName).panel(jobName), err
}

func (d *DrillDown) CollapseHistory(jobName string) HistoryPanel {
	d.mu.Lock()
	defer d.mu.Unlock()
	e, ok := d.history[jobName]
	if !ok {
		return HistoryPanel{JobName: jobName, Status: PanelStatus{State: PanelIdle}}
	}
	e.expanded = false
	return e.panel(jobName)
}

func (d *DrillDown) HistoryPanel(jobName string) (HistoryPanel, bool) {
	d.mu.Lock()
	defer d.mu.Unlock()
	e, ok := d.history[jobName]
	if !ok {
		return HistoryPanel{}, false
	}
	return e.panel(jobName), true
}

// PruneHistory drops history panels for jobs no longer in the collection.
func (d *DrillDown) PruneHistory(present map[string]struct{}) {
	d.mu.Lock()
	defer d.mu.Unlock()
	for name := range d.history {
		if _, ok := present[name]; !ok {
			delete(d.history, name)
		}
	}
}
