package dashboard

import (
	"context"
	"fmt"

	"github.com/fboessen22/jobdash/internal/protocol"
)

const SubsystemTSQL = "TSQL"

type StepView struct {
	protocol.StepRecord
	Label       string `json:"label"`
	Status      string `json:"status"`
	HasExternal bool   `json:"has_external"`
	HasScript   bool   `json:"has_script"`
}

func StepLabel(step protocol.StepRecord) string {
	if step.IsOutcome() {
		return "(Job Outcome)"
	}
	return fmt.Sprintf("Step %d", step.StepID)
}

// HasExternalReference reports whether an executed step points at an
// external package execution, directly or by package path.
func HasExternalReference(step protocol.StepRecord) bool {
	return (!step.SSISExecutionID.IsZero() || step.SSISPackagePath != "") && step.WasExecuted()
}

func HasScript(step protocol.StepRecord) bool {
	return step.Subsystem == SubsystemTSQL && step.Command != ""
}

func NewStepView(step protocol.StepRecord) StepView {
	return StepView{
		StepRecord:  step,
		Label:       StepLabel(step),
		Status:      step.DisplayStatus(),
		HasExternal: HasExternalReference(step),
		HasScript:   HasScript(step),
	}
}

// NormalizeSteps keeps the first occurrence of each step id in order.
func NormalizeSteps(steps []protocol.StepRecord) []protocol.StepRecord {
	seen := make(map[int]struct{}, len(steps))
	out := make([]protocol.StepRecord, 0, len(steps))
	for _, step := range steps {
		if _, dup := seen[step.StepID]; dup {
			continue
		}
		seen[step.StepID] = struct{}{}
		out = append(out, step)
	}
	return out
}

type StepPanel struct {
	InstanceID protocol.Opaque `json:"instance_id"`
	JobName    string          `json:"job_name,omitempty"`
	Expanded   bool            `json:"expanded"`
	Status     PanelStatus     `json:"status"`
	Steps      []StepView      `json:"steps,omitempty"`
}

type stepEntry struct {
	expanded bool
	loaded   bool
	status   PanelStatus
	resp     protocol.StepsResponse
}

func (e *stepEntry) panel(id protocol.Opaque) StepPanel {
	p := StepPanel{InstanceID: id, Expanded: e.expanded, Status: e.status, JobName: e.resp.JobName}
	if e.loaded {
		p.Steps = make([]StepView, 0, len(e.resp.Steps))
		for _, step := range e.resp.Steps {
			p.Steps = append(p.Steps, NewStepView(step))
		}
	}
	return p
}

func (d *DrillDown) stepEntryLocked(id protocol.Opaque) *stepEntry {
	e, ok := d.steps[id]
	if !ok {
		e = &stepEntry{status: PanelStatus{State: PanelIdle}}
		d.steps[id] = e
	}
	return e
}

// ExpandSteps opens the step panel for a run, fetching its steps on first
// use. Concurrent expansions share one request; failures are not cached.
func (d *DrillDown) ExpandSteps(ctx context.Context, id protocol.Opaque) (StepPanel, error) {
	if id.IsZero() {
		return StepPanel{}, ErrNoDrillDown
	}
	d.mu.Lock()
	e := d.stepEntryLocked(id)
	e.expanded = true
	if e.loaded {
		p := e.panel(id)
		d.mu.Unlock()
		return p, nil
	}
	e.status = PanelStatus{State: PanelLoading}
	d.mu.Unlock()

	_, err, _ := d.flight.Do("steps:"+id.String(), func() (any, error) {
		return nil, d.loadSteps(context.WithoutCancel(ctx), id)
	})

	d.mu.Lock()
	defer d.mu.Unlock()
	return d.stepEntryLocked(id).panel(id), err
}

func (d *DrillDown) loadSteps(ctx context.Context, id protocol.Opaque) error {
	resp, err := d.backend.JobSteps(ctx, id)
	d.mu.Lock()
	defer d.mu.Unlock()
	e := d.stepEntryLocked(id)
	if err != nil {
		ferr := &FetchError{Panel: "steps", Err: err}
		e.status = failedPanel(ferr)
		return ferr
	}
	resp.Steps = NormalizeSteps(resp.Steps)
	e.resp = resp
	e.loaded = true
	e.status = readyOrEmpty(len(resp.Steps))
	return nil
}

func (d *DrillDown) CollapseSteps(id protocol.Opaque) StepPanel {
	d.mu.Lock()
	defer d.mu.Unlock()
	e, ok := d.steps[id]
	if !ok {
		return StepPanel{InstanceID: id, Status: PanelStatus{State: PanelIdle}}
	}
	e.expanded = false
	return e.panel(id)
}

func (d *DrillDown) ToggleSteps(ctx context.Context, id protocol.Opaque) (StepPanel, error) {
	d.mu.Lock()
	e, ok := d.steps[id]
	open := ok && e.expanded
	d.mu.Unlock()
	if open {
		return d.CollapseSteps(id), nil
	}
	return d.ExpandSteps(ctx, id)
}

func (d *DrillDown) StepPanel(id protocol.Opaque) (StepPanel, bool) {
	d.mu.Lock()
	defer d.mu.Unlock()
	e, ok := d.steps[id]
	if !ok {
		return StepPanel{}, false
	}
	return e.panel(id), true
}

// Step looks up a loaded step of a run.
func (d *DrillDown) Step(id protocol.Opaque, stepID int) (protocol.StepRecord, string, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	e, ok := d.steps[id]
	if !ok || !e.loaded {
		return protocol.StepRecord{}, "", fmt.Errorf("%w: run %s step %d", ErrStepNotFound, id, stepID)
	}
	for _, step := range e.resp.Steps {
		if step.StepID == stepID {
			return step, e.resp.JobName, nil
		}
	}
	return protocol.StepRecord{}, "", fmt.Errorf("%w: run %s step %d", ErrStepNotFound, id, stepID)
}

// PruneSteps drops cached step panels for runs no longer in the collection.
func (d *DrillDown) PruneSteps(present map[protocol.Opaque]struct{}) int {
	d.mu.Lock()
	defer d.mu.Unlock()
	removed := 0
	for id := range d.steps {
		if _, ok := present[id]; !ok {
			delete(d.steps, id)
			removed++
		}
	}
	return removed
}

type ScriptView struct {
	JobName  string `json:"job_name"`
	StepID   int    `json:"step_id"`
	StepName string `json:"step_name"`
	Command  string `json:"command"`
}

func (d *DrillDown) Script(id protocol.Opaque, stepID int) (ScriptView, error) {
	step, jobName, err := d.Step(id, stepID)
	if err != nil {
		return ScriptView{}, err
	}
	if !HasScript(step) {
		return ScriptView{}, ErrNoScript
	}
	return ScriptView{JobName: jobName, StepID: step.StepID, StepName: step.StepName, Command: step.Command}, nil
}
