package dashboard

import (
	"context"
	"fmt"
	"sync"

	"golang.org/x/sync/singleflight"

	"github.com/fboessen22/jobdash/internal/protocol"
)

// PackageLookupWindowDays bounds the executions-by-package fallback search.
const PackageLookupWindowDays = 30

// DrillDown holds per-run step panels, per-job history panels and the
// external execution lookups reached from them.
type DrillDown struct {
	backend Backend

	mu      sync.Mutex
	steps   map[protocol.Opaque]*stepEntry
	history map[string]*historyEntry

	flight singleflight.Group
}

func NewDrillDown(backend Backend) *DrillDown {
	return &DrillDown{
		backend: backend,
		steps:   map[protocol.Opaque]*stepEntry{},
		history: map[string]*historyEntry{},
	}
}

type LookupKind string

const (
	LookupDirect    LookupKind = "direct"
	LookupByPackage LookupKind = "by_package"
)

// ExternalLookup is the result of following a step to its external package
// execution. A ByPackage lookup is a best guess and sets Uncertain.
type ExternalLookup struct {
	Kind        LookupKind                   `json:"kind"`
	StepName    string                       `json:"step_name"`
	PackagePath string                       `json:"package_path,omitempty"`
	FailedOnly  bool                         `json:"failed_only,omitempty"`
	Uncertain   bool                         `json:"uncertain"`
	Notice      string                       `json:"notice,omitempty"`
	Execution   *ExecutionPanel              `json:"execution,omitempty"`
	Candidates  []protocol.ExternalExecution `json:"candidates,omitempty"`
}

func candidateNotice(failedOnly bool) string {
	scope := ""
	if failedOnly {
		scope = " (failed only)"
	}
	return fmt.Sprintf("Could not find the specific execution for this job run. Showing recent%s executions from the last %d days. The execution you're looking for may have been purged from the execution catalog.", scope, PackageLookupWindowDays)
}

const noCandidatesNotice = "No executions found for this package. The execution logs may have been purged; the catalog typically retains logs for 7-30 days depending on server configuration."

// LookupExternal resolves a step's external execution. A direct execution id
// wins; otherwise recent executions of the step's package are listed,
// narrowed to failures when the step itself failed.
func (d *DrillDown) LookupExternal(ctx context.Context, step protocol.StepRecord) (ExternalLookup, error) {
	if !HasExternalReference(step) {
		return ExternalLookup{}, ErrNoExternalInfo
	}
	if !step.SSISExecutionID.IsZero() {
		panel, err := d.Execution(ctx, step.SSISExecutionID, step.StepName, false)
		return ExternalLookup{Kind: LookupDirect, StepName: step.StepName, Execution: &panel}, err
	}

	lookup := ExternalLookup{
		Kind:        LookupByPackage,
		StepName:    step.StepName,
		PackagePath: step.SSISPackagePath,
		FailedOnly:  step.Failed(),
		Uncertain:   true,
	}
	key := fmt.Sprintf("package:%s:%t", lookup.PackagePath, lookup.FailedOnly)
	v, err, _ := d.flight.Do(key, func() (any, error) {
		return d.backend.ExecutionsByPackage(context.WithoutCancel(ctx), lookup.PackagePath, lookup.FailedOnly)
	})
	if err != nil {
		return lookup, &FetchError{Panel: "package executions", Err: err}
	}
	lookup.Candidates, _ = v.([]protocol.ExternalExecution)
	if len(lookup.Candidates) == 0 {
		lookup.Notice = noCandidatesNotice
	} else {
		lookup.Notice = candidateNotice(lookup.FailedOnly)
	}
	return lookup, nil
}

// ExecutionPanel shows one external execution. Each fetch replaces the
// message list; ShowAll selects all messages instead of warnings and errors.
type ExecutionPanel struct {
	ExecutionID protocol.Opaque             `json:"execution_id"`
	StepName    string                      `json:"step_name,omitempty"`
	ShowAll     bool                        `json:"show_all"`
	Status      PanelStatus                 `json:"status"`
	Overview    protocol.ExternalExecution  `json:"overview"`
	Messages    []protocol.ExecutionMessage `json:"messages"`
}

func (d *DrillDown) Execution(ctx context.Context, id protocol.Opaque, stepName string, showAll bool) (ExecutionPanel, error) {
	panel := ExecutionPanel{ExecutionID: id, StepName: stepName, ShowAll: showAll, Messages: []protocol.ExecutionMessage{}}
	key := fmt.Sprintf("execution:%s:%t", id, showAll)
	v, err, _ := d.flight.Do(key, func() (any, error) {
		return d.backend.Execution(context.WithoutCancel(ctx), id, showAll)
	})
	if err != nil {
		ferr := &FetchError{Panel: "execution", Err: err}
		panel.Status = failedPanel(ferr)
		return panel, ferr
	}
	resp, _ := v.(protocol.ExecutionDetailResponse)
	panel.Overview = resp.Overview
	for _, msg := range resp.Messages {
		if showAll || msg.Level().VisibleByDefault() {
			panel.Messages = append(panel.Messages, msg)
		}
	}
	panel.Status = readyOrEmpty(len(panel.Messages))
	return panel, nil
}
