package dashboard

import (
	"errors"
	"fmt"
)

var (
	ErrNoDrillDown     = errors.New("job run has no instance id")
	ErrStepNotFound    = errors.New("step not found in loaded steps")
	ErrNoExternalInfo  = errors.New("step has no external execution reference")
	ErrNoScript        = errors.New("step has no script")
	ErrModalSuperseded = errors.New("modal was closed or replaced")
)

type PanelState string

const (
	PanelIdle    PanelState = "idle"
	PanelLoading PanelState = "loading"
	PanelReady   PanelState = "ready"
	PanelEmpty   PanelState = "empty"
	PanelFailed  PanelState = "failed"
)

// PanelStatus is the load state of one independently rendered region.
type PanelStatus struct {
	State PanelState `json:"state"`
	Error string     `json:"error,omitempty"`
}

func readyOrEmpty(n int) PanelStatus {
	if n == 0 {
		return PanelStatus{State: PanelEmpty}
	}
	return PanelStatus{State: PanelReady}
}

func failedPanel(err error) PanelStatus {
	return PanelStatus{State: PanelFailed, Error: err.Error()}
}

// FetchError names the panel whose backend call failed.
type FetchError struct {
	Panel string
	Err   error
}

func (e *FetchError) Error() string {
	return fmt.Sprintf("load %s: %v", e.Panel, e.Err)
}

func (e *FetchError) Unwrap() error {
	return e.Err
}
