package dashboard

type ModalKind string

const (
	ModalNone              ModalKind = ""
	ModalExecution         ModalKind = "execution"
	ModalPackageExecutions ModalKind = "package_executions"
	ModalScript            ModalKind = "script"
)

// Modal is the single overlay a session can show. Seq identifies one
// opening; results for an older Seq are discarded.
type Modal struct {
	Seq       uint64          `json:"seq"`
	Kind      ModalKind       `json:"kind"`
	Title     string          `json:"title,omitempty"`
	Status    PanelStatus     `json:"status"`
	Lookup    *ExternalLookup `json:"lookup,omitempty"`
	Execution *ExecutionPanel `json:"execution,omitempty"`
	Script    *ScriptView     `json:"script,omitempty"`
}

func (m Modal) Open() bool {
	return m.Kind != ModalNone
}

func executionTitle(stepName string) string {
	return "Execution Details - " + stepName
}

func packageTitle(stepName string) string {
	return "Package Executions - " + stepName
}

func scriptTitle(stepName string) string {
	return "T-SQL Script - " + stepName
}

func (s *Session) beginModal(kind ModalKind, title string) uint64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.modalSeq++
	s.modal = Modal{Seq: s.modalSeq, Kind: kind, Title: title, Status: PanelStatus{State: PanelLoading}}
	return s.modalSeq
}

// commitModal installs m if the modal opened as seq is still showing.
func (s *Session) commitModal(seq uint64, m Modal) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.modal.Seq != seq || !s.modal.Open() {
		return false
	}
	m.Seq = seq
	s.modal = m
	return true
}

func (s *Session) CloseModal() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.modalSeq++
	s.modal = Modal{Seq: s.modalSeq}
}

func (s *Session) Modal() Modal {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.modal
}
