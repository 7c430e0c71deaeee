package protocol

import "strings"

type ConfigResponse struct {
	DefaultCategory string `json:"default_category"`
}

type ErrorResponse struct {
	Error string `json:"error"`
}

// JobRecord is the latest outcome of one scheduled job.
type JobRecord struct {
	JobName           string `json:"job_name"`
	CategoryName      string `json:"category_name"`
	RunStatus         int    `json:"run_status"`
	StatusText        string `json:"status_text,omitempty"`
	LastRun           string `json:"last_run"`
	DurationFormatted string `json:"duration_formatted"`
	DurationTrend     string `json:"duration_trend,omitempty"`
	DurationDiff      string `json:"duration_diff,omitempty"`
	Message           string `json:"message"`
	InstanceID        Opaque `json:"instance_id,omitempty"`
}

func (r JobRecord) Category() RunCategory {
	return ClassifyRunStatus(r.RunStatus)
}

func (r JobRecord) DisplayStatus() string {
	if r.StatusText != "" {
		return r.StatusText
	}
	return RunStatusText(r.RunStatus)
}

// StatsResponse is the server-computed execution summary for a time window.
type StatsResponse struct {
	TotalExecutions      int     `json:"total_executions"`
	FailedCount          int     `json:"failed_count"`
	SucceededCount       int     `json:"succeeded_count"`
	RunningCount         int     `json:"running_count"`
	AvgDurationFormatted string  `json:"avg_duration_formatted,omitempty"`
	SuccessRate          float64 `json:"success_rate"`
}

type StepRecord struct {
	StepID            int    `json:"step_id"`
	StepName          string `json:"step_name"`
	Subsystem         string `json:"subsystem,omitempty"`
	Command           string `json:"command,omitempty"`
	Message           string `json:"message,omitempty"`
	DurationFormatted string `json:"duration_formatted,omitempty"`
	RunStatus         *int   `json:"run_status"`
	StatusText        string `json:"status_text,omitempty"`
	Executed          *bool  `json:"executed,omitempty"`
	SSISExecutionID   Opaque `json:"ssis_execution_id,omitempty"`
	SSISPackagePath   string `json:"ssis_package_path,omitempty"`
}

// WasExecuted treats an absent executed flag as executed.
func (s StepRecord) WasExecuted() bool {
	return s.Executed == nil || *s.Executed
}

func (s StepRecord) IsOutcome() bool {
	return s.StepID == 0
}

func (s StepRecord) Failed() bool {
	return s.RunStatus != nil && *s.RunStatus == RunStatusFailed
}

func (s StepRecord) Category() RunCategory {
	if s.RunStatus == nil {
		return RunCategoryUnknown
	}
	return ClassifyRunStatus(*s.RunStatus)
}

func (s StepRecord) DisplayStatus() string {
	if !s.WasExecuted() {
		return StatusTextNotRun
	}
	if s.StatusText != "" {
		return s.StatusText
	}
	if s.RunStatus == nil {
		return RunStatusText(-1)
	}
	return RunStatusText(*s.RunStatus)
}

type StepsResponse struct {
	JobName    string       `json:"job_name"`
	InstanceID Opaque       `json:"instance_id,omitempty"`
	Steps      []StepRecord `json:"steps"`
}

// HistoryRecord is one step row of a past job run.
type HistoryRecord struct {
	InstanceID        Opaque `json:"instance_id,omitempty"`
	RunDate           Opaque `json:"run_date,omitempty"`
	RunTime           Opaque `json:"run_time,omitempty"`
	RunTimestamp      string `json:"run_timestamp,omitempty"`
	RunDuration       int    `json:"run_duration"`
	RunStatus         int    `json:"run_status"`
	Message           string `json:"message,omitempty"`
	StepID            int    `json:"step_id"`
	StepName          string `json:"step_name"`
	DurationFormatted string `json:"duration_formatted,omitempty"`
	StatusText        string `json:"status_text,omitempty"`
}

func (h HistoryRecord) RunKey() string {
	return h.RunDate.String() + "_" + h.RunTime.String()
}

type ExternalExecution struct {
	ExecutionID Opaque `json:"execution_id"`
	FolderName  string `json:"folder_name,omitempty"`
	ProjectName string `json:"project_name,omitempty"`
	PackageName string `json:"package_name,omitempty"`
	Status      int    `json:"status"`
	StatusText  string `json:"status_text,omitempty"`
	StartTime   string `json:"start_time,omitempty"`
	EndTime     string `json:"end_time,omitempty"`
}

func (e ExternalExecution) Category() ExternalCategory {
	return ClassifyExternalStatus(e.Status)
}

func (e ExternalExecution) DisplayStatus() string {
	if e.StatusText != "" {
		return e.StatusText
	}
	return ExternalStatusText(e.Status)
}

type ExecutionMessage struct {
	OperationMessageID Opaque `json:"operation_message_id,omitempty"`
	MessageTime        string `json:"message_time"`
	MessageType        int    `json:"message_type"`
	MessageTypeText    string `json:"message_type_text,omitempty"`
	Message            string `json:"message"`
}

func (m ExecutionMessage) Level() MessageLevel {
	return ClassifyMessageType(m.MessageType)
}

func (m ExecutionMessage) TypeText() string {
	if m.MessageTypeText != "" {
		return m.MessageTypeText
	}
	return MessageTypeText(m.MessageType)
}

// ClockTime returns the time-of-day part of the message timestamp.
func (m ExecutionMessage) ClockTime() string {
	if _, clock, ok := strings.Cut(m.MessageTime, " "); ok {
		return clock
	}
	return m.MessageTime
}

type ExecutionDetailResponse struct {
	Overview ExternalExecution  `json:"overview"`
	Messages []ExecutionMessage `json:"messages"`
}

// ConnectionStatus reports whether the backend reached its job database.
type ConnectionStatus struct {
	Status     string `json:"status"`
	Server     string `json:"server,omitempty"`
	Database   string `json:"database,omitempty"`
	AuthMethod string `json:"auth_method,omitempty"`
	SQLVersion string `json:"sql_version,omitempty"`
	Error      string `json:"error,omitempty"`
}

func (c ConnectionStatus) Connected() bool {
	return c.Status == "connected"
}
