package protocol

// Run status codes reported by the job scheduler for job outcomes and steps.
const (
	RunStatusFailed    = 0
	RunStatusSucceeded = 1
	RunStatusRetry     = 2
	RunStatusCanceled  = 3
	RunStatusRunning   = 4
)

type RunCategory string

const (
	RunCategorySucceeded RunCategory = "succeeded"
	RunCategoryFailed    RunCategory = "failed"
	RunCategoryRunning   RunCategory = "running"
	RunCategoryCancelled RunCategory = "cancelled"
	RunCategoryUnknown   RunCategory = "unknown"
)

const StatusTextNotRun = "Not Run"

// ClassifyRunStatus maps a scheduler run status code to its display category.
// Retry shares the cancelled category; both render as warnings.
func ClassifyRunStatus(code int) RunCategory {
	switch code {
	case RunStatusFailed:
		return RunCategoryFailed
	case RunStatusSucceeded:
		return RunCategorySucceeded
	case RunStatusRetry, RunStatusCanceled:
		return RunCategoryCancelled
	case RunStatusRunning:
		return RunCategoryRunning
	default:
		return RunCategoryUnknown
	}
}

func RunStatusText(code int) string {
	switch code {
	case RunStatusFailed:
		return "Failed"
	case RunStatusSucceeded:
		return "Succeeded"
	case RunStatusRetry:
		return "Retry"
	case RunStatusCanceled:
		return "Canceled"
	case RunStatusRunning:
		return "In Progress"
	default:
		return "Unknown"
	}
}

func IsFailedRunStatus(code int) bool {
	return code == RunStatusFailed
}

func IsSucceededRunStatus(code int) bool {
	return code == RunStatusSucceeded
}
