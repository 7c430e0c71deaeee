package protocol

import "strconv"

// Status codes of an external package execution.
const (
	ExternalStatusCreated   = 1
	ExternalStatusRunning   = 2
	ExternalStatusCanceled  = 3
	ExternalStatusFailed    = 4
	ExternalStatusPending   = 5
	ExternalStatusEndedUnex = 6
	ExternalStatusSucceeded = 7
	ExternalStatusStopping  = 8
	ExternalStatusCompleted = 9
)

type ExternalCategory string

const (
	ExternalCategorySuccess ExternalCategory = "success"
	ExternalCategoryFailure ExternalCategory = "failure"
	ExternalCategoryOther   ExternalCategory = "other"
)

func ClassifyExternalStatus(status int) ExternalCategory {
	switch status {
	case ExternalStatusSucceeded:
		return ExternalCategorySuccess
	case ExternalStatusFailed:
		return ExternalCategoryFailure
	default:
		return ExternalCategoryOther
	}
}

func ExternalStatusText(status int) string {
	switch status {
	case ExternalStatusCreated:
		return "Created"
	case ExternalStatusRunning:
		return "Running"
	case ExternalStatusCanceled:
		return "Canceled"
	case ExternalStatusFailed:
		return "Failed"
	case ExternalStatusPending:
		return "Pending"
	case ExternalStatusEndedUnex:
		return "Ended Unexpectedly"
	case ExternalStatusSucceeded:
		return "Succeeded"
	case ExternalStatusStopping:
		return "Stopping"
	case ExternalStatusCompleted:
		return "Completed"
	default:
		return "Unknown"
	}
}

// Operation message types emitted during an external execution.
const (
	MessageTypeError       = 120
	MessageTypeTaskFailed  = 130
	MessageTypeWarning     = 110
	MessageTypeInformation = 70
)

type MessageLevel string

const (
	MessageLevelError   MessageLevel = "error"
	MessageLevelWarning MessageLevel = "warning"
	MessageLevelInfo    MessageLevel = "info"
)

func ClassifyMessageType(messageType int) MessageLevel {
	switch messageType {
	case MessageTypeError, MessageTypeTaskFailed:
		return MessageLevelError
	case MessageTypeWarning:
		return MessageLevelWarning
	default:
		return MessageLevelInfo
	}
}

// VisibleByDefault reports whether a message of this level is shown when
// the full message list has not been requested.
func (l MessageLevel) VisibleByDefault() bool {
	return l == MessageLevelError || l == MessageLevelWarning
}

var messageTypeTexts = map[int]string{
	-1:                     "Unknown",
	10:                     "Pre-validate",
	20:                     "Post-validate",
	30:                     "Pre-execute",
	40:                     "Post-execute",
	50:                     "StatusChange",
	60:                     "Progress",
	MessageTypeInformation: "Information",
	100:                    "QueryCancel",
	MessageTypeWarning:     "Warning",
	MessageTypeError:       "Error",
	MessageTypeTaskFailed:  "TaskFailed",
}

func MessageTypeText(messageType int) string {
	if text, ok := messageTypeTexts[messageType]; ok {
		return text
	}
	return strconv.Itoa(messageType)
}
