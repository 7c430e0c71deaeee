package view

import (
	"strconv"
	"time"

	"github.com/dustin/go-humanize"

	"github.com/fboessen22/jobdash/internal/protocol"
)

const (
	jobMessageLimit     = 200
	stepMessageLimit    = 150
	historyMessageLimit = 100
)

// Truncate shortens s to limit runes, marking the cut with "...".
func Truncate(s string, limit int) string {
	if limit <= 0 {
		return ""
	}
	runes := []rune(s)
	if len(runes) <= limit {
		return s
	}
	return string(runes[:limit]) + "..."
}

func orNA(s string) string {
	if s == "" {
		return "N/A"
	}
	return s
}

func formatCount(n int) string {
	return humanize.Comma(int64(n))
}

func runStatusClass(c protocol.RunCategory) string {
	switch c {
	case protocol.RunCategorySucceeded:
		return "badge badge-success"
	case protocol.RunCategoryFailed:
		return "badge badge-danger"
	case protocol.RunCategoryRunning:
		return "badge badge-info"
	case protocol.RunCategoryCancelled:
		return "badge badge-warning"
	default:
		return "badge badge-muted"
	}
}

func stepStatusClass(step protocol.StepRecord) string {
	if !step.WasExecuted() {
		return "badge badge-muted"
	}
	return runStatusClass(step.Category())
}

func externalStatusClass(c protocol.ExternalCategory) string {
	switch c {
	case protocol.ExternalCategorySuccess:
		return "badge badge-success"
	case protocol.ExternalCategoryFailure:
		return "badge badge-danger"
	default:
		return "badge badge-muted"
	}
}

func messageClass(l protocol.MessageLevel) string {
	switch l {
	case protocol.MessageLevelError:
		return "message message-error"
	case protocol.MessageLevelWarning:
		return "message message-warning"
	default:
		return "message message-info"
	}
}

// RefreshToken identifies a completed job-list fetch. The page reloads when
// the token served by the state endpoint differs from the rendered one.
func RefreshToken(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return strconv.FormatInt(t.UTC().UnixNano(), 10)
}

func clockText(t time.Time) string {
	if t.IsZero() {
		return "never"
	}
	return t.Local().Format("15:04:05")
}
