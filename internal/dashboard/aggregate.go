package dashboard

import (
	"math"
	"strconv"

	"github.com/fboessen22/jobdash/internal/protocol"
)

// precisionThreshold is the rate at or above which a non-perfect run keeps a
// second decimal, so that 99.96 never displays as 100.0.
const precisionThreshold = 99.95

type Stats struct {
	Failed      int     `json:"failed"`
	Succeeded   int     `json:"succeeded"`
	Total       int     `json:"total"`
	SuccessRate float64 `json:"success_rate"`
	Decimals    int     `json:"decimals"`
}

func (s Stats) RateText() string {
	return strconv.FormatFloat(s.SuccessRate, 'f', s.Decimals, 64)
}

// Aggregate counts outcomes over records. Records that are neither failed nor
// succeeded only contribute to Total.
func Aggregate(records []protocol.JobRecord) Stats {
	failed, succeeded := 0, 0
	for _, rec := range records {
		switch {
		case protocol.IsFailedRunStatus(rec.RunStatus):
			failed++
		case protocol.IsSucceededRunStatus(rec.RunStatus):
			succeeded++
		}
	}
	return Summarize(failed, succeeded, len(records))
}

// Summarize builds Stats from raw counts. Server summaries and locally
// aggregated records both go through here so they round identically.
func Summarize(failed, succeeded, total int) Stats {
	if total < failed+succeeded {
		total = failed + succeeded
	}
	out := Stats{Failed: failed, Succeeded: succeeded, Total: total, Decimals: 1}
	if total == 0 {
		return out
	}
	rate := float64(succeeded) / float64(total) * 100
	out.SuccessRate, out.Decimals = RoundSuccessRate(rate, failed)
	return out
}

func RoundSuccessRate(rate float64, failed int) (float64, int) {
	decimals := 1
	if rate >= precisionThreshold && failed > 0 {
		decimals = 2
	}
	scale := math.Pow(10, float64(decimals))
	rounded := math.Round(rate*scale) / scale
	if rounded > 100 {
		rounded = 100
	}
	if rounded < 0 {
		rounded = 0
	}
	return rounded, decimals
}

// StatsFromSummary converts a server summary. Without total_executions the
// counts alone cannot give the rate, so the server's success_rate is kept.
func StatsFromSummary(sum protocol.StatsResponse) Stats {
	if sum.TotalExecutions > 0 {
		return Summarize(sum.FailedCount, sum.SucceededCount, sum.TotalExecutions)
	}
	out := Summarize(sum.FailedCount, sum.SucceededCount, 0)
	if out.Total == 0 {
		return out
	}
	out.SuccessRate, out.Decimals = RoundSuccessRate(sum.SuccessRate, sum.FailedCount)
	return out
}
