package dashboard

import (
	"context"

	"github.com/fboessen22/jobdash/internal/protocol"
)

// Backend is the job-scheduler API the dashboard reads from.
type Backend interface {
	Config(ctx context.Context) (protocol.ConfigResponse, error)
	Categories(ctx context.Context) ([]string, error)
	Jobs(ctx context.Context, days int) ([]protocol.JobRecord, error)
	Stats(ctx context.Context, days int) (protocol.StatsResponse, error)
	JobSteps(ctx context.Context, instanceID protocol.Opaque) (protocol.StepsResponse, error)
	JobHistory(ctx context.Context, jobName string) ([]protocol.HistoryRecord, error)
	ExecutionsByPackage(ctx context.Context, packagePath string, failedOnly bool) ([]protocol.ExternalExecution, error)
	Execution(ctx context.Context, executionID protocol.Opaque, showAll bool) (protocol.ExecutionDetailResponse, error)
}
