package dashboard

import (
	"context"
	"fmt"
	"sync"

	"github.com/fboessen22/jobdash/internal/protocol"
)

type stubBackend struct {
	configFn              func(ctx context.Context) (protocol.ConfigResponse, error)
	categoriesFn          func(ctx context.Context) ([]string, error)
	jobsFn                func(ctx context.Context, days int) ([]protocol.JobRecord, error)
	statsFn               func(ctx context.Context, days int) (protocol.StatsResponse, error)
	jobStepsFn            func(ctx context.Context, id protocol.Opaque) (protocol.StepsResponse, error)
	jobHistoryFn          func(ctx context.Context, jobName string) ([]protocol.HistoryRecord, error)
	executionsByPackageFn func(ctx context.Context, packagePath string, failedOnly bool) ([]protocol.ExternalExecution, error)
	executionFn           func(ctx context.Context, id protocol.Opaque, showAll bool) (protocol.ExecutionDetailResponse, error)

	mu    sync.Mutex
	calls map[string]int
}

func (s *stubBackend) count(name string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.calls == nil {
		s.calls = map[string]int{}
	}
	s.calls[name]++
}

func (s *stubBackend) callCount(name string) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.calls[name]
}

func (s *stubBackend) Config(ctx context.Context) (protocol.ConfigResponse, error) {
	s.count("config")
	if s.configFn != nil {
		return s.configFn(ctx)
	}
	return protocol.ConfigResponse{}, nil
}

func (s *stubBackend) Categories(ctx context.Context) ([]string, error) {
	s.count("categories")
	if s.categoriesFn != nil {
		return s.categoriesFn(ctx)
	}
	return []string{}, nil
}

func (s *stubBackend) Jobs(ctx context.Context, days int) ([]protocol.JobRecord, error) {
	s.count("jobs")
	if s.jobsFn != nil {
		return s.jobsFn(ctx, days)
	}
	return []protocol.JobRecord{}, nil
}

func (s *stubBackend) Stats(ctx context.Context, days int) (protocol.StatsResponse, error) {
	s.count("stats")
	if s.statsFn != nil {
		return s.statsFn(ctx, days)
	}
	return protocol.StatsResponse{}, nil
}

func (s *stubBackend) JobSteps(ctx context.Context, id protocol.Opaque) (protocol.StepsResponse, error) {
	s.count("steps")
	if s.jobStepsFn != nil {
		return s.jobStepsFn(ctx, id)
	}
	return protocol.StepsResponse{}, fmt.Errorf("unexpected JobSteps call")
}

func (s *stubBackend) JobHistory(ctx context.Context, jobName string) ([]protocol.HistoryRecord, error) {
	s.count("history")
	if s.jobHistoryFn != nil {
		return s.jobHistoryFn(ctx, jobName)
	}
	return nil, fmt.Errorf("unexpected JobHistory call")
}

func (s *stubBackend) ExecutionsByPackage(ctx context.Context, packagePath string, failedOnly bool) ([]protocol.ExternalExecution, error) {
	s.count("package")
	if s.executionsByPackageFn != nil {
		return s.executionsByPackageFn(ctx, packagePath, failedOnly)
	}
	return nil, fmt.Errorf("unexpected ExecutionsByPackage call")
}

func (s *stubBackend) Execution(ctx context.Context, id protocol.Opaque, showAll bool) (protocol.ExecutionDetailResponse, error) {
	s.count("execution")
	if s.executionFn != nil {
		return s.executionFn(ctx, id, showAll)
	}
	return protocol.ExecutionDetailResponse{}, fmt.Errorf("unexpected Execution call")
}

func intPtr(v int) *int { return &v }

func boolPtr(v bool) *bool { return &v }
