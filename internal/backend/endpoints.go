package backend

import (
	"context"
	"net/url"
	"strconv"

	"github.com/fboessen22/jobdash/internal/protocol"
)

func daysQuery(days int) url.Values {
	return url.Values{"days": []string{strconv.Itoa(days)}}
}

func (c *Client) Config(ctx context.Context) (protocol.ConfigResponse, error) {
	var out protocol.ConfigResponse
	err := c.getJSON(ctx, "config", "/api/config", nil, &out)
	return out, err
}

func (c *Client) TestConnection(ctx context.Context) (protocol.ConnectionStatus, error) {
	var out protocol.ConnectionStatus
	err := c.getJSON(ctx, "test connection", "/api/test-connection", nil, &out)
	return out, err
}

func (c *Client) Categories(ctx context.Context) ([]string, error) {
	out := []string{}
	if err := c.getJSON(ctx, "categories", "/api/categories", nil, &out); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *Client) Jobs(ctx context.Context, days int) ([]protocol.JobRecord, error) {
	out := []protocol.JobRecord{}
	if err := c.getJSON(ctx, "jobs", "/api/jobs", daysQuery(days), &out); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *Client) Stats(ctx context.Context, days int) (protocol.StatsResponse, error) {
	var out protocol.StatsResponse
	err := c.getJSON(ctx, "stats", "/api/jobs/stats", daysQuery(days), &out)
	return out, err
}

func (c *Client) JobSteps(ctx context.Context, instanceID protocol.Opaque) (protocol.StepsResponse, error) {
	var out protocol.StepsResponse
	err := c.getJSON(ctx, "job steps", "/api/job/steps/"+url.PathEscape(instanceID.String()), nil, &out)
	return out, err
}

func (c *Client) JobHistory(ctx context.Context, jobName string) ([]protocol.HistoryRecord, error) {
	out := []protocol.HistoryRecord{}
	if err := c.getJSON(ctx, "job history", "/api/job/history/"+url.PathEscape(jobName), nil, &out); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *Client) ExecutionsByPackage(ctx context.Context, packagePath string, failedOnly bool) ([]protocol.ExternalExecution, error) {
	q := url.Values{"package_path": []string{packagePath}}
	if failedOnly {
		q.Set("failed_only", "true")
	}
	out := []protocol.ExternalExecution{}
	if err := c.getJSON(ctx, "executions by package", "/api/ssis/executions-by-package", q, &out); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *Client) Execution(ctx context.Context, executionID protocol.Opaque, showAll bool) (protocol.ExecutionDetailResponse, error) {
	var q url.Values
	if showAll {
		q = url.Values{"show_all": []string{"true"}}
	}
	var out protocol.ExecutionDetailResponse
	err := c.getJSON(ctx, "execution", "/api/ssis/execution/"+url.PathEscape(executionID.String()), q, &out)
	if out.Messages == nil {
		out.Messages = []protocol.ExecutionMessage{}
	}
	return out, err
}
