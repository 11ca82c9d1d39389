package orchestrator

import (
	"context"
	stderrors "errors"
	"fmt"

	"github.com/penwyp/ClawDeck/errors"
	"github.com/penwyp/ClawDeck/gateway"
	"github.com/penwyp/ClawDeck/models"
)

// Result is the outcome of one fetch. Err is nil on success.
type Result[T any] struct {
	Value T
	Err   *errors.FetchError
}

// OK reports whether the fetch succeeded
func (r Result[T]) OK() bool {
	return r.Err == nil
}

// Error returns Err as an error interface, nil-safe
func (r Result[T]) Error() error {
	if r.Err == nil {
		return nil
	}
	return r.Err
}

func ok[T any](v T) Result[T] {
	return Result[T]{Value: v}
}

func failed[T any](group models.EntityGroup, op string, err error) Result[T] {
	return Result[T]{Err: asFetchError(group, op, err)}
}

// asFetchError tags err with its group, treating untyped errors as transport failures
func asFetchError(group models.EntityGroup, op string, err error) *errors.FetchError {
	var fe *errors.FetchError
	var typed *errors.FetchError
	if stderrors.As(err, &typed) {
		c := *typed
		fe = &c
	} else {
		fe = errors.Transport(string(group), op, err)
	}
	fe.Group = string(group)
	if fe.Op == "" {
		fe.Op = op
	}
	return fe
}

// FetchSessions fetches sessions.list
func FetchSessions(ctx context.Context, c gateway.RemoteClient) Result[[]models.SessionSnapshot] {
	list, err := c.GetSessions(ctx)
	if err != nil {
		return failed[[]models.SessionSnapshot](models.GroupSessions, models.MethodSessionsList, err)
	}
	if list == nil {
		return failed[[]models.SessionSnapshot](models.GroupSessions, models.MethodSessionsList,
			errors.Malformed(string(models.GroupSessions), models.MethodSessionsList, fmt.Errorf("empty response")))
	}
	return ok(list.Sessions)
}

// FetchAgents fetches agents.list
func FetchAgents(ctx context.Context, c gateway.RemoteClient) Result[[]models.AgentSnapshot] {
	agents, err := c.GetAgents(ctx)
	if err != nil {
		return failed[[]models.AgentSnapshot](models.GroupAgents, models.MethodAgentsList, err)
	}
	return ok(agents)
}

// FetchCronJobs fetches cron.list through the generic call
func FetchCronJobs(ctx context.Context, c gateway.RemoteClient) Result[[]models.CronJobSnapshot] {
	raw, err := c.Call(ctx, models.MethodCronList, map[string]any{})
	if err != nil {
		return failed[[]models.CronJobSnapshot](models.GroupCron, models.MethodCronList, err)
	}
	jobs, err := gateway.DecodeCronJobs(raw)
	if err != nil {
		return failed[[]models.CronJobSnapshot](models.GroupCron, models.MethodCronList, err)
	}
	return ok(jobs)
}

// FetchCost fetches usage.cost for the last days days
func FetchCost(ctx context.Context, c gateway.RemoteClient, days int) Result[*models.CostSummary] {
	summary, err := c.GetCostSummary(ctx, days)
	if err != nil {
		return failed[*models.CostSummary](models.GroupCost, models.MethodUsageCost, err)
	}
	if summary == nil {
		return failed[*models.CostSummary](models.GroupCost, models.MethodUsageCost,
			errors.Malformed(string(models.GroupCost), models.MethodUsageCost, fmt.Errorf("empty response")))
	}
	return ok(summary)
}

// FetchUsage fetches sessions.usage
func FetchUsage(ctx context.Context, c gateway.RemoteClient, limit int) Result[*models.SessionsUsageResponse] {
	usage, err := c.GetSessionsUsage(ctx, limit)
	if err != nil {
		return failed[*models.SessionsUsageResponse](models.GroupUsage, models.MethodSessionsUsage, err)
	}
	if usage == nil {
		return failed[*models.SessionsUsageResponse](models.GroupUsage, models.MethodSessionsUsage,
			errors.Malformed(string(models.GroupUsage), models.MethodSessionsUsage, fmt.Errorf("empty response")))
	}
	return ok(usage)
}

// FetchCronRuns fetches the run history of one job
func FetchCronRuns(ctx context.Context, c gateway.RemoteClient, jobID string) Result[*models.CronRunList] {
	raw, err := c.Call(ctx, models.MethodCronRuns, gateway.JobParams{ID: jobID})
	if err != nil {
		return failed[*models.CronRunList](models.GroupCron, models.MethodCronRuns, err)
	}
	runs, err := gateway.DecodeCronRuns(jobID, raw)
	if err != nil {
		return failed[*models.CronRunList](models.GroupCron, models.MethodCronRuns, err)
	}
	return ok(runs)
}
