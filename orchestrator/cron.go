package orchestrator

import (
	"context"
	"fmt"

	"github.com/penwyp/ClawDeck/errors"
	"github.com/penwyp/ClawDeck/gateway"
	"github.com/penwyp/ClawDeck/logging"
	"github.com/penwyp/ClawDeck/models"
)

// CronActions are the user-triggered cron operations
type CronActions struct {
	client  gateway.RemoteClient
	refresh GroupRefresher
	runs    *DetailLoader[*models.CronRunList]
}

// NewCronActions creates actions for client. refresh is used to refetch the
// cron group after a manual run.
func NewCronActions(client gateway.RemoteClient, refresh GroupRefresher) *CronActions {
	a := &CronActions{client: client, refresh: refresh}
	a.runs = NewDetailLoader(func(ctx context.Context, jobID string) (*models.CronRunList, error) {
		r := FetchCronRuns(ctx, client, jobID)
		return r.Value, r.Error()
	})
	return a
}

// RunJob triggers jobID now and then refetches the cron group unthrottled
func (a *CronActions) RunJob(ctx context.Context, jobID string) error {
	if jobID == "" {
		return errors.New(errors.KindMalformed, string(models.GroupCron), models.MethodCronRun, fmt.Errorf("empty job id"))
	}
	if _, err := a.client.Call(ctx, models.MethodCronRun, gateway.JobParams{ID: jobID}); err != nil {
		return asFetchError(models.GroupCron, models.MethodCronRun, err)
	}
	logging.LogInfof("triggered cron job %s", jobID)

	if a.refresh == nil {
		return nil
	}
	return a.refresh.RefreshGroup(ctx, models.GroupCron)
}

// Runs is the stale-guarded loader for the selected job's run history
func (a *CronActions) Runs() *DetailLoader[*models.CronRunList] {
	return a.runs
}
