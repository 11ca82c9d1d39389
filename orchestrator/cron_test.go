package orchestrator

import (
	"context"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/penwyp/ClawDeck/errors"
	"github.com/penwyp/ClawDeck/gateway"
	"github.com/penwyp/ClawDeck/models"
	"github.com/penwyp/ClawDeck/snapshot"
)

func TestCronActions_RunJobRefreshesCron(t *testing.T) {
	store := snapshot.NewStore()
	client := newFakeClient()
	p := NewPoller(store)
	p.SetClient(client)
	actions := NewCronActions(client, p)

	require.NoError(t, actions.RunJob(context.Background(), "nightly"))

	assert.Equal(t, gateway.JobParams{ID: "nightly"}, client.lastParams(models.MethodCronRun))
	assert.Equal(t, 1, client.count(models.MethodCronList))
	assert.Len(t, store.CronJobs(), 1)
}

func TestCronActions_RunJobRejected(t *testing.T) {
	client := newFakeClient()
	client.fail(models.MethodCronRun, fmt.Errorf("job is disabled"))
	refresher := &recordingRefresher{}
	actions := NewCronActions(client, refresher)

	err := actions.RunJob(context.Background(), "nightly")
	require.Error(t, err)
	assert.True(t, errors.Is(err, errors.KindTransport))
	assert.Contains(t, err.Error(), "job is disabled")
	assert.Empty(t, refresher.refreshed())
}

func TestCronActions_RunJobEmptyID(t *testing.T) {
	actions := NewCronActions(newFakeClient(), nil)
	err := actions.RunJob(context.Background(), "")
	assert.True(t, errors.Is(err, errors.KindMalformed))
}

func TestCronActions_Runs(t *testing.T) {
	client := newFakeClient()
	actions := NewCronActions(client, nil)

	applied, err := actions.Runs().Load(context.Background(), "nightly")
	require.NoError(t, err)
	assert.True(t, applied)

	key, runs, _ := actions.Runs().Current()
	assert.Equal(t, "nightly", key)
	require.NotNil(t, runs)
	require.Len(t, runs.Runs, 1)
	assert.Equal(t, "r1", runs.Runs[0].ID)
	assert.Equal(t, gateway.JobParams{ID: "nightly"}, client.lastParams(models.MethodCronRuns))
}
