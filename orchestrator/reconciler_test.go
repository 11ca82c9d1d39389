package orchestrator

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/penwyp/ClawDeck/errors"
	"github.com/penwyp/ClawDeck/models"
	"github.com/penwyp/ClawDeck/snapshot"
)

type recordingRefresher struct {
	mu     sync.Mutex
	groups []models.EntityGroup
}

func (r *recordingRefresher) RefreshGroup(ctx context.Context, group models.EntityGroup) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.groups = append(r.groups, group)
	return nil
}

func (r *recordingRefresher) refreshed() []models.EntityGroup {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]models.EntityGroup(nil), r.groups...)
}

func TestReconciler_SessionUpsertIsIdempotent(t *testing.T) {
	store := snapshot.NewStore()
	store.SetSessions([]models.SessionSnapshot{{Key: "s1", Label: "first", Model: "claude-opus-4-6"}})
	r := NewEventReconciler(store, nil)

	payload := []byte(`{"key":"s1","totalTokens":42}`)
	require.NoError(t, r.Handle("session.started", payload))
	once := store.Sessions()

	require.NoError(t, r.Handle("session.started", payload))
	assert.Equal(t, once, store.Sessions())

	require.Len(t, once, 1)
	assert.True(t, once[0].Running)
	assert.Equal(t, int64(42), once[0].TotalTokens)
	assert.Equal(t, "first", once[0].Label)
	assert.Equal(t, "claude-opus-4-6", once[0].Model)
}

func TestReconciler_SessionLifecycle(t *testing.T) {
	store := snapshot.NewStore()
	r := NewEventReconciler(store, nil)

	require.NoError(t, r.Handle("session.started", []byte(`{"key":"s2","label":"new"}`)))
	require.Len(t, store.Sessions(), 1)
	assert.True(t, store.Sessions()[0].Running)

	require.NoError(t, r.Handle("session.ended", []byte(`{"sessionKey":"s2"}`)))
	require.Len(t, store.Sessions(), 1)
	assert.False(t, store.Sessions()[0].Running)
	assert.Equal(t, "new", store.Sessions()[0].Label)
}

func TestReconciler_CronRunEvents(t *testing.T) {
	store := snapshot.NewStore()
	store.SetCronJobs([]models.CronJobSnapshot{{ID: "nightly", Name: "Nightly", Enabled: true, State: models.CronIdle}})
	r := NewEventReconciler(store, nil)

	require.NoError(t, r.Handle("cron.run.started", []byte(`{"jobId":"nightly","startedAt":1700000000000}`)))
	job := store.CronJobs()[0]
	assert.Equal(t, models.CronRunning, job.State)
	assert.Equal(t, int64(1700000000000), job.LastRunMs)

	again := store.CronJobs()
	require.NoError(t, r.Handle("cron.run.started", []byte(`{"jobId":"nightly","startedAt":1700000000000}`)))
	assert.Equal(t, again, store.CronJobs())

	require.NoError(t, r.Handle("cron.run.completed", []byte(`{"jobId":"nightly","status":"ok"}`)))
	job = store.CronJobs()[0]
	assert.Equal(t, models.CronIdle, job.State)
	assert.Equal(t, "ok", job.LastStatus)
	assert.Equal(t, int64(1700000000000), job.LastRunMs)
	assert.Equal(t, "Nightly", job.Name)
}

func TestReconciler_AgentEventRefetches(t *testing.T) {
	store := snapshot.NewStore()
	refresher := &recordingRefresher{}
	r := NewEventReconciler(store, refresher)

	require.NoError(t, r.Handle("agent.created", []byte(`{"agentId":"helper"}`)))
	r.Detach()

	assert.Equal(t, []models.EntityGroup{models.GroupAgents}, refresher.refreshed())
	assert.Empty(t, store.Agents())
}

func TestReconciler_UnhandledEventIsIgnored(t *testing.T) {
	store := snapshot.NewStore()
	store.SetSessions([]models.SessionSnapshot{{Key: "s1"}})
	r := NewEventReconciler(store, &recordingRefresher{})

	require.NoError(t, r.Handle("presence.changed", []byte(`{"who":"someone"}`)))
	assert.Equal(t, []models.SessionSnapshot{{Key: "s1"}}, store.Sessions())
}

func TestReconciler_MalformedEventChangesNothing(t *testing.T) {
	store := snapshot.NewStore()
	store.SetSessions([]models.SessionSnapshot{{Key: "s1"}})
	r := NewEventReconciler(store, nil)

	err := r.Handle("session.started", []byte(`{"label":"no key"}`))
	assert.True(t, errors.Is(err, errors.KindMalformed))

	err = r.Handle("cron.run.started", []byte(`{not json`))
	assert.True(t, errors.Is(err, errors.KindMalformed))

	assert.Equal(t, []models.SessionSnapshot{{Key: "s1"}}, store.Sessions())
	assert.Empty(t, store.CronJobs())
}

func TestReconciler_AttachAndDetach(t *testing.T) {
	store := snapshot.NewStore()
	client := newFakeClient()
	p := NewPoller(store)
	p.SetClient(client)
	r := NewEventReconciler(store, p)

	r.Attach(client)
	r.Attach(client)
	assert.Equal(t, 1, client.subscribers())

	client.emit("session.running", `{"key":"live"}`)
	require.Len(t, store.Sessions(), 1)
	assert.Equal(t, "live", store.Sessions()[0].Key)

	// The refetch runs off the event callback and lands in the store
	client.emit("agent.spawned", `{"id":"helper"}`)
	assert.Eventually(t, func() bool {
		return len(store.Agents()) == 1
	}, 2*time.Second, 5*time.Millisecond)

	r.Detach()
	assert.Equal(t, 0, client.subscribers())

	client.emit("session.running", `{"key":"after-detach"}`)
	assert.Len(t, store.Sessions(), 1)
}
