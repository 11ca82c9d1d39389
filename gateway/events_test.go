package gateway

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/penwyp/ClawDeck/errors"
	"github.com/penwyp/ClawDeck/models"
)

func TestDecodeEvent_SessionRunningFlag(t *testing.T) {
	cases := map[string]bool{
		EventSessionStarted: true,
		EventSessionRunning: true,
		EventSessionEnded:   false,
		EventSessionStopped: false,
		EventSessionIdle:    false,
	}
	for name, want := range cases {
		ev, err := DecodeEvent(name, []byte(`{"key":"s1"}`))
		require.NoError(t, err, name)

		se, ok := ev.(SessionEvent)
		require.True(t, ok, name)
		require.NotNil(t, se.Patch.Running)
		assert.Equal(t, want, *se.Patch.Running, name)
		assert.Equal(t, name, ev.EventName())
	}
}

func TestDecodeEvent_SessionOnlyPresentFields(t *testing.T) {
	ev, err := DecodeEvent(EventSessionRunning, []byte(`{"sessionKey":"s1","model":"gpt-4o","totalTokens":99}`))
	require.NoError(t, err)

	patch := ev.(SessionEvent).Patch
	assert.Equal(t, "s1", patch.Key)
	require.NotNil(t, patch.Model)
	assert.Equal(t, "gpt-4o", *patch.Model)
	require.NotNil(t, patch.TotalTokens)
	assert.Equal(t, int64(99), *patch.TotalTokens)
	assert.Nil(t, patch.Label)
	assert.Nil(t, patch.InputTokens)
	assert.Nil(t, patch.LastActiveMs)
}

func TestDecodeEvent_SessionMissingKey(t *testing.T) {
	_, err := DecodeEvent(EventSessionStarted, []byte(`{"model":"x"}`))
	assert.True(t, errors.Is(err, errors.KindMalformed))
}

func TestDecodeEvent_CronStates(t *testing.T) {
	ev, err := DecodeEvent(EventCronRunStarted, []byte(`{"jobId":"nightly","startedAt":1000}`))
	require.NoError(t, err)
	patch := ev.(CronRunEvent).Patch
	assert.Equal(t, models.CronRunning, *patch.State)
	assert.Equal(t, int64(1000), *patch.LastRunMs)

	for _, name := range []string{EventCronRunComplete, EventCronRunFinished} {
		ev, err := DecodeEvent(name, []byte(`{"id":"nightly","lastRunAt":2000,"status":"ok"}`))
		require.NoError(t, err)
		patch := ev.(CronRunEvent).Patch
		assert.Equal(t, models.CronIdle, *patch.State, name)
		assert.Equal(t, int64(2000), *patch.LastRunMs)
		assert.Equal(t, "ok", *patch.LastStatus)
	}
}

func TestDecodeEvent_CronWithoutTimestamp(t *testing.T) {
	ev, err := DecodeEvent(EventCronRunFinished, []byte(`{"jobId":"nightly"}`))
	require.NoError(t, err)
	assert.Nil(t, ev.(CronRunEvent).Patch.LastRunMs)
}

func TestDecodeEvent_Agent(t *testing.T) {
	ev, err := DecodeEvent(EventAgentCreated, []byte(`{"agentId":"helper"}`))
	require.NoError(t, err)
	assert.Equal(t, AgentEvent{Name: EventAgentCreated, AgentID: "helper"}, ev)
}

func TestDecodeEvent_Unhandled(t *testing.T) {
	ev, err := DecodeEvent("tasks.moved", []byte(`{"id":1}`))
	require.NoError(t, err)
	un, ok := ev.(UnhandledEvent)
	require.True(t, ok)
	assert.Equal(t, "tasks.moved", un.Name)
	assert.JSONEq(t, `{"id":1}`, string(un.Payload))
}

func TestDecodeEvent_EmptyAndInvalidPayload(t *testing.T) {
	ev, err := DecodeEvent(EventAgentSpawned, nil)
	require.NoError(t, err)
	assert.Equal(t, "", ev.(AgentEvent).AgentID)

	_, err = DecodeEvent(EventAgentSpawned, []byte(`{broken`))
	assert.True(t, errors.Is(err, errors.KindMalformed))
}
