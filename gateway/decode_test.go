package gateway

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/penwyp/ClawDeck/errors"
)

func TestDecodeAgents_AcceptsBothShapes(t *testing.T) {
	bare, err := DecodeAgents([]byte(`[{"id":"main","name":"Main"}]`))
	require.NoError(t, err)
	wrapped, err := DecodeAgents([]byte(`{"agents":[{"id":"main","name":"Main"}]}`))
	require.NoError(t, err)

	assert.Equal(t, bare, wrapped)
	assert.Equal(t, "Main", bare[0].Name)
}

func TestDecodeAgents_Malformed(t *testing.T) {
	for _, raw := range []string{`{"agents":"nope"}`, `42`, `not json`} {
		_, err := DecodeAgents([]byte(raw))
		assert.True(t, errors.Is(err, errors.KindMalformed), raw)
	}
}

func TestDecodeAgents_EmptyArray(t *testing.T) {
	agents, err := DecodeAgents([]byte(`{"agents":[]}`))
	require.NoError(t, err)
	assert.NotNil(t, agents)
	assert.Empty(t, agents)
}

func TestDecodeSessions(t *testing.T) {
	list, err := DecodeSessions([]byte(`{"sessions":[{"key":"agent:main:1","model":"gpt-4o","totalTokens":12,"updatedAt":1700000000000}]}`))
	require.NoError(t, err)
	require.Len(t, list.Sessions, 1)
	assert.Equal(t, int64(12), list.Sessions[0].TotalTokens)
	assert.Equal(t, int64(1700000000000), list.Sessions[0].LastActiveMs)

	_, err = DecodeSessions([]byte(`{"items":[]}`))
	assert.True(t, errors.Is(err, errors.KindMalformed))
}

func TestDecodeCronJobs(t *testing.T) {
	jobs, err := DecodeCronJobs([]byte(`{"jobs":[{"id":"nightly","enabled":true,"state":"idle"}]}`))
	require.NoError(t, err)
	assert.Equal(t, "nightly", jobs[0].ID)
	assert.True(t, jobs[0].Enabled)
}

func TestDecodeCronRuns(t *testing.T) {
	runs, err := DecodeCronRuns("nightly", []byte(`[{"id":"r1","jobId":"nightly","status":"ok","startedAt":5}]`))
	require.NoError(t, err)
	assert.Equal(t, "nightly", runs.JobID)
	assert.Equal(t, int64(5), runs.Runs[0].StartedAtMs)
}

func TestDecodeCostSummary(t *testing.T) {
	summary, err := DecodeCostSummary([]byte(`{"days":30,"daily":[{"date":"2026-10-01","totalCost":1.5,"missingCostEntries":2}],"totals":{"totalCost":1.5,"missingCostEntries":2}}`))
	require.NoError(t, err)
	assert.Equal(t, 30, summary.Days)
	assert.Equal(t, "2026-10-01", summary.Daily[0].Date)
	assert.Equal(t, 2, summary.Daily[0].MissingCostEntries)
	assert.Equal(t, 4, summary.MissingCostEntries())

	_, err = DecodeCostSummary([]byte(`{"days":30}`))
	assert.True(t, errors.Is(err, errors.KindMalformed))
}

func TestDecodeSessionsUsage(t *testing.T) {
	raw := `{
		"sessions":[{"key":"s1","agentId":"main","model":"claude-opus-4-6","usage":{"input":10,"missingCostEntries":1}}],
		"totals":{"input":10,"missingCostEntries":1},
		"aggregates":{"byModel":[{"model":"claude-opus-4-6","count":1,"totals":{"input":10}}],"byAgent":[],"daily":[]}
	}`
	usage, err := DecodeSessionsUsage([]byte(raw))
	require.NoError(t, err)
	require.NotNil(t, usage.Sessions[0].Usage)
	assert.Equal(t, int64(10), usage.Sessions[0].Usage.Input)
	assert.Equal(t, "claude-opus-4-6", usage.Aggregates.ByModel[0].Model)
}
