package output

import (
	"bytes"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/penwyp/ClawDeck/calculations"
	"github.com/penwyp/ClawDeck/models"
	"github.com/penwyp/ClawDeck/snapshot"
)

func fixedFormatter(now time.Time) *ConsoleFormatter {
	f := NewConsoleFormatter("UTC", "", "")
	f.now = func() time.Time { return now }
	return f
}

func TestNewStatusReport(t *testing.T) {
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	store := snapshot.NewStore(snapshot.WithClock(func() time.Time { return now }))
	store.SetSessions([]models.SessionSnapshot{{Key: "a", Running: true}, {Key: "b"}})
	store.SetCost(&models.CostSummary{Days: 30, Totals: models.CostTotals{TotalCost: 4, MissingCostEntries: 3}})
	store.SetError(models.GroupAgents, "agents.list: timeout")

	recalc := calculations.NewCostRecalculator(models.NewPriceTable(nil))
	r := NewStatusReport(store, recalc, "connected")

	require.Len(t, r.Groups, len(models.AllGroups))
	assert.Equal(t, models.GroupSessions, r.Groups[0].Group)
	assert.Equal(t, 2, r.Groups[0].Count)
	assert.True(t, now.Equal(r.Groups[0].LastFetch), "last fetch %v", r.Groups[0].LastFetch)
	assert.Equal(t, "agents.list: timeout", r.Groups[1].Error)
	assert.Equal(t, 3, r.Incomplete)

	out := fixedFormatter(now.Add(90 * time.Second)).FormatStatus(r)
	assert.Contains(t, out, "gateway connected")
	assert.Contains(t, out, "Sessions:  2 (1 running)")
	assert.Contains(t, out, "⚠ agents.list: timeout")
	assert.Contains(t, out, "1m ago")
	assert.Contains(t, out, "$4.00 over 30 days")
	assert.Contains(t, out, "some costs may be incomplete (3)")
}

func TestFormatStatus_NoData(t *testing.T) {
	store := snapshot.NewStore()
	recalc := calculations.NewCostRecalculator(models.NewPriceTable(nil))

	out := fixedFormatter(time.Now()).FormatStatus(NewStatusReport(store, recalc, "disconnected"))
	assert.Contains(t, out, "no data")
	assert.NotContains(t, out, "Cost:")
	assert.NotContains(t, out, "incomplete")
}

func TestFormatCost(t *testing.T) {
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	report := CostReport{
		Days: 7,
		Summary: &models.CostSummary{
			Days: 7,
			Daily: []models.DailyEntry{
				{Date: "2026-02-28", CostTotals: models.CostTotals{TotalCost: 1.5}},
				{Date: "2026-03-01", CostTotals: models.CostTotals{TotalCost: 0.5, Estimated: true}},
			},
			Totals: models.CostTotals{TotalCost: 2, Input: 1234567},
		},
		Usage: &models.SessionsUsageResponse{
			Aggregates: models.UsageAggregates{ByModel: []models.ByModelEntry{
				{Model: "claude-haiku", Totals: models.CostTotals{TotalCost: 0.5}},
				{Model: "claude-sonnet", Totals: models.CostTotals{TotalCost: 1.5}},
			}},
		},
		UpdatedAt:  now.Add(-20 * time.Minute),
		Stale:      true,
		Incomplete: 1,
	}

	out := fixedFormatter(now).FormatCost(report)
	assert.Contains(t, out, "last 7 days | updated 20m ago (stale)")
	assert.Contains(t, out, "$2.00")
	assert.Contains(t, out, "1,234,567")
	assert.Contains(t, out, "$0.50 ~")
	assert.Contains(t, out, "some costs may be incomplete (1)")

	sonnet := strings.Index(out, "claude-sonnet")
	haiku := strings.Index(out, "claude-haiku")
	require.True(t, sonnet > 0 && haiku > 0)
	assert.Less(t, sonnet, haiku, "largest model first")
	assert.Contains(t, out, " 75.0%")
}

func TestFormatCost_NoSummary(t *testing.T) {
	out := fixedFormatter(time.Now()).FormatCost(CostReport{Days: 30})
	assert.Contains(t, out, "No cost data")
	assert.Contains(t, out, "updated never")
}

func TestFormatCronJobs(t *testing.T) {
	f := fixedFormatter(time.Now())
	assert.Equal(t, "No cron jobs", f.FormatCronJobs(nil))

	last := time.Date(2026, 3, 1, 8, 0, 0, 0, time.UTC)
	out := f.FormatCronJobs([]models.CronJobSnapshot{
		{ID: "nightly", Schedule: "0 3 * * *", Enabled: true, LastRunMs: last.UnixMilli(), LastStatus: "ok"},
		{ID: "weekly", Enabled: false, State: models.CronIdle},
	})
	assert.Contains(t, out, "2026-03-01 08:00:00 (ok)")
	assert.Contains(t, out, "never")
	assert.Contains(t, out, "idle")
}

func TestFormatRuns(t *testing.T) {
	f := fixedFormatter(time.Now())
	assert.Equal(t, "No runs", f.FormatRuns(nil))

	start := time.Date(2026, 3, 1, 8, 0, 0, 0, time.UTC)
	out := f.FormatRuns(&models.CronRunList{JobID: "nightly", Runs: []models.CronRun{
		{ID: "r1", Status: "ok", StartedAtMs: start.UnixMilli(), FinishedAtMs: start.Add(3 * time.Second).UnixMilli()},
		{ID: "r2", Status: "error", StartedAtMs: start.UnixMilli(), Error: "exit 1"},
	}})
	assert.Contains(t, out, "Runs of nightly:")
	assert.Contains(t, out, "3s")
	assert.Contains(t, out, "exit 1")
}

func TestFormatRange(t *testing.T) {
	f := fixedFormatter(time.Date(2026, 3, 10, 0, 0, 0, 0, time.UTC))

	assert.Equal(t, "30d (30 days)", f.FormatRange(models.TimeRange{}))
	assert.Equal(t, "7d (7 days)", f.FormatRange(models.TimeRange{Preset: models.Range7Days}))
	assert.Contains(t, f.FormatRange(models.TimeRange{
		Preset: models.RangeCustom,
		Custom: models.CustomRange{Start: "2026-03-01", End: "2026-03-05"},
	}), "custom 2026-03-01 .. 2026-03-05")
}

func TestWriteJSON(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, WriteJSON(&buf, map[string]int{"days": 7}))
	assert.Equal(t, "{\n  \"days\": 7\n}\n", buf.String())
}

func TestFormatHelpers(t *testing.T) {
	assert.Equal(t, "0", formatTokens(0))
	assert.Equal(t, "999", formatTokens(999))
	assert.Equal(t, "1,000", formatTokens(1000))
	assert.Equal(t, "12,345,678", formatTokens(12345678))

	assert.Equal(t, "abc", truncate("abc", 5))
	assert.Equal(t, "abc…", truncate("abcdef", 4))

	assert.Equal(t, "["+strings.Repeat("░", barWidth)+"]", renderProgressBar(-5))
	assert.Equal(t, "["+strings.Repeat("█", barWidth)+"]", renderProgressBar(150))
}
