package analytics

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/penwyp/ClawDeck/cache"
	"github.com/penwyp/ClawDeck/gateway"
	"github.com/penwyp/ClawDeck/models"
)

var now = time.Date(2026, 10, 17, 12, 0, 0, 0, time.UTC)

type fakeClient struct {
	mu         sync.Mutex
	gate       chan struct{}
	summary    *models.CostSummary
	usage      *models.SessionsUsageResponse
	costErr    error
	costCalls  []int
	usageCalls int
}

func (f *fakeClient) wait(ctx context.Context) error {
	f.mu.Lock()
	gate := f.gate
	f.mu.Unlock()
	if gate == nil {
		return nil
	}
	select {
	case <-gate:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (f *fakeClient) GetSessions(context.Context) (*models.SessionList, error) {
	return &models.SessionList{}, nil
}

func (f *fakeClient) GetAgents(context.Context) ([]models.AgentSnapshot, error) {
	return nil, nil
}

func (f *fakeClient) GetCostSummary(ctx context.Context, days int) (*models.CostSummary, error) {
	if err := f.wait(ctx); err != nil {
		return nil, err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.costCalls = append(f.costCalls, days)
	if f.costErr != nil {
		return nil, f.costErr
	}
	s := f.summary.Clone()
	s.Days = days
	return s, nil
}

func (f *fakeClient) GetSessionsUsage(ctx context.Context, limit int) (*models.SessionsUsageResponse, error) {
	if err := f.wait(ctx); err != nil {
		return nil, err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.usageCalls++
	return f.usage.Clone(), nil
}

func (f *fakeClient) Call(context.Context, string, any) ([]byte, error) {
	return nil, fmt.Errorf("not supported")
}

func (f *fakeClient) Subscribe(gateway.EventHandler) func() {
	return func() {}
}

func (f *fakeClient) calls() ([]int, int) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]int(nil), f.costCalls...), f.usageCalls
}

var _ gateway.RemoteClient = (*fakeClient)(nil)

func testTable() *models.PriceTable {
	return models.NewPriceTable(map[string]models.ModelPricing{
		"claude-opus-4-6": {Input: 5, Output: 25, CacheWrite: 6.25, CacheRead: 0.5},
	})
}

func completeSummary() *models.CostSummary {
	day := func(date string, cost float64) models.DailyEntry {
		return models.DailyEntry{Date: date, CostTotals: models.CostTotals{
			Input: 1000, TotalTokens: 1000, InputCost: cost, TotalCost: cost,
		}}
	}
	return &models.CostSummary{
		UpdatedAt: now.UnixMilli(),
		Days:      30,
		Daily:     []models.DailyEntry{day("2026-10-15", 1), day("2026-10-16", 2), day("2026-10-17", 3)},
		Totals:    models.CostTotals{Input: 3000, TotalTokens: 3000, InputCost: 6, TotalCost: 6},
	}
}

func partialUsage() *models.SessionsUsageResponse {
	opus := models.CostTotals{Input: 1_000_000, Output: 200_000, TotalTokens: 1_200_000, MissingCostEntries: 1}
	mystery := models.CostTotals{Input: 100, TotalTokens: 100, MissingCostEntries: 1}
	var totals models.CostTotals
	totals.Add(opus)
	totals.Add(mystery)
	return &models.SessionsUsageResponse{
		Totals: totals,
		Aggregates: models.UsageAggregates{
			ByModel: []models.ByModelEntry{
				{Model: "claude-opus-4-6", Count: 3, Totals: opus},
				{Model: "mystery-model", Count: 1, Totals: mystery},
			},
		},
	}
}

type testClock struct {
	mu sync.Mutex
	t  time.Time
}

func (c *testClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.t
}

func (c *testClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.t = c.t.Add(d)
}

func newTestPage(t *testing.T, client *fakeClient) (*Page, *cache.Store, *testClock) {
	t.Helper()
	clock := &testClock{t: now}
	store := cache.NewStore(cache.NewMemoryKV(),
		cache.WithNamespace("test"),
		cache.WithClock(clock.Now))
	page := NewPage(store, client, testTable(), WithTTL(15*time.Minute), WithUsageLimit(25))
	return page, store, clock
}

func TestPage_MountWithEmptyCacheFetches(t *testing.T) {
	client := &fakeClient{summary: completeSummary(), usage: partialUsage()}
	page, _, _ := newTestPage(t, client)

	v := page.Mount(context.Background())
	assert.False(t, v.Loaded())
	assert.Equal(t, models.Range30Days, v.Range.Preset)

	page.Wait()
	v = page.View()
	require.True(t, v.Loaded())
	assert.Equal(t, 30, v.Summary.Days)
	assert.Equal(t, 30, v.Days)
	assert.NoError(t, v.Err)
	assert.False(t, v.Refreshing)

	costCalls, usageCalls := client.calls()
	assert.Equal(t, []int{30}, costCalls)
	assert.Equal(t, 1, usageCalls)
}

func TestPage_StaleEntryRendersBeforeRefresh(t *testing.T) {
	client := &fakeClient{summary: completeSummary(), usage: partialUsage(), gate: make(chan struct{})}
	page, store, clock := newTestPage(t, client)

	stale := completeSummary()
	stale.Totals.TotalCost = 99
	cache.Set(store, CostKey(30), stale)
	cache.Set(store, models.CacheKeySessionsUsage, partialUsage())

	clock.Advance(20 * time.Minute)

	v := page.Mount(context.Background())
	require.NotNil(t, v.Summary)
	assert.Equal(t, 99.0, v.Summary.Totals.TotalCost, "cached value is shown synchronously")
	assert.True(t, v.Refreshing)

	costCalls, _ := client.calls()
	assert.Empty(t, costCalls, "fetch is still blocked")

	close(client.gate)
	page.Wait()

	v = page.View()
	assert.Equal(t, 6.0, v.Summary.Totals.TotalCost)
	assert.False(t, v.Refreshing)
}

func TestPage_FreshEntryDoesNotRefresh(t *testing.T) {
	client := &fakeClient{summary: completeSummary(), usage: partialUsage()}
	page, store, _ := newTestPage(t, client)

	cache.Set(store, CostKey(30), completeSummary())
	cache.Set(store, models.CacheKeySessionsUsage, partialUsage())

	v := page.Mount(context.Background())
	page.Wait()

	assert.True(t, v.Loaded())
	assert.False(t, v.Refreshing)
	costCalls, usageCalls := client.calls()
	assert.Empty(t, costCalls)
	assert.Zero(t, usageCalls)
}

func TestPage_ViewIsRecalculated(t *testing.T) {
	client := &fakeClient{summary: completeSummary(), usage: partialUsage()}
	page, store, _ := newTestPage(t, client)
	cache.Set(store, CostKey(30), completeSummary())
	cache.Set(store, models.CacheKeySessionsUsage, partialUsage())

	v := page.Mount(context.Background())

	assert.Equal(t, 2, v.Incomplete())
	assert.True(t, v.Recalc.Incomplete())
	byModel := v.Usage.Aggregates.ByModel
	assert.InDelta(t, 10.0, byModel[0].Totals.TotalCost, 1e-9)
	assert.Equal(t, 1, v.Usage.Totals.MissingCostEntries)

	// The cached copy keeps the raw remote values
	entry, ok := cache.Get[*models.SessionsUsageResponse](store, models.CacheKeySessionsUsage)
	require.True(t, ok)
	assert.Equal(t, 2, entry.Data.Totals.MissingCostEntries)
}

func TestPage_SelectIsTransientUntilApply(t *testing.T) {
	client := &fakeClient{summary: completeSummary(), usage: partialUsage()}
	page, store, _ := newTestPage(t, client)
	page.Mount(context.Background())
	page.Wait()

	page.Select(models.TimeRange{Preset: models.Range7Days})
	assert.Equal(t, models.Range7Days, page.Selected().Preset)
	assert.Equal(t, models.Range30Days, page.Applied().Preset)
	assert.Equal(t, models.Range30Days, cache.NewPreferences(store).Load().Preset)

	require.NoError(t, page.Apply(context.Background()))
	page.Wait()

	assert.Equal(t, models.Range7Days, page.Applied().Preset)
	assert.Equal(t, models.Range7Days, cache.NewPreferences(store).Load().Preset)

	costCalls, _ := client.calls()
	assert.Equal(t, []int{30, 7}, costCalls)
	assert.Equal(t, 7, page.View().Summary.Days)
}

func TestPage_WithRangeOverridesSavedRange(t *testing.T) {
	client := &fakeClient{summary: completeSummary(), usage: partialUsage()}
	clock := &testClock{t: now}
	store := cache.NewStore(cache.NewMemoryKV(), cache.WithNamespace("test"), cache.WithClock(clock.Now))
	page := NewPage(store, client, testTable(), WithRange(models.TimeRange{Preset: models.Range7Days}))

	v := page.Mount(context.Background())
	page.Wait()

	assert.Equal(t, models.Range7Days, v.Range.Preset)
	assert.Equal(t, 7, page.View().Days)
	assert.Equal(t, models.Range30Days, cache.NewPreferences(store).Load().Preset)

	costCalls, _ := client.calls()
	assert.Equal(t, []int{7}, costCalls)
}

func TestPage_ApplyRejectsInvalidRange(t *testing.T) {
	client := &fakeClient{summary: completeSummary(), usage: partialUsage()}
	page, _, _ := newTestPage(t, client)
	page.Mount(context.Background())
	page.Wait()

	page.Select(models.TimeRange{Preset: models.RangeCustom, Custom: models.CustomRange{Start: "2026-10-17", End: "2026-10-01"}})
	assert.Error(t, page.Apply(context.Background()))
	assert.Equal(t, models.Range30Days, page.Applied().Preset)
}

func TestPage_CustomRangeFiltersDays(t *testing.T) {
	client := &fakeClient{summary: completeSummary(), usage: partialUsage()}
	page, _, _ := newTestPage(t, client)
	page.Mount(context.Background())
	page.Wait()

	page.Select(models.TimeRange{Preset: models.RangeCustom, Custom: models.CustomRange{Start: "2026-10-16", End: "2026-10-17"}})
	require.NoError(t, page.Apply(context.Background()))
	page.Wait()

	v := page.View()
	require.Len(t, v.Summary.Daily, 2)
	assert.Equal(t, "2026-10-16", v.Summary.Daily[0].Date)
	assert.InDelta(t, 5.0, v.Summary.Totals.TotalCost, 1e-9)
	assert.Equal(t, 2, v.Days)
}

func TestPage_RefreshReportsErrors(t *testing.T) {
	client := &fakeClient{summary: completeSummary(), usage: partialUsage()}
	page, _, _ := newTestPage(t, client)

	assert.Error(t, page.Refresh(context.Background()), "not mounted")

	page.Mount(context.Background())
	page.Wait()

	client.mu.Lock()
	client.costErr = fmt.Errorf("usage.cost rejected")
	client.mu.Unlock()

	err := page.Refresh(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "usage.cost rejected")

	v := page.View()
	assert.Error(t, v.Err)
	require.NotNil(t, v.Summary, "previous data survives a failed refresh")
}

func TestPage_OnChange(t *testing.T) {
	client := &fakeClient{summary: completeSummary(), usage: partialUsage()}
	page, _, _ := newTestPage(t, client)

	var mu sync.Mutex
	var views []View
	page.OnChange(func(v View) {
		mu.Lock()
		defer mu.Unlock()
		views = append(views, v)
	})

	page.Mount(context.Background())
	page.Wait()

	mu.Lock()
	defer mu.Unlock()
	assert.Len(t, views, 2)
}
