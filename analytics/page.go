// Package analytics backs the cost analytics view: the two heavy historical
// queries served stale-while-revalidate, the time-range selection and the
// recalculated figures shown to the user.
package analytics

import (
	"context"
	"fmt"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/penwyp/ClawDeck/cache"
	"github.com/penwyp/ClawDeck/calculations"
	"github.com/penwyp/ClawDeck/errors"
	"github.com/penwyp/ClawDeck/gateway"
	"github.com/penwyp/ClawDeck/logging"
	"github.com/penwyp/ClawDeck/models"
)

// View is what the analytics page renders
type View struct {
	Range      models.TimeRange
	Days       int
	Summary    *models.CostSummary
	Usage      *models.SessionsUsageResponse
	Recalc     calculations.Recalculation
	UpdatedAt  time.Time
	Refreshing bool
	Err        error
}

// Incomplete returns the number of cost entries the remote service could not price
func (v View) Incomplete() int {
	return v.Recalc.OriginalMissing
}

// Loaded reports whether either query has produced data
func (v View) Loaded() bool {
	return v.Summary != nil || v.Usage != nil
}

// Page owns the analytics data. The selected range is transient until Apply.
type Page struct {
	store  *cache.Store
	client gateway.RemoteClient
	recalc *calculations.CostRecalculator
	prefs  *cache.Preferences
	ttl    time.Duration
	limit  int
	fixed  *models.TimeRange

	mu       sync.Mutex
	applied  models.TimeRange
	selected models.TimeRange
	cost     *cache.Revalidator[*models.CostSummary]
	usage    *cache.Revalidator[*models.SessionsUsageResponse]
	onChange func(View)
}

// PageOption configures a Page
type PageOption func(*Page)

// WithTTL sets the staleness window of both queries
func WithTTL(ttl time.Duration) PageOption {
	return func(p *Page) {
		if ttl > 0 {
			p.ttl = ttl
		}
	}
}

// WithUsageLimit sets the sessions.usage limit
func WithUsageLimit(limit int) PageOption {
	return func(p *Page) {
		if limit > 0 {
			p.limit = limit
		}
	}
}

// WithRange mounts tr instead of the saved range, without persisting it
func WithRange(tr models.TimeRange) PageOption {
	return func(p *Page) {
		p.fixed = &tr
	}
}

// NewPage creates an unmounted page
func NewPage(store *cache.Store, client gateway.RemoteClient, table *models.PriceTable, opts ...PageOption) *Page {
	p := &Page{
		store:  store,
		client: client,
		recalc: calculations.NewCostRecalculator(table),
		prefs:  cache.NewPreferences(store),
		ttl:    models.DefaultAnalyticsTTL,
		limit:  models.DefaultUsageLimit,
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// OnChange registers fn, called with the new view after every background update
func (p *Page) OnChange(fn func(View)) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.onChange = fn
}

// Mount reads the saved range, hydrates both queries from the cache and
// starts background refreshes for whichever is stale. The returned view holds
// whatever the cache had; it never waits for the network.
func (p *Page) Mount(ctx context.Context) View {
	tr := p.prefs.Load()
	if p.fixed != nil {
		tr = *p.fixed
	}

	p.mu.Lock()
	p.applied = tr
	p.selected = tr
	p.mu.Unlock()

	p.mountUsage(ctx)
	p.mountCost(ctx, tr)
	return p.View()
}

func (p *Page) mountUsage(ctx context.Context) {
	usage := cache.NewRevalidator(p.store, models.CacheKeySessionsUsage, p.ttl,
		func(ctx context.Context) (*models.SessionsUsageResponse, error) {
			return p.client.GetSessionsUsage(ctx, p.limit)
		})
	usage.OnUpdate(func(*models.SessionsUsageResponse) { p.notify() })

	p.mu.Lock()
	p.usage = usage
	p.mu.Unlock()

	_, hydrated, refreshing := usage.Mount(ctx)
	logging.LogDebugf("analytics usage mounted (hydrated=%v refreshing=%v)", hydrated, refreshing)
}

func (p *Page) mountCost(ctx context.Context, tr models.TimeRange) {
	days := tr.Days(p.store.Now())
	cost := cache.NewRevalidator(p.store, CostKey(days), p.ttl,
		func(ctx context.Context) (*models.CostSummary, error) {
			return p.client.GetCostSummary(ctx, days)
		})
	cost.OnUpdate(func(*models.CostSummary) { p.notify() })

	p.mu.Lock()
	p.cost = cost
	p.mu.Unlock()

	_, hydrated, refreshing := cost.Mount(ctx)
	logging.LogDebugf("analytics cost (%dd) mounted (hydrated=%v refreshing=%v)", days, hydrated, refreshing)
}

// CostKey keeps one cached summary per window so switching ranges never
// shows another window's figures
func CostKey(days int) string {
	return fmt.Sprintf("%s:%d", models.CacheKeyCostSummary, days)
}

// Select changes the pending range without persisting or fetching
func (p *Page) Select(tr models.TimeRange) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.selected = tr
}

// Selected returns the pending range
func (p *Page) Selected() models.TimeRange {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.selected
}

// Applied returns the range the shown data belongs to
func (p *Page) Applied() models.TimeRange {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.applied
}

// Apply persists the selected range and remounts the cost query for it
func (p *Page) Apply(ctx context.Context) error {
	tr := p.Selected()
	if err := p.prefs.Apply(tr); err != nil {
		return fmt.Errorf("apply range: %w", err)
	}

	p.mu.Lock()
	p.applied = tr
	p.mu.Unlock()

	p.mountCost(ctx, tr)
	p.notify()
	return nil
}

// Refresh refetches both queries now, ignoring freshness
func (p *Page) Refresh(ctx context.Context) error {
	cost, usage := p.revalidators()
	if cost == nil || usage == nil {
		return fmt.Errorf("analytics page is not mounted")
	}

	collector := errors.NewErrorCollector()
	var g errgroup.Group
	g.Go(func() error {
		collector.Collect(cost.Refresh(ctx))
		return nil
	})
	g.Go(func() error {
		collector.Collect(usage.Refresh(ctx))
		return nil
	})
	_ = g.Wait()

	return collector.Err()
}

// Wait blocks until background refreshes started by Mount or Apply finish
func (p *Page) Wait() {
	cost, usage := p.revalidators()
	if cost != nil {
		cost.Wait()
	}
	if usage != nil {
		usage.Wait()
	}
}

// View returns the current figures with recalculation applied
func (p *Page) View() View {
	p.mu.Lock()
	tr := p.applied
	p.mu.Unlock()
	cost, usage := p.revalidators()

	v := View{Range: tr, Days: tr.Days(p.store.Now())}
	if cost == nil || usage == nil {
		return v
	}

	summary, _ := cost.Current()
	sessions, _ := usage.Current()
	if tr.Preset == models.RangeCustom {
		summary = filterDaily(summary, tr.Custom)
	}

	v.Recalc = p.recalc.Recalculate(sessions, summary)
	v.Summary = v.Recalc.Summary
	v.Usage = v.Recalc.Usage
	v.Refreshing = cost.Refreshing() || usage.Refreshing()
	v.UpdatedAt = latest(cost.UpdatedAt(), usage.UpdatedAt())
	if err := cost.Err(); err != nil {
		v.Err = err
	} else if err := usage.Err(); err != nil {
		v.Err = err
	}
	return v
}

func (p *Page) revalidators() (*cache.Revalidator[*models.CostSummary], *cache.Revalidator[*models.SessionsUsageResponse]) {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.cost, p.usage
}

func (p *Page) notify() {
	p.mu.Lock()
	fn := p.onChange
	p.mu.Unlock()
	if fn != nil {
		fn(p.View())
	}
}

// filterDaily narrows a summary to the custom range and re-sums its totals
func filterDaily(s *models.CostSummary, r models.CustomRange) *models.CostSummary {
	if s == nil || r.IsZero() {
		return s
	}
	out := s.Clone()
	out.Daily = out.Daily[:0]
	var totals models.CostTotals
	for _, d := range s.Daily {
		if r.Contains(d.Date) {
			out.Daily = append(out.Daily, d)
			totals.Add(d.CostTotals)
		}
	}
	out.Totals = totals
	return out
}

func latest(a, b time.Time) time.Time {
	if a.After(b) {
		return a
	}
	return b
}
