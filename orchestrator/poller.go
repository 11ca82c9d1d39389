// Package orchestrator keeps the snapshot store in sync with the gateway:
// tiered polling, push-event reconciliation and on-demand detail loads.
package orchestrator

import (
	"context"
	"fmt"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/penwyp/ClawDeck/errors"
	"github.com/penwyp/ClawDeck/gateway"
	"github.com/penwyp/ClawDeck/logging"
	"github.com/penwyp/ClawDeck/models"
	"github.com/penwyp/ClawDeck/snapshot"
)

// Tier is one of the three polling cadences
type Tier int

const (
	TierFast Tier = iota
	TierMid
	TierSlow
)

// Tiers lists every tier in start order
var Tiers = []Tier{TierFast, TierMid, TierSlow}

func (t Tier) String() string {
	switch t {
	case TierFast:
		return "fast"
	case TierMid:
		return "mid"
	case TierSlow:
		return "slow"
	}
	return fmt.Sprintf("tier(%d)", int(t))
}

// Groups returns the entity groups fetched on each tick of t
func (t Tier) Groups() []models.EntityGroup {
	switch t {
	case TierFast:
		return []models.EntityGroup{models.GroupSessions}
	case TierMid:
		return []models.EntityGroup{models.GroupAgents, models.GroupCron}
	case TierSlow:
		return []models.EntityGroup{models.GroupCost, models.GroupUsage}
	}
	return nil
}

// Intervals are the per-tier cadences
type Intervals struct {
	Fast time.Duration
	Mid  time.Duration
	Slow time.Duration
}

// DefaultIntervals returns 10s / 30s / 120s
func DefaultIntervals() Intervals {
	return Intervals{
		Fast: models.DefaultFastInterval,
		Mid:  models.DefaultMidInterval,
		Slow: models.DefaultSlowInterval,
	}
}

func (iv Intervals) of(t Tier) time.Duration {
	switch t {
	case TierFast:
		return iv.Fast
	case TierMid:
		return iv.Mid
	default:
		return iv.Slow
	}
}

func (iv Intervals) withDefaults() Intervals {
	def := DefaultIntervals()
	if iv.Fast <= 0 {
		iv.Fast = def.Fast
	}
	if iv.Mid <= 0 {
		iv.Mid = def.Mid
	}
	if iv.Slow <= 0 {
		iv.Slow = def.Slow
	}
	return iv
}

// QueryParams are the parameters of the slow-tier queries
type QueryParams struct {
	CostDays   int
	UsageLimit int
}

// Poller drives the three refresh tiers against a snapshot store. It owns its
// timers and client reference; Start and Stop may be called repeatedly.
type Poller struct {
	store  *snapshot.Store
	params QueryParams

	mu        sync.Mutex
	client    gateway.RemoteClient
	intervals Intervals
	running   bool
	cancel    context.CancelFunc
	resets    map[Tier]chan time.Duration
	// wg tracks the goroutines of the current Start generation only
	wg        *sync.WaitGroup
}

// PollerOption configures a Poller
type PollerOption func(*Poller)

// WithIntervals sets the initial tier cadences
func WithIntervals(iv Intervals) PollerOption {
	return func(p *Poller) {
		p.intervals = iv.withDefaults()
	}
}

// WithQueryParams sets the cost window and usage limit
func WithQueryParams(q QueryParams) PollerOption {
	return func(p *Poller) {
		if q.CostDays > 0 {
			p.params.CostDays = q.CostDays
		}
		if q.UsageLimit > 0 {
			p.params.UsageLimit = q.UsageLimit
		}
	}
}

// NewPoller creates a stopped poller writing into store
func NewPoller(store *snapshot.Store, opts ...PollerOption) *Poller {
	p := &Poller{
		store:     store,
		intervals: DefaultIntervals(),
		params: QueryParams{
			CostDays:   models.DefaultCostDays,
			UsageLimit: models.DefaultUsageLimit,
		},
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Start begins polling through client. Every tier fetches immediately, then
// on its own interval. Starting a running poller is a no-op and returns false.
func (p *Poller) Start(client gateway.RemoteClient) bool {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.running {
		return false
	}

	ctx, cancel := context.WithCancel(context.Background())
	p.client = client
	p.running = true
	p.cancel = cancel
	p.resets = make(map[Tier]chan time.Duration, len(Tiers))
	wg := &sync.WaitGroup{}
	p.wg = wg

	for _, tier := range Tiers {
		reset := make(chan time.Duration, 1)
		p.resets[tier] = reset
		wg.Add(1)
		go p.tierLoop(ctx, wg, tier, p.intervals.of(tier), reset)
	}

	logging.LogInfof("poller started (fast=%s mid=%s slow=%s)", p.intervals.Fast, p.intervals.Mid, p.intervals.Slow)
	return true
}

// SetClient sets the client used by manual refreshes without starting the timers
func (p *Poller) SetClient(client gateway.RemoteClient) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.client = client
}

// Stop cancels every tier and waits for in-flight fetches to return
func (p *Poller) Stop() {
	p.mu.Lock()
	if !p.running {
		p.mu.Unlock()
		return
	}
	p.running = false
	p.cancel()
	p.resets = nil
	wg := p.wg
	p.wg = nil
	p.mu.Unlock()

	wg.Wait()
	logging.LogInfo("poller stopped")
}

// Running reports whether Start has been called without a matching Stop
func (p *Poller) Running() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.running
}

// Intervals returns the current cadences
func (p *Poller) Intervals() Intervals {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.intervals
}

// SetIntervals changes the cadences. Running tiers pick up the new interval
// from their next tick without an extra fetch.
func (p *Poller) SetIntervals(iv Intervals) {
	iv = iv.withDefaults()

	p.mu.Lock()
	defer p.mu.Unlock()

	p.intervals = iv
	for tier, reset := range p.resets {
		select {
		case <-reset:
		default:
		}
		reset <- iv.of(tier)
	}
}

func (p *Poller) tierLoop(ctx context.Context, wg *sync.WaitGroup, tier Tier, interval time.Duration, reset <-chan time.Duration) {
	defer wg.Done()

	p.launch(ctx, wg, tier)

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case d := <-reset:
			ticker.Reset(d)
		case <-ticker.C:
			p.launch(ctx, wg, tier)
		}
	}
}

// launch runs one tick in the background so a slow fetch never delays the next tick
func (p *Poller) launch(ctx context.Context, wg *sync.WaitGroup, tier Tier) {
	wg.Add(1)
	go func() {
		defer wg.Done()
		_ = p.runTier(ctx, tier)
	}()
}

// runTier fetches every group of tier concurrently. A failing group does not
// affect its siblings; the returned error joins all failures.
func (p *Poller) runTier(ctx context.Context, tier Tier) error {
	collector := errors.NewErrorCollector()
	var g errgroup.Group

	for _, group := range tier.Groups() {
		group := group
		g.Go(func() error {
			collector.Collect(p.RefreshGroup(ctx, group))
			return nil
		})
	}
	_ = g.Wait()

	return collector.Err()
}

// RefreshAll fetches every tier immediately, out of band from the timers
func (p *Poller) RefreshAll(ctx context.Context) error {
	collector := errors.NewErrorCollector()
	var g errgroup.Group

	for _, tier := range Tiers {
		tier := tier
		g.Go(func() error {
			collector.Collect(p.runTier(ctx, tier))
			return nil
		})
	}
	_ = g.Wait()

	return collector.Err()
}

// RefreshGroup fetches one group now, regardless of its cadence. On failure
// the group's error is set and its data is left untouched.
func (p *Poller) RefreshGroup(ctx context.Context, group models.EntityGroup) (err error) {
	client := p.currentClient()
	if client == nil {
		return errors.Transport(string(group), "refresh", fmt.Errorf("poller has no client"))
	}

	p.store.SetLoading(group, true)

	defer func() {
		if pe := errors.CapturePanic("fetch "+string(group), recover()); pe != nil {
			logging.LogErrorf("%v", pe)
			p.store.SetError(group, pe.Error())
			err = pe
		}
	}()

	var fe *errors.FetchError
	switch group {
	case models.GroupSessions:
		r := FetchSessions(ctx, client)
		if fe = r.Err; fe == nil {
			p.store.SetSessions(r.Value)
		}
	case models.GroupAgents:
		r := FetchAgents(ctx, client)
		if fe = r.Err; fe == nil {
			p.store.SetAgents(r.Value)
		}
	case models.GroupCron:
		r := FetchCronJobs(ctx, client)
		if fe = r.Err; fe == nil {
			p.store.SetCronJobs(r.Value)
		}
	case models.GroupCost:
		r := FetchCost(ctx, client, p.params.CostDays)
		if fe = r.Err; fe == nil {
			p.store.SetCost(r.Value)
		}
	case models.GroupUsage:
		r := FetchUsage(ctx, client, p.params.UsageLimit)
		if fe = r.Err; fe == nil {
			p.store.SetUsage(r.Value)
		}
	default:
		p.store.SetLoading(group, false)
		return fmt.Errorf("unknown entity group %q", group)
	}

	if fe != nil {
		if ctx.Err() != nil {
			// Stopped mid-fetch; keep the previous state quiet
			p.store.SetLoading(group, false)
			return fe
		}
		logging.LogWarnf("refresh %s failed (%s): %v", group, fe.Kind, fe)
		p.store.SetError(group, fe.Error())
		return fe
	}
	return nil
}

func (p *Poller) currentClient() gateway.RemoteClient {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.client
}
