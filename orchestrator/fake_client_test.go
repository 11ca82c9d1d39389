package orchestrator

import (
	"context"
	"fmt"
	"sync"

	"github.com/penwyp/ClawDeck/gateway"
	"github.com/penwyp/ClawDeck/models"
)

// fakeClient is an in-memory RemoteClient with per-method responses and call counts
type fakeClient struct {
	mu sync.Mutex

	sessions *models.SessionList
	agents   []models.AgentSnapshot
	cost     *models.CostSummary
	usage    *models.SessionsUsageResponse
	calls    map[string][]byte

	errs   map[string]error
	counts map[string]int
	params map[string][]any

	handlers map[int]gateway.EventHandler
	nextID   int
}

func newFakeClient() *fakeClient {
	return &fakeClient{
		sessions: &models.SessionList{Sessions: []models.SessionSnapshot{{Key: "s1", Running: true}}},
		agents:   []models.AgentSnapshot{{ID: "main", Name: "Main"}},
		cost:     &models.CostSummary{Days: 30, Totals: models.CostTotals{TotalCost: 1.5}},
		usage:    &models.SessionsUsageResponse{Totals: models.CostTotals{TotalTokens: 10}},
		calls: map[string][]byte{
			models.MethodCronList: []byte(`{"jobs":[{"id":"nightly","name":"Nightly","enabled":true}]}`),
			models.MethodCronRun:  []byte(`{"ok":true}`),
			models.MethodCronRuns: []byte(`{"runs":[{"id":"r1","jobId":"nightly","startedAt":1,"status":"ok"}]}`),
		},
		errs:     make(map[string]error),
		counts:   make(map[string]int),
		params:   make(map[string][]any),
		handlers: make(map[int]gateway.EventHandler),
	}
}

func (f *fakeClient) record(method string, params any) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.counts[method]++
	f.params[method] = append(f.params[method], params)
	return f.errs[method]
}

func (f *fakeClient) fail(method string, err error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.errs[method] = err
}

func (f *fakeClient) count(method string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.counts[method]
}

func (f *fakeClient) lastParams(method string) any {
	f.mu.Lock()
	defer f.mu.Unlock()
	p := f.params[method]
	if len(p) == 0 {
		return nil
	}
	return p[len(p)-1]
}

func (f *fakeClient) GetSessions(ctx context.Context) (*models.SessionList, error) {
	if err := f.record(models.MethodSessionsList, nil); err != nil {
		return nil, err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.sessions, nil
}

func (f *fakeClient) GetAgents(ctx context.Context) ([]models.AgentSnapshot, error) {
	if err := f.record(models.MethodAgentsList, nil); err != nil {
		return nil, err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.agents, nil
}

func (f *fakeClient) GetCostSummary(ctx context.Context, days int) (*models.CostSummary, error) {
	if err := f.record(models.MethodUsageCost, days); err != nil {
		return nil, err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.cost, nil
}

func (f *fakeClient) GetSessionsUsage(ctx context.Context, limit int) (*models.SessionsUsageResponse, error) {
	if err := f.record(models.MethodSessionsUsage, limit); err != nil {
		return nil, err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.usage, nil
}

func (f *fakeClient) Call(ctx context.Context, method string, params any) ([]byte, error) {
	if err := f.record(method, params); err != nil {
		return nil, err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	raw, ok := f.calls[method]
	if !ok {
		return nil, fmt.Errorf("unknown method %s", method)
	}
	return raw, nil
}

func (f *fakeClient) Subscribe(handler gateway.EventHandler) func() {
	f.mu.Lock()
	defer f.mu.Unlock()
	id := f.nextID
	f.nextID++
	f.handlers[id] = handler
	return func() {
		f.mu.Lock()
		defer f.mu.Unlock()
		delete(f.handlers, id)
	}
}

func (f *fakeClient) emit(name, payload string) {
	f.mu.Lock()
	handlers := make([]gateway.EventHandler, 0, len(f.handlers))
	for _, h := range f.handlers {
		handlers = append(handlers, h)
	}
	f.mu.Unlock()

	for _, h := range handlers {
		h(name, []byte(payload))
	}
}

func (f *fakeClient) subscribers() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.handlers)
}

var _ gateway.RemoteClient = (*fakeClient)(nil)
