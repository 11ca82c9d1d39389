package orchestrator

import (
	"context"
	"sync"
	"time"

	"github.com/penwyp/ClawDeck/gateway"
	"github.com/penwyp/ClawDeck/logging"
	"github.com/penwyp/ClawDeck/models"
	"github.com/penwyp/ClawDeck/snapshot"
)

// GroupRefresher refetches a whole entity group
type GroupRefresher interface {
	RefreshGroup(ctx context.Context, group models.EntityGroup) error
}

// EventReconciler applies gateway push events to the snapshot store between polls
type EventReconciler struct {
	store     *snapshot.Store
	refresher GroupRefresher
	timeout   time.Duration

	mu          sync.Mutex
	unsubscribe func()
	wg          sync.WaitGroup
}

// NewEventReconciler creates a reconciler. refresher handles events too sparse to merge.
func NewEventReconciler(store *snapshot.Store, refresher GroupRefresher) *EventReconciler {
	return &EventReconciler{
		store:     store,
		refresher: refresher,
		timeout:   30 * time.Second,
	}
}

// Attach subscribes to client's push events, replacing any previous subscription
func (r *EventReconciler) Attach(client gateway.RemoteClient) {
	unsubscribe := client.Subscribe(func(name string, payload []byte) {
		_ = r.Handle(name, payload)
	})

	r.mu.Lock()
	prev := r.unsubscribe
	r.unsubscribe = unsubscribe
	r.mu.Unlock()

	if prev != nil {
		prev()
	}
}

// Detach drops the subscription and waits for pending refetches
func (r *EventReconciler) Detach() {
	r.mu.Lock()
	unsubscribe := r.unsubscribe
	r.unsubscribe = nil
	r.mu.Unlock()

	if unsubscribe != nil {
		unsubscribe()
	}
	r.wg.Wait()
}

// Handle applies one push event. Unknown events are ignored; a known event
// with an unusable payload returns the decode error and changes nothing.
func (r *EventReconciler) Handle(name string, payload []byte) error {
	ev, err := gateway.DecodeEvent(name, payload)
	if err != nil {
		logging.LogWarnf("dropping event %s: %v", name, err)
		return err
	}

	switch e := ev.(type) {
	case gateway.SessionEvent:
		r.store.UpsertSession(e.Patch)
	case gateway.CronRunEvent:
		r.store.UpsertCronJob(e.Patch)
	case gateway.AgentEvent:
		r.refetch(models.GroupAgents)
	case gateway.UnhandledEvent:
		logging.LogDebugf("ignoring event %s", e.Name)
	}
	return nil
}

// refetch runs outside the event callback, which may be the transport's read loop
func (r *EventReconciler) refetch(group models.EntityGroup) {
	if r.refresher == nil {
		return
	}
	r.wg.Add(1)
	go func() {
		defer r.wg.Done()
		ctx, cancel := context.WithTimeout(context.Background(), r.timeout)
		defer cancel()
		if err := r.refresher.RefreshGroup(ctx, group); err != nil {
			logging.LogDebugf("event-triggered refresh of %s failed: %v", group, err)
		}
	}()
}
