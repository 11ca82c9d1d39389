package cache

import (
	"context"
	"sync"
	"time"

	"github.com/penwyp/ClawDeck/logging"
)

// FetchFunc loads fresh data from the remote service
type FetchFunc[T any] func(ctx context.Context) (T, error)

// Revalidator serves the cached value for one key immediately and refreshes
// it in the background when the entry is stale or absent.
type Revalidator[T any] struct {
	store *Store
	key   string
	ttl   time.Duration
	fetch FetchFunc[T]

	mu        sync.RWMutex
	value     T
	hasValue  bool
	updatedAt time.Time
	lastErr   error
	inflight  int
	started   uint64 // sequence of the newest fetch started
	applied   uint64 // sequence of the fetch that produced value or lastErr
	onUpdate  func(T)

	wg sync.WaitGroup
}

// NewRevalidator creates a Revalidator for key with the given staleness window
func NewRevalidator[T any](store *Store, key string, ttl time.Duration, fetch FetchFunc[T]) *Revalidator[T] {
	return &Revalidator[T]{
		store: store,
		key:   key,
		ttl:   ttl,
		fetch: fetch,
	}
}

// OnUpdate registers a callback invoked after every successful refresh
func (r *Revalidator[T]) OnUpdate(fn func(T)) {
	r.mu.Lock()
	r.onUpdate = fn
	r.mu.Unlock()
}

// Mount hydrates from the cache before returning, then starts a background
// refresh unless the cached entry is within ttl. It reports whether a value was
// hydrated and whether a refresh was started.
func (r *Revalidator[T]) Mount(ctx context.Context) (T, bool, bool) {
	entry, ok := Get[T](r.store, r.key)
	fresh := false

	r.mu.Lock()
	if ok {
		r.value = entry.Data
		r.hasValue = true
		r.updatedAt = time.UnixMilli(entry.TS)
		fresh = entry.IsFresh(r.store.Now(), r.ttl)
	}
	value, hydrated := r.value, r.hasValue
	r.mu.Unlock()

	if fresh {
		return value, hydrated, false
	}
	return value, hydrated, r.revalidate(ctx)
}

// revalidate starts a background refresh unless one is already running
func (r *Revalidator[T]) revalidate(ctx context.Context) bool {
	r.mu.Lock()
	if r.inflight > 0 {
		r.mu.Unlock()
		return false
	}
	seq := r.begin()
	r.mu.Unlock()

	r.wg.Add(1)
	go func() {
		defer r.wg.Done()
		if err := r.refresh(ctx, seq); err != nil {
			logging.LogWarnf("background refresh of %s failed: %v", r.key, err)
		}
	}()
	return true
}

// Refresh fetches synchronously, then overwrites memory and cache on success.
// It runs alongside a background refresh; a result older than one already
// applied is discarded.
func (r *Revalidator[T]) Refresh(ctx context.Context) error {
	r.mu.Lock()
	seq := r.begin()
	r.mu.Unlock()
	return r.refresh(ctx, seq)
}

// begin registers a fetch; r.mu must be held
func (r *Revalidator[T]) begin() uint64 {
	r.inflight++
	r.started++
	return r.started
}

func (r *Revalidator[T]) refresh(ctx context.Context, seq uint64) error {
	data, err := r.fetch(ctx)

	r.mu.Lock()
	r.inflight--
	if seq < r.applied {
		r.mu.Unlock()
		return err
	}
	r.applied = seq
	if err != nil {
		r.lastErr = err
		r.mu.Unlock()
		return err
	}
	r.value = data
	r.hasValue = true
	r.updatedAt = r.store.Now()
	r.lastErr = nil
	cb := r.onUpdate
	r.mu.Unlock()

	Set(r.store, r.key, data)

	if cb != nil {
		cb(data)
	}
	return nil
}

// Current returns the in-memory value
func (r *Revalidator[T]) Current() (T, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.value, r.hasValue
}

// UpdatedAt returns when the in-memory value was produced
func (r *Revalidator[T]) UpdatedAt() time.Time {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.updatedAt
}

// Err returns the last refresh error, cleared by the next success
func (r *Revalidator[T]) Err() error {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.lastErr
}

// Refreshing reports whether any fetch is in flight
func (r *Revalidator[T]) Refreshing() bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.inflight > 0
}

// Wait blocks until background refreshes started by Mount have finished
func (r *Revalidator[T]) Wait() {
	r.wg.Wait()
}
