package orchestrator

import (
	"context"
	"sync"
)

// DetailLoader loads one keyed detail at a time (e.g. the run history of the
// selected cron job). Each Load takes a sequence number; a response is applied
// only if no newer Load was issued since, so the shown detail always belongs
// to the most recent request.
type DetailLoader[T any] struct {
	fetch func(ctx context.Context, key string) (T, error)

	mu       sync.Mutex
	seq      uint64
	key      string
	value    T
	err      error
	loading  bool
	onChange func(key string, value T, err error)
}

// NewDetailLoader creates a loader around fetch
func NewDetailLoader[T any](fetch func(ctx context.Context, key string) (T, error)) *DetailLoader[T] {
	return &DetailLoader[T]{fetch: fetch}
}

// OnChange registers fn, called after every applied response
func (d *DetailLoader[T]) OnChange(fn func(key string, value T, err error)) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.onChange = fn
}

// Load fetches key and applies the result unless superseded. It returns
// whether the result was applied and the fetch error, if any.
func (d *DetailLoader[T]) Load(ctx context.Context, key string) (bool, error) {
	d.mu.Lock()
	d.seq++
	mine := d.seq
	d.key = key
	d.loading = true
	d.mu.Unlock()

	value, err := d.fetch(ctx, key)

	d.mu.Lock()
	if mine != d.seq {
		d.mu.Unlock()
		return false, err
	}
	d.value = value
	d.err = err
	d.loading = false
	fn := d.onChange
	d.mu.Unlock()

	if fn != nil {
		fn(key, value, err)
	}
	return true, err
}

// Current returns the key of the latest request and the last applied result
func (d *DetailLoader[T]) Current() (key string, value T, err error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.key, d.value, d.err
}

// Loading reports whether the latest request is still in flight
func (d *DetailLoader[T]) Loading() bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.loading
}
