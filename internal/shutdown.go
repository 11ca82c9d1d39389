package internal

import (
	"context"
	"fmt"
	"time"

	"github.com/penwyp/ClawDeck/logging"
)

const shutdownTimeout = 30 * time.Second

// shutdown stops all components in reverse order of initialization. It is
// safe to call more than once.
func (a *Application) shutdown() error {
	a.mu.Lock()
	if a.stopped {
		a.mu.Unlock()
		return nil
	}
	a.stopped = true
	a.running = false
	a.mu.Unlock()

	logging.LogInfo("Initiating graceful shutdown...")

	ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	shutdownSteps := []struct {
		name string
		fn   func(context.Context) error
	}{
		{"UI", a.stopUI},
		{"Config Watcher", a.stopWatcher},
		{"Event Reconciler", a.stopReconciler},
		{"Poller", a.stopPoller},
		{"Analytics", a.stopAnalytics},
		{"Gateway Client", a.stopClient},
		{"Cache", a.stopCache},
	}

	var errs []error
	for _, step := range shutdownSteps {
		if ctx.Err() != nil {
			logging.LogWarnf("Shutdown timeout exceeded, skipping %s", step.name)
			continue
		}
		logging.LogDebugf("Stopping %s...", step.name)
		if err := step.fn(ctx); err != nil {
			errs = append(errs, fmt.Errorf("%s: %w", step.name, err))
			logging.LogErrorf("Failed to stop %s: %v", step.name, err)
		}
	}

	if len(errs) > 0 {
		return fmt.Errorf("shutdown errors: %v", errs)
	}

	logging.LogInfo("Graceful shutdown completed")
	return nil
}

func (a *Application) stopUI(ctx context.Context) error {
	if a.ui == nil {
		return nil
	}
	return a.ui.Stop()
}

func (a *Application) stopWatcher(ctx context.Context) error {
	if a.watcher == nil {
		return nil
	}
	return a.watcher.Stop()
}

func (a *Application) stopReconciler(ctx context.Context) error {
	if a.reconciler != nil {
		a.reconciler.Detach()
	}
	return nil
}

// stopPoller cancels in-flight fetches and waits for them within ctx
func (a *Application) stopPoller(ctx context.Context) error {
	if a.poller == nil {
		return nil
	}
	return waitCtx(ctx, a.poller.Stop)
}

func (a *Application) stopAnalytics(ctx context.Context) error {
	if a.analytics == nil {
		return nil
	}
	return waitCtx(ctx, a.analytics.Wait)
}

func (a *Application) stopClient(ctx context.Context) error {
	if a.client == nil {
		return nil
	}
	return a.client.Close()
}

func (a *Application) stopCache(ctx context.Context) error {
	return a.closeStorage()
}

// closeStorage closes the cache backend if it was opened
func (a *Application) closeStorage() error {
	if a.cache != nil {
		err := a.cache.Close()
		a.cache = nil
		a.kv = nil
		return err
	}
	if a.kv != nil {
		err := a.kv.Close()
		a.kv = nil
		return err
	}
	return nil
}

// waitCtx runs fn and returns early with ctx's error if it outlives ctx
func waitCtx(ctx context.Context, fn func()) error {
	done := make(chan struct{})
	go func() {
		fn()
		close(done)
	}()

	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
