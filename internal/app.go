package internal

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/penwyp/ClawDeck/analytics"
	"github.com/penwyp/ClawDeck/cache"
	"github.com/penwyp/ClawDeck/config"
	"github.com/penwyp/ClawDeck/gateway"
	"github.com/penwyp/ClawDeck/logging"
	"github.com/penwyp/ClawDeck/models"
	"github.com/penwyp/ClawDeck/orchestrator"
	"github.com/penwyp/ClawDeck/snapshot"
	"github.com/penwyp/ClawDeck/ui"
)

// Application wires the gateway client, the snapshot store and its poller,
// the persistent cache and the UI together
type Application struct {
	config     *config.Config
	configPath string
	background bool
	autoPoll   bool

	kv         cache.KV
	persistent bool
	cache      *cache.Store
	prices     *models.PriceTable
	client     *gateway.Client
	store      *snapshot.Store
	poller     *orchestrator.Poller
	reconciler *orchestrator.EventReconciler
	cron       *orchestrator.CronActions
	analytics  *analytics.Page
	watcher    *config.Watcher
	ui         *ui.App

	ctx     context.Context
	cancel  context.CancelFunc
	wg      sync.WaitGroup
	running bool
	stopped bool
	mu      sync.RWMutex
}

// Option configures an Application
type Option func(*Application)

// WithConfigPath enables live reload of the given configuration file
func WithConfigPath(path string) Option {
	return func(a *Application) {
		a.configPath = path
	}
}

// WithBackground runs without the TUI until a signal arrives
func WithBackground() Option {
	return func(a *Application) {
		a.background = true
	}
}

// OneShot disables the tiered poller. Commands refresh explicitly instead.
func OneShot() Option {
	return func(a *Application) {
		a.autoPoll = false
	}
}

// NewApplication creates a new application instance
func NewApplication(cfg *config.Config, opts ...Option) (*Application, error) {
	if cfg == nil {
		return nil, fmt.Errorf("configuration is nil")
	}

	ctx, cancel := context.WithCancel(context.Background())
	app := &Application{
		config:   cfg,
		autoPoll: true,
		ctx:      ctx,
		cancel:   cancel,
	}
	for _, opt := range opts {
		opt(app)
	}

	if err := app.bootstrap(); err != nil {
		cancel()
		app.closeStorage()
		return nil, fmt.Errorf("bootstrap failed: %w", err)
	}

	return app, nil
}

// Run connects to the gateway and runs the UI until the user quits or a
// termination signal arrives
func (a *Application) Run() error {
	logging.LogInfo("Starting ClawDeck application")

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
	defer signal.Stop(sigCh)

	if err := a.start(); err != nil {
		_ = a.shutdown()
		return fmt.Errorf("failed to start application: %w", err)
	}

	a.wg.Add(1)
	go a.handleSignals(sigCh)

	var err error
	if a.background {
		err = a.runBackground()
	} else {
		err = a.runInteractive()
	}

	a.cancel()
	a.wg.Wait()

	if shutdownErr := a.shutdown(); shutdownErr != nil {
		logging.LogErrorf("Shutdown error: %v", shutdownErr)
		if err == nil {
			err = shutdownErr
		}
	}

	logging.LogInfo("ClawDeck application stopped")
	return err
}

// start brings up the live components. A failed first dial is not fatal:
// connectLoop keeps retrying and the UI shows the disconnected state meanwhile.
func (a *Application) start() error {
	a.mu.Lock()
	a.running = true
	a.mu.Unlock()

	if a.watcher != nil {
		if err := a.watcher.Start(); err != nil {
			return fmt.Errorf("failed to start config watcher: %w", err)
		}
	}

	a.reconciler.Attach(a.client)
	if err := a.Connect(a.ctx); err != nil {
		logging.LogWarnf("Gateway unavailable, retrying in background: %v", err)
		a.wg.Add(1)
		go a.connectLoop()
	}

	if a.analytics != nil {
		a.analytics.Mount(a.ctx)
	}
	return nil
}

// Connect dials the gateway. With the poller enabled, the connected callback
// starts it.
func (a *Application) Connect(ctx context.Context) error {
	return a.client.Connect(ctx)
}

// connectLoop retries the first dial with exponential backoff. Once connected,
// the client handles reconnects itself.
func (a *Application) connectLoop() {
	defer a.wg.Done()

	gw := a.Config().Gateway
	delay := gw.ReconnectMin
	for {
		select {
		case <-a.ctx.Done():
			return
		case <-time.After(delay):
		}

		err := a.Connect(a.ctx)
		if err == nil {
			return
		}
		logging.LogDebugf("gateway dial failed, next attempt in %s: %v", delay, err)
		delay = min(delay*2, gw.ReconnectMax)
	}
}

// runInteractive starts the TUI application
func (a *Application) runInteractive() error {
	logging.LogInfo("Starting interactive TUI mode")
	return a.ui.Start()
}

// runBackground keeps the poller and reconciler running without a UI
func (a *Application) runBackground() error {
	logging.LogInfo("Starting background mode")
	<-a.ctx.Done()
	return nil
}

// handleSignals cancels the run on the first signal
func (a *Application) handleSignals(sigCh <-chan os.Signal) {
	defer a.wg.Done()

	select {
	case sig := <-sigCh:
		logging.LogInfof("Received signal %v, shutting down", sig)
		if a.ui != nil {
			_ = a.ui.Stop()
		}
		a.cancel()
	case <-a.ctx.Done():
	}
}

// onConnState ties the poller lifecycle to gateway connectivity
func (a *Application) onConnState(state gateway.ConnState) {
	logging.LogInfof("Gateway %s", state)
	if !a.autoPoll {
		return
	}

	switch state {
	case gateway.StateConnected:
		if a.poller.Start(a.client) && a.analytics != nil {
			go func() {
				if err := a.analytics.Refresh(a.ctx); err != nil {
					logging.LogDebugf("analytics refresh after connect: %v", err)
				}
			}()
		}
	case gateway.StateDisconnected:
		// Stop waits for in-flight fetches, which must not block the client
		go a.poller.Stop()
	}
}

// onConfigChange applies reloaded settings that are safe to change live
func (a *Application) onConfigChange(cfg *config.Config) {
	if l := logging.GetGlobalLogger(); l != nil {
		l.SetLevel(cfg.App.LogLevel)
	}
	a.poller.SetIntervals(intervalsFrom(cfg.Polling))
	logging.LogInfof("Configuration reloaded: polling %s/%s/%s",
		cfg.Polling.Fast, cfg.Polling.Mid, cfg.Polling.Slow)

	a.mu.Lock()
	a.config = cfg
	a.mu.Unlock()
}

// IsRunning reports whether Run is in progress
func (a *Application) IsRunning() bool {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return a.running
}

// Config returns the active configuration
func (a *Application) Config() *config.Config {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return a.config
}

// Store returns the snapshot store
func (a *Application) Store() *snapshot.Store { return a.store }

// Poller returns the tiered poller
func (a *Application) Poller() *orchestrator.Poller { return a.poller }

// Cron returns the cron actions
func (a *Application) Cron() *orchestrator.CronActions { return a.cron }

// Analytics returns the analytics page
func (a *Application) Analytics() *analytics.Page { return a.analytics }

// Cache returns the persistent cache
func (a *Application) Cache() *cache.Store { return a.cache }

// Persistent reports whether the cache is backed by disk
func (a *Application) Persistent() bool { return a.persistent }

// Client returns the gateway client
func (a *Application) Client() *gateway.Client { return a.client }

// Prices returns the merged price table
func (a *Application) Prices() *models.PriceTable { return a.prices }

// Close releases everything a one-shot command opened
func (a *Application) Close() error {
	a.cancel()
	return a.shutdown()
}
