package internal

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/penwyp/ClawDeck/analytics"
	"github.com/penwyp/ClawDeck/cache"
	"github.com/penwyp/ClawDeck/config"
	"github.com/penwyp/ClawDeck/gateway"
	"github.com/penwyp/ClawDeck/logging"
	"github.com/penwyp/ClawDeck/models/pricing"
	"github.com/penwyp/ClawDeck/orchestrator"
	"github.com/penwyp/ClawDeck/snapshot"
	"github.com/penwyp/ClawDeck/ui"
)

const pricingTimeout = 15 * time.Second

// bootstrap initializes all application components
func (a *Application) bootstrap() error {
	logging.LogInfo("Bootstrapping application")

	// 1. Validate configuration
	if err := a.validateConfig(); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}

	// 2. Open the persistent cache
	if err := a.setupCache(); err != nil {
		return fmt.Errorf("failed to setup cache: %w", err)
	}

	// 3. Load model prices
	if err := a.setupPricing(); err != nil {
		return fmt.Errorf("failed to setup pricing: %w", err)
	}

	// 4. Create the gateway client
	a.setupGateway()

	// 5. Snapshot store, poller and event reconciler
	a.setupSync()

	// 6. Analytics page
	a.setupAnalytics()

	// 7. Watch the configuration file
	if err := a.setupConfigWatcher(); err != nil {
		return fmt.Errorf("failed to setup config watcher: %w", err)
	}

	// 8. Initialize UI
	a.initializeUI()

	logging.LogInfo("Bootstrap completed successfully")
	return nil
}

// validateConfig runs the standard validator over the merged configuration
func (a *Application) validateConfig() error {
	return config.NewStandardValidator().Validate(a.config)
}

// setupCache opens badger, or the in-memory store when configured. A locked
// badger directory (another instance running) degrades to memory.
func (a *Application) setupCache() error {
	cc := a.config.Cache

	if cc.InMemory {
		logging.LogInfo("Cache running in memory")
		a.kv = cache.NewMemoryKV()
	} else {
		path := os.ExpandEnv(cc.Path)
		if path == "" {
			defaultPath, err := cache.DefaultDBPath()
			if err != nil {
				return err
			}
			path = defaultPath
		}

		kv, err := cache.NewBadgerKV(cache.BadgerConfig{
			DBPath:     filepath.Clean(path),
			GCInterval: cc.GCInterval,
			LogLevel:   cc.BadgerLogLevel,
		})
		if err != nil {
			logging.LogWarnf("Persistent cache unavailable, using memory: %v", err)
			a.kv = cache.NewMemoryKV()
		} else {
			logging.LogInfof("Cache initialized: path=%s", path)
			a.kv = kv
			a.persistent = true
		}
	}

	a.cache = cache.NewStore(a.kv, cache.WithNamespace(cc.Namespace))
	return nil
}

// setupPricing merges the configured price source over the built-in table
func (a *Application) setupPricing() error {
	ctx, cancel := context.WithTimeout(a.ctx, pricingTimeout)
	defer cancel()

	table, err := pricing.BuildTable(ctx, a.config.Pricing, a.cache)
	if err != nil {
		return err
	}
	a.prices = table
	return nil
}

// setupGateway creates the client; it is dialed in start or by Connect
func (a *Application) setupGateway() {
	gw := a.config.Gateway
	a.client = gateway.NewClient(gateway.Options{
		URL:            gw.URL,
		Token:          gw.Token,
		ClientID:       gw.ClientID,
		Version:        config.Version,
		DialTimeout:    gw.DialTimeout,
		RequestTimeout: gw.RequestTimeout,
		ReconnectMin:   gw.ReconnectMin,
		ReconnectMax:   gw.ReconnectMax,
	})
	a.client.OnStateChange(a.onConnState)
}

// setupSync creates the store and everything that writes to it
func (a *Application) setupSync() {
	a.store = snapshot.NewStore()
	a.poller = orchestrator.NewPoller(a.store,
		orchestrator.WithIntervals(intervalsFrom(a.config.Polling)),
		orchestrator.WithQueryParams(orchestrator.QueryParams{
			CostDays:   a.config.Polling.CostDays,
			UsageLimit: a.config.Polling.UsageLimit,
		}),
	)
	a.poller.SetClient(a.client)
	a.reconciler = orchestrator.NewEventReconciler(a.store, a.poller)
	a.cron = orchestrator.NewCronActions(a.client, a.poller)
}

// setupAnalytics creates the analytics page over the persistent cache
func (a *Application) setupAnalytics() {
	a.analytics = analytics.NewPage(a.cache, a.client, a.prices,
		analytics.WithTTL(a.config.Cache.AnalyticsTTL),
		analytics.WithUsageLimit(a.config.Polling.UsageLimit),
	)
}

// setupConfigWatcher reloads polling intervals and log level on file change
func (a *Application) setupConfigWatcher() error {
	if a.configPath == "" || !a.autoPoll {
		return nil
	}

	watcher, err := config.NewWatcher(a.configPath, a.onConfigChange,
		config.NewEnvSource("CLAWDECK"))
	if err != nil {
		return err
	}
	a.watcher = watcher
	logging.LogInfof("Watching configuration file %s", a.configPath)
	return nil
}

// initializeUI creates the TUI unless running headless
func (a *Application) initializeUI() {
	if a.background || !a.autoPoll {
		return
	}

	uc := a.config.UI
	a.ui = ui.NewApp(ui.Config{
		RefreshRate: uc.RefreshRate,
		Theme:       uc.Theme,
		ShowSpinner: uc.ShowSpinner,
		CompactMode: uc.CompactMode,
		NoColor:     uc.NoColor,
	}, ui.Sources{
		Store:      a.store,
		Refresher:  a.poller,
		Cron:       a.cron,
		Analytics:  a.analytics,
		Prices:     a.prices,
		Connection: func() string { return a.client.State().String() },
	})
}

func intervalsFrom(p config.PollingConfig) orchestrator.Intervals {
	return orchestrator.Intervals{Fast: p.Fast, Mid: p.Mid, Slow: p.Slow}
}
