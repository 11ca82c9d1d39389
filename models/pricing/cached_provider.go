package pricing

import (
	"context"
	"fmt"
	"time"

	"github.com/penwyp/ClawDeck/cache"
	"github.com/penwyp/ClawDeck/logging"
	"github.com/penwyp/ClawDeck/models"
)

// CachedRows is the persisted form of a remote price list
type CachedRows struct {
	Source string                         `json:"source"`
	Rows   map[string]models.ModelPricing `json:"rows"`
}

// CachedProvider wraps another provider with the persistent cache
type CachedProvider struct {
	provider   Provider
	store      *cache.Store
	ttl        time.Duration
	useOffline bool
}

// NewCachedProvider creates a cached pricing provider
func NewCachedProvider(provider Provider, store *cache.Store, ttl time.Duration, useOffline bool) *CachedProvider {
	if ttl <= 0 {
		ttl = 24 * time.Hour
	}
	return &CachedProvider{
		provider:   provider,
		store:      store,
		ttl:        ttl,
		useOffline: useOffline,
	}
}

// Name returns the wrapped provider name with a cache suffix
func (p *CachedProvider) Name() string {
	if p.useOffline {
		return fmt.Sprintf("%s-offline", p.provider.Name())
	}
	return fmt.Sprintf("%s-cached", p.provider.Name())
}

// Rows serves fresh cached rows, otherwise fetches and re-caches, falling back
// to stale cached rows when the fetch fails
func (p *CachedProvider) Rows(ctx context.Context) (map[string]models.ModelPricing, error) {
	entry, cached := cache.Get[CachedRows](p.store, models.CacheKeyPricing)

	if p.useOffline {
		if !cached {
			return nil, fmt.Errorf("no cached pricing available for offline mode")
		}
		logging.LogDebugf("Using cached pricing data from %s with %d models", entry.Data.Source, len(entry.Data.Rows))
		return entry.Data.Rows, nil
	}

	if cached && entry.IsFresh(p.store.Now(), p.ttl) {
		return entry.Data.Rows, nil
	}

	rows, err := p.provider.Rows(ctx)
	if err != nil {
		if cached {
			logging.LogInfof("Primary pricing provider failed, using cached data: %v", err)
			return entry.Data.Rows, nil
		}
		return nil, err
	}

	cache.Set(p.store, models.CacheKeyPricing, CachedRows{Source: p.provider.Name(), Rows: rows})
	logging.LogDebugf("Updated pricing cache from %s provider", p.provider.Name())
	return rows, nil
}
