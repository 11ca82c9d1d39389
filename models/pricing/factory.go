package pricing

import (
	"context"
	"fmt"

	"github.com/penwyp/ClawDeck/cache"
	"github.com/penwyp/ClawDeck/config"
	"github.com/penwyp/ClawDeck/logging"
	"github.com/penwyp/ClawDeck/models"
)

// CreatePricingProvider creates the remote provider named by cfg, wrapped with the cache
func CreatePricingProvider(cfg config.PricingConfig, store *cache.Store) (Provider, error) {
	switch cfg.Source {
	case "default", "":
		return NewDefaultProvider(), nil
	case "litellm":
		base := NewLiteLLMProvider(cfg.LiteLLMURL)
		if store == nil {
			return base, nil
		}
		return NewCachedProvider(base, store, cfg.RefreshTTL, cfg.Offline), nil
	default:
		return nil, fmt.Errorf("unknown pricing source: %s", cfg.Source)
	}
}

// BuildTable returns the built-in table merged with rows from the configured
// source. A failing remote source degrades to the built-in rows.
func BuildTable(ctx context.Context, cfg config.PricingConfig, store *cache.Store) (*models.PriceTable, error) {
	table := models.NewPriceTable(DefaultRows())

	provider, err := CreatePricingProvider(cfg, store)
	if err != nil {
		return nil, err
	}
	if _, ok := provider.(*DefaultProvider); ok {
		return table, nil
	}

	rows, err := provider.Rows(ctx)
	if err != nil {
		logging.LogWarnf("pricing source %s unavailable, using built-in table: %v", provider.Name(), err)
		return table, nil
	}

	logging.LogInfof("Loaded %d price rows from %s", len(rows), provider.Name())
	return table.Merge(rows), nil
}
