package pricing

import (
	"context"

	"github.com/penwyp/ClawDeck/models"
)

// DefaultProvider serves the built-in price table
type DefaultProvider struct {
	rows map[string]models.ModelPricing
}

// NewDefaultProvider creates a provider over DefaultRows
func NewDefaultProvider() *DefaultProvider {
	return &DefaultProvider{rows: DefaultRows()}
}

// DefaultRows returns the built-in rates in USD per million tokens
func DefaultRows() map[string]models.ModelPricing {
	return map[string]models.ModelPricing{
		"claude-opus-4-6":   {Input: 5.00, Output: 25.00, CacheWrite: 6.25, CacheRead: 0.50},
		"claude-opus-4-5":   {Input: 5.00, Output: 25.00, CacheWrite: 6.25, CacheRead: 0.50},
		"claude-opus-4-1":   {Input: 15.00, Output: 75.00, CacheWrite: 18.75, CacheRead: 1.50},
		"claude-opus-4":     {Input: 15.00, Output: 75.00, CacheWrite: 18.75, CacheRead: 1.50},
		"claude-sonnet-4-5": {Input: 3.00, Output: 15.00, CacheWrite: 3.75, CacheRead: 0.30},
		"claude-sonnet-4":   {Input: 3.00, Output: 15.00, CacheWrite: 3.75, CacheRead: 0.30},
		"claude-3-7-sonnet": {Input: 3.00, Output: 15.00, CacheWrite: 3.75, CacheRead: 0.30},
		"claude-3-5-sonnet": {Input: 3.00, Output: 15.00, CacheWrite: 3.75, CacheRead: 0.30},
		"claude-haiku-4-5":  {Input: 1.00, Output: 5.00, CacheWrite: 1.25, CacheRead: 0.10},
		"claude-3-5-haiku":  {Input: 0.80, Output: 4.00, CacheWrite: 1.00, CacheRead: 0.08},
		"gpt-5":             {Input: 1.25, Output: 10.00, CacheRead: 0.125},
		"gpt-5-mini":        {Input: 0.25, Output: 2.00, CacheRead: 0.025},
		"gpt-4.1":           {Input: 2.00, Output: 8.00, CacheRead: 0.50},
		"gpt-4o":            {Input: 2.50, Output: 10.00, CacheRead: 1.25},
		"gpt-4o-mini":       {Input: 0.15, Output: 0.60, CacheRead: 0.075},
		"gemini-2.5-pro":    {Input: 1.25, Output: 10.00, CacheRead: 0.31},
		"gemini-2.5-flash":  {Input: 0.30, Output: 2.50, CacheRead: 0.075},
	}
}

// Name returns "default"
func (p *DefaultProvider) Name() string {
	return "default"
}

// Rows returns a copy of the built-in rows
func (p *DefaultProvider) Rows(ctx context.Context) (map[string]models.ModelPricing, error) {
	result := make(map[string]models.ModelPricing, len(p.rows))
	for k, v := range p.rows {
		result[k] = v
	}
	return result, nil
}
