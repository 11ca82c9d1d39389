package pricing

import (
	"context"

	"github.com/penwyp/ClawDeck/models"
)

// Provider supplies price rows keyed by model id
type Provider interface {
	Name() string
	Rows(ctx context.Context) (map[string]models.ModelPricing, error)
}
