package calculations

import (
	"math"

	"github.com/penwyp/ClawDeck/models"
)

// CostCalculator prices token counts against a PriceTable
type CostCalculator struct {
	table *models.PriceTable
}

// NewCostCalculator creates a calculator over table
func NewCostCalculator(table *models.PriceTable) *CostCalculator {
	return &CostCalculator{table: table}
}

// Table returns the price table in use
func (c *CostCalculator) Table() *models.PriceTable {
	return c.table
}

// Calculate reprices t for model. ok is false when the model has no row.
func (c *CostCalculator) Calculate(model string, t models.CostTotals) (models.CostTotals, bool) {
	if model == "" || c.table == nil {
		return t, false
	}
	pricing, _, ok := c.table.Lookup(model)
	if !ok {
		return t, false
	}
	return ApplyPricing(t, pricing), true
}

// ApplyPricing recomputes every cost component as tokens * price / 1e6 and
// clears the missing count. Token counts are kept as given.
func ApplyPricing(t models.CostTotals, p models.ModelPricing) models.CostTotals {
	t.InputCost = componentCost(t.Input, p.Input)
	t.OutputCost = componentCost(t.Output, p.Output)
	t.CacheReadCost = componentCost(t.CacheRead, p.CacheRead)
	t.CacheWriteCost = componentCost(t.CacheWrite, p.CacheWrite)
	t.TotalCost = t.ComponentCost()
	if t.TotalTokens == 0 {
		t.TotalTokens = t.Input + t.Output + t.CacheRead + t.CacheWrite
	}
	t.MissingCostEntries = 0
	return t
}

func componentCost(tokens int64, perMillion float64) float64 {
	return float64(tokens) * perMillion / models.TokensPerMillion
}

// RoundCost rounds to 1/10000 of a dollar for display
func RoundCost(v float64) float64 {
	return math.Round(v*10000) / 10000
}
