package calculations

import (
	"sort"

	"github.com/penwyp/ClawDeck/models"
)

// Recalculation is the outcome of repairing a usage response and cost summary
type Recalculation struct {
	Usage   *models.SessionsUsageResponse
	Summary *models.CostSummary

	// OriginalMissing is the remote count of unpriced entries, kept for the
	// "some costs may be incomplete" indicator after the flags are cleared
	OriginalMissing int
	// RemainingMissing counts entries that could not be priced locally
	RemainingMissing int
	Repaired         bool
	Unpriced         []models.PricingError
}

// Incomplete reports whether the incomplete-costs warning should be shown
func (r Recalculation) Incomplete() bool {
	return r.OriginalMissing > 0
}

// CostRecalculator repairs aggregates the gateway could not fully price
type CostRecalculator struct {
	calc *CostCalculator
}

// NewCostRecalculator creates a recalculator over table
func NewCostRecalculator(table *models.PriceTable) *CostRecalculator {
	return &CostRecalculator{calc: NewCostCalculator(table)}
}

// Recalculate repairs usage and summary. Inputs are never mutated; when nothing
// is missing the inputs are returned as-is. Either argument may be nil.
func (r *CostRecalculator) Recalculate(usage *models.SessionsUsageResponse, summary *models.CostSummary) Recalculation {
	res := Recalculation{Usage: usage, Summary: summary}

	if usage.MissingCostEntries() == 0 && summary.MissingCostEntries() == 0 {
		return res
	}

	res.OriginalMissing = originalMissing(usage, summary)
	res.Repaired = true

	var before, after models.CostTotals
	haveAggregate := false

	if usage != nil {
		u := usage.Clone()
		before = u.Totals

		res.Unpriced = append(res.Unpriced, r.repairByModel(u.Aggregates.ByModel)...)
		if len(u.Aggregates.ByModel) > 0 {
			u.Totals = sumByModel(u.Aggregates.ByModel)
		}
		after = u.Totals
		haveAggregate = true

		if r.repairSessions(u.Sessions) {
			u.Aggregates.ByAgent = rebuildByAgent(u.Sessions, u.Aggregates.ByAgent)
		}

		if after.MissingCostEntries < before.MissingCostEntries {
			repairDaily(u.Aggregates.Daily, before, after)
		}

		res.Usage = u
		res.RemainingMissing = u.Totals.MissingCostEntries
	}

	if summary != nil {
		s := summary.Clone()
		if haveAggregate && after.MissingCostEntries < before.MissingCostEntries {
			if repairDaily(s.Daily, before, after) > 0 {
				s.Totals = sumDaily(s.Daily, s.Totals)
			}
		}
		res.Summary = s
		if usage == nil {
			res.RemainingMissing = s.Totals.MissingCostEntries
		}
	}

	return res
}

// repairByModel reprices every entry with missing costs and a known model
func (r *CostRecalculator) repairByModel(entries []models.ByModelEntry) []models.PricingError {
	var unpriced []models.PricingError
	for i := range entries {
		e := &entries[i]
		if e.Totals.MissingCostEntries == 0 {
			continue
		}
		repaired, ok := r.calc.Calculate(e.Model, e.Totals)
		if !ok {
			unpriced = append(unpriced, models.PricingError{Model: e.Model, Message: "no matching price row"})
			continue
		}
		e.Totals = repaired
	}
	return unpriced
}

// repairSessions reprices session usage in place and reports whether any session carries usage
func (r *CostRecalculator) repairSessions(sessions []models.SessionUsage) bool {
	found := false
	for i := range sessions {
		s := &sessions[i]
		if s.Usage == nil {
			continue
		}
		found = true
		if s.Usage.MissingCostEntries == 0 {
			continue
		}
		if repaired, ok := r.calc.Calculate(s.Model, *s.Usage); ok {
			*s.Usage = repaired
		}
	}
	return found
}

func sumByModel(entries []models.ByModelEntry) models.CostTotals {
	var total models.CostTotals
	for _, e := range entries {
		total.Add(e.Totals)
	}
	return total
}

func sumDaily(days []models.DailyEntry, fallback models.CostTotals) models.CostTotals {
	if len(days) == 0 {
		return fallback
	}
	var total models.CostTotals
	for _, d := range days {
		total.Add(d.CostTotals)
	}
	return total
}

// rebuildByAgent sums session usage per agent. Existing call counts are kept;
// agents seen only in sessions count their sessions.
func rebuildByAgent(sessions []models.SessionUsage, previous []models.ByAgentEntry) []models.ByAgentEntry {
	totals := make(map[string]*models.ByAgentEntry)
	var order []string

	for _, p := range previous {
		entry := &models.ByAgentEntry{AgentID: p.AgentID, Count: p.Count}
		totals[p.AgentID] = entry
		order = append(order, p.AgentID)
	}

	var added []string
	for _, s := range sessions {
		if s.Usage == nil {
			continue
		}
		entry, ok := totals[s.AgentID]
		if !ok {
			entry = &models.ByAgentEntry{AgentID: s.AgentID}
			totals[s.AgentID] = entry
			added = append(added, s.AgentID)
		}
		entry.Totals.Add(*s.Usage)
		if !contains(previous, s.AgentID) {
			entry.Count++
		}
	}
	sort.Strings(added)
	order = append(order, added...)

	result := make([]models.ByAgentEntry, 0, len(order))
	for _, id := range order {
		result = append(result, *totals[id])
	}
	return result
}

func contains(entries []models.ByAgentEntry, agentID string) bool {
	for _, e := range entries {
		if e.AgentID == agentID {
			return true
		}
	}
	return false
}

// repairDaily estimates costs for days with missing entries and returns how many
// days changed. Days with no known cost get the aggregate rate split by the
// aggregate's component ratios; partially priced days are scaled by after/before.
func repairDaily(days []models.DailyEntry, before, after models.CostTotals) int {
	changed := 0
	for i := range days {
		d := &days[i]
		if d.MissingCostEntries == 0 {
			continue
		}

		if d.TotalCost == 0 && d.Tokens() > 0 {
			if !estimateFromRate(&d.CostTotals, after) {
				continue
			}
		} else {
			if before.TotalCost <= 0 {
				continue
			}
			scaleCosts(&d.CostTotals, after.TotalCost/before.TotalCost)
		}

		d.MissingCostEntries = 0
		d.Estimated = true
		changed++
	}
	return changed
}

func estimateFromRate(d *models.CostTotals, agg models.CostTotals) bool {
	aggTokens := agg.Tokens()
	components := agg.ComponentCost()
	if agg.TotalCost <= 0 || aggTokens <= 0 || components <= 0 {
		return false
	}

	estimate := float64(d.Tokens()) * (agg.TotalCost / float64(aggTokens))
	d.InputCost = estimate * agg.InputCost / components
	d.OutputCost = estimate * agg.OutputCost / components
	d.CacheReadCost = estimate * agg.CacheReadCost / components
	d.CacheWriteCost = estimate * agg.CacheWriteCost / components
	d.TotalCost = estimate
	return true
}

func scaleCosts(d *models.CostTotals, ratio float64) {
	d.InputCost *= ratio
	d.OutputCost *= ratio
	d.CacheReadCost *= ratio
	d.CacheWriteCost *= ratio
	d.TotalCost *= ratio
}

func originalMissing(usage *models.SessionsUsageResponse, summary *models.CostSummary) int {
	n := 0
	if usage != nil {
		n = usage.Totals.MissingCostEntries
		byModel := 0
		for _, m := range usage.Aggregates.ByModel {
			byModel += m.Totals.MissingCostEntries
		}
		if byModel > n {
			n = byModel
		}
	}
	if summary != nil && summary.Totals.MissingCostEntries > n {
		n = summary.Totals.MissingCostEntries
	}
	return n
}
