package models

import "math"

// CostTotals is the fixed token and cost record shared by every aggregate level.
// When MissingCostEntries > 0 the cost fields are a lower bound.
type CostTotals struct {
	Input              int64   `json:"input"`
	Output             int64   `json:"output"`
	CacheRead          int64   `json:"cacheRead"`
	CacheWrite         int64   `json:"cacheWrite"`
	TotalTokens        int64   `json:"totalTokens"`
	TotalCost          float64 `json:"totalCost"`
	InputCost          float64 `json:"inputCost"`
	OutputCost         float64 `json:"outputCost"`
	CacheReadCost      float64 `json:"cacheReadCost"`
	CacheWriteCost     float64 `json:"cacheWriteCost"`
	MissingCostEntries int     `json:"missingCostEntries"`

	// Estimated marks costs extrapolated from ratios rather than computed from known prices
	Estimated bool `json:"estimated,omitempty"`
}

// Add accumulates o into t field by field
func (t *CostTotals) Add(o CostTotals) {
	t.Input += o.Input
	t.Output += o.Output
	t.CacheRead += o.CacheRead
	t.CacheWrite += o.CacheWrite
	t.TotalTokens += o.TotalTokens
	t.TotalCost += o.TotalCost
	t.InputCost += o.InputCost
	t.OutputCost += o.OutputCost
	t.CacheReadCost += o.CacheReadCost
	t.CacheWriteCost += o.CacheWriteCost
	t.MissingCostEntries += o.MissingCostEntries
	t.Estimated = t.Estimated || o.Estimated
}

// ComponentCost is the sum of the four cost components
func (t CostTotals) ComponentCost() float64 {
	return t.InputCost + t.OutputCost + t.CacheReadCost + t.CacheWriteCost
}

// Tokens returns TotalTokens, falling back to the component sum when the field is unset
func (t CostTotals) Tokens() int64 {
	if t.TotalTokens > 0 {
		return t.TotalTokens
	}
	return t.Input + t.Output + t.CacheRead + t.CacheWrite
}

// IsComplete reports whether every cost entry was priced
func (t CostTotals) IsComplete() bool {
	return t.MissingCostEntries == 0
}

// Consistent reports whether TotalCost equals the component sum within eps.
// Only meaningful when IsComplete.
func (t CostTotals) Consistent(eps float64) bool {
	return math.Abs(t.TotalCost-t.ComponentCost()) <= eps
}

// DailyEntry is a CostTotals keyed by calendar date (YYYY-MM-DD)
type DailyEntry struct {
	Date string `json:"date"`
	CostTotals
}

// CostSummary is the usage.cost response
type CostSummary struct {
	UpdatedAt int64        `json:"updatedAt"`
	Days      int          `json:"days"`
	Daily     []DailyEntry `json:"daily"`
	Totals    CostTotals   `json:"totals"`
}

// MissingCostEntries sums the missing count across totals and days
func (s *CostSummary) MissingCostEntries() int {
	if s == nil {
		return 0
	}
	n := s.Totals.MissingCostEntries
	for _, d := range s.Daily {
		n += d.MissingCostEntries
	}
	return n
}

// Clone returns a deep copy
func (s *CostSummary) Clone() *CostSummary {
	if s == nil {
		return nil
	}
	c := *s
	c.Daily = append([]DailyEntry(nil), s.Daily...)
	return &c
}

// ByModelEntry aggregates usage per model
type ByModelEntry struct {
	Provider string     `json:"provider,omitempty"`
	Model    string     `json:"model"`
	Count    int        `json:"count"`
	Totals   CostTotals `json:"totals"`
}

// ByAgentEntry aggregates usage per agent
type ByAgentEntry struct {
	AgentID string     `json:"agentId"`
	Count   int        `json:"count"`
	Totals  CostTotals `json:"totals"`
}

// SessionUsage is the usage record of one session within sessions.usage
type SessionUsage struct {
	Key          string      `json:"key"`
	Label        string      `json:"label,omitempty"`
	AgentID      string      `json:"agentId,omitempty"`
	Provider     string      `json:"provider,omitempty"`
	Model        string      `json:"model,omitempty"`
	MessageCount int         `json:"messageCount,omitempty"`
	Usage        *CostTotals `json:"usage,omitempty"`
}

// UsageAggregates holds the breakdowns of a sessions.usage response
type UsageAggregates struct {
	ByModel []ByModelEntry `json:"byModel"`
	ByAgent []ByAgentEntry `json:"byAgent"`
	Daily   []DailyEntry   `json:"daily"`
}

// SessionsUsageResponse is the sessions.usage response
type SessionsUsageResponse struct {
	UpdatedAt  int64           `json:"updatedAt"`
	StartDate  string          `json:"startDate,omitempty"`
	EndDate    string          `json:"endDate,omitempty"`
	Sessions   []SessionUsage  `json:"sessions"`
	Totals     CostTotals      `json:"totals"`
	Aggregates UsageAggregates `json:"aggregates"`
}

// MissingCostEntries sums the missing count across every level of the response
func (r *SessionsUsageResponse) MissingCostEntries() int {
	if r == nil {
		return 0
	}
	n := r.Totals.MissingCostEntries
	for _, m := range r.Aggregates.ByModel {
		n += m.Totals.MissingCostEntries
	}
	for _, a := range r.Aggregates.ByAgent {
		n += a.Totals.MissingCostEntries
	}
	for _, d := range r.Aggregates.Daily {
		n += d.MissingCostEntries
	}
	for _, s := range r.Sessions {
		if s.Usage != nil {
			n += s.Usage.MissingCostEntries
		}
	}
	return n
}

// Clone returns a deep copy
func (r *SessionsUsageResponse) Clone() *SessionsUsageResponse {
	if r == nil {
		return nil
	}
	c := *r
	c.Sessions = make([]SessionUsage, len(r.Sessions))
	for i, s := range r.Sessions {
		if s.Usage != nil {
			u := *s.Usage
			s.Usage = &u
		}
		c.Sessions[i] = s
	}
	if r.Sessions == nil {
		c.Sessions = nil
	}
	c.Aggregates.ByModel = append([]ByModelEntry(nil), r.Aggregates.ByModel...)
	c.Aggregates.ByAgent = append([]ByAgentEntry(nil), r.Aggregates.ByAgent...)
	c.Aggregates.Daily = append([]DailyEntry(nil), r.Aggregates.Daily...)
	return &c
}
