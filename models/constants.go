package models

import "time"

// Default polling cadences per tier
const (
	DefaultFastInterval = 10 * time.Second
	DefaultMidInterval  = 30 * time.Second
	DefaultSlowInterval = 120 * time.Second
)

// Staleness windows for persisted heavy queries
const (
	DefaultCacheTTL     = 5 * time.Minute
	DefaultAnalyticsTTL = 15 * time.Minute
)

// Heavy query parameters
const (
	DefaultCostDays   = 30
	DefaultUsageLimit = 1000
)

// Persisted key names, prefixed by the configured namespace
const (
	CacheKeyCostSummary   = "cost-summary"
	CacheKeySessionsUsage = "sessions-usage"
	CacheKeyRangePreset   = "range-preset"
	CacheKeyCustomRange   = "range-custom"
	CacheKeyPricing       = "pricing-litellm"
)

// Gateway method names
const (
	MethodConnect       = "connect"
	MethodSessionsList  = "sessions.list"
	MethodAgentsList    = "agents.list"
	MethodUsageCost     = "usage.cost"
	MethodSessionsUsage = "sessions.usage"
	MethodCronList      = "cron.list"
	MethodCronRun       = "cron.run"
	MethodCronRuns      = "cron.runs"
)

// TokensPerMillion is the denominator for per-million-token prices
const TokensPerMillion = 1_000_000
