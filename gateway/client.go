// Package gateway talks to the orchestration gateway over its WebSocket RPC
// protocol and decodes the payloads it returns.
package gateway

import (
	"context"

	"github.com/penwyp/ClawDeck/models"
)

// EventHandler receives raw push events. payload is the JSON object carried by the event.
type EventHandler func(name string, payload []byte)

// RemoteClient is the request/response and push surface of the gateway
type RemoteClient interface {
	GetSessions(ctx context.Context) (*models.SessionList, error)
	GetAgents(ctx context.Context) ([]models.AgentSnapshot, error)
	GetCostSummary(ctx context.Context, days int) (*models.CostSummary, error)
	GetSessionsUsage(ctx context.Context, limit int) (*models.SessionsUsageResponse, error)

	// Call is the generic escape hatch used for cron.list, cron.run and friends
	Call(ctx context.Context, method string, params any) ([]byte, error)

	// Subscribe registers handler for every push event and returns a function removing it
	Subscribe(handler EventHandler) func()
}

// CostParams are the params of usage.cost
type CostParams struct {
	Days int `json:"days"`
}

// UsageParams are the params of sessions.usage
type UsageParams struct {
	Limit int `json:"limit"`
}

// JobParams identify a cron job in cron.run and cron.runs
type JobParams struct {
	ID string `json:"id"`
}
