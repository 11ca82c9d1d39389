package gateway

import (
	"fmt"
	"strings"

	"github.com/tidwall/gjson"

	"github.com/penwyp/ClawDeck/errors"
	"github.com/penwyp/ClawDeck/models"
)

// Push event names
const (
	EventSessionStarted  = "session.started"
	EventSessionRunning  = "session.running"
	EventSessionEnded    = "session.ended"
	EventSessionStopped  = "session.stopped"
	EventSessionIdle     = "session.idle"
	EventCronRunStarted  = "cron.run.started"
	EventCronRunComplete = "cron.run.completed"
	EventCronRunFinished = "cron.run.finished"
	EventAgentSpawned    = "agent.spawned"
	EventAgentCreated    = "agent.created"
)

// Event is a decoded push event. Exactly one of the concrete types below.
type Event interface {
	EventName() string
	isEvent()
}

// SessionEvent carries the fields of one session present in the payload
type SessionEvent struct {
	Name  string
	Patch models.SessionPatch
}

// CronRunEvent reports a job starting or finishing a run
type CronRunEvent struct {
	Name  string
	Patch models.CronPatch
}

// AgentEvent is too sparse to build an AgentSnapshot; consumers refetch agents
type AgentEvent struct {
	Name    string
	AgentID string
}

// UnhandledEvent is any event name this client does not understand
type UnhandledEvent struct {
	Name    string
	Payload []byte
}

func (e SessionEvent) EventName() string   { return e.Name }
func (e CronRunEvent) EventName() string   { return e.Name }
func (e AgentEvent) EventName() string     { return e.Name }
func (e UnhandledEvent) EventName() string { return e.Name }

func (SessionEvent) isEvent()   {}
func (CronRunEvent) isEvent()   {}
func (AgentEvent) isEvent()     {}
func (UnhandledEvent) isEvent() {}

// DecodeEvent turns a raw push event into its typed variant. Unknown names
// become UnhandledEvent; known names with unusable payloads return a
// malformed-payload error.
func DecodeEvent(name string, payload []byte) (Event, error) {
	if len(payload) == 0 {
		payload = []byte("{}")
	}
	if !gjson.ValidBytes(payload) {
		return nil, errors.Malformed("", name, fmt.Errorf("invalid JSON payload"))
	}
	p := gjson.ParseBytes(payload)

	switch name {
	case EventSessionStarted, EventSessionRunning, EventSessionEnded, EventSessionStopped, EventSessionIdle:
		return decodeSessionEvent(name, p)
	case EventCronRunStarted, EventCronRunComplete, EventCronRunFinished:
		return decodeCronEvent(name, p)
	case EventAgentSpawned, EventAgentCreated:
		return AgentEvent{Name: name, AgentID: firstString(p, "agentId", "id")}, nil
	}
	return UnhandledEvent{Name: name, Payload: payload}, nil
}

func decodeSessionEvent(name string, p gjson.Result) (Event, error) {
	key := firstString(p, "key", "sessionKey")
	if key == "" {
		return nil, errors.Malformed(string(models.GroupSessions), name, fmt.Errorf("missing session key"))
	}

	running := name == EventSessionStarted || name == EventSessionRunning
	patch := models.SessionPatch{
		Key:          key,
		Running:      &running,
		Label:        optString(p, "label"),
		AgentID:      optString(p, "agentId"),
		Model:        optString(p, "model"),
		InputTokens:  optInt(p, "inputTokens"),
		OutputTokens: optInt(p, "outputTokens"),
		TotalTokens:  optInt(p, "totalTokens"),
		LastActiveMs: optInt(p, "updatedAt"),
	}
	return SessionEvent{Name: name, Patch: patch}, nil
}

func decodeCronEvent(name string, p gjson.Result) (Event, error) {
	id := firstString(p, "jobId", "id")
	if id == "" {
		return nil, errors.Malformed(string(models.GroupCron), name, fmt.Errorf("missing job id"))
	}

	state := models.CronIdle
	if strings.HasSuffix(name, ".started") {
		state = models.CronRunning
	}

	patch := models.CronPatch{
		ID:         id,
		State:      &state,
		Name:       optString(p, "name"),
		LastRunMs:  optInt(p, "lastRunAt"),
		NextRunMs:  optInt(p, "nextRunAt"),
		LastStatus: optString(p, "status"),
	}
	if patch.LastRunMs == nil {
		patch.LastRunMs = optInt(p, "startedAt")
	}
	return CronRunEvent{Name: name, Patch: patch}, nil
}

func firstString(p gjson.Result, paths ...string) string {
	for _, path := range paths {
		if v := p.Get(path); v.Exists() && v.String() != "" {
			return v.String()
		}
	}
	return ""
}

func optString(p gjson.Result, path string) *string {
	v := p.Get(path)
	if !v.Exists() || v.Type != gjson.String {
		return nil
	}
	s := v.String()
	return &s
}

func optInt(p gjson.Result, path string) *int64 {
	v := p.Get(path)
	if !v.Exists() || v.Type != gjson.Number {
		return nil
	}
	n := v.Int()
	return &n
}
