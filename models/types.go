package models

import (
	"fmt"
	"time"
)

// EntityGroup names one of the independently refreshed collections
type EntityGroup string

const (
	GroupSessions EntityGroup = "sessions"
	GroupAgents   EntityGroup = "agents"
	GroupCost     EntityGroup = "cost"
	GroupUsage    EntityGroup = "usage"
	GroupCron     EntityGroup = "cron"
)

// AllGroups lists every entity group in display order
var AllGroups = []EntityGroup{GroupSessions, GroupAgents, GroupCron, GroupCost, GroupUsage}

// Valid reports whether g is a known group
func (g EntityGroup) Valid() bool {
	switch g {
	case GroupSessions, GroupAgents, GroupCost, GroupUsage, GroupCron:
		return true
	}
	return false
}

// ParseEntityGroup converts a string into an EntityGroup
func ParseEntityGroup(s string) (EntityGroup, error) {
	g := EntityGroup(s)
	if !g.Valid() {
		return "", ValidationError{Field: "group", Message: fmt.Sprintf("unknown entity group %q", s)}
	}
	return g, nil
}

// SessionSnapshot is the client view of one gateway session
type SessionSnapshot struct {
	Key          string `json:"key"`
	Label        string `json:"label,omitempty"`
	AgentID      string `json:"agentId,omitempty"`
	Model        string `json:"model,omitempty"`
	Running      bool   `json:"running"`
	InputTokens  int64  `json:"inputTokens"`
	OutputTokens int64  `json:"outputTokens"`
	TotalTokens  int64  `json:"totalTokens"`
	LastActiveMs int64  `json:"updatedAt"`
}

// LastActive returns the last-active time, or zero
func (s SessionSnapshot) LastActive() time.Time {
	if s.LastActiveMs == 0 {
		return time.Time{}
	}
	return time.UnixMilli(s.LastActiveMs)
}

// SessionPatch carries only the fields present in a push event
type SessionPatch struct {
	Key          string
	Label        *string
	AgentID      *string
	Model        *string
	Running      *bool
	InputTokens  *int64
	OutputTokens *int64
	TotalTokens  *int64
	LastActiveMs *int64
}

// Apply overwrites the fields present in p
func (p SessionPatch) Apply(s *SessionSnapshot) {
	if p.Label != nil {
		s.Label = *p.Label
	}
	if p.AgentID != nil {
		s.AgentID = *p.AgentID
	}
	if p.Model != nil {
		s.Model = *p.Model
	}
	if p.Running != nil {
		s.Running = *p.Running
	}
	if p.InputTokens != nil {
		s.InputTokens = *p.InputTokens
	}
	if p.OutputTokens != nil {
		s.OutputTokens = *p.OutputTokens
	}
	if p.TotalTokens != nil {
		s.TotalTokens = *p.TotalTokens
	}
	if p.LastActiveMs != nil {
		s.LastActiveMs = *p.LastActiveMs
	}
}

// SessionList is the sessions.list response
type SessionList struct {
	Sessions []SessionSnapshot `json:"sessions"`
}

// AgentSnapshot is the client view of one configured agent
type AgentSnapshot struct {
	ID        string `json:"id"`
	Name      string `json:"name,omitempty"`
	Model     string `json:"model,omitempty"`
	Workspace string `json:"workspace,omitempty"`
	Default   bool   `json:"default,omitempty"`
}

// CronState is the run state of a scheduled job
type CronState string

const (
	CronRunning CronState = "running"
	CronIdle    CronState = "idle"
)

// CronJobSnapshot is the client view of one scheduled job
type CronJobSnapshot struct {
	ID         string    `json:"id"`
	Name       string    `json:"name,omitempty"`
	Schedule   string    `json:"schedule,omitempty"`
	AgentID    string    `json:"agentId,omitempty"`
	Enabled    bool      `json:"enabled"`
	State      CronState `json:"state,omitempty"`
	LastRunMs  int64     `json:"lastRunAt,omitempty"`
	NextRunMs  int64     `json:"nextRunAt,omitempty"`
	LastStatus string    `json:"lastStatus,omitempty"`
}

// CronPatch carries only the fields present in a cron push event
type CronPatch struct {
	ID         string
	Name       *string
	State      *CronState
	LastRunMs  *int64
	NextRunMs  *int64
	LastStatus *string
}

// Apply overwrites the fields present in p
func (p CronPatch) Apply(j *CronJobSnapshot) {
	if p.Name != nil {
		j.Name = *p.Name
	}
	if p.State != nil {
		j.State = *p.State
	}
	if p.LastRunMs != nil {
		j.LastRunMs = *p.LastRunMs
	}
	if p.NextRunMs != nil {
		j.NextRunMs = *p.NextRunMs
	}
	if p.LastStatus != nil {
		j.LastStatus = *p.LastStatus
	}
}

// CronList is the cron.list response
type CronList struct {
	Jobs []CronJobSnapshot `json:"jobs"`
}

// CronRun is one historical execution of a job, returned by cron.runs
type CronRun struct {
	ID           string `json:"id"`
	JobID        string `json:"jobId"`
	StartedAtMs  int64  `json:"startedAt"`
	FinishedAtMs int64  `json:"finishedAt,omitempty"`
	Status       string `json:"status"`
	Error        string `json:"error,omitempty"`
}

// CronRunList is the cron.runs response
type CronRunList struct {
	JobID string    `json:"jobId"`
	Runs  []CronRun `json:"runs"`
}

// CacheEntry is the unit persisted by the stale-while-revalidate cache
type CacheEntry[T any] struct {
	Data T     `json:"data"`
	TS   int64 `json:"ts"`
}

// Age returns how old the entry is at now
func (e CacheEntry[T]) Age(now time.Time) time.Duration {
	return now.Sub(time.UnixMilli(e.TS))
}

// IsFresh reports whether now - ts < ttl
func (e CacheEntry[T]) IsFresh(now time.Time, ttl time.Duration) bool {
	return e.Age(now) < ttl
}
