// Package snapshot holds the in-memory view of every gateway entity group.
package snapshot

import (
	"fmt"
	"sync"
	"time"

	"github.com/penwyp/ClawDeck/models"
)

// Change is published to subscribers after any group mutation
type Change struct {
	Group models.EntityGroup
	At    time.Time
}

// Store keeps the current snapshot of each entity group with its fetch metadata.
// Each group has its own lock; no operation holds more than one.
type Store struct {
	sessions slot[[]models.SessionSnapshot]
	agents   slot[[]models.AgentSnapshot]
	cron     slot[[]models.CronJobSnapshot]
	cost     slot[*models.CostSummary]
	usage    slot[*models.SessionsUsageResponse]

	now func() time.Time

	subMu  sync.Mutex
	subs   map[int]chan Change
	nextID int
}

// Option configures a Store
type Option func(*Store)

// WithClock overrides the clock used for lastFetchMs stamps
func WithClock(now func() time.Time) Option {
	return func(s *Store) {
		s.now = now
	}
}

// NewStore creates a store with every group empty
func NewStore(opts ...Option) *Store {
	s := &Store{
		now:  time.Now,
		subs: make(map[int]chan Change),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// SetGroup replaces a group's data wholesale, clears its error, sets loading
// to false and stamps lastFetchMs. data must match the group's type.
func (s *Store) SetGroup(group models.EntityGroup, data any) error {
	switch group {
	case models.GroupSessions:
		v, ok := data.([]models.SessionSnapshot)
		if !ok {
			return typeMismatch(group, data)
		}
		s.SetSessions(v)
	case models.GroupAgents:
		v, ok := data.([]models.AgentSnapshot)
		if !ok {
			return typeMismatch(group, data)
		}
		s.SetAgents(v)
	case models.GroupCron:
		v, ok := data.([]models.CronJobSnapshot)
		if !ok {
			return typeMismatch(group, data)
		}
		s.SetCronJobs(v)
	case models.GroupCost:
		v, ok := data.(*models.CostSummary)
		if !ok {
			return typeMismatch(group, data)
		}
		s.SetCost(v)
	case models.GroupUsage:
		v, ok := data.(*models.SessionsUsageResponse)
		if !ok {
			return typeMismatch(group, data)
		}
		s.SetUsage(v)
	default:
		return fmt.Errorf("unknown entity group %q", group)
	}
	return nil
}

func typeMismatch(group models.EntityGroup, data any) error {
	return fmt.Errorf("group %s cannot hold %T", group, data)
}

func (s *Store) SetSessions(v []models.SessionSnapshot) {
	s.sessions.set(v, s.nowMs())
	s.publish(models.GroupSessions)
}

func (s *Store) SetAgents(v []models.AgentSnapshot) {
	s.agents.set(v, s.nowMs())
	s.publish(models.GroupAgents)
}

func (s *Store) SetCronJobs(v []models.CronJobSnapshot) {
	s.cron.set(v, s.nowMs())
	s.publish(models.GroupCron)
}

func (s *Store) SetCost(v *models.CostSummary) {
	s.cost.set(v, s.nowMs())
	s.publish(models.GroupCost)
}

func (s *Store) SetUsage(v *models.SessionsUsageResponse) {
	s.usage.set(v, s.nowMs())
	s.publish(models.GroupUsage)
}

// Sessions returns a copy of the sessions snapshot
func (s *Store) Sessions() []models.SessionSnapshot {
	v, _ := s.sessions.get()
	return append([]models.SessionSnapshot(nil), v...)
}

// Agents returns a copy of the agents snapshot
func (s *Store) Agents() []models.AgentSnapshot {
	v, _ := s.agents.get()
	return append([]models.AgentSnapshot(nil), v...)
}

// CronJobs returns a copy of the cron snapshot
func (s *Store) CronJobs() []models.CronJobSnapshot {
	v, _ := s.cron.get()
	return append([]models.CronJobSnapshot(nil), v...)
}

// Cost returns the cost summary. Stored summaries are never mutated in place.
func (s *Store) Cost() *models.CostSummary {
	v, _ := s.cost.get()
	return v
}

// Usage returns the sessions usage response. Stored values are never mutated in place.
func (s *Store) Usage() *models.SessionsUsageResponse {
	v, _ := s.usage.get()
	return v
}

// SetLoading flips a group's loading flag
func (s *Store) SetLoading(group models.EntityGroup, loading bool) {
	switch group {
	case models.GroupSessions:
		s.sessions.setLoading(loading)
	case models.GroupAgents:
		s.agents.setLoading(loading)
	case models.GroupCron:
		s.cron.setLoading(loading)
	case models.GroupCost:
		s.cost.setLoading(loading)
	case models.GroupUsage:
		s.usage.setLoading(loading)
	default:
		return
	}
	s.publish(group)
}

// SetError records a failed fetch and clears loading. Data is left as-is.
// An empty message clears the error.
func (s *Store) SetError(group models.EntityGroup, msg string) {
	switch group {
	case models.GroupSessions:
		s.sessions.setError(msg)
	case models.GroupAgents:
		s.agents.setError(msg)
	case models.GroupCron:
		s.cron.setError(msg)
	case models.GroupCost:
		s.cost.setError(msg)
	case models.GroupUsage:
		s.usage.setError(msg)
	default:
		return
	}
	s.publish(group)
}

// Meta returns a group's loading, error and lastFetchMs
func (s *Store) Meta(group models.EntityGroup) GroupMeta {
	switch group {
	case models.GroupSessions:
		return s.sessions.metadata()
	case models.GroupAgents:
		return s.agents.metadata()
	case models.GroupCron:
		return s.cron.metadata()
	case models.GroupCost:
		return s.cost.metadata()
	case models.GroupUsage:
		return s.usage.metadata()
	}
	return GroupMeta{}
}

// Errors returns the current error of every failing group
func (s *Store) Errors() map[models.EntityGroup]string {
	errs := make(map[models.EntityGroup]string)
	for _, g := range models.AllGroups {
		if m := s.Meta(g); m.HasError() {
			errs[g] = m.Error
		}
	}
	return errs
}

// UpsertSession merges patch into the session with the same key, or appends a
// new session built from it. Applying the same patch twice is a no-op.
func (s *Store) UpsertSession(patch models.SessionPatch) {
	if patch.Key == "" {
		return
	}
	s.sessions.update(func(cur []models.SessionSnapshot) []models.SessionSnapshot {
		next := append([]models.SessionSnapshot(nil), cur...)
		for i := range next {
			if next[i].Key == patch.Key {
				patch.Apply(&next[i])
				return next
			}
		}
		created := models.SessionSnapshot{Key: patch.Key}
		patch.Apply(&created)
		return append(next, created)
	})
	s.publish(models.GroupSessions)
}

// UpsertCronJob merges patch into the job with the same id, or appends a new job
func (s *Store) UpsertCronJob(patch models.CronPatch) {
	if patch.ID == "" {
		return
	}
	s.cron.update(func(cur []models.CronJobSnapshot) []models.CronJobSnapshot {
		next := append([]models.CronJobSnapshot(nil), cur...)
		for i := range next {
			if next[i].ID == patch.ID {
				patch.Apply(&next[i])
				return next
			}
		}
		created := models.CronJobSnapshot{ID: patch.ID, Enabled: true}
		patch.Apply(&created)
		return append(next, created)
	})
	s.publish(models.GroupCron)
}

// Subscribe returns a channel receiving a Change after every mutation and a
// function to stop the subscription. Slow subscribers miss changes rather
// than block writers.
func (s *Store) Subscribe() (<-chan Change, func()) {
	ch := make(chan Change, 16)

	s.subMu.Lock()
	id := s.nextID
	s.nextID++
	s.subs[id] = ch
	s.subMu.Unlock()

	var once sync.Once
	return ch, func() {
		once.Do(func() {
			s.subMu.Lock()
			delete(s.subs, id)
			s.subMu.Unlock()
			close(ch)
		})
	}
}

func (s *Store) publish(group models.EntityGroup) {
	c := Change{Group: group, At: s.now()}

	s.subMu.Lock()
	defer s.subMu.Unlock()
	for _, ch := range s.subs {
		select {
		case ch <- c:
		default:
		}
	}
}

func (s *Store) nowMs() int64 {
	return s.now().UnixMilli()
}
