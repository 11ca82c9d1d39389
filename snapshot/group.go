package snapshot

import (
	"sync"
	"time"
)

// GroupMeta is the fetch bookkeeping kept beside each group's data
type GroupMeta struct {
	Loading     bool   `json:"loading"`
	Error       string `json:"error,omitempty"`
	LastFetchMs int64  `json:"lastFetchMs"`
}

// LastFetch returns the time of the last successful fetch, or zero
func (m GroupMeta) LastFetch() time.Time {
	if m.LastFetchMs == 0 {
		return time.Time{}
	}
	return time.UnixMilli(m.LastFetchMs)
}

// HasError reports whether the last fetch failed
func (m GroupMeta) HasError() bool {
	return m.Error != ""
}

// slot owns one group. Data and meta are swapped together under the slot lock,
// so a reader sees either the whole old state or the whole new one.
type slot[T any] struct {
	mu   sync.RWMutex
	data T
	meta GroupMeta
}

func (s *slot[T]) get() (T, GroupMeta) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.data, s.meta
}

func (s *slot[T]) set(data T, nowMs int64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.data = data
	s.meta = GroupMeta{LastFetchMs: nowMs}
}

func (s *slot[T]) update(fn func(T) T) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.data = fn(s.data)
}

func (s *slot[T]) setLoading(loading bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.meta.Loading = loading
}

func (s *slot[T]) setError(msg string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.meta.Error = msg
	s.meta.Loading = false
}

func (s *slot[T]) metadata() GroupMeta {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.meta
}
