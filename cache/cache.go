package cache

import (
	"errors"
	"sync/atomic"
)

// ErrNotFound is returned by a KV backend for a missing key
var ErrNotFound = errors.New("cache: key not found")

// ErrClosed is returned after Close
var ErrClosed = errors.New("cache: closed")

// KV is the durable key-value store behind the persistent cache
type KV interface {
	Get(key string) ([]byte, error)
	Set(key string, value []byte) error
	Delete(key string) error
	DeletePrefix(prefix string) (int, error)
	Close() error
}

// CacheStats provides metrics about cache performance
type CacheStats struct {
	Hits          int64   `json:"hits"`
	Misses        int64   `json:"misses"`
	Corrupt       int64   `json:"corrupt"`
	Writes        int64   `json:"writes"`
	WriteFailures int64   `json:"write_failures"`
	HitRate       float64 `json:"hit_rate"`
}

// UpdateHitRate calculates the hit rate for cache stats
func (s *CacheStats) UpdateHitRate() {
	total := s.Hits + s.Misses
	if total > 0 {
		s.HitRate = float64(s.Hits) / float64(total)
	} else {
		s.HitRate = 0.0
	}
}

type counters struct {
	hits          atomic.Int64
	misses        atomic.Int64
	corrupt       atomic.Int64
	writes        atomic.Int64
	writeFailures atomic.Int64
}

func (c *counters) snapshot() CacheStats {
	s := CacheStats{
		Hits:          c.hits.Load(),
		Misses:        c.misses.Load(),
		Corrupt:       c.corrupt.Load(),
		Writes:        c.writes.Load(),
		WriteFailures: c.writeFailures.Load(),
	}
	s.UpdateHitRate()
	return s
}
