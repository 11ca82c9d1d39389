package cache

import (
	"errors"
	"fmt"
	"time"

	"github.com/tidwall/gjson"

	"github.com/penwyp/ClawDeck/logging"
	"github.com/penwyp/ClawDeck/models"
)

// Store is the persistent cache: namespaced {data, ts} entries over a KV backend.
// Read failures behave as misses and write failures are logged and dropped.
type Store struct {
	kv        KV
	ser       Serializer
	namespace string
	now       func() time.Time
	stats     counters
}

// Option configures a Store
type Option func(*Store)

// WithNamespace prefixes every key with ns + ":"
func WithNamespace(ns string) Option {
	return func(s *Store) { s.namespace = ns }
}

// WithClock overrides the time source used for entry timestamps
func WithClock(now func() time.Time) Option {
	return func(s *Store) { s.now = now }
}

// WithSerializer overrides the entry codec
func WithSerializer(ser Serializer) Option {
	return func(s *Store) { s.ser = ser }
}

// NewStore wraps kv
func NewStore(kv KV, opts ...Option) *Store {
	s := &Store{
		kv:  kv,
		ser: NewSonicSerializer(),
		now: time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Key returns the namespaced storage key for name
func (s *Store) Key(name string) string {
	if s.namespace == "" {
		return name
	}
	return s.namespace + ":" + name
}

// Now returns the store clock
func (s *Store) Now() time.Time {
	return s.now()
}

// Get returns the entry stored under key, or false on a miss or an unparsable payload
func Get[T any](s *Store, key string) (models.CacheEntry[T], bool) {
	var entry models.CacheEntry[T]

	raw, ok := s.read(key)
	if !ok {
		return entry, false
	}

	if err := s.ser.Deserialize(raw, &entry); err != nil || entry.TS <= 0 {
		if err == nil {
			err = fmt.Errorf("missing timestamp")
		}
		s.stats.corrupt.Add(1)
		s.stats.misses.Add(1)
		logging.LogWarnf("cache entry %s is corrupt, treating as miss: %v", key, err)
		return models.CacheEntry[T]{}, false
	}

	s.stats.hits.Add(1)
	return entry, true
}

// Set writes {data, ts: now} under key; failures are logged and swallowed
func Set[T any](s *Store, key string, data T) {
	entry := models.CacheEntry[T]{Data: data, TS: s.now().UnixMilli()}

	raw, err := s.ser.Serialize(entry)
	if err == nil {
		err = s.kv.Set(s.Key(key), raw)
	}
	if err != nil {
		s.stats.writeFailures.Add(1)
		logging.LogWarnf("cache write %s failed: %v", key, err)
		return
	}
	s.stats.writes.Add(1)
}

// IsFresh reports whether an entry exists under key and now - ts < ttl
func (s *Store) IsFresh(key string, ttl time.Duration) bool {
	raw, err := s.kv.Get(s.Key(key))
	if err != nil || !gjson.ValidBytes(raw) {
		return false
	}
	ts := gjson.GetBytes(raw, "ts")
	if !ts.Exists() || ts.Int() <= 0 {
		return false
	}
	return s.now().Sub(time.UnixMilli(ts.Int())) < ttl
}

// GetString reads a plain string value written by SetString
func (s *Store) GetString(key string) (string, bool) {
	raw, ok := s.read(key)
	if !ok {
		return "", false
	}
	s.stats.hits.Add(1)
	return string(raw), true
}

// SetString stores value verbatim
func (s *Store) SetString(key, value string) error {
	if err := s.kv.Set(s.Key(key), []byte(value)); err != nil {
		s.stats.writeFailures.Add(1)
		return fmt.Errorf("cache write %s: %w", key, err)
	}
	s.stats.writes.Add(1)
	return nil
}

// GetJSON decodes a bare JSON value written by SetJSON into v
func (s *Store) GetJSON(key string, v interface{}) bool {
	raw, ok := s.read(key)
	if !ok {
		return false
	}
	if err := s.ser.Deserialize(raw, v); err != nil {
		s.stats.corrupt.Add(1)
		logging.LogWarnf("cache value %s is corrupt, ignoring: %v", key, err)
		return false
	}
	s.stats.hits.Add(1)
	return true
}

// SetJSON encodes v and stores it without a timestamp wrapper
func (s *Store) SetJSON(key string, v interface{}) error {
	raw, err := s.ser.Serialize(v)
	if err != nil {
		return fmt.Errorf("encode %s: %w", key, err)
	}
	return s.SetString(key, string(raw))
}

// Delete removes key
func (s *Store) Delete(key string) error {
	return s.kv.Delete(s.Key(key))
}

// Clear removes every key in the namespace
func (s *Store) Clear() (int, error) {
	prefix := ""
	if s.namespace != "" {
		prefix = s.namespace + ":"
	}
	return s.kv.DeletePrefix(prefix)
}

// Stats returns hit/miss/write counters
func (s *Store) Stats() CacheStats {
	return s.stats.snapshot()
}

// Close closes the backend
func (s *Store) Close() error {
	return s.kv.Close()
}

func (s *Store) read(key string) ([]byte, bool) {
	raw, err := s.kv.Get(s.Key(key))
	if err != nil {
		if !errors.Is(err, ErrNotFound) {
			logging.LogDebugf("cache read %s failed: %v", key, err)
		}
		s.stats.misses.Add(1)
		return nil, false
	}
	return raw, true
}
