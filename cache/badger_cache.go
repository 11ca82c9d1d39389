package cache

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/dgraph-io/badger/v3"

	"github.com/penwyp/ClawDeck/logging"
)

// BadgerKV provides a BadgerDB-backed KV implementation
type BadgerKV struct {
	db     *badger.DB
	config BadgerConfig
	mu     sync.RWMutex
	closed bool
	stopGC chan struct{}
	gcDone chan struct{}
}

// BadgerConfig configures the BadgerDB store
type BadgerConfig struct {
	DBPath         string        `json:"db_path"`
	InMemory       bool          `json:"in_memory"`
	MaxMemoryUsage int64         `json:"max_memory_usage"` // Memory usage limit in bytes
	ValueThreshold int64         `json:"value_threshold"`  // Values larger than this are stored separately
	GCDiscardRatio float64       `json:"gc_discard_ratio"` // GC discard ratio (0.5 recommended)
	GCInterval     time.Duration `json:"gc_interval"`      // Garbage collection interval
	LogLevel       string        `json:"log_level"`        // DEBUG, INFO, WARNING, ERROR
}

// DefaultDBPath returns ~/.cache/clawdeck/badger
func DefaultDBPath() (string, error) {
	homeDir, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("failed to get home directory: %w", err)
	}
	return filepath.Join(homeDir, ".cache", "clawdeck", "badger"), nil
}

// NewBadgerKV opens (or creates) the BadgerDB store
func NewBadgerKV(config BadgerConfig) (*BadgerKV, error) {
	if config.DBPath == "" && !config.InMemory {
		path, err := DefaultDBPath()
		if err != nil {
			return nil, err
		}
		config.DBPath = path
	}
	if config.MaxMemoryUsage <= 0 {
		config.MaxMemoryUsage = 64 * 1024 * 1024
	}
	if config.ValueThreshold <= 0 {
		config.ValueThreshold = 1024
	}
	if config.GCDiscardRatio <= 0 {
		config.GCDiscardRatio = 0.5
	}
	if config.GCInterval <= 0 {
		config.GCInterval = 10 * time.Minute
	}
	if config.LogLevel == "" {
		config.LogLevel = "WARNING"
	}

	var opts badger.Options
	if config.InMemory {
		opts = badger.DefaultOptions("").WithInMemory(true)
	} else {
		if err := os.MkdirAll(config.DBPath, 0755); err != nil {
			return nil, fmt.Errorf("failed to create cache directory: %w", err)
		}
		opts = badger.DefaultOptions(config.DBPath)
	}
	opts = opts.WithValueThreshold(config.ValueThreshold)
	opts = opts.WithMemTableSize(config.MaxMemoryUsage / 4)
	opts = opts.WithNumMemtables(2)
	opts = opts.WithLogger(&badgerLogger{level: parseBadgerLevel(config.LogLevel)})

	db, err := badger.Open(opts)
	if err != nil {
		return nil, fmt.Errorf("failed to open BadgerDB: %w", err)
	}

	kv := &BadgerKV{
		db:     db,
		config: config,
		stopGC: make(chan struct{}),
		gcDone: make(chan struct{}),
	}

	go kv.gcLoop()

	return kv, nil
}

// Get retrieves the raw value for key
func (b *BadgerKV) Get(key string) ([]byte, error) {
	b.mu.RLock()
	defer b.mu.RUnlock()

	if b.closed {
		return nil, ErrClosed
	}

	var out []byte
	err := b.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get([]byte(key))
		if err != nil {
			return err
		}
		out, err = item.ValueCopy(nil)
		return err
	})
	if errors.Is(err, badger.ErrKeyNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("badger get %s: %w", key, err)
	}
	return out, nil
}

// Set stores value under key without expiry; staleness is judged from the entry timestamp
func (b *BadgerKV) Set(key string, value []byte) error {
	b.mu.RLock()
	defer b.mu.RUnlock()

	if b.closed {
		return ErrClosed
	}

	return b.db.Update(func(txn *badger.Txn) error {
		return txn.SetEntry(badger.NewEntry([]byte(key), value))
	})
}

// Delete removes a key
func (b *BadgerKV) Delete(key string) error {
	b.mu.RLock()
	defer b.mu.RUnlock()

	if b.closed {
		return ErrClosed
	}

	return b.db.Update(func(txn *badger.Txn) error {
		return txn.Delete([]byte(key))
	})
}

// DeletePrefix removes every key starting with prefix and returns how many were removed
func (b *BadgerKV) DeletePrefix(prefix string) (int, error) {
	b.mu.RLock()
	defer b.mu.RUnlock()

	if b.closed {
		return 0, ErrClosed
	}

	var keys [][]byte
	err := b.db.View(func(txn *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.PrefetchValues = false
		it := txn.NewIterator(opts)
		defer it.Close()

		p := []byte(prefix)
		for it.Seek(p); it.ValidForPrefix(p); it.Next() {
			keys = append(keys, it.Item().KeyCopy(nil))
		}
		return nil
	})
	if err != nil {
		return 0, err
	}

	err = b.db.Update(func(txn *badger.Txn) error {
		for _, k := range keys {
			if err := txn.Delete(k); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return 0, err
	}
	return len(keys), nil
}

// Stats returns on-disk sizes
func (b *BadgerKV) Stats() BadgerStats {
	b.mu.RLock()
	defer b.mu.RUnlock()

	if b.closed {
		return BadgerStats{}
	}

	lsm, vlog := b.db.Size()
	return BadgerStats{
		LSMSize:   lsm,
		VLogSize:  vlog,
		TotalSize: lsm + vlog,
		Path:      b.config.DBPath,
	}
}

// BadgerStats provides BadgerDB statistics
type BadgerStats struct {
	LSMSize   int64  `json:"lsm_size"`
	VLogSize  int64  `json:"vlog_size"`
	TotalSize int64  `json:"total_size"`
	Path      string `json:"path"`
}

// Close stops GC and closes the database
func (b *BadgerKV) Close() error {
	b.mu.Lock()
	if b.closed {
		b.mu.Unlock()
		return nil
	}
	b.closed = true
	b.mu.Unlock()

	close(b.stopGC)
	<-b.gcDone
	return b.db.Close()
}

// RunGC runs value log garbage collection once
func (b *BadgerKV) RunGC() error {
	b.mu.RLock()
	defer b.mu.RUnlock()

	if b.closed {
		return ErrClosed
	}
	if b.config.InMemory {
		return nil
	}

	return b.db.RunValueLogGC(b.config.GCDiscardRatio)
}

func (b *BadgerKV) gcLoop() {
	defer close(b.gcDone)

	ticker := time.NewTicker(b.config.GCInterval)
	defer ticker.Stop()

	for {
		select {
		case <-b.stopGC:
			return
		case <-ticker.C:
			if err := b.RunGC(); err != nil && !errors.Is(err, badger.ErrNoRewrite) && !errors.Is(err, ErrClosed) {
				logging.LogWarnf("badger GC error: %v", err)
			}
		}
	}
}

func parseBadgerLevel(level string) logging.LogLevel {
	switch strings.ToUpper(level) {
	case "DEBUG":
		return logging.LevelDebug
	case "INFO":
		return logging.LevelInfo
	case "ERROR":
		return logging.LevelError
	default:
		return logging.LevelWarn
	}
}

// badgerLogger routes badger output into the application logger
type badgerLogger struct {
	level logging.LogLevel
}

func (l *badgerLogger) Errorf(format string, args ...interface{}) {
	if l.level <= logging.LevelError {
		logging.LogErrorf("[badger] "+strings.TrimSpace(format), args...)
	}
}

func (l *badgerLogger) Warningf(format string, args ...interface{}) {
	if l.level <= logging.LevelWarn {
		logging.LogWarnf("[badger] "+strings.TrimSpace(format), args...)
	}
}

func (l *badgerLogger) Infof(format string, args ...interface{}) {
	if l.level <= logging.LevelInfo {
		logging.LogInfof("[badger] "+strings.TrimSpace(format), args...)
	}
}

func (l *badgerLogger) Debugf(format string, args ...interface{}) {
	if l.level <= logging.LevelDebug {
		logging.LogDebugf("[badger] "+strings.TrimSpace(format), args...)
	}
}
