package config

import (
	"fmt"
	"os"
	"path/filepath"
	"reflect"
	"strings"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/penwyp/ClawDeck/logging"
)

// DefaultDebounce coalesces editor save bursts into one reload
const DefaultDebounce = 500 * time.Millisecond

// Watcher reloads the config file when it changes on disk. Only valid
// configurations that differ from the current one reach onChange.
type Watcher struct {
	path     string
	loader   *Loader
	onChange func(*Config)
	debounce time.Duration

	fs       *fsnotify.Watcher
	done     chan struct{}
	stopOnce sync.Once

	mu      sync.RWMutex
	current *Config
}

// NewWatcher creates a watcher for path. Extra sources (env, flags) are
// layered over the file on every reload.
func NewWatcher(path string, onChange func(*Config), extra ...Source) (*Watcher, error) {
	path = os.ExpandEnv(path)

	fs, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("failed to create file watcher: %w", err)
	}

	loader := NewLoader()
	loader.AddSource(NewFileSource(path))
	for _, src := range extra {
		loader.AddSource(src)
	}
	loader.AddValidator(NewStandardValidator())

	return &Watcher{
		path:     path,
		loader:   loader,
		onChange: onChange,
		debounce: DefaultDebounce,
		fs:       fs,
		done:     make(chan struct{}),
	}, nil
}

// SetDebounce changes the reload delay; call before Start
func (w *Watcher) SetDebounce(d time.Duration) {
	w.debounce = d
}

// Start loads the file once and begins watching it
func (w *Watcher) Start() error {
	cfg, err := w.loader.LoadWithDefaults()
	if err != nil {
		return fmt.Errorf("failed to load initial configuration: %w", err)
	}
	w.mu.Lock()
	w.current = cfg
	w.mu.Unlock()

	// Editors often replace the file, so watch the directory too.
	dir := filepath.Dir(w.path)
	if err := w.fs.Add(dir); err != nil {
		return fmt.Errorf("failed to watch config directory %s: %w", dir, err)
	}

	go w.loop()
	return nil
}

// Stop ends watching. Safe to call more than once.
func (w *Watcher) Stop() error {
	var err error
	w.stopOnce.Do(func() {
		close(w.done)
		err = w.fs.Close()
	})
	return err
}

// Current returns the last valid configuration
func (w *Watcher) Current() *Config {
	w.mu.RLock()
	defer w.mu.RUnlock()
	return w.current
}

func (w *Watcher) loop() {
	var (
		timer  *time.Timer
		timerC <-chan time.Time
	)
	defer func() {
		if timer != nil {
			timer.Stop()
		}
	}()

	for {
		select {
		case <-w.done:
			return

		case ev, ok := <-w.fs.Events:
			if !ok {
				return
			}
			if filepath.Clean(ev.Name) != filepath.Clean(w.path) {
				continue
			}
			if ev.Has(fsnotify.Remove) || ev.Has(fsnotify.Rename) {
				logging.LogWarnf("config file %s removed, keeping current settings", w.path)
				continue
			}
			if timer == nil {
				timer = time.NewTimer(w.debounce)
			} else {
				timer.Reset(w.debounce)
			}
			timerC = timer.C

		case <-timerC:
			timerC = nil
			w.reload()

		case err, ok := <-w.fs.Errors:
			if !ok {
				return
			}
			logging.LogWarnf("config watcher error: %v", err)
		}
	}
}

func (w *Watcher) reload() {
	cfg, err := w.loader.LoadWithDefaults()
	if err != nil {
		logging.LogErrorf("config reload rejected, keeping current settings: %v", err)
		return
	}

	w.mu.Lock()
	prev := w.current
	w.current = cfg
	w.mu.Unlock()

	sections := ChangedSections(prev, cfg)
	if len(sections) == 0 {
		return
	}
	logging.LogInfof("configuration reloaded from %s (changed: %s)", w.path, strings.Join(sections, ", "))

	if w.onChange != nil {
		w.onChange(cfg)
	}
}

// ChangedSections names the top-level sections that differ between a and b
func ChangedSections(a, b *Config) []string {
	if a == nil || b == nil {
		if a == b {
			return nil
		}
		return []string{"all"}
	}

	var changed []string
	av, bv := reflect.ValueOf(a).Elem(), reflect.ValueOf(b).Elem()
	t := av.Type()
	for i := 0; i < t.NumField(); i++ {
		if !reflect.DeepEqual(av.Field(i).Interface(), bv.Field(i).Interface()) {
			changed = append(changed, strings.Split(t.Field(i).Tag.Get("yaml"), ",")[0])
		}
	}
	return changed
}
