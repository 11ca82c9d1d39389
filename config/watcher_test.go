package config

import (
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWatcher_ReloadsOnChange(t *testing.T) {
	path := writeConfig(t, "polling:\n  fast: 10s\n")

	changes := make(chan *Config, 4)
	w, err := NewWatcher(path, func(cfg *Config) { changes <- cfg })
	require.NoError(t, err)
	w.SetDebounce(20 * time.Millisecond)
	require.NoError(t, w.Start())
	defer w.Stop()

	assert.Equal(t, 10*time.Second, w.Current().Polling.Fast)

	require.NoError(t, os.WriteFile(path, []byte("polling:\n  fast: 3s\n"), 0o644))

	select {
	case cfg := <-changes:
		assert.Equal(t, 3*time.Second, cfg.Polling.Fast)
		assert.Equal(t, 3*time.Second, w.Current().Polling.Fast)
	case <-time.After(5 * time.Second):
		t.Fatal("no reload observed")
	}
}

func TestWatcher_InvalidReloadKeepsCurrent(t *testing.T) {
	path := writeConfig(t, "polling:\n  fast: 10s\n")

	changes := make(chan *Config, 4)
	w, err := NewWatcher(path, func(cfg *Config) { changes <- cfg })
	require.NoError(t, err)
	w.SetDebounce(20 * time.Millisecond)
	require.NoError(t, w.Start())
	defer w.Stop()

	require.NoError(t, os.WriteFile(path, []byte("polling:\n  fast: 1ms\n"), 0o644))

	select {
	case <-changes:
		t.Fatal("invalid config must not be delivered")
	case <-time.After(300 * time.Millisecond):
	}
	assert.Equal(t, 10*time.Second, w.Current().Polling.Fast)
}

func TestWatcher_StopTwice(t *testing.T) {
	path := writeConfig(t, "polling:\n  fast: 10s\n")

	w, err := NewWatcher(path, nil)
	require.NoError(t, err)
	require.NoError(t, w.Start())
	assert.NoError(t, w.Stop())
	assert.NoError(t, w.Stop())
}

func TestChangedSections(t *testing.T) {
	a := DefaultConfig()
	b := DefaultConfig()

	assert.Empty(t, ChangedSections(a, b))

	b.Polling.Mid = time.Minute
	b.UI.Theme = "light"
	assert.Equal(t, []string{"polling", "ui"}, ChangedSections(a, b))

	assert.Equal(t, []string{"all"}, ChangedSections(nil, b))
	assert.Empty(t, ChangedSections(nil, nil))
}
