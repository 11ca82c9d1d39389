package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/spf13/pflag"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()

	assert.Equal(t, "ClawDeck", cfg.App.Name)
	assert.Equal(t, "info", cfg.App.LogLevel)
	assert.Equal(t, "Local", cfg.App.Timezone)

	assert.Equal(t, "ws://127.0.0.1:18789", cfg.Gateway.URL)
	assert.Equal(t, 30*time.Second, cfg.Gateway.RequestTimeout)

	assert.Equal(t, 10*time.Second, cfg.Polling.Fast)
	assert.Equal(t, 30*time.Second, cfg.Polling.Mid)
	assert.Equal(t, 120*time.Second, cfg.Polling.Slow)
	assert.Equal(t, 30, cfg.Polling.CostDays)
	assert.Equal(t, 1000, cfg.Polling.UsageLimit)

	assert.Equal(t, 5*time.Minute, cfg.Cache.TTL)
	assert.Equal(t, 15*time.Minute, cfg.Cache.AnalyticsTTL)
	assert.Equal(t, "clawdeck", cfg.Cache.Namespace)

	assert.Equal(t, PricingSourceDefault, cfg.Pricing.Source)
	assert.Equal(t, 24*time.Hour, cfg.Pricing.RefreshTTL)

	assert.Equal(t, "dark", cfg.UI.Theme)
	assert.True(t, cfg.UI.ShowSpinner)
	assert.False(t, cfg.Debug.Enabled)
}

func TestMinimalConfig(t *testing.T) {
	cfg := MinimalConfig()

	assert.True(t, cfg.Cache.InMemory)
	assert.True(t, cfg.UI.CompactMode)
	assert.False(t, cfg.UI.ShowSpinner)
}

func TestDevelopmentConfig(t *testing.T) {
	cfg := DevelopmentConfig()

	assert.Equal(t, "debug", cfg.App.LogLevel)
	assert.True(t, cfg.Debug.Enabled)
	assert.Equal(t, 5*time.Second, cfg.Polling.Fast)
	assert.NoError(t, NewStandardValidator().Validate(cfg))
}

func TestConfigPaths(t *testing.T) {
	paths := ConfigPaths()

	assert.NotEmpty(t, paths)
	assert.Contains(t, paths, "./clawdeck.yaml")
	assert.Contains(t, paths, "$HOME/.config/clawdeck/config.yaml")
}

func TestKeys(t *testing.T) {
	keys := Keys()

	assert.Contains(t, keys, "polling.fast")
	assert.Contains(t, keys, "cache.analytics_ttl")
	assert.Contains(t, keys, "debug.log_frames")
	assert.NotContains(t, keys, "polling")
}

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "clawdeck.yaml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o644))
	return path
}

func TestLoader_FileOverridesDefaults(t *testing.T) {
	path := writeConfig(t, `
gateway:
  url: wss://gw.example.com
  token: abc
polling:
  fast: 5s
  slow: 10m
cache:
  analytics_ttl: 30m
pricing:
  source: litellm
`)

	loader := NewLoader()
	loader.AddSource(NewFileSource(path))
	loader.AddValidator(NewStandardValidator())

	cfg, err := loader.LoadWithDefaults()
	require.NoError(t, err)

	assert.Equal(t, "wss://gw.example.com", cfg.Gateway.URL)
	assert.Equal(t, "abc", cfg.Gateway.Token)
	assert.Equal(t, 5*time.Second, cfg.Polling.Fast)
	assert.Equal(t, 30*time.Second, cfg.Polling.Mid, "unset keys keep defaults")
	assert.Equal(t, 10*time.Minute, cfg.Polling.Slow)
	assert.Equal(t, 30*time.Minute, cfg.Cache.AnalyticsTTL)
	assert.Equal(t, 5*time.Minute, cfg.Cache.TTL)
	assert.Equal(t, PricingSourceLiteLLM, cfg.Pricing.Source)
}

func TestLoader_InvalidFileFailsValidation(t *testing.T) {
	path := writeConfig(t, "app:\n  log_level: chatty\n")

	loader := NewLoader()
	loader.AddSource(NewFileSource(path))
	loader.AddValidator(NewStandardValidator())

	_, err := loader.LoadWithDefaults()
	assert.Error(t, err)
}

func TestLoader_MissingFileIsSkipped(t *testing.T) {
	loader := NewLoader()
	loader.AddSource(NewFileSource(filepath.Join(t.TempDir(), "absent.yaml")))

	cfg, err := loader.LoadWithDefaults()
	require.NoError(t, err)
	assert.Equal(t, DefaultConfig().Gateway.URL, cfg.Gateway.URL)

	_, err = loader.Load()
	assert.Error(t, err)
}

func TestLoader_MalformedFileIsAnError(t *testing.T) {
	path := writeConfig(t, "polling: [fast\n")

	loader := NewLoader()
	loader.AddSource(NewFileSource(path))

	_, err := loader.LoadWithDefaults()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "file:")
}

func TestLoader_FlagsOverrideEnvOverrideFile(t *testing.T) {
	path := writeConfig(t, "gateway:\n  url: ws://file:1\npolling:\n  mid: 40s\n")
	t.Setenv("CLAWDECK_GATEWAY_URL", "ws://env:2")

	flags := pflag.NewFlagSet("test", pflag.ContinueOnError)
	flags.String("gateway-url", "", "")
	require.NoError(t, flags.Parse([]string{"--gateway-url", "ws://flag:3"}))

	loader := NewLoader()
	loader.AddSource(NewFlagSource(flags))
	loader.AddSource(NewEnvSource("CLAWDECK"))
	loader.AddSource(NewFileSource(path))

	cfg, err := loader.LoadWithDefaults()
	require.NoError(t, err)
	assert.Equal(t, "ws://flag:3", cfg.Gateway.URL)
	assert.Equal(t, 40*time.Second, cfg.Polling.Mid)
}

func TestEnvSource(t *testing.T) {
	t.Setenv("CLAWDECK_GATEWAY_URL", "ws://10.0.0.2:9000")
	t.Setenv("CLAWDECK_POLLING_MID", "45s")
	t.Setenv("CLAWDECK_PRICING_OFFLINE", "true")

	cfg, err := NewEnvSource("CLAWDECK").Load()
	require.NoError(t, err)

	assert.Equal(t, "ws://10.0.0.2:9000", cfg.Gateway.URL)
	assert.Equal(t, 45*time.Second, cfg.Polling.Mid)
	assert.True(t, cfg.Pricing.Offline)
	assert.Empty(t, cfg.App.LogLevel)
}

func TestFlagSource_OnlyChangedFlags(t *testing.T) {
	flags := pflag.NewFlagSet("test", pflag.ContinueOnError)
	flags.String("log-level", "info", "")
	flags.String("gateway-url", "", "")
	flags.Bool("offline", false, "")
	require.NoError(t, flags.Parse([]string{"--gateway-url", "wss://x.example", "--offline"}))

	cfg, err := NewFlagSource(flags).Load()
	require.NoError(t, err)

	assert.Equal(t, "wss://x.example", cfg.Gateway.URL)
	assert.True(t, cfg.Pricing.Offline)
	assert.Empty(t, cfg.App.LogLevel)
}

func TestMerge(t *testing.T) {
	base := DefaultConfig()
	override := &Config{
		Polling: PollingConfig{Fast: 3 * time.Second, CostDays: 7},
		Cache:   CacheConfig{InMemory: true},
		Debug:   DebugConfig{Enabled: true},
	}

	merged := Merge(base, override)

	assert.Equal(t, 3*time.Second, merged.Polling.Fast)
	assert.Equal(t, base.Polling.Mid, merged.Polling.Mid)
	assert.Equal(t, 7, merged.Polling.CostDays)
	assert.True(t, merged.Cache.InMemory)
	assert.Equal(t, base.Cache.Namespace, merged.Cache.Namespace)
	assert.True(t, merged.Debug.Enabled)
	assert.Equal(t, 10*time.Second, base.Polling.Fast, "base is not mutated")

	assert.Same(t, base, Merge(base, nil))
	assert.Same(t, override, Merge(nil, override))
}
