package config

import (
	"time"
)

// Config represents the complete application configuration
type Config struct {
	App     AppConfig     `yaml:"app" json:"app" mapstructure:"app"`
	Gateway GatewayConfig `yaml:"gateway" json:"gateway" mapstructure:"gateway"`
	Polling PollingConfig `yaml:"polling" json:"polling" mapstructure:"polling"`
	Cache   CacheConfig   `yaml:"cache" json:"cache" mapstructure:"cache"`
	Pricing PricingConfig `yaml:"pricing" json:"pricing" mapstructure:"pricing"`
	UI      UIConfig      `yaml:"ui" json:"ui" mapstructure:"ui"`
	Debug   DebugConfig   `yaml:"debug" json:"debug" mapstructure:"debug"`
}

// AppConfig contains general application settings
type AppConfig struct {
	Name     string `yaml:"name" json:"name" mapstructure:"name"`
	Version  string `yaml:"version" json:"version" mapstructure:"version"`
	LogLevel string `yaml:"log_level" json:"log_level" mapstructure:"log_level"`
	LogFile  string `yaml:"log_file" json:"log_file" mapstructure:"log_file"`
	Timezone string `yaml:"timezone" json:"timezone" mapstructure:"timezone"`
	Verbose  bool   `yaml:"verbose" json:"verbose" mapstructure:"verbose"`
}

// GatewayConfig describes how to reach the gateway WebSocket endpoint
type GatewayConfig struct {
	URL            string        `yaml:"url" json:"url" mapstructure:"url"`
	Token          string        `yaml:"token" json:"-" mapstructure:"token"`
	ClientID       string        `yaml:"client_id" json:"client_id" mapstructure:"client_id"`
	DialTimeout    time.Duration `yaml:"dial_timeout" json:"dial_timeout" mapstructure:"dial_timeout"`
	RequestTimeout time.Duration `yaml:"request_timeout" json:"request_timeout" mapstructure:"request_timeout"`
	ReconnectMin   time.Duration `yaml:"reconnect_min" json:"reconnect_min" mapstructure:"reconnect_min"`
	ReconnectMax   time.Duration `yaml:"reconnect_max" json:"reconnect_max" mapstructure:"reconnect_max"`
}

// PollingConfig holds the three refresh cadences and heavy query parameters
type PollingConfig struct {
	Fast       time.Duration `yaml:"fast" json:"fast" mapstructure:"fast"`
	Mid        time.Duration `yaml:"mid" json:"mid" mapstructure:"mid"`
	Slow       time.Duration `yaml:"slow" json:"slow" mapstructure:"slow"`
	CostDays   int           `yaml:"cost_days" json:"cost_days" mapstructure:"cost_days"`
	UsageLimit int           `yaml:"usage_limit" json:"usage_limit" mapstructure:"usage_limit"`
}

// CacheConfig configures the persistent stale-while-revalidate cache
type CacheConfig struct {
	Path           string        `yaml:"path" json:"path" mapstructure:"path"`
	InMemory       bool          `yaml:"in_memory" json:"in_memory" mapstructure:"in_memory"`
	TTL            time.Duration `yaml:"ttl" json:"ttl" mapstructure:"ttl"`
	AnalyticsTTL   time.Duration `yaml:"analytics_ttl" json:"analytics_ttl" mapstructure:"analytics_ttl"`
	Namespace      string        `yaml:"namespace" json:"namespace" mapstructure:"namespace"`
	GCInterval     time.Duration `yaml:"gc_interval" json:"gc_interval" mapstructure:"gc_interval"`
	BadgerLogLevel string        `yaml:"badger_log_level" json:"badger_log_level" mapstructure:"badger_log_level"`
}

// PricingConfig selects where model prices come from
type PricingConfig struct {
	Source     string        `yaml:"source" json:"source" mapstructure:"source"`
	Offline    bool          `yaml:"offline" json:"offline" mapstructure:"offline"`
	LiteLLMURL string        `yaml:"litellm_url" json:"litellm_url" mapstructure:"litellm_url"`
	RefreshTTL time.Duration `yaml:"refresh_ttl" json:"refresh_ttl" mapstructure:"refresh_ttl"`
}

// UIConfig contains user interface settings
type UIConfig struct {
	Theme       string        `yaml:"theme" json:"theme" mapstructure:"theme"`
	RefreshRate time.Duration `yaml:"refresh_rate" json:"refresh_rate" mapstructure:"refresh_rate"`
	CompactMode bool          `yaml:"compact_mode" json:"compact_mode" mapstructure:"compact_mode"`
	ShowSpinner bool          `yaml:"show_spinner" json:"show_spinner" mapstructure:"show_spinner"`
	NoColor     bool          `yaml:"no_color" json:"no_color" mapstructure:"no_color"`
	DateFormat  string        `yaml:"date_format" json:"date_format" mapstructure:"date_format"`
	TimeFormat  string        `yaml:"time_format" json:"time_format" mapstructure:"time_format"`
}

// DebugConfig contains debugging settings
type DebugConfig struct {
	Enabled   bool `yaml:"enabled" json:"enabled" mapstructure:"enabled"`
	LogFrames bool `yaml:"log_frames" json:"log_frames" mapstructure:"log_frames"`
}

// Pricing sources
const (
	PricingSourceDefault = "default"
	PricingSourceLiteLLM = "litellm"
)

// DefaultLiteLLMURL is the community price sheet
const DefaultLiteLLMURL = "https://raw.githubusercontent.com/BerriAI/litellm/main/model_prices_and_context_window.json"

// ConfigPaths returns the default configuration file paths in order of precedence
func ConfigPaths() []string {
	return []string{
		"./clawdeck.yaml",
		"$HOME/.config/clawdeck/config.yaml",
		"$HOME/.clawdeck/config.yaml",
		"/etc/clawdeck/config.yaml",
	}
}

// Version will be set at build time
var Version = "dev"

// DefaultConfig returns a configuration with default values
func DefaultConfig() *Config {
	return &Config{
		App: AppConfig{
			Name:     "ClawDeck",
			Version:  Version,
			LogLevel: "info",
			Timezone: "Local",
		},
		Gateway: GatewayConfig{
			URL:            "ws://127.0.0.1:18789",
			ClientID:       "clawdeck",
			DialTimeout:    10 * time.Second,
			RequestTimeout: 30 * time.Second,
			ReconnectMin:   time.Second,
			ReconnectMax:   30 * time.Second,
		},
		Polling: PollingConfig{
			Fast:       10 * time.Second,
			Mid:        30 * time.Second,
			Slow:       120 * time.Second,
			CostDays:   30,
			UsageLimit: 1000,
		},
		Cache: CacheConfig{
			TTL:            5 * time.Minute,
			AnalyticsTTL:   15 * time.Minute,
			Namespace:      "clawdeck",
			GCInterval:     10 * time.Minute,
			BadgerLogLevel: "warn",
		},
		Pricing: PricingConfig{
			Source:     PricingSourceDefault,
			LiteLLMURL: DefaultLiteLLMURL,
			RefreshTTL: 24 * time.Hour,
		},
		UI: UIConfig{
			Theme:       "dark",
			RefreshRate: time.Second,
			ShowSpinner: true,
			DateFormat:  "2006-01-02",
			TimeFormat:  "15:04:05",
		},
	}
}

// MinimalConfig returns a configuration without persistence or spinner
func MinimalConfig() *Config {
	cfg := DefaultConfig()
	cfg.Cache.InMemory = true
	cfg.UI.CompactMode = true
	cfg.UI.ShowSpinner = false
	return cfg
}

// DevelopmentConfig returns a configuration optimized for development
func DevelopmentConfig() *Config {
	cfg := DefaultConfig()
	cfg.App.LogLevel = "debug"
	cfg.Debug.Enabled = true
	cfg.Polling.Fast = 5 * time.Second
	cfg.Cache.GCInterval = time.Minute
	return cfg
}
