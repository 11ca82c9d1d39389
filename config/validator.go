package config

import (
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"
)

// ValidationRule represents a single validation rule
type ValidationRule struct {
	Field   string
	Check   func(cfg *Config) error
	Message string
}

// StandardValidator provides standard configuration validation
type StandardValidator struct {
	rules []ValidationRule
}

// NewStandardValidator creates a new standard validator with built-in rules
func NewStandardValidator() *StandardValidator {
	return &StandardValidator{
		rules: make([]ValidationRule, 0),
	}
}

// AddRule adds a custom validation rule
func (v *StandardValidator) AddRule(rule ValidationRule) {
	v.rules = append(v.rules, rule)
}

// Validate validates the entire configuration
func (v *StandardValidator) Validate(cfg *Config) error {
	var errors []string

	if err := v.validateApp(&cfg.App); err != nil {
		errors = append(errors, fmt.Sprintf("app: %v", err))
	}
	if err := v.validateGateway(&cfg.Gateway); err != nil {
		errors = append(errors, fmt.Sprintf("gateway: %v", err))
	}
	if err := v.validatePolling(&cfg.Polling); err != nil {
		errors = append(errors, fmt.Sprintf("polling: %v", err))
	}
	if err := v.validateCache(&cfg.Cache); err != nil {
		errors = append(errors, fmt.Sprintf("cache: %v", err))
	}
	if err := v.validatePricing(&cfg.Pricing); err != nil {
		errors = append(errors, fmt.Sprintf("pricing: %v", err))
	}
	if err := v.validateUI(&cfg.UI); err != nil {
		errors = append(errors, fmt.Sprintf("ui: %v", err))
	}

	for _, rule := range v.rules {
		if err := rule.Check(cfg); err != nil {
			msg := rule.Message
			if msg == "" {
				msg = err.Error()
			}
			errors = append(errors, fmt.Sprintf("%s: %s", rule.Field, msg))
		}
	}

	if len(errors) > 0 {
		return fmt.Errorf("validation errors: %s", strings.Join(errors, "; "))
	}

	return nil
}

// validateApp validates application configuration
func (v *StandardValidator) validateApp(app *AppConfig) error {
	var errors []string

	if err := ValidateLogLevel(app.LogLevel); err != nil {
		errors = append(errors, fmt.Sprintf("log_level: %v", err))
	}

	if app.LogFile != "" {
		dir := filepath.Dir(os.ExpandEnv(app.LogFile))
		if dir != "." {
			if _, err := os.Stat(dir); os.IsNotExist(err) {
				errors = append(errors, fmt.Sprintf("log_file: directory does not exist: %s", dir))
			}
		}
	}

	if app.Timezone != "" && app.Timezone != "Local" {
		if _, err := time.LoadLocation(app.Timezone); err != nil {
			errors = append(errors, fmt.Sprintf("timezone: invalid timezone: %s", app.Timezone))
		}
	}

	if len(errors) > 0 {
		return fmt.Errorf("%s", strings.Join(errors, "; "))
	}
	return nil
}

// validateGateway validates the gateway endpoint and timeouts
func (v *StandardValidator) validateGateway(gw *GatewayConfig) error {
	var errors []string

	if err := ValidateGatewayURL(gw.URL); err != nil {
		errors = append(errors, fmt.Sprintf("url: %v", err))
	}
	if gw.DialTimeout < 100*time.Millisecond {
		errors = append(errors, "dial_timeout: must be at least 100ms")
	}
	if gw.RequestTimeout < 100*time.Millisecond {
		errors = append(errors, "request_timeout: must be at least 100ms")
	}
	if gw.ReconnectMin <= 0 {
		errors = append(errors, "reconnect_min: must be positive")
	}
	if gw.ReconnectMax < gw.ReconnectMin {
		errors = append(errors, "reconnect_max: must not be less than reconnect_min")
	}

	if len(errors) > 0 {
		return fmt.Errorf("%s", strings.Join(errors, "; "))
	}
	return nil
}

// validatePolling validates the tier cadences
func (v *StandardValidator) validatePolling(p *PollingConfig) error {
	var errors []string

	for name, d := range map[string]time.Duration{"fast": p.Fast, "mid": p.Mid, "slow": p.Slow} {
		if d < time.Second {
			errors = append(errors, fmt.Sprintf("%s: must be at least 1s", name))
		}
		if d > time.Hour {
			errors = append(errors, fmt.Sprintf("%s: must not exceed 1 hour", name))
		}
	}
	if p.CostDays < 1 || p.CostDays > 366 {
		errors = append(errors, "cost_days: must be between 1 and 366")
	}
	if p.UsageLimit < 1 {
		errors = append(errors, "usage_limit: must be at least 1")
	}

	if len(errors) > 0 {
		// map iteration order is random
		sort.Strings(errors)
		return fmt.Errorf("%s", strings.Join(errors, "; "))
	}
	return nil
}

// validateCache validates the persistent cache settings
func (v *StandardValidator) validateCache(c *CacheConfig) error {
	var errors []string

	if c.TTL <= 0 {
		errors = append(errors, "ttl: must be positive")
	}
	if c.AnalyticsTTL <= 0 {
		errors = append(errors, "analytics_ttl: must be positive")
	}
	if c.Namespace == "" {
		errors = append(errors, "namespace: must not be empty")
	}
	if strings.Contains(c.Namespace, ":") {
		errors = append(errors, "namespace: must not contain ':'")
	}
	if c.GCInterval != 0 && c.GCInterval < 10*time.Second {
		errors = append(errors, "gc_interval: must be at least 10 seconds")
	}
	if c.BadgerLogLevel != "" {
		if err := ValidateLogLevel(c.BadgerLogLevel); err != nil {
			errors = append(errors, fmt.Sprintf("badger_log_level: %v", err))
		}
	}

	if len(errors) > 0 {
		return fmt.Errorf("%s", strings.Join(errors, "; "))
	}
	return nil
}

// validatePricing validates the price source
func (v *StandardValidator) validatePricing(p *PricingConfig) error {
	var errors []string

	switch p.Source {
	case PricingSourceDefault:
	case PricingSourceLiteLLM:
		if _, err := url.ParseRequestURI(p.LiteLLMURL); err != nil {
			errors = append(errors, fmt.Sprintf("litellm_url: %v", err))
		}
	default:
		errors = append(errors, fmt.Sprintf("source: invalid source: %s (valid: default, litellm)", p.Source))
	}
	if p.RefreshTTL < 0 {
		errors = append(errors, "refresh_ttl: must be non-negative")
	}

	if len(errors) > 0 {
		return fmt.Errorf("%s", strings.Join(errors, "; "))
	}
	return nil
}

// validateUI validates UI configuration
func (v *StandardValidator) validateUI(ui *UIConfig) error {
	var errors []string

	if err := ValidateTheme(ui.Theme); err != nil {
		errors = append(errors, fmt.Sprintf("theme: %v", err))
	}

	if ui.RefreshRate < 100*time.Millisecond {
		errors = append(errors, "refresh_rate: must be at least 100ms")
	}
	if ui.RefreshRate > time.Minute {
		errors = append(errors, "refresh_rate: must not exceed 1 minute")
	}

	if ui.DateFormat != "" {
		if _, err := time.Parse(ui.DateFormat, "2006-01-02"); err != nil {
			errors = append(errors, fmt.Sprintf("date_format: invalid format: %v", err))
		}
	}
	if ui.TimeFormat != "" {
		if _, err := time.Parse(ui.TimeFormat, "15:04:05"); err != nil {
			errors = append(errors, fmt.Sprintf("time_format: invalid format: %v", err))
		}
	}

	if len(errors) > 0 {
		return fmt.Errorf("%s", strings.Join(errors, "; "))
	}
	return nil
}

// Built-in validation functions

// ValidateGatewayURL requires a ws:// or wss:// URL with a host
func ValidateGatewayURL(raw string) error {
	if raw == "" {
		return fmt.Errorf("must not be empty")
	}
	u, err := url.Parse(raw)
	if err != nil {
		return fmt.Errorf("invalid URL: %v", err)
	}
	if u.Scheme != "ws" && u.Scheme != "wss" {
		return fmt.Errorf("invalid scheme: %s (valid: ws, wss)", u.Scheme)
	}
	if u.Host == "" {
		return fmt.Errorf("missing host")
	}
	return nil
}

// ValidateTheme validates UI theme
func ValidateTheme(theme string) error {
	validThemes := map[string]bool{
		"dark":          true,
		"light":         true,
		"high-contrast": true,
		"auto":          true,
	}

	if !validThemes[theme] {
		return fmt.Errorf("invalid theme: %s (valid: dark, light, high-contrast, auto)", theme)
	}
	return nil
}

// ValidateLogLevel validates log level
func ValidateLogLevel(level string) error {
	validLevels := map[string]bool{
		"debug": true,
		"info":  true,
		"warn":  true,
		"error": true,
	}

	if !validLevels[level] {
		return fmt.Errorf("invalid log level: %s (valid: debug, info, warn, error)", level)
	}
	return nil
}
