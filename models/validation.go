package models

import (
	"fmt"
	"time"
)

// ValidationError represents a validation error with field and message
type ValidationError struct {
	Field   string
	Message string
}

func (e ValidationError) Error() string {
	return fmt.Sprintf("validation error on field '%s': %s", e.Field, e.Message)
}

// PricingError represents an error related to pricing calculations
type PricingError struct {
	Model   string
	Message string
}

func (e PricingError) Error() string {
	return fmt.Sprintf("pricing error for model '%s': %s", e.Model, e.Message)
}

// Validate validates a ModelPricing row
func (m *ModelPricing) Validate() error {
	if m.Input < 0 {
		return ValidationError{Field: "Input", Message: "input price cannot be negative"}
	}

	if m.Output < 0 {
		return ValidationError{Field: "Output", Message: "output price cannot be negative"}
	}

	if m.CacheWrite < 0 {
		return ValidationError{Field: "CacheWrite", Message: "cache write price cannot be negative"}
	}

	if m.CacheRead < 0 {
		return ValidationError{Field: "CacheRead", Message: "cache read price cannot be negative"}
	}

	return nil
}

// Validate checks the token counters of a totals record
func (t *CostTotals) Validate() error {
	if t.Input < 0 || t.Output < 0 || t.CacheRead < 0 || t.CacheWrite < 0 || t.TotalTokens < 0 {
		return ValidationError{Field: "tokens", Message: "token counts cannot be negative"}
	}
	if t.MissingCostEntries < 0 {
		return ValidationError{Field: "MissingCostEntries", Message: "missing cost entries cannot be negative"}
	}
	return nil
}

// Validate checks the date key of a daily entry
func (d *DailyEntry) Validate() error {
	if _, err := time.Parse(DateLayout, d.Date); err != nil {
		return ValidationError{Field: "Date", Message: fmt.Sprintf("invalid date %q", d.Date)}
	}
	return d.CostTotals.Validate()
}

// Validate checks that a session snapshot has an identity
func (s *SessionSnapshot) Validate() error {
	if s.Key == "" {
		return ValidationError{Field: "Key", Message: "session key cannot be empty"}
	}
	return nil
}

// Validate checks that a cron job snapshot has an identity
func (j *CronJobSnapshot) Validate() error {
	if j.ID == "" {
		return ValidationError{Field: "ID", Message: "cron job id cannot be empty"}
	}
	return nil
}
