package models

import (
	"fmt"
	"time"
)

// DateLayout is the calendar date format used by daily entries and custom ranges
const DateLayout = "2006-01-02"

// RangePreset is a saved time-range selection for the analytics view
type RangePreset string

const (
	RangeToday  RangePreset = "today"
	Range7Days  RangePreset = "7d"
	Range30Days RangePreset = "30d"
	Range90Days RangePreset = "90d"
	RangeCustom RangePreset = "custom"
)

// DefaultRangePreset is used when nothing has been applied yet
const DefaultRangePreset = Range30Days

// RangePresets lists presets in menu order
var RangePresets = []RangePreset{RangeToday, Range7Days, Range30Days, Range90Days, RangeCustom}

// Valid reports whether p is a known preset
func (p RangePreset) Valid() bool {
	for _, known := range RangePresets {
		if p == known {
			return true
		}
	}
	return false
}

// Days returns the cost window for fixed presets, or 0 for custom
func (p RangePreset) Days() int {
	switch p {
	case RangeToday:
		return 1
	case Range7Days:
		return 7
	case Range30Days:
		return 30
	case Range90Days:
		return 90
	default:
		return 0
	}
}

// CustomRange is an inclusive pair of calendar dates
type CustomRange struct {
	Start string `json:"start"`
	End   string `json:"end"`
}

// IsZero reports whether no dates are set
func (r CustomRange) IsZero() bool {
	return r.Start == "" && r.End == ""
}

// Validate checks both dates parse and are ordered
func (r CustomRange) Validate() error {
	start, err := time.Parse(DateLayout, r.Start)
	if err != nil {
		return ValidationError{Field: "start", Message: fmt.Sprintf("invalid date %q", r.Start)}
	}
	end, err := time.Parse(DateLayout, r.End)
	if err != nil {
		return ValidationError{Field: "end", Message: fmt.Sprintf("invalid date %q", r.End)}
	}
	if end.Before(start) {
		return ValidationError{Field: "end", Message: "end date is before start date"}
	}
	return nil
}

// DaysUntil returns how many days back from now the window must reach to cover Start
func (r CustomRange) DaysUntil(now time.Time) int {
	start, err := time.ParseInLocation(DateLayout, r.Start, now.Location())
	if err != nil {
		return 0
	}
	today := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, now.Location())
	days := int(today.Sub(start).Hours()/24) + 1
	if days < 1 {
		return 1
	}
	return days
}

// Contains reports whether date (YYYY-MM-DD) falls inside the range
func (r CustomRange) Contains(date string) bool {
	return date >= r.Start && date <= r.End
}

// TimeRange is the applied analytics range
type TimeRange struct {
	Preset RangePreset `json:"preset"`
	Custom CustomRange `json:"custom,omitempty"`
}

// Days resolves the cost window for the range at now
func (t TimeRange) Days(now time.Time) int {
	if t.Preset == RangeCustom {
		return t.Custom.DaysUntil(now)
	}
	if d := t.Preset.Days(); d > 0 {
		return d
	}
	return DefaultRangePreset.Days()
}
