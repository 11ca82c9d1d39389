package cache

import (
	"fmt"

	"github.com/penwyp/ClawDeck/models"
)

// Preferences persists the analytics time range.
// Values are read once when a view initializes and written only on Apply.
type Preferences struct {
	store *Store
}

// NewPreferences creates a Preferences over store
func NewPreferences(store *Store) *Preferences {
	return &Preferences{store: store}
}

// Load returns the saved range, falling back to the default preset
func (p *Preferences) Load() models.TimeRange {
	tr := models.TimeRange{Preset: models.DefaultRangePreset}

	if raw, ok := p.store.GetString(models.CacheKeyRangePreset); ok {
		if preset := models.RangePreset(raw); preset.Valid() {
			tr.Preset = preset
		}
	}

	var custom models.CustomRange
	if p.store.GetJSON(models.CacheKeyCustomRange, &custom) && custom.Validate() == nil {
		tr.Custom = custom
	}

	if tr.Preset == models.RangeCustom && tr.Custom.IsZero() {
		tr.Preset = models.DefaultRangePreset
	}
	return tr
}

// Apply persists tr; the custom pair is written only when the preset is custom
func (p *Preferences) Apply(tr models.TimeRange) error {
	if !tr.Preset.Valid() {
		return fmt.Errorf("invalid range preset %q", tr.Preset)
	}
	if tr.Preset == models.RangeCustom {
		if err := tr.Custom.Validate(); err != nil {
			return err
		}
		if err := p.store.SetJSON(models.CacheKeyCustomRange, tr.Custom); err != nil {
			return err
		}
	}
	return p.store.SetString(models.CacheKeyRangePreset, string(tr.Preset))
}
