package cache

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/penwyp/ClawDeck/models"
)

func TestPreferences_DefaultWhenEmpty(t *testing.T) {
	store, _, _ := newTestStore(t)
	prefs := NewPreferences(store)

	tr := prefs.Load()
	assert.Equal(t, models.DefaultRangePreset, tr.Preset)
	assert.True(t, tr.Custom.IsZero())
}

func TestPreferences_ApplyAndLoad(t *testing.T) {
	store, kv, _ := newTestStore(t)
	prefs := NewPreferences(store)

	require.NoError(t, prefs.Apply(models.TimeRange{Preset: models.Range7Days}))
	raw, err := kv.Get(store.Key(models.CacheKeyRangePreset))
	require.NoError(t, err)
	assert.Equal(t, "7d", string(raw), "preset is stored as a plain string")

	custom := models.CustomRange{Start: "2026-01-01", End: "2026-01-15"}
	require.NoError(t, prefs.Apply(models.TimeRange{Preset: models.RangeCustom, Custom: custom}))

	raw, err = kv.Get(store.Key(models.CacheKeyCustomRange))
	require.NoError(t, err)
	assert.JSONEq(t, `{"start":"2026-01-01","end":"2026-01-15"}`, string(raw))

	tr := prefs.Load()
	assert.Equal(t, models.RangeCustom, tr.Preset)
	assert.Equal(t, custom, tr.Custom)
}

func TestPreferences_RejectsInvalid(t *testing.T) {
	store, kv, _ := newTestStore(t)
	prefs := NewPreferences(store)

	assert.Error(t, prefs.Apply(models.TimeRange{Preset: "yearly"}))
	assert.Error(t, prefs.Apply(models.TimeRange{Preset: models.RangeCustom, Custom: models.CustomRange{Start: "2026-02-01", End: "2026-01-01"}}))
	assert.Equal(t, 0, kv.Len())
}

func TestPreferences_CorruptValuesFallBack(t *testing.T) {
	store, kv, _ := newTestStore(t)
	require.NoError(t, kv.Set(store.Key(models.CacheKeyRangePreset), []byte("custom")))
	require.NoError(t, kv.Set(store.Key(models.CacheKeyCustomRange), []byte("{broken")))

	tr := NewPreferences(store).Load()
	assert.Equal(t, models.DefaultRangePreset, tr.Preset)
}
