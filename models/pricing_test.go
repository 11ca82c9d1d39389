package models

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testTable() *PriceTable {
	return NewPriceTable(map[string]ModelPricing{
		"claude-opus-4-6": {Input: 5, Output: 25, CacheWrite: 6.25, CacheRead: 0.5},
		"claude-opus-4":   {Input: 15, Output: 75, CacheWrite: 18.75, CacheRead: 1.5},
		"gpt-4o":          {Input: 2.5, Output: 10},
		"gpt-4o-mini":     {Input: 0.15, Output: 0.6},
	})
}

func TestNormalizeModelID(t *testing.T) {
	tests := map[string]string{
		"anthropic/claude-opus-4-6-20260201": "claude-opus-4-6-20260201",
		"  Claude-Opus-4-6 ":                 "claude-opus-4-6",
		"openrouter/openai/gpt-4o":           "gpt-4o",
		"":                                   "",
	}
	for in, want := range tests {
		assert.Equal(t, want, NormalizeModelID(in), in)
	}
}

func TestPriceTable_Lookup(t *testing.T) {
	table := testTable()

	tests := []struct {
		model   string
		wantKey string
		found   bool
	}{
		{"claude-opus-4-6", "claude-opus-4-6", true},
		{"anthropic/claude-opus-4-6-20260201", "claude-opus-4-6", true},
		{"claude-opus-4-20250514", "claude-opus-4", true},
		{"gpt-4o-mini-2024-07-18", "gpt-4o-mini", true},
		{"azure-gpt-4o", "gpt-4o", true},
		{"mystery-model", "", false},
		{"", "", false},
	}

	for _, tt := range tests {
		t.Run(tt.model, func(t *testing.T) {
			_, key, ok := table.Lookup(tt.model)
			assert.Equal(t, tt.found, ok)
			assert.Equal(t, tt.wantKey, key)
		})
	}
}

func TestPriceTable_FuzzyMatchesCanonicalRow(t *testing.T) {
	table := testTable()

	canonical, _, ok := table.Lookup("claude-opus-4-6")
	require.True(t, ok)
	fuzzy, _, ok := table.Lookup("anthropic/claude-opus-4-6-20260201")
	require.True(t, ok)

	assert.Equal(t, canonical, fuzzy)
}

func TestPriceTable_Merge(t *testing.T) {
	table := testTable()
	merged := table.Merge(map[string]ModelPricing{
		"anthropic/claude-opus-4-6": {Input: 4, Output: 20},
		"gemini-2.5-pro":            {Input: 1.25, Output: 10},
	})

	p, _, ok := merged.Lookup("claude-opus-4-6")
	require.True(t, ok)
	assert.Equal(t, 4.0, p.Input)
	assert.Equal(t, 5, merged.Len())

	orig, _, _ := table.Lookup("claude-opus-4-6")
	assert.Equal(t, 5.0, orig.Input)

	keys := merged.Keys()
	assert.Equal(t, "claude-opus-4-6", keys[0])
}
