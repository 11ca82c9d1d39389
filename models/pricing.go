package models

import (
	"errors"
	"sort"
	"strings"
)

// ErrPricingNotFound is returned when no table row matches a model id
var ErrPricingNotFound = errors.New("pricing not found")

// ModelPricing defines token pricing for one model
type ModelPricing struct {
	Input      float64 `json:"input"`      // Per million tokens
	Output     float64 `json:"output"`     // Per million tokens
	CacheWrite float64 `json:"cacheWrite"` // Per million tokens
	CacheRead  float64 `json:"cacheRead"`  // Per million tokens
}

// PriceTable maps normalized model ids to rates.
// Fuzzy lookup walks keys longest first so "claude-opus-4-6" wins over "claude-opus-4".
type PriceTable struct {
	rows map[string]ModelPricing
	keys []string
}

// NewPriceTable builds a table; keys are normalized on insert
func NewPriceTable(rows map[string]ModelPricing) *PriceTable {
	t := &PriceTable{rows: make(map[string]ModelPricing, len(rows))}
	for k, v := range rows {
		nk := NormalizeModelID(k)
		if nk == "" {
			continue
		}
		t.rows[nk] = v
	}
	t.index()
	return t
}

func (t *PriceTable) index() {
	t.keys = make([]string, 0, len(t.rows))
	for k := range t.rows {
		t.keys = append(t.keys, k)
	}
	sort.Slice(t.keys, func(i, j int) bool {
		if len(t.keys[i]) != len(t.keys[j]) {
			return len(t.keys[i]) > len(t.keys[j])
		}
		return t.keys[i] < t.keys[j]
	})
}

// Merge returns a new table where rows from override replace existing ones
func (t *PriceTable) Merge(override map[string]ModelPricing) *PriceTable {
	merged := make(map[string]ModelPricing, len(t.rows)+len(override))
	for k, v := range t.rows {
		merged[k] = v
	}
	for k, v := range override {
		if nk := NormalizeModelID(k); nk != "" {
			merged[nk] = v
		}
	}
	return NewPriceTable(merged)
}

// Len returns the number of rows
func (t *PriceTable) Len() int {
	return len(t.rows)
}

// Keys returns the normalized keys in fuzzy-match order
func (t *PriceTable) Keys() []string {
	return append([]string(nil), t.keys...)
}

// Lookup resolves model by exact normalized match, then by the first key the
// normalized id starts with, then by the first key it contains.
// The matched key is returned alongside the rates.
func (t *PriceTable) Lookup(model string) (ModelPricing, string, bool) {
	id := NormalizeModelID(model)
	if id == "" || t == nil {
		return ModelPricing{}, "", false
	}
	if p, ok := t.rows[id]; ok {
		return p, id, true
	}
	for _, k := range t.keys {
		if strings.HasPrefix(id, k) {
			return t.rows[k], k, true
		}
	}
	for _, k := range t.keys {
		if strings.Contains(id, k) {
			return t.rows[k], k, true
		}
	}
	return ModelPricing{}, "", false
}

// NormalizeModelID lower-cases the id and strips any provider prefix ("anthropic/", "openrouter/anthropic/")
func NormalizeModelID(model string) string {
	id := strings.ToLower(strings.TrimSpace(model))
	if i := strings.LastIndex(id, "/"); i >= 0 {
		id = id[i+1:]
	}
	return id
}
