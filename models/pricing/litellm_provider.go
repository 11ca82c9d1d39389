package pricing

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"sort"
	"strings"
	"time"

	"github.com/tidwall/gjson"

	"github.com/penwyp/ClawDeck/models"
)

// LiteLLMPricingURL is the published LiteLLM model price list
const LiteLLMPricingURL = "https://raw.githubusercontent.com/BerriAI/litellm/main/model_prices_and_context_window.json"

// LiteLLMProvider fetches rates from LiteLLM's published price list
type LiteLLMProvider struct {
	url        string
	httpClient *http.Client
}

// NewLiteLLMProvider creates a provider; an empty url uses LiteLLMPricingURL
func NewLiteLLMProvider(url string) *LiteLLMProvider {
	if url == "" {
		url = LiteLLMPricingURL
	}
	return &LiteLLMProvider{
		url: url,
		httpClient: &http.Client{
			Timeout: 30 * time.Second,
		},
	}
}

// Name returns "litellm"
func (p *LiteLLMProvider) Name() string {
	return "litellm"
}

// Rows downloads and converts the price list to per-million rates
func (p *LiteLLMProvider) Rows(ctx context.Context) (map[string]models.ModelPricing, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, p.url, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	resp, err := p.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch pricing data: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("unexpected status code: %d", resp.StatusCode)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response body: %w", err)
	}

	return ParseLiteLLM(body)
}

// ParseLiteLLM converts LiteLLM's per-token price list into per-million rows.
// Entries without numeric input and output costs are skipped. When several
// provider-prefixed entries normalize to the same id, the unprefixed one wins.
func ParseLiteLLM(body []byte) (map[string]models.ModelPricing, error) {
	if !gjson.ValidBytes(body) {
		return nil, fmt.Errorf("failed to parse pricing data: invalid JSON")
	}

	root := gjson.ParseBytes(body)
	if !root.IsObject() {
		return nil, fmt.Errorf("failed to parse pricing data: expected object")
	}

	names := make([]string, 0)
	entries := make(map[string]gjson.Result)
	root.ForEach(func(key, value gjson.Result) bool {
		names = append(names, key.String())
		entries[key.String()] = value
		return true
	})
	// prefixed names sort after bare ones so bare entries claim the id first
	sort.Slice(names, func(i, j int) bool {
		pi, pj := strings.Contains(names[i], "/"), strings.Contains(names[j], "/")
		if pi != pj {
			return !pi
		}
		return names[i] < names[j]
	})

	rows := make(map[string]models.ModelPricing)
	for _, name := range names {
		v := entries[name]
		if mode := v.Get("mode"); mode.Exists() && mode.String() != "chat" {
			continue
		}
		in, out := v.Get("input_cost_per_token"), v.Get("output_cost_per_token")
		if in.Type != gjson.Number || out.Type != gjson.Number {
			continue
		}

		id := models.NormalizeModelID(name)
		if _, taken := rows[id]; taken || id == "" {
			continue
		}

		p := models.ModelPricing{
			Input:  in.Float() * models.TokensPerMillion,
			Output: out.Float() * models.TokensPerMillion,
		}
		if cw := v.Get("cache_creation_input_token_cost"); cw.Type == gjson.Number {
			p.CacheWrite = cw.Float() * models.TokensPerMillion
		} else {
			p.CacheWrite = p.Input * 1.25
		}
		if cr := v.Get("cache_read_input_token_cost"); cr.Type == gjson.Number {
			p.CacheRead = cr.Float() * models.TokensPerMillion
		} else {
			p.CacheRead = p.Input * 0.1
		}
		rows[id] = p
	}

	return rows, nil
}
