// Package sources contains the concrete order source adapters. Each adapter
// fetches the pending-order envelopes for its source from the back-office
// feed and normalizes the source-specific raw orders into the common
// reconcile.NormalizedOrder shape, with an explicit, ordered list of
// fallback field extractions per source.
package sources

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/shopspring/decimal"

	"github.com/logistics/backend/internal/domain/reconcile"
)

// maxResponseSize is the maximum allowed feed response size (10MB)
const maxResponseSize = 10 * 1024 * 1024

var (
	// ErrConfigMissingBaseURL indicates a source config without a feed URL
	ErrConfigMissingBaseURL = errors.New("sources: missing base URL")
)

// Config holds the connection settings for one order source feed
type Config struct {
	// BaseURL is the feed endpoint base URL
	BaseURL string
	// AccessToken is the bearer token for the feed (optional)
	AccessToken string
	// TimeoutSeconds is the HTTP client timeout
	TimeoutSeconds int
}

// Validate validates the config and applies defaults
func (c *Config) Validate() error {
	if c.BaseURL == "" {
		return ErrConfigMissingBaseURL
	}
	if c.TimeoutSeconds <= 0 {
		c.TimeoutSeconds = 30
	}
	return nil
}

// orderEnvelope is one merchant's slice of the feed response: the merchant
// record fields the pipeline needs plus the raw source orders untouched.
type orderEnvelope struct {
	MerchantID     string            `json:"merchant_id"`
	MerchantName   string            `json:"merchant_name"`
	ShippingMethod string            `json:"shipping_method"`
	Orders         []json.RawMessage `json:"orders"`
}

// fetchEnvelopes performs the single network read of an adapter's Fetch
func fetchEnvelopes(ctx context.Context, client *http.Client, cfg *Config, path string) ([]orderEnvelope, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, cfg.BaseURL+path, nil)
	if err != nil {
		return nil, fmt.Errorf("sources: failed to create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	if cfg.AccessToken != "" {
		req.Header.Set("Authorization", "Bearer "+cfg.AccessToken)
	}

	resp, err := client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", reconcile.ErrSourceUnavailable, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseSize))
	if err != nil {
		return nil, fmt.Errorf("sources: failed to read response: %w", err)
	}

	if resp.StatusCode >= 400 {
		return nil, fmt.Errorf("%w: HTTP %d", reconcile.ErrSourceUnavailable, resp.StatusCode)
	}

	var envelopes []orderEnvelope
	if err := json.Unmarshal(body, &envelopes); err != nil {
		return nil, fmt.Errorf("%w: %v", reconcile.ErrSourceInvalidResponse, err)
	}

	return envelopes, nil
}

// configsFrom builds the merchant shipping configs carried on the envelopes
func configsFrom(source reconcile.SourceKind, envelopes []orderEnvelope) []reconcile.MerchantShippingConfig {
	configs := make([]reconcile.MerchantShippingConfig, 0, len(envelopes))
	for _, env := range envelopes {
		configs = append(configs, reconcile.MerchantShippingConfig{
			MerchantID: env.MerchantID,
			Source:     source,
			Method:     env.ShippingMethod,
		})
	}
	return configs
}

// parseDecimal parses a decimal amount, returning zero for invalid input
func parseDecimal(s string) decimal.Decimal {
	if s == "" {
		return decimal.Zero
	}
	d, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.Zero
	}
	return d
}

// parseTimestamp tries the given layouts in order, returning nil if none fit
func parseTimestamp(raw string, layouts ...string) *time.Time {
	if raw == "" {
		return nil
	}
	for _, layout := range layouts {
		if t, err := time.Parse(layout, raw); err == nil {
			return &t
		}
	}
	return nil
}
