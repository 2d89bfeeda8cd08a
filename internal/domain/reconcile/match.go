package reconcile

import (
	"strings"

	"golang.org/x/text/cases"
)

// ---------------------------------------------------------------------------
// MerchantShippingConfig
// ---------------------------------------------------------------------------

// MerchantShippingConfig is the carrier method configured for one merchant
// on one source. An empty Method means the merchant has no carrier method
// configured on that source and never matches.
type MerchantShippingConfig struct {
	// MerchantID is the merchant this config belongs to
	MerchantID string
	// Source is the order source the config applies to
	Source SourceKind
	// Method is the configured shipping method string ("" if unset)
	Method string
}

// IsSet returns true if the merchant has a carrier method configured
func (c MerchantShippingConfig) IsSet() bool {
	return strings.TrimSpace(c.Method) != ""
}

// ConfigIndex indexes merchant shipping configs by (source, merchant).
// Built once per load cycle from the source batches and read-only afterwards.
type ConfigIndex map[string]MerchantShippingConfig

// configIndexKey scopes a merchant config by source kind
func configIndexKey(source SourceKind, merchantID string) string {
	return string(source) + "/" + merchantID
}

// Add registers a merchant config in the index
func (ix ConfigIndex) Add(cfg MerchantShippingConfig) {
	ix[configIndexKey(cfg.Source, cfg.MerchantID)] = cfg
}

// Lookup returns the config for a merchant on a source
func (ix ConfigIndex) Lookup(source SourceKind, merchantID string) (MerchantShippingConfig, bool) {
	cfg, ok := ix[configIndexKey(source, merchantID)]
	return cfg, ok
}

// ForOrder returns the config owning a normalized order
func (ix ConfigIndex) ForOrder(order NormalizedOrder) (MerchantShippingConfig, bool) {
	return ix.Lookup(order.Source, order.MerchantID)
}

// ---------------------------------------------------------------------------
// Match Evaluation
// ---------------------------------------------------------------------------

// Matches decides whether an order is classified as matching the merchant's
// configured carrier method. Precedence, evaluated in order:
//
//  1. The order already has a shipment: always matching, permanently,
//     regardless of configuration drift.
//  2. The order was observed in an earlier load cycle: never matching.
//     A previously reviewed non-match must not flip silently when an
//     administrator edits the configured method string; only an explicit
//     reprocessing pass re-evaluates it.
//  3. First observation: fresh evaluation via MatchesFresh.
func Matches(order NormalizedOrder, cfg MerchantShippingConfig, session *Session) bool {
	key := order.Key()
	if session.Exists(key) {
		return true
	}
	if session.HasSeen(key) {
		return false
	}
	return MatchesFresh(order, cfg)
}

// MatchesFresh evaluates the match rule unconditionally, ignoring session
// history: the declared shipping method, case-folded, must start with the
// configured method, case-folded. An unset configured method never matches.
// Used for first observations and for operator-triggered reprocessing.
func MatchesFresh(order NormalizedOrder, cfg MerchantShippingConfig) bool {
	if !cfg.IsSet() {
		return false
	}
	fold := cases.Fold()
	declared := fold.String(order.ShippingMethod)
	configured := fold.String(cfg.Method)
	return strings.HasPrefix(declared, configured)
}
