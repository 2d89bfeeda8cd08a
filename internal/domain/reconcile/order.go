package reconcile

import (
	"encoding/json"
	"sort"
	"time"

	"github.com/shopspring/decimal"
)

// ---------------------------------------------------------------------------
// OrderKey
// ---------------------------------------------------------------------------

// OrderKey is the single cross-source identity of an order, scoped by
// merchant and source-specific identifier. It drives deduplication, the
// session seen set and existence lookups: two orders with an equal key are
// the same order regardless of content drift between polls.
type OrderKey string

// String returns the string representation of OrderKey
func (k OrderKey) String() string {
	return string(k)
}

// BuildOrderKey derives the deduplication key from a merchant ID and a
// source-specific order identifier. A missing identifier is coerced to the
// empty string rather than rejected.
func BuildOrderKey(merchantID, orderID string) OrderKey {
	return OrderKey(merchantID + "-" + orderID)
}

// ---------------------------------------------------------------------------
// NormalizedOrder
// ---------------------------------------------------------------------------

// NormalizedOrder is the common shape every source adapter reduces its raw
// orders to. It is rebuilt on every load cycle, never persisted by the
// pipeline, and treated as immutable once built.
type NormalizedOrder struct {
	// Source identifies which adapter produced the order
	Source SourceKind
	// MerchantID is the owning merchant account
	MerchantID string
	// MerchantName is the merchant's display name
	MerchantName string
	// OrderID is the source-specific order identifier ("" if absent)
	OrderID string
	// CreatedAt is the parsed creation timestamp (nil if missing/unparseable)
	CreatedAt *time.Time
	// RawCreatedAt is the creation timestamp exactly as the source sent it;
	// the shipment store expects it untouched
	RawCreatedAt string
	// ReceiverName is the destination contact name
	ReceiverName string
	// ShippingMethod is the declared shipping method ("" if absent)
	ShippingMethod string
	// Total is the order total amount
	Total decimal.Decimal
	// Raw is the opaque source payload, forwarded verbatim on conversion
	Raw json.RawMessage
}

// Key returns the deduplication key for the order
func (o NormalizedOrder) Key() OrderKey {
	return BuildOrderKey(o.MerchantID, o.OrderID)
}

// Verifiable returns true if the order carries enough identity to be matched
// against stored shipments. Orders missing both the timestamp and the
// destination contact are skipped by the existence verifier.
func (o NormalizedOrder) Verifiable() bool {
	return o.RawCreatedAt != "" || o.ReceiverName != ""
}

// SortOrders orders the combined list most recent first. Orders without a
// known creation timestamp sort last; the sort is stable so equally-missing
// timestamps keep their relative source order.
func SortOrders(orders []NormalizedOrder) {
	sort.SliceStable(orders, func(i, j int) bool {
		a, b := orders[i].CreatedAt, orders[j].CreatedAt
		switch {
		case a == nil:
			return false
		case b == nil:
			return true
		default:
			return a.After(*b)
		}
	})
}
