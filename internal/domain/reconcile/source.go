package reconcile

import (
	"context"
)

// ---------------------------------------------------------------------------
// SourceKind represents the origin of a pending sales order
// ---------------------------------------------------------------------------

// SourceKind represents the e-commerce source an order was polled from
type SourceKind string

const (
	// SourceShopify represents the Shopify order source
	SourceShopify SourceKind = "SHOPIFY"
	// SourceVTEX represents the VTEX order source
	SourceVTEX SourceKind = "VTEX"
	// SourceTiendanube represents the Tiendanube order source
	SourceTiendanube SourceKind = "TIENDANUBE"
)

// IsValid returns true if the source kind is valid
func (k SourceKind) IsValid() bool {
	switch k {
	case SourceShopify, SourceVTEX, SourceTiendanube:
		return true
	default:
		return false
	}
}

// String returns the string representation of SourceKind
func (k SourceKind) String() string {
	return string(k)
}

// Label returns the canonical lowercase label used on the wire when talking
// to the shipment store collaborator
func (k SourceKind) Label() string {
	switch k {
	case SourceShopify:
		return "shopify"
	case SourceVTEX:
		return "vtex"
	case SourceTiendanube:
		return "tiendanube"
	default:
		return ""
	}
}

// AllSourceKinds returns all source kinds in their canonical order
func AllSourceKinds() []SourceKind {
	return []SourceKind{SourceShopify, SourceVTEX, SourceTiendanube}
}

// ---------------------------------------------------------------------------
// SourceAdapter Port Interface
// ---------------------------------------------------------------------------

// SourceBatch is the result of one fetch against a single order source:
// the normalized pending orders of every merchant on that source, plus the
// per-merchant shipping configuration carried on the order envelopes.
type SourceBatch struct {
	// Source identifies the origin of the batch
	Source SourceKind
	// Orders contains the normalized pending orders
	Orders []NormalizedOrder
	// Configs contains the merchant shipping configurations
	Configs []MerchantShippingConfig
}

// SourceAdapter defines the port interface for a single order source.
// Concrete implementations (Shopify, VTEX, Tiendanube) live in the
// infrastructure layer; each owns its source-specific field extraction.
type SourceAdapter interface {
	// Source returns the source kind this adapter handles
	Source() SourceKind

	// Fetch retrieves all merchants' pending orders from the source and
	// normalizes them. One network read, no side effects.
	Fetch(ctx context.Context) (*SourceBatch, error)
}
