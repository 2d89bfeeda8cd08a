package shipment

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/shopspring/decimal"

	"github.com/logistics/backend/internal/domain/reconcile"
)

var (
	// ErrStoreUnavailable indicates the shipment store could not be reached
	ErrStoreUnavailable = errors.New("shipment: store unavailable")
	// ErrStoreRequestFailed indicates the store rejected a request
	ErrStoreRequestFailed = errors.New("shipment: store request failed")
	// ErrStoreInvalidResponse indicates an undecodable store response
	ErrStoreInvalidResponse = errors.New("shipment: invalid store response")
	// ErrNotFound indicates no shipment exists for the given order identity
	ErrNotFound = errors.New("shipment: not found")
	// ErrBatchTooLarge indicates a verification batch above the store limit
	ErrBatchTooLarge = errors.New("shipment: verification batch too large")
)

// VerifyBatchLimit is the maximum number of lookup entries the store accepts
// in a single verification call. The pipeline chunks candidate lists so it
// never sends more.
const VerifyBatchLimit = 100

// ---------------------------------------------------------------------------
// Value Objects
// ---------------------------------------------------------------------------

// OrderLookup is the identity of an order as the shipment store knows it.
// RawCreatedAt is the source-native timestamp, forwarded untouched. Key is
// included so the store can key its boolean response without re-deriving it.
type OrderLookup struct {
	// Key is the order's deduplication key
	Key reconcile.OrderKey
	// MerchantName is the owning merchant's display name
	MerchantName string
	// RawCreatedAt is the creation timestamp exactly as the source sent it
	RawCreatedAt string
	// ReceiverName is the destination contact name
	ReceiverName string
	// SourceLabel is the canonical source label (shopify, vtex, tiendanube)
	SourceLabel string
}

// LookupFor builds the store lookup identity for a normalized order
func LookupFor(order reconcile.NormalizedOrder) OrderLookup {
	return OrderLookup{
		Key:          order.Key(),
		MerchantName: order.MerchantName,
		RawCreatedAt: order.RawCreatedAt,
		ReceiverName: order.ReceiverName,
		SourceLabel:  order.Source.Label(),
	}
}

// Record is a shipment record as returned by the store
type Record struct {
	// ID is the store-assigned shipment identifier
	ID string
	// MerchantID is the owning merchant
	MerchantID string
	// OrderID is the source order identifier the shipment was created from
	OrderID string
	// SourceLabel identifies the originating order source
	SourceLabel string
	// ReceiverName is the destination contact name
	ReceiverName string
	// Status is the store-side shipment status
	Status string
	// Total is the shipment's declared value
	Total decimal.Decimal
	// CreatedAt is when the shipment record was created
	CreatedAt time.Time
}

// Key returns the deduplication key of the order the shipment was created from
func (r Record) Key() reconcile.OrderKey {
	return reconcile.BuildOrderKey(r.MerchantID, r.OrderID)
}

// ---------------------------------------------------------------------------
// Store Port Interface
// ---------------------------------------------------------------------------

// Store defines the port interface for the persistent shipment store
// collaborator. The store's internals are out of scope; it is consumed only
// through this CRUD-like network contract. The concrete HTTP client lives in
// the infrastructure layer.
type Store interface {
	// VerifyExisting asks which of the given orders already have a shipment.
	// Accepts at most VerifyBatchLimit entries; the response maps order keys
	// to booleans.
	VerifyExisting(ctx context.Context, batch []OrderLookup) (map[reconcile.OrderKey]bool, error)

	// Create creates a shipment record from a raw source order. One variant
	// endpoint per source kind; the raw payload is forwarded verbatim.
	Create(ctx context.Context, source reconcile.SourceKind, merchantID string, rawOrder json.RawMessage) (*Record, error)

	// FindByOrder returns the shipment created for an order identity, or
	// ErrNotFound. Used by the viewing flow, not by the conversion pipeline.
	FindByOrder(ctx context.Context, lookup OrderLookup) (*Record, error)
}
