package reconcile

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/shopspring/decimal"

	"github.com/logistics/backend/internal/domain/reconcile"
	"github.com/logistics/backend/internal/domain/shipment"
)

// fakeStore is an in-memory shipment.Store for application-layer tests
type fakeStore struct {
	mu sync.Mutex

	// existing maps order keys to shipment presence for VerifyExisting
	existing map[reconcile.OrderKey]bool
	// verifyErr, when set, fails every VerifyExisting call
	verifyErr error
	// verifyGate, when set, blocks VerifyExisting until closed
	verifyGate chan struct{}
	// verifyBatches records every VerifyExisting batch received
	verifyBatches [][]shipment.OrderLookup

	// createErrFor fails Create for specific order payload keys
	createErrFor map[reconcile.OrderKey]error
	// created records every successful Create, in call order
	created []reconcile.OrderKey
	// createCalls counts all Create calls, failed ones included
	createCalls int
}

var _ shipment.Store = (*fakeStore)(nil)

func newFakeStore() *fakeStore {
	return &fakeStore{
		existing:     make(map[reconcile.OrderKey]bool),
		createErrFor: make(map[reconcile.OrderKey]error),
	}
}

func (s *fakeStore) VerifyExisting(_ context.Context, batch []shipment.OrderLookup) (map[reconcile.OrderKey]bool, error) {
	// Gate before locking so several gated calls can block side by side
	if s.verifyGate != nil {
		<-s.verifyGate
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	s.verifyBatches = append(s.verifyBatches, batch)
	if s.verifyErr != nil {
		return nil, s.verifyErr
	}
	results := make(map[reconcile.OrderKey]bool, len(batch))
	for _, lookup := range batch {
		results[lookup.Key] = s.existing[lookup.Key]
	}
	return results, nil
}

func (s *fakeStore) Create(_ context.Context, source reconcile.SourceKind, merchantID string, rawOrder json.RawMessage) (*shipment.Record, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.createCalls++

	var payload struct {
		OrderID string `json:"order_id"`
	}
	if err := json.Unmarshal(rawOrder, &payload); err != nil {
		return nil, fmt.Errorf("%w: %v", shipment.ErrStoreInvalidResponse, err)
	}
	key := reconcile.BuildOrderKey(merchantID, payload.OrderID)

	if err, ok := s.createErrFor[key]; ok {
		return nil, err
	}

	s.existing[key] = true
	s.created = append(s.created, key)
	return &shipment.Record{
		ID:          fmt.Sprintf("shp-%d", len(s.created)),
		MerchantID:  merchantID,
		OrderID:     payload.OrderID,
		SourceLabel: source.Label(),
		Status:      "pending",
		CreatedAt:   time.Now(),
	}, nil
}

func (s *fakeStore) FindByOrder(_ context.Context, lookup shipment.OrderLookup) (*shipment.Record, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.existing[lookup.Key] {
		return nil, shipment.ErrNotFound
	}
	return &shipment.Record{ID: "shp-found"}, nil
}

func (s *fakeStore) verifyCallCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.verifyBatches)
}

func (s *fakeStore) createdKeys() []reconcile.OrderKey {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]reconcile.OrderKey(nil), s.created...)
}

// fakeAdapter serves a canned batch, or an error, for pipeline tests
type fakeAdapter struct {
	source reconcile.SourceKind
	batch  *reconcile.SourceBatch
	err    error

	mu      sync.Mutex
	fetches int
}

var _ reconcile.SourceAdapter = (*fakeAdapter)(nil)

func (a *fakeAdapter) Source() reconcile.SourceKind {
	return a.source
}

func (a *fakeAdapter) Fetch(context.Context) (*reconcile.SourceBatch, error) {
	a.mu.Lock()
	a.fetches++
	a.mu.Unlock()
	if a.err != nil {
		return nil, a.err
	}
	return a.batch, nil
}

func (a *fakeAdapter) fetchCount() int {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.fetches
}

// testOrder builds a verifiable normalized order whose raw payload round-trips
// the key through the fake store's Create
func testOrder(source reconcile.SourceKind, merchantID, orderID, method string) reconcile.NormalizedOrder {
	ts := time.Date(2024, 5, 2, 10, 0, 0, 0, time.UTC)
	return reconcile.NormalizedOrder{
		Source:         source,
		MerchantID:     merchantID,
		MerchantName:   "Merchant " + merchantID,
		OrderID:        orderID,
		CreatedAt:      &ts,
		RawCreatedAt:   "2024-05-02T10:00:00Z",
		ReceiverName:   "Ana Gomez",
		ShippingMethod: method,
		Total:          decimal.NewFromInt(100),
		Raw:            json.RawMessage(fmt.Sprintf(`{"order_id": %q}`, orderID)),
	}
}
