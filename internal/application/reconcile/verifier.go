package reconcile

import (
	"context"
	"sync"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/logistics/backend/internal/domain/reconcile"
	"github.com/logistics/backend/internal/domain/shipment"
)

// defaultMaxParallelChunks bounds the verification fan-out
const defaultMaxParallelChunks = 4

// Verifier builds the existence index for a load cycle: it asks the shipment
// store which candidate orders already have a shipment, splitting the
// candidates into store-sized chunks issued concurrently and joined before
// returning.
type Verifier struct {
	store       shipment.Store
	chunkSize   int
	maxParallel int
	logger      *zap.Logger
}

// NewVerifier creates a verifier bound to the given store
func NewVerifier(store shipment.Store, logger *zap.Logger) *Verifier {
	return &Verifier{
		store:       store,
		chunkSize:   shipment.VerifyBatchLimit,
		maxParallel: defaultMaxParallelChunks,
		logger:      logger,
	}
}

// VerifyExisting returns the keys of the given orders that already have a
// shipment. Orders missing both a timestamp and a destination contact are
// skipped (they cannot be matched against stored shipments). A chunk whose
// store call fails contributes no keys: its orders are conservatively
// treated as non-existing, never as existing. Failures are not retried.
func (v *Verifier) VerifyExisting(ctx context.Context, orders []reconcile.NormalizedOrder) []reconcile.OrderKey {
	lookups := make([]shipment.OrderLookup, 0, len(orders))
	for _, order := range orders {
		if !order.Verifiable() {
			continue
		}
		lookups = append(lookups, shipment.LookupFor(order))
	}
	if len(lookups) == 0 {
		return nil
	}

	var (
		mu       sync.Mutex
		existing []reconcile.OrderKey
	)

	var g errgroup.Group
	g.SetLimit(v.maxParallel)

	for start := 0; start < len(lookups); start += v.chunkSize {
		end := min(start+v.chunkSize, len(lookups))
		chunk := lookups[start:end]

		g.Go(func() error {
			results, err := v.store.VerifyExisting(ctx, chunk)
			if err != nil {
				v.logger.Warn("Existence verification chunk failed",
					zap.Int("chunk_size", len(chunk)),
					zap.Error(err),
				)
				return nil
			}

			mu.Lock()
			defer mu.Unlock()
			for key, exists := range results {
				if exists {
					existing = append(existing, key)
				}
			}
			return nil
		})
	}

	// Errors are swallowed per chunk; Wait is only the join barrier
	_ = g.Wait()

	return existing
}
