package reconcile

import (
	"context"

	"go.uber.org/zap"

	"github.com/logistics/backend/internal/domain/reconcile"
	"github.com/logistics/backend/internal/domain/shipment"
)

// Reprocessor runs the operator-triggered pass over an explicit selection of
// orders. Unlike the automatic pass it deliberately ignores the sticky
// classification: the operator is asking for a fresh evaluation of each
// selected order against the merchant's current configured method.
type Reprocessor struct {
	store  shipment.Store
	logger *zap.Logger
}

// NewReprocessor creates a reprocessor bound to the given store
func NewReprocessor(store shipment.Store, logger *zap.Logger) *Reprocessor {
	return &Reprocessor{store: store, logger: logger}
}

// Run processes the selection sequentially and tallies every order into
// exactly one of four outcomes, in this priority:
//
//  1. already has a shipment        -> AlreadyProcessed, no network call
//  2. fresh evaluation fails        -> NotMatching, no network call
//  3. conversion call succeeds      -> Processed
//  4. conversion call fails         -> Errored
func (r *Reprocessor) Run(
	ctx context.Context,
	selection []reconcile.NormalizedOrder,
	configs reconcile.ConfigIndex,
	session *reconcile.Session,
) reconcile.ReprocessResult {
	var result reconcile.ReprocessResult

	for _, order := range selection {
		key := order.Key()

		if session.Exists(key) {
			result.AlreadyProcessed++
			continue
		}

		cfg, ok := configs.ForOrder(order)
		if !ok || !reconcile.MatchesFresh(order, cfg) {
			result.NotMatching++
			continue
		}

		record, err := r.store.Create(ctx, order.Source, order.MerchantID, order.Raw)
		if err != nil {
			result.Errored++
			r.logger.Error("Reprocess conversion failed",
				zap.String("order_key", key.String()),
				zap.String("source", order.Source.String()),
				zap.String("merchant_id", order.MerchantID),
				zap.Error(err),
			)
			continue
		}

		session.MarkProcessed(key)
		session.AddExisting(key)
		result.Processed++
		r.logger.Info("Order reprocessed into shipment",
			zap.String("order_key", key.String()),
			zap.String("shipment_id", record.ID),
		)
	}

	return result
}
