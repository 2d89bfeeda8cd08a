package reconcile

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/logistics/backend/internal/domain/reconcile"
	"github.com/logistics/backend/internal/domain/shipment"
)

// CycleReport summarizes the background pass of one load cycle
type CycleReport struct {
	// Scanned is the number of orders the pass iterated over
	Scanned int
	// Converted is the number of orders converted into a shipment
	Converted int
	// Failed is the number of conversion calls that errored
	Failed int
	// Skipped is the number of orders left alone (existing, already
	// attempted, or not matching fresh evaluation)
	Skipped int
	// CompletedAt is when the pass finished
	CompletedAt time.Time
}

// AutoProcessor is the background conversion pass: after a load cycle it
// converts every matching, not-yet-existing, not-yet-attempted order into a
// shipment, sequentially. It never triggers a reload on completion; the next
// load is always operator- or timer-triggered.
type AutoProcessor struct {
	store  shipment.Store
	logger *zap.Logger
}

// NewAutoProcessor creates an auto-processor bound to the given store
func NewAutoProcessor(store shipment.Store, logger *zap.Logger) *AutoProcessor {
	return &AutoProcessor{store: store, logger: logger}
}

// Run executes one conversion pass over the given orders. Creator calls are
// issued one at a time so processed-set mutations stay deterministic and
// errors attribute cleanly to a single order. An individual failure is
// logged and skipped; the pass always completes over all input orders.
func (p *AutoProcessor) Run(
	ctx context.Context,
	orders []reconcile.NormalizedOrder,
	configs reconcile.ConfigIndex,
	session *reconcile.Session,
) CycleReport {
	report := CycleReport{Scanned: len(orders)}

	for _, order := range orders {
		key := order.Key()

		if session.Exists(key) {
			report.Skipped++
			continue
		}
		if session.IsProcessed(key) {
			report.Skipped++
			continue
		}
		cfg, ok := configs.ForOrder(order)
		if !ok || !reconcile.MatchesFresh(order, cfg) {
			report.Skipped++
			continue
		}
		// Claims the key before the network call; a duplicate scan of the
		// same key in this pass lands in the guard above
		if !session.MarkProcessed(key) {
			report.Skipped++
			continue
		}

		record, err := p.store.Create(ctx, order.Source, order.MerchantID, order.Raw)
		if err != nil {
			report.Failed++
			p.logger.Warn("Automatic conversion failed",
				zap.String("order_key", key.String()),
				zap.String("source", order.Source.String()),
				zap.String("merchant_id", order.MerchantID),
				zap.Error(err),
			)
			continue
		}

		session.AddExisting(key)
		report.Converted++
		p.logger.Info("Order converted to shipment",
			zap.String("order_key", key.String()),
			zap.String("shipment_id", record.ID),
			zap.String("source", order.Source.String()),
		)
	}

	report.CompletedAt = time.Now()
	return report
}
