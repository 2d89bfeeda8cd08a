// Package reconcile orchestrates the order-to-shipment reconciliation
// pipeline: source fetch and normalization, match classification, batched
// existence verification, automatic background conversion and the
// operator-triggered reprocessing pass.
package reconcile

import (
	"context"
	"sync"
	"time"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/logistics/backend/internal/domain/reconcile"
	"github.com/logistics/backend/internal/domain/shipment"
)

// deltaBuffer is the capacity of the cycle delta channel; if no consumer
// keeps up, older deltas are dropped rather than blocking the cycle task
const deltaBuffer = 16

// ---------------------------------------------------------------------------
// View Types
// ---------------------------------------------------------------------------

// OrderView is the read model of one pending order as the interface layer
// renders it: the normalized fields plus the current classification.
type OrderView struct {
	Key            reconcile.OrderKey
	Source         reconcile.SourceKind
	MerchantID     string
	MerchantName   string
	OrderID        string
	CreatedAt      *time.Time
	ReceiverName   string
	ShippingMethod string
	Total          decimal.Decimal
	// Matching is the order's current classification
	Matching bool
	// Converted is true once the order is known to have a shipment
	Converted bool
}

// CycleDelta is published when a load cycle's background task (existence
// verification plus automatic conversion) completes, so the owner of the
// pipeline can react without the task mutating any view state itself.
type CycleDelta struct {
	// Cycle is the session's load cycle counter
	Cycle int
	// Orders is the number of orders in the load
	Orders int
	// Existing is the size of the existence index after the pass
	Existing int
	// Converted is the number of orders auto-converted this cycle
	Converted int
	// Failed is the number of failed conversion attempts this cycle
	Failed int
	// CompletedAt is when the background task finished
	CompletedAt time.Time
}

// ---------------------------------------------------------------------------
// Pipeline
// ---------------------------------------------------------------------------

// Pipeline owns one reconciliation session and runs its load cycles. All
// mutable state lives on the session and behind the pipeline's lock; the
// background task communicates completion exclusively through the delta
// channel.
type Pipeline struct {
	adapters  []reconcile.SourceAdapter
	store     shipment.Store
	session   *reconcile.Session
	verifier  *Verifier
	auto      *AutoProcessor
	reprocess *Reprocessor
	logger    *zap.Logger
	deltas    chan CycleDelta

	// loadMu serializes the synchronous phase of Load so a scheduler tick
	// and an operator request cannot interleave cycle starts. It is never
	// held by the background cycle task: a task from an earlier cycle may
	// still be adding to the session's existence and processed sets after a
	// newer BeginCycle, which is safe because both sets only ever grow
	// facts (membership is a union and MarkProcessed claims each key once).
	loadMu sync.Mutex

	mu      sync.RWMutex
	orders  []reconcile.NormalizedOrder
	configs reconcile.ConfigIndex
	// fresh holds the first-observation classification computed at load
	// time, before the load's keys were marked seen
	fresh     map[reconcile.OrderKey]bool
	lastDelta *CycleDelta
}

// NewPipeline creates a pipeline over the given source adapters and store
func NewPipeline(
	adapters []reconcile.SourceAdapter,
	store shipment.Store,
	session *reconcile.Session,
	logger *zap.Logger,
) *Pipeline {
	return &Pipeline{
		adapters:  adapters,
		store:     store,
		session:   session,
		verifier:  NewVerifier(store, logger),
		auto:      NewAutoProcessor(store, logger),
		reprocess: NewReprocessor(store, logger),
		logger:    logger,
		deltas:    make(chan CycleDelta, deltaBuffer),
		configs:   make(reconcile.ConfigIndex),
		fresh:     make(map[reconcile.OrderKey]bool),
	}
}

// Session returns the session owned by the pipeline
func (p *Pipeline) Session() *reconcile.Session {
	return p.session
}

// Deltas returns the channel on which completed cycle deltas are published
func (p *Pipeline) Deltas() <-chan CycleDelta {
	return p.deltas
}

// Load runs one load cycle: it fetches all sources concurrently, merges and
// sorts the normalized orders, classifies them against the session, and
// kicks off the background verification + auto-conversion task. The call
// returns as soon as classification is done; it never waits for the
// background task.
//
// A failing source degrades to an empty batch; partial availability is
// acceptable and Load only errors on invariant violations, not on source
// failures.
func (p *Pipeline) Load(ctx context.Context) ([]OrderView, error) {
	p.loadMu.Lock()
	defer p.loadMu.Unlock()

	batches := make([]*reconcile.SourceBatch, len(p.adapters))

	var g errgroup.Group
	for i, adapter := range p.adapters {
		g.Go(func() error {
			batch, err := adapter.Fetch(ctx)
			if err != nil {
				p.logger.Warn("Order source unavailable, continuing without it",
					zap.String("source", adapter.Source().String()),
					zap.Error(err),
				)
				return nil
			}
			batches[i] = batch
			return nil
		})
	}
	// Fetch errors are degraded above, never propagated
	_ = g.Wait()

	var orders []reconcile.NormalizedOrder
	configs := make(reconcile.ConfigIndex)
	for _, batch := range batches {
		if batch == nil {
			continue
		}
		orders = append(orders, batch.Orders...)
		for _, cfg := range batch.Configs {
			configs.Add(cfg)
		}
	}
	reconcile.SortOrders(orders)

	p.session.BeginCycle()
	cycle := p.session.Cycles()

	// First-observation classification must use the seen set as it was
	// before this load, so it is computed before marking anything seen
	fresh := make(map[reconcile.OrderKey]bool, len(orders))
	keys := make([]reconcile.OrderKey, 0, len(orders))
	for _, order := range orders {
		key := order.Key()
		keys = append(keys, key)
		if p.session.HasSeen(key) {
			continue
		}
		cfg, _ := configs.ForOrder(order)
		fresh[key] = reconcile.MatchesFresh(order, cfg)
	}

	p.mu.Lock()
	p.orders = orders
	p.configs = configs
	p.fresh = fresh
	p.mu.Unlock()

	p.session.MarkSeen(keys...)

	p.logger.Info("Load cycle started",
		zap.Int("cycle", cycle),
		zap.Int("orders", len(orders)),
		zap.Int("merchant_configs", len(configs)),
	)

	// Detached from the caller's lifetime: the load cycle's background work
	// must survive the triggering request
	go p.runCycleTask(context.WithoutCancel(ctx), cycle, orders, configs)

	return p.viewsLocked(orders, fresh), nil
}

// runCycleTask is the background half of a load cycle: build the existence
// index, then run the automatic conversion pass, then publish the delta.
func (p *Pipeline) runCycleTask(ctx context.Context, cycle int, orders []reconcile.NormalizedOrder, configs reconcile.ConfigIndex) {
	existing := p.verifier.VerifyExisting(ctx, orders)
	p.session.AddExisting(existing...)

	report := p.auto.Run(ctx, orders, configs, p.session)

	delta := CycleDelta{
		Cycle:       cycle,
		Orders:      len(orders),
		Existing:    p.session.ExistingCount(),
		Converted:   report.Converted,
		Failed:      report.Failed,
		CompletedAt: report.CompletedAt,
	}

	p.logger.Info("Load cycle completed",
		zap.Int("cycle", delta.Cycle),
		zap.Int("orders", delta.Orders),
		zap.Int("existing", delta.Existing),
		zap.Int("converted", delta.Converted),
		zap.Int("failed", delta.Failed),
	)

	p.mu.Lock()
	p.lastDelta = &delta
	p.mu.Unlock()

	select {
	case p.deltas <- delta:
	default:
		p.logger.Debug("Cycle delta dropped, no consumer keeping up")
	}
}

// LastDelta returns the delta of the most recently completed cycle task,
// or false when no background task has finished yet.
func (p *Pipeline) LastDelta() (CycleDelta, bool) {
	p.mu.RLock()
	defer p.mu.RUnlock()
	if p.lastDelta == nil {
		return CycleDelta{}, false
	}
	return *p.lastDelta, true
}

// Orders returns the order views of the current load, classified against
// the session's current state
func (p *Pipeline) Orders() []OrderView {
	p.mu.RLock()
	orders, fresh := p.orders, p.fresh
	p.mu.RUnlock()
	return p.viewsLocked(orders, fresh)
}

// viewsLocked builds views from an orders snapshot; classification follows
// the match precedence: converted orders always match, previously seen
// orders keep their first-observation verdict.
func (p *Pipeline) viewsLocked(orders []reconcile.NormalizedOrder, fresh map[reconcile.OrderKey]bool) []OrderView {
	views := make([]OrderView, 0, len(orders))
	for _, order := range orders {
		key := order.Key()
		converted := p.session.Exists(key)
		views = append(views, OrderView{
			Key:            key,
			Source:         order.Source,
			MerchantID:     order.MerchantID,
			MerchantName:   order.MerchantName,
			OrderID:        order.OrderID,
			CreatedAt:      order.CreatedAt,
			ReceiverName:   order.ReceiverName,
			ShippingMethod: order.ShippingMethod,
			Total:          order.Total,
			Matching:       converted || fresh[key],
			Converted:      converted,
		})
	}
	return views
}

// Reprocess runs the operator-triggered pass over the selected keys of the
// current load, then triggers a full reload so the next cycle reflects the
// grown existence index and the recomputed sticky state. Keys not present
// in the current load are ignored.
func (p *Pipeline) Reprocess(ctx context.Context, keys []reconcile.OrderKey) (reconcile.ReprocessResult, error) {
	p.mu.RLock()
	byKey := make(map[reconcile.OrderKey]reconcile.NormalizedOrder, len(p.orders))
	for _, order := range p.orders {
		if _, ok := byKey[order.Key()]; !ok {
			byKey[order.Key()] = order
		}
	}
	configs := p.configs
	p.mu.RUnlock()

	selection := make([]reconcile.NormalizedOrder, 0, len(keys))
	for _, key := range keys {
		order, ok := byKey[key]
		if !ok {
			p.logger.Warn("Reprocess selection key not in current load",
				zap.String("order_key", key.String()),
			)
			continue
		}
		selection = append(selection, order)
	}

	result := p.reprocess.Run(ctx, selection, configs, p.session)

	p.logger.Info("Reprocess pass completed",
		zap.Int("selected", len(selection)),
		zap.Int("processed", result.Processed),
		zap.Int("already_processed", result.AlreadyProcessed),
		zap.Int("not_matching", result.NotMatching),
		zap.Int("errored", result.Errored),
	)

	if _, err := p.Load(ctx); err != nil {
		p.logger.Error("Reload after reprocess failed", zap.Error(err))
	}

	return result, nil
}

// RunLoadCycle triggers a load and discards the views; it exists for the
// reload scheduler, which only cares that a cycle happened
func (p *Pipeline) RunLoadCycle(ctx context.Context) error {
	_, err := p.Load(ctx)
	return err
}
