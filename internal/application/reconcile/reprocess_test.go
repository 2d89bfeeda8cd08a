package reconcile

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"go.uber.org/zap"

	"github.com/logistics/backend/internal/domain/reconcile"
)

func TestReprocessor_Run_TallyCoversEverySelectedOrder(t *testing.T) {
	store := newFakeStore()
	store.createErrFor["m1-errored"] = errors.New("store rejected order")
	reprocessor := NewReprocessor(store, zap.NewNop())

	session := reconcile.NewSession()
	session.BeginCycle()
	session.AddExisting("m1-already")

	configs := make(reconcile.ConfigIndex)
	configs.Add(reconcile.MerchantShippingConfig{MerchantID: "m1", Source: reconcile.SourceShopify, Method: "Standard"})

	selection := []reconcile.NormalizedOrder{
		testOrder(reconcile.SourceShopify, "m1", "already", "Standard"),
		testOrder(reconcile.SourceShopify, "m1", "not-matching", "Pickup"),
		testOrder(reconcile.SourceShopify, "m1", "errored", "Standard"),
		testOrder(reconcile.SourceShopify, "m1", "processed", "Standard"),
	}

	result := reprocessor.Run(context.Background(), selection, configs, session)

	assert.Equal(t, 1, result.Processed)
	assert.Equal(t, 1, result.AlreadyProcessed)
	assert.Equal(t, 1, result.NotMatching)
	assert.Equal(t, 1, result.Errored)
	assert.Equal(t, len(selection), result.Total())

	assert.True(t, session.Exists("m1-processed"))
	assert.False(t, session.Exists("m1-errored"))
}

func TestReprocessor_Run_ReevaluatesStickyNonMatches(t *testing.T) {
	store := newFakeStore()
	reprocessor := NewReprocessor(store, zap.NewNop())

	session := reconcile.NewSession()
	session.BeginCycle()

	order := testOrder(reconcile.SourceShopify, "m1", "1001", "Standard Express")

	// Observed earlier under a config that did not match; the sticky rule
	// keeps it non-matching on subsequent loads
	session.MarkSeen(order.Key())
	assert.False(t, reconcile.Matches(order, reconcile.MerchantShippingConfig{
		MerchantID: "m1", Source: reconcile.SourceShopify, Method: "Pickup",
	}, session))

	// Administrator fixes the configured method; only an explicit reprocess
	// picks the change up
	configs := make(reconcile.ConfigIndex)
	configs.Add(reconcile.MerchantShippingConfig{MerchantID: "m1", Source: reconcile.SourceShopify, Method: "Standard"})

	result := reprocessor.Run(context.Background(), []reconcile.NormalizedOrder{order}, configs, session)

	assert.Equal(t, 1, result.Processed)
	assert.Equal(t, []reconcile.OrderKey{"m1-1001"}, store.createdKeys())
	assert.True(t, session.Exists("m1-1001"))
}

func TestReprocessor_Run_UnconfiguredMerchantNeverMatches(t *testing.T) {
	store := newFakeStore()
	reprocessor := NewReprocessor(store, zap.NewNop())

	session := reconcile.NewSession()
	session.BeginCycle()

	configs := make(reconcile.ConfigIndex)
	configs.Add(reconcile.MerchantShippingConfig{MerchantID: "m1", Source: reconcile.SourceShopify, Method: "   "})

	selection := []reconcile.NormalizedOrder{
		testOrder(reconcile.SourceShopify, "m1", "blank-config", "Standard"),
		testOrder(reconcile.SourceVTEX, "m2", "no-config", "Standard"),
	}

	result := reprocessor.Run(context.Background(), selection, configs, session)

	assert.Equal(t, 2, result.NotMatching)
	assert.Equal(t, 0, store.createCalls)
}

func TestReprocessor_Run_EmptySelection(t *testing.T) {
	store := newFakeStore()
	reprocessor := NewReprocessor(store, zap.NewNop())

	session := reconcile.NewSession()
	session.BeginCycle()

	result := reprocessor.Run(context.Background(), nil, make(reconcile.ConfigIndex), session)
	assert.Equal(t, 0, result.Total())
	assert.Equal(t, 0, store.createCalls)
}
