package reconcile

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestMatchesFresh(t *testing.T) {
	tests := []struct {
		name       string
		declared   string
		configured string
		want       bool
	}{
		{
			name:       "exact match",
			declared:   "envio express",
			configured: "envio express",
			want:       true,
		},
		{
			name:       "prefix match",
			declared:   "Envio Express 24hs",
			configured: "envio express",
			want:       true,
		},
		{
			name:       "case folded prefix",
			declared:   "STANDARD EXPRESS",
			configured: "Standard",
			want:       true,
		},
		{
			name:       "different method",
			declared:   "retiro en sucursal",
			configured: "envio express",
			want:       false,
		},
		{
			name:       "configured is longer than declared",
			declared:   "envio",
			configured: "envio express",
			want:       false,
		},
		{
			name:       "empty configured never matches",
			declared:   "envio express",
			configured: "",
			want:       false,
		},
		{
			name:       "blank configured never matches",
			declared:   "envio express",
			configured: "   ",
			want:       false,
		},
		{
			name:       "empty declared with configured method",
			declared:   "",
			configured: "envio express",
			want:       false,
		},
		{
			name:       "both empty",
			declared:   "",
			configured: "",
			want:       false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			order := NormalizedOrder{ShippingMethod: tt.declared}
			cfg := MerchantShippingConfig{MerchantID: "m1", Source: SourceShopify, Method: tt.configured}
			assert.Equal(t, tt.want, MatchesFresh(order, cfg))
		})
	}
}

func TestMatches_Precedence(t *testing.T) {
	order := NormalizedOrder{
		Source:         SourceShopify,
		MerchantID:     "m1",
		OrderID:        "1001",
		ShippingMethod: "Envio Express 24hs",
	}
	matching := MerchantShippingConfig{MerchantID: "m1", Source: SourceShopify, Method: "envio express"}
	nonMatching := MerchantShippingConfig{MerchantID: "m1", Source: SourceShopify, Method: "retiro"}

	t.Run("existing shipment always matches", func(t *testing.T) {
		session := NewSession()
		session.MarkSeen(order.Key())
		session.AddExisting(order.Key())
		// Rule 1 beats both the sticky rule and configuration drift
		assert.True(t, Matches(order, nonMatching, session))
	})

	t.Run("seen order never matches without reprocessing", func(t *testing.T) {
		session := NewSession()
		session.MarkSeen(order.Key())
		assert.False(t, Matches(order, matching, session))
	})

	t.Run("first observation evaluates fresh", func(t *testing.T) {
		session := NewSession()
		assert.True(t, Matches(order, matching, session))
		assert.False(t, Matches(order, nonMatching, session))
	})
}

func TestMatches_StickyNonMatch(t *testing.T) {
	// An order first observed under a non-matching config must not flip to
	// matching when the merchant edits the method string afterwards.
	order := NormalizedOrder{
		Source:         SourceTiendanube,
		MerchantID:     "m2",
		OrderID:        "77",
		ShippingMethod: "Correo Argentino",
	}
	session := NewSession()

	before := MerchantShippingConfig{MerchantID: "m2", Source: SourceTiendanube, Method: "oca"}
	assert.False(t, Matches(order, before, session))
	session.MarkSeen(order.Key())

	after := before
	after.Method = "correo"
	assert.True(t, MatchesFresh(order, after), "fresh evaluation would now match")
	assert.False(t, Matches(order, after, session), "sticky rule must hold")
}

func TestConfigIndex(t *testing.T) {
	ix := make(ConfigIndex)
	ix.Add(MerchantShippingConfig{MerchantID: "m1", Source: SourceShopify, Method: "envio express"})
	ix.Add(MerchantShippingConfig{MerchantID: "m1", Source: SourceVTEX, Method: "normal"})

	cfg, ok := ix.Lookup(SourceShopify, "m1")
	assert.True(t, ok)
	assert.Equal(t, "envio express", cfg.Method)

	// Same merchant, different source, different config
	cfg, ok = ix.Lookup(SourceVTEX, "m1")
	assert.True(t, ok)
	assert.Equal(t, "normal", cfg.Method)

	_, ok = ix.Lookup(SourceTiendanube, "m1")
	assert.False(t, ok)

	order := NormalizedOrder{Source: SourceShopify, MerchantID: "m1"}
	cfg, ok = ix.ForOrder(order)
	assert.True(t, ok)
	assert.Equal(t, "envio express", cfg.Method)
}
