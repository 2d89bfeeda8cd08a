package reconcile

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestBuildOrderKey(t *testing.T) {
	assert.Equal(t, OrderKey("m1-1001"), BuildOrderKey("m1", "1001"))

	// Missing identifier is coerced, never rejected
	assert.Equal(t, OrderKey("m1-"), BuildOrderKey("m1", ""))
}

func TestNormalizedOrder_Key_Idempotent(t *testing.T) {
	order := NormalizedOrder{
		Source:     SourceShopify,
		MerchantID: "m1",
		OrderID:    "1001",
	}

	first := order.Key()
	for i := 0; i < 10; i++ {
		assert.Equal(t, first, order.Key())
	}

	// Content drift between polls does not change identity
	drifted := order
	drifted.ShippingMethod = "Envio Express 24hs"
	drifted.ReceiverName = "Ana Gomez"
	assert.Equal(t, first, drifted.Key())
}

func TestNormalizedOrder_Verifiable(t *testing.T) {
	tests := []struct {
		name  string
		order NormalizedOrder
		want  bool
	}{
		{
			name:  "timestamp and receiver",
			order: NormalizedOrder{RawCreatedAt: "2024-05-01T10:00:00Z", ReceiverName: "Ana"},
			want:  true,
		},
		{
			name:  "timestamp only",
			order: NormalizedOrder{RawCreatedAt: "2024-05-01T10:00:00Z"},
			want:  true,
		},
		{
			name:  "receiver only",
			order: NormalizedOrder{ReceiverName: "Ana"},
			want:  true,
		},
		{
			name:  "neither",
			order: NormalizedOrder{},
			want:  false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.order.Verifiable())
		})
	}
}

func TestSortOrders(t *testing.T) {
	at := func(s string) *time.Time {
		ts, err := time.Parse(time.RFC3339, s)
		if err != nil {
			t.Fatalf("bad timestamp %q: %v", s, err)
		}
		return &ts
	}

	orders := []NormalizedOrder{
		{OrderID: "old", CreatedAt: at("2024-01-01T00:00:00Z")},
		{OrderID: "missing-a"},
		{OrderID: "new", CreatedAt: at("2024-06-01T00:00:00Z")},
		{OrderID: "missing-b"},
		{OrderID: "mid", CreatedAt: at("2024-03-01T00:00:00Z")},
	}

	SortOrders(orders)

	got := make([]string, len(orders))
	for i, o := range orders {
		got[i] = o.OrderID
	}

	// Most recent first, unknown timestamps last in their original relative order
	assert.Equal(t, []string{"new", "mid", "old", "missing-a", "missing-b"}, got)
}

func TestSortOrders_Empty(t *testing.T) {
	var orders []NormalizedOrder
	SortOrders(orders)
	assert.Empty(t, orders)
}
