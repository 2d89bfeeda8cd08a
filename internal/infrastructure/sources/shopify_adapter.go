package sources

import (
	"context"
	"encoding/json"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/logistics/backend/internal/domain/reconcile"
)

// shopifyOrdersPath is the feed path serving Shopify order envelopes
const shopifyOrdersPath = "/sources/shopify/orders"

// ShopifyAdapter implements the SourceAdapter interface for Shopify orders
type ShopifyAdapter struct {
	config     *Config
	httpClient *http.Client
}

// NewShopifyAdapter creates a new Shopify adapter with the given configuration
func NewShopifyAdapter(config *Config) (*ShopifyAdapter, error) {
	if err := config.Validate(); err != nil {
		return nil, err
	}
	return &ShopifyAdapter{
		config: config,
		httpClient: &http.Client{
			Timeout: time.Duration(config.TimeoutSeconds) * time.Second,
		},
	}, nil
}

// Source returns the source kind this adapter handles
func (a *ShopifyAdapter) Source() reconcile.SourceKind {
	return reconcile.SourceShopify
}

// Fetch retrieves and normalizes all merchants' pending Shopify orders
func (a *ShopifyAdapter) Fetch(ctx context.Context) (*reconcile.SourceBatch, error) {
	envelopes, err := fetchEnvelopes(ctx, a.httpClient, a.config, shopifyOrdersPath)
	if err != nil {
		return nil, err
	}

	batch := &reconcile.SourceBatch{
		Source:  reconcile.SourceShopify,
		Orders:  make([]reconcile.NormalizedOrder, 0),
		Configs: configsFrom(reconcile.SourceShopify, envelopes),
	}

	for _, env := range envelopes {
		for _, raw := range env.Orders {
			batch.Orders = append(batch.Orders, normalizeShopifyOrder(env, raw))
		}
	}

	return batch, nil
}

// shopifyOrder is the subset of a raw Shopify order the adapter extracts from
type shopifyOrder struct {
	ID              int64                 `json:"id"`
	OrderNumber     int64                 `json:"order_number"`
	CreatedAt       string                `json:"created_at"`
	TotalPrice      string                `json:"total_price"`
	ShippingLines   []shopifyShippingLine `json:"shipping_lines"`
	ShippingAddress *shopifyAddress       `json:"shipping_address"`
	Customer        *shopifyCustomer      `json:"customer"`
}

type shopifyShippingLine struct {
	Title  string `json:"title"`
	Code   string `json:"code"`
	Source string `json:"source"`
}

type shopifyAddress struct {
	Name      string `json:"name"`
	FirstName string `json:"first_name"`
	LastName  string `json:"last_name"`
}

type shopifyCustomer struct {
	FirstName string `json:"first_name"`
	LastName  string `json:"last_name"`
}

// normalizeShopifyOrder reduces a raw Shopify order to the common shape.
// Identifier: order_number, falling back to the generic id. Shipping method:
// first shipping line's title, then code, then source.
func normalizeShopifyOrder(env orderEnvelope, raw json.RawMessage) reconcile.NormalizedOrder {
	var o shopifyOrder
	_ = json.Unmarshal(raw, &o)

	orderID := ""
	switch {
	case o.OrderNumber > 0:
		orderID = strconv.FormatInt(o.OrderNumber, 10)
	case o.ID > 0:
		orderID = strconv.FormatInt(o.ID, 10)
	}

	method := ""
	if len(o.ShippingLines) > 0 {
		line := o.ShippingLines[0]
		switch {
		case line.Title != "":
			method = line.Title
		case line.Code != "":
			method = line.Code
		case line.Source != "":
			method = line.Source
		}
	}

	receiver := ""
	if addr := o.ShippingAddress; addr != nil {
		receiver = addr.Name
		if receiver == "" {
			receiver = strings.TrimSpace(addr.FirstName + " " + addr.LastName)
		}
	}
	if receiver == "" && o.Customer != nil {
		receiver = strings.TrimSpace(o.Customer.FirstName + " " + o.Customer.LastName)
	}

	return reconcile.NormalizedOrder{
		Source:         reconcile.SourceShopify,
		MerchantID:     env.MerchantID,
		MerchantName:   env.MerchantName,
		OrderID:        orderID,
		CreatedAt:      parseTimestamp(o.CreatedAt, time.RFC3339),
		RawCreatedAt:   o.CreatedAt,
		ReceiverName:   receiver,
		ShippingMethod: method,
		Total:          parseDecimal(o.TotalPrice),
		Raw:            raw,
	}
}

// Ensure ShopifyAdapter implements SourceAdapter interface
var _ reconcile.SourceAdapter = (*ShopifyAdapter)(nil)
