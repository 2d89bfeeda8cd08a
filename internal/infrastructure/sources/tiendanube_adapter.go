package sources

import (
	"context"
	"encoding/json"
	"net/http"
	"strconv"
	"time"

	"github.com/logistics/backend/internal/domain/reconcile"
)

// tiendanubeOrdersPath is the feed path serving Tiendanube order envelopes
const tiendanubeOrdersPath = "/sources/tiendanube/orders"

// tiendanubeTimeLayout is Tiendanube's ISO-8601 variant without the colon in
// the zone offset
const tiendanubeTimeLayout = "2006-01-02T15:04:05-0700"

// TiendanubeAdapter implements the SourceAdapter interface for Tiendanube orders
type TiendanubeAdapter struct {
	config     *Config
	httpClient *http.Client
}

// NewTiendanubeAdapter creates a new Tiendanube adapter with the given configuration
func NewTiendanubeAdapter(config *Config) (*TiendanubeAdapter, error) {
	if err := config.Validate(); err != nil {
		return nil, err
	}
	return &TiendanubeAdapter{
		config: config,
		httpClient: &http.Client{
			Timeout: time.Duration(config.TimeoutSeconds) * time.Second,
		},
	}, nil
}

// Source returns the source kind this adapter handles
func (a *TiendanubeAdapter) Source() reconcile.SourceKind {
	return reconcile.SourceTiendanube
}

// Fetch retrieves and normalizes all merchants' pending Tiendanube orders
func (a *TiendanubeAdapter) Fetch(ctx context.Context) (*reconcile.SourceBatch, error) {
	envelopes, err := fetchEnvelopes(ctx, a.httpClient, a.config, tiendanubeOrdersPath)
	if err != nil {
		return nil, err
	}

	batch := &reconcile.SourceBatch{
		Source:  reconcile.SourceTiendanube,
		Orders:  make([]reconcile.NormalizedOrder, 0),
		Configs: configsFrom(reconcile.SourceTiendanube, envelopes),
	}

	for _, env := range envelopes {
		for _, raw := range env.Orders {
			batch.Orders = append(batch.Orders, normalizeTiendanubeOrder(env, raw))
		}
	}

	return batch, nil
}

// tiendanubeOrder is the subset of a raw Tiendanube order the adapter extracts from
type tiendanubeOrder struct {
	ID                 int64               `json:"id"`
	Number             int64               `json:"number"`
	CreatedAt          string              `json:"created_at"`
	Total              string              `json:"total"`
	ShippingOption     string              `json:"shipping_option"`
	ShippingOptionCode string              `json:"shipping_option_code"`
	Shipping           string              `json:"shipping"`
	ShippingAddress    *tiendanubeAddress  `json:"shipping_address"`
	Customer           *tiendanubeCustomer `json:"customer"`
}

type tiendanubeAddress struct {
	Name string `json:"name"`
}

type tiendanubeCustomer struct {
	Name string `json:"name"`
}

// normalizeTiendanubeOrder reduces a raw Tiendanube order to the common
// shape. Identifier: the store-facing number, falling back to the generic
// id. Shipping method: shipping_option, then shipping_option_code, then the
// carrier field.
func normalizeTiendanubeOrder(env orderEnvelope, raw json.RawMessage) reconcile.NormalizedOrder {
	var o tiendanubeOrder
	_ = json.Unmarshal(raw, &o)

	orderID := ""
	switch {
	case o.Number > 0:
		orderID = strconv.FormatInt(o.Number, 10)
	case o.ID > 0:
		orderID = strconv.FormatInt(o.ID, 10)
	}

	method := ""
	switch {
	case o.ShippingOption != "":
		method = o.ShippingOption
	case o.ShippingOptionCode != "":
		method = o.ShippingOptionCode
	case o.Shipping != "":
		method = o.Shipping
	}

	receiver := ""
	if o.ShippingAddress != nil {
		receiver = o.ShippingAddress.Name
	}
	if receiver == "" && o.Customer != nil {
		receiver = o.Customer.Name
	}

	return reconcile.NormalizedOrder{
		Source:         reconcile.SourceTiendanube,
		MerchantID:     env.MerchantID,
		MerchantName:   env.MerchantName,
		OrderID:        orderID,
		CreatedAt:      parseTimestamp(o.CreatedAt, tiendanubeTimeLayout, time.RFC3339),
		RawCreatedAt:   o.CreatedAt,
		ReceiverName:   receiver,
		ShippingMethod: method,
		Total:          parseDecimal(o.Total),
		Raw:            raw,
	}
}

// Ensure TiendanubeAdapter implements SourceAdapter interface
var _ reconcile.SourceAdapter = (*TiendanubeAdapter)(nil)
