package sources

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/logistics/backend/internal/domain/reconcile"
)

// vtexOrdersPath is the feed path serving VTEX order envelopes
const vtexOrdersPath = "/sources/vtex/orders"

// VTEXAdapter implements the SourceAdapter interface for VTEX orders
type VTEXAdapter struct {
	config     *Config
	httpClient *http.Client
}

// NewVTEXAdapter creates a new VTEX adapter with the given configuration
func NewVTEXAdapter(config *Config) (*VTEXAdapter, error) {
	if err := config.Validate(); err != nil {
		return nil, err
	}
	return &VTEXAdapter{
		config: config,
		httpClient: &http.Client{
			Timeout: time.Duration(config.TimeoutSeconds) * time.Second,
		},
	}, nil
}

// Source returns the source kind this adapter handles
func (a *VTEXAdapter) Source() reconcile.SourceKind {
	return reconcile.SourceVTEX
}

// Fetch retrieves and normalizes all merchants' pending VTEX orders
func (a *VTEXAdapter) Fetch(ctx context.Context) (*reconcile.SourceBatch, error) {
	envelopes, err := fetchEnvelopes(ctx, a.httpClient, a.config, vtexOrdersPath)
	if err != nil {
		return nil, err
	}

	batch := &reconcile.SourceBatch{
		Source:  reconcile.SourceVTEX,
		Orders:  make([]reconcile.NormalizedOrder, 0),
		Configs: configsFrom(reconcile.SourceVTEX, envelopes),
	}

	for _, env := range envelopes {
		for _, raw := range env.Orders {
			batch.Orders = append(batch.Orders, normalizeVTEXOrder(env, raw))
		}
	}

	return batch, nil
}

// vtexOrder is the subset of a raw VTEX order the adapter extracts from
type vtexOrder struct {
	OrderID           string             `json:"orderId"`
	Sequence          string             `json:"sequence"`
	ID                string             `json:"id"`
	CreationDate      string             `json:"creationDate"`
	Value             int64              `json:"value"`
	ShippingData      *vtexShippingData  `json:"shippingData"`
	ClientProfileData *vtexClientProfile `json:"clientProfileData"`
}

type vtexShippingData struct {
	Address       *vtexAddress        `json:"address"`
	LogisticsInfo []vtexLogisticsInfo `json:"logisticsInfo"`
}

type vtexLogisticsInfo struct {
	SelectedSla             string `json:"selectedSla"`
	DeliveryCompany         string `json:"deliveryCompany"`
	SelectedDeliveryChannel string `json:"selectedDeliveryChannel"`
}

type vtexAddress struct {
	ReceiverName string `json:"receiverName"`
}

type vtexClientProfile struct {
	FirstName string `json:"firstName"`
	LastName  string `json:"lastName"`
}

// normalizeVTEXOrder reduces a raw VTEX order to the common shape.
// Identifier: orderId token, falling back to sequence, then the generic id.
// Shipping method: first logistics-info's selected SLA, then its delivery
// company, then the selected delivery channel. Value is in cents.
func normalizeVTEXOrder(env orderEnvelope, raw json.RawMessage) reconcile.NormalizedOrder {
	var o vtexOrder
	_ = json.Unmarshal(raw, &o)

	orderID := o.OrderID
	if orderID == "" {
		orderID = o.Sequence
	}
	if orderID == "" {
		orderID = o.ID
	}

	method := ""
	if sd := o.ShippingData; sd != nil && len(sd.LogisticsInfo) > 0 {
		info := sd.LogisticsInfo[0]
		switch {
		case info.SelectedSla != "":
			method = info.SelectedSla
		case info.DeliveryCompany != "":
			method = info.DeliveryCompany
		case info.SelectedDeliveryChannel != "":
			method = info.SelectedDeliveryChannel
		}
	}

	receiver := ""
	if sd := o.ShippingData; sd != nil && sd.Address != nil {
		receiver = sd.Address.ReceiverName
	}
	if receiver == "" && o.ClientProfileData != nil {
		receiver = strings.TrimSpace(o.ClientProfileData.FirstName + " " + o.ClientProfileData.LastName)
	}

	return reconcile.NormalizedOrder{
		Source:         reconcile.SourceVTEX,
		MerchantID:     env.MerchantID,
		MerchantName:   env.MerchantName,
		OrderID:        orderID,
		CreatedAt:      parseTimestamp(o.CreationDate, time.RFC3339),
		RawCreatedAt:   o.CreationDate,
		ReceiverName:   receiver,
		ShippingMethod: method,
		Total:          decimal.New(o.Value, -2),
		Raw:            raw,
	}
}

// Ensure VTEXAdapter implements SourceAdapter interface
var _ reconcile.SourceAdapter = (*VTEXAdapter)(nil)
