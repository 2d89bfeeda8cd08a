// Package shipstore contains the HTTP client for the persistent shipment
// store collaborator. The store is consumed only through its CRUD-like
// network contract; its internals are out of scope.
package shipstore

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/shopspring/decimal"

	"github.com/logistics/backend/internal/domain/reconcile"
	"github.com/logistics/backend/internal/domain/shipment"
)

// maxResponseSize is the maximum allowed store response size (10MB)
const maxResponseSize = 10 * 1024 * 1024

// ErrConfigMissingBaseURL indicates a store config without a base URL
var ErrConfigMissingBaseURL = errors.New("shipstore: missing base URL")

// Config holds the connection settings for the shipment store
type Config struct {
	// BaseURL is the store API base URL
	BaseURL string
	// APIToken is the bearer token for the store (optional)
	APIToken string
	// TimeoutSeconds is the HTTP client timeout
	TimeoutSeconds int
}

// Validate validates the config and applies defaults
func (c *Config) Validate() error {
	if c.BaseURL == "" {
		return ErrConfigMissingBaseURL
	}
	if c.TimeoutSeconds <= 0 {
		c.TimeoutSeconds = 30
	}
	return nil
}

// Client implements the shipment.Store interface over HTTP
type Client struct {
	config     *Config
	httpClient *http.Client
}

// NewClient creates a new shipment store client with the given configuration
func NewClient(config *Config) (*Client, error) {
	if err := config.Validate(); err != nil {
		return nil, err
	}
	return &Client{
		config: config,
		httpClient: &http.Client{
			Timeout: time.Duration(config.TimeoutSeconds) * time.Second,
		},
	}, nil
}

// ---------------------------------------------------------------------------
// Wire Types
// ---------------------------------------------------------------------------

type lookupEntry struct {
	Key          string `json:"key"`
	MerchantName string `json:"merchant_name"`
	CreatedAt    string `json:"created_at"`
	ReceiverName string `json:"receiver_name"`
	Source       string `json:"source"`
}

func lookupEntryFrom(l shipment.OrderLookup) lookupEntry {
	return lookupEntry{
		Key:          l.Key.String(),
		MerchantName: l.MerchantName,
		CreatedAt:    l.RawCreatedAt,
		ReceiverName: l.ReceiverName,
		Source:       l.SourceLabel,
	}
}

type verifyExistingRequest struct {
	Orders []lookupEntry `json:"orders"`
}

type verifyExistingResponse struct {
	Results map[string]bool `json:"results"`
}

type createShipmentRequest struct {
	MerchantID string          `json:"merchant_id"`
	Order      json.RawMessage `json:"order"`
}

type shipmentRecord struct {
	ID           string `json:"id"`
	MerchantID   string `json:"merchant_id"`
	OrderID      string `json:"order_id"`
	Source       string `json:"source"`
	ReceiverName string `json:"receiver_name"`
	Status       string `json:"status"`
	Total        string `json:"total"`
	CreatedAt    string `json:"created_at"`
}

type shipmentResponse struct {
	Shipment *shipmentRecord `json:"shipment"`
}

func (r *shipmentRecord) toDomain() *shipment.Record {
	record := &shipment.Record{
		ID:           r.ID,
		MerchantID:   r.MerchantID,
		OrderID:      r.OrderID,
		SourceLabel:  r.Source,
		ReceiverName: r.ReceiverName,
		Status:       r.Status,
		Total:        parseDecimal(r.Total),
	}
	if t, err := time.Parse(time.RFC3339, r.CreatedAt); err == nil {
		record.CreatedAt = t
	}
	return record
}

// ---------------------------------------------------------------------------
// Store Operations
// ---------------------------------------------------------------------------

// VerifyExisting asks the store which of the given orders already have a
// shipment. The batch must not exceed shipment.VerifyBatchLimit entries;
// chunking above that limit is the pipeline's responsibility.
func (c *Client) VerifyExisting(ctx context.Context, batch []shipment.OrderLookup) (map[reconcile.OrderKey]bool, error) {
	if len(batch) > shipment.VerifyBatchLimit {
		return nil, fmt.Errorf("%w: %d entries", shipment.ErrBatchTooLarge, len(batch))
	}
	if len(batch) == 0 {
		return map[reconcile.OrderKey]bool{}, nil
	}

	req := verifyExistingRequest{Orders: make([]lookupEntry, 0, len(batch))}
	for _, l := range batch {
		req.Orders = append(req.Orders, lookupEntryFrom(l))
	}

	body, err := c.doRequest(ctx, http.MethodPost, "/shipments/verify-existing", req)
	if err != nil {
		return nil, err
	}

	var resp verifyExistingResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return nil, fmt.Errorf("%w: %v", shipment.ErrStoreInvalidResponse, err)
	}

	results := make(map[reconcile.OrderKey]bool, len(resp.Results))
	for key, exists := range resp.Results {
		results[reconcile.OrderKey(key)] = exists
	}
	return results, nil
}

// Create creates a shipment record from a raw source order via the
// source-specific creation endpoint
func (c *Client) Create(ctx context.Context, source reconcile.SourceKind, merchantID string, rawOrder json.RawMessage) (*shipment.Record, error) {
	if !source.IsValid() {
		return nil, fmt.Errorf("%w: %s", reconcile.ErrUnknownSource, source)
	}

	req := createShipmentRequest{MerchantID: merchantID, Order: rawOrder}
	body, err := c.doRequest(ctx, http.MethodPost, "/shipments/from-"+source.Label(), req)
	if err != nil {
		return nil, err
	}

	var resp shipmentResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return nil, fmt.Errorf("%w: %v", shipment.ErrStoreInvalidResponse, err)
	}
	if resp.Shipment == nil {
		return nil, shipment.ErrStoreInvalidResponse
	}

	return resp.Shipment.toDomain(), nil
}

// FindByOrder returns the shipment created for an order identity, or
// shipment.ErrNotFound
func (c *Client) FindByOrder(ctx context.Context, lookup shipment.OrderLookup) (*shipment.Record, error) {
	body, err := c.doRequest(ctx, http.MethodPost, "/shipments/find-by-order", lookupEntryFrom(lookup))
	if err != nil {
		return nil, err
	}

	var resp shipmentResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return nil, fmt.Errorf("%w: %v", shipment.ErrStoreInvalidResponse, err)
	}
	if resp.Shipment == nil {
		return nil, shipment.ErrNotFound
	}

	return resp.Shipment.toDomain(), nil
}

// ---------------------------------------------------------------------------
// Internal Helpers
// ---------------------------------------------------------------------------

// parseDecimal parses a decimal amount, returning zero for invalid input
func parseDecimal(s string) decimal.Decimal {
	d, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.Zero
	}
	return d
}

// doRequest performs an HTTP request against the store API
func (c *Client) doRequest(ctx context.Context, method, path string, payload any) ([]byte, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("shipstore: failed to encode request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.config.BaseURL+path, bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("shipstore: failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if c.config.APIToken != "" {
		req.Header.Set("Authorization", "Bearer "+c.config.APIToken)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", shipment.ErrStoreUnavailable, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseSize))
	if err != nil {
		return nil, fmt.Errorf("shipstore: failed to read response: %w", err)
	}

	if resp.StatusCode == http.StatusNotFound {
		return nil, shipment.ErrNotFound
	}
	if resp.StatusCode >= 400 {
		return nil, fmt.Errorf("%w: HTTP %d", shipment.ErrStoreRequestFailed, resp.StatusCode)
	}

	return body, nil
}

// Ensure Client implements the Store interface
var _ shipment.Store = (*Client)(nil)
