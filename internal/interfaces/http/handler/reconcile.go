package handler

import (
	"context"
	"time"

	"github.com/gin-gonic/gin"

	appreconcile "github.com/logistics/backend/internal/application/reconcile"
	"github.com/logistics/backend/internal/domain/reconcile"
)

// ReconciliationService is the application-layer surface the handler
// exposes over HTTP
type ReconciliationService interface {
	// Load runs a load cycle and returns the classified order views
	Load(ctx context.Context) ([]appreconcile.OrderView, error)
	// Orders returns the current load's views without reloading
	Orders() []appreconcile.OrderView
	// Reprocess re-evaluates the selected orders and triggers a reload
	Reprocess(ctx context.Context, keys []reconcile.OrderKey) (reconcile.ReprocessResult, error)
	// Session returns the operator session
	Session() *reconcile.Session
	// LastDelta returns the report of the most recently completed cycle
	LastDelta() (appreconcile.CycleDelta, bool)
}

// ReconcileHandler handles the reconciliation API endpoints
type ReconcileHandler struct {
	BaseHandler
	service ReconciliationService
}

// NewReconcileHandler creates a new ReconcileHandler
func NewReconcileHandler(service ReconciliationService) *ReconcileHandler {
	return &ReconcileHandler{service: service}
}

// RegisterRoutes registers reconciliation routes
func (h *ReconcileHandler) RegisterRoutes(rg *gin.RouterGroup) {
	group := rg.Group("/reconciliation")
	{
		group.POST("/load", h.Load)
		group.GET("/orders", h.ListOrders)
		group.POST("/reprocess", h.Reprocess)
		group.GET("/session", h.GetSession)
		group.GET("/report", h.GetCycleReport)
	}
}

// ---------------------------------------------------------------------------
// DTOs
// ---------------------------------------------------------------------------

// OrderViewResponse represents one pending order in API responses
type OrderViewResponse struct {
	Key            string `json:"key"`
	Source         string `json:"source"`
	MerchantID     string `json:"merchant_id"`
	MerchantName   string `json:"merchant_name"`
	OrderID        string `json:"order_id"`
	CreatedAt      string `json:"created_at,omitempty"`
	ReceiverName   string `json:"receiver_name"`
	ShippingMethod string `json:"shipping_method"`
	Total          string `json:"total"`
	Matching       bool   `json:"matching"`
	Converted      bool   `json:"converted"`
}

// OrderListResponse represents the order list response
type OrderListResponse struct {
	Orders []OrderViewResponse `json:"orders"`
	Count  int                 `json:"count"`
}

// ReprocessRequest represents the operator's reprocessing selection
type ReprocessRequest struct {
	OrderKeys []string `json:"order_keys" binding:"required,min=1,dive,order_key"`
}

// ReprocessResponse represents the reprocessing tally
type ReprocessResponse struct {
	Processed        int `json:"processed"`
	AlreadyProcessed int `json:"already_processed"`
	NotMatching      int `json:"not_matching"`
	Errored          int `json:"errored"`
	Total            int `json:"total"`
}

// CycleReportResponse represents the outcome of the last completed load cycle
type CycleReportResponse struct {
	Cycle       int       `json:"cycle"`
	Orders      int       `json:"orders"`
	Existing    int       `json:"existing"`
	Converted   int       `json:"converted"`
	Failed      int       `json:"failed"`
	CompletedAt time.Time `json:"completed_at"`
}

// SessionResponse represents the operator session state
type SessionResponse struct {
	ID             string    `json:"id"`
	StartedAt      time.Time `json:"started_at"`
	Cycles         int       `json:"cycles"`
	SeenCount      int       `json:"seen_count"`
	ExistingCount  int       `json:"existing_count"`
	ProcessedCount int       `json:"processed_count"`
}

func toOrderViewResponse(view appreconcile.OrderView) OrderViewResponse {
	resp := OrderViewResponse{
		Key:            view.Key.String(),
		Source:         view.Source.Label(),
		MerchantID:     view.MerchantID,
		MerchantName:   view.MerchantName,
		OrderID:        view.OrderID,
		ReceiverName:   view.ReceiverName,
		ShippingMethod: view.ShippingMethod,
		Total:          view.Total.String(),
		Matching:       view.Matching,
		Converted:      view.Converted,
	}
	if view.CreatedAt != nil {
		resp.CreatedAt = view.CreatedAt.Format(time.RFC3339)
	}
	return resp
}

func toOrderListResponse(views []appreconcile.OrderView) OrderListResponse {
	orders := make([]OrderViewResponse, 0, len(views))
	for _, view := range views {
		orders = append(orders, toOrderViewResponse(view))
	}
	return OrderListResponse{Orders: orders, Count: len(orders)}
}

// ---------------------------------------------------------------------------
// Endpoints
// ---------------------------------------------------------------------------

// Load triggers a load cycle and returns the classified pending orders.
// The response reflects the state before background verification completes;
// clients poll ListOrders for the settled view.
func (h *ReconcileHandler) Load(c *gin.Context) {
	views, err := h.service.Load(c.Request.Context())
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, toOrderListResponse(views))
}

// ListOrders returns the current load's orders with live classification
func (h *ReconcileHandler) ListOrders(c *gin.Context) {
	h.Success(c, toOrderListResponse(h.service.Orders()))
}

// Reprocess re-evaluates the selected orders against the current merchant
// configuration and returns the per-outcome tally
func (h *ReconcileHandler) Reprocess(c *gin.Context) {
	var req ReprocessRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BadRequest(c, "order_keys is required and must not be empty")
		return
	}

	keys := make([]reconcile.OrderKey, 0, len(req.OrderKeys))
	for _, key := range req.OrderKeys {
		keys = append(keys, reconcile.OrderKey(key))
	}

	result, err := h.service.Reprocess(c.Request.Context(), keys)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Success(c, ReprocessResponse{
		Processed:        result.Processed,
		AlreadyProcessed: result.AlreadyProcessed,
		NotMatching:      result.NotMatching,
		Errored:          result.Errored,
		Total:            result.Total(),
	})
}

// GetCycleReport returns the outcome of the last completed load cycle, or
// 404 when no background task has finished yet
func (h *ReconcileHandler) GetCycleReport(c *gin.Context) {
	delta, ok := h.service.LastDelta()
	if !ok {
		h.NotFound(c, "No load cycle has completed yet")
		return
	}
	h.Success(c, CycleReportResponse{
		Cycle:       delta.Cycle,
		Orders:      delta.Orders,
		Existing:    delta.Existing,
		Converted:   delta.Converted,
		Failed:      delta.Failed,
		CompletedAt: delta.CompletedAt,
	})
}

// GetSession returns the operator session state
func (h *ReconcileHandler) GetSession(c *gin.Context) {
	session := h.service.Session()
	h.Success(c, SessionResponse{
		ID:             session.ID.String(),
		StartedAt:      session.StartedAt,
		Cycles:         session.Cycles(),
		SeenCount:      session.SeenCount(),
		ExistingCount:  session.ExistingCount(),
		ProcessedCount: session.ProcessedCount(),
	})
}
