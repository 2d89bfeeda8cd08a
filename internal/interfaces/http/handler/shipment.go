package handler

import (
	"context"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/logistics/backend/internal/domain/reconcile"
	"github.com/logistics/backend/internal/domain/shipment"
)

// ShipmentFinder looks up the shipment created for an order identity
type ShipmentFinder interface {
	FindByOrder(ctx context.Context, lookup shipment.OrderLookup) (*shipment.Record, error)
}

// ShipmentHandler handles shipment viewing endpoints
type ShipmentHandler struct {
	BaseHandler
	finder ShipmentFinder
}

// NewShipmentHandler creates a new ShipmentHandler
func NewShipmentHandler(finder ShipmentFinder) *ShipmentHandler {
	return &ShipmentHandler{finder: finder}
}

// RegisterRoutes registers shipment routes
func (h *ShipmentHandler) RegisterRoutes(rg *gin.RouterGroup) {
	group := rg.Group("/shipments")
	{
		group.GET("/by-order", h.FindByOrder)
	}
}

// FindByOrderRequest represents the order identity query parameters
type FindByOrderRequest struct {
	Key          string `form:"key" binding:"required"`
	MerchantName string `form:"merchant_name"`
	CreatedAt    string `form:"created_at"`
	ReceiverName string `form:"receiver_name"`
	Source       string `form:"source"`
}

// ShipmentResponse represents a shipment record in API responses
type ShipmentResponse struct {
	ID           string    `json:"id"`
	MerchantID   string    `json:"merchant_id"`
	OrderID      string    `json:"order_id"`
	Source       string    `json:"source"`
	ReceiverName string    `json:"receiver_name"`
	Status       string    `json:"status"`
	Total        string    `json:"total"`
	CreatedAt    time.Time `json:"created_at"`
}

// FindByOrder returns the shipment created for an order, or 404
func (h *ShipmentHandler) FindByOrder(c *gin.Context) {
	var req FindByOrderRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		h.BadRequest(c, "key is required")
		return
	}

	record, err := h.finder.FindByOrder(c.Request.Context(), shipment.OrderLookup{
		Key:          reconcile.OrderKey(req.Key),
		MerchantName: req.MerchantName,
		RawCreatedAt: req.CreatedAt,
		ReceiverName: req.ReceiverName,
		SourceLabel:  req.Source,
	})
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Success(c, ShipmentResponse{
		ID:           record.ID,
		MerchantID:   record.MerchantID,
		OrderID:      record.OrderID,
		Source:       record.SourceLabel,
		ReceiverName: record.ReceiverName,
		Status:       record.Status,
		Total:        record.Total.String(),
		CreatedAt:    record.CreatedAt,
	})
}
