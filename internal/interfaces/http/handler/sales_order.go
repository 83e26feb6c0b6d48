package handler

import (
	"context"

	tradeapp "github.com/erp/backoffice/internal/application/trade"
	"github.com/erp/backoffice/internal/domain/shared"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// SalesOrders is the sales order service used by SalesOrderHandler
type SalesOrders interface {
	Get(ctx context.Context, tc shared.TenantContext, id uuid.UUID) (*tradeapp.SalesOrderResponse, error)
	ReplaceLines(ctx context.Context, tc shared.TenantContext, id uuid.UUID, req tradeapp.ReplaceLinesRequest) (*tradeapp.SalesOrderResponse, error)
	AssignLineSupplier(ctx context.Context, tc shared.TenantContext, id, lineID uuid.UUID, req tradeapp.AssignSupplierRequest) (*tradeapp.SalesOrderResponse, error)
	Close(ctx context.Context, tc shared.TenantContext, id uuid.UUID) (*tradeapp.SalesOrderResponse, error)
	Delete(ctx context.Context, tc shared.TenantContext, id uuid.UUID) error
}

// PurchaseOrders is the purchase order service used by the order handlers
type PurchaseOrders interface {
	Get(ctx context.Context, tc shared.TenantContext, id uuid.UUID) (*tradeapp.PurchaseOrderResponse, error)
	ListBySalesOrder(ctx context.Context, tc shared.TenantContext, salesOrderID uuid.UUID) ([]tradeapp.PurchaseOrderResponse, error)
	Close(ctx context.Context, tc shared.TenantContext, id uuid.UUID) (*tradeapp.PurchaseOrderResponse, error)
	MarkPaid(ctx context.Context, tc shared.TenantContext, id uuid.UUID) (*tradeapp.PurchaseOrderResponse, error)
}

// SalesOrderHandler handles sales order endpoints
type SalesOrderHandler struct {
	BaseHandler
	orders         SalesOrders
	purchaseOrders PurchaseOrders
	conversions    Conversions
}

// NewSalesOrderHandler creates a new SalesOrderHandler
func NewSalesOrderHandler(orders SalesOrders, purchaseOrders PurchaseOrders, conversions Conversions) *SalesOrderHandler {
	return &SalesOrderHandler{
		orders:         orders,
		purchaseOrders: purchaseOrders,
		conversions:    conversions,
	}
}

// GetByID returns one sales order with its lines
func (h *SalesOrderHandler) GetByID(c *gin.Context) {
	id, ok := h.parseID(c, "id")
	if !ok {
		return
	}

	order, err := h.orders.Get(c.Request.Context(), tenantContext(c), id)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, order)
}

// ReplaceLines replaces the lines of a draft sales order
func (h *SalesOrderHandler) ReplaceLines(c *gin.Context) {
	id, ok := h.parseID(c, "id")
	if !ok {
		return
	}
	var req tradeapp.ReplaceLinesRequest
	if !h.bindJSON(c, &req) {
		return
	}

	order, err := h.orders.ReplaceLines(c.Request.Context(), tenantContext(c), id, req)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, order)
}

// AssignLineSupplier sets or clears the supplier of one line
func (h *SalesOrderHandler) AssignLineSupplier(c *gin.Context) {
	id, ok := h.parseID(c, "id")
	if !ok {
		return
	}
	lineID, ok := h.parseID(c, "lineId")
	if !ok {
		return
	}
	var req tradeapp.AssignSupplierRequest
	if !h.bindJSON(c, &req) {
		return
	}

	order, err := h.orders.AssignLineSupplier(c.Request.Context(), tenantContext(c), id, lineID, req)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, order)
}

// Close numbers and closes a sales order
func (h *SalesOrderHandler) Close(c *gin.Context) {
	id, ok := h.parseID(c, "id")
	if !ok {
		return
	}

	order, err := h.orders.Close(c.Request.Context(), tenantContext(c), id)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, order)
}

// Delete removes a draft sales order
func (h *SalesOrderHandler) Delete(c *gin.Context) {
	id, ok := h.parseID(c, "id")
	if !ok {
		return
	}

	if err := h.orders.Delete(c.Request.Context(), tenantContext(c), id); err != nil {
		h.HandleError(c, err)
		return
	}
	h.NoContent(c)
}

// ConvertToPurchaseOrders creates one purchase order per supplier
func (h *SalesOrderHandler) ConvertToPurchaseOrders(c *gin.Context) {
	id, ok := h.parseID(c, "id")
	if !ok {
		return
	}

	result, err := h.conversions.SalesOrderToPurchaseOrders(c.Request.Context(), tenantContext(c), id)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Created(c, result)
}

// ListPurchaseOrders returns the purchase orders created from a sales order
func (h *SalesOrderHandler) ListPurchaseOrders(c *gin.Context) {
	id, ok := h.parseID(c, "id")
	if !ok {
		return
	}

	orders, err := h.purchaseOrders.ListBySalesOrder(c.Request.Context(), tenantContext(c), id)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, orders)
}
