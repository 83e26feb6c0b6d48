package handler

import (
	"context"

	tradeapp "github.com/erp/backoffice/internal/application/trade"
	"github.com/erp/backoffice/internal/domain/shared"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// ProposalLifecycle is the proposal service used by ProposalHandler
type ProposalLifecycle interface {
	Create(ctx context.Context, tc shared.TenantContext, req tradeapp.CreateProposalRequest) (*tradeapp.ProposalResponse, error)
	Get(ctx context.Context, tc shared.TenantContext, id uuid.UUID) (*tradeapp.ProposalResponse, error)
	AddOrReplaceLines(ctx context.Context, tc shared.TenantContext, id uuid.UUID, req tradeapp.ReplaceLinesRequest) (*tradeapp.ProposalResponse, error)
	Close(ctx context.Context, tc shared.TenantContext, id uuid.UUID) (*tradeapp.ProposalResponse, error)
	Delete(ctx context.Context, tc shared.TenantContext, id uuid.UUID) error
}

// Conversions turns closed documents into their successors
type Conversions interface {
	ProposalToSalesOrder(ctx context.Context, tc shared.TenantContext, proposalID uuid.UUID) (*tradeapp.SalesOrderResponse, error)
	SalesOrderToPurchaseOrders(ctx context.Context, tc shared.TenantContext, salesOrderID uuid.UUID) (*tradeapp.ConversionResult, error)
}

// ProposalHandler handles proposal endpoints
type ProposalHandler struct {
	BaseHandler
	proposals   ProposalLifecycle
	conversions Conversions
}

// NewProposalHandler creates a new ProposalHandler
func NewProposalHandler(proposals ProposalLifecycle, conversions Conversions) *ProposalHandler {
	return &ProposalHandler{proposals: proposals, conversions: conversions}
}

// Create opens a draft proposal
func (h *ProposalHandler) Create(c *gin.Context) {
	var req tradeapp.CreateProposalRequest
	if !h.bindJSON(c, &req) {
		return
	}

	proposal, err := h.proposals.Create(c.Request.Context(), tenantContext(c), req)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Created(c, proposal)
}

// GetByID returns one proposal with its lines
func (h *ProposalHandler) GetByID(c *gin.Context) {
	id, ok := h.parseID(c, "id")
	if !ok {
		return
	}

	proposal, err := h.proposals.Get(c.Request.Context(), tenantContext(c), id)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, proposal)
}

// ReplaceLines replaces the lines of a draft proposal
func (h *ProposalHandler) ReplaceLines(c *gin.Context) {
	id, ok := h.parseID(c, "id")
	if !ok {
		return
	}
	var req tradeapp.ReplaceLinesRequest
	if !h.bindJSON(c, &req) {
		return
	}

	proposal, err := h.proposals.AddOrReplaceLines(c.Request.Context(), tenantContext(c), id, req)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, proposal)
}

// Close numbers and closes a proposal
func (h *ProposalHandler) Close(c *gin.Context) {
	id, ok := h.parseID(c, "id")
	if !ok {
		return
	}

	proposal, err := h.proposals.Close(c.Request.Context(), tenantContext(c), id)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, proposal)
}

// Delete removes a draft proposal
func (h *ProposalHandler) Delete(c *gin.Context) {
	id, ok := h.parseID(c, "id")
	if !ok {
		return
	}

	if err := h.proposals.Delete(c.Request.Context(), tenantContext(c), id); err != nil {
		h.HandleError(c, err)
		return
	}
	h.NoContent(c)
}

// ConvertToSalesOrder creates the draft sales order of a closed proposal
func (h *ProposalHandler) ConvertToSalesOrder(c *gin.Context) {
	id, ok := h.parseID(c, "id")
	if !ok {
		return
	}

	order, err := h.conversions.ProposalToSalesOrder(c.Request.Context(), tenantContext(c), id)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Created(c, order)
}
