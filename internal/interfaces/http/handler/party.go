package handler

import (
	"context"

	partnerapp "github.com/erp/backoffice/internal/application/partner"
	"github.com/erp/backoffice/internal/domain/partner"
	"github.com/erp/backoffice/internal/domain/shared"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// PartyDirectory is the directory service used by PartyHandler
type PartyDirectory interface {
	Create(ctx context.Context, tc shared.TenantContext, req partnerapp.CreatePartyRequest) (*partner.PartyView, error)
	Get(ctx context.Context, tc shared.TenantContext, id uuid.UUID) (*partner.PartyView, error)
	List(ctx context.Context, tc shared.TenantContext, req partnerapp.ListPartiesRequest) (*shared.Paginated[partner.PartyView], error)
	Update(ctx context.Context, tc shared.TenantContext, id uuid.UUID, req partnerapp.UpdatePartyRequest) (*partner.PartyView, error)
	Delete(ctx context.Context, tc shared.TenantContext, id uuid.UUID) error
	FindByNormalizedTaxID(ctx context.Context, tc shared.TenantContext, taxID string) (*partner.PartyView, error)
}

// PartyHandler handles the client and supplier directory endpoints
type PartyHandler struct {
	BaseHandler
	directory PartyDirectory
}

// NewPartyHandler creates a new PartyHandler
func NewPartyHandler(directory PartyDirectory) *PartyHandler {
	return &PartyHandler{directory: directory}
}

// Create registers a party
func (h *PartyHandler) Create(c *gin.Context) {
	var req partnerapp.CreatePartyRequest
	if !h.bindJSON(c, &req) {
		return
	}

	party, err := h.directory.Create(c.Request.Context(), tenantContext(c), req)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Created(c, party)
}

// GetByID returns one party
func (h *PartyHandler) GetByID(c *gin.Context) {
	id, ok := h.parseID(c, "id")
	if !ok {
		return
	}

	party, err := h.directory.Get(c.Request.Context(), tenantContext(c), id)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, party)
}

// List returns a page of parties
func (h *PartyHandler) List(c *gin.Context) {
	var req partnerapp.ListPartiesRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		h.BadRequest(c, "Invalid query parameters")
		return
	}

	page, err := h.directory.List(c.Request.Context(), tenantContext(c), req)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.SuccessWithMeta(c, page.Items, page.Total, page.Page, page.PageSize)
}

// Update applies a partial update to a party
func (h *PartyHandler) Update(c *gin.Context) {
	id, ok := h.parseID(c, "id")
	if !ok {
		return
	}
	var req partnerapp.UpdatePartyRequest
	if !h.bindJSON(c, &req) {
		return
	}

	party, err := h.directory.Update(c.Request.Context(), tenantContext(c), id, req)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, party)
}

// Delete soft-deletes a party
func (h *PartyHandler) Delete(c *gin.Context) {
	id, ok := h.parseID(c, "id")
	if !ok {
		return
	}

	if err := h.directory.Delete(c.Request.Context(), tenantContext(c), id); err != nil {
		h.HandleError(c, err)
		return
	}
	h.NoContent(c)
}

// GetByTaxID looks a party up by its tax id, in any spelling
func (h *PartyHandler) GetByTaxID(c *gin.Context) {
	party, err := h.directory.FindByNormalizedTaxID(c.Request.Context(), tenantContext(c), c.Param("taxId"))
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, party)
}
