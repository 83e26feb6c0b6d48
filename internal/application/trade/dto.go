package trade

import (
	"time"

	"github.com/erp/backoffice/internal/domain/trade"
	"github.com/google/uuid"
	"github.com/samber/lo"
	"github.com/shopspring/decimal"
)

// ==================== Line DTOs ====================

// LineRequest represents one document line in a request
type LineRequest struct {
	ArticleID   *uuid.UUID       `json:"article_id"`
	Description string           `json:"description" binding:"required,min=1,max=500"`
	Quantity    decimal.Decimal  `json:"quantity" binding:"required"`
	UnitPrice   decimal.Decimal  `json:"unit_price"`
	SupplierID  *uuid.UUID       `json:"supplier_id"`
	CostPrice   *decimal.Decimal `json:"cost_price"`
}

// ReplaceLinesRequest replaces the whole line set of a draft document
type ReplaceLinesRequest struct {
	Lines []LineRequest `json:"lines" binding:"dive"`
}

// Inputs converts the request lines into domain line inputs
func (r ReplaceLinesRequest) Inputs() []trade.LineInput {
	return lo.Map(r.Lines, func(l LineRequest, _ int) trade.LineInput {
		return trade.LineInput{
			ArticleID:   l.ArticleID,
			Description: l.Description,
			Quantity:    l.Quantity,
			UnitPrice:   l.UnitPrice,
			SupplierID:  l.SupplierID,
			CostPrice:   l.CostPrice,
		}
	})
}

// supplierIDs returns the distinct suppliers referenced by the request lines
func (r ReplaceLinesRequest) supplierIDs() []uuid.UUID {
	tagged := lo.Filter(r.Lines, func(l LineRequest, _ int) bool { return l.SupplierID != nil })
	return lo.Uniq(lo.Map(tagged, func(l LineRequest, _ int) uuid.UUID { return *l.SupplierID }))
}

// AssignSupplierRequest sets or clears the supplier of a sales order line
type AssignSupplierRequest struct {
	SupplierID *uuid.UUID `json:"supplier_id"`
}

// LineResponse represents a document line in API responses
type LineResponse struct {
	ID          uuid.UUID        `json:"id"`
	Position    int              `json:"position"`
	ArticleID   *uuid.UUID       `json:"article_id,omitempty"`
	Description string           `json:"description"`
	Quantity    decimal.Decimal  `json:"quantity"`
	UnitPrice   decimal.Decimal  `json:"unit_price"`
	SupplierID  *uuid.UUID       `json:"supplier_id,omitempty"`
	CostPrice   *decimal.Decimal `json:"cost_price,omitempty"`
	LineTotal   decimal.Decimal  `json:"line_total"`
}

func toLineResponses(lines []trade.DocumentLine) []LineResponse {
	return lo.Map(lines, func(l trade.DocumentLine, _ int) LineResponse {
		return LineResponse{
			ID:          l.ID,
			Position:    l.Position,
			ArticleID:   l.ArticleID,
			Description: l.Description,
			Quantity:    l.Quantity,
			UnitPrice:   l.UnitPrice,
			SupplierID:  l.SupplierID,
			CostPrice:   l.CostPrice,
			LineTotal:   l.LineTotal,
		}
	})
}

// ==================== Proposal DTOs ====================

// CreateProposalRequest represents a request to open a draft proposal
type CreateProposalRequest struct {
	ClientID     uuid.UUID     `json:"client_id" binding:"required"`
	ProposalDate *time.Time    `json:"proposal_date"`
	ValidUntil   *time.Time    `json:"valid_until"`
	Notes        string        `json:"notes" binding:"max=2000"`
	Lines        []LineRequest `json:"lines" binding:"dive"`
}

// ProposalResponse represents a proposal in API responses
type ProposalResponse struct {
	ID           uuid.UUID       `json:"id"`
	TenantID     *uuid.UUID      `json:"tenant_id,omitempty"`
	Numero       string          `json:"numero,omitempty"`
	ClientID     uuid.UUID       `json:"client_id"`
	ProposalDate *time.Time      `json:"proposal_date,omitempty"`
	ValidUntil   *time.Time      `json:"valid_until,omitempty"`
	Status       string          `json:"status"`
	Total        decimal.Decimal `json:"total"`
	Notes        string          `json:"notes,omitempty"`
	Lines        []LineResponse  `json:"lines"`
	CreatedAt    time.Time       `json:"created_at"`
	UpdatedAt    time.Time       `json:"updated_at"`
}

// ToProposalResponse converts a domain Proposal to ProposalResponse
func ToProposalResponse(p *trade.Proposal) ProposalResponse {
	return ProposalResponse{
		ID:           p.ID,
		TenantID:     p.TenantID,
		Numero:       p.Numero,
		ClientID:     p.ClientID,
		ProposalDate: p.ProposalDate,
		ValidUntil:   p.ValidUntil,
		Status:       p.Status.String(),
		Total:        p.Total,
		Notes:        p.Notes,
		Lines:        toLineResponses(p.Lines),
		CreatedAt:    p.CreatedAt,
		UpdatedAt:    p.UpdatedAt,
	}
}

// ==================== Sales Order DTOs ====================

// SalesOrderResponse represents a sales order in API responses
type SalesOrderResponse struct {
	ID         uuid.UUID       `json:"id"`
	TenantID   *uuid.UUID      `json:"tenant_id,omitempty"`
	Numero     string          `json:"numero,omitempty"`
	ClientID   uuid.UUID       `json:"client_id"`
	ProposalID *uuid.UUID      `json:"proposal_id,omitempty"`
	OrderDate  *time.Time      `json:"order_date,omitempty"`
	Status     string          `json:"status"`
	Total      decimal.Decimal `json:"total"`
	Notes      string          `json:"notes,omitempty"`
	Lines      []LineResponse  `json:"lines"`
	CreatedAt  time.Time       `json:"created_at"`
	UpdatedAt  time.Time       `json:"updated_at"`
}

// ToSalesOrderResponse converts a domain SalesOrder to SalesOrderResponse
func ToSalesOrderResponse(o *trade.SalesOrder) SalesOrderResponse {
	return SalesOrderResponse{
		ID:         o.ID,
		TenantID:   o.TenantID,
		Numero:     o.Numero,
		ClientID:   o.ClientID,
		ProposalID: o.ProposalID,
		OrderDate:  o.OrderDate,
		Status:     o.Status.String(),
		Total:      o.Total,
		Notes:      o.Notes,
		Lines:      toLineResponses(o.Lines),
		CreatedAt:  o.CreatedAt,
		UpdatedAt:  o.UpdatedAt,
	}
}

// ==================== Purchase Order DTOs ====================

// PurchaseOrderResponse represents a purchase order in API responses
type PurchaseOrderResponse struct {
	ID           uuid.UUID       `json:"id"`
	TenantID     *uuid.UUID      `json:"tenant_id,omitempty"`
	Numero       string          `json:"numero"`
	SupplierID   uuid.UUID       `json:"supplier_id"`
	SalesOrderID *uuid.UUID      `json:"sales_order_id,omitempty"`
	OrderDate    time.Time       `json:"order_date"`
	Status       string          `json:"status"`
	Total        decimal.Decimal `json:"total"`
	Lines        []LineResponse  `json:"lines"`
	CreatedAt    time.Time       `json:"created_at"`
	UpdatedAt    time.Time       `json:"updated_at"`
}

// ToPurchaseOrderResponse converts a domain PurchaseOrder to PurchaseOrderResponse
func ToPurchaseOrderResponse(po *trade.PurchaseOrder) PurchaseOrderResponse {
	return PurchaseOrderResponse{
		ID:           po.ID,
		TenantID:     po.TenantID,
		Numero:       po.Numero,
		SupplierID:   po.SupplierID,
		SalesOrderID: po.SalesOrderID,
		OrderDate:    po.OrderDate,
		Status:       po.Status.String(),
		Total:        po.Total,
		Lines:        toLineResponses(po.Lines),
		CreatedAt:    po.CreatedAt,
		UpdatedAt:    po.UpdatedAt,
	}
}

// ConversionResult reports the documents produced by a conversion
type ConversionResult struct {
	SalesOrderID uuid.UUID               `json:"sales_order_id"`
	Count        int                     `json:"count"`
	Orders       []PurchaseOrderResponse `json:"purchase_orders"`
}
