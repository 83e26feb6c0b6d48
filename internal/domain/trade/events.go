package trade

import (
	"github.com/erp/backoffice/internal/domain/shared"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Aggregate type constants
const (
	AggregateTypeProposal      = "Proposal"
	AggregateTypeSalesOrder    = "SalesOrder"
	AggregateTypePurchaseOrder = "PurchaseOrder"
)

// Event type constants
const (
	EventTypeProposalClosed             = "ProposalClosed"
	EventTypeSalesOrderCreated          = "SalesOrderCreated"
	EventTypeSalesOrderClosed           = "SalesOrderClosed"
	EventTypePurchaseOrderCreated       = "PurchaseOrderCreated"
	EventTypePurchaseOrderStatusChanged = "PurchaseOrderStatusChanged"
)

// ProposalClosedEvent is raised when a proposal is numbered and frozen
type ProposalClosedEvent struct {
	shared.BaseDomainEvent
	Numero string          `json:"numero"`
	Total  decimal.Decimal `json:"total"`
}

// NewProposalClosedEvent creates a new ProposalClosedEvent
func NewProposalClosedEvent(p *Proposal) *ProposalClosedEvent {
	return &ProposalClosedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypeProposalClosed, AggregateTypeProposal, p.ID, p.TenantID, p.UpdatedAt),
		Numero:          p.Numero,
		Total:           p.Total,
	}
}

// SalesOrderCreatedEvent is raised when a sales order is created from a proposal
type SalesOrderCreatedEvent struct {
	shared.BaseDomainEvent
	Origin DocumentRef     `json:"origin"`
	Total  decimal.Decimal `json:"total"`
}

// NewSalesOrderCreatedEvent creates a new SalesOrderCreatedEvent
func NewSalesOrderCreatedEvent(o *SalesOrder) *SalesOrderCreatedEvent {
	origin, _ := o.Origin()
	return &SalesOrderCreatedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypeSalesOrderCreated, AggregateTypeSalesOrder, o.ID, o.TenantID, o.CreatedAt),
		Origin:          origin,
		Total:           o.Total,
	}
}

// SalesOrderClosedEvent is raised when a sales order is numbered and frozen
type SalesOrderClosedEvent struct {
	shared.BaseDomainEvent
	Numero string          `json:"numero"`
	Total  decimal.Decimal `json:"total"`
}

// NewSalesOrderClosedEvent creates a new SalesOrderClosedEvent
func NewSalesOrderClosedEvent(o *SalesOrder) *SalesOrderClosedEvent {
	return &SalesOrderClosedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypeSalesOrderClosed, AggregateTypeSalesOrder, o.ID, o.TenantID, o.UpdatedAt),
		Numero:          o.Numero,
		Total:           o.Total,
	}
}

// PurchaseOrderCreatedEvent is raised for every purchase order generated by a conversion
type PurchaseOrderCreatedEvent struct {
	shared.BaseDomainEvent
	Numero     string          `json:"numero"`
	SupplierID uuid.UUID       `json:"supplier_id"`
	Origin     DocumentRef     `json:"origin"`
	Total      decimal.Decimal `json:"total"`
}

// NewPurchaseOrderCreatedEvent creates a new PurchaseOrderCreatedEvent
func NewPurchaseOrderCreatedEvent(po *PurchaseOrder) *PurchaseOrderCreatedEvent {
	origin, _ := po.Origin()
	return &PurchaseOrderCreatedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypePurchaseOrderCreated, AggregateTypePurchaseOrder, po.ID, po.TenantID, po.CreatedAt),
		Numero:          po.Numero,
		SupplierID:      po.SupplierID,
		Origin:          origin,
		Total:           po.Total,
	}
}

// PurchaseOrderStatusChangedEvent is raised on purchase order state transitions
type PurchaseOrderStatusChangedEvent struct {
	shared.BaseDomainEvent
	From PurchaseOrderStatus `json:"from"`
	To   PurchaseOrderStatus `json:"to"`
}

// NewPurchaseOrderStatusChangedEvent creates a new PurchaseOrderStatusChangedEvent
func NewPurchaseOrderStatusChangedEvent(po *PurchaseOrder, from PurchaseOrderStatus) *PurchaseOrderStatusChangedEvent {
	return &PurchaseOrderStatusChangedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypePurchaseOrderStatusChanged, AggregateTypePurchaseOrder, po.ID, po.TenantID, po.UpdatedAt),
		From:            from,
		To:              po.Status,
	}
}
