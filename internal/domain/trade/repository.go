package trade

import (
	"context"

	"github.com/erp/backoffice/internal/domain/shared"
	"github.com/google/uuid"
)

// ProposalRepository defines the interface for proposal persistence.
// Every method is scoped by tc; rows of other tenants read as not found.
type ProposalRepository interface {
	// FindByID loads a proposal with its lines
	FindByID(ctx context.Context, tc shared.TenantContext, id uuid.UUID) (*Proposal, error)
	// FindByIDForUpdate loads a proposal and locks its row until the transaction ends
	FindByIDForUpdate(ctx context.Context, tc shared.TenantContext, id uuid.UUID) (*Proposal, error)
	// Create inserts a proposal with its lines
	Create(ctx context.Context, tc shared.TenantContext, p *Proposal) error
	// Update persists header changes and replaces the line set
	Update(ctx context.Context, tc shared.TenantContext, p *Proposal) error
	// Delete removes a proposal and its lines
	Delete(ctx context.Context, tc shared.TenantContext, id uuid.UUID) error
}

// SalesOrderRepository defines the interface for sales order persistence
type SalesOrderRepository interface {
	FindByID(ctx context.Context, tc shared.TenantContext, id uuid.UUID) (*SalesOrder, error)
	FindByIDForUpdate(ctx context.Context, tc shared.TenantContext, id uuid.UUID) (*SalesOrder, error)
	// ExistsForProposal reports whether a sales order references proposalID
	ExistsForProposal(ctx context.Context, tc shared.TenantContext, proposalID uuid.UUID) (bool, error)
	Create(ctx context.Context, tc shared.TenantContext, o *SalesOrder) error
	Update(ctx context.Context, tc shared.TenantContext, o *SalesOrder) error
	Delete(ctx context.Context, tc shared.TenantContext, id uuid.UUID) error
}

// PurchaseOrderRepository defines the interface for purchase order persistence
type PurchaseOrderRepository interface {
	FindByID(ctx context.Context, tc shared.TenantContext, id uuid.UUID) (*PurchaseOrder, error)
	FindByIDForUpdate(ctx context.Context, tc shared.TenantContext, id uuid.UUID) (*PurchaseOrder, error)
	// FindBySalesOrder lists the purchase orders generated from salesOrderID by numero
	FindBySalesOrder(ctx context.Context, tc shared.TenantContext, salesOrderID uuid.UUID) ([]PurchaseOrder, error)
	// CountBySalesOrder counts the purchase orders referencing salesOrderID
	CountBySalesOrder(ctx context.Context, tc shared.TenantContext, salesOrderID uuid.UUID) (int64, error)
	Create(ctx context.Context, tc shared.TenantContext, po *PurchaseOrder) error
	// UpdateStatus persists a state transition
	UpdateStatus(ctx context.Context, tc shared.TenantContext, po *PurchaseOrder) error
}
