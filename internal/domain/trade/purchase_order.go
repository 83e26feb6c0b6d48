package trade

import (
	"time"

	"github.com/erp/backoffice/internal/domain/numbering"
	"github.com/erp/backoffice/internal/domain/shared"
	"github.com/google/uuid"
	"github.com/samber/lo"
	"github.com/shopspring/decimal"
)

// PurchaseOrderStatus represents the status of a purchase order
type PurchaseOrderStatus string

const (
	PurchaseOrderStatusDraft  PurchaseOrderStatus = "DRAFT"
	PurchaseOrderStatusClosed PurchaseOrderStatus = "CLOSED"
	PurchaseOrderStatusPaid   PurchaseOrderStatus = "PAID"
)

// IsValid checks if the status is a valid PurchaseOrderStatus
func (s PurchaseOrderStatus) IsValid() bool {
	switch s {
	case PurchaseOrderStatusDraft, PurchaseOrderStatusClosed, PurchaseOrderStatusPaid:
		return true
	}
	return false
}

// String returns the string representation of PurchaseOrderStatus
func (s PurchaseOrderStatus) String() string {
	return string(s)
}

// CanTransitionTo checks if the status can transition to the target status
func (s PurchaseOrderStatus) CanTransitionTo(target PurchaseOrderStatus) bool {
	switch s {
	case PurchaseOrderStatusDraft:
		return target == PurchaseOrderStatusClosed
	case PurchaseOrderStatusClosed:
		return target == PurchaseOrderStatusPaid
	}
	return false
}

// ErrPurchaseOrderNotFound is returned for unknown purchase orders
var ErrPurchaseOrderNotFound = shared.NewDomainErrorOfKind(shared.KindNotFound, "PURCHASE_ORDER_NOT_FOUND", "Purchase order not found")

// PurchaseOrder is a per-supplier order generated from a sales order
type PurchaseOrder struct {
	shared.TenantAggregateRoot
	Numero       string
	SupplierID   uuid.UUID
	SalesOrderID *uuid.UUID
	OrderDate    time.Time
	Status       PurchaseOrderStatus
	Total        decimal.Decimal
	Lines        []DocumentLine
}

// NewPurchaseOrderFromGroup creates a draft purchase order for one supplier
// group of origin, copying article, description, quantity, unit price and
// line total of every line.
func NewPurchaseOrderFromGroup(tc shared.TenantContext, origin *SalesOrder, g SupplierGroup, n numbering.Number, today, now time.Time) (*PurchaseOrder, error) {
	if g.SupplierID == uuid.Nil || len(g.Lines) == 0 {
		return nil, shared.ErrInvariant.Wrap(shared.NewDomainError("EMPTY_SUPPLIER_GROUP", "supplier group without lines"))
	}
	originID := origin.ID
	po := &PurchaseOrder{
		TenantAggregateRoot: shared.NewTenantAggregateRoot(tc, now),
		Numero:              n.Formatted,
		SupplierID:          g.SupplierID,
		SalesOrderID:        &originID,
		OrderDate:           shared.DateOf(today),
		Status:              PurchaseOrderStatusDraft,
		Lines: lo.Map(g.Lines, func(l DocumentLine, i int) DocumentLine {
			return DocumentLine{
				ID:          uuid.New(),
				Position:    i + 1,
				ArticleID:   cloneUUID(l.ArticleID),
				Description: l.Description,
				Quantity:    l.Quantity,
				UnitPrice:   l.UnitPrice,
				SupplierID:  cloneUUID(l.SupplierID),
				LineTotal:   l.LineTotal,
			}
		}),
	}
	po.Total = SumLineTotals(po.Lines)
	po.AddDomainEvent(NewPurchaseOrderCreatedEvent(po))
	return po, nil
}

// Close moves a draft purchase order to closed
func (po *PurchaseOrder) Close(now time.Time) error {
	return po.transition(PurchaseOrderStatusClosed, now)
}

// MarkPaid moves a closed purchase order to paid
func (po *PurchaseOrder) MarkPaid(now time.Time) error {
	return po.transition(PurchaseOrderStatusPaid, now)
}

func (po *PurchaseOrder) transition(target PurchaseOrderStatus, now time.Time) error {
	if !po.Status.CanTransitionTo(target) {
		return shared.NewDomainError("INVALID_STATE", "Cannot move purchase order from "+po.Status.String()+" to "+target.String())
	}
	from := po.Status
	po.Status = target
	po.Touch(now)
	po.AddDomainEvent(NewPurchaseOrderStatusChangedEvent(po, from))
	return nil
}

// Origin returns the sales order this purchase order was generated from
func (po *PurchaseOrder) Origin() (DocumentRef, bool) {
	if po.SalesOrderID == nil {
		return DocumentRef{}, false
	}
	return SalesOrderRef(*po.SalesOrderID), true
}

// Ref returns the tagged reference of the purchase order
func (po *PurchaseOrder) Ref() DocumentRef {
	return PurchaseOrderRef(po.ID)
}
