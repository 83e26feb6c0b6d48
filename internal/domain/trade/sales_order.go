package trade

import (
	"time"

	"github.com/erp/backoffice/internal/domain/numbering"
	"github.com/erp/backoffice/internal/domain/shared"
	"github.com/google/uuid"
	"github.com/samber/lo"
	"github.com/shopspring/decimal"
)

// SalesOrderStatus represents the status of a sales order
type SalesOrderStatus string

const (
	SalesOrderStatusDraft  SalesOrderStatus = "DRAFT"
	SalesOrderStatusClosed SalesOrderStatus = "CLOSED"
)

// IsValid checks if the status is a valid SalesOrderStatus
func (s SalesOrderStatus) IsValid() bool {
	return s == SalesOrderStatusDraft || s == SalesOrderStatusClosed
}

// String returns the string representation of SalesOrderStatus
func (s SalesOrderStatus) String() string {
	return string(s)
}

// Domain errors raised by sales orders
var (
	ErrSalesOrderNotFound   = shared.NewDomainErrorOfKind(shared.KindNotFound, "SALES_ORDER_NOT_FOUND", "Sales order not found")
	ErrSalesOrderNotClosed  = shared.NewDomainError("SALES_ORDER_NOT_CLOSED", "Only closed sales orders can be converted into purchase orders")
	ErrSalesOrderConverted  = shared.NewDomainError("SALES_ORDER_ALREADY_CONVERTED", "Purchase orders were already generated for this sales order")
	ErrNoSupplierLines      = shared.NewDomainError("NO_SUPPLIER_LINES", "No line of the sales order has a supplier")
	ErrSalesOrderLineAbsent = shared.NewDomainErrorOfKind(shared.KindNotFound, "SALES_ORDER_LINE_NOT_FOUND", "Sales order line not found")
)

// SalesOrder is a confirmed client order
type SalesOrder struct {
	shared.TenantAggregateRoot
	Numero     string
	ClientID   uuid.UUID
	ProposalID *uuid.UUID
	OrderDate  *time.Time
	Status     SalesOrderStatus
	Total      decimal.Decimal
	Notes      string
	Lines      []DocumentLine
}

// NewSalesOrderFromProposal creates a draft sales order carrying verbatim
// copies of the proposal's lines. The proposal itself is not modified.
func NewSalesOrderFromProposal(tc shared.TenantContext, p *Proposal, now time.Time) (*SalesOrder, error) {
	if err := p.EnsureConvertible(); err != nil {
		return nil, err
	}
	proposalID := p.ID
	o := &SalesOrder{
		TenantAggregateRoot: shared.NewTenantAggregateRoot(tc, now),
		ClientID:            p.ClientID,
		ProposalID:          &proposalID,
		Status:              SalesOrderStatusDraft,
		Notes:               p.Notes,
		Lines:               lo.Map(p.Lines, func(l DocumentLine, _ int) DocumentLine { return CopyLine(l) }),
	}
	o.recalculateTotals()
	o.AddDomainEvent(NewSalesOrderCreatedEvent(o))
	return o, nil
}

// ReplaceLines discards every line and recreates the set from inputs
func (o *SalesOrder) ReplaceLines(inputs []LineInput, now time.Time) error {
	if !o.IsDraft() {
		return ErrDocumentImmutable
	}
	lines, err := BuildLines(inputs)
	if err != nil {
		return err
	}
	o.Lines = lines
	o.recalculateTotals()
	o.Touch(now)
	return nil
}

// AssignLineSupplier sets or clears the supplier of one line
func (o *SalesOrder) AssignLineSupplier(lineID uuid.UUID, supplierID *uuid.UUID, now time.Time) error {
	if !o.IsDraft() {
		return ErrDocumentImmutable
	}
	for i := range o.Lines {
		if o.Lines[i].ID == lineID {
			o.Lines[i].SupplierID = cloneUUID(supplierID)
			o.Touch(now)
			return nil
		}
	}
	return ErrSalesOrderLineAbsent
}

// NeedsClosing reports whether Close has work to do
func (o *SalesOrder) NeedsClosing() bool {
	return o.IsDraft()
}

// Close stamps numero and the order date and freezes the order
func (o *SalesOrder) Close(n numbering.Number, today time.Time) error {
	if !o.NeedsClosing() {
		return nil
	}
	if o.OrderDate == nil {
		d := shared.DateOf(today)
		o.OrderDate = &d
	}
	o.Numero = n.Formatted
	o.Status = SalesOrderStatusClosed
	o.Touch(today)
	o.AddDomainEvent(NewSalesOrderClosedEvent(o))
	return nil
}

// EnsureDeletable rejects deletion of closed orders
func (o *SalesOrder) EnsureDeletable() error {
	if o.IsClosed() {
		return ErrDocumentImmutable
	}
	return nil
}

// SupplierGroup is the set of lines of one supplier, in document order
type SupplierGroup struct {
	SupplierID uuid.UUID
	Lines      []DocumentLine
	Total      decimal.Decimal
}

// SupplierGroups partitions the supplier-tagged lines by supplier. Groups
// come in order of first appearance; lines keep their document order. Lines
// without a supplier are left out.
func (o *SalesOrder) SupplierGroups() []SupplierGroup {
	tagged := lo.Filter(o.Lines, func(l DocumentLine, _ int) bool { return l.SupplierID != nil })
	bySupplier := lo.GroupBy(tagged, func(l DocumentLine) uuid.UUID { return *l.SupplierID })
	order := lo.Uniq(lo.Map(tagged, func(l DocumentLine, _ int) uuid.UUID { return *l.SupplierID }))

	return lo.Map(order, func(id uuid.UUID, _ int) SupplierGroup {
		lines := bySupplier[id]
		return SupplierGroup{SupplierID: id, Lines: lines, Total: SumLineTotals(lines)}
	})
}

// SupplierLinesTotal sums the totals of the lines that carry a supplier
func (o *SalesOrder) SupplierLinesTotal() (decimal.Decimal, int) {
	tagged := lo.Filter(o.Lines, func(l DocumentLine, _ int) bool { return l.SupplierID != nil })
	return SumLineTotals(tagged), len(tagged)
}

// Origin returns the proposal this order was converted from, if any
func (o *SalesOrder) Origin() (DocumentRef, bool) {
	if o.ProposalID == nil {
		return DocumentRef{}, false
	}
	return ProposalRef(*o.ProposalID), true
}

// Ref returns the tagged reference of the order
func (o *SalesOrder) Ref() DocumentRef {
	return SalesOrderRef(o.ID)
}

// IsDraft returns true if the order is a draft
func (o *SalesOrder) IsDraft() bool {
	return o.Status == SalesOrderStatusDraft
}

// IsClosed returns true if the order is closed
func (o *SalesOrder) IsClosed() bool {
	return o.Status == SalesOrderStatusClosed
}

func (o *SalesOrder) recalculateTotals() {
	o.Total = SumLineTotals(o.Lines)
}
