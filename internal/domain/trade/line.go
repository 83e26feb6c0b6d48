package trade

import (
	"strings"

	"github.com/erp/backoffice/internal/domain/shared"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// MoneyPlaces is the number of decimal places of every monetary amount
const MoneyPlaces = 2

// InputPlaces is the stored scale of quantities and prices
const InputPlaces = 4

// LineInput is a line as submitted by a caller
type LineInput struct {
	ArticleID   *uuid.UUID
	Description string
	Quantity    decimal.Decimal
	UnitPrice   decimal.Decimal
	SupplierID  *uuid.UUID
	CostPrice   *decimal.Decimal
}

// DocumentLine is a line of a proposal, sales order or purchase order
type DocumentLine struct {
	ID          uuid.UUID
	Position    int
	ArticleID   *uuid.UUID
	Description string
	Quantity    decimal.Decimal
	UnitPrice   decimal.Decimal
	SupplierID  *uuid.UUID
	CostPrice   *decimal.Decimal
	LineTotal   decimal.Decimal
}

// LineTotal returns quantity × unitPrice rounded to cents, half away from zero
func LineTotal(quantity, unitPrice decimal.Decimal) decimal.Decimal {
	return quantity.Mul(unitPrice).Round(MoneyPlaces)
}

// exceedsScale reports whether d would be rounded when stored
func exceedsScale(d decimal.Decimal) bool {
	return !d.Equal(d.Truncate(InputPlaces))
}

// SumLineTotals adds already-rounded line totals. The sum is not rounded again.
func SumLineTotals(lines []DocumentLine) decimal.Decimal {
	total := decimal.Zero
	for _, l := range lines {
		total = total.Add(l.LineTotal)
	}
	return total
}

// NewDocumentLine validates in and computes its total
func NewDocumentLine(in LineInput, position int) (DocumentLine, error) {
	desc := strings.TrimSpace(in.Description)
	if desc == "" {
		return DocumentLine{}, shared.NewDomainError("INVALID_LINE_DESCRIPTION", "Line description cannot be empty")
	}
	if in.Quantity.LessThanOrEqual(decimal.Zero) {
		return DocumentLine{}, shared.NewDomainError("INVALID_QUANTITY", "Quantity must be positive")
	}
	if in.UnitPrice.IsNegative() {
		return DocumentLine{}, shared.NewDomainError("INVALID_PRICE", "Unit price cannot be negative")
	}
	if in.CostPrice != nil && in.CostPrice.IsNegative() {
		return DocumentLine{}, shared.NewDomainError("INVALID_COST_PRICE", "Cost price cannot be negative")
	}
	if exceedsScale(in.Quantity) || exceedsScale(in.UnitPrice) || (in.CostPrice != nil && exceedsScale(*in.CostPrice)) {
		return DocumentLine{}, shared.NewDomainError("INVALID_SCALE", "Quantities and prices allow at most 4 decimal places")
	}
	return DocumentLine{
		ID:          uuid.New(),
		Position:    position,
		ArticleID:   cloneUUID(in.ArticleID),
		Description: desc,
		Quantity:    in.Quantity,
		UnitPrice:   in.UnitPrice,
		SupplierID:  cloneUUID(in.SupplierID),
		CostPrice:   cloneDecimal(in.CostPrice),
		LineTotal:   LineTotal(in.Quantity, in.UnitPrice),
	}, nil
}

// BuildLines turns inputs into positioned lines, failing on the first invalid one
func BuildLines(inputs []LineInput) ([]DocumentLine, error) {
	lines := make([]DocumentLine, 0, len(inputs))
	for i, in := range inputs {
		l, err := NewDocumentLine(in, i+1)
		if err != nil {
			return nil, err
		}
		lines = append(lines, l)
	}
	return lines, nil
}

// CopyLine returns a verbatim copy of l under a new identity. The line total
// is carried over, never recomputed.
func CopyLine(l DocumentLine) DocumentLine {
	c := l
	c.ID = uuid.New()
	c.ArticleID = cloneUUID(l.ArticleID)
	c.SupplierID = cloneUUID(l.SupplierID)
	c.CostPrice = cloneDecimal(l.CostPrice)
	return c
}

func cloneUUID(id *uuid.UUID) *uuid.UUID {
	if id == nil {
		return nil
	}
	c := *id
	return &c
}

func cloneDecimal(d *decimal.Decimal) *decimal.Decimal {
	if d == nil {
		return nil
	}
	c := *d
	return &c
}
