// Package numbering models tenant-scoped document counters and the
// human-readable numbers rendered from them.
package numbering

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/erp/backoffice/internal/domain/shared"
)

// DefaultPad is the zero-padding width used when a counter does not set one
const DefaultPad = 4

// Counter keys
const (
	KeyProposals      = "proposals"
	KeyEntities       = "entities"
	keySalesOrders    = "sales_orders"
	keyPurchaseOrders = "purchase_orders"
)

// Document prefixes
const (
	PrefixSalesOrder    = "EC"
	PrefixPurchaseOrder = "EF"
)

// Counter names a counter family and how its values are rendered
type Counter struct {
	Key    string
	Prefix string
	Pad    int
	// Year is rendered between prefix and value; required when Prefix is set
	Year int
}

// Proposals numbers closed proposals: 1, 2, 3...
func Proposals() Counter {
	return Counter{Key: KeyProposals, Pad: 1}
}

// Entities numbers parties: 1, 2, 3...
func Entities() Counter {
	return Counter{Key: KeyEntities, Pad: 1}
}

// SalesOrders numbers sales orders of a year: EC-2025-0001
func SalesOrders(year int) Counter {
	return Counter{Key: fmt.Sprintf("%s_%d", keySalesOrders, year), Prefix: PrefixSalesOrder, Pad: DefaultPad, Year: year}
}

// PurchaseOrders numbers purchase orders of a year: EF-2025-0001
func PurchaseOrders(year int) Counter {
	return Counter{Key: fmt.Sprintf("%s_%d", keyPurchaseOrders, year), Prefix: PrefixPurchaseOrder, Pad: DefaultPad, Year: year}
}

// Validate checks the counter definition
func (c Counter) Validate() error {
	if strings.TrimSpace(c.Key) == "" {
		return shared.NewDomainError("INVALID_COUNTER", "Counter key cannot be empty")
	}
	if c.Pad < 0 {
		return shared.NewDomainError("INVALID_COUNTER", "Counter pad cannot be negative")
	}
	if c.Prefix != "" && (c.Year < 1000 || c.Year > 9999) {
		return shared.NewDomainError("INVALID_COUNTER", "Prefixed counters need a four digit year")
	}
	return nil
}

func (c Counter) pad() int {
	if c.Pad == 0 {
		return DefaultPad
	}
	return c.Pad
}

// Format renders value using the counter's prefix, year and padding.
// Values wider than the pad are never truncated.
func (c Counter) Format(value int64) string {
	digits := strconv.FormatInt(value, 10)
	if n := c.pad() - len(digits); n > 0 {
		digits = strings.Repeat("0", n) + digits
	}
	if c.Prefix == "" {
		return digits
	}
	return fmt.Sprintf("%s-%04d-%s", c.Prefix, c.Year, digits)
}

// Number is an allocated counter value with its rendering
type Number struct {
	Value     int64
	Formatted string
}

// String returns the formatted number
func (n Number) String() string {
	return n.Formatted
}

// NewNumber renders value with c
func NewNumber(c Counter, value int64) Number {
	return Number{Value: value, Formatted: c.Format(value)}
}
