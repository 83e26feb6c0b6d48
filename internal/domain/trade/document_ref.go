package trade

import (
	"fmt"
	"strings"

	"github.com/google/uuid"
)

// DocumentKind tags the type of a commercial document
type DocumentKind string

const (
	KindProposal      DocumentKind = "proposal"
	KindSalesOrder    DocumentKind = "sales_order"
	KindPurchaseOrder DocumentKind = "purchase_order"
)

// IsValid checks if the kind is known
func (k DocumentKind) IsValid() bool {
	switch k {
	case KindProposal, KindSalesOrder, KindPurchaseOrder:
		return true
	}
	return false
}

// DocumentRef points at a commercial document of a known kind
type DocumentRef struct {
	Kind DocumentKind `json:"kind"`
	ID   uuid.UUID    `json:"id"`
}

// ProposalRef references a proposal
func ProposalRef(id uuid.UUID) DocumentRef {
	return DocumentRef{Kind: KindProposal, ID: id}
}

// SalesOrderRef references a sales order
func SalesOrderRef(id uuid.UUID) DocumentRef {
	return DocumentRef{Kind: KindSalesOrder, ID: id}
}

// PurchaseOrderRef references a purchase order
func PurchaseOrderRef(id uuid.UUID) DocumentRef {
	return DocumentRef{Kind: KindPurchaseOrder, ID: id}
}

// IsZero reports whether the reference is empty
func (r DocumentRef) IsZero() bool {
	return r.Kind == "" && r.ID == uuid.Nil
}

// String renders kind:id
func (r DocumentRef) String() string {
	if r.IsZero() {
		return ""
	}
	return string(r.Kind) + ":" + r.ID.String()
}

// ParseDocumentRef parses the String form
func ParseDocumentRef(s string) (DocumentRef, error) {
	kind, id, ok := strings.Cut(s, ":")
	if !ok {
		return DocumentRef{}, fmt.Errorf("document ref %q: missing kind", s)
	}
	k := DocumentKind(kind)
	if !k.IsValid() {
		return DocumentRef{}, fmt.Errorf("document ref %q: unknown kind", s)
	}
	u, err := uuid.Parse(id)
	if err != nil {
		return DocumentRef{}, fmt.Errorf("document ref %q: %w", s, err)
	}
	return DocumentRef{Kind: k, ID: u}, nil
}
