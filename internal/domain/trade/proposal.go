package trade

import (
	"time"

	"github.com/erp/backoffice/internal/domain/numbering"
	"github.com/erp/backoffice/internal/domain/shared"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// DefaultValidityDays is added to the proposal date when closing without a validity date
const DefaultValidityDays = 30

// ProposalStatus represents the status of a proposal
type ProposalStatus string

const (
	ProposalStatusDraft  ProposalStatus = "DRAFT"
	ProposalStatusClosed ProposalStatus = "CLOSED"
)

// IsValid checks if the status is a valid ProposalStatus
func (s ProposalStatus) IsValid() bool {
	return s == ProposalStatusDraft || s == ProposalStatusClosed
}

// String returns the string representation of ProposalStatus
func (s ProposalStatus) String() string {
	return string(s)
}

// Domain errors raised by proposals
var (
	ErrProposalNotFound    = shared.NewDomainErrorOfKind(shared.KindNotFound, "PROPOSAL_NOT_FOUND", "Proposal not found")
	ErrCloseWithoutLines   = shared.NewDomainError("PROPOSAL_NO_LINES", "Cannot close without lines")
	ErrDocumentImmutable   = shared.NewDomainError("DOCUMENT_IMMUTABLE", "Closed documents are immutable")
	ErrProposalNotClosed   = shared.NewDomainError("PROPOSAL_NOT_CLOSED", "Only closed proposals can be converted")
	ErrProposalConverted   = shared.NewDomainError("PROPOSAL_ALREADY_CONVERTED", "Proposal was already converted into a sales order")
	ErrInvalidValidityDate = shared.NewDomainError("INVALID_VALIDITY_DATE", "Validity date cannot precede the proposal date")
)

// Proposal is a quotation, draft until closed
type Proposal struct {
	shared.TenantAggregateRoot
	Numero       string
	ClientID     uuid.UUID
	ProposalDate *time.Time
	ValidUntil   *time.Time
	Status       ProposalStatus
	Total        decimal.Decimal
	Notes        string
	Lines        []DocumentLine
}

// NewProposal creates a draft proposal for clientID
func NewProposal(tc shared.TenantContext, clientID uuid.UUID, proposalDate, validUntil *time.Time, notes string, now time.Time) (*Proposal, error) {
	if clientID == uuid.Nil {
		return nil, shared.NewDomainError("INVALID_CLIENT", "Client cannot be empty")
	}
	if err := checkValidity(proposalDate, validUntil); err != nil {
		return nil, err
	}
	return &Proposal{
		TenantAggregateRoot: shared.NewTenantAggregateRoot(tc, now),
		ClientID:            clientID,
		ProposalDate:        dateOrNil(proposalDate),
		ValidUntil:          dateOrNil(validUntil),
		Status:              ProposalStatusDraft,
		Total:               decimal.Zero,
		Notes:               notes,
	}, nil
}

// ReplaceLines discards every line and recreates the set from inputs
func (p *Proposal) ReplaceLines(inputs []LineInput, now time.Time) error {
	if !p.IsDraft() {
		return ErrDocumentImmutable
	}
	lines, err := BuildLines(inputs)
	if err != nil {
		return err
	}
	p.Lines = lines
	p.recalculateTotals()
	p.Touch(now)
	return nil
}

// NeedsClosing reports whether Close has work to do. A closed proposal needs
// nothing; a draft without lines cannot be closed.
func (p *Proposal) NeedsClosing() (bool, error) {
	if p.IsClosed() {
		return false, nil
	}
	if len(p.Lines) == 0 {
		return false, ErrCloseWithoutLines
	}
	return true, nil
}

// Close stamps numero, defaults missing dates and freezes the proposal.
// Closing an already closed proposal changes nothing.
func (p *Proposal) Close(n numbering.Number, today time.Time) error {
	needs, err := p.NeedsClosing()
	if err != nil || !needs {
		return err
	}
	if p.ProposalDate == nil {
		d := shared.DateOf(today)
		p.ProposalDate = &d
	}
	if p.ValidUntil == nil {
		v := p.ProposalDate.AddDate(0, 0, DefaultValidityDays)
		p.ValidUntil = &v
	}
	p.Numero = n.Formatted
	p.Status = ProposalStatusClosed
	p.Touch(today)
	p.AddDomainEvent(NewProposalClosedEvent(p))
	return nil
}

// EnsureDeletable rejects deletion of closed proposals
func (p *Proposal) EnsureDeletable() error {
	if p.IsClosed() {
		return ErrDocumentImmutable
	}
	return nil
}

// EnsureConvertible checks the preconditions of conversion into a sales order
func (p *Proposal) EnsureConvertible() error {
	if !p.IsClosed() {
		return ErrProposalNotClosed
	}
	if len(p.Lines) == 0 {
		return ErrCloseWithoutLines
	}
	return nil
}

// Ref returns the tagged reference of the proposal
func (p *Proposal) Ref() DocumentRef {
	return ProposalRef(p.ID)
}

// IsDraft returns true if the proposal is a draft
func (p *Proposal) IsDraft() bool {
	return p.Status == ProposalStatusDraft
}

// IsClosed returns true if the proposal is closed
func (p *Proposal) IsClosed() bool {
	return p.Status == ProposalStatusClosed
}

func (p *Proposal) recalculateTotals() {
	p.Total = SumLineTotals(p.Lines)
}

func checkValidity(date, validUntil *time.Time) error {
	if date != nil && validUntil != nil && shared.DateOf(*validUntil).Before(shared.DateOf(*date)) {
		return ErrInvalidValidityDate
	}
	return nil
}

func dateOrNil(t *time.Time) *time.Time {
	if t == nil {
		return nil
	}
	d := shared.DateOf(*t)
	return &d
}
