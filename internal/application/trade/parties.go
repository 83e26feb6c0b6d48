package trade

import (
	"context"
	"errors"

	"github.com/erp/backoffice/internal/domain/partner"
	"github.com/erp/backoffice/internal/domain/shared"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// PartyLookup is the read-only view of the party directory used to validate
// document counterparties. partner.DirectoryService satisfies it.
type PartyLookup interface {
	Lookup(ctx context.Context, tc shared.TenantContext, id uuid.UUID) (*partner.Party, error)
}

// Counterparty errors
var (
	ErrClientInvalid   = shared.NewDomainError("INVALID_CLIENT", "Client must be an active client of this tenant")
	ErrSupplierInvalid = shared.NewDomainError("INVALID_SUPPLIER", "Supplier must be an active supplier of this tenant")
)

func requireClient(ctx context.Context, parties PartyLookup, tc shared.TenantContext, id uuid.UUID) error {
	p, err := parties.Lookup(ctx, tc, id)
	if errors.Is(err, partner.ErrPartyNotFound) {
		return ErrClientInvalid
	}
	if err != nil {
		return err
	}
	if !p.IsClient || !p.IsActive() {
		return ErrClientInvalid
	}
	return nil
}

func requireSuppliers(ctx context.Context, parties PartyLookup, tc shared.TenantContext, ids []uuid.UUID) error {
	for _, id := range ids {
		p, err := parties.Lookup(ctx, tc, id)
		if errors.Is(err, partner.ErrPartyNotFound) {
			return ErrSupplierInvalid
		}
		if err != nil {
			return err
		}
		if !p.IsSupplier || !p.IsActive() {
			return ErrSupplierInvalid
		}
	}
	return nil
}

type eventSource interface {
	GetDomainEvents() []shared.DomainEvent
	ClearDomainEvents()
}

// publishEvents hands the events collected by aggregates to the publisher
// once their transaction has committed
func publishEvents(ctx context.Context, publisher shared.EventPublisher, logger *zap.Logger, aggregates ...eventSource) {
	var events []shared.DomainEvent
	for _, a := range aggregates {
		events = append(events, a.GetDomainEvents()...)
		a.ClearDomainEvents()
	}
	if publisher == nil || len(events) == 0 {
		return
	}
	if err := publisher.Publish(ctx, events...); err != nil {
		logger.Warn("failed to publish trade events", zap.Error(err), zap.Int("events", len(events)))
	}
}
