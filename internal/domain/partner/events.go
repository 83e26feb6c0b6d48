package partner

import (
	"github.com/erp/backoffice/internal/domain/shared"
)

// Aggregate type constant for Party
const AggregateTypeParty = "Party"

// Event type constants for Party
const (
	EventTypePartyCreated = "PartyCreated"
	EventTypePartyUpdated = "PartyUpdated"
	EventTypePartyDeleted = "PartyDeleted"
)

// PartyEvent carries the non-sensitive identity of a party. Contact data and
// tax ids never travel in events.
type PartyEvent struct {
	shared.BaseDomainEvent
	Numero     int64 `json:"numero"`
	IsClient   bool  `json:"is_client"`
	IsSupplier bool  `json:"is_supplier"`
}

func newPartyEvent(eventType string, p *Party) *PartyEvent {
	return &PartyEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(eventType, AggregateTypeParty, p.ID, p.TenantID, p.UpdatedAt),
		Numero:          p.Numero,
		IsClient:        p.IsClient,
		IsSupplier:      p.IsSupplier,
	}
}
