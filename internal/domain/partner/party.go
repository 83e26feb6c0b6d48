package partner

import (
	"strings"
	"time"

	"github.com/erp/backoffice/internal/domain/numbering"
	"github.com/erp/backoffice/internal/domain/shared"
)

// Consent records whether the party agreed to have contact data shown
type Consent string

const (
	ConsentYes Consent = "yes"
	ConsentNo  Consent = "no"
)

// IsValid checks if the consent value is known
func (c Consent) IsValid() bool {
	return c == ConsentYes || c == ConsentNo
}

// PartyState represents the lifecycle state of a party
type PartyState string

const (
	PartyStateActive   PartyState = "active"
	PartyStateInactive PartyState = "inactive"
)

// IsValid checks if the state is a valid PartyState
func (s PartyState) IsValid() bool {
	return s == PartyStateActive || s == PartyStateInactive
}

// Domain errors raised by parties
var (
	ErrPartyNotFound     = shared.NewDomainErrorOfKind(shared.KindNotFound, "PARTY_NOT_FOUND", "Party not found")
	ErrPartyRoleRequired = shared.NewDomainError("PARTY_ROLE_REQUIRED", "A party must be a client, a supplier or both")
	ErrDuplicateTaxID    = shared.NewDomainError("DUPLICATE_TAX_ID", "Another party already uses this tax id")
	ErrTaxIDRequired     = shared.NewDomainError("TAX_ID_REQUIRED", "Tax id must contain at least one digit")
	ErrPartyNameRequired = shared.NewDomainError("PARTY_NAME_REQUIRED", "Party name cannot be empty")
	ErrPartyDeleted      = shared.NewDomainError("PARTY_DELETED", "Party has been deleted")
)

// Party is a client and/or supplier record
type Party struct {
	shared.TenantAggregateRoot
	Numero      int64
	IsClient    bool
	IsSupplier  bool
	Name        string
	Address     string
	PostalCode  string
	Locality    string
	CountryCode string
	Website     string
	Notes       string
	TaxID       Encrypted
	TaxIDHash   string
	Phone       Encrypted
	Mobile      Encrypted
	Email       Encrypted
	Consent     Consent
	State       PartyState
	DeletedAt   *time.Time
}

// PartyDraft carries the cleartext input of a new party
type PartyDraft struct {
	IsClient    bool
	IsSupplier  bool
	Name        string
	Address     string
	PostalCode  string
	Locality    string
	CountryCode string
	Website     string
	Notes       string
	TaxID       string
	Phone       string
	Mobile      string
	Email       string
	Consent     Consent
}

// NewParty validates draft and seals its sensitive fields. The numero is
// assigned separately once a number has been allocated.
func NewParty(tc shared.TenantContext, draft PartyDraft, sealer Sealer, now time.Time) (*Party, error) {
	if !draft.IsClient && !draft.IsSupplier {
		return nil, ErrPartyRoleRequired
	}
	name := strings.TrimSpace(draft.Name)
	if name == "" {
		return nil, ErrPartyNameRequired
	}
	consent := draft.Consent
	if consent == "" {
		consent = ConsentNo
	}
	if !consent.IsValid() {
		return nil, shared.NewDomainError("INVALID_CONSENT", "Consent must be yes or no")
	}

	p := &Party{
		TenantAggregateRoot: shared.NewTenantAggregateRoot(tc, now),
		IsClient:            draft.IsClient,
		IsSupplier:          draft.IsSupplier,
		Name:                name,
		Address:             strings.TrimSpace(draft.Address),
		PostalCode:          strings.TrimSpace(draft.PostalCode),
		Locality:            strings.TrimSpace(draft.Locality),
		CountryCode:         strings.ToUpper(strings.TrimSpace(draft.CountryCode)),
		Website:             strings.TrimSpace(draft.Website),
		Notes:               draft.Notes,
		Consent:             consent,
		State:               PartyStateActive,
	}
	if err := p.setTaxID(draft.TaxID, sealer); err != nil {
		return nil, err
	}
	if err := p.setContacts(&draft.Phone, &draft.Mobile, &draft.Email, sealer); err != nil {
		return nil, err
	}
	return p, nil
}

// AssignNumero stamps the allocated directory number
func (p *Party) AssignNumero(n numbering.Number) {
	p.Numero = n.Value
	p.ClearDomainEvents()
	p.AddDomainEvent(newPartyEvent(EventTypePartyCreated, p))
}

// PartyPatch holds optional changes; nil fields are left untouched
type PartyPatch struct {
	IsClient    *bool
	IsSupplier  *bool
	Name        *string
	Address     *string
	PostalCode  *string
	Locality    *string
	CountryCode *string
	Website     *string
	Notes       *string
	TaxID       *string
	Phone       *string
	Mobile      *string
	Email       *string
	Consent     *Consent
	State       *PartyState
}

// Apply validates and applies patch. It reports whether the tax id changed,
// in which case the caller must re-check hash uniqueness.
func (p *Party) Apply(patch PartyPatch, sealer Sealer, now time.Time) (bool, error) {
	if p.IsDeleted() {
		return false, ErrPartyDeleted
	}
	isClient, isSupplier := p.IsClient, p.IsSupplier
	if patch.IsClient != nil {
		isClient = *patch.IsClient
	}
	if patch.IsSupplier != nil {
		isSupplier = *patch.IsSupplier
	}
	if !isClient && !isSupplier {
		return false, ErrPartyRoleRequired
	}
	if patch.Name != nil && strings.TrimSpace(*patch.Name) == "" {
		return false, ErrPartyNameRequired
	}
	if patch.Consent != nil && !patch.Consent.IsValid() {
		return false, shared.NewDomainError("INVALID_CONSENT", "Consent must be yes or no")
	}
	if patch.State != nil && !patch.State.IsValid() {
		return false, shared.NewDomainError("INVALID_STATE", "State must be active or inactive")
	}

	taxChanged := false
	if patch.TaxID != nil {
		oldHash := p.TaxIDHash
		if err := p.setTaxID(*patch.TaxID, sealer); err != nil {
			return false, err
		}
		taxChanged = p.TaxIDHash != oldHash
	}
	if err := p.setContacts(patch.Phone, patch.Mobile, patch.Email, sealer); err != nil {
		return false, err
	}

	p.IsClient, p.IsSupplier = isClient, isSupplier
	assign(&p.Name, patch.Name, strings.TrimSpace)
	assign(&p.Address, patch.Address, strings.TrimSpace)
	assign(&p.PostalCode, patch.PostalCode, strings.TrimSpace)
	assign(&p.Locality, patch.Locality, strings.TrimSpace)
	assign(&p.CountryCode, patch.CountryCode, func(s string) string { return strings.ToUpper(strings.TrimSpace(s)) })
	assign(&p.Website, patch.Website, strings.TrimSpace)
	assign(&p.Notes, patch.Notes, func(s string) string { return s })
	if patch.Consent != nil {
		p.Consent = *patch.Consent
	}
	if patch.State != nil {
		p.State = *patch.State
	}
	p.Touch(now)
	p.AddDomainEvent(newPartyEvent(EventTypePartyUpdated, p))
	return taxChanged, nil
}

// SoftDelete marks the party deleted; deleted parties are excluded from
// every lookup and from the tax id uniqueness check.
func (p *Party) SoftDelete(now time.Time) {
	if p.DeletedAt != nil {
		return
	}
	t := now
	p.DeletedAt = &t
	p.Touch(now)
	p.AddDomainEvent(newPartyEvent(EventTypePartyDeleted, p))
}

// IsDeleted reports whether the party is soft-deleted
func (p *Party) IsDeleted() bool {
	return p.DeletedAt != nil
}

// IsActive reports whether the party can be used on new documents
func (p *Party) IsActive() bool {
	return p.State == PartyStateActive && !p.IsDeleted()
}

func (p *Party) setTaxID(raw string, sealer Sealer) error {
	normalized := NormalizeTaxID(raw)
	if normalized == "" {
		return ErrTaxIDRequired
	}
	sealed, err := Seal(sealer, normalized)
	if err != nil {
		return err
	}
	p.TaxID = sealed
	p.TaxIDHash = HashTaxID(normalized)
	return nil
}

func (p *Party) setContacts(phone, mobile, email *string, sealer Sealer) error {
	if email != nil {
		e := strings.TrimSpace(*email)
		if e != "" && !strings.Contains(e, "@") {
			return shared.NewDomainError("INVALID_EMAIL", "Email must contain @")
		}
		sealed, err := Seal(sealer, e)
		if err != nil {
			return err
		}
		p.Email = sealed
	}
	for _, f := range []struct {
		in  *string
		out *Encrypted
	}{{phone, &p.Phone}, {mobile, &p.Mobile}} {
		if f.in == nil {
			continue
		}
		sealed, err := Seal(sealer, strings.TrimSpace(*f.in))
		if err != nil {
			return err
		}
		*f.out = sealed
	}
	return nil
}

func assign(dst *string, src *string, clean func(string) string) {
	if src != nil {
		*dst = clean(*src)
	}
}
