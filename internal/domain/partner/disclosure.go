package partner

import (
	"strings"
	"unicode"

	"github.com/google/uuid"
)

// PartyView is the external representation of a party with the disclosure
// policy applied. Sensitive fields are either cleartext or masked; TaxID is
// nil whenever disclosure is not allowed.
type PartyView struct {
	ID          uuid.UUID  `json:"id"`
	TenantID    *uuid.UUID `json:"tenant_id,omitempty"`
	Numero      int64      `json:"numero"`
	IsClient    bool       `json:"is_client"`
	IsSupplier  bool       `json:"is_supplier"`
	Name        string     `json:"name"`
	Address     string     `json:"address,omitempty"`
	PostalCode  string     `json:"postal_code,omitempty"`
	Locality    string     `json:"locality,omitempty"`
	CountryCode string     `json:"country_code,omitempty"`
	Website     string     `json:"website,omitempty"`
	Notes       string     `json:"notes,omitempty"`
	TaxID       *string    `json:"tax_id"`
	Phone       string     `json:"phone,omitempty"`
	Mobile      string     `json:"mobile,omitempty"`
	Email       string     `json:"email,omitempty"`
	Consent     Consent    `json:"consent"`
	State       PartyState `json:"state"`
	Disclosed   bool       `json:"disclosed"`
}

// CanDisclose reports whether sensitive fields of p may be shown in the
// clear to a caller. authorized is the caller's view-sensitive permission.
func CanDisclose(p *Party, authorized bool) bool {
	return authorized || p.Consent == ConsentYes
}

// Disclose renders p for an external caller. Contact fields are opened to be
// shown or masked; the tax id is opened only when disclosure is allowed.
func Disclose(p *Party, sealer Sealer, authorized bool) (PartyView, error) {
	allowed := CanDisclose(p, authorized)
	v := PartyView{
		ID:          p.ID,
		TenantID:    p.TenantID,
		Numero:      p.Numero,
		IsClient:    p.IsClient,
		IsSupplier:  p.IsSupplier,
		Name:        p.Name,
		Address:     p.Address,
		PostalCode:  p.PostalCode,
		Locality:    p.Locality,
		CountryCode: p.CountryCode,
		Website:     p.Website,
		Notes:       p.Notes,
		Consent:     p.Consent,
		State:       p.State,
		Disclosed:   allowed,
	}

	phone, err := p.Phone.Open(sealer)
	if err != nil {
		return PartyView{}, err
	}
	mobile, err := p.Mobile.Open(sealer)
	if err != nil {
		return PartyView{}, err
	}
	email, err := p.Email.Open(sealer)
	if err != nil {
		return PartyView{}, err
	}

	if !allowed {
		v.Phone = MaskPhone(phone)
		v.Mobile = MaskPhone(mobile)
		v.Email = MaskEmail(email)
		return v, nil
	}

	taxID, err := p.TaxID.Open(sealer)
	if err != nil {
		return PartyView{}, err
	}
	v.TaxID = &taxID
	v.Phone, v.Mobile, v.Email = phone, mobile, email
	return v, nil
}

// MaskPhone removes whitespace and replaces the last four characters with
// '*'. Numbers of four characters or fewer are masked entirely.
func MaskPhone(phone string) string {
	if phone == "" {
		return ""
	}
	r := []rune(strings.Map(func(r rune) rune {
		if unicode.IsSpace(r) {
			return -1
		}
		return r
	}, phone))
	if len(r) <= 4 {
		return strings.Repeat("*", len(r))
	}
	return string(r[:len(r)-4]) + "****"
}

// MaskEmail keeps the first and last characters of the local part and the
// whole domain: "john.doe@x.com" becomes "j******e@x.com". Local parts of two
// characters or fewer are masked entirely. Values without '@' are withheld.
func MaskEmail(email string) string {
	at := strings.LastIndex(email, "@")
	if at < 0 {
		return ""
	}
	local, domain := []rune(email[:at]), email[at+1:]
	if len(local) <= 2 {
		return strings.Repeat("*", len(local)) + "@" + domain
	}
	return string(local[0]) + strings.Repeat("*", len(local)-2) + string(local[len(local)-1]) + "@" + domain
}
