package partner

import (
	"github.com/erp/backoffice/internal/domain/partner"
	"github.com/erp/backoffice/internal/domain/shared"
)

// CreatePartyRequest represents a request to register a party
type CreatePartyRequest struct {
	IsClient    bool   `json:"is_client"`
	IsSupplier  bool   `json:"is_supplier"`
	Name        string `json:"name" binding:"required,min=1,max=200"`
	Address     string `json:"address" binding:"max=500"`
	PostalCode  string `json:"postal_code" binding:"max=20"`
	Locality    string `json:"locality" binding:"max=100"`
	CountryCode string `json:"country_code" binding:"omitempty,len=2"`
	Website     string `json:"website" binding:"omitempty,max=200"`
	Notes       string `json:"notes"`
	TaxID       string `json:"tax_id" binding:"required,max=32"`
	Phone       string `json:"phone" binding:"max=32"`
	Mobile      string `json:"mobile" binding:"max=32"`
	Email       string `json:"email" binding:"omitempty,email,max=200"`
	Consent     string `json:"consent" binding:"omitempty,oneof=yes no"`
}

// Draft converts the request into a party draft
func (r CreatePartyRequest) Draft() partner.PartyDraft {
	return partner.PartyDraft{
		IsClient:    r.IsClient,
		IsSupplier:  r.IsSupplier,
		Name:        r.Name,
		Address:     r.Address,
		PostalCode:  r.PostalCode,
		Locality:    r.Locality,
		CountryCode: r.CountryCode,
		Website:     r.Website,
		Notes:       r.Notes,
		TaxID:       r.TaxID,
		Phone:       r.Phone,
		Mobile:      r.Mobile,
		Email:       r.Email,
		Consent:     partner.Consent(r.Consent),
	}
}

// UpdatePartyRequest represents a partial update; omitted fields are kept
type UpdatePartyRequest struct {
	IsClient    *bool   `json:"is_client"`
	IsSupplier  *bool   `json:"is_supplier"`
	Name        *string `json:"name" binding:"omitempty,min=1,max=200"`
	Address     *string `json:"address" binding:"omitempty,max=500"`
	PostalCode  *string `json:"postal_code" binding:"omitempty,max=20"`
	Locality    *string `json:"locality" binding:"omitempty,max=100"`
	CountryCode *string `json:"country_code" binding:"omitempty,len=2"`
	Website     *string `json:"website" binding:"omitempty,max=200"`
	Notes       *string `json:"notes"`
	TaxID       *string `json:"tax_id" binding:"omitempty,max=32"`
	Phone       *string `json:"phone" binding:"omitempty,max=32"`
	Mobile      *string `json:"mobile" binding:"omitempty,max=32"`
	Email       *string `json:"email" binding:"omitempty,max=200"`
	Consent     *string `json:"consent" binding:"omitempty,oneof=yes no"`
	State       *string `json:"state" binding:"omitempty,oneof=active inactive"`
}

// Patch converts the request into a party patch
func (r UpdatePartyRequest) Patch() partner.PartyPatch {
	p := partner.PartyPatch{
		IsClient:    r.IsClient,
		IsSupplier:  r.IsSupplier,
		Name:        r.Name,
		Address:     r.Address,
		PostalCode:  r.PostalCode,
		Locality:    r.Locality,
		CountryCode: r.CountryCode,
		Website:     r.Website,
		Notes:       r.Notes,
		TaxID:       r.TaxID,
		Phone:       r.Phone,
		Mobile:      r.Mobile,
		Email:       r.Email,
	}
	if r.Consent != nil {
		c := partner.Consent(*r.Consent)
		p.Consent = &c
	}
	if r.State != nil {
		s := partner.PartyState(*r.State)
		p.State = &s
	}
	return p
}

// ListPartiesRequest filters a party listing
type ListPartiesRequest struct {
	Role     string `form:"role" binding:"omitempty,oneof=client supplier"`
	State    string `form:"state" binding:"omitempty,oneof=active inactive"`
	Search   string `form:"search" binding:"max=100"`
	Page     int    `form:"page" binding:"min=0"`
	PageSize int    `form:"page_size" binding:"min=0,max=100"`
	OrderBy  string `form:"order_by" binding:"omitempty,max=32"`
	OrderDir string `form:"order_dir" binding:"omitempty,oneof=asc desc"`
}

// Filter converts the request into a repository filter
func (r ListPartiesRequest) Filter() partner.PartyFilter {
	return partner.PartyFilter{
		Filter: shared.Filter{
			Page:     r.Page,
			PageSize: r.PageSize,
			Search:   r.Search,
			OrderBy:  r.OrderBy,
			OrderDir: r.OrderDir,
		}.Normalize(),
		ClientsOnly:   r.Role == "client",
		SuppliersOnly: r.Role == "supplier",
		State:         partner.PartyState(r.State),
	}
}
