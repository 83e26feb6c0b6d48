package models

import (
	"time"

	"github.com/erp/backoffice/internal/domain/partner"
)

// PartyModel is the persistence model for the Party domain entity. Sensitive
// columns hold ciphertext only.
type PartyModel struct {
	TenantScopedModel
	Scope       string             `gorm:"type:varchar(36);not null;uniqueIndex:idx_parties_scope_numero,priority:1;uniqueIndex:idx_parties_scope_tax_hash,priority:1"`
	Numero      int64              `gorm:"not null;uniqueIndex:idx_parties_scope_numero,priority:2"`
	IsClient    bool               `gorm:"not null;default:false"`
	IsSupplier  bool               `gorm:"not null;default:false"`
	Name        string             `gorm:"type:varchar(200);not null"`
	Address     string             `gorm:"type:text"`
	PostalCode  string             `gorm:"type:varchar(20)"`
	Locality    string             `gorm:"type:varchar(100)"`
	CountryCode string             `gorm:"type:varchar(2)"`
	Website     string             `gorm:"type:varchar(200)"`
	Notes       string             `gorm:"type:text"`
	TaxID       partner.Encrypted  `gorm:"column:tax_id;type:text"`
	TaxIDHash   string             `gorm:"column:tax_id_hash;type:char(64);not null;uniqueIndex:idx_parties_scope_tax_hash,priority:2,where:deleted_at IS NULL"`
	Phone       partner.Encrypted  `gorm:"type:text"`
	Mobile      partner.Encrypted  `gorm:"type:text"`
	Email       partner.Encrypted  `gorm:"type:text"`
	Consent     partner.Consent    `gorm:"type:varchar(3);not null;default:'no'"`
	State       partner.PartyState `gorm:"type:varchar(10);not null;default:'active'"`
	DeletedAt   *time.Time         `gorm:"index"`
}

// TableName returns the table name for GORM
func (PartyModel) TableName() string {
	return "parties"
}

// ToDomain converts the persistence model to a domain Party
func (m *PartyModel) ToDomain() *partner.Party {
	return &partner.Party{
		TenantAggregateRoot: m.ToDomainTenantAggregateRoot(),
		Numero:              m.Numero,
		IsClient:            m.IsClient,
		IsSupplier:          m.IsSupplier,
		Name:                m.Name,
		Address:             m.Address,
		PostalCode:          m.PostalCode,
		Locality:            m.Locality,
		CountryCode:         m.CountryCode,
		Website:             m.Website,
		Notes:               m.Notes,
		TaxID:               m.TaxID,
		TaxIDHash:           m.TaxIDHash,
		Phone:               m.Phone,
		Mobile:              m.Mobile,
		Email:               m.Email,
		Consent:             m.Consent,
		State:               m.State,
		DeletedAt:           m.DeletedAt,
	}
}

// PartyModelFromDomain creates a persistence model from a domain Party
func PartyModelFromDomain(p *partner.Party) *PartyModel {
	m := &PartyModel{
		Scope:       ScopeOf(p.TenantID),
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
		TaxID:       p.TaxID,
		TaxIDHash:   p.TaxIDHash,
		Phone:       p.Phone,
		Mobile:      p.Mobile,
		Email:       p.Email,
		Consent:     p.Consent,
		State:       p.State,
		DeletedAt:   p.DeletedAt,
	}
	m.FromDomainTenantAggregateRoot(p.TenantAggregateRoot)
	return m
}
