package models

import (
	"time"

	"github.com/erp/backoffice/internal/domain/trade"
	"github.com/google/uuid"
	"github.com/samber/lo"
	"github.com/shopspring/decimal"
)

// DocumentLineModel holds the columns shared by every document line table
type DocumentLineModel struct {
	ID          uuid.UUID           `gorm:"type:uuid;primaryKey"`
	Position    int                 `gorm:"not null"`
	ArticleID   *uuid.UUID          `gorm:"type:uuid"`
	Description string              `gorm:"type:text;not null"`
	Quantity    decimal.Decimal     `gorm:"type:decimal(18,4);not null"`
	UnitPrice   decimal.Decimal     `gorm:"type:decimal(18,4);not null"`
	SupplierID  *uuid.UUID          `gorm:"type:uuid;index"`
	CostPrice   decimal.NullDecimal `gorm:"type:decimal(18,4)"`
	LineTotal   decimal.Decimal     `gorm:"type:decimal(18,2);not null"`
}

// ToDomain converts the persistence model to a domain DocumentLine
func (m *DocumentLineModel) ToDomain() trade.DocumentLine {
	l := trade.DocumentLine{
		ID:          m.ID,
		Position:    m.Position,
		ArticleID:   m.ArticleID,
		Description: m.Description,
		Quantity:    m.Quantity,
		UnitPrice:   m.UnitPrice,
		SupplierID:  m.SupplierID,
		LineTotal:   m.LineTotal,
	}
	if m.CostPrice.Valid {
		c := m.CostPrice.Decimal
		l.CostPrice = &c
	}
	return l
}

// DocumentLineModelFromDomain creates the shared line columns from a domain line
func DocumentLineModelFromDomain(l trade.DocumentLine) DocumentLineModel {
	m := DocumentLineModel{
		ID:          l.ID,
		Position:    l.Position,
		ArticleID:   l.ArticleID,
		Description: l.Description,
		Quantity:    l.Quantity,
		UnitPrice:   l.UnitPrice,
		SupplierID:  l.SupplierID,
		LineTotal:   l.LineTotal,
	}
	if l.CostPrice != nil {
		m.CostPrice = decimal.NewNullDecimal(*l.CostPrice)
	}
	return m
}

// ProposalModel is the persistence model for the Proposal aggregate
type ProposalModel struct {
	TenantScopedModel
	Scope        string               `gorm:"type:varchar(36);not null;uniqueIndex:idx_proposals_scope_numero,priority:1"`
	Numero       *string              `gorm:"type:varchar(32);uniqueIndex:idx_proposals_scope_numero,priority:2"`
	ClientID     uuid.UUID            `gorm:"type:uuid;not null;index"`
	ProposalDate *time.Time           `gorm:"type:date"`
	ValidUntil   *time.Time           `gorm:"type:date"`
	Status       trade.ProposalStatus `gorm:"type:varchar(10);not null;default:'DRAFT'"`
	Total        decimal.Decimal      `gorm:"type:decimal(18,2);not null;default:0"`
	Notes        string               `gorm:"type:text"`
	Lines        []ProposalLineModel  `gorm:"foreignKey:ProposalID;constraint:OnDelete:CASCADE"`
}

// TableName returns the table name for GORM
func (ProposalModel) TableName() string {
	return "proposals"
}

// ProposalLineModel is a proposal line
type ProposalLineModel struct {
	DocumentLineModel
	ProposalID uuid.UUID `gorm:"type:uuid;not null;index"`
}

// TableName returns the table name for GORM
func (ProposalLineModel) TableName() string {
	return "proposal_lines"
}

// ToDomain converts the persistence model to a domain Proposal
func (m *ProposalModel) ToDomain() *trade.Proposal {
	return &trade.Proposal{
		TenantAggregateRoot: m.ToDomainTenantAggregateRoot(),
		Numero:              lo.FromPtr(m.Numero),
		ClientID:            m.ClientID,
		ProposalDate:        m.ProposalDate,
		ValidUntil:          m.ValidUntil,
		Status:              m.Status,
		Total:               m.Total,
		Notes:               m.Notes,
		Lines:               lo.Map(m.Lines, func(l ProposalLineModel, _ int) trade.DocumentLine { return l.ToDomain() }),
	}
}

// ProposalModelFromDomain creates a persistence model from a domain Proposal
func ProposalModelFromDomain(p *trade.Proposal) *ProposalModel {
	m := &ProposalModel{
		Scope:        ScopeOf(p.TenantID),
		Numero:       lo.EmptyableToPtr(p.Numero),
		ClientID:     p.ClientID,
		ProposalDate: p.ProposalDate,
		ValidUntil:   p.ValidUntil,
		Status:       p.Status,
		Total:        p.Total,
		Notes:        p.Notes,
		Lines: lo.Map(p.Lines, func(l trade.DocumentLine, _ int) ProposalLineModel {
			return ProposalLineModel{DocumentLineModel: DocumentLineModelFromDomain(l), ProposalID: p.ID}
		}),
	}
	m.FromDomainTenantAggregateRoot(p.TenantAggregateRoot)
	return m
}

// SalesOrderModel is the persistence model for the SalesOrder aggregate
type SalesOrderModel struct {
	TenantScopedModel
	Scope      string                 `gorm:"type:varchar(36);not null;uniqueIndex:idx_sales_orders_scope_numero,priority:1"`
	Numero     *string                `gorm:"type:varchar(32);uniqueIndex:idx_sales_orders_scope_numero,priority:2"`
	ClientID   uuid.UUID              `gorm:"type:uuid;not null;index"`
	ProposalID *uuid.UUID             `gorm:"type:uuid;uniqueIndex"`
	OrderDate  *time.Time             `gorm:"type:date"`
	Status     trade.SalesOrderStatus `gorm:"type:varchar(10);not null;default:'DRAFT'"`
	Total      decimal.Decimal        `gorm:"type:decimal(18,2);not null;default:0"`
	Notes      string                 `gorm:"type:text"`
	Lines      []SalesOrderLineModel  `gorm:"foreignKey:SalesOrderID;constraint:OnDelete:CASCADE"`
}

// TableName returns the table name for GORM
func (SalesOrderModel) TableName() string {
	return "sales_orders"
}

// SalesOrderLineModel is a sales order line
type SalesOrderLineModel struct {
	DocumentLineModel
	SalesOrderID uuid.UUID `gorm:"type:uuid;not null;index"`
}

// TableName returns the table name for GORM
func (SalesOrderLineModel) TableName() string {
	return "sales_order_lines"
}

// ToDomain converts the persistence model to a domain SalesOrder
func (m *SalesOrderModel) ToDomain() *trade.SalesOrder {
	return &trade.SalesOrder{
		TenantAggregateRoot: m.ToDomainTenantAggregateRoot(),
		Numero:              lo.FromPtr(m.Numero),
		ClientID:            m.ClientID,
		ProposalID:          m.ProposalID,
		OrderDate:           m.OrderDate,
		Status:              m.Status,
		Total:               m.Total,
		Notes:               m.Notes,
		Lines:               lo.Map(m.Lines, func(l SalesOrderLineModel, _ int) trade.DocumentLine { return l.ToDomain() }),
	}
}

// SalesOrderModelFromDomain creates a persistence model from a domain SalesOrder
func SalesOrderModelFromDomain(o *trade.SalesOrder) *SalesOrderModel {
	m := &SalesOrderModel{
		Scope:      ScopeOf(o.TenantID),
		Numero:     lo.EmptyableToPtr(o.Numero),
		ClientID:   o.ClientID,
		ProposalID: o.ProposalID,
		OrderDate:  o.OrderDate,
		Status:     o.Status,
		Total:      o.Total,
		Notes:      o.Notes,
		Lines: lo.Map(o.Lines, func(l trade.DocumentLine, _ int) SalesOrderLineModel {
			return SalesOrderLineModel{DocumentLineModel: DocumentLineModelFromDomain(l), SalesOrderID: o.ID}
		}),
	}
	m.FromDomainTenantAggregateRoot(o.TenantAggregateRoot)
	return m
}

// PurchaseOrderModel is the persistence model for the PurchaseOrder aggregate
type PurchaseOrderModel struct {
	TenantScopedModel
	Scope        string                    `gorm:"type:varchar(36);not null;uniqueIndex:idx_purchase_orders_scope_numero,priority:1"`
	Numero       string                    `gorm:"type:varchar(32);not null;uniqueIndex:idx_purchase_orders_scope_numero,priority:2"`
	SupplierID   uuid.UUID                 `gorm:"type:uuid;not null;index"`
	SalesOrderID *uuid.UUID                `gorm:"type:uuid;index"`
	OrderDate    time.Time                 `gorm:"type:date;not null"`
	Status       trade.PurchaseOrderStatus `gorm:"type:varchar(10);not null;default:'DRAFT'"`
	Total        decimal.Decimal           `gorm:"type:decimal(18,2);not null;default:0"`
	Lines        []PurchaseOrderLineModel  `gorm:"foreignKey:PurchaseOrderID;constraint:OnDelete:CASCADE"`
}

// TableName returns the table name for GORM
func (PurchaseOrderModel) TableName() string {
	return "purchase_orders"
}

// PurchaseOrderLineModel is a purchase order line
type PurchaseOrderLineModel struct {
	DocumentLineModel
	PurchaseOrderID uuid.UUID `gorm:"type:uuid;not null;index"`
}

// TableName returns the table name for GORM
func (PurchaseOrderLineModel) TableName() string {
	return "purchase_order_lines"
}

// ToDomain converts the persistence model to a domain PurchaseOrder
func (m *PurchaseOrderModel) ToDomain() *trade.PurchaseOrder {
	return &trade.PurchaseOrder{
		TenantAggregateRoot: m.ToDomainTenantAggregateRoot(),
		Numero:              m.Numero,
		SupplierID:          m.SupplierID,
		SalesOrderID:        m.SalesOrderID,
		OrderDate:           m.OrderDate,
		Status:              m.Status,
		Total:               m.Total,
		Lines:               lo.Map(m.Lines, func(l PurchaseOrderLineModel, _ int) trade.DocumentLine { return l.ToDomain() }),
	}
}

// PurchaseOrderModelFromDomain creates a persistence model from a domain PurchaseOrder
func PurchaseOrderModelFromDomain(po *trade.PurchaseOrder) *PurchaseOrderModel {
	m := &PurchaseOrderModel{
		Scope:        ScopeOf(po.TenantID),
		Numero:       po.Numero,
		SupplierID:   po.SupplierID,
		SalesOrderID: po.SalesOrderID,
		OrderDate:    po.OrderDate,
		Status:       po.Status,
		Total:        po.Total,
		Lines: lo.Map(po.Lines, func(l trade.DocumentLine, _ int) PurchaseOrderLineModel {
			return PurchaseOrderLineModel{DocumentLineModel: DocumentLineModelFromDomain(l), PurchaseOrderID: po.ID}
		}),
	}
	m.FromDomainTenantAggregateRoot(po.TenantAggregateRoot)
	return m
}

// All returns every model, in dependency order, for AutoMigrate
func All() []any {
	return []any{
		&TenantModel{},
		&SequenceModel{},
		&PartyModel{},
		&ProposalModel{},
		&ProposalLineModel{},
		&SalesOrderModel{},
		&SalesOrderLineModel{},
		&PurchaseOrderModel{},
		&PurchaseOrderLineModel{},
	}
}
