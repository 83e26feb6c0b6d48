// Package bootstrap assembles repositories and application services on a
// database handle. The server and the CLI share it.
package bootstrap

import (
	"time"

	identityapp "github.com/erp/backoffice/internal/application/identity"
	"github.com/erp/backoffice/internal/application/numbering"
	partnerapp "github.com/erp/backoffice/internal/application/partner"
	tradeapp "github.com/erp/backoffice/internal/application/trade"
	"github.com/erp/backoffice/internal/domain/identity"
	"github.com/erp/backoffice/internal/domain/partner"
	"github.com/erp/backoffice/internal/domain/shared"
	"github.com/erp/backoffice/internal/infrastructure/persistence"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// Options carries the collaborators that differ between the server, the CLI
// and tests
type Options struct {
	Logger *zap.Logger
	Clock  shared.Clock
	// Sealer encrypts sensitive party fields; required
	Sealer partner.Sealer
	// Authorizer decides who may read unmasked party fields; nil denies all
	Authorizer identity.Authorizer
	// TenantCache fronts tenant resolution; nil resolves from the database
	TenantCache identityapp.TenantCache
	// Publisher receives domain events after commit; nil drops them
	Publisher shared.EventPublisher

	MaxAttempts   int
	RetryInterval time.Duration
	Observer      numbering.Observer
}

// Services holds the application services of the back office
type Services struct {
	Scope          *persistence.GormTransactionScope
	Adopter        *persistence.SequenceAdopter
	Tenants        *identityapp.TenantService
	Directory      *partnerapp.DirectoryService
	Imports        *partnerapp.ImportService
	Proposals      *tradeapp.ProposalService
	SalesOrders    *tradeapp.SalesOrderService
	PurchaseOrders *tradeapp.PurchaseOrderService
	Conversions    *tradeapp.ConversionService
}

// NewServices wires the repositories and services on db
func NewServices(db *gorm.DB, opts Options) *Services {
	log := opts.Logger
	if log == nil {
		log = zap.NewNop()
	}
	clock := opts.Clock
	if clock == nil {
		clock = shared.SystemClock{}
	}

	// The scope seeds missing counters on its own transaction handle.
	scope := persistence.NewGormTransactionScope(db, nil)
	assigner := numbering.NewAssigner(numbering.Config{
		MaxAttempts:   opts.MaxAttempts,
		RetryInterval: opts.RetryInterval,
		Observer:      opts.Observer,
	}, log.Named("numbering"))

	directory := partnerapp.NewDirectoryService(
		scope,
		persistence.NewGormPartyRepository(db),
		assigner,
		opts.Sealer,
		opts.Authorizer,
		clock,
		log.Named("directory"),
	)
	proposals := tradeapp.NewProposalService(scope, persistence.NewGormProposalRepository(db), directory, assigner, clock, log.Named("proposals"))
	salesOrders := tradeapp.NewSalesOrderService(scope, persistence.NewGormSalesOrderRepository(db), directory, assigner, clock, log.Named("sales_orders"))
	purchaseOrders := tradeapp.NewPurchaseOrderService(scope, persistence.NewGormPurchaseOrderRepository(db), clock, log.Named("purchase_orders"))
	conversions := tradeapp.NewConversionService(scope, assigner, clock, log.Named("conversions"))

	if opts.Publisher != nil {
		directory.SetEventPublisher(opts.Publisher)
		proposals.SetEventPublisher(opts.Publisher)
		salesOrders.SetEventPublisher(opts.Publisher)
		purchaseOrders.SetEventPublisher(opts.Publisher)
		conversions.SetEventPublisher(opts.Publisher)
	}

	adopter := persistence.NewSequenceAdopter(db, nil)
	return &Services{
		Scope:          scope,
		Adopter:        adopter,
		Tenants:        identityapp.NewTenantService(persistence.NewGormTenantRepository(db), opts.TenantCache, clock, log.Named("tenants")),
		Directory:      directory,
		Imports:        partnerapp.NewImportService(directory, adopter, log.Named("imports")),
		Proposals:      proposals,
		SalesOrders:    salesOrders,
		PurchaseOrders: purchaseOrders,
		Conversions:    conversions,
	}
}
