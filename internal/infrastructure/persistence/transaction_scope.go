package persistence

import (
	"context"

	"github.com/erp/backoffice/internal/application/unitofwork"
	"github.com/erp/backoffice/internal/domain/numbering"
	"github.com/erp/backoffice/internal/domain/partner"
	"github.com/erp/backoffice/internal/domain/trade"
	"gorm.io/gorm"
)

// GormTransactionScope implements TransactionScope using GORM transactions.
// It provides atomic execution of multiple repository operations.
type GormTransactionScope struct {
	db     *gorm.DB
	seeder numbering.Seeder
}

// NewGormTransactionScope creates a new GormTransactionScope. A nil seeder
// seeds fresh counters from the numbered tables through the transaction.
func NewGormTransactionScope(db *gorm.DB, seeder numbering.Seeder) *GormTransactionScope {
	return &GormTransactionScope{db: db, seeder: seeder}
}

// Execute runs the given function within a database transaction.
// If the function returns an error, the transaction is rolled back.
// If the function succeeds, the transaction is committed.
func (s *GormTransactionScope) Execute(ctx context.Context, fn func(repos unitofwork.TransactionalRepositories) error) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(&gormTransactionalRepositories{tx: tx, seeder: s.seeder})
	})
}

// gormTransactionalRepositories provides access to all repositories within a transaction.
type gormTransactionalRepositories struct {
	tx     *gorm.DB
	seeder numbering.Seeder
}

func (r *gormTransactionalRepositories) Parties() partner.PartyRepository {
	return NewGormPartyRepository(r.tx)
}

func (r *gormTransactionalRepositories) Proposals() trade.ProposalRepository {
	return NewGormProposalRepository(r.tx)
}

func (r *gormTransactionalRepositories) SalesOrders() trade.SalesOrderRepository {
	return NewGormSalesOrderRepository(r.tx)
}

func (r *gormTransactionalRepositories) PurchaseOrders() trade.PurchaseOrderRepository {
	return NewGormPurchaseOrderRepository(r.tx)
}

// Sequences returns an allocator whose counter updates commit with the transaction
func (r *gormTransactionalRepositories) Sequences() numbering.Allocator {
	return NewGormSequenceAllocator(r.tx, r.seeder)
}

// Savepoint runs fn in a nested transaction, which GORM issues as SAVEPOINT
func (r *gormTransactionalRepositories) Savepoint(ctx context.Context, fn func(repos unitofwork.TransactionalRepositories) error) error {
	return r.tx.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(&gormTransactionalRepositories{tx: tx, seeder: r.seeder})
	})
}

// Ensure GormTransactionScope implements TransactionScope
var _ unitofwork.TransactionScope = (*GormTransactionScope)(nil)

// Ensure gormTransactionalRepositories implements TransactionalRepositories
var _ unitofwork.TransactionalRepositories = (*gormTransactionalRepositories)(nil)
