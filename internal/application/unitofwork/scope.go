// Package unitofwork defines the transactional boundary shared by the
// application services.
package unitofwork

import (
	"context"

	"github.com/erp/backoffice/internal/domain/numbering"
	"github.com/erp/backoffice/internal/domain/partner"
	"github.com/erp/backoffice/internal/domain/trade"
)

// TransactionScope runs a function inside one database transaction.
// If the function returns an error, the transaction is rolled back;
// otherwise it is committed.
type TransactionScope interface {
	Execute(ctx context.Context, fn func(repos TransactionalRepositories) error) error
}

// TransactionalRepositories gives access to every repository bound to the
// current transaction. All of them share the same underlying transaction, so
// a counter advanced through Sequences commits or rolls back together with
// the documents written through the other repositories.
type TransactionalRepositories interface {
	Parties() partner.PartyRepository
	Proposals() trade.ProposalRepository
	SalesOrders() trade.SalesOrderRepository
	PurchaseOrders() trade.PurchaseOrderRepository
	Sequences() numbering.Allocator
	// Savepoint runs fn in a nested transaction. An error rolls back only
	// the work done by fn; the enclosing transaction stays usable.
	Savepoint(ctx context.Context, fn func(repos TransactionalRepositories) error) error
}
