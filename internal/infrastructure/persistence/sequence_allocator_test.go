package persistence_test

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/erp/backoffice/internal/application/unitofwork"
	domnum "github.com/erp/backoffice/internal/domain/numbering"
	"github.com/erp/backoffice/internal/domain/shared"
	"github.com/erp/backoffice/internal/infrastructure/persistence"
	"github.com/erp/backoffice/internal/infrastructure/persistence/persistencetest"
	"github.com/google/uuid"
	"github.com/sourcegraph/conc"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGormSequenceAllocator_Next(t *testing.T) {
	ctx := context.Background()
	db := persistencetest.NewSQLite(t)
	alloc := persistence.NewGormSequenceAllocator(db, nil)
	tenantA := shared.ForTenant(uuid.New())
	tenantB := shared.ForTenant(uuid.New())

	t.Run("starts at one and advances", func(t *testing.T) {
		n, err := alloc.Next(ctx, tenantA, domnum.SalesOrders(2025))
		require.NoError(t, err)
		assert.Equal(t, int64(1), n.Value)
		assert.Equal(t, "EC-2025-0001", n.Formatted)

		n, err = alloc.Next(ctx, tenantA, domnum.SalesOrders(2025))
		require.NoError(t, err)
		assert.Equal(t, "EC-2025-0002", n.Formatted)
	})

	t.Run("counters are independent per tenant, key and year", func(t *testing.T) {
		n, err := alloc.Next(ctx, tenantB, domnum.SalesOrders(2025))
		require.NoError(t, err)
		assert.Equal(t, int64(1), n.Value)

		n, err = alloc.Next(ctx, tenantA, domnum.SalesOrders(2026))
		require.NoError(t, err)
		assert.Equal(t, "EC-2026-0001", n.Formatted)

		n, err = alloc.Next(ctx, shared.NoTenant(), domnum.Proposals())
		require.NoError(t, err)
		assert.Equal(t, "1", n.Formatted)
	})

	t.Run("invalid counter", func(t *testing.T) {
		_, err := alloc.Next(ctx, tenantA, domnum.Counter{})
		assert.Error(t, err)
	})
}

func TestGormSequenceAllocator_SeedsFromExistingDocuments(t *testing.T) {
	ctx := context.Background()
	db := persistencetest.NewSQLite(t)
	tc := shared.ForTenant(uuid.New())

	parties := persistence.NewGormPartyRepository(db)
	require.NoError(t, parties.Create(ctx, tc, newParty(t, tc, 41, "501234567")))

	n, err := persistence.NewGormSequenceAllocator(db, nil).Next(ctx, tc, domnum.Entities())
	require.NoError(t, err)
	assert.Equal(t, int64(42), n.Value)

	other := shared.ForTenant(uuid.New())
	n, err = persistence.NewGormSequenceAllocator(db, nil).Next(ctx, other, domnum.Entities())
	require.NoError(t, err)
	assert.Equal(t, int64(1), n.Value, "other tenant's data does not seed")
}

func TestGormSequenceAllocator_RollbackReleasesValue(t *testing.T) {
	ctx := context.Background()
	db := persistencetest.NewSQLite(t)
	scope := persistence.NewGormTransactionScope(db, nil)
	tc := shared.ForTenant(uuid.New())
	boom := errors.New("document insert failed")

	err := scope.Execute(ctx, func(repos unitofwork.TransactionalRepositories) error {
		n, err := repos.Sequences().Next(ctx, tc, domnum.Proposals())
		require.NoError(t, err)
		assert.Equal(t, int64(1), n.Value)
		return boom
	})
	require.ErrorIs(t, err, boom)

	err = scope.Execute(ctx, func(repos unitofwork.TransactionalRepositories) error {
		n, err := repos.Sequences().Next(ctx, tc, domnum.Proposals())
		require.NoError(t, err)
		assert.Equal(t, int64(1), n.Value)
		return nil
	})
	require.NoError(t, err)
}

func TestGormSequenceAllocator_SavepointKeepsAdvance(t *testing.T) {
	ctx := context.Background()
	db := persistencetest.NewSQLite(t)
	scope := persistence.NewGormTransactionScope(db, nil)
	tc := shared.ForTenant(uuid.New())

	err := scope.Execute(ctx, func(repos unitofwork.TransactionalRepositories) error {
		_, err := repos.Sequences().Next(ctx, tc, domnum.Proposals())
		require.NoError(t, err)
		spErr := repos.Savepoint(ctx, func(sp unitofwork.TransactionalRepositories) error {
			return shared.ErrNumberConflict
		})
		assert.ErrorIs(t, spErr, shared.ErrNumberConflict)

		n, err := repos.Sequences().Next(ctx, tc, domnum.Proposals())
		require.NoError(t, err)
		assert.Equal(t, int64(2), n.Value)
		return nil
	})
	require.NoError(t, err)
}

func TestGormSequenceAllocator_ConcurrentUnitsGetDistinctValues(t *testing.T) {
	ctx := context.Background()
	db := persistencetest.NewSQLite(t)
	scope := persistence.NewGormTransactionScope(db, nil)
	tc := shared.ForTenant(uuid.New())

	const workers = 16
	var (
		mu   sync.Mutex
		seen = map[int64]bool{}
	)
	var wg conc.WaitGroup
	for i := 0; i < workers; i++ {
		wg.Go(func() {
			err := scope.Execute(ctx, func(repos unitofwork.TransactionalRepositories) error {
				n, err := repos.Sequences().Next(ctx, tc, domnum.PurchaseOrders(2025))
				if err != nil {
					return err
				}
				mu.Lock()
				defer mu.Unlock()
				seen[n.Value] = true
				return nil
			})
			assert.NoError(t, err)
		})
	}
	wg.Wait()

	require.Len(t, seen, workers)
	for v := int64(1); v <= workers; v++ {
		assert.True(t, seen[v], "value %d handed out", v)
	}
}

func TestSequenceAdopter_Adopt(t *testing.T) {
	ctx := context.Background()
	db := persistencetest.NewSQLite(t)
	tc := shared.ForTenant(uuid.New())
	c := domnum.SalesOrders(2025)

	alloc := persistence.NewGormSequenceAllocator(db, nil)
	for i := 0; i < 3; i++ {
		_, err := alloc.Next(ctx, tc, c)
		require.NoError(t, err)
	}

	t.Run("never moves backwards", func(t *testing.T) {
		next, err := persistence.NewSequenceAdopter(db, nil).Adopt(ctx, tc, c)
		require.NoError(t, err)
		assert.Equal(t, int64(4), next)
	})

	t.Run("raises next past imported documents", func(t *testing.T) {
		seeder := domnum.SeederFunc(func(context.Context, shared.TenantContext, domnum.Counter) (int64, error) {
			return 10, nil
		})
		next, err := persistence.NewSequenceAdopter(db, seeder).Adopt(ctx, tc, c)
		require.NoError(t, err)
		assert.Equal(t, int64(10), next)

		n, err := alloc.Next(ctx, tc, c)
		require.NoError(t, err)
		assert.Equal(t, "EC-2025-0010", n.Formatted)
	})

	t.Run("creates a missing counter", func(t *testing.T) {
		next, err := persistence.NewSequenceAdopter(db, nil).Adopt(ctx, shared.ForTenant(uuid.New()), c)
		require.NoError(t, err)
		assert.Equal(t, int64(1), next)
	})
}

func TestGormSequenceAllocator_LocksAndAdvancesRow(t *testing.T) {
	m := persistencetest.NewMockDB(t)
	tc := shared.ForTenant(uuid.New())

	rows := sqlmock.NewRows([]string{"scope", "key", "tenant_id", "next"}).
		AddRow(tc.ScopeKey(), "purchase_orders_2025", tc.ID().String(), 7)
	m.Mock.ExpectQuery(`SELECT \* FROM "sequences" WHERE "sequences"."scope" = \$1 AND "sequences"."key" = \$2 .*FOR UPDATE`).
		WillReturnRows(rows)
	m.Mock.ExpectExec(`UPDATE "sequences" SET "next"=\$1`).
		WithArgs(int64(8), sqlmock.AnyArg(), tc.ScopeKey(), "purchase_orders_2025").
		WillReturnResult(sqlmock.NewResult(0, 1))

	n, err := persistence.NewGormSequenceAllocator(m.DB, nil).Next(context.Background(), tc, domnum.PurchaseOrders(2025))
	require.NoError(t, err)
	assert.Equal(t, "EF-2025-0007", n.Formatted)
}

func TestGormSequenceAllocator_LostRowIsInvariantViolation(t *testing.T) {
	m := persistencetest.NewMockDB(t)
	tc := shared.ForTenant(uuid.New())

	rows := sqlmock.NewRows([]string{"scope", "key", "next"}).AddRow(tc.ScopeKey(), "proposals", 3)
	m.Mock.ExpectQuery(`FOR UPDATE`).WillReturnRows(rows)
	m.Mock.ExpectExec(`UPDATE "sequences"`).WillReturnResult(sqlmock.NewResult(0, 0))

	_, err := persistence.NewGormSequenceAllocator(m.DB, nil).Next(context.Background(), tc, domnum.Proposals())
	assert.True(t, shared.IsInvariant(err))
}
