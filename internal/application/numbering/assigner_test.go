package numbering

import (
	"context"
	"errors"
	"testing"

	"github.com/erp/backoffice/internal/application/unitofwork"
	domain "github.com/erp/backoffice/internal/domain/numbering"
	"github.com/erp/backoffice/internal/domain/partner"
	"github.com/erp/backoffice/internal/domain/shared"
	"github.com/erp/backoffice/internal/domain/trade"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// counterAllocator hands out 1, 2, 3... per key
type counterAllocator struct {
	next map[string]int64
	err  error
}

func (a *counterAllocator) Next(_ context.Context, _ shared.TenantContext, c domain.Counter) (domain.Number, error) {
	if a.err != nil {
		return domain.Number{}, a.err
	}
	if a.next == nil {
		a.next = map[string]int64{}
	}
	a.next[c.Key]++
	return domain.NewNumber(c, a.next[c.Key]), nil
}

type fakeRepos struct {
	alloc      *counterAllocator
	savepoints int
}

func (r *fakeRepos) Parties() partner.PartyRepository              { return nil }
func (r *fakeRepos) Proposals() trade.ProposalRepository           { return nil }
func (r *fakeRepos) SalesOrders() trade.SalesOrderRepository       { return nil }
func (r *fakeRepos) PurchaseOrders() trade.PurchaseOrderRepository { return nil }
func (r *fakeRepos) Sequences() domain.Allocator                   { return r.alloc }
func (r *fakeRepos) Savepoint(_ context.Context, fn func(unitofwork.TransactionalRepositories) error) error {
	r.savepoints++
	return fn(r)
}

var _ unitofwork.TransactionalRepositories = (*fakeRepos)(nil)

func TestAssigner_FirstAttempt(t *testing.T) {
	repos := &fakeRepos{alloc: &counterAllocator{}}
	a := NewAssigner(Config{}, nil)

	var seen []string
	n, err := a.Assign(context.Background(), repos, shared.ForTenant(uuid.New()), domain.SalesOrders(2025),
		func(_ unitofwork.TransactionalRepositories, n domain.Number) error {
			seen = append(seen, n.Formatted)
			return nil
		})

	require.NoError(t, err)
	assert.Equal(t, "EC-2025-0001", n.Formatted)
	assert.Equal(t, []string{"EC-2025-0001"}, seen)
	assert.Equal(t, 1, repos.savepoints)
}

func TestAssigner_RetriesWithFreshNumber(t *testing.T) {
	repos := &fakeRepos{alloc: &counterAllocator{}}
	a := NewAssigner(Config{MaxAttempts: 3}, nil)

	var seen []int64
	n, err := a.Assign(context.Background(), repos, shared.NoTenant(), domain.Proposals(),
		func(_ unitofwork.TransactionalRepositories, n domain.Number) error {
			seen = append(seen, n.Value)
			if len(seen) < 3 {
				return shared.ErrNumberConflict
			}
			return nil
		})

	require.NoError(t, err)
	assert.Equal(t, int64(3), n.Value)
	assert.Equal(t, []int64{1, 2, 3}, seen, "never reuses a value")
}

func TestAssigner_ExhaustedIsFatal(t *testing.T) {
	repos := &fakeRepos{alloc: &counterAllocator{}}
	a := NewAssigner(Config{MaxAttempts: 3}, nil)

	calls := 0
	_, err := a.Assign(context.Background(), repos, shared.NoTenant(), domain.Proposals(),
		func(unitofwork.TransactionalRepositories, domain.Number) error {
			calls++
			return shared.ErrNumberConflict.Wrap(errors.New("duplicate key"))
		})

	assert.ErrorIs(t, err, shared.ErrNumberingFailed)
	assert.Equal(t, shared.KindFatalNumbering, shared.KindOf(err))
	assert.Equal(t, 3, calls)
}

func TestAssigner_OtherErrorsAreNotRetried(t *testing.T) {
	repos := &fakeRepos{alloc: &counterAllocator{}}
	a := NewAssigner(Config{}, nil)
	boom := errors.New("connection reset")

	calls := 0
	_, err := a.Assign(context.Background(), repos, shared.NoTenant(), domain.Proposals(),
		func(unitofwork.TransactionalRepositories, domain.Number) error {
			calls++
			return boom
		})

	assert.ErrorIs(t, err, boom)
	assert.Equal(t, 1, calls)
}

func TestAssigner_AllocationFailure(t *testing.T) {
	boom := errors.New("lock timeout")
	repos := &fakeRepos{alloc: &counterAllocator{err: boom}}
	a := NewAssigner(Config{}, nil)

	_, err := a.Assign(context.Background(), repos, shared.NoTenant(), domain.Proposals(),
		func(unitofwork.TransactionalRepositories, domain.Number) error {
			t.Fatal("persist must not run without a number")
			return nil
		})

	assert.ErrorIs(t, err, boom)
	assert.Zero(t, repos.savepoints)
}

type recordingObserver struct {
	assigned  []int
	collided  int
	exhausted int
}

func (o *recordingObserver) Assigned(_ context.Context, _ domain.Counter, attempts int) {
	o.assigned = append(o.assigned, attempts)
}
func (o *recordingObserver) Collided(context.Context, domain.Counter)  { o.collided++ }
func (o *recordingObserver) Exhausted(context.Context, domain.Counter) { o.exhausted++ }

func TestAssigner_ReportsOutcomes(t *testing.T) {
	obs := &recordingObserver{}
	repos := &fakeRepos{alloc: &counterAllocator{}}
	a := NewAssigner(Config{MaxAttempts: 2, Observer: obs}, nil)

	calls := 0
	_, err := a.Assign(context.Background(), repos, shared.NoTenant(), domain.Proposals(),
		func(unitofwork.TransactionalRepositories, domain.Number) error {
			calls++
			if calls == 1 {
				return shared.ErrNumberConflict
			}
			return nil
		})
	require.NoError(t, err)
	assert.Equal(t, []int{2}, obs.assigned)
	assert.Equal(t, 1, obs.collided)

	_, err = a.Assign(context.Background(), repos, shared.NoTenant(), domain.Proposals(),
		func(unitofwork.TransactionalRepositories, domain.Number) error { return shared.ErrNumberConflict })
	assert.ErrorIs(t, err, shared.ErrNumberingFailed)
	assert.Equal(t, 1, obs.exhausted)
	assert.Equal(t, 3, obs.collided)
}
