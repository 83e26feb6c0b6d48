package trade

import (
	"context"
	"time"

	"github.com/erp/backoffice/internal/application/unitofwork"
	domnum "github.com/erp/backoffice/internal/domain/numbering"
	"github.com/erp/backoffice/internal/domain/partner"
	"github.com/erp/backoffice/internal/domain/shared"
	"github.com/erp/backoffice/internal/domain/trade"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/mock"
)

var testNow = time.Date(2025, 6, 10, 15, 30, 0, 0, time.UTC)

func dec(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

// MockProposalRepository is a mock implementation of ProposalRepository
type MockProposalRepository struct {
	mock.Mock
}

func (m *MockProposalRepository) FindByID(ctx context.Context, tc shared.TenantContext, id uuid.UUID) (*trade.Proposal, error) {
	args := m.Called(ctx, tc, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*trade.Proposal), args.Error(1)
}

func (m *MockProposalRepository) FindByIDForUpdate(ctx context.Context, tc shared.TenantContext, id uuid.UUID) (*trade.Proposal, error) {
	args := m.Called(ctx, tc, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*trade.Proposal), args.Error(1)
}

func (m *MockProposalRepository) Create(ctx context.Context, tc shared.TenantContext, p *trade.Proposal) error {
	return m.Called(ctx, tc, p).Error(0)
}

func (m *MockProposalRepository) Update(ctx context.Context, tc shared.TenantContext, p *trade.Proposal) error {
	return m.Called(ctx, tc, p).Error(0)
}

func (m *MockProposalRepository) Delete(ctx context.Context, tc shared.TenantContext, id uuid.UUID) error {
	return m.Called(ctx, tc, id).Error(0)
}

// MockSalesOrderRepository is a mock implementation of SalesOrderRepository
type MockSalesOrderRepository struct {
	mock.Mock
}

func (m *MockSalesOrderRepository) FindByID(ctx context.Context, tc shared.TenantContext, id uuid.UUID) (*trade.SalesOrder, error) {
	args := m.Called(ctx, tc, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*trade.SalesOrder), args.Error(1)
}

func (m *MockSalesOrderRepository) FindByIDForUpdate(ctx context.Context, tc shared.TenantContext, id uuid.UUID) (*trade.SalesOrder, error) {
	args := m.Called(ctx, tc, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*trade.SalesOrder), args.Error(1)
}

func (m *MockSalesOrderRepository) ExistsForProposal(ctx context.Context, tc shared.TenantContext, proposalID uuid.UUID) (bool, error) {
	args := m.Called(ctx, tc, proposalID)
	return args.Bool(0), args.Error(1)
}

func (m *MockSalesOrderRepository) Create(ctx context.Context, tc shared.TenantContext, o *trade.SalesOrder) error {
	return m.Called(ctx, tc, o).Error(0)
}

func (m *MockSalesOrderRepository) Update(ctx context.Context, tc shared.TenantContext, o *trade.SalesOrder) error {
	return m.Called(ctx, tc, o).Error(0)
}

func (m *MockSalesOrderRepository) Delete(ctx context.Context, tc shared.TenantContext, id uuid.UUID) error {
	return m.Called(ctx, tc, id).Error(0)
}

// MockPurchaseOrderRepository is a mock implementation of PurchaseOrderRepository
type MockPurchaseOrderRepository struct {
	mock.Mock
}

func (m *MockPurchaseOrderRepository) FindByID(ctx context.Context, tc shared.TenantContext, id uuid.UUID) (*trade.PurchaseOrder, error) {
	args := m.Called(ctx, tc, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*trade.PurchaseOrder), args.Error(1)
}

func (m *MockPurchaseOrderRepository) FindByIDForUpdate(ctx context.Context, tc shared.TenantContext, id uuid.UUID) (*trade.PurchaseOrder, error) {
	args := m.Called(ctx, tc, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*trade.PurchaseOrder), args.Error(1)
}

func (m *MockPurchaseOrderRepository) FindBySalesOrder(ctx context.Context, tc shared.TenantContext, salesOrderID uuid.UUID) ([]trade.PurchaseOrder, error) {
	args := m.Called(ctx, tc, salesOrderID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]trade.PurchaseOrder), args.Error(1)
}

func (m *MockPurchaseOrderRepository) CountBySalesOrder(ctx context.Context, tc shared.TenantContext, salesOrderID uuid.UUID) (int64, error) {
	args := m.Called(ctx, tc, salesOrderID)
	return args.Get(0).(int64), args.Error(1)
}

func (m *MockPurchaseOrderRepository) Create(ctx context.Context, tc shared.TenantContext, po *trade.PurchaseOrder) error {
	return m.Called(ctx, tc, po).Error(0)
}

func (m *MockPurchaseOrderRepository) UpdateStatus(ctx context.Context, tc shared.TenantContext, po *trade.PurchaseOrder) error {
	return m.Called(ctx, tc, po).Error(0)
}

// MockPartyLookup is a mock implementation of PartyLookup
type MockPartyLookup struct {
	mock.Mock
}

func (m *MockPartyLookup) Lookup(ctx context.Context, tc shared.TenantContext, id uuid.UUID) (*partner.Party, error) {
	args := m.Called(ctx, tc, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*partner.Party), args.Error(1)
}

// sequenceAllocator hands out consecutive values per counter key, the way a
// locked counter row does within one transaction
type sequenceAllocator struct {
	next map[string]int64
	err  error
}

func newSequenceAllocator() *sequenceAllocator {
	return &sequenceAllocator{next: map[string]int64{}}
}

func (a *sequenceAllocator) Next(_ context.Context, _ shared.TenantContext, c domnum.Counter) (domnum.Number, error) {
	if a.err != nil {
		return domnum.Number{}, a.err
	}
	a.next[c.Key]++
	return domnum.NewNumber(c, a.next[c.Key]), nil
}

// testRepos binds the mocks as the repositories of one unit of work
type testRepos struct {
	proposals      *MockProposalRepository
	salesOrders    *MockSalesOrderRepository
	purchaseOrders *MockPurchaseOrderRepository
	sequences      *sequenceAllocator
	commits        int
}

func newTestRepos() *testRepos {
	return &testRepos{
		proposals:      new(MockProposalRepository),
		salesOrders:    new(MockSalesOrderRepository),
		purchaseOrders: new(MockPurchaseOrderRepository),
		sequences:      newSequenceAllocator(),
	}
}

func (r *testRepos) Execute(_ context.Context, fn func(unitofwork.TransactionalRepositories) error) error {
	if err := fn(r); err != nil {
		return err
	}
	r.commits++
	return nil
}

func (r *testRepos) Parties() partner.PartyRepository              { return nil }
func (r *testRepos) Proposals() trade.ProposalRepository           { return r.proposals }
func (r *testRepos) SalesOrders() trade.SalesOrderRepository       { return r.salesOrders }
func (r *testRepos) PurchaseOrders() trade.PurchaseOrderRepository { return r.purchaseOrders }
func (r *testRepos) Sequences() domnum.Allocator                   { return r.sequences }

func (r *testRepos) Savepoint(_ context.Context, fn func(unitofwork.TransactionalRepositories) error) error {
	return fn(r)
}

// recordingPublisher collects published events
type recordingPublisher struct {
	events []shared.DomainEvent
}

func (p *recordingPublisher) Publish(_ context.Context, events ...shared.DomainEvent) error {
	p.events = append(p.events, events...)
	return nil
}

func (p *recordingPublisher) types() []string {
	out := make([]string, 0, len(p.events))
	for _, e := range p.events {
		out = append(out, e.EventType())
	}
	return out
}

func newParty(t interface{ FailNow() }, tc shared.TenantContext, client, supplier bool) *partner.Party {
	p, err := partner.NewParty(tc, partner.PartyDraft{
		IsClient:   client,
		IsSupplier: supplier,
		Name:       "Entidade",
		TaxID:      uuid.NewString()[:8] + "1",
	}, plainSealer{}, testNow)
	if err != nil {
		t.FailNow()
	}
	return p
}

type plainSealer struct{}

func (plainSealer) Seal(p []byte) (string, error) { return string(p), nil }
func (plainSealer) Open(c string) ([]byte, error) { return []byte(c), nil }
