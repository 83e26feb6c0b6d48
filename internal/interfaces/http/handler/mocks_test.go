package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	partnerapp "github.com/erp/backoffice/internal/application/partner"
	tradeapp "github.com/erp/backoffice/internal/application/trade"
	"github.com/erp/backoffice/internal/domain/partner"
	"github.com/erp/backoffice/internal/domain/shared"
	"github.com/erp/backoffice/internal/interfaces/http/dto"
	"github.com/erp/backoffice/internal/interfaces/http/middleware"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func init() {
	gin.SetMode(gin.TestMode)
	middleware.SetupValidator()
}

// testEngine builds an engine whose requests run for tc
func testEngine(tc shared.TenantContext) *gin.Engine {
	engine := gin.New()
	engine.Use(middleware.RequestID(), func(c *gin.Context) {
		c.Set(middleware.TenantContextKey, tc)
		c.Next()
	})
	return engine
}

func doJSON(engine *gin.Engine, method, path string, body any) *httptest.ResponseRecorder {
	var buf bytes.Buffer
	if body != nil {
		if s, ok := body.(string); ok {
			buf.WriteString(s)
		} else {
			_ = json.NewEncoder(&buf).Encode(body)
		}
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	engine.ServeHTTP(w, req)
	return w
}

func httptestRequest(method, path string) *http.Request {
	return httptest.NewRequest(method, path, nil)
}

func serveRequest(engine *gin.Engine, req *http.Request) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	engine.ServeHTTP(w, req)
	return w
}

func decode(t *testing.T, w *httptest.ResponseRecorder) dto.Response {
	t.Helper()
	var resp dto.Response
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	return resp
}

func isCtx(ctx context.Context) bool { return ctx != nil }

var anyCtx = mock.MatchedBy(isCtx)

// MockPartyDirectory implements PartyDirectory for testing
type MockPartyDirectory struct {
	mock.Mock
}

func (m *MockPartyDirectory) Create(ctx context.Context, tc shared.TenantContext, req partnerapp.CreatePartyRequest) (*partner.PartyView, error) {
	args := m.Called(ctx, tc, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*partner.PartyView), args.Error(1)
}

func (m *MockPartyDirectory) Get(ctx context.Context, tc shared.TenantContext, id uuid.UUID) (*partner.PartyView, error) {
	args := m.Called(ctx, tc, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*partner.PartyView), args.Error(1)
}

func (m *MockPartyDirectory) List(ctx context.Context, tc shared.TenantContext, req partnerapp.ListPartiesRequest) (*shared.Paginated[partner.PartyView], error) {
	args := m.Called(ctx, tc, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*shared.Paginated[partner.PartyView]), args.Error(1)
}

func (m *MockPartyDirectory) Update(ctx context.Context, tc shared.TenantContext, id uuid.UUID, req partnerapp.UpdatePartyRequest) (*partner.PartyView, error) {
	args := m.Called(ctx, tc, id, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*partner.PartyView), args.Error(1)
}

func (m *MockPartyDirectory) Delete(ctx context.Context, tc shared.TenantContext, id uuid.UUID) error {
	return m.Called(ctx, tc, id).Error(0)
}

func (m *MockPartyDirectory) FindByNormalizedTaxID(ctx context.Context, tc shared.TenantContext, taxID string) (*partner.PartyView, error) {
	args := m.Called(ctx, tc, taxID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*partner.PartyView), args.Error(1)
}

// MockProposalLifecycle implements ProposalLifecycle for testing
type MockProposalLifecycle struct {
	mock.Mock
}

func (m *MockProposalLifecycle) Create(ctx context.Context, tc shared.TenantContext, req tradeapp.CreateProposalRequest) (*tradeapp.ProposalResponse, error) {
	args := m.Called(ctx, tc, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*tradeapp.ProposalResponse), args.Error(1)
}

func (m *MockProposalLifecycle) Get(ctx context.Context, tc shared.TenantContext, id uuid.UUID) (*tradeapp.ProposalResponse, error) {
	args := m.Called(ctx, tc, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*tradeapp.ProposalResponse), args.Error(1)
}

func (m *MockProposalLifecycle) AddOrReplaceLines(ctx context.Context, tc shared.TenantContext, id uuid.UUID, req tradeapp.ReplaceLinesRequest) (*tradeapp.ProposalResponse, error) {
	args := m.Called(ctx, tc, id, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*tradeapp.ProposalResponse), args.Error(1)
}

func (m *MockProposalLifecycle) Close(ctx context.Context, tc shared.TenantContext, id uuid.UUID) (*tradeapp.ProposalResponse, error) {
	args := m.Called(ctx, tc, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*tradeapp.ProposalResponse), args.Error(1)
}

func (m *MockProposalLifecycle) Delete(ctx context.Context, tc shared.TenantContext, id uuid.UUID) error {
	return m.Called(ctx, tc, id).Error(0)
}

// MockConversions implements Conversions for testing
type MockConversions struct {
	mock.Mock
}

func (m *MockConversions) ProposalToSalesOrder(ctx context.Context, tc shared.TenantContext, proposalID uuid.UUID) (*tradeapp.SalesOrderResponse, error) {
	args := m.Called(ctx, tc, proposalID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*tradeapp.SalesOrderResponse), args.Error(1)
}

func (m *MockConversions) SalesOrderToPurchaseOrders(ctx context.Context, tc shared.TenantContext, salesOrderID uuid.UUID) (*tradeapp.ConversionResult, error) {
	args := m.Called(ctx, tc, salesOrderID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*tradeapp.ConversionResult), args.Error(1)
}

// MockSalesOrders implements SalesOrders for testing
type MockSalesOrders struct {
	mock.Mock
}

func (m *MockSalesOrders) Get(ctx context.Context, tc shared.TenantContext, id uuid.UUID) (*tradeapp.SalesOrderResponse, error) {
	args := m.Called(ctx, tc, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*tradeapp.SalesOrderResponse), args.Error(1)
}

func (m *MockSalesOrders) ReplaceLines(ctx context.Context, tc shared.TenantContext, id uuid.UUID, req tradeapp.ReplaceLinesRequest) (*tradeapp.SalesOrderResponse, error) {
	args := m.Called(ctx, tc, id, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*tradeapp.SalesOrderResponse), args.Error(1)
}

func (m *MockSalesOrders) AssignLineSupplier(ctx context.Context, tc shared.TenantContext, id, lineID uuid.UUID, req tradeapp.AssignSupplierRequest) (*tradeapp.SalesOrderResponse, error) {
	args := m.Called(ctx, tc, id, lineID, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*tradeapp.SalesOrderResponse), args.Error(1)
}

func (m *MockSalesOrders) Close(ctx context.Context, tc shared.TenantContext, id uuid.UUID) (*tradeapp.SalesOrderResponse, error) {
	args := m.Called(ctx, tc, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*tradeapp.SalesOrderResponse), args.Error(1)
}

func (m *MockSalesOrders) Delete(ctx context.Context, tc shared.TenantContext, id uuid.UUID) error {
	return m.Called(ctx, tc, id).Error(0)
}

// MockPurchaseOrders implements PurchaseOrders for testing
type MockPurchaseOrders struct {
	mock.Mock
}

func (m *MockPurchaseOrders) Get(ctx context.Context, tc shared.TenantContext, id uuid.UUID) (*tradeapp.PurchaseOrderResponse, error) {
	args := m.Called(ctx, tc, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*tradeapp.PurchaseOrderResponse), args.Error(1)
}

func (m *MockPurchaseOrders) ListBySalesOrder(ctx context.Context, tc shared.TenantContext, salesOrderID uuid.UUID) ([]tradeapp.PurchaseOrderResponse, error) {
	args := m.Called(ctx, tc, salesOrderID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]tradeapp.PurchaseOrderResponse), args.Error(1)
}

func (m *MockPurchaseOrders) Close(ctx context.Context, tc shared.TenantContext, id uuid.UUID) (*tradeapp.PurchaseOrderResponse, error) {
	args := m.Called(ctx, tc, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*tradeapp.PurchaseOrderResponse), args.Error(1)
}

func (m *MockPurchaseOrders) MarkPaid(ctx context.Context, tc shared.TenantContext, id uuid.UUID) (*tradeapp.PurchaseOrderResponse, error) {
	args := m.Called(ctx, tc, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*tradeapp.PurchaseOrderResponse), args.Error(1)
}

var (
	_ PartyDirectory    = (*MockPartyDirectory)(nil)
	_ ProposalLifecycle = (*MockProposalLifecycle)(nil)
	_ Conversions       = (*MockConversions)(nil)
	_ SalesOrders       = (*MockSalesOrders)(nil)
	_ PurchaseOrders    = (*MockPurchaseOrders)(nil)
)
