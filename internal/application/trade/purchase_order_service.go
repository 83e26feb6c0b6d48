package trade

import (
	"context"

	"github.com/erp/backoffice/internal/application/unitofwork"
	"github.com/erp/backoffice/internal/domain/shared"
	"github.com/erp/backoffice/internal/domain/trade"
	"github.com/google/uuid"
	"github.com/samber/lo"
	"go.uber.org/zap"
)

// PurchaseOrderService handles purchase order state transitions
type PurchaseOrderService struct {
	scope          unitofwork.TransactionScope
	orders         trade.PurchaseOrderRepository
	clock          shared.Clock
	eventPublisher shared.EventPublisher
	logger         *zap.Logger
}

// NewPurchaseOrderService creates a new PurchaseOrderService
func NewPurchaseOrderService(scope unitofwork.TransactionScope, orders trade.PurchaseOrderRepository, clock shared.Clock, logger *zap.Logger) *PurchaseOrderService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &PurchaseOrderService{
		scope:  scope,
		orders: orders,
		clock:  clock,
		logger: logger,
	}
}

// SetEventPublisher sets the event publisher for cross-context integration
func (s *PurchaseOrderService) SetEventPublisher(publisher shared.EventPublisher) {
	s.eventPublisher = publisher
}

// Get retrieves a purchase order by ID
func (s *PurchaseOrderService) Get(ctx context.Context, tc shared.TenantContext, id uuid.UUID) (*PurchaseOrderResponse, error) {
	po, err := s.orders.FindByID(ctx, tc, id)
	if err != nil {
		return nil, err
	}
	response := ToPurchaseOrderResponse(po)
	return &response, nil
}

// ListBySalesOrder lists the purchase orders generated from a sales order
func (s *PurchaseOrderService) ListBySalesOrder(ctx context.Context, tc shared.TenantContext, salesOrderID uuid.UUID) ([]PurchaseOrderResponse, error) {
	orders, err := s.orders.FindBySalesOrder(ctx, tc, salesOrderID)
	if err != nil {
		return nil, err
	}
	return lo.Map(orders, func(po trade.PurchaseOrder, _ int) PurchaseOrderResponse {
		return ToPurchaseOrderResponse(&po)
	}), nil
}

// Close moves a draft purchase order to closed
func (s *PurchaseOrderService) Close(ctx context.Context, tc shared.TenantContext, id uuid.UUID) (*PurchaseOrderResponse, error) {
	return s.transition(ctx, tc, id, "close purchase order", func(po *trade.PurchaseOrder) error {
		return po.Close(s.clock.Now())
	})
}

// MarkPaid moves a closed purchase order to paid
func (s *PurchaseOrderService) MarkPaid(ctx context.Context, tc shared.TenantContext, id uuid.UUID) (*PurchaseOrderResponse, error) {
	return s.transition(ctx, tc, id, "pay purchase order", func(po *trade.PurchaseOrder) error {
		return po.MarkPaid(s.clock.Now())
	})
}

func (s *PurchaseOrderService) transition(ctx context.Context, tc shared.TenantContext, id uuid.UUID, op string, fn func(po *trade.PurchaseOrder) error) (*PurchaseOrderResponse, error) {
	var po *trade.PurchaseOrder
	err := s.scope.Execute(ctx, func(repos unitofwork.TransactionalRepositories) error {
		var err error
		po, err = repos.PurchaseOrders().FindByIDForUpdate(ctx, tc, id)
		if err != nil {
			return err
		}
		if err := fn(po); err != nil {
			return err
		}
		return repos.PurchaseOrders().UpdateStatus(ctx, tc, po)
	})
	if err != nil {
		unitofwork.ReportFailure(s.logger, op, tc, err, zap.String("purchase_order_id", id.String()))
		return nil, err
	}

	s.logger.Info("purchase order status changed",
		zap.String("tenant", tc.ScopeKey()),
		zap.String("purchase_order_id", po.ID.String()),
		zap.String("numero", po.Numero),
		zap.String("status", po.Status.String()),
	)
	publishEvents(ctx, s.eventPublisher, s.logger, po)

	response := ToPurchaseOrderResponse(po)
	return &response, nil
}
