package trade

import (
	"context"

	"github.com/erp/backoffice/internal/application/numbering"
	"github.com/erp/backoffice/internal/application/unitofwork"
	domnum "github.com/erp/backoffice/internal/domain/numbering"
	"github.com/erp/backoffice/internal/domain/shared"
	"github.com/erp/backoffice/internal/domain/trade"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// SalesOrderService handles sales order editing and closing
type SalesOrderService struct {
	scope          unitofwork.TransactionScope
	orders         trade.SalesOrderRepository
	parties        PartyLookup
	assigner       *numbering.Assigner
	clock          shared.Clock
	eventPublisher shared.EventPublisher
	logger         *zap.Logger
}

// NewSalesOrderService creates a new SalesOrderService
func NewSalesOrderService(
	scope unitofwork.TransactionScope,
	orders trade.SalesOrderRepository,
	parties PartyLookup,
	assigner *numbering.Assigner,
	clock shared.Clock,
	logger *zap.Logger,
) *SalesOrderService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &SalesOrderService{
		scope:    scope,
		orders:   orders,
		parties:  parties,
		assigner: assigner,
		clock:    clock,
		logger:   logger,
	}
}

// SetEventPublisher sets the event publisher for cross-context integration
func (s *SalesOrderService) SetEventPublisher(publisher shared.EventPublisher) {
	s.eventPublisher = publisher
}

// Get retrieves a sales order by ID
func (s *SalesOrderService) Get(ctx context.Context, tc shared.TenantContext, id uuid.UUID) (*SalesOrderResponse, error) {
	o, err := s.orders.FindByID(ctx, tc, id)
	if err != nil {
		return nil, err
	}
	response := ToSalesOrderResponse(o)
	return &response, nil
}

// ReplaceLines replaces every line of a draft sales order
func (s *SalesOrderService) ReplaceLines(ctx context.Context, tc shared.TenantContext, id uuid.UUID, req ReplaceLinesRequest) (*SalesOrderResponse, error) {
	if err := requireSuppliers(ctx, s.parties, tc, req.supplierIDs()); err != nil {
		return nil, err
	}
	return s.mutate(ctx, tc, id, "replace sales order lines", func(o *trade.SalesOrder) error {
		return o.ReplaceLines(req.Inputs(), s.clock.Now())
	})
}

// AssignLineSupplier sets or clears the supplier of one draft line
func (s *SalesOrderService) AssignLineSupplier(ctx context.Context, tc shared.TenantContext, id, lineID uuid.UUID, req AssignSupplierRequest) (*SalesOrderResponse, error) {
	if req.SupplierID != nil {
		if err := requireSuppliers(ctx, s.parties, tc, []uuid.UUID{*req.SupplierID}); err != nil {
			return nil, err
		}
	}
	return s.mutate(ctx, tc, id, "assign line supplier", func(o *trade.SalesOrder) error {
		return o.AssignLineSupplier(lineID, req.SupplierID, s.clock.Now())
	})
}

// Close numbers the order in the yearly sales order series and freezes it
func (s *SalesOrderService) Close(ctx context.Context, tc shared.TenantContext, id uuid.UUID) (*SalesOrderResponse, error) {
	var o *trade.SalesOrder
	err := s.scope.Execute(ctx, func(repos unitofwork.TransactionalRepositories) error {
		var err error
		o, err = repos.SalesOrders().FindByIDForUpdate(ctx, tc, id)
		if err != nil {
			return err
		}
		if !o.NeedsClosing() {
			return nil
		}
		today := shared.Today(s.clock)
		_, err = s.assigner.Assign(ctx, repos, tc, domnum.SalesOrders(today.Year()),
			func(sp unitofwork.TransactionalRepositories, n domnum.Number) error {
				cur, err := sp.SalesOrders().FindByIDForUpdate(ctx, tc, id)
				if err != nil {
					return err
				}
				if err := cur.Close(n, today); err != nil {
					return err
				}
				if err := sp.SalesOrders().Update(ctx, tc, cur); err != nil {
					return err
				}
				o = cur
				return nil
			})
		return err
	})
	if err != nil {
		unitofwork.ReportFailure(s.logger, "close sales order", tc, err, zap.String("sales_order_id", id.String()))
		return nil, err
	}

	if len(o.GetDomainEvents()) > 0 {
		s.logger.Info("sales order closed",
			zap.String("tenant", tc.ScopeKey()),
			zap.String("sales_order_id", o.ID.String()),
			zap.String("numero", o.Numero),
			zap.String("total", o.Total.StringFixed(trade.MoneyPlaces)),
		)
	}
	publishEvents(ctx, s.eventPublisher, s.logger, o)

	response := ToSalesOrderResponse(o)
	return &response, nil
}

// Delete removes a draft sales order
func (s *SalesOrderService) Delete(ctx context.Context, tc shared.TenantContext, id uuid.UUID) error {
	err := s.scope.Execute(ctx, func(repos unitofwork.TransactionalRepositories) error {
		o, err := repos.SalesOrders().FindByIDForUpdate(ctx, tc, id)
		if err != nil {
			return err
		}
		if err := o.EnsureDeletable(); err != nil {
			return err
		}
		return repos.SalesOrders().Delete(ctx, tc, id)
	})
	if err != nil {
		unitofwork.ReportFailure(s.logger, "delete sales order", tc, err, zap.String("sales_order_id", id.String()))
	}
	return err
}

func (s *SalesOrderService) mutate(ctx context.Context, tc shared.TenantContext, id uuid.UUID, op string, fn func(o *trade.SalesOrder) error) (*SalesOrderResponse, error) {
	var o *trade.SalesOrder
	err := s.scope.Execute(ctx, func(repos unitofwork.TransactionalRepositories) error {
		var err error
		o, err = repos.SalesOrders().FindByIDForUpdate(ctx, tc, id)
		if err != nil {
			return err
		}
		if err := fn(o); err != nil {
			return err
		}
		return repos.SalesOrders().Update(ctx, tc, o)
	})
	if err != nil {
		unitofwork.ReportFailure(s.logger, op, tc, err, zap.String("sales_order_id", id.String()))
		return nil, err
	}
	response := ToSalesOrderResponse(o)
	return &response, nil
}
