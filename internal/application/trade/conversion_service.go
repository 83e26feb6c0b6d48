package trade

import (
	"context"
	"fmt"

	"github.com/erp/backoffice/internal/application/numbering"
	"github.com/erp/backoffice/internal/application/unitofwork"
	domnum "github.com/erp/backoffice/internal/domain/numbering"
	"github.com/erp/backoffice/internal/domain/shared"
	"github.com/erp/backoffice/internal/domain/trade"
	"github.com/google/uuid"
	"github.com/samber/lo"
	"github.com/shopspring/decimal"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"
)

const tracerName = "github.com/erp/backoffice/internal/application/trade"

// ConversionService converts closed proposals into sales orders and closed
// sales orders into one purchase order per supplier.
type ConversionService struct {
	scope          unitofwork.TransactionScope
	assigner       *numbering.Assigner
	clock          shared.Clock
	eventPublisher shared.EventPublisher
	logger         *zap.Logger
}

// NewConversionService creates a new ConversionService
func NewConversionService(scope unitofwork.TransactionScope, assigner *numbering.Assigner, clock shared.Clock, logger *zap.Logger) *ConversionService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ConversionService{
		scope:    scope,
		assigner: assigner,
		clock:    clock,
		logger:   logger,
	}
}

// SetEventPublisher sets the event publisher for cross-context integration
func (s *ConversionService) SetEventPublisher(publisher shared.EventPublisher) {
	s.eventPublisher = publisher
}

// ProposalToSalesOrder creates a draft sales order from a closed proposal.
// A proposal converts once; the proposal row lock serializes concurrent
// conversions and the proposal itself is left untouched.
func (s *ConversionService) ProposalToSalesOrder(ctx context.Context, tc shared.TenantContext, proposalID uuid.UUID) (*SalesOrderResponse, error) {
	ctx, span := otel.Tracer(tracerName).Start(ctx, "trade.ProposalToSalesOrder")
	defer span.End()
	span.SetAttributes(
		attribute.String("tenant", tc.ScopeKey()),
		attribute.String("proposal_id", proposalID.String()),
	)

	var o *trade.SalesOrder
	err := s.scope.Execute(ctx, func(repos unitofwork.TransactionalRepositories) error {
		p, err := repos.Proposals().FindByIDForUpdate(ctx, tc, proposalID)
		if err != nil {
			return err
		}
		if err := p.EnsureConvertible(); err != nil {
			return err
		}
		converted, err := repos.SalesOrders().ExistsForProposal(ctx, tc, proposalID)
		if err != nil {
			return err
		}
		if converted {
			return trade.ErrProposalConverted
		}
		o, err = trade.NewSalesOrderFromProposal(tc, p, s.clock.Now())
		if err != nil {
			return err
		}
		return repos.SalesOrders().Create(ctx, tc, o)
	})
	if err != nil {
		s.fail(span, "convert proposal", tc, err, zap.String("proposal_id", proposalID.String()))
		return nil, err
	}

	s.logger.Info("proposal converted into sales order",
		zap.String("tenant", tc.ScopeKey()),
		zap.String("proposal_id", proposalID.String()),
		zap.String("sales_order_id", o.ID.String()),
		zap.String("total", o.Total.StringFixed(trade.MoneyPlaces)),
	)
	publishEvents(ctx, s.eventPublisher, s.logger, o)

	response := ToSalesOrderResponse(o)
	return &response, nil
}

// SalesOrderToPurchaseOrders creates one draft purchase order per supplier
// referenced by the lines of a closed sales order. Every purchase order gets
// its own number from the yearly purchase order series. The whole run is a
// single transaction: a failure on any group leaves no purchase order and no
// counter advance behind. A sales order converts once.
func (s *ConversionService) SalesOrderToPurchaseOrders(ctx context.Context, tc shared.TenantContext, salesOrderID uuid.UUID) (*ConversionResult, error) {
	ctx, span := otel.Tracer(tracerName).Start(ctx, "trade.SalesOrderToPurchaseOrders")
	defer span.End()
	span.SetAttributes(
		attribute.String("tenant", tc.ScopeKey()),
		attribute.String("sales_order_id", salesOrderID.String()),
	)

	var created []*trade.PurchaseOrder
	err := s.scope.Execute(ctx, func(repos unitofwork.TransactionalRepositories) error {
		created = nil
		so, err := repos.SalesOrders().FindByIDForUpdate(ctx, tc, salesOrderID)
		if err != nil {
			return err
		}
		if !so.IsClosed() {
			return trade.ErrSalesOrderNotClosed
		}
		existing, err := repos.PurchaseOrders().CountBySalesOrder(ctx, tc, salesOrderID)
		if err != nil {
			return err
		}
		if existing > 0 {
			return trade.ErrSalesOrderConverted
		}
		groups := so.SupplierGroups()
		if len(groups) == 0 {
			return trade.ErrNoSupplierLines
		}

		today := shared.Today(s.clock)
		counter := domnum.PurchaseOrders(today.Year())
		for _, g := range groups {
			var po *trade.PurchaseOrder
			_, err := s.assigner.Assign(ctx, repos, tc, counter,
				func(sp unitofwork.TransactionalRepositories, n domnum.Number) error {
					var err error
					po, err = trade.NewPurchaseOrderFromGroup(tc, so, g, n, today, s.clock.Now())
					if err != nil {
						return err
					}
					return sp.PurchaseOrders().Create(ctx, tc, po)
				})
			if err != nil {
				return fmt.Errorf("purchase order for supplier %s: %w", g.SupplierID, err)
			}
			created = append(created, po)
		}
		return verifyConservation(so, created)
	})
	if err != nil {
		s.fail(span, "convert sales order", tc, err, zap.String("sales_order_id", salesOrderID.String()))
		return nil, err
	}

	span.SetAttributes(attribute.Int("purchase_orders", len(created)))
	s.logger.Info("sales order converted into purchase orders",
		zap.String("tenant", tc.ScopeKey()),
		zap.String("sales_order_id", salesOrderID.String()),
		zap.Strings("numeros", lo.Map(created, func(po *trade.PurchaseOrder, _ int) string { return po.Numero })),
	)
	publishEvents(ctx, s.eventPublisher, s.logger, lo.Map(created, func(po *trade.PurchaseOrder, _ int) eventSource { return po })...)

	return &ConversionResult{
		SalesOrderID: salesOrderID,
		Count:        len(created),
		Orders:       lo.Map(created, func(po *trade.PurchaseOrder, _ int) PurchaseOrderResponse { return ToPurchaseOrderResponse(po) }),
	}, nil
}

func (s *ConversionService) fail(span trace.Span, op string, tc shared.TenantContext, err error, fields ...zap.Field) {
	span.RecordError(err)
	span.SetStatus(codes.Error, string(shared.KindOf(err)))
	unitofwork.ReportFailure(s.logger, op, tc, err, fields...)
}

// verifyConservation checks that the purchase orders carry exactly the
// supplier-tagged lines of so, to the cent.
func verifyConservation(so *trade.SalesOrder, created []*trade.PurchaseOrder) error {
	expected, expectedLines := so.SupplierLinesTotal()
	got, gotLines := decimal.Zero, 0
	for _, po := range created {
		got = got.Add(po.Total)
		gotLines += len(po.Lines)
		if !po.Total.Equal(trade.SumLineTotals(po.Lines)) {
			return shared.ErrInvariant.Wrap(fmt.Errorf("purchase order %s total %s differs from its lines", po.Numero, po.Total))
		}
	}
	if !got.Equal(expected) || gotLines != expectedLines {
		return shared.ErrInvariant.Wrap(fmt.Errorf(
			"money not conserved converting %s: lines %d total %s, purchase orders carry %d lines total %s",
			so.Numero, expectedLines, expected.StringFixed(trade.MoneyPlaces), gotLines, got.StringFixed(trade.MoneyPlaces),
		))
	}
	return nil
}
