package persistence

import (
	"context"

	"github.com/erp/backoffice/internal/domain/shared"
	"github.com/erp/backoffice/internal/domain/trade"
	"github.com/erp/backoffice/internal/infrastructure/persistence/models"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// GormSalesOrderRepository implements SalesOrderRepository using GORM
type GormSalesOrderRepository struct {
	db *gorm.DB
}

// NewGormSalesOrderRepository creates a new GormSalesOrderRepository
func NewGormSalesOrderRepository(db *gorm.DB) *GormSalesOrderRepository {
	return &GormSalesOrderRepository{db: db}
}

// FindByID loads a sales order with its lines
func (r *GormSalesOrderRepository) FindByID(ctx context.Context, tc shared.TenantContext, id uuid.UUID) (*trade.SalesOrder, error) {
	return r.find(scoped(ctx, r.db, tc), id)
}

// FindByIDForUpdate loads a sales order and locks its row until the transaction ends
func (r *GormSalesOrderRepository) FindByIDForUpdate(ctx context.Context, tc shared.TenantContext, id uuid.UUID) (*trade.SalesOrder, error) {
	return r.find(forUpdate(scoped(ctx, r.db, tc)), id)
}

func (r *GormSalesOrderRepository) find(db *gorm.DB, id uuid.UUID) (*trade.SalesOrder, error) {
	var model models.SalesOrderModel
	err := db.Preload("Lines", byPosition).
		Where("id = ?", id).
		Take(&model).Error
	if err != nil {
		return nil, lookupError(err, trade.ErrSalesOrderNotFound)
	}
	return model.ToDomain(), nil
}

// ExistsForProposal reports whether a sales order references proposalID
func (r *GormSalesOrderRepository) ExistsForProposal(ctx context.Context, tc shared.TenantContext, proposalID uuid.UUID) (bool, error) {
	var count int64
	err := scoped(ctx, r.db, tc).
		Model(&models.SalesOrderModel{}).
		Where("proposal_id = ?", proposalID).
		Count(&count).Error
	return count > 0, err
}

// Create inserts a sales order with its lines. The unique proposal
// reference rejects a second conversion of the same proposal.
func (r *GormSalesOrderRepository) Create(ctx context.Context, tc shared.TenantContext, o *trade.SalesOrder) error {
	err := bound(ctx, r.db, tc).Create(models.SalesOrderModelFromDomain(o)).Error
	if !isDuplicateKey(err) {
		return err
	}
	if o.ProposalID != nil && o.Numero == "" {
		return trade.ErrProposalConverted
	}
	return shared.ErrNumberConflict.Wrap(err)
}

// Update persists header changes and replaces the line set
func (r *GormSalesOrderRepository) Update(ctx context.Context, tc shared.TenantContext, o *trade.SalesOrder) error {
	model := models.SalesOrderModelFromDomain(o)
	err := bound(ctx, r.db, tc).Transaction(func(tx *gorm.DB) error {
		if err := updateHeader(scoped(ctx, tx, tc), model, trade.ErrSalesOrderNotFound); err != nil {
			return err
		}
		return replaceLines(tx, &models.SalesOrderLineModel{}, "sales_order_id", o.ID, &model.Lines, len(model.Lines))
	})
	if isDuplicateKey(err) {
		return shared.ErrNumberConflict.Wrap(err)
	}
	return err
}

// Delete removes a sales order and its lines
func (r *GormSalesOrderRepository) Delete(ctx context.Context, tc shared.TenantContext, id uuid.UUID) error {
	return bound(ctx, r.db, tc).Transaction(func(tx *gorm.DB) error {
		return deleteDocument(scoped(ctx, tx, tc), tx, &models.SalesOrderModel{}, &models.SalesOrderLineModel{}, "sales_order_id", id, trade.ErrSalesOrderNotFound)
	})
}

// Ensure GormSalesOrderRepository implements SalesOrderRepository
var _ trade.SalesOrderRepository = (*GormSalesOrderRepository)(nil)
