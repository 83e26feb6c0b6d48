package persistence

import (
	"context"

	"github.com/erp/backoffice/internal/domain/shared"
	"github.com/erp/backoffice/internal/domain/trade"
	"github.com/erp/backoffice/internal/infrastructure/persistence/models"
	"github.com/google/uuid"
	"github.com/samber/lo"
	"gorm.io/gorm"
)

// GormPurchaseOrderRepository implements PurchaseOrderRepository using GORM
type GormPurchaseOrderRepository struct {
	db *gorm.DB
}

// NewGormPurchaseOrderRepository creates a new GormPurchaseOrderRepository
func NewGormPurchaseOrderRepository(db *gorm.DB) *GormPurchaseOrderRepository {
	return &GormPurchaseOrderRepository{db: db}
}

// FindByID loads a purchase order with its lines
func (r *GormPurchaseOrderRepository) FindByID(ctx context.Context, tc shared.TenantContext, id uuid.UUID) (*trade.PurchaseOrder, error) {
	return r.find(scoped(ctx, r.db, tc), id)
}

// FindByIDForUpdate loads a purchase order and locks its row until the transaction ends
func (r *GormPurchaseOrderRepository) FindByIDForUpdate(ctx context.Context, tc shared.TenantContext, id uuid.UUID) (*trade.PurchaseOrder, error) {
	return r.find(forUpdate(scoped(ctx, r.db, tc)), id)
}

func (r *GormPurchaseOrderRepository) find(db *gorm.DB, id uuid.UUID) (*trade.PurchaseOrder, error) {
	var model models.PurchaseOrderModel
	err := db.Preload("Lines", byPosition).
		Where("id = ?", id).
		Take(&model).Error
	if err != nil {
		return nil, lookupError(err, trade.ErrPurchaseOrderNotFound)
	}
	return model.ToDomain(), nil
}

// FindBySalesOrder lists the purchase orders generated from salesOrderID by numero
func (r *GormPurchaseOrderRepository) FindBySalesOrder(ctx context.Context, tc shared.TenantContext, salesOrderID uuid.UUID) ([]trade.PurchaseOrder, error) {
	var poModels []models.PurchaseOrderModel
	err := scoped(ctx, r.db, tc).
		Preload("Lines", byPosition).
		Where("sales_order_id = ?", salesOrderID).
		Order("numero").
		Find(&poModels).Error
	if err != nil {
		return nil, err
	}
	return lo.Map(poModels, func(m models.PurchaseOrderModel, _ int) trade.PurchaseOrder { return *m.ToDomain() }), nil
}

// CountBySalesOrder counts the purchase orders referencing salesOrderID
func (r *GormPurchaseOrderRepository) CountBySalesOrder(ctx context.Context, tc shared.TenantContext, salesOrderID uuid.UUID) (int64, error) {
	var count int64
	err := scoped(ctx, r.db, tc).
		Model(&models.PurchaseOrderModel{}).
		Where("sales_order_id = ?", salesOrderID).
		Count(&count).Error
	return count, err
}

// Create inserts a purchase order with its lines
func (r *GormPurchaseOrderRepository) Create(ctx context.Context, tc shared.TenantContext, po *trade.PurchaseOrder) error {
	err := bound(ctx, r.db, tc).Create(models.PurchaseOrderModelFromDomain(po)).Error
	if isDuplicateKey(err) {
		return shared.ErrNumberConflict.Wrap(err)
	}
	return err
}

// UpdateStatus persists a state transition
func (r *GormPurchaseOrderRepository) UpdateStatus(ctx context.Context, tc shared.TenantContext, po *trade.PurchaseOrder) error {
	result := scoped(ctx, r.db, tc).
		Model(&models.PurchaseOrderModel{}).
		Where("id = ?", po.ID).
		Updates(map[string]any{"status": po.Status, "updated_at": po.UpdatedAt})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return trade.ErrPurchaseOrderNotFound
	}
	return nil
}

// Ensure GormPurchaseOrderRepository implements PurchaseOrderRepository
var _ trade.PurchaseOrderRepository = (*GormPurchaseOrderRepository)(nil)
