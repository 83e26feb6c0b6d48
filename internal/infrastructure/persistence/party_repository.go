package persistence

import (
	"context"
	"strings"

	"github.com/erp/backoffice/internal/domain/partner"
	"github.com/erp/backoffice/internal/domain/shared"
	"github.com/erp/backoffice/internal/infrastructure/persistence/models"
	"github.com/erp/backoffice/internal/infrastructure/persistence/tenant"
	"github.com/google/uuid"
	"github.com/samber/lo"
	"gorm.io/gorm"
)

// GormPartyRepository implements PartyRepository using GORM
type GormPartyRepository struct {
	db *gorm.DB
}

// NewGormPartyRepository creates a new GormPartyRepository
func NewGormPartyRepository(db *gorm.DB) *GormPartyRepository {
	return &GormPartyRepository{db: db}
}

// FindByID finds a party visible to tc
func (r *GormPartyRepository) FindByID(ctx context.Context, tc shared.TenantContext, id uuid.UUID) (*partner.Party, error) {
	var model models.PartyModel
	err := scoped(ctx, r.db, tc).
		Where("id = ? AND deleted_at IS NULL", id).
		Take(&model).Error
	if err != nil {
		return nil, lookupError(err, partner.ErrPartyNotFound)
	}
	return model.ToDomain(), nil
}

// FindByTaxIDHash finds the non-deleted party holding hash. A tenant's own
// party wins over a global one with the same tax id.
func (r *GormPartyRepository) FindByTaxIDHash(ctx context.Context, tc shared.TenantContext, hash string) (*partner.Party, error) {
	var model models.PartyModel
	err := scoped(ctx, r.db, tc).
		Where("tax_id_hash = ? AND deleted_at IS NULL", hash).
		Order("tenant_id IS NULL").
		Take(&model).Error
	if err != nil {
		return nil, lookupError(err, partner.ErrPartyNotFound)
	}
	return model.ToDomain(), nil
}

// ExistsTaxIDHash reports whether a non-deleted party of the tenant's scope
// other than excludeID holds hash
func (r *GormPartyRepository) ExistsTaxIDHash(ctx context.Context, tc shared.TenantContext, hash string, excludeID uuid.UUID) (bool, error) {
	var count int64
	err := bound(ctx, r.db, tc).
		Model(&models.PartyModel{}).
		Scopes(tenant.ScopeKey(tc)).
		Where("tax_id_hash = ? AND deleted_at IS NULL AND id <> ?", hash, excludeID).
		Count(&count).Error
	return count > 0, err
}

// FindAll lists parties matching filter and returns the total count
func (r *GormPartyRepository) FindAll(ctx context.Context, tc shared.TenantContext, filter partner.PartyFilter) ([]partner.Party, int64, error) {
	query := scoped(ctx, r.db, tc).Model(&models.PartyModel{}).Where("deleted_at IS NULL")

	if filter.ClientsOnly {
		query = query.Where("is_client = ?", true)
	}
	if filter.SuppliersOnly {
		query = query.Where("is_supplier = ?", true)
	}
	if filter.State != "" {
		query = query.Where("state = ?", filter.State)
	}
	if search := strings.TrimSpace(filter.Search); search != "" {
		keyword := "%" + strings.ToLower(search) + "%"
		query = query.Where("(LOWER(name) LIKE ? OR LOWER(locality) LIKE ?)", keyword, keyword)
	}

	var total int64
	if err := query.Session(&gorm.Session{}).Count(&total).Error; err != nil {
		return nil, 0, err
	}

	sortField := ValidateSortField(filter.OrderBy, PartySortFields, "numero")
	sortOrder := "ASC"
	if filter.OrderDir != "" {
		sortOrder = ValidateSortOrder(filter.OrderDir)
	}

	page := filter.Filter.Normalize()
	var partyModels []models.PartyModel
	err := query.
		Order(sortField + " " + sortOrder).
		Offset(page.Offset()).
		Limit(page.PageSize).
		Find(&partyModels).Error
	if err != nil {
		return nil, 0, err
	}

	parties := lo.Map(partyModels, func(m models.PartyModel, _ int) partner.Party { return *m.ToDomain() })
	return parties, total, nil
}

// Create inserts a new party. The insert runs in its own savepoint so that a
// unique violation can be attributed by re-reading the tax id index.
func (r *GormPartyRepository) Create(ctx context.Context, tc shared.TenantContext, party *partner.Party) error {
	model := models.PartyModelFromDomain(party)
	err := bound(ctx, r.db, tc).Transaction(func(tx *gorm.DB) error {
		return tx.Create(model).Error
	})
	if !isDuplicateKey(err) {
		return err
	}
	taken, checkErr := r.ExistsTaxIDHash(ctx, tc, party.TaxIDHash, party.ID)
	if checkErr != nil {
		return checkErr
	}
	if taken {
		return partner.ErrDuplicateTaxID
	}
	return shared.ErrNumberConflict.Wrap(err)
}

// Update persists changes of an existing, non-deleted party
func (r *GormPartyRepository) Update(ctx context.Context, tc shared.TenantContext, party *partner.Party) error {
	model := models.PartyModelFromDomain(party)
	err := updateHeader(scoped(ctx, r.db, tc).Where("deleted_at IS NULL"), model, partner.ErrPartyNotFound)
	if isDuplicateKey(err) {
		return partner.ErrDuplicateTaxID
	}
	return err
}

// Ensure GormPartyRepository implements PartyRepository
var _ partner.PartyRepository = (*GormPartyRepository)(nil)
