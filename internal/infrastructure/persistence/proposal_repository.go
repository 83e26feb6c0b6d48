package persistence

import (
	"context"

	"github.com/erp/backoffice/internal/domain/shared"
	"github.com/erp/backoffice/internal/domain/trade"
	"github.com/erp/backoffice/internal/infrastructure/persistence/models"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// GormProposalRepository implements ProposalRepository using GORM
type GormProposalRepository struct {
	db *gorm.DB
}

// NewGormProposalRepository creates a new GormProposalRepository
func NewGormProposalRepository(db *gorm.DB) *GormProposalRepository {
	return &GormProposalRepository{db: db}
}

// FindByID loads a proposal with its lines
func (r *GormProposalRepository) FindByID(ctx context.Context, tc shared.TenantContext, id uuid.UUID) (*trade.Proposal, error) {
	return r.find(scoped(ctx, r.db, tc), id)
}

// FindByIDForUpdate loads a proposal and locks its row until the transaction ends
func (r *GormProposalRepository) FindByIDForUpdate(ctx context.Context, tc shared.TenantContext, id uuid.UUID) (*trade.Proposal, error) {
	return r.find(forUpdate(scoped(ctx, r.db, tc)), id)
}

func (r *GormProposalRepository) find(db *gorm.DB, id uuid.UUID) (*trade.Proposal, error) {
	var model models.ProposalModel
	err := db.Preload("Lines", byPosition).
		Where("id = ?", id).
		Take(&model).Error
	if err != nil {
		return nil, lookupError(err, trade.ErrProposalNotFound)
	}
	return model.ToDomain(), nil
}

// Create inserts a proposal with its lines
func (r *GormProposalRepository) Create(ctx context.Context, tc shared.TenantContext, p *trade.Proposal) error {
	err := bound(ctx, r.db, tc).Create(models.ProposalModelFromDomain(p)).Error
	if isDuplicateKey(err) {
		return shared.ErrNumberConflict.Wrap(err)
	}
	return err
}

// Update persists header changes and replaces the line set
func (r *GormProposalRepository) Update(ctx context.Context, tc shared.TenantContext, p *trade.Proposal) error {
	model := models.ProposalModelFromDomain(p)
	err := bound(ctx, r.db, tc).Transaction(func(tx *gorm.DB) error {
		if err := updateHeader(scoped(ctx, tx, tc), model, trade.ErrProposalNotFound); err != nil {
			return err
		}
		return replaceLines(tx, &models.ProposalLineModel{}, "proposal_id", p.ID, &model.Lines, len(model.Lines))
	})
	if isDuplicateKey(err) {
		return shared.ErrNumberConflict.Wrap(err)
	}
	return err
}

// Delete removes a proposal and its lines
func (r *GormProposalRepository) Delete(ctx context.Context, tc shared.TenantContext, id uuid.UUID) error {
	return bound(ctx, r.db, tc).Transaction(func(tx *gorm.DB) error {
		return deleteDocument(scoped(ctx, tx, tc), tx, &models.ProposalModel{}, &models.ProposalLineModel{}, "proposal_id", id, trade.ErrProposalNotFound)
	})
}

// Ensure GormProposalRepository implements ProposalRepository
var _ trade.ProposalRepository = (*GormProposalRepository)(nil)
