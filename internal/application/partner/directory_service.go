package partner

import (
	"context"

	"github.com/erp/backoffice/internal/application/numbering"
	"github.com/erp/backoffice/internal/application/unitofwork"
	"github.com/erp/backoffice/internal/domain/identity"
	domnum "github.com/erp/backoffice/internal/domain/numbering"
	"github.com/erp/backoffice/internal/domain/partner"
	"github.com/erp/backoffice/internal/domain/shared"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// DirectoryService manages parties: registration with a directory number,
// updates guarded by tax id uniqueness, and disclosure-aware reads.
type DirectoryService struct {
	scope          unitofwork.TransactionScope
	parties        partner.PartyRepository
	assigner       *numbering.Assigner
	sealer         partner.Sealer
	authorizer     identity.Authorizer
	clock          shared.Clock
	eventPublisher shared.EventPublisher
	logger         *zap.Logger
}

// NewDirectoryService creates a new DirectoryService
func NewDirectoryService(
	scope unitofwork.TransactionScope,
	parties partner.PartyRepository,
	assigner *numbering.Assigner,
	sealer partner.Sealer,
	authorizer identity.Authorizer,
	clock shared.Clock,
	logger *zap.Logger,
) *DirectoryService {
	if authorizer == nil {
		authorizer = identity.DenyAll
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &DirectoryService{
		scope:      scope,
		parties:    parties,
		assigner:   assigner,
		sealer:     sealer,
		authorizer: authorizer,
		clock:      clock,
		logger:     logger,
	}
}

// SetEventPublisher sets the publisher that receives party events after commit
func (s *DirectoryService) SetEventPublisher(publisher shared.EventPublisher) {
	s.eventPublisher = publisher
}

// FindByNormalizedTaxID finds the party whose normalized tax id equals the
// normalization of taxID, under the active tenant only.
func (s *DirectoryService) FindByNormalizedTaxID(ctx context.Context, tc shared.TenantContext, taxID string) (*partner.PartyView, error) {
	normalized := partner.NormalizeTaxID(taxID)
	if normalized == "" {
		return nil, partner.ErrTaxIDRequired
	}
	p, err := s.parties.FindByTaxIDHash(ctx, tc, partner.HashTaxID(normalized))
	if err != nil {
		return nil, err
	}
	return s.view(ctx, p)
}

// Get returns a party by id
func (s *DirectoryService) Get(ctx context.Context, tc shared.TenantContext, id uuid.UUID) (*partner.PartyView, error) {
	p, err := s.parties.FindByID(ctx, tc, id)
	if err != nil {
		return nil, err
	}
	return s.view(ctx, p)
}

// Lookup returns the party entity for document validation. It never
// discloses sensitive data and is meant for in-process callers.
func (s *DirectoryService) Lookup(ctx context.Context, tc shared.TenantContext, id uuid.UUID) (*partner.Party, error) {
	return s.parties.FindByID(ctx, tc, id)
}

// List returns a page of parties
func (s *DirectoryService) List(ctx context.Context, tc shared.TenantContext, req ListPartiesRequest) (*shared.Paginated[partner.PartyView], error) {
	filter := req.Filter()
	parties, total, err := s.parties.FindAll(ctx, tc, filter)
	if err != nil {
		return nil, err
	}
	authorized := s.authorizer.HasPermission(ctx, identity.PermissionViewSensitive)
	views := make([]partner.PartyView, 0, len(parties))
	for i := range parties {
		v, err := partner.Disclose(&parties[i], s.sealer, authorized)
		if err != nil {
			return nil, err
		}
		views = append(views, v)
	}
	page := shared.NewPaginated(views, total, filter.Page, filter.PageSize)
	return &page, nil
}

// Create registers a party and assigns its directory number
func (s *DirectoryService) Create(ctx context.Context, tc shared.TenantContext, req CreatePartyRequest) (*partner.PartyView, error) {
	p, err := s.register(ctx, tc, req.Draft(), 0)
	if err != nil {
		return nil, err
	}
	return s.view(ctx, p)
}

// register inserts a party. A positive numero is kept as given and fails on
// collision; zero draws the next directory number.
func (s *DirectoryService) register(ctx context.Context, tc shared.TenantContext, draft partner.PartyDraft, numero int64) (*partner.Party, error) {
	p, err := partner.NewParty(tc, draft, s.sealer, s.clock.Now())
	if err != nil {
		return nil, err
	}

	err = s.scope.Execute(ctx, func(repos unitofwork.TransactionalRepositories) error {
		taken, err := repos.Parties().ExistsTaxIDHash(ctx, tc, p.TaxIDHash, uuid.Nil)
		if err != nil {
			return err
		}
		if taken {
			return partner.ErrDuplicateTaxID
		}
		if numero > 0 {
			p.AssignNumero(domnum.NewNumber(domnum.Entities(), numero))
			return repos.Parties().Create(ctx, tc, p)
		}
		_, err = s.assigner.Assign(ctx, repos, tc, domnum.Entities(),
			func(sp unitofwork.TransactionalRepositories, n domnum.Number) error {
				p.AssignNumero(n)
				return sp.Parties().Create(ctx, tc, p)
			})
		return err
	})
	if err != nil {
		unitofwork.ReportFailure(s.logger, "create party", tc, err)
		return nil, err
	}

	s.logger.Info("party registered",
		zap.String("tenant", tc.ScopeKey()),
		zap.String("party_id", p.ID.String()),
		zap.Int64("numero", p.Numero),
	)
	s.publish(ctx, p)
	return p, nil
}

// Update applies a partial update. A changed tax id is re-checked for
// uniqueness inside the transaction; the unique index backs the check
// against concurrent writers.
func (s *DirectoryService) Update(ctx context.Context, tc shared.TenantContext, id uuid.UUID, req UpdatePartyRequest) (*partner.PartyView, error) {
	var p *partner.Party
	err := s.scope.Execute(ctx, func(repos unitofwork.TransactionalRepositories) error {
		var err error
		p, err = repos.Parties().FindByID(ctx, tc, id)
		if err != nil {
			return err
		}
		taxChanged, err := p.Apply(req.Patch(), s.sealer, s.clock.Now())
		if err != nil {
			return err
		}
		if taxChanged {
			taken, err := repos.Parties().ExistsTaxIDHash(ctx, tc, p.TaxIDHash, p.ID)
			if err != nil {
				return err
			}
			if taken {
				return partner.ErrDuplicateTaxID
			}
		}
		return repos.Parties().Update(ctx, tc, p)
	})
	if err != nil {
		unitofwork.ReportFailure(s.logger, "update party", tc, err)
		return nil, err
	}
	s.publish(ctx, p)
	return s.view(ctx, p)
}

// Delete soft-deletes a party
func (s *DirectoryService) Delete(ctx context.Context, tc shared.TenantContext, id uuid.UUID) error {
	var p *partner.Party
	err := s.scope.Execute(ctx, func(repos unitofwork.TransactionalRepositories) error {
		var err error
		p, err = repos.Parties().FindByID(ctx, tc, id)
		if err != nil {
			return err
		}
		p.SoftDelete(s.clock.Now())
		return repos.Parties().Update(ctx, tc, p)
	})
	if err != nil {
		unitofwork.ReportFailure(s.logger, "delete party", tc, err)
		return err
	}
	s.publish(ctx, p)
	return nil
}

func (s *DirectoryService) view(ctx context.Context, p *partner.Party) (*partner.PartyView, error) {
	authorized := s.authorizer.HasPermission(ctx, identity.PermissionViewSensitive)
	v, err := partner.Disclose(p, s.sealer, authorized)
	if err != nil {
		return nil, err
	}
	if v.Disclosed {
		s.logger.Debug("party disclosed",
			zap.String("party_id", p.ID.String()),
			zap.Bool("by_permission", authorized),
		)
	}
	return &v, nil
}

func (s *DirectoryService) publish(ctx context.Context, p *partner.Party) {
	events := p.GetDomainEvents()
	p.ClearDomainEvents()
	if s.eventPublisher == nil || len(events) == 0 {
		return
	}
	if err := s.eventPublisher.Publish(ctx, events...); err != nil {
		s.logger.Warn("failed to publish party events", zap.Error(err))
	}
}
