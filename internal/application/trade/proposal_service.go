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

// ProposalService handles the proposal lifecycle: drafting, line edits,
// closing with a directory-wide number and deletion of drafts.
type ProposalService struct {
	scope          unitofwork.TransactionScope
	proposals      trade.ProposalRepository
	parties        PartyLookup
	assigner       *numbering.Assigner
	clock          shared.Clock
	eventPublisher shared.EventPublisher
	logger         *zap.Logger
}

// NewProposalService creates a new ProposalService
func NewProposalService(
	scope unitofwork.TransactionScope,
	proposals trade.ProposalRepository,
	parties PartyLookup,
	assigner *numbering.Assigner,
	clock shared.Clock,
	logger *zap.Logger,
) *ProposalService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ProposalService{
		scope:     scope,
		proposals: proposals,
		parties:   parties,
		assigner:  assigner,
		clock:     clock,
		logger:    logger,
	}
}

// SetEventPublisher sets the event publisher for cross-context integration
func (s *ProposalService) SetEventPublisher(publisher shared.EventPublisher) {
	s.eventPublisher = publisher
}

// Create opens a draft proposal for an active client of the tenant
func (s *ProposalService) Create(ctx context.Context, tc shared.TenantContext, req CreateProposalRequest) (*ProposalResponse, error) {
	if err := requireClient(ctx, s.parties, tc, req.ClientID); err != nil {
		return nil, err
	}
	lines := ReplaceLinesRequest{Lines: req.Lines}
	if err := requireSuppliers(ctx, s.parties, tc, lines.supplierIDs()); err != nil {
		return nil, err
	}

	now := s.clock.Now()
	p, err := trade.NewProposal(tc, req.ClientID, req.ProposalDate, req.ValidUntil, req.Notes, now)
	if err != nil {
		return nil, err
	}
	if len(req.Lines) > 0 {
		if err := p.ReplaceLines(lines.Inputs(), now); err != nil {
			return nil, err
		}
	}

	err = s.scope.Execute(ctx, func(repos unitofwork.TransactionalRepositories) error {
		return repos.Proposals().Create(ctx, tc, p)
	})
	if err != nil {
		unitofwork.ReportFailure(s.logger, "create proposal", tc, err)
		return nil, err
	}

	response := ToProposalResponse(p)
	return &response, nil
}

// Get retrieves a proposal by ID
func (s *ProposalService) Get(ctx context.Context, tc shared.TenantContext, id uuid.UUID) (*ProposalResponse, error) {
	p, err := s.proposals.FindByID(ctx, tc, id)
	if err != nil {
		return nil, err
	}
	response := ToProposalResponse(p)
	return &response, nil
}

// AddOrReplaceLines replaces every line of a draft proposal and recomputes
// its total
func (s *ProposalService) AddOrReplaceLines(ctx context.Context, tc shared.TenantContext, id uuid.UUID, req ReplaceLinesRequest) (*ProposalResponse, error) {
	if err := requireSuppliers(ctx, s.parties, tc, req.supplierIDs()); err != nil {
		return nil, err
	}

	var p *trade.Proposal
	err := s.scope.Execute(ctx, func(repos unitofwork.TransactionalRepositories) error {
		var err error
		p, err = repos.Proposals().FindByIDForUpdate(ctx, tc, id)
		if err != nil {
			return err
		}
		if err := p.ReplaceLines(req.Inputs(), s.clock.Now()); err != nil {
			return err
		}
		return repos.Proposals().Update(ctx, tc, p)
	})
	if err != nil {
		unitofwork.ReportFailure(s.logger, "replace proposal lines", tc, err, zap.String("proposal_id", id.String()))
		return nil, err
	}

	response := ToProposalResponse(p)
	return &response, nil
}

// Close assigns the proposal number, defaults its dates and freezes it.
// Closing a closed proposal returns it unchanged.
func (s *ProposalService) Close(ctx context.Context, tc shared.TenantContext, id uuid.UUID) (*ProposalResponse, error) {
	var p *trade.Proposal
	err := s.scope.Execute(ctx, func(repos unitofwork.TransactionalRepositories) error {
		var err error
		p, err = repos.Proposals().FindByIDForUpdate(ctx, tc, id)
		if err != nil {
			return err
		}
		needs, err := p.NeedsClosing()
		if err != nil || !needs {
			return err
		}
		today := shared.Today(s.clock)
		_, err = s.assigner.Assign(ctx, repos, tc, domnum.Proposals(),
			func(sp unitofwork.TransactionalRepositories, n domnum.Number) error {
				// Reload so a rolled back attempt never leaks its stamp into the next one
				cur, err := sp.Proposals().FindByIDForUpdate(ctx, tc, id)
				if err != nil {
					return err
				}
				if err := cur.Close(n, today); err != nil {
					return err
				}
				if err := sp.Proposals().Update(ctx, tc, cur); err != nil {
					return err
				}
				p = cur
				return nil
			})
		return err
	})
	if err != nil {
		unitofwork.ReportFailure(s.logger, "close proposal", tc, err, zap.String("proposal_id", id.String()))
		return nil, err
	}

	if events := p.GetDomainEvents(); len(events) > 0 {
		s.logger.Info("proposal closed",
			zap.String("tenant", tc.ScopeKey()),
			zap.String("proposal_id", p.ID.String()),
			zap.String("numero", p.Numero),
			zap.String("total", p.Total.StringFixed(trade.MoneyPlaces)),
		)
	}
	publishEvents(ctx, s.eventPublisher, s.logger, p)

	response := ToProposalResponse(p)
	return &response, nil
}

// Delete removes a draft proposal
func (s *ProposalService) Delete(ctx context.Context, tc shared.TenantContext, id uuid.UUID) error {
	err := s.scope.Execute(ctx, func(repos unitofwork.TransactionalRepositories) error {
		p, err := repos.Proposals().FindByIDForUpdate(ctx, tc, id)
		if err != nil {
			return err
		}
		if err := p.EnsureDeletable(); err != nil {
			return err
		}
		return repos.Proposals().Delete(ctx, tc, id)
	})
	if err != nil {
		unitofwork.ReportFailure(s.logger, "delete proposal", tc, err, zap.String("proposal_id", id.String()))
	}
	return err
}
