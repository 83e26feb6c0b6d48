package partner

import (
	"context"

	domnum "github.com/erp/backoffice/internal/domain/numbering"
	"github.com/erp/backoffice/internal/domain/partner"
	"github.com/erp/backoffice/internal/domain/shared"
	"go.uber.org/zap"
)

// CounterAdopter raises a counter past the numbers already stored.
// persistence.SequenceAdopter satisfies it.
type CounterAdopter interface {
	Adopt(ctx context.Context, tc shared.TenantContext, c domnum.Counter) (int64, error)
}

// ImportRecord is one party read from an external source. A positive Numero
// is kept; zero draws the next directory number.
type ImportRecord struct {
	Line   int
	Numero int64
	Draft  partner.PartyDraft
}

// ImportFailure reports a record that was rejected
type ImportFailure struct {
	Line    int    `json:"line"`
	Numero  int64  `json:"numero,omitempty"`
	Code    string `json:"code"`
	Message string `json:"message"`
}

// ImportResult summarizes an import run
type ImportResult struct {
	Created  int             `json:"created"`
	Failures []ImportFailure `json:"failures,omitempty"`
	// NextNumero is the entities counter after the run
	NextNumero int64 `json:"next_numero"`
}

// ImportService loads parties in bulk, keeping the numbers they carry
type ImportService struct {
	directory *DirectoryService
	adopter   CounterAdopter
	logger    *zap.Logger
}

// NewImportService creates a new ImportService
func NewImportService(directory *DirectoryService, adopter CounterAdopter, logger *zap.Logger) *ImportService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ImportService{directory: directory, adopter: adopter, logger: logger}
}

// Import registers every record in its own transaction. Records carrying a
// numero go first; the entities counter is then adopted so the remaining
// records continue after the largest stored number. Rejected records are
// reported and skipped; any other error stops the run.
func (s *ImportService) Import(ctx context.Context, tc shared.TenantContext, records []ImportRecord) (*ImportResult, error) {
	var numbered, unnumbered []ImportRecord
	for _, r := range records {
		if r.Numero > 0 {
			numbered = append(numbered, r)
		} else {
			unnumbered = append(unnumbered, r)
		}
	}

	result := &ImportResult{}
	for _, r := range numbered {
		if err := s.importOne(ctx, tc, r, result); err != nil {
			return result, err
		}
	}

	next, err := s.adopter.Adopt(ctx, tc, domnum.Entities())
	if err != nil {
		return result, err
	}
	result.NextNumero = next

	for _, r := range unnumbered {
		if err := s.importOne(ctx, tc, r, result); err != nil {
			return result, err
		}
	}
	if len(unnumbered) > 0 {
		if result.NextNumero, err = s.adopter.Adopt(ctx, tc, domnum.Entities()); err != nil {
			return result, err
		}
	}

	s.logger.Info("parties imported",
		zap.String("tenant", tc.ScopeKey()),
		zap.Int("records", len(records)),
		zap.Int("created", result.Created),
		zap.Int("rejected", len(result.Failures)),
		zap.Int64("next_numero", result.NextNumero),
	)
	return result, nil
}

func (s *ImportService) importOne(ctx context.Context, tc shared.TenantContext, r ImportRecord, result *ImportResult) error {
	_, err := s.directory.register(ctx, tc, r.Draft, r.Numero)
	if err == nil {
		result.Created++
		return nil
	}
	de, ok := shared.AsDomainError(err)
	if !ok || !rejectable(de.Kind) {
		return err
	}
	result.Failures = append(result.Failures, ImportFailure{Line: r.Line, Numero: r.Numero, Code: de.Code, Message: de.Message})
	return nil
}

func rejectable(kind shared.ErrorKind) bool {
	return kind == shared.KindValidation || kind == shared.KindConflict
}
