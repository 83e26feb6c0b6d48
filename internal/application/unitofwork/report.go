package unitofwork

import (
	"context"
	"errors"

	"github.com/erp/backoffice/internal/domain/shared"
	"go.uber.org/zap"
)

// ReportFailure logs a failed unit of work according to the error taxonomy.
// Validation and not-found errors belong to the caller and are not logged;
// invariant violations and unknown errors are defects logged at error level.
func ReportFailure(logger *zap.Logger, op string, tc shared.TenantContext, err error, fields ...zap.Field) {
	if err == nil || errors.Is(err, context.Canceled) {
		return
	}
	fields = append([]zap.Field{zap.String("op", op), zap.String("tenant", tc.ScopeKey()), zap.Error(err)}, fields...)

	var de *shared.DomainError
	if !errors.As(err, &de) {
		logger.Error("unit of work failed", fields...)
		return
	}
	switch de.Kind {
	case shared.KindValidation, shared.KindNotFound:
		logger.Debug("unit of work rejected", fields...)
	case shared.KindInvariant:
		logger.Error("invariant violated, unit of work aborted", fields...)
	default:
		logger.Warn("unit of work failed", fields...)
	}
}
