// Package numbering stamps allocated numbers onto documents with bounded
// retries on number collisions.
package numbering

import (
	"context"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/erp/backoffice/internal/application/unitofwork"
	domain "github.com/erp/backoffice/internal/domain/numbering"
	"github.com/erp/backoffice/internal/domain/shared"
	"go.uber.org/zap"
)

// DefaultMaxAttempts bounds allocation attempts per numbered document
const DefaultMaxAttempts = 3

// Config configures the Assigner
type Config struct {
	MaxAttempts   int
	RetryInterval time.Duration
	// Observer receives allocation outcomes; nil discards them
	Observer Observer
}

// Observer is notified of numbering outcomes, typically to feed metrics
type Observer interface {
	Assigned(ctx context.Context, c domain.Counter, attempts int)
	Collided(ctx context.Context, c domain.Counter)
	Exhausted(ctx context.Context, c domain.Counter)
}

type nopObserver struct{}

func (nopObserver) Assigned(context.Context, domain.Counter, int) {}
func (nopObserver) Collided(context.Context, domain.Counter)      {}
func (nopObserver) Exhausted(context.Context, domain.Counter)     {}

// PersistFunc writes the document carrying n. It runs inside a savepoint
// and reports a number collision as shared.ErrNumberConflict.
type PersistFunc func(repos unitofwork.TransactionalRepositories, n domain.Number) error

// Assigner allocates a number and persists the numbered document. When the
// document's numero collides with an existing row the savepoint is rolled
// back and a fresh number is allocated; the stale counter advance is kept so
// the next attempt re-enters the locked section with a larger value.
type Assigner struct {
	maxAttempts int
	interval    time.Duration
	observer    Observer
	logger      *zap.Logger
}

// NewAssigner creates an Assigner
func NewAssigner(cfg Config, logger *zap.Logger) *Assigner {
	if cfg.MaxAttempts < 1 {
		cfg.MaxAttempts = DefaultMaxAttempts
	}
	if cfg.Observer == nil {
		cfg.Observer = nopObserver{}
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Assigner{maxAttempts: cfg.MaxAttempts, interval: cfg.RetryInterval, observer: cfg.Observer, logger: logger}
}

// Assign runs allocate-then-persist until persist succeeds, a non-conflict
// error occurs or the attempts are exhausted, in which case
// shared.ErrNumberingFailed is returned.
func (a *Assigner) Assign(ctx context.Context, repos unitofwork.TransactionalRepositories, tc shared.TenantContext, c domain.Counter, persist PersistFunc) (domain.Number, error) {
	var assigned domain.Number
	attempt := 0

	op := func() error {
		attempt++
		n, err := repos.Sequences().Next(ctx, tc, c)
		if err != nil {
			return backoff.Permanent(err)
		}
		err = repos.Savepoint(ctx, func(sp unitofwork.TransactionalRepositories) error {
			return persist(sp, n)
		})
		if err == nil {
			assigned = n
			return nil
		}
		if !shared.IsConflict(err) {
			return backoff.Permanent(err)
		}
		a.observer.Collided(ctx, c)
		a.logger.Warn("document number collided, allocating again",
			zap.String("tenant", tc.ScopeKey()),
			zap.String("counter", c.Key),
			zap.String("numero", n.Formatted),
			zap.Int("attempt", attempt),
		)
		return err
	}

	policy := backoff.WithContext(
		backoff.WithMaxRetries(backoff.NewConstantBackOff(a.interval), uint64(a.maxAttempts-1)),
		ctx,
	)
	if err := backoff.Retry(op, policy); err != nil {
		if shared.IsConflict(err) {
			a.observer.Exhausted(ctx, c)
			a.logger.Error("numbering exhausted retries",
				zap.String("tenant", tc.ScopeKey()),
				zap.String("counter", c.Key),
				zap.Int("attempts", attempt),
			)
			return domain.Number{}, shared.ErrNumberingFailed.Wrap(err)
		}
		return domain.Number{}, err
	}
	a.observer.Assigned(ctx, c, attempt)
	return assigned, nil
}
