package numbering

import (
	"context"

	"github.com/erp/backoffice/internal/domain/shared"
)

// Allocator issues counter values. Next must run inside the caller's
// transaction: it locks the (tenant, key) counter row, returns its next value
// and advances it by one, so the advance commits or rolls back together with
// the document that carries the number.
type Allocator interface {
	Next(ctx context.Context, tc shared.TenantContext, c Counter) (Number, error)
}

// Seeder reports the first value a counter that has never been allocated
// should hand out, typically MAX(numero)+1 of the table it numbers.
type Seeder interface {
	Seed(ctx context.Context, tc shared.TenantContext, c Counter) (int64, error)
}

// SeederFunc adapts a function to Seeder
type SeederFunc func(ctx context.Context, tc shared.TenantContext, c Counter) (int64, error)

// Seed calls f
func (f SeederFunc) Seed(ctx context.Context, tc shared.TenantContext, c Counter) (int64, error) {
	return f(ctx, tc, c)
}

// StartAtOne seeds every counter at 1
var StartAtOne Seeder = SeederFunc(func(context.Context, shared.TenantContext, Counter) (int64, error) {
	return 1, nil
})
