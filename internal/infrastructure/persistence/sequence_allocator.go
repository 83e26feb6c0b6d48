package persistence

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/erp/backoffice/internal/domain/numbering"
	"github.com/erp/backoffice/internal/domain/shared"
	"github.com/erp/backoffice/internal/infrastructure/persistence/models"
	"github.com/erp/backoffice/internal/infrastructure/persistence/tenant"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// GormSequenceAllocator implements numbering.Allocator on the sequences
// table. It must be built on a transaction handle: the row lock it takes is
// held until that transaction ends.
type GormSequenceAllocator struct {
	db      *gorm.DB
	adopter *SequenceAdopter
}

// NewGormSequenceAllocator creates an allocator on db. A nil seeder adopts
// missing counters from the numbered tables.
func NewGormSequenceAllocator(db *gorm.DB, seeder numbering.Seeder) *GormSequenceAllocator {
	return &GormSequenceAllocator{db: db, adopter: NewSequenceAdopter(db, seeder)}
}

// Next locks the (tenant, key) counter row, returns its value and advances it
func (a *GormSequenceAllocator) Next(ctx context.Context, tc shared.TenantContext, c numbering.Counter) (numbering.Number, error) {
	if err := c.Validate(); err != nil {
		return numbering.Number{}, err
	}
	db := a.db.WithContext(tenant.WithContext(ctx, tc))

	row, err := lockCounter(db, tc, c.Key)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		if err = a.adopter.ensure(ctx, db, tc, c); err != nil {
			return numbering.Number{}, err
		}
		row, err = lockCounter(db, tc, c.Key)
	}
	if err != nil {
		return numbering.Number{}, fmt.Errorf("lock counter %s: %w", c.Key, err)
	}

	value := row.Next
	result := db.Model(&models.SequenceModel{}).
		Where(&models.SequenceModel{Scope: tc.ScopeKey(), Key: c.Key}).
		Update("next", value+1)
	if result.Error != nil {
		return numbering.Number{}, fmt.Errorf("advance counter %s: %w", c.Key, result.Error)
	}
	if result.RowsAffected != 1 {
		return numbering.Number{}, shared.ErrInvariant.Wrap(fmt.Errorf("counter %s advanced %d rows", c.Key, result.RowsAffected))
	}
	return numbering.NewNumber(c, value), nil
}

func lockCounter(db *gorm.DB, tc shared.TenantContext, key string) (*models.SequenceModel, error) {
	var row models.SequenceModel
	err := db.Clauses(clause.Locking{Strength: "UPDATE"}).
		Where(&models.SequenceModel{Scope: tc.ScopeKey(), Key: key}).
		Take(&row).Error
	if err != nil {
		return nil, err
	}
	return &row, nil
}

// SequenceAdopter bootstraps counters from the documents they number, so a
// counter introduced over existing data continues after MAX(numero).
type SequenceAdopter struct {
	db     *gorm.DB
	seeder numbering.Seeder
}

// NewSequenceAdopter creates an adopter. A nil seeder reads the numbered tables.
func NewSequenceAdopter(db *gorm.DB, seeder numbering.Seeder) *SequenceAdopter {
	if seeder == nil {
		seeder = NewTableSeeder(db)
	}
	return &SequenceAdopter{db: db, seeder: seeder}
}

// Adopt creates the counter row when missing and raises next to the seed
// when the documents have moved past it. next never moves backwards.
// It returns the resulting next value.
func (a *SequenceAdopter) Adopt(ctx context.Context, tc shared.TenantContext, c numbering.Counter) (int64, error) {
	if err := c.Validate(); err != nil {
		return 0, err
	}
	seed, err := a.seed(ctx, tc, c)
	if err != nil {
		return 0, err
	}
	var next int64
	err = a.db.WithContext(tenant.WithContext(ctx, tc)).Transaction(func(tx *gorm.DB) error {
		if err := insertCounter(tx, tc, c.Key, seed); err != nil {
			return err
		}
		row, err := lockCounter(tx, tc, c.Key)
		if err != nil {
			return fmt.Errorf("lock counter %s: %w", c.Key, err)
		}
		next = row.Next
		if seed <= row.Next {
			return nil
		}
		next = seed
		return tx.Model(&models.SequenceModel{}).
			Where(&models.SequenceModel{Scope: tc.ScopeKey(), Key: c.Key}).
			Update("next", seed).Error
	})
	return next, err
}

// ensure creates a missing counter row at its seed. A concurrent creator
// wins silently; the caller re-reads the row under lock.
func (a *SequenceAdopter) ensure(ctx context.Context, db *gorm.DB, tc shared.TenantContext, c numbering.Counter) error {
	seed, err := a.seed(ctx, tc, c)
	if err != nil {
		return err
	}
	return insertCounter(db, tc, c.Key, seed)
}

func (a *SequenceAdopter) seed(ctx context.Context, tc shared.TenantContext, c numbering.Counter) (int64, error) {
	seed, err := a.seeder.Seed(ctx, tc, c)
	if err != nil {
		return 0, fmt.Errorf("seed counter %s: %w", c.Key, err)
	}
	if seed < 1 {
		seed = 1
	}
	return seed, nil
}

func insertCounter(db *gorm.DB, tc shared.TenantContext, key string, next int64) error {
	row := models.SequenceModel{Scope: tc.ScopeKey(), Key: key, TenantID: tc.Stamp(), Next: next}
	if err := db.Clauses(clause.OnConflict{DoNothing: true}).Create(&row).Error; err != nil {
		return fmt.Errorf("create counter %s: %w", key, err)
	}
	return nil
}

// TableSeeder seeds a counter with MAX(numero)+1 of the table it numbers,
// within the tenant's scope. Counters without a registered table start at 1.
type TableSeeder struct {
	db *gorm.DB
}

// NewTableSeeder creates a TableSeeder reading through db
func NewTableSeeder(db *gorm.DB) *TableSeeder {
	return &TableSeeder{db: db}
}

type seedSource struct {
	model any
	expr  string
	like  string
}

func seedSourceFor(c numbering.Counter) (seedSource, bool) {
	switch {
	case c.Prefix == "" && c.Key == numbering.KeyEntities:
		return seedSource{model: &models.PartyModel{}, expr: "MAX(numero)"}, true
	case c.Prefix == "" && c.Key == numbering.KeyProposals:
		return seedSource{model: &models.ProposalModel{}, expr: "MAX(CAST(numero AS BIGINT))"}, true
	case c.Prefix == numbering.PrefixSalesOrder:
		return prefixedSource(&models.SalesOrderModel{}, c), true
	case c.Prefix == numbering.PrefixPurchaseOrder:
		return prefixedSource(&models.PurchaseOrderModel{}, c), true
	}
	return seedSource{}, false
}

// prefixedSource reads the counter part of numbers like EC-2025-0042
func prefixedSource(model any, c numbering.Counter) seedSource {
	head := fmt.Sprintf("%s-%04d-", c.Prefix, c.Year)
	return seedSource{
		model: model,
		expr:  fmt.Sprintf("MAX(CAST(SUBSTR(numero, %d) AS BIGINT))", len(head)+1),
		like:  head + "%",
	}
}

// Seed implements numbering.Seeder
func (s *TableSeeder) Seed(ctx context.Context, tc shared.TenantContext, c numbering.Counter) (int64, error) {
	src, ok := seedSourceFor(c)
	if !ok {
		return 1, nil
	}
	query := s.db.WithContext(tenant.WithContext(ctx, tc)).
		Model(src.model).
		Scopes(tenant.ScopeKey(tc)).
		Select(src.expr)
	if src.like != "" {
		query = query.Where("numero LIKE ?", src.like)
	}
	var max sql.NullInt64
	if err := query.Scan(&max).Error; err != nil {
		return 0, err
	}
	return max.Int64 + 1, nil
}

var (
	_ numbering.Allocator = (*GormSequenceAllocator)(nil)
	_ numbering.Seeder    = (*TableSeeder)(nil)
)
