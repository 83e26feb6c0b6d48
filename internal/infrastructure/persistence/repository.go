package persistence

import (
	"context"
	"errors"

	"github.com/erp/backoffice/internal/domain/shared"
	"github.com/erp/backoffice/internal/infrastructure/persistence/tenant"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// immutableColumns are never rewritten by an update
var immutableColumns = []string{"id", "created_at", "tenant_id", "scope"}

func isDuplicateKey(err error) bool {
	return errors.Is(err, gorm.ErrDuplicatedKey)
}

// lookupError maps a missing row to notFound
func lookupError(err, notFound error) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return notFound
	}
	return err
}

// scoped binds db to the call's tenant and restricts reads to its rows
func scoped(ctx context.Context, db *gorm.DB, tc shared.TenantContext) *gorm.DB {
	return tenant.Bind(ctx, db, tc, "")
}

// bound binds db to the call's tenant without filtering, for inserts
func bound(ctx context.Context, db *gorm.DB, tc shared.TenantContext) *gorm.DB {
	return db.WithContext(tenant.WithContext(ctx, tc))
}

func forUpdate(db *gorm.DB) *gorm.DB {
	return db.Clauses(clause.Locking{Strength: "UPDATE"})
}

func byPosition(db *gorm.DB) *gorm.DB {
	return db.Order("position")
}

// updateHeader rewrites every mutable column of model, leaving its
// associations alone. It reports notFound when no visible row matched.
func updateHeader(db *gorm.DB, model any, notFound error) error {
	omit := append(append([]string{}, immutableColumns...), clause.Associations)
	result := db.Model(model).Select("*").Omit(omit...).Updates(model)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return notFound
	}
	return nil
}

// replaceLines deletes the lines whose fk equals id and inserts lines.
// lines must be a slice of line models; an empty slice leaves no lines.
func replaceLines(tx *gorm.DB, lineModel any, fk string, id any, lines any, count int) error {
	if err := tx.Where(fk+" = ?", id).Delete(lineModel).Error; err != nil {
		return err
	}
	if count == 0 {
		return nil
	}
	return tx.Create(lines).Error
}

// deleteDocument deletes the header visible through scopedDB and its lines
func deleteDocument(scopedDB, tx *gorm.DB, header, lineModel any, fk string, id any, notFound error) error {
	result := scopedDB.Where("id = ?", id).Delete(header)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return notFound
	}
	return tx.Where(fk+" = ?", id).Delete(lineModel).Error
}
