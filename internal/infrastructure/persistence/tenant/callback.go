package tenant

import (
	"fmt"
	"reflect"
	"strings"

	"github.com/erp/backoffice/internal/domain/shared"
	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
	"gorm.io/gorm/schema"
)

// Guard is a GORM callback set that turns unscoped access under an active
// tenant into a shared.ErrTenantScope invariant violation.
type Guard struct {
	columns []string
}

// NewGuard creates a guard accepting a condition on tenant_id or scope as
// tenant scoping
func NewGuard() *Guard {
	return &Guard{columns: []string{Column, ScopeColumn}}
}

// Register installs the guard callbacks on db
func (g *Guard) Register(db *gorm.DB) error {
	cb := db.Callback()
	if err := cb.Query().Before("gorm:query").Register("tenant:guard_query", g.checkScoped); err != nil {
		return err
	}
	if err := cb.Row().Before("gorm:row").Register("tenant:guard_row", g.checkScoped); err != nil {
		return err
	}
	if err := cb.Update().Before("gorm:update").Register("tenant:guard_update", g.checkScoped); err != nil {
		return err
	}
	if err := cb.Delete().Before("gorm:delete").Register("tenant:guard_delete", g.checkScoped); err != nil {
		return err
	}
	return cb.Create().Before("gorm:create").Register("tenant:guard_create", g.checkStamped)
}

// EnableGuard registers a default Guard on db
func EnableGuard(db *gorm.DB) error {
	return NewGuard().Register(db)
}

func (g *Guard) activeTenant(db *gorm.DB) (shared.TenantContext, bool) {
	if db.Statement.Context == nil || db.Statement.Schema == nil {
		return shared.NoTenant(), false
	}
	if _, ok := db.Statement.Schema.FieldsByDBName[Column]; !ok {
		return shared.NoTenant(), false
	}
	tc, ok := FromContext(db.Statement.Context)
	if !ok || !tc.IsActive() {
		return shared.NoTenant(), false
	}
	return tc, true
}

func (g *Guard) checkScoped(db *gorm.DB) {
	if db.Error != nil {
		return
	}
	if _, ok := g.activeTenant(db); !ok {
		return
	}
	if g.hasTenantCondition(db.Statement) {
		return
	}
	_ = db.AddError(shared.ErrTenantScope.Wrap(fmt.Errorf("unscoped statement on %s", db.Statement.Table)))
}

func (g *Guard) checkStamped(db *gorm.DB) {
	if db.Error != nil {
		return
	}
	tc, ok := g.activeTenant(db)
	if !ok {
		return
	}
	field := db.Statement.Schema.FieldsByDBName[Column]
	rv := db.Statement.ReflectValue
	switch rv.Kind() {
	case reflect.Slice, reflect.Array:
		for i := 0; i < rv.Len(); i++ {
			if !g.stampedBy(db, field, reflect.Indirect(rv.Index(i)), tc.ID()) {
				return
			}
		}
	case reflect.Struct:
		g.stampedBy(db, field, rv, tc.ID())
	}
}

func (g *Guard) stampedBy(db *gorm.DB, field *schema.Field, rv reflect.Value, want uuid.UUID) bool {
	v, zero := field.ValueOf(db.Statement.Context, rv)
	var got *uuid.UUID
	if !zero {
		switch id := v.(type) {
		case *uuid.UUID:
			got = id
		case uuid.UUID:
			got = &id
		}
	}
	if got == nil || *got != want {
		_ = db.AddError(shared.ErrTenantScope.Wrap(fmt.Errorf("%s row stamped for another tenant", db.Statement.Table)))
		return false
	}
	return true
}

func (g *Guard) hasTenantCondition(stmt *gorm.Statement) bool {
	if c, ok := stmt.Clauses["WHERE"]; ok {
		if where, ok := c.Expression.(clause.Where); ok {
			return g.scopedConjunction(where.Exprs)
		}
	}
	if sql := stmt.SQL.String(); sql != "" {
		return g.mentions(sql)
	}
	return false
}

// scopedConjunction reports whether exprs, joined the way GORM builds a
// WHERE clause, constrain the tenant. A top-level OR branch escapes every
// condition before it, so each one must carry its own tenant condition.
func (g *Guard) scopedConjunction(exprs []clause.Expression) bool {
	scoped := false
	for _, expr := range exprs {
		if or, ok := expr.(clause.OrConditions); ok {
			if !g.exprMentionsTenant(or) {
				return false
			}
			continue
		}
		if g.exprMentionsTenant(expr) {
			scoped = true
		}
	}
	return scoped
}

func (g *Guard) exprMentionsTenant(expr clause.Expression) bool {
	switch e := expr.(type) {
	case clause.Eq:
		return g.isTenantColumn(e.Column)
	case clause.IN:
		return g.isTenantColumn(e.Column)
	case clause.Expr:
		return g.mentions(e.SQL)
	case clause.NamedExpr:
		return g.mentions(e.SQL)
	case clause.AndConditions:
		return g.scopedConjunction(e.Exprs)
	case clause.OrConditions:
		// every branch must be scoped
		if len(e.Exprs) == 0 {
			return false
		}
		for _, c := range e.Exprs {
			if !g.exprMentionsTenant(c) {
				return false
			}
		}
		return true
	case clause.Where:
		return g.scopedConjunction(e.Exprs)
	}
	return false
}

func (g *Guard) isTenantColumn(col any) bool {
	switch c := col.(type) {
	case clause.Column:
		return g.isColumnName(c.Name)
	case string:
		if i := strings.LastIndexByte(c, '.'); i >= 0 {
			c = c[i+1:]
		}
		return g.isColumnName(strings.Trim(c, "`\""))
	}
	return false
}

func (g *Guard) isColumnName(name string) bool {
	for _, c := range g.columns {
		if name == c {
			return true
		}
	}
	return false
}

func (g *Guard) mentions(sql string) bool {
	for _, c := range g.columns {
		if strings.Contains(sql, c) {
			return true
		}
	}
	return false
}
