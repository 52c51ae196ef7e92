// Package repo holds the plumbing shared by the gorm-backed repositories.
package repo

import (
	"context"

	"gorm.io/gorm"
)

// Base carries the connection a repository was built on. A repository built
// inside WithTx holds the transaction handle instead of the pool.
type Base struct {
	db *gorm.DB
}

func NewBase(db *gorm.DB) Base {
	return Base{db: db}
}

// DB returns the connection bound to ctx.
func (b Base) DB(ctx context.Context) *gorm.DB {
	if ctx == nil {
		return b.db
	}
	return b.db.WithContext(ctx)
}

// Exists reports whether any row of model matches the where clause.
func (b Base) Exists(ctx context.Context, model any, clause string, args ...any) (bool, error) {
	var count int64
	if err := b.DB(ctx).Model(model).Where(clause, args...).Count(&count).Error; err != nil {
		return false, err
	}
	return count > 0, nil
}
