package domain

import (
	"context"

	"gorm.io/gorm"
)

type Repository interface {
	Insert(ctx context.Context, db *gorm.DB, entry *ActivityLog) error
	// List returns entries newest first.
	List(ctx context.Context, db *gorm.DB, filter ListFilter) ([]ActivityLog, error)
}
