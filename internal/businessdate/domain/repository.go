package domain

import (
	"context"
	"time"

	"gorm.io/gorm"
)

type Repository interface {
	Find(ctx context.Context, db *gorm.DB) (*BusinessDate, error)
	// InsertIfAbsent creates the singleton row; an existing row wins.
	InsertIfAbsent(ctx context.Context, db *gorm.DB, row *BusinessDate) error
	Set(ctx context.Context, db *gorm.DB, date time.Time, userID string, now time.Time) (int64, error)
	// Advance moves the date from expected to next and reports zero rows when
	// another writer changed it first.
	Advance(ctx context.Context, db *gorm.DB, expected, next time.Time, userID string, now time.Time) (int64, error)
}
