package repository

import (
	"context"
	"time"

	"github.com/smallbiznis/frontdesk/internal/businessdate/domain"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type repo struct{}

func Provide() domain.Repository {
	return &repo{}
}

func (r *repo) Find(ctx context.Context, db *gorm.DB) (*domain.BusinessDate, error) {
	var items []domain.BusinessDate
	err := db.WithContext(ctx).
		Where("id = ?", domain.SingletonID).
		Limit(1).
		Find(&items).Error
	if err != nil {
		return nil, err
	}
	if len(items) == 0 {
		return nil, nil
	}
	return &items[0], nil
}

func (r *repo) InsertIfAbsent(ctx context.Context, db *gorm.DB, row *domain.BusinessDate) error {
	row.ID = domain.SingletonID
	return db.WithContext(ctx).
		Clauses(clause.OnConflict{DoNothing: true}).
		Create(row).Error
}

func (r *repo) Set(ctx context.Context, db *gorm.DB, date time.Time, userID string, now time.Time) (int64, error) {
	result := db.WithContext(ctx).Exec(
		`UPDATE business_dates
		 SET business_date = ?, last_audit_at = ?, last_audit_user_id = ?, updated_at = ?
		 WHERE id = ?`,
		date,
		now,
		userID,
		now,
		domain.SingletonID,
	)
	return result.RowsAffected, result.Error
}

func (r *repo) Advance(ctx context.Context, db *gorm.DB, expected, next time.Time, userID string, now time.Time) (int64, error) {
	result := db.WithContext(ctx).Exec(
		`UPDATE business_dates
		 SET business_date = ?, last_audit_at = ?, last_audit_user_id = ?, updated_at = ?
		 WHERE id = ? AND business_date = ?`,
		next,
		now,
		userID,
		now,
		domain.SingletonID,
		expected,
	)
	return result.RowsAffected, result.Error
}
