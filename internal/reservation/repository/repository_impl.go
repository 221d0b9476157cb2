package repository

import (
	"context"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/smallbiznis/frontdesk/internal/reservation/domain"
	"github.com/smallbiznis/frontdesk/pkg/daterange"
	"gorm.io/gorm"
)

type repo struct{}

func Provide() domain.Repository {
	return &repo{}
}

func (r *repo) Insert(ctx context.Context, db *gorm.DB, reservation *domain.Reservation) error {
	return db.WithContext(ctx).Create(reservation).Error
}

func (r *repo) FindByID(ctx context.Context, db *gorm.DB, id snowflake.ID) (*domain.Reservation, error) {
	var items []domain.Reservation
	err := db.WithContext(ctx).
		Where("id = ?", id).
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

func (r *repo) ListOccupying(ctx context.Context, db *gorm.DB, roomTypeID snowflake.ID, interval daterange.Interval) ([]domain.Reservation, error) {
	var items []domain.Reservation
	stmt := db.WithContext(ctx).
		Model(&domain.Reservation{}).
		Where("status IN ?", domain.OccupyingStatuses).
		Where("check_in < ? AND check_out > ?", interval.End, interval.Start)
	if roomTypeID != 0 {
		stmt = stmt.Where("room_type_id = ?", roomTypeID)
	}
	if err := stmt.Order("check_in asc, id asc").Find(&items).Error; err != nil {
		return nil, err
	}
	return items, nil
}

func (r *repo) ListOverlappingOnRoom(ctx context.Context, db *gorm.DB, roomID snowflake.ID, interval daterange.Interval, excludeID snowflake.ID) ([]domain.Reservation, error) {
	var items []domain.Reservation
	stmt := db.WithContext(ctx).
		Model(&domain.Reservation{}).
		Where("room_id = ?", roomID).
		Where("status IN ?", domain.OccupyingStatuses).
		Where("check_in < ? AND check_out > ?", interval.End, interval.Start)
	if excludeID != 0 {
		stmt = stmt.Where("id <> ?", excludeID)
	}
	if err := stmt.Order("check_in asc, id asc").Find(&items).Error; err != nil {
		return nil, err
	}
	return items, nil
}

func (r *repo) ListInHouse(ctx context.Context, db *gorm.DB, day time.Time) ([]domain.Reservation, error) {
	var items []domain.Reservation
	day = daterange.Truncate(day)
	err := db.WithContext(ctx).
		Where("status = ?", domain.StatusCheckedIn).
		Where("check_in <= ? AND check_out > ?", day, day).
		Order("id asc").
		Find(&items).Error
	if err != nil {
		return nil, err
	}
	return items, nil
}

// CountArrivals counts guests who actually arrived on day.
func (r *repo) CountArrivals(ctx context.Context, db *gorm.DB, day time.Time) (int64, error) {
	var count int64
	err := db.WithContext(ctx).
		Model(&domain.Reservation{}).
		Where("check_in = ?", daterange.Truncate(day)).
		Where("status IN ?", []domain.Status{domain.StatusCheckedIn, domain.StatusCheckedOut, domain.StatusCompleted}).
		Count(&count).Error
	return count, err
}

func (r *repo) CountDepartures(ctx context.Context, db *gorm.DB, day time.Time) (int64, error) {
	var count int64
	err := db.WithContext(ctx).
		Model(&domain.Reservation{}).
		Where("check_out = ?", daterange.Truncate(day)).
		Where("status IN ?", []domain.Status{domain.StatusCheckedOut, domain.StatusCompleted}).
		Count(&count).Error
	return count, err
}

func (r *repo) AssignRoom(ctx context.Context, db *gorm.DB, id, roomID snowflake.ID, now time.Time) (int64, error) {
	result := db.WithContext(ctx).Exec(
		`UPDATE reservations SET room_id = ?, updated_at = ? WHERE id = ?`,
		roomID,
		now,
		id,
	)
	return result.RowsAffected, result.Error
}

func (r *repo) UpdateStatus(ctx context.Context, db *gorm.DB, id snowflake.ID, from, to domain.Status, now time.Time) (int64, error) {
	result := db.WithContext(ctx).Exec(
		`UPDATE reservations SET status = ?, updated_at = ? WHERE id = ? AND status = ?`,
		to,
		now,
		id,
		from,
	)
	return result.RowsAffected, result.Error
}

// CloseSettled finalizes the folio of every checked-out stay. The is_closed
// guard makes a second run a no-op.
func (r *repo) CloseSettled(ctx context.Context, db *gorm.DB, now time.Time) (int64, error) {
	result := db.WithContext(ctx).Exec(
		`UPDATE reservations
		 SET is_closed = ?, closed_at = ?, updated_at = ?
		 WHERE status = ? AND is_closed = ?`,
		true,
		now,
		now,
		domain.StatusCheckedOut,
		false,
	)
	return result.RowsAffected, result.Error
}

// MarkNoShows moves confirmed reservations whose check-in is on or before
// lastCheckIn to no-show.
func (r *repo) MarkNoShows(ctx context.Context, db *gorm.DB, lastCheckIn time.Time, now time.Time) (int64, error) {
	result := db.WithContext(ctx).Exec(
		`UPDATE reservations
		 SET status = ?, no_show_at = ?, updated_at = ?
		 WHERE status = ? AND check_in <= ?`,
		domain.StatusNoShow,
		now,
		now,
		domain.StatusConfirmed,
		daterange.Truncate(lastCheckIn),
	)
	return result.RowsAffected, result.Error
}
