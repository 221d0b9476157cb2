package repository

import (
	"context"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/smallbiznis/frontdesk/internal/room/domain"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type repo struct{}

func Provide() domain.Repository {
	return &repo{}
}

func (r *repo) InsertRoomType(ctx context.Context, db *gorm.DB, roomType *domain.RoomType) error {
	return db.WithContext(ctx).Create(roomType).Error
}

func (r *repo) InsertRoom(ctx context.Context, db *gorm.DB, room *domain.Room) error {
	return db.WithContext(ctx).Create(room).Error
}

func (r *repo) FindRoomType(ctx context.Context, db *gorm.DB, id snowflake.ID) (*domain.RoomType, error) {
	var items []domain.RoomType
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

func (r *repo) FindRoom(ctx context.Context, db *gorm.DB, id snowflake.ID) (*domain.Room, error) {
	var items []domain.Room
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

func (r *repo) LockRoom(ctx context.Context, db *gorm.DB, id snowflake.ID) (*domain.Room, error) {
	return r.FindRoom(ctx, db.Clauses(clause.Locking{Strength: clause.LockingStrengthUpdate}), id)
}

func (r *repo) ListRoomTypes(ctx context.Context, db *gorm.DB) ([]domain.RoomType, error) {
	var items []domain.RoomType
	err := db.WithContext(ctx).
		Order("code asc, id asc").
		Find(&items).Error
	if err != nil {
		return nil, err
	}
	return items, nil
}

func (r *repo) ListRooms(ctx context.Context, db *gorm.DB, roomTypeID snowflake.ID) ([]domain.Room, error) {
	var items []domain.Room
	stmt := db.WithContext(ctx).Model(&domain.Room{})
	if roomTypeID != 0 {
		stmt = stmt.Where("room_type_id = ?", roomTypeID)
	}
	err := stmt.
		Order("number asc, id asc").
		Find(&items).Error
	if err != nil {
		return nil, err
	}
	return items, nil
}

func (r *repo) UpdateHousekeeping(ctx context.Context, db *gorm.DB, id snowflake.ID, update domain.HousekeepingUpdate, now time.Time) (int64, error) {
	result := db.WithContext(ctx).Exec(
		`UPDATE rooms
		 SET is_clean = ?, is_blocked = ?, block_from = ?, block_to = ?, updated_at = ?
		 WHERE id = ?`,
		update.IsClean,
		update.IsBlocked,
		update.BlockFrom,
		update.BlockTo,
		now,
		id,
	)
	return result.RowsAffected, result.Error
}
