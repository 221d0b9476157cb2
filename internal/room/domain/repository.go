package domain

import (
	"context"
	"time"

	"github.com/bwmarrin/snowflake"
	"gorm.io/gorm"
)

type Repository interface {
	InsertRoomType(ctx context.Context, db *gorm.DB, roomType *RoomType) error
	InsertRoom(ctx context.Context, db *gorm.DB, room *Room) error
	FindRoomType(ctx context.Context, db *gorm.DB, id snowflake.ID) (*RoomType, error)
	FindRoom(ctx context.Context, db *gorm.DB, id snowflake.ID) (*Room, error)
	// LockRoom takes a row lock on the room for the rest of db's transaction.
	// Dialects without row locks (SQLite) read the row unlocked.
	LockRoom(ctx context.Context, db *gorm.DB, id snowflake.ID) (*Room, error)
	ListRoomTypes(ctx context.Context, db *gorm.DB) ([]RoomType, error)
	// ListRooms returns rooms ordered by number then id. A zero roomTypeID lists every room.
	ListRooms(ctx context.Context, db *gorm.DB, roomTypeID snowflake.ID) ([]Room, error)
	UpdateHousekeeping(ctx context.Context, db *gorm.DB, id snowflake.ID, update HousekeepingUpdate, now time.Time) (int64, error)
}

type HousekeepingUpdate struct {
	IsClean   bool
	IsBlocked bool
	BlockFrom *time.Time
	BlockTo   *time.Time
}
