package domain

import (
	"context"
	"errors"
	"time"

	"github.com/shopspring/decimal"
)

type CreateRoomTypeRequest struct {
	Code        string
	Name        string
	NightlyRate decimal.Decimal
	Currency    string
}

type CreateRoomRequest struct {
	RoomTypeID string
	Number     int
}

type UpdateHousekeepingRequest struct {
	RoomID    string
	IsClean   *bool
	IsBlocked *bool
	BlockFrom *time.Time
	BlockTo   *time.Time
}

type Service interface {
	CreateRoomType(context.Context, CreateRoomTypeRequest) (RoomType, error)
	CreateRoom(context.Context, CreateRoomRequest) (Room, error)
	ListRoomTypes(context.Context) ([]RoomType, error)
	ListRooms(ctx context.Context, roomTypeID string) ([]Room, error)
	UpdateHousekeeping(context.Context, UpdateHousekeepingRequest) (Room, error)
}

var (
	ErrInvalidRoomType   = errors.New("invalid_room_type")
	ErrInvalidRoom       = errors.New("invalid_room")
	ErrInvalidCode       = errors.New("invalid_code")
	ErrInvalidName       = errors.New("invalid_name")
	ErrInvalidRate       = errors.New("invalid_rate")
	ErrInvalidNumber     = errors.New("invalid_number")
	ErrInvalidBlockRange = errors.New("invalid_block_range")
	ErrNotFound          = errors.New("not_found")
)
