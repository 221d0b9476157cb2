package domain

import (
	"context"
	"errors"

	"github.com/bwmarrin/snowflake"
	roomdomain "github.com/smallbiznis/frontdesk/internal/room/domain"
	"github.com/smallbiznis/frontdesk/pkg/daterange"
	"gorm.io/gorm"
)

type AllocateRequest struct {
	RoomTypeID snowflake.ID
	Stay       daterange.Interval
	// ExcludeReservationID ignores one reservation, used when re-allocating an edited stay.
	ExcludeReservationID snowflake.ID
}

// Service finds physical rooms for stays. Running out of rooms is reported
// through the boolean result, never as an error.
type Service interface {
	Allocate(ctx context.Context, req AllocateRequest) (roomdomain.Room, bool, error)
	IsAvailable(ctx context.Context, roomID snowflake.ID, stay daterange.Interval, excludeReservationID snowflake.ID) (bool, error)
	WithTx(tx *gorm.DB) Service
}

var ErrInvalidRoomType = errors.New("invalid_room_type")
