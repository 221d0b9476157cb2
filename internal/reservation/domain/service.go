package domain

import (
	"context"
	"errors"
	"time"
)

type CreateReservationRequest struct {
	GuestName  string
	RoomTypeID string
	CheckIn    time.Time
	CheckOut   time.Time
	Status     Status
	// AutoAllocate assigns the first free physical room at creation.
	AutoAllocate bool
}

type Service interface {
	Create(context.Context, CreateReservationRequest) (Reservation, error)
	GetByID(ctx context.Context, id string) (Reservation, error)
	CheckIn(ctx context.Context, id string) (Reservation, error)
	CheckOut(ctx context.Context, id string) (Reservation, error)
	Cancel(ctx context.Context, id string) (Reservation, error)
}

var (
	ErrInvalidID         = errors.New("invalid_id")
	ErrInvalidGuestName  = errors.New("invalid_guest_name")
	ErrInvalidRoomType   = errors.New("invalid_room_type")
	ErrInvalidStatus     = errors.New("invalid_status")
	ErrInvalidTransition = errors.New("invalid_status_transition")
	ErrRoomNotAssigned   = errors.New("room_not_assigned")
	ErrNoRoomAvailable   = errors.New("no_room_available")
	ErrNotFound          = errors.New("not_found")
)
