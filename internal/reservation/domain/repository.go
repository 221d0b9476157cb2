package domain

import (
	"context"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/smallbiznis/frontdesk/pkg/daterange"
	"gorm.io/gorm"
)

type Repository interface {
	Insert(ctx context.Context, db *gorm.DB, reservation *Reservation) error
	FindByID(ctx context.Context, db *gorm.DB, id snowflake.ID) (*Reservation, error)
	// ListOccupying returns occupying reservations of a room type (all types when
	// roomTypeID is zero) whose stay overlaps the interval.
	ListOccupying(ctx context.Context, db *gorm.DB, roomTypeID snowflake.ID, interval daterange.Interval) ([]Reservation, error)
	// ListOverlappingOnRoom returns occupying reservations on one physical room
	// overlapping the interval, skipping excludeID when non-zero.
	ListOverlappingOnRoom(ctx context.Context, db *gorm.DB, roomID snowflake.ID, interval daterange.Interval, excludeID snowflake.ID) ([]Reservation, error)
	ListInHouse(ctx context.Context, db *gorm.DB, day time.Time) ([]Reservation, error)
	CountArrivals(ctx context.Context, db *gorm.DB, day time.Time) (int64, error)
	CountDepartures(ctx context.Context, db *gorm.DB, day time.Time) (int64, error)
	AssignRoom(ctx context.Context, db *gorm.DB, id, roomID snowflake.ID, now time.Time) (int64, error)
	UpdateStatus(ctx context.Context, db *gorm.DB, id snowflake.ID, from, to Status, now time.Time) (int64, error)

	CloseSettled(ctx context.Context, db *gorm.DB, now time.Time) (int64, error)
	MarkNoShows(ctx context.Context, db *gorm.DB, lastCheckIn time.Time, now time.Time) (int64, error)
}
