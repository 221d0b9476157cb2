package domain

import (
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/smallbiznis/frontdesk/pkg/daterange"
)

type Status string

const (
	StatusPending    Status = "pending"
	StatusConfirmed  Status = "confirmed"
	StatusCheckedIn  Status = "checked_in"
	StatusCheckedOut Status = "checked_out"
	StatusCancelled  Status = "cancelled"
	StatusCompleted  Status = "completed"
	StatusNoShow     Status = "no_show"
)

// OccupyingStatuses hold inventory: they count against availability and
// block a physical room for allocation.
var OccupyingStatuses = []Status{StatusPending, StatusConfirmed, StatusCheckedIn}

func (s Status) Valid() bool {
	switch s {
	case StatusPending, StatusConfirmed, StatusCheckedIn, StatusCheckedOut,
		StatusCancelled, StatusCompleted, StatusNoShow:
		return true
	default:
		return false
	}
}

func (s Status) Occupying() bool {
	for _, o := range OccupyingStatuses {
		if s == o {
			return true
		}
	}
	return false
}

// Reservation stays on [CheckIn, CheckOut); the checkout day is free.
type Reservation struct {
	ID         snowflake.ID  `gorm:"primaryKey" json:"id"`
	GuestName  string        `gorm:"not null" json:"guest_name"`
	RoomTypeID snowflake.ID  `gorm:"not null;index" json:"room_type_id"`
	RoomID     *snowflake.ID `gorm:"index" json:"room_id,omitempty"`
	CheckIn    time.Time     `gorm:"type:date;not null;index" json:"check_in"`
	CheckOut   time.Time     `gorm:"type:date;not null" json:"check_out"`
	Status     Status        `gorm:"type:varchar(20);not null;index" json:"status"`
	IsClosed   bool          `gorm:"not null;default:false" json:"is_closed"`
	ClosedAt   *time.Time    `json:"closed_at,omitempty"`
	NoShowAt   *time.Time    `json:"no_show_at,omitempty"`
	CreatedAt  time.Time     `gorm:"not null" json:"created_at"`
	UpdatedAt  time.Time     `gorm:"not null" json:"updated_at"`
}

func (r Reservation) Stay() daterange.Interval {
	return daterange.Interval{Start: daterange.Truncate(r.CheckIn), End: daterange.Truncate(r.CheckOut)}
}
