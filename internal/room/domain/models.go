package domain

import (
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/shopspring/decimal"
	"github.com/smallbiznis/frontdesk/pkg/daterange"
)

type RoomType struct {
	ID          snowflake.ID    `gorm:"primaryKey" json:"id"`
	Code        string          `gorm:"not null;uniqueIndex" json:"code"`
	Name        string          `gorm:"not null" json:"name"`
	NightlyRate decimal.Decimal `gorm:"type:numeric(12,2);not null" json:"nightly_rate"`
	Currency    string          `gorm:"not null;default:'USD'" json:"currency"`
	CreatedAt   time.Time       `gorm:"not null" json:"created_at"`
	UpdatedAt   time.Time       `gorm:"not null" json:"updated_at"`
}

type Room struct {
	ID         snowflake.ID `gorm:"primaryKey" json:"id"`
	RoomTypeID snowflake.ID `gorm:"not null;index" json:"room_type_id"`
	Number     int          `gorm:"not null;uniqueIndex" json:"number"`
	IsClean    bool         `gorm:"not null;default:true" json:"is_clean"`
	IsBlocked  bool         `gorm:"not null;default:false" json:"is_blocked"`
	BlockFrom  *time.Time   `gorm:"type:date" json:"block_from,omitempty"`
	BlockTo    *time.Time   `gorm:"type:date" json:"block_to,omitempty"`
	CreatedAt  time.Time    `gorm:"not null" json:"created_at"`
	UpdatedAt  time.Time    `gorm:"not null" json:"updated_at"`
}

// HasBlockRange reports whether the block flag comes with both bounds.
func (r Room) HasBlockRange() bool {
	return r.IsBlocked && r.BlockFrom != nil && r.BlockTo != nil
}

// BlockedOn is the inventory blocking rule: a room is out of inventory on day
// only while its block flag is set and day lies within [BlockFrom, BlockTo],
// both bounds inclusive and both required. A flag without a range does not
// remove the room from inventory.
func (r Room) BlockedOn(day time.Time) bool {
	if !r.HasBlockRange() {
		return false
	}
	return daterange.WithinInclusive(day, *r.BlockFrom, *r.BlockTo)
}

// AllocatableFor reports whether the room may be handed to a new stay. Dirty
// rooms and open-ended blocks are never allocated; a ranged block only
// matters when it touches a night of the stay.
func (r Room) AllocatableFor(stay daterange.Interval) bool {
	if !r.IsClean {
		return false
	}
	if !r.IsBlocked {
		return true
	}
	if !r.HasBlockRange() {
		return false
	}
	for _, night := range stay.Days() {
		if r.BlockedOn(night) {
			return false
		}
	}
	return true
}
