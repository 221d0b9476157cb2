package domain

import (
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/shopspring/decimal"
)

// PostingKind names what a folio line charges for.
type PostingKind string

const (
	PostingKindRoomCharge PostingKind = "room_charge"
)

// Posting is one immutable folio line. A reservation gets at most one line of
// each kind per business date.
type Posting struct {
	ID            snowflake.ID    `gorm:"primaryKey" json:"id"`
	ReservationID snowflake.ID    `gorm:"not null;uniqueIndex:ux_folio_postings_reservation_day_kind,priority:1" json:"reservation_id"`
	BusinessDate  time.Time       `gorm:"type:date;not null;index;uniqueIndex:ux_folio_postings_reservation_day_kind,priority:2" json:"business_date"`
	Kind          PostingKind     `gorm:"type:varchar(32);not null;uniqueIndex:ux_folio_postings_reservation_day_kind,priority:3" json:"kind"`
	RoomID        *snowflake.ID   `json:"room_id,omitempty"`
	Amount        decimal.Decimal `gorm:"type:numeric(12,2);not null" json:"amount"`
	Currency      string          `gorm:"type:varchar(3);not null" json:"currency"`
	PostedBy      string          `gorm:"type:varchar(64)" json:"posted_by,omitempty"`
	CreatedAt     time.Time       `gorm:"not null" json:"created_at"`
}

// TableName sets the database table name.
func (Posting) TableName() string { return "folio_postings" }

// DayCloseResult summarizes one day-close pass.
type DayCloseResult struct {
	InHouse int             `json:"in_house"`
	Posted  int64           `json:"posted"`
	Revenue decimal.Decimal `json:"revenue"`
}
