package domain

import (
	"context"
	"errors"

	"github.com/bwmarrin/snowflake"
	"github.com/smallbiznis/frontdesk/pkg/daterange"
)

// DailyCounts maps a calendar day ("2006-01-02") to sellable rooms.
type DailyCounts map[string]int

type DayCount struct {
	Date      string `json:"date"`
	Rooms     int    `json:"rooms"`
	Reserved  int    `json:"reserved"`
	Available int    `json:"available"`
	// Oversold is how far reservations exceed rooms; Available is clamped at zero.
	Oversold int `json:"oversold"`
}

// Service counts sellable rooms per day. Every day of the half-open interval
// gets one entry and counts are never negative.
type Service interface {
	CountAvailable(ctx context.Context, roomTypeID snowflake.ID, interval daterange.Interval) (DailyCounts, error)
	CountAll(ctx context.Context, interval daterange.Interval) (map[snowflake.ID]DailyCounts, error)
	Breakdown(ctx context.Context, roomTypeID snowflake.ID, interval daterange.Interval) ([]DayCount, error)
	Invalidate()
}

var ErrInvalidRoomType = errors.New("invalid_room_type")
