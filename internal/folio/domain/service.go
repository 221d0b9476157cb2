package domain

import (
	"context"
	"errors"
	"time"

	"github.com/shopspring/decimal"
)

type Service interface {
	// PostDayClose charges one night to every in-house stay covering
	// businessDate. Lines already posted for that date are skipped.
	PostDayClose(ctx context.Context, businessDate time.Time, postedBy string) (DayCloseResult, error)
	ListPostings(ctx context.Context, businessDate time.Time) ([]Posting, error)
	Revenue(ctx context.Context, businessDate time.Time) (decimal.Decimal, error)
}

var (
	ErrInvalidBusinessDate = errors.New("invalid_business_date")
	ErrUnknownRoomType     = errors.New("unknown_room_type")
)
