package domain

import (
	"context"
	"errors"
	"time"
)

type Service interface {
	// GetCurrentDate lazily creates the row with today's date on first use.
	GetCurrentDate(ctx context.Context) (time.Time, error)
	Get(ctx context.Context) (BusinessDate, error)
	SetCurrentDate(ctx context.Context, date time.Time, userID string) error
	AdvanceToNextDate(ctx context.Context, userID string) (time.Time, error)
	// AdvanceFrom rolls expected forward by one day, failing with
	// ErrConcurrentUpdate when the stored date is no longer expected.
	AdvanceFrom(ctx context.Context, expected time.Time, userID string) (time.Time, error)
}

var (
	ErrInvalidDate      = errors.New("invalid_business_date")
	ErrConcurrentUpdate = errors.New("business_date_concurrent_update")
)
