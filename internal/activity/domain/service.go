package domain

import (
	"context"
	"errors"
	"time"

	"github.com/smallbiznis/frontdesk/pkg/db/pagination"
)

type ListActivityRequest struct {
	pagination.Pagination
	Action     string
	TargetType string
	TargetID   string
	ActorID    string
	StartAt    *time.Time
	EndAt      *time.Time
}

type ListActivityResponse struct {
	Logs     []ActivityLog       `json:"logs"`
	PageInfo pagination.PageInfo `json:"page_info"`
}

type Service interface {
	// Record takes the actor and request id from ctx.
	Record(ctx context.Context, action string, targetType string, targetID string, metadata map[string]any) error
	List(ctx context.Context, req ListActivityRequest) (ListActivityResponse, error)
}

var (
	ErrInvalidAction    = errors.New("invalid_action")
	ErrInvalidTimeRange = errors.New("invalid_time_range")
)
