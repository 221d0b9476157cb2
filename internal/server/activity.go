package server

import (
	"context"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	activitydomain "github.com/smallbiznis/frontdesk/internal/activity/domain"
	"github.com/smallbiznis/frontdesk/internal/observability/logger"
	"github.com/smallbiznis/frontdesk/pkg/db/pagination"
	"go.uber.org/zap"
)

type listActivityQuery struct {
	pagination.Pagination
	Action     string `form:"action"`
	TargetType string `form:"target_type"`
	TargetID   string `form:"target_id"`
	ActorID    string `form:"actor_id"`
	StartAt    string `form:"start_at"`
	EndAt      string `form:"end_at"`
}

func (s *Server) ListActivityLogs(c *gin.Context) {
	if s.activitySvc == nil {
		AbortWithError(c, ErrNotFound)
		return
	}

	var query listActivityQuery
	if err := c.ShouldBindQuery(&query); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}
	startAt, err := parseOptionalTimestamp(query.StartAt)
	if err != nil {
		AbortWithError(c, newValidationError("start_at", "invalid_start_at", "start_at must be RFC3339"))
		return
	}
	endAt, err := parseOptionalTimestamp(query.EndAt)
	if err != nil {
		AbortWithError(c, newValidationError("end_at", "invalid_end_at", "end_at must be RFC3339"))
		return
	}

	resp, err := s.activitySvc.List(c.Request.Context(), activitydomain.ListActivityRequest{
		Pagination: query.Pagination,
		Action:     strings.TrimSpace(query.Action),
		TargetType: strings.TrimSpace(query.TargetType),
		TargetID:   strings.TrimSpace(query.TargetID),
		ActorID:    strings.TrimSpace(query.ActorID),
		StartAt:    startAt,
		EndAt:      endAt,
	})
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": resp.Logs, "page_info": resp.PageInfo})
}

// recordActivity never fails the request; the action already happened.
func (s *Server) recordActivity(ctx context.Context, action, targetType, targetID string, metadata map[string]any) {
	if s.activitySvc == nil {
		return
	}
	if err := s.activitySvc.Record(ctx, action, targetType, targetID, metadata); err != nil {
		logger.FromContext(ctx).Warn("activity.record_failed",
			zap.String("action", action),
			zap.String("target_type", targetType),
			zap.Error(err),
		)
	}
}

func parseOptionalTimestamp(value string) (*time.Time, error) {
	value = strings.TrimSpace(value)
	if value == "" {
		return nil, nil
	}
	t, err := time.Parse(time.RFC3339, value)
	if err != nil {
		return nil, err
	}
	return &t, nil
}
