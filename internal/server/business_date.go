package server

import (
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/smallbiznis/frontdesk/internal/authorization"
	"github.com/smallbiznis/frontdesk/internal/observability/logger"
	"github.com/smallbiznis/frontdesk/pkg/daterange"
	"go.uber.org/zap"
)

type setBusinessDateRequest struct {
	BusinessDate string `json:"business_date" binding:"required"`
}

func (s *Server) GetBusinessDate(c *gin.Context) {
	resp, err := s.businessDateSvc.Get(c.Request.Context())
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": businessDateView(resp.Date, resp.LastAuditAt, resp.LastAuditUserID)})
}

// SetBusinessDate is the manual correction path; it never runs the audit.
func (s *Server) SetBusinessDate(c *gin.Context) {
	actor, ok := actorFromContext(c)
	if !ok {
		AbortWithError(c, ErrUnauthorized)
		return
	}

	var req setBusinessDateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}
	date, err := daterange.Parse(strings.TrimSpace(req.BusinessDate))
	if err != nil {
		AbortWithError(c, newValidationError("business_date", "invalid_business_date", "business_date must be YYYY-MM-DD"))
		return
	}

	ctx := c.Request.Context()
	if err := s.businessDateSvc.SetCurrentDate(ctx, date, actor.ID); err != nil {
		AbortWithError(c, err)
		return
	}
	logger.FromContext(ctx).Info("business_date.set",
		zap.String("operator_id", actor.ID),
		zap.String("business_date", daterange.Format(date)),
	)
	s.recordActivity(ctx, authorization.ActionBusinessDateSet, authorization.ObjectBusinessDate, "", map[string]any{
		"business_date": daterange.Format(date),
	})

	resp, err := s.businessDateSvc.Get(ctx)
	if err != nil {
		AbortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"data": businessDateView(resp.Date, resp.LastAuditAt, resp.LastAuditUserID)})
}

func businessDateView(date time.Time, lastAuditAt *time.Time, lastAuditUserID string) gin.H {
	view := gin.H{"business_date": daterange.Format(date)}
	if lastAuditAt != nil {
		view["last_audit_at"] = lastAuditAt.UTC()
	}
	if lastAuditUserID != "" {
		view["last_audit_user_id"] = lastAuditUserID
	}
	return view
}
