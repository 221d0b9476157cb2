package server

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/smallbiznis/frontdesk/internal/authorization"
	nightauditdomain "github.com/smallbiznis/frontdesk/internal/nightaudit/domain"
	obscontext "github.com/smallbiznis/frontdesk/internal/observability/context"
	"github.com/smallbiznis/frontdesk/pkg/db/pagination"
)

func (s *Server) StartNightAudit(c *gin.Context) {
	actor, ok := actorFromContext(c)
	if !ok {
		AbortWithError(c, ErrUnauthorized)
		return
	}

	runID, err := s.nightAuditSvc.StartAudit(c.Request.Context(), nightauditdomain.StartAuditRequest{
		OperatorID: actor.ID,
		Trigger:    nightauditdomain.TriggerManual,
	})
	if err != nil {
		AbortWithError(c, err)
		return
	}

	bindAuditRun(c, runID)
	s.recordActivity(c.Request.Context(), authorization.ActionNightAuditStart, authorization.ObjectNightAudit, runID, map[string]any{
		"trigger": nightauditdomain.TriggerManual,
	})
	c.Header("Location", "/admin/night-audits/"+runID)
	c.JSON(http.StatusAccepted, gin.H{"data": gin.H{"id": runID}})
}

func (s *Server) GetNightAudit(c *gin.Context) {
	runID := strings.TrimSpace(c.Param("id"))
	bindAuditRun(c, runID)

	record, err := s.nightAuditSvc.GetProgress(c.Request.Context(), runID)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": record})
}

func (s *Server) ListNightAudits(c *gin.Context) {
	var query pagination.Pagination
	if err := c.ShouldBindQuery(&query); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}

	resp, err := s.nightAuditSvc.ListRuns(c.Request.Context(), query)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": resp.Runs, "page_info": resp.PageInfo})
}

// bindAuditRun puts the run on the request context so the access log and
// the request span carry it.
func bindAuditRun(c *gin.Context, runID string) {
	if runID == "" {
		return
	}
	c.Request = c.Request.WithContext(obscontext.WithAuditRun(c.Request.Context(), runID))
}
