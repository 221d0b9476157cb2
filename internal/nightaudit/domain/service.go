package domain

import (
	"context"
	"errors"

	"github.com/smallbiznis/frontdesk/pkg/db/pagination"
)

// Steps is the fixed audit order. Nothing runs before its predecessor
// finishes and the date roll always follows the reservation steps.
var Steps = []string{
	"Close settled stays",
	"Mark no-shows",
	"Post day-close charges",
	"Refresh availability",
	"Roll business date",
	"Generate daily report",
}

type StartAuditRequest struct {
	OperatorID string
	Trigger    string
}

type ListRunsResponse struct {
	Runs     []AuditRun          `json:"runs"`
	PageInfo pagination.PageInfo `json:"page_info"`
}

type Service interface {
	// StartAudit returns the run id immediately; the pipeline continues in
	// the background.
	StartAudit(ctx context.Context, req StartAuditRequest) (string, error)
	GetProgress(ctx context.Context, runID string) (ProgressRecord, error)
	ListRuns(ctx context.Context, page pagination.Pagination) (ListRunsResponse, error)
	// Wait blocks until every run started by this instance has finished.
	Wait()
}

var (
	ErrAuditAlreadyRunning = errors.New("night_audit_already_running")
	ErrRunNotFound         = errors.New("night_audit_run_not_found")
	ErrInvalidRunID        = errors.New("invalid_night_audit_run_id")
	ErrInvalidOperator     = errors.New("invalid_operator")
	ErrInvalidTrigger      = errors.New("invalid_trigger")
	ErrBusinessDateMoved   = errors.New("business_date_moved_during_audit")
)
