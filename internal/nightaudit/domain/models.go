package domain

import (
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/datatypes"
)

type RunStatus string

const (
	RunStatusRunning   RunStatus = "running"
	RunStatusSucceeded RunStatus = "succeeded"
	RunStatusFailed    RunStatus = "failed"
)

// AuditRun is the durable history row of one night audit.
type AuditRun struct {
	ID               string         `gorm:"primaryKey;type:varchar(26)" json:"id"`
	OperatorID       string         `gorm:"type:varchar(64);not null" json:"operator_id"`
	Trigger          string         `gorm:"type:varchar(16);not null" json:"trigger"`
	Status           RunStatus      `gorm:"type:varchar(16);not null;index" json:"status"`
	BusinessDate     time.Time      `gorm:"type:date;not null;index" json:"business_date"`
	NextBusinessDate *time.Time     `gorm:"type:date" json:"next_business_date,omitempty"`
	Percent          int            `gorm:"not null;default:0" json:"percent"`
	ErrorKind        string         `gorm:"type:varchar(16)" json:"error_kind,omitempty"`
	ErrorMessage     string         `gorm:"type:text" json:"error_message,omitempty"`
	ReportPath       string         `gorm:"type:text" json:"report_path,omitempty"`
	Messages         datatypes.JSON `json:"messages"`
	Summary          datatypes.JSON `json:"summary"`
	StartedAt        time.Time      `gorm:"not null;index" json:"started_at"`
	FinishedAt       *time.Time     `json:"finished_at,omitempty"`
}

func (AuditRun) TableName() string {
	return "audit_runs"
}

// RunSummary counts what each step changed.
type RunSummary struct {
	ClosedStays    int64           `json:"closed_stays"`
	NoShows        int64           `json:"no_shows"`
	InHouse        int             `json:"in_house"`
	FolioPostings  int64           `json:"folio_postings"`
	RoomRevenue    decimal.Decimal `json:"room_revenue"`
	ReportArtifact []string        `json:"report_artifacts,omitempty"`
}
