package domain

import (
	"context"
	"time"

	"gorm.io/gorm"
)

type ListRunsFilter struct {
	Limit  int
	Before *RunCursor
}

type RunCursor struct {
	StartedAt time.Time
	ID        string
}

type Repository interface {
	Insert(ctx context.Context, db *gorm.DB, run *AuditRun) error
	Finish(ctx context.Context, db *gorm.DB, run *AuditRun) error
	FindByID(ctx context.Context, db *gorm.DB, id string) (*AuditRun, error)
	// List returns runs newest first.
	List(ctx context.Context, db *gorm.DB, filter ListRunsFilter) ([]AuditRun, error)
	// MarkInterrupted fails runs still marked running that started before
	// cutoff and returns their ids. Callers must hold the run guard.
	MarkInterrupted(ctx context.Context, db *gorm.DB, cutoff time.Time, now time.Time) ([]string, error)
}
