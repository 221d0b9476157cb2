package repository

import (
	"context"
	"time"

	"github.com/smallbiznis/frontdesk/internal/nightaudit/domain"
	"gorm.io/gorm"
)

type repo struct{}

func Provide() domain.Repository {
	return &repo{}
}

func (r *repo) Insert(ctx context.Context, db *gorm.DB, run *domain.AuditRun) error {
	return db.WithContext(ctx).Create(run).Error
}

func (r *repo) Finish(ctx context.Context, db *gorm.DB, run *domain.AuditRun) error {
	return db.WithContext(ctx).
		Model(&domain.AuditRun{}).
		Where("id = ?", run.ID).
		Updates(map[string]any{
			"status":             run.Status,
			"next_business_date": run.NextBusinessDate,
			"percent":            run.Percent,
			"error_kind":         run.ErrorKind,
			"error_message":      run.ErrorMessage,
			"report_path":        run.ReportPath,
			"messages":           run.Messages,
			"summary":            run.Summary,
			"finished_at":        run.FinishedAt,
		}).Error
}

func (r *repo) FindByID(ctx context.Context, db *gorm.DB, id string) (*domain.AuditRun, error) {
	var items []domain.AuditRun
	err := db.WithContext(ctx).
		Where("id = ?", id).
		Limit(1).
		Find(&items).Error
	if err != nil {
		return nil, err
	}
	if len(items) == 0 {
		return nil, nil
	}
	return &items[0], nil
}

func (r *repo) List(ctx context.Context, db *gorm.DB, filter domain.ListRunsFilter) ([]domain.AuditRun, error) {
	var items []domain.AuditRun
	stmt := db.WithContext(ctx).Model(&domain.AuditRun{})
	if filter.Before != nil {
		stmt = stmt.Where(
			"started_at < ? OR (started_at = ? AND id < ?)",
			filter.Before.StartedAt,
			filter.Before.StartedAt,
			filter.Before.ID,
		)
	}
	if filter.Limit > 0 {
		stmt = stmt.Limit(filter.Limit)
	}
	if err := stmt.Order("started_at desc, id desc").Find(&items).Error; err != nil {
		return nil, err
	}
	return items, nil
}

func (r *repo) MarkInterrupted(ctx context.Context, db *gorm.DB, cutoff time.Time, now time.Time) ([]string, error) {
	var ids []string
	if err := db.WithContext(ctx).
		Model(&domain.AuditRun{}).
		Where("status = ? AND started_at < ?", domain.RunStatusRunning, cutoff).
		Pluck("id", &ids).Error; err != nil {
		return nil, err
	}
	if len(ids) == 0 {
		return nil, nil
	}

	err := db.WithContext(ctx).
		Model(&domain.AuditRun{}).
		Where("id IN ? AND status = ?", ids, domain.RunStatusRunning).
		Updates(map[string]any{
			"status":        domain.RunStatusFailed,
			"error_kind":    string(domain.ErrorKindInterrupted),
			"error_message": domain.InterruptedMessage,
			"finished_at":   now,
		}).Error
	if err != nil {
		return nil, err
	}
	return ids, nil
}
