package scheduler

import (
	"context"
	"errors"
	"time"

	"github.com/smallbiznis/frontdesk/internal/authorization"
	"github.com/smallbiznis/frontdesk/internal/config"
	nightauditdomain "github.com/smallbiznis/frontdesk/internal/nightaudit/domain"
	"github.com/smallbiznis/frontdesk/internal/nightaudit/service"
	"github.com/smallbiznis/frontdesk/pkg/daterange"
	"go.uber.org/zap"
)

// eveningCutoff splits audit times: at or after it the audit closes the
// same calendar day, before it the audit closes the previous day.
const eveningCutoff = 12 * time.Hour

// NightAuditJob starts an automatic audit once the configured time has
// passed for the current business date. A lagging business date is caught
// up one day per tick.
func (s *Scheduler) NightAuditJob(ctx context.Context) error {
	ctx, tick, owner := s.beginTick(ctx, JobNightAudit)
	if owner {
		defer s.endTick(ctx, tick)
	}

	autoRun := s.auditConfig.Get().AutoRun
	if !autoRun.Enabled {
		tick.skip("auto_run_disabled")
		return nil
	}

	businessDate, err := s.businessDate.GetCurrentDate(ctx)
	if err != nil {
		s.logJobError(ctx, tick, "scheduler.business_date.read_failed", err)
		return err
	}

	dueAt, err := auditDueAt(autoRun, businessDate)
	if err != nil {
		s.logJobError(ctx, tick, "scheduler.auto_run.invalid", err)
		return err
	}
	now := s.clock.Now()
	if now.Before(dueAt) {
		tick.skip("not_due")
		return nil
	}

	runID, err := s.nightAudit.StartAudit(ctx, nightauditdomain.StartAuditRequest{
		OperatorID: service.SystemOperator,
		Trigger:    nightauditdomain.TriggerAuto,
	})
	if err != nil {
		if errors.Is(err, nightauditdomain.ErrAuditAlreadyRunning) {
			tick.skip("already_running")
			return nil
		}
		s.logJobError(ctx, tick, "scheduler.night_audit.start_failed", err,
			zap.Time("business_date", businessDate),
		)
		return err
	}

	tick.touched(1)
	s.recordActivity(ctx, authorization.ActionNightAuditStart, runID, map[string]any{
		"trigger":       nightauditdomain.TriggerAuto,
		"business_date": daterange.Format(businessDate),
	})
	s.logger(ctx).Info("scheduler.night_audit.started",
		zap.String("audit_run_id", runID),
		zap.Time("business_date", businessDate),
		zap.Time("due_at", dueAt),
	)
	return nil
}

// auditDueAt returns the instant the audit closing businessDate becomes due
// in the configured zone.
func auditDueAt(autoRun config.AutoRunConfig, businessDate time.Time) (time.Time, error) {
	hour, minute, err := autoRun.ClockTime()
	if err != nil {
		return time.Time{}, err
	}
	loc, err := autoRun.TimeLocation()
	if err != nil {
		return time.Time{}, err
	}

	offset := time.Duration(hour)*time.Hour + time.Duration(minute)*time.Minute
	day := businessDate
	if offset < eveningCutoff {
		day = day.AddDate(0, 0, 1)
	}
	return time.Date(day.Year(), day.Month(), day.Day(), hour, minute, 0, 0, loc), nil
}
