package scheduler

import (
	"context"
	"errors"

	nightauditdomain "github.com/smallbiznis/frontdesk/internal/nightaudit/domain"
	"github.com/smallbiznis/frontdesk/internal/nightaudit/guard"
	"go.uber.org/zap"
)

const ActionRunInterrupted = "night_audit.interrupted"

// RecoverRunsJob fails history rows left running by a process that died
// mid-run. It holds the run guard while sweeping, so a row it touches cannot
// belong to a live run in this process or, with redis, any other.
func (s *Scheduler) RecoverRunsJob(ctx context.Context) error {
	ctx, tick, owner := s.beginTick(ctx, JobRecoverRuns)
	if owner {
		defer s.endTick(ctx, tick)
	}

	lease, err := s.guard.Acquire(ctx)
	if err != nil {
		if errors.Is(err, guard.ErrHeld) {
			tick.skip("guard_held")
			return nil
		}
		s.logJobError(ctx, tick, "scheduler.recovery.guard_failed", err)
		return err
	}
	defer func() {
		if err := lease.Release(context.WithoutCancel(ctx)); err != nil {
			s.logger(ctx).Warn("scheduler.recovery.guard_release_failed", zap.Error(err))
		}
	}()

	now := s.clock.Now()
	ids, err := s.auditRepo.MarkInterrupted(ctx, s.db, now.Add(-s.cfg.RecoveryThreshold), now)
	if err != nil {
		s.logJobError(ctx, tick, "scheduler.recovery.mark_failed", err)
		return err
	}

	var jobErr error
	for _, id := range ids {
		// A missing record is fine; GetProgress falls back to history.
		err := s.progress.Update(ctx, id, func(record *nightauditdomain.ProgressRecord) {
			finished := now
			record.IsCompleted = true
			record.IsSuccess = false
			record.ErrorKind = nightauditdomain.ErrorKindInterrupted
			record.Error = nightauditdomain.InterruptedMessage
			record.FinishedAt = &finished
		})
		if err != nil && !errors.Is(err, nightauditdomain.ErrRunNotFound) {
			jobErr = errors.Join(jobErr, err)
			s.logJobError(ctx, tick, "scheduler.recovery.progress_failed", err, zap.String("audit_run_id", id))
			continue
		}
		tick.touched(1)
		s.recordActivity(ctx, ActionRunInterrupted, id, nil)
		s.logger(ctx).Warn("scheduler.recovery.run_interrupted", zap.String("audit_run_id", id))
	}
	return jobErr
}
