package scheduler

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/bwmarrin/snowflake"
	activitydomain "github.com/smallbiznis/frontdesk/internal/activity/domain"
	"github.com/smallbiznis/frontdesk/internal/authorization"
	businessdatedomain "github.com/smallbiznis/frontdesk/internal/businessdate/domain"
	"github.com/smallbiznis/frontdesk/internal/clock"
	"github.com/smallbiznis/frontdesk/internal/config"
	nightauditdomain "github.com/smallbiznis/frontdesk/internal/nightaudit/domain"
	"github.com/smallbiznis/frontdesk/internal/nightaudit/guard"
	obsmetrics "github.com/smallbiznis/frontdesk/internal/observability/metrics"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

const (
	JobNightAudit  = "night_audit"
	JobRecoverRuns = "recover_runs"
)

var ErrInvalidConfig = errors.New("invalid_scheduler_config")

type Params struct {
	fx.In

	DB           *gorm.DB
	Log          *zap.Logger
	GenID        *snowflake.Node
	Clock        clock.Clock
	AuditConfig  *config.AuditConfigHolder `optional:"true"`
	NightAudit   nightauditdomain.Service
	BusinessDate businessdatedomain.Service
	AuditRepo    nightauditdomain.Repository
	Progress     nightauditdomain.ProgressStore
	Guard        *guard.Guard
	Activity     activitydomain.Service `optional:"true"`
	Config       Config                 `optional:"true"`
}

type Scheduler struct {
	db           *gorm.DB
	log          *zap.Logger
	cfg          Config
	genID        *snowflake.Node
	clock        clock.Clock
	auditConfig  *config.AuditConfigHolder
	nightAudit   nightauditdomain.Service
	businessDate businessdatedomain.Service
	auditRepo    nightauditdomain.Repository
	progress     nightauditdomain.ProgressStore
	guard        *guard.Guard
	activity     activitydomain.Service
}

func New(p Params) (*Scheduler, error) {
	if p.DB == nil || p.Log == nil || p.GenID == nil || p.Clock == nil || p.NightAudit == nil || p.BusinessDate == nil || p.AuditRepo == nil || p.Progress == nil || p.Guard == nil {
		return nil, ErrInvalidConfig
	}
	return &Scheduler{
		db:           p.DB,
		log:          p.Log.Named("scheduler").With(zap.String("component", "scheduler")),
		cfg:          p.Config.withDefaults(),
		genID:        p.GenID,
		clock:        p.Clock,
		auditConfig:  p.AuditConfig,
		nightAudit:   p.NightAudit,
		businessDate: p.BusinessDate,
		auditRepo:    p.AuditRepo,
		progress:     p.Progress,
		guard:        p.Guard,
		activity:     p.Activity,
	}, nil
}

func (s *Scheduler) runJob(
	parent context.Context,
	name string,
	timeout time.Duration,
	fn func(ctx context.Context) error,
) error {
	start := s.clock.Now()
	ctx, cancel := context.WithTimeout(parent, timeout)
	defer cancel()

	ctx, tick, owner := s.beginTick(ctx, name)
	auditMetrics := obsmetrics.Audit()
	auditMetrics.IncJobRun(name)

	err := fn(ctx)
	auditMetrics.ObserveJobDuration(name, s.clock.Now().Sub(start))
	if owner {
		if err != nil && tick.errors == 0 {
			tick.failed()
		}
		s.endTick(ctx, tick)
	}
	if err == nil {
		return nil
	}

	auditMetrics.IncJobError(name, err)
	// deadline is a soft timeout; the next tick retries
	if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled) {
		auditMetrics.IncJobTimeout(name)
		s.logger(ctx).Warn("scheduler.job.timeout",
			zap.String("job", name),
			zap.String("job_run_id", tick.id),
			zap.Duration("timeout", timeout),
			zap.Error(err),
		)
		return nil
	}

	return fmt.Errorf("%s: %w", name, err)
}

// RunOnce runs every enabled job a single time. Recovery goes first so a
// stale run never blocks the automatic audit.
func (s *Scheduler) RunOnce(parent context.Context) error {
	var err error

	jobs := []struct {
		Name    string
		Enabled bool
		Run     func(context.Context) error
	}{
		{JobRecoverRuns, s.isJobEnabled(JobRecoverRuns), func(ctx context.Context) error {
			return s.runJob(ctx, JobRecoverRuns, s.cfg.JobTimeout, s.RecoverRunsJob)
		}},
		{JobNightAudit, s.isJobEnabled(JobNightAudit), func(ctx context.Context) error {
			return s.runJob(ctx, JobNightAudit, s.cfg.JobTimeout, s.NightAuditJob)
		}},
	}

	for _, job := range jobs {
		if job.Enabled {
			err = errors.Join(err, job.Run(parent))
		}
	}

	return err
}

func (s *Scheduler) RunForever(ctx context.Context) {
	ticker := time.NewTicker(s.cfg.RunInterval)
	defer ticker.Stop()
	nextRun := s.clock.Now().Add(s.cfg.RunInterval)
	auditMetrics := obsmetrics.Audit()

	for {
		runLag := s.clock.Now().Sub(nextRun)
		if runLag > 0 {
			auditMetrics.ObserveRunLoopLag(runLag)
		}
		if err := s.RunOnce(ctx); err != nil {
			s.log.Warn("scheduler.tick.failed", zap.Error(err))
		}
		nextRun = nextRun.Add(s.cfg.RunInterval)

		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}
	}
}

func (s *Scheduler) isJobEnabled(jobName string) bool {
	// empty means every job runs
	if len(s.cfg.EnabledJobs) == 0 {
		return true
	}
	for _, enabled := range s.cfg.EnabledJobs {
		if strings.EqualFold(enabled, jobName) {
			return true
		}
	}
	return false
}

func (s *Scheduler) recordActivity(ctx context.Context, action, targetID string, metadata map[string]any) {
	if s.activity == nil {
		return
	}
	if err := s.activity.Record(ctx, action, authorization.ObjectNightAudit, targetID, metadata); err != nil {
		s.logger(ctx).Warn("scheduler.activity.record_failed", zap.String("action", action), zap.Error(err))
	}
}
