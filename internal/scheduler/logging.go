package scheduler

import (
	"context"
	"time"

	obscontext "github.com/smallbiznis/frontdesk/internal/observability/context"
	obslogger "github.com/smallbiznis/frontdesk/internal/observability/logger"
	obsmetrics "github.com/smallbiznis/frontdesk/internal/observability/metrics"
	"go.uber.org/zap"
)

const (
	outcomeDone    = "done"
	outcomeSkipped = "skipped"
	outcomeFailed  = "failed"
)

// jobTick is one execution of a job. Most ticks do nothing; the finish line
// says why so a missing automatic audit can be explained from the logs.
type jobTick struct {
	job        string
	id         string
	startedAt  time.Time
	affected   int
	errors     int
	skipReason string
}

type jobTickKey struct{}

func (t *jobTick) touched(n int) {
	if t != nil && n > 0 {
		t.affected += n
	}
}

func (t *jobTick) skip(reason string) {
	if t != nil {
		t.skipReason = reason
	}
}

func (t *jobTick) failed() {
	if t != nil {
		t.errors++
	}
}

func (t *jobTick) outcome() string {
	switch {
	case t.errors > 0:
		return outcomeFailed
	case t.skipReason != "":
		return outcomeSkipped
	default:
		return outcomeDone
	}
}

// beginTick returns the tick carried by ctx, or starts one acting as the
// scheduler system actor. owner is true when the caller started it.
func (s *Scheduler) beginTick(ctx context.Context, job string) (context.Context, *jobTick, bool) {
	if ctx == nil {
		ctx = context.Background()
	}
	if tick, ok := ctx.Value(jobTickKey{}).(*jobTick); ok {
		return ctx, tick, false
	}
	tick := &jobTick{
		job:       job,
		id:        s.genID.Generate().String(),
		startedAt: s.clock.Now(),
	}
	ctx = context.WithValue(ctx, jobTickKey{}, tick)
	ctx = obscontext.WithActor(ctx, "system", "scheduler")
	s.logger(ctx).Debug("scheduler.job.start", zap.String("job", job), zap.String("job_run_id", tick.id))
	return ctx, tick, true
}

// endTick writes the finish line. Skipped ticks stay at debug, they happen
// every interval.
func (s *Scheduler) endTick(ctx context.Context, tick *jobTick) {
	fields := []zap.Field{
		zap.String("job", tick.job),
		zap.String("job_run_id", tick.id),
		zap.String("outcome", tick.outcome()),
		zap.Int64("duration_ms", s.clock.Now().Sub(tick.startedAt).Milliseconds()),
	}
	log := s.logger(ctx)
	switch tick.outcome() {
	case outcomeSkipped:
		log.Debug("scheduler.job.finish", append(fields, zap.String("skip_reason", tick.skipReason))...)
	case outcomeFailed:
		log.Warn("scheduler.job.finish", append(fields, zap.Int("error_count", tick.errors))...)
	default:
		log.Info("scheduler.job.finish", append(fields, zap.Int("affected", tick.affected))...)
	}
}

func (s *Scheduler) logger(ctx context.Context) *zap.Logger {
	return obslogger.WithContext(ctx, s.log)
}

func (s *Scheduler) logJobError(ctx context.Context, tick *jobTick, msg string, err error, fields ...zap.Field) {
	tick.failed()
	fields = append([]zap.Field{
		zap.String("job", tick.job),
		zap.String("reason", obsmetrics.ClassifyErrorReason(err)),
		zap.Error(err),
	}, fields...)
	s.logger(ctx).Error(msg, fields...)
}
