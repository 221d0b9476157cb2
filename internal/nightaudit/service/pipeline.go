package service

import (
	"context"
	"errors"
	"fmt"
	"math"
	"runtime/debug"
	"time"

	availabilitydomain "github.com/smallbiznis/frontdesk/internal/availability/domain"
	businessdatedomain "github.com/smallbiznis/frontdesk/internal/businessdate/domain"
	"github.com/smallbiznis/frontdesk/internal/clock"
	foliodomain "github.com/smallbiznis/frontdesk/internal/folio/domain"
	"github.com/smallbiznis/frontdesk/internal/nightaudit/domain"
	"github.com/smallbiznis/frontdesk/internal/nightaudit/guard"
	obscontext "github.com/smallbiznis/frontdesk/internal/observability/context"
	obslogger "github.com/smallbiznis/frontdesk/internal/observability/logger"
	obsmetrics "github.com/smallbiznis/frontdesk/internal/observability/metrics"
	"github.com/smallbiznis/frontdesk/internal/observability/tracing"
	reportdomain "github.com/smallbiznis/frontdesk/internal/report/domain"
	reservationdomain "github.com/smallbiznis/frontdesk/internal/reservation/domain"
	"github.com/smallbiznis/frontdesk/pkg/daterange"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// Run is one audit execution against a pre-rollover business date snapshot.
type Run struct {
	ID           string
	OperatorID   string
	Trigger      string
	BusinessDate time.Time
	StepTimeout  time.Duration
	StepDelay    time.Duration
	Lease        guard.Lease
}

// Outcome is what the pipeline leaves behind once Run returns.
type Outcome struct {
	Success          bool
	FailedStep       int
	ErrorKind        domain.ErrorKind
	Err              error
	NextBusinessDate *time.Time
	Summary          domain.RunSummary
	ReportPath       string
}

type step struct {
	name string
	fn   func(ctx context.Context, st *runState) (int64, error)
}

type runState struct {
	run       Run
	next      time.Time
	summary   domain.RunSummary
	artifacts reportdomain.Artifacts
}

// stepError carries the kind a failing step already knows about.
type stepError struct {
	kind domain.ErrorKind
	err  error
}

func (e *stepError) Error() string { return e.err.Error() }
func (e *stepError) Unwrap() error { return e.err }

// Pipeline executes the fixed audit steps strictly in order and reports
// through the progress store. It never runs two steps at once.
type Pipeline struct {
	db              *gorm.DB
	log             *zap.Logger
	clock           clock.Clock
	reservationRepo reservationdomain.Repository
	businessDate    businessdatedomain.Service
	folio           foliodomain.Service
	availability    availabilitydomain.Service
	report          reportdomain.Service
	progress        domain.ProgressStore
	tracer          trace.Tracer
}

func (p *Pipeline) steps() []step {
	return []step{
		{name: domain.Steps[0], fn: p.closeSettledStays},
		{name: domain.Steps[1], fn: p.markNoShows},
		{name: domain.Steps[2], fn: p.postDayClose},
		{name: domain.Steps[3], fn: p.refreshAvailability},
		{name: domain.Steps[4], fn: p.rollBusinessDate},
		{name: domain.Steps[5], fn: p.generateReport},
	}
}

// Run drives the record identified by run.ID to a terminal state. Earlier
// steps are never rolled back when a later one fails.
func (p *Pipeline) Run(ctx context.Context, run Run) Outcome {
	log := obslogger.WithContext(obscontext.WithAuditRun(ctx, run.ID), p.log).With(
		zap.String("operator_id", run.OperatorID),
		zap.String("trigger", run.Trigger),
	)
	auditMetrics := obsmetrics.Audit()
	started := p.clock.Now()
	st := &runState{run: run}
	steps := p.steps()
	total := len(steps)

	ctx, span := p.tracer.Start(ctx, "nightaudit.run", trace.WithAttributes(
		attribute.String("audit.run_id", run.ID),
		attribute.String("business_date", daterange.Format(run.BusinessDate)),
	))
	defer span.End()

	log.Info("nightaudit.run.start",
		zap.String("business_date", daterange.Format(run.BusinessDate)),
		zap.Int("steps", total),
	)

	outcome := Outcome{Success: true}
	for i, s := range steps {
		index := i + 1
		if i > 0 && run.StepDelay > 0 {
			if err := sleep(ctx, run.StepDelay); err != nil {
				outcome = p.fail(ctx, st, index, s.name, total, err)
				break
			}
		}
		if run.Lease != nil {
			if err := run.Lease.Refresh(ctx); err != nil {
				outcome = p.fail(ctx, st, index, s.name, total, &stepError{
					kind: domain.ErrorKindConflict,
					err:  fmt.Errorf("run guard lost: %w", err),
				})
				break
			}
		}

		p.update(ctx, run.ID, func(r *domain.ProgressRecord) {
			r.CurrentStep = index
			r.Percent = percentBefore(index, total)
			r.Messages = append(r.Messages, fmt.Sprintf("Step %d/%d started: %s", index, total, s.name))
		})
		log.Info("nightaudit.step.start", zap.Int("step", index), zap.String("name", s.name))

		stepStart := p.clock.Now()
		affected, err := p.runStep(ctx, s, st, run.StepTimeout)
		elapsed := p.clock.Now().Sub(stepStart)
		auditMetrics.ObserveStepDuration(s.name, elapsed)

		if err != nil {
			outcome = p.fail(ctx, st, index, s.name, total, err)
			break
		}
		auditMetrics.AddAffected(s.name, affected)

		p.update(ctx, run.ID, func(r *domain.ProgressRecord) {
			r.Messages = append(r.Messages, fmt.Sprintf("Step %d/%d completed: %s", index, total, s.name))
			if index == total {
				r.ReportPath = st.artifacts.PDFPath
			}
		})
		log.Info("nightaudit.step.finish",
			zap.Int("step", index),
			zap.String("name", s.name),
			zap.Int64("affected", affected),
			zap.Int64("duration_ms", elapsed.Milliseconds()),
		)
	}

	st.summary.ReportArtifact = nonEmpty(st.artifacts.All())
	outcome.Summary = st.summary
	outcome.ReportPath = st.artifacts.PDFPath
	if !st.next.IsZero() {
		next := st.next
		outcome.NextBusinessDate = &next
	}

	finished := p.clock.Now()
	if outcome.Success {
		p.update(ctx, run.ID, func(r *domain.ProgressRecord) {
			r.Percent = 100
			r.IsCompleted = true
			r.IsSuccess = true
			r.FinishedAt = &finished
			r.Messages = append(r.Messages, fmt.Sprintf("Night audit finished, business date is now %s", daterange.Format(st.next)))
		})
		span.SetStatus(codes.Ok, "")
		log.Info("nightaudit.run.finish",
			zap.Bool("success", true),
			zap.String("next_business_date", daterange.Format(st.next)),
			zap.Int64("duration_ms", finished.Sub(started).Milliseconds()),
		)
		return outcome
	}

	p.update(ctx, run.ID, func(r *domain.ProgressRecord) {
		r.IsCompleted = true
		r.IsSuccess = false
		r.ErrorKind = outcome.ErrorKind
		r.Error = outcome.Err.Error()
		r.FinishedAt = &finished
	})
	span.RecordError(tracing.SafeError(outcome.Err))
	span.SetStatus(codes.Error, string(outcome.ErrorKind))
	log.Warn("nightaudit.run.finish",
		zap.Bool("success", false),
		zap.Int("failed_step", outcome.FailedStep),
		zap.String("error_kind", string(outcome.ErrorKind)),
		zap.Error(outcome.Err),
		zap.Int64("duration_ms", finished.Sub(started).Milliseconds()),
	)
	return outcome
}

// runStep contains a step's panic and bounds it with the step budget.
func (p *Pipeline) runStep(parent context.Context, s step, st *runState, timeout time.Duration) (affected int64, err error) {
	ctx, span := p.tracer.Start(parent, "nightaudit.step", trace.WithAttributes(attribute.String("audit.step", s.name)))
	defer span.End()

	if timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, timeout)
		defer cancel()
	}

	defer func() {
		if r := recover(); r != nil {
			p.log.Error("nightaudit.step.panic",
				zap.String("audit_run_id", st.run.ID),
				zap.String("step", s.name),
				zap.Any("panic", r),
				zap.ByteString("stack", debug.Stack()),
			)
			err = &stepError{kind: domain.ErrorKindPanic, err: fmt.Errorf("panic: %v", r)}
		}
		if err != nil {
			span.RecordError(tracing.SafeError(err))
			span.SetStatus(codes.Error, "step failed")
		}
	}()

	affected, err = s.fn(ctx, st)
	if errors.Is(ctx.Err(), context.DeadlineExceeded) && parent.Err() == nil {
		cause := err
		if cause == nil {
			cause = ctx.Err()
		}
		err = &stepError{kind: domain.ErrorKindTimeout, err: fmt.Errorf("step exceeded %s: %w", timeout, cause)}
	}
	return affected, err
}

func (p *Pipeline) fail(ctx context.Context, st *runState, index int, name string, total int, err error) Outcome {
	kind := classify(err)
	auditMetrics := obsmetrics.Audit()
	if kind == domain.ErrorKindTimeout {
		auditMetrics.IncStepTimeout(name)
	}
	auditMetrics.IncStepError(name, err)

	p.update(ctx, st.run.ID, func(r *domain.ProgressRecord) {
		r.Messages = append(r.Messages, fmt.Sprintf("Step %d/%d failed: %s: [%s] %s", index, total, name, kind, err.Error()))
	})
	return Outcome{
		Success:    false,
		FailedStep: index,
		ErrorKind:  kind,
		Err:        err,
	}
}

// update never aborts the run: the record is advisory, the audit_runs row is
// the durable outcome.
func (p *Pipeline) update(ctx context.Context, id string, mutate func(*domain.ProgressRecord)) {
	if err := p.progress.Update(ctx, id, mutate); err != nil {
		p.log.Warn("nightaudit.progress.update_failed", zap.String("audit_run_id", id), zap.Error(err))
	}
}

func (p *Pipeline) closeSettledStays(ctx context.Context, st *runState) (int64, error) {
	closed, err := p.reservationRepo.CloseSettled(ctx, p.db, p.clock.Now())
	if err != nil {
		return 0, err
	}
	st.summary.ClosedStays = closed
	return closed, nil
}

func (p *Pipeline) markNoShows(ctx context.Context, st *runState) (int64, error) {
	yesterday := st.run.BusinessDate.AddDate(0, 0, -1)
	marked, err := p.reservationRepo.MarkNoShows(ctx, p.db, yesterday, p.clock.Now())
	if err != nil {
		return 0, err
	}
	st.summary.NoShows = marked
	return marked, nil
}

func (p *Pipeline) postDayClose(ctx context.Context, st *runState) (int64, error) {
	result, err := p.folio.PostDayClose(ctx, st.run.BusinessDate, st.run.OperatorID)
	if err != nil {
		return 0, err
	}
	st.summary.InHouse = result.InHouse
	st.summary.FolioPostings = result.Posted
	st.summary.RoomRevenue = result.Revenue
	return result.Posted, nil
}

func (p *Pipeline) refreshAvailability(_ context.Context, _ *runState) (int64, error) {
	if p.availability != nil {
		p.availability.Invalidate()
	}
	return 0, nil
}

func (p *Pipeline) rollBusinessDate(ctx context.Context, st *runState) (int64, error) {
	next, err := p.businessDate.AdvanceFrom(ctx, st.run.BusinessDate, st.run.OperatorID)
	if err != nil {
		return 0, err
	}
	want := daterange.Truncate(st.run.BusinessDate).AddDate(0, 0, 1)
	if !daterange.Truncate(next).Equal(want) {
		return 0, &stepError{kind: domain.ErrorKindConflict, err: domain.ErrBusinessDateMoved}
	}
	st.next = want
	return 1, nil
}

func (p *Pipeline) generateReport(ctx context.Context, st *runState) (int64, error) {
	reportingDate := st.next.AddDate(0, 0, -1)
	artifacts, err := p.report.Generate(ctx, reportdomain.GenerateRequest{
		RunID:         st.run.ID,
		OperatorID:    st.run.OperatorID,
		ReportingDate: reportingDate,
		NoShows:       st.summary.NoShows,
		ClosedStays:   st.summary.ClosedStays,
	})
	if err != nil {
		if isTimeout(err) {
			return 0, err
		}
		return 0, &stepError{kind: domain.ErrorKindReport, err: err}
	}
	st.artifacts = artifacts
	return int64(len(artifacts.All())), nil
}

func classify(err error) domain.ErrorKind {
	var se *stepError
	if errors.As(err, &se) {
		return se.kind
	}
	switch {
	case isTimeout(err):
		return domain.ErrorKindTimeout
	case errors.Is(err, businessdatedomain.ErrConcurrentUpdate), errors.Is(err, domain.ErrBusinessDateMoved):
		return domain.ErrorKindConflict
	default:
		return domain.ErrorKindPersistence
	}
}

func isTimeout(err error) bool {
	return errors.Is(err, context.DeadlineExceeded)
}

// percentBefore is the progress shown while step index (1-based) runs.
func percentBefore(index, total int) int {
	if total <= 0 {
		return 0
	}
	return int(math.Round(float64(index-1) / float64(total) * 100))
}

func sleep(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

func nonEmpty(values []string) []string {
	out := make([]string, 0, len(values))
	for _, v := range values {
		if v != "" {
			out = append(out, v)
		}
	}
	if len(out) == 0 {
		return nil
	}
	return out
}

func newTracer() trace.Tracer {
	return otel.Tracer("github.com/smallbiznis/frontdesk/internal/nightaudit")
}
