package service

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"sync"
	"time"

	availabilitydomain "github.com/smallbiznis/frontdesk/internal/availability/domain"
	businessdatedomain "github.com/smallbiznis/frontdesk/internal/businessdate/domain"
	"github.com/smallbiznis/frontdesk/internal/clock"
	"github.com/smallbiznis/frontdesk/internal/config"
	foliodomain "github.com/smallbiznis/frontdesk/internal/folio/domain"
	"github.com/smallbiznis/frontdesk/internal/nightaudit/domain"
	"github.com/smallbiznis/frontdesk/internal/nightaudit/guard"
	obscontext "github.com/smallbiznis/frontdesk/internal/observability/context"
	obsmetrics "github.com/smallbiznis/frontdesk/internal/observability/metrics"
	reportdomain "github.com/smallbiznis/frontdesk/internal/report/domain"
	reservationdomain "github.com/smallbiznis/frontdesk/internal/reservation/domain"
	"github.com/smallbiznis/frontdesk/pkg/db/pagination"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

const (
	SystemOperator   = "system"
	maxOperatorIDLen = 64
	finishTimeout    = 10 * time.Second
)

type Params struct {
	fx.In

	DB              *gorm.DB
	Log             *zap.Logger
	Clock           clock.Clock
	AuditConfig     *config.AuditConfigHolder `optional:"true"`
	Metrics         *obsmetrics.Metrics       `optional:"true"`
	Repo            domain.Repository
	ReservationRepo reservationdomain.Repository
	BusinessDate    businessdatedomain.Service
	Folio           foliodomain.Service
	Availability    availabilitydomain.Service `optional:"true"`
	Report          reportdomain.Service
	Progress        domain.ProgressStore
	Guard           *guard.Guard
}

type Service struct {
	db          *gorm.DB
	log         *zap.Logger
	clock       clock.Clock
	auditConfig *config.AuditConfigHolder
	metrics     *obsmetrics.Metrics
	repo        domain.Repository
	businessDt  businessdatedomain.Service
	progress    domain.ProgressStore
	guard       *guard.Guard
	pipeline    *Pipeline

	wg sync.WaitGroup
}

func New(p Params) domain.Service {
	log := p.Log.Named("nightaudit.service")
	return &Service{
		db:          p.DB,
		log:         log,
		clock:       p.Clock,
		auditConfig: p.AuditConfig,
		metrics:     p.Metrics,
		repo:        p.Repo,
		businessDt:  p.BusinessDate,
		progress:    p.Progress,
		guard:       p.Guard,
		pipeline: &Pipeline{
			db:              p.DB,
			log:             log.Named("pipeline"),
			clock:           p.Clock,
			reservationRepo: p.ReservationRepo,
			businessDate:    p.BusinessDate,
			folio:           p.Folio,
			availability:    p.Availability,
			report:          p.Report,
			progress:        p.Progress,
			tracer:          newTracer(),
		},
	}
}

func (s *Service) StartAudit(ctx context.Context, req domain.StartAuditRequest) (string, error) {
	operatorID := strings.TrimSpace(req.OperatorID)
	if operatorID == "" {
		operatorID = SystemOperator
	}
	if len(operatorID) > maxOperatorIDLen {
		return "", domain.ErrInvalidOperator
	}
	trigger := strings.TrimSpace(req.Trigger)
	switch trigger {
	case "":
		trigger = domain.TriggerManual
	case domain.TriggerManual, domain.TriggerAuto:
	default:
		return "", domain.ErrInvalidTrigger
	}

	auditMetrics := obsmetrics.Audit()
	lease, err := s.guard.Acquire(ctx)
	if err != nil {
		if errors.Is(err, guard.ErrHeld) {
			auditMetrics.IncRun(obsmetrics.AuditOutcomeRejected)
			s.log.Info("nightaudit.start.rejected",
				zap.String("operator_id", operatorID),
				zap.String("trigger", trigger),
			)
			return "", domain.ErrAuditAlreadyRunning
		}
		return "", err
	}

	runID, err := s.begin(ctx, lease, operatorID, trigger)
	if err != nil {
		_ = lease.Release(context.Background())
		return "", err
	}
	return runID, nil
}

// begin prepares the records of a run and launches it. The lease is handed
// to the background run on success.
func (s *Service) begin(ctx context.Context, lease guard.Lease, operatorID, trigger string) (string, error) {
	businessDate, err := s.businessDt.GetCurrentDate(ctx)
	if err != nil {
		return "", err
	}

	cfg := s.auditConfig.Get()
	now := s.clock.Now()
	record, err := s.progress.Create(ctx, domain.ProgressRecord{
		Steps:      append([]string(nil), domain.Steps...),
		Messages:   []string{},
		OperatorID: operatorID,
		Trigger:    trigger,
		StartedAt:  now,
	})
	if err != nil {
		return "", err
	}

	history := &domain.AuditRun{
		ID:           record.ID,
		OperatorID:   operatorID,
		Trigger:      trigger,
		Status:       domain.RunStatusRunning,
		BusinessDate: businessDate,
		Messages:     datatypes.JSON("[]"),
		Summary:      datatypes.JSON("{}"),
		StartedAt:    now,
	}
	if err := s.repo.Insert(ctx, s.db, history); err != nil {
		s.abandon(ctx, record.ID, err)
		return "", err
	}

	s.metrics.RecordAuditStarted(ctx, trigger)
	obsmetrics.Audit().SetRunning(true)

	run := Run{
		ID:           record.ID,
		OperatorID:   operatorID,
		Trigger:      trigger,
		BusinessDate: businessDate,
		StepTimeout:  cfg.StepTimeout,
		StepDelay:    cfg.StepDelay,
		Lease:        lease,
	}

	actorType := "operator"
	if operatorID == SystemOperator {
		actorType = "system"
	}
	runCtx := obscontext.WithActor(context.Background(), actorType, operatorID)
	runCtx = obscontext.WithAuditRun(runCtx, record.ID)
	if requestID := obscontext.RequestIDFromContext(ctx); requestID != "" {
		runCtx = obscontext.WithRequestID(runCtx, requestID)
	}

	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		s.execute(runCtx, run, history)
	}()

	return record.ID, nil
}

// abandon completes a progress record whose run never started, so pollers
// stop waiting and the TTL sweep can prune it.
func (s *Service) abandon(ctx context.Context, id string, cause error) {
	finished := s.clock.Now()
	err := s.progress.Update(ctx, id, func(r *domain.ProgressRecord) {
		r.IsCompleted = true
		r.IsSuccess = false
		r.ErrorKind = domain.ErrorKindPersistence
		r.Error = cause.Error()
		r.FinishedAt = &finished
	})
	if err != nil {
		s.log.Warn("nightaudit.progress.update_failed", zap.String("audit_run_id", id), zap.Error(err))
	}
}

func (s *Service) execute(ctx context.Context, run Run, history *domain.AuditRun) {
	defer func() {
		obsmetrics.Audit().SetRunning(false)
		if err := run.Lease.Release(context.Background()); err != nil {
			s.log.Warn("nightaudit.guard.release_failed", zap.String("audit_run_id", run.ID), zap.Error(err))
		}
	}()

	outcome := s.pipeline.Run(ctx, run)

	outcomeLabel := obsmetrics.AuditOutcomeSuccess
	history.Status = domain.RunStatusSucceeded
	if !outcome.Success {
		outcomeLabel = obsmetrics.AuditOutcomeFailure
		history.Status = domain.RunStatusFailed
		history.ErrorKind = string(outcome.ErrorKind)
		history.ErrorMessage = outcome.Err.Error()
	}
	obsmetrics.Audit().IncRun(outcomeLabel)
	s.metrics.RecordAuditFinished(ctx, outcomeLabel, string(outcome.ErrorKind))

	finishCtx, cancel := context.WithTimeout(context.Background(), finishTimeout)
	defer cancel()

	record, found, err := s.progress.Get(finishCtx, run.ID)
	if err != nil {
		s.log.Warn("nightaudit.progress.read_failed", zap.String("audit_run_id", run.ID), zap.Error(err))
	}
	if found {
		history.Percent = record.Percent
		history.Messages = mustJSON(record.Messages, "[]")
	}
	finished := s.clock.Now()
	history.FinishedAt = &finished
	history.NextBusinessDate = outcome.NextBusinessDate
	history.ReportPath = outcome.ReportPath
	history.Summary = mustJSON(outcome.Summary, "{}")

	if err := s.repo.Finish(finishCtx, s.db, history); err != nil {
		s.log.Error("nightaudit.history.finish_failed", zap.String("audit_run_id", run.ID), zap.Error(err))
	}
}

func (s *Service) GetProgress(ctx context.Context, runID string) (domain.ProgressRecord, error) {
	runID = strings.TrimSpace(runID)
	if runID == "" {
		return domain.ProgressRecord{}, domain.ErrInvalidRunID
	}

	record, found, err := s.progress.Get(ctx, runID)
	if err != nil {
		return domain.ProgressRecord{}, err
	}
	if found {
		return record, nil
	}

	// Records outlive neither a restart of the memory backend nor their TTL;
	// finished runs are still answered from history.
	history, err := s.repo.FindByID(ctx, s.db, runID)
	if err != nil {
		return domain.ProgressRecord{}, err
	}
	if history == nil || history.Status == domain.RunStatusRunning {
		return domain.ProgressRecord{}, domain.ErrRunNotFound
	}
	return recordFromHistory(*history), nil
}

func (s *Service) ListRuns(ctx context.Context, page pagination.Pagination) (domain.ListRunsResponse, error) {
	limit := page.Limit()
	filter := domain.ListRunsFilter{Limit: limit + 1}
	if token := strings.TrimSpace(page.PageToken); token != "" {
		cursor, err := pagination.DecodeCursor(token)
		if err != nil {
			return domain.ListRunsResponse{}, err
		}
		startedAt, err := time.Parse(time.RFC3339Nano, cursor.CreatedAt)
		if err != nil {
			return domain.ListRunsResponse{}, pagination.ErrInvalidPageToken
		}
		filter.Before = &domain.RunCursor{StartedAt: startedAt, ID: cursor.ID}
	}

	runs, err := s.repo.List(ctx, s.db, filter)
	if err != nil {
		return domain.ListRunsResponse{}, err
	}

	runs, pageInfo, err := pagination.BuildCursorPageInfo(runs, limit, func(r domain.AuditRun) pagination.Cursor {
		return pagination.Cursor{
			ID:        r.ID,
			CreatedAt: r.StartedAt.UTC().Format(time.RFC3339Nano),
		}
	})
	if err != nil {
		return domain.ListRunsResponse{}, err
	}
	if runs == nil {
		runs = []domain.AuditRun{}
	}
	return domain.ListRunsResponse{Runs: runs, PageInfo: pageInfo}, nil
}

func (s *Service) Wait() {
	s.wg.Wait()
}

func recordFromHistory(run domain.AuditRun) domain.ProgressRecord {
	var messages []string
	_ = json.Unmarshal(run.Messages, &messages)
	if messages == nil {
		messages = []string{}
	}
	record := domain.ProgressRecord{
		ID:          run.ID,
		Percent:     run.Percent,
		Steps:       append([]string(nil), domain.Steps...),
		Messages:    messages,
		IsCompleted: true,
		IsSuccess:   run.Status == domain.RunStatusSucceeded,
		ReportPath:  run.ReportPath,
		ErrorKind:   domain.ErrorKind(run.ErrorKind),
		Error:       run.ErrorMessage,
		OperatorID:  run.OperatorID,
		Trigger:     run.Trigger,
		StartedAt:   run.StartedAt,
		FinishedAt:  run.FinishedAt,
	}
	if record.IsSuccess {
		record.CurrentStep = len(domain.Steps)
	}
	return record
}

func mustJSON(v any, fallback string) datatypes.JSON {
	b, err := json.Marshal(v)
	if err != nil {
		return datatypes.JSON(fallback)
	}
	return datatypes.JSON(b)
}
