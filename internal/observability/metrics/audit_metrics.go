package metrics

import (
	"context"
	"errors"
	"strings"
	"sync"
	"time"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/prometheus/client_golang/prometheus"
	"gorm.io/gorm"
)

const (
	ReasonDeadlineExceeded     = "deadline_exceeded"
	ReasonDBLockTimeout        = "db_lock_timeout"
	ReasonSerializationFailure = "serialization_failure"
	ReasonUniqueViolation      = "unique_violation"
	ReasonDB                   = "db"
	ReasonUnknown              = "unknown"
)

const (
	AuditOutcomeSuccess  = "success"
	AuditOutcomeFailure  = "failure"
	AuditOutcomeRejected = "rejected"
)

// AuditMetrics captures night audit and scheduler health signals.
type AuditMetrics struct {
	runs         *prometheus.CounterVec
	running      prometheus.Gauge
	stepDuration *prometheus.HistogramVec
	stepTimeouts *prometheus.CounterVec
	stepErrors   *prometheus.CounterVec
	stepAffected *prometheus.CounterVec
	jobRuns      *prometheus.CounterVec
	jobDuration  *prometheus.HistogramVec
	jobTimeouts  *prometheus.CounterVec
	jobErrors    *prometheus.CounterVec
	runLoopLag   prometheus.Observer
}

var (
	auditMetricsOnce sync.Once
	auditMetrics     *AuditMetrics
)

// Audit returns the singleton audit metrics registry.
func Audit() *AuditMetrics {
	return AuditWithConfig(Config{})
}

// AuditWithConfig returns the singleton audit metrics registry using config labels.
func AuditWithConfig(cfg Config) *AuditMetrics {
	auditMetricsOnce.Do(func() {
		auditMetrics = newAuditMetrics(prometheus.DefaultRegisterer, cfg)
	})
	return auditMetrics
}

// ResetAuditMetricsForTest resets the audit metrics singleton for tests.
func ResetAuditMetricsForTest() {
	auditMetricsOnce = sync.Once{}
	auditMetrics = nil
}

func newAuditMetrics(registerer prometheus.Registerer, cfg Config) *AuditMetrics {
	if registerer == nil {
		registerer = prometheus.DefaultRegisterer
	}

	serviceName := strings.TrimSpace(cfg.ServiceName)
	if serviceName == "" {
		serviceName = "frontdesk"
	}
	environment := strings.TrimSpace(cfg.Environment)
	if environment == "" {
		environment = "unknown"
	}
	constLabels := prometheus.Labels{
		"service": serviceName,
		"env":     environment,
	}

	runs := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name:        "frontdesk_night_audit_runs_total",
		Help:        "Night audit runs by terminal outcome.",
		ConstLabels: constLabels,
	}, []string{"outcome"})
	running := prometheus.NewGauge(prometheus.GaugeOpts{
		Name:        "frontdesk_night_audit_running",
		Help:        "1 while a night audit run holds the run guard in this process.",
		ConstLabels: constLabels,
	})
	stepDuration := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:        "frontdesk_night_audit_step_duration_seconds",
		Help:        "Night audit step latency.",
		Buckets:     []float64{0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30, 60, 120},
		ConstLabels: constLabels,
	}, []string{"step"})
	stepTimeouts := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name:        "frontdesk_night_audit_step_timeouts_total",
		Help:        "Night audit steps that exceeded their wall-clock budget.",
		ConstLabels: constLabels,
	}, []string{"step"})
	stepErrors := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name:        "frontdesk_night_audit_step_errors_total",
		Help:        "Night audit step errors by low-cardinality reason.",
		ConstLabels: constLabels,
	}, []string{"step", "reason"})
	stepAffected := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name:        "frontdesk_night_audit_rows_affected_total",
		Help:        "Rows changed by night audit steps.",
		ConstLabels: constLabels,
	}, []string{"step"})
	jobRuns := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name:        "frontdesk_scheduler_job_runs_total",
		Help:        "Scheduler job runs by name.",
		ConstLabels: constLabels,
	}, []string{"job"})
	jobDuration := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:        "frontdesk_scheduler_job_duration_seconds",
		Help:        "Scheduler job latency.",
		Buckets:     []float64{0.01, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30, 60},
		ConstLabels: constLabels,
	}, []string{"job"})
	jobTimeouts := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name:        "frontdesk_scheduler_job_timeouts_total",
		Help:        "Scheduler jobs that hit their timeout.",
		ConstLabels: constLabels,
	}, []string{"job"})
	jobErrors := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name:        "frontdesk_scheduler_job_errors_total",
		Help:        "Scheduler job errors by low-cardinality reason.",
		ConstLabels: constLabels,
	}, []string{"job", "reason"})
	runLoopLag := prometheus.NewHistogram(prometheus.HistogramOpts{
		Name:        "frontdesk_scheduler_runloop_lag_seconds",
		Help:        "Scheduler run loop lag beyond the configured interval.",
		Buckets:     []float64{0.01, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30, 60, 120, 300},
		ConstLabels: constLabels,
	})

	registerer.MustRegister(
		runs,
		running,
		stepDuration,
		stepTimeouts,
		stepErrors,
		stepAffected,
		jobRuns,
		jobDuration,
		jobTimeouts,
		jobErrors,
		runLoopLag,
	)

	return &AuditMetrics{
		runs:         runs,
		running:      running,
		stepDuration: stepDuration,
		stepTimeouts: stepTimeouts,
		stepErrors:   stepErrors,
		stepAffected: stepAffected,
		jobRuns:      jobRuns,
		jobDuration:  jobDuration,
		jobTimeouts:  jobTimeouts,
		jobErrors:    jobErrors,
		runLoopLag:   runLoopLag,
	}
}

func (m *AuditMetrics) IncRun(outcome string) {
	if m == nil || m.runs == nil {
		return
	}
	m.runs.WithLabelValues(outcome).Inc()
}

// SetRunning flips the in-process running gauge.
func (m *AuditMetrics) SetRunning(running bool) {
	if m == nil || m.running == nil {
		return
	}
	if running {
		m.running.Set(1)
		return
	}
	m.running.Set(0)
}

func (m *AuditMetrics) ObserveStepDuration(step string, duration time.Duration) {
	if m == nil || m.stepDuration == nil {
		return
	}
	m.stepDuration.WithLabelValues(step).Observe(duration.Seconds())
}

func (m *AuditMetrics) IncStepTimeout(step string) {
	if m == nil || m.stepTimeouts == nil {
		return
	}
	m.stepTimeouts.WithLabelValues(step).Inc()
}

// IncStepError increments the step error counter with classification.
func (m *AuditMetrics) IncStepError(step string, err error) {
	if m == nil || err == nil || m.stepErrors == nil {
		return
	}
	m.stepErrors.WithLabelValues(step, ClassifyErrorReason(err)).Inc()
}

func (m *AuditMetrics) AddAffected(step string, count int64) {
	if m == nil || count <= 0 || m.stepAffected == nil {
		return
	}
	m.stepAffected.WithLabelValues(step).Add(float64(count))
}

// IncJobRun increments the run counter for a scheduler job.
func (m *AuditMetrics) IncJobRun(job string) {
	if m == nil || m.jobRuns == nil {
		return
	}
	m.jobRuns.WithLabelValues(job).Inc()
}

func (m *AuditMetrics) ObserveJobDuration(job string, duration time.Duration) {
	if m == nil || m.jobDuration == nil {
		return
	}
	m.jobDuration.WithLabelValues(job).Observe(duration.Seconds())
}

func (m *AuditMetrics) IncJobTimeout(job string) {
	if m == nil || m.jobTimeouts == nil {
		return
	}
	m.jobTimeouts.WithLabelValues(job).Inc()
}

func (m *AuditMetrics) IncJobError(job string, err error) {
	if m == nil || m.jobErrors == nil {
		return
	}
	m.jobErrors.WithLabelValues(job, ClassifyErrorReason(err)).Inc()
}

// ObserveRunLoopLag records lag between the scheduled tick and actual run start.
func (m *AuditMetrics) ObserveRunLoopLag(duration time.Duration) {
	if m == nil || m.runLoopLag == nil {
		return
	}
	lag := duration
	if lag < 0 {
		lag = 0
	}
	m.runLoopLag.Observe(lag.Seconds())
}

// ClassifyErrorReason maps errors to low-cardinality reasons.
func ClassifyErrorReason(err error) string {
	if err == nil {
		return ReasonUnknown
	}
	if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled) {
		return ReasonDeadlineExceeded
	}
	if isDBLockTimeout(err) {
		return ReasonDBLockTimeout
	}
	if isSerializationFailure(err) {
		return ReasonSerializationFailure
	}
	if isUniqueViolation(err) {
		return ReasonUniqueViolation
	}
	if IsDBError(err) {
		return ReasonDB
	}
	return ReasonUnknown
}

func isDBLockTimeout(err error) bool {
	return hasPGCode(err, "55P03")
}

func isSerializationFailure(err error) bool {
	return hasPGCode(err, "40001")
}

func isUniqueViolation(err error) bool {
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return true
	}
	return hasPGCode(err, "23505")
}

func hasPGCode(err error, code string) bool {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code == code
	}
	return false
}

// IsDBError reports whether err came from gorm or the postgres driver.
func IsDBError(err error) bool {
	if err == nil || errors.Is(err, gorm.ErrRecordNotFound) {
		return false
	}
	if errors.Is(err, gorm.ErrInvalidDB) ||
		errors.Is(err, gorm.ErrInvalidTransaction) ||
		errors.Is(err, gorm.ErrInvalidField) ||
		errors.Is(err, gorm.ErrInvalidData) ||
		errors.Is(err, gorm.ErrMissingWhereClause) ||
		errors.Is(err, gorm.ErrUnsupportedDriver) ||
		errors.Is(err, gorm.ErrInvalidValue) ||
		errors.Is(err, gorm.ErrNotImplemented) ||
		errors.Is(err, gorm.ErrDuplicatedKey) {
		return true
	}
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr)
}
