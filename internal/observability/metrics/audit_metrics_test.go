package metrics

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"gorm.io/gorm"
)

func TestClassifyErrorReason(t *testing.T) {
	cases := []struct {
		name string
		err  error
		want string
	}{
		{name: "deadline", err: fmt.Errorf("step: %w", context.DeadlineExceeded), want: ReasonDeadlineExceeded},
		{name: "db_lock_timeout", err: &pgconn.PgError{Code: "55P03"}, want: ReasonDBLockTimeout},
		{name: "serialization_failure", err: &pgconn.PgError{Code: "40001"}, want: ReasonSerializationFailure},
		{name: "unique_violation", err: gorm.ErrDuplicatedKey, want: ReasonUniqueViolation},
		{name: "other_pg", err: &pgconn.PgError{Code: "42P01"}, want: ReasonDB},
		{name: "unknown", err: errors.New("boom"), want: ReasonUnknown},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := ClassifyErrorReason(tc.err); got != tc.want {
				t.Fatalf("expected reason %q, got %q", tc.want, got)
			}
		})
	}
}

func TestAuditMetricsCounters(t *testing.T) {
	registry := prometheus.NewRegistry()
	m := newAuditMetrics(registry, Config{ServiceName: "frontdesk", Environment: "test"})

	m.AddAffected("close_settled_stays", 3)
	m.AddAffected("close_settled_stays", 0)
	m.IncStepTimeout("post_day_close")
	m.IncRun(AuditOutcomeSuccess)
	m.ObserveStepDuration("roll_business_date", 20*time.Millisecond)

	if got := testutil.ToFloat64(m.stepAffected.WithLabelValues("close_settled_stays")); got != 3 {
		t.Fatalf("expected affected 3, got %v", got)
	}
	if got := testutil.ToFloat64(m.stepTimeouts.WithLabelValues("post_day_close")); got != 1 {
		t.Fatalf("expected timeout 1, got %v", got)
	}
	if got := testutil.ToFloat64(m.runs.WithLabelValues(AuditOutcomeSuccess)); got != 1 {
		t.Fatalf("expected success run 1, got %v", got)
	}
}
