package logger

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	obscontext "github.com/smallbiznis/frontdesk/internal/observability/context"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

func TestWithContextAddsScopeFields(t *testing.T) {
	core, logs := observer.New(zapcore.DebugLevel)
	ctx := obscontext.WithRequestID(context.Background(), "req-1")
	ctx = obscontext.WithActor(ctx, "operator", "u-17")
	ctx = obscontext.WithAuditRun(ctx, "01J0RUN")

	WithContext(ctx, zap.New(core)).Info("nightaudit.step.start")

	require.Equal(t, 1, logs.Len())
	fields := logs.All()[0].ContextMap()
	assert.Equal(t, "req-1", fields["request_id"])
	assert.Equal(t, "operator", fields["actor_type"])
	assert.Equal(t, "u-17", fields["actor_id"])
	assert.Equal(t, "01J0RUN", fields["audit_run_id"])
	assert.NotContains(t, fields, "trace_id")
}

func TestProcessFieldsCarryHotelAndNode(t *testing.T) {
	core, logs := observer.New(zapcore.InfoLevel)
	zap.New(core).With(processFields(Config{Hotel: "Harbor Inn", NodeID: 3})...).Info("boot")

	fields := logs.All()[0].ContextMap()
	assert.Equal(t, "frontdesk", fields["service"])
	assert.Equal(t, "Harbor Inn", fields["hotel"])
	assert.Equal(t, int64(3), fields["node_id"])
}

func TestNewRejectsUnknownLevel(t *testing.T) {
	_, err := New(nil, Config{Level: "chatty"})
	require.Error(t, err)
}

func TestAccessLevel(t *testing.T) {
	assert.Equal(t, zapcore.DebugLevel, accessLevel("/admin/night-audits/:id", http.StatusOK))
	assert.Equal(t, zapcore.InfoLevel, accessLevel("/admin/night-audits/:id", http.StatusNotFound))
	assert.Equal(t, zapcore.InfoLevel, accessLevel("/admin/reservations", http.StatusCreated))
	assert.Equal(t, zapcore.ErrorLevel, accessLevel("/health", http.StatusServiceUnavailable))
}

func TestGinMiddlewareLogsRequest(t *testing.T) {
	gin.SetMode(gin.TestMode)
	core, logs := observer.New(zapcore.DebugLevel)
	restore := zap.ReplaceGlobals(zap.New(core))
	defer restore()

	r := gin.New()
	r.Use(GinMiddleware(MiddlewareConfig{
		ErrorClassifier: func(error) (string, string) { return "conflict", "night_audit_running" },
	}))
	r.POST("/admin/night-audits", func(c *gin.Context) {
		c.Request = c.Request.WithContext(obscontext.WithAuditRun(c.Request.Context(), "run-9"))
		_ = c.Error(errors.New("running"))
		c.Status(http.StatusConflict)
	})

	req := httptest.NewRequest(http.MethodPost, "/admin/night-audits", nil)
	req.Header.Set("X-Request-ID", "abc")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	assert.Equal(t, "abc", w.Header().Get("X-Request-Id"))
	entries := logs.FilterMessage("http_request").All()
	require.Len(t, entries, 1)
	assert.Equal(t, zapcore.InfoLevel, entries[0].Level)
	fields := entries[0].ContextMap()
	assert.Equal(t, "abc", fields["request_id"])
	assert.Equal(t, "run-9", fields["audit_run_id"])
	assert.Equal(t, "/admin/night-audits", fields["route"])
	assert.Equal(t, int64(http.StatusConflict), fields["status"])
	assert.Equal(t, "night_audit_running", fields["error_code"])
}

func TestGinMiddlewareGeneratesRequestID(t *testing.T) {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(GinMiddleware(MiddlewareConfig{}))
	r.GET("/health", func(c *gin.Context) { c.Status(http.StatusOK) })

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/health", nil))
	assert.NotEmpty(t, w.Header().Get("X-Request-Id"))
}

func TestGormLoggerTrace(t *testing.T) {
	core, logs := observer.New(zapcore.DebugLevel)
	gl := NewGormLogger(GormLoggerConfig{SlowThreshold: 50 * time.Millisecond}, zap.New(core))
	sql := func() (string, int64) { return "UPDATE reservations SET status = ? WHERE id = ?", 1 }
	ctx := obscontext.WithAuditRun(context.Background(), "run-1")

	gl.Trace(ctx, time.Now(), sql, nil)
	assert.Equal(t, 0, logs.Len(), "fast statements are not logged at warn level")

	gl.Trace(ctx, time.Now().Add(-time.Second), sql, nil)
	gl.Trace(ctx, time.Now(), sql, errors.New("database is locked"))
	gl.Trace(ctx, time.Now(), sql, gormlogger.ErrRecordNotFound)

	entries := logs.All()
	require.Len(t, entries, 2)
	assert.Equal(t, zapcore.WarnLevel, entries[0].Level)
	assert.Equal(t, true, entries[0].ContextMap()["slow"])
	assert.Equal(t, "UPDATE", entries[0].ContextMap()["operation"])
	assert.Equal(t, "run-1", entries[0].ContextMap()["audit_run_id"])
	assert.Equal(t, zapcore.ErrorLevel, entries[1].Level)
}

func TestGormLoggerStatementsAtDebug(t *testing.T) {
	core, logs := observer.New(zapcore.DebugLevel)
	gl := NewGormLogger(GormLoggerConfig{LogStatements: true}, zap.New(core))
	gl.Trace(context.Background(), time.Now(), func() (string, int64) {
		return "WITH t AS (SELECT 1) SELECT * FROM t", -1
	}, nil)

	require.Equal(t, 1, logs.Len())
	entry := logs.All()[0]
	assert.Equal(t, zapcore.DebugLevel, entry.Level)
	assert.Equal(t, "SELECT", entry.ContextMap()["operation"])
	assert.NotContains(t, entry.ContextMap(), "rows_affected")

	silent := gl.LogMode(gormlogger.Silent)
	silent.Info(context.Background(), "ignored")
	assert.Equal(t, 1, logs.Len())
}

func TestGormLoggerDropsBoundParams(t *testing.T) {
	var filter gorm.ParamsFilter = NewGormLogger(DefaultGormLoggerConfig(), zap.NewNop())

	sql, params := filter.ParamsFilter(context.Background(), "SELECT * FROM guests WHERE email = ?", "ana@example.com")
	assert.Equal(t, "SELECT * FROM guests WHERE email = ?", sql)
	assert.Nil(t, params)
}
