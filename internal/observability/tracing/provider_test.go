package tracing

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	obscontext "github.com/smallbiznis/frontdesk/internal/observability/context"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"
)

func TestSafeAttributesDropsUnknownKeys(t *testing.T) {
	attrs := SafeAttributes(
		attribute.String("http.route", "/admin/night-audits"),
		attribute.String("guest.name", "Jane"),
	)
	require.Len(t, attrs, 1)
	assert.Equal(t, attribute.Key("http.route"), attrs[0].Key)
}

func TestSafeErrorKeepsChain(t *testing.T) {
	base := errors.New("insert failed\nDETAIL: Key (guest_email)=(a@b.c)")
	safe := SafeError(base)
	assert.Equal(t, "insert failed", safe.Error())
	assert.ErrorIs(t, safe, base)
	assert.Nil(t, SafeError(nil))
}

func TestDisabledProviderShutsDownCleanly(t *testing.T) {
	provider, err := NewProvider(nil, Config{Enabled: false}, zap.NewNop())
	require.NoError(t, err)
	assert.NoError(t, provider.Shutdown(context.Background()))
}

func TestAuditSamplerKeepsNightAuditRoots(t *testing.T) {
	sampler := newSampler(Config{SamplingRatio: 0, KeepAudits: true})

	audit := sampler.ShouldSample(sdktrace.SamplingParameters{
		ParentContext: context.Background(),
		TraceID:       trace.TraceID{1},
		Name:          "nightaudit.run",
	})
	assert.Equal(t, sdktrace.RecordAndSample, audit.Decision)

	request := sampler.ShouldSample(sdktrace.SamplingParameters{
		ParentContext: context.Background(),
		TraceID:       trace.TraceID{1},
		Name:          "HTTP GET /admin/availability",
	})
	assert.Equal(t, sdktrace.Drop, request.Decision)
}

func TestSamplerWithoutKeepAuditsUsesRatio(t *testing.T) {
	sampler := newSampler(Config{SamplingRatio: 0})
	res := sampler.ShouldSample(sdktrace.SamplingParameters{
		ParentContext: context.Background(),
		TraceID:       trace.TraceID{1},
		Name:          "nightaudit.run",
	})
	assert.Equal(t, sdktrace.Drop, res.Decision)
}

func TestResourceCarriesHotelAndNode(t *testing.T) {
	res := newResource(Config{Hotel: "Harbor Inn", NodeID: 2})
	values := map[attribute.Key]string{}
	for _, kv := range res.Attributes() {
		values[kv.Key] = kv.Value.Emit()
	}
	assert.Equal(t, "frontdesk", values["service.name"])
	assert.Equal(t, "Harbor Inn", values["hotel.name"])
	assert.Equal(t, "2", values["service.instance.id"])
}

func TestGinMiddlewareNamesSpanAfterRoute(t *testing.T) {
	gin.SetMode(gin.TestMode)
	recorder := tracetest.NewSpanRecorder()
	provider := sdktrace.NewTracerProvider(sdktrace.WithSpanProcessor(recorder))
	previous := otel.GetTracerProvider()
	otel.SetTracerProvider(provider)
	t.Cleanup(func() { otel.SetTracerProvider(previous) })

	r := gin.New()
	r.Use(GinMiddleware())
	r.GET("/admin/night-audits/:id", func(c *gin.Context) {
		ctx := obscontext.WithAuditRun(c.Request.Context(), c.Param("id"))
		c.Request = c.Request.WithContext(ctx)
		c.Status(http.StatusInternalServerError)
		_ = c.Error(errors.New("progress store down\nredis: 10.0.0.3:6379"))
	})

	r.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/admin/night-audits/run-4", nil))

	spans := recorder.Ended()
	require.Len(t, spans, 1)
	span := spans[0]
	assert.Equal(t, "HTTP GET /admin/night-audits/:id", span.Name())
	assert.Equal(t, codes.Error, span.Status().Code)

	attrs := map[attribute.Key]string{}
	for _, kv := range span.Attributes() {
		attrs[kv.Key] = kv.Value.Emit()
	}
	assert.Equal(t, "run-4", attrs["audit.run_id"])
	assert.Equal(t, "500", attrs["http.status_code"])
	require.Len(t, span.Events(), 1)
	for _, kv := range span.Events()[0].Attributes {
		if kv.Key == "exception.message" {
			assert.Equal(t, "progress store down", kv.Value.AsString())
		}
	}
}
