package observability

import (
	"testing"
	"time"

	"github.com/smallbiznis/frontdesk/internal/config"
	"github.com/stretchr/testify/assert"
)

func TestLoadConfigCarriesHotelIdentity(t *testing.T) {
	t.Setenv("LOG_LEVEL", "info")
	t.Setenv("DEPLOYMENT_ENV", "")
	t.Setenv("LOG_SLOW_QUERY_MS", "750")
	t.Setenv("OTEL_SAMPLING_RATIO", "3")
	t.Setenv("OTEL_EXPORTER_OTLP_PROTOCOL", "grpc")
	t.Setenv("OTEL_EXPORTER_OTLP_TRACES_PROTOCOL", "HTTP")
	t.Setenv("OTEL_KEEP_AUDIT_TRACES", "off")

	cfg := LoadConfig(config.Config{
		AppName:     "",
		Environment: "production",
		HotelName:   " Harbor Inn ",
		NodeID:      4,
	})

	assert.Equal(t, "frontdesk", cfg.ServiceName)
	assert.Equal(t, "Harbor Inn", cfg.Hotel)
	assert.Equal(t, int64(4), cfg.NodeID)
	assert.Equal(t, 750*time.Millisecond, cfg.Log.SlowQuery)
	assert.Equal(t, 0.1, cfg.Trace.SamplingRatio)
	assert.Equal(t, "http", cfg.Trace.Protocol)
	assert.False(t, cfg.Trace.KeepAudits)
	assert.False(t, cfg.Debug())
}

func TestDebug(t *testing.T) {
	assert.True(t, Config{Environment: "local"}.Debug())
	assert.True(t, Config{Environment: "production", Log: LogConfig{Level: "debug"}}.Debug())
	assert.False(t, Config{Environment: "staging", Log: LogConfig{Level: "info"}}.Debug())
}

func TestGormLoggerConfigFollowsLogSection(t *testing.T) {
	cfg := gormLoggerConfig(Config{Environment: "development", Log: LogConfig{SlowQuery: time.Second}})
	assert.Equal(t, time.Second, cfg.SlowThreshold)
	assert.True(t, cfg.LogStatements)
}
