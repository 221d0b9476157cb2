package observability

import (
	"github.com/smallbiznis/frontdesk/internal/observability/logger"
	"github.com/smallbiznis/frontdesk/internal/observability/metrics"
	"github.com/smallbiznis/frontdesk/internal/observability/tracing"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.uber.org/fx"
)

var Module = fx.Module("observability",
	fx.Provide(
		LoadConfig,
		loggerConfig,
		gormLoggerConfig,
		logger.New,
		tracingConfig,
		tracing.NewProvider,
		metricsConfig,
		metrics.NewProvider,
		metrics.New,
		metrics.NewHTTPMetrics,
	),
	fx.Invoke(startTracing),
	fx.Invoke(registerAuditMetrics),
)

func startTracing(*sdktrace.TracerProvider) {}

func registerAuditMetrics(cfg metrics.Config) {
	metrics.AuditWithConfig(cfg)
}

func loggerConfig(cfg Config) logger.Config {
	debug := cfg.Debug()
	return logger.Config{
		ServiceName:         cfg.ServiceName,
		Environment:         cfg.Environment,
		Version:             cfg.Version,
		Hotel:               cfg.Hotel,
		NodeID:              cfg.NodeID,
		Level:               cfg.Log.Level,
		Format:              cfg.Log.Format,
		IncludeCaller:       true,
		IncludeStackOnError: debug,
	}
}

func gormLoggerConfig(cfg Config) logger.GormLoggerConfig {
	out := logger.DefaultGormLoggerConfig()
	out.SlowThreshold = cfg.Log.SlowQuery
	if cfg.Debug() {
		out.LogStatements = true
	}
	return out
}

func tracingConfig(cfg Config) tracing.Config {
	return tracing.Config{
		Enabled:          cfg.Trace.Enabled,
		ServiceName:      cfg.ServiceName,
		ServiceVersion:   cfg.Version,
		Environment:      cfg.Environment,
		Hotel:            cfg.Hotel,
		NodeID:           cfg.NodeID,
		ExporterEndpoint: cfg.Trace.Endpoint,
		ExporterProtocol: cfg.Trace.Protocol,
		SamplingRatio:    cfg.Trace.SamplingRatio,
		KeepAudits:       cfg.Trace.KeepAudits,
	}
}

func metricsConfig(cfg Config) metrics.Config {
	return metrics.Config{
		Enabled:          cfg.Trace.Enabled,
		ExporterEndpoint: cfg.Trace.Endpoint,
		ExporterProtocol: cfg.Trace.Protocol,
		ServiceName:      cfg.ServiceName,
		Environment:      cfg.Environment,
	}
}
