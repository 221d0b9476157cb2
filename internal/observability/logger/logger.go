package logger

import (
	"context"
	"fmt"
	"os"
	"strings"
	"time"

	obscontext "github.com/smallbiznis/frontdesk/internal/observability/context"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Config configures the process logger.
type Config struct {
	ServiceName string
	Environment string
	Version     string
	Hotel       string
	NodeID      int64
	Level       string
	Format      string

	IncludeCaller       bool
	IncludeStackOnError bool

	// Sampling keeps the first SampleFirst entries with the same message per
	// SampleTick, then every SampleEvery-th one.
	SampleFirst int
	SampleEvery int
	SampleTick  time.Duration
}

// New builds the zap logger every component derives its named logger from.
func New(lc fx.Lifecycle, cfg Config) (*zap.Logger, error) {
	level, err := zapcore.ParseLevel(defaultString(cfg.Level, "info"))
	if err != nil {
		return nil, fmt.Errorf("invalid log level %q: %w", cfg.Level, err)
	}

	core := zapcore.NewCore(newEncoder(cfg.Format), zapcore.Lock(os.Stdout), zap.NewAtomicLevelAt(level))
	core = zapcore.NewSamplerWithOptions(core,
		defaultDuration(cfg.SampleTick, time.Second),
		defaultInt(cfg.SampleFirst, 100),
		defaultInt(cfg.SampleEvery, 100),
	)

	opts := []zap.Option{zap.ErrorOutput(zapcore.Lock(os.Stderr))}
	if cfg.IncludeCaller {
		opts = append(opts, zap.AddCaller())
	}
	if cfg.IncludeStackOnError {
		opts = append(opts, zap.AddStacktrace(zapcore.ErrorLevel))
	}

	log := zap.New(core, opts...).With(processFields(cfg)...)
	zap.ReplaceGlobals(log)

	if lc != nil {
		lc.Append(fx.StopHook(func() {
			_ = log.Sync()
		}))
	}
	return log, nil
}

func newEncoder(format string) zapcore.Encoder {
	enc := zap.NewProductionEncoderConfig()
	enc.TimeKey = "ts"
	enc.EncodeTime = zapcore.ISO8601TimeEncoder
	if strings.EqualFold(strings.TrimSpace(format), "console") {
		enc.EncodeLevel = zapcore.CapitalLevelEncoder
		return zapcore.NewConsoleEncoder(enc)
	}
	return zapcore.NewJSONEncoder(enc)
}

// processFields identify the property and node a line came from.
func processFields(cfg Config) []zap.Field {
	fields := []zap.Field{
		zap.String("service", defaultString(cfg.ServiceName, "frontdesk")),
		zap.String("env", strings.TrimSpace(cfg.Environment)),
		zap.String("version", strings.TrimSpace(cfg.Version)),
	}
	if hotel := strings.TrimSpace(cfg.Hotel); hotel != "" {
		fields = append(fields, zap.String("hotel", hotel))
	}
	if cfg.NodeID > 0 {
		fields = append(fields, zap.Int64("node_id", cfg.NodeID))
	}
	return fields
}

// FromContext returns the global logger with the request or run scope of ctx.
func FromContext(ctx context.Context) *zap.Logger {
	return WithContext(ctx, zap.L())
}

// WithContext adds request, actor, audit run and trace identifiers found in
// ctx to base.
func WithContext(ctx context.Context, base *zap.Logger) *zap.Logger {
	if ctx == nil || base == nil {
		return base
	}

	var fields []zap.Field
	if requestID := obscontext.RequestIDFromContext(ctx); requestID != "" {
		fields = append(fields, zap.String("request_id", requestID))
	}
	if actorType, actorID := obscontext.ActorFromContext(ctx); actorType != "" {
		fields = append(fields,
			zap.String("actor_type", actorType),
			zap.String("actor_id", actorID),
		)
	}
	if runID := obscontext.AuditRunFromContext(ctx); runID != "" {
		fields = append(fields, zap.String("audit_run_id", runID))
	}
	if sc := trace.SpanContextFromContext(ctx); sc.IsValid() {
		fields = append(fields,
			zap.String("trace_id", sc.TraceID().String()),
			zap.String("span_id", sc.SpanID().String()),
		)
	}
	if len(fields) == 0 {
		return base
	}
	return base.With(fields...)
}

func defaultString(v, def string) string {
	if v = strings.TrimSpace(v); v != "" {
		return v
	}
	return def
}

func defaultInt(v, def int) int {
	if v > 0 {
		return v
	}
	return def
}

func defaultDuration(v, def time.Duration) time.Duration {
	if v > 0 {
		return v
	}
	return def
}
