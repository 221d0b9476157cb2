package observability

import (
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/smallbiznis/frontdesk/internal/config"
)

// Config describes how a frontdesk process reports about itself. Every
// signal carries the hotel and snowflake node so logs from several
// properties can share one backend.
type Config struct {
	ServiceName string
	Environment string
	Version     string
	Hotel       string
	NodeID      int64

	Log   LogConfig
	Trace TraceConfig
}

type LogConfig struct {
	Level  string
	Format string
	// SlowQuery is the point past which a SQL statement is logged at warn.
	SlowQuery time.Duration
}

type TraceConfig struct {
	Enabled       bool
	Endpoint      string
	Protocol      string
	SamplingRatio float64
	// KeepAudits records every night audit trace regardless of SamplingRatio.
	KeepAudits bool
}

func LoadConfig(cfg config.Config) Config {
	env := envReader(os.Getenv)

	service := strings.TrimSpace(cfg.AppName)
	if service == "" {
		service = "frontdesk"
	}

	protocol := env.lower("OTEL_EXPORTER_OTLP_PROTOCOL", "grpc")
	protocol = env.lower("OTEL_EXPORTER_OTLP_TRACES_PROTOCOL", protocol)

	return Config{
		ServiceName: service,
		Environment: env.str("DEPLOYMENT_ENV", cfg.Environment),
		Version:     env.str("SERVICE_VERSION", cfg.AppVersion),
		Hotel:       strings.TrimSpace(cfg.HotelName),
		NodeID:      cfg.NodeID,
		Log: LogConfig{
			Level:     env.lower("LOG_LEVEL", "info"),
			Format:    env.lower("LOG_FORMAT", "json"),
			SlowQuery: time.Duration(env.integer("LOG_SLOW_QUERY_MS", 200)) * time.Millisecond,
		},
		Trace: TraceConfig{
			Enabled:       env.boolean("OTEL_ENABLED", true),
			Endpoint:      env.str("OTEL_EXPORTER_OTLP_ENDPOINT", cfg.OTLPEndpoint),
			Protocol:      protocol,
			SamplingRatio: env.ratio("OTEL_SAMPLING_RATIO", 0.1),
			KeepAudits:    env.boolean("OTEL_KEEP_AUDIT_TRACES", true),
		},
	}
}

// Debug is true for debug logging or any non-shared environment.
func (c Config) Debug() bool {
	if c.Log.Level == "debug" {
		return true
	}
	switch strings.ToLower(strings.TrimSpace(c.Environment)) {
	case "dev", "development", "local", "test":
		return true
	}
	return false
}

type envReader func(string) string

func (e envReader) str(key, def string) string {
	if value := strings.TrimSpace(e(key)); value != "" {
		return value
	}
	return strings.TrimSpace(def)
}

func (e envReader) lower(key, def string) string {
	return strings.ToLower(e.str(key, def))
}

func (e envReader) boolean(key string, def bool) bool {
	switch e.lower(key, "") {
	case "1", "true", "yes", "on":
		return true
	case "0", "false", "no", "off":
		return false
	}
	return def
}

func (e envReader) integer(key string, def int) int {
	parsed, err := strconv.Atoi(e.str(key, ""))
	if err != nil || parsed < 0 {
		return def
	}
	return parsed
}

// ratio reads a sampling fraction; values outside [0,1] fall back to def.
func (e envReader) ratio(key string, def float64) float64 {
	parsed, err := strconv.ParseFloat(e.str(key, ""), 64)
	if err != nil || parsed < 0 || parsed > 1 {
		return def
	}
	return parsed
}
