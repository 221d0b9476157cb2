package metrics

import (
	"context"
	"fmt"
	"strings"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/exporters/otlp/otlpmetric/otlpmetricgrpc"
	"go.opentelemetry.io/otel/exporters/otlp/otlpmetric/otlpmetrichttp"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/metric/noop"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.uber.org/fx"
	"go.uber.org/zap"
)

// Config configures the metrics provider.
type Config struct {
	Enabled          bool
	ExporterEndpoint string
	ExporterProtocol string
	ServiceName      string
	Environment      string
}

// Metrics exposes application-level instruments.
type Metrics struct {
	auditStarted      metric.Int64Counter
	auditFinished     metric.Int64Counter
	allocations       metric.Int64Counter
	availabilityReads metric.Int64Counter
	folioPostings     metric.Int64Counter
	rateLimited       metric.Int64Counter
}

// NewProvider configures and registers the meter provider.
func NewProvider(lc fx.Lifecycle, cfg Config, log *zap.Logger) (metric.MeterProvider, error) {
	if !cfg.Enabled {
		provider := noop.NewMeterProvider()
		otel.SetMeterProvider(provider)
		return provider, nil
	}

	exporter, err := newExporter(cfg.ExporterProtocol, cfg.ExporterEndpoint)
	if err != nil {
		return nil, err
	}

	reader := sdkmetric.NewPeriodicReader(exporter, sdkmetric.WithInterval(10*time.Second))
	provider := sdkmetric.NewMeterProvider(sdkmetric.WithReader(reader))
	otel.SetMeterProvider(provider)

	if lc != nil {
		lc.Append(fx.Hook{
			OnStop: func(ctx context.Context) error {
				if log != nil {
					log.Info("shutting down meter provider")
				}
				return provider.Shutdown(ctx)
			},
		})
	}

	if log != nil {
		log.Info("metrics initialized",
			zap.String("endpoint", cfg.ExporterEndpoint),
			zap.String("protocol", cfg.ExporterProtocol),
		)
	}

	return provider, nil
}

// New configures the domain metrics instruments.
func New(cfg Config, provider metric.MeterProvider) (*Metrics, error) {
	name := strings.TrimSpace(cfg.ServiceName)
	if name == "" {
		name = "frontdesk"
	}
	meter := provider.Meter(name)

	auditStarted, err := meter.Int64Counter("frontdesk_night_audit_started_total")
	if err != nil {
		return nil, err
	}
	auditFinished, err := meter.Int64Counter("frontdesk_night_audit_finished_total")
	if err != nil {
		return nil, err
	}
	allocations, err := meter.Int64Counter("frontdesk_room_allocations_total")
	if err != nil {
		return nil, err
	}
	availabilityReads, err := meter.Int64Counter("frontdesk_availability_queries_total")
	if err != nil {
		return nil, err
	}
	folioPostings, err := meter.Int64Counter("frontdesk_folio_postings_total")
	if err != nil {
		return nil, err
	}
	rateLimited, err := meter.Int64Counter("frontdesk_http_rate_limited_total")
	if err != nil {
		return nil, err
	}

	return &Metrics{
		auditStarted:      auditStarted,
		auditFinished:     auditFinished,
		allocations:       allocations,
		availabilityReads: availabilityReads,
		folioPostings:     folioPostings,
		rateLimited:       rateLimited,
	}, nil
}

// RecordAuditStarted counts accepted night audit runs by trigger (operator, scheduler).
func (m *Metrics) RecordAuditStarted(ctx context.Context, trigger string) {
	if m == nil {
		return
	}
	attrs := FilterAttributes(attribute.String("trigger", strings.TrimSpace(trigger)))
	m.auditStarted.Add(ctx, 1, metric.WithAttributes(attrs...))
}

// RecordAuditFinished counts terminal night audit runs by outcome and error kind.
func (m *Metrics) RecordAuditFinished(ctx context.Context, outcome, errorKind string) {
	if m == nil {
		return
	}
	attrs := FilterAttributes(
		attribute.String("outcome", strings.TrimSpace(outcome)),
		attribute.String("error_kind", strings.TrimSpace(errorKind)),
	)
	m.auditFinished.Add(ctx, 1, metric.WithAttributes(attrs...))
}

// RecordAllocation counts allocation attempts; outcome is "allocated" or "no_room".
func (m *Metrics) RecordAllocation(ctx context.Context, outcome string) {
	if m == nil {
		return
	}
	attrs := FilterAttributes(attribute.String("outcome", strings.TrimSpace(outcome)))
	m.allocations.Add(ctx, 1, metric.WithAttributes(attrs...))
}

func (m *Metrics) RecordAvailabilityQuery(ctx context.Context, source string) {
	if m == nil {
		return
	}
	attrs := FilterAttributes(attribute.String("source", strings.TrimSpace(source)))
	m.availabilityReads.Add(ctx, 1, metric.WithAttributes(attrs...))
}

func (m *Metrics) RecordFolioPostings(ctx context.Context, kind string, count int64) {
	if m == nil || count <= 0 {
		return
	}
	attrs := FilterAttributes(attribute.String("kind", strings.TrimSpace(kind)))
	m.folioPostings.Add(ctx, count, metric.WithAttributes(attrs...))
}

// RecordRateLimitDenied counts requests rejected by the operator rate limiter.
func (m *Metrics) RecordRateLimitDenied(ctx context.Context, endpoint string) {
	if m == nil {
		return
	}
	attrs := FilterAttributes(attribute.String("endpoint", strings.TrimSpace(endpoint)))
	m.rateLimited.Add(ctx, 1, metric.WithAttributes(attrs...))
}

func newExporter(protocol, endpoint string) (sdkmetric.Exporter, error) {
	protocol = strings.ToLower(strings.TrimSpace(protocol))
	switch protocol {
	case "http", "http/protobuf":
		opts := []otlpmetrichttp.Option{}
		if endpoint != "" {
			opts = append(opts, otlpmetrichttp.WithEndpoint(endpoint))
		}
		return otlpmetrichttp.New(context.Background(), opts...)
	case "grpc", "grpc/protobuf", "":
		opts := []otlpmetricgrpc.Option{otlpmetricgrpc.WithInsecure()}
		if endpoint != "" {
			opts = append(opts, otlpmetricgrpc.WithEndpoint(endpoint))
		}
		return otlpmetricgrpc.New(context.Background(), opts...)
	default:
		return nil, fmt.Errorf("unsupported OTLP protocol %q", protocol)
	}
}

var allowedLabelKeys = map[attribute.Key]struct{}{
	"trigger":     {},
	"outcome":     {},
	"error_kind":  {},
	"source":      {},
	"kind":        {},
	"step":        {},
	"route":       {},
	"endpoint":    {},
	"status_code": {},
}

// FilterAttributes strips disallowed labels to keep metrics low-cardinality.
func FilterAttributes(attrs ...attribute.KeyValue) []attribute.KeyValue {
	filtered := make([]attribute.KeyValue, 0, len(attrs))
	for _, attr := range attrs {
		if _, ok := allowedLabelKeys[attr.Key]; !ok {
			continue
		}
		filtered = append(filtered, attr)
	}
	return filtered
}
