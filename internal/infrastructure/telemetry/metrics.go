package telemetry

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/erp/backoffice/internal/application/numbering"
	domain "github.com/erp/backoffice/internal/domain/numbering"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/exporters/otlp/otlpmetric/otlpmetricgrpc"
	"go.opentelemetry.io/otel/metric"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.uber.org/zap"
)

// MeterProvider wraps the OpenTelemetry MeterProvider with lifecycle management.
type MeterProvider struct {
	provider *sdkmetric.MeterProvider
	logger   *zap.Logger
}

// NewMeterProvider creates and configures a new MeterProvider.
// If telemetry is disabled, it wraps the no-op global meter.
func NewMeterProvider(ctx context.Context, cfg Config, logger *zap.Logger) (*MeterProvider, error) {
	mp := &MeterProvider{logger: logger}
	if !cfg.Enabled {
		logger.Info("Metrics disabled, using no-op meter provider")
		return mp, nil
	}

	interval := cfg.MetricsInterval
	if interval == 0 {
		interval = 60 * time.Second
	}

	exporterOpts := []otlpmetricgrpc.Option{otlpmetricgrpc.WithEndpoint(cfg.CollectorEndpoint)}
	if cfg.Insecure {
		exporterOpts = append(exporterOpts, otlpmetricgrpc.WithInsecure())
	}
	exporter, err := otlpmetricgrpc.New(ctx, exporterOpts...)
	if err != nil {
		return nil, fmt.Errorf("failed to create OTLP metrics exporter: %w", err)
	}

	res, err := newResource(cfg.ServiceName)
	if err != nil {
		return nil, err
	}
	mp.provider = sdkmetric.NewMeterProvider(
		sdkmetric.WithResource(res),
		sdkmetric.WithReader(sdkmetric.NewPeriodicReader(exporter, sdkmetric.WithInterval(interval))),
	)
	otel.SetMeterProvider(mp.provider)

	logger.Info("OpenTelemetry MeterProvider initialized",
		zap.String("collector_endpoint", cfg.CollectorEndpoint),
		zap.Duration("export_interval", interval),
	)
	return mp, nil
}

// NewMeterProviderWithReader builds a provider around reader without
// touching the global provider.
func NewMeterProviderWithReader(reader sdkmetric.Reader, logger *zap.Logger) *MeterProvider {
	return &MeterProvider{
		provider: sdkmetric.NewMeterProvider(sdkmetric.WithReader(reader)),
		logger:   logger,
	}
}

// Shutdown flushes pending metrics and stops the provider
func (mp *MeterProvider) Shutdown(ctx context.Context) error {
	if mp.provider == nil {
		return nil
	}
	shutdownCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()
	if err := mp.provider.Shutdown(shutdownCtx); err != nil {
		mp.logger.Error("Error shutting down meter provider", zap.Error(err))
		return fmt.Errorf("failed to shutdown meter provider: %w", err)
	}
	mp.logger.Info("OpenTelemetry MeterProvider shutdown complete")
	return nil
}

// Meter returns a named meter from the provider.
func (mp *MeterProvider) Meter(name string, opts ...metric.MeterOption) metric.Meter {
	if mp.provider == nil {
		return otel.GetMeterProvider().Meter(name, opts...)
	}
	return mp.provider.Meter(name, opts...)
}

// Counter is a helper for monotonically increasing values.
type Counter struct {
	counter metric.Int64Counter
}

// NewCounter creates a new Counter metric.
func NewCounter(meter metric.Meter, name, description, unit string) (*Counter, error) {
	c, err := meter.Int64Counter(name, metric.WithDescription(description), metric.WithUnit(unit))
	if err != nil {
		return nil, fmt.Errorf("failed to create counter %s: %w", name, err)
	}
	return &Counter{counter: c}, nil
}

// Inc increments the counter by 1 with optional attributes.
func (c *Counter) Inc(ctx context.Context, attrs ...attribute.KeyValue) {
	c.counter.Add(ctx, 1, metric.WithAttributes(attrs...))
}

// Histogram is a helper for distributions.
type Histogram struct {
	histogram metric.Int64Histogram
}

// NewHistogram creates a new Histogram metric with explicit boundaries.
func NewHistogram(meter metric.Meter, name, description string, boundaries ...float64) (*Histogram, error) {
	opts := []metric.Int64HistogramOption{metric.WithDescription(description)}
	if len(boundaries) > 0 {
		opts = append(opts, metric.WithExplicitBucketBoundaries(boundaries...))
	}
	h, err := meter.Int64Histogram(name, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to create histogram %s: %w", name, err)
	}
	return &Histogram{histogram: h}, nil
}

// Record records a value with optional attributes.
func (h *Histogram) Record(ctx context.Context, value int64, attrs ...attribute.KeyValue) {
	h.histogram.Record(ctx, value, metric.WithAttributes(attrs...))
}

// AttrCounterKey labels numbering instruments with the counter family
var AttrCounterKey = attribute.Key("numbering.counter")

// Metric names exported by NumberingMetrics
const (
	MetricNumbersAssigned  = "backoffice.numbering.assigned"
	MetricNumberCollisions = "backoffice.numbering.collisions"
	MetricNumberingFailed  = "backoffice.numbering.exhausted"
	MetricAssignAttempts   = "backoffice.numbering.attempts"
)

// NumberingMetrics records document number allocation outcomes.
type NumberingMetrics struct {
	assigned   *Counter
	collisions *Counter
	exhausted  *Counter
	attempts   *Histogram
}

var _ numbering.Observer = (*NumberingMetrics)(nil)

// NewNumberingMetrics registers the numbering instruments on meter
func NewNumberingMetrics(meter metric.Meter) (*NumberingMetrics, error) {
	assigned, err := NewCounter(meter, MetricNumbersAssigned, "Document numbers successfully assigned", "{number}")
	if err != nil {
		return nil, err
	}
	collisions, err := NewCounter(meter, MetricNumberCollisions, "Allocated numbers rejected by a uniqueness conflict", "{collision}")
	if err != nil {
		return nil, err
	}
	exhausted, err := NewCounter(meter, MetricNumberingFailed, "Assignments abandoned after every attempt collided", "{failure}")
	if err != nil {
		return nil, err
	}
	attempts, err := NewHistogram(meter, MetricAssignAttempts, "Attempts needed per successful assignment", 1, 2, 3, 5, 8)
	if err != nil {
		return nil, err
	}
	return &NumberingMetrics{assigned: assigned, collisions: collisions, exhausted: exhausted, attempts: attempts}, nil
}

// Assigned implements numbering.Observer
func (m *NumberingMetrics) Assigned(ctx context.Context, c domain.Counter, attempts int) {
	attrs := counterAttrs(c)
	m.assigned.Inc(ctx, attrs...)
	m.attempts.Record(ctx, int64(attempts), attrs...)
}

// Collided implements numbering.Observer
func (m *NumberingMetrics) Collided(ctx context.Context, c domain.Counter) {
	m.collisions.Inc(ctx, counterAttrs(c)...)
}

// Exhausted implements numbering.Observer
func (m *NumberingMetrics) Exhausted(ctx context.Context, c domain.Counter) {
	m.exhausted.Inc(ctx, counterAttrs(c)...)
}

// counterAttrs uses the counter family, never the tenant id, to keep
// cardinality bounded.
func counterAttrs(c domain.Counter) []attribute.KeyValue {
	family := c.Key
	if c.Year != 0 {
		family = strings.TrimSuffix(c.Key, "_"+strconv.Itoa(c.Year))
	}
	return []attribute.KeyValue{AttrCounterKey.String(family)}
}
