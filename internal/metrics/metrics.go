package metrics

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/SigNoz/storefront-client/pkg/config"
	"github.com/rs/zerolog"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/exporters/otlp/otlpmetric/otlpmetrichttp"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/metric/noop"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/resource"
	semconv "go.opentelemetry.io/otel/semconv/v1.37.0"
)

// AppMetrics holds all client metrics
type AppMetrics struct {
	// Outbound HTTP
	HTTPRequestsTotal   metric.Int64Counter
	HTTPRequestsErrors  metric.Int64Counter
	HTTPRequestDuration metric.Float64Histogram

	// Persisted session storage
	StorageOpsTotal   metric.Int64Counter
	StorageOpDuration metric.Float64Histogram

	// Session
	LoginsTotal          metric.Int64Counter
	SessionInvalidations metric.Int64Counter

	// Storefront
	ProductsViewed  metric.Int64Counter
	CartItemsCount  metric.Int64Gauge
	CartValue       metric.Float64Gauge
	OrdersCreated   metric.Int64Counter
	OrdersCancelled metric.Int64Counter
	RevenueTotal    metric.Float64Counter

	// Chat
	ChatMessagesSent metric.Int64Counter

	// Service name for adding to all metrics
	serviceName string
}

// Shutdown flushes and stops the meter provider created by InitMetrics.
type Shutdown func(ctx context.Context) error

// InitMetrics initializes OpenTelemetry metrics. When metrics are disabled the
// instruments are backed by a no-op provider.
func InitMetrics(ctx context.Context, cfg *config.Config, logger *zerolog.Logger) (*AppMetrics, Shutdown, error) {
	if !cfg.OTELMetricsEnabled {
		m, err := New(noop.NewMeterProvider().Meter(cfg.OTELServiceName), cfg.OTELServiceName)
		return m, func(context.Context) error { return nil }, err
	}

	// Explicit attributes take precedence over OTEL_RESOURCE_ATTRIBUTES
	envRes, err := resource.New(ctx, resource.WithFromEnv())
	if err != nil {
		envRes = resource.Empty()
	}
	explicitRes, err := resource.New(ctx,
		resource.WithAttributes(
			semconv.ServiceName(cfg.OTELServiceName),
			semconv.ServiceVersion(cfg.OTELServiceVersion),
			attribute.String("deployment.environment", cfg.OTELDeploymentEnvironment),
		),
	)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to create explicit resource: %w", err)
	}
	res, err := resource.Merge(envRes, explicitRes)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to merge resources: %w", err)
	}

	// WithEndpoint expects host:port without a scheme
	exporterOpts := []otlpmetrichttp.Option{
		otlpmetrichttp.WithEndpoint(cfg.OTELExporterOTLPEndpoint),
		otlpmetrichttp.WithURLPath("/v1/metrics"),
	}
	if cfg.OTELExporterOTLPHeaders != "" {
		exporterOpts = append(exporterOpts, otlpmetrichttp.WithHeaders(parseHeaders(cfg.OTELExporterOTLPHeaders)))
	}
	if cfg.OTELExporterOTLPInsecure {
		exporterOpts = append(exporterOpts, otlpmetrichttp.WithInsecure())
	}

	exporter, err := otlpmetrichttp.New(ctx, exporterOpts...)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to create OTLP exporter: %w", err)
	}

	reader := sdkmetric.NewPeriodicReader(exporter,
		sdkmetric.WithInterval(10*time.Second),
	)
	meterProvider := sdkmetric.NewMeterProvider(
		sdkmetric.WithResource(res),
		sdkmetric.WithReader(reader),
	)
	otel.SetMeterProvider(meterProvider)

	logger.Info().
		Str("endpoint", cfg.OTELExporterOTLPEndpoint).
		Bool("insecure", cfg.OTELExporterOTLPInsecure).
		Str("service", cfg.OTELServiceName).
		Msg("metrics exporter configured")

	m, err := New(meterProvider.Meter(cfg.OTELServiceName), cfg.OTELServiceName)
	if err != nil {
		_ = meterProvider.Shutdown(ctx)
		return nil, nil, err
	}
	return m, meterProvider.Shutdown, nil
}

// NewNoop returns instruments that record nothing.
func NewNoop() *AppMetrics {
	m, _ := New(noop.NewMeterProvider().Meter("noop"), "noop")
	return m
}

// New creates every instrument on the given meter.
func New(meter metric.Meter, serviceName string) (*AppMetrics, error) {
	// SigNoz default histogram buckets in milliseconds, capped near the request timeout
	buckets := []float64{2, 4, 6, 8, 10, 50, 100, 200, 400, 800, 1000, 1400, 2000, 5000, 10000, 15000}

	m := &AppMetrics{serviceName: serviceName}
	var err error

	if m.HTTPRequestsTotal, err = meter.Int64Counter(
		"http.client.request.count",
		metric.WithDescription("Total number of outbound storefront API requests"),
		metric.WithUnit("1"),
	); err != nil {
		return nil, fmt.Errorf("failed to create http requests counter: %w", err)
	}

	if m.HTTPRequestsErrors, err = meter.Int64Counter(
		"http.client.request.error.count",
		metric.WithDescription("Total number of failed storefront API requests"),
		metric.WithUnit("1"),
	); err != nil {
		return nil, fmt.Errorf("failed to create http errors counter: %w", err)
	}

	if m.HTTPRequestDuration, err = meter.Float64Histogram(
		"http.client.request.duration",
		metric.WithDescription("Storefront API request duration in milliseconds"),
		metric.WithUnit("ms"),
		metric.WithExplicitBucketBoundaries(buckets...),
	); err != nil {
		return nil, fmt.Errorf("failed to create http duration histogram: %w", err)
	}

	if m.StorageOpsTotal, err = meter.Int64Counter(
		"storage.operations.count",
		metric.WithDescription("Total number of session storage operations"),
		metric.WithUnit("1"),
	); err != nil {
		return nil, fmt.Errorf("failed to create storage ops counter: %w", err)
	}

	if m.StorageOpDuration, err = meter.Float64Histogram(
		"storage.operations.duration",
		metric.WithDescription("Session storage operation duration in milliseconds"),
		metric.WithUnit("ms"),
		metric.WithExplicitBucketBoundaries(buckets...),
	); err != nil {
		return nil, fmt.Errorf("failed to create storage duration histogram: %w", err)
	}

	if m.LoginsTotal, err = meter.Int64Counter(
		"logins_total",
		metric.WithDescription("Login and registration attempts"),
		metric.WithUnit("1"),
	); err != nil {
		return nil, fmt.Errorf("failed to create logins counter: %w", err)
	}

	if m.SessionInvalidations, err = meter.Int64Counter(
		"session_invalidations_total",
		metric.WithDescription("Sessions discarded after an auth-rejected response"),
		metric.WithUnit("1"),
	); err != nil {
		return nil, fmt.Errorf("failed to create invalidations counter: %w", err)
	}

	if m.ProductsViewed, err = meter.Int64Counter(
		"products_viewed_total",
		metric.WithDescription("Total number of product views"),
		metric.WithUnit("1"),
	); err != nil {
		return nil, fmt.Errorf("failed to create products viewed counter: %w", err)
	}

	if m.CartItemsCount, err = meter.Int64Gauge(
		"cart_items_count",
		metric.WithDescription("Current number of units in the local cart"),
		metric.WithUnit("1"),
	); err != nil {
		return nil, fmt.Errorf("failed to create cart items gauge: %w", err)
	}

	if m.CartValue, err = meter.Float64Gauge(
		"cart_value",
		metric.WithDescription("Current total value of the local cart"),
		metric.WithUnit("USD"),
	); err != nil {
		return nil, fmt.Errorf("failed to create cart value gauge: %w", err)
	}

	if m.OrdersCreated, err = meter.Int64Counter(
		"orders_created_total",
		metric.WithDescription("Total number of orders placed from the cart"),
		metric.WithUnit("1"),
	); err != nil {
		return nil, fmt.Errorf("failed to create orders counter: %w", err)
	}

	if m.OrdersCancelled, err = meter.Int64Counter(
		"orders_cancelled_total",
		metric.WithDescription("Total number of orders cancelled"),
		metric.WithUnit("1"),
	); err != nil {
		return nil, fmt.Errorf("failed to create cancelled orders counter: %w", err)
	}

	if m.RevenueTotal, err = meter.Float64Counter(
		"revenue_total",
		metric.WithDescription("Total value of placed orders"),
		metric.WithUnit("USD"),
	); err != nil {
		return nil, fmt.Errorf("failed to create revenue counter: %w", err)
	}

	if m.ChatMessagesSent, err = meter.Int64Counter(
		"chat_messages_sent_total",
		metric.WithDescription("Chat messages submitted to the assistant"),
		metric.WithUnit("1"),
	); err != nil {
		return nil, fmt.Errorf("failed to create chat messages counter: %w", err)
	}

	return m, nil
}

// WithServiceName adds service.name to attributes
func (m *AppMetrics) WithServiceName(attrs []attribute.KeyValue) []attribute.KeyValue {
	return append(attrs, attribute.String("service.name", m.serviceName))
}

// RecordStorageOp records a session storage operation
func (m *AppMetrics) RecordStorageOp(ctx context.Context, operation, backend, key string, start time.Time, success bool) {
	duration := time.Since(start).Milliseconds()

	attrs := []attribute.KeyValue{
		attribute.String("storage.operation", operation),
		attribute.String("storage.backend", backend),
		attribute.String("storage.key", key),
		attribute.String("status", status(success)),
	}

	m.StorageOpsTotal.Add(ctx, 1, metric.WithAttributes(m.WithServiceName(attrs)...))
	m.StorageOpDuration.Record(ctx, float64(duration), metric.WithAttributes(m.WithServiceName(attrs)...))
}

// RecordOutcome adds one to counter tagged with operation and status.
func (m *AppMetrics) RecordOutcome(ctx context.Context, counter metric.Int64Counter, operation string, success bool) {
	counter.Add(ctx, 1, metric.WithAttributes(m.WithServiceName([]attribute.KeyValue{
		attribute.String("operation", operation),
		attribute.String("status", status(success)),
	})...))
}

// RecordCart records the cart gauges.
func (m *AppMetrics) RecordCart(ctx context.Context, units int, value float64) {
	attrs := metric.WithAttributes(m.WithServiceName(nil)...)
	m.CartItemsCount.Record(ctx, int64(units), attrs)
	m.CartValue.Record(ctx, value, attrs)
}

func status(success bool) string {
	if success {
		return "success"
	}
	return "error"
}

// parseHeaders parses header string in format "key1=value1,key2=value2"
func parseHeaders(headerStr string) map[string]string {
	headers := make(map[string]string)
	if headerStr == "" {
		return headers
	}

	pairs := strings.Split(headerStr, ",")
	for _, pair := range pairs {
		parts := strings.SplitN(strings.TrimSpace(pair), "=", 2)
		if len(parts) == 2 {
			headers[strings.TrimSpace(parts[0])] = strings.TrimSpace(parts[1])
		}
	}
	return headers
}
