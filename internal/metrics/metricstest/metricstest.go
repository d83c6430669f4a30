// Package metricstest backs AppMetrics with a manual reader so tests can read
// back what was recorded.
package metricstest

import (
	"context"
	"testing"

	"github.com/SigNoz/storefront-client/internal/metrics"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/metric/metricdata"
)

// Recorder pairs the instruments with the reader they export to.
type Recorder struct {
	Metrics *metrics.AppMetrics
	reader  *sdkmetric.ManualReader
}

// New creates instruments on an in-memory meter provider.
func New(t *testing.T) *Recorder {
	t.Helper()
	reader := sdkmetric.NewManualReader()
	provider := sdkmetric.NewMeterProvider(sdkmetric.WithReader(reader))
	t.Cleanup(func() { _ = provider.Shutdown(context.Background()) })

	m, err := metrics.New(provider.Meter("test"), "test")
	if err != nil {
		t.Fatalf("metrics.New: %v", err)
	}
	return &Recorder{Metrics: m, reader: reader}
}

// Int64Sum returns the sum of every data point of the named int64 counter.
func (r *Recorder) Int64Sum(t *testing.T, name string) int64 {
	t.Helper()
	var total int64
	for _, m := range r.collect(t) {
		if m.Name != name {
			continue
		}
		if sum, ok := m.Data.(metricdata.Sum[int64]); ok {
			for _, dp := range sum.DataPoints {
				total += dp.Value
			}
		}
	}
	return total
}

// Int64Gauge returns the last value of the named int64 gauge and whether it was recorded.
func (r *Recorder) Int64Gauge(t *testing.T, name string) (int64, bool) {
	t.Helper()
	for _, m := range r.collect(t) {
		if m.Name != name {
			continue
		}
		if g, ok := m.Data.(metricdata.Gauge[int64]); ok && len(g.DataPoints) > 0 {
			return g.DataPoints[len(g.DataPoints)-1].Value, true
		}
	}
	return 0, false
}

func (r *Recorder) collect(t *testing.T) []metricdata.Metrics {
	t.Helper()
	var rm metricdata.ResourceMetrics
	if err := r.reader.Collect(context.Background(), &rm); err != nil {
		t.Fatalf("collect metrics: %v", err)
	}
	var out []metricdata.Metrics
	for _, sm := range rm.ScopeMetrics {
		out = append(out, sm.Metrics...)
	}
	return out
}
