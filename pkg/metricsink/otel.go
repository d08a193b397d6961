package metricsink

import (
	"context"
	"fmt"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"

	"github.com/fivetwenty-io/stackapi/pkg/stackapi"
)

const (
	meterName = "github.com/fivetwenty-io/stackapi/pkg/metricsink"

	metricCallsTotal   = "stackapi.remote_calls"
	metricCallDuration = "stackapi.remote_call.duration"
)

var callDurationBuckets = []float64{
	0.005, 0.01, 0.025, 0.05, 0.075, 0.1, 0.25, 0.5, 0.75, 1, 2.5, 5, 10, 20,
}

// OTelSink records remote calls as OpenTelemetry metrics.
//
// Metrics collected:
//   - stackapi.remote_calls: counter of calls by operation, method and status
//   - stackapi.remote_call.duration: histogram of call duration in seconds
type OTelSink struct {
	calls    metric.Int64Counter
	duration metric.Float64Histogram
}

// NewOTelSink creates a sink on the given meter provider. A nil provider uses
// the global one.
func NewOTelSink(provider metric.MeterProvider) (*OTelSink, error) {
	if provider == nil {
		provider = otel.GetMeterProvider()
	}

	meter := provider.Meter(meterName)

	calls, err := meter.Int64Counter(
		metricCallsTotal,
		metric.WithDescription("Total number of remote calls"),
		metric.WithUnit("{call}"),
	)
	if err != nil {
		return nil, fmt.Errorf("creating %s counter: %w", metricCallsTotal, err)
	}

	duration, err := meter.Float64Histogram(
		metricCallDuration,
		metric.WithDescription("Duration of remote calls"),
		metric.WithUnit("s"),
		metric.WithExplicitBucketBoundaries(callDurationBuckets...),
	)
	if err != nil {
		return nil, fmt.Errorf("creating %s histogram: %w", metricCallDuration, err)
	}

	return &OTelSink{calls: calls, duration: duration}, nil
}

// RecordCall implements stackapi.MetricsSink.
func (s *OTelSink) RecordCall(ctx context.Context, metrics stackapi.CallMetrics) {
	attrs := metric.WithAttributes(
		attribute.String("stackapi.operation", metrics.Operation),
		attribute.String("http.request.method", metrics.Method),
		attribute.Int("http.response.status_code", metrics.StatusCode),
	)

	s.calls.Add(ctx, 1, attrs)
	s.duration.Record(ctx, metrics.Elapsed.Seconds(), attrs)
}
