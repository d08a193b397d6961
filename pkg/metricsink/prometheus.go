package metricsink

import (
	"context"
	"errors"
	"fmt"
	"strconv"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/fivetwenty-io/stackapi/internal/constants"
	"github.com/fivetwenty-io/stackapi/pkg/stackapi"
)

// PrometheusSink records remote calls on Prometheus collectors labelled by
// operation, method and status code.
type PrometheusSink struct {
	calls    *prometheus.CounterVec
	duration *prometheus.HistogramVec
}

// NewPrometheusSink creates the collectors and registers them. A nil
// registerer uses prometheus.DefaultRegisterer. Collectors already registered
// by another sink are reused.
func NewPrometheusSink(registerer prometheus.Registerer) (*PrometheusSink, error) {
	if registerer == nil {
		registerer = prometheus.DefaultRegisterer
	}

	labels := []string{"operation", "method", "status_code"}

	calls := prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: constants.MetricsNamespace,
		Name:      "remote_calls_total",
		Help:      "Total number of remote calls.",
	}, labels)

	duration := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: constants.MetricsNamespace,
		Name:      "remote_call_duration_seconds",
		Help:      "Duration of remote calls in seconds.",
		Buckets:   callDurationBuckets,
	}, labels)

	registeredCalls, err := register(registerer, calls)
	if err != nil {
		return nil, err
	}

	registeredDuration, err := register(registerer, duration)
	if err != nil {
		return nil, err
	}

	return &PrometheusSink{calls: registeredCalls, duration: registeredDuration}, nil
}

func register[C prometheus.Collector](registerer prometheus.Registerer, collector C) (C, error) {
	err := registerer.Register(collector)
	if err == nil {
		return collector, nil
	}

	var already prometheus.AlreadyRegisteredError
	if errors.As(err, &already) {
		if existing, ok := already.ExistingCollector.(C); ok {
			return existing, nil
		}
	}

	return collector, fmt.Errorf("registering collector: %w", err)
}

// RecordCall implements stackapi.MetricsSink.
func (s *PrometheusSink) RecordCall(_ context.Context, metrics stackapi.CallMetrics) {
	status := strconv.Itoa(metrics.StatusCode)

	s.calls.WithLabelValues(metrics.Operation, metrics.Method, status).Inc()
	s.duration.WithLabelValues(metrics.Operation, metrics.Method, status).Observe(metrics.Elapsed.Seconds())
}
