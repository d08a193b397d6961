package stackapi

import (
	"context"
	"time"
)

// CallMetrics describes one completed remote call.
type CallMetrics struct {
	// Operation is the logical operation name, e.g. "remote-calls.compute.servers.list".
	Operation  string        `json:"operation"`
	Method     string        `json:"method"`
	URL        string        `json:"url"`
	StatusCode int           `json:"statusCode"`
	Elapsed    time.Duration `json:"elapsed"`
	UserName   string        `json:"userName"`
	RequestID  string        `json:"requestId"`
}

// MetricsSink receives one event per completed remote call, successful or not.
//
// RecordCall is fire-and-forget: it returns nothing, and a sink that panics is
// recovered by the caller without affecting the call outcome.
type MetricsSink interface {
	RecordCall(ctx context.Context, metrics CallMetrics)
}

// MetricsSinkFunc adapts a function to the MetricsSink interface.
type MetricsSinkFunc func(ctx context.Context, metrics CallMetrics)

// RecordCall implements MetricsSink.
func (f MetricsSinkFunc) RecordCall(ctx context.Context, metrics CallMetrics) {
	f(ctx, metrics)
}
