package metricsink

import (
	"context"

	"github.com/fivetwenty-io/stackapi/pkg/stackapi"
)

// Multi fans events out to several sinks in order. nil sinks are skipped.
type Multi []stackapi.MetricsSink

// RecordCall implements stackapi.MetricsSink.
func (m Multi) RecordCall(ctx context.Context, metrics stackapi.CallMetrics) {
	for _, sink := range m {
		if sink != nil {
			sink.RecordCall(ctx, metrics)
		}
	}
}

// Combine returns a single sink for the non-nil sinks given, or nil when
// there are none.
func Combine(sinks ...stackapi.MetricsSink) stackapi.MetricsSink {
	var combined Multi

	for _, sink := range sinks {
		if sink != nil {
			combined = append(combined, sink)
		}
	}

	switch len(combined) {
	case 0:
		return nil
	case 1:
		return combined[0]
	default:
		return combined
	}
}
