package metricsink

import (
	"context"

	"github.com/fivetwenty-io/stackapi/pkg/stackapi"
)

// LogSink writes every call to a logger at info level.
type LogSink struct {
	logger stackapi.Logger
}

// NewLogSink creates a sink logging through logger.
func NewLogSink(logger stackapi.Logger) *LogSink {
	if logger == nil {
		logger = stackapi.NopLogger{}
	}

	return &LogSink{logger: logger}
}

// RecordCall implements stackapi.MetricsSink.
func (s *LogSink) RecordCall(_ context.Context, metrics stackapi.CallMetrics) {
	s.logger.Info("Remote call completed", map[string]interface{}{
		"operation":   metrics.Operation,
		"method":      metrics.Method,
		"url":         metrics.URL,
		"status_code": metrics.StatusCode,
		"elapsed_ms":  metrics.Elapsed.Milliseconds(),
		"user_name":   metrics.UserName,
		"request_id":  metrics.RequestID,
	})
}
