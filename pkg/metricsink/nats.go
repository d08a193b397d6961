package metricsink

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/nats-io/nats.go"

	"github.com/fivetwenty-io/stackapi/internal/constants"
	"github.com/fivetwenty-io/stackapi/pkg/stackapi"
)

// Publisher is the subset of *nats.Conn used by NATSSink.
type Publisher interface {
	Publish(subject string, data []byte) error
}

var _ Publisher = (*nats.Conn)(nil)

// callEvent is the JSON document published for every call.
type callEvent struct {
	Operation  string `json:"operation"`
	Method     string `json:"method"`
	URL        string `json:"url"`
	StatusCode int    `json:"statusCode"`
	ElapsedMs  int64  `json:"elapsedMs"`
	UserName   string `json:"userName,omitempty"`
	RequestID  string `json:"requestId,omitempty"`
}

// NATSSink publishes every call as a JSON event on a subject.
type NATSSink struct {
	publisher Publisher
	subject   string
	logger    stackapi.Logger
}

// NATSOption configures a NATSSink.
type NATSOption func(*NATSSink)

// WithSubject sets the publish subject.
func WithSubject(subject string) NATSOption {
	return func(s *NATSSink) {
		if subject != "" {
			s.subject = subject
		}
	}
}

// WithNATSLogger sets the logger used to report publish failures.
func WithNATSLogger(logger stackapi.Logger) NATSOption {
	return func(s *NATSSink) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// NewNATSSink creates a sink publishing through publisher.
func NewNATSSink(publisher Publisher, opts ...NATSOption) *NATSSink {
	sink := &NATSSink{
		publisher: publisher,
		subject:   constants.DefaultMetricsSubject,
		logger:    stackapi.NopLogger{},
	}

	for _, opt := range opts {
		opt(sink)
	}

	return sink
}

// ConnectNATS dials a NATS server and returns a sink publishing on it, along
// with the connection so the caller can drain it on shutdown.
func ConnectNATS(url string, opts ...NATSOption) (*NATSSink, *nats.Conn, error) {
	conn, err := nats.Connect(url, nats.Name(constants.DefaultUserAgent))
	if err != nil {
		return nil, nil, fmt.Errorf("connecting to NATS at %s: %w", url, err)
	}

	return NewNATSSink(conn, opts...), conn, nil
}

// Subject returns the publish subject.
func (s *NATSSink) Subject() string {
	return s.subject
}

// RecordCall implements stackapi.MetricsSink.
func (s *NATSSink) RecordCall(_ context.Context, metrics stackapi.CallMetrics) {
	data, err := json.Marshal(callEvent{
		Operation:  metrics.Operation,
		Method:     metrics.Method,
		URL:        metrics.URL,
		StatusCode: metrics.StatusCode,
		ElapsedMs:  metrics.Elapsed.Milliseconds(),
		UserName:   metrics.UserName,
		RequestID:  metrics.RequestID,
	})
	if err != nil {
		s.logger.Warn("Failed to encode metrics event", map[string]interface{}{"error": err.Error()})

		return
	}

	err = s.publisher.Publish(s.subject, data)
	if err != nil {
		s.logger.Warn("Failed to publish metrics event", map[string]interface{}{
			"subject": s.subject,
			"error":   err.Error(),
		})
	}
}
