package metricsink_test

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/metric/metricdata"

	"github.com/fivetwenty-io/stackapi/pkg/metricsink"
	"github.com/fivetwenty-io/stackapi/pkg/stackapi"
)

func sampleCall() stackapi.CallMetrics {
	return stackapi.CallMetrics{
		Operation:  "remote-calls.compute.servers.list",
		Method:     "GET",
		URL:        "https://nova.example.com/v2.1/servers/detail",
		StatusCode: 200,
		Elapsed:    250 * time.Millisecond,
		UserName:   "alice",
		RequestID:  "req-1",
	}
}

type logEntry struct {
	level  string
	msg    string
	fields map[string]interface{}
}

type recordingLogger struct {
	mu      sync.Mutex
	entries []logEntry
}

func (l *recordingLogger) add(level, msg string, fields map[string]interface{}) {
	l.mu.Lock()
	defer l.mu.Unlock()

	l.entries = append(l.entries, logEntry{level: level, msg: msg, fields: fields})
}

func (l *recordingLogger) Debug(msg string, fields map[string]interface{}) { l.add("debug", msg, fields) }
func (l *recordingLogger) Info(msg string, fields map[string]interface{})  { l.add("info", msg, fields) }
func (l *recordingLogger) Warn(msg string, fields map[string]interface{})  { l.add("warn", msg, fields) }
func (l *recordingLogger) Error(msg string, fields map[string]interface{}) { l.add("error", msg, fields) }

type fakePublisher struct {
	mu       sync.Mutex
	subjects []string
	payloads [][]byte
	err      error
}

func (p *fakePublisher) Publish(subject string, data []byte) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.err != nil {
		return p.err
	}

	p.subjects = append(p.subjects, subject)
	p.payloads = append(p.payloads, data)

	return nil
}

func TestLogSink(t *testing.T) {
	t.Parallel()

	logger := &recordingLogger{}
	metricsink.NewLogSink(logger).RecordCall(context.Background(), sampleCall())

	require.Len(t, logger.entries, 1)
	assert.Equal(t, "info", logger.entries[0].level)
	assert.Equal(t, "Remote call completed", logger.entries[0].msg)
	assert.Equal(t, "remote-calls.compute.servers.list", logger.entries[0].fields["operation"])
	assert.Equal(t, int64(250), logger.entries[0].fields["elapsed_ms"])

	// A nil logger is tolerated.
	metricsink.NewLogSink(nil).RecordCall(context.Background(), sampleCall())
}

func TestOTelSink(t *testing.T) {
	t.Parallel()

	reader := sdkmetric.NewManualReader()
	provider := sdkmetric.NewMeterProvider(sdkmetric.WithReader(reader))

	sink, err := metricsink.NewOTelSink(provider)
	require.NoError(t, err)

	sink.RecordCall(context.Background(), sampleCall())
	sink.RecordCall(context.Background(), sampleCall())

	var collected metricdata.ResourceMetrics
	require.NoError(t, reader.Collect(context.Background(), &collected))
	require.Len(t, collected.ScopeMetrics, 1)

	byName := map[string]metricdata.Metrics{}
	for _, m := range collected.ScopeMetrics[0].Metrics {
		byName[m.Name] = m
	}

	counter, ok := byName["stackapi.remote_calls"].Data.(metricdata.Sum[int64])
	require.True(t, ok)
	require.Len(t, counter.DataPoints, 1)
	assert.Equal(t, int64(2), counter.DataPoints[0].Value)

	histogram, ok := byName["stackapi.remote_call.duration"].Data.(metricdata.Histogram[float64])
	require.True(t, ok)
	require.Len(t, histogram.DataPoints, 1)
	assert.Equal(t, uint64(2), histogram.DataPoints[0].Count)
	assert.InDelta(t, 0.5, histogram.DataPoints[0].Sum, 0.0001)
}

func TestPrometheusSink(t *testing.T) {
	t.Parallel()

	registry := prometheus.NewRegistry()

	sink, err := metricsink.NewPrometheusSink(registry)
	require.NoError(t, err)

	sink.RecordCall(context.Background(), sampleCall())

	failed := sampleCall()
	failed.StatusCode = 0
	sink.RecordCall(context.Background(), failed)

	expected := `
# HELP stackapi_remote_calls_total Total number of remote calls.
# TYPE stackapi_remote_calls_total counter
stackapi_remote_calls_total{method="GET",operation="remote-calls.compute.servers.list",status_code="0"} 1
stackapi_remote_calls_total{method="GET",operation="remote-calls.compute.servers.list",status_code="200"} 1
`
	require.NoError(t, testutil.GatherAndCompare(registry, strings.NewReader(expected), "stackapi_remote_calls_total"))

	// A second sink on the same registry shares the collectors.
	again, err := metricsink.NewPrometheusSink(registry)
	require.NoError(t, err)
	again.RecordCall(context.Background(), sampleCall())

	count, err := testutil.GatherAndCount(registry, "stackapi_remote_call_duration_seconds")
	require.NoError(t, err)
	assert.Equal(t, 2, count)
}

func TestNATSSink(t *testing.T) {
	t.Parallel()

	t.Run("publishes json event", func(t *testing.T) {
		t.Parallel()

		publisher := &fakePublisher{}
		sink := metricsink.NewNATSSink(publisher)
		assert.Equal(t, "stackapi.remote-calls", sink.Subject())

		sink.RecordCall(context.Background(), sampleCall())

		require.Len(t, publisher.payloads, 1)
		assert.Equal(t, "stackapi.remote-calls", publisher.subjects[0])

		var event map[string]interface{}
		require.NoError(t, json.Unmarshal(publisher.payloads[0], &event))
		assert.Equal(t, "remote-calls.compute.servers.list", event["operation"])
		assert.InDelta(t, 200, event["statusCode"], 0)
		assert.InDelta(t, 250, event["elapsedMs"], 0)
		assert.Equal(t, "req-1", event["requestId"])
	})

	t.Run("custom subject", func(t *testing.T) {
		t.Parallel()

		publisher := &fakePublisher{}
		metricsink.NewNATSSink(publisher, metricsink.WithSubject("ops.calls")).RecordCall(context.Background(), sampleCall())

		require.Len(t, publisher.subjects, 1)
		assert.Equal(t, "ops.calls", publisher.subjects[0])
	})

	t.Run("publish failure is logged", func(t *testing.T) {
		t.Parallel()

		logger := &recordingLogger{}
		publisher := &fakePublisher{err: errors.New("nats: connection closed")}
		sink := metricsink.NewNATSSink(publisher, metricsink.WithNATSLogger(logger))

		sink.RecordCall(context.Background(), sampleCall())

		require.Len(t, logger.entries, 1)
		assert.Equal(t, "warn", logger.entries[0].level)
		assert.Equal(t, "Failed to publish metrics event", logger.entries[0].msg)
	})
}

func TestCombine(t *testing.T) {
	t.Parallel()

	assert.Nil(t, metricsink.Combine())
	assert.Nil(t, metricsink.Combine(nil, nil))

	single := &fakePublisher{}
	singleSink := metricsink.NewNATSSink(single)
	assert.Same(t, singleSink, metricsink.Combine(nil, singleSink))

	first := &fakePublisher{}
	second := &fakePublisher{}
	combined := metricsink.Combine(metricsink.NewNATSSink(first), nil, metricsink.NewNATSSink(second))

	combined.RecordCall(context.Background(), sampleCall())

	assert.Len(t, first.payloads, 1)
	assert.Len(t, second.payloads, 1)
}
