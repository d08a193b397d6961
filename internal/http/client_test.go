package http_test

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	stackhttp "github.com/fivetwenty-io/stackapi/internal/http"
	"github.com/fivetwenty-io/stackapi/pkg/stackapi"
)

// MockTokenManager for testing.
type MockTokenManager struct {
	token string
	err   error
}

func (m *MockTokenManager) GetToken(ctx context.Context) (string, error) {
	return m.token, m.err
}

// MockLogger for testing.
type MockLogger struct {
	mu   sync.Mutex
	logs []map[string]interface{}
}

func (l *MockLogger) record(level, msg string, fields map[string]interface{}) {
	l.mu.Lock()
	defer l.mu.Unlock()

	l.logs = append(l.logs, map[string]interface{}{"level": level, "msg": msg, "fields": fields})
}

func (l *MockLogger) Debug(msg string, fields map[string]interface{}) { l.record("debug", msg, fields) }
func (l *MockLogger) Info(msg string, fields map[string]interface{})  { l.record("info", msg, fields) }
func (l *MockLogger) Warn(msg string, fields map[string]interface{})  { l.record("warn", msg, fields) }
func (l *MockLogger) Error(msg string, fields map[string]interface{}) { l.record("error", msg, fields) }

func (l *MockLogger) find(msg string) (map[string]interface{}, bool) {
	l.mu.Lock()
	defer l.mu.Unlock()

	for _, entry := range l.logs {
		if entry["msg"] == msg {
			fields, _ := entry["fields"].(map[string]interface{})

			return fields, true
		}
	}

	return nil, false
}

// recordingSink collects metrics events.
type recordingSink struct {
	mu     sync.Mutex
	events []stackapi.CallMetrics
}

func (s *recordingSink) RecordCall(_ context.Context, metrics stackapi.CallMetrics) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.events = append(s.events, metrics)
}

func (s *recordingSink) Events() []stackapi.CallMetrics {
	s.mu.Lock()
	defer s.mu.Unlock()

	return append([]stackapi.CallMetrics(nil), s.events...)
}

func jsonHandler(status int, body interface{}) http.HandlerFunc {
	return func(writer http.ResponseWriter, _ *http.Request) {
		writer.Header().Set("Content-Type", "application/json")
		writer.WriteHeader(status)
		_ = json.NewEncoder(writer).Encode(body)
	}
}

func TestClient_Call(t *testing.T) {
	t.Parallel()

	t.Run("successful request", func(t *testing.T) {
		t.Parallel()

		server := httptest.NewServer(http.HandlerFunc(func(writer http.ResponseWriter, request *http.Request) {
			assert.Equal(t, "/v2/images", request.URL.Path)
			assert.Equal(t, "GET", request.Method)
			assert.Equal(t, "test-token", request.Header.Get("X-Auth-Token"))
			assert.Equal(t, "application/json", request.Header.Get("Accept"))
			assert.Equal(t, "10", request.URL.Query().Get("limit"))

			_, _ = writer.Write([]byte(`{"images":[{"id":"img-1","name":"cirros"}]}`))
		}))
		defer server.Close()

		client := stackhttp.NewClient(server.URL, &MockTokenManager{token: "test-token"})

		resp, err := client.Call(context.Background(), &stackhttp.Request{
			Path:         "/v2/images",
			Query:        url.Values{"limit": []string{"10"}},
			Require2xx:   true,
			RequiredPath: "images",
		})
		require.NoError(t, err)
		assert.Equal(t, http.StatusOK, resp.StatusCode)
		assert.Equal(t, "GET", resp.Method)
		assert.Equal(t, server.URL+"/v2/images?limit=10", resp.URL)

		name, ok := resp.Lookup("images.0.name")
		require.True(t, ok)
		assert.Equal(t, "cirros", name)

		var list struct {
			Images []struct {
				ID string `json:"id"`
			} `json:"images"`
		}
		require.NoError(t, resp.Decode(&list))
		require.Len(t, list.Images, 1)
		assert.Equal(t, "img-1", list.Images[0].ID)
	})

	t.Run("json body and custom headers", func(t *testing.T) {
		t.Parallel()

		server := httptest.NewServer(http.HandlerFunc(func(writer http.ResponseWriter, request *http.Request) {
			assert.Equal(t, "POST", request.Method)
			assert.Equal(t, "application/json", request.Header.Get("Content-Type"))
			assert.Equal(t, "custom-value", request.Header.Get("X-Custom-Header"))
			assert.Equal(t, "caller-token", request.Header.Get("X-Auth-Token"))

			var body map[string]string
			assert.NoError(t, json.NewDecoder(request.Body).Decode(&body))
			assert.Equal(t, "pool-1", body["name"])

			writer.WriteHeader(http.StatusCreated)
			_, _ = writer.Write([]byte(`{"pool":{"id":"p-1"}}`))
		}))
		defer server.Close()

		// Caller-supplied auth header wins over the token provider.
		client := stackhttp.NewClient(server.URL, &MockTokenManager{token: "provider-token"})

		resp, err := client.Post(context.Background(), &stackhttp.Request{
			Path:         "/v2/lbaas/pools",
			Body:         map[string]string{"name": "pool-1"},
			Headers:      map[string]string{"X-Custom-Header": "custom-value", "X-Auth-Token": "caller-token"},
			RequiredPath: "pool.id",
		})
		require.NoError(t, err)
		assert.Equal(t, http.StatusCreated, resp.StatusCode)
	})

	t.Run("request is not modified", func(t *testing.T) {
		t.Parallel()

		server := httptest.NewServer(jsonHandler(http.StatusOK, map[string]string{"ok": "yes"}))
		defer server.Close()

		client := stackhttp.NewClient(server.URL, nil)
		req := &stackhttp.Request{Path: "/x", Query: url.Values{"a": []string{"1"}}}

		_, err := client.Delete(context.Background(), req)
		require.NoError(t, err)
		assert.Empty(t, req.Method)
		assert.Empty(t, req.URL)
		assert.Equal(t, "1", req.Query.Get("a"))
	})

	t.Run("status outside 2xx without requirement succeeds", func(t *testing.T) {
		t.Parallel()

		server := httptest.NewServer(jsonHandler(http.StatusNotFound, map[string]string{"message": "gone"}))
		defer server.Close()

		client := stackhttp.NewClient(server.URL, nil)

		resp, err := client.Get(context.Background(), &stackhttp.Request{Path: "/thing"})
		require.NoError(t, err)
		assert.Equal(t, http.StatusNotFound, resp.StatusCode)
	})

	t.Run("token provider failure", func(t *testing.T) {
		t.Parallel()

		server := httptest.NewServer(jsonHandler(http.StatusOK, map[string]string{}))
		defer server.Close()

		tokenErr := errors.New("token expired")
		client := stackhttp.NewClient(server.URL, &MockTokenManager{err: tokenErr})

		_, err := client.Get(context.Background(), &stackhttp.Request{Path: "/x"})
		require.Error(t, err)
		require.ErrorIs(t, err, tokenErr)
		assert.True(t, stackapi.IsTransport(err))
	})
}

func TestClient_StatusFailure(t *testing.T) {
	t.Parallel()

	server := httptest.NewServer(jsonHandler(http.StatusNotFound, map[string]interface{}{
		"itemNotFound": map[string]interface{}{
			"message": "Instance could not be found",
			"code":    404,
		},
	}))
	defer server.Close()

	client := stackhttp.NewClient(server.URL, &MockTokenManager{token: "test-token"})

	resp, err := client.Get(context.Background(), &stackhttp.Request{
		Path:         "/servers/missing",
		Require2xx:   true,
		RequiredPath: "server",
	})
	require.Error(t, err)
	require.NotNil(t, resp)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)

	remoteErr, ok := stackapi.AsRemoteError(err)
	require.True(t, ok)
	assert.Equal(t, "Invalid status (404) from remote call", remoteErr.Message)
	assert.Equal(t, "REMOTEERROR", remoteErr.Code)
	assert.Equal(t, stackapi.ErrorKindStatus, remoteErr.Kind)
	assert.Equal(t, "GET", remoteErr.Details.Method)
	assert.Equal(t, server.URL+"/servers/missing", remoteErr.Details.URI)
	assert.Equal(t, http.StatusNotFound, remoteErr.Details.StatusCode)
	assert.Equal(t, "Instance could not be found", remoteErr.Details.RemoteMessage)
	assert.Equal(t, "404", remoteErr.Details.RemoteCode)
	assert.True(t, stackapi.IsNotFound(err))
	assert.Nil(t, errors.Unwrap(err))
}

func TestClient_ShapeFailure(t *testing.T) {
	t.Parallel()

	server := httptest.NewServer(jsonHandler(http.StatusOK, map[string]int{"foo": 1}))
	defer server.Close()

	client := stackhttp.NewClient(server.URL, nil)

	_, err := client.Get(context.Background(), &stackhttp.Request{
		Path:         "/servers",
		Require2xx:   true,
		RequiredPath: "servers",
	})
	require.Error(t, err)

	remoteErr, ok := stackapi.AsRemoteError(err)
	require.True(t, ok)
	assert.Equal(t, "Invalid format (servers) missing from remote call", remoteErr.Message)
	assert.Equal(t, stackapi.ErrorKindShape, remoteErr.Kind)
	assert.Equal(t, http.StatusOK, remoteErr.Details.StatusCode)
	assert.Equal(t, `{"foo":1}`, remoteErr.Details.RemoteMessage)
	assert.Equal(t, `{"foo":1}`, remoteErr.Details.RemoteCode)
	assert.Equal(t, `{"foo":1}`, remoteErr.Details.RemoteDetail)
}

func TestClient_PlainTextFailure(t *testing.T) {
	t.Parallel()

	server := httptest.NewServer(http.HandlerFunc(func(writer http.ResponseWriter, _ *http.Request) {
		writer.Header().Set("Content-Type", "text/plain")
		writer.WriteHeader(http.StatusInternalServerError)
		_, _ = writer.Write([]byte("Our server just borked"))
	}))
	defer server.Close()

	client := stackhttp.NewClient(server.URL, nil)

	resp, err := client.Get(context.Background(), &stackhttp.Request{Path: "/stacks", Require2xx: true})
	require.Error(t, err)
	assert.Equal(t, "Our server just borked", resp.Data)

	remoteErr, ok := stackapi.AsRemoteError(err)
	require.True(t, ok)
	assert.Equal(t, "Invalid status (500) from remote call", remoteErr.Message)
	assert.Equal(t, "Our server just borked", remoteErr.Details.RemoteMessage)
	assert.Equal(t, "Our server just borked", remoteErr.Details.RemoteCode)
	assert.Equal(t, "Our server just borked", remoteErr.Details.RemoteDetail)
}

func TestClient_TransportFailure(t *testing.T) {
	t.Parallel()

	t.Run("connection dropped", func(t *testing.T) {
		t.Parallel()

		server := httptest.NewServer(http.HandlerFunc(func(writer http.ResponseWriter, _ *http.Request) {
			hijacker, ok := writer.(http.Hijacker)
			if !ok {
				return
			}

			conn, _, err := hijacker.Hijack()
			if err == nil {
				_ = conn.Close()
			}
		}))
		defer server.Close()

		sink := &recordingSink{}
		client := stackhttp.NewClient(server.URL, nil, stackhttp.WithMetrics(sink))

		resp, err := client.Get(context.Background(), &stackhttp.Request{
			Path:         "/servers",
			Require2xx:   true,
			RequiredPath: "servers",
			Operation:    "remote-calls.compute.servers.list",
		})
		require.Error(t, err)
		assert.Equal(t, 0, resp.StatusCode)

		remoteErr, ok := stackapi.AsRemoteError(err)
		require.True(t, ok)
		assert.Equal(t, stackapi.ErrorKindTransport, remoteErr.Kind)
		assert.Equal(t, "REMOTEERROR", remoteErr.Code)
		assert.Equal(t, "GET", remoteErr.Details.Method)
		assert.Equal(t, server.URL+"/servers", remoteErr.Details.URI)
		assert.Equal(t, 0, remoteErr.Details.StatusCode)
		assert.Equal(t, "indeterminable", remoteErr.Details.RemoteMessage)
		assert.True(t, stackapi.IsTransport(err))

		// The transport error stays reachable.
		var urlErr *url.Error
		require.ErrorAs(t, err, &urlErr)
		assert.Equal(t, urlErr.Error(), remoteErr.Message)

		events := sink.Events()
		require.Len(t, events, 1)
		assert.Equal(t, 0, events[0].StatusCode)
		assert.Equal(t, "remote-calls.compute.servers.list", events[0].Operation)
	})

	t.Run("connection refused", func(t *testing.T) {
		t.Parallel()

		listener, err := net.Listen("tcp", "127.0.0.1:0")
		require.NoError(t, err)

		addr := listener.Addr().String()
		require.NoError(t, listener.Close())

		client := stackhttp.NewClient("http://"+addr, nil)

		_, err = client.Get(context.Background(), &stackhttp.Request{Path: "/"})
		require.Error(t, err)
		assert.True(t, stackapi.IsTransport(err))
	})

	t.Run("timeout", func(t *testing.T) {
		t.Parallel()

		release := make(chan struct{})
		server := httptest.NewServer(http.HandlerFunc(func(writer http.ResponseWriter, request *http.Request) {
			select {
			case <-release:
			case <-request.Context().Done():
			}
		}))
		defer server.Close()
		defer close(release)

		client := stackhttp.NewClient(server.URL, nil, stackhttp.WithTimeout(time.Minute))

		start := time.Now()
		_, err := client.Get(context.Background(), &stackhttp.Request{Path: "/slow", Timeout: 50 * time.Millisecond})
		require.Error(t, err)
		assert.Less(t, time.Since(start), 10*time.Second)
		require.ErrorIs(t, err, context.DeadlineExceeded)
		assert.True(t, stackapi.IsTransport(err))
	})
}

func TestClient_Metrics(t *testing.T) {
	t.Parallel()

	server := httptest.NewServer(http.HandlerFunc(func(writer http.ResponseWriter, request *http.Request) {
		if request.URL.Path == "/fail" {
			writer.WriteHeader(http.StatusConflict)

			return
		}

		_, _ = writer.Write([]byte(`{"stacks":[]}`))
	}))
	t.Cleanup(server.Close)

	clientSink := &recordingSink{}
	client := stackhttp.NewClient(server.URL, nil,
		stackhttp.WithMetrics(clientSink),
		stackhttp.WithCorrelation("alice", "req-default"),
	)

	_, err := client.Get(context.Background(), &stackhttp.Request{
		Path:         "/stacks",
		Require2xx:   true,
		RequiredPath: "stacks",
		Operation:    "remote-calls.orchestration.stacks.list",
	})
	require.NoError(t, err)

	_, err = client.Get(context.Background(), &stackhttp.Request{
		Path:       "/fail",
		Require2xx: true,
		RequestID:  "req-override",
	})
	require.Error(t, err)

	events := clientSink.Events()
	require.Len(t, events, 2)
	assert.Equal(t, "remote-calls.orchestration.stacks.list", events[0].Operation)
	assert.Equal(t, "GET", events[0].Method)
	assert.Equal(t, server.URL+"/stacks", events[0].URL)
	assert.Equal(t, http.StatusOK, events[0].StatusCode)
	assert.Equal(t, "alice", events[0].UserName)
	assert.Equal(t, "req-default", events[0].RequestID)
	assert.Equal(t, events[0].Elapsed, events[0].Elapsed.Round(time.Millisecond))
	assert.Equal(t, http.StatusConflict, events[1].StatusCode)
	assert.Equal(t, "req-override", events[1].RequestID)

	t.Run("per-request sink overrides client sink", func(t *testing.T) {
		t.Parallel()

		requestSink := &recordingSink{}
		_, err := client.Get(context.Background(), &stackhttp.Request{Path: "/stacks", Metrics: requestSink})
		require.NoError(t, err)
		assert.Len(t, requestSink.Events(), 1)
	})

	t.Run("panicking sink does not change the outcome", func(t *testing.T) {
		t.Parallel()

		logger := &MockLogger{}
		panicking := stackapi.MetricsSinkFunc(func(context.Context, stackapi.CallMetrics) {
			panic("sink exploded")
		})
		panicClient := stackhttp.NewClient(server.URL, nil, stackhttp.WithMetrics(panicking), stackhttp.WithLogger(logger))

		resp, err := panicClient.Get(context.Background(), &stackhttp.Request{Path: "/stacks", RequiredPath: "stacks"})
		require.NoError(t, err)
		assert.Equal(t, http.StatusOK, resp.StatusCode)

		_, logged := logger.find("Metrics sink panicked")
		assert.True(t, logged)
	})
}

func TestClient_Debug(t *testing.T) {
	t.Parallel()

	server := httptest.NewServer(jsonHandler(http.StatusOK, map[string]string{"id": "x"}))
	t.Cleanup(server.Close)

	t.Run("debug enabled", func(t *testing.T) {
		t.Parallel()

		logger := &MockLogger{}
		client := stackhttp.NewClient(server.URL, &MockTokenManager{token: "secret-token"},
			stackhttp.WithLogger(logger),
			stackhttp.WithDebug(true),
		)

		_, err := client.Get(context.Background(), &stackhttp.Request{Path: "/debug"})
		require.NoError(t, err)

		requestFields, ok := logger.find("HTTP Request")
		require.True(t, ok)
		headers, ok := requestFields["headers"].(map[string]string)
		require.True(t, ok)
		assert.Equal(t, "***", headers["X-Auth-Token"])

		responseFields, ok := logger.find("HTTP Response")
		require.True(t, ok)
		assert.Equal(t, http.StatusOK, responseFields["status_code"])
		assert.Contains(t, responseFields["body"], `"id":"x"`)
	})

	t.Run("debug per request", func(t *testing.T) {
		t.Parallel()

		logger := &MockLogger{}
		client := stackhttp.NewClient(server.URL, nil, stackhttp.WithLogger(logger))

		_, err := client.Get(context.Background(), &stackhttp.Request{Path: "/debug", Debug: true})
		require.NoError(t, err)

		_, ok := logger.find("HTTP Response")
		assert.True(t, ok)
	})

	t.Run("debug disabled", func(t *testing.T) {
		t.Parallel()

		logger := &MockLogger{}
		client := stackhttp.NewClient(server.URL, nil, stackhttp.WithLogger(logger))

		_, err := client.Get(context.Background(), &stackhttp.Request{Path: "/debug"})
		require.NoError(t, err)

		_, ok := logger.find("HTTP Request")
		assert.False(t, ok)
	})
}

func TestClient_UserAgentAndRequestID(t *testing.T) {
	t.Parallel()

	server := httptest.NewServer(http.HandlerFunc(func(writer http.ResponseWriter, request *http.Request) {
		assert.Equal(t, "stackctl/1.0", request.Header.Get("User-Agent"))
		assert.Equal(t, "req-123", request.Header.Get("X-Openstack-Request-Id"))
		_, _ = io.WriteString(writer, `{}`)
	}))
	defer server.Close()

	client := stackhttp.NewClient(server.URL, nil,
		stackhttp.WithUserAgent("stackctl/1.0"),
		stackhttp.WithCorrelation("", "req-123"),
	)

	_, err := client.Get(context.Background(), &stackhttp.Request{Path: "/"})
	require.NoError(t, err)
}

func TestClient_WithHTTPClient(t *testing.T) {
	t.Parallel()

	var hits int

	server := httptest.NewServer(http.HandlerFunc(func(writer http.ResponseWriter, _ *http.Request) {
		hits++
		writer.WriteHeader(http.StatusServiceUnavailable)
	}))
	defer server.Close()

	client := stackhttp.NewClient(server.URL, nil, stackhttp.WithHTTPClient(&http.Client{}))

	_, err := client.Get(context.Background(), &stackhttp.Request{Path: "/", Require2xx: true})
	require.Error(t, err)
	assert.True(t, strings.HasPrefix(err.Error(), "Invalid status (503)"))
	// The transport itself never retries.
	assert.Equal(t, 1, hits)
}
