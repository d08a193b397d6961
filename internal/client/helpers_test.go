package client_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/fivetwenty-io/stackapi/internal/client"
	"github.com/fivetwenty-io/stackapi/pkg/stackapi"
)

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

func (s *recordingSink) Operations() []string {
	s.mu.Lock()
	defer s.mu.Unlock()

	operations := make([]string, 0, len(s.events))
	for _, event := range s.events {
		operations = append(operations, event.Operation)
	}

	return operations
}

// allEndpoints points every service at one base URL.
func allEndpoints(baseURL string) stackapi.Endpoints {
	return stackapi.Endpoints{
		Identity:      baseURL,
		Image:         baseURL,
		Network:       baseURL,
		Compute:       baseURL,
		LoadBalancer:  baseURL,
		Orchestration: baseURL,
	}
}

// newTestClient starts a server and a token-authenticated client for it.
func newTestClient(t *testing.T, handler http.HandlerFunc, mutate ...func(*stackapi.Config)) (*client.Client, *recordingSink) {
	t.Helper()

	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)

	sink := &recordingSink{}
	config := &stackapi.Config{
		Endpoints:          allEndpoints(server.URL),
		Token:              "test-token",
		Metrics:            sink,
		ConflictRetryDelay: time.Millisecond,
	}

	for _, fn := range mutate {
		fn(config)
	}

	c, err := client.New(context.Background(), config)
	require.NoError(t, err)

	return c, sink
}

func writeJSON(w http.ResponseWriter, status int, body interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}
