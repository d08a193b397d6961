package stackapi_test

import (
	"errors"
	"fmt"
	"net/http"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fivetwenty-io/stackapi/pkg/stackapi"
)

type captureLogger struct {
	mu       sync.Mutex
	messages []string
}

func (l *captureLogger) add(msg string) {
	l.mu.Lock()
	defer l.mu.Unlock()

	l.messages = append(l.messages, msg)
}

func (l *captureLogger) Messages() []string {
	l.mu.Lock()
	defer l.mu.Unlock()

	return append([]string(nil), l.messages...)
}

func (l *captureLogger) Debug(msg string, _ map[string]interface{}) { l.add(msg) }
func (l *captureLogger) Info(msg string, _ map[string]interface{})  { l.add(msg) }
func (l *captureLogger) Warn(msg string, _ map[string]interface{})  { l.add(msg) }
func (l *captureLogger) Error(msg string, _ map[string]interface{}) { l.add(msg) }

func TestRemoteError(t *testing.T) {
	t.Parallel()

	cause := errors.New("connection reset by peer")
	remoteErr := &stackapi.RemoteError{
		Message: cause.Error(),
		Code:    "REMOTEERROR",
		Kind:    stackapi.ErrorKindTransport,
		Err:     cause,
	}

	assert.Equal(t, "connection reset by peer", remoteErr.Error())
	require.ErrorIs(t, remoteErr, cause)
	assert.False(t, remoteErr.IsConflict())

	wrapped := fmt.Errorf("listing servers: %w", remoteErr)
	extracted, ok := stackapi.AsRemoteError(wrapped)
	require.True(t, ok)
	assert.Same(t, remoteErr, extracted)
	assert.True(t, stackapi.IsTransport(wrapped))

	_, ok = stackapi.AsRemoteError(cause)
	assert.False(t, ok)
	assert.False(t, stackapi.IsTransport(cause))
}

func TestStatusHelpers(t *testing.T) {
	t.Parallel()

	statusErr := func(code int) error {
		return &stackapi.RemoteError{Kind: stackapi.ErrorKindStatus, Details: stackapi.RemoteDetails{StatusCode: code}}
	}

	tests := []struct {
		name  string
		err   error
		check func(error) bool
		want  bool
	}{
		{name: "not found", err: statusErr(http.StatusNotFound), check: stackapi.IsNotFound, want: true},
		{name: "unauthorized", err: statusErr(http.StatusUnauthorized), check: stackapi.IsUnauthorized, want: true},
		{name: "forbidden", err: statusErr(http.StatusForbidden), check: stackapi.IsForbidden, want: true},
		{name: "conflict", err: statusErr(http.StatusConflict), check: stackapi.IsConflict, want: true},
		{name: "not a conflict", err: statusErr(http.StatusBadRequest), check: stackapi.IsConflict, want: false},
		{name: "plain error", err: errors.New("x"), check: stackapi.IsNotFound, want: false},
		{name: "nil error", err: nil, check: stackapi.IsNotFound, want: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			assert.Equal(t, tt.want, tt.check(tt.err))
		})
	}

	assert.Equal(t, 0, stackapi.StatusCode(errors.New("x")))
	assert.Equal(t, http.StatusTeapot, stackapi.StatusCode(statusErr(http.StatusTeapot)))
}
