package stackapi

import (
	"errors"
	"net/http"
	"time"
)

// ErrorKind names the failure category a RemoteError was classified into.
type ErrorKind string

const (
	// ErrorKindTransport is a DNS, connection, timeout or read failure.
	ErrorKindTransport ErrorKind = "transport"

	// ErrorKindStatus is a response outside the demanded success range.
	ErrorKindStatus ErrorKind = "status"

	// ErrorKindShape is an acceptable response missing a required field.
	ErrorKindShape ErrorKind = "shape"
)

// RemoteDetails carries what is known about the remote exchange that failed.
type RemoteDetails struct {
	Method        string        `json:"remoteMethod"     yaml:"remote_method"`
	URI           string        `json:"remoteUri"        yaml:"remote_uri"`
	StatusCode    int           `json:"remoteStatusCode" yaml:"remote_status_code"`
	RemoteMessage string        `json:"remoteMessage"    yaml:"remote_message"`
	RemoteCode    string        `json:"remoteCode"       yaml:"remote_code"`
	RemoteDetail  string        `json:"remoteDetail"     yaml:"remote_detail"`
	ResponseTime  time.Duration `json:"responseTime"     yaml:"response_time"`
}

// RemoteError is the single failure value produced by the request pipeline.
//
// Transport failures keep the original error reachable through Unwrap, so
// errors.Is and errors.As continue to match the transport error.
type RemoteError struct {
	Message string        `json:"message" yaml:"message"`
	Code    string        `json:"code"    yaml:"code"`
	Kind    ErrorKind     `json:"kind"    yaml:"kind"`
	Details RemoteDetails `json:"details" yaml:"details"`
	Err     error         `json:"-"       yaml:"-"`
}

// Error implements the error interface.
func (e *RemoteError) Error() string {
	return e.Message
}

// Unwrap returns the transport error, if any.
func (e *RemoteError) Unwrap() error {
	return e.Err
}

// IsConflict reports whether the remote side answered 409 Conflict.
func (e *RemoteError) IsConflict() bool {
	return e.Details.StatusCode == http.StatusConflict
}

// Static errors for err113 compliance.
var (
	ErrConfigRequired     = errors.New("config is required")
	ErrInvalidConfig      = errors.New("invalid configuration")
	ErrEndpointRequired   = errors.New("at least one service endpoint is required")
	ErrServiceUnavailable = errors.New("service endpoint not configured")
	ErrNoTokenManager     = errors.New("no token manager configured")
	ErrUnknownTypeTag     = errors.New("unknown normalizer type tag")
)

// AsRemoteError extracts the RemoteError from an error chain.
func AsRemoteError(err error) (*RemoteError, bool) {
	remoteErr := &RemoteError{}
	if errors.As(err, &remoteErr) {
		return remoteErr, true
	}

	return nil, false
}

// StatusCode returns the remote status code carried by err, or 0.
func StatusCode(err error) int {
	remoteErr, ok := AsRemoteError(err)
	if !ok {
		return 0
	}

	return remoteErr.Details.StatusCode
}

// IsNotFound checks if the error is a not found error.
func IsNotFound(err error) bool {
	return StatusCode(err) == http.StatusNotFound
}

// IsUnauthorized checks if the error is an unauthorized error.
func IsUnauthorized(err error) bool {
	return StatusCode(err) == http.StatusUnauthorized
}

// IsForbidden checks if the error is a forbidden error.
func IsForbidden(err error) bool {
	return StatusCode(err) == http.StatusForbidden
}

// IsConflict checks if the error is a 409 Conflict reported by the remote side.
func IsConflict(err error) bool {
	return StatusCode(err) == http.StatusConflict
}

// IsTransport checks if the error is a transport failure with no response.
func IsTransport(err error) bool {
	remoteErr, ok := AsRemoteError(err)
	if !ok {
		return false
	}

	return remoteErr.Kind == ErrorKindTransport
}
