package http

import (
	"encoding/json"
	"fmt"
	"maps"
	"net/url"
	"time"

	"github.com/fivetwenty-io/stackapi/pkg/stackapi"
)

// Request describes one remote call. It is built fresh for every call and is
// never modified by the client.
type Request struct {
	Method string
	// URL is an absolute target. When empty, Path (and Query) are joined to
	// the client base URL.
	URL     string
	Path    string
	Query   url.Values
	Headers map[string]string
	// Body is sent as-is when it is a []byte and JSON-encoded otherwise.
	// nil and bool values send no body.
	Body    interface{}
	Timeout time.Duration

	// RequiredPath is a dotted path the response body must contain, e.g. "console.url".
	RequiredPath string
	// Require2xx fails the call on any status outside 200-299.
	Require2xx bool

	// Correlation fields, reported to the metrics sink only.
	Operation string
	UserName  string
	RequestID string
	// Metrics overrides the client's sink for this call.
	Metrics stackapi.MetricsSink

	Debug bool
}

// clone returns a copy of the request that owns its header and query maps.
func (r *Request) clone() *Request {
	copied := *r
	copied.Headers = maps.Clone(r.Headers)

	if r.Query != nil {
		copied.Query = url.Values{}
		for key, values := range r.Query {
			copied.Query[key] = append([]string(nil), values...)
		}
	}

	return &copied
}

// Response is the outcome of one remote call.
type Response struct {
	// StatusCode is 0 when no response was received.
	StatusCode int
	Headers    map[string][]string
	// Body holds the raw payload.
	Body []byte
	// Data holds the decoded JSON payload, the payload as a string when it is
	// not JSON, or nil when empty.
	Data interface{}
	// Elapsed is measured with the monotonic clock and rounded to the millisecond.
	Elapsed time.Duration
	// Method and URL are taken from the request actually sent.
	Method string
	URL    string
}

// Decode unmarshals the raw payload into v.
func (r *Response) Decode(v interface{}) error {
	err := json.Unmarshal(r.Body, v)
	if err != nil {
		return fmt.Errorf("decoding response body: %w", err)
	}

	return nil
}

// Lookup returns the value at a dotted path of the decoded payload.
func (r *Response) Lookup(path string) (interface{}, bool) {
	if r == nil {
		return nil, false
	}

	return lookupPath(r.Data, path)
}

// Header returns the first value of a response header.
func (r *Response) Header(key string) string {
	if r == nil || r.Headers == nil {
		return ""
	}

	values := r.Headers[key]
	if len(values) == 0 {
		return ""
	}

	return values[0]
}
