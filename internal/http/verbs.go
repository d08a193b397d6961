package http

import (
	"context"
	"net/http"

	"github.com/fivetwenty-io/stackapi/pkg/stackapi"
)

// Call executes the request, reports exactly one metrics event, and
// classifies the outcome. The response is returned even when the call
// failed, so callers can inspect the status and payload.
func (c *Client) Call(ctx context.Context, req *Request) (*Response, error) {
	descriptor := req.clone()
	if descriptor.Method == "" {
		descriptor.Method = http.MethodGet
	}

	descriptor.URL = c.resolveURL(descriptor)
	descriptor.Query = nil

	resp, transportErr := c.Execute(ctx, descriptor)

	c.emit(ctx, descriptor, resp)

	remoteErr := Classify(transportErr, resp, descriptor)
	if remoteErr != nil {
		c.logger.Debug("Remote call failed", map[string]interface{}{
			"operation":   descriptor.Operation,
			"method":      remoteErr.Details.Method,
			"uri":         remoteErr.Details.URI,
			"status_code": remoteErr.Details.StatusCode,
			"kind":        string(remoteErr.Kind),
			"error":       remoteErr.Message,
		})

		return resp, remoteErr
	}

	return resp, nil
}

// Do executes the request with an explicit method.
func (c *Client) Do(ctx context.Context, method string, req *Request) (*Response, error) {
	descriptor := req.clone()
	descriptor.Method = method

	return c.Call(ctx, descriptor)
}

// Get performs a GET request.
func (c *Client) Get(ctx context.Context, req *Request) (*Response, error) {
	return c.Do(ctx, http.MethodGet, req)
}

// Post performs a POST request.
func (c *Client) Post(ctx context.Context, req *Request) (*Response, error) {
	return c.Do(ctx, http.MethodPost, req)
}

// Put performs a PUT request.
func (c *Client) Put(ctx context.Context, req *Request) (*Response, error) {
	return c.Do(ctx, http.MethodPut, req)
}

// Patch performs a PATCH request.
func (c *Client) Patch(ctx context.Context, req *Request) (*Response, error) {
	return c.Do(ctx, http.MethodPatch, req)
}

// Delete performs a DELETE request.
func (c *Client) Delete(ctx context.Context, req *Request) (*Response, error) {
	return c.Do(ctx, http.MethodDelete, req)
}

// emit reports the call to the request's sink, or the client's. A panicking
// sink is logged and otherwise ignored.
func (c *Client) emit(ctx context.Context, req *Request, resp *Response) {
	sink := req.Metrics
	if sink == nil {
		sink = c.metrics
	}

	if sink == nil {
		return
	}

	defer func() {
		if recovered := recover(); recovered != nil {
			c.logger.Warn("Metrics sink panicked", map[string]interface{}{
				"operation": req.Operation,
				"panic":     recovered,
			})
		}
	}()

	sink.RecordCall(ctx, stackapi.CallMetrics{
		Operation:  req.Operation,
		Method:     req.Method,
		URL:        req.URL,
		StatusCode: resp.StatusCode,
		Elapsed:    resp.Elapsed,
		UserName:   c.userNameFor(req),
		RequestID:  c.requestIDFor(req),
	})
}
