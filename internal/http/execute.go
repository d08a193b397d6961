package http

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/hashicorp/go-retryablehttp"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/fivetwenty-io/stackapi/internal/constants"
)

// Execute sends one request and returns its outcome without judging it.
//
// The returned error is a transport failure: the request could not be built,
// sent, or read. HTTP statuses of any value are not errors at this level. A
// non-nil *Response is always returned, carrying the elapsed time and, when a
// response arrived, its status, headers and payload.
func (c *Client) Execute(ctx context.Context, req *Request) (*Response, error) {
	method := req.Method
	if method == "" {
		method = http.MethodGet
	}

	target := c.resolveURL(req)
	resp := &Response{}

	ctx, cancel := context.WithTimeout(ctx, c.timeoutFor(req))
	defer cancel()

	ctx, span := c.tracer.Start(ctx, "stackapi.http "+method,
		trace.WithSpanKind(trace.SpanKindClient),
		trace.WithAttributes(
			attribute.String("http.request.method", method),
			attribute.String("url.full", target),
			attribute.String("stackapi.operation", req.Operation),
		),
	)
	defer span.End()

	start := time.Now()

	transportErr := c.send(ctx, method, target, req, resp)

	resp.Elapsed = time.Since(start).Round(constants.ElapsedPrecision)

	if transportErr != nil {
		span.RecordError(transportErr)
		span.SetStatus(codes.Error, transportErr.Error())

		return resp, transportErr
	}

	span.SetAttributes(attribute.Int("http.response.status_code", resp.StatusCode))

	if resp.StatusCode >= http.StatusBadRequest {
		span.SetStatus(codes.Error, http.StatusText(resp.StatusCode))
	}

	return resp, nil
}

func (c *Client) send(ctx context.Context, method, target string, req *Request, resp *Response) error {
	var rawBody interface{}

	hasBody := false

	switch body := req.Body.(type) {
	case nil, bool:
	case []byte:
		rawBody = body
		hasBody = true
	default:
		encoded, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("encoding request body: %w", err)
		}

		rawBody = encoded
		hasBody = true
	}

	httpReq, err := retryablehttp.NewRequestWithContext(ctx, method, target, rawBody)
	if err != nil {
		return fmt.Errorf("creating request: %w", err)
	}

	httpReq.Header.Set("Accept", "application/json")

	if hasBody {
		httpReq.Header.Set("Content-Type", "application/json")
	}

	if c.userAgent != "" {
		httpReq.Header.Set(constants.HeaderUserAgent, c.userAgent)
	}

	if requestID := c.requestIDFor(req); requestID != "" {
		httpReq.Header.Set(constants.HeaderRequestID, requestID)
	}

	if c.tokens != nil && !hasHeader(req.Headers, constants.HeaderAuthToken) {
		token, tokenErr := c.tokens.GetToken(ctx)
		if tokenErr != nil {
			return fmt.Errorf("getting auth token: %w", tokenErr)
		}

		httpReq.Header.Set(constants.HeaderAuthToken, token)
	}

	// Caller headers are sent with their keys exactly as provided.
	for key, value := range req.Headers {
		httpReq.Header[key] = []string{value}
	}

	debug := c.debug || req.Debug
	if debug {
		c.logger.Debug("HTTP Request", map[string]interface{}{
			"method":    method,
			"url":       target,
			"operation": req.Operation,
			"headers":   maskHeaders(httpReq.Header),
			"body":      string(bodyBytes(rawBody)),
		})
	}

	httpResp, err := c.httpClient.Do(httpReq)
	if httpResp != nil {
		resp.StatusCode = httpResp.StatusCode
		resp.Headers = httpResp.Header

		if httpResp.Request != nil {
			resp.Method = httpResp.Request.Method
			resp.URL = httpResp.Request.URL.String()
		}
	}

	if err != nil {
		if httpResp != nil && httpResp.Body != nil {
			_ = httpResp.Body.Close()
		}

		return err
	}

	defer func() { _ = httpResp.Body.Close() }()

	raw, err := io.ReadAll(httpResp.Body)
	if err != nil {
		return fmt.Errorf("reading response body: %w", err)
	}

	resp.Body = raw
	resp.Data = decodePayload(raw)

	if debug {
		c.logger.Debug("HTTP Response", map[string]interface{}{
			"method":      resp.Method,
			"url":         resp.URL,
			"status_code": resp.StatusCode,
			"body":        string(raw),
		})
	}

	return nil
}

func (c *Client) resolveURL(req *Request) string {
	target := req.URL
	if target == "" {
		path := req.Path
		if path != "" && !strings.HasPrefix(path, "/") {
			path = "/" + path
		}

		target = c.baseURL + path
	}

	if len(req.Query) > 0 {
		separator := "?"
		if strings.Contains(target, "?") {
			separator = "&"
		}

		target += separator + req.Query.Encode()
	}

	return target
}

func (c *Client) timeoutFor(req *Request) time.Duration {
	if req.Timeout > 0 {
		return req.Timeout
	}

	if c.timeout > 0 {
		return c.timeout
	}

	return constants.DefaultRequestTimeout
}

func (c *Client) requestIDFor(req *Request) string {
	if req.RequestID != "" {
		return req.RequestID
	}

	return c.requestID
}

func (c *Client) userNameFor(req *Request) string {
	if req.UserName != "" {
		return req.UserName
	}

	return c.userName
}

// decodePayload returns the decoded JSON value, the raw text when the payload
// is not JSON, or nil when it is empty.
func decodePayload(raw []byte) interface{} {
	if len(bytes.TrimSpace(raw)) == 0 {
		return nil
	}

	var data interface{}

	err := json.Unmarshal(raw, &data)
	if err != nil {
		return string(raw)
	}

	return data
}

func hasHeader(headers map[string]string, key string) bool {
	for name := range headers {
		if strings.EqualFold(name, key) {
			return true
		}
	}

	return false
}

func maskHeaders(headers http.Header) map[string]string {
	masked := make(map[string]string, len(headers))

	for key, values := range headers {
		value := strings.Join(values, ", ")
		if strings.EqualFold(key, constants.HeaderAuthToken) || strings.EqualFold(key, constants.HeaderSubjectToken) {
			value = constants.MaskedSecret
		}

		masked[key] = value
	}

	return masked
}

func bodyBytes(rawBody interface{}) []byte {
	body, ok := rawBody.([]byte)
	if !ok {
		return nil
	}

	return body
}
