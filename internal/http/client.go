package http

import (
	"context"
	"net/http"
	"strings"
	"time"

	"github.com/hashicorp/go-retryablehttp"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/trace"

	"github.com/fivetwenty-io/stackapi/internal/constants"
	"github.com/fivetwenty-io/stackapi/pkg/stackapi"
)

const instrumentationName = "github.com/fivetwenty-io/stackapi/internal/http"

// Logger is the logging contract of the HTTP layer.
type Logger interface {
	Debug(msg string, fields map[string]interface{})
	Info(msg string, fields map[string]interface{})
	Warn(msg string, fields map[string]interface{})
	Error(msg string, fields map[string]interface{})
}

// TokenProvider supplies the X-Auth-Token value for authenticated calls.
type TokenProvider interface {
	GetToken(ctx context.Context) (string, error)
}

// Client executes remote calls against one service base URL.
//
// A Client only holds configuration set at construction; concurrent calls
// share nothing mutable.
type Client struct {
	baseURL    string
	tokens     TokenProvider
	httpClient *retryablehttp.Client
	logger     Logger
	debug      bool
	timeout    time.Duration
	userAgent  string
	userName   string
	requestID  string
	metrics    stackapi.MetricsSink
	tracer     trace.Tracer
}

// Option configures a Client.
type Option func(*Client)

// WithLogger sets the logger.
func WithLogger(logger Logger) Option {
	return func(c *Client) {
		c.logger = logger
	}
}

// WithDebug enables request/response debug logging for every call.
func WithDebug(debug bool) Option {
	return func(c *Client) {
		c.debug = debug
	}
}

// WithTimeout sets the default per-call timeout.
func WithTimeout(timeout time.Duration) Option {
	return func(c *Client) {
		if timeout > 0 {
			c.timeout = timeout
		}
	}
}

// WithUserAgent sets the User-Agent header.
func WithUserAgent(userAgent string) Option {
	return func(c *Client) {
		c.userAgent = userAgent
	}
}

// WithMetrics sets the default metrics sink.
func WithMetrics(sink stackapi.MetricsSink) Option {
	return func(c *Client) {
		c.metrics = sink
	}
}

// WithCorrelation sets the default user name and request id reported to metrics.
func WithCorrelation(userName, requestID string) Option {
	return func(c *Client) {
		c.userName = userName
		c.requestID = requestID
	}
}

// WithHTTPClient replaces the underlying *http.Client.
func WithHTTPClient(httpClient *http.Client) Option {
	return func(c *Client) {
		if httpClient != nil {
			c.httpClient.HTTPClient = httpClient
		}
	}
}

// WithTracerProvider sets the tracer provider used for call spans.
func WithTracerProvider(provider trace.TracerProvider) Option {
	return func(c *Client) {
		if provider != nil {
			c.tracer = provider.Tracer(instrumentationName)
		}
	}
}

// NewClient creates a client for a service base URL. tokens may be nil for
// unauthenticated calls.
func NewClient(baseURL string, tokens TokenProvider, opts ...Option) *Client {
	transport := retryablehttp.NewClient()
	// Conflict retry is the only retrying component; the transport tries once.
	transport.RetryMax = 0
	transport.CheckRetry = neverRetry
	transport.ErrorHandler = retryablehttp.PassthroughErrorHandler
	transport.Logger = nil

	client := &Client{
		baseURL:    strings.TrimSuffix(baseURL, "/"),
		tokens:     tokens,
		httpClient: transport,
		logger:     nopLogger{},
		timeout:    constants.DefaultRequestTimeout,
		userAgent:  constants.DefaultUserAgent,
		tracer:     otel.GetTracerProvider().Tracer(instrumentationName),
	}

	for _, opt := range opts {
		opt(client)
	}

	if client.debug {
		transport.Logger = &leveledLogger{logger: client.logger}
	}

	return client
}

// BaseURL returns the service base URL.
func (c *Client) BaseURL() string {
	return c.baseURL
}

// neverRetry hands every outcome, including transport errors, back to the caller.
func neverRetry(_ context.Context, _ *http.Response, _ error) (bool, error) {
	return false, nil
}

type nopLogger struct{}

func (nopLogger) Debug(string, map[string]interface{}) {}
func (nopLogger) Info(string, map[string]interface{})  {}
func (nopLogger) Warn(string, map[string]interface{})  {}
func (nopLogger) Error(string, map[string]interface{}) {}

// leveledLogger bridges Logger into retryablehttp.LeveledLogger.
type leveledLogger struct {
	logger Logger
}

func (l *leveledLogger) Error(msg string, keysAndValues ...interface{}) {
	l.logger.Error(msg, keyValueFields(keysAndValues))
}

func (l *leveledLogger) Info(msg string, keysAndValues ...interface{}) {
	l.logger.Info(msg, keyValueFields(keysAndValues))
}

func (l *leveledLogger) Debug(msg string, keysAndValues ...interface{}) {
	l.logger.Debug(msg, keyValueFields(keysAndValues))
}

func (l *leveledLogger) Warn(msg string, keysAndValues ...interface{}) {
	l.logger.Warn(msg, keyValueFields(keysAndValues))
}

func keyValueFields(keysAndValues []interface{}) map[string]interface{} {
	fields := make(map[string]interface{}, len(keysAndValues)/2)

	for i := 0; i+1 < len(keysAndValues); i += 2 {
		key, ok := keysAndValues[i].(string)
		if !ok {
			continue
		}

		fields[key] = keysAndValues[i+1]
	}

	return fields
}
