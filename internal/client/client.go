package client

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/fivetwenty-io/stackapi/internal/auth"
	"github.com/fivetwenty-io/stackapi/internal/constants"
	"github.com/fivetwenty-io/stackapi/internal/http"
	"github.com/fivetwenty-io/stackapi/pkg/stackapi"
)

// Static errors for err113 compliance.
var (
	ErrIdentityEndpointRequired = errors.New("identity endpoint is required for password authentication")
)

// Client implements the stackapi.Client interface.
type Client struct {
	endpoints    stackapi.Endpoints
	tokenManager auth.TokenManager
	logger       stackapi.Logger

	identity      *IdentityClient
	images        *ImagesClient
	networking    *NetworkingClient
	compute       *ComputeClient
	loadBalancer  *LoadBalancerClient
	orchestration *OrchestrationClient
}

// createTokenManager picks the token manager for the configured credentials.
// A pre-issued token wins over password credentials.
func createTokenManager(config *stackapi.Config, identity *IdentityClient) auth.TokenManager {
	if config.Token != "" {
		return auth.NewStaticTokenManager(config.Token, time.Time{})
	}

	if config.Username != "" && config.Password != "" && identity != nil {
		return auth.NewPasswordTokenManager(identity, auth.PasswordConfig{
			Username:    config.Username,
			Password:    config.Password,
			ProjectName: config.ProjectName,
			DomainName:  config.DomainName,
		})
	}

	return nil // No authentication
}

// createHTTPClientOptions builds HTTP client options from config.
func createHTTPClientOptions(config *stackapi.Config) []http.Option {
	var httpOpts []http.Option

	if config.Logger != nil {
		httpOpts = append(httpOpts, http.WithLogger(&loggerAdapter{logger: config.Logger}))
	}

	if config.Debug {
		httpOpts = append(httpOpts, http.WithDebug(true))
	}

	if config.UserAgent != "" {
		httpOpts = append(httpOpts, http.WithUserAgent(config.UserAgent))
	}

	if config.HTTPTimeout > 0 {
		httpOpts = append(httpOpts, http.WithTimeout(config.HTTPTimeout))
	}

	if config.Metrics != nil {
		httpOpts = append(httpOpts, http.WithMetrics(config.Metrics))
	}

	userName := config.UserName
	if userName == "" {
		userName = config.Username
	}

	if userName != "" || config.RequestID != "" {
		httpOpts = append(httpOpts, http.WithCorrelation(userName, config.RequestID))
	}

	return httpOpts
}

// New creates a client for every configured service endpoint.
func New(_ context.Context, config *stackapi.Config) (*Client, error) {
	err := config.Validate()
	if err != nil {
		return nil, err
	}

	if config.Token == "" && config.Username != "" && config.Endpoints.Identity == "" {
		return nil, fmt.Errorf("%w: %w", stackapi.ErrInvalidConfig, ErrIdentityEndpointRequired)
	}

	httpOpts := createHTTPClientOptions(config)
	identity := newIdentity(config, httpOpts)

	return build(config, createTokenManager(config, identity), identity, httpOpts), nil
}

// NewWithTokenManager creates a client authenticating with a custom token manager.
func NewWithTokenManager(config *stackapi.Config, tokenManager auth.TokenManager) (*Client, error) {
	err := config.Validate()
	if err != nil {
		return nil, err
	}

	httpOpts := createHTTPClientOptions(config)

	return build(config, tokenManager, newIdentity(config, httpOpts), httpOpts), nil
}

// NewIssuer creates an identity client that can only issue tokens, for
// callers that build their own token manager.
func NewIssuer(config *stackapi.Config) *IdentityClient {
	return newIdentity(config, createHTTPClientOptions(config))
}

// newIdentity creates the identity client with its unauthenticated half only.
// Token issuance must not depend on a token.
func newIdentity(config *stackapi.Config, httpOpts []http.Option) *IdentityClient {
	var public *http.Client
	if config.Endpoints.Identity != "" {
		public = http.NewClient(config.Endpoints.Identity, nil, httpOpts...)
	}

	return NewIdentityClient(public, nil, config.Normalizer)
}

func build(config *stackapi.Config, tokenManager auth.TokenManager, identity *IdentityClient, httpOpts []http.Option) *Client {
	var tokens http.TokenProvider
	if tokenManager != nil {
		tokens = tokenManager
	}

	serviceClient := func(service string) *http.Client {
		endpoint := config.Endpoints.Lookup(service)
		if endpoint == "" {
			return nil
		}

		return http.NewClient(endpoint, tokens, httpOpts...)
	}

	identity.service.httpClient = serviceClient(constants.ServiceIdentity)

	logger := config.Logger
	if logger == nil {
		logger = stackapi.NopLogger{}
	}

	return &Client{
		endpoints:     config.Endpoints,
		tokenManager:  tokenManager,
		logger:        logger,
		identity:      identity,
		images:        NewImagesClient(serviceClient(constants.ServiceImage), config.Normalizer),
		networking:    NewNetworkingClient(serviceClient(constants.ServiceNetwork), config.Normalizer),
		compute:       NewComputeClient(serviceClient(constants.ServiceCompute), config.Normalizer),
		loadBalancer:  NewLoadBalancerClient(serviceClient(constants.ServiceLoadBalancer), config.Normalizer, config.Retrier()),
		orchestration: NewOrchestrationClient(serviceClient(constants.ServiceOrchestration), config.Normalizer),
	}
}

// GetTokenManager returns the token manager for this client.
func (c *Client) GetTokenManager() auth.TokenManager {
	return c.tokenManager
}

// Endpoints returns the configured service endpoints.
func (c *Client) Endpoints() stackapi.Endpoints {
	return c.endpoints
}

// Identity implements stackapi.Client.Identity.
func (c *Client) Identity() stackapi.IdentityClient {
	return c.identity
}

// Images implements stackapi.Client.Images.
func (c *Client) Images() stackapi.ImagesClient {
	return c.images
}

// Networking implements stackapi.Client.Networking.
func (c *Client) Networking() stackapi.NetworkingClient {
	return c.networking
}

// Compute implements stackapi.Client.Compute.
func (c *Client) Compute() stackapi.ComputeClient {
	return c.compute
}

// LoadBalancer implements stackapi.Client.LoadBalancer.
func (c *Client) LoadBalancer() stackapi.LoadBalancerClient {
	return c.loadBalancer
}

// Orchestration implements stackapi.Client.Orchestration.
func (c *Client) Orchestration() stackapi.OrchestrationClient {
	return c.orchestration
}

// Raw returns the HTTP client of a service, for calls no service client
// models. It fails with stackapi.ErrServiceUnavailable when the service has
// no endpoint.
func (c *Client) Raw(name string) (*http.Client, error) {
	var resource *service

	switch name {
	case constants.ServiceIdentity:
		resource = &c.identity.service
	case constants.ServiceImage:
		resource = &c.images.service
	case constants.ServiceNetwork:
		resource = &c.networking.service
	case constants.ServiceCompute:
		resource = &c.compute.service
	case constants.ServiceLoadBalancer:
		resource = &c.loadBalancer.service
	case constants.ServiceOrchestration:
		resource = &c.orchestration.service
	default:
		return nil, fmt.Errorf("%w: %s", constants.ErrUnknownService, name)
	}

	if resource.httpClient == nil {
		return nil, fmt.Errorf("%w: %s", stackapi.ErrServiceUnavailable, name)
	}

	return resource.httpClient, nil
}

// loggerAdapter adapts stackapi.Logger to http.Logger.
type loggerAdapter struct {
	logger stackapi.Logger
}

func (l *loggerAdapter) Debug(msg string, fields map[string]interface{}) {
	l.logger.Debug(msg, fields)
}

func (l *loggerAdapter) Info(msg string, fields map[string]interface{}) {
	l.logger.Info(msg, fields)
}

func (l *loggerAdapter) Warn(msg string, fields map[string]interface{}) {
	l.logger.Warn(msg, fields)
}

func (l *loggerAdapter) Error(msg string, fields map[string]interface{}) {
	l.logger.Error(msg, fields)
}
