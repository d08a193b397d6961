package stackapi

import (
	"context"
	"fmt"
	"time"

	"github.com/go-playground/validator/v10"

	"github.com/fivetwenty-io/stackapi/internal/constants"
	"github.com/fivetwenty-io/stackapi/pkg/normalize"
)

// Client provides access to every service client.
type Client interface {
	Identity() IdentityClient
	Images() ImagesClient
	Networking() NetworkingClient
	Compute() ComputeClient
	LoadBalancer() LoadBalancerClient
	Orchestration() OrchestrationClient
}

// IdentityClient issues tokens and reads the service catalog.
type IdentityClient interface {
	IssueToken(ctx context.Context, req *PasswordAuthRequest) (*Token, error)
	Catalog(ctx context.Context) ([]CatalogEntry, error)
}

// ImagesClient accesses the image service.
type ImagesClient interface {
	List(ctx context.Context, params *ListParams) (*ImageList, error)
	Get(ctx context.Context, id string) (*Image, error)
	Delete(ctx context.Context, id string) error
}

// NetworkingClient accesses the network service.
type NetworkingClient interface {
	ListNetworks(ctx context.Context, params *ListParams) (*NetworkList, error)
	GetNetwork(ctx context.Context, id string) (*Network, error)
}

// ComputeClient accesses the compute service.
type ComputeClient interface {
	ListServers(ctx context.Context, params *ListParams) (*ServerList, error)
	GetServer(ctx context.Context, id string) (*Server, error)
	GetConsole(ctx context.Context, id string, consoleType string) (*Console, error)
	Reboot(ctx context.Context, id string, hard bool) error
}

// LoadBalancerClient accesses the load-balancer service.
//
// Mutating calls are retried on 409 Conflict while the parent load balancer
// settles from a previous change.
type LoadBalancerClient interface {
	ListPools(ctx context.Context, params *ListParams) (*PoolList, error)
	CreatePool(ctx context.Context, req *PoolCreateRequest) (*Pool, error)
	UpdatePool(ctx context.Context, id string, req *PoolUpdateRequest) (*Pool, error)
	DeletePool(ctx context.Context, id string) error
	CreateMember(ctx context.Context, poolID string, req *MemberCreateRequest) (*Member, error)
}

// OrchestrationClient accesses the orchestration service.
type OrchestrationClient interface {
	ListStacks(ctx context.Context, params *ListParams) (*StackList, error)
	GetStack(ctx context.Context, name string, id string) (*Stack, error)
}

// Logger interface for logging.
type Logger interface {
	Debug(msg string, fields map[string]interface{})
	Info(msg string, fields map[string]interface{})
	Warn(msg string, fields map[string]interface{})
	Error(msg string, fields map[string]interface{})
}

// Endpoints holds the base URL of each service. Services left empty are
// unavailable; their clients fail with ErrServiceUnavailable.
type Endpoints struct {
	Identity      string `json:"identity"      mapstructure:"identity"      validate:"omitempty,url" yaml:"identity"`
	Image         string `json:"image"         mapstructure:"image"         validate:"omitempty,url" yaml:"image"`
	Network       string `json:"network"       mapstructure:"network"       validate:"omitempty,url" yaml:"network"`
	Compute       string `json:"compute"       mapstructure:"compute"       validate:"omitempty,url" yaml:"compute"`
	LoadBalancer  string `json:"load_balancer" mapstructure:"load_balancer" validate:"omitempty,url" yaml:"load_balancer"`
	Orchestration string `json:"orchestration" mapstructure:"orchestration" validate:"omitempty,url" yaml:"orchestration"`
}

// Lookup returns the base URL configured for a service name.
func (e Endpoints) Lookup(service string) string {
	switch service {
	case constants.ServiceIdentity:
		return e.Identity
	case constants.ServiceImage:
		return e.Image
	case constants.ServiceNetwork:
		return e.Network
	case constants.ServiceCompute:
		return e.Compute
	case constants.ServiceLoadBalancer:
		return e.LoadBalancer
	case constants.ServiceOrchestration:
		return e.Orchestration
	default:
		return ""
	}
}

// Set assigns the base URL of a service name. It reports false for unknown services.
func (e *Endpoints) Set(service, url string) bool {
	switch service {
	case constants.ServiceIdentity:
		e.Identity = url
	case constants.ServiceImage:
		e.Image = url
	case constants.ServiceNetwork:
		e.Network = url
	case constants.ServiceCompute:
		e.Compute = url
	case constants.ServiceLoadBalancer:
		e.LoadBalancer = url
	case constants.ServiceOrchestration:
		e.Orchestration = url
	default:
		return false
	}

	return true
}

// Empty reports whether no service endpoint is configured.
func (e Endpoints) Empty() bool {
	return e == Endpoints{}
}

// Config represents client configuration for building a stackapi.Client.
//
// # Authentication precedence
//
//  1. Token: used directly as the X-Auth-Token header value.
//  2. Username/Password: a token is issued by the identity service with the
//     password method and re-issued shortly before it expires.
//  3. No credentials: requests are sent without authentication.
//
// # Timeouts and retries
//
// HTTPTimeout bounds every remote call (20s when unset). The pipeline never
// retries on its own; only load-balancer mutations are retried, and only on
// 409 Conflict, ConflictRetryMax times with ConflictRetryDelay in between.
type Config struct {
	// Endpoints: base URL per service. stackclient.New trims trailing slashes
	// and adds https:// to scheme-less URLs.
	Endpoints Endpoints `validate:"required"`

	// Token: pre-issued identity token.
	Token string
	// Username and Password: credentials for password token issuance.
	Username string
	Password string `validate:"required_with=Username"`
	// ProjectName and DomainName scope issued tokens.
	ProjectName string
	DomainName  string
	// Region selects catalog endpoints during endpoint discovery. Empty
	// matches any region.
	Region string

	// UserName and RequestID are correlation fields reported to metrics sinks.
	// UserName defaults to Username.
	UserName  string
	RequestID string

	// HTTPTimeout: per-call timeout. Zero selects the 20s default.
	HTTPTimeout time.Duration `validate:"gte=0"`
	// ConflictRetryMax: retries granted to conflicting load-balancer mutations.
	// Zero selects the default of 5; use a negative value to disable retries.
	ConflictRetryMax int
	// ConflictRetryDelay: wait between conflict retries. Zero selects 2s.
	ConflictRetryDelay time.Duration `validate:"gte=0"`

	// Debug: logs every descriptor, raw body and status code through Logger.
	Debug bool
	// Logger: optional structured logger used by the HTTP layer and helpers.
	Logger Logger
	// Metrics: optional sink receiving one event per remote call.
	Metrics MetricsSink
	// UserAgent: overrides the default User-Agent header sent by the client.
	UserAgent string
	// Normalizer: optional response normalizer applied before typed decoding.
	Normalizer *normalize.Normalizer
}

// Validate checks the configuration.
func (c *Config) Validate() error {
	if c == nil {
		return ErrConfigRequired
	}

	if c.Endpoints.Empty() {
		return ErrEndpointRequired
	}

	validate := validator.New(validator.WithRequiredStructEnabled())

	err := validate.Struct(c)
	if err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidConfig, err)
	}

	return nil
}

// Retrier builds the conflict retrier described by the configuration.
func (c *Config) Retrier() *ConflictRetrier {
	opts := []RetryOption{}

	switch {
	case c.ConflictRetryMax < 0:
		opts = append(opts, WithMaxAttempts(0))
	case c.ConflictRetryMax > 0:
		opts = append(opts, WithMaxAttempts(c.ConflictRetryMax))
	}

	if c.ConflictRetryDelay > 0 {
		opts = append(opts, WithDelay(c.ConflictRetryDelay))
	}

	if c.Logger != nil {
		opts = append(opts, WithRetryLogger(c.Logger))
	}

	return NewConflictRetrier(opts...)
}
