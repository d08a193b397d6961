package constants

import "time"

// File and directory permissions.
const (
	// ConfigDirPerm is the permission for configuration directories.
	ConfigDirPerm = 0750

	// ConfigFilePerm is the permission for configuration files.
	ConfigFilePerm = 0600
)

// HTTP and network timeouts.
const (
	// DefaultRequestTimeout is applied to a remote call whose descriptor carries no timeout.
	DefaultRequestTimeout = 20 * time.Second

	// ShortHTTPTimeout bounds endpoint discovery, token issuance included.
	ShortHTTPTimeout = 10 * time.Second
)

// Conflict retry defaults.
const (
	// DefaultConflictRetryMax is the number of retries granted to a unit of work
	// that keeps failing with 409 Conflict.
	DefaultConflictRetryMax = 5

	// DefaultConflictRetryDelay is the fixed wait between conflict retries.
	DefaultConflictRetryDelay = 2000 * time.Millisecond
)

// Remote error normalization.
const (
	// RemoteErrorCode is the machine code carried by every normalized remote error.
	RemoteErrorCode = "REMOTEERROR"

	// Indeterminable is reported for remote error details that cannot be derived.
	Indeterminable = "indeterminable"

	// RemoteDumpLimit bounds the stringified body used as a last-resort remote message.
	RemoteDumpLimit = 150

	// ElapsedPrecision is the rounding applied to measured response times.
	ElapsedPrecision = time.Millisecond
)

// HTTP headers.
const (
	// HeaderAuthToken carries the identity token on every authenticated call.
	HeaderAuthToken = "X-Auth-Token"

	// HeaderSubjectToken carries a freshly issued token in identity responses.
	HeaderSubjectToken = "X-Subject-Token"

	// HeaderRequestID carries the caller supplied request id.
	HeaderRequestID = "X-Openstack-Request-Id"

	// HeaderUserAgent is the standard user agent header.
	HeaderUserAgent = "User-Agent"

	// DefaultUserAgent is sent when the configuration does not override it.
	DefaultUserAgent = "stackapi-go"
)

// Service names, used for endpoint lookup and operation names.
const (
	ServiceIdentity      = "identity"
	ServiceImage         = "image"
	ServiceNetwork       = "network"
	ServiceCompute       = "compute"
	ServiceLoadBalancer  = "load-balancer"
	ServiceOrchestration = "orchestration"
)

// CatalogInterfacePublic is the catalog endpoint interface used for discovery.
const CatalogInterfacePublic = "public"

// OperationPrefix starts every operation name reported to metrics sinks.
const OperationPrefix = "remote-calls"

// API paths, relative to the service endpoint as published in the catalog.
const (
	APIPathAuthTokens  = "/auth/tokens"
	APIPathAuthCatalog = "/auth/catalog"
	APIPathImages      = "/v2/images"
	APIPathNetworks    = "/v2.0/networks"
	APIPathServers     = "/servers"
	APIPathPools       = "/v2/lbaas/pools"
	APIPathStacks      = "/stacks"
)

// Console types accepted by the compute console action.
const (
	ConsoleNoVNC      = "novnc"
	ConsoleXVPVNC     = "xvpvnc"
	ConsoleSpiceHTML5 = "spice-html5"
	ConsoleRDPHTML5   = "rdp-html5"
	ConsoleSerial     = "serial"
)

// Token handling.
const (
	// TokenExpirationBuffer is the buffer time before token expiration.
	TokenExpirationBuffer = 30 * time.Second

	// DefaultDomainName is used for password authentication when no domain is configured.
	DefaultDomainName = "Default"
)

// UI and display constants.
const (
	// NotAvailable is used when information is not available.
	NotAvailable = "N/A"

	// MaskedSecret is used to hide sensitive information.
	MaskedSecret = "***"

	// CheckMarkSymbol is used to indicate current/active items.
	CheckMarkSymbol = "✓"
)

// Format constants.
const (
	// FormatJSON for JSON output format.
	FormatJSON = "json"

	// FormatYAML for YAML output format.
	FormatYAML = "yaml"

	// FormatTable for table output format.
	FormatTable = "table"
)

// Metrics defaults.
const (
	// DefaultMetricsSubject is the NATS subject call metrics are published on.
	DefaultMetricsSubject = "stackapi.remote-calls"

	// MetricsNamespace prefixes Prometheus metric names.
	MetricsNamespace = "stackapi"
)
