package stackclient

import (
	"context"
	"fmt"
	"strings"

	"github.com/fivetwenty-io/stackapi/internal/client"
	"github.com/fivetwenty-io/stackapi/internal/constants"
	"github.com/fivetwenty-io/stackapi/pkg/stackapi"
)

// serviceNames lists every service with a configurable endpoint.
var serviceNames = []string{
	constants.ServiceIdentity,
	constants.ServiceImage,
	constants.ServiceNetwork,
	constants.ServiceCompute,
	constants.ServiceLoadBalancer,
	constants.ServiceOrchestration,
}

// New creates a new API client. The caller's config is not modified.
func New(ctx context.Context, config *stackapi.Config) (stackapi.Client, error) {
	if config == nil {
		return nil, stackapi.ErrConfigRequired
	}

	normalized := *config
	normalized.Endpoints = NormalizeEndpoints(config.Endpoints)

	c, err := client.New(ctx, &normalized)
	if err != nil {
		return nil, fmt.Errorf("failed to create new client: %w", err)
	}

	if !needsDiscovery(&normalized) {
		return c, nil
	}

	endpoints, err := discoverEndpoints(ctx, c.Identity(), normalized.Endpoints, normalized.Region)
	if err != nil {
		return nil, fmt.Errorf("discovering service endpoints: %w", err)
	}

	normalized.Endpoints = endpoints

	// Reuse the token manager so the discovered client does not issue a second token.
	c, err = client.NewWithTokenManager(&normalized, c.GetTokenManager())
	if err != nil {
		return nil, fmt.Errorf("failed to create new client: %w", err)
	}

	return c, nil
}

// NormalizeEndpoint trims trailing slashes and adds https:// to a URL without a scheme.
func NormalizeEndpoint(endpoint string) string {
	endpoint = strings.TrimRight(strings.TrimSpace(endpoint), "/")
	if endpoint == "" {
		return ""
	}

	if !strings.HasPrefix(endpoint, "http://") && !strings.HasPrefix(endpoint, "https://") {
		endpoint = "https://" + endpoint
	}

	return endpoint
}

// NormalizeEndpoints applies NormalizeEndpoint to every configured service.
func NormalizeEndpoints(endpoints stackapi.Endpoints) stackapi.Endpoints {
	var out stackapi.Endpoints

	for _, name := range serviceNames {
		out.Set(name, NormalizeEndpoint(endpoints.Lookup(name)))
	}

	return out
}

// needsDiscovery reports whether only the identity endpoint is configured and
// there are credentials to read the catalog with.
func needsDiscovery(config *stackapi.Config) bool {
	if config.Endpoints.Identity == "" {
		return false
	}

	if config.Token == "" && config.Username == "" {
		return false
	}

	return config.Endpoints == stackapi.Endpoints{Identity: config.Endpoints.Identity}
}

// discoverEndpoints reads the catalog and fills the endpoints missing from known.
func discoverEndpoints(ctx context.Context, identity stackapi.IdentityClient, known stackapi.Endpoints, region string) (stackapi.Endpoints, error) {
	ctx, cancel := context.WithTimeout(ctx, constants.ShortHTTPTimeout)
	defer cancel()

	catalog, err := identity.Catalog(ctx)
	if err != nil {
		return known, err
	}

	return EndpointsFromCatalog(catalog, known, region), nil
}

// EndpointsFromCatalog fills the endpoints missing from known with the public
// catalog endpoints of the region. An empty region matches any region;
// catalog services without a client are ignored.
func EndpointsFromCatalog(catalog []stackapi.CatalogEntry, known stackapi.Endpoints, region string) stackapi.Endpoints {
	endpoints := known

	for _, entry := range catalog {
		if endpoints.Lookup(entry.Type) != "" {
			continue
		}

		for _, endpoint := range entry.Endpoints {
			if endpoint.Interface != constants.CatalogInterfacePublic {
				continue
			}

			if region != "" && endpoint.Region != region {
				continue
			}

			endpoints.Set(entry.Type, NormalizeEndpoint(endpoint.URL))

			break
		}
	}

	return endpoints
}

// NewWithEndpoints creates a new client for explicit endpoints without authentication.
func NewWithEndpoints(ctx context.Context, endpoints stackapi.Endpoints) (stackapi.Client, error) {
	return New(ctx, &stackapi.Config{
		Endpoints: endpoints,
	})
}

// NewWithToken creates a new client from an identity endpoint and a
// pre-issued token, discovering the other endpoints.
func NewWithToken(ctx context.Context, identityEndpoint, token string) (stackapi.Client, error) {
	return New(ctx, &stackapi.Config{
		Endpoints: stackapi.Endpoints{Identity: identityEndpoint},
		Token:     token,
	})
}

// NewWithPassword creates a new client using username/password
// authentication, discovering the other endpoints.
func NewWithPassword(ctx context.Context, identityEndpoint, username, password string) (stackapi.Client, error) {
	return New(ctx, &stackapi.Config{
		Endpoints: stackapi.Endpoints{Identity: identityEndpoint},
		Username:  username,
		Password:  password,
	})
}
