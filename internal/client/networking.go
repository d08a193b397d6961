package client

import (
	"context"
	"fmt"

	"github.com/fivetwenty-io/stackapi/internal/constants"
	"github.com/fivetwenty-io/stackapi/internal/http"
	"github.com/fivetwenty-io/stackapi/pkg/normalize"
	"github.com/fivetwenty-io/stackapi/pkg/stackapi"
)

// NetworkingClient implements the stackapi.NetworkingClient interface.
type NetworkingClient struct {
	service
}

// NewNetworkingClient creates a new NetworkingClient.
func NewNetworkingClient(httpClient *http.Client, normalizer *normalize.Normalizer) *NetworkingClient {
	return &NetworkingClient{service: newService(constants.ServiceNetwork, httpClient, normalizer)}
}

// ListNetworks lists networks.
func (c *NetworkingClient) ListNetworks(ctx context.Context, params *stackapi.ListParams) (*stackapi.NetworkList, error) {
	resp, err := c.call(ctx, &http.Request{
		Method:       "GET",
		Path:         constants.APIPathNetworks,
		Query:        params.Query(),
		Require2xx:   true,
		RequiredPath: "networks",
		Operation:    c.operation("networks", "list"),
	})
	if err != nil {
		return nil, fmt.Errorf("listing networks: %w", err)
	}

	var list stackapi.NetworkList

	err = c.decode(resp, TagNetwork, "networks", &list)
	if err != nil {
		return nil, err
	}

	return &list, nil
}

// GetNetwork retrieves a specific network.
func (c *NetworkingClient) GetNetwork(ctx context.Context, id string) (*stackapi.Network, error) {
	resp, err := c.call(ctx, &http.Request{
		Method:       "GET",
		Path:         constants.APIPathNetworks + "/" + id,
		Require2xx:   true,
		RequiredPath: "network",
		Operation:    c.operation("networks", "get"),
	})
	if err != nil {
		return nil, fmt.Errorf("getting network: %w", err)
	}

	var envelope struct {
		Network stackapi.Network `json:"network"`
	}

	err = c.decode(resp, TagNetwork, "network", &envelope)
	if err != nil {
		return nil, err
	}

	return &envelope.Network, nil
}
