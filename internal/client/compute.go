package client

import (
	"context"
	"fmt"

	"github.com/fivetwenty-io/stackapi/internal/constants"
	"github.com/fivetwenty-io/stackapi/internal/http"
	"github.com/fivetwenty-io/stackapi/pkg/normalize"
	"github.com/fivetwenty-io/stackapi/pkg/stackapi"
)

// consoleActions maps console types to their server action.
var consoleActions = map[string]string{
	constants.ConsoleNoVNC:      "os-getVNCConsole",
	constants.ConsoleXVPVNC:     "os-getVNCConsole",
	constants.ConsoleSpiceHTML5: "os-getSPICEConsole",
	constants.ConsoleRDPHTML5:   "os-getRDPConsole",
	constants.ConsoleSerial:     "os-getSerialConsole",
}

// ComputeClient implements the stackapi.ComputeClient interface.
type ComputeClient struct {
	service
}

// NewComputeClient creates a new ComputeClient.
func NewComputeClient(httpClient *http.Client, normalizer *normalize.Normalizer) *ComputeClient {
	return &ComputeClient{service: newService(constants.ServiceCompute, httpClient, normalizer)}
}

// ListServers lists servers with details.
func (c *ComputeClient) ListServers(ctx context.Context, params *stackapi.ListParams) (*stackapi.ServerList, error) {
	resp, err := c.call(ctx, &http.Request{
		Method:       "GET",
		Path:         constants.APIPathServers + "/detail",
		Query:        params.Query(),
		Require2xx:   true,
		RequiredPath: "servers",
		Operation:    c.operation("servers", "list"),
	})
	if err != nil {
		return nil, fmt.Errorf("listing servers: %w", err)
	}

	var list stackapi.ServerList

	err = c.decode(resp, TagServer, "servers", &list)
	if err != nil {
		return nil, err
	}

	return &list, nil
}

// GetServer retrieves a specific server.
func (c *ComputeClient) GetServer(ctx context.Context, id string) (*stackapi.Server, error) {
	resp, err := c.call(ctx, &http.Request{
		Method:       "GET",
		Path:         constants.APIPathServers + "/" + id,
		Require2xx:   true,
		RequiredPath: "server",
		Operation:    c.operation("servers", "get"),
	})
	if err != nil {
		return nil, fmt.Errorf("getting server: %w", err)
	}

	var envelope struct {
		Server stackapi.Server `json:"server"`
	}

	err = c.decode(resp, TagServer, "server", &envelope)
	if err != nil {
		return nil, err
	}

	return &envelope.Server, nil
}

// GetConsole requests a remote console URL for a server.
func (c *ComputeClient) GetConsole(ctx context.Context, id string, consoleType string) (*stackapi.Console, error) {
	if consoleType == "" {
		consoleType = constants.ConsoleNoVNC
	}

	action, ok := consoleActions[consoleType]
	if !ok {
		return nil, fmt.Errorf("%w: %s", constants.ErrUnknownConsole, consoleType)
	}

	resp, err := c.call(ctx, &http.Request{
		Method:       "POST",
		Path:         constants.APIPathServers + "/" + id + "/action",
		Body:         map[string]interface{}{action: map[string]string{"type": consoleType}},
		Require2xx:   true,
		RequiredPath: "console.url",
		Operation:    c.operation("servers", "console"),
	})
	if err != nil {
		return nil, fmt.Errorf("getting server console: %w", err)
	}

	var envelope struct {
		Console stackapi.Console `json:"console"`
	}

	err = c.decode(resp, TagConsole, "console", &envelope)
	if err != nil {
		return nil, err
	}

	return &envelope.Console, nil
}

// Reboot reboots a server. hard selects a power-cycle over a graceful restart.
func (c *ComputeClient) Reboot(ctx context.Context, id string, hard bool) error {
	rebootType := "SOFT"
	if hard {
		rebootType = "HARD"
	}

	_, err := c.call(ctx, &http.Request{
		Method:     "POST",
		Path:       constants.APIPathServers + "/" + id + "/action",
		Body:       map[string]interface{}{"reboot": map[string]string{"type": rebootType}},
		Require2xx: true,
		Operation:  c.operation("servers", "reboot"),
	})
	if err != nil {
		return fmt.Errorf("rebooting server: %w", err)
	}

	return nil
}
