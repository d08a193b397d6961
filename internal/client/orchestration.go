package client

import (
	"context"
	"fmt"

	"github.com/fivetwenty-io/stackapi/internal/constants"
	"github.com/fivetwenty-io/stackapi/internal/http"
	"github.com/fivetwenty-io/stackapi/pkg/normalize"
	"github.com/fivetwenty-io/stackapi/pkg/stackapi"
)

// OrchestrationClient implements the stackapi.OrchestrationClient interface.
type OrchestrationClient struct {
	service
}

// NewOrchestrationClient creates a new OrchestrationClient.
func NewOrchestrationClient(httpClient *http.Client, normalizer *normalize.Normalizer) *OrchestrationClient {
	return &OrchestrationClient{service: newService(constants.ServiceOrchestration, httpClient, normalizer)}
}

// ListStacks lists stacks.
func (c *OrchestrationClient) ListStacks(ctx context.Context, params *stackapi.ListParams) (*stackapi.StackList, error) {
	resp, err := c.call(ctx, &http.Request{
		Method:       "GET",
		Path:         constants.APIPathStacks,
		Query:        params.Query(),
		Require2xx:   true,
		RequiredPath: "stacks",
		Operation:    c.operation("stacks", "list"),
	})
	if err != nil {
		return nil, fmt.Errorf("listing stacks: %w", err)
	}

	var list stackapi.StackList

	err = c.decode(resp, TagStack, "stacks", &list)
	if err != nil {
		return nil, err
	}

	return &list, nil
}

// GetStack retrieves a stack by name and id.
func (c *OrchestrationClient) GetStack(ctx context.Context, name string, id string) (*stackapi.Stack, error) {
	resp, err := c.call(ctx, &http.Request{
		Method:       "GET",
		Path:         constants.APIPathStacks + "/" + name + "/" + id,
		Require2xx:   true,
		RequiredPath: "stack",
		Operation:    c.operation("stacks", "get"),
	})
	if err != nil {
		return nil, fmt.Errorf("getting stack: %w", err)
	}

	var envelope struct {
		Stack stackapi.Stack `json:"stack"`
	}

	err = c.decode(resp, TagStack, "stack", &envelope)
	if err != nil {
		return nil, err
	}

	return &envelope.Stack, nil
}
