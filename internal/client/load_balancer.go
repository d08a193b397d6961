package client

import (
	"context"
	"fmt"

	"github.com/fivetwenty-io/stackapi/internal/constants"
	"github.com/fivetwenty-io/stackapi/internal/http"
	"github.com/fivetwenty-io/stackapi/pkg/normalize"
	"github.com/fivetwenty-io/stackapi/pkg/stackapi"
)

// LoadBalancerClient implements the stackapi.LoadBalancerClient interface.
//
// A load balancer rejects changes with 409 Conflict while a previous change is
// still provisioning, so every mutating call runs under the conflict retrier.
type LoadBalancerClient struct {
	service
	retrier *stackapi.ConflictRetrier
}

// NewLoadBalancerClient creates a new LoadBalancerClient.
func NewLoadBalancerClient(httpClient *http.Client, normalizer *normalize.Normalizer, retrier *stackapi.ConflictRetrier) *LoadBalancerClient {
	return &LoadBalancerClient{
		service: newService(constants.ServiceLoadBalancer, httpClient, normalizer),
		retrier: retrier,
	}
}

// ListPools lists pools.
func (c *LoadBalancerClient) ListPools(ctx context.Context, params *stackapi.ListParams) (*stackapi.PoolList, error) {
	resp, err := c.call(ctx, &http.Request{
		Method:       "GET",
		Path:         constants.APIPathPools,
		Query:        params.Query(),
		Require2xx:   true,
		RequiredPath: "pools",
		Operation:    c.operation("pools", "list"),
	})
	if err != nil {
		return nil, fmt.Errorf("listing pools: %w", err)
	}

	var list stackapi.PoolList

	err = c.decode(resp, TagPool, "pools", &list)
	if err != nil {
		return nil, err
	}

	return &list, nil
}

// CreatePool creates a pool.
func (c *LoadBalancerClient) CreatePool(ctx context.Context, req *stackapi.PoolCreateRequest) (*stackapi.Pool, error) {
	return stackapi.RetryOnConflict(ctx, c.retrier, func(ctx context.Context) (*stackapi.Pool, error) {
		resp, err := c.call(ctx, &http.Request{
			Method:       "POST",
			Path:         constants.APIPathPools,
			Body:         map[string]interface{}{"pool": req},
			Require2xx:   true,
			RequiredPath: "pool",
			Operation:    c.operation("pools", "create"),
		})
		if err != nil {
			return nil, fmt.Errorf("creating pool: %w", err)
		}

		return c.decodePool(resp)
	})
}

// UpdatePool updates a pool.
func (c *LoadBalancerClient) UpdatePool(ctx context.Context, id string, req *stackapi.PoolUpdateRequest) (*stackapi.Pool, error) {
	return stackapi.RetryOnConflict(ctx, c.retrier, func(ctx context.Context) (*stackapi.Pool, error) {
		resp, err := c.call(ctx, &http.Request{
			Method:       "PUT",
			Path:         constants.APIPathPools + "/" + id,
			Body:         map[string]interface{}{"pool": req},
			Require2xx:   true,
			RequiredPath: "pool",
			Operation:    c.operation("pools", "update"),
		})
		if err != nil {
			return nil, fmt.Errorf("updating pool: %w", err)
		}

		return c.decodePool(resp)
	})
}

// DeletePool deletes a pool.
func (c *LoadBalancerClient) DeletePool(ctx context.Context, id string) error {
	return c.retrier.Do(ctx, func(ctx context.Context) error {
		_, err := c.call(ctx, &http.Request{
			Method:     "DELETE",
			Path:       constants.APIPathPools + "/" + id,
			Require2xx: true,
			Operation:  c.operation("pools", "delete"),
		})
		if err != nil {
			return fmt.Errorf("deleting pool: %w", err)
		}

		return nil
	})
}

// CreateMember adds a member to a pool.
func (c *LoadBalancerClient) CreateMember(ctx context.Context, poolID string, req *stackapi.MemberCreateRequest) (*stackapi.Member, error) {
	return stackapi.RetryOnConflict(ctx, c.retrier, func(ctx context.Context) (*stackapi.Member, error) {
		resp, err := c.call(ctx, &http.Request{
			Method:       "POST",
			Path:         constants.APIPathPools + "/" + poolID + "/members",
			Body:         map[string]interface{}{"member": req},
			Require2xx:   true,
			RequiredPath: "member",
			Operation:    c.operation("members", "create"),
		})
		if err != nil {
			return nil, fmt.Errorf("creating pool member: %w", err)
		}

		var envelope struct {
			Member stackapi.Member `json:"member"`
		}

		err = c.decode(resp, TagMember, "member", &envelope)
		if err != nil {
			return nil, err
		}

		return &envelope.Member, nil
	})
}

func (c *LoadBalancerClient) decodePool(resp *http.Response) (*stackapi.Pool, error) {
	var envelope struct {
		Pool stackapi.Pool `json:"pool"`
	}

	err := c.decode(resp, TagPool, "pool", &envelope)
	if err != nil {
		return nil, err
	}

	return &envelope.Pool, nil
}
