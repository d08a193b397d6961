package client

import (
	"context"
	"fmt"

	"github.com/fivetwenty-io/stackapi/internal/constants"
	"github.com/fivetwenty-io/stackapi/internal/http"
	"github.com/fivetwenty-io/stackapi/pkg/normalize"
	"github.com/fivetwenty-io/stackapi/pkg/stackapi"
)

// ImagesClient implements the stackapi.ImagesClient interface.
type ImagesClient struct {
	service
}

// NewImagesClient creates a new ImagesClient.
func NewImagesClient(httpClient *http.Client, normalizer *normalize.Normalizer) *ImagesClient {
	return &ImagesClient{service: newService(constants.ServiceImage, httpClient, normalizer)}
}

// List lists images.
func (c *ImagesClient) List(ctx context.Context, params *stackapi.ListParams) (*stackapi.ImageList, error) {
	resp, err := c.call(ctx, &http.Request{
		Method:       "GET",
		Path:         constants.APIPathImages,
		Query:        params.Query(),
		Require2xx:   true,
		RequiredPath: "images",
		Operation:    c.operation("images", "list"),
	})
	if err != nil {
		return nil, fmt.Errorf("listing images: %w", err)
	}

	var list stackapi.ImageList

	err = c.decode(resp, TagImage, "images", &list)
	if err != nil {
		return nil, err
	}

	return &list, nil
}

// Get retrieves a specific image.
func (c *ImagesClient) Get(ctx context.Context, id string) (*stackapi.Image, error) {
	resp, err := c.call(ctx, &http.Request{
		Method:       "GET",
		Path:         constants.APIPathImages + "/" + id,
		Require2xx:   true,
		RequiredPath: "id",
		Operation:    c.operation("images", "get"),
	})
	if err != nil {
		return nil, fmt.Errorf("getting image: %w", err)
	}

	var image stackapi.Image

	err = c.decode(resp, TagImage, "", &image)
	if err != nil {
		return nil, err
	}

	return &image, nil
}

// Delete deletes an image.
func (c *ImagesClient) Delete(ctx context.Context, id string) error {
	_, err := c.call(ctx, &http.Request{
		Method:     "DELETE",
		Path:       constants.APIPathImages + "/" + id,
		Require2xx: true,
		Operation:  c.operation("images", "delete"),
	})
	if err != nil {
		return fmt.Errorf("deleting image: %w", err)
	}

	return nil
}
