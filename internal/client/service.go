package client

import (
	"context"
	"encoding/json"
	"fmt"
	"maps"

	"github.com/fivetwenty-io/stackapi/internal/constants"
	"github.com/fivetwenty-io/stackapi/internal/http"
	"github.com/fivetwenty-io/stackapi/pkg/normalize"
	"github.com/fivetwenty-io/stackapi/pkg/stackapi"
)

// Normalizer type tags, one per decoded resource.
const (
	TagToken   = "token"
	TagCatalog = "catalog"
	TagImage   = "image"
	TagNetwork = "network"
	TagServer  = "server"
	TagConsole = "console"
	TagPool    = "pool"
	TagMember  = "member"
	TagStack   = "stack"
)

// service is the plumbing shared by every service client.
type service struct {
	name       string
	httpClient *http.Client
	normalizer *normalize.Normalizer
}

func newService(name string, httpClient *http.Client, normalizer *normalize.Normalizer) service {
	return service{name: name, httpClient: httpClient, normalizer: normalizer}
}

// operation names a call as remote-calls.<service>.<resource>.<verb>.
func (s *service) operation(resource, verb string) string {
	return constants.OperationPrefix + "." + s.name + "." + resource + "." + verb
}

func (s *service) call(ctx context.Context, req *http.Request) (*http.Response, error) {
	if s.httpClient == nil {
		return nil, fmt.Errorf("%w: %s", stackapi.ErrServiceUnavailable, s.name)
	}

	return s.httpClient.Call(ctx, req)
}

// decode unmarshals the payload into v after normalizing the value under key
// (the whole payload when key is empty) with the tag's table.
func (s *service) decode(resp *http.Response, tag, key string, v interface{}) error {
	payload := resp.Body

	if s.normalizer.Has(tag) {
		normalized, err := s.normalize(resp.Data, tag, key)
		if err != nil {
			return err
		}

		if normalized != nil {
			payload = normalized
		}
	}

	err := json.Unmarshal(payload, v)
	if err != nil {
		return fmt.Errorf("parsing %s response: %w", tag, err)
	}

	return nil
}

func (s *service) normalize(data interface{}, tag, key string) ([]byte, error) {
	envelope, ok := data.(map[string]interface{})
	if !ok {
		return nil, nil
	}

	var value interface{}

	if key == "" {
		value = s.normalizer.Normalize(tag, envelope)
	} else {
		copied := maps.Clone(envelope)
		copied[key] = s.normalizer.NormalizeValue(tag, envelope[key])
		value = copied
	}

	encoded, err := json.Marshal(value)
	if err != nil {
		return nil, fmt.Errorf("encoding normalized %s: %w", tag, err)
	}

	return encoded, nil
}
