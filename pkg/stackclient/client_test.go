package stackclient_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fivetwenty-io/stackapi/pkg/stackapi"
	"github.com/fivetwenty-io/stackapi/pkg/stackclient"
)

func writeJSON(w http.ResponseWriter, status int, body interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}

// newCloud serves identity, a catalog pointing back at itself and a compute service.
func newCloud(t *testing.T, issued *atomic.Int32) *httptest.Server {
	t.Helper()

	var server *httptest.Server

	server = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/identity/auth/tokens":
			issued.Add(1)
			w.Header().Set("X-Subject-Token", "issued-token")
			writeJSON(w, http.StatusCreated, map[string]interface{}{
				"token": map[string]interface{}{"expires_at": "2099-01-01T00:00:00Z", "methods": []string{"password"}},
			})
		case "/identity/auth/catalog":
			if r.Header.Get("X-Auth-Token") == "" {
				writeJSON(w, http.StatusUnauthorized, map[string]interface{}{
					"error": map[string]interface{}{"code": 401, "message": "The request you have made requires authentication."},
				})

				return
			}

			writeJSON(w, http.StatusOK, map[string]interface{}{
				"catalog": []map[string]interface{}{
					{
						"type": "compute",
						"name": "nova",
						"endpoints": []map[string]string{
							{"interface": "internal", "region": "RegionOne", "url": "http://internal.invalid/compute"},
							{"interface": "public", "region": "RegionTwo", "url": "http://region-two.invalid/compute"},
							{"interface": "public", "region": "RegionOne", "url": server.URL + "/compute/"},
						},
					},
					{
						"type":      "object-store",
						"name":      "swift",
						"endpoints": []map[string]string{{"interface": "public", "region": "RegionOne", "url": server.URL + "/swift"}},
					},
				},
			})
		case "/compute/servers/detail":
			assert.Equal(t, "issued-token", r.Header.Get("X-Auth-Token"))
			writeJSON(w, http.StatusOK, map[string]interface{}{
				"servers": []map[string]string{{"id": "srv-1", "name": "web-1"}},
			})
		default:
			w.WriteHeader(http.StatusNotFound)
		}
	}))
	t.Cleanup(server.Close)

	return server
}

func TestNew(t *testing.T) {
	t.Parallel()

	t.Run("nil config", func(t *testing.T) {
		t.Parallel()

		_, err := stackclient.New(context.Background(), nil)
		require.ErrorIs(t, err, stackapi.ErrConfigRequired)
	})

	t.Run("no endpoints", func(t *testing.T) {
		t.Parallel()

		_, err := stackclient.New(context.Background(), &stackapi.Config{Token: "t"})
		require.ErrorIs(t, err, stackapi.ErrEndpointRequired)
	})

	t.Run("explicit endpoints are normalized", func(t *testing.T) {
		t.Parallel()

		config := &stackapi.Config{
			Endpoints: stackapi.Endpoints{Compute: "nova.example.com/v2.1/"},
		}

		client, err := stackclient.New(context.Background(), config)
		require.NoError(t, err)
		assert.NotNil(t, client)
		assert.Equal(t, "nova.example.com/v2.1/", config.Endpoints.Compute, "caller config must not change")
	})
}

func TestNew_DiscoversEndpoints(t *testing.T) {
	t.Parallel()

	var issued atomic.Int32

	server := newCloud(t, &issued)

	client, err := stackclient.New(context.Background(), &stackapi.Config{
		Endpoints: stackapi.Endpoints{Identity: server.URL + "/identity"},
		Username:  "admin",
		Password:  "secret",
		Region:    "RegionOne",
	})
	require.NoError(t, err)

	list, err := client.Compute().ListServers(context.Background(), nil)
	require.NoError(t, err)
	require.Len(t, list.Servers, 1)
	assert.Equal(t, "web-1", list.Servers[0].Name)

	// The discovery token is reused.
	assert.Equal(t, int32(1), issued.Load())

	// Services missing from the catalog stay unavailable.
	_, err = client.Images().List(context.Background(), nil)
	require.ErrorIs(t, err, stackapi.ErrServiceUnavailable)
}

func TestNewWithToken(t *testing.T) {
	t.Parallel()

	var issued atomic.Int32

	server := newCloud(t, &issued)

	_, err := stackclient.NewWithToken(context.Background(), server.URL+"/identity", "issued-token")
	require.NoError(t, err)
	assert.Equal(t, int32(0), issued.Load())
}

func TestNew_DiscoveryFailure(t *testing.T) {
	t.Parallel()

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, http.StatusForbidden, map[string]interface{}{
			"error": map[string]interface{}{"code": 403, "message": "You are not authorized to perform the requested action."},
		})
	}))
	t.Cleanup(server.Close)

	_, err := stackclient.NewWithToken(context.Background(), server.URL, "token")
	require.Error(t, err)
	assert.True(t, stackapi.IsForbidden(err))
	assert.Contains(t, err.Error(), "discovering service endpoints")
}

func TestNewWithEndpoints(t *testing.T) {
	t.Parallel()

	client, err := stackclient.NewWithEndpoints(context.Background(), stackapi.Endpoints{
		Image: "https://glance.example.com",
	})
	require.NoError(t, err)
	assert.NotNil(t, client)
}

func TestNormalizeEndpoint(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name     string
		endpoint string
		want     string
	}{
		{name: "empty", endpoint: "", want: ""},
		{name: "blank", endpoint: "   ", want: ""},
		{name: "no scheme", endpoint: "nova.example.com", want: "https://nova.example.com"},
		{name: "trailing slashes", endpoint: "https://nova.example.com/v2.1//", want: "https://nova.example.com/v2.1"},
		{name: "http kept", endpoint: "http://localhost:8774", want: "http://localhost:8774"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			assert.Equal(t, tt.want, stackclient.NormalizeEndpoint(tt.endpoint))
		})
	}
}

func TestNormalizeEndpoints(t *testing.T) {
	t.Parallel()

	endpoints := stackclient.NormalizeEndpoints(stackapi.Endpoints{
		Identity:      "keystone.example.com/v3/",
		Orchestration: "http://heat.example.com/",
	})

	assert.Equal(t, stackapi.Endpoints{
		Identity:      "https://keystone.example.com/v3",
		Orchestration: "http://heat.example.com",
	}, endpoints)
}

func TestEndpointsFromCatalog(t *testing.T) {
	t.Parallel()

	catalog := []stackapi.CatalogEntry{
		{
			Type: "image",
			Endpoints: []stackapi.CatalogEndpoint{
				{Interface: "admin", Region: "RegionOne", URL: "https://glance-admin.example.com"},
				{Interface: "public", Region: "RegionOne", URL: "glance.example.com/"},
			},
		},
		{
			Type:      "compute",
			Endpoints: []stackapi.CatalogEndpoint{{Interface: "public", Region: "RegionOne", URL: "https://other.example.com"}},
		},
		{
			Type:      "volumev3",
			Endpoints: []stackapi.CatalogEndpoint{{Interface: "public", Region: "RegionOne", URL: "https://cinder.example.com"}},
		},
	}

	known := stackapi.Endpoints{Compute: "https://nova.example.com"}

	got := stackclient.EndpointsFromCatalog(catalog, known, "")
	assert.Equal(t, stackapi.Endpoints{
		Image:   "https://glance.example.com",
		Compute: "https://nova.example.com",
	}, got)

	got = stackclient.EndpointsFromCatalog(catalog, stackapi.Endpoints{}, "RegionTwo")
	assert.True(t, got.Empty())
}
