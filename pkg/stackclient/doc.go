// Package stackclient provides the main entry point for creating control-plane
// API clients.
//
// A client needs the base URL of every service it talks to. When only the
// identity endpoint is configured, New discovers the others from the service
// catalog of the authenticated token:
//
//	client, err := stackclient.NewWithPassword(ctx, "https://keystone.example.com/v3", "admin", "secret")
//	if err != nil {
//		return err
//	}
//
//	servers, err := client.Compute().ListServers(ctx, nil)
//
// Endpoints may also be given explicitly, in which case no discovery happens:
//
//	client, err := stackclient.New(ctx, &stackapi.Config{
//		Endpoints: stackapi.Endpoints{
//			Compute:      "nova.example.com/v2.1",
//			LoadBalancer: "https://octavia.example.com",
//		},
//		Token: token,
//	})
//
// Endpoints without a scheme get https://, and trailing slashes are trimmed.
package stackclient
