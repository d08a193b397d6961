package client

import (
	"context"
	"fmt"

	"github.com/fivetwenty-io/stackapi/internal/constants"
	"github.com/fivetwenty-io/stackapi/internal/http"
	"github.com/fivetwenty-io/stackapi/pkg/normalize"
	"github.com/fivetwenty-io/stackapi/pkg/stackapi"
)

// IdentityClient implements the stackapi.IdentityClient interface.
type IdentityClient struct {
	service
	// public sends token issuance requests, which carry no token.
	public *http.Client
}

// NewIdentityClient creates a new IdentityClient. public issues tokens; authed
// serves every other call.
func NewIdentityClient(public, authed *http.Client, normalizer *normalize.Normalizer) *IdentityClient {
	return &IdentityClient{
		service: newService(constants.ServiceIdentity, authed, normalizer),
		public:  public,
	}
}

type passwordAuthBody struct {
	Auth struct {
		Identity struct {
			Methods  []string `json:"methods"`
			Password struct {
				User passwordUser `json:"user"`
			} `json:"password"`
		} `json:"identity"`
		Scope *authScope `json:"scope,omitempty"`
	} `json:"auth"`
}

type passwordUser struct {
	Name     string     `json:"name"`
	Password string     `json:"password"`
	Domain   domainName `json:"domain"`
}

type domainName struct {
	Name string `json:"name"`
}

type authScope struct {
	Project struct {
		Name   string     `json:"name"`
		Domain domainName `json:"domain"`
	} `json:"project"`
}

// IssueToken issues a token with the password method. The token value is read
// from the X-Subject-Token response header.
func (c *IdentityClient) IssueToken(ctx context.Context, req *stackapi.PasswordAuthRequest) (*stackapi.Token, error) {
	if c.public == nil {
		return nil, fmt.Errorf("%w: %s", stackapi.ErrServiceUnavailable, c.name)
	}

	domain := req.DomainName
	if domain == "" {
		domain = constants.DefaultDomainName
	}

	var body passwordAuthBody
	body.Auth.Identity.Methods = []string{"password"}
	body.Auth.Identity.Password.User = passwordUser{
		Name:     req.Username,
		Password: req.Password,
		Domain:   domainName{Name: domain},
	}

	if req.ProjectName != "" {
		scope := &authScope{}
		scope.Project.Name = req.ProjectName
		scope.Project.Domain = domainName{Name: domain}
		body.Auth.Scope = scope
	}

	resp, err := c.public.Call(ctx, &http.Request{
		Method:       "POST",
		Path:         constants.APIPathAuthTokens,
		Body:         body,
		Require2xx:   true,
		RequiredPath: "token",
		Operation:    c.operation("tokens", "create"),
		UserName:     req.Username,
	})
	if err != nil {
		return nil, fmt.Errorf("issuing token: %w", err)
	}

	var envelope struct {
		Token stackapi.Token `json:"token"`
	}

	err = c.decode(resp, TagToken, "token", &envelope)
	if err != nil {
		return nil, err
	}

	envelope.Token.ID = resp.Header(constants.HeaderSubjectToken)
	if envelope.Token.ID == "" {
		return nil, constants.ErrNoSubjectToken
	}

	return &envelope.Token, nil
}

// Catalog returns the service catalog of the current token.
func (c *IdentityClient) Catalog(ctx context.Context) ([]stackapi.CatalogEntry, error) {
	resp, err := c.call(ctx, &http.Request{
		Method:       "GET",
		Path:         constants.APIPathAuthCatalog,
		Require2xx:   true,
		RequiredPath: "catalog",
		Operation:    c.operation("catalog", "get"),
	})
	if err != nil {
		return nil, fmt.Errorf("getting catalog: %w", err)
	}

	var envelope struct {
		Catalog []stackapi.CatalogEntry `json:"catalog"`
	}

	err = c.decode(resp, TagCatalog, "catalog", &envelope)
	if err != nil {
		return nil, err
	}

	return envelope.Catalog, nil
}
