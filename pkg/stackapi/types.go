package stackapi

import (
	"net/url"
	"strconv"
	"time"
)

// Link represents a pagination or resource link, passed through as returned.
type Link struct {
	Href string `json:"href"          yaml:"href"`
	Rel  string `json:"rel,omitempty" yaml:"rel,omitempty"`
}

// ListParams holds common list options. Filters are sent as query parameters.
type ListParams struct {
	Limit   int
	Marker  string
	Filters map[string]string
}

// Query encodes the parameters as URL query values.
func (p *ListParams) Query() url.Values {
	values := url.Values{}
	if p == nil {
		return values
	}

	if p.Limit > 0 {
		values.Set("limit", strconv.Itoa(p.Limit))
	}

	if p.Marker != "" {
		values.Set("marker", p.Marker)
	}

	for key, value := range p.Filters {
		values.Set(key, value)
	}

	return values
}

// PasswordAuthRequest holds password credentials for token issuance.
type PasswordAuthRequest struct {
	Username    string
	Password    string
	DomainName  string
	ProjectName string
}

// Token represents an issued identity token.
type Token struct {
	ID        string         `json:"-"                 yaml:"-"`
	ExpiresAt time.Time      `json:"expires_at"        yaml:"expires_at"`
	IssuedAt  time.Time      `json:"issued_at"         yaml:"issued_at"`
	Methods   []string       `json:"methods"           yaml:"methods"`
	User      TokenUser      `json:"user"              yaml:"user"`
	Project   *TokenProject  `json:"project,omitempty" yaml:"project,omitempty"`
	Catalog   []CatalogEntry `json:"catalog,omitempty" yaml:"catalog,omitempty"`
}

// TokenUser identifies the token owner.
type TokenUser struct {
	ID   string `json:"id"   yaml:"id"`
	Name string `json:"name" yaml:"name"`
}

// TokenProject identifies the project a token is scoped to.
type TokenProject struct {
	ID   string `json:"id"   yaml:"id"`
	Name string `json:"name" yaml:"name"`
}

// CatalogEntry is one service of the identity catalog.
type CatalogEntry struct {
	ID        string            `json:"id"        yaml:"id"`
	Type      string            `json:"type"      yaml:"type"`
	Name      string            `json:"name"      yaml:"name"`
	Endpoints []CatalogEndpoint `json:"endpoints" yaml:"endpoints"`
}

// CatalogEndpoint is one endpoint of a catalog service.
type CatalogEndpoint struct {
	ID        string `json:"id"        yaml:"id"`
	Interface string `json:"interface" yaml:"interface"`
	Region    string `json:"region"    yaml:"region"`
	URL       string `json:"url"       yaml:"url"`
}

// Image represents an image service image.
type Image struct {
	ID              string    `json:"id"               yaml:"id"`
	Name            string    `json:"name"             yaml:"name"`
	Status          string    `json:"status"           yaml:"status"`
	Visibility      string    `json:"visibility"       yaml:"visibility"`
	DiskFormat      string    `json:"disk_format"      yaml:"disk_format"`
	ContainerFormat string    `json:"container_format" yaml:"container_format"`
	Size            int64     `json:"size"             yaml:"size"`
	MinDisk         int       `json:"min_disk"         yaml:"min_disk"`
	MinRAM          int       `json:"min_ram"          yaml:"min_ram"`
	Checksum        string    `json:"checksum"         yaml:"checksum"`
	Tags            []string  `json:"tags"             yaml:"tags"`
	CreatedAt       time.Time `json:"created_at"       yaml:"created_at"`
	UpdatedAt       time.Time `json:"updated_at"       yaml:"updated_at"`
}

// ImageList is one page of images. Next is the raw next-page link.
type ImageList struct {
	Images []Image `json:"images"         yaml:"images"`
	Next   string  `json:"next,omitempty" yaml:"next,omitempty"`
	First  string  `json:"first,omitempty" yaml:"first,omitempty"`
}

// Network represents a network service network.
type Network struct {
	ID           string   `json:"id"              yaml:"id"`
	Name         string   `json:"name"            yaml:"name"`
	Status       string   `json:"status"          yaml:"status"`
	ProjectID    string   `json:"project_id"      yaml:"project_id"`
	AdminStateUp bool     `json:"admin_state_up"  yaml:"admin_state_up"`
	Shared       bool     `json:"shared"          yaml:"shared"`
	External     bool     `json:"router:external" yaml:"router_external"`
	MTU          int      `json:"mtu"             yaml:"mtu"`
	Subnets      []string `json:"subnets"         yaml:"subnets"`
}

// NetworkList is one page of networks.
type NetworkList struct {
	Networks []Network `json:"networks"                 yaml:"networks"`
	Links    []Link    `json:"networks_links,omitempty" yaml:"networks_links,omitempty"`
}

// Server represents a compute server.
type Server struct {
	ID        string                     `json:"id"        yaml:"id"`
	Name      string                     `json:"name"      yaml:"name"`
	Status    string                     `json:"status"    yaml:"status"`
	TenantID  string                     `json:"tenant_id" yaml:"tenant_id"`
	UserID    string                     `json:"user_id"   yaml:"user_id"`
	Created   time.Time                  `json:"created"   yaml:"created"`
	Updated   time.Time                  `json:"updated"   yaml:"updated"`
	Addresses map[string][]ServerAddress `json:"addresses" yaml:"addresses"`
	Metadata  map[string]string          `json:"metadata"  yaml:"metadata"`
	Links     []Link                     `json:"links"     yaml:"links"`
}

// ServerAddress is one address of a server.
type ServerAddress struct {
	Addr    string `json:"addr"    yaml:"addr"`
	Version int    `json:"version" yaml:"version"`
}

// ServerList is one page of servers.
type ServerList struct {
	Servers []Server `json:"servers"                 yaml:"servers"`
	Links   []Link   `json:"servers_links,omitempty" yaml:"servers_links,omitempty"`
}

// Console is a remote console access URL.
type Console struct {
	Type     string `json:"type"               yaml:"type"`
	Protocol string `json:"protocol,omitempty" yaml:"protocol,omitempty"`
	URL      string `json:"url"                yaml:"url"`
}

// Pool represents a load-balancer pool.
type Pool struct {
	ID                 string  `json:"id"                  yaml:"id"`
	Name               string  `json:"name"                yaml:"name"`
	Description        string  `json:"description"         yaml:"description"`
	Protocol           string  `json:"protocol"            yaml:"protocol"`
	LBAlgorithm        string  `json:"lb_algorithm"        yaml:"lb_algorithm"`
	AdminStateUp       bool    `json:"admin_state_up"      yaml:"admin_state_up"`
	ProvisioningStatus string  `json:"provisioning_status" yaml:"provisioning_status"`
	OperatingStatus    string  `json:"operating_status"    yaml:"operating_status"`
	LoadBalancerID     string  `json:"loadbalancer_id"     yaml:"loadbalancer_id"`
	ListenerID         string  `json:"listener_id"         yaml:"listener_id"`
	Members            []IDRef `json:"members"             yaml:"members"`
}

// IDRef references another resource by id.
type IDRef struct {
	ID string `json:"id" yaml:"id"`
}

// PoolList is one page of pools.
type PoolList struct {
	Pools []Pool `json:"pools"                 yaml:"pools"`
	Links []Link `json:"pools_links,omitempty" yaml:"pools_links,omitempty"`
}

// PoolCreateRequest is the body of a pool creation.
type PoolCreateRequest struct {
	Name           string `json:"name,omitempty"            yaml:"name,omitempty"`
	Description    string `json:"description,omitempty"     yaml:"description,omitempty"`
	Protocol       string `json:"protocol"                  yaml:"protocol"`
	LBAlgorithm    string `json:"lb_algorithm"              yaml:"lb_algorithm"`
	LoadBalancerID string `json:"loadbalancer_id,omitempty" yaml:"loadbalancer_id,omitempty"`
	ListenerID     string `json:"listener_id,omitempty"     yaml:"listener_id,omitempty"`
	AdminStateUp   *bool  `json:"admin_state_up,omitempty"  yaml:"admin_state_up,omitempty"`
}

// PoolUpdateRequest is the body of a pool update.
type PoolUpdateRequest struct {
	Name         *string `json:"name,omitempty"           yaml:"name,omitempty"`
	Description  *string `json:"description,omitempty"    yaml:"description,omitempty"`
	LBAlgorithm  *string `json:"lb_algorithm,omitempty"   yaml:"lb_algorithm,omitempty"`
	AdminStateUp *bool   `json:"admin_state_up,omitempty" yaml:"admin_state_up,omitempty"`
}

// Member represents a load-balancer pool member.
type Member struct {
	ID                 string `json:"id"                  yaml:"id"`
	Name               string `json:"name"                yaml:"name"`
	Address            string `json:"address"             yaml:"address"`
	ProtocolPort       int    `json:"protocol_port"       yaml:"protocol_port"`
	Weight             int    `json:"weight"              yaml:"weight"`
	SubnetID           string `json:"subnet_id"           yaml:"subnet_id"`
	ProvisioningStatus string `json:"provisioning_status" yaml:"provisioning_status"`
	OperatingStatus    string `json:"operating_status"    yaml:"operating_status"`
}

// MemberCreateRequest is the body of a member creation.
type MemberCreateRequest struct {
	Name         string `json:"name,omitempty"      yaml:"name,omitempty"`
	Address      string `json:"address"             yaml:"address"`
	ProtocolPort int    `json:"protocol_port"       yaml:"protocol_port"`
	Weight       *int   `json:"weight,omitempty"    yaml:"weight,omitempty"`
	SubnetID     string `json:"subnet_id,omitempty" yaml:"subnet_id,omitempty"`
}

// Stack represents an orchestration stack. Times are kept as returned since
// the service omits the zone offset.
type Stack struct {
	ID                string `json:"id"                  yaml:"id"`
	StackName         string `json:"stack_name"          yaml:"stack_name"`
	StackStatus       string `json:"stack_status"        yaml:"stack_status"`
	StackStatusReason string `json:"stack_status_reason" yaml:"stack_status_reason"`
	Description       string `json:"description"         yaml:"description"`
	CreationTime      string `json:"creation_time"       yaml:"creation_time"`
	UpdatedTime       string `json:"updated_time"        yaml:"updated_time"`
	Links             []Link `json:"links"               yaml:"links"`
}

// StackList is one page of stacks.
type StackList struct {
	Stacks []Stack `json:"stacks"          yaml:"stacks"`
	Links  []Link  `json:"links,omitempty" yaml:"links,omitempty"`
}
