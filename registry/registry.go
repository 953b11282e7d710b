// Package registry keeps track of the Bot API server instances a client may
// talk to. The hosted API is a single address; self-hosted deployments run
// several local API servers and announce them here.
package registry

import "context"

// ServiceInstance is one reachable API server.
type ServiceInstance struct {
	Addr    string `json:"addr"`             // host:port
	Scheme  string `json:"scheme,omitempty"` // http or https, https when empty
	Weight  int    `json:"weight"`           // Weight for load balancing
	Version string `json:"version,omitempty"`
}

// URLScheme returns the scheme requests to this instance use.
func (i ServiceInstance) URLScheme() string {
	if i.Scheme == "" {
		return "https"
	}
	return i.Scheme
}

type Registry interface {
	Register(ctx context.Context, serviceName string, instance ServiceInstance, ttl int64) error
	Deregister(ctx context.Context, serviceName string, addr string) error
	Discover(ctx context.Context, serviceName string) ([]ServiceInstance, error)
	Watch(ctx context.Context, serviceName string) <-chan []ServiceInstance
}
