package transport

import (
	"context"
	"fmt"
	"net/url"

	"mini-botapi/loadbalance"
	"mini-botapi/protocol"
	"mini-botapi/registry"
)

// Balanced spreads requests over the API server instances registered for a
// service. The scheme and host of each request are replaced by the picked
// instance; path and body are left alone. The credential path segment is the
// balancing key, so consistent hashing keeps a bot on one server.
type Balanced struct {
	registry registry.Registry
	balancer loadbalance.Balancer
	service  string
	next     Transport
}

func NewBalanced(reg registry.Registry, bal loadbalance.Balancer, service string, next Transport) *Balanced {
	return &Balanced{registry: reg, balancer: bal, service: service, next: next}
}

func (b *Balanced) Execute(ctx context.Context, req *Request) (*Response, error) {
	instances, err := b.registry.Discover(ctx, b.service)
	if err != nil {
		return nil, &TransportError{Op: "discover " + b.service, Err: err}
	}

	u, err := url.Parse(req.URL)
	if err != nil {
		return nil, &TransportError{Op: "parse address", Err: err}
	}

	instance, err := b.balancer.Pick(protocol.CredentialSegment(u.Path), instances)
	if err != nil {
		return nil, &TransportError{Op: fmt.Sprintf("pick %s instance", b.service), Err: err}
	}

	u.Scheme = instance.URLScheme()
	u.Host = instance.Addr

	routed := *req
	routed.URL = u.String()
	return b.next.Execute(ctx, &routed)
}
