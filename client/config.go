package client

import (
	"fmt"
	"net/url"
	"strings"
	"time"

	"mini-botapi/config"
	"mini-botapi/loadbalance"
	"mini-botapi/logger"
	"mini-botapi/middleware"
	"mini-botapi/registry"
	"mini-botapi/transport"
)

const etcdDialTimeout = 5 * time.Second

// NewFromConfig builds a client from loaded configuration. Middleware is
// installed only for the features the configuration turns on; extra options
// are applied last.
func NewFromConfig(cfg config.Config, opts ...Option) (*Client, error) {
	logger.SetLevel(cfg.LogLevel)
	log := logger.Named("client")

	pool := transport.DefaultPoolOptions()
	if cfg.MaxIdleConns > 0 {
		pool.MaxIdleConns = cfg.MaxIdleConns
		pool.MaxIdleConnsPerHost = cfg.MaxIdleConns
	}
	if cfg.MaxConnsPerHost > 0 {
		pool.MaxConnsPerHost = cfg.MaxConnsPerHost
	}
	httpTransport := transport.NewHTTPTransport(pool)

	closers := []func() error{httpTransport.Close}
	cleanup := func() {
		for _, fn := range closers {
			_ = fn()
		}
	}

	var t transport.Transport = httpTransport
	if cfg.Discovery.Enabled() {
		reg, closeReg, err := newRegistry(cfg.Discovery)
		if err != nil {
			cleanup()
			return nil, err
		}
		closers = append(closers, closeReg)
		bal, err := loadbalance.New(cfg.Discovery.Balancer)
		if err != nil {
			cleanup()
			return nil, err
		}
		t = transport.NewBalanced(reg, bal, cfg.Discovery.Service, httpTransport)
	}

	// outermost first: metrics see the whole call, retries wrap the limiter
	// so every attempt takes a token, the timeout bounds each attempt
	var mws []middleware.Middleware
	if cfg.Metrics.Listen != "" {
		mws = append(mws, middleware.Metrics())
	}
	mws = append(mws, middleware.Logging(log))
	if cfg.Retry.MaxRetries > 0 {
		mws = append(mws, middleware.Retry(cfg.Retry.MaxRetries, cfg.Retry.BaseDelay, log))
	}
	if cfg.RateLimit.PerSecond > 0 {
		mws = append(mws, middleware.RateLimit(cfg.RateLimit.PerSecond, cfg.RateLimit.Burst))
	}
	if cfg.Timeout > 0 {
		mws = append(mws, middleware.Timeout(cfg.Timeout))
	}

	base := []Option{
		WithBaseURL(cfg.APIEndpoint),
		WithTokenPrefix(cfg.TokenPrefix),
		WithLogger(log),
		WithTransport(t),
		WithMiddleware(mws...),
	}
	for _, fn := range closers {
		base = append(base, withCloser(fn))
	}

	c, err := NewClient(cfg.Token, append(base, opts...)...)
	if err != nil {
		cleanup()
		return nil, err
	}
	return c, nil
}

// newRegistry prefers etcd and falls back to the static server list.
func newRegistry(d config.Discovery) (registry.Registry, func() error, error) {
	if len(d.EtcdEndpoints) > 0 {
		reg, err := registry.NewEtcdRegistry(d.EtcdEndpoints, etcdDialTimeout)
		if err != nil {
			return nil, nil, fmt.Errorf("connect etcd: %w", err)
		}
		return reg, reg.Close, nil
	}

	instances := make([]registry.ServiceInstance, 0, len(d.Servers))
	for _, s := range d.Servers {
		inst, err := parseServer(s)
		if err != nil {
			return nil, nil, err
		}
		instances = append(instances, inst)
	}
	return registry.NewStaticRegistry(d.Service, instances...), func() error { return nil }, nil
}

// parseServer reads "host:port" or "scheme://host:port". A bare address is
// a local API server and uses plain http.
func parseServer(s string) (registry.ServiceInstance, error) {
	if !strings.Contains(s, "://") {
		return registry.ServiceInstance{Addr: s, Scheme: "http", Weight: 1}, nil
	}
	u, err := url.Parse(s)
	if err != nil {
		return registry.ServiceInstance{}, fmt.Errorf("parse server %q: %w", s, err)
	}
	if u.Host == "" {
		return registry.ServiceInstance{}, fmt.Errorf("server %q has no host", s)
	}
	return registry.ServiceInstance{Addr: u.Host, Scheme: u.Scheme, Weight: 1}, nil
}
