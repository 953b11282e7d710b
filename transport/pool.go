package transport

import (
	"net"
	"net/http"
	"time"
)

// PoolOptions sizes the keep-alive connection pool of an HTTPTransport.
// A bot usually talks to a single host, so MaxIdleConnsPerHost is the limit that bites.
type PoolOptions struct {
	MaxIdleConns        int           // Total idle connections kept across hosts
	MaxIdleConnsPerHost int           // Idle connections kept per host
	MaxConnsPerHost     int           // 0 means unlimited
	IdleConnTimeout     time.Duration // How long an idle connection is kept
	DialTimeout         time.Duration
	TLSHandshakeTimeout time.Duration
}

func DefaultPoolOptions() PoolOptions {
	return PoolOptions{
		MaxIdleConns:        100,
		MaxIdleConnsPerHost: 16,
		IdleConnTimeout:     90 * time.Second,
		DialTimeout:         30 * time.Second,
		TLSHandshakeTimeout: 10 * time.Second,
	}
}

// newRoundTripper builds the pooled round tripper. Zero fields fall back to
// DefaultPoolOptions.
func newRoundTripper(opts PoolOptions) *http.Transport {
	def := DefaultPoolOptions()
	if opts.MaxIdleConns <= 0 {
		opts.MaxIdleConns = def.MaxIdleConns
	}
	if opts.MaxIdleConnsPerHost <= 0 {
		opts.MaxIdleConnsPerHost = def.MaxIdleConnsPerHost
	}
	if opts.IdleConnTimeout <= 0 {
		opts.IdleConnTimeout = def.IdleConnTimeout
	}
	if opts.DialTimeout <= 0 {
		opts.DialTimeout = def.DialTimeout
	}
	if opts.TLSHandshakeTimeout <= 0 {
		opts.TLSHandshakeTimeout = def.TLSHandshakeTimeout
	}

	dialer := &net.Dialer{Timeout: opts.DialTimeout, KeepAlive: 30 * time.Second}
	return &http.Transport{
		Proxy:               http.ProxyFromEnvironment,
		DialContext:         dialer.DialContext,
		ForceAttemptHTTP2:   true,
		MaxIdleConns:        opts.MaxIdleConns,
		MaxIdleConnsPerHost: opts.MaxIdleConnsPerHost,
		MaxConnsPerHost:     opts.MaxConnsPerHost,
		IdleConnTimeout:     opts.IdleConnTimeout,
		TLSHandshakeTimeout: opts.TLSHandshakeTimeout,
	}
}
