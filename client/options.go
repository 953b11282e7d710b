package client

import (
	"errors"
	"fmt"
	"net/http"
	"net/url"

	"go.uber.org/zap"

	"mini-botapi/middleware"
	"mini-botapi/transport"
)

type options struct {
	baseURL     string
	prefix      string
	transport   transport.Transport
	middlewares []middleware.Middleware
	logger      *zap.Logger
	closers     []func() error
}

type Option func(*options)

// WithBaseURL points the client at another API server, e.g. a self-hosted
// one at http://localhost:8081.
func WithBaseURL(baseURL string) Option {
	return func(o *options) { o.baseURL = baseURL }
}

// WithTokenPrefix replaces the "bot" that precedes the token in every
// address. An empty prefix gives {base}/{token}/{endpoint}.
func WithTokenPrefix(prefix string) Option {
	return func(o *options) { o.prefix = prefix }
}

func WithTransport(t transport.Transport) Option {
	return func(o *options) { o.transport = t }
}

func WithHTTPClient(c *http.Client) Option {
	return func(o *options) { o.transport = transport.NewHTTPTransportWithClient(c) }
}

// WithMiddleware appends to the chain around the transport. The first
// middleware given runs outermost.
func WithMiddleware(mw ...middleware.Middleware) Option {
	return func(o *options) { o.middlewares = append(o.middlewares, mw...) }
}

func WithLogger(l *zap.Logger) Option {
	return func(o *options) {
		if l != nil {
			o.logger = l
		}
	}
}

// withCloser hands a resource to the client to release on Close.
func withCloser(fn func() error) Option {
	return func(o *options) { o.closers = append(o.closers, fn) }
}

func checkBaseURL(baseURL string) error {
	u, err := url.Parse(baseURL)
	if err != nil {
		return fmt.Errorf("parse base url: %w", err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return fmt.Errorf("base url %q: scheme must be http or https", baseURL)
	}
	if u.Host == "" {
		return errors.New("base url has no host")
	}
	return nil
}
