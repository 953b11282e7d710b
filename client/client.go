// Package client sends requests to the Bot API.
//
// One Client holds a token, a base address and a transport. Every request
// goes through the same steps: encode, send once, decode the envelope. The
// client keeps no per-call state and is safe for concurrent use.
package client

import (
	"context"
	"errors"
	"net/http"
	"reflect"
	"strings"
	"time"

	"go.uber.org/zap"

	"mini-botapi/codec"
	"mini-botapi/message"
	"mini-botapi/middleware"
	"mini-botapi/protocol"
	"mini-botapi/transport"
)

const userAgent = "mini-botapi/1.0"

var (
	ErrEmptyToken = errors.New("bot token is empty")
	ErrBadReply   = errors.New("reply must be a non-nil pointer")
)

type Client struct {
	token   string
	baseURL string
	prefix  string

	transport transport.Transport
	handler   middleware.HandlerFunc
	logger    *zap.Logger
	closers   []func() error
}

// NewClient creates a client for token. Without options it talks to
// https://api.telegram.org over a pooled net/http transport and installs no
// middleware.
func NewClient(token string, opts ...Option) (*Client, error) {
	token = strings.TrimSpace(token)
	if token == "" {
		return nil, ErrEmptyToken
	}
	if strings.ContainsAny(token, "/?# ") {
		return nil, errors.New("bot token contains characters not allowed in a path")
	}

	o := options{
		baseURL: protocol.DefaultBaseURL,
		prefix:  protocol.DefaultTokenPrefix,
		logger:  zap.NewNop(),
	}
	for _, opt := range opts {
		opt(&o)
	}
	if err := checkBaseURL(o.baseURL); err != nil {
		return nil, err
	}

	c := &Client{
		token:     token,
		baseURL:   strings.TrimRight(o.baseURL, "/"),
		prefix:    o.prefix,
		transport: o.transport,
		logger:    o.logger,
		closers:   o.closers,
	}
	if c.transport == nil {
		t := transport.NewHTTPTransport(transport.DefaultPoolOptions())
		c.transport = t
		c.closers = append(c.closers, t.Close)
	}
	c.handler = middleware.Chain(o.middlewares...)(c.execute)
	return c, nil
}

func (c *Client) execute(ctx context.Context, ex *middleware.Exchange) (*transport.Response, error) {
	return c.transport.Execute(ctx, ex.Request)
}

// Call sends call and decodes its result into reply, which must be a pointer
// to a value of the call's result type. A nil reply only checks the envelope.
//
// Errors are *codec.EncodingError, *transport.TransportError,
// *message.APIError or *message.MalformedResponseError. None of them contain
// the token.
func (c *Client) Call(ctx context.Context, call message.Call, reply any) error {
	if reply != nil {
		rv := reflect.ValueOf(reply)
		if rv.Kind() != reflect.Pointer || rv.IsNil() {
			return ErrBadReply
		}
	}

	body, err := codec.Encode(call)
	if err != nil {
		return err
	}

	req := &transport.Request{
		Method: call.Method(),
		URL:    protocol.MethodURL(c.baseURL, c.prefix, c.token, call.Endpoint()),
		Header: make(http.Header),
	}
	req.Header.Set("Accept", protocol.MediaTypeJSON)
	req.Header.Set("User-Agent", userAgent)
	if !emptyGet(call.Method(), body) {
		req.Header.Set("Content-Type", body.ContentType)
		req.Body = body.Data
	}

	resp, err := c.exchange(ctx, call.Endpoint(), req)
	if err != nil {
		return err
	}
	return c.redact(message.Unwrap(resp.StatusCode, resp.Body, reply))
}

// emptyGet reports a GET whose parameters are all absent; it is sent
// without a body.
func emptyGet(method string, body *codec.Body) bool {
	return method == http.MethodGet &&
		body.ContentType == protocol.MediaTypeJSON &&
		string(body.Data) == "{}"
}

// exchange runs req through the middleware chain and the transport.
func (c *Client) exchange(ctx context.Context, endpoint string, req *transport.Request) (*transport.Response, error) {
	start := time.Now()
	resp, err := c.handler(ctx, middleware.NewExchange(endpoint, req, c.token))
	if err == nil && resp == nil {
		err = transport.ErrNoResponse
	}
	if err != nil {
		terr := transport.Wrap("dispatch "+endpoint, err).Redact(c.token)
		c.logger.Debug("bot api call failed",
			zap.String("endpoint", endpoint),
			zap.Duration("duration", time.Since(start)),
			zap.Error(terr))
		return nil, terr
	}

	c.logger.Debug("bot api call",
		zap.String("endpoint", endpoint),
		zap.String("method", req.Method),
		zap.String("content_type", req.Header.Get("Content-Type")),
		zap.Int("request_bytes", len(req.Body)),
		zap.Int("status", resp.StatusCode),
		zap.Int("response_bytes", len(resp.Body)),
		zap.Duration("duration", time.Since(start)))
	return resp, nil
}

// redact scrubs the token from decoder errors, which may echo the body.
func (c *Client) redact(err error) error {
	var apiErr *message.APIError
	var malformed *message.MalformedResponseError
	switch {
	case err == nil:
		return nil
	case errors.As(err, &apiErr):
		scrubbed := *apiErr
		scrubbed.Description = protocol.Redact(apiErr.Description, c.token)
		return &scrubbed
	case errors.As(err, &malformed):
		scrubbed := *malformed
		scrubbed.Body = []byte(protocol.Redact(string(malformed.Body), c.token))
		return &scrubbed
	}
	return err
}

// Send performs req and returns its typed result. On error the zero value
// is returned.
func Send[T any](ctx context.Context, c *Client, req message.Request[T]) (T, error) {
	var result T
	if err := c.Call(ctx, req, &result); err != nil {
		var zero T
		return zero, err
	}
	return result, nil
}

// Close releases the transports and registries the client created itself.
func (c *Client) Close() error {
	var errs []error
	for _, closeFn := range c.closers {
		if err := closeFn(); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
