// Package middleware wraps the single exchange a client performs per call.
//
// Nothing here is installed by default: a client sends each request exactly
// once, with no deadline and no throttling. Callers who want logging,
// timeouts, rate limiting, retries or metrics opt in per client.
package middleware

import (
	"context"

	"mini-botapi/protocol"
	"mini-botapi/transport"
)

// Exchange is one outgoing request on its way to the transport.
type Exchange struct {
	Endpoint string
	Request  *transport.Request
	token    string
}

func NewExchange(endpoint string, req *transport.Request, token string) *Exchange {
	return &Exchange{Endpoint: endpoint, Request: req, token: token}
}

// Redact scrubs the bot token from s before it is logged.
func (ex *Exchange) Redact(s string) string {
	return protocol.Redact(s, ex.token)
}

type HandlerFunc func(ctx context.Context, ex *Exchange) (*transport.Response, error)

type Middleware func(next HandlerFunc) HandlerFunc

// Chain combines middlewares so the first one given runs outermost. The
// innermost handler is held to return a response or an error, so no
// middleware sees neither.
func Chain(middlewares ...Middleware) Middleware {
	return func(next HandlerFunc) HandlerFunc {
		next = requireResponse(next)
		for i := len(middlewares) - 1; i >= 0; i-- {
			next = middlewares[i](next)
		}
		return next
	}
}

func requireResponse(next HandlerFunc) HandlerFunc {
	return func(ctx context.Context, ex *Exchange) (*transport.Response, error) {
		resp, err := next(ctx, ex)
		if err == nil && resp == nil {
			return nil, &transport.TransportError{Op: "execute request", Err: transport.ErrNoResponse}
		}
		return resp, err
	}
}
