// Package transport executes one HTTP exchange for the client.
//
// The client builds a Request (method, address, headers, body) and gets back
// the status and raw bytes of the response. How connections are kept, which
// server instance is reached and how long anything may take is decided here,
// never by the client.
package transport

import (
	"context"
	"errors"
	"net/http"
	"net/url"

	"mini-botapi/protocol"
)

// Request is a fully encoded HTTP request.
type Request struct {
	Method string
	URL    string
	Header http.Header
	Body   []byte // nil sends no body
}

// Response is a fully read HTTP response.
type Response struct {
	StatusCode int
	Header     http.Header
	Body       []byte
}

type Transport interface {
	Execute(ctx context.Context, req *Request) (*Response, error)
}

// Func adapts a function to Transport.
type Func func(ctx context.Context, req *Request) (*Response, error)

func (f Func) Execute(ctx context.Context, req *Request) (*Response, error) {
	return f(ctx, req)
}

// ErrNoResponse is reported when a transport returns neither a response nor an error.
var ErrNoResponse = errors.New("no response")

// TransportError is a failure to complete the exchange: the request could not
// be sent or no full response was read.
type TransportError struct {
	Op  string
	Err error
}

func (e *TransportError) Error() string { return e.Op + ": " + e.Err.Error() }

func (e *TransportError) Unwrap() error { return e.Err }

// Redact returns a copy of e with token scrubbed from its message and from
// every error it wraps. Wrapped *url.Error and *TransportError values keep
// their types; any other wrapped error whose text carries the token is
// replaced by a redacted stand-in, so errors.As no longer finds its concrete
// type. Sentinels such as context.DeadlineExceeded stay reachable.
func (e *TransportError) Redact(token string) *TransportError {
	return &TransportError{Op: protocol.Redact(e.Op, token), Err: redactErr(e.Err, token)}
}

// Wrap turns any failure into a *TransportError. A *TransportError is returned
// as is; any other error, including one that wraps a TransportError, becomes
// the Err of a new one so its own text is kept.
func Wrap(op string, err error) *TransportError {
	if te, ok := err.(*TransportError); ok {
		return te
	}
	return &TransportError{Op: op, Err: err}
}

// redactedError stands in for an error whose text carried the token. It
// unwraps to the redacted forms of what the original wrapped, never to the
// original itself.
type redactedError struct {
	msg  string
	next []error
}

func (e *redactedError) Error() string   { return e.msg }
func (e *redactedError) Unwrap() []error { return e.next }

func redactErr(err error, token string) error {
	if err == nil {
		return nil
	}
	switch e := err.(type) {
	case *url.Error:
		return &url.Error{Op: e.Op, URL: protocol.Redact(e.URL, token), Err: redactErr(e.Err, token)}
	case *TransportError:
		return e.Redact(token)
	}

	msg := err.Error()
	redacted := protocol.Redact(msg, token)
	if redacted == msg {
		return err
	}
	var next []error
	switch u := err.(type) {
	case interface{ Unwrap() error }:
		if inner := u.Unwrap(); inner != nil {
			next = append(next, redactErr(inner, token))
		}
	case interface{ Unwrap() []error }:
		for _, inner := range u.Unwrap() {
			next = append(next, redactErr(inner, token))
		}
	}
	return &redactedError{msg: redacted, next: next}
}

// IsSuccess reports a 2xx status.
func (r *Response) IsSuccess() bool {
	return r.StatusCode >= 200 && r.StatusCode < 300
}
