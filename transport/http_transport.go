package transport

import (
	"bytes"
	"context"
	"io"
	"net/http"
)

// HTTPTransport executes requests with a net/http client.
// It never sets a deadline of its own; the caller's context bounds each exchange.
type HTTPTransport struct {
	client *http.Client
}

// NewHTTPTransport creates a transport with its own connection pool.
func NewHTTPTransport(opts PoolOptions) *HTTPTransport {
	return &HTTPTransport{client: &http.Client{Transport: newRoundTripper(opts)}}
}

// NewHTTPTransportWithClient wraps an existing client, e.g. one built by httptest.
func NewHTTPTransportWithClient(client *http.Client) *HTTPTransport {
	if client == nil {
		client = http.DefaultClient
	}
	return &HTTPTransport{client: client}
}

func (t *HTTPTransport) Execute(ctx context.Context, req *Request) (*Response, error) {
	var body io.Reader
	if req.Body != nil {
		body = bytes.NewReader(req.Body)
	}

	httpReq, err := http.NewRequestWithContext(ctx, req.Method, req.URL, body)
	if err != nil {
		return nil, &TransportError{Op: "build request", Err: err}
	}
	for key, values := range req.Header {
		for _, v := range values {
			httpReq.Header.Add(key, v)
		}
	}

	resp, err := t.client.Do(httpReq)
	if err != nil {
		return nil, &TransportError{Op: "execute request", Err: err}
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, &TransportError{Op: "read response", Err: err}
	}

	return &Response{StatusCode: resp.StatusCode, Header: resp.Header, Body: data}, nil
}

// Close drops idle pooled connections.
func (t *HTTPTransport) Close() error {
	t.client.CloseIdleConnections()
	return nil
}
