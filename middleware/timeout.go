package middleware

import (
	"context"
	"fmt"
	"time"

	"mini-botapi/transport"
)

type result struct {
	resp *transport.Response
	err  error
}

// Timeout bounds each exchange. A transport that ignores its context is
// abandoned once the deadline passes.
func Timeout(timeout time.Duration) Middleware {
	return func(next HandlerFunc) HandlerFunc {
		return func(ctx context.Context, ex *Exchange) (*transport.Response, error) {
			ctx, cancel := context.WithTimeout(ctx, timeout)
			defer cancel()

			done := make(chan result, 1)
			go func() {
				resp, err := next(ctx, ex)
				done <- result{resp: resp, err: err}
			}()

			select {
			case r := <-done:
				return r.resp, r.err
			case <-ctx.Done():
				return nil, fmt.Errorf("%s timed out after %s: %w", ex.Endpoint, timeout, ctx.Err())
			}
		}
	}
}
