package middleware

import (
	"context"
	"time"

	"mini-botapi/observe"
	"mini-botapi/transport"
)

// Metrics counts exchanges per endpoint and outcome and records their duration.
func Metrics() Middleware {
	return func(next HandlerFunc) HandlerFunc {
		return func(ctx context.Context, ex *Exchange) (*transport.Response, error) {
			start := time.Now()
			resp, err := next(ctx, ex)
			outcome := observe.OutcomeOK
			switch {
			case err != nil:
				outcome = observe.OutcomeTransportError
			case !resp.IsSuccess():
				outcome = observe.OutcomeAPIError
			}
			observe.ObserveRequest(ex.Endpoint, outcome, time.Since(start))
			return resp, err
		}
	}
}
