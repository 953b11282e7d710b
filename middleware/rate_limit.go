package middleware

import (
	"context"
	"fmt"
	"time"

	"golang.org/x/time/rate"

	"mini-botapi/observe"
	"mini-botapi/transport"
)

// RateLimit throttles exchanges with a token bucket of r requests per second.
// It waits for a token, failing only when ctx ends first.
func RateLimit(r float64, burst int) Middleware {
	limiter := rate.NewLimiter(rate.Limit(r), burst)
	return func(next HandlerFunc) HandlerFunc {
		return func(ctx context.Context, ex *Exchange) (*transport.Response, error) {
			start := time.Now()
			if err := limiter.Wait(ctx); err != nil {
				return nil, fmt.Errorf("rate limit %s: %w", ex.Endpoint, err)
			}
			observe.AddRateLimitWait(time.Since(start))
			return next(ctx, ex)
		}
	}
}
