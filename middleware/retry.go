package middleware

import (
	"context"
	"errors"
	"net/http"
	"time"

	"go.uber.org/zap"

	"mini-botapi/message"
	"mini-botapi/observe"
	"mini-botapi/transport"
)

// Retry repeats an exchange that failed in transport, hit flood control
// (429) or got a 5xx, up to maxRetries times. Flood-control waits follow the
// retry_after the API asked for; everything else backs off exponentially
// from baseDelay. API errors other than 429 are returned at once.
func Retry(maxRetries int, baseDelay time.Duration, logger *zap.Logger) Middleware {
	if logger == nil {
		logger = zap.NewNop()
	}
	return func(next HandlerFunc) HandlerFunc {
		return func(ctx context.Context, ex *Exchange) (*transport.Response, error) {
			resp, err := next(ctx, ex)
			for i := 0; i < maxRetries; i++ {
				reason, wait := retryReason(resp, err, baseDelay*time.Duration(1<<i))
				if reason == "" {
					return resp, err
				}
				if ctx.Err() != nil {
					return resp, err
				}

				logger.Info("retrying bot api exchange",
					zap.String("endpoint", ex.Endpoint),
					zap.String("reason", reason),
					zap.Int("attempt", i+1),
					zap.Duration("wait", wait))
				observe.IncRetry(ex.Endpoint, reason)

				timer := time.NewTimer(wait)
				select {
				case <-timer.C:
				case <-ctx.Done():
					timer.Stop()
					return resp, err
				}
				resp, err = next(ctx, ex)
			}
			return resp, err
		}
	}
}

// retryReason classifies an outcome; an empty reason means final.
func retryReason(resp *transport.Response, err error, backoff time.Duration) (string, time.Duration) {
	if err != nil {
		if errors.Is(err, context.Canceled) {
			return "", 0
		}
		return "transport", backoff
	}
	switch {
	case resp.StatusCode == http.StatusTooManyRequests:
		var apiErr *message.APIError
		if errors.As(message.Unwrap(resp.StatusCode, resp.Body, nil), &apiErr) && apiErr.RetryAfter() > 0 {
			return "flood", apiErr.RetryAfter()
		}
		return "flood", backoff
	case resp.StatusCode >= http.StatusInternalServerError:
		return "server", backoff
	}
	return "", 0
}
