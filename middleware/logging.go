package middleware

import (
	"context"
	"time"

	"go.uber.org/zap"

	"mini-botapi/transport"
)

// Logging records endpoint, status and duration of every exchange.
// Addresses and bodies are never logged.
func Logging(logger *zap.Logger) Middleware {
	return func(next HandlerFunc) HandlerFunc {
		return func(ctx context.Context, ex *Exchange) (*transport.Response, error) {
			start := time.Now()
			resp, err := next(ctx, ex)
			fields := []zap.Field{
				zap.String("endpoint", ex.Endpoint),
				zap.String("method", ex.Request.Method),
				zap.Duration("duration", time.Since(start)),
			}
			if err != nil {
				logger.Warn("bot api exchange failed", append(fields, zap.String("error", ex.Redact(err.Error())))...)
				return nil, err
			}
			fields = append(fields, zap.Int("status", resp.StatusCode), zap.Int("response_bytes", len(resp.Body)))
			if !resp.IsSuccess() {
				logger.Info("bot api exchange rejected", fields...)
			} else {
				logger.Debug("bot api exchange", fields...)
			}
			return resp, nil
		}
	}
}
