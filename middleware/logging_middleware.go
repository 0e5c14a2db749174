package middleware

import (
	"context"
	"mini-kv/message"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

type requestIDKey struct{}

// RequestID returns the id LoggingMiddleware attached to ctx, or "".
func RequestID(ctx context.Context) string {
	id, _ := ctx.Value(requestIDKey{}).(string)
	return id
}

// LoggingMiddleware tags each cycle with a request id and logs its outcome at
// debug level. Failures are returned to the caller, who reports them.
// The id is also stored in ctx so inner layers can log under it.
func LoggingMiddleware(logger zerolog.Logger) Middleware {
	return func(next HandlerFunc) HandlerFunc {
		return func(ctx context.Context, req *message.Request) (*message.Response, error) {
			id := uuid.NewString()
			ctx = context.WithValue(ctx, requestIDKey{}, id)

			start := time.Now()
			resp, err := next(ctx, req)
			duration := time.Since(start)

			if err != nil {
				logger.Debug().Err(err).
					Str("request_id", id).
					Int("args", len(req.Args)).
					Dur("duration", duration).
					Msg("request failed")
				return resp, err
			}
			logger.Debug().
				Str("request_id", id).
				Int("args", len(req.Args)).
				Uint32("status", resp.Status).
				Int("payload_bytes", len(resp.Payload)).
				Dur("duration", duration).
				Msg("request completed")
			return resp, nil
		}
	}
}
