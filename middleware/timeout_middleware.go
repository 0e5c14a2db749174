package middleware

import (
	"context"
	"mini-kv/message"
	"time"
)

// TimeOutMiddleware bounds one cycle by timeout. The client turns the context
// deadline into a connection deadline, so a hung peer surfaces as an I/O error
// instead of blocking forever. A zero timeout leaves ctx untouched.
func TimeOutMiddleware(timeout time.Duration) Middleware {
	return func(next HandlerFunc) HandlerFunc {
		if timeout <= 0 {
			return next
		}
		return func(ctx context.Context, req *message.Request) (*message.Response, error) {
			ctx, cancel := context.WithTimeout(ctx, timeout)
			defer cancel()
			return next(ctx, req)
		}
	}
}
