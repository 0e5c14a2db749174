// Package middleware wraps the client's request/response cycle.
//
// A Middleware decorates a HandlerFunc, and Chain composes several in the
// onion order used by the client:
//
//	Chain(A, B, C)(handler) → A(B(C(handler)))
//	A.before → B.before → C.before → handler → C.after → B.after → A.after
package middleware

import (
	"context"
	"mini-kv/message"
	"slices"
)

// HandlerFunc runs one request/response cycle.
type HandlerFunc func(ctx context.Context, req *message.Request) (*message.Response, error)

type Middleware func(next HandlerFunc) HandlerFunc

// Chain composes middlewares so that the first one given runs outermost.
func Chain(middlewares ...Middleware) Middleware {
	return func(handler HandlerFunc) HandlerFunc {
		for _, mw := range slices.Backward(middlewares) {
			handler = mw(handler)
		}
		return handler
	}
}
