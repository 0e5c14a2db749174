package client

import (
	"context"

	"mini-kv/message"
	"mini-kv/middleware"
	"mini-kv/transport"

	"github.com/rs/zerolog"
)

// Client sends each request on its own connection: resolve the server, dial,
// run one Driver cycle, close. Connections are closed on every path.
type Client struct {
	resolver    Resolver
	dialer      *transport.Dialer
	driver      *Driver
	logger      zerolog.Logger
	middlewares []middleware.Middleware
	handler     middleware.HandlerFunc // middleware(middleware(...(c.call)))
}

type Option func(*Client)

// WithLogger sets the logger used by the client and its driver.
func WithLogger(logger zerolog.Logger) Option {
	return func(c *Client) { c.logger = logger }
}

// WithDialer replaces the default dialer.
func WithDialer(d *transport.Dialer) Option {
	return func(c *Client) { c.dialer = d }
}

// Use appends middlewares, applied in the order given.
func Use(mws ...middleware.Middleware) Option {
	return func(c *Client) { c.middlewares = append(c.middlewares, mws...) }
}

func NewClient(resolver Resolver, opts ...Option) *Client {
	c := &Client{
		resolver: resolver,
		dialer:   &transport.Dialer{},
		logger:   zerolog.Nop(),
	}
	for _, opt := range opts {
		opt(c)
	}
	c.driver = NewDriver(c.logger)
	// Build the middleware chain once, not per call
	c.handler = middleware.Chain(c.middlewares...)(c.call)
	return c
}

// Call sends args as one request and waits for the response.
func (c *Client) Call(ctx context.Context, args ...string) (*message.Response, error) {
	return c.handler(ctx, &message.Request{Args: args})
}

func (c *Client) call(ctx context.Context, req *message.Request) (*message.Response, error) {
	addr, err := c.resolver.Resolve(ctx, req)
	if err != nil {
		return nil, err
	}

	conn, err := c.dialer.Dial(ctx, addr)
	if err != nil {
		return nil, err
	}
	defer conn.Close()

	c.logger.Debug().Str("request_id", middleware.RequestID(ctx)).Str("addr", addr).Msg("connected")
	return c.driver.RoundTrip(ctx, conn, req)
}
