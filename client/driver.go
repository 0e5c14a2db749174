// Package client runs mini-kv request/response cycles.
//
// Driver performs exactly one cycle over a stream it is handed:
//
//	Idle ──encode+write──→ Sent ──read+decode──→ Received
//	  │                      │
//	  └──────────────────────┴──→ Failed
//
// Client adds what a command-line caller needs around that: locating the
// server, dialing one connection per cycle, and the middleware chain.
package client

import (
	"context"
	"fmt"
	"io"

	"mini-kv/codec"
	"mini-kv/message"
	"mini-kv/middleware"
	"mini-kv/protocol"
	"mini-kv/transport"

	"github.com/rs/zerolog"
)

// State is the position of one cycle in the driver's state machine.
type State int

const (
	Idle     State = iota // Nothing sent yet
	Sent                  // Request written in full
	Received              // Response decoded (terminal, success)
	Failed                // Cycle aborted (terminal, failure)
)

func (s State) String() string {
	switch s {
	case Idle:
		return "idle"
	case Sent:
		return "sent"
	case Received:
		return "received"
	case Failed:
		return "failed"
	default:
		return fmt.Sprintf("State(%d)", int(s))
	}
}

// Cycle is the outcome of one request/response exchange.
// Response is set only in Received, Err only in Failed.
type Cycle struct {
	State    State
	Response *message.Response
	Err      error
}

// Driver encodes requests and decodes responses on a caller-supplied stream.
// It keeps no state between cycles.
type Driver struct {
	codec  codec.Codec
	logger zerolog.Logger
}

// NewDriver returns a Driver using the wire codec.
func NewDriver(logger zerolog.Logger) *Driver {
	return &Driver{
		codec:  codec.GetCodec(codec.CodecTypeBinary),
		logger: logger,
	}
}

// RoundTrip runs one cycle and returns the response or the failure.
func (d *Driver) RoundTrip(ctx context.Context, rw io.ReadWriter, req *message.Request) (*message.Response, error) {
	c := d.Run(ctx, rw, req)
	return c.Response, c.Err
}

// Run drives one cycle on rw. A deadline or cancellation on ctx is applied to
// rw when it supports deadlines; without one a silent peer blocks Run.
// Nothing is retried.
func (d *Driver) Run(ctx context.Context, rw io.ReadWriter, req *message.Request) *Cycle {
	c := &Cycle{State: Idle}
	logger := d.logger.With().Str("request_id", middleware.RequestID(ctx)).Logger()

	fail := func(err error) *Cycle {
		logger.Debug().Err(err).Stringer("from", c.State).Msg("cycle failed")
		c.State = Failed
		c.Err = err
		return c
	}

	if err := ctx.Err(); err != nil {
		return fail(fmt.Errorf("%w: %w", protocol.ErrIO, err))
	}
	release := transport.BindContext(ctx, rw)
	defer release()

	// Idle → Sent
	body, err := d.codec.Encode(req)
	if err != nil {
		return fail(err)
	}
	if err := protocol.Encode(rw, body); err != nil {
		return fail(err)
	}
	c.State = Sent
	logger.Debug().Int("bytes", protocol.HeaderSize+len(body)).Msg("request sent")

	// Sent → Received
	body, err = protocol.Decode(rw)
	if err != nil {
		return fail(err)
	}
	resp := &message.Response{}
	if err := d.codec.Decode(body, resp); err != nil {
		return fail(err)
	}
	c.State = Received
	c.Response = resp
	logger.Debug().Uint32("status", resp.Status).Int("bytes", protocol.HeaderSize+len(body)).Msg("response received")
	return c
}
