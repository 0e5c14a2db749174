package transport

import (
	"context"
	"fmt"
	"net"
	"time"
)

// Dialer opens the TCP connection for one request/response cycle.
// The caller owns the returned connection and must close it on every path.
type Dialer struct {
	Timeout time.Duration // Connect timeout, 0 means no limit beyond ctx
}

// Dial connects to addr. Connect failures are reported as ErrIO.
func (d *Dialer) Dial(ctx context.Context, addr string) (net.Conn, error) {
	nd := net.Dialer{Timeout: d.Timeout}
	conn, err := nd.DialContext(ctx, "tcp", addr)
	if err != nil {
		return nil, fmt.Errorf("%w: connect %s: %w", ErrIO, addr, err)
	}
	return conn, nil
}

// Deadliner is implemented by connections that support I/O deadlines.
type Deadliner interface {
	SetDeadline(t time.Time) error
}

// BindContext applies ctx to conn for the duration of one cycle: the context
// deadline becomes the connection deadline, and cancelling ctx expires the
// deadline so blocked reads and writes return. The returned func undoes the
// binding and must be called once the cycle is over.
//
// Streams without deadline support are returned unbound.
func BindContext(ctx context.Context, conn any) (release func()) {
	dl, ok := conn.(Deadliner)
	if !ok {
		return func() {}
	}
	if deadline, ok := ctx.Deadline(); ok {
		_ = dl.SetDeadline(deadline)
	}
	stop := context.AfterFunc(ctx, func() {
		_ = dl.SetDeadline(time.Now())
	})
	return func() {
		stop()
		_ = dl.SetDeadline(time.Time{})
	}
}
