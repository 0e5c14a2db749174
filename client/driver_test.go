package client

import (
	"bytes"
	"context"
	"errors"
	"net"
	"strings"
	"testing"
	"time"

	"mini-kv/message"
	"mini-kv/protocol"

	"github.com/rs/zerolog"
)

// fakeStream reads a canned server reply and records what the client wrote.
type fakeStream struct {
	in  *bytes.Reader
	out bytes.Buffer
}

func newFakeStream(reply []byte) *fakeStream {
	return &fakeStream{in: bytes.NewReader(reply)}
}

func (f *fakeStream) Read(p []byte) (int, error)  { return f.in.Read(p) }
func (f *fakeStream) Write(p []byte) (int, error) { return f.out.Write(p) }

func le32(n uint32) []byte {
	b := make([]byte, 4)
	protocol.ByteOrder.PutUint32(b, n)
	return b
}

func responseFrame(status uint32, payload string) []byte {
	frame := le32(uint32(4 + len(payload)))
	frame = append(frame, le32(status)...)
	return append(frame, payload...)
}

func newTestDriver() *Driver {
	return NewDriver(zerolog.Nop())
}

func TestDriverReceived(t *testing.T) {
	stream := newFakeStream(responseFrame(0, "OK"))

	c := newTestDriver().Run(context.Background(), stream, &message.Request{Args: []string{"get", "foo"}})
	if c.State != Received || c.Err != nil {
		t.Fatalf("expect received, got state=%s err=%v", c.State, c.Err)
	}
	if c.Response.Status != 0 || string(c.Response.Payload) != "OK" {
		t.Fatalf("expect [0] OK, got [%d] %q", c.Response.Status, c.Response.Payload)
	}

	// The request on the wire: total_length 18, count 2, "get", "foo".
	wrote := stream.out.Bytes()
	if len(wrote) != 22 || protocol.ByteOrder.Uint32(wrote[0:4]) != 18 || protocol.ByteOrder.Uint32(wrote[4:8]) != 2 {
		t.Fatalf("unexpected request frame: % x", wrote)
	}
}

func TestDriverFailures(t *testing.T) {
	cases := []struct {
		name      string
		args      []string
		reply     []byte
		wantState State
		wantErr   error
	}{
		{
			name:    "request too large",
			args:    []string{"set", "k", strings.Repeat("v", protocol.MaxMsg)},
			wantErr: protocol.ErrMessageTooLarge,
		},
		{
			name:    "peer closed",
			args:    []string{"get", "foo"},
			reply:   nil,
			wantErr: protocol.ErrConnectionClosed,
		},
		{
			name:    "half header",
			args:    []string{"get", "foo"},
			reply:   []byte{4, 0},
			wantErr: protocol.ErrIO,
		},
		{
			name:    "response too large",
			args:    []string{"get", "foo"},
			reply:   append(le32(protocol.MaxMsg+1), make([]byte, 16)...),
			wantErr: protocol.ErrMessageTooLarge,
		},
		{
			name:    "short status",
			args:    []string{"get", "foo"},
			reply:   append(le32(3), 0, 0, 0),
			wantErr: protocol.ErrMalformedMessage,
		},
		{
			name:    "truncated body",
			args:    []string{"get", "foo"},
			reply:   append(le32(10), 0, 0, 0, 0, 'a'),
			wantErr: protocol.ErrIO,
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			stream := newFakeStream(tc.reply)
			c := newTestDriver().Run(context.Background(), stream, &message.Request{Args: tc.args})
			if c.State != Failed {
				t.Fatalf("expect failed, got %s", c.State)
			}
			if c.Response != nil {
				t.Fatalf("failed cycle must not carry a response")
			}
			if !errors.Is(c.Err, tc.wantErr) {
				t.Fatalf("expect %v, got %v", tc.wantErr, c.Err)
			}
		})
	}
}

func TestDriverTooLargeWritesNothing(t *testing.T) {
	stream := newFakeStream(responseFrame(0, "OK"))
	args := []string{strings.Repeat("x", protocol.MaxMsg)}

	_, err := newTestDriver().RoundTrip(context.Background(), stream, &message.Request{Args: args})
	if !errors.Is(err, protocol.ErrMessageTooLarge) {
		t.Fatalf("expect ErrMessageTooLarge, got %v", err)
	}
	if stream.out.Len() != 0 {
		t.Fatalf("nothing should be written, got %d bytes", stream.out.Len())
	}
}

func TestDriverEmptyPayload(t *testing.T) {
	stream := newFakeStream(append(le32(4), le32(5)...))

	resp, err := newTestDriver().RoundTrip(context.Background(), stream, &message.Request{Args: []string{"get", "missing"}})
	if err != nil {
		t.Fatal(err)
	}
	if resp.Status != 5 || len(resp.Payload) != 0 {
		t.Fatalf("expect [5] with empty payload, got [%d] %q", resp.Status, resp.Payload)
	}
}

func TestDriverCancelledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	stream := newFakeStream(responseFrame(0, "OK"))
	c := newTestDriver().Run(ctx, stream, &message.Request{Args: []string{"get", "foo"}})
	if c.State != Failed || !errors.Is(c.Err, protocol.ErrIO) || !errors.Is(c.Err, context.Canceled) {
		t.Fatalf("expect failed with ErrIO and context.Canceled, got state=%s err=%v", c.State, c.Err)
	}
	if stream.out.Len() != 0 {
		t.Fatal("nothing should be written after cancellation")
	}
}

func TestDriverOverPipe(t *testing.T) {
	clientConn, serverConn := net.Pipe()
	defer clientConn.Close()

	go func() {
		defer serverConn.Close()
		if _, err := protocol.Decode(serverConn); err != nil {
			return
		}
		protocol.Encode(serverConn, append(le32(0), "bar"...))
	}()

	resp, err := newTestDriver().RoundTrip(context.Background(), clientConn, &message.Request{Args: []string{"get", "foo"}})
	if err != nil {
		t.Fatal(err)
	}
	if string(resp.Payload) != "bar" {
		t.Fatalf("expect bar, got %q", resp.Payload)
	}
}

func TestDriverHungPeerDeadline(t *testing.T) {
	clientConn, serverConn := net.Pipe()
	defer clientConn.Close()
	defer serverConn.Close()

	go func() {
		// Read the request, never answer.
		protocol.Decode(serverConn)
	}()

	ctx, cancel := context.WithTimeout(context.Background(), 100*time.Millisecond)
	defer cancel()

	start := time.Now()
	c := newTestDriver().Run(ctx, clientConn, &message.Request{Args: []string{"get", "foo"}})
	if c.State != Failed || !errors.Is(c.Err, protocol.ErrIO) {
		t.Fatalf("expect failed with ErrIO, got state=%s err=%v", c.State, c.Err)
	}
	if time.Since(start) > 2*time.Second {
		t.Fatal("deadline did not interrupt the read")
	}
}

func TestStateString(t *testing.T) {
	for s, want := range map[State]string{Idle: "idle", Sent: "sent", Received: "received", Failed: "failed"} {
		if s.String() != want {
			t.Errorf("got %q, want %q", s.String(), want)
		}
	}
}
