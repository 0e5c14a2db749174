package client

import (
	"net"
	"testing"

	"mini-kv/codec"
	"mini-kv/message"
	"mini-kv/protocol"
)

// startServer runs a minimal mini-kv server on a random loopback port. Each
// connection gets one response built by reply. It returns the address.
func startServer(t testing.TB, reply func(args []string) *message.Response) string {
	t.Helper()
	return startRawServer(t, func(conn net.Conn) {
		body, err := protocol.Decode(conn)
		if err != nil {
			return
		}
		var req message.Request
		if err := (&codec.BinaryCodec{}).Decode(body, &req); err != nil {
			return
		}
		out, err := (&codec.BinaryCodec{}).Encode(reply(req.Args))
		if err != nil {
			return
		}
		protocol.Encode(conn, out)
	})
}

// startRawServer hands every accepted connection to handle and closes it after.
func startRawServer(t testing.TB, handle func(conn net.Conn)) string {
	t.Helper()
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { ln.Close() })

	go func() {
		for {
			conn, err := ln.Accept()
			if err != nil {
				return
			}
			go func() {
				defer conn.Close()
				handle(conn)
			}()
		}
	}()
	return ln.Addr().String()
}

// echoReply answers [0] followed by the arguments joined with spaces.
func echoReply(args []string) *message.Response {
	payload := ""
	for i, arg := range args {
		if i > 0 {
			payload += " "
		}
		payload += arg
	}
	return &message.Response{Status: 0, Payload: []byte(payload)}
}
