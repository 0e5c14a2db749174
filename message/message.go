// Package message defines the two message shapes exchanged with a mini-kv server.
//
// A Request travels client → server and a Response server → client. Neither
// carries an in-band type tag; the direction of the stream decides which body
// layout applies. The codec layer turns them into frame bodies.
package message

import "fmt"

// Request is one command, e.g. {"get", "foo"} or {"set", "foo", "bar"}.
type Request struct {
	Args []string
}

// Key returns the argument used for routing decisions: the second argument when
// present (the key in "get foo"), otherwise the first, otherwise "".
func (r *Request) Key() string {
	switch {
	case len(r.Args) >= 2:
		return r.Args[1]
	case len(r.Args) == 1:
		return r.Args[0]
	default:
		return ""
	}
}

// Response is the server's reply. Payload is opaque: it is not necessarily
// valid UTF-8 and is passed through as raw bytes.
type Response struct {
	Status  uint32
	Payload []byte
}

// String renders the response the way the command-line client prints it.
func (r *Response) String() string {
	return fmt.Sprintf("server says: [%d] %s", r.Status, r.Payload)
}
