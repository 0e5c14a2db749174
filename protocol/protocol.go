// Package protocol implements the length-prefixed frame layer of mini-kv.
//
// TCP is a byte stream, so every message is prefixed with its length. The
// receiver reads the fixed 4-byte header first to learn the body length, checks
// it against MaxMsg, then reads exactly that many bytes into a buffer of the
// exact size.
//
// Frame format (all integers little-endian):
//
//	0              4
//	┌──────────────┬──────────────────────┐
//	│ total_length │        body ...      │
//	│    uint32    │ total_length bytes   │
//	└──────────────┴──────────────────────┘
//
// The body shape depends on direction only. Requests carry an argument list,
// responses a status code and payload; see package codec.
package protocol

import (
	"encoding/binary"
	"errors"
	"fmt"
	"io"

	"mini-kv/transport"
)

const (
	// MaxMsg bounds total_length on both the send and the receive path.
	MaxMsg = 4096
	// HeaderSize is the size of the total_length field.
	HeaderSize = 4
)

// ByteOrder is the wire byte order. Both ends must agree on it, so every
// integer goes through it explicitly instead of relying on host layout.
var ByteOrder = binary.LittleEndian

var (
	// ErrMessageTooLarge reports a frame whose total_length exceeds MaxMsg.
	ErrMessageTooLarge = errors.New("message too large")
	// ErrMalformedMessage reports a body that violates its layout.
	ErrMalformedMessage = errors.New("malformed message")

	// ErrIO and ErrConnectionClosed are the stream errors from package transport.
	ErrIO               = transport.ErrIO
	ErrConnectionClosed = transport.ErrClosed
)

// Frame returns header + body, ready to be written.
// It fails with ErrMessageTooLarge before allocating when body exceeds MaxMsg.
func Frame(body []byte) ([]byte, error) {
	if len(body) > MaxMsg {
		return nil, fmt.Errorf("%w: too long: %d > %d", ErrMessageTooLarge, len(body), MaxMsg)
	}
	buf := make([]byte, HeaderSize+len(body))
	ByteOrder.PutUint32(buf[0:HeaderSize], uint32(len(body)))
	copy(buf[HeaderSize:], body)
	return buf, nil
}

// Encode writes one complete frame carrying body to w.
// The frame is written in full or the call fails with ErrIO.
func Encode(w io.Writer, body []byte) error {
	buf, err := Frame(body)
	if err != nil {
		return err
	}
	return transport.WriteAll(w, buf)
}

// Decode reads one complete frame from r and returns its body.
//
//   - peer closed before the header: ErrConnectionClosed
//   - header or body read failure:   ErrIO
//   - total_length above MaxMsg:     ErrMessageTooLarge, before any body read
func Decode(r io.Reader) ([]byte, error) {
	var header [HeaderSize]byte
	switch res, err := transport.ReadFull(r, header[:]); res {
	case transport.ReadOK:
	case transport.ReadClosed:
		return nil, fmt.Errorf("%w: EOF", ErrConnectionClosed)
	default:
		return nil, fmt.Errorf("read() error: header: %w", err)
	}

	length := ByteOrder.Uint32(header[:])
	if length > MaxMsg {
		return nil, fmt.Errorf("%w: too long: %d > %d", ErrMessageTooLarge, length, MaxMsg)
	}

	body := make([]byte, length)
	if res, err := transport.ReadFull(r, body); res != transport.ReadOK {
		if res == transport.ReadClosed {
			// The header promised a body, so a close here is a truncated frame.
			err = fmt.Errorf("%w: EOF before body", ErrIO)
		}
		return nil, fmt.Errorf("read() error: body: %w", err)
	}
	return body, nil
}
