// Package transport implements the byte-stream side of mini-kv: full-buffer
// reads and writes over a connection that may transfer short counts, and
// dialing the server connection that a single request/response cycle uses.
//
// TCP does not preserve message boundaries, and Read/Write on a net.Conn may
// move fewer bytes than asked. Both helpers here loop, accumulating progress,
// until the whole buffer is done or the stream fails.
package transport

import (
	"errors"
	"fmt"
	"io"
)

var (
	// ErrIO reports a transport failure on read or write.
	ErrIO = errors.New("i/o error")
	// ErrClosed reports that the peer closed the stream cleanly before any
	// byte of the requested buffer arrived.
	ErrClosed = errors.New("connection closed")
)

// maxZeroReads bounds how many (0, nil) results a reader may return in a row
// before ReadFull gives up on it. Same limit as bufio uses.
const maxZeroReads = 100

// ReadResult tells a caller how ReadFull ended.
type ReadResult int

const (
	ReadOK     ReadResult = iota // Buffer filled
	ReadClosed                   // Peer closed before the first byte
	ReadFailed                   // I/O error, or EOF after a partial read
)

func (r ReadResult) String() string {
	switch r {
	case ReadOK:
		return "ok"
	case ReadClosed:
		return "closed"
	case ReadFailed:
		return "failed"
	default:
		return fmt.Sprintf("ReadResult(%d)", int(r))
	}
}

// WriteAll writes every byte of buf to w or fails with ErrIO.
// A write that reports an error or makes no progress ends the loop.
func WriteAll(w io.Writer, buf []byte) error {
	written := 0
	for written < len(buf) {
		n, err := w.Write(buf[written:])
		if n < 0 || n > len(buf)-written {
			return fmt.Errorf("%w: write() returned invalid count %d", ErrIO, n)
		}
		written += n
		if err != nil {
			return fmt.Errorf("%w: write() after %d/%d bytes: %w", ErrIO, written, len(buf), err)
		}
		if n == 0 {
			return fmt.Errorf("%w: write() made no progress after %d/%d bytes", ErrIO, written, len(buf))
		}
	}
	return nil
}

// ReadFull reads exactly len(buf) bytes from r.
//
// The returned ReadResult separates a clean end of stream (ReadClosed, with
// ErrClosed) from everything else (ReadFailed, wrapping ErrIO). EOF counts as
// clean only when nothing was read yet; EOF in the middle of buf is a
// truncated stream and therefore a failure.
func ReadFull(r io.Reader, buf []byte) (ReadResult, error) {
	read := 0
	zeroReads := 0
	for read < len(buf) {
		n, err := r.Read(buf[read:])
		if n < 0 || n > len(buf)-read {
			return ReadFailed, fmt.Errorf("%w: read() returned invalid count %d", ErrIO, n)
		}
		read += n
		if read == len(buf) {
			// A reader may hand back the final bytes together with io.EOF.
			return ReadOK, nil
		}
		if err != nil {
			if errors.Is(err, io.EOF) {
				if read == 0 {
					return ReadClosed, ErrClosed
				}
				return ReadFailed, fmt.Errorf("%w: unexpected EOF after %d/%d bytes", ErrIO, read, len(buf))
			}
			return ReadFailed, fmt.Errorf("%w: read() after %d/%d bytes: %w", ErrIO, read, len(buf), err)
		}
		if n == 0 {
			zeroReads++
			if zeroReads >= maxZeroReads {
				return ReadFailed, fmt.Errorf("%w: %w", ErrIO, io.ErrNoProgress)
			}
			continue
		}
		zeroReads = 0
	}
	return ReadOK, nil
}
