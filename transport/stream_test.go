package transport

import (
	"bytes"
	"context"
	"errors"
	"io"
	"net"
	"testing"
	"time"
)

// chunkWriter accepts at most max bytes per Write call.
type chunkWriter struct {
	buf   bytes.Buffer
	max   int
	calls int
}

func (w *chunkWriter) Write(p []byte) (int, error) {
	w.calls++
	if len(p) > w.max {
		p = p[:w.max]
	}
	return w.buf.Write(p)
}

// stuckWriter never makes progress and never reports an error.
type stuckWriter struct{}

func (stuckWriter) Write(p []byte) (int, error) { return 0, nil }

// failingWriter accepts n bytes and then fails.
type failingWriter struct {
	n int
}

func (w *failingWriter) Write(p []byte) (int, error) {
	if w.n == 0 {
		return 0, errors.New("broken pipe")
	}
	if len(p) > w.n {
		p = p[:w.n]
	}
	w.n -= len(p)
	return len(p), nil
}

// chunkReader returns at most max bytes per Read call.
type chunkReader struct {
	r   io.Reader
	max int
}

func (r *chunkReader) Read(p []byte) (int, error) {
	if len(p) > r.max {
		p = p[:r.max]
	}
	return r.r.Read(p)
}

// zeroReader always returns (0, nil).
type zeroReader struct{}

func (zeroReader) Read(p []byte) (int, error) { return 0, nil }

// errReader fails after draining data.
type errReader struct {
	data []byte
	err  error
}

func (r *errReader) Read(p []byte) (int, error) {
	if len(r.data) == 0 {
		return 0, r.err
	}
	n := copy(p, r.data)
	r.data = r.data[n:]
	return n, nil
}

func TestWriteAllShortWrites(t *testing.T) {
	data := []byte("hello mini-kv, written three bytes at a time")
	w := &chunkWriter{max: 3}

	if err := WriteAll(w, data); err != nil {
		t.Fatalf("WriteAll failed: %v", err)
	}
	if !bytes.Equal(w.buf.Bytes(), data) {
		t.Fatalf("data mismatch: got %q, want %q", w.buf.Bytes(), data)
	}
	if want := (len(data) + 2) / 3; w.calls != want {
		t.Errorf("expect %d write calls, got %d", want, w.calls)
	}
}

func TestWriteAllNoProgress(t *testing.T) {
	err := WriteAll(stuckWriter{}, []byte("abc"))
	if !errors.Is(err, ErrIO) {
		t.Fatalf("expect ErrIO, got %v", err)
	}
}

func TestWriteAllWriterError(t *testing.T) {
	err := WriteAll(&failingWriter{n: 2}, []byte("abcdef"))
	if !errors.Is(err, ErrIO) {
		t.Fatalf("expect ErrIO, got %v", err)
	}
}

func TestWriteAllEmpty(t *testing.T) {
	if err := WriteAll(stuckWriter{}, nil); err != nil {
		t.Fatalf("empty write should succeed, got %v", err)
	}
}

func TestReadFullShortReads(t *testing.T) {
	data := []byte("0123456789abcdef")
	r := &chunkReader{r: bytes.NewReader(data), max: 5}

	buf := make([]byte, len(data))
	res, err := ReadFull(r, buf)
	if err != nil || res != ReadOK {
		t.Fatalf("ReadFull: result=%s err=%v", res, err)
	}
	if !bytes.Equal(buf, data) {
		t.Fatalf("data mismatch: got %q, want %q", buf, data)
	}
}

func TestReadFullResults(t *testing.T) {
	cases := []struct {
		name    string
		r       io.Reader
		n       int
		want    ReadResult
		wantErr error
	}{
		{"clean close", bytes.NewReader(nil), 4, ReadClosed, ErrClosed},
		{"close mid buffer", bytes.NewReader([]byte{1, 2}), 4, ReadFailed, ErrIO},
		{"reset before data", &errReader{err: errors.New("connection reset by peer")}, 4, ReadFailed, ErrIO},
		{"reset mid buffer", &errReader{data: []byte{1}, err: errors.New("connection reset by peer")}, 4, ReadFailed, ErrIO},
		{"no progress", zeroReader{}, 4, ReadFailed, ErrIO},
		{"exact", bytes.NewReader([]byte{1, 2, 3, 4}), 4, ReadOK, nil},
		{"data with trailing eof", &errReader{data: []byte{1, 2, 3, 4}, err: io.EOF}, 4, ReadOK, nil},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			res, err := ReadFull(tc.r, make([]byte, tc.n))
			if res != tc.want {
				t.Errorf("result: got %s, want %s", res, tc.want)
			}
			if tc.wantErr == nil {
				if err != nil {
					t.Errorf("expect no error, got %v", err)
				}
				return
			}
			if !errors.Is(err, tc.wantErr) {
				t.Errorf("expect %v, got %v", tc.wantErr, err)
			}
		})
	}
}

func TestReadFullClosedIsNotIO(t *testing.T) {
	_, err := ReadFull(bytes.NewReader(nil), make([]byte, 4))
	if errors.Is(err, ErrIO) {
		t.Fatalf("clean close must not be reported as ErrIO: %v", err)
	}
}

func TestDialAndBindContext(t *testing.T) {
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatal(err)
	}
	defer ln.Close()

	go func() {
		conn, err := ln.Accept()
		if err != nil {
			return
		}
		// Hold the connection open without answering.
		time.Sleep(time.Second)
		conn.Close()
	}()

	d := &Dialer{Timeout: time.Second}
	conn, err := d.Dial(context.Background(), ln.Addr().String())
	if err != nil {
		t.Fatalf("Dial failed: %v", err)
	}
	defer conn.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()
	release := BindContext(ctx, conn)
	defer release()

	start := time.Now()
	res, err := ReadFull(conn, make([]byte, 4))
	if res != ReadFailed || !errors.Is(err, ErrIO) {
		t.Fatalf("expect deadline failure, got result=%s err=%v", res, err)
	}
	if elapsed := time.Since(start); elapsed > 500*time.Millisecond {
		t.Fatalf("read was not interrupted by deadline, took %s", elapsed)
	}
}

func TestDialRefused(t *testing.T) {
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatal(err)
	}
	addr := ln.Addr().String()
	ln.Close()

	d := &Dialer{Timeout: time.Second}
	if _, err := d.Dial(context.Background(), addr); !errors.Is(err, ErrIO) {
		t.Fatalf("expect ErrIO for refused connect, got %v", err)
	}
}
