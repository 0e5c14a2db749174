package codec

import (
	"errors"
	"fmt"
	"mini-kv/message"
	"mini-kv/protocol"
)

// BinaryCodec encodes frame bodies in the mini-kv wire layout.
//
//	RequestBody  := argument_count:u32 , Argument*argument_count
//	Argument     := length:u32 , bytes:u8[length]
//	ResponseBody := status_code:u32 , payload:u8[total_length-4]
//
// Every body it produces fits in protocol.MaxMsg.
type BinaryCodec struct{}

// RequestSize returns the body length of a request carrying args:
// 4 for the count plus 4+len(arg) per argument.
func RequestSize(args []string) int {
	size := 4
	for _, arg := range args {
		size += 4 + len(arg)
	}
	return size
}

func (c *BinaryCodec) Encode(v any) ([]byte, error) {
	switch msg := v.(type) {
	case *message.Request:
		return encodeRequest(msg)
	case *message.Response:
		return encodeResponse(msg)
	default:
		return nil, errors.New("BinaryCodec: v must be *Request or *Response")
	}
}

func (c *BinaryCodec) Decode(data []byte, v any) error {
	switch msg := v.(type) {
	case *message.Request:
		return decodeRequest(data, msg)
	case *message.Response:
		return decodeResponse(data, msg)
	default:
		return errors.New("BinaryCodec: v must be *Request or *Response")
	}
}

func (c *BinaryCodec) Type() CodecType {
	return CodecTypeBinary
}

func encodeRequest(req *message.Request) ([]byte, error) {
	// Checked before allocating: the size limit is a precondition, not a truncation.
	total := RequestSize(req.Args)
	if total > protocol.MaxMsg {
		return nil, fmt.Errorf("%w: too long: request body %d > %d", protocol.ErrMessageTooLarge, total, protocol.MaxMsg)
	}
	buf := make([]byte, total)

	offset := 0
	// argument_count -- 4 bytes
	protocol.ByteOrder.PutUint32(buf[offset:offset+4], uint32(len(req.Args)))
	offset += 4

	for _, arg := range req.Args {
		// length -- 4 bytes
		protocol.ByteOrder.PutUint32(buf[offset:offset+4], uint32(len(arg)))
		offset += 4
		// bytes -- n bytes, not NUL terminated
		copy(buf[offset:offset+len(arg)], arg)
		offset += len(arg)
	}
	return buf, nil
}

func decodeRequest(data []byte, req *message.Request) error {
	if len(data) < 4 {
		return fmt.Errorf("%w: bad message: request body of %d bytes", protocol.ErrMalformedMessage, len(data))
	}
	offset := 0
	count := protocol.ByteOrder.Uint32(data[offset : offset+4])
	offset += 4

	// Each argument needs at least its length field, which bounds count
	// before anything is allocated from it.
	if uint64(count)*4 > uint64(len(data)-offset) {
		return fmt.Errorf("%w: bad message: %d arguments in %d bytes", protocol.ErrMalformedMessage, count, len(data))
	}

	args := make([]string, 0, count)
	for i := uint32(0); i < count; i++ {
		if len(data)-offset < 4 {
			return fmt.Errorf("%w: bad message: argument %d length truncated", protocol.ErrMalformedMessage, i)
		}
		n := protocol.ByteOrder.Uint32(data[offset : offset+4])
		offset += 4
		if uint64(n) > uint64(len(data)-offset) {
			return fmt.Errorf("%w: bad message: argument %d wants %d bytes, %d left", protocol.ErrMalformedMessage, i, n, len(data)-offset)
		}
		args = append(args, string(data[offset:offset+int(n)]))
		offset += int(n)
	}
	if offset != len(data) {
		return fmt.Errorf("%w: bad message: %d trailing bytes", protocol.ErrMalformedMessage, len(data)-offset)
	}

	req.Args = args
	return nil
}

func encodeResponse(resp *message.Response) ([]byte, error) {
	total := 4 + len(resp.Payload)
	if total > protocol.MaxMsg {
		return nil, fmt.Errorf("%w: too long: response body %d > %d", protocol.ErrMessageTooLarge, total, protocol.MaxMsg)
	}
	buf := make([]byte, total)
	// status_code -- 4 bytes
	protocol.ByteOrder.PutUint32(buf[0:4], resp.Status)
	// payload -- the rest
	copy(buf[4:], resp.Payload)
	return buf, nil
}

func decodeResponse(data []byte, resp *message.Response) error {
	// A response must at least carry its status code.
	if len(data) < 4 {
		return fmt.Errorf("%w: bad message: response body of %d bytes", protocol.ErrMalformedMessage, len(data))
	}
	resp.Status = protocol.ByteOrder.Uint32(data[0:4])
	resp.Payload = make([]byte, len(data)-4)
	copy(resp.Payload, data[4:])
	return nil
}
