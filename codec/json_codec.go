package codec

import (
	"encoding/json"
	"errors"
	"mini-kv/message"
)

// JSONCodec renders responses as JSON for scripts consuming kvcli output.
// The payload is emitted as a string; bytes that are not valid UTF-8 come out
// as U+FFFD, so the rendering is for display and not a lossless format.
type JSONCodec struct{}

type jsonResponse struct {
	Status  uint32 `json:"status"`
	Payload string `json:"payload"`
}

func (c *JSONCodec) Encode(v any) ([]byte, error) {
	switch msg := v.(type) {
	case *message.Response:
		return json.Marshal(jsonResponse{Status: msg.Status, Payload: string(msg.Payload)})
	case *message.Request:
		return json.Marshal(msg.Args)
	default:
		return nil, errors.New("JSONCodec: v must be *Request or *Response")
	}
}

func (c *JSONCodec) Decode(data []byte, v any) error {
	switch msg := v.(type) {
	case *message.Response:
		var jr jsonResponse
		if err := json.Unmarshal(data, &jr); err != nil {
			return err
		}
		msg.Status = jr.Status
		msg.Payload = []byte(jr.Payload)
		return nil
	case *message.Request:
		return json.Unmarshal(data, &msg.Args)
	default:
		return errors.New("JSONCodec: v must be *Request or *Response")
	}
}

func (c *JSONCodec) Type() CodecType {
	return CodecTypeJSON
}
