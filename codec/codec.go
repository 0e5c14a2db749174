// Package codec turns mini-kv messages into frame bodies and back.
//
// The binary codec is the wire format and the only one ever sent to a server.
// The JSON codec exists so kvcli can print responses for scripts.
package codec

type CodecType byte

const (
	CodecTypeBinary CodecType = 0
	CodecTypeJSON   CodecType = 1
)

// Codec encodes and decodes *message.Request and *message.Response values.
type Codec interface {
	Encode(v any) ([]byte, error)
	Decode(data []byte, v any) error
	Type() CodecType
}

// GetCodec returns the codec for codecType, defaulting to the wire codec.
func GetCodec(codecType CodecType) Codec {
	switch codecType {
	case CodecTypeJSON:
		return &JSONCodec{}
	default:
		return &BinaryCodec{}
	}
}
