package api

import (
	"encoding/json"
	"fmt"

	"connectrpc.com/connect"
)

// codecName replaces connect's built-in protobuf JSON codec, which only
// accepts generated messages.
const codecName = "json"

type jsonCodec struct{}

// Codec returns the codec every handler and client of this package uses.
func Codec() connect.Codec { return jsonCodec{} }

func (jsonCodec) Name() string { return codecName }

func (jsonCodec) Marshal(msg any) ([]byte, error) {
	data, err := json.Marshal(msg)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal %T: %w", msg, err)
	}
	return data, nil
}

func (jsonCodec) Unmarshal(data []byte, msg any) error {
	if len(data) == 0 {
		return nil
	}
	if err := json.Unmarshal(data, msg); err != nil {
		return fmt.Errorf("failed to unmarshal %T: %w", msg, err)
	}
	return nil
}
