// Package ledgerrpc describes the ledger gRPC service: a JSON codec, the
// service descriptor and a thin client stub, written by hand in the shape
// protoc-gen-go-grpc would generate.
package ledgerrpc

import (
	"encoding/json"
	"fmt"
)

// CodecName is the gRPC content-subtype of the JSON codec.
const CodecName = "json"

// Codec marshals messages as JSON. It is forced on both ends with
// grpc.ForceServerCodec and grpc.ForceCodec.
type Codec struct{}

func (Codec) Marshal(v any) ([]byte, error) {
	b, err := json.Marshal(v)
	if err != nil {
		return nil, fmt.Errorf("json codec: %w", err)
	}
	return b, nil
}

func (Codec) Unmarshal(data []byte, v any) error {
	if err := json.Unmarshal(data, v); err != nil {
		return fmt.Errorf("json codec: %w", err)
	}
	return nil
}

func (Codec) Name() string {
	return CodecName
}
