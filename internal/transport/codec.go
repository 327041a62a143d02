package transport

import (
	"fmt"

	jsoniter "github.com/json-iterator/go"
	"google.golang.org/grpc/encoding"
)

// CodecName is the registered codec name, used as the gRPC content-subtype.
// Deployments of the gateway negotiate JSON bodies so that field naming
// differences (snake_case vs camelCase) stay visible to the client.
const CodecName = "json"

var json = jsoniter.ConfigCompatibleWithStandardLibrary

func init() {
	encoding.RegisterCodec(jsonCodec{})
}

// jsonCodec marshals request and response bodies as JSON.
type jsonCodec struct{}

func (jsonCodec) Marshal(v any) ([]byte, error) {
	data, err := json.Marshal(v)
	if err != nil {
		return nil, fmt.Errorf("json codec marshal: %w", err)
	}
	return data, nil
}

func (jsonCodec) Unmarshal(data []byte, v any) error {
	if len(data) == 0 {
		return nil
	}
	if err := json.Unmarshal(data, v); err != nil {
		return fmt.Errorf("json codec unmarshal: %w", err)
	}
	return nil
}

func (jsonCodec) Name() string {
	return CodecName
}
