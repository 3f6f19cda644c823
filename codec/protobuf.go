package codec

import (
	"google.golang.org/protobuf/proto"
	"google.golang.org/protobuf/types/known/structpb"
)

// Protobuf carries records as google.protobuf.Struct messages, which lets
// non-Go readers decode cached entries with stock protobuf tooling.
// Numbers come back as float64 (Struct has a single number kind).
type Protobuf struct{}

var _ Codec[map[string]any] = Protobuf{}

func (Protobuf) Encode(rec map[string]any) ([]byte, error) {
	s, err := structpb.NewStruct(rec)
	if err != nil {
		return nil, err
	}
	return proto.Marshal(s)
}

func (Protobuf) Decode(b []byte) (map[string]any, error) {
	var s structpb.Struct
	if err := proto.Unmarshal(b, &s); err != nil {
		return nil, err
	}
	return s.AsMap(), nil
}
