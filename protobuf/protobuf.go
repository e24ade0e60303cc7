// Package protobuf provides a codec encoding morph records as
// google.protobuf.Struct messages.
package protobuf

import (
	"fmt"
	"time"

	"github.com/zoobzio/morph"
	"google.golang.org/protobuf/proto"
	"google.golang.org/protobuf/types/known/structpb"
)

// protobufCodec implements morph.Codec for google.protobuf.Struct.
type protobufCodec struct{}

// New returns a protobuf codec. Records and maps are encoded as Struct
// messages; proto.Message values are encoded as themselves. Struct does not
// preserve key order.
func New() morph.Codec {
	return &protobufCodec{}
}

// ContentType returns the MIME type for protobuf.
func (c *protobufCodec) ContentType() string {
	return "application/protobuf"
}

// Marshal encodes v as protobuf.
func (c *protobufCodec) Marshal(v any) ([]byte, error) {
	if msg, ok := v.(proto.Message); ok {
		return proto.Marshal(msg)
	}

	m, ok := morph.Plain(v).(map[string]any)
	if !ok {
		return nil, fmt.Errorf("protobuf: cannot encode %T as a Struct", v)
	}
	s, err := structpb.NewStruct(toStructable(m).(map[string]any))
	if err != nil {
		return nil, fmt.Errorf("protobuf: %w", err)
	}
	return proto.Marshal(s)
}

// Unmarshal decodes a Struct message into v. Decoding into *any produces
// map[string]any; numbers decode as float64.
func (c *protobufCodec) Unmarshal(data []byte, v any) error {
	if msg, ok := v.(proto.Message); ok {
		return proto.Unmarshal(data, msg)
	}
	target, ok := v.(*any)
	if !ok {
		return fmt.Errorf("protobuf: cannot decode into %T", v)
	}
	var s structpb.Struct
	if err := proto.Unmarshal(data, &s); err != nil {
		return err
	}
	*target = s.AsMap()
	return nil
}

// toStructable replaces values structpb cannot represent with their string form.
func toStructable(v any) any {
	switch t := v.(type) {
	case nil, bool, string, []byte,
		int, int8, int16, int32, int64,
		uint, uint8, uint16, uint32, uint64,
		float32, float64:
		return v
	case map[string]any:
		out := make(map[string]any, len(t))
		for k, e := range t {
			out[k] = toStructable(e)
		}
		return out
	case []any:
		out := make([]any, len(t))
		for i, e := range t {
			out[i] = toStructable(e)
		}
		return out
	case time.Time:
		return t.Format(time.RFC3339Nano)
	}
	if s, err := morph.ToString(v); err == nil {
		return s
	}
	return fmt.Sprint(v)
}
