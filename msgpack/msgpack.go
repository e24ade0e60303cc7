// Package msgpack provides a MessagePack codec for morph records.
package msgpack

import (
	"bytes"

	"github.com/vmihailenco/msgpack/v5"
	"github.com/zoobzio/morph"
)

// msgpackCodec implements morph.Codec for MessagePack.
type msgpackCodec struct{}

// New returns a MessagePack codec. Records are encoded as maps in key order.
func New() morph.Codec {
	return &msgpackCodec{}
}

// ContentType returns the MIME type for MessagePack.
func (c *msgpackCodec) ContentType() string {
	return "application/msgpack"
}

// Marshal encodes v as MessagePack.
func (c *msgpackCodec) Marshal(v any) ([]byte, error) {
	var buf bytes.Buffer
	enc := msgpack.NewEncoder(&buf)
	if err := encode(enc, v); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// Unmarshal decodes MessagePack data into v. Integers decoded into an
// interface value become int64 or uint64, floats become float64.
func (c *msgpackCodec) Unmarshal(data []byte, v any) error {
	dec := msgpack.NewDecoder(bytes.NewReader(data))
	dec.UseLooseInterfaceDecoding(true)
	if target, ok := v.(*any); ok {
		out, err := dec.DecodeInterfaceLoose()
		if err != nil {
			return err
		}
		*target = out
		return nil
	}
	return dec.Decode(v)
}

func encode(enc *msgpack.Encoder, v any) error {
	switch t := v.(type) {
	case *morph.Record:
		if t == nil {
			return enc.EncodeNil()
		}
		if err := enc.EncodeMapLen(t.Len()); err != nil {
			return err
		}
		var err error
		t.Range(func(key string, value any) bool {
			if err = enc.EncodeString(key); err != nil {
				return false
			}
			err = encode(enc, value)
			return err == nil
		})
		return err
	case []any:
		if err := enc.EncodeArrayLen(len(t)); err != nil {
			return err
		}
		for _, e := range t {
			if err := encode(enc, e); err != nil {
				return err
			}
		}
		return nil
	}
	return enc.Encode(v)
}
