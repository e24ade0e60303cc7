// Package bson provides a BSON codec for morph records.
package bson

import (
	"github.com/zoobzio/morph"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// bsonCodec implements morph.Codec for BSON.
type bsonCodec struct{}

// New returns a BSON codec. Records are encoded as ordered documents.
func New() morph.Codec {
	return &bsonCodec{}
}

// ContentType returns the MIME type for BSON.
func (c *bsonCodec) ContentType() string {
	return "application/bson"
}

// Marshal encodes v as a BSON document.
func (c *bsonCodec) Marshal(v any) ([]byte, error) {
	if rec, ok := v.(*morph.Record); ok {
		return bson.Marshal(toD(rec))
	}
	return bson.Marshal(v)
}

// Unmarshal decodes BSON data into v. Decoding into *any produces nested
// map[string]any and []any values.
func (c *bsonCodec) Unmarshal(data []byte, v any) error {
	target, ok := v.(*any)
	if !ok {
		return bson.Unmarshal(data, v)
	}
	var doc bson.M
	if err := bson.Unmarshal(data, &doc); err != nil {
		return err
	}
	*target = plain(doc)
	return nil
}

// toD converts a record into an ordered document.
func toD(rec *morph.Record) bson.D {
	doc := make(bson.D, 0, rec.Len())
	rec.Range(func(key string, value any) bool {
		doc = append(doc, bson.E{Key: key, Value: toBSON(value)})
		return true
	})
	return doc
}

func toBSON(v any) any {
	switch t := v.(type) {
	case *morph.Record:
		if t == nil {
			return nil
		}
		return toD(t)
	case []any:
		out := make(bson.A, len(t))
		for i, e := range t {
			out[i] = toBSON(e)
		}
		return out
	}
	return v
}

// plain converts driver container types into map[string]any and []any.
func plain(v any) any {
	switch t := v.(type) {
	case primitive.M:
		out := make(map[string]any, len(t))
		for k, e := range t {
			out[k] = plain(e)
		}
		return out
	case primitive.D:
		out := make(map[string]any, len(t))
		for _, e := range t {
			out[e.Key] = plain(e.Value)
		}
		return out
	case primitive.A:
		out := make([]any, len(t))
		for i, e := range t {
			out[i] = plain(e)
		}
		return out
	}
	return v
}
