// Package xml provides an XML codec for morph records.
package xml

import (
	"bytes"
	"encoding/xml"
	"errors"
	"io"

	"github.com/zoobzio/morph"
)

// Root is the element name wrapping an encoded record.
const Root = "record"

// itemName is the element name of sequence entries.
const itemName = "item"

// xmlCodec implements morph.Codec for XML.
type xmlCodec struct{}

// New returns an XML codec. A record becomes a <record> element with one
// child element per key, in key order; sequences become repeated <item>
// elements and nil values become empty elements.
func New() morph.Codec {
	return &xmlCodec{}
}

// ContentType returns the MIME type for XML.
func (c *xmlCodec) ContentType() string {
	return "application/xml"
}

// Marshal encodes v as XML.
func (c *xmlCodec) Marshal(v any) ([]byte, error) {
	if rec, ok := v.(*morph.Record); ok {
		return xml.Marshal(element{name: Root, value: rec})
	}
	return xml.Marshal(v)
}

// Unmarshal decodes XML data into v. Decoding into *any produces nested
// map[string]any values with string leaves; repeated elements become []any.
func (c *xmlCodec) Unmarshal(data []byte, v any) error {
	target, ok := v.(*any)
	if !ok {
		return xml.Unmarshal(data, v)
	}
	dec := xml.NewDecoder(bytes.NewReader(data))
	for {
		tok, err := dec.Token()
		if err != nil {
			if errors.Is(err, io.EOF) {
				return io.ErrUnexpectedEOF
			}
			return err
		}
		if _, ok := tok.(xml.StartElement); ok {
			out, err := decodeElement(dec)
			if err != nil {
				return err
			}
			*target = out
			return nil
		}
	}
}

// element is one named value in the output tree.
type element struct {
	name  string
	value any
}

// MarshalXML implements xml.Marshaler.
func (el element) MarshalXML(e *xml.Encoder, _ xml.StartElement) error {
	start := xml.StartElement{Name: xml.Name{Local: el.name}}
	switch t := el.value.(type) {
	case nil:
		if err := e.EncodeToken(start); err != nil {
			return err
		}
		return e.EncodeToken(start.End())
	case *morph.Record:
		if err := e.EncodeToken(start); err != nil {
			return err
		}
		var err error
		t.Range(func(key string, value any) bool {
			err = e.Encode(element{name: key, value: value})
			return err == nil
		})
		if err != nil {
			return err
		}
		return e.EncodeToken(start.End())
	case []any:
		if err := e.EncodeToken(start); err != nil {
			return err
		}
		for _, item := range t {
			if err := e.Encode(element{name: itemName, value: item}); err != nil {
				return err
			}
		}
		return e.EncodeToken(start.End())
	}
	return e.EncodeElement(el.value, start)
}

// decodeElement reads an element body up to its end element.
func decodeElement(dec *xml.Decoder) (any, error) {
	var (
		text     bytes.Buffer
		children map[string]any
		lists    map[string]bool
	)
	for {
		tok, err := dec.Token()
		if err != nil {
			return nil, err
		}
		switch t := tok.(type) {
		case xml.CharData:
			text.Write(t)
		case xml.StartElement:
			child, err := decodeElement(dec)
			if err != nil {
				return nil, err
			}
			if children == nil {
				children = make(map[string]any)
				lists = make(map[string]bool)
			}
			name := t.Name.Local
			prev, seen := children[name]
			switch {
			case !seen:
				children[name] = child
			case lists[name]:
				children[name] = append(prev.([]any), child)
			default:
				children[name] = []any{prev, child}
				lists[name] = true
			}
		case xml.EndElement:
			if children == nil {
				s := string(bytes.TrimSpace(text.Bytes()))
				if s == "" {
					return nil, nil
				}
				return s, nil
			}
			if items, ok := children[itemName]; ok && len(children) == 1 {
				if lists[itemName] {
					return items, nil
				}
				return []any{items}, nil
			}
			return children, nil
		}
	}
}
