// Package morph provides declarative schemas and mappings for transforming
// structured values from one shape into another.
//
// The package offers typed Schemas built from ordered Field declarations,
// a small library of pure Transform nodes, and Mappings that bind target
// field names to transforms and assemble the results into a Schema instance
// or a generic instance.
//
// # Schemas
//
// Schemas are immutable descriptors declared once:
//
//	var Circle = morph.MustSchema("Circle",
//	    morph.Attr("id", morph.String()),
//	    morph.Attr("name", morph.String()),
//	    morph.Attr("diameter", morph.Number(morph.Optional())),
//	)
//
// Instances are created per use and discarded afterwards:
//
//	c, err := Circle.New(map[string]any{"id": "c1", "name": "peggy"})
//	err = c.Validate()                      // *ValidationError listing every bad field
//	rec, err := c.Serialize()               // absent fields emitted as nil
//	rec, err = c.Serialize(morph.ImplicitNulls()) // absent fields omitted
//
// Unknown names fail construction with ErrConstruction. Generic instances
// (NewGeneric, GenericFrom) accept any keys and never fail validation.
//
// # Transforms
//
// A Transform computes one value from a source value:
//
//	morph.Get("owner.name")                    // path lookup, ErrLookup if absent
//	morph.Get("nickname").Default("anon")      // path lookup with a default
//	morph.Const(4)                             // fixed value
//	morph.Concat(morph.Const("a"), ":", morph.Get("id")) // "a:1"
//	morph.Str(morph.Get("id"))                 // coercion wrappers Str, Int, Num, Bool
//	morph.Do(fn, morph.Get("width"))           // arbitrary function
//	morph.Chain(morph.Get("owner"), morph.Get("name"))
//	morph.Submap(inner, "owner")               // nested mapping, nil-propagating
//	morph.ManySubmap(inner, "items")           // nested mapping over a sequence
//
// Transforms hold configuration only. Every evaluation runs inside a fresh
// Scope, so a Mapping can be applied concurrently from any number of
// goroutines.
//
// # Mappings
//
//	var SquareToCircle = morph.Map("SquareToCircle").
//	    To(Circle).
//	    Field("id", morph.Concat(morph.Const("from_square"), ":", morph.Str(morph.Get("id")))).
//	    Field("name", morph.Get("name")).
//	    Field("diameter", morph.Do(morph.Unary(largestSquare), morph.Get("width"))).
//	    MustBuild()
//
//	circle, err := SquareToCircle.Apply(ctx, source)
//
// Apply never validates implicitly; call Validate on the result when needed.
//
// # Codec Providers
//
// Serialized output (*Record) keeps declaration order and can be handed to
// any encoder. The following codecs are available as subpackages:
//
//   - json - JSON encoding (application/json)
//   - yaml - YAML encoding (application/yaml)
//   - msgpack - MessagePack encoding (application/msgpack)
//   - xml - XML encoding (application/xml)
//   - bson - BSON encoding (application/bson)
//   - protobuf - google.protobuf.Struct encoding (application/protobuf)
//
// # Events
//
// Apply emits capitan signals (morph.apply.start, morph.apply.complete) and,
// when configured with Trace and Meter, OpenTelemetry spans and metrics.
package morph

// Codec provides content-type aware marshaling.
type Codec interface {
	// ContentType returns the MIME type for this codec (e.g., "application/json").
	ContentType() string

	// Marshal encodes v into bytes.
	Marshal(v any) ([]byte, error)

	// Unmarshal decodes data into v.
	Unmarshal(data []byte, v any) error
}

// Func is the function shape accepted by Do. It receives the evaluated
// arguments positionally and returns the node's result.
type Func func(args ...any) (any, error)
