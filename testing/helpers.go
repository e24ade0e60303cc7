// Package testing provides fixtures for morph tests.
package testing

import (
	"math"
	"testing"

	"github.com/zoobzio/morph"
)

// TestKey returns a valid 32-byte AES key for testing.
func TestKey(t testing.TB) []byte {
	t.Helper()
	return []byte("32-byte-key-for-aes-256-encrypt!")
}

// TestEncryptor returns an AES encryptor configured for testing.
func TestEncryptor(t testing.TB) morph.Encryptor {
	t.Helper()
	enc, err := morph.AES(TestKey(t))
	if err != nil {
		t.Fatalf("AES() error: %v", err)
	}
	return enc
}

// LargestSquare returns the diameter of the smallest circle enclosing a
// square of the given width.
func LargestSquare(width float64) float64 {
	return math.Sqrt(2 * width * width)
}

// Circle is the target schema of the square example.
var Circle = morph.MustSchema("Circle",
	morph.Attr("id", morph.String()),
	morph.Attr("name", morph.String()),
	morph.Attr("diameter", morph.Number()),
)

// SquareToCircle maps {id, name, width} sources onto Circle.
var SquareToCircle = morph.Map("SquareToCircle").
	To(Circle).
	Field("id", morph.Concat(morph.Literal("from_square"), ":", morph.Str(morph.Get("id")))).
	Field("name", morph.Get("name")).
	Field("diameter", morph.Do(morph.Unary(LargestSquare), morph.Get("width"))).
	MustBuild()

// AuthorToGeneric maps {nom_de_plume, best_known_for} sources onto a
// generic instance.
var AuthorToGeneric = morph.Map("AuthorToGeneric").
	Field("id", morph.Concat(morph.Literal("author"), ":", morph.Get("nom_de_plume"))).
	Field("name", morph.Get("nom_de_plume")).
	Field("book", morph.Get("best_known_for")).
	MustBuild()

// Square is a struct source for SquareToCircle.
type Square struct {
	ID    int     `json:"id"`
	Name  string  `json:"name"`
	Width float64 `json:"width"`
	Notes string  `morph:"-"`
}

// Person is the nested schema of Order.
var Person = morph.MustSchema("Person",
	morph.Attr("name", morph.String()),
	morph.Attr("email", morph.String(morph.Optional())),
)

// Order exercises nested, array and optional fields.
var Order = morph.MustSchema("Order",
	morph.Attr("id", morph.String()),
	morph.Attr("owner", morph.Nested(Person, morph.Optional())),
	morph.Attr("lines", morph.Array(morph.Nested(Person), morph.Optional())),
	morph.Attr("note", morph.String(morph.Optional())),
)

// PersonFromUser maps {first, last, mail} sources onto Person.
var PersonFromUser = morph.Map("PersonFromUser").
	To(Person).
	Field("name", morph.Concat(morph.Get("first"), morph.Get("last")).Sep(" ")).
	Field("email", morph.Get("mail").Default(nil)).
	MustBuild()

// OrderFromPayload maps order payloads onto Order.
var OrderFromPayload = morph.Map("OrderFromPayload").
	To(Order).
	Field("id", morph.Str(morph.Get("order_id"))).
	Field("owner", morph.Submap(PersonFromUser, "buyer")).
	Field("lines", morph.ManySubmap(PersonFromUser, "recipients")).
	MustBuild()

// SquareSource returns the canonical square example source.
func SquareSource() map[string]any {
	return map[string]any{"id": 1, "name": "peggy", "width": 50}
}

// AuthorSource returns the canonical author example source.
func AuthorSource() map[string]any {
	return map[string]any{"nom_de_plume": "Mark Twain", "best_known_for": "Huckleberry Finn"}
}

// OrderSource returns an order payload with a buyer and two recipients.
func OrderSource() map[string]any {
	return map[string]any{
		"order_id": 1001,
		"buyer":    map[string]any{"first": "Ada", "last": "Lovelace", "mail": "ada@example.com"},
		"recipients": []any{
			map[string]any{"first": "Charles", "last": "Babbage"},
			nil,
		},
	}
}
