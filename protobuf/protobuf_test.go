package protobuf

import (
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/zoobzio/morph"
	"google.golang.org/protobuf/types/known/structpb"
)

func TestContentType(t *testing.T) {
	if got := New().ContentType(); got != "application/protobuf" {
		t.Errorf("ContentType() = %q", got)
	}
}

func TestMarshalRecord(t *testing.T) {
	c := New()

	owner := morph.NewRecord(1)
	owner.Set("ok", true)
	rec := morph.NewRecord(5)
	rec.Set("name", "Ada")
	rec.Set("n", 3)
	rec.Set("tags", []any{"a", nil})
	rec.Set("owner", owner)
	rec.Set("at", time.Date(2020, 1, 2, 3, 4, 5, 0, time.UTC))

	data, err := c.Marshal(rec)
	if err != nil {
		t.Fatalf("Marshal() error: %v", err)
	}
	var v any
	if err := c.Unmarshal(data, &v); err != nil {
		t.Fatalf("Unmarshal() error: %v", err)
	}
	want := map[string]any{
		"name":  "Ada",
		"n":     float64(3),
		"tags":  []any{"a", nil},
		"owner": map[string]any{"ok": true},
		"at":    "2020-01-02T03:04:05Z",
	}
	if diff := cmp.Diff(want, v); diff != "" {
		t.Errorf("Unmarshal() mismatch (-want +got):\n%s", diff)
	}
}

func TestMarshalMessage(t *testing.T) {
	c := New()

	data, err := c.Marshal(structpb.NewStringValue("peggy"))
	if err != nil {
		t.Fatalf("Marshal() error: %v", err)
	}
	var out structpb.Value
	if err := c.Unmarshal(data, &out); err != nil {
		t.Fatalf("Unmarshal() error: %v", err)
	}
	if out.GetStringValue() != "peggy" {
		t.Errorf("round trip = %v, want peggy", out.AsInterface())
	}
}

func TestErrors(t *testing.T) {
	c := New()

	if _, err := c.Marshal("not a map"); err == nil {
		t.Error("Marshal(string) should fail")
	}
	var s string
	if err := c.Unmarshal(nil, &s); err == nil {
		t.Error("Unmarshal into *string should fail")
	}
	var v any
	if err := c.Unmarshal([]byte{0xff, 0xff}, &v); err == nil {
		t.Error("Unmarshal(garbage) should fail")
	}
}
