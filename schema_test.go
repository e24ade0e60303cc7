package morph

import (
	"errors"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/google/uuid"
)

var personSchema = MustSchema("Person",
	Attr("name", String()),
	Attr("age", Integer(Optional())),
	Attr("email", String(Optional())),
)

func TestNewSchema_Definition(t *testing.T) {
	tests := []struct {
		name string
		defs []Def
		sn   string
	}{
		{"empty name", []Def{Attr("a", Any())}, ""},
		{"nil field", []Def{Attr("a", nil)}, "S"},
		{"empty field name", []Def{Attr("", Any())}, "S"},
		{"duplicate", []Def{Attr("a", Any()), Attr("a", String())}, "S"},
		{"unknown encoding", []Def{Attr("a", String(Encoding("no-such-charset")))}, "S"},
		{"nested without schema", []Def{Attr("a", Nested(nil))}, "S"},
		{"array of nested without schema", []Def{Attr("a", Array(Nested(nil)))}, "S"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := NewSchema(tt.sn, tt.defs...); !errors.Is(err, ErrDefinition) {
				t.Errorf("NewSchema() error = %v, want ErrDefinition", err)
			}
		})
	}
}

func TestMustSchema_Panics(t *testing.T) {
	defer func() {
		if recover() == nil {
			t.Error("MustSchema() should panic")
		}
	}()
	MustSchema("")
}

func TestSchema_Accessors(t *testing.T) {
	if personSchema.Name() != "Person" {
		t.Errorf("Name() = %q", personSchema.Name())
	}
	if personSchema.Len() != 3 {
		t.Errorf("Len() = %d, want 3", personSchema.Len())
	}
	names := make([]string, 0, 3)
	for _, d := range personSchema.Fields() {
		names = append(names, d.Name)
	}
	if diff := cmp.Diff([]string{"name", "age", "email"}, names); diff != "" {
		t.Errorf("Fields() order mismatch (-want +got):\n%s", diff)
	}
	f, ok := personSchema.Field("age")
	if !ok || f.Kind() != KindInteger || f.Required() {
		t.Errorf("Field(age) = %v, %v", f, ok)
	}
	if _, ok := personSchema.Field("missing"); ok {
		t.Error("Field(missing) should report false")
	}
}

func TestSchema_New(t *testing.T) {
	inst, err := personSchema.New(map[string]any{"name": "Ada", "age": 36})
	if err != nil {
		t.Fatalf("New() error: %v", err)
	}
	if diff := cmp.Diff([]string{"name", "age"}, inst.Keys()); diff != "" {
		t.Errorf("Keys() mismatch (-want +got):\n%s", diff)
	}
	if err := inst.Validate(); err != nil {
		t.Errorf("Validate() error: %v", err)
	}
}

func TestSchema_New_Undeclared(t *testing.T) {
	_, err := personSchema.New(map[string]any{"name": "Ada", "height": 1.7, "colour": "red"})

	var cerr *ConstructionError
	if !errors.As(err, &cerr) {
		t.Fatalf("New() error = %v, want *ConstructionError", err)
	}
	if cerr.Schema != "Person" || cerr.Field != "colour" {
		t.Errorf("ConstructionError = %+v, want first undeclared name in sorted order", cerr)
	}
}

func TestSchema_Defaults(t *testing.T) {
	calls := 0
	s := MustSchema("Defaults",
		Attr("status", String(Default("new"))),
		Attr("tags", Array(String(), Default([]any{"x"}))),
		Attr("id", String(DefaultFunc(func() any {
			calls++
			return "generated"
		}))),
	)

	a, err := s.New(nil)
	if err != nil {
		t.Fatalf("New() error: %v", err)
	}
	if v, _ := a.Get("status"); v != "new" {
		t.Errorf("status = %v, want new", v)
	}
	if v, _ := a.Get("id"); v != "generated" {
		t.Errorf("id = %v, want generated", v)
	}

	tags, _ := a.Get("tags")
	tags.([]any)[0] = "mutated"
	b, _ := s.New(nil)
	if v, _ := b.Get("tags"); v.([]any)[0] != "x" {
		t.Error("default shared between instances")
	}

	c, _ := s.New(map[string]any{"status": nil})
	if v, _ := c.Get("status"); v != "new" {
		t.Errorf("explicit nil status = %v, want default", v)
	}
	if calls != 3 {
		t.Errorf("DefaultFunc called %d times, want 3", calls)
	}
}

func TestSchema_NewFrom(t *testing.T) {
	type source struct {
		Name   string `json:"name"`
		Age    int    `morph:"age"`
		Secret string `json:"-"`
	}

	tests := []struct {
		name string
		src  any
		want string
	}{
		{"map", map[string]any{"name": "Ada"}, "Ada"},
		{"typed map", map[string]string{"name": "Ada"}, "Ada"},
		{"record", RecordOf(map[string]any{"name": "Ada"}), "Ada"},
		{"struct", source{Name: "Ada", Age: 36, Secret: "x"}, "Ada"},
		{"struct pointer", &source{Name: "Ada"}, "Ada"},
		{"generic instance", NewGeneric(Pair{"name", "Ada"}), "Ada"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			inst, err := personSchema.NewFrom(tt.src)
			if err != nil {
				t.Fatalf("NewFrom() error: %v", err)
			}
			if v, _ := inst.Get("name"); v != tt.want {
				t.Errorf("name = %v, want %v", v, tt.want)
			}
		})
	}

	if _, err := personSchema.NewFrom(42); !errors.Is(err, ErrConstruction) || !errors.Is(err, ErrCoercion) {
		t.Errorf("NewFrom(42) error = %v, want construction wrapping coercion", err)
	}

	type extra struct {
		Name  string `json:"name"`
		Color string `json:"color"`
	}
	if _, err := personSchema.NewFrom(extra{Name: "Ada"}); !errors.Is(err, ErrConstruction) {
		t.Errorf("NewFrom(struct with undeclared field) error = %v, want ErrConstruction", err)
	}
}

func TestSchema_NewFrom_SameSchemaClones(t *testing.T) {
	orig, _ := personSchema.New(map[string]any{"name": "Ada"})
	cp, err := personSchema.NewFrom(orig)
	if err != nil {
		t.Fatalf("NewFrom() error: %v", err)
	}
	if cp == orig {
		t.Fatal("NewFrom() should copy the instance")
	}
	_ = cp.Set("name", "Grace")
	if v, _ := orig.Get("name"); v != "Ada" {
		t.Errorf("original name = %v, want Ada", v)
	}
}

func TestSchema_NewFrom_SameSchemaClonesNested(t *testing.T) {
	order := MustSchema("Roster",
		Attr("lead", Nested(personSchema, Optional())),
		Attr("lines", Array(Nested(personSchema))),
		Attr("extra", Object(Optional())),
	)
	ada, _ := personSchema.New(map[string]any{"name": "Ada"})
	orig, err := order.New(map[string]any{
		"lead":  map[string]any{"name": "Grace"},
		"lines": []any{map[string]any{"name": "Ada"}},
		"extra": map[string]any{"who": ada},
	})
	if err != nil {
		t.Fatalf("New() error: %v", err)
	}

	cp, err := order.NewFrom(orig)
	if err != nil {
		t.Fatalf("NewFrom() error: %v", err)
	}
	if err := cp.Validate(); err != nil {
		t.Errorf("Validate() on copy error: %v", err)
	}
	want, _ := orig.Serialize()
	got, _ := cp.Serialize()
	if diff := cmp.Diff(want.Map(), got.Map()); diff != "" {
		t.Errorf("copy mismatch (-want +got):\n%s", diff)
	}

	lines, _ := cp.Get("lines")
	_ = lines.([]any)[0].(*Instance).Set("name", "Changed")
	origLines, _ := orig.Get("lines")
	if v, _ := origLines.([]any)[0].(*Instance).Get("name"); v != "Ada" {
		t.Errorf("original line name = %v, want Ada", v)
	}
}

func TestValidate_Reasons(t *testing.T) {
	s := MustSchema("Everything",
		Attr("any", Any()),
		Attr("int", Integer()),
		Attr("num", Number()),
		Attr("bool", Boolean()),
		Attr("str", String()),
		Attr("date", IsoDate()),
		Attr("ts", DateTime()),
		Attr("id", UUID()),
		Attr("obj", Object()),
		Attr("list", Array(Integer())),
	)

	good := map[string]any{
		"any":  struct{}{},
		"int":  int64(3),
		"num":  2.5,
		"bool": false,
		"str":  "s",
		"date": "2020-01-02T03:04:05Z",
		"ts":   time.Now(),
		"id":   uuid.New(),
		"obj":  map[string]any{"k": 1},
		"list": []any{1, 2},
	}
	inst, err := s.New(good)
	if err != nil {
		t.Fatalf("New() error: %v", err)
	}
	if err := inst.Validate(); err != nil {
		t.Errorf("Validate() error: %v", err)
	}

	bad := map[string]any{
		"int":  true,
		"num":  "2.5",
		"bool": 1,
		"str":  7,
		"date": "yesterday",
		"ts":   "2020-01-02",
		"id":   "not-a-uuid",
		"obj":  []any{},
		"list": []any{1, "two"},
	}
	inst, err = s.New(bad)
	if err != nil {
		t.Fatalf("New() error: %v", err)
	}
	err = inst.Validate()
	var verr *ValidationError
	if !errors.As(err, &verr) {
		t.Fatalf("Validate() error = %v, want *ValidationError", err)
	}
	want := []string{"any", "int", "num", "bool", "str", "date", "ts", "id", "obj", "list"}
	if diff := cmp.Diff(want, verr.Names()); diff != "" {
		t.Errorf("Names() mismatch (-want +got):\n%s", diff)
	}
	if r := verr.Reasons("any"); len(r) != 1 || r[0] != "a value is required" {
		t.Errorf("Reasons(any) = %v", r)
	}
	if r := verr.Reasons("list"); len(r) != 1 || r[0][:5] != "[1]: " {
		t.Errorf("Reasons(list) = %v", r)
	}
	if !errors.Is(err, ErrInvalid) {
		t.Error("Validate() error should match ErrInvalid")
	}
}

func TestValidate_Nested(t *testing.T) {
	order := MustSchema("Order",
		Attr("owner", Nested(personSchema)),
		Attr("others", Array(Nested(personSchema), Optional())),
	)

	inst, err := order.New(map[string]any{
		"owner":  map[string]any{"age": "old"},
		"others": []any{map[string]any{"name": "Ada"}, map[string]any{}},
	})
	if err != nil {
		t.Fatalf("New() error: %v", err)
	}

	var verr *ValidationError
	if !errors.As(inst.Validate(), &verr) {
		t.Fatal("Validate() should fail")
	}
	wantOwner := []string{"name: a value is required", "age: old is not a valid integer"}
	if diff := cmp.Diff(wantOwner, verr.Reasons("owner")); diff != "" {
		t.Errorf("Reasons(owner) mismatch (-want +got):\n%s", diff)
	}
	wantOthers := []string{"[1]: name: a value is required"}
	if diff := cmp.Diff(wantOthers, verr.Reasons("others")); diff != "" {
		t.Errorf("Reasons(others) mismatch (-want +got):\n%s", diff)
	}

	other := MustSchema("Other", Attr("name", String()))
	wrong, _ := other.New(map[string]any{"name": "x"})
	inst, _ = order.New(map[string]any{"owner": wrong})
	if err := inst.Validate(); err == nil {
		t.Error("Validate() should reject an instance of another schema")
	}
}

func TestStringField_Encoding(t *testing.T) {
	s := MustSchema("Text",
		Attr("utf8", String(Optional())),
		Attr("latin1", String(Encoding("iso-8859-1"), Optional())),
		Attr("strict", String(Strict(), Optional())),
	)

	inst, _ := s.New(map[string]any{
		"utf8":   []byte{0xff, 0xfe},
		"latin1": []byte{0x63, 0x61, 0x66, 0xe9},
		"strict": []byte("bytes"),
	})

	var verr *ValidationError
	if !errors.As(inst.Validate(), &verr) {
		t.Fatal("Validate() should fail")
	}
	if diff := cmp.Diff([]string{"utf8", "strict"}, verr.Names()); diff != "" {
		t.Errorf("Names() mismatch (-want +got):\n%s", diff)
	}

	rec, err := inst.Serialize(ImplicitNulls())
	if err != nil {
		t.Fatalf("Serialize() error: %v", err)
	}
	if v, _ := rec.Get("latin1"); v != "café" {
		t.Errorf("latin1 = %q, want café", v)
	}
}

func TestIntegerField_RejectsFractions(t *testing.T) {
	f := Integer()
	if r := f.Validate(2.0); len(r) != 0 {
		t.Errorf("Validate(2.0) = %v, want valid", r)
	}
	if r := f.Validate(2.5); len(r) == 0 {
		t.Error("Validate(2.5) should fail")
	}
	if r := f.Validate(true); len(r) == 0 {
		t.Error("Validate(true) should fail")
	}
}

func TestParseKind(t *testing.T) {
	for k := KindAny; k <= KindNested; k++ {
		got, ok := ParseKind(k.String())
		if !ok || got != k {
			t.Errorf("ParseKind(%q) = %v, %v", k.String(), got, ok)
		}
	}
	if _, ok := ParseKind("float"); ok {
		t.Error("ParseKind(float) should fail")
	}
	if Kind(99).String() != "unknown" {
		t.Errorf("Kind(99).String() = %q", Kind(99).String())
	}
}
