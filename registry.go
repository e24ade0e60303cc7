package morph

import (
	"reflect"
	"strings"
	"sync"

	"github.com/zoobzio/sentinel"
)

func init() {
	// Register the morph tag so sentinel captures it during scans.
	sentinel.Tag("morph")
}

// structField is one readable field of a struct source.
type structField struct {
	name   string // morph name: morph tag, json tag, or Go name
	goName string
	index  []int // reflect.Value.FieldByIndex access path
}

// structPlan holds the precomputed lookup table for a struct type.
type structPlan struct {
	typeName string
	fields   []structField
	byName   map[string]int
}

var (
	plans   = make(map[reflect.Type]*structPlan)
	plansMu sync.RWMutex
)

// Register pre-scans T so that lookups against values of T skip the first-use scan.
// T must be a struct type.
func Register[T any]() {
	sentinel.Scan[T]()
	planFor(reflect.TypeFor[T]())
}

// planFor returns the cached plan for a struct type, building it on first use.
// The cache holds only type-derived metadata.
func planFor(rt reflect.Type) *structPlan {
	// Fast path: read-lock cache check
	plansMu.RLock()
	if cached, ok := plans[rt]; ok {
		plansMu.RUnlock()
		return cached
	}
	plansMu.RUnlock()

	// Slow path: build and cache with write-lock
	plansMu.Lock()
	defer plansMu.Unlock()

	// Double-check pattern
	if cached, ok := plans[rt]; ok {
		return cached
	}

	plan := buildPlan(rt, scanType(rt))
	plans[rt] = plan
	return plan
}

// Reset clears the struct plan cache.
// This is primarily useful for test isolation.
func Reset() {
	plansMu.Lock()
	defer plansMu.Unlock()
	plans = make(map[reflect.Type]*structPlan)
}

func buildPlan(rt reflect.Type, spec sentinel.Metadata) *structPlan {
	plan := &structPlan{
		typeName: spec.TypeName,
		fields:   make([]structField, 0, len(spec.Fields)),
		byName:   make(map[string]int, len(spec.Fields)),
	}

	for _, fm := range spec.Fields {
		sf := rt.FieldByIndex(fm.Index)
		if !sf.IsExported() {
			continue
		}
		name, skip := fieldName(sf, fm.Tags)
		if skip {
			continue
		}
		if _, dup := plan.byName[name]; dup {
			continue
		}
		plan.byName[name] = len(plan.fields)
		plan.fields = append(plan.fields, structField{name: name, goName: sf.Name, index: fm.Index})
	}
	return plan
}

// fieldName resolves the morph name of a struct field. A morph or json tag
// of "-" hides the field.
func fieldName(sf reflect.StructField, tags map[string]string) (string, bool) {
	tag, ok := tags["morph"]
	if !ok {
		tag, ok = sf.Tag.Lookup("morph")
	}
	if !ok {
		tag, ok = sf.Tag.Lookup("json")
	}
	if !ok {
		return sf.Name, false
	}
	name, _, _ := strings.Cut(tag, ",")
	if name == "-" {
		return "", true
	}
	if name == "" {
		return sf.Name, false
	}
	return name, false
}

// scanType returns sentinel metadata for rt, falling back to reflection for
// types sentinel has not scanned.
func scanType(rt reflect.Type) sentinel.Metadata {
	if spec, ok := sentinel.Lookup(rt.String()); ok {
		return spec
	}

	spec := sentinel.Metadata{
		TypeName:    rt.Name(),
		PackageName: rt.PkgPath(),
		Fields:      make([]sentinel.FieldMetadata, 0, rt.NumField()),
	}

	for i := 0; i < rt.NumField(); i++ {
		sf := rt.Field(i)
		if !sf.IsExported() {
			continue
		}

		fm := sentinel.FieldMetadata{
			Name:        sf.Name,
			Type:        sf.Type.String(),
			ReflectType: sf.Type,
			Index:       sf.Index,
			Tags:        map[string]string{},
		}
		if v, ok := sf.Tag.Lookup("morph"); ok {
			fm.Tags["morph"] = v
		}

		switch sf.Type.Kind() {
		case reflect.Struct:
			fm.Kind = sentinel.KindStruct
		case reflect.Ptr:
			fm.Kind = sentinel.KindPointer
		case reflect.Slice, reflect.Array:
			fm.Kind = sentinel.KindSlice
		case reflect.Map:
			fm.Kind = sentinel.KindMap
		case reflect.Interface:
			fm.Kind = sentinel.KindInterface
		default:
			fm.Kind = sentinel.KindScalar
		}

		spec.Fields = append(spec.Fields, fm)
	}

	return spec
}

// indirectType returns the type of v with pointers removed.
func indirectType(v any) reflect.Type {
	rt := reflect.TypeOf(v)
	for rt != nil && rt.Kind() == reflect.Pointer {
		rt = rt.Elem()
	}
	return rt
}
