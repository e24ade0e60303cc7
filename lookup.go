package morph

import (
	"reflect"
	"strconv"
	"strings"
)

// splitPath splits a dotted path into segments. The empty path has no
// segments and resolves to the source itself.
func splitPath(path string) []string {
	if path == "" {
		return nil
	}
	return strings.Split(path, ".")
}

// resolve walks segments from src. It reports the first absent segment.
func resolve(src any, segments []string) (value any, missing string, ok bool) {
	cur := src
	for _, seg := range segments {
		next, found := lookup(cur, seg)
		if !found {
			return nil, seg, false
		}
		cur = next
	}
	return cur, "", true
}

// lookup resolves one segment against v.
func lookup(v any, segment string) (any, bool) {
	switch t := v.(type) {
	case nil:
		return nil, false
	case map[string]any:
		val, ok := t[segment]
		return val, ok
	case Lookuper:
		return t.Lookup(segment)
	}

	rv := reflect.ValueOf(v)
	for rv.Kind() == reflect.Pointer || rv.Kind() == reflect.Interface {
		if rv.IsNil() {
			return nil, false
		}
		rv = rv.Elem()
	}

	switch rv.Kind() {
	case reflect.Map:
		kt := rv.Type().Key()
		if kt.Kind() != reflect.String {
			return nil, false
		}
		val := rv.MapIndex(reflect.ValueOf(segment).Convert(kt))
		if !val.IsValid() {
			return nil, false
		}
		return val.Interface(), true

	case reflect.Struct:
		plan := planFor(rv.Type())
		i, ok := plan.byName[segment]
		if !ok {
			for j, f := range plan.fields {
				if f.goName == segment {
					i, ok = j, true
					break
				}
			}
		}
		if !ok {
			return nil, false
		}
		return rv.FieldByIndex(plan.fields[i].index).Interface(), true

	case reflect.Slice, reflect.Array:
		n, err := strconv.Atoi(segment)
		if err != nil {
			return nil, false
		}
		if n < 0 {
			n += rv.Len()
		}
		if n < 0 || n >= rv.Len() {
			return nil, false
		}
		return rv.Index(n).Interface(), true
	}
	return nil, false
}
