package morph

import (
	"errors"
	"fmt"
	"math"
	"reflect"
	"strconv"
	"strings"
	"time"
)

var errFraction = errors.New("value has a fractional part")

// isInteger reports whether v is an integer, or a float with no fractional part.
func isInteger(v any) bool {
	rv := reflect.ValueOf(v)
	switch rv.Kind() {
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64,
		reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		return true
	case reflect.Float32, reflect.Float64:
		f := rv.Float()
		return !math.IsInf(f, 0) && f == math.Trunc(f)
	default:
		return false
	}
}

// isNumber reports whether v is of any numeric kind.
func isNumber(v any) bool {
	switch reflect.ValueOf(v).Kind() {
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64,
		reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64,
		reflect.Float32, reflect.Float64:
		return true
	default:
		return false
	}
}

// isSequence reports whether v is a slice or array other than []byte.
func isSequence(v any) bool {
	if v == nil {
		return false
	}
	if _, ok := v.([]byte); ok {
		return false
	}
	k := reflect.ValueOf(v).Kind()
	return k == reflect.Slice || k == reflect.Array
}

// elements returns the items of a sequence as []any.
func elements(v any) []any {
	if s, ok := v.([]any); ok {
		return s
	}
	rv := reflect.ValueOf(v)
	out := make([]any, rv.Len())
	for i := range out {
		out[i] = rv.Index(i).Interface()
	}
	return out
}

// ToString converts a value to its string representation.
func ToString(v any) (string, error) {
	switch t := v.(type) {
	case string:
		return t, nil
	case []byte:
		return string(t), nil
	case bool:
		return strconv.FormatBool(t), nil
	case float32:
		return strconv.FormatFloat(float64(t), 'g', -1, 32), nil
	case float64:
		return strconv.FormatFloat(t, 'g', -1, 64), nil
	case time.Time:
		return t.Format(time.RFC3339Nano), nil
	case fmt.Stringer:
		return t.String(), nil
	}

	rv := reflect.ValueOf(v)
	switch rv.Kind() {
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return strconv.FormatInt(rv.Int(), 10), nil
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		return strconv.FormatUint(rv.Uint(), 10), nil
	case reflect.String:
		return rv.String(), nil
	}
	return "", newCoercionError("string", v, nil)
}

// ToInt converts a value to int64. Floats are truncated toward zero.
func ToInt(v any) (int64, error) {
	switch t := v.(type) {
	case bool:
		if t {
			return 1, nil
		}
		return 0, nil
	case string:
		n, err := strconv.ParseInt(strings.TrimSpace(t), 10, 64)
		if err != nil {
			return 0, newCoercionError("integer", v, err)
		}
		return n, nil
	}

	rv := reflect.ValueOf(v)
	switch rv.Kind() {
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return rv.Int(), nil
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		u := rv.Uint()
		if u > math.MaxInt64 {
			return 0, newCoercionError("integer", v, strconv.ErrRange)
		}
		return int64(u), nil
	case reflect.Float32, reflect.Float64:
		f := rv.Float()
		if math.IsNaN(f) || math.IsInf(f, 0) || f >= math.MaxInt64 || f < math.MinInt64 {
			return 0, newCoercionError("integer", v, strconv.ErrRange)
		}
		return int64(f), nil
	}
	return 0, newCoercionError("integer", v, nil)
}

// ToFloat converts a value to float64.
func ToFloat(v any) (float64, error) {
	switch t := v.(type) {
	case bool:
		if t {
			return 1, nil
		}
		return 0, nil
	case string:
		f, err := strconv.ParseFloat(strings.TrimSpace(t), 64)
		if err != nil {
			return 0, newCoercionError("number", v, err)
		}
		return f, nil
	}

	rv := reflect.ValueOf(v)
	switch rv.Kind() {
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return float64(rv.Int()), nil
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		return float64(rv.Uint()), nil
	case reflect.Float32, reflect.Float64:
		return rv.Float(), nil
	}
	return 0, newCoercionError("number", v, nil)
}

// ToBool converts a value to bool. Numbers are true when non-zero; strings
// must be accepted by strconv.ParseBool.
func ToBool(v any) (bool, error) {
	switch t := v.(type) {
	case bool:
		return t, nil
	case string:
		b, err := strconv.ParseBool(strings.TrimSpace(t))
		if err != nil {
			return false, newCoercionError("boolean", v, err)
		}
		return b, nil
	}
	if isNumber(v) {
		f, _ := ToFloat(v)
		return f != 0, nil
	}
	return false, newCoercionError("boolean", v, nil)
}

// convertTo converts v into a value assignable to rt, used by Unary.
func convertTo(v any, rt reflect.Type) (reflect.Value, error) {
	if v == nil {
		switch rt.Kind() {
		case reflect.Interface, reflect.Pointer, reflect.Map, reflect.Slice:
			return reflect.Zero(rt), nil
		}
		return reflect.Value{}, newCoercionError(rt.String(), v, nil)
	}

	rv := reflect.ValueOf(v)
	if rv.Type().AssignableTo(rt) {
		return rv, nil
	}

	switch rt.Kind() {
	case reflect.String:
		s, err := ToString(v)
		if err != nil {
			return reflect.Value{}, err
		}
		return reflect.ValueOf(s).Convert(rt), nil
	case reflect.Bool:
		b, err := ToBool(v)
		if err != nil {
			return reflect.Value{}, err
		}
		return reflect.ValueOf(b).Convert(rt), nil
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		if !isNumber(v) {
			break
		}
		if !isInteger(v) {
			return reflect.Value{}, newCoercionError(rt.String(), v, errFraction)
		}
		n, err := ToInt(v)
		if err != nil {
			return reflect.Value{}, err
		}
		if reflect.Zero(rt).OverflowInt(n) {
			return reflect.Value{}, newCoercionError(rt.String(), v, strconv.ErrRange)
		}
		return reflect.ValueOf(n).Convert(rt), nil
	case reflect.Float32, reflect.Float64:
		if !isNumber(v) {
			break
		}
		f, _ := ToFloat(v)
		return reflect.ValueOf(f).Convert(rt), nil
	}

	if rv.Type().ConvertibleTo(rt) && rv.Kind() == rt.Kind() {
		return rv.Convert(rt), nil
	}
	return reflect.Value{}, newCoercionError(rt.String(), v, nil)
}
