package output

import (
	"bytes"
	"encoding/json"
	"math"
	"reflect"
	"strings"
)

// DeterministicEncode renders v as compact canonical JSON: keys
// sorted, floats capped at six decimal places, empty and nil values
// omitted. Identical input always yields identical bytes.
func DeterministicEncode(v interface{}) ([]byte, error) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(canonicalize(v)); err != nil {
		return nil, err
	}
	// Encode appends a newline the canonical form does not include.
	return bytes.TrimSuffix(buf.Bytes(), []byte("\n")), nil
}

// DeterministicEncodeIndented is the indented form, used for plan
// files on disk.
func DeterministicEncodeIndented(v interface{}, indent string) ([]byte, error) {
	return json.MarshalIndent(canonicalize(v), "", indent)
}

// RoundFloat caps f at six decimal places, the precision the
// canonical encoding guarantees.
func RoundFloat(f float64) float64 {
	return math.Round(f*1e6) / 1e6
}

// canonicalize rebuilds v out of maps, slices, and scalars that
// encoding/json renders identically on every run.
func canonicalize(v interface{}) interface{} {
	if v == nil {
		return nil
	}

	rv := reflect.ValueOf(v)
	for rv.Kind() == reflect.Ptr {
		if rv.IsNil() {
			return nil
		}
		rv = rv.Elem()
	}

	// Values with their own marshaler (time.Time) encode themselves;
	// walking their unexported fields would lose the value.
	if m, ok := rv.Interface().(json.Marshaler); ok {
		return m
	}

	switch rv.Kind() {
	case reflect.Float32, reflect.Float64:
		return RoundFloat(rv.Float())
	case reflect.Map:
		return mapFields(rv)
	case reflect.Slice, reflect.Array:
		return sliceElems(rv)
	case reflect.Struct:
		return structFields(rv)
	case reflect.Interface:
		if rv.IsNil() {
			return nil
		}
		return canonicalize(rv.Interface())
	default:
		return v
	}
}

// mapFields flattens a string-keyed map, dropping nil entries. Plan
// category maps are the main user.
func mapFields(rv reflect.Value) interface{} {
	out := make(map[string]interface{}, rv.Len())
	iter := rv.MapRange()
	for iter.Next() {
		if v := canonicalize(iter.Value().Interface()); v != nil {
			out[iter.Key().String()] = v
		}
	}
	if len(out) == 0 {
		return nil
	}
	return out
}

func sliceElems(rv reflect.Value) interface{} {
	n := rv.Len()
	if n == 0 {
		return nil
	}
	out := make([]interface{}, n)
	for i := 0; i < n; i++ {
		out[i] = canonicalize(rv.Index(i).Interface())
	}
	return out
}

func structFields(rv reflect.Value) interface{} {
	rt := rv.Type()
	out := make(map[string]interface{}, rt.NumField())

	for i := 0; i < rt.NumField(); i++ {
		field := rt.Field(i)
		if !field.IsExported() {
			continue
		}

		tag := field.Tag.Get("json")
		if tag == "-" {
			continue
		}
		name, opts, _ := strings.Cut(tag, ",")
		if name == "" {
			name = field.Name
		}

		v := canonicalize(rv.Field(i).Interface())
		if v == nil {
			continue
		}
		if hasOption(opts, "omitempty") && isEmpty(v) {
			continue
		}
		out[name] = v
	}

	if len(out) == 0 {
		return nil
	}
	return out
}

func hasOption(opts, want string) bool {
	for opts != "" {
		var opt string
		opt, opts, _ = strings.Cut(opts, ",")
		if opt == want {
			return true
		}
	}
	return false
}

// isEmpty reports whether a canonicalized value would be omitted by
// encoding/json's omitempty.
func isEmpty(v interface{}) bool {
	switch val := v.(type) {
	case string:
		return val == ""
	case []interface{}:
		return len(val) == 0
	case map[string]interface{}:
		return len(val) == 0
	}
	rv := reflect.ValueOf(v)
	if rv.Kind() == reflect.Struct {
		// omitempty never drops struct values such as time.Time.
		return false
	}
	return rv.IsZero()
}
