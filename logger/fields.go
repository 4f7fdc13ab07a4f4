package logger

import (
	"encoding"
	"encoding/json"
	"fmt"
	"math"
	"reflect"
	"sort"
	"strings"
	"time"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Fields is a structured payload. Passed among key/value arguments, each of
// its keys becomes a field of the entry.
type Fields map[string]any

const (
	// missingValue stands in for the value of a trailing key.
	missingValue = "(MISSING)"
	// cycleValue replaces a map, slice or pointer that contains itself.
	cycleValue = "(CYCLE)"
	// truncatedValue replaces whatever is nested deeper than maxPayloadDepth.
	truncatedValue = "(TRUNCATED)"
)

// maxPayloadDepth bounds how far nested payload values are walked.
const maxPayloadDepth = 32

// kvFields converts alternating key/value arguments into zap fields. Fields
// maps and zap.Field values are accepted in key position; non-string keys
// are stringified.
func kvFields(keyvals []any) []zap.Field {
	if len(keyvals) == 0 {
		return nil
	}
	fields := make([]zap.Field, 0, len(keyvals)/2+1)
	for i := 0; i < len(keyvals); i++ {
		switch kv := keyvals[i].(type) {
		case zap.Field:
			fields = append(fields, materialize(kv)...)
			continue
		case Fields:
			fields = appendMap(fields, kv)
			continue
		case map[string]any:
			fields = appendMap(fields, kv)
			continue
		}
		key, ok := keyvals[i].(string)
		if !ok {
			key = fmt.Sprint(keyvals[i])
		}
		if i+1 >= len(keyvals) {
			fields = append(fields, zap.String(key, missingValue))
			break
		}
		i++
		fields = append(fields, materialize(zap.Any(key, keyvals[i]))...)
	}
	return fields
}

func appendMap(fields []zap.Field, m map[string]any) []zap.Field {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		fields = append(fields, materialize(zap.Any(k, m[k]))...)
	}
	return fields
}

// materialize evaluates a field whose encoding would call back into user
// code (String, Error, MarshalLogObject, MarshalJSON) and returns plain
// fields in its place. Encoders then only ever see inert values.
func materialize(f zap.Field) []zap.Field {
	switch f.Type {
	case zapcore.StringerType, zapcore.ErrorType, zapcore.ObjectMarshalerType,
		zapcore.ArrayMarshalerType, zapcore.InlineMarshalerType, zapcore.ReflectType:
	default:
		return []zap.Field{f}
	}

	enc := zapcore.NewMapObjectEncoder()
	f.AddTo(enc)
	keys := make([]string, 0, len(enc.Fields))
	for k := range enc.Fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	out := make([]zap.Field, 0, len(keys))
	for _, k := range keys {
		out = append(out, zap.Any(k, sanitize(enc.Fields[k])))
	}
	return out
}

func materializeAll(fields []zap.Field) []zap.Field {
	out := make([]zap.Field, 0, len(fields))
	for _, f := range fields {
		out = append(out, materialize(f)...)
	}
	return out
}

// sanitize returns v unchanged when it serializes cleanly and otherwise
// replaces the offending parts with their fmt rendering. Cycles and overly
// deep nesting are cut off with a placeholder.
func sanitize(v any) any {
	var s sanitizer
	return s.value(v, 0)
}

type visit struct {
	ptr uintptr
	typ reflect.Type
}

// sanitizer holds the maps, slices and pointers on the path being walked.
type sanitizer struct {
	active map[visit]bool
}

func (s *sanitizer) value(v any, depth int) any {
	if v == nil {
		return nil
	}
	switch x := v.(type) {
	case time.Time, time.Duration, json.RawMessage:
		return v
	case error:
		if rv := reflect.ValueOf(v); rv.Kind() == reflect.Pointer && rv.IsNil() {
			return "<nil>"
		}
		return x.Error()
	case json.Marshaler, encoding.TextMarshaler:
		return s.marshal(v, depth)
	}

	rv := reflect.ValueOf(v)
	switch rv.Kind() {
	case reflect.Func, reflect.Chan, reflect.UnsafePointer, reflect.Complex64, reflect.Complex128:
		return fmt.Sprintf("%v", v)
	case reflect.Float32, reflect.Float64:
		if f := rv.Float(); math.IsNaN(f) || math.IsInf(f, 0) {
			return fmt.Sprintf("%v", v)
		}
		return v
	case reflect.Map, reflect.Slice, reflect.Array, reflect.Pointer, reflect.Struct:
		if depth >= maxPayloadDepth {
			return truncatedValue
		}
	default:
		return v
	}

	switch rv.Kind() {
	case reflect.Map:
		if rv.IsNil() {
			return v
		}
		leave := s.enter(rv)
		if leave == nil {
			return cycleValue
		}
		defer leave()
		out := make(map[string]any, rv.Len())
		iter := rv.MapRange()
		for iter.Next() {
			out[fmt.Sprint(iter.Key().Interface())] = s.value(iter.Value().Interface(), depth+1)
		}
		return out
	case reflect.Slice:
		if rv.IsNil() || rv.Type().Elem().Kind() == reflect.Uint8 {
			return v
		}
		leave := s.enter(rv)
		if leave == nil {
			return cycleValue
		}
		defer leave()
		return s.list(rv, depth)
	case reflect.Array:
		return s.list(rv, depth)
	case reflect.Pointer:
		if rv.IsNil() {
			return nil
		}
		leave := s.enter(rv)
		if leave == nil {
			return cycleValue
		}
		defer leave()
		return s.value(rv.Elem().Interface(), depth+1)
	default:
		return s.marshal(v, depth)
	}
}

func (s *sanitizer) list(rv reflect.Value, depth int) []any {
	out := make([]any, rv.Len())
	for i := range out {
		out[i] = s.value(rv.Index(i).Interface(), depth+1)
	}
	return out
}

// marshal encodes v now. Structs that encoding/json rejects fall back to a
// map of their exported fields.
func (s *sanitizer) marshal(v any, depth int) any {
	b, err := json.Marshal(v)
	if err == nil {
		return json.RawMessage(b)
	}
	if rv := reflect.ValueOf(v); rv.Kind() == reflect.Struct {
		return s.structFields(rv, depth)
	}
	return fmt.Sprintf("%T: %v", v, err)
}

func (s *sanitizer) structFields(rv reflect.Value, depth int) map[string]any {
	t := rv.Type()
	out := make(map[string]any, t.NumField())
	for i := 0; i < t.NumField(); i++ {
		f := t.Field(i)
		if !f.IsExported() {
			continue
		}
		name := f.Name
		if tag, _, _ := strings.Cut(f.Tag.Get("json"), ","); tag == "-" {
			continue
		} else if tag != "" {
			name = tag
		}
		out[name] = s.value(rv.Field(i).Interface(), depth+1)
	}
	return out
}

// enter marks rv as being walked. It returns nil when rv is already on the
// path, otherwise a func that unmarks it.
func (s *sanitizer) enter(rv reflect.Value) (leave func()) {
	k := visit{ptr: rv.Pointer(), typ: rv.Type()}
	if s.active[k] {
		return nil
	}
	if s.active == nil {
		s.active = make(map[visit]bool)
	}
	s.active[k] = true
	return func() { delete(s.active, k) }
}
