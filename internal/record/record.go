package record

import (
	"encoding/json"
	"reflect"
	"sort"
	"time"

	"github.com/tiendc/go-deepcopy"
)

// Reserved field names maintained by the store.
const (
	FieldID        = "id"
	FieldCreatedAt = "created_at"
	FieldUpdatedAt = "updated_at"
)

// TimeLayout is the fixed-width UTC layout used for generated timestamps.
// Fixed width keeps lexicographic and chronological order identical.
const TimeLayout = "2006-01-02T15:04:05.000000Z"

// Record is one row-equivalent entry in a table.
type Record map[string]any

// FormatTime renders t in TimeLayout.
func FormatTime(t time.Time) string {
	return t.UTC().Format(TimeLayout)
}

// ID returns the record's id field rendered as a string, or "" if absent.
func (r Record) ID() string {
	v, ok := r[FieldID]
	if !ok || v == nil {
		return ""
	}
	if s, ok := v.(string); ok {
		return s
	}
	return String(v)
}

// Has reports whether the field is present with a non-nil value.
func (r Record) Has(field string) bool {
	v, ok := r[field]
	return ok && v != nil
}

// Keys returns the record's field names in sorted order.
func (r Record) Keys() []string {
	keys := make([]string, 0, len(r))
	for k := range r {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// Merge copies every field of partial into r, overwriting existing fields.
func (r Record) Merge(partial Record) {
	for k, v := range partial {
		r[k] = v
	}
}

// Project returns a copy of r restricted to columns. An empty column list
// returns a full copy.
func (r Record) Project(columns []string) Record {
	if len(columns) == 0 {
		return Clone(r)
	}
	out := make(Record, len(columns))
	for _, c := range columns {
		if v, ok := r[c]; ok {
			out[c] = cloneValue(v)
		}
	}
	return out
}

// Clone deep-copies a record. Nested slices and maps are not shared with
// the original.
func Clone(r Record) Record {
	if r == nil {
		return nil
	}
	var out Record
	if err := deepcopy.Copy(&out, &r); err != nil {
		// deepcopy only fails on unsupported kinds (chan, func); fall back to
		// a shallow copy so the caller still gets an independent top level.
		out = make(Record, len(r))
		for k, v := range r {
			out[k] = v
		}
	}
	return out
}

// CloneAll deep-copies every record of rows into a new slice.
func CloneAll(rows []Record) []Record {
	out := make([]Record, len(rows))
	for i, r := range rows {
		out[i] = Clone(r)
	}
	return out
}

func cloneValue(v any) any {
	var out any
	if err := deepcopy.Copy(&out, &v); err != nil {
		return v
	}
	return out
}

// New builds a normalized record from an arbitrary Go map.
func New(m map[string]any) Record {
	out := make(Record, len(m))
	for k, v := range m {
		out[k] = Normalize(v)
	}
	return out
}

// Normalize folds a Go value into the closed value set used by records:
// nil, bool, string, int64, float64, []any and Record.
//
// Integer kinds become int64, float kinds float64, any slice or array
// becomes []any, and string-keyed maps become Record. time.Time values are
// rendered with TimeLayout. Values of other kinds are returned unchanged.
func Normalize(v any) any {
	switch x := v.(type) {
	case nil, bool, string, int64, float64:
		return x
	case int:
		return int64(x)
	case int8:
		return int64(x)
	case int16:
		return int64(x)
	case int32:
		return int64(x)
	case uint:
		return int64(x)
	case uint8:
		return int64(x)
	case uint16:
		return int64(x)
	case uint32:
		return int64(x)
	case uint64:
		return int64(x)
	case float32:
		return float64(x)
	case json.Number:
		if i, err := x.Int64(); err == nil {
			return i
		}
		if f, err := x.Float64(); err == nil {
			return f
		}
		return string(x)
	case time.Time:
		return FormatTime(x)
	case Record:
		return New(x)
	case map[string]any:
		return New(x)
	case []any:
		out := make([]any, len(x))
		for i, e := range x {
			out[i] = Normalize(e)
		}
		return out
	}

	rv := reflect.ValueOf(v)
	switch rv.Kind() {
	case reflect.Slice, reflect.Array:
		if rv.Kind() == reflect.Slice && rv.Type().Elem().Kind() == reflect.Uint8 {
			// []byte stays binary
			return v
		}
		out := make([]any, rv.Len())
		for i := 0; i < rv.Len(); i++ {
			out[i] = Normalize(rv.Index(i).Interface())
		}
		return out
	case reflect.Map:
		if rv.Type().Key().Kind() != reflect.String {
			return v
		}
		out := make(Record, rv.Len())
		iter := rv.MapRange()
		for iter.Next() {
			out[iter.Key().String()] = Normalize(iter.Value().Interface())
		}
		return out
	case reflect.Pointer:
		if rv.IsNil() {
			return nil
		}
		return Normalize(rv.Elem().Interface())
	}
	return v
}
