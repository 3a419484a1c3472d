package record

import (
	"cmp"
	"fmt"
	"reflect"
	"strconv"
	"strings"
	"time"
)

// Equal reports strict value equality between two record values.
//
// Numbers compare by numeric value regardless of their Go kind (5 and 5.0
// are equal); every other kind must match exactly. nil equals only nil.
// Slices and maps compare structurally.
func Equal(a, b any) bool {
	a, b = Normalize(a), Normalize(b)
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	if c, ok := compareNumbers(a, b); ok {
		return c == 0
	}
	switch av := a.(type) {
	case string:
		bv, ok := b.(string)
		return ok && av == bv
	case bool:
		bv, ok := b.(bool)
		return ok && av == bv
	case []any:
		bv, ok := b.([]any)
		if !ok || len(av) != len(bv) {
			return false
		}
		for i := range av {
			if !Equal(av[i], bv[i]) {
				return false
			}
		}
		return true
	case Record:
		bv, ok := b.(Record)
		if !ok || len(av) != len(bv) {
			return false
		}
		for k, v := range av {
			w, ok := bv[k]
			if !ok || !Equal(v, w) {
				return false
			}
		}
		return true
	}
	return reflect.DeepEqual(a, b)
}

// Compare orders two values of the same kind. ok is false when the values
// are not mutually ordered (mismatched kinds, nil, composites); callers
// decide how to treat that case.
func Compare(a, b any) (c int, ok bool) {
	if ta, isTime := a.(time.Time); isTime {
		if tb, isTime := b.(time.Time); isTime {
			return ta.Compare(tb), true
		}
		return 0, false
	}
	a, b = Normalize(a), Normalize(b)
	if a == nil || b == nil {
		return 0, false
	}
	if c, ok := compareNumbers(a, b); ok {
		return c, true
	}
	switch av := a.(type) {
	case string:
		if bv, ok := b.(string); ok {
			return strings.Compare(av, bv), true
		}
	case bool:
		if bv, ok := b.(bool); ok {
			switch {
			case av == bv:
				return 0, true
			case !av:
				return -1, true
			default:
				return 1, true
			}
		}
	}
	return 0, false
}

// IsNumber reports whether v normalizes to int64 or float64.
func IsNumber(v any) bool {
	switch Normalize(v).(type) {
	case int64, float64:
		return true
	}
	return false
}

func compareNumbers(a, b any) (int, bool) {
	switch av := a.(type) {
	case int64:
		switch bv := b.(type) {
		case int64:
			return cmp.Compare(av, bv), true
		case float64:
			return cmp.Compare(float64(av), bv), true
		}
	case float64:
		switch bv := b.(type) {
		case int64:
			return cmp.Compare(av, float64(bv)), true
		case float64:
			return cmp.Compare(av, bv), true
		}
	}
	return 0, false
}

// String renders a value the way a loosely-typed runtime would when it is
// coerced to text: nil is "null", arrays are comma-joined, objects are
// rendered as canonical JSON.
func String(v any) string {
	switch x := Normalize(v).(type) {
	case nil:
		return "null"
	case string:
		return x
	case bool:
		return strconv.FormatBool(x)
	case int64:
		return strconv.FormatInt(x, 10)
	case float64:
		return strconv.FormatFloat(x, 'f', -1, 64)
	case []any:
		parts := make([]string, len(x))
		for i, e := range x {
			if e == nil {
				continue
			}
			parts[i] = String(e)
		}
		return strings.Join(parts, ",")
	case Record:
		b, err := MarshalCanonical(x)
		if err != nil {
			return fmt.Sprint(map[string]any(x))
		}
		return string(b)
	default:
		return fmt.Sprint(x)
	}
}

// IsArray reports whether v holds an array-like value and returns its
// normalized elements.
func IsArray(v any) ([]any, bool) {
	if v == nil {
		return nil, false
	}
	if _, isBytes := v.([]byte); isBytes {
		return nil, false
	}
	arr, ok := Normalize(v).([]any)
	return arr, ok
}
