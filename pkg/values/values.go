// Package values implements the deterministic JSON-like value model shared by
// the parser, the interpreter and callers.
//
// A value is one of: nil, bool, float64, string, []any, map[string]any.
// The model is closed: Normalize rejects anything else. Objects have no
// observable insertion order; every iteration over object members happens in
// lexicographic key order, and SortedKeys is the single source of that order.
package values

import (
	"encoding/json"
	"fmt"
	"sort"

	"github.com/gabrielbryk/jqsand/pkg/types"
)

// TypeName returns the jq type name of a value: one of
// "null", "boolean", "number", "string", "array", "object".
func TypeName(v any) string {
	switch v.(type) {
	case nil:
		return "null"
	case bool:
		return "boolean"
	case float64:
		return "number"
	case string:
		return "string"
	case []any:
		return "array"
	case map[string]any:
		return "object"
	default:
		return fmt.Sprintf("<invalid %T>", v)
	}
}

// Truthy reports whether a value is truthy: everything except null and false.
func Truthy(v any) bool {
	if v == nil {
		return false
	}
	if b, ok := v.(bool); ok {
		return b
	}
	return true
}

// IsInt reports whether a number holds an exact integer value and returns it.
func IsInt(f float64) (int, bool) {
	i := int(f)
	if float64(i) == f {
		return i, true
	}
	return 0, false
}

// SortedKeys returns the keys of an object in lexicographic order.
// All object iteration in the interpreter goes through this function.
func SortedKeys(obj map[string]any) []string {
	keys := make([]string, 0, len(obj))
	for k := range obj {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// Normalize converts arbitrary JSON-shaped Go data into the closed value
// model. Integer types and json.Number become float64; arrays and objects are
// rebuilt, so the result shares no structure with the argument. Values outside
// the model are rejected with a type fault.
func Normalize(v any) (any, error) {
	switch x := v.(type) {
	case nil, bool, float64, string:
		return x, nil
	case int:
		return float64(x), nil
	case int8:
		return float64(x), nil
	case int16:
		return float64(x), nil
	case int32:
		return float64(x), nil
	case int64:
		return float64(x), nil
	case uint:
		return float64(x), nil
	case uint8:
		return float64(x), nil
	case uint16:
		return float64(x), nil
	case uint32:
		return float64(x), nil
	case uint64:
		return float64(x), nil
	case float32:
		return float64(x), nil
	case json.Number:
		f, err := x.Float64()
		if err != nil {
			return nil, types.NewError(types.ErrType, fmt.Sprintf("invalid number %q", x.String()), types.Span{})
		}
		return f, nil
	case []any:
		out := make([]any, len(x))
		for i, item := range x {
			n, err := Normalize(item)
			if err != nil {
				return nil, err
			}
			out[i] = n
		}
		return out, nil
	case map[string]any:
		out := make(map[string]any, len(x))
		for k, item := range x {
			n, err := Normalize(item)
			if err != nil {
				return nil, err
			}
			out[k] = n
		}
		return out, nil
	default:
		return nil, types.NewError(types.ErrType, fmt.Sprintf("unsupported value type %T", v), types.Span{})
	}
}
