package interp

import (
	"fmt"
	"math"
	"strings"

	"github.com/gabrielbryk/jqsand/pkg/types"
	"github.com/gabrielbryk/jqsand/pkg/values"
)

// binaryOp applies one arithmetic or comparison operator to a pair of
// values. Comparisons use the total value order and never fault; arithmetic
// faults on unsupported operand types.
func binaryOp(op string, a, b any, span types.Span) (any, error) {
	switch op {
	case "==":
		return values.Equal(a, b), nil
	case "!=":
		return !values.Equal(a, b), nil
	case "<":
		return values.Compare(a, b) < 0, nil
	case "<=":
		return values.Compare(a, b) <= 0, nil
	case ">":
		return values.Compare(a, b) > 0, nil
	case ">=":
		return values.Compare(a, b) >= 0, nil
	case "+":
		return addValues(a, b, span)
	case "-":
		return subValues(a, b, span)
	case "*":
		return mulValues(a, b, span)
	case "/":
		return divValues(a, b, span)
	case "%":
		return modValues(a, b, span)
	}
	return nil, types.NewError(types.ErrType,
		fmt.Sprintf("unknown operator %q", op), span)
}

// addValues: null is the identity on either side; numbers add, strings and
// arrays concatenate, objects merge shallowly with the right side winning.
func addValues(a, b any, span types.Span) (any, error) {
	if a == nil {
		return b, nil
	}
	if b == nil {
		return a, nil
	}
	switch x := a.(type) {
	case float64:
		if y, ok := b.(float64); ok {
			return x + y, nil
		}
	case string:
		if y, ok := b.(string); ok {
			return x + y, nil
		}
	case []any:
		if y, ok := b.([]any); ok {
			out := make([]any, 0, len(x)+len(y))
			out = append(out, x...)
			out = append(out, y...)
			return out, nil
		}
	case map[string]any:
		if y, ok := b.(map[string]any); ok {
			out := make(map[string]any, len(x)+len(y))
			for k, v := range x {
				out[k] = v
			}
			for k, v := range y {
				out[k] = v
			}
			return out, nil
		}
	}
	return nil, opFault("add", a, b, span)
}

// subValues: numbers subtract; arrays compute a multiset difference, each
// element of b removing one structurally equal occurrence from a.
func subValues(a, b any, span types.Span) (any, error) {
	switch x := a.(type) {
	case float64:
		if y, ok := b.(float64); ok {
			return x - y, nil
		}
	case []any:
		if y, ok := b.([]any); ok {
			out := make([]any, 0, len(x))
			out = append(out, x...)
			for _, e := range y {
				for i, o := range out {
					if values.Equal(o, e) {
						out = append(out[:i], out[i+1:]...)
						break
					}
				}
			}
			return out, nil
		}
	}
	return nil, opFault("subtract", a, b, span)
}

// mulValues: numbers multiply; a string times a positive integer repeats it
// (null when the count is not positive); objects deep-merge recursively.
func mulValues(a, b any, span types.Span) (any, error) {
	if x, ok := a.(float64); ok {
		switch y := b.(type) {
		case float64:
			return x * y, nil
		case string:
			return repeatString(y, x), nil
		}
	}
	if x, ok := a.(string); ok {
		if y, ok := b.(float64); ok {
			return repeatString(x, y), nil
		}
	}
	if x, ok := a.(map[string]any); ok {
		if y, ok := b.(map[string]any); ok {
			return deepMerge(x, y), nil
		}
	}
	return nil, opFault("multiply", a, b, span)
}

func repeatString(s string, n float64) any {
	count := int(n)
	if count <= 0 {
		return nil
	}
	return strings.Repeat(s, count)
}

func deepMerge(a, b map[string]any) map[string]any {
	out := make(map[string]any, len(a)+len(b))
	for k, v := range a {
		out[k] = v
	}
	for k, v := range b {
		if xo, ok := out[k].(map[string]any); ok {
			if yo, ok := v.(map[string]any); ok {
				out[k] = deepMerge(xo, yo)
				continue
			}
		}
		out[k] = v
	}
	return out
}

// divValues: numbers divide, faulting on a zero divisor; a string divided by
// a string splits on the separator.
func divValues(a, b any, span types.Span) (any, error) {
	switch x := a.(type) {
	case float64:
		if y, ok := b.(float64); ok {
			if y == 0 {
				return nil, types.NewError(types.ErrArith, "division by zero", span)
			}
			return x / y, nil
		}
	case string:
		if y, ok := b.(string); ok {
			return splitString(x, y), nil
		}
	}
	return nil, opFault("divide", a, b, span)
}

// splitString splits s on sep. An empty input splits to no pieces; an empty
// separator splits into individual code points.
func splitString(s, sep string) []any {
	if s == "" {
		return []any{}
	}
	parts := strings.Split(s, sep)
	out := make([]any, len(parts))
	for i, p := range parts {
		out[i] = p
	}
	return out
}

// modValues: integer modulo after truncating both operands, faulting on a
// zero divisor. The result carries the sign of the dividend.
func modValues(a, b any, span types.Span) (any, error) {
	x, ok := a.(float64)
	if !ok {
		return nil, opFault("mod", a, b, span)
	}
	y, ok := b.(float64)
	if !ok {
		return nil, opFault("mod", a, b, span)
	}
	xi, yi := int(math.Trunc(x)), int(math.Trunc(y))
	if yi == 0 {
		return nil, types.NewError(types.ErrArith, "modulo by zero", span)
	}
	return float64(xi % yi), nil
}

func opFault(op string, a, b any, span types.Span) error {
	return types.NewError(types.ErrType,
		fmt.Sprintf("cannot %s %s and %s", op, values.TypeName(a), values.TypeName(b)), span)
}
