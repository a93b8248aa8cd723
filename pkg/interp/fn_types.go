package interp

import (
	"encoding/json"
	"fmt"
	"math"
	"strconv"

	"github.com/gabrielbryk/jqsand/pkg/types"
	"github.com/gabrielbryk/jqsand/pkg/values"
)

func fnType(ev *evaluation, c *call) error {
	return c.emit(values.TypeName(c.input))
}

func fnToString(ev *evaluation, c *call) error {
	if s, ok := c.input.(string); ok {
		return c.emit(s)
	}
	return c.emit(values.Encode(c.input))
}

func fnToNumber(ev *evaluation, c *call) error {
	switch v := c.input.(type) {
	case float64:
		return c.emit(v)
	case string:
		f, err := strconv.ParseFloat(v, 64)
		if err != nil {
			return types.NewError(types.ErrType,
				fmt.Sprintf("cannot parse %q as a number", v), c.span())
		}
		return c.emit(f)
	default:
		return types.NewError(types.ErrType,
			fmt.Sprintf("cannot convert %s to a number", values.TypeName(c.input)), c.span())
	}
}

func fnToBoolean(ev *evaluation, c *call) error {
	switch v := c.input.(type) {
	case bool:
		return c.emit(v)
	case string:
		switch v {
		case "true":
			return c.emit(true)
		case "false":
			return c.emit(false)
		}
	}
	return types.NewError(types.ErrType,
		fmt.Sprintf("cannot convert %s to a boolean", values.TypeName(c.input)), c.span())
}

// fnLength: null counts 0, numbers their absolute value, strings code
// points, arrays and objects their element and key counts.
func fnLength(ev *evaluation, c *call) error {
	switch v := c.input.(type) {
	case nil:
		return c.emit(float64(0))
	case float64:
		return c.emit(math.Abs(v))
	case string:
		return c.emit(float64(len([]rune(v))))
	case []any:
		return c.emit(float64(len(v)))
	case map[string]any:
		return c.emit(float64(len(v)))
	default:
		return types.NewError(types.ErrType,
			fmt.Sprintf("%s has no length", values.TypeName(c.input)), c.span())
	}
}

func fnUTF8ByteLength(ev *evaluation, c *call) error {
	s, ok := c.input.(string)
	if !ok {
		return types.NewError(types.ErrType,
			fmt.Sprintf("%s has no byte length", values.TypeName(c.input)), c.span())
	}
	return c.emit(float64(len(s)))
}

func fnNot(ev *evaluation, c *call) error {
	return c.emit(!values.Truthy(c.input))
}

func fnEmpty(ev *evaluation, c *call) error {
	return nil
}

// fnError0 raises the input as a user fault.
func fnError0(ev *evaluation, c *call) error {
	return userFault(c.input, c.span())
}

// fnError1 raises each value of the argument as a user fault; the first one
// aborts evaluation.
func fnError1(ev *evaluation, c *call) error {
	return ev.evalArg(c, 0, c.input, func(v any) error {
		return userFault(v, c.span())
	})
}

func userFault(v any, span types.Span) error {
	msg, ok := v.(string)
	if !ok {
		msg = values.Encode(v)
	}
	return types.NewError(types.ErrUser, msg, span)
}

func fnIsNaN(ev *evaluation, c *call) error {
	f, err := numberInput(c)
	if err != nil {
		return err
	}
	return c.emit(math.IsNaN(f))
}

func fnIsInfinite(ev *evaluation, c *call) error {
	f, err := numberInput(c)
	if err != nil {
		return err
	}
	return c.emit(math.IsInf(f, 0))
}

func fnIsFinite(ev *evaluation, c *call) error {
	f, err := numberInput(c)
	if err != nil {
		return err
	}
	return c.emit(!math.IsInf(f, 0) && !math.IsNaN(f))
}

func fnIsNormal(ev *evaluation, c *call) error {
	f, err := numberInput(c)
	if err != nil {
		return err
	}
	normal := f != 0 && !math.IsInf(f, 0) && !math.IsNaN(f) &&
		math.Abs(f) >= math.SmallestNonzeroFloat64*math.Pow(2, 52)
	return c.emit(normal)
}

func fnInfinite(ev *evaluation, c *call) error {
	return c.emit(math.Inf(1))
}

func fnNaN(ev *evaluation, c *call) error {
	return c.emit(math.NaN())
}

func fnToJSON(ev *evaluation, c *call) error {
	return c.emit(values.Encode(c.input))
}

func fnFromJSON(ev *evaluation, c *call) error {
	s, ok := c.input.(string)
	if !ok {
		return types.NewError(types.ErrType,
			fmt.Sprintf("cannot parse %s as JSON", values.TypeName(c.input)), c.span())
	}
	var v any
	if err := json.Unmarshal([]byte(s), &v); err != nil {
		return types.NewError(types.ErrType,
			fmt.Sprintf("invalid JSON: %v", err), c.span())
	}
	norm, err := values.Normalize(v)
	if err != nil {
		return types.NewError(types.ErrType, "invalid JSON value", c.span())
	}
	return c.emit(norm)
}

func numberInput(c *call) (float64, error) {
	f, ok := c.input.(float64)
	if !ok {
		return 0, types.NewError(types.ErrType,
			fmt.Sprintf("number required, got %s", values.TypeName(c.input)), c.span())
	}
	return f, nil
}
