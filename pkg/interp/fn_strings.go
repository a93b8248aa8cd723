package interp

import (
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/gabrielbryk/jqsand/pkg/types"
	"github.com/gabrielbryk/jqsand/pkg/values"
)

func stringInput(c *call) (string, error) {
	s, ok := c.input.(string)
	if !ok {
		return "", types.NewError(types.ErrType,
			fmt.Sprintf("string required, got %s", values.TypeName(c.input)), c.span())
	}
	return s, nil
}

func stringArg(c *call, v any) (string, error) {
	s, ok := v.(string)
	if !ok {
		return "", types.NewError(types.ErrType,
			fmt.Sprintf("string argument required, got %s", values.TypeName(v)), c.span())
	}
	return s, nil
}

func fnSplit(ev *evaluation, c *call) error {
	s, err := stringInput(c)
	if err != nil {
		return err
	}
	return ev.evalArg(c, 0, c.input, func(v any) error {
		sep, err := stringArg(c, v)
		if err != nil {
			return err
		}
		return c.emit(splitString(s, sep))
	})
}

// fnJoin concatenates array elements with a separator. Nulls join as empty
// strings, numbers and booleans in canonical form.
func fnJoin(ev *evaluation, c *call) error {
	arr, err := arrayInput(c)
	if err != nil {
		return err
	}
	return ev.evalArg(c, 0, c.input, func(v any) error {
		sep, err := stringArg(c, v)
		if err != nil {
			return err
		}
		var sb strings.Builder
		for i, e := range arr {
			if i > 0 {
				sb.WriteString(sep)
			}
			switch x := e.(type) {
			case nil:
			case string:
				sb.WriteString(x)
			case float64, bool:
				sb.WriteString(values.Encode(x))
			default:
				return types.NewError(types.ErrType,
					fmt.Sprintf("cannot join %s element", values.TypeName(e)), c.span())
			}
		}
		return c.emit(sb.String())
	})
}

func fnASCIIDowncase(ev *evaluation, c *call) error {
	s, err := stringInput(c)
	if err != nil {
		return err
	}
	return c.emit(strings.Map(func(r rune) rune {
		if r >= 'A' && r <= 'Z' {
			return r + ('a' - 'A')
		}
		return r
	}, s))
}

func fnASCIIUpcase(ev *evaluation, c *call) error {
	s, err := stringInput(c)
	if err != nil {
		return err
	}
	return c.emit(strings.Map(func(r rune) rune {
		if r >= 'a' && r <= 'z' {
			return r - ('a' - 'A')
		}
		return r
	}, s))
}

// fnExplode converts a string to its code point array.
func fnExplode(ev *evaluation, c *call) error {
	s, err := stringInput(c)
	if err != nil {
		return err
	}
	out := make([]any, 0, len(s))
	for _, r := range s {
		out = append(out, float64(r))
	}
	return c.emit(out)
}

// fnImplode converts a code point array back into a string.
func fnImplode(ev *evaluation, c *call) error {
	arr, err := arrayInput(c)
	if err != nil {
		return err
	}
	var sb strings.Builder
	for _, e := range arr {
		f, ok := e.(float64)
		if !ok {
			return types.NewError(types.ErrType,
				fmt.Sprintf("implode requires numbers, got %s", values.TypeName(e)), c.span())
		}
		cp, ok := values.IsInt(f)
		if !ok || cp < 0 || cp > utf8.MaxRune {
			return types.NewError(types.ErrType,
				fmt.Sprintf("invalid code point %v", f), c.span())
		}
		sb.WriteRune(rune(cp))
	}
	return c.emit(sb.String())
}

// fnLTrimStr removes a leading occurrence of the argument. Inputs that are
// not strings, and inputs without the prefix, pass through unchanged.
func fnLTrimStr(ev *evaluation, c *call) error {
	return ev.evalArg(c, 0, c.input, func(v any) error {
		s, sok := c.input.(string)
		pre, pok := v.(string)
		if sok && pok {
			return c.emit(strings.TrimPrefix(s, pre))
		}
		return c.emit(c.input)
	})
}

func fnRTrimStr(ev *evaluation, c *call) error {
	return ev.evalArg(c, 0, c.input, func(v any) error {
		s, sok := c.input.(string)
		suf, pok := v.(string)
		if sok && pok {
			return c.emit(strings.TrimSuffix(s, suf))
		}
		return c.emit(c.input)
	})
}

func fnStartsWith(ev *evaluation, c *call) error {
	s, err := stringInput(c)
	if err != nil {
		return err
	}
	return ev.evalArg(c, 0, c.input, func(v any) error {
		pre, err := stringArg(c, v)
		if err != nil {
			return err
		}
		return c.emit(strings.HasPrefix(s, pre))
	})
}

func fnEndsWith(ev *evaluation, c *call) error {
	s, err := stringInput(c)
	if err != nil {
		return err
	}
	return ev.evalArg(c, 0, c.input, func(v any) error {
		suf, err := stringArg(c, v)
		if err != nil {
			return err
		}
		return c.emit(strings.HasSuffix(s, suf))
	})
}
