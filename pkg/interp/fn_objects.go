package interp

import (
	"fmt"
	"strings"

	"github.com/gabrielbryk/jqsand/pkg/types"
	"github.com/gabrielbryk/jqsand/pkg/values"
)

// fnKeys serves keys and keys_unsorted alike: object keys are always held
// in lexicographic order, so the two agree.
func fnKeys(ev *evaluation, c *call) error {
	switch v := c.input.(type) {
	case map[string]any:
		keys := values.SortedKeys(v)
		out := make([]any, len(keys))
		for i, k := range keys {
			out[i] = k
		}
		return c.emit(out)
	case []any:
		out := make([]any, len(v))
		for i := range v {
			out[i] = float64(i)
		}
		return c.emit(out)
	default:
		return types.NewError(types.ErrType,
			fmt.Sprintf("%s has no keys", values.TypeName(c.input)), c.span())
	}
}

// fnValues passes every non-null input through.
func fnValues(ev *evaluation, c *call) error {
	if c.input == nil {
		return nil
	}
	return c.emit(c.input)
}

func fnHas(ev *evaluation, c *call) error {
	return ev.evalArg(c, 0, c.input, func(k any) error {
		out, err := hasKey(c.input, k, c.span())
		if err != nil {
			return err
		}
		return c.emit(out)
	})
}

// fnIn is the dual of has: the input is the key, the argument the container.
func fnIn(ev *evaluation, c *call) error {
	return ev.evalArg(c, 0, c.input, func(container any) error {
		out, err := hasKey(container, c.input, c.span())
		if err != nil {
			return err
		}
		return c.emit(out)
	})
}

func hasKey(container, k any, span types.Span) (bool, error) {
	switch v := container.(type) {
	case map[string]any:
		key, ok := k.(string)
		if !ok {
			return false, types.NewError(types.ErrType,
				fmt.Sprintf("cannot check %s key in object", values.TypeName(k)), span)
		}
		_, exists := v[key]
		return exists, nil
	case []any:
		f, ok := k.(float64)
		if !ok {
			return false, types.NewError(types.ErrType,
				fmt.Sprintf("cannot check %s key in array", values.TypeName(k)), span)
		}
		i, ok := values.IsInt(f)
		if !ok {
			return false, nil
		}
		return i >= 0 && i < len(v), nil
	default:
		return false, types.NewError(types.ErrType,
			fmt.Sprintf("cannot check keys of %s", values.TypeName(container)), span)
	}
}

func fnContains(ev *evaluation, c *call) error {
	return ev.evalArg(c, 0, c.input, func(b any) error {
		return c.emit(containsValue(c.input, b))
	})
}

// fnInside is the dual of contains.
func fnInside(ev *evaluation, c *call) error {
	return ev.evalArg(c, 0, c.input, func(b any) error {
		return c.emit(containsValue(b, c.input))
	})
}

// containsValue implements recursive containment: objects contain an object
// whose every entry is contained, arrays contain an array whose every
// element is contained by some element, strings contain substrings, and
// scalars contain their equals.
func containsValue(a, b any) bool {
	switch x := a.(type) {
	case map[string]any:
		y, ok := b.(map[string]any)
		if !ok {
			return false
		}
		for k, bv := range y {
			av, exists := x[k]
			if !exists || !containsValue(av, bv) {
				return false
			}
		}
		return true
	case []any:
		y, ok := b.([]any)
		if !ok {
			return false
		}
		for _, bv := range y {
			found := false
			for _, av := range x {
				if containsValue(av, bv) {
					found = true
					break
				}
			}
			if !found {
				return false
			}
		}
		return true
	case string:
		y, ok := b.(string)
		if !ok {
			return false
		}
		return strings.Contains(x, y)
	default:
		return values.Equal(a, b)
	}
}

func fnToEntries(ev *evaluation, c *call) error {
	obj, ok := c.input.(map[string]any)
	if !ok {
		return types.NewError(types.ErrType,
			fmt.Sprintf("cannot convert %s to entries", values.TypeName(c.input)), c.span())
	}
	out := make([]any, 0, len(obj))
	for _, k := range values.SortedKeys(obj) {
		out = append(out, map[string]any{"key": k, "value": obj[k]})
	}
	return c.emit(out)
}

func fnFromEntries(ev *evaluation, c *call) error {
	arr, ok := c.input.([]any)
	if !ok {
		return types.NewError(types.ErrType,
			fmt.Sprintf("cannot build an object from %s", values.TypeName(c.input)), c.span())
	}
	out := make(map[string]any, len(arr))
	for _, e := range arr {
		k, v, err := entryPair(e, c.span())
		if err != nil {
			return err
		}
		out[k] = v
	}
	return c.emit(out)
}

// entryPair extracts the key and value of one entry, accepting the usual
// alternative spellings. Non-string keys stringify canonically.
func entryPair(e any, span types.Span) (string, any, error) {
	obj, ok := e.(map[string]any)
	if !ok {
		return "", nil, types.NewError(types.ErrType,
			fmt.Sprintf("entry must be an object, got %s", values.TypeName(e)), span)
	}
	var key any
	found := false
	for _, name := range []string{"key", "k", "name", "Name", "K", "Key"} {
		if v, exists := obj[name]; exists {
			key, found = v, true
			break
		}
	}
	if !found {
		return "", nil, types.NewError(types.ErrType, "entry has no key", span)
	}
	ks, ok := key.(string)
	if !ok {
		ks = values.Encode(key)
	}
	var value any
	for _, name := range []string{"value", "v", "Value", "V"} {
		if v, exists := obj[name]; exists {
			value = v
			break
		}
	}
	return ks, value, nil
}

// fnWithEntries maps a filter over the entry list of an object and rebuilds
// the object, the conventional to_entries | map(f) | from_entries pipeline.
func fnWithEntries(ev *evaluation, c *call) error {
	obj, ok := c.input.(map[string]any)
	if !ok {
		return types.NewError(types.ErrType,
			fmt.Sprintf("cannot rewrite entries of %s", values.TypeName(c.input)), c.span())
	}
	out := make(map[string]any, len(obj))
	for _, k := range values.SortedKeys(obj) {
		if err := ev.tr.step(c.span()); err != nil {
			return err
		}
		entry := map[string]any{"key": k, "value": obj[k]}
		err := ev.evalArg(c, 0, entry, func(mapped any) error {
			nk, nv, err := entryPair(mapped, c.span())
			if err != nil {
				return err
			}
			out[nk] = nv
			return nil
		})
		if err != nil {
			return err
		}
	}
	return c.emit(out)
}

// fnDel deletes the locations addressed by a path expression.
func fnDel(ev *evaluation, c *call) error {
	var paths [][]any
	err := ev.resolvePaths(c.arg(0), c.input, c.env, func(p []any) error {
		paths = append(paths, p)
		return nil
	})
	if err != nil {
		return err
	}
	out, err := deletePaths(c.input, paths, c.span())
	if err != nil {
		return err
	}
	return c.emit(out)
}

// deletePaths removes locations deepest and rightmost first so shallower
// paths remain valid as arrays shrink.
func deletePaths(v any, paths [][]any, span types.Span) (any, error) {
	sortPathsDescending(paths)
	acc := v
	for _, p := range paths {
		var err error
		acc, err = updatePath(acc, p, span, func(any, bool) (any, bool, error) {
			return nil, false, nil
		})
		if err != nil {
			return nil, err
		}
	}
	return acc, nil
}
