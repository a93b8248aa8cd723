package interp

import (
	"fmt"

	"github.com/gabrielbryk/jqsand/pkg/types"
	"github.com/gabrielbryk/jqsand/pkg/values"
)

// fnPath resolves its argument as a path expression and emits each path.
func fnPath(ev *evaluation, c *call) error {
	return ev.resolvePaths(c.arg(0), c.input, c.env, func(p []any) error {
		return c.emit(anySlice(p))
	})
}

// fnPaths emits the path of every leaf: scalar values nested anywhere in
// the input, arrays before objects only insofar as structure dictates,
// object keys in sorted order. Empty containers contribute nothing.
func fnPaths(ev *evaluation, c *call) error {
	var walk func(v any, prefix []any) error
	walk = func(v any, prefix []any) error {
		if err := ev.tr.step(c.span()); err != nil {
			return err
		}
		emitLeaf := func(seg any, child any) error {
			p := appendSeg(prefix, seg)
			switch child.(type) {
			case []any, map[string]any:
				return walk(child, p)
			default:
				return c.emit(p)
			}
		}
		switch x := v.(type) {
		case []any:
			for i, e := range x {
				if err := emitLeaf(float64(i), e); err != nil {
					return err
				}
			}
		case map[string]any:
			for _, k := range values.SortedKeys(x) {
				if err := emitLeaf(k, x[k]); err != nil {
					return err
				}
			}
		}
		return nil
	}
	return walk(c.input, nil)
}

// fnGetPath reads the value at each argument path; missing locations read
// as null.
func fnGetPath(ev *evaluation, c *call) error {
	return ev.evalArg(c, 0, c.input, func(p any) error {
		segs, err := pathSegments(p, c.span())
		if err != nil {
			return err
		}
		v, err := getPath(c.input, segs)
		if err != nil {
			return err
		}
		return c.emit(v)
	})
}

// fnSetPath writes a value at a path, materializing intermediate containers
// as needed. Paths fan out before values.
func fnSetPath(ev *evaluation, c *call) error {
	pathsArg, err := ev.argValues(c, 0)
	if err != nil {
		return err
	}
	valuesArg, err := ev.argValues(c, 1)
	if err != nil {
		return err
	}
	for _, p := range pathsArg {
		segs, err := pathSegments(p, c.span())
		if err != nil {
			return err
		}
		for _, v := range valuesArg {
			out, err := updatePath(c.input, segs, c.span(), func(any, bool) (any, bool, error) {
				return v, true, nil
			})
			if err != nil {
				return err
			}
			if err := c.emit(out); err != nil {
				return err
			}
		}
	}
	return nil
}

// fnDelPaths deletes a batch of paths, deepest first.
func fnDelPaths(ev *evaluation, c *call) error {
	return ev.evalArg(c, 0, c.input, func(batch any) error {
		arr, ok := batch.([]any)
		if !ok {
			return types.NewError(types.ErrType,
				fmt.Sprintf("delpaths requires an array of paths, got %s",
					values.TypeName(batch)), c.span())
		}
		paths := make([][]any, 0, len(arr))
		for _, p := range arr {
			segs, err := pathSegments(p, c.span())
			if err != nil {
				return err
			}
			paths = append(paths, segs)
		}
		out, err := deletePaths(c.input, paths, c.span())
		if err != nil {
			return err
		}
		return c.emit(out)
	})
}

// fnWalk applies f to every subvalue bottom-up: children are rewritten
// first, then the rebuilt value passes through f. f's first output is used.
func fnWalk(ev *evaluation, c *call) error {
	var walk func(v any) (any, error)
	walk = func(v any) (any, error) {
		if err := ev.tr.step(c.span()); err != nil {
			return nil, err
		}
		switch x := v.(type) {
		case []any:
			rebuilt := make([]any, len(x))
			for i, e := range x {
				w, err := walk(e)
				if err != nil {
					return nil, err
				}
				rebuilt[i] = w
			}
			v = rebuilt
		case map[string]any:
			rebuilt := make(map[string]any, len(x))
			for _, k := range values.SortedKeys(x) {
				w, err := walk(x[k])
				if err != nil {
					return nil, err
				}
				rebuilt[k] = w
			}
			v = rebuilt
		}
		out, found, err := ev.firstOf(c, 0, v)
		if err != nil {
			return nil, err
		}
		if !found {
			return nil, types.NewError(types.ErrArity,
				"walk function must produce a value", c.span())
		}
		return out, nil
	}
	out, err := walk(c.input)
	if err != nil {
		return err
	}
	return c.emit(out)
}
