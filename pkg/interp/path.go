package interp

import (
	"fmt"
	"sort"

	"github.com/gabrielbryk/jqsand/pkg/types"
	"github.com/gabrielbryk/jqsand/pkg/values"
)

// A path is a []any of segments: string keys, float64 indices, and
// map[string]any{"start","end"} slice descriptors. The same representation
// is what path(f), getpath and setpath exchange with filters.

// pathEmitFn receives one resolved path.
type pathEmitFn func(p []any) error

// resolvePaths evaluates a path expression against v, emitting the path of
// every location the expression addresses. Only path-shaped expressions are
// accepted: identity, field and index access, iteration, slices, pipe,
// comma, select, empty, and calls to zero-arity user definitions whose body
// is itself path-shaped. Anything else is a fault.
func (ev *evaluation) resolvePaths(n *types.ASTNode, v any, env *Env, emit pathEmitFn) error {
	if err := ev.tr.enter(n.Span); err != nil {
		return err
	}
	defer ev.tr.exit()

	switch n.Kind {
	case types.NodeIdentity, types.NodeRecurse:
		if n.Kind == types.NodeRecurse {
			return ev.resolveRecursePaths(v, nil, n.Span, emit)
		}
		return emit([]any{})

	case types.NodeField:
		return ev.resolvePaths(n.Target, v, env, func(p []any) error {
			return emit(appendSeg(p, n.Name))
		})

	case types.NodeIndex:
		keys, err := ev.collect(n.Key, v, env)
		if err != nil {
			return err
		}
		return ev.resolvePaths(n.Target, v, env, func(p []any) error {
			for _, k := range keys {
				switch k.(type) {
				case string, float64:
				default:
					return types.NewError(types.ErrType,
						fmt.Sprintf("path index must be a string or number, got %s",
							values.TypeName(k)), n.Span)
				}
				if err := emit(appendSeg(p, k)); err != nil {
					return err
				}
			}
			return nil
		})

	case types.NodeSlice:
		froms, tos, err := ev.sliceBounds(n, v, env)
		if err != nil {
			return err
		}
		return ev.resolvePaths(n.Target, v, env, func(p []any) error {
			for _, from := range froms {
				for _, to := range tos {
					if _, _, err := sliceRange(from, to, n.Span); err != nil {
						return err
					}
					seg := map[string]any{"start": from, "end": to}
					if err := emit(appendSeg(p, seg)); err != nil {
						return err
					}
				}
			}
			return nil
		})

	case types.NodeIterate:
		return ev.resolvePaths(n.Target, v, env, func(p []any) error {
			cur, err := getPath(v, p)
			if err != nil {
				return err
			}
			switch c := cur.(type) {
			case []any:
				for i := range c {
					if err := emit(appendSeg(p, float64(i))); err != nil {
						return err
					}
				}
				return nil
			case map[string]any:
				for _, k := range values.SortedKeys(c) {
					if err := emit(appendSeg(p, k)); err != nil {
						return err
					}
				}
				return nil
			case nil:
				return nil
			default:
				return types.NewError(types.ErrType,
					fmt.Sprintf("cannot iterate over %s in path expression",
						values.TypeName(cur)), n.Span)
			}
		})

	case types.NodePipe:
		return ev.resolvePaths(n.LHS, v, env, func(lp []any) error {
			cur, err := getPath(v, lp)
			if err != nil {
				return err
			}
			return ev.resolvePaths(n.RHS, cur, env, func(rp []any) error {
				joined := make([]any, 0, len(lp)+len(rp))
				joined = append(joined, lp...)
				joined = append(joined, rp...)
				return emit(joined)
			})
		})

	case types.NodeComma:
		if err := ev.resolvePaths(n.LHS, v, env, emit); err != nil {
			return err
		}
		return ev.resolvePaths(n.RHS, v, env, emit)

	case types.NodeCall:
		switch n.Name {
		case "empty":
			if len(n.Args) == 0 {
				return nil
			}
		case "select":
			if len(n.Args) == 1 {
				return ev.eval(n.Args[0], v, env, func(c any) error {
					if !values.Truthy(c) {
						return nil
					}
					return emit([]any{})
				})
			}
		case "getpath":
			if len(n.Args) == 1 {
				return ev.eval(n.Args[0], v, env, func(p any) error {
					segs, err := pathSegments(p, n.Span)
					if err != nil {
						return err
					}
					return emit(segs)
				})
			}
		}
		if cl, ok := env.lookupFunc(n.Name, len(n.Args)); ok && len(cl.params) == 0 {
			return ev.resolvePaths(cl.body, v, cl.env, emit)
		}

	case types.NodeIf:
		return ev.eval(n.Cond, v, env, func(c any) error {
			if values.Truthy(c) {
				return ev.resolvePaths(n.Then, v, env, emit)
			}
			if n.Else != nil {
				return ev.resolvePaths(n.Else, v, env, emit)
			}
			return emit([]any{})
		})
	}

	return types.NewError(types.ErrType,
		fmt.Sprintf("invalid path expression (%s)", n.Kind), n.Span)
}

// resolveRecursePaths emits prefix and the path of every descendant.
func (ev *evaluation) resolveRecursePaths(v any, prefix []any, span types.Span, emit pathEmitFn) error {
	if err := ev.tr.step(span); err != nil {
		return err
	}
	p := make([]any, len(prefix))
	copy(p, prefix)
	if err := emit(p); err != nil {
		return err
	}
	switch c := v.(type) {
	case []any:
		for i, e := range c {
			if err := ev.resolveRecursePaths(e, append(prefix, float64(i)), span, emit); err != nil {
				return err
			}
		}
	case map[string]any:
		for _, k := range values.SortedKeys(c) {
			if err := ev.resolveRecursePaths(c[k], append(prefix, k), span, emit); err != nil {
				return err
			}
		}
	}
	return nil
}

// appendSeg extends a path with one segment, never aliasing the original
// backing array.
func appendSeg(p []any, seg any) []any {
	out := make([]any, len(p)+1)
	copy(out, p)
	out[len(p)] = seg
	return out
}

// getPath reads the value at a path. Missing keys, out-of-range indices and
// type mismatches all read as null, so getpath(path(f)) reproduces f on the
// locations f addresses.
func getPath(v any, path []any) (any, error) {
	cur := v
	for _, seg := range path {
		switch s := seg.(type) {
		case string:
			obj, ok := cur.(map[string]any)
			if !ok {
				return nil, nil
			}
			cur = obj[s]
		case float64:
			arr, ok := cur.([]any)
			if !ok {
				return nil, nil
			}
			i := int(s)
			if i < 0 {
				i += len(arr)
			}
			if i < 0 || i >= len(arr) {
				return nil, nil
			}
			cur = arr[i]
		case map[string]any:
			out, err := sliceValue(cur, s["start"], s["end"], types.Span{})
			if err != nil {
				return nil, nil
			}
			cur = out
		default:
			return nil, types.NewError(types.ErrType,
				fmt.Sprintf("invalid path segment of type %s", values.TypeName(seg)),
				types.Span{})
		}
	}
	return cur, nil
}

// leafOp transforms the value at the end of a path. exists reports whether
// the location held a value; keep false deletes the location.
type leafOp func(old any, exists bool) (out any, keep bool, err error)

// updatePath rewrites the value at path inside v, cloning only the spine of
// containers along the way. Null containers materialize as objects or
// arrays as the segment type demands; writing past the end of an array pads
// with nulls.
func updatePath(v any, path []any, span types.Span, op leafOp) (any, error) {
	if len(path) == 0 {
		out, keep, err := op(v, true)
		if err != nil {
			return nil, err
		}
		if !keep {
			return nil, nil
		}
		return out, nil
	}

	seg, rest := path[0], path[1:]
	switch s := seg.(type) {
	case string:
		var obj map[string]any
		switch c := v.(type) {
		case map[string]any:
			obj = make(map[string]any, len(c)+1)
			for k, e := range c {
				obj[k] = e
			}
		case nil:
			obj = make(map[string]any, 1)
		default:
			return nil, types.NewError(types.ErrType,
				fmt.Sprintf("cannot index %s with %q", values.TypeName(v), s), span)
		}
		old, exists := obj[s]
		if len(rest) == 0 {
			out, keep, err := op(old, exists)
			if err != nil {
				return nil, err
			}
			if keep {
				obj[s] = out
			} else {
				delete(obj, s)
			}
			return obj, nil
		}
		child, err := updatePath(old, rest, span, op)
		if err != nil {
			return nil, err
		}
		obj[s] = child
		return obj, nil

	case float64:
		var arr []any
		switch c := v.(type) {
		case []any:
			arr = make([]any, len(c))
			copy(arr, c)
		case nil:
		default:
			return nil, types.NewError(types.ErrType,
				fmt.Sprintf("cannot index %s with number", values.TypeName(v)), span)
		}
		i, ok := values.IsInt(s)
		if !ok {
			return nil, types.NewError(types.ErrIndex,
				fmt.Sprintf("array index %v is not an integer", s), span)
		}
		if i < 0 {
			i += len(arr)
			if i < 0 {
				return nil, types.NewError(types.ErrIndex,
					"out of bounds negative array index", span)
			}
		}
		if len(rest) == 0 {
			old, exists := any(nil), i < len(arr)
			if exists {
				old = arr[i]
			}
			out, keep, err := op(old, exists)
			if err != nil {
				return nil, err
			}
			if !keep {
				if i < len(arr) {
					arr = append(arr[:i], arr[i+1:]...)
				}
				return arr, nil
			}
			for len(arr) <= i {
				arr = append(arr, nil)
			}
			arr[i] = out
			return arr, nil
		}
		var old any
		if i < len(arr) {
			old = arr[i]
		}
		child, err := updatePath(old, rest, span, op)
		if err != nil {
			return nil, err
		}
		for len(arr) <= i {
			arr = append(arr, nil)
		}
		arr[i] = child
		return arr, nil

	case map[string]any:
		return updateSlice(v, s, rest, span, op)
	}

	return nil, types.NewError(types.ErrType,
		fmt.Sprintf("invalid path segment of type %s", values.TypeName(seg)), span)
}

// updateSlice rewrites a slice region of an array. The leaf value replacing
// the region must itself be an array; deleting the leaf removes the region.
func updateSlice(v any, seg map[string]any, rest []any, span types.Span, op leafOp) (any, error) {
	var arr []any
	switch c := v.(type) {
	case []any:
		arr = c
	case nil:
		arr = []any{}
	default:
		return nil, types.NewError(types.ErrType,
			fmt.Sprintf("cannot slice %s in assignment", values.TypeName(v)), span)
	}
	start, end, err := sliceRange(seg["start"], seg["end"], span)
	if err != nil {
		return nil, err
	}
	lo, hi := clampRange(start, end, len(arr))
	region := make([]any, hi-lo)
	copy(region, arr[lo:hi])

	var replacement []any
	if len(rest) == 0 {
		out, keep, err := op(region, true)
		if err != nil {
			return nil, err
		}
		if keep {
			repl, ok := out.([]any)
			if !ok {
				return nil, types.NewError(types.ErrType,
					fmt.Sprintf("slice must be assigned an array, got %s",
						values.TypeName(out)), span)
			}
			replacement = repl
		}
	} else {
		child, err := updatePath(region, rest, span, op)
		if err != nil {
			return nil, err
		}
		repl, ok := child.([]any)
		if !ok {
			return nil, types.NewError(types.ErrType,
				fmt.Sprintf("slice update must produce an array, got %s",
					values.TypeName(child)), span)
		}
		replacement = repl
	}

	out := make([]any, 0, len(arr)-(hi-lo)+len(replacement))
	out = append(out, arr[:lo]...)
	out = append(out, replacement...)
	out = append(out, arr[hi:]...)
	return out, nil
}

// pathSegments validates a filter-supplied path value.
func pathSegments(p any, span types.Span) ([]any, error) {
	segs, ok := p.([]any)
	if !ok {
		return nil, types.NewError(types.ErrType,
			fmt.Sprintf("path must be an array, got %s", values.TypeName(p)), span)
	}
	for _, seg := range segs {
		switch s := seg.(type) {
		case string, float64:
		case map[string]any:
			for _, k := range []string{"start", "end"} {
				switch s[k].(type) {
				case nil, float64:
				default:
					return nil, types.NewError(types.ErrType,
						"slice path segment bounds must be numbers or null", span)
				}
			}
		default:
			return nil, types.NewError(types.ErrType,
				fmt.Sprintf("invalid path segment of type %s", values.TypeName(seg)), span)
		}
	}
	return segs, nil
}

// sortPathsDescending orders paths so that deletions apply deepest and
// rightmost first, keeping earlier array indices stable while later ones
// are removed.
func sortPathsDescending(paths [][]any) {
	sort.SliceStable(paths, func(i, j int) bool {
		return values.Compare(anySlice(paths[i]), anySlice(paths[j])) > 0
	})
}

func anySlice(p []any) []any {
	if p == nil {
		return []any{}
	}
	return p
}
