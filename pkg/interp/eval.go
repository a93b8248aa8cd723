package interp

import (
	"fmt"

	"github.com/gabrielbryk/jqsand/pkg/types"
	"github.com/gabrielbryk/jqsand/pkg/values"
)

// emitFn receives one value of a filter's output stream. Returning a non-nil
// error aborts the producing evaluation; control errors (break, truncation)
// travel through it as well.
type emitFn func(v any) error

// breakSignal unwinds evaluation from a break up to its matching label.
type breakSignal struct {
	label string
}

func (b *breakSignal) Error() string {
	return "break $*label-" + b.label
}

// errTruncated stops a producer once a consumer such as limit or first has
// seen enough values. It never escapes the builtin that planted it.
type errTruncated struct{}

func (errTruncated) Error() string {
	return "truncated"
}

// evaluation carries the per-run state, principally the resource tracker.
type evaluation struct {
	tr *tracker
}

// eval evaluates one AST node against an input value, streaming each output
// through emit. Evaluation is lazy: values flow to emit as they are produced,
// in the deterministic order the language defines.
func (ev *evaluation) eval(n *types.ASTNode, input any, env *Env, emit emitFn) error {
	if err := ev.tr.enter(n.Span); err != nil {
		return err
	}
	defer ev.tr.exit()

	switch n.Kind {
	case types.NodeIdentity:
		return emit(input)

	case types.NodeLiteral:
		return emit(n.Literal)

	case types.NodeVariable:
		v, ok := env.lookupVar(n.Name)
		if !ok {
			return types.NewError(types.ErrUnbound,
				fmt.Sprintf("variable $%s is not defined", n.Name), n.Span)
		}
		return emit(v)

	case types.NodeField:
		return ev.eval(n.Target, input, env, func(v any) error {
			out, err := fieldValue(v, n.Name, n.Span)
			if err != nil {
				return err
			}
			return emit(out)
		})

	case types.NodeIndex:
		keys, err := ev.collect(n.Key, input, env)
		if err != nil {
			return err
		}
		return ev.eval(n.Target, input, env, func(c any) error {
			for _, k := range keys {
				out, err := indexValue(c, k, n.Span)
				if err != nil {
					return err
				}
				if err := emit(out); err != nil {
					return err
				}
			}
			return nil
		})

	case types.NodeSlice:
		froms, tos, err := ev.sliceBounds(n, input, env)
		if err != nil {
			return err
		}
		return ev.eval(n.Target, input, env, func(c any) error {
			for _, from := range froms {
				for _, to := range tos {
					out, err := sliceValue(c, from, to, n.Span)
					if err != nil {
						return err
					}
					if err := emit(out); err != nil {
						return err
					}
				}
			}
			return nil
		})

	case types.NodeIterate:
		return ev.eval(n.Target, input, env, func(v any) error {
			return ev.iterate(v, n.Span, emit)
		})

	case types.NodeArray:
		out := []any{}
		if n.Items != nil {
			err := ev.eval(n.Items, input, env, func(v any) error {
				out = append(out, v)
				return nil
			})
			if err != nil {
				return err
			}
		}
		return emit(out)

	case types.NodeObject:
		return ev.evalObject(n, input, env, emit)

	case types.NodePipe:
		return ev.eval(n.LHS, input, env, func(v any) error {
			return ev.eval(n.RHS, v, env, emit)
		})

	case types.NodeComma:
		if err := ev.eval(n.LHS, input, env, emit); err != nil {
			return err
		}
		return ev.eval(n.RHS, input, env, emit)

	case types.NodeAlternative:
		found := false
		err := ev.eval(n.LHS, input, env, func(v any) error {
			if !values.Truthy(v) {
				return nil
			}
			found = true
			return emit(v)
		})
		if err != nil {
			return err
		}
		if found {
			return nil
		}
		return ev.eval(n.RHS, input, env, emit)

	case types.NodeUnary:
		return ev.eval(n.LHS, input, env, func(v any) error {
			if n.Name == "not" {
				return emit(!values.Truthy(v))
			}
			f, ok := v.(float64)
			if !ok {
				return types.NewError(types.ErrType,
					fmt.Sprintf("cannot negate %s", values.TypeName(v)), n.Span)
			}
			return emit(-f)
		})

	case types.NodeBinary:
		return ev.eval(n.LHS, input, env, func(l any) error {
			return ev.eval(n.RHS, input, env, func(r any) error {
				out, err := binaryOp(n.Name, l, r, n.Span)
				if err != nil {
					return err
				}
				return emit(out)
			})
		})

	case types.NodeBoolean:
		return ev.eval(n.LHS, input, env, func(l any) error {
			lt := values.Truthy(l)
			if n.Name == "and" && !lt {
				return emit(false)
			}
			if n.Name == "or" && lt {
				return emit(true)
			}
			return ev.eval(n.RHS, input, env, func(r any) error {
				return emit(values.Truthy(r))
			})
		})

	case types.NodeIf:
		return ev.eval(n.Cond, input, env, func(c any) error {
			if values.Truthy(c) {
				return ev.eval(n.Then, input, env, emit)
			}
			if n.Else != nil {
				return ev.eval(n.Else, input, env, emit)
			}
			return emit(input)
		})

	case types.NodeBind:
		return ev.eval(n.Source, input, env, func(v any) error {
			child := newEnv(env)
			child.bindVar(n.Name, v)
			return ev.eval(n.Body, input, child, emit)
		})

	case types.NodeFuncDef:
		frame := newEnv(env)
		frame.defineFunc(n.Name, n.Params, n.Body, frame)
		return ev.eval(n.Rest, input, frame, emit)

	case types.NodeCall:
		return ev.evalCall(n, input, env, emit)

	case types.NodeReduce:
		acc, err := ev.evalOne(n.Init, input, env, n.Span)
		if err != nil {
			return err
		}
		err = ev.eval(n.Source, input, env, func(v any) error {
			if err := ev.tr.step(n.Span); err != nil {
				return err
			}
			child := newEnv(env)
			child.bindVar(n.Name, v)
			acc, err = ev.evalOne(n.Update, acc, child, n.Span)
			return err
		})
		if err != nil {
			return err
		}
		return emit(acc)

	case types.NodeForeach:
		acc, err := ev.evalOne(n.Init, input, env, n.Span)
		if err != nil {
			return err
		}
		return ev.eval(n.Source, input, env, func(v any) error {
			if err := ev.tr.step(n.Span); err != nil {
				return err
			}
			child := newEnv(env)
			child.bindVar(n.Name, v)
			acc, err = ev.evalOne(n.Update, acc, child, n.Span)
			if err != nil {
				return err
			}
			if n.Extract == nil {
				return emit(acc)
			}
			return ev.eval(n.Extract, acc, child, emit)
		})

	case types.NodeTry:
		err := ev.eval(n.Body, input, env, emit)
		if err == nil {
			return nil
		}
		fault, ok := err.(*types.Error)
		if !ok || !fault.Catchable() {
			return err
		}
		if n.Handler == nil {
			return nil
		}
		return ev.eval(n.Handler, fault.Message, env, emit)

	case types.NodeRecurse:
		return ev.recurseAll(input, n.Span, emit)

	case types.NodeLabel:
		err := ev.eval(n.Body, input, env, emit)
		if bs, ok := err.(*breakSignal); ok && bs.label == n.Name {
			return nil
		}
		return err

	case types.NodeBreak:
		return &breakSignal{label: n.Name}

	case types.NodeAssign:
		return ev.evalAssign(n, input, env, emit)
	}

	return types.NewError(types.ErrType,
		fmt.Sprintf("cannot evaluate %s node", n.Kind), n.Span)
}

// evalObject builds the Cartesian product of an object construction: entries
// left to right, each key stream outer to its value stream, later products
// overwriting earlier keys.
func (ev *evaluation) evalObject(n *types.ASTNode, input any, env *Env, emit emitFn) error {
	var build func(idx int, acc map[string]any) error
	build = func(idx int, acc map[string]any) error {
		if idx == len(n.Entries) {
			return emit(acc)
		}
		entry := n.Entries[idx]
		return ev.eval(entry.Key, input, env, func(k any) error {
			key, ok := k.(string)
			if !ok {
				return types.NewError(types.ErrType,
					fmt.Sprintf("object key must be a string, got %s", values.TypeName(k)), n.Span)
			}
			return ev.eval(entry.Value, input, env, func(v any) error {
				next := make(map[string]any, len(acc)+1)
				for ak, av := range acc {
					next[ak] = av
				}
				next[key] = v
				return build(idx+1, next)
			})
		})
	}
	return build(0, map[string]any{})
}

// sliceBounds evaluates the optional from/to expressions of a slice. A
// missing endpoint contributes the single value nil.
func (ev *evaluation) sliceBounds(n *types.ASTNode, input any, env *Env) (froms, tos []any, err error) {
	froms = []any{nil}
	if n.From != nil {
		froms, err = ev.collect(n.From, input, env)
		if err != nil {
			return nil, nil, err
		}
	}
	tos = []any{nil}
	if n.To != nil {
		tos, err = ev.collect(n.To, input, env)
		if err != nil {
			return nil, nil, err
		}
	}
	return froms, tos, nil
}

// iterate streams the elements of an array or the values of an object in
// sorted key order. Iterating null yields nothing.
func (ev *evaluation) iterate(v any, span types.Span, emit emitFn) error {
	switch c := v.(type) {
	case []any:
		for _, e := range c {
			if err := ev.tr.step(span); err != nil {
				return err
			}
			if err := emit(e); err != nil {
				return err
			}
		}
		return nil
	case map[string]any:
		for _, k := range values.SortedKeys(c) {
			if err := ev.tr.step(span); err != nil {
				return err
			}
			if err := emit(c[k]); err != nil {
				return err
			}
		}
		return nil
	case nil:
		return nil
	default:
		return types.NewError(types.ErrType,
			fmt.Sprintf("cannot iterate over %s", values.TypeName(v)), span)
	}
}

// recurseAll emits v and every descendant value, depth first, object values
// in sorted key order.
func (ev *evaluation) recurseAll(v any, span types.Span, emit emitFn) error {
	if err := ev.tr.step(span); err != nil {
		return err
	}
	if err := emit(v); err != nil {
		return err
	}
	switch c := v.(type) {
	case []any:
		for _, e := range c {
			if err := ev.recurseAll(e, span, emit); err != nil {
				return err
			}
		}
	case map[string]any:
		for _, k := range values.SortedKeys(c) {
			if err := ev.recurseAll(c[k], span, emit); err != nil {
				return err
			}
		}
	}
	return nil
}

// collect evaluates a node and gathers all its outputs into a slice.
func (ev *evaluation) collect(n *types.ASTNode, input any, env *Env) ([]any, error) {
	var out []any
	err := ev.eval(n, input, env, func(v any) error {
		out = append(out, v)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

// evalOne evaluates a node that must produce exactly one value, such as a
// reduce or foreach update expression.
func (ev *evaluation) evalOne(n *types.ASTNode, input any, env *Env, span types.Span) (any, error) {
	out, err := ev.collect(n, input, env)
	if err != nil {
		return nil, err
	}
	if len(out) != 1 {
		return nil, types.NewError(types.ErrArity,
			fmt.Sprintf("expression must produce exactly one value, got %d", len(out)), span)
	}
	return out[0], nil
}

// evalCall resolves a function call: user definitions shadow builtins at the
// same name and arity. Filter arguments are passed by name, bound as
// zero-arity closures over the call-site environment.
func (ev *evaluation) evalCall(n *types.ASTNode, input any, env *Env, emit emitFn) error {
	if cl, ok := env.lookupFunc(n.Name, len(n.Args)); ok {
		frame := newEnv(cl.env)
		for i, param := range cl.params {
			frame.defineFunc(param, nil, n.Args[i], env)
		}
		return ev.eval(cl.body, input, frame, emit)
	}
	if impl, ok := lookupBuiltin(n.Name, len(n.Args)); ok {
		return impl(ev, &call{node: n, input: input, env: env, emit: emit})
	}
	return types.NewError(types.ErrUnbound,
		fmt.Sprintf("function %s/%d is not defined", n.Name, len(n.Args)), n.Span)
}

// fieldValue implements .name access: objects look the key up, null yields
// null, anything else is a type fault.
func fieldValue(v any, name string, span types.Span) (any, error) {
	switch c := v.(type) {
	case map[string]any:
		return c[name], nil
	case nil:
		return nil, nil
	default:
		return nil, types.NewError(types.ErrType,
			fmt.Sprintf("cannot index %s with %q", values.TypeName(v), name), span)
	}
}

// indexValue implements .[e] access for string keys and numeric indices.
// Negative indices count from the end; out of range yields null.
func indexValue(c, k any, span types.Span) (any, error) {
	switch key := k.(type) {
	case string:
		switch obj := c.(type) {
		case map[string]any:
			return obj[key], nil
		case nil:
			return nil, nil
		default:
			return nil, types.NewError(types.ErrType,
				fmt.Sprintf("cannot index %s with %q", values.TypeName(c), key), span)
		}
	case float64:
		switch arr := c.(type) {
		case []any:
			i, ok := values.IsInt(key)
			if !ok {
				return nil, types.NewError(types.ErrIndex,
					fmt.Sprintf("array index %v is not an integer", key), span)
			}
			if i < 0 {
				i += len(arr)
			}
			if i < 0 || i >= len(arr) {
				return nil, nil
			}
			return arr[i], nil
		case nil:
			return nil, nil
		default:
			return nil, types.NewError(types.ErrType,
				fmt.Sprintf("cannot index %s with number", values.TypeName(c)), span)
		}
	default:
		return nil, types.NewError(types.ErrType,
			fmt.Sprintf("cannot index %s with %s", values.TypeName(c), values.TypeName(k)), span)
	}
}

/// sliceValue implements .[from:to] on arrays and strings. Endpoints must be
// numbers or null; they truncate toward zero, count from the end when
// negative, and clamp to the container bounds. Slicing null yields null.
func sliceValue(c, from, to any, span types.Span) (any, error) {
	start, end, err := sliceRange(from, to, span)
	if err != nil {
		return nil, err
	}
	switch v := c.(type) {
	case []any:
		lo, hi := clampRange(start, end, len(v))
		out := make([]any, hi-lo)
		copy(out, v[lo:hi])
		return out, nil
	case string:
		runes := []rune(v)
		lo, hi := clampRange(start, end, len(runes))
		return string(runes[lo:hi]), nil
	case nil:
		return nil, nil
	default:
		return nil, types.NewError(types.ErrType,
			fmt.Sprintf("cannot slice %s", values.TypeName(c)), span)
	}
}

// sliceRange validates slice endpoints. hasEnd distinguishes "no upper
// bound" from an explicit one.
func sliceRange(from, to any, span types.Span) (start int, end *int, err error) {
	toInt := func(v any) (int, error) {
		f, ok := v.(float64)
		if !ok {
			return 0, types.NewError(types.ErrType,
				fmt.Sprintf("slice endpoint must be a number, got %s", values.TypeName(v)), span)
		}
		return int(f), nil
	}
	if from != nil {
		start, err = toInt(from)
		if err != nil {
			return 0, nil, err
		}
	}
	if to != nil {
		e, err := toInt(to)
		if err != nil {
			return 0, nil, err
		}
		end = &e
	}
	return start, end, nil
}

// clampRange normalizes negative endpoints against length n and clamps the
// pair to a valid, possibly empty, range.
func clampRange(start int, end *int, n int) (int, int) {
	lo := start
	if lo < 0 {
		lo += n
	}
	if lo < 0 {
		lo = 0
	}
	if lo > n {
		lo = n
	}
	hi := n
	if end != nil {
		hi = *end
		if hi < 0 {
			hi += n
		}
	}
	if hi < lo {
		hi = lo
	}
	if hi > n {
		hi = n
	}
	return lo, hi
}
