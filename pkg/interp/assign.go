package interp

import (
	"fmt"

	"github.com/gabrielbryk/jqsand/pkg/types"
	"github.com/gabrielbryk/jqsand/pkg/values"
)

// evalAssign dispatches the assignment family. The left side is resolved to
// paths against the assignment's input; updates then rewrite the input copy
// path by path, deepest path first so earlier array indices stay valid when
// deletions shrink an array.
func (ev *evaluation) evalAssign(n *types.ASTNode, input any, env *Env, emit emitFn) error {
	var paths [][]any
	err := ev.resolvePaths(n.LHS, input, env, func(p []any) error {
		paths = append(paths, p)
		return nil
	})
	if err != nil {
		return err
	}
	sortPathsDescending(paths)

	switch n.Name {
	case "=":
		// Plain assignment fans out over the right side's stream; every
		// addressed location receives the same value.
		return ev.eval(n.RHS, input, env, func(v any) error {
			acc := input
			for _, p := range paths {
				acc, err = updatePath(acc, p, n.Span, func(any, bool) (any, bool, error) {
					return v, true, nil
				})
				if err != nil {
					return err
				}
			}
			return emit(acc)
		})

	case "|=":
		// Update assignment pipes each current value through the right
		// side. Zero outputs delete the location; several outputs fan the
		// whole assignment out into one result per combination.
		return ev.updateAssign(n, input, env, paths, 0, emit)

	case "//=":
		return ev.eval(n.RHS, input, env, func(v any) error {
			acc := input
			for _, p := range paths {
				acc, err = updatePath(acc, p, n.Span, func(old any, _ bool) (any, bool, error) {
					if values.Truthy(old) {
						return old, true, nil
					}
					return v, true, nil
				})
				if err != nil {
					return err
				}
			}
			return emit(acc)
		})

	case "+=", "-=", "*=", "/=", "%=":
		op := n.Name[:1]
		return ev.eval(n.RHS, input, env, func(v any) error {
			acc := input
			for _, p := range paths {
				acc, err = updatePath(acc, p, n.Span, func(old any, _ bool) (any, bool, error) {
					out, err := binaryOp(op, old, v, n.Span)
					return out, true, err
				})
				if err != nil {
					return err
				}
			}
			return emit(acc)
		})
	}

	return types.NewError(types.ErrType,
		fmt.Sprintf("unknown assignment operator %q", n.Name), n.Span)
}

// updateAssign applies |= across paths[idx:], recursing per path so that a
// multi-output right side produces the full product of results.
func (ev *evaluation) updateAssign(n *types.ASTNode, acc any, env *Env, paths [][]any, idx int, emit emitFn) error {
	if idx == len(paths) {
		return emit(acc)
	}
	p := paths[idx]
	old, err := getPath(acc, p)
	if err != nil {
		return err
	}
	outs, err := ev.collect(n.RHS, old, env)
	if err != nil {
		return err
	}
	if len(outs) == 0 {
		next, err := updatePath(acc, p, n.Span, func(any, bool) (any, bool, error) {
			return nil, false, nil
		})
		if err != nil {
			return err
		}
		return ev.updateAssign(n, next, env, paths, idx+1, emit)
	}
	for _, v := range outs {
		next, err := updatePath(acc, p, n.Span, func(any, bool) (any, bool, error) {
			return v, true, nil
		})
		if err != nil {
			return err
		}
		if err := ev.updateAssign(n, next, env, paths, idx+1, emit); err != nil {
			return err
		}
	}
	return nil
}
