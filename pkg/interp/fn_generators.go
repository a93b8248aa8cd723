package interp

import (
	"fmt"

	"github.com/gabrielbryk/jqsand/pkg/types"
	"github.com/gabrielbryk/jqsand/pkg/values"
)

func fnRange1(ev *evaluation, c *call) error {
	return ev.rangeOver(c, nil, c.arg(0), nil)
}

func fnRange2(ev *evaluation, c *call) error {
	return ev.rangeOver(c, c.arg(0), c.arg(1), nil)
}

func fnRange3(ev *evaluation, c *call) error {
	return ev.rangeOver(c, c.arg(0), c.arg(1), c.arg(2))
}

// rangeOver streams arithmetic sequences, one per combination of the from,
// to and step argument streams. A zero step is a fault; it would never
// terminate.
func (ev *evaluation) rangeOver(c *call, fromN, toN, stepN *types.ASTNode) error {
	number := func(v any, what string) (float64, error) {
		f, ok := v.(float64)
		if !ok {
			return 0, types.NewError(types.ErrType,
				fmt.Sprintf("range %s must be a number, got %s", what, values.TypeName(v)), c.span())
		}
		return f, nil
	}
	froms := []any{float64(0)}
	if fromN != nil {
		var err error
		froms, err = ev.collect(fromN, c.input, c.env)
		if err != nil {
			return err
		}
	}
	tos, err := ev.collect(toN, c.input, c.env)
	if err != nil {
		return err
	}
	steps := []any{float64(1)}
	if stepN != nil {
		steps, err = ev.collect(stepN, c.input, c.env)
		if err != nil {
			return err
		}
	}
	for _, fv := range froms {
		from, err := number(fv, "start")
		if err != nil {
			return err
		}
		for _, tv := range tos {
			to, err := number(tv, "end")
			if err != nil {
				return err
			}
			for _, sv := range steps {
				step, err := number(sv, "step")
				if err != nil {
					return err
				}
				if step == 0 {
					return types.NewError(types.ErrArith, "range step cannot be zero", c.span())
				}
				for x := from; (step > 0 && x < to) || (step < 0 && x > to); x += step {
					if err := ev.tr.step(c.span()); err != nil {
						return err
					}
					if err := c.emit(x); err != nil {
						return err
					}
				}
			}
		}
	}
	return nil
}

// fnLimit emits at most n values of its second argument. The producer is
// stopped early, so limit(3; repeat(1)) terminates.
func fnLimit(ev *evaluation, c *call) error {
	n, err := ev.argOne(c, 0)
	if err != nil {
		return err
	}
	f, ok := n.(float64)
	if !ok {
		return types.NewError(types.ErrType,
			fmt.Sprintf("limit count must be a number, got %s", values.TypeName(n)), c.span())
	}
	count := int(f)
	if count <= 0 {
		return nil
	}
	seen := 0
	err = ev.evalArg(c, 1, c.input, func(v any) error {
		if err := c.emit(v); err != nil {
			return err
		}
		seen++
		if seen >= count {
			return errTruncated{}
		}
		return nil
	})
	if _, ok := err.(errTruncated); ok {
		return nil
	}
	return err
}

func fnFirst(ev *evaluation, c *call) error {
	v, found, err := ev.firstOf(c, 0, c.input)
	if err != nil {
		return err
	}
	if !found {
		return nil
	}
	return c.emit(v)
}

// fnFirst0: first element of an array.
func fnFirst0(ev *evaluation, c *call) error {
	arr, err := arrayInput(c)
	if err != nil {
		return err
	}
	if len(arr) == 0 {
		return nil
	}
	return c.emit(arr[0])
}

func fnLast(ev *evaluation, c *call) error {
	var last any
	found := false
	err := ev.evalArg(c, 0, c.input, func(v any) error {
		last = v
		found = true
		return nil
	})
	if err != nil {
		return err
	}
	if !found {
		return nil
	}
	return c.emit(last)
}

func fnLast0(ev *evaluation, c *call) error {
	arr, err := arrayInput(c)
	if err != nil {
		return err
	}
	if len(arr) == 0 {
		return nil
	}
	return c.emit(arr[len(arr)-1])
}

// fnNth emits the n-th (zero-based) output of its second argument.
func fnNth(ev *evaluation, c *call) error {
	n, err := ev.argOne(c, 0)
	if err != nil {
		return err
	}
	f, ok := n.(float64)
	if !ok || f < 0 {
		return types.NewError(types.ErrType, "nth index must be a non-negative number", c.span())
	}
	want := int(f)
	seen := 0
	err = ev.evalArg(c, 1, c.input, func(v any) error {
		if seen == want {
			if err := c.emit(v); err != nil {
				return err
			}
			return errTruncated{}
		}
		seen++
		return nil
	})
	if _, ok := err.(errTruncated); ok {
		return nil
	}
	return err
}

// fnNth1: the n-th element of an array.
func fnNth1(ev *evaluation, c *call) error {
	arr, err := arrayInput(c)
	if err != nil {
		return err
	}
	return ev.evalArg(c, 0, c.input, func(n any) error {
		f, ok := n.(float64)
		if !ok {
			return types.NewError(types.ErrType, "nth index must be a number", c.span())
		}
		i, ok := values.IsInt(f)
		if !ok || i < 0 || i >= len(arr) {
			return c.emit(nil)
		}
		return c.emit(arr[i])
	})
}

func fnIsEmpty(ev *evaluation, c *call) error {
	_, found, err := ev.firstOf(c, 0, c.input)
	if err != nil {
		return err
	}
	return c.emit(!found)
}

// fnAll1: true unless the condition produces a falsy output for some
// element.
func fnAll1(ev *evaluation, c *call) error {
	all := true
	err := ev.iterate(c.input, c.span(), func(e any) error {
		return ev.evalArg(c, 0, e, func(v any) error {
			if !values.Truthy(v) {
				all = false
				return errTruncated{}
			}
			return nil
		})
	})
	if _, ok := err.(errTruncated); err != nil && !ok {
		return err
	}
	return c.emit(all)
}

func fnAny1(ev *evaluation, c *call) error {
	anyTrue := false
	err := ev.iterate(c.input, c.span(), func(e any) error {
		return ev.evalArg(c, 0, e, func(v any) error {
			if values.Truthy(v) {
				anyTrue = true
				return errTruncated{}
			}
			return nil
		})
	})
	if _, ok := err.(errTruncated); err != nil && !ok {
		return err
	}
	return c.emit(anyTrue)
}

func fnAll0(ev *evaluation, c *call) error {
	all := true
	err := ev.iterate(c.input, c.span(), func(e any) error {
		if !values.Truthy(e) {
			all = false
			return errTruncated{}
		}
		return nil
	})
	if _, ok := err.(errTruncated); err != nil && !ok {
		return err
	}
	return c.emit(all)
}

func fnAny0(ev *evaluation, c *call) error {
	anyTrue := false
	err := ev.iterate(c.input, c.span(), func(e any) error {
		if values.Truthy(e) {
			anyTrue = true
			return errTruncated{}
		}
		return nil
	})
	if _, ok := err.(errTruncated); err != nil && !ok {
		return err
	}
	return c.emit(anyTrue)
}

func fnRecurse0(ev *evaluation, c *call) error {
	return ev.recurseAll(c.input, c.span(), c.emit)
}

// fnRecurse1 emits the input, then recursively every output of f applied to
// already-emitted values, depth first.
func fnRecurse1(ev *evaluation, c *call) error {
	var walk func(v any) error
	walk = func(v any) error {
		if err := ev.tr.step(c.span()); err != nil {
			return err
		}
		if err := c.emit(v); err != nil {
			return err
		}
		return ev.evalArg(c, 0, v, walk)
	}
	return walk(c.input)
}

// fnWhile emits the input and keeps applying update while the condition
// holds.
func fnWhile(ev *evaluation, c *call) error {
	var loop func(v any) error
	loop = func(v any) error {
		if err := ev.tr.step(c.span()); err != nil {
			return err
		}
		return ev.evalArg(c, 0, v, func(cond any) error {
			if !values.Truthy(cond) {
				return nil
			}
			if err := c.emit(v); err != nil {
				return err
			}
			return ev.evalArg(c, 1, v, loop)
		})
	}
	return loop(c.input)
}

// fnUntil applies update until the condition holds, emitting only the final
// value.
func fnUntil(ev *evaluation, c *call) error {
	var loop func(v any) error
	loop = func(v any) error {
		if err := ev.tr.step(c.span()); err != nil {
			return err
		}
		return ev.evalArg(c, 0, v, func(cond any) error {
			if values.Truthy(cond) {
				return c.emit(v)
			}
			return ev.evalArg(c, 1, v, loop)
		})
	}
	return loop(c.input)
}

// fnRepeat emits f, f|f, f|f|f, ... indefinitely; the resource caps or a
// surrounding limit stop it.
func fnRepeat(ev *evaluation, c *call) error {
	var loop func(v any) error
	loop = func(v any) error {
		if err := ev.tr.step(c.span()); err != nil {
			return err
		}
		return ev.evalArg(c, 0, v, func(next any) error {
			if err := c.emit(next); err != nil {
				return err
			}
			return loop(next)
		})
	}
	return loop(c.input)
}
