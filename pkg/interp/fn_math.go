package interp

import (
	"fmt"
	"math"

	"github.com/gabrielbryk/jqsand/pkg/types"
	"github.com/gabrielbryk/jqsand/pkg/values"
)

func math1(f func(float64) float64) builtinImpl {
	return func(ev *evaluation, c *call) error {
		x, err := numberInput(c)
		if err != nil {
			return err
		}
		return c.emit(f(x))
	}
}

var (
	fnFloor = math1(math.Floor)
	fnCeil  = math1(math.Ceil)
	fnRound = math1(math.Round)
	fnFabs  = math1(math.Abs)
	fnSqrt  = math1(math.Sqrt)
	fnLog   = math1(math.Log)
	fnLog2  = math1(math.Log2)
	fnLog10 = math1(math.Log10)
	fnExp   = math1(math.Exp)
	fnExp2  = math1(math.Exp2)
	fnExp10 = math1(func(x float64) float64 { return math.Pow(10, x) })
)

// fnPow: pow(x; y) raises each x to each y.
func fnPow(ev *evaluation, c *call) error {
	return ev.evalArg(c, 0, c.input, func(xv any) error {
		x, ok := xv.(float64)
		if !ok {
			return types.NewError(types.ErrType,
				fmt.Sprintf("pow base must be a number, got %s", values.TypeName(xv)), c.span())
		}
		return ev.evalArg(c, 1, c.input, func(yv any) error {
			y, ok := yv.(float64)
			if !ok {
				return types.NewError(types.ErrType,
					fmt.Sprintf("pow exponent must be a number, got %s", values.TypeName(yv)), c.span())
			}
			return c.emit(math.Pow(x, y))
		})
	})
}
