package interp

import (
	"fmt"

	"github.com/gabrielbryk/jqsand/pkg/types"
)

// Default resource caps. Conservative enough to stop runaway filters well
// before they hurt the embedding process.
const (
	DefaultMaxSteps   = 100_000
	DefaultMaxDepth   = 200
	DefaultMaxOutputs = 10_000
)

// Limits configures the three resource caps enforced during evaluation.
// Zero fields take the defaults.
type Limits struct {
	MaxSteps   int // AST nodes entered plus loop iterations in builtins
	MaxDepth   int // evaluation nesting depth
	MaxOutputs int // values emitted to the output sequence
}

func (l Limits) withDefaults() Limits {
	if l.MaxSteps <= 0 {
		l.MaxSteps = DefaultMaxSteps
	}
	if l.MaxDepth <= 0 {
		l.MaxDepth = DefaultMaxDepth
	}
	if l.MaxOutputs <= 0 {
		l.MaxOutputs = DefaultMaxOutputs
	}
	return l
}

// tracker counts steps, depth and outputs against their caps. Exceeding any
// cap raises a resource fault, which try/catch never intercepts.
type tracker struct {
	limits  Limits
	steps   int
	depth   int
	outputs int
}

func newTracker(limits Limits) *tracker {
	return &tracker{limits: limits.withDefaults()}
}

// step accounts for one unit of work: an AST node entered, or one iteration
// of a loop-like builtin.
func (t *tracker) step(span types.Span) error {
	t.steps++
	if t.steps > t.limits.MaxSteps {
		return t.fault("step", t.limits.MaxSteps, span)
	}
	return nil
}

// enter accounts for entering an AST node: one step plus one depth level.
// Every successful enter must be paired with exit.
func (t *tracker) enter(span types.Span) error {
	if err := t.step(span); err != nil {
		return err
	}
	t.depth++
	if t.depth > t.limits.MaxDepth {
		return t.fault("depth", t.limits.MaxDepth, span)
	}
	return nil
}

func (t *tracker) exit() {
	t.depth--
}

// emitOutput accounts for one value emitted to the caller-visible sequence.
func (t *tracker) emitOutput(span types.Span) error {
	t.outputs++
	if t.outputs > t.limits.MaxOutputs {
		return t.fault("output", t.limits.MaxOutputs, span)
	}
	return nil
}

func (t *tracker) fault(counter string, cap int, span types.Span) error {
	return types.NewError(types.ErrResource,
		fmt.Sprintf("%s limit exceeded (%d)", counter, cap), span)
}
