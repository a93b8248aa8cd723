// Package interp evaluates compiled filters against JSON-compatible values.
//
// The evaluator is a tree-walking interpreter with lazy, deterministic
// stream semantics: every filter maps one input value to an ordered
// sequence of output values. Evaluation is sandboxed: a validator rejects
// filters that reach for the clock, the process environment or external
// inputs, and a resource tracker bounds steps, nesting depth and output
// count so hostile filters terminate.
//
// # Example
//
//	in := interp.New(interp.WithLimits(interp.Limits{MaxSteps: 50_000}))
//	out, err := in.Run(".items[] | select(.price > 100) | .name", doc)
package interp

import (
	"log/slog"

	"github.com/gabrielbryk/jqsand/pkg/cache"
	"github.com/gabrielbryk/jqsand/pkg/parser"
	"github.com/gabrielbryk/jqsand/pkg/types"
	"github.com/gabrielbryk/jqsand/pkg/values"
)

// Interp holds evaluation configuration shared across runs: global
// variables, resource limits and an optional compile cache. An Interp is
// safe for concurrent use; each run gets its own tracker and environment.
type Interp struct {
	vars   map[string]any
	limits Limits
	logger *slog.Logger
	debug  bool
	cache  *cache.Cache
}

// Option configures an Interp.
type Option func(*Interp)

// WithVars provides global variables, visible in filters as $name. Values
// are normalized on each run.
func WithVars(vars map[string]any) Option {
	return func(in *Interp) {
		in.vars = vars
	}
}

// WithLimits overrides the resource caps. Zero fields keep their defaults.
func WithLimits(l Limits) Option {
	return func(in *Interp) {
		in.limits = l
	}
}

// WithLogger sets the structured logger used for debug output.
func WithLogger(l *slog.Logger) Option {
	return func(in *Interp) {
		if l != nil {
			in.logger = l
		}
	}
}

// WithDebug enables debug logging of compiles and runs.
func WithDebug(enabled bool) Option {
	return func(in *Interp) {
		in.debug = enabled
	}
}

// WithCaching enables an LRU cache of compiled filters with the default
// capacity.
func WithCaching(enabled bool) Option {
	return func(in *Interp) {
		if enabled && in.cache == nil {
			in.cache = cache.New(0)
		}
		if !enabled {
			in.cache = nil
		}
	}
}

// WithCacheSize enables caching with an explicit capacity.
func WithCacheSize(capacity int) Option {
	return func(in *Interp) {
		in.cache = cache.New(capacity)
	}
}

// WithCache installs a caller-managed cache, shared between interpreters.
func WithCache(c *cache.Cache) Option {
	return func(in *Interp) {
		in.cache = c
	}
}

// New creates an interpreter with the given options.
func New(opts ...Option) *Interp {
	in := &Interp{
		logger: slog.Default(),
	}
	for _, opt := range opts {
		opt(in)
	}
	return in
}

// Compile parses and validates a filter. With caching enabled, repeated
// compiles of the same source return the cached filter.
func (in *Interp) Compile(source string) (*types.Filter, error) {
	if in.cache != nil {
		return in.cache.GetOrCompile(source, func() (*types.Filter, error) {
			return in.compile(source)
		})
	}
	return in.compile(source)
}

func (in *Interp) compile(source string) (*types.Filter, error) {
	f, err := parser.Parse(source)
	if err != nil {
		return nil, err
	}
	if err := Validate(f); err != nil {
		return nil, err
	}
	if in.debug {
		in.logger.Debug("compiled filter", "source", source)
	}
	return f, nil
}

// Run compiles and evaluates a filter, returning the complete output
// sequence.
func (in *Interp) Run(source string, input any) ([]any, error) {
	f, err := in.Compile(source)
	if err != nil {
		return nil, err
	}
	return in.RunFilter(f, input)
}

// RunFilter evaluates a compiled filter against one input value. The input
// and all globals are normalized first; outputs are collected in order. On
// a fault the outputs produced so far are discarded and the fault returned.
func (in *Interp) RunFilter(f *types.Filter, input any) ([]any, error) {
	norm, err := values.Normalize(input)
	if err != nil {
		return nil, err
	}
	root := newEnv(nil)
	for name, v := range in.vars {
		nv, err := values.Normalize(v)
		if err != nil {
			return nil, err
		}
		root.bindVar(name, nv)
	}

	ev := &evaluation{tr: newTracker(in.limits)}
	ast := f.AST()
	out := []any{}
	err = ev.eval(ast, norm, root, func(v any) error {
		if err := ev.tr.emitOutput(ast.Span); err != nil {
			return err
		}
		out = append(out, v)
		return nil
	})
	if err != nil {
		if bs, ok := err.(*breakSignal); ok {
			err = types.NewError(types.ErrUnbound,
				"break with no matching label $*label-"+bs.label, ast.Span)
		}
		return nil, err
	}
	if in.debug {
		in.logger.Debug("evaluated filter",
			"source", f.Source(),
			"outputs", len(out),
			"steps", ev.tr.steps)
	}
	return out, nil
}
