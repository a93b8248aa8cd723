// Package jqsand is a deterministic, sandboxed interpreter for a subset of
// the jq filter language.
//
// A filter maps one JSON-compatible input value to an ordered sequence of
// output values. Evaluation is pure and deterministic: no clock, no
// filesystem, no network, no environment, and object keys are always
// traversed in lexicographic order. A resource tracker bounds evaluation
// steps, nesting depth and output count, so untrusted filters terminate.
//
// # Example
//
//	out, err := jqsand.Run(".users[] | select(.active) | .name", doc)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	for _, v := range out {
//	    fmt.Println(v)
//	}
//
// Compile once and reuse when the same filter is applied to many inputs:
//
//	f, err := jqsand.Compile(".items | length")
//	in := jqsand.New(jqsand.WithLimits(jqsand.Limits{MaxSteps: 50_000}))
//	out, err := in.RunFilter(f, doc)
package jqsand

import (
	"github.com/gabrielbryk/jqsand/pkg/interp"
	"github.com/gabrielbryk/jqsand/pkg/parser"
	"github.com/gabrielbryk/jqsand/pkg/types"
)

// Filter is a compiled, validated filter, safe for concurrent reuse.
type Filter = types.Filter

// Error is the structured error type every stage returns.
type Error = types.Error

// Limits configures the resource caps enforced during evaluation.
type Limits = interp.Limits

// Interp is a configured interpreter; see New.
type Interp = interp.Interp

// Option configures an interpreter.
type Option = interp.Option

// Re-exported options.
var (
	WithVars      = interp.WithVars
	WithLimits    = interp.WithLimits
	WithLogger    = interp.WithLogger
	WithDebug     = interp.WithDebug
	WithCaching   = interp.WithCaching
	WithCacheSize = interp.WithCacheSize
	WithCache     = interp.WithCache
)

// New creates an interpreter with the given options.
func New(opts ...Option) *Interp {
	return interp.New(opts...)
}

// Compile parses and validates a filter without evaluating it.
func Compile(source string) (*Filter, error) {
	f, err := parser.Parse(source)
	if err != nil {
		return nil, err
	}
	if err := interp.Validate(f); err != nil {
		return nil, err
	}
	return f, nil
}

// MustCompile is like Compile but panics on error. It simplifies safe
// initialization of global variables holding compiled filters.
func MustCompile(source string) *Filter {
	f, err := Compile(source)
	if err != nil {
		panic("jqsand: Compile(" + source + "): " + err.Error())
	}
	return f
}

// Run compiles source and evaluates it against input with default options,
// returning the complete output sequence.
func Run(source string, input any, opts ...Option) ([]any, error) {
	return interp.New(opts...).Run(source, input)
}
