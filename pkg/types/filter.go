// Package types defines the core type system shared by the jqsand parser and
// interpreter:
//   - Filter: a compiled filter ready for repeated evaluation
//   - ASTNode: Abstract Syntax Tree nodes
//   - Span: half-open byte ranges used in diagnostics
//   - Error: structured errors with a kind and a span
package types

// Filter represents a compiled jq filter.
//
// A Filter can be evaluated any number of times against different inputs by
// passing it to the interpreter. It is immutable after compilation and safe
// for concurrent use by multiple goroutines.
type Filter struct {
	ast    *ASTNode
	source string
}

// NewFilter creates a compiled Filter from a root AST node.
func NewFilter(ast *ASTNode, source string) *Filter {
	return &Filter{
		ast:    ast,
		source: source,
	}
}

// AST returns the root node of the filter.
func (f *Filter) AST() *ASTNode {
	return f.ast
}

// Source returns the original filter source text.
func (f *Filter) Source() string {
	return f.source
}

// String returns the filter source.
func (f *Filter) String() string {
	return f.source
}
