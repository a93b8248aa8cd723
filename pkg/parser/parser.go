// Package parser implements the jqsand filter parser.
//
// The parser is a hand-written recursive descent parser with Pratt-style
// precedence climbing. It consists of two components:
//   - Lexer: tokenizes the filter source, tracking string-interpolation state
//   - Parser: builds a span-annotated Abstract Syntax Tree from tokens
//
// There is no error recovery: the first lex or parse error aborts with a
// structured error carrying the offending span.
//
// # Example
//
//	filter, err := parser.Parse(".items[] | select(.price > 100)")
//	if err != nil {
//	    log.Fatal(err)
//	}
//	ast := filter.AST()
package parser

import (
	"github.com/gabrielbryk/jqsand/pkg/types"
)

// Parse parses a filter expression and returns the compiled Filter.
//
// The function tokenizes the input and builds an AST. If parsing fails, it
// returns a *types.Error of kind lex or parse with position information.
func Parse(source string) (*types.Filter, error) {
	p := NewParser(source)
	return p.Parse()
}
