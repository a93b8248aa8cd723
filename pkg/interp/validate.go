package interp

import (
	"fmt"

	"github.com/gabrielbryk/jqsand/pkg/types"
)

// forbiddenBuiltins names the operations the sandbox refuses statically:
// everything that would observe time, the process environment, or external
// inputs.
var forbiddenBuiltins = map[string]bool{
	"now":     true,
	"input":   true,
	"inputs":  true,
	"env":     true,
	"import":  true,
	"include": true,
}

// Validate walks a parsed filter and rejects it if any call cannot resolve:
// unknown functions, arity mismatches against the builtin table, or uses of
// forbidden builtins and $ENV. Names bound by def or by formal parameters
// are accepted without arity knowledge, since a formal may be called at any
// arity its body allows.
func Validate(f *types.Filter) error {
	return validateNode(f.AST(), nil)
}

// scope is the set of function names introduced by one def: the function
// itself plus, inside the body, its formals.
type scope map[string]bool

func validateNode(n *types.ASTNode, scopes []scope) error {
	if n == nil {
		return nil
	}

	switch n.Kind {
	case types.NodeVariable:
		if n.Name == "ENV" {
			return types.NewError(types.ErrValidate, "$ENV is not allowed", n.Span)
		}
		return nil

	case types.NodeCall:
		if forbiddenBuiltins[n.Name] {
			return types.NewError(types.ErrValidate,
				fmt.Sprintf("%s is not allowed", n.Name), n.Span)
		}
		if !nameInScope(n.Name, scopes) {
			if _, ok := lookupBuiltin(n.Name, len(n.Args)); !ok {
				if builtinExists(n.Name) {
					return types.NewError(types.ErrValidate,
						fmt.Sprintf("wrong number of arguments for %s/%d", n.Name, len(n.Args)), n.Span)
				}
				return types.NewError(types.ErrValidate,
					fmt.Sprintf("function %s/%d is not defined", n.Name, len(n.Args)), n.Span)
			}
		}
		for _, arg := range n.Args {
			if err := validateNode(arg, scopes); err != nil {
				return err
			}
		}
		return nil

	case types.NodeFuncDef:
		bodyScope := scope{n.Name: true}
		for _, p := range n.Params {
			bodyScope[p] = true
		}
		if err := validateNode(n.Body, append(scopes, bodyScope)); err != nil {
			return err
		}
		return validateNode(n.Rest, append(scopes, scope{n.Name: true}))
	}

	for _, child := range childNodes(n) {
		if err := validateNode(child, scopes); err != nil {
			return err
		}
	}
	return nil
}

func nameInScope(name string, scopes []scope) bool {
	for i := len(scopes) - 1; i >= 0; i-- {
		if scopes[i][name] {
			return true
		}
	}
	return false
}

// childNodes lists every child of a node, in source order.
func childNodes(n *types.ASTNode) []*types.ASTNode {
	out := make([]*types.ASTNode, 0, 4)
	add := func(c *types.ASTNode) {
		if c != nil {
			out = append(out, c)
		}
	}
	add(n.Target)
	add(n.Key)
	add(n.From)
	add(n.To)
	add(n.LHS)
	add(n.RHS)
	add(n.Cond)
	add(n.Then)
	add(n.Else)
	add(n.Source)
	add(n.Init)
	add(n.Update)
	add(n.Extract)
	add(n.Body)
	add(n.Handler)
	add(n.Rest)
	add(n.Items)
	for _, e := range n.Entries {
		add(e.Key)
		add(e.Value)
	}
	for _, a := range n.Args {
		add(a)
	}
	return out
}
