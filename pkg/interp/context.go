package interp

import "github.com/gabrielbryk/jqsand/pkg/types"

// funcKey identifies a function by name and arity; f/0 and f/1 coexist.
type funcKey struct {
	name  string
	arity int
}

// closure is a user-defined function: its formal parameter names, its body,
// and the environment captured at definition time. For functions introduced
// by def the captured environment includes the frame holding the definition
// itself, which is what makes recursion work without a fix-point construct.
type closure struct {
	params []string
	body   *types.ASTNode
	env    *Env
}

// Env is one frame of the environment stack: variable bindings, function
// definitions, and a parent pointer. Frames are immutable once evaluation
// moves past them; "popping" is simply dropping the child pointer, so frames
// can be shared by any number of closures.
type Env struct {
	parent *Env
	vars   map[string]any
	funcs  map[funcKey]*closure
}

// newEnv creates a child frame of parent.
func newEnv(parent *Env) *Env {
	return &Env{parent: parent}
}

// bindVar binds a variable in this frame.
func (e *Env) bindVar(name string, value any) {
	if e.vars == nil {
		e.vars = make(map[string]any, 1)
	}
	e.vars[name] = value
}

// lookupVar resolves a variable, walking from this frame to the root.
func (e *Env) lookupVar(name string) (any, bool) {
	for f := e; f != nil; f = f.parent {
		if v, ok := f.vars[name]; ok {
			return v, true
		}
	}
	return nil, false
}

// defineFunc registers a function in this frame. env is the closure
// environment: the defining frame for def, the call site for formals.
func (e *Env) defineFunc(name string, params []string, body *types.ASTNode, env *Env) {
	if e.funcs == nil {
		e.funcs = make(map[funcKey]*closure, 1)
	}
	e.funcs[funcKey{name: name, arity: len(params)}] = &closure{
		params: params,
		body:   body,
		env:    env,
	}
}

// lookupFunc resolves a function by name and arity, walking from this frame
// to the root.
func (e *Env) lookupFunc(name string, arity int) (*closure, bool) {
	key := funcKey{name: name, arity: arity}
	for f := e; f != nil; f = f.parent {
		if c, ok := f.funcs[key]; ok {
			return c, true
		}
	}
	return nil, false
}
