package types

// NodeKind identifies the kind of an AST node.
type NodeKind uint8

// AST node kinds produced by the parser.
const (
	NodeIdentity    NodeKind = iota // .
	NodeLiteral                     // null, true, 3.14, "text"
	NodeVariable                    // $name
	NodeField                       // target.name
	NodeIndex                       // target[key]
	NodeSlice                       // target[from:to]
	NodeIterate                     // target[]
	NodeArray                       // [items]
	NodeObject                      // {entries}
	NodePipe                        // lhs | rhs
	NodeComma                       // lhs , rhs
	NodeAlternative                 // lhs // rhs
	NodeUnary                       // -expr, not expr
	NodeBinary                      // + - * / % == != < <= > >=
	NodeBoolean                     // and, or (short-circuiting)
	NodeIf                          // if cond then t elif ... else e end
	NodeBind                        // source as $name | body
	NodeCall                        // name(arg; arg)
	NodeFuncDef                     // def name(params): body; rest
	NodeLabel                       // label $name | body
	NodeBreak                       // break $name
	NodeReduce                      // reduce source as $name (init; update)
	NodeForeach                     // foreach source as $name (init; update; extract)
	NodeTry                         // try body catch handler, expr?
	NodeRecurse                     // ..
	NodeAssign                      // lhs = rhs, lhs |= rhs, lhs op= rhs
)

// String returns a short name for the node kind, used in diagnostics.
func (k NodeKind) String() string {
	switch k {
	case NodeIdentity:
		return "identity"
	case NodeLiteral:
		return "literal"
	case NodeVariable:
		return "variable"
	case NodeField:
		return "field"
	case NodeIndex:
		return "index"
	case NodeSlice:
		return "slice"
	case NodeIterate:
		return "iterate"
	case NodeArray:
		return "array"
	case NodeObject:
		return "object"
	case NodePipe:
		return "pipe"
	case NodeComma:
		return "comma"
	case NodeAlternative:
		return "alternative"
	case NodeUnary:
		return "unary"
	case NodeBinary:
		return "binary"
	case NodeBoolean:
		return "boolean"
	case NodeIf:
		return "if"
	case NodeBind:
		return "bind"
	case NodeCall:
		return "call"
	case NodeFuncDef:
		return "funcdef"
	case NodeLabel:
		return "label"
	case NodeBreak:
		return "break"
	case NodeReduce:
		return "reduce"
	case NodeForeach:
		return "foreach"
	case NodeTry:
		return "try"
	case NodeRecurse:
		return "recurse"
	case NodeAssign:
		return "assign"
	default:
		return "unknown"
	}
}

// ObjectEntry is a single key/value pair inside an object construction.
// Key is an expression: a string literal for plain keys, or an arbitrary
// expression for parenthesised computed keys (which may fan out).
type ObjectEntry struct {
	Key   *ASTNode
	Value *ASTNode
}

// ASTNode represents a node in the Abstract Syntax Tree.
//
// A single struct covers all node kinds; the fields used depend on Kind:
//
//	NodeLiteral      Literal
//	NodeVariable     Name
//	NodeField        Target, Name
//	NodeIndex        Target, Key
//	NodeSlice        Target, From, To (nil endpoints when omitted)
//	NodeIterate      Target
//	NodeArray        Items (nil for [])
//	NodeObject       Entries
//	NodePipe, NodeComma, NodeAlternative, NodeBinary, NodeBoolean, NodeAssign
//	                 Name (operator), LHS, RHS
//	NodeUnary        Name (operator), LHS
//	NodeIf           Cond, Then, Else (nil Else emits the input unchanged)
//	NodeBind         Source, Name, Body
//	NodeCall         Name, Args
//	NodeFuncDef      Name, Params, Body, Rest
//	NodeLabel        Name, Body
//	NodeBreak        Name
//	NodeReduce       Source, Name, Init, Update
//	NodeForeach      Source, Name, Init, Update, Extract (nil Extract emits
//	                 the accumulator)
//	NodeTry          Body, Handler (nil Handler suppresses the error)
type ASTNode struct {
	Kind NodeKind
	Span Span

	Literal any    // literal constant (nil, bool, float64 or string)
	Name    string // identifier payload or operator text

	Target *ASTNode
	Key    *ASTNode
	From   *ASTNode
	To     *ASTNode

	LHS *ASTNode
	RHS *ASTNode

	Cond *ASTNode
	Then *ASTNode
	Else *ASTNode

	Source  *ASTNode
	Init    *ASTNode
	Update  *ASTNode
	Extract *ASTNode

	Body    *ASTNode
	Handler *ASTNode
	Rest    *ASTNode

	Args    []*ASTNode
	Items   *ASTNode // array construction body; nil for []
	Entries []ObjectEntry
	Params  []string
}

// NewASTNode creates a new AST node of the specified kind.
func NewASTNode(kind NodeKind, span Span) *ASTNode {
	return &ASTNode{
		Kind: kind,
		Span: span,
	}
}

// String returns a string representation of the node kind.
func (n *ASTNode) String() string {
	return n.Kind.String()
}
