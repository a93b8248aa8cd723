package parser

import (
	"fmt"
	"strconv"

	"github.com/gabrielbryk/jqsand/pkg/types"
)

// Parser implements a recursive descent parser for jq filters.
// Operator precedence is handled with Pratt's "Top Down Operator Precedence"
// algorithm; postfix chains, `as` bindings and `def` are handled at the term
// level to match jq's grammar.
type Parser struct {
	lexer   *Lexer
	current Token
	prev    Token
}

// NewParser creates a new parser for the given input string.
func NewParser(input string) *Parser {
	p := &Parser{
		lexer: NewLexer(input),
	}

	// Read the first token
	p.advance()

	return p
}

// Parse parses the entire filter and returns the compiled Filter.
func (p *Parser) Parse() (*types.Filter, error) {
	if p.current.Type == TokenError {
		return nil, p.lexer.Error()
	}

	if p.current.Type == TokenEOF {
		return nil, p.error("empty filter")
	}

	node, err := p.parseExpression(0)
	if err != nil {
		return nil, err
	}

	if p.current.Type != TokenEOF {
		if p.current.Type == TokenError {
			return nil, p.lexer.Error()
		}
		return nil, p.error(fmt.Sprintf("unexpected token %s", p.current.Type))
	}

	return types.NewFilter(node, p.lexer.input), nil
}

// Operator precedence table (binding power).
// Higher values bind more tightly.
const (
	precPipe    = 10  // |
	precComma   = 20  // ,
	precAssign  = 30  // = |= += -= *= /= %= //=
	precAlt     = 40  // //
	precOr      = 50  // or
	precAnd     = 60  // and
	precCompare = 70  // == != < <= > >=
	precAdd     = 80  // + -
	precMul     = 90  // * / %
	precUnary   = 100 // -x, not x
)

var precedence = map[TokenType]int{
	TokenPipe:          precPipe,
	TokenComma:         precComma,
	TokenAssign:        precAssign,
	TokenUpdateAssign:  precAssign,
	TokenPlusAssign:    precAssign,
	TokenMinusAssign:   precAssign,
	TokenStarAssign:    precAssign,
	TokenSlashAssign:   precAssign,
	TokenPercentAssign: precAssign,
	TokenAltAssign:     precAssign,
	TokenAlt:           precAlt,
	TokenOr:            precOr,
	TokenAnd:           precAnd,
	TokenEq:            precCompare,
	TokenNotEq:         precCompare,
	TokenLess:          precCompare,
	TokenLessEq:        precCompare,
	TokenGreater:       precCompare,
	TokenGreaterEq:     precCompare,
	TokenPlus:          precAdd,
	TokenMinus:         precAdd,
	TokenStar:          precMul,
	TokenSlash:         precMul,
	TokenPercent:       precMul,
}

// getPrecedence returns the precedence of a token type, or 0.
func (p *Parser) getPrecedence(tt TokenType) int {
	return precedence[tt]
}

// advance moves to the next token.
func (p *Parser) advance() {
	p.prev = p.current
	p.current = p.lexer.Next()
}

// expect checks that the current token matches the expected type and advances.
func (p *Parser) expect(tt TokenType) error {
	if p.current.Type != tt {
		return p.error(fmt.Sprintf("expected %s but got %s", tt, p.current.Type))
	}
	p.advance()
	return nil
}

// error creates a parser error at the current token. A pending lexer error
// takes priority: the malformed character is the real cause.
func (p *Parser) error(message string) error {
	if err := p.lexer.Error(); err != nil {
		return err
	}
	return types.NewError(types.ErrParse, message, p.current.Span).WithToken(p.current.Value)
}

// parseExpression parses an expression with operator precedence.
// rbp is the right binding power (minimum precedence of operators to absorb).
func (p *Parser) parseExpression(rbp int) (*types.ASTNode, error) {
	left, err := p.parseTerm(rbp)
	if err != nil {
		return nil, err
	}

	for rbp < p.getPrecedence(p.current.Type) {
		left, err = p.parseInfix(left)
		if err != nil {
			return nil, err
		}
	}

	return left, nil
}

// parseTerm parses a primary expression, its postfix chain (.field, [...],
// ?) and an optional trailing `as $name | body` binding. rbp is forwarded so
// that a `def` prelude can parse its rest-of-program in the caller's context.
func (p *Parser) parseTerm(rbp int) (*types.ASTNode, error) {
	left, err := p.parsePrimary(rbp)
	if err != nil {
		return nil, err
	}

	left, err = p.parsePostfix(left)
	if err != nil {
		return nil, err
	}

	// `as` binds at the term level: `.a + 1 as $x | f` binds $x to 1.
	if p.current.Type == TokenAs {
		return p.parseBind(left)
	}

	return left, nil
}

// parsePrimary parses an expression that does not require a left-hand side.
func (p *Parser) parsePrimary(rbp int) (*types.ASTNode, error) {
	token := p.current

	switch token.Type {
	case TokenNumber:
		return p.parseNumber()
	case TokenString:
		node := types.NewASTNode(types.NodeLiteral, token.Span)
		node.Literal = token.Value
		p.advance()
		return node, nil
	case TokenStringStart:
		return p.parseInterpolation()
	case TokenTrue, TokenFalse:
		node := types.NewASTNode(types.NodeLiteral, token.Span)
		node.Literal = token.Type == TokenTrue
		p.advance()
		return node, nil
	case TokenNull:
		node := types.NewASTNode(types.NodeLiteral, token.Span)
		p.advance()
		return node, nil
	case TokenIdent:
		return p.parseCall()
	case TokenVariable:
		node := types.NewASTNode(types.NodeVariable, token.Span)
		node.Name = token.Value
		p.advance()
		return node, nil
	case TokenDot:
		return p.parseLeadingDot()
	case TokenDotDot:
		p.advance()
		return types.NewASTNode(types.NodeRecurse, token.Span), nil
	case TokenMinus:
		p.advance()
		operand, err := p.parseExpression(precUnary)
		if err != nil {
			return nil, err
		}
		node := types.NewASTNode(types.NodeUnary, token.Span.Extend(p.prev.Span))
		node.Name = "-"
		node.LHS = operand
		return node, nil
	case TokenNot:
		return p.parseNot()
	case TokenLParen:
		p.advance()
		inner, err := p.parseExpression(0)
		if err != nil {
			return nil, err
		}
		if err := p.expect(TokenRParen); err != nil {
			return nil, err
		}
		return inner, nil
	case TokenLBracket:
		return p.parseArray()
	case TokenLBrace:
		return p.parseObject()
	case TokenIf:
		return p.parseIf()
	case TokenReduce:
		return p.parseReduce()
	case TokenForeach:
		return p.parseForeach()
	case TokenTry:
		return p.parseTry()
	case TokenLabel:
		return p.parseLabel()
	case TokenBreak:
		return p.parseBreak()
	case TokenDef:
		return p.parseFuncDef(rbp)
	case TokenError:
		return nil, p.lexer.Error()
	default:
		return nil, p.error(fmt.Sprintf("unexpected token %s", token.Type))
	}
}

// parseInfix parses an infix operator expression with left already parsed.
func (p *Parser) parseInfix(left *types.ASTNode) (*types.ASTNode, error) {
	token := p.current

	switch token.Type {
	case TokenPipe:
		return p.parseBinaryLike(types.NodePipe, "|", left, precPipe)
	case TokenComma:
		return p.parseBinaryLike(types.NodeComma, ",", left, precComma)
	case TokenAlt:
		return p.parseBinaryLike(types.NodeAlternative, "//", left, precAlt)
	case TokenOr:
		return p.parseBinaryLike(types.NodeBoolean, "or", left, precOr)
	case TokenAnd:
		return p.parseBinaryLike(types.NodeBoolean, "and", left, precAnd)
	case TokenEq, TokenNotEq, TokenLess, TokenLessEq, TokenGreater, TokenGreaterEq,
		TokenPlus, TokenMinus, TokenStar, TokenSlash, TokenPercent:
		op := token.Type.String()
		prec := p.getPrecedence(token.Type)
		return p.parseBinaryLike(types.NodeBinary, op, left, prec)
	case TokenAssign, TokenUpdateAssign, TokenPlusAssign, TokenMinusAssign,
		TokenStarAssign, TokenSlashAssign, TokenPercentAssign, TokenAltAssign:
		// Right-associative: a += b += c is a += (b += c).
		return p.parseBinaryLike(types.NodeAssign, token.Type.String(), left, precAssign-1)
	default:
		return nil, p.error(fmt.Sprintf("unexpected infix token %s", token.Type))
	}
}

// parseBinaryLike parses the right-hand side of any two-operand node.
func (p *Parser) parseBinaryLike(kind types.NodeKind, op string, left *types.ASTNode, rbp int) (*types.ASTNode, error) {
	span := p.current.Span
	p.advance()

	right, err := p.parseExpression(rbp)
	if err != nil {
		return nil, err
	}

	node := types.NewASTNode(kind, left.Span.Extend(span).Extend(right.Span))
	node.Name = op
	node.LHS = left
	node.RHS = right
	return node, nil
}

// parseNumber parses a numeric literal.
func (p *Parser) parseNumber() (*types.ASTNode, error) {
	node := types.NewASTNode(types.NodeLiteral, p.current.Span)

	val, err := strconv.ParseFloat(p.current.Value, 64)
	if err != nil {
		return nil, p.error(fmt.Sprintf("invalid number %q", p.current.Value))
	}

	node.Literal = val
	p.advance()
	return node, nil
}

// parseCall parses an identifier, with or without an argument list.
// A bare identifier is a zero-arity call; arguments are separated by ';'.
func (p *Parser) parseCall() (*types.ASTNode, error) {
	node := types.NewASTNode(types.NodeCall, p.current.Span)
	node.Name = p.current.Value
	p.advance()

	if p.current.Type != TokenLParen {
		return node, nil
	}
	p.advance()

	for {
		arg, err := p.parseExpression(0)
		if err != nil {
			return nil, err
		}
		node.Args = append(node.Args, arg)

		if p.current.Type != TokenSemicolon {
			break
		}
		p.advance()
	}

	if err := p.expect(TokenRParen); err != nil {
		return nil, err
	}
	node.Span = node.Span.Extend(p.prev.Span)
	return node, nil
}

// parseLeadingDot parses '.', '.field' and '."field"'.
// '.[...]' is handled by the postfix chain on the identity node.
func (p *Parser) parseLeadingDot() (*types.ASTNode, error) {
	dot := p.current
	p.advance()

	switch p.current.Type {
	case TokenIdent, TokenString:
		node := types.NewASTNode(types.NodeField, dot.Span.Extend(p.current.Span))
		node.Target = types.NewASTNode(types.NodeIdentity, dot.Span)
		node.Name = p.current.Value
		p.advance()
		return node, nil
	default:
		// A keyword fused to the dot reads as a field name: `.end`, `.if`.
		// With a space between (`. as $x`, `if . then`) the dot stays an
		// identity and the keyword keeps its role.
		if name, ok := keywordIdent(p.current.Type); ok && p.current.Span.Start == dot.Span.End {
			node := types.NewASTNode(types.NodeField, dot.Span.Extend(p.current.Span))
			node.Target = types.NewASTNode(types.NodeIdentity, dot.Span)
			node.Name = name
			p.advance()
			return node, nil
		}
		return types.NewASTNode(types.NodeIdentity, dot.Span), nil
	}
}

// parseNot parses `not` in prefix position. When followed by an expression
// it is the unary operator; standing alone it is the not/0 builtin.
func (p *Parser) parseNot() (*types.ASTNode, error) {
	token := p.current
	p.advance()

	if !startsExpression(p.current.Type) {
		node := types.NewASTNode(types.NodeCall, token.Span)
		node.Name = "not"
		return node, nil
	}

	operand, err := p.parseExpression(precUnary)
	if err != nil {
		return nil, err
	}
	node := types.NewASTNode(types.NodeUnary, token.Span.Extend(p.prev.Span))
	node.Name = "not"
	node.LHS = operand
	return node, nil
}

// startsExpression reports whether a token can begin an expression.
func startsExpression(tt TokenType) bool {
	switch tt {
	case TokenNumber, TokenString, TokenStringStart, TokenIdent, TokenVariable,
		TokenDot, TokenDotDot, TokenMinus, TokenNot, TokenLParen, TokenLBracket,
		TokenLBrace, TokenIf, TokenReduce, TokenForeach, TokenTry, TokenLabel,
		TokenBreak, TokenDef, TokenTrue, TokenFalse, TokenNull:
		return true
	default:
		return false
	}
}

// parsePostfix parses the postfix chain: .field, ."field", [e], [a:b], [] and ?.
func (p *Parser) parsePostfix(left *types.ASTNode) (*types.ASTNode, error) {
	for {
		switch p.current.Type {
		case TokenDot:
			dot := p.current
			p.advance()
			name := p.current.Value
			ok := p.current.Type == TokenIdent || p.current.Type == TokenString
			if !ok {
				// `.a.end`: a keyword fused to the dot is a field name.
				if kw, isKw := keywordIdent(p.current.Type); isKw && p.current.Span.Start == dot.Span.End {
					name, ok = kw, true
				}
			}
			if !ok {
				return nil, p.error("expected field name after '.'")
			}
			node := types.NewASTNode(types.NodeField, left.Span.Extend(p.current.Span))
			node.Target = left
			node.Name = name
			p.advance()
			left = node
		case TokenLBracket:
			node, err := p.parseBracket(left)
			if err != nil {
				return nil, err
			}
			left = node
		case TokenQuestion:
			node := types.NewASTNode(types.NodeTry, left.Span.Extend(p.current.Span))
			node.Body = left
			p.advance()
			left = node
		default:
			return left, nil
		}
	}
}

// parseBracket parses the bracket forms of a postfix chain:
// [] iterate, [e] index, [a:b] slice with optional endpoints.
func (p *Parser) parseBracket(left *types.ASTNode) (*types.ASTNode, error) {
	open := p.current
	p.advance()

	// []
	if p.current.Type == TokenRBracket {
		node := types.NewASTNode(types.NodeIterate, left.Span.Extend(p.current.Span))
		node.Target = left
		p.advance()
		return node, nil
	}

	// [:to]
	if p.current.Type == TokenColon {
		p.advance()
		to, err := p.parseExpression(0)
		if err != nil {
			return nil, err
		}
		if err := p.expect(TokenRBracket); err != nil {
			return nil, err
		}
		node := types.NewASTNode(types.NodeSlice, left.Span.Extend(p.prev.Span))
		node.Target = left
		node.To = to
		return node, nil
	}

	expr, err := p.parseExpression(0)
	if err != nil {
		return nil, err
	}

	// [from:] and [from:to]
	if p.current.Type == TokenColon {
		p.advance()
		node := types.NewASTNode(types.NodeSlice, open.Span)
		node.Target = left
		node.From = expr
		if p.current.Type != TokenRBracket {
			to, err := p.parseExpression(0)
			if err != nil {
				return nil, err
			}
			node.To = to
		}
		if err := p.expect(TokenRBracket); err != nil {
			return nil, err
		}
		node.Span = left.Span.Extend(p.prev.Span)
		return node, nil
	}

	// [e]
	if err := p.expect(TokenRBracket); err != nil {
		return nil, err
	}
	node := types.NewASTNode(types.NodeIndex, left.Span.Extend(p.prev.Span))
	node.Target = left
	node.Key = expr
	return node, nil
}

// parseBind parses `source as $name | body`. The body extends through any
// following pipes, mirroring jq's grammar.
func (p *Parser) parseBind(source *types.ASTNode) (*types.ASTNode, error) {
	p.advance() // skip 'as'

	if p.current.Type != TokenVariable {
		return nil, p.error("expected variable after 'as'")
	}
	name := p.current.Value
	p.advance()

	if err := p.expect(TokenPipe); err != nil {
		return nil, err
	}

	body, err := p.parseExpression(precPipe - 1)
	if err != nil {
		return nil, err
	}

	node := types.NewASTNode(types.NodeBind, source.Span.Extend(body.Span))
	node.Source = source
	node.Name = name
	node.Body = body
	return node, nil
}

// parseArray parses an array construction. The single body expression may
// contain commas; the construction collects every emission.
func (p *Parser) parseArray() (*types.ASTNode, error) {
	open := p.current
	p.advance()

	node := types.NewASTNode(types.NodeArray, open.Span)

	if p.current.Type == TokenRBracket {
		node.Span = open.Span.Extend(p.current.Span)
		p.advance()
		return node, nil
	}

	items, err := p.parseExpression(0)
	if err != nil {
		return nil, err
	}
	node.Items = items

	if err := p.expect(TokenRBracket); err != nil {
		return nil, err
	}
	node.Span = open.Span.Extend(p.prev.Span)
	return node, nil
}

// parseObject parses an object construction {...}.
func (p *Parser) parseObject() (*types.ASTNode, error) {
	open := p.current
	p.advance()

	node := types.NewASTNode(types.NodeObject, open.Span)

	if p.current.Type == TokenRBrace {
		node.Span = open.Span.Extend(p.current.Span)
		p.advance()
		return node, nil
	}

	for {
		entry, err := p.parseObjectEntry()
		if err != nil {
			return nil, err
		}
		node.Entries = append(node.Entries, entry)

		if p.current.Type != TokenComma {
			break
		}
		p.advance()
	}

	if err := p.expect(TokenRBrace); err != nil {
		return nil, err
	}
	node.Span = open.Span.Extend(p.prev.Span)
	return node, nil
}

// parseObjectEntry parses one key/value pair. Keys are identifiers, string
// literals (possibly interpolated), or parenthesised expressions; `{foo}` is
// shorthand for `{foo: .foo}`.
func (p *Parser) parseObjectEntry() (types.ObjectEntry, error) {
	var entry types.ObjectEntry

	switch p.current.Type {
	case TokenIdent:
		entry.Key = p.literalString(p.current.Value, p.current.Span)
		shorthand := p.current.Value
		span := p.current.Span
		p.advance()
		if p.current.Type != TokenColon {
			// {foo} → {foo: .foo}
			field := types.NewASTNode(types.NodeField, span)
			field.Target = types.NewASTNode(types.NodeIdentity, span)
			field.Name = shorthand
			entry.Value = field
			return entry, nil
		}
	case TokenVariable:
		// {$x} → {x: $x}
		entry.Key = p.literalString(p.current.Value, p.current.Span)
		variable := types.NewASTNode(types.NodeVariable, p.current.Span)
		variable.Name = p.current.Value
		entry.Value = variable
		p.advance()
		return entry, nil
	case TokenString:
		entry.Key = p.literalString(p.current.Value, p.current.Span)
		p.advance()
	case TokenStringStart:
		key, err := p.parseInterpolation()
		if err != nil {
			return entry, err
		}
		entry.Key = key
	case TokenLParen:
		p.advance()
		key, err := p.parseExpression(0)
		if err != nil {
			return entry, err
		}
		if err := p.expect(TokenRParen); err != nil {
			return entry, err
		}
		entry.Key = key
	default:
		if name, ok := keywordIdent(p.current.Type); ok {
			entry.Key = p.literalString(name, p.current.Span)
			p.advance()
			break
		}
		return entry, p.error("expected object key")
	}

	if err := p.expect(TokenColon); err != nil {
		return entry, err
	}

	// Object values exclude ',' and '|'; parenthesise to use them.
	value, err := p.parseExpression(precComma)
	if err != nil {
		return entry, err
	}
	entry.Value = value
	return entry, nil
}

func (p *Parser) literalString(s string, span types.Span) *types.ASTNode {
	node := types.NewASTNode(types.NodeLiteral, span)
	node.Literal = s
	return node
}

// parseIf parses if/then/elif/else/end. Elif branches nest into the else
// slot; a missing else emits the input unchanged (nil Else).
func (p *Parser) parseIf() (*types.ASTNode, error) {
	open := p.current
	p.advance()

	node := types.NewASTNode(types.NodeIf, open.Span)

	cond, err := p.parseExpression(0)
	if err != nil {
		return nil, err
	}
	node.Cond = cond

	if err := p.expect(TokenThen); err != nil {
		return nil, err
	}
	then, err := p.parseExpression(0)
	if err != nil {
		return nil, err
	}
	node.Then = then

	tail := node
	for p.current.Type == TokenElif {
		elifSpan := p.current.Span
		p.advance()

		branch := types.NewASTNode(types.NodeIf, elifSpan)
		cond, err := p.parseExpression(0)
		if err != nil {
			return nil, err
		}
		branch.Cond = cond

		if err := p.expect(TokenThen); err != nil {
			return nil, err
		}
		then, err := p.parseExpression(0)
		if err != nil {
			return nil, err
		}
		branch.Then = then

		tail.Else = branch
		tail = branch
	}

	if p.current.Type == TokenElse {
		p.advance()
		els, err := p.parseExpression(0)
		if err != nil {
			return nil, err
		}
		tail.Else = els
	}

	if err := p.expect(TokenEnd); err != nil {
		return nil, err
	}
	node.Span = open.Span.Extend(p.prev.Span)
	return node, nil
}

// parseReduce parses `reduce source as $name (init; update)`.
func (p *Parser) parseReduce() (*types.ASTNode, error) {
	node, err := p.parseLoopHeader(types.NodeReduce)
	if err != nil {
		return nil, err
	}
	if err := p.expect(TokenRParen); err != nil {
		return nil, err
	}
	node.Span = node.Span.Extend(p.prev.Span)
	return node, nil
}

// parseForeach parses `foreach source as $name (init; update[; extract])`.
func (p *Parser) parseForeach() (*types.ASTNode, error) {
	node, err := p.parseLoopHeader(types.NodeForeach)
	if err != nil {
		return nil, err
	}

	if p.current.Type == TokenSemicolon {
		p.advance()
		extract, err := p.parseExpression(0)
		if err != nil {
			return nil, err
		}
		node.Extract = extract
	}

	if err := p.expect(TokenRParen); err != nil {
		return nil, err
	}
	node.Span = node.Span.Extend(p.prev.Span)
	return node, nil
}

// parseLoopSource parses the source expression of a reduce/foreach header.
// Unlike parseTerm it leaves a trailing `as` for parseLoopHeader, which owns
// the loop variable.
func (p *Parser) parseLoopSource() (*types.ASTNode, error) {
	left, err := p.parsePrimary(precUnary)
	if err != nil {
		return nil, err
	}
	return p.parsePostfix(left)
}

// parseLoopHeader parses the shared prefix of reduce and foreach, up to and
// including the update expression.
func (p *Parser) parseLoopHeader(kind types.NodeKind) (*types.ASTNode, error) {
	open := p.current
	p.advance()

	node := types.NewASTNode(kind, open.Span)

	source, err := p.parseLoopSource()
	if err != nil {
		return nil, err
	}
	node.Source = source

	if err := p.expect(TokenAs); err != nil {
		return nil, err
	}
	if p.current.Type != TokenVariable {
		return nil, p.error("expected variable after 'as'")
	}
	node.Name = p.current.Value
	p.advance()

	if err := p.expect(TokenLParen); err != nil {
		return nil, err
	}

	init, err := p.parseExpression(0)
	if err != nil {
		return nil, err
	}
	node.Init = init

	if err := p.expect(TokenSemicolon); err != nil {
		return nil, err
	}

	update, err := p.parseExpression(0)
	if err != nil {
		return nil, err
	}
	node.Update = update

	return node, nil
}

// parseTry parses `try body [catch handler]`. Both operands bind at term
// level; parenthesise to cover a pipeline.
func (p *Parser) parseTry() (*types.ASTNode, error) {
	open := p.current
	p.advance()

	body, err := p.parseExpression(precUnary)
	if err != nil {
		return nil, err
	}

	node := types.NewASTNode(types.NodeTry, open.Span.Extend(body.Span))
	node.Body = body

	if p.current.Type == TokenCatch {
		p.advance()
		handler, err := p.parseExpression(precUnary)
		if err != nil {
			return nil, err
		}
		node.Handler = handler
		node.Span = node.Span.Extend(handler.Span)
	}

	return node, nil
}

// parseLabel parses `label $name | body`.
func (p *Parser) parseLabel() (*types.ASTNode, error) {
	open := p.current
	p.advance()

	if p.current.Type != TokenVariable {
		return nil, p.error("expected variable after 'label'")
	}
	name := p.current.Value
	p.advance()

	if err := p.expect(TokenPipe); err != nil {
		return nil, err
	}

	body, err := p.parseExpression(precPipe - 1)
	if err != nil {
		return nil, err
	}

	node := types.NewASTNode(types.NodeLabel, open.Span.Extend(body.Span))
	node.Name = name
	node.Body = body
	return node, nil
}

// parseBreak parses `break $name`.
func (p *Parser) parseBreak() (*types.ASTNode, error) {
	open := p.current
	p.advance()

	if p.current.Type != TokenVariable {
		return nil, p.error("expected variable after 'break'")
	}
	node := types.NewASTNode(types.NodeBreak, open.Span.Extend(p.current.Span))
	node.Name = p.current.Value
	p.advance()
	return node, nil
}

// parseFuncDef parses `def name(params): body; rest`. The rest-of-program is
// parsed with the caller's binding power so the definition scopes over
// exactly the remainder of the enclosing expression.
func (p *Parser) parseFuncDef(rbp int) (*types.ASTNode, error) {
	open := p.current
	p.advance()

	if p.current.Type != TokenIdent {
		return nil, p.error("expected function name after 'def'")
	}
	node := types.NewASTNode(types.NodeFuncDef, open.Span)
	node.Name = p.current.Value
	p.advance()

	if p.current.Type == TokenLParen {
		p.advance()
		for {
			if p.current.Type != TokenIdent {
				return nil, p.error("expected parameter name")
			}
			node.Params = append(node.Params, p.current.Value)
			p.advance()

			if p.current.Type != TokenSemicolon {
				break
			}
			p.advance()
		}
		if err := p.expect(TokenRParen); err != nil {
			return nil, err
		}
	}

	if err := p.expect(TokenColon); err != nil {
		return nil, err
	}

	body, err := p.parseExpression(0)
	if err != nil {
		return nil, err
	}
	node.Body = body

	if err := p.expect(TokenSemicolon); err != nil {
		return nil, err
	}

	rest, err := p.parseExpression(rbp)
	if err != nil {
		return nil, err
	}
	node.Rest = rest
	node.Span = open.Span.Extend(rest.Span)

	return node, nil
}

// parseInterpolation parses an interpolated string into a left-folded
// concatenation: each embed is piped through tostring and added to the
// accumulated literal pieces, so multi-valued embeds fan out naturally.
func (p *Parser) parseInterpolation() (*types.ASTNode, error) {
	start := p.current
	acc := p.literalString(start.Value, start.Span)
	p.advance()

	for {
		embed, err := p.parseExpression(0)
		if err != nil {
			return nil, err
		}

		tostr := types.NewASTNode(types.NodeCall, embed.Span)
		tostr.Name = "tostring"
		piped := types.NewASTNode(types.NodePipe, embed.Span)
		piped.Name = "|"
		piped.LHS = embed
		piped.RHS = tostr

		acc = p.concat(acc, piped)

		switch p.current.Type {
		case TokenStringMiddle:
			if p.current.Value != "" {
				acc = p.concat(acc, p.literalString(p.current.Value, p.current.Span))
			}
			p.advance()
		case TokenStringEnd:
			if p.current.Value != "" {
				acc = p.concat(acc, p.literalString(p.current.Value, p.current.Span))
			}
			p.advance()
			return acc, nil
		case TokenError:
			return nil, p.lexer.Error()
		default:
			return nil, p.error("unterminated string interpolation")
		}
	}
}

func (p *Parser) concat(left, right *types.ASTNode) *types.ASTNode {
	node := types.NewASTNode(types.NodeBinary, left.Span.Extend(right.Span))
	node.Name = "+"
	node.LHS = left
	node.RHS = right
	return node
}
