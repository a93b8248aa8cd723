package parser

import "github.com/gabrielbryk/jqsand/pkg/types"

// TokenType represents the type of a lexical token.
type TokenType uint8

const (
	// Special tokens
	TokenEOF TokenType = iota
	TokenError

	// Literals and names
	TokenNumber       // 123, 3.14, 1e-10
	TokenString       // "hello" (no embeds)
	TokenStringStart  // "text\(  opens an interpolation
	TokenStringMiddle // )text\(  between two embeds
	TokenStringEnd    // )text"   closes an interpolation
	TokenIdent        // fieldName, funcName
	TokenVariable     // $name

	// Grouping symbols
	TokenLBracket // [
	TokenRBracket // ]
	TokenLBrace   // {
	TokenRBrace   // }
	TokenLParen   // (
	TokenRParen   // )

	// Basic symbols
	TokenDot       // .
	TokenDotDot    // ..
	TokenComma     // ,
	TokenColon     // :
	TokenSemicolon // ;
	TokenPipe      // |
	TokenQuestion  // ?

	// Arithmetic operators
	TokenPlus    // +
	TokenMinus   // -
	TokenStar    // *
	TokenSlash   // /
	TokenPercent // %

	// Comparison operators
	TokenEq        // ==
	TokenNotEq     // !=
	TokenLess      // <
	TokenLessEq    // <=
	TokenGreater   // >
	TokenGreaterEq // >=

	// Alternative and assignment operators
	TokenAlt           // //
	TokenAssign        // =
	TokenUpdateAssign  // |=
	TokenPlusAssign    // +=
	TokenMinusAssign   // -=
	TokenStarAssign    // *=
	TokenSlashAssign   // /=
	TokenPercentAssign // %=
	TokenAltAssign     // //=

	// Keywords
	TokenIf
	TokenThen
	TokenElif
	TokenElse
	TokenEnd
	TokenAs
	TokenDef
	TokenReduce
	TokenForeach
	TokenTry
	TokenCatch
	TokenLabel
	TokenBreak
	TokenAnd
	TokenOr
	TokenNot
	TokenTrue
	TokenFalse
	TokenNull
)

// String returns a string representation of the token type.
func (tt TokenType) String() string {
	switch tt {
	case TokenEOF:
		return "(eof)"
	case TokenError:
		return "(error)"
	case TokenNumber:
		return "(number)"
	case TokenString:
		return "(string)"
	case TokenStringStart:
		return "(string-start)"
	case TokenStringMiddle:
		return "(string-middle)"
	case TokenStringEnd:
		return "(string-end)"
	case TokenIdent:
		return "(identifier)"
	case TokenVariable:
		return "(variable)"
	case TokenLBracket:
		return "["
	case TokenRBracket:
		return "]"
	case TokenLBrace:
		return "{"
	case TokenRBrace:
		return "}"
	case TokenLParen:
		return "("
	case TokenRParen:
		return ")"
	case TokenDot:
		return "."
	case TokenDotDot:
		return ".."
	case TokenComma:
		return ","
	case TokenColon:
		return ":"
	case TokenSemicolon:
		return ";"
	case TokenPipe:
		return "|"
	case TokenQuestion:
		return "?"
	case TokenPlus:
		return "+"
	case TokenMinus:
		return "-"
	case TokenStar:
		return "*"
	case TokenSlash:
		return "/"
	case TokenPercent:
		return "%"
	case TokenEq:
		return "=="
	case TokenNotEq:
		return "!="
	case TokenLess:
		return "<"
	case TokenLessEq:
		return "<="
	case TokenGreater:
		return ">"
	case TokenGreaterEq:
		return ">="
	case TokenAlt:
		return "//"
	case TokenAssign:
		return "="
	case TokenUpdateAssign:
		return "|="
	case TokenPlusAssign:
		return "+="
	case TokenMinusAssign:
		return "-="
	case TokenStarAssign:
		return "*="
	case TokenSlashAssign:
		return "/="
	case TokenPercentAssign:
		return "%="
	case TokenAltAssign:
		return "//="
	case TokenIf:
		return "if"
	case TokenThen:
		return "then"
	case TokenElif:
		return "elif"
	case TokenElse:
		return "else"
	case TokenEnd:
		return "end"
	case TokenAs:
		return "as"
	case TokenDef:
		return "def"
	case TokenReduce:
		return "reduce"
	case TokenForeach:
		return "foreach"
	case TokenTry:
		return "try"
	case TokenCatch:
		return "catch"
	case TokenLabel:
		return "label"
	case TokenBreak:
		return "break"
	case TokenAnd:
		return "and"
	case TokenOr:
		return "or"
	case TokenNot:
		return "not"
	case TokenTrue:
		return "true"
	case TokenFalse:
		return "false"
	case TokenNull:
		return "null"
	default:
		return "(unknown)"
	}
}

// Token represents a lexical token in a filter expression.
// Value holds the decoded text for string pieces, the raw text for numbers
// and identifiers, and the name without the leading $ for variables.
type Token struct {
	Type  TokenType
	Value string
	Span  types.Span
}

// keywords maps keyword spellings to their dedicated token types.
var keywords = map[string]TokenType{
	"if":      TokenIf,
	"then":    TokenThen,
	"elif":    TokenElif,
	"else":    TokenElse,
	"end":     TokenEnd,
	"as":      TokenAs,
	"def":     TokenDef,
	"reduce":  TokenReduce,
	"foreach": TokenForeach,
	"try":     TokenTry,
	"catch":   TokenCatch,
	"label":   TokenLabel,
	"break":   TokenBreak,
	"and":     TokenAnd,
	"or":      TokenOr,
	"not":     TokenNot,
	"true":    TokenTrue,
	"false":   TokenFalse,
	"null":    TokenNull,
}

// lookupKeyword returns the token type for a keyword, or 0.
func lookupKeyword(s string) TokenType {
	return keywords[s]
}

// symbols1 maps single-character symbols that never begin a longer operator.
var symbols1 = [...]TokenType{
	'[': TokenLBracket,
	']': TokenRBracket,
	'{': TokenLBrace,
	'}': TokenRBrace,
	',': TokenComma,
	':': TokenColon,
	';': TokenSemicolon,
	'?': TokenQuestion,
}

const symbol1Count = rune(len(symbols1))

// lookupSymbol1 returns the token type for a single-character symbol.
// Returns 0 if the rune is not a simple symbol.
func lookupSymbol1(r rune) TokenType {
	if r < 0 || r >= symbol1Count {
		return 0
	}
	return symbols1[r]
}

// keywordIdent reports whether tt is a keyword token and returns its
// spelling, for positions where keywords read as plain identifiers
// (object keys, field names).
func keywordIdent(tt TokenType) (string, bool) {
	if tt >= TokenIf && tt <= TokenNull {
		return tt.String(), true
	}
	return "", false
}
