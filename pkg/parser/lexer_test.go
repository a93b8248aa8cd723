package parser

import (
	"errors"
	"testing"

	"github.com/gabrielbryk/jqsand/pkg/types"
)

func lexAll(t *testing.T, input string) []Token {
	t.Helper()
	l := NewLexer(input)
	var out []Token
	for {
		tok := l.Next()
		if tok.Type == TokenEOF || tok.Type == TokenError {
			out = append(out, tok)
			return out
		}
		out = append(out, tok)
	}
}

func tokenTypes(tokens []Token) []TokenType {
	out := make([]TokenType, len(tokens))
	for i, t := range tokens {
		out[i] = t.Type
	}
	return out
}

func TestLexerBasicTokens(t *testing.T) {
	tests := []struct {
		input string
		want  []TokenType
	}{
		{".", []TokenType{TokenDot, TokenEOF}},
		{"..", []TokenType{TokenDotDot, TokenEOF}},
		{".foo.bar", []TokenType{TokenDot, TokenIdent, TokenDot, TokenIdent, TokenEOF}},
		{".[0]", []TokenType{TokenDot, TokenLBracket, TokenNumber, TokenRBracket, TokenEOF}},
		{"a | b", []TokenType{TokenIdent, TokenPipe, TokenIdent, TokenEOF}},
		{"1 + 2 * 3", []TokenType{TokenNumber, TokenPlus, TokenNumber, TokenStar, TokenNumber, TokenEOF}},
		{"$x", []TokenType{TokenVariable, TokenEOF}},
		{"a == b != c", []TokenType{TokenIdent, TokenEq, TokenIdent, TokenNotEq, TokenIdent, TokenEOF}},
		{"< <= > >=", []TokenType{TokenLess, TokenLessEq, TokenGreater, TokenGreaterEq, TokenEOF}},
		{"// //= / /=", []TokenType{TokenAlt, TokenAltAssign, TokenSlash, TokenSlashAssign, TokenEOF}},
		{"= |= += -= *= %=", []TokenType{TokenAssign, TokenUpdateAssign, TokenPlusAssign,
			TokenMinusAssign, TokenStarAssign, TokenPercentAssign, TokenEOF}},
		{"?", []TokenType{TokenQuestion, TokenEOF}},
		{"if then elif else end", []TokenType{TokenIf, TokenThen, TokenElif, TokenElse, TokenEnd, TokenEOF}},
		{"def reduce foreach as try catch label and or not", []TokenType{
			TokenDef, TokenReduce, TokenForeach, TokenAs, TokenTry, TokenCatch,
			TokenLabel, TokenAnd, TokenOr, TokenNot, TokenEOF}},
		{"true false null", []TokenType{TokenTrue, TokenFalse, TokenNull, TokenEOF}},
	}
	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			got := tokenTypes(lexAll(t, tt.input))
			if len(got) != len(tt.want) {
				t.Fatalf("got %v, want %v", got, tt.want)
			}
			for i := range tt.want {
				if got[i] != tt.want[i] {
					t.Fatalf("token %d: got %s, want %s (all: %v)", i, got[i], tt.want[i], got)
				}
			}
		})
	}
}

func TestLexerNumbers(t *testing.T) {
	tests := []struct {
		input string
		value string
	}{
		{"0", "0"},
		{"42", "42"},
		{"3.25", "3.25"},
		{"1e3", "1e3"},
		{"2.5e-2", "2.5e-2"},
		{"1E+6", "1E+6"},
	}
	for _, tt := range tests {
		toks := lexAll(t, tt.input)
		if toks[0].Type != TokenNumber || toks[0].Value != tt.value {
			t.Errorf("%q lexed as %s %q", tt.input, toks[0].Type, toks[0].Value)
		}
	}
}

func TestLexerNumberDotField(t *testing.T) {
	// "1.foo" is the number 1 followed by a field access, not a malformed
	// number.
	got := tokenTypes(lexAll(t, "1.foo"))
	want := []TokenType{TokenNumber, TokenDot, TokenIdent, TokenEOF}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("got %v, want %v", got, want)
		}
	}
}

func TestLexerNumberDotMultibyte(t *testing.T) {
	// The rune rejected after "1." may be wider than the dot; the rewind
	// must restore the dot position exactly instead of panicking.
	toks := lexAll(t, "1.☃")
	if toks[0].Type != TokenNumber || toks[0].Value != "1" {
		t.Fatalf("first token %s %q, want Number \"1\"", toks[0].Type, toks[0].Value)
	}
	if toks[1].Type != TokenDot {
		t.Fatalf("second token %s, want Dot", toks[1].Type)
	}
	if last := toks[len(toks)-1]; last.Type != TokenError {
		t.Errorf("last token %s, want Error", last.Type)
	}

	toks = lexAll(t, "[1.☃]")
	if toks[0].Type != TokenLBracket || toks[1].Type != TokenNumber || toks[1].Value != "1" {
		t.Fatalf("unexpected tokens %v", tokenTypes(toks))
	}
}

func TestLexerStrings(t *testing.T) {
	tests := []struct {
		input string
		value string
	}{
		{`"hello"`, "hello"},
		{`""`, ""},
		{`"a\nb"`, "a\nb"},
		{`"tab\there"`, "tab\there"},
		{`"A"`, "A"},
		{`"😀"`, "\U0001F600"},
		{`"esc \" quote"`, `esc " quote`},
	}
	for _, tt := range tests {
		toks := lexAll(t, tt.input)
		if toks[0].Type != TokenString || toks[0].Value != tt.value {
			t.Errorf("%s lexed as %s %q, want String %q", tt.input, toks[0].Type, toks[0].Value, tt.value)
		}
	}
}

func TestLexerInterpolation(t *testing.T) {
	got := lexAll(t, `"a\(1)b"`)
	want := []TokenType{TokenStringStart, TokenNumber, TokenStringEnd, TokenEOF}
	for i := range want {
		if got[i].Type != want[i] {
			t.Fatalf("token %d: got %s, want %s", i, got[i].Type, want[i])
		}
	}
	if got[0].Value != "a" || got[2].Value != "b" {
		t.Errorf("string pieces %q, %q", got[0].Value, got[2].Value)
	}
}

func TestLexerInterpolationNestedParens(t *testing.T) {
	// Parentheses inside the embed must not terminate it early.
	got := tokenTypes(lexAll(t, `"x\((1+2)*3)y"`))
	want := []TokenType{
		TokenStringStart, TokenLParen, TokenNumber, TokenPlus, TokenNumber,
		TokenRParen, TokenStar, TokenNumber, TokenStringEnd, TokenEOF,
	}
	if len(got) != len(want) {
		t.Fatalf("got %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("token %d: got %s, want %s", i, got[i], want[i])
		}
	}
}

func TestLexerComments(t *testing.T) {
	got := tokenTypes(lexAll(t, ".a # trailing comment\n| .b"))
	want := []TokenType{TokenDot, TokenIdent, TokenPipe, TokenDot, TokenIdent, TokenEOF}
	if len(got) != len(want) {
		t.Fatalf("got %v, want %v", got, want)
	}
}

func TestLexerErrors(t *testing.T) {
	tests := []struct {
		name  string
		input string
	}{
		{"unterminated string", `"abc`},
		{"invalid escape", `"\q"`},
		{"bad unicode escape", `"\u00G1"`},
		{"bare exponent", "1e"},
		{"lone bang", "!"},
		{"dollar without name", "$ x"},
		{"stray character", "@"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			l := NewLexer(tt.input)
			for {
				tok := l.Next()
				if tok.Type == TokenError || tok.Type == TokenEOF {
					break
				}
			}
			err := l.Error()
			if err == nil {
				t.Fatal("expected a lex error")
			}
			var fault *types.Error
			if !errors.As(err, &fault) || fault.Kind != types.ErrLex {
				t.Errorf("error = %v, want kind lex", err)
			}
		})
	}
}

func TestLexerSpans(t *testing.T) {
	toks := lexAll(t, " .foo ")
	if toks[0].Span.Start != 1 || toks[0].Span.End != 2 {
		t.Errorf("dot span %v", toks[0].Span)
	}
	if toks[1].Span.Start != 2 || toks[1].Span.End != 5 {
		t.Errorf("ident span %v", toks[1].Span)
	}
}
