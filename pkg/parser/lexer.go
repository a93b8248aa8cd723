package parser

import (
	"fmt"
	"strings"
	"unicode/utf16"
	"unicode/utf8"

	"github.com/gabrielbryk/jqsand/pkg/types"
)

const eof = -1

// interpFrame tracks one open string interpolation: the lexer is inside the
// tokens of a "\(...)" embed and parens counts unmatched '(' seen since the
// embed opened. When a ')' arrives with parens == 0, the lexer re-enters
// string mode.
type interpFrame struct {
	parens int
}

// Lexer converts a filter expression into a sequence of tokens.
// The implementation follows Rob Pike's "Lexical Scanning in Go" technique:
// a cursor with one-rune backup and accept/acceptAll helpers.
type Lexer struct {
	input   string        // input string being scanned
	length  int           // length of input string
	start   int           // start position of current token
	current int           // current position in input
	width   int           // width of last rune read
	err     error         // first error encountered
	interp  []interpFrame // open string-interpolation frames
}

// NewLexer creates a new lexer from the provided input string.
// The input is tokenized by successive calls to the Next method.
func NewLexer(input string) *Lexer {
	return &Lexer{
		input:  input,
		length: len(input),
	}
}

// Next returns the next token from the input.
// When the end of the input is reached, Next returns TokenEOF for all
// subsequent calls. After an error token, Next keeps returning EOF; the
// first error is available via Error.
func (l *Lexer) Next() Token {
	l.skipWhitespace()

	ch := l.nextRune()
	if ch == eof {
		return l.eof()
	}

	// A ')' that closes an interpolation embed resumes string scanning.
	if ch == ')' && len(l.interp) > 0 {
		top := &l.interp[len(l.interp)-1]
		if top.parens == 0 {
			l.interp = l.interp[:len(l.interp)-1]
			return l.scanStringPart(false)
		}
		top.parens--
		return l.newToken(TokenRParen)
	}
	if ch == '(' {
		if len(l.interp) > 0 {
			l.interp[len(l.interp)-1].parens++
		}
		return l.newToken(TokenLParen)
	}
	if ch == ')' {
		return l.newToken(TokenRParen)
	}

	if tt := lookupSymbol1(ch); tt > 0 {
		return l.newToken(tt)
	}

	switch ch {
	case '.':
		if l.acceptRune('.') {
			return l.newToken(TokenDotDot)
		}
		return l.newToken(TokenDot)
	case '|':
		if l.acceptRune('=') {
			return l.newToken(TokenUpdateAssign)
		}
		return l.newToken(TokenPipe)
	case '=':
		if l.acceptRune('=') {
			return l.newToken(TokenEq)
		}
		return l.newToken(TokenAssign)
	case '!':
		if l.acceptRune('=') {
			return l.newToken(TokenNotEq)
		}
		return l.error("unexpected character '!'")
	case '<':
		if l.acceptRune('=') {
			return l.newToken(TokenLessEq)
		}
		return l.newToken(TokenLess)
	case '>':
		if l.acceptRune('=') {
			return l.newToken(TokenGreaterEq)
		}
		return l.newToken(TokenGreater)
	case '/':
		if l.acceptRune('/') {
			if l.acceptRune('=') {
				return l.newToken(TokenAltAssign)
			}
			return l.newToken(TokenAlt)
		}
		if l.acceptRune('=') {
			return l.newToken(TokenSlashAssign)
		}
		return l.newToken(TokenSlash)
	case '+':
		if l.acceptRune('=') {
			return l.newToken(TokenPlusAssign)
		}
		return l.newToken(TokenPlus)
	case '-':
		if l.acceptRune('=') {
			return l.newToken(TokenMinusAssign)
		}
		return l.newToken(TokenMinus)
	case '*':
		if l.acceptRune('=') {
			return l.newToken(TokenStarAssign)
		}
		return l.newToken(TokenStar)
	case '%':
		if l.acceptRune('=') {
			return l.newToken(TokenPercentAssign)
		}
		return l.newToken(TokenPercent)
	case '"':
		return l.scanStringPart(true)
	case '$':
		return l.scanVariable()
	}

	if isDigit(ch) {
		l.backup()
		return l.scanNumber()
	}
	if isIdentStart(ch) {
		l.backup()
		return l.scanIdent()
	}

	return l.error(fmt.Sprintf("unexpected character %q", ch))
}

// Error returns the first error encountered during lexing, if any.
func (l *Lexer) Error() error {
	return l.err
}

// scanStringPart scans a string literal or a continuation after an embed.
// The opening '"' (or the ')' that closed the embed) has been consumed.
// It emits:
//
//	String       opening, body runs to '"' with no embed
//	StringStart  opening, body runs to '\('
//	StringMiddle continuation ending with '\('
//	StringEnd    continuation ending with '"'
func (l *Lexer) scanStringPart(opening bool) Token {
	var sb strings.Builder
	for {
		ch := l.nextRune()
		switch ch {
		case '"':
			if opening {
				return l.newTokenValue(TokenString, sb.String())
			}
			return l.newTokenValue(TokenStringEnd, sb.String())
		case '\\':
			esc := l.nextRune()
			if esc == '(' {
				l.interp = append(l.interp, interpFrame{})
				if opening {
					return l.newTokenValue(TokenStringStart, sb.String())
				}
				return l.newTokenValue(TokenStringMiddle, sb.String())
			}
			if t, ok := l.decodeEscape(esc, &sb); !ok {
				return t
			}
		case eof:
			return l.error("unterminated string literal")
		default:
			sb.WriteRune(ch)
		}
	}
}

// decodeEscape writes the decoded form of one escape sequence to sb.
// esc is the rune following the backslash. Returns an error token and false
// on an invalid escape.
func (l *Lexer) decodeEscape(esc rune, sb *strings.Builder) (Token, bool) {
	switch esc {
	case '"', '\\', '/':
		sb.WriteRune(esc)
	case 'n':
		sb.WriteByte('\n')
	case 't':
		sb.WriteByte('\t')
	case 'r':
		sb.WriteByte('\r')
	case 'b':
		sb.WriteByte('\b')
	case 'f':
		sb.WriteByte('\f')
	case 'u':
		r, ok := l.scanHex4()
		if !ok {
			return l.error("invalid \\u escape"), false
		}
		// A high surrogate followed by a \uXXXX low surrogate decodes to
		// one code point outside the BMP.
		if utf16.IsSurrogate(r) && strings.HasPrefix(l.input[l.current:], `\u`) {
			l.nextRune()
			l.nextRune()
			lo, ok := l.scanHex4()
			if !ok {
				return l.error("invalid \\u escape"), false
			}
			r = utf16.DecodeRune(r, lo)
		}
		sb.WriteRune(r)
	case eof:
		return l.error("unterminated string literal"), false
	default:
		return l.error(fmt.Sprintf("invalid escape sequence \\%c", esc)), false
	}
	return Token{}, true
}

// scanHex4 reads exactly four hex digits.
func (l *Lexer) scanHex4() (rune, bool) {
	var v rune
	for i := 0; i < 4; i++ {
		ch := l.nextRune()
		d, ok := hexValue(ch)
		if !ok {
			return 0, false
		}
		v = v<<4 | d
	}
	return v, true
}

// scanNumber reads a number literal from the current position.
// Format: [0-9]+(\.[0-9]+)?([eE][+-]?[0-9]+)?
func (l *Lexer) scanNumber() Token {
	l.acceptAll(isDigit)

	// Fractional part. A dot with no following digit is not part of the
	// number; it belongs to a following field access. backup() cannot undo
	// the dot here: acceptAll already rewound by the width of the rune it
	// rejected, so restore the recorded position instead.
	dot := l.current
	if l.acceptRune('.') {
		if !l.acceptAll(isDigit) {
			l.current = dot
			return l.newToken(TokenNumber)
		}
	}

	// Exponent part; a bare 'e' with no digits is malformed.
	if l.acceptRunes2('e', 'E') {
		l.acceptRunes2('+', '-')
		if !l.acceptAll(isDigit) {
			return l.error("invalid number exponent")
		}
	}

	return l.newToken(TokenNumber)
}

// scanVariable reads a variable reference. The '$' has been consumed.
func (l *Lexer) scanVariable() Token {
	l.ignore()
	if !l.accept(isIdentStart) {
		return l.error("expected identifier after '$'")
	}
	l.acceptAll(isIdentRune)
	return l.newToken(TokenVariable)
}

// scanIdent reads an identifier or keyword from the current position.
func (l *Lexer) scanIdent() Token {
	l.accept(isIdentStart)
	l.acceptAll(isIdentRune)

	t := l.newToken(TokenIdent)
	if tt := lookupKeyword(t.Value); tt > 0 {
		t.Type = tt
	}
	return t
}

// Helper methods

func (l *Lexer) eof() Token {
	return Token{
		Type: TokenEOF,
		Span: types.NewSpan(l.current, l.current),
	}
}

func (l *Lexer) error(message string) Token {
	span := types.NewSpan(l.start, l.current)
	t := Token{
		Type:  TokenError,
		Value: l.input[l.start:l.current],
		Span:  span,
	}
	if l.err == nil {
		l.err = types.NewError(types.ErrLex, message, span).WithToken(t.Value)
	}
	return t
}

func (l *Lexer) newToken(tt TokenType) Token {
	t := Token{
		Type:  tt,
		Value: l.input[l.start:l.current],
		Span:  types.NewSpan(l.start, l.current),
	}
	l.width = 0
	l.start = l.current
	return t
}

// newTokenValue emits a token whose Value differs from the raw source slice
// (decoded string pieces).
func (l *Lexer) newTokenValue(tt TokenType, value string) Token {
	t := Token{
		Type:  tt,
		Value: value,
		Span:  types.NewSpan(l.start, l.current),
	}
	l.width = 0
	l.start = l.current
	return t
}

func (l *Lexer) nextRune() rune {
	if l.err != nil || l.current >= l.length {
		l.width = 0
		return eof
	}

	r, w := utf8.DecodeRuneInString(l.input[l.current:])
	l.width = w
	l.current += w
	return r
}

func (l *Lexer) backup() {
	l.current -= l.width
}

func (l *Lexer) ignore() {
	l.start = l.current
}

func (l *Lexer) acceptRune(r rune) bool {
	return l.accept(func(c rune) bool {
		return c == r
	})
}

func (l *Lexer) acceptRunes2(r1, r2 rune) bool {
	return l.accept(func(c rune) bool {
		return c == r1 || c == r2
	})
}

func (l *Lexer) accept(isValid func(rune) bool) bool {
	if isValid(l.nextRune()) {
		return true
	}
	l.backup()
	return false
}

func (l *Lexer) acceptAll(isValid func(rune) bool) bool {
	var matched bool
	for l.accept(isValid) {
		matched = true
	}
	return matched
}

// skipWhitespace skips whitespace and '#' line comments.
func (l *Lexer) skipWhitespace() {
	for {
		l.acceptAll(isWhitespace)
		if !l.acceptRune('#') {
			break
		}
		for {
			ch := l.nextRune()
			if ch == eof || ch == '\n' {
				break
			}
		}
	}
	l.ignore()
}

// Character classification functions

func isWhitespace(r rune) bool {
	switch r {
	case ' ', '\t', '\n', '\r':
		return true
	default:
		return false
	}
}

func isDigit(r rune) bool {
	return r >= '0' && r <= '9'
}

func isIdentStart(r rune) bool {
	return r == '_' || (r >= 'a' && r <= 'z') || (r >= 'A' && r <= 'Z')
}

func isIdentRune(r rune) bool {
	return isIdentStart(r) || isDigit(r)
}

func hexValue(r rune) (rune, bool) {
	switch {
	case r >= '0' && r <= '9':
		return r - '0', true
	case r >= 'a' && r <= 'f':
		return r - 'a' + 10, true
	case r >= 'A' && r <= 'F':
		return r - 'A' + 10, true
	default:
		return 0, false
	}
}
