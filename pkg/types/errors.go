package types

import "fmt"

// ErrorKind classifies an error surfaced to the caller.
type ErrorKind string

// Error kinds. The first three identify the pipeline stage that rejected the
// filter; the remaining kinds are runtime faults raised during evaluation.
const (
	// Pipeline-stage errors
	ErrLex      ErrorKind = "lex"      // malformed source at the character level
	ErrParse    ErrorKind = "parse"    // syntactically ill-formed
	ErrValidate ErrorKind = "validate" // unknown/forbidden builtin, arity mismatch

	// Runtime faults
	ErrIndex    ErrorKind = "index"    // bad container index
	ErrType     ErrorKind = "type"     // operand type mismatch
	ErrArity    ErrorKind = "arity"    // wrong result cardinality (e.g. reduce update)
	ErrArith    ErrorKind = "arith"    // arithmetic fault (division by zero)
	ErrUnbound  ErrorKind = "unbound"  // unbound variable or unmatched break
	ErrUser     ErrorKind = "user"     // raised by error(...)
	ErrResource ErrorKind = "resource" // steps/depth/outputs cap exceeded
)

// Error is the structured error type for every fault the interpreter raises.
type Error struct {
	Kind    ErrorKind
	Message string
	Span    Span
	Token   string // offending token text, when known
	Err     error
}

// NewError creates a new error of the given kind.
func NewError(kind ErrorKind, message string, span Span) *Error {
	return &Error{
		Kind:    kind,
		Message: message,
		Span:    span,
	}
}

// Error implements the error interface.
func (e *Error) Error() string {
	if e.Span.End > 0 || e.Span.Start > 0 {
		return fmt.Sprintf("%s error at %s: %s", e.Kind, e.Span, e.Message)
	}
	return fmt.Sprintf("%s error: %s", e.Kind, e.Message)
}

// Unwrap returns the wrapped error.
func (e *Error) Unwrap() error {
	return e.Err
}

// Catchable reports whether try/catch may intercept the error.
// Only runtime faults are catchable, and resource faults never are.
func (e *Error) Catchable() bool {
	switch e.Kind {
	case ErrIndex, ErrType, ErrArity, ErrArith, ErrUnbound, ErrUser:
		return true
	default:
		return false
	}
}

// WithToken adds token information to the error.
func (e *Error) WithToken(token string) *Error {
	e.Token = token
	return e
}

// WithCause wraps another error.
func (e *Error) WithCause(err error) *Error {
	e.Err = err
	return e
}
