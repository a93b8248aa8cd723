package types

import "fmt"

// Span is a half-open byte range [Start, End) into the filter source.
// Spans are carried on tokens, AST nodes and errors for diagnostics only;
// no semantic decision depends on them.
type Span struct {
	Start int // inclusive
	End   int // exclusive
}

// NewSpan creates a span covering [start, end).
func NewSpan(start, end int) Span {
	return Span{Start: start, End: end}
}

// Extend returns the smallest span covering both s and other.
func (s Span) Extend(other Span) Span {
	out := s
	if other.Start < out.Start {
		out.Start = other.Start
	}
	if other.End > out.End {
		out.End = other.End
	}
	return out
}

// String returns the span in "start..end" form.
func (s Span) String() string {
	return fmt.Sprintf("%d..%d", s.Start, s.End)
}
