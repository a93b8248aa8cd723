package interp

import (
	"errors"
	"strings"
	"testing"

	"github.com/gabrielbryk/jqsand/pkg/parser"
	"github.com/gabrielbryk/jqsand/pkg/types"
)

func validateSource(t *testing.T, source string) error {
	t.Helper()
	f, err := parser.Parse(source)
	if err != nil {
		t.Fatalf("Parse(%q): %v", source, err)
	}
	return Validate(f)
}

func TestValidateAccepts(t *testing.T) {
	sources := []string{
		".",
		".a[] | select(.b > 1) | length",
		"def f: .; f",
		"def f(g): g; f(. + 1)",
		"def f(g): g; f(length)",
		"map(. + 1) | sort_by(.k)",
		"reduce .[] as $x (0; . + $x)",
		"def rec: if . > 0 then . - 1 | rec else . end; rec",
		// A formal parameter may be called at any arity its body allows.
		"def apply(f): f; apply(. * 2)",
	}
	for _, src := range sources {
		if err := validateSource(t, src); err != nil {
			t.Errorf("Validate(%q) = %v, want nil", src, err)
		}
	}
}

func TestValidateRejects(t *testing.T) {
	tests := []struct {
		name    string
		source  string
		message string
	}{
		{"unknown function", "frobnicate", "not defined"},
		{"arity mismatch", "length(1)", "wrong number of arguments"},
		{"arity mismatch known name", "map", "wrong number of arguments"},
		{"forbidden now", "now", "not allowed"},
		{"forbidden input", "input", "not allowed"},
		{"forbidden inputs", "[inputs]", "not allowed"},
		{"forbidden env", "env", "not allowed"},
		{"forbidden ENV variable", "$ENV", "not allowed"},
		{"forbidden nested", ".a | map(now)", "not allowed"},
		{"def does not leak params", "def f(g): g; g", "not defined"},
		{"def body scope ends", "def f: .; def h: .; f | nosuch", "not defined"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := validateSource(t, tt.source)
			if err == nil {
				t.Fatal("expected a validate error")
			}
			var fault *types.Error
			if !errors.As(err, &fault) {
				t.Fatalf("error type %T", err)
			}
			if fault.Kind != types.ErrValidate {
				t.Errorf("kind = %s, want validate", fault.Kind)
			}
			if tt.message != "" && !strings.Contains(fault.Message, tt.message) {
				t.Errorf("message %q does not mention %q", fault.Message, tt.message)
			}
		})
	}
}

func TestValidateShadowingDefsWin(t *testing.T) {
	// A def may shadow a builtin; calls at the def's arity resolve to it.
	if err := validateSource(t, "def length: 1; length"); err != nil {
		t.Errorf("shadowed builtin rejected: %v", err)
	}
	// Forbidden names stay forbidden even when a def shadows them.
	if err := validateSource(t, "def now: 1; now"); err == nil {
		t.Error("forbidden name accepted behind a def")
	}
}
