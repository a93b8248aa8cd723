package jqsand_test

import (
	"errors"
	"testing"

	"github.com/gabrielbryk/jqsand"
	"github.com/gabrielbryk/jqsand/pkg/values"
)

func TestRun(t *testing.T) {
	doc := map[string]any{
		"users": []any{
			map[string]any{"name": "ada", "active": true},
			map[string]any{"name": "bob", "active": false},
			map[string]any{"name": "eve", "active": true},
		},
	}
	out, err := jqsand.Run(".users[] | select(.active) | .name", doc)
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if got := values.Encode(out); got != `["ada","eve"]` {
		t.Errorf("out = %s", got)
	}
}

func TestRunWithOptions(t *testing.T) {
	out, err := jqsand.Run(". + $delta", float64(1),
		jqsand.WithVars(map[string]any{"delta": float64(41)}))
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if out[0] != float64(42) {
		t.Errorf("out = %v", out[0])
	}
}

func TestCompileRejectsBadSource(t *testing.T) {
	for _, src := range []string{".a |", "now", "$ENV.HOME", "frobnicate"} {
		if _, err := jqsand.Compile(src); err == nil {
			t.Errorf("Compile(%q) succeeded", src)
		}
	}
}

func TestMustCompilePanics(t *testing.T) {
	defer func() {
		if recover() == nil {
			t.Error("MustCompile did not panic")
		}
	}()
	jqsand.MustCompile("not valid ((")
}

func TestCompiledFilterReuse(t *testing.T) {
	f := jqsand.MustCompile("map(. * .) | add")
	in := jqsand.New()
	for _, tt := range []struct {
		input []any
		want  float64
	}{
		{[]any{float64(1), float64(2)}, 5},
		{[]any{float64(3)}, 9},
	} {
		out, err := in.RunFilter(f, tt.input)
		if err != nil {
			t.Fatalf("RunFilter(%v): %v", tt.input, err)
		}
		if out[0] != tt.want {
			t.Errorf("RunFilter(%v) = %v, want %v", tt.input, out[0], tt.want)
		}
	}
}

func TestLimitsSurfaceAsErrors(t *testing.T) {
	_, err := jqsand.Run("[range(1e9)]", nil,
		jqsand.WithLimits(jqsand.Limits{MaxSteps: 500}))
	if err == nil {
		t.Fatal("expected a resource fault")
	}
	var fault *jqsand.Error
	if !errors.As(err, &fault) {
		t.Fatalf("error type %T", err)
	}
	if fault.Kind != "resource" {
		t.Errorf("kind = %s, want resource", fault.Kind)
	}
}

func TestScenarioExtractAndReshape(t *testing.T) {
	doc := map[string]any{
		"items": []any{
			map[string]any{"id": float64(3), "tags": []any{"b", "a"}},
			map[string]any{"id": float64(1), "tags": []any{"c"}},
			map[string]any{"id": float64(2), "tags": []any{}},
		},
	}
	out, err := jqsand.Run(`.items | sort_by(.id) | map({id, n: (.tags | length)})`, doc)
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	want := `[[{"id":1,"n":1},{"id":2,"n":0},{"id":3,"n":2}]]`
	if got := values.Encode(out); got != want {
		t.Errorf("out = %s, want %s", got, want)
	}
}

func TestScenarioGroupAndAggregate(t *testing.T) {
	doc := []any{
		map[string]any{"k": "x", "v": float64(1)},
		map[string]any{"k": "y", "v": float64(10)},
		map[string]any{"k": "x", "v": float64(2)},
	}
	out, err := jqsand.Run(
		`group_by(.k) | map({key: .[0].k, value: (map(.v) | add)}) | from_entries`, doc)
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if got := values.Encode(out); got != `[{"x":3,"y":10}]` {
		t.Errorf("out = %s", got)
	}
}

func TestEndToEnd(t *testing.T) {
	tests := []struct {
		name   string
		source string
		input  any
		want   string
	}{
		{"fallback on null", `.foo // "fallback"`,
			map[string]any{"foo": nil}, `["fallback"]`},
		{"filter evens", "[.[] | select(. % 2 == 0)]",
			[]any{1, 2, 3, 4, 5}, "[[2,4]]"},
		{"sum via reduce", "reduce .[] as $x (0; . + $x)",
			[]any{1, 2, 3, 4}, "[10]"},
		{"keys sorted", "keys",
			map[string]any{"b": 1, "a": 2}, `[["a","b"]]`},
		{"setpath materializes", `setpath(["a",0]; 7)`,
			nil, `[{"a":[7]}]`},
		{"recursive factorial", "def f: if . == 0 then 1 else . * (. - 1 | f) end; 5 | f",
			nil, "[120]"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			out, err := jqsand.Run(tt.source, tt.input)
			if err != nil {
				t.Fatalf("Run(%q): %v", tt.source, err)
			}
			if got := values.Encode(out); got != tt.want {
				t.Errorf("Run(%q) = %s, want %s", tt.source, got, tt.want)
			}
		})
	}
}

func TestRoundTripLaws(t *testing.T) {
	tests := []struct {
		name   string
		source string
		input  any
	}{
		{"entries", "to_entries | from_entries",
			map[string]any{"a": 1, "b": []any{2, 3}}},
		{"split join", `split(",") | join(",")`, "x,y,z"},
		{"explode implode", "explode | implode", "héllo, wörld"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			out, err := jqsand.Run(tt.source, tt.input)
			if err != nil {
				t.Fatalf("Run(%q): %v", tt.source, err)
			}
			want := mustNormalize(t, tt.input)
			if got := values.Encode(out); got != values.Encode([]any{want}) {
				t.Errorf("Run(%q) = %s, want identity", tt.source, got)
			}
		})
	}
}

func TestAssignThenReadLaw(t *testing.T) {
	out, err := jqsand.Run(`.p = 42 | .p`, map[string]any{"q": 1})
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if out[0] != float64(42) {
		t.Errorf("read back %v, want 42", out[0])
	}
}

func TestScenarioDeepEdit(t *testing.T) {
	doc := map[string]any{
		"config": map[string]any{
			"retries": float64(3),
			"hosts":   []any{"a.example", "b.example"},
		},
	}
	out, err := jqsand.Run(`.config.retries |= . + 1 | del(.config.hosts[0])`, doc)
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	want := `[{"config":{"hosts":["b.example"],"retries":4}}]`
	if got := values.Encode(out); got != want {
		t.Errorf("out = %s, want %s", got, want)
	}
}
