package interp

import (
	"encoding/json"
	"errors"
	"testing"

	"github.com/gabrielbryk/jqsand/pkg/types"
	"github.com/gabrielbryk/jqsand/pkg/values"
)

// runFilter evaluates source against a JSON-encoded input and returns the
// output sequence.
func runFilter(t *testing.T, source, inputJSON string, opts ...Option) ([]any, error) {
	t.Helper()
	var input any
	if inputJSON != "" {
		if err := json.Unmarshal([]byte(inputJSON), &input); err != nil {
			t.Fatalf("bad input JSON %q: %v", inputJSON, err)
		}
	}
	return New(opts...).Run(source, input)
}

// runEnc evaluates and encodes the whole output sequence as one canonical
// JSON array, which keeps expectations compact.
func runEnc(t *testing.T, source, inputJSON string, opts ...Option) string {
	t.Helper()
	out, err := runFilter(t, source, inputJSON, opts...)
	if err != nil {
		t.Fatalf("Run(%q): %v", source, err)
	}
	return values.Encode(out)
}

// runKind evaluates and returns the fault kind, failing if evaluation
// succeeds.
func runKind(t *testing.T, source, inputJSON string, opts ...Option) types.ErrorKind {
	t.Helper()
	_, err := runFilter(t, source, inputJSON, opts...)
	if err == nil {
		t.Fatalf("Run(%q): expected an error", source)
	}
	var fault *types.Error
	if !errors.As(err, &fault) {
		t.Fatalf("Run(%q): error type %T: %v", source, err, err)
	}
	return fault.Kind
}

func TestEvalBasics(t *testing.T) {
	tests := []struct {
		name   string
		source string
		input  string
		want   string
	}{
		{"identity", ".", "5", "[5]"},
		{"identity null", ".", "null", "[null]"},
		{"number literal", "3.5", "null", "[3.5]"},
		{"string literal", `"hi"`, "null", `["hi"]`},
		{"booleans", "true, false, null", "0", "[true,false,null]"},
		{"field", ".foo", `{"foo":1}`, "[1]"},
		{"missing field", ".foo", `{"bar":1}`, "[null]"},
		{"field on null", ".foo", "null", "[null]"},
		{"nested fields", ".a.b.c", `{"a":{"b":{"c":42}}}`, "[42]"},
		{"keyword field", ".end", `{"end":5}`, "[5]"},
		{"keyword field chained", ".a.then", `{"a":{"then":6}}`, "[6]"},
		{"string index", `.["k"]`, `{"k":"v"}`, `["v"]`},
		{"array index", ".[1]", "[10,20,30]", "[20]"},
		{"negative index", ".[-1]", "[10,20,30]", "[30]"},
		{"index out of range", ".[5]", "[1]", "[null]"},
		{"index into null", ".[0]", "null", "[null]"},
		{"iterate array", ".[]", "[1,2,3]", "[1,2,3]"},
		{"iterate object sorted", ".[]", `{"b":2,"a":1,"c":3}`, "[1,2,3]"},
		{"iterate null", ".[]", "null", "[]"},
		{"slice", ".[1:3]", "[0,1,2,3,4]", "[[1,2]]"},
		{"slice open end", ".[2:]", "[0,1,2,3]", "[[2,3]]"},
		{"slice open start", ".[:2]", "[0,1,2,3]", "[[0,1]]"},
		{"slice negative", ".[-2:]", "[0,1,2,3]", "[[2,3]]"},
		{"slice clamps", ".[1:99]", "[0,1]", "[[1]]"},
		{"slice string", ".[1:3]", `"hello"`, `["el"]`},
		{"slice null", ".[1:2]", "null", "[null]"},
		{"array construction", "[.[] | . * 2]", "[1,2]", "[[2,4]]"},
		{"empty array", "[]", "null", "[[]]"},
		{"array of stream", "[1, 2, empty, 3]", "null", "[[1,2,3]]"},
		{"recursive descent", "[..]", `{"a":[1]}`, `[[{"a":[1]},[1],1]]`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := runEnc(t, tt.source, tt.input); got != tt.want {
				t.Errorf("Run(%q) = %s, want %s", tt.source, got, tt.want)
			}
		})
	}
}

func TestEvalPipeCommaOrder(t *testing.T) {
	tests := []struct {
		name   string
		source string
		input  string
		want   string
	}{
		{"comma order", "1, 2, 3", "null", "[1,2,3]"},
		{"pipe over comma", "(1, 2) | . + 1", "null", "[2,3]"},
		{"comma binds tighter", "1, 2 | . + 1", "null", "[2,3]"},
		{"cartesian product", "(1,2) * (10,20)", "null", "[10,20,20,40]"},
		{"pipe depth first", "(1,2) | (. , . * 10)", "null", "[1,10,2,20]"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := runEnc(t, tt.source, tt.input); got != tt.want {
				t.Errorf("Run(%q) = %s, want %s", tt.source, got, tt.want)
			}
		})
	}
}

func TestEvalObjectConstruction(t *testing.T) {
	tests := []struct {
		name   string
		source string
		input  string
		want   string
	}{
		{"simple", `{a: 1, b: "x"}`, "null", `[{"a":1,"b":"x"}]`},
		{"shorthand", "{name}", `{"name":"n","x":1}`, `[{"name":"n"}]`},
		{"string key", `{"k": .v}`, `{"v":3}`, `[{"k":3}]`},
		{"computed key", "{(.k): 1}", `{"k":"x"}`, `[{"x":1}]`},
		{"keyword key", "{if: 1}", "null", `[{"if":1}]`},
		{"value stream fans out", "{a: (1,2)}", "null", `[{"a":1},{"a":2}]`},
		{"two streams product", "{a: (1,2), b: (3,4)}", "null",
			`[{"a":1,"b":3},{"a":1,"b":4},{"a":2,"b":3},{"a":2,"b":4}]`},
		{"later key wins", `{a: 1, a: 2}`, "null", `[{"a":2}]`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := runEnc(t, tt.source, tt.input); got != tt.want {
				t.Errorf("Run(%q) = %s, want %s", tt.source, got, tt.want)
			}
		})
	}
}

func TestEvalObjectKeyMustBeString(t *testing.T) {
	if kind := runKind(t, "{(.k): 1}", `{"k":5}`); kind != types.ErrType {
		t.Errorf("kind = %s, want type", kind)
	}
}

func TestEvalArithmetic(t *testing.T) {
	tests := []struct {
		name   string
		source string
		input  string
		want   string
	}{
		{"add numbers", "1 + 2.5", "null", "[3.5]"},
		{"add strings", `"a" + "b"`, "null", `["ab"]`},
		{"add arrays", "[1] + [2,3]", "null", "[[1,2,3]]"},
		{"add objects right wins", `{"a":1,"b":1} + {"b":2}`, "null", `[{"a":1,"b":2}]`},
		{"null left identity", "null + 5", "null", "[5]"},
		{"null right identity", "[1] + null", "null", "[[1]]"},
		{"subtract", "7 - 2", "null", "[5]"},
		{"array multiset difference", "[1,1,2] - [1]", "null", "[[1,2]]"},
		{"multiply", "6 * 7", "null", "[42]"},
		{"string repeat", `"ab" * 3`, "null", `["ababab"]`},
		{"string repeat zero", `"ab" * 0`, "null", "[null]"},
		{"object deep merge", `{"a":{"x":1,"y":1}} * {"a":{"y":2}}`, "null", `[{"a":{"x":1,"y":2}}]`},
		{"divide", "10 / 4", "null", "[2.5]"},
		{"string split", `"a,b,c" / ","`, "null", `[["a","b","c"]]`},
		{"modulo", "7 % 3", "null", "[1]"},
		{"modulo truncates", "7.9 % 3", "null", "[1]"},
		{"negate", "-(1, 2)", "null", "[-1,-2]"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := runEnc(t, tt.source, tt.input); got != tt.want {
				t.Errorf("Run(%q) = %s, want %s", tt.source, got, tt.want)
			}
		})
	}
}

func TestEvalArithmeticFaults(t *testing.T) {
	tests := []struct {
		name   string
		source string
		kind   types.ErrorKind
	}{
		{"divide by zero", "1 / 0", types.ErrArith},
		{"modulo by zero", "1 % 0", types.ErrArith},
		{"add number and string", `1 + "a"`, types.ErrType},
		{"subtract strings", `"a" - "b"`, types.ErrType},
		{"negate string", `-"a"`, types.ErrType},
		{"iterate number", "5 | .[]", types.ErrType},
		{"index number", "5 | .foo", types.ErrType},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if kind := runKind(t, tt.source, "null"); kind != tt.kind {
				t.Errorf("kind = %s, want %s", kind, tt.kind)
			}
		})
	}
}

func TestEvalComparisons(t *testing.T) {
	tests := []struct {
		source string
		want   string
	}{
		{"1 < 2", "[true]"},
		{"2 <= 2", "[true]"},
		{"1 > 2", "[false]"},
		{`"a" < "b"`, "[true]"},
		{"[1,2] < [1,3]", "[true]"},
		{"null < false", "[true]"},
		{`1 < "a"`, "[true]"},
		{"{} > []", "[true]"},
		{"1 == 1.0", "[true]"},
		{`[1,{"a":2}] == [1,{"a":2}]`, "[true]"},
		{"1 != 2", "[true]"},
		{`1 == "1"`, "[false]"},
	}
	for _, tt := range tests {
		t.Run(tt.source, func(t *testing.T) {
			if got := runEnc(t, tt.source, "null"); got != tt.want {
				t.Errorf("Run(%q) = %s, want %s", tt.source, got, tt.want)
			}
		})
	}
}

func TestEvalAlternative(t *testing.T) {
	tests := []struct {
		name   string
		source string
		input  string
		want   string
	}{
		{"null falls back", `null // "d"`, "null", `["d"]`},
		{"false falls back", `false // "d"`, "null", `["d"]`},
		{"truthy passes", `0 // "d"`, "null", "[0]"},
		{"stream keeps truthy", `(false, 1, null, 2) // 3`, "null", "[1,2]"},
		{"empty falls back", "empty // 3", "null", "[3]"},
		{"missing field", ".a.b // 42", `{}`, "[42]"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := runEnc(t, tt.source, tt.input); got != tt.want {
				t.Errorf("Run(%q) = %s, want %s", tt.source, got, tt.want)
			}
		})
	}
}

func TestEvalAlternativeDoesNotSuppressErrors(t *testing.T) {
	if kind := runKind(t, `error("boom") // 1`, "null"); kind != types.ErrUser {
		t.Errorf("kind = %s, want user", kind)
	}
}

func TestEvalBooleans(t *testing.T) {
	tests := []struct {
		source string
		want   string
	}{
		{"true and true", "[true]"},
		{"true and false", "[false]"},
		{"false or true", "[true]"},
		{"null or false", "[false]"},
		{"0 and true", "[true]"},
		{`"" or false`, "[true]"},
	}
	for _, tt := range tests {
		t.Run(tt.source, func(t *testing.T) {
			if got := runEnc(t, tt.source, "null"); got != tt.want {
				t.Errorf("Run(%q) = %s, want %s", tt.source, got, tt.want)
			}
		})
	}
}

func TestEvalBooleanShortCircuit(t *testing.T) {
	// The right side must not run when the left decides the outcome.
	if got := runEnc(t, `true or error("x")`, "null"); got != "[true]" {
		t.Errorf("or short circuit = %s", got)
	}
	if got := runEnc(t, `false and error("x")`, "null"); got != "[false]" {
		t.Errorf("and short circuit = %s", got)
	}
	if got := runEnc(t, "(true, false) and true", "null"); got != "[true,false]" {
		t.Errorf("boolean stream = %s", got)
	}
}

func TestEvalNot(t *testing.T) {
	if got := runEnc(t, "true | not", "null"); got != "[false]" {
		t.Errorf("not = %s", got)
	}
	if got := runEnc(t, "[.[] | not]", "[null,false,0]"); got != "[[true,true,false]]" {
		t.Errorf("mapped not = %s", got)
	}
}

func TestEvalIf(t *testing.T) {
	tests := []struct {
		name   string
		source string
		input  string
		want   string
	}{
		{"then branch", "if . > 1 then \"big\" else \"small\" end", "5", `["big"]`},
		{"else branch", "if . > 1 then \"big\" else \"small\" end", "0", `["small"]`},
		{"elif chain", "if . == 1 then \"a\" elif . == 2 then \"b\" else \"c\" end", "2", `["b"]`},
		{"missing else passes input", "if false then 1 end", "7", "[7]"},
		{"condition stream", "if (true, false) then \"t\" else \"f\" end", "null", `["t","f"]`},
		{"zero is truthy", "if 0 then \"t\" else \"f\" end", "null", `["t"]`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := runEnc(t, tt.source, tt.input); got != tt.want {
				t.Errorf("Run(%q) = %s, want %s", tt.source, got, tt.want)
			}
		})
	}
}

func TestEvalVariableBinding(t *testing.T) {
	tests := []struct {
		name   string
		source string
		input  string
		want   string
	}{
		{"simple bind", ". as $x | $x + $x", "3", "[6]"},
		{"body keeps input", ".a as $x | .b + $x", `{"a":1,"b":10}`, "[11]"},
		{"stream bind", "(1,2) as $x | $x * 10", "null", "[10,20]"},
		{"term level bind", ".a + 1 as $x | $x", `{"a":41}`, "[42]"},
		{"shadowing", "1 as $x | 2 as $x | $x", "null", "[2]"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := runEnc(t, tt.source, tt.input); got != tt.want {
				t.Errorf("Run(%q) = %s, want %s", tt.source, got, tt.want)
			}
		})
	}
}

func TestEvalUnboundVariable(t *testing.T) {
	if kind := runKind(t, "$nope", "null"); kind != types.ErrUnbound {
		t.Errorf("kind = %s, want unbound", kind)
	}
}

func TestEvalFunctions(t *testing.T) {
	tests := []struct {
		name   string
		source string
		input  string
		want   string
	}{
		{"zero arity", "def double: . * 2; double", "21", "[42]"},
		{"rest of program", "def inc: . + 1; .a | inc | inc", `{"a":1}`, "[3]"},
		{"filter argument", "def twice(f): f | f; twice(. + 1)", "3", "[5]"},
		{"generator argument", "def dup(f): [f, f]; dup(1, 2)", "null", "[[1,2,1,2]]"},
		{"argument sees call site", ". as $x | def get: $x; 99 | get", "7", "[7]"},
		{"recursion", "def fact: if . <= 1 then 1 else . * (. - 1 | fact) end; fact", "5", "[120]"},
		{"shadow builtin", "def length: 99; length", `"abcdef"`, "[99]"},
		{"same name different arity", "def f: 1; def f(g): [g, f]; f(5)", "null", "[[5,1]]"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := runEnc(t, tt.source, tt.input); got != tt.want {
				t.Errorf("Run(%q) = %s, want %s", tt.source, got, tt.want)
			}
		})
	}
}

func TestEvalReduceForeach(t *testing.T) {
	tests := []struct {
		name   string
		source string
		input  string
		want   string
	}{
		{"reduce sum", "reduce .[] as $x (0; . + $x)", "[1,2,3]", "[6]"},
		{"reduce empty source", "reduce .[] as $x (10; . + $x)", "[]", "[10]"},
		{"reduce builds object", `reduce .[] as $x ({}; . + {($x): true})`, `["a","b"]`,
			`[{"a":true,"b":true}]`},
		{"foreach running sum", "foreach .[] as $x (0; . + $x)", "[1,2,3]", "[1,3,6]"},
		{"foreach with extract", "foreach .[] as $x (0; . + $x; [$x, .])", "[1,2]",
			"[[1,1],[2,3]]"},
		{"foreach empty source", "foreach .[] as $x (0; . + $x)", "[]", "[]"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := runEnc(t, tt.source, tt.input); got != tt.want {
				t.Errorf("Run(%q) = %s, want %s", tt.source, got, tt.want)
			}
		})
	}
}

func TestEvalTryCatch(t *testing.T) {
	tests := []struct {
		name   string
		source string
		input  string
		want   string
	}{
		{"catch user error", `try error("boom") catch .`, "null", `["boom"]`},
		{"catch type error", "try (5 | .[]) catch \"caught\"", "null", `["caught"]`},
		{"no error passes through", "try (1, 2) catch 99", "null", "[1,2]"},
		{"partial stream then catch", `try (1, error("x")) catch "c"`, "null", `[1,"c"]`},
		{"try without handler", `try error("x")`, "null", "[]"},
		{"optional postfix", ".foo?", "5", "[]"},
		{"optional iterate", ".[]?", "5", "[]"},
		{"non-string error value", `try error({a: 1}) catch .`, "null", `["{\"a\":1}"]`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := runEnc(t, tt.source, tt.input); got != tt.want {
				t.Errorf("Run(%q) = %s, want %s", tt.source, got, tt.want)
			}
		})
	}
}

func TestEvalLabelBreak(t *testing.T) {
	if got := runEnc(t, "[label $out | (1,2,3) | if . == 2 then break $out else . end]", "null"); got != "[[1]]" {
		t.Errorf("label/break = %s", got)
	}
	// A break with no matching label is a fault at the driver.
	if kind := runKind(t, "break $out", "null"); kind != types.ErrUnbound {
		t.Errorf("kind = %s, want unbound", kind)
	}
	// Inner labels do not catch outer breaks.
	got := runEnc(t, "[label $a | (label $b | break $a), 9]", "null")
	if got != "[[]]" {
		t.Errorf("nested labels = %s", got)
	}
}

func TestEvalStringInterpolation(t *testing.T) {
	tests := []struct {
		name   string
		source string
		input  string
		want   string
	}{
		{"number embed", `"x\(1 + 2)y"`, "null", `["x3y"]`},
		{"string embed unquoted", `"hi \(.name)"`, `{"name":"bob"}`, `["hi bob"]`},
		{"value embed encodes", `"\(.a)"`, `{"a":[1,2]}`, `["[1,2]"]`},
		{"stream embed fans out", `"n=\(1,2)"`, "null", `["n=1","n=2"]`},
		{"two embeds product", `"\(1,2)-\(3,4)"`, "null", `["1-3","1-4","2-3","2-4"]`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := runEnc(t, tt.source, tt.input); got != tt.want {
				t.Errorf("Run(%q) = %s, want %s", tt.source, got, tt.want)
			}
		})
	}
}

func TestEvalGlobalsFromOptions(t *testing.T) {
	got := runEnc(t, `$who + "!"`, "null", WithVars(map[string]any{"who": "world"}))
	if got != `["world!"]` {
		t.Errorf("globals = %s", got)
	}
}

func TestEvalDeterministicObjectOrder(t *testing.T) {
	// Object iteration must be in lexicographic key order every run.
	for i := 0; i < 20; i++ {
		got := runEnc(t, "[.[]]", `{"z":1,"a":2,"m":3,"b":4}`)
		if got != "[[2,4,3,1]]" {
			t.Fatalf("iteration %d: %s", i, got)
		}
	}
}
