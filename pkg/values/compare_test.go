package values

import (
	"math"
	"testing"
)

func TestCompareTypeOrder(t *testing.T) {
	// null < false < true < number < string < array < object
	ordered := []any{
		nil,
		false,
		true,
		float64(0),
		"",
		[]any{},
		map[string]any{},
	}
	for i := range ordered {
		for j := range ordered {
			got := Compare(ordered[i], ordered[j])
			want := sign(i - j)
			if got != want {
				t.Errorf("Compare(%v, %v) = %d, want %d", ordered[i], ordered[j], got, want)
			}
		}
	}
}

func TestCompareWithinType(t *testing.T) {
	tests := []struct {
		name string
		a, b any
		want int
	}{
		{"numbers", float64(1), float64(2), -1},
		{"strings codepoint", "Z", "a", -1},
		{"strings equal", "ab", "ab", 0},
		{"array elementwise", []any{1.0, 2.0}, []any{1.0, 3.0}, -1},
		{"array prefix shorter", []any{1.0}, []any{1.0, 0.0}, -1},
		{"objects by keys", map[string]any{"a": 1.0}, map[string]any{"b": 0.0}, -1},
		{"objects same keys by values", map[string]any{"a": 1.0}, map[string]any{"a": 2.0}, -1},
		{"objects key count", map[string]any{"a": 1.0}, map[string]any{"a": 1.0, "b": 2.0}, -1},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Compare(tt.a, tt.b); got != tt.want {
				t.Errorf("Compare = %d, want %d", got, tt.want)
			}
			if got := Compare(tt.b, tt.a); got != -tt.want {
				t.Errorf("reverse Compare = %d, want %d", got, -tt.want)
			}
		})
	}
}

func TestEqual(t *testing.T) {
	if !Equal([]any{1.0, "a"}, []any{1.0, "a"}) {
		t.Error("equal arrays compared unequal")
	}
	if Equal(float64(1), "1") {
		t.Error("number equals string")
	}
	if Equal(nil, false) {
		t.Error("null equals false")
	}
}

func TestEqualNaN(t *testing.T) {
	nan := math.NaN()
	if Equal(nan, nan) {
		t.Error("NaN compared equal to NaN")
	}
	if Equal(nan, float64(1)) {
		t.Error("NaN compared equal to 1")
	}
}
