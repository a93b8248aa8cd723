package values

// typeRank orders values by type: null < false < true < number < string <
// array < object. Booleans get two ranks so the whole order collapses to a
// single integer comparison per value pair.
func typeRank(v any) int {
	switch x := v.(type) {
	case nil:
		return 0
	case bool:
		if x {
			return 2
		}
		return 1
	case float64:
		return 3
	case string:
		return 4
	case []any:
		return 5
	case map[string]any:
		return 6
	default:
		return 7
	}
}

// Compare implements the total order used by every comparison and sort:
// values of different types order by type rank; within a rank, numbers by <,
// strings by code-point order, arrays element-wise with the shorter prefix
// first, objects by their sorted key sequence and then by the values at each
// key. Returns -1, 0 or 1.
func Compare(a, b any) int {
	ra, rb := typeRank(a), typeRank(b)
	if ra != rb {
		return sign(ra - rb)
	}

	switch av := a.(type) {
	case nil, bool:
		return 0
	case float64:
		bv := b.(float64)
		switch {
		case av < bv:
			return -1
		case av > bv:
			return 1
		default:
			return 0
		}
	case string:
		return compareStrings(av, b.(string))
	case []any:
		bv := b.([]any)
		for i := 0; i < len(av) && i < len(bv); i++ {
			if c := Compare(av[i], bv[i]); c != 0 {
				return c
			}
		}
		return sign(len(av) - len(bv))
	case map[string]any:
		bv := b.(map[string]any)
		ka, kb := SortedKeys(av), SortedKeys(bv)
		for i := 0; i < len(ka) && i < len(kb); i++ {
			if c := compareStrings(ka[i], kb[i]); c != 0 {
				return c
			}
		}
		if c := sign(len(ka) - len(kb)); c != 0 {
			return c
		}
		for _, k := range ka {
			if c := Compare(av[k], bv[k]); c != 0 {
				return c
			}
		}
		return 0
	default:
		return 0
	}
}

// Equal reports structural equality. Two NaN numbers compare unequal,
// matching IEEE-754 semantics.
func Equal(a, b any) bool {
	if fa, ok := a.(float64); ok {
		if fb, ok := b.(float64); ok {
			return fa == fb
		}
		return false
	}
	if _, ok := b.(float64); ok {
		return false
	}
	return typeRank(a) == typeRank(b) && Compare(a, b) == 0
}

// compareStrings compares by Unicode code point. Go's native string order is
// byte order, which coincides with code-point order for valid UTF-8.
func compareStrings(a, b string) int {
	switch {
	case a < b:
		return -1
	case a > b:
		return 1
	default:
		return 0
	}
}

func sign(n int) int {
	switch {
	case n < 0:
		return -1
	case n > 0:
		return 1
	default:
		return 0
	}
}
