package interp

import (
	"fmt"
	"sort"

	"github.com/gabrielbryk/jqsand/pkg/types"
	"github.com/gabrielbryk/jqsand/pkg/values"
)

// fnMap collects f applied to every element: [.[] | f]. Objects map their
// values in sorted key order.
func fnMap(ev *evaluation, c *call) error {
	out := []any{}
	err := ev.iterate(c.input, c.span(), func(e any) error {
		return ev.evalArg(c, 0, e, func(v any) error {
			out = append(out, v)
			return nil
		})
	})
	if err != nil {
		return err
	}
	return c.emit(out)
}

// fnMapValues rewrites each element through f's first output; elements for
// which f produces nothing are dropped.
func fnMapValues(ev *evaluation, c *call) error {
	switch in := c.input.(type) {
	case []any:
		out := make([]any, 0, len(in))
		for _, e := range in {
			if err := ev.tr.step(c.span()); err != nil {
				return err
			}
			v, ok, err := ev.firstOf(c, 0, e)
			if err != nil {
				return err
			}
			if ok {
				out = append(out, v)
			}
		}
		return c.emit(out)
	case map[string]any:
		out := make(map[string]any, len(in))
		for _, k := range values.SortedKeys(in) {
			if err := ev.tr.step(c.span()); err != nil {
				return err
			}
			v, ok, err := ev.firstOf(c, 0, in[k])
			if err != nil {
				return err
			}
			if ok {
				out[k] = v
			}
		}
		return c.emit(out)
	default:
		return types.NewError(types.ErrType,
			fmt.Sprintf("cannot map over %s", values.TypeName(c.input)), c.span())
	}
}

// firstOf evaluates argument i against input and reports its first output.
func (ev *evaluation) firstOf(c *call, i int, input any) (any, bool, error) {
	var out any
	found := false
	err := ev.evalArg(c, i, input, func(v any) error {
		out = v
		found = true
		return errTruncated{}
	})
	if _, ok := err.(errTruncated); err != nil && !ok {
		return nil, false, err
	}
	return out, found, nil
}

// fnSelect passes the input through once per truthy output of the
// condition.
func fnSelect(ev *evaluation, c *call) error {
	return ev.evalArg(c, 0, c.input, func(v any) error {
		if !values.Truthy(v) {
			return nil
		}
		return c.emit(c.input)
	})
}

// fnAdd folds + over the elements, starting from null: empty input sums to
// null.
func fnAdd(ev *evaluation, c *call) error {
	var acc any
	err := ev.iterate(c.input, c.span(), func(e any) error {
		var err error
		acc, err = addValues(acc, e, c.span())
		return err
	})
	if err != nil {
		return err
	}
	return c.emit(acc)
}

func arrayInput(c *call) ([]any, error) {
	arr, ok := c.input.([]any)
	if !ok {
		return nil, types.NewError(types.ErrType,
			fmt.Sprintf("array required, got %s", values.TypeName(c.input)), c.span())
	}
	return arr, nil
}

func fnSort(ev *evaluation, c *call) error {
	arr, err := arrayInput(c)
	if err != nil {
		return err
	}
	out := make([]any, len(arr))
	copy(out, arr)
	sort.SliceStable(out, func(i, j int) bool {
		return values.Compare(out[i], out[j]) < 0
	})
	return c.emit(out)
}

// sortKeys evaluates the key filter for every element, collecting all
// outputs per element into an array key.
func (ev *evaluation) sortKeys(c *call, arr []any) ([]any, error) {
	keys := make([]any, len(arr))
	for i, e := range arr {
		if err := ev.tr.step(c.span()); err != nil {
			return nil, err
		}
		ks, err := ev.collect(c.arg(0), e, c.env)
		if err != nil {
			return nil, err
		}
		keys[i] = anySlice(ks)
	}
	return keys, nil
}

func fnSortBy(ev *evaluation, c *call) error {
	arr, err := arrayInput(c)
	if err != nil {
		return err
	}
	keys, err := ev.sortKeys(c, arr)
	if err != nil {
		return err
	}
	idx := make([]int, len(arr))
	for i := range idx {
		idx[i] = i
	}
	sort.SliceStable(idx, func(i, j int) bool {
		return values.Compare(keys[idx[i]], keys[idx[j]]) < 0
	})
	out := make([]any, len(arr))
	for i, j := range idx {
		out[i] = arr[j]
	}
	return c.emit(out)
}

// fnGroupBy sorts by key, then groups adjacent elements with equal keys.
func fnGroupBy(ev *evaluation, c *call) error {
	arr, err := arrayInput(c)
	if err != nil {
		return err
	}
	keys, err := ev.sortKeys(c, arr)
	if err != nil {
		return err
	}
	idx := make([]int, len(arr))
	for i := range idx {
		idx[i] = i
	}
	sort.SliceStable(idx, func(i, j int) bool {
		return values.Compare(keys[idx[i]], keys[idx[j]]) < 0
	})
	out := []any{}
	var group []any
	for i, j := range idx {
		if i > 0 && values.Compare(keys[idx[i-1]], keys[j]) != 0 {
			out = append(out, group)
			group = nil
		}
		group = append(group, arr[j])
	}
	if group != nil {
		out = append(out, group)
	}
	return c.emit(out)
}

func fnUnique(ev *evaluation, c *call) error {
	arr, err := arrayInput(c)
	if err != nil {
		return err
	}
	sorted := make([]any, len(arr))
	copy(sorted, arr)
	sort.SliceStable(sorted, func(i, j int) bool {
		return values.Compare(sorted[i], sorted[j]) < 0
	})
	out := []any{}
	for i, e := range sorted {
		if i == 0 || values.Compare(sorted[i-1], e) != 0 {
			out = append(out, e)
		}
	}
	return c.emit(out)
}

// fnUniqueBy keeps the first element of each key group after a stable sort
// by key.
func fnUniqueBy(ev *evaluation, c *call) error {
	arr, err := arrayInput(c)
	if err != nil {
		return err
	}
	keys, err := ev.sortKeys(c, arr)
	if err != nil {
		return err
	}
	idx := make([]int, len(arr))
	for i := range idx {
		idx[i] = i
	}
	sort.SliceStable(idx, func(i, j int) bool {
		return values.Compare(keys[idx[i]], keys[idx[j]]) < 0
	})
	out := []any{}
	for i, j := range idx {
		if i == 0 || values.Compare(keys[idx[i-1]], keys[j]) != 0 {
			out = append(out, arr[j])
		}
	}
	return c.emit(out)
}

func fnMin(ev *evaluation, c *call) error {
	return ev.minMax(c, false, nil)
}

func fnMax(ev *evaluation, c *call) error {
	return ev.minMax(c, true, nil)
}

func fnMinBy(ev *evaluation, c *call) error {
	arr, err := arrayInput(c)
	if err != nil {
		return err
	}
	keys, err := ev.sortKeys(c, arr)
	if err != nil {
		return err
	}
	return ev.minMax(c, false, keys)
}

func fnMaxBy(ev *evaluation, c *call) error {
	arr, err := arrayInput(c)
	if err != nil {
		return err
	}
	keys, err := ev.sortKeys(c, arr)
	if err != nil {
		return err
	}
	return ev.minMax(c, true, keys)
}

// minMax picks the extreme element; keys, when non-nil, supply the ordering
// criterion per element. Empty input yields null. max takes the last of
// equal candidates, min the first, matching stable-sort endpoints.
func (ev *evaluation) minMax(c *call, max bool, keys []any) error {
	arr, err := arrayInput(c)
	if err != nil {
		return err
	}
	if len(arr) == 0 {
		return c.emit(nil)
	}
	key := func(i int) any {
		if keys != nil {
			return keys[i]
		}
		return arr[i]
	}
	best := 0
	for i := 1; i < len(arr); i++ {
		cmp := values.Compare(key(i), key(best))
		if max && cmp >= 0 || !max && cmp < 0 {
			best = i
		}
	}
	return c.emit(arr[best])
}

func fnReverse(ev *evaluation, c *call) error {
	switch v := c.input.(type) {
	case []any:
		out := make([]any, len(v))
		for i, e := range v {
			out[len(v)-1-i] = e
		}
		return c.emit(out)
	case nil:
		return c.emit([]any{})
	default:
		return types.NewError(types.ErrType,
			fmt.Sprintf("cannot reverse %s", values.TypeName(c.input)), c.span())
	}
}

func fnFlatten0(ev *evaluation, c *call) error {
	arr, err := arrayInput(c)
	if err != nil {
		return err
	}
	out, err := flattenTo(ev, arr, -1, c.span())
	if err != nil {
		return err
	}
	return c.emit(out)
}

func fnFlatten1(ev *evaluation, c *call) error {
	arr, err := arrayInput(c)
	if err != nil {
		return err
	}
	return ev.evalArg(c, 0, c.input, func(d any) error {
		f, ok := d.(float64)
		if !ok || f < 0 {
			return types.NewError(types.ErrType,
				"flatten depth must be a non-negative number", c.span())
		}
		out, err := flattenTo(ev, arr, int(f), c.span())
		if err != nil {
			return err
		}
		return c.emit(out)
	})
}

// flattenTo flattens nested arrays depth levels deep; depth < 0 flattens
// completely.
func flattenTo(ev *evaluation, arr []any, depth int, span types.Span) ([]any, error) {
	out := []any{}
	for _, e := range arr {
		if err := ev.tr.step(span); err != nil {
			return nil, err
		}
		if inner, ok := e.([]any); ok && depth != 0 {
			flat, err := flattenTo(ev, inner, depth-1, span)
			if err != nil {
				return nil, err
			}
			out = append(out, flat...)
			continue
		}
		out = append(out, e)
	}
	return out, nil
}

// fnTranspose transposes a matrix of rows, padding short rows with null.
func fnTranspose(ev *evaluation, c *call) error {
	rows, err := arrayInput(c)
	if err != nil {
		return err
	}
	width := 0
	for _, r := range rows {
		row, ok := r.([]any)
		if !ok {
			return types.NewError(types.ErrType,
				fmt.Sprintf("cannot transpose %s row", values.TypeName(r)), c.span())
		}
		if len(row) > width {
			width = len(row)
		}
	}
	out := make([]any, width)
	for i := 0; i < width; i++ {
		col := make([]any, len(rows))
		for j, r := range rows {
			row := r.([]any)
			if i < len(row) {
				col[j] = row[i]
			}
		}
		out[i] = col
	}
	return c.emit(out)
}

// fnBSearch searches a sorted array; a miss reports (-1 - insertion point).
func fnBSearch(ev *evaluation, c *call) error {
	arr, err := arrayInput(c)
	if err != nil {
		return err
	}
	return ev.evalArg(c, 0, c.input, func(target any) error {
		lo, hi := 0, len(arr)
		for lo < hi {
			mid := (lo + hi) / 2
			if values.Compare(arr[mid], target) < 0 {
				lo = mid + 1
			} else {
				hi = mid
			}
		}
		if lo < len(arr) && values.Compare(arr[lo], target) == 0 {
			return c.emit(float64(lo))
		}
		return c.emit(float64(-lo - 1))
	})
}

// fnCombinations0 streams the Cartesian product of an array of arrays.
func fnCombinations0(ev *evaluation, c *call) error {
	rows, err := arrayInput(c)
	if err != nil {
		return err
	}
	alphabets := make([][]any, len(rows))
	for i, r := range rows {
		row, ok := r.([]any)
		if !ok {
			return types.NewError(types.ErrType,
				fmt.Sprintf("combinations requires arrays, got %s", values.TypeName(r)), c.span())
		}
		alphabets[i] = row
	}
	return ev.combine(alphabets, c)
}

// fnCombinations1 streams the product of n copies of the input array.
func fnCombinations1(ev *evaluation, c *call) error {
	arr, err := arrayInput(c)
	if err != nil {
		return err
	}
	return ev.evalArg(c, 0, c.input, func(nv any) error {
		f, ok := nv.(float64)
		if !ok || f < 0 {
			return types.NewError(types.ErrType,
				"combinations count must be a non-negative number", c.span())
		}
		alphabets := make([][]any, int(f))
		for i := range alphabets {
			alphabets[i] = arr
		}
		return ev.combine(alphabets, c)
	})
}

func (ev *evaluation) combine(alphabets [][]any, c *call) error {
	pick := make([]any, len(alphabets))
	var walk func(i int) error
	walk = func(i int) error {
		if i == len(alphabets) {
			out := make([]any, len(pick))
			copy(out, pick)
			return c.emit(out)
		}
		for _, e := range alphabets[i] {
			if err := ev.tr.step(c.span()); err != nil {
				return err
			}
			pick[i] = e
			if err := walk(i + 1); err != nil {
				return err
			}
		}
		return nil
	}
	return walk(0)
}

// fnIndices reports every position at which the argument occurs in the
// input: substring positions (in code points, overlapping allowed) for
// strings, subsequence positions for an array argument, element positions
// for a scalar argument against an array.
func fnIndices(ev *evaluation, c *call) error {
	return ev.evalArg(c, 0, c.input, func(needle any) error {
		out, err := indicesOf(c.input, needle, c.span())
		if err != nil {
			return err
		}
		return c.emit(out)
	})
}

func fnIndex(ev *evaluation, c *call) error {
	return ev.evalArg(c, 0, c.input, func(needle any) error {
		hits, err := indicesOf(c.input, needle, c.span())
		if err != nil {
			return err
		}
		if len(hits) == 0 {
			return c.emit(nil)
		}
		return c.emit(hits[0])
	})
}

func fnRIndex(ev *evaluation, c *call) error {
	return ev.evalArg(c, 0, c.input, func(needle any) error {
		hits, err := indicesOf(c.input, needle, c.span())
		if err != nil {
			return err
		}
		if len(hits) == 0 {
			return c.emit(nil)
		}
		return c.emit(hits[len(hits)-1])
	})
}

func indicesOf(haystack, needle any, span types.Span) ([]any, error) {
	switch h := haystack.(type) {
	case nil:
		return nil, nil
	case string:
		n, ok := needle.(string)
		if !ok {
			return nil, types.NewError(types.ErrType,
				fmt.Sprintf("cannot search a string for %s", values.TypeName(needle)), span)
		}
		return substringIndices(h, n), nil
	case []any:
		if n, ok := needle.([]any); ok {
			return subsequenceIndices(h, n), nil
		}
		out := []any{}
		for i, e := range h {
			if values.Equal(e, needle) {
				out = append(out, float64(i))
			}
		}
		return out, nil
	default:
		return nil, types.NewError(types.ErrType,
			fmt.Sprintf("cannot search %s", values.TypeName(haystack)), span)
	}
}

func substringIndices(s, sub string) []any {
	out := []any{}
	if sub == "" {
		return out
	}
	rs, rsub := []rune(s), []rune(sub)
	for i := 0; i+len(rsub) <= len(rs); i++ {
		if string(rs[i:i+len(rsub)]) == sub {
			out = append(out, float64(i))
		}
	}
	return out
}

func subsequenceIndices(arr, sub []any) []any {
	out := []any{}
	if len(sub) == 0 {
		return out
	}
	for i := 0; i+len(sub) <= len(arr); i++ {
		match := true
		for j := range sub {
			if !values.Equal(arr[i+j], sub[j]) {
				match = false
				break
			}
		}
		if match {
			out = append(out, float64(i))
		}
	}
	return out
}
