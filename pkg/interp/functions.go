package interp

import (
	"sync"

	"github.com/gabrielbryk/jqsand/pkg/types"
)

// builtinImpl implements one builtin function. It receives the evaluation
// for resource accounting and argument evaluation, and the call site.
type builtinImpl func(ev *evaluation, c *call) error

// call is one builtin invocation: the call node (for argument ASTs and the
// span), the input value, the call-site environment, and the output sink.
type call struct {
	node  *types.ASTNode
	input any
	env   *Env
	emit  emitFn
}

func (c *call) span() types.Span {
	return c.node.Span
}

func (c *call) arg(i int) *types.ASTNode {
	return c.node.Args[i]
}

// evalArg evaluates argument i as a filter against the given input.
func (ev *evaluation) evalArg(c *call, i int, input any, emit emitFn) error {
	return ev.eval(c.arg(i), input, c.env, emit)
}

// argValues collects all outputs of argument i evaluated against the call's
// input.
func (ev *evaluation) argValues(c *call, i int) ([]any, error) {
	return ev.collect(c.arg(i), c.input, c.env)
}

// argOne evaluates argument i, which must produce exactly one value.
func (ev *evaluation) argOne(c *call, i int) (any, error) {
	return ev.evalOne(c.arg(i), c.input, c.env, c.span())
}

var (
	builtinsOnce sync.Once
	builtins     map[funcKey]builtinImpl
)

// lookupBuiltin resolves a builtin by name and arity.
func lookupBuiltin(name string, arity int) (builtinImpl, bool) {
	initBuiltins()
	impl, ok := builtins[funcKey{name: name, arity: arity}]
	return impl, ok
}

// builtinExists reports whether any builtin carries the name, at any arity.
func builtinExists(name string) bool {
	initBuiltins()
	for key := range builtins {
		if key.name == name {
			return true
		}
	}
	return false
}

func initBuiltins() {
	builtinsOnce.Do(func() {
		builtins = map[funcKey]builtinImpl{
			// Types and conversions
			{"type", 0}:           fnType,
			{"tostring", 0}:       fnToString,
			{"tonumber", 0}:       fnToNumber,
			{"toboolean", 0}:      fnToBoolean,
			{"length", 0}:         fnLength,
			{"utf8bytelength", 0}: fnUTF8ByteLength,
			{"not", 0}:            fnNot,
			{"empty", 0}:          fnEmpty,
			{"error", 0}:          fnError0,
			{"error", 1}:          fnError1,
			{"isnan", 0}:          fnIsNaN,
			{"isinfinite", 0}:     fnIsInfinite,
			{"isfinite", 0}:       fnIsFinite,
			{"infinite", 0}:       fnInfinite,
			{"nan", 0}:            fnNaN,
			{"isnormal", 0}:       fnIsNormal,
			{"tojson", 0}:         fnToJSON,
			{"fromjson", 0}:       fnFromJSON,

			// Objects
			{"keys", 0}:          fnKeys,
			{"keys_unsorted", 0}: fnKeys,
			{"values", 0}:        fnValues,
			{"has", 1}:           fnHas,
			{"in", 1}:            fnIn,
			{"contains", 1}:      fnContains,
			{"inside", 1}:        fnInside,
			{"to_entries", 0}:    fnToEntries,
			{"from_entries", 0}:  fnFromEntries,
			{"with_entries", 1}:  fnWithEntries,
			{"del", 1}:           fnDel,

			// Arrays
			{"map", 1}:          fnMap,
			{"map_values", 1}:   fnMapValues,
			{"select", 1}:       fnSelect,
			{"add", 0}:          fnAdd,
			{"sort", 0}:         fnSort,
			{"sort_by", 1}:      fnSortBy,
			{"group_by", 1}:     fnGroupBy,
			{"unique", 0}:       fnUnique,
			{"unique_by", 1}:    fnUniqueBy,
			{"min", 0}:          fnMin,
			{"max", 0}:          fnMax,
			{"min_by", 1}:       fnMinBy,
			{"max_by", 1}:       fnMaxBy,
			{"reverse", 0}:      fnReverse,
			{"flatten", 0}:      fnFlatten0,
			{"flatten", 1}:      fnFlatten1,
			{"transpose", 0}:    fnTranspose,
			{"bsearch", 1}:      fnBSearch,
			{"combinations", 0}: fnCombinations0,
			{"combinations", 1}: fnCombinations1,
			{"indices", 1}:      fnIndices,
			{"index", 1}:        fnIndex,
			{"rindex", 1}:       fnRIndex,
			{"range", 1}:        fnRange1,
			{"range", 2}:        fnRange2,
			{"range", 3}:        fnRange3,

			// Strings
			{"split", 1}:          fnSplit,
			{"join", 1}:           fnJoin,
			{"ascii_downcase", 0}: fnASCIIDowncase,
			{"ascii_upcase", 0}:   fnASCIIUpcase,
			{"explode", 0}:        fnExplode,
			{"implode", 0}:        fnImplode,
			{"ltrimstr", 1}:       fnLTrimStr,
			{"rtrimstr", 1}:       fnRTrimStr,
			{"startswith", 1}:     fnStartsWith,
			{"endswith", 1}:       fnEndsWith,

			// Paths
			{"path", 1}:       fnPath,
			{"paths", 0}:      fnPaths,
			{"leaf_paths", 0}: fnPaths,
			{"getpath", 1}:    fnGetPath,
			{"setpath", 2}:    fnSetPath,
			{"delpaths", 1}:   fnDelPaths,
			{"walk", 1}:       fnWalk,

			// Generators and control
			{"recurse", 0}: fnRecurse0,
			{"recurse", 1}: fnRecurse1,
			{"limit", 2}:   fnLimit,
			{"first", 1}:   fnFirst,
			{"first", 0}:   fnFirst0,
			{"last", 1}:    fnLast,
			{"last", 0}:    fnLast0,
			{"nth", 2}:     fnNth,
			{"nth", 1}:     fnNth1,
			{"until", 2}:   fnUntil,
			{"while", 2}:   fnWhile,
			{"repeat", 1}:  fnRepeat,
			{"isempty", 1}: fnIsEmpty,
			{"any", 0}:     fnAny0,
			{"any", 1}:     fnAny1,
			{"all", 0}:     fnAll0,
			{"all", 1}:     fnAll1,

			// Math
			{"floor", 0}: fnFloor,
			{"ceil", 0}:  fnCeil,
			{"round", 0}: fnRound,
			{"fabs", 0}:  fnFabs,
			{"abs", 0}:   fnFabs,
			{"sqrt", 0}:  fnSqrt,
			{"pow", 2}:   fnPow,
			{"log", 0}:   fnLog,
			{"log2", 0}:  fnLog2,
			{"log10", 0}: fnLog10,
			{"exp", 0}:   fnExp,
			{"exp2", 0}:  fnExp2,
			{"exp10", 0}: fnExp10,
		}
	})
}
