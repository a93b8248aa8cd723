package values

import (
	"math"
	"strconv"
	"strings"
)

// Encode renders a value in the canonical JSON form used by tostring and the
// output drivers: object keys in lexicographic order, no insignificant
// whitespace, numbers in the shortest round-trippable decimal form.
//
// Non-finite numbers have no JSON spelling; NaN encodes as null and
// infinities clamp to the largest finite double, following jq.
func Encode(v any) string {
	var sb strings.Builder
	encodeValue(&sb, v)
	return sb.String()
}

func encodeValue(sb *strings.Builder, v any) {
	switch x := v.(type) {
	case nil:
		sb.WriteString("null")
	case bool:
		if x {
			sb.WriteString("true")
		} else {
			sb.WriteString("false")
		}
	case float64:
		sb.WriteString(EncodeNumber(x))
	case string:
		encodeString(sb, x)
	case []any:
		sb.WriteByte('[')
		for i, item := range x {
			if i > 0 {
				sb.WriteByte(',')
			}
			encodeValue(sb, item)
		}
		sb.WriteByte(']')
	case map[string]any:
		sb.WriteByte('{')
		for i, k := range SortedKeys(x) {
			if i > 0 {
				sb.WriteByte(',')
			}
			encodeString(sb, k)
			sb.WriteByte(':')
			encodeValue(sb, x[k])
		}
		sb.WriteByte('}')
	}
}

// EncodeNumber renders a number the way jq prints it: integral values within
// the exactly-representable range print without a fractional part.
func EncodeNumber(f float64) string {
	switch {
	case math.IsNaN(f):
		return "null"
	case math.IsInf(f, 1):
		return strconv.FormatFloat(math.MaxFloat64, 'g', -1, 64)
	case math.IsInf(f, -1):
		return strconv.FormatFloat(-math.MaxFloat64, 'g', -1, 64)
	case f == math.Trunc(f) && math.Abs(f) < 1e17:
		return strconv.FormatFloat(f, 'f', -1, 64)
	default:
		return strconv.FormatFloat(f, 'g', -1, 64)
	}
}

const hexDigits = "0123456789abcdef"

// encodeString writes a JSON string literal. Control characters escape as
// \uXXXX; everything else passes through as UTF-8.
func encodeString(sb *strings.Builder, s string) {
	sb.WriteByte('"')
	for i := 0; i < len(s); i++ {
		c := s[i]
		switch {
		case c == '"':
			sb.WriteString(`\"`)
		case c == '\\':
			sb.WriteString(`\\`)
		case c == '\n':
			sb.WriteString(`\n`)
		case c == '\r':
			sb.WriteString(`\r`)
		case c == '\t':
			sb.WriteString(`\t`)
		case c == '\b':
			sb.WriteString(`\b`)
		case c == '\f':
			sb.WriteString(`\f`)
		case c < 0x20:
			sb.WriteString(`\u00`)
			sb.WriteByte(hexDigits[c>>4])
			sb.WriteByte(hexDigits[c&0xf])
		default:
			sb.WriteByte(c)
		}
	}
	sb.WriteByte('"')
}
