package macro

import (
	"math"
	"strconv"
	"strings"

	"github.com/leapstack-labs/leapmacro/pkg/codegen"
)

// Source renders v as a JavaScript expression that evaluates to v.
func Source(v Value) string {
	var b strings.Builder
	writeSource(&b, v)
	return b.String()
}

func writeSource(b *strings.Builder, v Value) {
	switch v := v.(type) {
	case nil, Undefined:
		// undefined can be shadowed, void 0 cannot
		b.WriteString("void 0")
	case Null:
		b.WriteString("null")
	case Bool:
		b.WriteString(strconv.FormatBool(bool(v)))
	case Number:
		f := float64(v)
		switch {
		case f == 0 && math.Signbit(f):
			// FormatNumber drops the sign of zero
			b.WriteString("-0")
		case math.IsNaN(f):
			b.WriteString("NaN")
		default:
			b.WriteString(FormatNumber(f))
		}
	case String:
		b.WriteString(Quote(string(v)))
	case BigInt:
		b.WriteString(v.Int.String())
		b.WriteByte('n')
	case RegExp:
		b.WriteByte('/')
		b.WriteString(v.Pattern)
		b.WriteByte('/')
		b.WriteString(v.Flags)
	case *Array:
		b.WriteByte('[')
		for i, e := range v.Elems {
			if i > 0 {
				b.WriteString(", ")
			}
			writeSource(b, e)
		}
		b.WriteByte(']')
	case *Object:
		if v.Len() == 0 {
			b.WriteString("{}")
			return
		}
		b.WriteString("{ ")
		for i, k := range v.keys {
			if i > 0 {
				b.WriteString(", ")
			}
			// Keys stay in insertion order
			if IsIdentifierName(k) {
				b.WriteString(k)
			} else {
				b.WriteString(Quote(k))
			}
			b.WriteString(": ")
			writeSource(b, v.values[k])
		}
		b.WriteString(" }")
	case Raw:
		b.WriteString(string(v))
	}
}

// Quote returns s as a double-quoted JavaScript string literal.
func Quote(s string) string {
	return codegen.Quote(s)
}

// IsIdentifierName reports whether s can be written as an unquoted key.
func IsIdentifierName(s string) bool {
	if s == "" {
		return false
	}
	for i, c := range s {
		switch {
		case c == '$' || c == '_':
		case c >= 'a' && c <= 'z' || c >= 'A' && c <= 'Z':
		case c >= '0' && c <= '9' && i > 0:
		default:
			return false
		}
	}
	return true
}
