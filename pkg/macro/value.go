package macro

import (
	"math"
	"math/big"
	"strconv"
	"strings"
	"unicode/utf16"
)

// Value is a statically evaluated JavaScript value. The set of
// implementations is closed.
type Value interface {
	// TypeOf returns the result of the typeof operator.
	TypeOf() string
	value()
}

// Undefined is the undefined value.
type Undefined struct{}

// Null is the null value.
type Null struct{}

// Bool is a boolean.
type Bool bool

// Number is an IEEE 754 double.
type Number float64

// String is a string. Go strings hold UTF-8; lengths and indexes follow
// JavaScript's UTF-16 code units.
type String string

// BigInt is an arbitrary precision integer.
type BigInt struct {
	Int *big.Int
}

// RegExp is a regular expression literal.
type RegExp struct {
	Pattern string
	Flags   string
}

// Array is an ordered list of values.
type Array struct {
	Elems []Value
}

// Object is a plain object with keys in insertion order.
type Object struct {
	keys   []string
	values map[string]Value
}

// Raw is verbatim JavaScript code. Hosts use it for results that are not
// plain data.
type Raw string

func (Undefined) TypeOf() string { return "undefined" }
func (Null) TypeOf() string      { return "object" }
func (Bool) TypeOf() string      { return "boolean" }
func (Number) TypeOf() string    { return "number" }
func (String) TypeOf() string    { return "string" }
func (BigInt) TypeOf() string    { return "bigint" }
func (RegExp) TypeOf() string    { return "object" }
func (*Array) TypeOf() string    { return "object" }
func (*Object) TypeOf() string   { return "object" }
func (Raw) TypeOf() string       { return "object" }

func (Undefined) value() {}
func (Null) value()      {}
func (Bool) value()      {}
func (Number) value()    {}
func (String) value()    {}
func (BigInt) value()    {}
func (RegExp) value()    {}
func (*Array) value()    {}
func (*Object) value()   {}
func (Raw) value()       {}

// NewBigInt parses a bigint literal with or without its trailing n.
func NewBigInt(raw string) (BigInt, bool) {
	raw = strings.TrimSuffix(strings.ReplaceAll(raw, "_", ""), "n")
	n, ok := new(big.Int).SetString(raw, 0)
	if !ok {
		return BigInt{}, false
	}
	return BigInt{Int: n}, true
}

// NewArray creates an array of elems.
func NewArray(elems ...Value) *Array {
	return &Array{Elems: elems}
}

// NewObject creates an empty object.
func NewObject() *Object {
	return &Object{values: make(map[string]Value)}
}

// Set assigns key. A new key is appended to the key order; an existing key
// keeps its position.
func (o *Object) Set(key string, v Value) {
	if o.values == nil {
		o.values = make(map[string]Value)
	}
	if _, ok := o.values[key]; !ok {
		o.keys = append(o.keys, key)
	}
	o.values[key] = v
}

// Get returns the value of key.
func (o *Object) Get(key string) (Value, bool) {
	v, ok := o.values[key]
	return v, ok
}

// Keys returns the keys in insertion order.
func (o *Object) Keys() []string {
	return append([]string(nil), o.keys...)
}

// Len returns the number of keys.
func (o *Object) Len() int {
	return len(o.keys)
}

// ---------- Conversions ----------

// Truthy implements ToBoolean.
func Truthy(v Value) bool {
	switch v := v.(type) {
	case Undefined, Null:
		return false
	case Bool:
		return bool(v)
	case Number:
		f := float64(v)
		return f != 0 && !math.IsNaN(f)
	case String:
		return v != ""
	case BigInt:
		return v.Int.Sign() != 0
	}
	return true
}

// ToNumber implements ToNumber for primitives. Objects, arrays and bigints
// report false.
func ToNumber(v Value) (float64, bool) {
	switch v := v.(type) {
	case Undefined:
		return math.NaN(), true
	case Null:
		return 0, true
	case Bool:
		if v {
			return 1, true
		}
		return 0, true
	case Number:
		return float64(v), true
	case String:
		return stringToNumber(string(v)), true
	}
	return 0, false
}

func stringToNumber(s string) float64 {
	s = strings.TrimSpace(s)
	switch s {
	case "":
		return 0
	case "Infinity", "+Infinity":
		return math.Inf(1)
	case "-Infinity":
		return math.Inf(-1)
	}
	if len(s) > 2 && s[0] == '0' {
		base := 0
		switch s[1] {
		case 'x', 'X':
			base = 16
		case 'o', 'O':
			base = 8
		case 'b', 'B':
			base = 2
		}
		if base != 0 {
			n, err := strconv.ParseUint(s[2:], base, 64)
			if err != nil {
				return math.NaN()
			}
			return float64(n)
		}
	}
	for _, c := range s {
		if !(c >= '0' && c <= '9' || c == '.' || c == 'e' || c == 'E' || c == '+' || c == '-') {
			return math.NaN()
		}
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return math.NaN()
	}
	return f
}

// ToString implements ToString. Raw code has no string value and reports false.
func ToString(v Value) (string, bool) {
	switch v := v.(type) {
	case Undefined:
		return "undefined", true
	case Null:
		return "null", true
	case Bool:
		if v {
			return "true", true
		}
		return "false", true
	case Number:
		return FormatNumber(float64(v)), true
	case String:
		return string(v), true
	case BigInt:
		return v.Int.String(), true
	case RegExp:
		return "/" + v.Pattern + "/" + v.Flags, true
	case *Array:
		parts := make([]string, len(v.Elems))
		for i, e := range v.Elems {
			switch e.(type) {
			case Undefined, Null:
			default:
				s, ok := ToString(e)
				if !ok {
					return "", false
				}
				parts[i] = s
			}
		}
		return strings.Join(parts, ","), true
	case *Object:
		return "[object Object]", true
	}
	return "", false
}

// FormatNumber renders f the way Number.prototype.toString does.
func FormatNumber(f float64) string {
	switch {
	case math.IsNaN(f):
		return "NaN"
	case math.IsInf(f, 1):
		return "Infinity"
	case math.IsInf(f, -1):
		return "-Infinity"
	case f == 0:
		return "0"
	}
	abs := math.Abs(f)
	if abs >= 1e-6 && abs < 1e21 {
		return strconv.FormatFloat(f, 'f', -1, 64)
	}
	s := strconv.FormatFloat(f, 'e', -1, 64)
	mant, exp, _ := strings.Cut(s, "e")
	sign := exp[:1]
	exp = strings.TrimLeft(exp[1:], "0")
	return mant + "e" + sign + exp
}

// utf16Units returns s as UTF-16 code units.
func utf16Units(s string) []uint16 {
	return utf16.Encode([]rune(s))
}

// StringLength returns the JavaScript length of s.
func StringLength(s string) int {
	return len(utf16Units(s))
}
