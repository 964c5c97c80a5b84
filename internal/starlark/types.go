// Package starlark runs macro functions written in Starlark.
//
// It converts between macro values and Starlark values, provides the
// predeclared builtins available to macro modules, and binds a Starlark
// thread to the single goroutine that serves macro calls.
package starlark

import (
	"fmt"
	"math"
	"math/big"

	"go.starlark.net/starlark"
	"go.starlark.net/starlarkstruct"

	"github.com/leapstack-labs/leapmacro/pkg/macro"
)

// Struct constructors that mark values with no native Starlark type.
const (
	regexpConstructor = starlark.String("regexp")
	jsConstructor     = starlark.String("js")
)

// maxSafeInt is the largest integer a JavaScript number holds exactly.
const maxSafeInt = 1<<53 - 1

// NewRegExp returns the Starlark form of a regular expression literal.
func NewRegExp(pattern, flags string) starlark.Value {
	return starlarkstruct.FromStringDict(regexpConstructor, starlark.StringDict{
		"pattern": starlark.String(pattern),
		"flags":   starlark.String(flags),
	})
}

// NewJS returns the Starlark form of verbatim JavaScript code.
func NewJS(code string) starlark.Value {
	return starlarkstruct.FromStringDict(jsConstructor, starlark.StringDict{
		"code": starlark.String(code),
	})
}

// ToStarlark converts a macro argument to a Starlark value.
// undefined and null both become None.
func ToStarlark(v macro.Value) (starlark.Value, error) {
	switch val := v.(type) {
	case nil, macro.Undefined, macro.Null:
		return starlark.None, nil

	case macro.Bool:
		return starlark.Bool(val), nil

	case macro.Number:
		f := float64(val)
		if f == math.Trunc(f) && math.Abs(f) <= maxSafeInt && !(f == 0 && math.Signbit(f)) {
			return starlark.MakeInt64(int64(f)), nil
		}
		return starlark.Float(f), nil

	case macro.String:
		return starlark.String(val), nil

	case macro.BigInt:
		return starlark.MakeBigInt(val.Int), nil

	case macro.RegExp:
		return NewRegExp(val.Pattern, val.Flags), nil

	case macro.Raw:
		return NewJS(string(val)), nil

	case *macro.Array:
		list := make([]starlark.Value, len(val.Elems))
		for i, e := range val.Elems {
			sv, err := ToStarlark(e)
			if err != nil {
				return nil, fmt.Errorf("list index %d: %w", i, err)
			}
			list[i] = sv
		}
		return starlark.NewList(list), nil

	case *macro.Object:
		dict := starlark.NewDict(val.Len())
		for _, k := range val.Keys() {
			e, _ := val.Get(k)
			sv, err := ToStarlark(e)
			if err != nil {
				return nil, fmt.Errorf("dict key %q: %w", k, err)
			}
			if err := dict.SetKey(starlark.String(k), sv); err != nil {
				return nil, fmt.Errorf("dict setkey %q: %w", k, err)
			}
		}
		return dict, nil

	default:
		return nil, fmt.Errorf("unsupported type: %T", v)
	}
}

// FromStarlark converts a macro result back to a macro value.
// Integers beyond the exact range of a double become bigints.
func FromStarlark(v starlark.Value) (macro.Value, error) {
	switch val := v.(type) {
	case starlark.NoneType:
		return macro.Null{}, nil

	case starlark.Bool:
		return macro.Bool(val), nil

	case starlark.Int:
		if i64, ok := val.Int64(); ok && i64 >= -maxSafeInt && i64 <= maxSafeInt {
			return macro.Number(float64(i64)), nil
		}
		return macro.BigInt{Int: new(big.Int).Set(val.BigInt())}, nil

	case starlark.Float:
		return macro.Number(float64(val)), nil

	case starlark.String:
		return macro.String(val), nil

	case *starlark.List:
		return fromSequence(val, "list")

	case starlark.Tuple:
		return fromSequence(val, "tuple")

	case *starlark.Dict:
		obj := macro.NewObject()
		for _, item := range val.Items() {
			key, ok := item[0].(starlark.String)
			if !ok {
				return nil, fmt.Errorf("dict key must be string, got %s", item[0].Type())
			}
			mv, err := FromStarlark(item[1])
			if err != nil {
				return nil, fmt.Errorf("dict key %q: %w", key, err)
			}
			obj.Set(string(key), mv)
		}
		return obj, nil

	case *starlarkstruct.Struct:
		return fromStruct(val)

	default:
		return nil, fmt.Errorf("cannot return a value of type %s", v.Type())
	}
}

func fromSequence(seq starlark.Indexable, kind string) (macro.Value, error) {
	elems := make([]macro.Value, seq.Len())
	for i := range elems {
		mv, err := FromStarlark(seq.Index(i))
		if err != nil {
			return nil, fmt.Errorf("%s index %d: %w", kind, i, err)
		}
		elems[i] = mv
	}
	return macro.NewArray(elems...), nil
}

// fromStruct decodes regexp and js markers; any other struct becomes a
// plain object with its fields in name order.
func fromStruct(s *starlarkstruct.Struct) (macro.Value, error) {
	switch s.Constructor() {
	case regexpConstructor:
		pattern, err := stringField(s, "pattern")
		if err != nil {
			return nil, err
		}
		flags, err := stringField(s, "flags")
		if err != nil {
			return nil, err
		}
		return macro.RegExp{Pattern: pattern, Flags: flags}, nil
	case jsConstructor:
		code, err := stringField(s, "code")
		if err != nil {
			return nil, err
		}
		return macro.Raw(code), nil
	}

	obj := macro.NewObject()
	for _, name := range s.AttrNames() {
		field, err := s.Attr(name)
		if err != nil {
			return nil, err
		}
		mv, err := FromStarlark(field)
		if err != nil {
			return nil, fmt.Errorf("struct field %q: %w", name, err)
		}
		obj.Set(name, mv)
	}
	return obj, nil
}

// constructorName returns the constructor of s unquoted.
func constructorName(s *starlarkstruct.Struct) string {
	if name, ok := starlark.AsString(s.Constructor()); ok {
		return name
	}
	return s.Constructor().String()
}

func stringField(s *starlarkstruct.Struct, name string) (string, error) {
	v, err := s.Attr(name)
	if err != nil {
		return "", err
	}
	str, ok := starlark.AsString(v)
	if !ok {
		return "", fmt.Errorf("%s.%s must be a string, got %s", constructorName(s), name, v.Type())
	}
	return str, nil
}
