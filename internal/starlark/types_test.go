package starlark

import (
	"math"
	"math/big"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.starlark.net/starlark"
	"go.starlark.net/starlarkstruct"

	"github.com/leapstack-labs/leapmacro/pkg/macro"
)

func TestToStarlark(t *testing.T) {
	obj := macro.NewObject()
	obj.Set("b", macro.Number(1))
	obj.Set("a", macro.String("x"))

	huge, _ := new(big.Int).SetString("123456789012345678901234567890", 10)

	tests := []struct {
		name    string
		input   macro.Value
		wantStr string
	}{
		{name: "undefined", input: macro.Undefined{}, wantStr: "None"},
		{name: "null", input: macro.Null{}, wantStr: "None"},
		{name: "nil", input: nil, wantStr: "None"},
		{name: "bool", input: macro.Bool(true), wantStr: "True"},
		{name: "integral number", input: macro.Number(42), wantStr: "42"},
		{name: "fractional number", input: macro.Number(1.5), wantStr: "1.5"},
		{name: "negative zero", input: macro.Number(math.Copysign(0, -1)), wantStr: "-0.0"},
		{name: "string", input: macro.String("hi"), wantStr: `"hi"`},
		{name: "bigint", input: macro.BigInt{Int: huge}, wantStr: "123456789012345678901234567890"},
		{name: "array", input: macro.NewArray(macro.Number(1), macro.String("a")), wantStr: `[1, "a"]`},
		{name: "object keeps order", input: obj, wantStr: `{"b": 1, "a": "x"}`},
		{name: "regexp", input: macro.RegExp{Pattern: "a+", Flags: "g"}, wantStr: `regexp(flags = "g", pattern = "a+")`},
		{name: "raw", input: macro.Raw("foo()"), wantStr: `js(code = "foo()")`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ToStarlark(tt.input)
			require.NoError(t, err)
			assert.Equal(t, tt.wantStr, got.String())
		})
	}
}

func TestFromStarlark(t *testing.T) {
	dict := starlark.NewDict(2)
	require.NoError(t, dict.SetKey(starlark.String("z"), starlark.MakeInt(1)))
	require.NoError(t, dict.SetKey(starlark.String("a"), starlark.None))

	tests := []struct {
		name  string
		input starlark.Value
		want  string
	}{
		{name: "none", input: starlark.None, want: "null"},
		{name: "bool", input: starlark.False, want: "false"},
		{name: "int", input: starlark.MakeInt(7), want: "7"},
		{name: "int beyond safe range", input: starlark.MakeInt64(1 << 60), want: "1152921504606846976n"},
		{name: "float", input: starlark.Float(0.25), want: "0.25"},
		{name: "string", input: starlark.String(`say "hi"`), want: `"say \"hi\""`},
		{name: "list", input: starlark.NewList([]starlark.Value{starlark.MakeInt(1), starlark.String("a")}), want: `[1, "a"]`},
		{name: "tuple", input: starlark.Tuple{starlark.True}, want: "[true]"},
		{name: "dict keeps order", input: dict, want: "{ z: 1, a: null }"},
		{name: "regexp", input: NewRegExp("^a$", "i"), want: "/^a$/i"},
		{name: "js", input: NewJS("window.x"), want: "window.x"},
		{
			name:  "plain struct",
			input: starlarkstruct.FromStringDict(starlarkstruct.Default, starlark.StringDict{"b": starlark.MakeInt(2), "a": starlark.MakeInt(1)}),
			want:  "{ a: 1, b: 2 }",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := FromStarlark(tt.input)
			require.NoError(t, err)
			assert.Equal(t, tt.want, macro.Source(got))
		})
	}
}

func TestFromStarlark_Errors(t *testing.T) {
	intKeys := starlark.NewDict(1)
	require.NoError(t, intKeys.SetKey(starlark.MakeInt(1), starlark.None))

	badRegExp := starlarkstruct.FromStringDict(regexpConstructor, starlark.StringDict{
		"pattern": starlark.MakeInt(1),
		"flags":   starlark.String(""),
	})

	tests := []struct {
		name    string
		input   starlark.Value
		wantErr string
	}{
		{name: "function", input: starlark.NewBuiltin("f", nil), wantErr: "cannot return a value of type builtin_function_or_method"},
		{name: "non-string key", input: intKeys, wantErr: "dict key must be string, got int"},
		{name: "nested", input: starlark.NewList([]starlark.Value{starlark.NewSet(0)}), wantErr: "list index 0: cannot return a value of type set"},
		{name: "bad regexp field", input: badRegExp, wantErr: "regexp.pattern must be a string, got int"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := FromStarlark(tt.input)
			require.Error(t, err)
			assert.Equal(t, tt.wantErr, err.Error())
		})
	}
}

func TestRoundTrip(t *testing.T) {
	obj := macro.NewObject()
	obj.Set("list", macro.NewArray(macro.Number(1), macro.Bool(false)))
	obj.Set("re", macro.RegExp{Pattern: "x", Flags: ""})
	obj.Set("s", macro.String("é"))

	sv, err := ToStarlark(obj)
	require.NoError(t, err)
	back, err := FromStarlark(sv)
	require.NoError(t, err)
	assert.Equal(t, macro.Source(obj), macro.Source(back))
}
