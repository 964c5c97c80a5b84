package macro_test

import (
	"math"
	"testing"

	"github.com/leapstack-labs/leapmacro/pkg/macro"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSource(t *testing.T) {
	obj := macro.NewObject()
	obj.Set("a", macro.Number(1))
	obj.Set("data-id", macro.String("x"))
	obj.Set("a", macro.Number(3))

	nested := macro.NewObject()
	nested.Set("list", macro.NewArray(macro.Bool(true), macro.Null{}))

	big, ok := macro.NewBigInt("1_000n")
	require.True(t, ok)

	tests := []struct {
		name  string
		value macro.Value
		want  string
	}{
		{"nil", nil, "void 0"},
		{"undefined", macro.Undefined{}, "void 0"},
		{"null", macro.Null{}, "null"},
		{"bool", macro.Bool(false), "false"},
		{"integer", macro.Number(42), "42"},
		{"fraction", macro.Number(0.5), "0.5"},
		{"negative zero", macro.Number(math.Copysign(0, -1)), "-0"},
		{"nan", macro.Number(math.NaN()), "NaN"},
		{"infinity", macro.Number(math.Inf(-1)), "-Infinity"},
		{"string escapes", macro.String("say \"hi\"\n"), `"say \"hi\"\n"`},
		{"bigint", big, "1000n"},
		{"regexp", macro.RegExp{Pattern: "a+", Flags: "gi"}, "/a+/gi"},
		{"empty array", macro.NewArray(), "[]"},
		{"array", macro.NewArray(macro.Number(1), macro.String("a"), macro.Null{}), `[1, "a", null]`},
		{"empty object", macro.NewObject(), "{}"},
		{"object keeps first key position", obj, `{ a: 3, "data-id": "x" }`},
		{"nested", nested, "{ list: [true, null] }"},
		{"raw", macro.Raw("new Date(0)"), "new Date(0)"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, macro.Source(tt.value))
		})
	}
}

func TestFormatNumber(t *testing.T) {
	tests := []struct {
		in   float64
		want string
	}{
		{0, "0"},
		{123, "123"},
		{-1.25, "-1.25"},
		{1e21, "1e+21"},
		{1.5e-7, "1.5e-7"},
		{0.000001, "0.000001"},
	}

	for _, tt := range tests {
		t.Run(tt.want, func(t *testing.T) {
			assert.Equal(t, tt.want, macro.FormatNumber(tt.in))
		})
	}
}

func TestTruthy(t *testing.T) {
	big, _ := macro.NewBigInt("0n")

	falsy := []macro.Value{
		macro.Undefined{}, macro.Null{}, macro.Bool(false), macro.Number(0),
		macro.Number(math.NaN()), macro.String(""), big,
	}
	for _, v := range falsy {
		assert.False(t, macro.Truthy(v), "%#v", v)
	}

	truthy := []macro.Value{
		macro.Bool(true), macro.Number(-1), macro.String("0"),
		macro.NewArray(), macro.NewObject(), macro.RegExp{Pattern: "x"},
	}
	for _, v := range truthy {
		assert.True(t, macro.Truthy(v), "%#v", v)
	}
}

func TestToNumber(t *testing.T) {
	tests := []struct {
		name string
		in   macro.Value
		want float64
	}{
		{"null", macro.Null{}, 0},
		{"true", macro.Bool(true), 1},
		{"empty string", macro.String(""), 0},
		{"padded", macro.String(" 12 "), 12},
		{"hex", macro.String("0x1f"), 31},
		{"binary", macro.String("0b101"), 5},
		{"exponent", macro.String("1e3"), 1000},
		{"infinity", macro.String("-Infinity"), math.Inf(-1)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := macro.ToNumber(tt.in)
			require.True(t, ok)
			assert.Equal(t, tt.want, got) //nolint:testifylint // exact values
		})
	}

	t.Run("not a number", func(t *testing.T) {
		for _, in := range []macro.Value{macro.Undefined{}, macro.String("12px"), macro.String("0xZZ")} {
			got, ok := macro.ToNumber(in)
			require.True(t, ok)
			assert.True(t, math.IsNaN(got), "%#v", in)
		}
	})

	t.Run("objects", func(t *testing.T) {
		_, ok := macro.ToNumber(macro.NewObject())
		assert.False(t, ok)
	})
}

func TestToString(t *testing.T) {
	tests := []struct {
		name string
		in   macro.Value
		want string
	}{
		{"undefined", macro.Undefined{}, "undefined"},
		{"number", macro.Number(2.5), "2.5"},
		{"array holes", macro.NewArray(macro.Number(1), macro.Undefined{}, macro.String("a")), "1,,a"},
		{"object", macro.NewObject(), "[object Object]"},
		{"regexp", macro.RegExp{Pattern: "x", Flags: "g"}, "/x/g"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := macro.ToString(tt.in)
			require.True(t, ok)
			assert.Equal(t, tt.want, got)
		})
	}

	_, ok := macro.ToString(macro.Raw("f()"))
	assert.False(t, ok)
}

func TestNewBigInt(t *testing.T) {
	n, ok := macro.NewBigInt("0x10n")
	require.True(t, ok)
	assert.Equal(t, "16", n.Int.String())

	_, ok = macro.NewBigInt("12.5n")
	assert.False(t, ok)
}

func TestObjectKeys(t *testing.T) {
	obj := macro.NewObject()
	obj.Set("b", macro.Number(1))
	obj.Set("a", macro.Number(2))
	obj.Set("b", macro.Number(3))

	assert.Equal(t, []string{"b", "a"}, obj.Keys())
	assert.Equal(t, 2, obj.Len())
	v, ok := obj.Get("b")
	require.True(t, ok)
	assert.Equal(t, macro.Number(3), v)
}

func TestStringLength(t *testing.T) {
	assert.Equal(t, 3, macro.StringLength("abc"))
	assert.Equal(t, 2, macro.StringLength("😀"))
	assert.Equal(t, 0, macro.StringLength(""))
}

func TestTypeOf(t *testing.T) {
	assert.Equal(t, "undefined", macro.Undefined{}.TypeOf())
	assert.Equal(t, "object", macro.Null{}.TypeOf())
	assert.Equal(t, "bigint", macro.BigInt{}.TypeOf())
	assert.Equal(t, "object", macro.NewArray().TypeOf())
}
