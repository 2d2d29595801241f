package libdck

import (
	"testing"

	"github.com/pytrnsys/godck/dck"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func call(t *testing.T, name string, args ...dck.Value) (dck.Value, error) {
	t.Helper()
	fn, ok := LookupFunc(name)
	require.True(t, ok, name)
	return fn.Call(args)
}

func TestFuncLibrary(t *testing.T) {
	i, f := dck.Int, dck.Float

	cases := []struct {
		name string
		args []dck.Value
		want string
	}{
		{"INT", []dck.Value{f(4.269)}, "4"},
		{"INT", []dck.Value{f(-4.9)}, "-4"},
		{"MOD", []dck.Value{i(420), i(69)}, "6.0"},
		{"MAX", []dck.Value{i(69), i(420)}, "420"},
		{"MIN", []dck.Value{i(69), f(420)}, "69"},
		{"ABS", []dck.Value{i(-3)}, "3"},
		{"ABS", []dck.Value{f(-4.5)}, "4.5"},
		{"EQL", []dck.Value{i(7), f(7)}, "1"},
		{"NE", []dck.Value{i(7), f(7)}, "0"},
		{"GE", []dck.Value{i(2), i(2)}, "1"},
		{"LT", []dck.Value{i(2), i(2)}, "0"},
		{"AND", []dck.Value{i(1), f(0.5)}, "1"},
		{"OR", []dck.Value{i(0), i(0)}, "0"},
		{"NOT", []dck.Value{i(0)}, "1"},
		{"AE", []dck.Value{i(4), i(2), i(1)}, "0"},
		{"LOG", []dck.Value{i(1)}, "0.0"},
		{"EXP", []dck.Value{i(0)}, "1.0"},
		{"sin", []dck.Value{i(0)}, "0.0"},
	}

	for _, c := range cases {
		got, err := call(t, c.name, c.args...)
		require.NoError(t, err, c.name)
		assert.Equal(t, c.want, got.String(), "%s%v", c.name, c.args)
	}
}

func TestFuncLibraryErrors(t *testing.T) {
	i := dck.Int

	_, err := call(t, "LN", i(0))
	assert.ErrorIs(t, err, dck.ErrMathDomain)

	_, err = call(t, "ASIN", i(2))
	assert.ErrorIs(t, err, dck.ErrMathDomain)

	_, err = call(t, "EXP", i(1000))
	assert.ErrorIs(t, err, dck.ErrMathRange)

	_, err = call(t, "MOD", i(1), i(0))
	assert.ErrorIs(t, err, dck.ErrMathDomain)

	_, err = call(t, "MAX", i(3))
	assert.ErrorIs(t, err, dck.ErrArity)
	assert.EqualError(t, err, "MAX expects 2 arguments, got 1: wrong number of arguments")

	_, ok := LookupFunc("GTWARN")
	assert.False(t, ok)
}

func TestFuncNamesAreClosed(t *testing.T) {
	assert.Equal(t, []string{
		"ABS", "ACOS", "AE", "AND", "ASIN", "ATAN", "COS", "EQL", "EXP", "GE", "GT", "INT",
		"LE", "LN", "LOG", "LT", "MAX", "MIN", "MOD", "NE", "NOT", "OR", "SIN", "TAN",
	}, FuncNames())
}

func TestEvalScope(t *testing.T) {
	decl, err := TransformLine(SourceLine{Num: 1, Text: "y = x * 2"})
	require.NoError(t, err)

	_, err = Eval(decl.Expr, EmptyScope)
	assert.ErrorIs(t, err, dck.ErrUndefinedName)

	v, err := Eval(decl.Expr, func(key string) (dck.Value, bool) {
		return dck.Int(21), key == "x"
	})
	require.NoError(t, err)
	assert.Equal(t, "42", v.String())
}
