package dck

import (
	"math"
	"strconv"
	"strings"
)

// Value is a deck number.
//
// Deck literals are untyped: "7" is an integer and "7.0" or "1e-6" is a float.
// Arithmetic follows that split the same way the post-processing scripts always
// have: int op int stays int for + - * and non-negative powers, / is always a
// true (float) division, and anything involving a float is a float.
//
// The zero Value is the integer 0.
type Value struct {
	f       float64
	i       int64
	isFloat bool
}

// Int returns an integer Value.
func Int(i int64) Value {
	return Value{i: i}
}

// Float returns a floating point Value.
func Float(f float64) Value {
	return Value{f: f, isFloat: true}
}

// Bool returns Int(1) for true and Int(0) for false.
func Bool(b bool) Value {
	if b {
		return Int(1)
	}
	return Int(0)
}

// ParseLiteral converts a numeric literal as written in a deck.
func ParseLiteral(lit string) (Value, error) {
	if strings.IndexAny(lit, ".eE") < 0 {
		if i, err := strconv.ParseInt(lit, 10, 64); err == nil {
			return Int(i), nil
		}
	}
	f, err := strconv.ParseFloat(lit, 64)
	if err != nil {
		return Value{}, ErrBadLiteral
	}
	return Float(f), nil
}

func (v Value) IsInt() bool {
	return !v.isFloat
}

func (v Value) Float64() float64 {
	if v.isFloat {
		return v.f
	}
	return float64(v.i)
}

// Int64 returns the integer held by v and true, or 0 and false if v is a float.
func (v Value) Int64() (int64, bool) {
	if v.isFloat {
		return 0, false
	}
	return v.i, true
}

// IsZero reports if v is numerically zero.  Note that a zero Value is still a resolved value.
func (v Value) IsZero() bool {
	return v.Float64() == 0
}

func (v Value) IsTrue() bool {
	return !v.IsZero()
}

// Interface returns v as an int64 or float64.
func (v Value) Interface() interface{} {
	if v.isFloat {
		return v.f
	}
	return v.i
}

// String renders v the way the deck's scripting host prints numbers: "4", "120.0", "1e-06".
func (v Value) String() string {
	if !v.isFloat {
		return strconv.FormatInt(v.i, 10)
	}
	return FormatFloat(v.f)
}

// FormatFloat renders f with the shortest repr that round trips, always marking it as a float.
func FormatFloat(f float64) string {
	switch {
	case math.IsInf(f, 1):
		return "inf"
	case math.IsInf(f, -1):
		return "-inf"
	case math.IsNaN(f):
		return "nan"
	}

	abs := math.Abs(f)
	var s string
	if abs != 0 && (abs < 1e-4 || abs >= 1e16) {
		s = strconv.FormatFloat(f, 'e', -1, 64)
	} else {
		s = strconv.FormatFloat(f, 'f', -1, 64)
	}
	if !strings.ContainsAny(s, ".e") {
		s += ".0"
	}
	return s
}

// Equal compares numerically, so Int(7).Equal(Float(7)) is true.
func (v Value) Equal(w Value) bool {
	if !v.isFloat && !w.isFloat {
		return v.i == w.i
	}
	return v.Float64() == w.Float64()
}

// Compare returns -1, 0 or +1.
func (v Value) Compare(w Value) int {
	if !v.isFloat && !w.isFloat {
		switch {
		case v.i < w.i:
			return -1
		case v.i > w.i:
			return 1
		}
		return 0
	}
	a, b := v.Float64(), w.Float64()
	switch {
	case a < b:
		return -1
	case a > b:
		return 1
	}
	return 0
}

func (v Value) Neg() Value {
	if v.isFloat {
		return Float(-v.f)
	}
	if v.i == math.MinInt64 {
		return Float(-float64(v.i))
	}
	return Int(-v.i)
}

func (v Value) Abs() Value {
	if v.Compare(Int(0)) < 0 {
		return v.Neg()
	}
	return v
}

func (v Value) Add(w Value) Value {
	if !v.isFloat && !w.isFloat {
		r := v.i + w.i
		if (v.i > 0 && w.i > 0 && r < 0) || (v.i < 0 && w.i < 0 && r >= 0) {
			return Float(float64(v.i) + float64(w.i))
		}
		return Int(r)
	}
	return Float(v.Float64() + w.Float64())
}

func (v Value) Sub(w Value) Value {
	return v.Add(w.Neg())
}

func (v Value) Mul(w Value) Value {
	if !v.isFloat && !w.isFloat {
		if v.i == 0 || w.i == 0 {
			return Int(0)
		}
		r := v.i * w.i
		if r/w.i != v.i || (v.i == -1 && w.i == math.MinInt64) || (w.i == -1 && v.i == math.MinInt64) {
			return Float(float64(v.i) * float64(w.i))
		}
		return Int(r)
	}
	return Float(v.Float64() * w.Float64())
}

// Div is a true division and always yields a float.
func (v Value) Div(w Value) (Value, error) {
	if w.IsZero() {
		return Value{}, ErrDivisionByZero
	}
	return Float(v.Float64() / w.Float64()), nil
}

// Pow raises v to the power w.
func (v Value) Pow(w Value) (Value, error) {
	if !v.isFloat && !w.isFloat && w.i >= 0 {
		if r, ok := powInt(v.i, w.i); ok {
			return Int(r), nil
		}
	}

	base, exp := v.Float64(), w.Float64()
	if base == 0 && exp < 0 {
		return Value{}, ErrDivisionByZero
	}
	if base < 0 && exp != math.Trunc(exp) {
		return Value{}, ErrFractionalPower
	}
	r := math.Pow(base, exp)
	if math.IsInf(r, 0) && !math.IsInf(base, 0) && !math.IsInf(exp, 0) {
		return Value{}, ErrMathRange
	}
	return Float(r), nil
}

func powInt(base, exp int64) (int64, bool) {
	result := int64(1)
	for exp > 0 {
		if exp&1 == 1 {
			r := result * base
			if base != 0 && r/base != result {
				return 0, false
			}
			result = r
		}
		exp >>= 1
		if exp > 0 {
			sq := base * base
			if base != 0 && sq/base != base {
				return 0, false
			}
			base = sq
		}
	}
	return result, true
}
