package dck

import (
	"math"
	"testing"
)

func TestValueFormatting(t *testing.T) {
	testVals := []struct {
		v    Value
		want string
	}{
		{Int(4), "4"},
		{Int(-17), "-17"},
		{Float(120), "120.0"},
		{Float(1e-6), "1e-06"},
		{Float(0.03333333333333333), "0.03333333333333333"},
		{Float(7300), "7300.0"},
		{Float(1234567), "1234567.0"},
		{Float(1e16), "1e+16"},
		{Float(0), "0.0"},
		{Float(-0.5), "-0.5"},
		{Float(math.Inf(1)), "inf"},
	}
	for _, tv := range testVals {
		if got := tv.v.String(); got != tv.want {
			t.Errorf("got %q, want %q", got, tv.want)
		}
	}
}

func TestParseLiteral(t *testing.T) {
	testLits := map[string]string{
		"7":                    "7",
		"7.0":                  "7.0",
		"7.":                   "7.0",
		".5":                   "0.5",
		"1e-6":                 "1e-06",
		"2E3":                  "2000.0",
		"0":                    "0",
		"99999999999999999999": "1e+20",
	}
	for lit, want := range testLits {
		v, err := ParseLiteral(lit)
		if err != nil {
			t.Fatalf("%q: %v", lit, err)
		}
		if got := v.String(); got != want {
			t.Errorf("%q: got %q, want %q", lit, got, want)
		}
	}
	if _, err := ParseLiteral("1e"); err != ErrBadLiteral {
		t.Errorf("expected ErrBadLiteral, got %v", err)
	}
}

func TestValueArithmetic(t *testing.T) {
	if v := Int(2).Add(Int(3)); !v.IsInt() || v.String() != "5" {
		t.Fatalf("int add: %v", v)
	}
	if v := Int(2).Mul(Float(1.5)); v.IsInt() || v.String() != "3.0" {
		t.Fatalf("mixed mul: %v", v)
	}
	if v, err := Int(1).Div(Int(2)); err != nil || v.String() != "0.5" {
		t.Fatalf("true division: %v %v", v, err)
	}
	if _, err := Int(1).Div(Float(0)); err != ErrDivisionByZero {
		t.Fatalf("expected ErrDivisionByZero, got %v", err)
	}
	if v, err := Int(2).Pow(Int(10)); err != nil || v.String() != "1024" {
		t.Fatalf("int pow: %v %v", v, err)
	}
	if v, err := Int(2).Pow(Int(64)); err != nil || v.IsInt() || v.Float64() != math.Pow(2, 64) {
		t.Fatalf("int pow overflow should fall back to float: %v %v", v, err)
	}
	if _, err := Int(0).Pow(Int(-1)); err != ErrDivisionByZero {
		t.Fatalf("expected ErrDivisionByZero, got %v", err)
	}
	if _, err := Float(-8).Pow(Float(0.5)); err != ErrFractionalPower {
		t.Fatalf("expected ErrFractionalPower, got %v", err)
	}
	if _, err := Float(10).Pow(Float(400)); err != ErrMathRange {
		t.Fatalf("expected ErrMathRange, got %v", err)
	}
	if v := Int(math.MaxInt64).Add(Int(1)); v.IsInt() {
		t.Fatalf("int add overflow should fall back to float: %v", v)
	}
	if v := Int(math.MaxInt64).Mul(Int(2)); v.IsInt() {
		t.Fatalf("int mul overflow should fall back to float: %v", v)
	}
	if !Int(7).Equal(Float(7)) || Int(1).Compare(Float(1.5)) != -1 {
		t.Fatal("numeric comparison")
	}
	if !Float(0).IsZero() || Float(0).IsTrue() {
		t.Fatal("zero")
	}
}
