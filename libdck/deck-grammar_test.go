package libdck

import (
	"testing"

	"github.com/pytrnsys/godck/dck"
)

func TestDeclarationParsing(t *testing.T) {
	testDecls := []string{
		"a = 1", "a=1",
		"b = [10,2]", "b=[10,2]",
		"c = -x^2 ! trailing comment", "c=-x^2",
		"$MixedCase = 2*$Other", "mixedcase=2*other",
		"d = f(1, g(2), (3+4)/5)", "d=f(1,g(2),(3+4)/5)",
		"e = 1e-6 * .5 + 7.", "e=1e-6*.5+7.",
		"p = (-2)^2", "p=(-2)^2",
		"q = 2^3^2", "q=2^3^2",
		"r = (2^3)^2", "r=(2^3)^2",
		"s = +3 - -2", "s=3--2",
		"t = AE()", "t=AE()",
	}

	for i := 0; i < len(testDecls); i += 2 {
		src, want := testDecls[i], testDecls[i+1]
		decl, err := TransformLine(SourceLine{Num: 1, Text: src})
		if err != nil {
			t.Errorf("%q: %v", src, err)
			continue
		}
		if got := decl.String(); got != want {
			t.Errorf("%q: got %q, want %q", src, got, want)
		}
	}
}

func TestDeclarationSyntaxErrors(t *testing.T) {
	bad := []string{
		"= 2",
		"a =",
		"a = 1 +",
		"a = (1",
		"a = [10]",
		"a = 1 2",
		"a = #",
		"a == 2",
	}
	for _, src := range bad {
		if _, err := ParseDeclaration(src); err == nil {
			t.Errorf("%q: expected a syntax error", src)
		}
	}
}

func TestDeps(t *testing.T) {
	decl, err := TransformLine(SourceLine{Num: 7, Text: "x = MAX(A, b) * a + $C - [1,2]"})
	if err != nil {
		t.Fatal(err)
	}
	want := []string{"a", "b", "c"}
	if len(decl.Deps) != len(want) {
		t.Fatalf("got deps %v, want %v", decl.Deps, want)
	}
	for i := range want {
		if decl.Deps[i] != want[i] {
			t.Fatalf("got deps %v, want %v", decl.Deps, want)
		}
	}
	if !HasOutputRef(decl.Expr) {
		t.Fatal("expected an output reference")
	}
	if decl.Line != 7 || decl.Equation != "x=MAX(A, b) * a + $C - [1,2]" {
		t.Fatalf("unexpected decl %+v", decl)
	}
}

func TestBlockHeaders(t *testing.T) {
	deck := "constants 2\n\n* comment card\na = 1\n! comment\nb = 2\nEquations 1 ! eq\nc = a+b\nCONSTANTS two\n"
	blocks, diags := ScanBlocks(deck)
	if len(blocks) != 2 {
		t.Fatalf("got %d blocks", len(blocks))
	}
	if blocks[0].Kind != BlockConstants || blocks[0].Count != 2 || len(blocks[0].Decls) != 2 {
		t.Fatalf("bad first block %+v", blocks[0])
	}
	if blocks[0].Decls[1].Num != 6 {
		t.Fatalf("expected b on line 6, got %d", blocks[0].Decls[1].Num)
	}
	if blocks[1].Kind != BlockEquations || blocks[1].Line != 7 {
		t.Fatalf("bad second block %+v", blocks[1])
	}
	if len(diags) != 1 || diags[0].Kind != dck.MalformedBlock || diags[0].Line != 9 {
		t.Fatalf("expected one malformed header diagnostic, got %v", diags)
	}
}
