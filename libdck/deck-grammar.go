package libdck

import (
	"github.com/alecthomas/participle/v2"
	"github.com/alecthomas/participle/v2/lexer"
)

// Declaration is a single "name = expression" line from a CONSTANTS or EQUATIONS block.
type Declaration struct {
	Pos  lexer.Position
	Var  *Var        `@@ "="`
	Expr *Expression `@@`
}

// Var is a variable name.
// A leading '$' marks a default-visibility name, which is case folded; a bare name is explicit and kept as written.
type Var struct {
	Default bool   `@"$"?`
	Name    string `@Ident`
}

// Expression is a run of terms joined by '+' or '-'.
type Expression struct {
	Left  *Term     `@@`
	Right []*OpTerm `@@*`
}

type OpTerm struct {
	Op   string `@("+" | "-")`
	Term *Term  `@@`
}

// Term is a run of signed factors joined by '*' or '/'.
type Term struct {
	Left  *Unary      `@@`
	Right []*OpFactor `@@*`
}

type OpFactor struct {
	Op    string `@("*" | "/")`
	Unary *Unary `@@`
}

// Unary binds looser than '^' so "-2^2" is -(2^2).
type Unary struct {
	Op    string `  @("-" | "+")`
	Unary *Unary `  @@`
	Power *Power `| @@`
}

// Power is right associative: "2^3^2" is 2^(3^2).
type Power struct {
	Base     *Primary `@@`
	Exponent *Unary   `( "^" @@ )?`
}

type Primary struct {
	Number *string     `  @Number`
	Output *OutputRef  `| @@`
	Call   *FuncCall   `| @@`
	Var    *Var        `| @@`
	Sub    *Expression `| "(" @@ ")"`
}

// FuncCall is a built-in function call such as "MAX(a, b)".
type FuncCall struct {
	Func string        `@Ident "("`
	Args []*Expression `( @@ ( "," @@ )* )? ")"`
}

// OutputRef references output <Output> of unit <Unit>, e.g. "[10,2]".
// Its value only exists while a simulation runs.
type OutputRef struct {
	Unit   string `"[" @Number`
	Output string `"," @Number "]"`
}

// BlockHeader opens a block, e.g. "CONSTANTS 3".
type BlockHeader struct {
	Kind  string `@Ident`
	Count int    `@Number`
}

var sDeckLexer = lexer.MustSimple([]lexer.SimpleRule{
	{"Comment", `![^\n]*`},
	{"Whitespace", `[ \t\r]+`},
	{"Number", `(\d+\.?\d*|\.\d+)([eE][-+]?\d+)?`},
	{"Ident", `[A-Za-z_][A-Za-z0-9_]*`},
	{"Punct", `[-+*/^(),=\[\]$]`},
})

var sParseDeclaration = participle.MustBuild[Declaration](
	participle.Lexer(sDeckLexer),
	participle.Elide("Whitespace", "Comment"),
	participle.UseLookahead(2),
)

var sParseBlockHeader = participle.MustBuild[BlockHeader](
	participle.Lexer(sDeckLexer),
	participle.Elide("Whitespace", "Comment"),
)

// ParseDeclaration parses one declaration line.
func ParseDeclaration(line string) (*Declaration, error) {
	return sParseDeclaration.ParseString("", line)
}

// ParseBlockHeader parses a block header line.
func ParseBlockHeader(line string) (*BlockHeader, error) {
	return sParseBlockHeader.ParseString("", line)
}
