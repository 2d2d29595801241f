package libdck

import (
	"strings"

	"github.com/pytrnsys/godck/dck"
)

// Op identifies an arithmetic operator.
type Op byte

const (
	OpPlus      Op = '+'
	OpMinus     Op = '-'
	OpTimes     Op = '*'
	OpDividedBy Op = '/'
	OpToPowerOf Op = '^'
)

// Node is an evaluable deck expression.
//
// The set of Node types is closed: *Number, *Ref, *Negate, *Binary, *Call, *OutputRefNode.
type Node interface {
	node()
}

// Number is a numeric literal.
type Number struct {
	Value dck.Value
	Raw   string
}

// Ref references another declared name.
type Ref struct {
	Name string // as normalized for its visibility
	Key  string // case folded lookup key
}

// Negate is unary minus.
type Negate struct {
	X Node
}

// Binary is a binary arithmetic operation.
type Binary struct {
	Op   Op
	L, R Node
}

// Call is a function library call.
type Call struct {
	Func string // as written in the deck
	Args []Node
}

// OutputRefNode is a "[unit,output]" reference.
type OutputRefNode struct {
	Unit, Output string
}

func (*Number) node()        {}
func (*Ref) node()           {}
func (*Negate) node()        {}
func (*Binary) node()        {}
func (*Call) node()          {}
func (*OutputRefNode) node() {}

// Decl is a declaration transformed from a deck line.
type Decl struct {
	Line     int      // one-based line number within the deck
	Name     string   // declared name, normalized for its visibility
	Key      string   // case folded lookup key
	Equation string   // "name=expression" as written
	Expr     Node     // right hand side
	Deps     []string // keys of the names Expr references, in order of first appearance
}

// String returns the canonical "name=expression" form.
func (d *Decl) String() string {
	return d.Name + "=" + Render(d.Expr)
}

const (
	precSum = iota + 1
	precProduct
	precNegate
	precPower
	precAtom
)

func precOf(n Node) int {
	switch n := n.(type) {
	case *Binary:
		switch n.Op {
		case OpPlus, OpMinus:
			return precSum
		case OpTimes, OpDividedBy:
			return precProduct
		case OpToPowerOf:
			return precPower
		}
	case *Negate:
		return precNegate
	}
	return precAtom
}

// Render returns the canonical text for n, using only the parentheses needed to keep its meaning.
func Render(n Node) string {
	var b strings.Builder
	render(&b, n)
	return b.String()
}

func render(b *strings.Builder, n Node) {
	switch n := n.(type) {
	case *Number:
		b.WriteString(n.Raw)
	case *Ref:
		b.WriteString(n.Name)
	case *OutputRefNode:
		b.WriteString("[" + n.Unit + "," + n.Output + "]")
	case *Negate:
		b.WriteByte('-')
		renderOperand(b, n.X, precOf(n.X) < precNegate)
	case *Binary:
		p := precOf(n)
		lp, rp := precOf(n.L), precOf(n.R)
		if n.Op == OpToPowerOf {
			renderOperand(b, n.L, lp <= p)
			b.WriteByte(byte(n.Op))
			renderOperand(b, n.R, rp < p)
		} else {
			renderOperand(b, n.L, lp < p)
			b.WriteByte(byte(n.Op))
			renderOperand(b, n.R, rp <= p)
		}
	case *Call:
		b.WriteString(n.Func)
		b.WriteByte('(')
		for i, arg := range n.Args {
			if i > 0 {
				b.WriteByte(',')
			}
			render(b, arg)
		}
		b.WriteByte(')')
	}
}

func renderOperand(b *strings.Builder, n Node, paren bool) {
	if paren {
		b.WriteByte('(')
		render(b, n)
		b.WriteByte(')')
	} else {
		render(b, n)
	}
}

// Walk calls fn for n and each of its descendants, parents first.
func Walk(n Node, fn func(Node)) {
	fn(n)
	switch n := n.(type) {
	case *Negate:
		Walk(n.X, fn)
	case *Binary:
		Walk(n.L, fn)
		Walk(n.R, fn)
	case *Call:
		for _, arg := range n.Args {
			Walk(arg, fn)
		}
	}
}

// FreeVars returns the keys of every name n references, without duplicates.
func FreeVars(n Node) []string {
	var keys []string
	seen := map[string]struct{}{}
	Walk(n, func(n Node) {
		if ref, ok := n.(*Ref); ok {
			if _, dupe := seen[ref.Key]; !dupe {
				seen[ref.Key] = struct{}{}
				keys = append(keys, ref.Key)
			}
		}
	})
	return keys
}

// HasOutputRef reports if n reads a unit output anywhere.
func HasOutputRef(n Node) bool {
	found := false
	Walk(n, func(n Node) {
		if _, ok := n.(*OutputRefNode); ok {
			found = true
		}
	})
	return found
}
