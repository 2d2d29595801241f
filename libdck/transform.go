package libdck

import (
	"strings"

	"github.com/pytrnsys/godck/dck"
)

// Transform scans a deck and transforms each CONSTANTS and EQUATIONS declaration, in source order.
// Lines that fail to parse are reported as SyntaxError diagnostics and left out.
func Transform(deckText string) ([]*Decl, []dck.Diagnostic) {
	blocks, diags := ScanBlocks(deckText)

	var decls []*Decl
	for _, blk := range blocks {
		for _, line := range blk.Decls {
			decl, err := TransformLine(line)
			if err != nil {
				diags = append(diags, dck.Diagnostic{
					Kind:     dck.SyntaxError,
					Line:     line.Num,
					Equation: equationText(line.Text),
					Message:  err.Error(),
				})
				continue
			}
			decls = append(decls, decl)
		}
	}

	return decls, diags
}

// TransformLine parses and transforms a single declaration line.
func TransformLine(line SourceLine) (*Decl, error) {
	parsed, err := ParseDeclaration(line.Text)
	if err != nil {
		return nil, err
	}

	expr, err := transformExpression(parsed.Expr)
	if err != nil {
		return nil, err
	}

	name := varName(parsed.Var)
	return &Decl{
		Line:     line.Num,
		Name:     name,
		Key:      strings.ToLower(name),
		Equation: equationText(line.Text),
		Expr:     expr,
		Deps:     FreeVars(expr),
	}, nil
}

// equationText is the declaration as written, minus comments and the spacing around '='.
func equationText(line string) string {
	code := strings.TrimSpace(stripComment(line))
	if idx := strings.IndexByte(code, '='); idx >= 0 {
		return strings.TrimSpace(code[:idx]) + "=" + strings.TrimSpace(code[idx+1:])
	}
	return code
}

// varName lower-cases default-visibility names since decks in the wild spell the same quantity in mixed case.
func varName(v *Var) string {
	if v.Default {
		return strings.ToLower(v.Name)
	}
	return v.Name
}

func transformExpression(e *Expression) (Node, error) {
	left, err := transformTerm(e.Left)
	if err != nil {
		return nil, err
	}
	for _, rt := range e.Right {
		right, err := transformTerm(rt.Term)
		if err != nil {
			return nil, err
		}
		left = &Binary{Op: Op(rt.Op[0]), L: left, R: right}
	}
	return left, nil
}

func transformTerm(t *Term) (Node, error) {
	left, err := transformUnary(t.Left)
	if err != nil {
		return nil, err
	}
	for _, rf := range t.Right {
		right, err := transformUnary(rf.Unary)
		if err != nil {
			return nil, err
		}
		left = &Binary{Op: Op(rf.Op[0]), L: left, R: right}
	}
	return left, nil
}

func transformUnary(u *Unary) (Node, error) {
	if u.Power != nil {
		return transformPower(u.Power)
	}
	x, err := transformUnary(u.Unary)
	if err != nil {
		return nil, err
	}
	if u.Op == "-" {
		return &Negate{X: x}, nil
	}
	return x, nil
}

func transformPower(p *Power) (Node, error) {
	base, err := transformPrimary(p.Base)
	if err != nil {
		return nil, err
	}
	if p.Exponent == nil {
		return base, nil
	}
	exp, err := transformUnary(p.Exponent)
	if err != nil {
		return nil, err
	}
	return &Binary{Op: OpToPowerOf, L: base, R: exp}, nil
}

func transformPrimary(p *Primary) (Node, error) {
	switch {
	case p.Number != nil:
		v, err := dck.ParseLiteral(*p.Number)
		if err != nil {
			return nil, err
		}
		return &Number{Value: v, Raw: *p.Number}, nil

	case p.Output != nil:
		return &OutputRefNode{Unit: p.Output.Unit, Output: p.Output.Output}, nil

	case p.Call != nil:
		call := &Call{
			Func: p.Call.Func,
			Args: make([]Node, 0, len(p.Call.Args)),
		}
		for _, arg := range p.Call.Args {
			n, err := transformExpression(arg)
			if err != nil {
				return nil, err
			}
			call.Args = append(call.Args, n)
		}
		return call, nil

	case p.Var != nil:
		name := varName(p.Var)
		return &Ref{Name: name, Key: strings.ToLower(name)}, nil
	}

	return transformExpression(p.Sub)
}
