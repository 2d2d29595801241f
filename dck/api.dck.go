package dck

import (
	"fmt"
	"sort"
	"strings"
)

// Constants maps a constant's name to its resolved value.
//
// A name present in Constants is resolved, including names whose value is zero.
type Constants map[string]Value

// Names returns the constant names in ascending order.
func (C Constants) Names() []string {
	names := make([]string, 0, len(C))
	for name := range C {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Float64s flattens C for callers that only deal in float columns.
func (C Constants) Float64s() map[string]float64 {
	out := make(map[string]float64, len(C))
	for name, v := range C {
		out[name] = v.Float64()
	}
	return out
}

// DiagnosticKind classifies why a declaration did not make it into Constants.
type DiagnosticKind int32

const (
	// SyntaxError: the declaration line does not match the deck grammar.
	SyntaxError DiagnosticKind = iota + 1

	// UnsupportedFunction: the expression calls a function outside the function library.
	UnsupportedFunction

	// EvaluationError: the expression is well formed but evaluating it failed (arity, domain, division by zero, ...).
	EvaluationError

	// Unresolved: the expression still references unresolved names once resolution reached its fixed point.
	Unresolved

	// MalformedBlock: a CONSTANTS or EQUATIONS block header is bad or the block has fewer declarations than announced.
	MalformedBlock

	// Redeclared: the name was already declared earlier in the deck; the first declaration is kept.
	Redeclared
)

func (kind DiagnosticKind) String() string {
	switch kind {
	case SyntaxError:
		return "SyntaxError"
	case UnsupportedFunction:
		return "UnsupportedFunction"
	case EvaluationError:
		return "EvaluationError"
	case Unresolved:
		return "Unresolved"
	case MalformedBlock:
		return "MalformedBlock"
	case Redeclared:
		return "Redeclared"
	}
	return fmt.Sprintf("DiagnosticKind(%d)", int32(kind))
}

// Diagnostic is a WARNING level report about a single deck line.
type Diagnostic struct {
	Kind     DiagnosticKind
	Line     int      // one-based line number within the deck text
	Name     string   // declared name, if known
	Equation string   // "name=expression" as written in the deck
	Function string   // set for UnsupportedFunction
	Missing  []string // set for Unresolved: the names that never resolved
	Message  string   // underlying error text
}

func (d Diagnostic) String() string {
	switch d.Kind {
	case UnsupportedFunction:
		return fmt.Sprintf("On line %d, %s is not supported in %s", d.Line, d.Function, d.Equation)
	case EvaluationError:
		return fmt.Sprintf("On line %d, unable to compute equation %s because: %s", d.Line, d.Equation, d.Message)
	case SyntaxError:
		return fmt.Sprintf("On line %d, unable to parse %q: %s", d.Line, d.Equation, d.Message)
	case Unresolved:
		return fmt.Sprintf("On line %d, could not resolve %s: undefined %s", d.Line, d.Equation, strings.Join(d.Missing, ", "))
	case Redeclared:
		return fmt.Sprintf("On line %d, %s ignored: %s", d.Line, d.Equation, d.Message)
	}
	return fmt.Sprintf("On line %d, %s", d.Line, d.Message)
}

// Error lets a Diagnostic travel as an error where callers want one.
func (d Diagnostic) Error() string {
	return d.String()
}
