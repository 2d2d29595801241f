package libdck

import (
	"github.com/pkg/errors"
	"github.com/pytrnsys/godck/dck"
)

// Scope resolves a case folded name key to a value.
type Scope func(key string) (dck.Value, bool)

// EmptyScope resolves nothing.
func EmptyScope(string) (dck.Value, bool) {
	return dck.Value{}, false
}

// Eval evaluates n.  Only the function library and the names in scope are reachable from n.
func Eval(n Node, scope Scope) (dck.Value, error) {
	switch n := n.(type) {
	case *Number:
		return n.Value, nil

	case *Ref:
		if v, ok := scope(n.Key); ok {
			return v, nil
		}
		return dck.Value{}, errors.Wrap(dck.ErrUndefinedName, n.Name)

	case *Negate:
		x, err := Eval(n.X, scope)
		if err != nil {
			return dck.Value{}, err
		}
		return x.Neg(), nil

	case *Binary:
		l, err := Eval(n.L, scope)
		if err != nil {
			return dck.Value{}, err
		}
		r, err := Eval(n.R, scope)
		if err != nil {
			return dck.Value{}, err
		}
		switch n.Op {
		case OpPlus:
			return l.Add(r), nil
		case OpMinus:
			return l.Sub(r), nil
		case OpTimes:
			return l.Mul(r), nil
		case OpDividedBy:
			return l.Div(r)
		case OpToPowerOf:
			return l.Pow(r)
		}
		return dck.Value{}, errors.Errorf("unknown operator %q", byte(n.Op))

	case *Call:
		fn, ok := LookupFunc(n.Func)
		if !ok {
			return dck.Value{}, errors.Wrap(dck.ErrUnsupportedFunction, n.Func)
		}
		if err := fn.CheckArity(len(n.Args)); err != nil {
			return dck.Value{}, err
		}
		args := make([]dck.Value, len(n.Args))
		for i, arg := range n.Args {
			v, err := Eval(arg, scope)
			if err != nil {
				return dck.Value{}, err
			}
			args[i] = v
		}
		return fn.Call(args)

	case *OutputRefNode:
		return dck.Value{}, errors.Wrapf(dck.ErrOutputRef, "[%s,%s]", n.Unit, n.Output)
	}

	return dck.Value{}, errors.Errorf("unknown expression node %T", n)
}

// CheckCalls statically validates every call in n against the function library.
// It returns the first unsupported function name, or an ErrArity error.
func CheckCalls(n Node) (unsupported string, err error) {
	Walk(n, func(n Node) {
		call, ok := n.(*Call)
		if !ok || unsupported != "" || err != nil {
			return
		}
		fn, ok := LookupFunc(call.Func)
		if !ok {
			unsupported = call.Func
			return
		}
		err = fn.CheckArity(len(call.Args))
	})
	return unsupported, err
}
