package libdck

import (
	"fmt"
	"sort"

	"github.com/emirpasic/gods/maps/linkedhashmap"
	"github.com/plan-systems/klog"
	"github.com/pytrnsys/godck/dck"
)

// Resolver evaluates declarations to a fixed point.
//
// A Resolver holds the state of one extraction and is not safe for concurrent use; make one per deck.
type Resolver struct {
	resolved  map[string]dck.Value // by Decl.Key
	constants dck.Constants        // by Decl.Name
	declared  map[string]int       // Decl.Key -> line first declared on
	dynamic   map[string]struct{}  // keys only known while a simulation runs
	pending   *linkedhashmap.Map   // Decl.Key -> *Decl, in declaration order
	diags     []dck.Diagnostic
	passes    int
}

func NewResolver() *Resolver {
	return &Resolver{
		resolved:  make(map[string]dck.Value),
		constants: make(dck.Constants),
		declared:  make(map[string]int),
		dynamic:   make(map[string]struct{}),
		pending:   linkedhashmap.New(),
	}
}

// Passes returns the number of passes over the pending set the last Resolve needed.
func (R *Resolver) Passes() int {
	return R.passes
}

// Lookup is the Scope of resolved names.
func (R *Resolver) Lookup(key string) (dck.Value, bool) {
	v, ok := R.resolved[key]
	return v, ok
}

// Resolve evaluates every declaration it can and reports the rest.
//
// Declarations whose names are all resolved (or that reference no names) are evaluated; the others wait
// in the pending set until a pass over it resolves nothing more.  Declaration order never changes
// which names resolve, only the order of the diagnostics.
func (R *Resolver) Resolve(decls []*Decl) (dck.Constants, []dck.Diagnostic) {
	for _, decl := range decls {
		R.admit(decl)
	}

	R.passes = 0
	for !R.pending.Empty() {
		R.passes++
		resolvedThisPass := 0

		for _, key := range R.pending.Keys() {
			val, _ := R.pending.Get(key)
			decl := val.(*Decl)
			if !R.isReady(decl) {
				continue
			}
			R.pending.Remove(key)
			if R.evaluate(decl) {
				resolvedThisPass++
			}
		}

		klog.V(3).Infof("pass %d: resolved %d, %d pending", R.passes, resolvedThisPass, R.pending.Size())
		if resolvedThisPass == 0 {
			break
		}
	}

	R.dropDynamic()
	R.reportUnresolved()

	sort.SliceStable(R.diags, func(i, j int) bool {
		return R.diags[i].Line < R.diags[j].Line
	})
	return R.constants, R.diags
}

// admit is the first look at a declaration: it is rejected, set aside as dynamic, evaluated, or left pending.
func (R *Resolver) admit(decl *Decl) {
	if firstLine, exists := R.declared[decl.Key]; exists {
		R.diags = append(R.diags, dck.Diagnostic{
			Kind:     dck.Redeclared,
			Line:     decl.Line,
			Name:     decl.Name,
			Equation: decl.Equation,
			Message:  fmt.Sprintf("%s was already declared on line %d", decl.Name, firstLine),
		})
		return
	}
	R.declared[decl.Key] = decl.Line

	unsupported, err := CheckCalls(decl.Expr)
	if unsupported != "" {
		R.diags = append(R.diags, dck.Diagnostic{
			Kind:     dck.UnsupportedFunction,
			Line:     decl.Line,
			Name:     decl.Name,
			Equation: decl.Equation,
			Function: unsupported,
			Message:  fmt.Sprintf("%s: %v", unsupported, dck.ErrUnsupportedFunction),
		})
		return
	}
	if err != nil {
		R.fail(decl, err)
		return
	}

	if HasOutputRef(decl.Expr) {
		klog.V(3).Infof("line %d: %s reads a unit output, skipping", decl.Line, decl.Name)
		R.dynamic[decl.Key] = struct{}{}
		return
	}

	if len(decl.Deps) == 0 {
		R.evaluate(decl)
	} else {
		R.pending.Put(decl.Key, decl)
	}
}

func (R *Resolver) isReady(decl *Decl) bool {
	for _, dep := range decl.Deps {
		if _, ok := R.resolved[dep]; !ok {
			return false
		}
	}
	return true
}

// evaluate records decl's value and returns true, or records a diagnostic and returns false.
func (R *Resolver) evaluate(decl *Decl) bool {
	v, err := Eval(decl.Expr, R.Lookup)
	if err != nil {
		R.fail(decl, err)
		return false
	}
	R.resolved[decl.Key] = v
	R.constants[decl.Name] = v
	return true
}

func (R *Resolver) fail(decl *Decl, err error) {
	R.diags = append(R.diags, dck.Diagnostic{
		Kind:     dck.EvaluationError,
		Line:     decl.Line,
		Name:     decl.Name,
		Equation: decl.Equation,
		Message:  err.Error(),
	})
}

// dropDynamic removes pending declarations that (transitively) depend on unit outputs.
func (R *Resolver) dropDynamic() {
	for changed := true; changed; {
		changed = false
		for _, key := range R.pending.Keys() {
			val, _ := R.pending.Get(key)
			decl := val.(*Decl)
			for _, dep := range decl.Deps {
				if _, isDynamic := R.dynamic[dep]; isDynamic {
					R.dynamic[decl.Key] = struct{}{}
					R.pending.Remove(key)
					changed = true
					break
				}
			}
		}
	}
}

func (R *Resolver) reportUnresolved() {
	for _, val := range R.pending.Values() {
		decl := val.(*Decl)
		var missing []string
		for _, dep := range decl.Deps {
			if _, ok := R.resolved[dep]; !ok {
				missing = append(missing, dep)
			}
		}
		R.diags = append(R.diags, dck.Diagnostic{
			Kind:     dck.Unresolved,
			Line:     decl.Line,
			Name:     decl.Name,
			Equation: decl.Equation,
			Missing:  missing,
			Message:  fmt.Sprintf("%v: %v", dck.ErrUndefinedName, missing),
		})
	}
	R.pending.Clear()
}
